package localfs

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
)

// File is a FileHandle backed by a path on disk. Metadata comes from stat at
// Open time; the contents are read only when Bytes is called.
type File struct {
	path     string
	name     string
	mimeType string
	size     int64
}

// Open stats path and rejects directories and files over maxBytes (0 disables the cap).
func Open(path string, maxBytes int64) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return nil, fmt.Errorf("%s is larger than %d bytes", path, maxBytes)
	}
	return &File{
		path:     path,
		name:     filepath.Base(path),
		mimeType: mime.TypeByExtension(filepath.Ext(path)),
		size:     info.Size(),
	}, nil
}

func (f *File) Name() string     { return f.name }
func (f *File) MimeType() string { return f.mimeType }
func (f *File) Size() int64      { return f.size }

func (f *File) Bytes() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", f.path, err)
	}
	return data, nil
}
