package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/kirillkom/studymate/internal/core/domain"
)

const (
	fileField        = "pdf"
	multipartMemory  = 8 << 20
	requestOperation = "parse_request"
)

// parseActionRequest accepts multipart forms, urlencoded forms, and JSON objects.
// Only the first value of a repeated form field is kept.
func parseActionRequest(r *http.Request) (map[string]string, domain.FileHandle, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return nil, nil, wrapParseError(err, "must be a valid multipart form")
		}
		return formFields(r.PostForm), uploadedFile(r.MultipartForm), nil
	case "application/json":
		fields, err := jsonFields(r.Body)
		return fields, nil, err
	default:
		if err := r.ParseForm(); err != nil {
			return nil, nil, wrapParseError(err, "must be a valid form")
		}
		return formFields(r.PostForm), nil, nil
	}
}

func wrapParseError(err error, reason string) error {
	if isTooLarge(err) {
		return err
	}
	return domain.NewValidationError(requestOperation, "request", reason)
}

func formFields(values map[string][]string) map[string]string {
	fields := make(map[string]string, len(values))
	for key, vals := range values {
		if len(vals) > 0 {
			fields[key] = vals[0]
		}
	}
	return fields
}

// jsonFields flattens a JSON object into form fields; non-string values keep their JSON text.
func jsonFields(body io.Reader) (map[string]string, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		if isTooLarge(err) {
			return nil, err
		}
		return nil, domain.NewValidationError(requestOperation, "request", "must be a JSON object")
	}

	fields := make(map[string]string, len(raw))
	for key, value := range raw {
		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			fields[key] = s
			continue
		}
		fields[key] = strings.TrimSpace(string(value))
	}
	return fields, nil
}

func uploadedFile(form *multipart.Form) domain.FileHandle {
	if form == nil {
		return nil
	}
	headers := form.File[fileField]
	if len(headers) == 0 {
		return nil
	}
	return &multipartFile{header: headers[0]}
}

func cleanupMultipart(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

// multipartFile defers reading the part until the core asks for its bytes.
type multipartFile struct {
	header *multipart.FileHeader
}

func (f *multipartFile) Name() string { return f.header.Filename }

func (f *multipartFile) MimeType() string { return f.header.Header.Get("Content-Type") }

func (f *multipartFile) Size() int64 { return f.header.Size }

func (f *multipartFile) Bytes() ([]byte, error) {
	file, err := f.header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %q: %w", f.header.Filename, err)
	}
	defer file.Close()
	return io.ReadAll(file)
}
