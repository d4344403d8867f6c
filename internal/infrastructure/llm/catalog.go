package llm

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/studymate/internal/core/domain"
)

//go:embed capabilities.yaml
var defaultCatalog []byte

type capabilityEntry struct {
	System   string `yaml:"system"`
	Template string `yaml:"template"`
}

type catalogFile struct {
	Capabilities map[string]capabilityEntry `yaml:"capabilities"`
}

type prompt struct {
	system   string
	template *template.Template
}

// Catalog renders the prompt of each capability from its structured input.
type Catalog struct {
	prompts map[domain.Capability]prompt
}

func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

func ParseCatalog(raw []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse capability catalog: %w", err)
	}
	if len(file.Capabilities) == 0 {
		return nil, fmt.Errorf("capability catalog is empty")
	}

	out := &Catalog{prompts: make(map[domain.Capability]prompt, len(file.Capabilities))}
	for name, entry := range file.Capabilities {
		tmpl, err := template.New(name).Option("missingkey=zero").Parse(entry.Template)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		out.prompts[domain.Capability(name)] = prompt{
			system:   strings.TrimSpace(entry.System),
			template: tmpl,
		}
	}
	return out, nil
}

// Render executes the capability template against the JSON form of input,
// so templates address fields by their wire names.
func (c *Catalog) Render(capability domain.Capability, input any) (string, error) {
	p, ok := c.prompts[capability]
	if !ok {
		return "", fmt.Errorf("unknown capability %q", capability)
	}

	data, err := asTemplateData(input)
	if err != nil {
		return "", fmt.Errorf("prepare %s input: %w", capability, err)
	}

	var sb strings.Builder
	if p.system != "" {
		sb.WriteString(p.system)
		sb.WriteString("\n\n")
	}
	if err := p.template.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", capability, err)
	}
	return strings.TrimSpace(sb.String()), nil
}

func asTemplateData(input any) (map[string]any, error) {
	raw, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	data := map[string]any{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}
