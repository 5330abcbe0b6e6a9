package countries

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/countries.yaml
var dataFS embed.FS

type countryFile struct {
	Countries []string `yaml:"countries"`
}

// FallbackList serves the embedded country list.
type FallbackList struct {
	once      sync.Once
	countries []string
	err       error
}

func NewFallbackList() *FallbackList {
	return &FallbackList{}
}

func (l *FallbackList) init() {
	raw, err := dataFS.ReadFile("data/countries.yaml")
	if err != nil {
		l.err = fmt.Errorf("read embedded countries: %w", err)
		return
	}
	l.countries, l.err = ParseList(raw)
}

// Countries returns the embedded list. The slice must not be modified.
func (l *FallbackList) Countries() ([]string, error) {
	l.once.Do(l.init)
	return l.countries, l.err
}

// ParseList decodes a YAML country list, dropping blank entries.
func ParseList(raw []byte) ([]string, error) {
	var f countryFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse countries: %w", err)
	}
	out := make([]string, 0, len(f.Countries))
	for _, c := range f.Countries {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out, nil
}
