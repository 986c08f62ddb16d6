package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

// DefaultLanguage backs every other catalog: keys a translation lacks fall back to it.
const DefaultLanguage = "en"

// Translator is a flat key -> format catalog. It is read-only after construction.
type Translator struct {
	lang     string
	messages map[string]string
}

// NewTranslator loads locales/<langCode>.yaml from fsys on top of the default catalog.
func NewTranslator(fsys fs.FS, langCode string) (*Translator, error) {
	messages, err := loadCatalog(fsys, langCode)
	if err != nil {
		return nil, err
	}
	if langCode != DefaultLanguage {
		base, err := loadCatalog(fsys, DefaultLanguage)
		if err != nil {
			return nil, err
		}
		for k, v := range messages {
			base[k] = v
		}
		messages = base
	}
	return &Translator{lang: langCode, messages: messages}, nil
}

func loadCatalog(fsys fs.FS, langCode string) (map[string]string, error) {
	file := path.Join("locales", langCode+".yaml")
	data, err := fs.ReadFile(fsys, file)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", file, err)
	}
	messages, err := parseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return messages, nil
}

func parseCatalog(data []byte) (map[string]string, error) {
	messages := map[string]string{}
	if err := yaml.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return messages, nil
}

// T returns the message for key formatted with args, or the key itself when missing.
func (t *Translator) T(key string, args ...any) string {
	format, ok := t.messages[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

// Has reports whether key exists in the catalog.
func (t *Translator) Has(key string) bool {
	_, ok := t.messages[key]
	return ok
}

func (t *Translator) Lang() string { return t.lang }
