// Package i18n loads localized message catalogs. A Bundle is built once at
// startup and is read-only afterwards; pass it to whatever needs messages.
package i18n

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"text/template"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the fallback for missing locales and keys.
const BaseLocale = "en-US"

//go:embed locales/*/*.yaml
var embeddedFS embed.FS

type catalogFile struct {
	Locale    string            `yaml:"locale"`
	Namespace string            `yaml:"namespace"`
	Messages  map[string]string `yaml:"messages"`
}

type localeCatalog struct {
	namespaces map[string]struct{}
	templates  map[string]*template.Template
	raw        map[string]string
}

// Bundle holds all message templates grouped by locale.
type Bundle struct {
	locales map[string]*localeCatalog
	order   []string
	matcher language.Matcher
}

// LoadEmbedded loads the catalogs compiled into the binary.
func LoadEmbedded() (*Bundle, error) {
	return Load("")
}

// Load loads the embedded catalogs, then overlays catalogs found under dir
// (same locales/<locale>/<namespace>.yaml layout). Overlay keys replace
// embedded ones.
func Load(dir string) (*Bundle, error) {
	b := &Bundle{locales: map[string]*localeCatalog{}}
	if err := b.addFS(embeddedFS, false); err != nil {
		return nil, err
	}
	if dir != "" {
		if err := b.addFS(os.DirFS(dir), true); err != nil {
			return nil, err
		}
	}
	return b, b.finish()
}

// LoadFromFS builds a bundle from fsys only.
func LoadFromFS(fsys fs.FS) (*Bundle, error) {
	b := &Bundle{locales: map[string]*localeCatalog{}}
	if err := b.addFS(fsys, false); err != nil {
		return nil, err
	}
	return b, b.finish()
}

func (b *Bundle) addFS(fsys fs.FS, override bool) error {
	paths, err := fs.Glob(fsys, "locales/*/*.yaml")
	if err != nil {
		return fmt.Errorf("glob locale catalogs: %w", err)
	}
	sort.Strings(paths)
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read catalog %s: %w", p, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("parse catalog %s: %w", p, err)
		}
		if err := b.addFile(p, file, override); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bundle) addFile(p string, file catalogFile, override bool) error {
	localeFromPath := path.Base(path.Dir(p))
	namespaceFromPath := strings.TrimSuffix(path.Base(p), path.Ext(p))

	locale := strings.TrimSpace(file.Locale)
	if locale != localeFromPath {
		return fmt.Errorf("catalog %s: locale %q must match path locale %q", p, locale, localeFromPath)
	}
	if _, err := language.Parse(locale); err != nil {
		return fmt.Errorf("catalog %s: %w", p, err)
	}
	namespace := strings.TrimSpace(file.Namespace)
	if namespace != namespaceFromPath {
		return fmt.Errorf("catalog %s: namespace %q must match filename namespace %q", p, namespace, namespaceFromPath)
	}
	if len(file.Messages) == 0 {
		return fmt.Errorf("catalog %s: messages map is required", p)
	}

	lc, ok := b.locales[locale]
	if !ok {
		lc = &localeCatalog{
			namespaces: map[string]struct{}{},
			templates:  map[string]*template.Template{},
			raw:        map[string]string{},
		}
		b.locales[locale] = lc
	}
	if _, exists := lc.namespaces[namespace]; exists && !override {
		return fmt.Errorf("catalog %s: namespace %q already defined for locale %q", p, namespace, locale)
	}
	lc.namespaces[namespace] = struct{}{}

	for key, value := range file.Messages {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("catalog %s: message key cannot be blank", p)
		}
		if _, exists := lc.raw[key]; exists && !override {
			return fmt.Errorf("catalog %s: duplicate key %q in locale %q", p, key, locale)
		}
		tmpl, err := template.New(key).Option("missingkey=zero").Parse(value)
		if err != nil {
			return fmt.Errorf("catalog %s: key %q: %w", p, key, err)
		}
		lc.templates[key] = tmpl
		lc.raw[key] = value
	}
	return nil
}

func (b *Bundle) finish() error {
	if _, ok := b.locales[BaseLocale]; !ok {
		return fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}
	// The base locale goes first so it wins when nothing matches.
	b.order = append(b.order[:0], BaseLocale)
	for locale := range b.locales {
		if locale != BaseLocale {
			b.order = append(b.order, locale)
		}
	}
	sort.Strings(b.order[1:])
	tags := make([]language.Tag, len(b.order))
	for i, locale := range b.order {
		tags[i] = language.MustParse(locale)
	}
	b.matcher = language.NewMatcher(tags)
	return nil
}

// Locales returns the available locales, base locale first.
func (b *Bundle) Locales() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Match picks the best available locale for an Accept-Language header value
// or a plain locale tag.
func (b *Bundle) Match(accept string) string {
	if strings.TrimSpace(accept) == "" {
		return BaseLocale
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return BaseLocale
	}
	_, idx, conf := b.matcher.Match(tags...)
	if conf == language.No {
		return BaseLocale
	}
	return b.order[idx]
}

// Template returns the raw template for key with base-locale fallback.
func (b *Bundle) Template(locale, key string) (string, bool) {
	if lc, ok := b.locales[locale]; ok {
		if v, ok := lc.raw[key]; ok {
			return v, true
		}
	}
	v, ok := b.locales[BaseLocale].raw[key]
	return v, ok
}

// Format renders the message for key with args interpolated. The locale is
// matched first, then the base locale is tried.
func (b *Bundle) Format(locale, key string, args map[string]string) (string, bool) {
	tmpl := b.lookup(b.Match(locale), key)
	if tmpl == nil {
		return "", false
	}
	if args == nil {
		args = map[string]string{}
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, args); err != nil {
		return "", false
	}
	return buf.String(), true
}

func (b *Bundle) lookup(locale, key string) *template.Template {
	if lc, ok := b.locales[locale]; ok {
		if t, ok := lc.templates[key]; ok {
			return t
		}
	}
	return b.locales[BaseLocale].templates[key]
}
