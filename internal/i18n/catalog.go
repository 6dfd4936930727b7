// Package i18n resolves user-facing strings: Text(locale, key, args...) is
// the only way the rest of the program produces words.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// DefaultLocale is used when a locale or key is missing.
const DefaultLocale = "en"

//go:embed locales/*.hcl
var embedded embed.FS

type catalogFile struct {
	Locale   string            `hcl:"locale"`
	Name     string            `hcl:"name"`
	Messages map[string]string `hcl:"messages"`
}

// Catalog holds the messages of every locale.
type Catalog struct {
	fallback string
	locales  []string
	names    map[string]string
	messages map[string]map[string]string
	printers map[string]*message.Printer
	matcher  language.Matcher
}

// Load reads the catalogs embedded in the binary.
func Load() (*Catalog, error) {
	return LoadFS(embedded, DefaultLocale)
}

// LoadFS reads every locales/*.hcl file of fsys. The fallback locale must be
// among them.
func LoadFS(fsys fs.FS, fallback string) (*Catalog, error) {
	paths, err := fs.Glob(fsys, "locales/*.hcl")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no locale catalogs found")
	}
	sort.Strings(paths)

	c := &Catalog{
		fallback: fallback,
		names:    map[string]string{},
		messages: map[string]map[string]string{},
		printers: map[string]*message.Printer{},
	}
	builder := catalog.NewBuilder(catalog.Fallback(language.Make(fallback)))
	parser := hclparse.NewParser()

	var tags []language.Tag
	for _, path := range paths {
		src, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		file, diags := parser.ParseHCL(src, path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parse catalog %s: %s", path, diags.Error())
		}
		var parsed catalogFile
		if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
			return nil, fmt.Errorf("decode catalog %s: %s", path, diags.Error())
		}

		locale := strings.TrimSpace(parsed.Locale)
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: parse locale %q: %w", path, locale, err)
		}
		if _, dup := c.messages[locale]; dup {
			return nil, fmt.Errorf("catalog %s: locale %q defined twice", path, locale)
		}
		if len(parsed.Messages) == 0 {
			return nil, fmt.Errorf("catalog %s: no messages", path)
		}

		msgs := make(map[string]string, len(parsed.Messages))
		for key, value := range parsed.Messages {
			if err := builder.SetString(tag, key, value); err != nil {
				return nil, fmt.Errorf("catalog %s: key %q: %w", path, key, err)
			}
			msgs[key] = value
		}

		c.messages[locale] = msgs
		c.names[locale] = parsed.Name
		c.locales = append(c.locales, locale)
		tags = append(tags, tag)
	}

	if _, ok := c.messages[fallback]; !ok {
		return nil, fmt.Errorf("fallback locale %s is not defined in catalogs", fallback)
	}

	for i, locale := range c.locales {
		c.printers[locale] = message.NewPrinter(tags[i], message.Catalog(builder))
	}
	c.matcher = language.NewMatcher(tags)
	return c, nil
}

// Text formats key for locale. Missing locales and keys fall back to the
// default locale; a key missing everywhere is returned as is.
func (c *Catalog) Text(locale, key string, args ...any) string {
	if !c.Has(locale, key) {
		locale = c.fallback
		if !c.Has(locale, key) {
			return key
		}
	}
	return c.printers[locale].Sprintf(key, args...)
}

// Has reports whether locale defines key.
func (c *Catalog) Has(locale, key string) bool {
	_, ok := c.messages[locale][key]
	return ok
}

// Supports reports whether locale has a catalog.
func (c *Catalog) Supports(locale string) bool {
	_, ok := c.messages[locale]
	return ok
}

// Name returns the display name of a locale.
func (c *Catalog) Name(locale string) string {
	if n := c.names[locale]; n != "" {
		return n
	}
	return locale
}

// Match picks the closest available locale for a client language code such
// as "ru-RU" or "en-GB".
func (c *Catalog) Match(code string) string {
	if code == "" {
		return c.fallback
	}
	_, index, confidence := c.matcher.Match(language.Make(code))
	if confidence == language.No {
		return c.fallback
	}
	return c.locales[index]
}
