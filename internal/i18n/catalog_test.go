package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbedded(t *testing.T) {
	t.Parallel()

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"en", "ru"}, c.locales)
	assert.Equal(t, "English", c.Name("en"))
	assert.Equal(t, "Русский", c.Name("ru"))
	assert.Equal(t, "de", c.Name("de"))
	assert.Equal(t, DefaultLocale, c.fallback)
}

func TestEmbeddedCatalogsHaveSameKeys(t *testing.T) {
	t.Parallel()

	c, err := Load()
	require.NoError(t, err)

	for key := range c.messages[DefaultLocale] {
		assert.True(t, c.Has("ru", key), "ru is missing %q", key)
	}
	for key := range c.messages["ru"] {
		assert.True(t, c.Has("en", key), "en is missing %q", key)
	}
}

func TestText(t *testing.T) {
	t.Parallel()

	c, err := Load()
	require.NoError(t, err)

	tests := []struct {
		name   string
		locale string
		key    string
		args   []any
		want   string
	}{
		{"plain en", "en", "done", nil, "Done"},
		{"plain ru", "ru", "done", nil, "Готово"},
		{"argument", "en", "no_more_card", []any{"Alice"}, "No more questions available for Alice in any deck."},
		{"argument ru", "ru", "stats_total", []any{"5 сек"}, "Общее время в игре: 5 сек"},
		{"number", "en", "duration_minutes", []any{3}, "3 min"},
		{"indexed", "en", "card_plain", []any{"Bob", "Sing", 2}, "Bob: Sing (sips: 2)"},
		{"unknown locale falls back", "de", "done", nil, "Done"},
		{"unknown key", "en", "nope", nil, "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Text(tt.locale, tt.key, tt.args...))
		})
	}
}

func TestMatch(t *testing.T) {
	t.Parallel()

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ru", c.Match("ru"))
	assert.Equal(t, "ru", c.Match("ru-RU"))
	assert.Equal(t, "en", c.Match("en-GB"))
	assert.Equal(t, "en", c.Match(""))
	assert.Equal(t, "en", c.Match("ja"))
}

func TestLoadFSErrors(t *testing.T) {
	t.Parallel()

	valid := `locale = "en"
name = "English"
messages = {
  done = "Done"
}
`
	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{"no files", fstest.MapFS{}},
		{"bad syntax", fstest.MapFS{"locales/en.hcl": {Data: []byte("locale = ")}}},
		{"missing fallback", fstest.MapFS{"locales/ru.hcl": {Data: []byte(`locale = "ru"
name = "Русский"
messages = { done = "Готово" }
`)}}},
		{"empty messages", fstest.MapFS{"locales/en.hcl": {Data: []byte(`locale = "en"
name = "English"
messages = {}
`)}}},
		{"duplicate locale", fstest.MapFS{
			"locales/a.hcl": {Data: []byte(valid)},
			"locales/b.hcl": {Data: []byte(valid)},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFS(tt.fsys, "en")
			assert.Error(t, err)
		})
	}

	c, err := LoadFS(fstest.MapFS{"locales/en.hcl": {Data: []byte(valid)}}, "en")
	require.NoError(t, err)
	assert.Equal(t, "Done", c.Text("en", "done"))
}
