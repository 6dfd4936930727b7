package deck

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDeck = "question\tsip\nWhat is your worst habit?\t3\nSing a song\t1\n"

func TestParse(t *testing.T) {
	t.Parallel()

	d, err := Parse("questions", strings.NewReader(sampleDeck))
	require.NoError(t, err)

	assert.Equal(t, "questions", d.Name())
	require.Equal(t, 2, d.Len())

	c, ok := d.Card(0)
	require.True(t, ok)
	assert.Equal(t, Card{Prompt: "What is your worst habit?", Weight: 3}, c)

	c, ok = d.Card(1)
	require.True(t, ok)
	assert.Equal(t, Card{Prompt: "Sing a song", Weight: 1}, c)

	_, ok = d.Card(2)
	assert.False(t, ok)
}

func TestParseColumnOrderAndExtras(t *testing.T) {
	t.Parallel()

	src := "\ufeffsip\tcategory\tquestion\n2\tfun\tDance\n\t\t\n5\tspicy\tKiss \"someone\"\n"
	d, err := Parse("mixed", strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, []Card{
		{Prompt: "Dance", Weight: 2},
		{Prompt: `Kiss "someone"`, Weight: 5},
	}, d.cards)
}

func TestParseDeterministic(t *testing.T) {
	t.Parallel()

	a, err := Parse("q", strings.NewReader(sampleDeck))
	require.NoError(t, err)
	b, err := Parse("q", strings.NewReader(sampleDeck))
	require.NoError(t, err)
	assert.Equal(t, a.cards, b.cards)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		src    string
		target error
		line   int
	}{
		{name: "empty source", src: "", target: ErrEmptyDeck},
		{name: "header only", src: "question\tsip\n", target: ErrEmptyDeck},
		{name: "missing sip column", src: "question\tweight\nHi\t1\n", target: ErrMissingColumns, line: 1},
		{name: "non-integer sip", src: "question\tsip\nHi\tlots\n", line: 2},
		{name: "weight too high", src: "question\tsip\nHi\t6\nHo\t1\n", line: 2},
		{name: "weight too low", src: "question\tsip\nHo\t1\nHi\t0\n", line: 3},
		{name: "empty prompt", src: "question\tsip\n \t2\n", line: 2},
		{name: "short row", src: "question\tsip\nonly-question\n", line: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("broken", strings.NewReader(tt.src))
			require.Error(t, err)

			var le *LoadError
			require.True(t, errors.As(err, &le), "expected *LoadError, got %T", err)
			assert.Equal(t, "broken", le.Deck)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			if tt.line > 0 {
				assert.Equal(t, tt.line, le.Line)
			}
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	cards := []Card{{Prompt: "a", Weight: 1}}
	d, err := New("mem", cards)
	require.NoError(t, err)
	cards[0].Prompt = "mutated"
	c, _ := d.Card(0)
	assert.Equal(t, "a", c.Prompt, "deck must not alias the input slice")

	_, err = New("none", nil)
	assert.ErrorIs(t, err, ErrEmptyDeck)

	_, err = New("bad", []Card{{Prompt: "x", Weight: 9}})
	assert.Error(t, err)
}

func TestWeightHistogram(t *testing.T) {
	t.Parallel()

	d, err := New("h", []Card{{"a", 1}, {"b", 3}, {"c", 3}, {"d", 5}})
	require.NoError(t, err)
	h := d.WeightHistogram()
	assert.Equal(t, [MaxWeight + 1]int{0, 1, 0, 2, 0, 1}, h)
}

type countingFS struct {
	fstest.MapFS
	opens map[string]int
}

func (c *countingFS) Open(name string) (fs.File, error) {
	c.opens[name]++
	return c.MapFS.Open(name)
}

func TestStore(t *testing.T) {
	t.Parallel()

	fsys := &countingFS{
		MapFS: fstest.MapFS{
			"questions.csv": {Data: []byte(sampleDeck)},
			"вопросы.csv":   {Data: []byte("question\tsip\nКто ты?\t2\n")},
			"broken.csv":    {Data: []byte("question\tsip\n")},
			"notes.txt":     {Data: []byte("ignored")},
		},
		opens: map[string]int{},
	}
	store := NewStore(fsys)

	t.Run("loads and caches", func(t *testing.T) {
		first, err := store.Load("questions")
		require.NoError(t, err)
		second, err := store.Load("questions")
		require.NoError(t, err)
		assert.Same(t, first, second)
		assert.Equal(t, 1, fsys.opens["questions.csv"])
	})

	t.Run("unicode names", func(t *testing.T) {
		d, err := store.Load("вопросы")
		require.NoError(t, err)
		assert.Equal(t, 1, d.Len())
	})

	t.Run("missing deck", func(t *testing.T) {
		_, err := store.Load("actions")
		var le *LoadError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, "actions.csv", le.Path)
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("malformed deck is not cached", func(t *testing.T) {
		_, err := store.Load("broken")
		assert.ErrorIs(t, err, ErrEmptyDeck)
		_, err = store.Load("broken")
		assert.ErrorIs(t, err, ErrEmptyDeck)
		assert.Equal(t, 2, fsys.opens["broken.csv"])
	})

	t.Run("rejects path traversal", func(t *testing.T) {
		for _, name := range []string{"", "../secrets", "a/b", ".hidden"} {
			_, err := store.Load(name)
			assert.ErrorIs(t, err, ErrInvalidName, name)
		}
	})

	t.Run("available", func(t *testing.T) {
		names, err := store.Available()
		require.NoError(t, err)
		assert.Equal(t, []string{"broken", "questions", "вопросы"}, names)
	})
}

func TestBundledDecks(t *testing.T) {
	t.Parallel()

	store := NewDirStore(filepath.Join("..", "..", "decks"))
	names, err := store.Available()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"questions", "actions", "вопросы", "действия"}, names)

	for _, name := range names {
		d, err := store.Load(name)
		require.NoError(t, err, name)
		assert.Positive(t, d.Len(), name)
	}
}
