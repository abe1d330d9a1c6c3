package delimiter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feedResult struct {
	statements []string
	lineBreaks int
}

func feedAll(l *Lexer, input string) feedResult {
	var res feedResult
	for _, r := range input {
		ev, stmt := l.Feed(r)
		switch ev {
		case LineBreak:
			res.lineBreaks++
		case Completed:
			res.statements = append(res.statements, stmt)
		}
	}
	return res
}

func newLexer(t *testing.T) *Lexer {
	t.Helper()
	l, err := NewLexer(DefaultTerminator)
	require.NoError(t, err)
	return l
}

func TestLexer_SingleLine(t *testing.T) {
	l := newLexer(t)

	res := feedAll(l, "select 1;\n")

	assert.Equal(t, []string{"select 1"}, res.statements)
	assert.Equal(t, 0, res.lineBreaks)
	assert.Equal(t, Accumulating, l.State())
	assert.Empty(t, l.Pending())
}

func TestLexer_MultiLine(t *testing.T) {
	l := newLexer(t)

	res := feedAll(l, "select\n  1\n;\n")

	assert.Equal(t, []string{"select\n  1\n"}, res.statements)
	assert.Equal(t, 2, res.lineBreaks, "each newline before the terminator prompts for continuation")
}

func TestLexer_DiscardsRestOfLine(t *testing.T) {
	l := newLexer(t)

	res := feedAll(l, "a; b; c\nd;\n")

	assert.Equal(t, []string{"a", "d"}, res.statements)
}

func TestLexer_TerminatorInsideLiteral(t *testing.T) {
	l := newLexer(t)

	res := feedAll(l, "select 'x;y';\n")

	assert.Equal(t, []string{"select 'x"}, res.statements)
}

func TestLexer_NoTerminator(t *testing.T) {
	l := newLexer(t)

	res := feedAll(l, "select 1\n")

	assert.Empty(t, res.statements)
	assert.Equal(t, 1, res.lineBreaks)
	assert.Equal(t, "select 1\n", l.Pending())

	_, ok := l.Flush()
	assert.False(t, ok, "unterminated input is never dispatched")
}

func TestLexer_FlushAfterTerminator(t *testing.T) {
	l := newLexer(t)

	res := feedAll(l, "select 2; trailing")
	assert.Empty(t, res.statements)
	assert.Equal(t, DiscardingToLineEnd, l.State())

	stmt, ok := l.Flush()
	assert.True(t, ok)
	assert.Equal(t, "select 2", stmt)
	assert.Equal(t, Accumulating, l.State())
}

func TestLexer_EmptyStatement(t *testing.T) {
	l := newLexer(t)

	res := feedAll(l, ";\n")

	assert.Equal(t, []string{""}, res.statements)
}

func TestLexer_CustomTerminator(t *testing.T) {
	l, err := NewLexer('$')
	require.NoError(t, err)

	res := feedAll(l, "x = 1; y = 2$\n")

	assert.Equal(t, []string{"x = 1; y = 2"}, res.statements)
}

func TestLexer_Reset(t *testing.T) {
	l := newLexer(t)
	feedAll(l, "partial")

	l.Reset()

	assert.Empty(t, l.Pending())
	assert.Equal(t, Accumulating, l.State())
}

func TestParseTerminator(t *testing.T) {
	tests := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{in: "", want: ';'},
		{in: ";", want: ';'},
		{in: "é", want: 'é'},
		{in: ";;", wantErr: true},
		{in: "\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTerminator(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadBatch(t *testing.T) {
	stmt, err := ReadBatch(strings.NewReader("a;\nb;\n"), "script.sql")
	require.NoError(t, err)

	assert.Equal(t, "a;\nb;\n", stmt.Text, "batch input is one statement, terminators included")
	assert.Equal(t, "script.sql", stmt.Source)
	assert.Equal(t, "script.sql:1", stmt.String())
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.star")
	require.NoError(t, os.WriteFile(path, []byte("emit(['a'])\n"), 0o600))

	stmt, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "emit(['a'])\n", stmt.Text)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.star"))
	assert.Error(t, err)
}
