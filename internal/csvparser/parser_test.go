package csvparser

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Row
	}{
		{
			name:  "blank input",
			input: "",
			want:  nil,
		},
		{
			name:  "quoted delimiter",
			input: `a,"b,c",d`,
			want:  []Row{{"a", "b,c", "d"}},
		},
		{
			name:  "escaped quote",
			input: `"x""y"`,
			want:  []Row{{`x"y`}},
		},
		{
			name:  "embedded newline",
			input: "a,\"line1\nline2\"\nb,c\n",
			want:  []Row{{"a", "line1\nline2"}, {"b", "c"}},
		},
		{
			name:  "carriage returns dropped everywhere",
			input: "a,b\r\n\"c\r\nd\",e\r\n",
			want:  []Row{{"a", "b"}, {"c\nd", "e"}},
		},
		{
			name:  "no trailing newline flushes last row",
			input: "h1,h2\nv1,v2",
			want:  []Row{{"h1", "h2"}, {"v1", "v2"}},
		},
		{
			name:  "trailing delimiter flushes empty last field",
			input: "a,",
			want:  []Row{{"a", ""}},
		},
		{
			name:  "empty line yields a single empty field",
			input: "a\n\nb\n",
			want:  []Row{{"a"}, {""}, {"b"}},
		},
		{
			name:  "unterminated quote absorbs the rest",
			input: "a,\"b,c\nd",
			want:  []Row{{"a", "b,c\nd"}},
		},
		{
			name:  "quote in the middle of a field",
			input: `ab"c,d"e`,
			want:  []Row{{"abc,de"}},
		},
		{
			name:  "accented content preserved",
			input: "Compañía,Iberdrola\n",
			want:  []Row{{"Compañía", "Iberdrola"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.input))
		})
	}
}

func TestParse_CarriageReturnOnly(t *testing.T) {
	assert.Empty(t, Parse("\r\r\r"))
}

func TestSerializeRoundTrip(t *testing.T) {
	rows := []Row{
		{"ticker", "empresa", "importe_bruto"},
		{"SAN", "Banco Santander, S.A.", "0,10"},
		{"ITX", `Inditex "The" Group`, "0.77"},
		{"REP", "multi\nline", ""},
		{""},
		{"", "", ""},
	}

	text := Serialize(rows)
	assert.Equal(t, rows, Parse(text))
}

func TestSerialize_QuotesOnlyWhenNeeded(t *testing.T) {
	text := Serialize([]Row{{"plain", "a,b", `q"q`}})
	assert.Equal(t, "plain,\"a,b\",\"q\"\"q\"\n", text)
}

func TestParseReader(t *testing.T) {
	rows, err := ParseReader(strings.NewReader("a,b\nc,d\n"))
	require.NoError(t, err)
	assert.Equal(t, []Row{{"a", "b"}, {"c", "d"}}, rows)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestParseReader_ReadError(t *testing.T) {
	_, err := ParseReader(failingReader{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestRowHelpers(t *testing.T) {
	assert.True(t, Row{" ", "\t", ""}.IsEmpty())
	assert.True(t, Row{}.IsEmpty())
	assert.False(t, Row{"", "x"}.IsEmpty())

	row := Row{"a", "b"}
	assert.Equal(t, "b", row.Cell(1))
	assert.Equal(t, "", row.Cell(2))
	assert.Equal(t, "", row.Cell(-1))
}
