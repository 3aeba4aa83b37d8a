package mdview_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwojciec/mdview"
)

func TestEncodeURIComponent(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"alphanumeric passthrough", "abcXYZ019", "abcXYZ019"},
		{"unreserved punctuation", "-_.!~*'()", "-_.!~*'()"},
		{"space", "a b", "a%20b"},
		{"percent", "100%", "100%25"},
		{"newline", "a\nb", "a%0Ab"},
		{"markdown heading", "# Title", "%23%20Title"},
		{"utf8", "héj", "h%C3%A9j"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, mdview.EncodeURIComponent(tt.in))
		})
	}
}

func TestDecodeURIComponent_Errors(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"%", "%2", "%zz", "abc%G1"} {
		in := in
		t.Run(in, func(t *testing.T) {
			t.Parallel()
			_, err := mdview.DecodeURIComponent(in)
			assert.Error(t, err)
		})
	}
}

func TestEscapeTemplateLiteral(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "hello", "hello"},
		{"backtick", "a`b", "a\\`b"},
		{"backslash", `a\b`, `a\\b`},
		{"dollar", "${x}", `\${x}`},
		{"newline", "a\nb", `a\nb`},
		{"carriage return", "a\rb", `a\rb`},
		{"literal backslash n", `a\nb`, `a\\nb`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, mdview.EscapeTemplateLiteral(tt.in))
		})
	}
}

func TestUnescapeTemplateLiteral_Errors(t *testing.T) {
	t.Parallel()
	for _, in := range []string{`trailing\`, `bad\q`} {
		in := in
		t.Run(in, func(t *testing.T) {
			t.Parallel()
			_, err := mdview.UnescapeTemplateLiteral(in)
			assert.Error(t, err)
		})
	}
}

func TestEscaping_RoundTrips(t *testing.T) {
	t.Parallel()
	inputs := []string{
		"",
		"plain text",
		"back`tick and $dollar",
		`back\slash`,
		"percent 50% and 100%",
		"line\nbreaks\r\nand more\n",
		"```go\nfmt.Println(`hi`)\n```",
		"mixed: \\ ` $ % \n \r é 漢字",
	}
	for _, in := range inputs {
		in := in
		t.Run(in, func(t *testing.T) {
			t.Parallel()
			decoded, err := mdview.DecodeURIComponent(mdview.EncodeURIComponent(in))
			require.NoError(t, err)
			assert.Equal(t, in, decoded, "uri round trip")

			unescaped, err := mdview.UnescapeTemplateLiteral(mdview.EscapeTemplateLiteral(in))
			require.NoError(t, err)
			assert.Equal(t, in, unescaped, "template literal round trip")
		})
	}
}
