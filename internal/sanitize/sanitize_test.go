package sanitize

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestItemContentStripsMarkup(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "we shipped on time", "we shipped on time"},
		{"tags removed", "<b>bold</b> claim", "bold claim"},
		{"script removed", `<script>alert("x")</script>ok`, "ok"},
		{"attributes removed", `<a href="https://evil.example">link</a>`, "link"},
		{"entities restored", "pairing &amp; mobbing", "pairing & mobbing"},
		{"lone angle kept", "velocity < capacity", "velocity < capacity"},
		{"newlines kept", "line one\nline two", "line one\nline two"},
		{"crlf normalized", "one\r\ntwo", "one\ntwo"},
		{"tabs to spaces", "a\tb", "a b"},
		{"control chars dropped", "a\x07b\x1bc", "abc"},
		{"trimmed", "   spaced out \n", "spaced out"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ItemContent(tc.in))
		})
	}
}

func TestItemContentIsTotal(t *testing.T) {
	// none of these may panic, and every result fits the length bound
	inputs := []string{
		"",
		"   ",
		"\n\n\n",
		strings.Repeat("x", 10*MaxItemContentLength),
		strings.Repeat("héllo wörld ", 200),
		string([]byte{0xff, 0xfe, 0xfd}),
		"<div><div><div>",
	}
	for _, in := range inputs {
		out := ItemContent(in)
		assert.LessOrEqual(t, utf8.RuneCountInString(out), MaxItemContentLength)
	}
}

func TestItemContentClampsNotRejects(t *testing.T) {
	long := strings.Repeat("a", MaxItemContentLength+100)
	out := ItemContent(long)
	assert.Equal(t, MaxItemContentLength, utf8.RuneCountInString(out))
	assert.Equal(t, strings.Repeat("a", MaxItemContentLength), out)
}

func TestUsername(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Dana", "Dana"},
		{"whitespace collapsed", "  Dana   Q.   Scrum  ", "Dana Q. Scrum"},
		{"newlines collapsed", "Dana\nScrum", "Dana Scrum"},
		{"markup stripped", "<i>Dana</i>", "Dana"},
		{"empty", "   ", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Username(tc.in))
		})
	}

	long := strings.Repeat("n", MaxUsernameLength*2)
	assert.Equal(t, MaxUsernameLength, utf8.RuneCountInString(Username(long)))
}

func TestCheckItemText(t *testing.T) {
	ok := CheckItemText("retro went fine")
	assert.True(t, ok.Valid)
	assert.Empty(t, ok.Reason)

	for _, in := range []string{"", "   ", "\n\t "} {
		v := CheckItemText(in)
		assert.False(t, v.Valid)
		assert.NotEmpty(t, v.Reason)
	}
}
