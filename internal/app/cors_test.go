package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractOriginHost(t *testing.T) {
	assert.Equal(t, "example.com", extractOriginHost("https://example.com"))
	assert.Equal(t, "example.com:8080", extractOriginHost("http://example.com:8080"))
	assert.Equal(t, "example.com", extractOriginHost("https://Example.COM"))
	assert.Equal(t, "not a url", extractOriginHost("not a url"))
}

func TestMatchOriginPattern(t *testing.T) {
	cases := []struct {
		pattern string
		host    string
		want    bool
	}{
		{"example.com", "example.com", true},
		{"example.com", "evil.com", false},
		{"*", "anything.example", true},
		{"*.example.com", "app.example.com", true},
		{"*.example.com", "example.com", true},
		{"*.example.com", "badexample.com", false},
		{"localhost:*", "localhost:3000", true},
		{"localhost:*", "localhost.evil.com", false},
		{"Example.COM", "example.com", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, matchOriginPattern(tc.pattern, tc.host),
			"pattern %q vs host %q", tc.pattern, tc.host)
	}
}
