package snapshot

import (
	"strings"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func containsSlashOrEscape(s string) bool {
	return strings.ContainsAny(s, "/!")
}

func TestEscapeUnescapeRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"home",
		"home/cache",
		"var/lib/docker/volumes",
		"a",
	}
	for _, c := range cases {
		t.Run(c, func(t *testing.T) {
			got, err := Unescape(Escape(c))
			require.NoError(t, err)
			assert.Equal(t, c, got)
		})
	}
}

func TestEscapeUnescapeRoundTripQuick(t *testing.T) {
	f := func(segments []string) bool {
		clean := make([]string, 0, len(segments))
		for _, s := range segments {
			if s == "" || containsSlashOrEscape(s) {
				continue
			}
			clean = append(clean, s)
		}
		rel := ""
		for i, s := range clean {
			if i > 0 {
				rel += "/"
			}
			rel += s
		}
		got, err := Unescape(Escape(rel))
		return err == nil && got == rel
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestEscapeRootMarker(t *testing.T) {
	assert.Equal(t, RootMarker, Escape(""))
	assert.Equal(t, "!", Escape(""))
}

func TestUnescapeRejectsUnescapedToken(t *testing.T) {
	_, err := Unescape("home")
	require.Error(t, err)
	var target *InvalidEscapedPathError
	assert.ErrorAs(t, err, &target)
}
