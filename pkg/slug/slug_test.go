package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	cases := map[string]string{
		"Alice":            "alice",
		"  Alice  Rahman ": "alice_rahman",
		"José Núñez":       "jose_nunez",
		"Md. Karim-Uddin":  "md_karim_uddin",
		"a@x.com":          "a_at_x_com",
		"___":              "",
		"Team 42!":         "team_42",
	}
	for in, want := range cases {
		assert.Equal(t, want, Make(in, '_'), in)
	}
	assert.Equal(t, "jose-nunez", Make("José Núñez", '-'))
}

func TestFilenameFallback(t *testing.T) {
	assert.Equal(t, "certificate", Filename("!!!", "certificate"))
	assert.Equal(t, "bob", Filename("Bob", "certificate"))
}
