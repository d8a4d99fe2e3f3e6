package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInitials(t *testing.T) {
	tests := map[string]string{
		"Jane Doe":           "JD",
		"claude":             "C",
		"ada lovelace byron": "AL",
		"":                   "",
		"  spaced   out  ":   "SO",
		"élodie martin":      "ÉM",
	}
	for name, want := range tests {
		assert.Equal(t, want, Initials(name), name)
	}
}

func TestAvatarColor_Deterministic(t *testing.T) {
	first := AvatarColor("Jane Doe")
	assert.Equal(t, first, AvatarColor("Jane Doe"))
	assert.Contains(t, Palette, first)

	// Depends on the name only, not the agent it belongs to.
	a := Agent{ID: "a", Name: "Jane Doe", CreatedAt: time.Unix(1, 0)}.WithDefaults()
	b := Agent{ID: "b", Name: "Jane Doe", CreatedAt: time.Unix(2, 0)}.WithDefaults()
	assert.Equal(t, a.AvatarColor, b.AvatarColor)
}

func TestAvatarColor_KnownValues(t *testing.T) {
	// h("a") = 97, 97 % 8 = 1
	assert.Equal(t, "blue", AvatarColor("a"))
	// h("ab") = 98 + (97<<5 - 97) = 3105, 3105 % 8 = 1
	assert.Equal(t, "blue", AvatarColor("ab"))
	assert.Equal(t, "red", AvatarColor(""))
}

func TestWithDefaults(t *testing.T) {
	a := Agent{Name: "Jane Doe"}.WithDefaults()
	assert.Equal(t, "JD", a.Avatar)
	assert.Equal(t, AvatarColor("Jane Doe"), a.AvatarColor)

	custom := Agent{Name: "Jane Doe", Avatar: "🤖", AvatarColor: "green"}.WithDefaults()
	assert.Equal(t, "🤖", custom.Avatar)
	assert.Equal(t, "green", custom.AvatarColor)
}
