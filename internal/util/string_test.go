package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "o senhor dos anéis", NormalizeKey("  O   Senhor dos\tAnéis "))
	assert.Equal(t, "", NormalizeKey("   "))
}

func TestClipRunes(t *testing.T) {
	assert.Equal(t, "ação", ClipRunes("ação!", 4))
	assert.Equal(t, "abc", ClipRunes("abc", 10))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "olá...", TruncateString("olá mundo", 3))
	assert.Equal(t, "olá", TruncateString("olá", 3))
}

func TestStripAngleBrackets(t *testing.T) {
	assert.Equal(t, "scriptalert(1)/script", StripAngleBrackets("<script>alert(1)</script>"))
}

func TestRuneLen(t *testing.T) {
	assert.Equal(t, 4, RuneLen("ação"))
}
