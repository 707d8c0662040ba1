package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkTextOverlapsWithoutSpaces(t *testing.T) {
	chunks := ChunkText("abcdefghijklmnopqrstuvwxyz", 10, 2)
	require.Equal(t, []string{"abcdefghij", "ijklmnopqr", "qrstuvwxyz"}, chunks)
}

func TestChunkTextBreaksAtWords(t *testing.T) {
	chunks := ChunkText("the quick brown fox jumps", 10, 0)
	require.Equal(t, []string{"the quick", "brown fox", "jumps"}, chunks)
}

func TestChunkTextDefaults(t *testing.T) {
	assert.Equal(t, []string{"short"}, ChunkText("  short  ", 0, -1))
	assert.Empty(t, ChunkText("   ", 10, 0))
}
