package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCode_Format(t *testing.T) {
	code, err := NewCode(PurchaseCodePrefix)
	require.NoError(t, err)

	parts := strings.Split(code, "-")
	require.Len(t, parts, 3)
	assert.Equal(t, PurchaseCodePrefix, parts[0])
	assert.NotEmpty(t, parts[1])
	assert.Len(t, parts[2], codeSuffixLen)
	for _, r := range parts[2] {
		assert.Contains(t, codeCharset, string(r))
	}
}

func TestNewCode_UniqueAcrossManyCalls(t *testing.T) {
	const n = 10_000

	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		code, err := NewCode(ArtworkCodePrefix)
		require.NoError(t, err)
		if _, dup := seen[code]; dup {
			t.Fatalf("duplicate code after %d generations: %s", i, code)
		}
		seen[code] = struct{}{}
	}
}
