package qr

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/artegra/museum-tickets/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncoder_ProducesPNGDataURI(t *testing.T) {
	enc := NewEncoder(128)

	uri, err := enc.Encode("MT-ABC123-XYZ45678")
	require.NoError(t, err)

	const prefix = "data:image/png;base64,"
	require.True(t, strings.HasPrefix(uri, prefix))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	require.NoError(t, err)
	// PNG magic bytes.
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, raw[:4])
}

func TestEncoder_RejectsEmptyCode(t *testing.T) {
	enc := NewEncoder(0)

	_, err := enc.Encode("")
	assert.True(t, errors.Is(err, domain.ErrEncodingFailed))
}
