package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundedStock_RejectsNegative(t *testing.T) {
	_, err := BoundedStock(-1)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestStock_UnlimitedNeverChanges(t *testing.T) {
	s := UnlimitedStock()

	for _, qty := range []int64{1, 5, 1000} {
		reserved, err := s.Reserve(qty)
		require.NoError(t, err)
		assert.Equal(t, s, reserved)
		assert.Equal(t, s, reserved.Release(qty))
	}
}

func TestStock_ReserveThenReleaseRestoresExactly(t *testing.T) {
	s, err := BoundedStock(10)
	require.NoError(t, err)

	reserved, err := s.Reserve(4)
	require.NoError(t, err)
	assert.Equal(t, int64(6), reserved.Count)

	restored := reserved.Release(4)
	assert.Equal(t, s, restored)
}

func TestStock_ReserveInsufficient(t *testing.T) {
	s, err := BoundedStock(3)
	require.NoError(t, err)

	_, err = s.Reserve(4)
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.Equal(t, int64(3), s.Count)
}

func TestStock_ReleaseIsUnbounded(t *testing.T) {
	s, err := BoundedStock(2)
	require.NoError(t, err)

	// Repeated release can inflate stock past its original value; that
	// is accepted behavior, not a designed cap.
	s = s.Release(5).Release(5)
	assert.Equal(t, int64(12), s.Count)
}

func TestStock_CanCover(t *testing.T) {
	limited, err := BoundedStock(5)
	require.NoError(t, err)

	assert.True(t, limited.CanCover(5))
	assert.False(t, limited.CanCover(6))
	assert.False(t, limited.CanCover(0))
	assert.False(t, limited.CanCover(-1))

	assert.True(t, UnlimitedStock().CanCover(1_000_000))
}
