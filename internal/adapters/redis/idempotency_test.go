package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdempKey_ScopedPerUser(t *testing.T) {
	a := idempKey("user-a", "k1")
	b := idempKey("user-b", "k1")

	assert.Equal(t, "idemp:user-a:k1", a)
	assert.Equal(t, "idemp:user-b:k1", b)
	// The same client key under two users never collides.
	assert.NotEqual(t, a, b)
}
