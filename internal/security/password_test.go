package security_test

import (
	"testing"

	"github.com/geocoder89/taskhub/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher(t *testing.T) {
	h := security.NewHasher(bcrypt.MinCost)

	first, err := h.Hash("hunter22")
	require.NoError(t, err)
	second, err := h.Hash("hunter22")
	require.NoError(t, err)

	assert.NotEqual(t, "hunter22", first)
	assert.NotEqual(t, first, second, "hashes are salted")
	assert.True(t, h.Check(first, "hunter22"))
	assert.False(t, h.Check(first, "hunter23"))
	assert.False(t, h.Check("not-a-hash", "hunter22"))

	h.CheckDummy("anything")
}
