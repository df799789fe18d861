package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("longenough")
	require.NoError(t, err)
	assert.NotEqual(t, "longenough", h)
	assert.True(t, strings.HasPrefix(h, "$2a$"))
	assert.True(t, CheckPassword("longenough", h))
	assert.False(t, CheckPassword("wrong-password", h))
}

func TestHasher_SaltedAndCost(t *testing.T) {
	hs := Hasher{Cost: bcrypt.MinCost}
	a, err := hs.Hash("longenough")
	require.NoError(t, err)
	b, err := hs.Hash("longenough")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	cost, err := bcrypt.Cost([]byte(a))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}

func TestHasher_TooLong(t *testing.T) {
	_, err := Hasher{Cost: bcrypt.MinCost}.Hash(strings.Repeat("x", MaxPasswordBytes+1))
	assert.Error(t, err)
}

func TestCheckPassword_GarbageHash(t *testing.T) {
	assert.False(t, CheckPassword("longenough", "not-a-hash"))
}
