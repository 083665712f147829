package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("dev")
	require.NoError(t, err)
	assert.NotEqual(t, "dev", hash)

	assert.True(t, CheckPassword("dev", hash))
	assert.False(t, CheckPassword("Dev", hash))
	assert.False(t, CheckPassword("", ""))
	assert.False(t, CheckPassword("dev", ""))
}

func TestCheckPassword_EmptyHashPaysBcryptCost(t *testing.T) {
	cost, err := bcrypt.Cost(dummyHash())
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
	assert.False(t, CheckPassword("cleanmate-no-password", ""))
}
