package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	t.Run("hash then compare", func(t *testing.T) {
		hash, err := h.Hash("correct horse")
		require.NoError(t, err)
		assert.NotEqual(t, "correct horse", hash)

		assert.NoError(t, h.Compare(hash, "correct horse"))
		assert.ErrorIs(t, h.Compare(hash, "wrong horse"), ErrPasswordMismatch)
	})

	t.Run("rejects short passwords", func(t *testing.T) {
		_, err := h.Hash("short")
		assert.ErrorIs(t, err, ErrPasswordTooShort)
	})

	t.Run("malformed hash is an error but not a mismatch", func(t *testing.T) {
		err := h.Compare("not-a-bcrypt-hash", "whatever1")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrPasswordMismatch)
	})

	t.Run("out of range cost falls back to default", func(t *testing.T) {
		assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(99).cost)
	})
}
