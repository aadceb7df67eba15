package password

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"sns_backend/internal/shared/apperror"
)

func TestHasher_HashAndCompare(t *testing.T) {
	t.Parallel()

	h := NewHasher(bcrypt.MinCost)

	digest, err := h.Hash("correct horse")
	require.NoError(t, err)

	assert.NotEqual(t, "correct horse", digest)
	assert.True(t, h.Compare("correct horse", digest))
	assert.False(t, h.Compare("wrong horse", digest))
	assert.False(t, h.Compare("correct horse", "not-a-digest"))
}

func TestHasher_UsesCost(t *testing.T) {
	t.Parallel()

	digest, err := NewHasher(5).Hash("pw")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(digest))
	require.NoError(t, err)
	assert.Equal(t, 5, cost)
}

func TestNewHasher_OutOfRangeCost(t *testing.T) {
	t.Parallel()

	assert.Equal(t, bcrypt.DefaultCost, NewHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(99).cost)
}

func TestHasher_TooLong(t *testing.T) {
	t.Parallel()

	_, err := NewHasher(bcrypt.MinCost).Hash(strings.Repeat("x", MaxLength+1))
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.ErrorIs(t, err, bcrypt.ErrPasswordTooLong)
	assert.Equal(t, http.StatusBadRequest, apperror.Status(err))

	_, err = NewHasher(bcrypt.MinCost).Hash(strings.Repeat("x", MaxLength))
	assert.NoError(t, err)
}
