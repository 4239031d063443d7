package credentials

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash(t *testing.T) {
	hasher := NewArgon2Hasher()

	encoded, err := hasher.Hash("pass123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=65536,t=3,p=2$"))
	assert.Equal(t, 6, len(strings.Split(encoded, "$")))

	// Fresh salts make repeated hashes differ
	other, err := hasher.Hash("pass123")
	require.NoError(t, err)
	assert.NotEqual(t, encoded, other)

	_, err = hasher.Hash("")
	assert.Error(t, err)
}

func TestSaltPrefix(t *testing.T) {
	hasher := NewArgon2Hasher()

	encoded, err := hasher.Hash("pass123")
	require.NoError(t, err)

	prefix, err := SaltPrefix(encoded)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, prefix+"$"))
	assert.NotContains(t, encoded[len(prefix)+1:], "$", "prefix must end right before the digest")

	_, err = SaltPrefix("not-a-hash")
	assert.Error(t, err)
}

func TestHashWithSaltPrefixDeterministic(t *testing.T) {
	hasher := NewArgon2Hasher()

	encoded, err := hasher.Hash("pass123")
	require.NoError(t, err)

	prefix, err := SaltPrefix(encoded)
	require.NoError(t, err)

	recomputed, err := hasher.HashWithSaltPrefix("pass123", prefix)
	require.NoError(t, err)
	assert.Equal(t, encoded, recomputed, "same password and salt must reproduce the stored hash")

	wrong, err := hasher.HashWithSaltPrefix("wrong-password", prefix)
	require.NoError(t, err)
	assert.NotEqual(t, encoded, wrong)

	t.Run("InvalidPrefix", func(t *testing.T) {
		_, err := hasher.HashWithSaltPrefix("pass123", "$bcrypt$whatever")
		assert.Error(t, err)

		_, err = hasher.HashWithSaltPrefix("pass123", "")
		assert.Error(t, err)
	})
}

func TestVerify(t *testing.T) {
	hasher := NewArgon2Hasher()

	encoded, err := hasher.Hash("pass123")
	require.NoError(t, err)

	ok, err := hasher.Verify("pass123", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Verify("wrong-password", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}
