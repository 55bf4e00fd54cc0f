package impl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastArgon2Params() Argon2Params {
	return Argon2Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16}
}

func TestPasswordServiceHashAndVerify(t *testing.T) {
	ps := NewPasswordServiceArgon2id(fastArgon2Params())

	hash, err := ps.Hash("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))

	ok, err := ps.Verify("secret1", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ps.Verify("secret2", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordServiceSaltsEachHash(t *testing.T) {
	ps := NewPasswordServiceArgon2id(fastArgon2Params())

	a, err := ps.Hash("secret1")
	require.NoError(t, err)
	b, err := ps.Hash("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPasswordServiceVerifiesWithStoredParams(t *testing.T) {
	old := NewPasswordServiceArgon2id(fastArgon2Params())
	hash, err := old.Hash("secret1")
	require.NoError(t, err)

	stronger := fastArgon2Params()
	stronger.Time = 2
	ok, err := NewPasswordServiceArgon2id(stronger).Verify("secret1", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPasswordServiceRejects(t *testing.T) {
	ps := NewPasswordServiceArgon2id(fastArgon2Params())

	_, err := ps.Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)

	for _, bad := range []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=1024,t=1,p=1$AAAA$AAAA",
		"$argon2id$v=19$m=1024,t=1,p=1$!!!$AAAA",
		"$argon2id$v=18$m=1024,t=1,p=1$AAAA$AAAA",
	} {
		_, err := ps.Verify("secret1", bad)
		assert.ErrorIs(t, err, ErrInvalidHash, bad)
	}
}
