package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testHasher = Hasher{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func TestHasher_HashAndVerify(t *testing.T) {
	encoded, err := testHasher.Hash("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$"))

	ok, err := testHasher.Verify("s3cret-pass", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = testHasher.Verify("wrong-pass", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_SaltedDigestsDiffer(t *testing.T) {
	a, err := testHasher.Hash("same-password")
	require.NoError(t, err)
	b, err := testHasher.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestHasher_VerifyUsesEncodedParameters(t *testing.T) {
	encoded, err := testHasher.Hash("pw")
	require.NoError(t, err)

	stronger := testHasher
	stronger.Iterations = 2
	ok, err := stronger.Verify("pw", encoded)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, stronger.NeedsRehash(encoded))
	assert.False(t, testHasher.NeedsRehash(encoded))
}

func TestHasher_VerifyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("old-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	ok, err := testHasher.Verify("old-pass", string(legacy))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = testHasher.Verify("nope", string(legacy))
	require.NoError(t, err)
	assert.False(t, ok)

	assert.True(t, testHasher.NeedsRehash(string(legacy)))
}

func TestHasher_RejectsMalformedDigests(t *testing.T) {
	cases := []string{
		"",
		"plain-sha256-base64==",
		"$argon2id$v=19$m=1024,t=1,p=1$onlysalt",
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5",
	}
	for _, encoded := range cases {
		ok, err := testHasher.Verify("pw", encoded)
		assert.False(t, ok, encoded)
		assert.ErrorIs(t, err, ErrInvalidHash, encoded)
	}

	_, err := testHasher.Verify("pw", "$argon2id$v=16$m=1024,t=1,p=1$c2FsdA$a2V5")
	assert.ErrorIs(t, err, ErrIncompatibleVersion)
}
