package cryptoutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Cheap parameters keep the tests fast.
var testParams = Argon2Params{Time: 1, Memory: 1024, Threads: 1}

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := NewPasswordHasher(testParams)

	encoded, err := h.Hash("mesa-verde-42")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$"))

	ok, err := h.Verify(encoded, "mesa-verde-42")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(encoded, "mesa-verde-43")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_SaltedHashesDiffer(t *testing.T) {
	h := NewPasswordHasher(testParams)
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPasswordHasher_VerifiesStoredParams(t *testing.T) {
	// Hash with one cost, verify with a hasher configured for another.
	encoded, err := NewPasswordHasher(testParams).Hash("secret")
	require.NoError(t, err)

	ok, err := NewPasswordHasher(Argon2Params{Time: 2, Memory: 2048, Threads: 1}).Verify(encoded, "secret")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPasswordHasher_LegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("antiga"), bcrypt.MinCost)
	require.NoError(t, err)

	h := NewPasswordHasher(testParams)
	ok, err := h.Verify(string(legacy), "antiga")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(string(legacy), "nova")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_RejectsMalformed(t *testing.T) {
	h := NewPasswordHasher(testParams)
	tests := []struct {
		name    string
		encoded string
	}{
		{"plaintext", "secret"},
		{"md5 style", "$1$abc$def"},
		{"truncated phc", "$argon2id$v=19$m=1024,t=1,p=1$c2FsdA"},
		{"bad version", "$argon2id$v=16$m=1024,t=1,p=1$c2FsdA$aGFzaA"},
		{"huge memory", "$argon2id$v=19$m=99999999,t=1,p=1$c2FsdA$aGFzaA"},
		{"zero threads", "$argon2id$v=19$m=1024,t=1,p=0$c2FsdA$aGFzaA"},
		{"bad base64", "$argon2id$v=19$m=1024,t=1,p=1$!!!$aGFzaA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := h.Verify(tt.encoded, "secret")
			assert.Error(t, err)
			assert.False(t, ok)
		})
	}
}

func TestNewPasswordHasher_Defaults(t *testing.T) {
	h := NewPasswordHasher(Argon2Params{})
	assert.Equal(t, DefaultArgon2Params, h.params)
}
