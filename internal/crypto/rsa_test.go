package crypto

import (
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	keys, err := GenerateKeyPair()
	require.NoError(t, err)

	ciphertext, err := keys.Encrypt("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", ciphertext)

	plaintext, err := keys.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", plaintext)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	keys, err := GenerateKeyPair()
	require.NoError(t, err)

	_, err = keys.Decrypt("not base64 %%%")
	assert.Error(t, err)

	_, err = keys.Decrypt("aGVsbG8=")
	assert.Error(t, err)
}

func TestDecryptRequiresMatchingKey(t *testing.T) {
	a, err := GenerateKeyPair()
	require.NoError(t, err)
	b, err := GenerateKeyPair()
	require.NoError(t, err)

	ciphertext, err := a.Encrypt("secret")
	require.NoError(t, err)

	_, err = b.Decrypt(ciphertext)
	assert.Error(t, err)
}

func TestPublicKeyPEM(t *testing.T) {
	keys, err := GenerateKeyPair()
	require.NoError(t, err)

	pemText, err := keys.PublicKeyPEM()
	require.NoError(t, err)

	block, rest := pem.Decode([]byte(pemText))
	require.NotNil(t, block)
	assert.Equal(t, "PUBLIC KEY", block.Type)
	assert.Empty(t, rest)
}
