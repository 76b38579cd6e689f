package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")

	sealed, err := Encrypt([]byte(`{"state":"abc"}`), key)
	require.NoError(t, err)

	plain, err := Decrypt(sealed, key)
	require.NoError(t, err)
	assert.Equal(t, `{"state":"abc"}`, plain)
}

func TestDecryptWrongKey(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	other := []byte("fedcba9876543210fedcba9876543210")

	sealed, err := Encrypt([]byte("secret"), key)
	require.NoError(t, err)

	_, err = Decrypt(sealed, other)
	assert.Error(t, err)
}

func TestDecryptGarbage(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	_, err := Decrypt("not-a-ciphertext", key)
	assert.Error(t, err)
}
