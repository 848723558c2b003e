package util

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "6368616e676520746869732070617373776f726420746f206120736563726574"

func TestEncryptSecret(t *testing.T) {
	t.Run("round trip returns original plaintext", func(t *testing.T) {
		for _, plaintext := range []string{
			"access-token-value",
			"",
			"한국어 utf-8 내용",
			strings.Repeat("x", 4096),
		} {
			encrypted, err := EncryptSecret(testKey, plaintext)
			require.NoError(t, err)

			decrypted, err := DecryptSecret(testKey, encrypted)
			require.NoError(t, err)
			assert.Equal(t, plaintext, decrypted)
		}
	})

	t.Run("same plaintext produces different ciphertext", func(t *testing.T) {
		a, err := EncryptSecret(testKey, "token")
		require.NoError(t, err)
		b, err := EncryptSecret(testKey, "token")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("rejects short key", func(t *testing.T) {
		_, err := EncryptSecret("deadbeef", "token")
		assert.Error(t, err)
	})

	t.Run("rejects non-hex key", func(t *testing.T) {
		_, err := EncryptSecret("not-hex-at-all", "token")
		assert.Error(t, err)
	})
}

func TestDecryptSecret(t *testing.T) {
	t.Run("tampered ciphertext fails closed", func(t *testing.T) {
		encrypted, err := EncryptSecret(testKey, "refresh-token")
		require.NoError(t, err)

		raw, err := base64.RawURLEncoding.DecodeString(encrypted)
		require.NoError(t, err)
		raw[len(raw)-1] ^= 0x01
		tampered := base64.RawURLEncoding.EncodeToString(raw)

		_, err = DecryptSecret(testKey, tampered)
		assert.Error(t, err)
	})

	t.Run("wrong key fails closed", func(t *testing.T) {
		encrypted, err := EncryptSecret(testKey, "refresh-token")
		require.NoError(t, err)

		otherKey := "000102030405060708090a0b0c0d0e0f000102030405060708090a0b0c0d0e0f"
		_, err = DecryptSecret(otherKey, encrypted)
		assert.Error(t, err)
	})

	t.Run("truncated ciphertext fails closed", func(t *testing.T) {
		_, err := DecryptSecret(testKey, base64.RawURLEncoding.EncodeToString([]byte("short")))
		assert.Error(t, err)
	})

	t.Run("invalid base64 fails", func(t *testing.T) {
		_, err := DecryptSecret(testKey, "!!not-base64!!")
		assert.Error(t, err)
	})
}

func TestHmacSHA256Base64(t *testing.T) {
	t.Run("deterministic for same input", func(t *testing.T) {
		a := HmacSHA256Base64("secret", []byte(`{"activities":[]}`))
		b := HmacSHA256Base64("secret", []byte(`{"activities":[]}`))
		assert.Equal(t, a, b)
	})

	t.Run("differs by secret", func(t *testing.T) {
		a := HmacSHA256Base64("secret-a", []byte("body"))
		b := HmacSHA256Base64("secret-b", []byte("body"))
		assert.NotEqual(t, a, b)
	})

	t.Run("output is valid base64", func(t *testing.T) {
		sig := HmacSHA256Base64("secret", []byte("body"))
		_, err := base64.StdEncoding.DecodeString(sig)
		assert.NoError(t, err)
	})
}

func TestGenerateToken(t *testing.T) {
	t.Run("generates 64 character hex string", func(t *testing.T) {
		token, err := GenerateToken()
		require.NoError(t, err)
		assert.Len(t, token, 64)
	})

	t.Run("generates unique tokens", func(t *testing.T) {
		token1, _ := GenerateToken()
		token2, _ := GenerateToken()
		assert.NotEqual(t, token1, token2)
	})
}
