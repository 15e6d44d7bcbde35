package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestPhoneCipher_RoundTrip(t *testing.T) {
	c, err := NewPhoneCipher(testKey)
	require.NoError(t, err)

	sealed, err := c.Seal("0912345678")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "0912345678")

	again, err := c.Seal("0912345678")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per seal")

	phone, err := c.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "0912345678", phone)
}

func TestPhoneCipher_Errors(t *testing.T) {
	_, err := NewPhoneCipher([]byte("short"))
	assert.Error(t, err)

	c, err := NewPhoneCipher(testKey)
	require.NoError(t, err)

	_, err = c.Open("not base64!")
	assert.Error(t, err)
	_, err = c.Open("AAAA")
	assert.Error(t, err)

	other, err := NewPhoneCipher([]byte("fedcba9876543210fedcba9876543210"))
	require.NoError(t, err)
	sealed, err := other.Seal("0912345678")
	require.NoError(t, err)
	_, err = c.Open(sealed)
	assert.Error(t, err)
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "091****678", MaskPhone("0912345678"))
	assert.Equal(t, "091*****789", MaskPhone("09123456789"))
	assert.Equal(t, "***", MaskPhone("123"))
}

func TestPlainPhones(t *testing.T) {
	var codec PhoneCodec = PlainPhones{}
	sealed, err := codec.Seal("0912345678")
	require.NoError(t, err)
	phone, err := codec.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "0912345678", phone)
}
