package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	box, err := NewBox("test-credential-key")
	require.NoError(t, err)

	sealed, err := box.SealString("1//refresh-token-material")
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "refresh-token-material")

	opened, err := box.OpenString(sealed)
	require.NoError(t, err)
	assert.Equal(t, "1//refresh-token-material", opened)
}

func TestSealProducesFreshNonce(t *testing.T) {
	box, err := NewBox("test-credential-key")
	require.NoError(t, err)

	a, err := box.SealString("same secret")
	require.NoError(t, err)
	b, err := box.SealString("same secret")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestOpenRejectsTampering(t *testing.T) {
	box, err := NewBox("test-credential-key")
	require.NoError(t, err)

	sealed, err := box.SealString("secret")
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0x01

	_, err = box.OpenString(sealed)
	assert.Error(t, err)
}

func TestOpenRejectsWrongKey(t *testing.T) {
	box, err := NewBox("key-one")
	require.NoError(t, err)
	other, err := NewBox("key-two")
	require.NoError(t, err)

	sealed, err := box.SealString("secret")
	require.NoError(t, err)

	_, err = other.OpenString(sealed)
	assert.Error(t, err)
}

func TestOpenRejectsTruncated(t *testing.T) {
	box, err := NewBox("test-credential-key")
	require.NoError(t, err)

	_, err = box.Open([]byte("short"))
	assert.Error(t, err)
}

func TestNewBoxRequiresKey(t *testing.T) {
	_, err := NewBox("")
	assert.Error(t, err)
}
