package refcode

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	c, err := New("test-salt")
	require.NoError(t, err)

	before := time.Now()
	code, err := c.Encode(11)
	require.NoError(t, err)
	require.NotEmpty(t, code)

	id, issued, err := c.Decode(code)
	require.NoError(t, err)

	assert.Equal(t, int64(11), id)
	assert.WithinDuration(t, before, issued, 2*time.Minute)
}

func TestCodeAlphabet(t *testing.T) {
	c, err := New("test-salt")
	require.NoError(t, err)

	code, err := c.Encode(99999)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(code), 8)
	for _, r := range code {
		assert.Contains(t, alphabet, string(r))
	}
	// The ambiguous characters never appear.
	assert.NotContains(t, code, "0")
	assert.NotContains(t, code, "1")
	assert.NotContains(t, code, "I")
	assert.NotContains(t, code, "O")
}

func TestSaltChangesCodes(t *testing.T) {
	a, err := New("salt-a")
	require.NoError(t, err)
	b, err := New("salt-b")
	require.NoError(t, err)

	codeA, err := a.Encode(11)
	require.NoError(t, err)
	codeB, err := b.Encode(11)
	require.NoError(t, err)

	assert.NotEqual(t, codeA, codeB)

	// A code minted under one salt does not decode cleanly under another.
	if id, _, err := b.Decode(codeA); err == nil {
		assert.NotEqual(t, int64(11), id)
	}
}

func TestDecodeGarbage(t *testing.T) {
	c, err := New("test-salt")
	require.NoError(t, err)

	_, _, err = c.Decode(strings.Repeat("?", 8))
	assert.Error(t, err)
}
