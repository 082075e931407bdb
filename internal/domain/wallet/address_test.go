package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/pkg/errors"
)

func TestParseAddress(t *testing.T) {
	t.Run("valid address normalizes to lowercase", func(t *testing.T) {
		addr, err := ParseAddress("0xABCDEF0000000000000000000000000000000001")
		require.NoError(t, err)
		assert.Equal(t, "0xabcdef0000000000000000000000000000000001", addr.String())
	})

	t.Run("surrounding whitespace is tolerated", func(t *testing.T) {
		addr, err := ParseAddress("  0xabcdef0000000000000000000000000000000001\n")
		require.NoError(t, err)
		assert.Equal(t, "0xabcdef0000000000000000000000000000000001", addr.String())
	})

	t.Run("malformed addresses are rejected", func(t *testing.T) {
		for _, raw := range []string{
			"not-an-address",
			"",
			"0x1234",
			"0xABCDEF000000000000000000000000000000000g",  // non-hex char
			"ABCDEF0000000000000000000000000000000001",    // missing prefix
			"0xABCDEF00000000000000000000000000000000012", // 41 chars
		} {
			_, err := ParseAddress(raw)
			require.Error(t, err, "input %q", raw)
			assert.True(t, errors.IsValidation(err), "input %q", raw)
		}
	})
}
