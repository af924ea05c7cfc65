package utils

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeiToEther(t *testing.T) {
	tests := []struct {
		name     string
		wei      string
		expected string
	}{
		{name: "zero", wei: "0", expected: "0"},
		{name: "one_ether", wei: "1000000000000000000", expected: "1"},
		{name: "one_wei", wei: "1", expected: "0.000000000000000001"},
		{name: "large", wei: "123456789012345678901234567", expected: "123456789.012345678901234567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wei, ok := new(big.Int).SetString(tt.wei, 10)
			require.True(t, ok)
			assert.Equal(t, tt.expected, WeiToEther(wei).String())
		})
	}

	assert.True(t, WeiToEther(nil).IsZero())
}

func TestEtherNumberMarshalsExactly(t *testing.T) {
	wei, _ := new(big.Int).SetString("1000000000000000001", 10)
	out, err := json.Marshal(map[string]any{"balance": EtherNumber(WeiToEther(wei))})
	require.NoError(t, err)
	assert.JSONEq(t, `{"balance": 1.000000000000000001}`, string(out))
}

func TestParseWei(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		v, err := ParseWei(nil)
		require.NoError(t, err)
		assert.Equal(t, int64(0), v.Int64())
	})

	t.Run("Accepted", func(t *testing.T) {
		inputs := []any{json.Number("1000"), "1000", "0x3e8", float64(1000), 1000}
		for _, in := range inputs {
			v, err := ParseWei(in)
			require.NoError(t, err, "input %v", in)
			assert.Equal(t, int64(1000), v.Int64())
		}
	})

	t.Run("Rejected", func(t *testing.T) {
		inputs := []any{"-1", "1.5", float64(0.5), true, "lots"}
		for _, in := range inputs {
			_, err := ParseWei(in)
			assert.Error(t, err, "input %v", in)
		}
	})
}
