package utils

import (
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeValue(t *testing.T) {
	t.Run("BytesAreLowercaseHexOfTwiceTheLength", func(t *testing.T) {
		for _, raw := range [][]byte{{}, {0xAB}, {0xDE, 0xAD, 0xBE, 0xEF}, make([]byte, 65)} {
			out, ok := NormalizeValue(raw).(string)
			require.True(t, ok)
			assert.True(t, strings.HasPrefix(out, "0x"))
			assert.Len(t, out, 2+2*len(raw))
			assert.Equal(t, strings.ToLower(out), out)
		}
	})

	t.Run("FixedBytes", func(t *testing.T) {
		var key [4]byte
		copy(key[:], []byte{0xCA, 0xFE, 0xBA, 0xBE})
		assert.Equal(t, "0xcafebabe", NormalizeValue(key))
	})

	t.Run("AddressIsChecksummed", func(t *testing.T) {
		addr := common.HexToAddress(strings.ToLower(TestAccountAddress))
		assert.Equal(t, TestAccountAddress, NormalizeValue(addr))
	})

	t.Run("ScalarsPassThrough", func(t *testing.T) {
		n := big.NewInt(7)
		assert.Same(t, n, NormalizeValue(n))
		assert.Equal(t, uint8(3), NormalizeValue(uint8(3)))
		assert.Equal(t, true, NormalizeValue(true))
		assert.Equal(t, "abc", NormalizeValue("abc"))
		assert.Nil(t, NormalizeValue(nil))
	})

	t.Run("NestedStructs", func(t *testing.T) {
		type inner struct {
			Data []byte `json:"data"`
		}
		type outer struct {
			Owner  common.Address `json:"owner"`
			Inners []inner        `json:"inners"`
			Plain  int
			hidden int
		}
		out := NormalizeValue(outer{
			Owner:  common.HexToAddress(TestAccountAddress),
			Inners: []inner{{Data: []byte{1}}},
			Plain:  5,
		})
		assert.Equal(t, map[string]any{
			"owner":  TestAccountAddress,
			"inners": []any{map[string]any{"data": "0x01"}},
			"Plain":  5,
		}, out)
	})

	t.Run("ResultIsJSONEncodable", func(t *testing.T) {
		out := NormalizeValue([]any{[]byte{1, 2}, big.NewInt(10), [2]common.Address{}})
		encoded, err := json.Marshal(out)
		require.NoError(t, err)
		assert.JSONEq(t, `["0x0102", 10, ["0x0000000000000000000000000000000000000000","0x0000000000000000000000000000000000000000"]]`, string(encoded))
	})
}

func TestNormalizeOutputs(t *testing.T) {
	named := abi.Arguments{{Name: "reserve0"}, {Name: "reserve1"}}
	unnamed := abi.Arguments{{Name: ""}, {Name: ""}}

	assert.Nil(t, NormalizeOutputs(nil, nil))
	assert.Equal(t, "0x01", NormalizeOutputs(abi.Arguments{{Name: "data"}}, []any{[]byte{1}}))
	assert.Equal(t,
		map[string]any{"reserve0": uint32(1), "reserve1": uint32(2)},
		NormalizeOutputs(named, []any{uint32(1), uint32(2)}),
	)
	assert.Equal(t,
		[]any{uint32(1), "0x02"},
		NormalizeOutputs(unnamed, []any{uint32(1), []byte{2}}),
	)
}
