package utils

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// IsValidEthereumAddress reports whether address is 20 bytes of hex. An
// all-lowercase or all-uppercase body is accepted as is; a mixed-case body
// must carry a correct checksum.
func IsValidEthereumAddress(address string) bool {
	if !common.IsHexAddress(address) {
		return false
	}
	body := strings.TrimPrefix(strings.TrimPrefix(address, "0x"), "0X")
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return true
	}
	return ChecksumAddress(address) == "0x"+body
}

// ChecksumAddress returns the mixed-case form of a valid address.
func ChecksumAddress(address string) string {
	return common.HexToAddress(address).Hex()
}

// IsValidTransactionHash reports whether hash is 0x followed by 64 hex characters.
func IsValidTransactionHash(hash string) bool {
	if !strings.HasPrefix(hash, "0x") && !strings.HasPrefix(hash, "0X") {
		return false
	}
	body := hash[2:]
	return len(body) == 2*common.HashLength && isHex(body)
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case '0' <= c && c <= '9', 'a' <= c && c <= 'f', 'A' <= c && c <= 'F':
		default:
			return false
		}
	}
	return true
}
