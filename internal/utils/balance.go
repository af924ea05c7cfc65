package utils

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// etherDecimals is the number of wei digits in one ether.
const etherDecimals = 18

// WeiToEther scales a wei amount to ether without going through floating point.
func WeiToEther(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -etherDecimals)
}

// EtherNumber renders an ether amount as an exact JSON number.
func EtherNumber(amount decimal.Decimal) json.Number {
	return json.Number(amount.String())
}

// ParseWei reads a non-negative wei amount from a JSON value. A nil value is zero.
func ParseWei(value any) (*big.Int, error) {
	if value == nil {
		return new(big.Int), nil
	}
	amount, err := toBigInt(value)
	if err != nil {
		return nil, fmt.Errorf("invalid value: %w", err)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid value: must not be negative, got %s", amount)
	}
	return amount, nil
}
