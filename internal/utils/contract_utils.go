package utils

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var bigIntType = reflect.TypeOf(&big.Int{})

// CoerceArguments converts JSON-decoded arguments into the Go values the ABI
// packer expects for inputs.
func CoerceArguments(functionName string, inputs abi.Arguments, args []any) ([]any, error) {
	if len(args) != len(inputs) {
		return nil, fmt.Errorf("Function %s expects %d arguments, got %d", functionName, len(inputs), len(args))
	}

	processedArgs := make([]any, len(args))
	for i, input := range inputs {
		processed, err := processArg(input.Type, args[i])
		if err != nil {
			name := input.Name
			if name == "" {
				name = fmt.Sprintf("arg%d", i)
			}
			return nil, fmt.Errorf("invalid argument %d (%s): %w", i, name, err)
		}
		processedArgs[i] = processed.Interface()
	}
	return processedArgs, nil
}

// processArg returns a value whose type is exactly argType.GetType().
func processArg(argType abi.Type, value any) (reflect.Value, error) {
	target := argType.GetType()

	switch argType.T {
	case abi.AddressTy:
		switch v := value.(type) {
		case string:
			if !common.IsHexAddress(v) {
				return reflect.Value{}, fmt.Errorf("invalid address: %s", v)
			}
			return reflect.ValueOf(common.HexToAddress(v)), nil
		case common.Address:
			return reflect.ValueOf(v), nil
		default:
			return reflect.Value{}, fmt.Errorf("unsupported address type: %T", value)
		}

	case abi.UintTy, abi.IntTy:
		bigInt, err := toBigInt(value)
		if err != nil {
			return reflect.Value{}, err
		}
		if !fitsInt(bigInt, argType.T == abi.UintTy, argType.Size) {
			return reflect.Value{}, fmt.Errorf("%s out of range for %s", bigInt, argType.String())
		}
		if target == bigIntType {
			return reflect.ValueOf(bigInt), nil
		}
		rv := reflect.New(target).Elem()
		if argType.T == abi.UintTy {
			rv.SetUint(bigInt.Uint64())
		} else {
			rv.SetInt(bigInt.Int64())
		}
		return rv, nil

	case abi.BoolTy:
		switch v := value.(type) {
		case bool:
			return reflect.ValueOf(v), nil
		case string:
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("invalid bool: %s", v)
			}
			return reflect.ValueOf(parsed), nil
		default:
			return reflect.Value{}, fmt.Errorf("unsupported bool type: %T", value)
		}

	case abi.StringTy:
		switch v := value.(type) {
		case string:
			return reflect.ValueOf(v), nil
		default:
			return reflect.Value{}, fmt.Errorf("unsupported string type: %T", value)
		}

	case abi.BytesTy:
		raw, err := toBytes(value)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(raw), nil

	case abi.FixedBytesTy, abi.FunctionTy:
		raw, err := toBytes(value)
		if err != nil {
			return reflect.Value{}, err
		}
		rv := reflect.New(target).Elem()
		if len(raw) != rv.Len() {
			return reflect.Value{}, fmt.Errorf("expected %d bytes, got %d", rv.Len(), len(raw))
		}
		reflect.Copy(rv, reflect.ValueOf(raw))
		return rv, nil

	case abi.ArrayTy, abi.SliceTy:
		slice, ok := value.([]any)
		if !ok {
			return reflect.Value{}, fmt.Errorf("expected array, got %T", value)
		}
		var rv reflect.Value
		if argType.T == abi.ArrayTy {
			if len(slice) != argType.Size {
				return reflect.Value{}, fmt.Errorf("expected %d array elements, got %d", argType.Size, len(slice))
			}
			rv = reflect.New(target).Elem()
		} else {
			rv = reflect.MakeSlice(target, len(slice), len(slice))
		}
		for i, elem := range slice {
			processed, err := processArg(*argType.Elem, elem)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("failed to process array element %d: %w", i, err)
			}
			rv.Index(i).Set(processed)
		}
		return rv, nil

	case abi.TupleTy:
		rv := reflect.New(target).Elem()
		switch v := value.(type) {
		case map[string]any:
			for i, elem := range argType.TupleElems {
				name := argType.TupleRawNames[i]
				field, ok := v[name]
				if !ok {
					return reflect.Value{}, fmt.Errorf("missing tuple field %s", name)
				}
				processed, err := processArg(*elem, field)
				if err != nil {
					return reflect.Value{}, fmt.Errorf("failed to process tuple field %s: %w", name, err)
				}
				rv.Field(i).Set(processed)
			}
		case []any:
			if len(v) != len(argType.TupleElems) {
				return reflect.Value{}, fmt.Errorf("expected %d tuple fields, got %d", len(argType.TupleElems), len(v))
			}
			for i, elem := range argType.TupleElems {
				processed, err := processArg(*elem, v[i])
				if err != nil {
					return reflect.Value{}, fmt.Errorf("failed to process tuple field %d: %w", i, err)
				}
				rv.Field(i).Set(processed)
			}
		default:
			return reflect.Value{}, fmt.Errorf("expected object or array for tuple, got %T", value)
		}
		return rv, nil

	default:
		return reflect.Value{}, fmt.Errorf("unsupported argument type: %v", argType)
	}
}

// toBigInt accepts JSON numbers, decimal or 0x-prefixed hex strings and Go integers.
func toBigInt(value any) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case json.Number:
		return parseBigInt(v.String())
	case string:
		return parseBigInt(v)
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid integer: %v", v)
		}
		bigInt, _ := new(big.Float).SetFloat64(v).Int(nil)
		return bigInt, nil
	case int:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported integer type: %T", value)
	}
}

func parseBigInt(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	base := 10
	digits := s
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		digits = s[2:]
	}
	bigInt, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, fmt.Errorf("invalid integer: %s", s)
	}
	return bigInt, nil
}

func fitsInt(v *big.Int, unsigned bool, bits int) bool {
	if unsigned {
		return v.Sign() >= 0 && v.BitLen() <= bits
	}
	if v.Sign() >= 0 {
		return v.BitLen() < bits
	}
	// -2^(bits-1) is the smallest value, so |v|-1 must fit in bits-1.
	magnitude := new(big.Int).Neg(v)
	magnitude.Sub(magnitude, big.NewInt(1))
	return magnitude.BitLen() < bits
}

func toBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case string:
		if strings.HasPrefix(v, "0x") || strings.HasPrefix(v, "0X") {
			v = v[2:]
		}
		raw, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("invalid hex string: %w", err)
		}
		return raw, nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported bytes type: %T", value)
	}
}
