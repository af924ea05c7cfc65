package utils

import (
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// NormalizeOutputs turns unpacked call results into a JSON-safe value. A
// single output is returned on its own, several named outputs become a map
// and several unnamed outputs a list.
func NormalizeOutputs(outputs abi.Arguments, values []any) any {
	switch len(values) {
	case 0:
		return nil
	case 1:
		return NormalizeValue(values[0])
	}

	named := len(outputs) == len(values)
	for _, output := range outputs {
		if output.Name == "" {
			named = false
			break
		}
	}

	if named {
		result := make(map[string]any, len(values))
		for i, output := range outputs {
			result[output.Name] = NormalizeValue(values[i])
		}
		return result
	}

	result := make([]any, len(values))
	for i, v := range values {
		result[i] = NormalizeValue(v)
	}
	return result
}

// NormalizeValue converts a decoded ABI value into something encoding/json
// renders without loss: bytes become 0x-prefixed lowercase hex, addresses
// their checksummed form, structs a map keyed by field name.
func NormalizeValue(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case *big.Int:
		return v
	case common.Address:
		return v.Hex()
	case common.Hash:
		return v.Hex()
	case []byte:
		return hexutil.Encode(v)
	}
	return normalizeReflect(reflect.ValueOf(value))
}

func normalizeReflect(rv reflect.Value) any {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return NormalizeValue(rv.Elem().Interface())

	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			raw := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(raw), rv)
			return hexutil.Encode(raw)
		}
		return normalizeList(rv)

	case reflect.Slice:
		if rv.IsNil() {
			return []any{}
		}
		return normalizeList(rv)

	case reflect.Struct:
		result := make(map[string]any, rv.NumField())
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			field := rt.Field(i)
			if !field.IsExported() {
				continue
			}
			result[fieldName(field)] = NormalizeValue(rv.Field(i).Interface())
		}
		return result

	case reflect.Map:
		result := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key, ok := iter.Key().Interface().(string)
			if !ok {
				continue
			}
			result[key] = NormalizeValue(iter.Value().Interface())
		}
		return result

	default:
		return rv.Interface()
	}
}

func normalizeList(rv reflect.Value) []any {
	result := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		result[i] = NormalizeValue(rv.Index(i).Interface())
	}
	return result
}

// fieldName prefers the json tag, which carries the ABI component name.
func fieldName(field reflect.StructField) string {
	if tag, ok := field.Tag.Lookup("json"); ok {
		name, _, _ := strings.Cut(tag, ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return field.Name
}
