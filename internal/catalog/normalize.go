package catalog

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
	"github.com/shopspring/decimal"
)

// Normalize returns a copy of entity whose values use one representation per
// domain type: strings for ID, String, Bytes, BigInt, BigDecimal and references,
// int64 for Int, bool for Boolean and []any of ids for array references.
// Two entities with equal normalized values encode to identical bytes.
func (c *Catalog) Normalize(entityType string, entity subgraph.Entity) (subgraph.Entity, error) {
	et, err := c.lookup(entityType)
	if err != nil {
		return nil, err
	}
	out := make(subgraph.Entity, len(entity))
	for field, value := range entity {
		fieldType, ok := et.types[field]
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, entityType, field)
		}

		rel, isRel := et.relations[field]
		var nv any
		if isRel && rel.IsArray && !rel.IsDerived {
			nv, err = normalizeList(value)
		} else {
			nv, err = normalizeValue(fieldType, value)
		}
		if err != nil {
			return nil, fmt.Errorf("entity %s field %s: %w", entityType, field, err)
		}
		out[field] = nv
	}

	if out.ID() == "" {
		return nil, fmt.Errorf("entity %s: missing id", entityType)
	}

	return out, nil
}

func normalizeValue(fieldType string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch fieldType {
	case subgraph.TypeBigInt:
		return normalizeBigInt(v)
	case subgraph.TypeBigDecimal:
		d, err := toDecimal(v)
		if err != nil {
			return nil, err
		}
		return d.String(), nil
	case subgraph.TypeInt:
		return toInt64(v)
	case subgraph.TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", v)
		}
		return b, nil
	default:
		return toText(v)
	}
}

func normalizeList(v any) (any, error) {
	if v == nil {
		return []any{}, nil
	}

	var items []any
	switch list := v.(type) {
	case []any:
		items = list
	case []string:
		items = make([]any, len(list))
		for i, s := range list {
			items[i] = s
		}
	case []common.Address:
		items = make([]any, len(list))
		for i, a := range list {
			items[i] = a
		}
	default:
		return nil, fmt.Errorf("expected list, got %T", v)
	}

	out := make([]any, len(items))
	for i, item := range items {
		s, err := toText(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

func toText(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case common.Address:
		return strings.ToLower(t.Hex()), nil
	case *common.Address:
		return strings.ToLower(t.Hex()), nil
	case common.Hash:
		return t.Hex(), nil
	case []byte:
		return hexutil.Encode(t), nil
	case json.Number:
		return t.String(), nil
	case fmt.Stringer:
		return t.String(), nil
	default:
		return "", fmt.Errorf("expected text, got %T", v)
	}
}

func normalizeBigInt(v any) (string, error) {
	switch t := v.(type) {
	case *big.Int:
		return t.String(), nil
	case big.Int:
		return t.String(), nil
	case string, json.Number:
		s, _ := toText(t)
		n, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return "", fmt.Errorf("invalid BigInt %q", s)
		}
		return n.String(), nil
	case decimal.Decimal:
		if !t.IsInteger() {
			return "", fmt.Errorf("invalid BigInt %s", t)
		}
		return t.BigInt().String(), nil
	default:
		n, err := toInt64(v)
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(n, 10), nil
	}
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, nil
	case *big.Int:
		return decimal.NewFromBigInt(t, 0), nil
	case string:
		return decimal.NewFromString(t)
	case json.Number:
		return decimal.NewFromString(t.String())
	case float64:
		return decimal.NewFromFloat(t), nil
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(t), 0), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("expected decimal, got %T", v)
	}
}

func toInt64(v any) (int64, error) {
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case int64:
		return t, nil
	case uint8:
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case uint64:
		if t > 1<<63-1 {
			return 0, fmt.Errorf("value %d overflows int64", t)
		}
		return int64(t), nil
	case float64:
		if t != float64(int64(t)) {
			return 0, fmt.Errorf("value %v is not an integer", t)
		}
		return int64(t), nil
	case json.Number:
		return t.Int64()
	case string:
		return strconv.ParseInt(t, 10, 64)
	case *big.Int:
		if !t.IsInt64() {
			return 0, fmt.Errorf("value %s overflows int64", t)
		}
		return t.Int64(), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

// Compare orders two values of entityType.field by their domain type. Missing
// values sort first.
func (c *Catalog) Compare(entityType, field string, a, b any) (int, error) {
	fieldType, err := c.FieldType(entityType, field)
	if err != nil {
		return 0, err
	}

	switch {
	case a == nil && b == nil:
		return 0, nil
	case a == nil:
		return -1, nil
	case b == nil:
		return 1, nil
	}

	switch fieldType {
	case subgraph.TypeBigInt, subgraph.TypeBigDecimal, subgraph.TypeInt:
		da, err := toDecimal(a)
		if err != nil {
			return 0, err
		}
		db, err := toDecimal(b)
		if err != nil {
			return 0, err
		}
		return da.Cmp(db), nil
	case subgraph.TypeBoolean:
		ba, _ := a.(bool)
		bb, _ := b.(bool)
		switch {
		case ba == bb:
			return 0, nil
		case !ba:
			return -1, nil
		default:
			return 1, nil
		}
	default:
		sa, err := toText(a)
		if err != nil {
			return 0, err
		}
		sb, err := toText(b)
		if err != nil {
			return 0, err
		}
		return strings.Compare(sa, sb), nil
	}
}

// NormalizeValue converts a filter operand for entityType.field to the
// representation Normalize stores.
func (c *Catalog) NormalizeValue(entityType, field string, v any) (any, error) {
	fieldType, err := c.FieldType(entityType, field)
	if err != nil {
		return nil, err
	}
	if rel, ok := c.Relation(entityType, field); ok && rel.IsArray && !rel.IsDerived {
		if _, isList := v.([]any); isList {
			return normalizeList(v)
		}
		return toText(v)
	}
	return normalizeValue(fieldType, v)
}
