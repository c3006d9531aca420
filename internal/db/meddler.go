package db

import (
	"database/sql"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/russross/meddler"
)

func init() {
	meddler.Register("hash", HexMeddler[common.Hash]{parse: common.HexToHash})
	meddler.Register("address", HexMeddler[common.Address]{parse: common.HexToAddress})
}

// hexValue is a fixed size chain value stored as its checksummed hex string.
type hexValue interface {
	common.Hash | common.Address
	Hex() string
}

// HexMeddler stores hashes and addresses as hex TEXT columns. Both T and *T
// fields are supported; a NULL column reads back as the zero value or nil.
type HexMeddler[T hexValue] struct {
	parse func(string) T
}

func (HexMeddler[T]) PreRead(any) (any, error) {
	return new(sql.NullString), nil
}

func (m HexMeddler[T]) PostRead(fieldAddr, scanTarget any) error {
	ns, ok := scanTarget.(*sql.NullString)
	if !ok {
		return fmt.Errorf("expected *sql.NullString, got %T", scanTarget)
	}

	switch ptr := fieldAddr.(type) {
	case *T:
		var zero T
		*ptr = zero
		if ns.Valid {
			*ptr = m.parse(ns.String)
		}
	case **T:
		*ptr = nil
		if ns.Valid {
			v := m.parse(ns.String)
			*ptr = &v
		}
	default:
		return fmt.Errorf("unsupported field type %T for %T column", fieldAddr, *new(T))
	}
	return nil
}

func (HexMeddler[T]) PreWrite(field any) (any, error) {
	switch v := field.(type) {
	case T:
		return v.Hex(), nil
	case *T:
		if v == nil {
			return nil, nil
		}
		return (*v).Hex(), nil
	default:
		return nil, fmt.Errorf("unsupported field type %T for %T column", field, *new(T))
	}
}
