package uniswap

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
)

// bigArg returns an integer event argument. Small ABI integer types decode to
// native Go integers, the rest to *big.Int.
func bigArg(event *subgraph.ResultEvent, name string) (*big.Int, error) {
	switch v := event.Args[name].(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case nil:
		return nil, fmt.Errorf("%s: missing argument %s", event.EventName, name)
	default:
		return nil, fmt.Errorf("%s: argument %s has type %T, expected integer", event.EventName, name, v)
	}
}

func addressArg(event *subgraph.ResultEvent, name string) (common.Address, error) {
	switch v := event.Args[name].(type) {
	case common.Address:
		return v, nil
	case nil:
		return common.Address{}, fmt.Errorf("%s: missing argument %s", event.EventName, name)
	default:
		return common.Address{}, fmt.Errorf("%s: argument %s has type %T, expected address", event.EventName, name, v)
	}
}

// bigArgs reads several integer arguments at once.
func bigArgs(event *subgraph.ResultEvent, names ...string) ([]*big.Int, error) {
	out := make([]*big.Int, len(names))
	for i, name := range names {
		v, err := bigArg(event, name)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
