package uniswap

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Caller runs read-only contract calls against the state of a block.
// go-ethereum's ethclient.Client satisfies it.
type Caller interface {
	CallContractAtHash(ctx context.Context, msg ethereum.CallMsg, blockHash common.Hash) ([]byte, error)
}

// TokenInfo is the ERC20 metadata of a token.
type TokenInfo struct {
	Symbol      string
	Name        string
	Decimals    *big.Int
	TotalSupply *big.Int
}

// PositionInfo is the state of a position NFT as the position manager reports it.
type PositionInfo struct {
	Pool                     common.Address
	Token0                   common.Address
	Token1                   common.Address
	Fee                      *big.Int
	TickLower                *big.Int
	TickUpper                *big.Int
	Liquidity                *big.Int
	FeeGrowthInside0LastX128 *big.Int
	FeeGrowthInside1LastX128 *big.Int
}

const erc20CallsABI = `[
  {"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
  {"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

// Some early tokens return bytes32 instead of string.
const erc20Bytes32CallsABI = `[
  {"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes32"}]},
  {"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes32"}]}
]`

const positionManagerCallsABI = `[
  {"type":"function","name":"factory","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"positions","stateMutability":"view",
   "inputs":[{"name":"tokenId","type":"uint256"}],
   "outputs":[
     {"name":"nonce","type":"uint96"},
     {"name":"operator","type":"address"},
     {"name":"token0","type":"address"},
     {"name":"token1","type":"address"},
     {"name":"fee","type":"uint24"},
     {"name":"tickLower","type":"int24"},
     {"name":"tickUpper","type":"int24"},
     {"name":"liquidity","type":"uint128"},
     {"name":"feeGrowthInside0LastX128","type":"uint256"},
     {"name":"feeGrowthInside1LastX128","type":"uint256"},
     {"name":"tokensOwed0","type":"uint128"},
     {"name":"tokensOwed1","type":"uint128"}
   ]}
]`

const factoryCallsABI = `[
  {"type":"function","name":"getPool","stateMutability":"view",
   "inputs":[{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"},{"name":"fee","type":"uint24"}],
   "outputs":[{"name":"pool","type":"address"}]}
]`

var (
	erc20Calls           = mustParseABI(erc20CallsABI)
	erc20Bytes32Calls    = mustParseABI(erc20Bytes32CallsABI)
	positionManagerCalls = mustParseABI(positionManagerCallsABI)
	factoryCalls         = mustParseABI(factoryCallsABI)
)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(fmt.Sprintf("invalid call ABI: %v", err))
	}
	return parsed
}

type positionsOutput struct {
	Nonce                    *big.Int
	Operator                 common.Address
	Token0                   common.Address
	Token1                   common.Address
	Fee                      *big.Int
	TickLower                *big.Int
	TickUpper                *big.Int
	Liquidity                *big.Int
	FeeGrowthInside0LastX128 *big.Int
	FeeGrowthInside1LastX128 *big.Int
	TokensOwed0              *big.Int
	TokensOwed1              *big.Int
}

// chainReader reads contract state through a Caller. A nil caller makes every
// read fall back to defaults.
type chainReader struct {
	caller Caller
}

func (r chainReader) call(ctx context.Context, contract common.Address, blockHash common.Hash,
	a abi.ABI, method string, args ...any) ([]any, error) {
	if r.caller == nil {
		return nil, fmt.Errorf("no contract caller configured for %s", method)
	}

	input, err := a.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}
	out, err := r.caller.CallContractAtHash(ctx, ethereum.CallMsg{To: &contract, Data: input}, blockHash)
	if err != nil {
		return nil, fmt.Errorf("call %s on %s failed: %w", method, contract.Hex(), err)
	}
	values, err := a.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	return values, nil
}

// tokenInfo returns the metadata of token. Fields that cannot be read keep
// their defaults: "unknown" names, zero decimals and supply.
func (r chainReader) tokenInfo(ctx context.Context, token common.Address, blockHash common.Hash) TokenInfo {
	info := TokenInfo{
		Symbol:      "unknown",
		Name:        "unknown",
		Decimals:    new(big.Int),
		TotalSupply: new(big.Int),
	}
	if r.caller == nil {
		return info
	}

	if s, ok := r.text(ctx, token, blockHash, "symbol"); ok {
		info.Symbol = s
	}
	if s, ok := r.text(ctx, token, blockHash, "name"); ok {
		info.Name = s
	}
	if out, err := r.call(ctx, token, blockHash, erc20Calls, "decimals"); err == nil {
		if d, ok := out[0].(uint8); ok {
			info.Decimals.SetUint64(uint64(d))
		}
	}
	if out, err := r.call(ctx, token, blockHash, erc20Calls, "totalSupply"); err == nil {
		if s, ok := out[0].(*big.Int); ok {
			info.TotalSupply = s
		}
	}
	return info
}

func (r chainReader) text(ctx context.Context, token common.Address, blockHash common.Hash, method string) (string, bool) {
	if out, err := r.call(ctx, token, blockHash, erc20Calls, method); err == nil {
		if s, ok := out[0].(string); ok {
			return s, true
		}
	}
	out, err := r.call(ctx, token, blockHash, erc20Bytes32Calls, method)
	if err != nil {
		return "", false
	}
	b, ok := out[0].([32]byte)
	if !ok {
		return "", false
	}
	return string(bytes.TrimRight(b[:], "\x00")), true
}

// position reads a position NFT from the position manager and resolves its pool.
func (r chainReader) position(ctx context.Context, manager common.Address, tokenID *big.Int,
	blockHash common.Hash) (*PositionInfo, error) {
	out, err := r.call(ctx, manager, blockHash, positionManagerCalls, "positions", tokenID)
	if err != nil {
		return nil, err
	}

	var raw positionsOutput
	if err := positionManagerCalls.Methods["positions"].Outputs.Copy(&raw, out); err != nil {
		return nil, fmt.Errorf("failed to read positions output: %w", err)
	}
	info := &PositionInfo{
		Token0:                   raw.Token0,
		Token1:                   raw.Token1,
		Fee:                      raw.Fee,
		TickLower:                raw.TickLower,
		TickUpper:                raw.TickUpper,
		Liquidity:                raw.Liquidity,
		FeeGrowthInside0LastX128: raw.FeeGrowthInside0LastX128,
		FeeGrowthInside1LastX128: raw.FeeGrowthInside1LastX128,
	}

	factory, err := r.call(ctx, manager, blockHash, positionManagerCalls, "factory")
	if err != nil {
		return nil, err
	}
	factoryAddr, isAddr := factory[0].(common.Address)
	if !isAddr {
		return nil, fmt.Errorf("unexpected factory output: %T", factory[0])
	}

	pool, err := r.call(ctx, factoryAddr, blockHash, factoryCalls, "getPool", info.Token0, info.Token1, info.Fee)
	if err != nil {
		return nil, err
	}
	if info.Pool, isAddr = pool[0].(common.Address); !isAddr {
		return nil, fmt.Errorf("unexpected getPool output: %T", pool[0])
	}
	return info, nil
}
