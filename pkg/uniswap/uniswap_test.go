package uniswap

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/goran-ethernal/SubgraphWatcher/internal/catalog"
	"github.com/goran-ethernal/SubgraphWatcher/internal/logger"
	"github.com/goran-ethernal/SubgraphWatcher/internal/registry"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/hooks"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
	"github.com/stretchr/testify/require"
)

var (
	factoryAddr = common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984")
	managerAddr = common.HexToAddress("0xC36442b4a4522E871399CD717aBDD847Ab11FE88")
	poolAddr    = common.HexToAddress("0x8ad599c3A0ff1De082011EFDDc58f1908eb6e6D8")
	token0Addr  = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	token1Addr  = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	senderAddr  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	ownerAddr   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	txHash      = common.HexToHash("0x01")

	testBlock = subgraph.BlockInfo{
		Hash:      common.HexToHash("0xb100"),
		Number:    100,
		Timestamp: 3*secondsPerDay + 100,
	}
)

// fakeIndexer keeps entities in memory and normalizes them through the
// catalog the way the pipeline does.
type fakeIndexer struct {
	catalog   *catalog.Catalog
	entities  map[string]map[string]subgraph.Entity
	contracts map[common.Address]*subgraph.Contract
}

var _ hooks.Indexer = (*fakeIndexer)(nil)

func newFakeIndexer(t *testing.T) *fakeIndexer {
	t.Helper()

	cat, err := catalog.New(Entities())
	require.NoError(t, err)

	return &fakeIndexer{
		catalog:   cat,
		entities:  make(map[string]map[string]subgraph.Entity),
		contracts: make(map[common.Address]*subgraph.Contract),
	}
}

func (f *fakeIndexer) GetEntity(_ context.Context, entityType, id string, _ common.Hash) (subgraph.Entity, error) {
	e, ok := f.entities[entityType][id]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", entityType, id, subgraph.ErrNotFound)
	}
	return e.Clone(), nil
}

func (f *fakeIndexer) SaveEntity(_ context.Context, _ common.Address, _ common.Hash,
	entityType string, entity subgraph.Entity) error {
	normalized, err := f.catalog.Normalize(entityType, entity)
	if err != nil {
		return err
	}
	if f.entities[entityType] == nil {
		f.entities[entityType] = make(map[string]subgraph.Entity)
	}
	f.entities[entityType][normalized.ID()] = normalized
	return nil
}

func (f *fakeIndexer) RemoveEntity(_ context.Context, _ common.Address, _ common.Hash, entityType, id string) error {
	delete(f.entities[entityType], id)
	return nil
}

func (f *fakeIndexer) GetPrevState(context.Context, common.Address, uint64, ...subgraph.StateKind) (*subgraph.State, error) {
	return nil, subgraph.ErrNotFound
}

func (f *fakeIndexer) GetLatestState(context.Context, common.Address, subgraph.StateKind, *uint64) (*subgraph.State, error) {
	return nil, subgraph.ErrNotFound
}

func (f *fakeIndexer) CreateDiff(context.Context, common.Address, common.Hash, subgraph.StateData) error {
	return nil
}

func (f *fakeIndexer) CreateStateCheckpoint(context.Context, common.Address, common.Hash, subgraph.StateData) (bool, error) {
	return true, nil
}

func (f *fakeIndexer) IsWatchedContract(address common.Address) (*subgraph.Contract, bool) {
	c, ok := f.contracts[address]
	return c, ok
}

func (f *fakeIndexer) WatchContract(_ context.Context, address common.Address, kind string, checkpoint bool,
	startingBlock uint64, contractCtx map[string]any) error {
	f.contracts[address] = &subgraph.Contract{
		Address:       address,
		Kind:          kind,
		Checkpoint:    checkpoint,
		StartingBlock: startingBlock,
		Context:       contractCtx,
	}
	return nil
}

func (f *fakeIndexer) entity(t *testing.T, entityType, id string) subgraph.Entity {
	t.Helper()

	e, ok := f.entities[entityType][id]
	require.True(t, ok, "missing %s %s", entityType, id)
	return e
}

// fakeCaller answers contract calls from packed responses keyed by target and selector.
type fakeCaller struct {
	responses map[string][]byte
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{responses: make(map[string][]byte)}
}

func callKey(to common.Address, selector []byte) string {
	return fmt.Sprintf("%s:%x", to.Hex(), selector)
}

func (c *fakeCaller) CallContractAtHash(_ context.Context, msg ethereum.CallMsg, _ common.Hash) ([]byte, error) {
	out, ok := c.responses[callKey(*msg.To, msg.Data[:4])]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	return out, nil
}

func (c *fakeCaller) respond(t *testing.T, to common.Address, a abi.ABI, method string, values ...any) {
	t.Helper()

	m := a.Methods[method]
	out, err := m.Outputs.Pack(values...)
	require.NoError(t, err)
	c.responses[callKey(to, m.ID)] = out
}

func (c *fakeCaller) token(t *testing.T, addr common.Address, symbol string, decimals uint8) {
	t.Helper()

	c.respond(t, addr, erc20Calls, "symbol", symbol)
	c.respond(t, addr, erc20Calls, "name", symbol+" token")
	c.respond(t, addr, erc20Calls, "decimals", decimals)
	c.respond(t, addr, erc20Calls, "totalSupply", big.NewInt(1_000_000))
}

func newEvent(contract common.Address, kind, name string, logIndex uint, args map[string]any) *subgraph.ResultEvent {
	return &subgraph.ResultEvent{
		Block:     testBlock,
		TxHash:    txHash,
		Contract:  contract,
		Kind:      kind,
		LogIndex:  logIndex,
		EventName: name,
		Args:      args,
	}
}

func poolCreated() *subgraph.ResultEvent {
	return newEvent(factoryAddr, KindFactory, "PoolCreated", 0, map[string]any{
		"token0":      token0Addr,
		"token1":      token1Addr,
		"fee":         big.NewInt(3000),
		"tickSpacing": big.NewInt(60),
		"pool":        poolAddr,
	})
}

func handle(t *testing.T, set hooks.Set, idx hooks.Indexer, event *subgraph.ResultEvent) {
	t.Helper()

	h, err := set.Get(event.Kind)
	require.NoError(t, err)
	require.NoError(t, h.HandleEvent(context.Background(), idx, event))
}

func id(a common.Address) string {
	return strings.ToLower(a.Hex())
}

func TestEntities_Catalog(t *testing.T) {
	t.Parallel()

	cat, err := catalog.New(Entities())
	require.NoError(t, err)
	require.Len(t, cat.EntityTypes(), 22)

	rels := cat.Relations(EntityPosition)
	require.Equal(t, EntityIncreaseEvent, rels["increaseEvents"].Entity)
	require.Equal(t, EntityDecreaseEvent, rels["decreaseEvents"].Entity)
	require.True(t, rels["decreaseEvents"].IsDerived)
	require.Equal(t, "position", rels["decreaseEvents"].Field)

	whitelist := cat.Relations(EntityToken)["whitelistPools"]
	require.True(t, whitelist.IsArray)
	require.False(t, whitelist.IsDerived)
}

func TestABIs_Register(t *testing.T) {
	t.Parallel()

	reg, err := registry.New(ABIs(), logger.NewNopLogger())
	require.NoError(t, err)
	require.Equal(t, []string{KindFactory, KindNonfungiblePositionManager, KindPool}, reg.Kinds())

	for kind, count := range map[string]int{KindFactory: 3, KindPool: 9, KindNonfungiblePositionManager: 6} {
		sigs, err := reg.Signatures(kind)
		require.NoError(t, err)
		require.Len(t, sigs, count, kind)
	}
}

func TestNewHooks_StateHooks(t *testing.T) {
	t.Parallel()

	set := NewHooks(nil, logger.NewNopLogger())
	require.Equal(t, []string{KindFactory, KindNonfungiblePositionManager, KindPool}, set.Kinds())
	require.Empty(t, set.BlockHandlers())

	ctx := context.Background()
	idx := newFakeIndexer(t)
	for _, kind := range set.Kinds() {
		h, err := set.Get(kind)
		require.NoError(t, err)

		state, err := h.CreateInitialState(ctx, idx, poolAddr, testBlock.Hash)
		require.NoError(t, err)
		require.True(t, state.IsEmpty())

		require.NoError(t, h.CreateStateDiff(ctx, idx, testBlock.Hash))

		handled, err := h.CreateStateCheckpoint(ctx, idx, poolAddr, testBlock.Hash)
		require.NoError(t, err)
		require.False(t, handled)
	}
}

func TestFactory_PoolCreated(t *testing.T) {
	t.Parallel()

	caller := newFakeCaller()
	caller.token(t, token0Addr, "USDC", 6)
	var mkr [32]byte
	copy(mkr[:], "MKR")
	caller.respond(t, token1Addr, erc20Bytes32Calls, "symbol", mkr)
	caller.respond(t, token1Addr, erc20Calls, "decimals", uint8(18))

	idx := newFakeIndexer(t)
	handle(t, NewHooks(caller, logger.NewNopLogger()), idx, poolCreated())

	factory := idx.entity(t, EntityFactory, id(factoryAddr))
	require.Equal(t, "1", factory["poolCount"])
	require.Equal(t, "0", factory["txCount"])
	require.Equal(t, id(common.Address{}), factory["owner"])

	require.Equal(t, "0", idx.entity(t, EntityBundle, bundleID)["ethPriceUSD"])

	usdc := idx.entity(t, EntityToken, id(token0Addr))
	require.Equal(t, "USDC", usdc["symbol"])
	require.Equal(t, "USDC token", usdc["name"])
	require.Equal(t, "6", usdc["decimals"])
	require.Equal(t, "1000000", usdc["totalSupply"])
	require.Equal(t, []any{id(poolAddr)}, usdc["whitelistPools"])

	other := idx.entity(t, EntityToken, id(token1Addr))
	require.Equal(t, "MKR", other["symbol"])
	require.Equal(t, "unknown", other["name"])
	require.Equal(t, "18", other["decimals"])
	require.Equal(t, "0", other["totalSupply"])

	pool := idx.entity(t, EntityPool, id(poolAddr))
	require.Equal(t, id(token0Addr), pool["token0"])
	require.Equal(t, id(token1Addr), pool["token1"])
	require.Equal(t, "3000", pool["feeTier"])
	require.Equal(t, "100", pool["createdAtBlockNumber"])
	require.Nil(t, pool["tick"])

	watched, ok := idx.IsWatchedContract(poolAddr)
	require.True(t, ok)
	require.Equal(t, KindPool, watched.Kind)
	require.True(t, watched.Checkpoint)
	require.Equal(t, uint64(100), watched.StartingBlock)
	require.Equal(t, id(factoryAddr), watched.Context["factory"])
}

func TestFactory_OwnerChanged(t *testing.T) {
	t.Parallel()

	idx := newFakeIndexer(t)
	set := NewHooks(nil, logger.NewNopLogger())

	handle(t, set, idx, poolCreated())
	handle(t, set, idx, newEvent(factoryAddr, KindFactory, "OwnerChanged", 1, map[string]any{
		"oldOwner": common.Address{},
		"newOwner": ownerAddr,
	}))
	handle(t, set, idx, newEvent(factoryAddr, KindFactory, "FeeAmountEnabled", 2, map[string]any{
		"fee":         big.NewInt(100),
		"tickSpacing": big.NewInt(1),
	}))

	factory := idx.entity(t, EntityFactory, id(factoryAddr))
	require.Equal(t, id(ownerAddr), factory["owner"])
	require.Equal(t, "1", factory["poolCount"])
}

func TestFactory_PoolCreated_MissingArgument(t *testing.T) {
	t.Parallel()

	event := poolCreated()
	delete(event.Args, "pool")

	h, err := NewHooks(nil, logger.NewNopLogger()).Get(KindFactory)
	require.NoError(t, err)
	require.ErrorContains(t, h.HandleEvent(context.Background(), newFakeIndexer(t), event), "missing argument pool")
}

func TestPool_Lifecycle(t *testing.T) {
	t.Parallel()

	idx := newFakeIndexer(t)
	set := NewHooks(nil, logger.NewNopLogger())
	q96 := new(big.Int).Lsh(big.NewInt(1), 96)

	handle(t, set, idx, poolCreated())
	handle(t, set, idx, newEvent(poolAddr, KindPool, "Initialize", 0, map[string]any{
		"sqrtPriceX96": q96,
		"tick":         big.NewInt(0),
	}))
	handle(t, set, idx, newEvent(poolAddr, KindPool, "Mint", 1, map[string]any{
		"sender":    senderAddr,
		"owner":     ownerAddr,
		"tickLower": big.NewInt(-60),
		"tickUpper": big.NewInt(60),
		"amount":    big.NewInt(1000),
		"amount0":   big.NewInt(500),
		"amount1":   big.NewInt(700),
	}))
	handle(t, set, idx, newEvent(poolAddr, KindPool, "Swap", 2, map[string]any{
		"sender":       senderAddr,
		"recipient":    ownerAddr,
		"amount0":      big.NewInt(100),
		"amount1":      big.NewInt(-90),
		"sqrtPriceX96": q96,
		"liquidity":    big.NewInt(1000),
		"tick":         big.NewInt(1),
	}))
	handle(t, set, idx, newEvent(poolAddr, KindPool, "Burn", 3, map[string]any{
		"owner":     ownerAddr,
		"tickLower": big.NewInt(-60),
		"tickUpper": big.NewInt(60),
		"amount":    big.NewInt(400),
		"amount0":   big.NewInt(200),
		"amount1":   big.NewInt(300),
	}))
	handle(t, set, idx, newEvent(poolAddr, KindPool, "Collect", 4, map[string]any{
		"owner":     ownerAddr,
		"recipient": ownerAddr,
		"tickLower": big.NewInt(-60),
		"tickUpper": big.NewInt(60),
		"amount0":   big.NewInt(50),
		"amount1":   big.NewInt(60),
	}))
	handle(t, set, idx, newEvent(poolAddr, KindPool, "Flash", 5, map[string]any{
		"sender":    senderAddr,
		"recipient": ownerAddr,
		"amount0":   big.NewInt(1000),
		"amount1":   big.NewInt(2000),
		"paid0":     big.NewInt(3),
		"paid1":     big.NewInt(4),
	}))
	handle(t, set, idx, newEvent(poolAddr, KindPool, "SetFeeProtocol", 6, map[string]any{
		"feeProtocol0Old": uint8(0),
		"feeProtocol1Old": uint8(0),
		"feeProtocol0New": uint8(4),
		"feeProtocol1New": uint8(4),
	}))

	pool := idx.entity(t, EntityPool, id(poolAddr))
	require.Equal(t, "5", pool["txCount"])
	require.Equal(t, "600", pool["liquidity"])
	require.Equal(t, "1", pool["tick"])
	require.Equal(t, q96.String(), pool["sqrtPrice"])
	require.Equal(t, "1", pool["token0Price"])
	require.Equal(t, "1", pool["token1Price"])
	require.Equal(t, "100", pool["volumeToken0"])
	require.Equal(t, "90", pool["volumeToken1"])
	require.Equal(t, "353", pool["totalValueLockedToken0"])
	require.Equal(t, "254", pool["totalValueLockedToken1"])
	require.Equal(t, "50", pool["collectedFeesToken0"])
	require.Equal(t, "60", pool["collectedFeesToken1"])

	token0 := idx.entity(t, EntityToken, id(token0Addr))
	require.Equal(t, "5", token0["txCount"])
	require.Equal(t, "100", token0["volume"])
	require.Equal(t, "353", token0["totalValueLocked"])

	require.Equal(t, "5", idx.entity(t, EntityFactory, id(factoryAddr))["txCount"])

	txID := strings.ToLower(txHash.Hex())
	tx := idx.entity(t, EntityTransaction, txID)
	require.Equal(t, "100", tx["blockNumber"])

	mint := idx.entity(t, EntityMint, txID+"#1")
	require.Equal(t, txID, mint["transaction"])
	require.Equal(t, id(ownerAddr), mint["owner"])
	require.Equal(t, id(senderAddr), mint["sender"])
	require.Equal(t, "1000", mint["amount"])
	require.Equal(t, "-60", mint["tickLower"])
	require.Equal(t, "1", mint["logIndex"])

	swap := idx.entity(t, EntitySwap, txID+"#2")
	require.Equal(t, "-90", swap["amount1"])
	require.Equal(t, "1", swap["tick"])

	require.Equal(t, "400", idx.entity(t, EntityBurn, txID+"#3")["amount"])
	require.Equal(t, "50", idx.entity(t, EntityCollect, txID+"#4")["amount0"])
	require.Equal(t, "3", idx.entity(t, EntityFlash, txID+"#5")["amount0Paid"])

	lower := idx.entity(t, EntityTick, id(poolAddr)+"#-60")
	require.Equal(t, "600", lower["liquidityGross"])
	require.Equal(t, "600", lower["liquidityNet"])
	require.Equal(t, id(poolAddr), lower["pool"])
	upper := idx.entity(t, EntityTick, id(poolAddr)+"#60")
	require.Equal(t, "600", upper["liquidityGross"])
	require.Equal(t, "-600", upper["liquidityNet"])

	day := idx.entity(t, EntityPoolDayData, id(poolAddr)+"-3")
	require.Equal(t, "3", day["txCount"])
	require.Equal(t, int64(3*secondsPerDay), day["date"])
	require.Equal(t, "100", day["volumeToken0"])
	require.Equal(t, "1", day["close"])

	hour := idx.entity(t, EntityPoolHourData, fmt.Sprintf("%s-%d", id(poolAddr), testBlock.Timestamp/secondsPerHour))
	require.Equal(t, "3", hour["txCount"])

	require.Equal(t, "3", idx.entity(t, EntityUniswapDayData, "3")["txCount"])
}

func TestPool_UnknownPoolIgnored(t *testing.T) {
	t.Parallel()

	idx := newFakeIndexer(t)
	handle(t, NewHooks(nil, logger.NewNopLogger()), idx, newEvent(poolAddr, KindPool, "Initialize", 0, map[string]any{
		"sqrtPriceX96": big.NewInt(1),
		"tick":         big.NewInt(0),
	}))
	require.Empty(t, idx.entities)
}

func TestPool_DecodedLogs(t *testing.T) {
	t.Parallel()

	reg, err := registry.New(ABIs(), logger.NewNopLogger())
	require.NoError(t, err)

	parsed, err := abi.JSON(strings.NewReader(poolABI))
	require.NoError(t, err)
	ev := parsed.Events["Swap"]
	data, err := ev.Inputs.NonIndexed().Pack(
		big.NewInt(-5), big.NewInt(7), new(big.Int).Lsh(big.NewInt(1), 96), big.NewInt(10), big.NewInt(-3))
	require.NoError(t, err)

	decoded, err := reg.ParseEventNameAndArgs(KindPool, types.Log{
		Address: poolAddr,
		Topics: []common.Hash{
			ev.ID,
			common.BytesToHash(senderAddr.Bytes()),
			common.BytesToHash(ownerAddr.Bytes()),
		},
		Data: data,
	})
	require.NoError(t, err)

	idx := newFakeIndexer(t)
	set := NewHooks(nil, logger.NewNopLogger())
	handle(t, set, idx, poolCreated())

	event := newEvent(poolAddr, KindPool, decoded.Name, 1, decoded.Args)
	handle(t, set, idx, event)

	swap := idx.entity(t, EntitySwap, strings.ToLower(txHash.Hex())+"#1")
	require.Equal(t, "-5", swap["amount0"])
	require.Equal(t, "-3", swap["tick"])
	require.Equal(t, id(ownerAddr), swap["recipient"])
}

func TestPositionManager_Lifecycle(t *testing.T) {
	t.Parallel()

	caller := newFakeCaller()
	caller.token(t, token0Addr, "T0", 18)
	caller.token(t, token1Addr, "T1", 6)
	caller.respond(t, managerAddr, positionManagerCalls, "positions",
		big.NewInt(0), common.Address{}, token0Addr, token1Addr, big.NewInt(3000),
		big.NewInt(-60), big.NewInt(60), big.NewInt(0), big.NewInt(11), big.NewInt(12),
		big.NewInt(0), big.NewInt(0))
	caller.respond(t, managerAddr, positionManagerCalls, "factory", factoryAddr)
	caller.respond(t, factoryAddr, factoryCalls, "getPool", poolAddr)

	idx := newFakeIndexer(t)
	set := NewHooks(caller, logger.NewNopLogger())
	handle(t, set, idx, poolCreated())

	tokenID := big.NewInt(7)
	e18 := big.NewInt(1e18)
	manager := func(name string, logIndex uint, args map[string]any) *subgraph.ResultEvent {
		return newEvent(managerAddr, KindNonfungiblePositionManager, name, logIndex, args)
	}

	handle(t, set, idx, manager("Transfer", 1, map[string]any{
		"from":    common.Address{},
		"to":      ownerAddr,
		"tokenId": tokenID,
	}))
	handle(t, set, idx, manager("IncreaseLiquidity", 2, map[string]any{
		"tokenId":   tokenID,
		"liquidity": big.NewInt(1000),
		"amount0":   new(big.Int).Mul(big.NewInt(2), e18),
		"amount1":   big.NewInt(3_000_000),
	}))
	handle(t, set, idx, manager("DecreaseLiquidity", 3, map[string]any{
		"tokenId":   tokenID,
		"liquidity": big.NewInt(400),
		"amount0":   e18,
		"amount1":   big.NewInt(1_000_000),
	}))
	handle(t, set, idx, manager("Collect", 4, map[string]any{
		"tokenId":   tokenID,
		"recipient": ownerAddr,
		"amount0":   big.NewInt(15e17),
		"amount1":   big.NewInt(1_500_000),
	}))
	handle(t, set, idx, manager("Approval", 5, map[string]any{
		"owner":    ownerAddr,
		"approved": senderAddr,
		"tokenId":  tokenID,
	}))

	pos := idx.entity(t, EntityPosition, "7")
	require.Equal(t, id(ownerAddr), pos["owner"])
	require.Equal(t, id(poolAddr), pos["pool"])
	require.Equal(t, id(token0Addr), pos["token0"])
	require.Equal(t, id(poolAddr)+"#-60", pos["tickLower"])
	require.Equal(t, id(poolAddr)+"#60", pos["tickUpper"])
	require.Equal(t, "600", pos["liquidity"])
	require.Equal(t, "2", pos["depositedToken0"])
	require.Equal(t, "3", pos["depositedToken1"])
	require.Equal(t, "1", pos["withdrawnToken0"])
	require.Equal(t, "1.5", pos["collectedToken0"])
	require.Equal(t, "0.5", pos["collectedFeesToken0"])
	require.Equal(t, "0.5", pos["collectedFeesToken1"])
	require.Equal(t, "11", pos["feeGrowthInside0LastX128"])

	txID := strings.ToLower(txHash.Hex())
	increase := idx.entity(t, EntityIncreaseEvent, txID+"#2")
	require.Equal(t, "7", increase["position"])
	require.Equal(t, "2000000000000000000", increase["amount0"])
	require.Equal(t, id(poolAddr), increase["pool"])

	decrease := idx.entity(t, EntityDecreaseEvent, txID+"#3")
	require.Equal(t, "1000000", decrease["amount1"])
	require.Len(t, idx.entities[EntityIncreaseEvent], 1)

	snap := idx.entity(t, EntityPositionSnapshot, "7#100")
	require.Equal(t, "600", snap["liquidity"])
	require.Equal(t, "0.5", snap["collectedFeesToken0"])
	require.Equal(t, txID, snap["transaction"])
}

func TestPositionManager_UnreadablePosition(t *testing.T) {
	t.Parallel()

	idx := newFakeIndexer(t)
	set := NewHooks(newFakeCaller(), logger.NewNopLogger())

	handle(t, set, idx, newEvent(managerAddr, KindNonfungiblePositionManager, "IncreaseLiquidity", 0, map[string]any{
		"tokenId":   big.NewInt(9),
		"liquidity": big.NewInt(1),
		"amount0":   big.NewInt(1),
		"amount1":   big.NewInt(1),
	}))
	require.Empty(t, idx.entities)
}

func TestPositionManager_WithoutCaller(t *testing.T) {
	t.Parallel()

	idx := newFakeIndexer(t)
	set := NewHooks(nil, logger.NewNopLogger())

	handle(t, set, idx, newEvent(managerAddr, KindNonfungiblePositionManager, "IncreaseLiquidity", 0, map[string]any{
		"tokenId":   big.NewInt(9),
		"liquidity": big.NewInt(5),
		"amount0":   big.NewInt(10),
		"amount1":   big.NewInt(20),
	}))

	pos := idx.entity(t, EntityPosition, "9")
	require.Equal(t, "5", pos["liquidity"])
	require.Equal(t, "10", pos["depositedToken0"])
	require.Nil(t, pos["pool"])
}

func TestSqrtPriceToTokenPrices(t *testing.T) {
	t.Parallel()

	q96 := new(big.Int).Lsh(big.NewInt(1), 96)
	tests := []struct {
		name      string
		sqrtPrice *big.Int
		decimals0 int64
		decimals1 int64
		price0    string
		price1    string
	}{
		{name: "zero", sqrtPrice: new(big.Int), price0: "0", price1: "0"},
		{name: "parity", sqrtPrice: q96, price0: "1", price1: "1"},
		{name: "double", sqrtPrice: new(big.Int).Lsh(q96, 1), price0: "0.25", price1: "4"},
		{name: "decimals", sqrtPrice: q96, decimals0: 2, price0: "0.01", price1: "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			token0 := subgraph.Entity{"decimals": big.NewInt(tt.decimals0).String()}
			token1 := subgraph.Entity{"decimals": big.NewInt(tt.decimals1).String()}
			price0, price1 := sqrtPriceToTokenPrices(tt.sqrtPrice, token0, token1)
			require.Equal(t, tt.price0, price0.String())
			require.Equal(t, tt.price1, price1.String())
		})
	}
}

func TestTickPrice(t *testing.T) {
	t.Parallel()

	require.Equal(t, "1", tickPrice(big.NewInt(0)).String())
	require.True(t, tickPrice(big.NewInt(1)).GreaterThan(tickPrice(big.NewInt(0))))
	require.True(t, tickPrice(big.NewInt(-1)).LessThan(tickPrice(big.NewInt(0))))
	require.True(t, tickPrice(new(big.Int).Lsh(big.NewInt(1), 80)).IsZero())
}
