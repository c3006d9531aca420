package indexer

import (
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
	"github.com/puzpuzpuz/xsync/v4"
)

// contractSet routes events to the watched contracts they were emitted by.
// It is read on every event and written when hooks watch new contracts.
type contractSet struct {
	byAddress *xsync.Map[common.Address, *subgraph.Contract]
}

func newContractSet() *contractSet {
	return &contractSet{
		byAddress: xsync.NewMap[common.Address, *subgraph.Contract](),
	}
}

// load replaces the set with contracts.
func (c *contractSet) load(contracts []*subgraph.Contract) {
	c.byAddress.Clear()
	for _, contract := range contracts {
		c.add(contract)
	}
}

func (c *contractSet) add(contract *subgraph.Contract) {
	cp := *contract
	c.byAddress.Store(contract.Address, &cp)
}

func (c *contractSet) get(address common.Address) (*subgraph.Contract, bool) {
	contract, ok := c.byAddress.Load(address)
	if !ok {
		return nil, false
	}
	cp := *contract
	return &cp, true
}

// route returns the contract an event at blockNumber belongs to. Contracts
// are only routed events from their starting block on.
func (c *contractSet) route(address common.Address, blockNumber uint64) (*subgraph.Contract, bool) {
	contract, ok := c.get(address)
	if !ok || blockNumber < contract.StartingBlock {
		return nil, false
	}
	return contract, true
}

// all returns the watched contracts ordered by starting block and address.
func (c *contractSet) all() []*subgraph.Contract {
	out := make([]*subgraph.Contract, 0, c.byAddress.Size())
	c.byAddress.Range(func(_ common.Address, contract *subgraph.Contract) bool {
		cp := *contract
		out = append(out, &cp)
		return true
	})

	slices.SortFunc(out, func(a, b *subgraph.Contract) int {
		if a.StartingBlock != b.StartingBlock {
			if a.StartingBlock < b.StartingBlock {
				return -1
			}
			return 1
		}
		return a.Address.Cmp(b.Address)
	})
	return out
}

func (c *contractSet) byKind(kind string) []*subgraph.Contract {
	var out []*subgraph.Contract
	for _, contract := range c.all() {
		if strings.EqualFold(contract.Kind, kind) {
			out = append(out, contract)
		}
	}
	return out
}

// addresses returns the addresses watched at blockNumber.
func (c *contractSet) addresses(blockNumber uint64) []common.Address {
	var out []common.Address
	for _, contract := range c.all() {
		if contract.StartingBlock <= blockNumber {
			out = append(out, contract.Address)
		}
	}
	return out
}

// kinds returns the distinct kinds of the watched contracts, sorted.
func (c *contractSet) kinds() []string {
	var out []string
	for _, contract := range c.all() {
		kind := strings.ToLower(contract.Kind)
		if !slices.Contains(out, kind) {
			out = append(out, kind)
		}
	}
	slices.Sort(out)
	return out
}
