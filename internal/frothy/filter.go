package frothy

import (
	"fmt"
	"slices"
	"strings"

	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
)

type filterOp string

const (
	opEq       filterOp = ""
	opNot      filterOp = "_not"
	opGt       filterOp = "_gt"
	opGte      filterOp = "_gte"
	opLt       filterOp = "_lt"
	opLte      filterOp = "_lte"
	opIn       filterOp = "_in"
	opNotIn    filterOp = "_not_in"
	opContains filterOp = "_contains"
)

// longest suffixes first so _not_in is not read as _in
var filterOps = []filterOp{opNotIn, opContains, opGte, opLte, opNot, opGt, opLt, opIn}

type condition struct {
	field   string
	op      filterOp
	operand any
}

func (m *Manager) parseWhere(entityType string, where subgraph.Where) ([]condition, error) {
	conds := make([]condition, 0, len(where))
	for key, operand := range where {
		field, op := key, opEq
		if _, err := m.catalog.FieldType(entityType, key); err != nil {
			for _, candidate := range filterOps {
				if base, ok := strings.CutSuffix(key, string(candidate)); ok {
					field, op = base, candidate
					break
				}
			}
			if _, err := m.catalog.FieldType(entityType, field); err != nil {
				return nil, fmt.Errorf("where %s: %w", key, err)
			}
		}

		normalized, err := m.normalizeOperand(entityType, field, op, operand)
		if err != nil {
			return nil, fmt.Errorf("where %s: %w", key, err)
		}
		conds = append(conds, condition{field: field, op: op, operand: normalized})
	}
	return conds, nil
}

func (m *Manager) normalizeOperand(entityType, field string, op filterOp, operand any) (any, error) {
	if op != opIn && op != opNotIn {
		return m.catalog.NormalizeValue(entityType, field, operand)
	}

	list, ok := operand.([]any)
	if !ok {
		return nil, fmt.Errorf("expected list operand, got %T", operand)
	}
	out := make([]any, len(list))
	for i, item := range list {
		v, err := m.catalog.NormalizeValue(entityType, field, item)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *Manager) matches(entityType string, entity subgraph.Entity, conds []condition) (bool, error) {
	for _, c := range conds {
		value := entity[c.field]

		ok, err := m.matchCondition(entityType, value, c)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (m *Manager) matchCondition(entityType string, value any, c condition) (bool, error) {
	if list, isList := value.([]any); isList {
		return matchList(list, c)
	}

	switch c.op {
	case opIn, opNotIn:
		found := false
		for _, candidate := range c.operand.([]any) {
			cmp, err := m.catalog.Compare(entityType, c.field, value, candidate)
			if err != nil {
				return false, err
			}
			if cmp == 0 {
				found = true
				break
			}
		}
		return found == (c.op == opIn), nil
	case opContains:
		s, _ := value.(string)
		sub, _ := c.operand.(string)
		return strings.Contains(s, sub), nil
	}

	cmp, err := m.catalog.Compare(entityType, c.field, value, c.operand)
	if err != nil {
		return false, err
	}
	switch c.op {
	case opEq:
		return cmp == 0, nil
	case opNot:
		return cmp != 0, nil
	case opGt:
		return cmp > 0, nil
	case opGte:
		return cmp >= 0, nil
	case opLt:
		return cmp < 0, nil
	case opLte:
		return cmp <= 0, nil
	default:
		return false, fmt.Errorf("unsupported operator %q", c.op)
	}
}

// matchList evaluates a condition against an array relation of ids.
func matchList(list []any, c condition) (bool, error) {
	operand := c.operand
	if single, ok := operand.(string); ok {
		operand = []any{single}
	}
	items, ok := operand.([]any)
	if !ok {
		return false, fmt.Errorf("unsupported operand %T for list field %s", c.operand, c.field)
	}

	switch c.op {
	case opEq:
		return slices.Equal(list, items), nil
	case opNot:
		return !slices.Equal(list, items), nil
	case opContains:
		for _, item := range items {
			if !slices.Contains(list, item) {
				return false, nil
			}
		}
		return true, nil
	default:
		return false, fmt.Errorf("operator %q is not supported on list field %s", c.op, c.field)
	}
}

// query filters, orders and paginates entities.
func (m *Manager) query(
	entityType string,
	entities []subgraph.Entity,
	where subgraph.Where,
	opts subgraph.QueryOptions,
) ([]subgraph.Entity, error) {
	conds, err := m.parseWhere(entityType, where)
	if err != nil {
		return nil, err
	}

	filtered := make([]subgraph.Entity, 0, len(entities))
	for _, e := range entities {
		ok, err := m.matches(entityType, e, conds)
		if err != nil {
			return nil, err
		}
		if ok {
			filtered = append(filtered, e)
		}
	}

	orderBy := opts.OrderBy
	if orderBy == "" {
		orderBy = "id"
	}
	if _, err := m.catalog.FieldType(entityType, orderBy); err != nil {
		return nil, fmt.Errorf("orderBy: %w", err)
	}

	var sortErr error
	slices.SortStableFunc(filtered, func(a, b subgraph.Entity) int {
		cmp, err := m.catalog.Compare(entityType, orderBy, a[orderBy], b[orderBy])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		if cmp == 0 && orderBy != "id" {
			cmp = strings.Compare(a.ID(), b.ID())
		}
		if opts.OrderDirection == subgraph.OrderDesc {
			return -cmp
		}
		return cmp
	})
	if sortErr != nil {
		return nil, fmt.Errorf("orderBy %s: %w", orderBy, sortErr)
	}

	skip := max(opts.Skip, 0)
	if skip >= len(filtered) {
		return []subgraph.Entity{}, nil
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = subgraph.DefaultQueryLimit
	}
	end := min(skip+limit, len(filtered))

	return filtered[skip:end], nil
}
