package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
)

var (
	// ErrUnknownEntityType is returned for entity types the catalog does not declare.
	ErrUnknownEntityType = errors.New("unknown entity type")

	// ErrUnknownField is returned for fields an entity type does not declare.
	ErrUnknownField = errors.New("unknown field")
)

type entityType struct {
	name      string
	fields    []string
	types     map[string]string
	relations map[string]subgraph.RelationDef
}

// Catalog is the immutable description of every derived entity type: its
// fields, their domain types and its relations to other entity types.
type Catalog struct {
	types map[string]*entityType
}

// New validates defs and builds a catalog from them.
func New(defs []subgraph.EntityDef) (*Catalog, error) {
	c := &Catalog{types: make(map[string]*entityType, len(defs))}

	for _, def := range defs {
		if def.Name == "" {
			return nil, errors.New("entity type with empty name")
		}
		if _, exists := c.types[def.Name]; exists {
			return nil, fmt.Errorf("duplicate entity type %s", def.Name)
		}

		et := &entityType{
			name:      def.Name,
			fields:    make([]string, 0, len(def.Fields)),
			types:     make(map[string]string, len(def.Fields)),
			relations: make(map[string]subgraph.RelationDef, len(def.Relations)),
		}
		for _, f := range def.Fields {
			if _, exists := et.types[f.Name]; exists {
				return nil, fmt.Errorf("entity %s: duplicate field %s", def.Name, f.Name)
			}
			et.fields = append(et.fields, f.Name)
			et.types[f.Name] = f.Type
		}
		if et.types["id"] != subgraph.TypeID {
			return nil, fmt.Errorf("entity %s: field id of type ID is required", def.Name)
		}
		for field, rel := range def.Relations {
			et.relations[field] = rel
		}

		c.types[def.Name] = et
	}

	for _, et := range c.types {
		for field, rel := range et.relations {
			target, ok := c.types[rel.Entity]
			if !ok {
				return nil, fmt.Errorf("entity %s: relation %s targets %w %s", et.name, field, ErrUnknownEntityType, rel.Entity)
			}
			if rel.IsDerived {
				if _, ok := target.types[rel.Field]; !ok {
					return nil, fmt.Errorf("entity %s: derived relation %s uses %w %s.%s",
						et.name, field, ErrUnknownField, rel.Entity, rel.Field)
				}
				continue
			}
			if _, ok := et.types[field]; !ok {
				return nil, fmt.Errorf("entity %s: direct relation %s is not a declared field", et.name, field)
			}
		}
	}

	return c, nil
}

// EntityTypes returns the declared entity type names, sorted.
func (c *Catalog) EntityTypes() []string {
	names := make([]string, 0, len(c.types))
	for name := range c.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether entityType is declared.
func (c *Catalog) Has(entityType string) bool {
	_, ok := c.types[entityType]
	return ok
}

// Fields returns the stored fields of entityType in declaration order.
func (c *Catalog) Fields(entityType string) ([]string, error) {
	et, err := c.lookup(entityType)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), et.fields...), nil
}

// FieldType returns the domain type of a stored field.
func (c *Catalog) FieldType(entityType, field string) (string, error) {
	et, err := c.lookup(entityType)
	if err != nil {
		return "", err
	}
	t, ok := et.types[field]
	if !ok {
		return "", fmt.Errorf("%w: %s.%s", ErrUnknownField, entityType, field)
	}
	return t, nil
}

// Relations returns the relations of entityType keyed by field name.
func (c *Catalog) Relations(entityType string) map[string]subgraph.RelationDef {
	et, ok := c.types[entityType]
	if !ok {
		return nil
	}
	out := make(map[string]subgraph.RelationDef, len(et.relations))
	for k, v := range et.relations {
		out[k] = v
	}
	return out
}

// Relation returns the relation declared on entityType.field.
func (c *Catalog) Relation(entityType, field string) (subgraph.RelationDef, bool) {
	et, ok := c.types[entityType]
	if !ok {
		return subgraph.RelationDef{}, false
	}
	rel, ok := et.relations[field]
	return rel, ok
}

func (c *Catalog) lookup(entityType string) (*entityType, error) {
	et, ok := c.types[entityType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntityType, entityType)
	}
	return et, nil
}
