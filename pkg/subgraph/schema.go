package subgraph

// Scalar field types of derived entities. Any other field type names an entity
// type and marks a reference.
const (
	TypeID         = "ID"
	TypeString     = "String"
	TypeBytes      = "Bytes"
	TypeInt        = "Int"
	TypeBigInt     = "BigInt"
	TypeBigDecimal = "BigDecimal"
	TypeBoolean    = "Boolean"
)

// FieldDef declares one field of an entity type.
type FieldDef struct {
	Name string
	Type string
}

// RelationDef links a field to another entity type. Direct relations store the
// referenced id (or ids when IsArray) in the field itself. Derived relations are
// not stored: they collect the entities of type Entity whose Field references
// this entity.
type RelationDef struct {
	Entity    string
	IsArray   bool
	IsDerived bool
	Field     string
}

// EntityDef declares a derived entity type.
type EntityDef struct {
	Name      string
	Fields    []FieldDef
	Relations map[string]RelationDef
}
