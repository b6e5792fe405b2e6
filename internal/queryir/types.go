package queryir

// Field names a queryable column of a stored case. The set is closed:
// Validate rejects anything not listed here.
type Field string

const (
	FieldID               Field = "id"
	FieldNumber           Field = "number"
	FieldOverall          Field = "overall"
	FieldBO               Field = "bo"
	FieldBOF              Field = "bof"
	FieldBOU              Field = "bou"
	FieldOwner            Field = "owner_id"
	FieldInChargeBO       Field = "in_charge_bo"
	FieldInChargeBOF      Field = "in_charge_bof"
	FieldInChargeBOU      Field = "in_charge_bou"
	FieldInChargeDelivery Field = "in_charge_delivery"
	FieldInChargeVRC      Field = "in_charge_vrc"
	FieldProgress         Field = "progress"
)

type fieldKind int

const (
	kindText fieldKind = iota + 1
	kindInt
)

var fieldKinds = map[Field]fieldKind{
	FieldID:               kindText,
	FieldNumber:           kindText,
	FieldOverall:          kindText,
	FieldBO:               kindText,
	FieldBOF:              kindText,
	FieldBOU:              kindText,
	FieldOwner:            kindText,
	FieldInChargeBO:       kindText,
	FieldInChargeBOF:      kindText,
	FieldInChargeBOU:      kindText,
	FieldInChargeDelivery: kindText,
	FieldInChargeVRC:      kindText,
	FieldProgress:         kindInt,
}

// Valid reports whether f is a known field.
func (f Field) Valid() bool {
	_, ok := fieldKinds[f]
	return ok
}

// InChargeFields lists the possessor column of every area.
var InChargeFields = []Field{
	FieldInChargeBO,
	FieldInChargeBOF,
	FieldInChargeBOU,
	FieldInChargeDelivery,
	FieldInChargeVRC,
}

// Query represents an abstract worklist query.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in backend compilers.
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// Predicate represents a filter condition over case fields.
//
// This is a sealed interface - only types in this package implement it.
//
// Predicate types:
//   - Equals: field = value
//   - In: field IN (values)
//   - And: all predicates must be true
//   - Or: at least one predicate must be true
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Worklist selects whole cases.
//
// Semantics:
//
//	SELECT <case> FROM cases WHERE <filter> ORDER BY id [LIMIT <limit>]
//
// A nil Filter selects every case; Limit 0 means no limit. Results are
// always ordered by id so the same query returns the same list.
type Worklist struct {
	Filter Predicate
	Limit  int
}

func (Worklist) queryNode() {}

// Equals represents a field-equals-literal predicate.
//
// Value must be a string for text fields and an int or int64 for
// progress. There is no NULL: unset text columns hold "".
type Equals struct {
	Field Field
	Value any
}

func (Equals) predicateNode() {}

// In represents membership of a field in a literal list.
// An empty list matches nothing and is rejected by Validate.
type In struct {
	Field  Field
	Values []any
}

func (In) predicateNode() {}

// And represents a conjunction of predicates. Empty means always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or represents a disjunction of predicates. Empty means always false.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}
