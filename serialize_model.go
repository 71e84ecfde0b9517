package shellz

import "time"

// ElementKind discriminates the flattened element table's entries. The
// table (spec.md §4.7) is the wire representation: a scope graph (or a
// value graph reachable from it) is flattened into a slice of Elements,
// referenced by index instead of by Go pointer, so it survives a trip
// through disk and so cycles can be represented at all.
type ElementKind int

const (
	ElementString ElementKind = iota
	ElementValue
	ElementMember
	ElementUserScope
	ElementInternalScope
)

// Element is one entry of the flattened table. Only the field matching
// Kind is populated; the rest are zero. This mirrors the oneof shape
// scope_serializer.rs builds, expressed as a tagged struct instead of a
// oneof because that is what a gob-friendly, non-generated Go type looks
// like (see DESIGN.md for why encoding/gob over a generated schema).
type Element struct {
	Kind ElementKind

	Str           string
	Val           *ValueElement
	Mem           *MemberElement
	Scope         *ScopeElement
	InternalScope []string
}

// MemberElement is one name→value pair of a UserScope's mapping, both
// sides stored as indices into the element table.
type MemberElement struct {
	NameIdx  int
	ValueIdx int
}

// ScopeElement is a UserScope's flattened fields (spec.md §4.2 Scope's
// Export shape): optional name/parent/calling, its uses list, and its
// mapping as an ordered list of Member element indices.
type ScopeElement struct {
	HasName    bool
	NameIdx    int
	HasParent  bool
	ParentIdx  int
	HasCalling bool
	CallingIdx int
	UsesIdx    []int
	MembersIdx []int
	IsLoop     bool
	IsStopped  bool
	IsReadonly bool
}

// pairIdx is an index pair used by Dict entries (key, value) and Struct
// fields (name, value).
type pairIdx struct {
	A, B int
}

// ValueElement is a flattened Value. Only the fields relevant to Tag are
// populated. Composite variants reference their children by element-table
// index. Unlike scopes, values are not memoized: a container shared by two
// references comes back as two separate containers.
type ValueElement struct {
	Tag Tag

	Text        string
	IntegerText string // decimal string; math/big.Int has no gob codec of its own
	Float       float64
	Bool        bool
	TimeUnixNS  int64
	Duration    time.Duration
	Field       []string
	GlobPattern string
	RegexSource string
	File        string
	Op          string

	ElementType  *ValueType // List's element type, or Dict's key type
	ElementType2 *ValueType // Dict's value type
	Columns      []ColumnType

	ElementsIdx []int     // List
	EntriesIdx  []pairIdx // Dict: key idx, value idx

	HasParentStruct bool
	ParentStructIdx int
	FieldsIdx       []pairIdx // Struct: name-string idx, value idx

	RowCellsIdx []int // Row, schema carried in Columns

	ScopeIdx int // TagScope: index of the scope element
}
