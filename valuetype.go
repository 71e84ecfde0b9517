package shellz

import "fmt"

// Tag identifies which of Value's variants a ValueType (or a Value) carries.
type Tag int

// The value tags named by the data model (spec.md §3).
const (
	TagEmpty Tag = iota
	TagText
	TagInteger
	TagFloat
	TagBool
	TagTime
	TagDuration
	TagField
	TagGlob
	TagRegex
	TagFile
	TagList
	TagDict
	TagStruct
	TagRow
	TagTableStream
	TagTable
	TagScope
	TagClosure
	TagCommand
	TagOp
)

func (t Tag) String() string {
	switch t {
	case TagText:
		return "text"
	case TagInteger:
		return "integer"
	case TagFloat:
		return "float"
	case TagBool:
		return "bool"
	case TagTime:
		return "time"
	case TagDuration:
		return "duration"
	case TagField:
		return "field"
	case TagGlob:
		return "glob"
	case TagRegex:
		return "regex"
	case TagFile:
		return "file"
	case TagList:
		return "list"
	case TagDict:
		return "dict"
	case TagStruct:
		return "struct"
	case TagRow:
		return "row"
	case TagTableStream:
		return "table_stream"
	case TagTable:
		return "table"
	case TagScope:
		return "scope"
	case TagClosure:
		return "closure"
	case TagCommand:
		return "command"
	case TagOp:
		return "op"
	default:
		return "empty"
	}
}

// ValueType describes the static shape of a Value: a tag, plus, for
// composite tags, an inner schema (spec.md §3/§4.1).
//
//   - List(T): Inner holds the single element ValueType.
//   - Dict(K, V): Inner holds the key ValueType, Inner2 the value ValueType.
//   - Table(cols)/TableStream(cols): Columns holds the column schema.
type ValueType struct {
	Tag     Tag
	Inner   *ValueType
	Inner2  *ValueType
	Columns []ColumnType
}

// Simple built-in scalar types, safe to share since ValueType is immutable
// once constructed.
var (
	TypeEmpty   = ValueType{Tag: TagEmpty}
	TypeText    = ValueType{Tag: TagText}
	TypeInteger = ValueType{Tag: TagInteger}
	TypeFloat   = ValueType{Tag: TagFloat}
	TypeBool    = ValueType{Tag: TagBool}
	TypeTime    = ValueType{Tag: TagTime}
	TypeDur     = ValueType{Tag: TagDuration}
	TypeField   = ValueType{Tag: TagField}
	TypeGlob    = ValueType{Tag: TagGlob}
	TypeRegex   = ValueType{Tag: TagRegex}
	TypeFile    = ValueType{Tag: TagFile}
	TypeScope   = ValueType{Tag: TagScope}
	TypeClosure = ValueType{Tag: TagClosure}
	TypeCommand = ValueType{Tag: TagCommand}
	TypeOp      = ValueType{Tag: TagOp}
)

// ListType builds a List(element) ValueType.
func ListType(element ValueType) ValueType {
	e := element
	return ValueType{Tag: TagList, Inner: &e}
}

// DictType builds a Dict(key, value) ValueType.
func DictType(key, value ValueType) ValueType {
	k, v := key, value
	return ValueType{Tag: TagDict, Inner: &k, Inner2: &v}
}

// TableType builds a Table(cols) ValueType.
func TableType(cols []ColumnType) ValueType {
	return ValueType{Tag: TagTable, Columns: cols}
}

// TableStreamType builds a TableStream(cols) ValueType.
func TableStreamType(cols []ColumnType) ValueType {
	return ValueType{Tag: TagTableStream, Columns: cols}
}

// Is reports whether v's dynamic type is assignable to t: matching scalar
// tag; for List(T), an element type equal to T; for Table(cols), matching
// column count, names, and recursive column type match (spec.md §4.1).
// There is no coercion — mismatch is always rejected.
func (t ValueType) Is(v Value) bool {
	if t.Tag != v.Tag() {
		return false
	}
	switch t.Tag {
	case TagList:
		l, ok := v.data.(*List)
		return ok && t.Inner != nil && t.Inner.Equal(l.elementType)
	case TagDict:
		d, ok := v.data.(*Dict)
		return ok && t.Inner != nil && t.Inner2 != nil &&
			t.Inner.Equal(d.keyType) && t.Inner2.Equal(d.valueType)
	case TagTable:
		tb, ok := v.data.(*Table)
		return ok && columnsEqual(t.Columns, tb.Columns)
	case TagTableStream:
		ts, ok := v.data.(*TableStream)
		return ok && columnsEqual(t.Columns, ts.stream.Types())
	default:
		return true
	}
}

// Equal reports whether two ValueTypes describe the same shape, recursing
// into composite inner types and columns.
func (t ValueType) Equal(o ValueType) bool {
	if t.Tag != o.Tag {
		return false
	}
	switch t.Tag {
	case TagList:
		return innerEqual(t.Inner, o.Inner)
	case TagDict:
		return innerEqual(t.Inner, o.Inner) && innerEqual(t.Inner2, o.Inner2)
	case TagTable, TagTableStream:
		return columnsEqual(t.Columns, o.Columns)
	default:
		return true
	}
}

func innerEqual(a, b *ValueType) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func columnsEqual(a, b []ColumnType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || !a[i].Type.Equal(b[i].Type) {
			return false
		}
	}
	return true
}

func (t ValueType) String() string {
	switch t.Tag {
	case TagList:
		return fmt.Sprintf("list<%s>", typeOrNil(t.Inner))
	case TagDict:
		return fmt.Sprintf("dict<%s, %s>", typeOrNil(t.Inner), typeOrNil(t.Inner2))
	case TagTable:
		return fmt.Sprintf("table%s", formatColumns(t.Columns))
	case TagTableStream:
		return fmt.Sprintf("table_stream%s", formatColumns(t.Columns))
	default:
		return t.Tag.String()
	}
}

func typeOrNil(t *ValueType) string {
	if t == nil {
		return "?"
	}
	return t.String()
}

func formatColumns(cols []ColumnType) string {
	s := "("
	for i, c := range cols {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s:%s", c.Name, c.Type)
	}
	return s + ")"
}

// ColumnType pairs a column name with the ValueType its cells must satisfy
// (spec.md §3's ColumnType).
type ColumnType struct {
	Name string
	Type ValueType
}

// Is checks assignability of a single cell against this column.
func (c ColumnType) Is(v Value) bool {
	return c.Type.Is(v)
}
