package shellz

import "testing"

func TestValueTypeIsScalar(t *testing.T) {
	if !TypeInteger.Is(NewIntegerFromInt64(1)) {
		t.Error("expected integer value to satisfy TypeInteger")
	}
	if TypeInteger.Is(NewText("nope")) {
		t.Error("did not expect text value to satisfy TypeInteger")
	}
}

func TestValueTypeListElementMatch(t *testing.T) {
	l, _ := NewListFrom(TypeInteger, nil)
	typ := ListType(TypeInteger)
	if !typ.Is(NewListValue(l)) {
		t.Error("expected list<integer> value to satisfy list<integer> type")
	}
	otherTyp := ListType(TypeText)
	if otherTyp.Is(NewListValue(l)) {
		t.Error("did not expect list<integer> value to satisfy list<text> type")
	}
}

func TestValueTypeTableColumnMatch(t *testing.T) {
	cols := sampleColumns()
	table := NewTableValue(NewTable(cols))
	typ := TableType(cols)
	if !typ.Is(table) {
		t.Error("expected table value to satisfy its own column schema")
	}

	otherCols := []ColumnType{{Name: "other", Type: TypeBool}}
	otherTyp := TableType(otherCols)
	if otherTyp.Is(table) {
		t.Error("did not expect table value to satisfy a different column schema")
	}
}

func TestValueTypeEqual(t *testing.T) {
	if !ListType(TypeInteger).Equal(ListType(TypeInteger)) {
		t.Error("expected identical list types to be equal")
	}
	if ListType(TypeInteger).Equal(ListType(TypeText)) {
		t.Error("did not expect list<integer> to equal list<text>")
	}
	if !DictType(TypeText, TypeInteger).Equal(DictType(TypeText, TypeInteger)) {
		t.Error("expected identical dict types to be equal")
	}
}

func TestValueTypeString(t *testing.T) {
	if got := TypeInteger.String(); got != "integer" {
		t.Errorf("expected \"integer\", got %q", got)
	}
	if got := ListType(TypeText).String(); got != "list<text>" {
		t.Errorf("expected \"list<text>\", got %q", got)
	}
}
