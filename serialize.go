package shellz

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/zoobzio/capitan"
)

// SerializationState memoizes scopes by Identity so a scope reachable from
// multiple places is written once and referenced by index everywhere else —
// the mechanism that lets the flattened table represent a scope DAG
// (spec.md §4.7). Values are not memoized: a List, Dict or Struct reached
// twice is written twice, and one that contains itself is not handled.
type SerializationState struct {
	withID map[Identity]int
}

func newSerializationState() *SerializationState {
	return &SerializationState{withID: make(map[Identity]int)}
}

// DeserializationState mirrors SerializationState on the read side: scopes
// already reconstructed are returned from cache instead of rebuilt, which
// is what makes a cyclic scope graph (e.g. a loop scope whose `calling`
// points back to itself) reconstructible at all. env resolves
// InternalScope references back to live builtin scopes.
type DeserializationState struct {
	scopes map[int]*Scope
	env    Env
}

func newDeserializationState(env Env) *DeserializationState {
	return &DeserializationState{scopes: make(map[int]*Scope), env: env}
}

// SerializedScope is the wire form of a scope graph: the flattened element
// table plus the index of the root scope within it.
type SerializedScope struct {
	Elements []Element
	Root     int
}

// SerializeScope flattens s (and everything reachable from it — parent,
// calling, uses, and bound values) into a SerializedScope.
func SerializeScope(s *Scope) (*SerializedScope, error) {
	state := newSerializationState()
	var elements []Element
	root, err := serializeScope(s, &elements, state)
	if err != nil {
		return nil, err
	}
	capitan.Info(context.Background(), SignalScopeSerialized,
		FieldScopeID.Field(s.ID().String()),
		FieldElementCount.Field(len(elements)),
	)
	return &SerializedScope{Elements: elements, Root: root}, nil
}

// DeserializeScope reconstructs a scope graph from its flattened form.
// env resolves any InternalScope references the graph contains.
func DeserializeScope(ss *SerializedScope, env Env) (*Scope, error) {
	state := newDeserializationState(env)
	s, err := deserializeScope(ss.Root, ss.Elements, state)
	if err != nil {
		return nil, err
	}
	capitan.Info(context.Background(), SignalScopeDeserialized,
		FieldScopeID.Field(s.ID().String()),
		FieldElementCount.Field(len(ss.Elements)),
	)
	return s, nil
}

// WriteTo encodes ss onto w using encoding/gob — a flat table of plain Go
// structs is exactly what gob is built for, and nothing here needs
// cross-language interoperability (see DESIGN.md).
func (ss *SerializedScope) WriteTo(w io.Writer) error {
	return gob.NewEncoder(w).Encode(ss)
}

// ReadSerializedScope decodes a SerializedScope previously written by
// WriteTo.
func ReadSerializedScope(r io.Reader) (*SerializedScope, error) {
	var ss SerializedScope
	if err := gob.NewDecoder(r).Decode(&ss); err != nil {
		return nil, IOError(err)
	}
	return &ss, nil
}

// MarshalScope and UnmarshalScope are the byte-slice convenience wrappers
// around WriteTo/ReadSerializedScope.
func MarshalScope(s *Scope) ([]byte, error) {
	ss, err := SerializeScope(s)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := ss.WriteTo(&buf); err != nil {
		return nil, IOError(err)
	}
	return buf.Bytes(), nil
}

// UnmarshalScope is MarshalScope's inverse.
func UnmarshalScope(data []byte, env Env) (*Scope, error) {
	ss, err := ReadSerializedScope(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return DeserializeScope(ss, env)
}

func reserve(elements *[]Element) int {
	idx := len(*elements)
	*elements = append(*elements, Element{})
	return idx
}

func serializeString(s string, elements *[]Element, _ *SerializationState) int {
	idx := reserve(elements)
	(*elements)[idx] = Element{Kind: ElementString, Str: s}
	return idx
}

func deserializeString(id int, elements []Element) (string, error) {
	if id < 0 || id >= len(elements) || elements[id].Kind != ElementString {
		return "", IOError(fmt.Errorf("element %d is not a string", id))
	}
	return elements[id].Str, nil
}

// serializeScope implements scope_serializer.rs's serialize: reserve a slot
// before recursing (so a cycle back to this scope resolves to the same
// index instead of looping forever), then either record an InternalScope
// reference (when the scope has a full_path from the global root) or
// flatten it as a UserScope.
func serializeScope(s *Scope, elements *[]Element, state *SerializationState) (int, error) {
	if idx, ok := state.withID[s.ID()]; ok {
		return idx, nil
	}
	idx := reserve(elements)
	state.withID[s.ID()] = idx

	if path, err := s.FullPath(); err == nil {
		(*elements)[idx] = Element{Kind: ElementInternalScope, InternalScope: path}
		return idx, nil
	}

	data := s.Export()
	se := &ScopeElement{IsLoop: data.IsLoop, IsStopped: data.IsStopped, IsReadonly: data.IsReadonly}

	if data.Name != nil {
		se.HasName = true
		se.NameIdx = serializeString(*data.Name, elements, state)
	}
	if data.Parent != nil {
		pid, err := serializeScope(data.Parent, elements, state)
		if err != nil {
			return 0, err
		}
		se.HasParent = true
		se.ParentIdx = pid
	}
	if data.Calling != nil {
		cid, err := serializeScope(data.Calling, elements, state)
		if err != nil {
			return 0, err
		}
		se.HasCalling = true
		se.CallingIdx = cid
	}
	for _, u := range data.Uses {
		uid, err := serializeScope(u, elements, state)
		if err != nil {
			return 0, err
		}
		se.UsesIdx = append(se.UsesIdx, uid)
	}
	for _, member := range data.Mapping {
		nameIdx := serializeString(member.Name, elements, state)
		valueIdx, err := serializeValue(member.Value, elements, state)
		if err != nil {
			return 0, err
		}
		memberIdx := reserve(elements)
		(*elements)[memberIdx] = Element{Kind: ElementMember, Mem: &MemberElement{NameIdx: nameIdx, ValueIdx: valueIdx}}
		se.MembersIdx = append(se.MembersIdx, memberIdx)
	}

	(*elements)[idx] = Element{Kind: ElementUserScope, Scope: se}
	return idx, nil
}

// deserializeScope is scope_serializer.rs's deserialize: memoized by
// element index, which is what lets a cyclic UserScope (its own calling or
// a uses-cycle) come back as the exact same *Scope object at every
// reference site instead of an infinite or duplicated tree.
func deserializeScope(id int, elements []Element, state *DeserializationState) (*Scope, error) {
	if s, ok := state.scopes[id]; ok {
		return s, nil
	}
	if id < 0 || id >= len(elements) {
		return nil, IOError(fmt.Errorf("scope element index %d out of range", id))
	}
	el := elements[id]

	switch el.Kind {
	case ElementInternalScope:
		v, err := state.env.GlobalValue(el.InternalScope)
		if err != nil {
			return nil, err
		}
		s, err := v.ScopeValue()
		if err != nil {
			return nil, TypeError("internal scope reference did not resolve to a scope")
		}
		state.scopes[id] = s
		return s, nil

	case ElementUserScope:
		se := el.Scope
		name := ""
		if se.HasName {
			n, err := deserializeString(se.NameIdx, elements)
			if err != nil {
				return nil, err
			}
			name = n
		}
		// Members are restored via Redeclare below, which rejects on a
		// readonly scope — so the readonly flag is applied last, once the
		// scope is fully populated, instead of passed to NewScope up front.
		s := NewScope(name, se.IsLoop, se.IsStopped, false)
		state.scopes[id] = s

		if se.HasParent {
			parent, err := deserializeScope(se.ParentIdx, elements, state)
			if err != nil {
				return nil, err
			}
			s.SetParent(parent)
		}
		if se.HasCalling {
			calling, err := deserializeScope(se.CallingIdx, elements, state)
			if err != nil {
				return nil, err
			}
			s.SetCalling(calling)
		}
		for _, uid := range se.UsesIdx {
			u, err := deserializeScope(uid, elements, state)
			if err != nil {
				return nil, err
			}
			s.Use(u)
		}
		for _, mid := range se.MembersIdx {
			if mid < 0 || mid >= len(elements) || elements[mid].Kind != ElementMember {
				return nil, IOError(fmt.Errorf("element %d is not a scope member", mid))
			}
			mem := elements[mid].Mem
			memberName, err := deserializeString(mem.NameIdx, elements)
			if err != nil {
				return nil, err
			}
			value, err := deserializeValue(mem.ValueIdx, elements, state)
			if err != nil {
				return nil, err
			}
			if err := s.Redeclare(memberName, value); err != nil {
				return nil, err
			}
		}
		s.setReadonly(se.IsReadonly)
		return s, nil

	default:
		return nil, IOError(fmt.Errorf("element %d is not a scope", id))
	}
}

// serializeValue flattens a Value. Live, non-reconstructible variants —
// TableStream, Table, Closure, Command — are rejected: they name a running
// channel, an in-flight computation, or executable code the serializer has
// no collaborator to re-resolve, matching crush's treatment of Command as
// serialization-opaque.
func serializeValue(v Value, elements *[]Element, state *SerializationState) (int, error) {
	idx := reserve(elements)
	ve := &ValueElement{Tag: v.Tag()}

	switch v.Tag() {
	case TagEmpty:
		// no payload
	case TagText:
		ve.Text, _ = v.Text()
	case TagInteger:
		i, _ := v.Integer()
		ve.IntegerText = i.String()
	case TagFloat:
		ve.Float, _ = v.Float()
	case TagBool:
		ve.Bool, _ = v.Bool()
	case TagTime:
		t, _ := v.Time()
		ve.TimeUnixNS = t.UnixNano()
	case TagDuration:
		ve.Duration, _ = v.Duration()
	case TagField:
		ve.Field, _ = v.Field()
	case TagGlob:
		g, _ := v.GlobValue()
		ve.GlobPattern = g.Pattern
	case TagRegex:
		r, _ := v.RegexValue()
		ve.RegexSource = r.Source
	case TagFile:
		ve.File, _ = v.File()
	case TagOp:
		ve.Op, _ = v.Op()
	case TagList:
		l, _ := v.ListValue()
		et := l.ElementType()
		ve.ElementType = &et
		for _, elem := range l.Snapshot() {
			eidx, err := serializeValue(elem, elements, state)
			if err != nil {
				return 0, err
			}
			ve.ElementsIdx = append(ve.ElementsIdx, eidx)
		}
	case TagDict:
		d, _ := v.DictValue()
		kt, vt := d.KeyType(), d.ValueType()
		ve.ElementType, ve.ElementType2 = &kt, &vt
		for _, entry := range d.Snapshot() {
			kidx, err := serializeValue(entry.Key, elements, state)
			if err != nil {
				return 0, err
			}
			vidx, err := serializeValue(entry.Value, elements, state)
			if err != nil {
				return 0, err
			}
			ve.EntriesIdx = append(ve.EntriesIdx, pairIdx{A: kidx, B: vidx})
		}
	case TagStruct:
		st, _ := v.StructValue()
		if st.Parent() != nil {
			pidx, err := serializeValue(NewStructValue(st.Parent()), elements, state)
			if err != nil {
				return 0, err
			}
			ve.HasParentStruct = true
			ve.ParentStructIdx = pidx
		}
		for _, f := range st.Fields() {
			nidx := serializeString(f.Name, elements, state)
			vidx, err := serializeValue(f.Value, elements, state)
			if err != nil {
				return 0, err
			}
			ve.FieldsIdx = append(ve.FieldsIdx, pairIdx{A: nidx, B: vidx})
		}
	case TagRow:
		r, _ := v.RowValue()
		ve.Columns = r.Columns
		for _, cell := range r.Cells {
			cidx, err := serializeValue(cell, elements, state)
			if err != nil {
				return 0, err
			}
			ve.RowCellsIdx = append(ve.RowCellsIdx, cidx)
		}
	case TagScope:
		s, _ := v.ScopeValue()
		sidx, err := serializeScope(s, elements, state)
		if err != nil {
			return 0, err
		}
		ve.ScopeIdx = sidx
	default:
		return 0, GenericError(fmt.Sprintf("%s values are not serializable", v.Tag()))
	}

	(*elements)[idx] = Element{Kind: ElementValue, Val: ve}
	return idx, nil
}

func deserializeValue(id int, elements []Element, state *DeserializationState) (Value, error) {
	if id < 0 || id >= len(elements) || elements[id].Kind != ElementValue {
		return Value{}, IOError(fmt.Errorf("element %d is not a value", id))
	}
	ve := elements[id].Val

	switch ve.Tag {
	case TagEmpty:
		return Empty(), nil
	case TagText:
		return NewText(ve.Text), nil
	case TagInteger:
		i, ok := new(big.Int).SetString(ve.IntegerText, 10)
		if !ok {
			return Value{}, IOError(fmt.Errorf("malformed integer %q", ve.IntegerText))
		}
		return NewInteger(i)
	case TagFloat:
		return NewFloat(ve.Float), nil
	case TagBool:
		return NewBool(ve.Bool), nil
	case TagTime:
		return NewTime(time.Unix(0, ve.TimeUnixNS)), nil
	case TagDuration:
		return NewDuration(ve.Duration), nil
	case TagField:
		return NewField(ve.Field), nil
	case TagGlob:
		g, err := CompileGlob(ve.GlobPattern)
		if err != nil {
			return Value{}, err
		}
		return NewGlob(g), nil
	case TagRegex:
		r, err := CompileRegex(ve.RegexSource)
		if err != nil {
			return Value{}, err
		}
		return NewRegex(r), nil
	case TagFile:
		return NewFile(ve.File), nil
	case TagOp:
		return NewOp(ve.Op), nil
	case TagList:
		l := NewList(*ve.ElementType)
		for _, eidx := range ve.ElementsIdx {
			elem, err := deserializeValue(eidx, elements, state)
			if err != nil {
				return Value{}, err
			}
			if err := l.Append(elem); err != nil {
				return Value{}, err
			}
		}
		return NewListValue(l), nil
	case TagDict:
		d := NewDict(*ve.ElementType, *ve.ElementType2)
		for _, pair := range ve.EntriesIdx {
			key, err := deserializeValue(pair.A, elements, state)
			if err != nil {
				return Value{}, err
			}
			val, err := deserializeValue(pair.B, elements, state)
			if err != nil {
				return Value{}, err
			}
			if err := d.Set(key, val); err != nil {
				return Value{}, err
			}
		}
		return NewDictValue(d), nil
	case TagStruct:
		var parent *Struct
		if ve.HasParentStruct {
			pv, err := deserializeValue(ve.ParentStructIdx, elements, state)
			if err != nil {
				return Value{}, err
			}
			parent, err = pv.StructValue()
			if err != nil {
				return Value{}, err
			}
		}
		fields := make([]StructField, 0, len(ve.FieldsIdx))
		for _, pair := range ve.FieldsIdx {
			name, err := deserializeString(pair.A, elements)
			if err != nil {
				return Value{}, err
			}
			val, err := deserializeValue(pair.B, elements, state)
			if err != nil {
				return Value{}, err
			}
			fields = append(fields, StructField{Name: name, Value: val})
		}
		return NewStructValue(NewStruct(fields, parent)), nil
	case TagRow:
		cells := make([]Value, 0, len(ve.RowCellsIdx))
		for _, cidx := range ve.RowCellsIdx {
			cell, err := deserializeValue(cidx, elements, state)
			if err != nil {
				return Value{}, err
			}
			cells = append(cells, cell)
		}
		row, err := NewRow(ve.Columns, cells)
		if err != nil {
			return Value{}, err
		}
		return NewRowValue(row), nil
	case TagScope:
		s, err := deserializeScope(ve.ScopeIdx, elements, state)
		if err != nil {
			return Value{}, err
		}
		return NewScopeValue(s), nil
	default:
		return Value{}, GenericError(fmt.Sprintf("%s values are not deserializable", ve.Tag))
	}
}
