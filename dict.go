package shellz

import (
	"fmt"
	"sort"
	"sync"
)

// Dict is a shared, mutable mapping Value→Value. Key and value type are
// fixed at creation (spec.md §3). Entries preserve insertion order so
// iteration and serialization are deterministic.
type Dict struct {
	id        Identity
	keyType   ValueType
	valueType ValueType
	mu        sync.RWMutex
	order     []string
	keys      map[string]Value
	values    map[string]Value
}

// NewDict creates an empty Dict typed Dict(keyType, valueType).
func NewDict(keyType, valueType ValueType) *Dict {
	return &Dict{
		id:        NewIdentity(),
		keyType:   keyType,
		valueType: valueType,
		keys:      map[string]Value{},
		values:    map[string]Value{},
	}
}

// ID returns this dict's stable identity.
func (d *Dict) ID() Identity { return d.id }

// KeyType and ValueType return the fixed key/value types.
func (d *Dict) KeyType() ValueType   { return d.keyType }
func (d *Dict) ValueType() ValueType { return d.valueType }

// dictKey computes a canonical, comparable string for a scalar Value so it
// can be used as a Go map key. Composite values (List, Dict, Struct, and
// other non-hashable variants) cannot be dict keys.
func dictKey(v Value) (string, error) {
	switch v.tag {
	case TagText, TagFile, TagOp:
		return fmt.Sprintf("%d:%v", v.tag, v.data), nil
	case TagInteger:
		i, _ := v.Integer()
		return fmt.Sprintf("%d:%s", v.tag, i.String()), nil
	case TagFloat:
		f, _ := v.Float()
		return fmt.Sprintf("%d:%g", v.tag, f), nil
	case TagBool:
		b, _ := v.Bool()
		return fmt.Sprintf("%d:%v", v.tag, b), nil
	case TagTime:
		t, _ := v.Time()
		return fmt.Sprintf("%d:%d", v.tag, t.UnixNano()), nil
	case TagDuration:
		dur, _ := v.Duration()
		return fmt.Sprintf("%d:%d", v.tag, dur), nil
	case TagField:
		f, _ := v.Field()
		return fmt.Sprintf("%d:%v", v.tag, f), nil
	default:
		return "", TypeErrorf("%s cannot be used as a dict key", v.tag)
	}
}

// Set inserts or overwrites the value bound to k, failing if k or v don't
// satisfy this dict's key/value types.
func (d *Dict) Set(k, v Value) error {
	if !d.keyType.Is(k) {
		return TypeErrorf("dict key %s does not match key type %s", k.Type(), d.keyType)
	}
	if !d.valueType.Is(v) {
		return TypeErrorf("dict value %s does not match value type %s", v.Type(), d.valueType)
	}
	key, err := dictKey(k)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.values[key]; !exists {
		d.order = append(d.order, key)
	}
	d.keys[key] = k
	d.values[key] = v
	return nil
}

// Get returns the value bound to k (spec.md §4.5 Subscript table:
// Dict[Value] — missing is an error, per "mandate(dict.get(&c), ...)").
func (d *Dict) Get(k Value) (Value, error) {
	key, err := dictKey(k)
	if err != nil {
		return Value{}, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.values[key]
	return Mandate(v, ok, "invalid subscript")
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.order)
}

// DictEntry is one key/value pair from a Dict snapshot.
type DictEntry struct {
	Key   Value
	Value Value
}

// Snapshot returns entries in insertion order, safe to iterate without
// holding the dict's lock.
func (d *Dict) Snapshot() []DictEntry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]DictEntry, 0, len(d.order))
	for _, key := range d.order {
		out = append(out, DictEntry{Key: d.keys[key], Value: d.values[key]})
	}
	return out
}

// SortedSnapshot returns entries sorted by their canonical key string. It
// exists for deterministic tests and display; Snapshot (insertion order) is
// what the serializer uses.
func (d *Dict) SortedSnapshot() []DictEntry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	keys := make([]string, len(d.order))
	copy(keys, d.order)
	sort.Strings(keys)
	out := make([]DictEntry, 0, len(keys))
	for _, key := range keys {
		out = append(out, DictEntry{Key: d.keys[key], Value: d.values[key]})
	}
	return out
}
