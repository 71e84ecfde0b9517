package shellz

import (
	"context"
	"strings"
	"sync"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
)

// Scope is a node in the lexical symbol table: an optional name, an
// optional lexical parent, an optional dynamic calling scope, an ordered
// list of imported "uses" scopes, an ordered name→Value mapping, and three
// flags (spec.md §3). Scopes are shared by reference; Scope itself carries
// a stable Identity so the serializer can memoize by identity instead of by
// Go pointer (pointers don't survive a round trip through disk).
//
// Scope is internally synchronized: declares and redeclares serialize
// against each other, while lookups take a read lock and see a consistent
// snapshot of the mapping (spec.md §5).
type Scope struct {
	id Identity

	mu      sync.RWMutex
	name    *string
	parent  *Scope
	calling *Scope
	uses    []*Scope
	order   []string
	mapping map[string]Value

	isLoop     bool
	isStopped  bool
	isReadonly bool
	isRoot     bool

	hooks *hookz.Hooks[ScopeEvent]
}

// ScopeEvent is published through Scope.Hooks for embedders (a REPL, a
// debugger) that want to react to scope mutation without polling.
type ScopeEvent struct {
	ScopeID Identity
	Name    string
}

// NewGlobalScope creates the root of the builtin namespace tree. Only
// scopes reachable from a global root by a named chain can compute a
// FullPath, which is what lets the serializer treat them as
// InternalScope references instead of inlining them (spec.md §4.7).
func NewGlobalScope() *Scope {
	s := NewScope("", false, false, false)
	s.isRoot = true
	return s
}

// NewScope creates a Scope node (spec.md §4.2 `create`). name is optional;
// pass "" for none.
func NewScope(name string, isLoop, isStopped, isReadonly bool) *Scope {
	s := &Scope{
		id:         NewIdentity(),
		mapping:    make(map[string]Value),
		isLoop:     isLoop,
		isStopped:  isStopped,
		isReadonly: isReadonly,
		hooks:      hookz.New[ScopeEvent](),
	}
	if name != "" {
		s.name = &name
	}
	capitan.Info(context.Background(), SignalScopeCreated,
		FieldScopeID.Field(s.id.String()),
		FieldName.Field(name),
		FieldReadonly.Field(boolString(isReadonly)),
		FieldLoop.Field(boolString(isLoop)),
		FieldTimestamp.Field(float64(clockz.RealClock.Now().Unix())),
	)
	return s
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// ID returns this scope's stable identity.
func (s *Scope) ID() Identity { return s.id }

// Hooks exposes this scope's hookz.Hooks so embedders can subscribe to
// ScopeEvent without depending on capitan directly.
func (s *Scope) Hooks() *hookz.Hooks[ScopeEvent] { return s.hooks }

// Name returns the scope's optional name.
func (s *Scope) Name() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.name == nil {
		return "", false
	}
	return *s.name, true
}

// SetParent sets (or clears) the lexical parent.
func (s *Scope) SetParent(parent *Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parent = parent
}

// SetCalling sets (or clears) the dynamic calling scope.
func (s *Scope) SetCalling(calling *Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calling = calling
}

// Use appends other to this scope's uses list, if it isn't already present.
func (s *Scope) Use(other *Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.uses {
		if u == other {
			return
		}
	}
	s.uses = append(s.uses, other)
}

// Declare binds name to value in this scope, failing if name is already
// bound locally.
func (s *Scope) Declare(name string, value Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.mapping[name]; exists {
		return ArgumentErrorf("variable %q already declared in this scope", name)
	}
	s.mapping[name] = value
	s.order = append(s.order, name)
	s.emitLocked(SignalScopeDeclared, name)
	return nil
}

// Redeclare overwrites name's binding (declaring it if absent), failing if
// the scope is readonly.
func (s *Scope) Redeclare(name string, value Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isReadonly {
		return ArgumentErrorf("cannot redeclare %q: scope is readonly", name)
	}
	if _, exists := s.mapping[name]; !exists {
		s.order = append(s.order, name)
	}
	s.mapping[name] = value
	s.emitLocked(SignalScopeRedeclared, name)
	return nil
}

// emitLocked emits a signal and fires the scope hook. Callers must hold
// s.mu (read or write) — capitan/hookz dispatch is safe to call while
// locked since neither reenters the scope.
func (s *Scope) emitLocked(signal capitan.Signal, name string) {
	parentID := ""
	if s.parent != nil {
		parentID = s.parent.id.String()
	}
	capitan.Info(context.Background(), signal,
		FieldScopeID.Field(s.id.String()),
		FieldName.Field(name),
		FieldParentID.Field(parentID),
		FieldTimestamp.Field(float64(clockz.RealClock.Now().Unix())),
	)
	s.hooks.Emit(context.Background(), hookz.Key(signal), ScopeEvent{ScopeID: s.id, Name: name}) //nolint:errcheck // best-effort notification
}

// lookupLocal resolves name against this scope only: its own mapping, then
// each of its uses (in order). It does not walk the lexical parent — that
// is Get's job, so Get can stop at the first scope in the chain that
// resolves the leading path component.
func (s *Scope) lookupLocal(name string) (Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.mapping[name]; ok {
		return v, true
	}
	for _, u := range s.uses {
		if v, ok := u.lookupLocal(name); ok {
			return v, true
		}
	}
	return Value{}, false
}

// resolveOne resolves a single name: local mapping → each uses (in order)
// → parent (spec.md §4.2 `get`'s lookup order).
func (s *Scope) resolveOne(name string) (Value, bool) {
	if v, ok := s.lookupLocal(name); ok {
		return v, true
	}
	s.mu.RLock()
	parent := s.parent
	s.mu.RUnlock()
	if parent != nil {
		return parent.resolveOne(name)
	}
	return Value{}, false
}

// GetStr resolves a single, one-level name (spec.md §4.2 `get_str`).
func (s *Scope) GetStr(name string) (Value, bool) {
	return s.resolveOne(name)
}

// Get walks a dotted path: the leading component resolves via the normal
// lookup order; each subsequent component is resolved the same way, but
// against the Scope that the previous component's Value must itself be
// (spec.md §4.2 `get`). A path with zero components never matches.
func (s *Scope) Get(path []string) (Value, bool) {
	if len(path) == 0 {
		return Value{}, false
	}
	v, ok := s.resolveOne(path[0])
	if !ok {
		return Value{}, false
	}
	cur := v
	for _, component := range path[1:] {
		scope, err := cur.ScopeValue()
		if err != nil {
			return Value{}, false
		}
		next, ok := scope.resolveOne(component)
		if !ok {
			return Value{}, false
		}
		cur = next
	}
	return cur, true
}

// FullPath succeeds only for scopes reachable from the global root by a
// unique named chain, used to identify builtin scopes for serialization
// (spec.md §4.2, §4.7).
func (s *Scope) FullPath() ([]string, error) {
	var reversed []string
	cur := s
	for {
		cur.mu.RLock()
		isRoot := cur.isRoot
		cur.mu.RUnlock()
		if isRoot {
			break
		}
		name, ok := cur.Name()
		if !ok {
			return nil, GenericError("scope is not reachable from the global root by a named chain")
		}
		reversed = append(reversed, name)
		cur.mu.RLock()
		parent := cur.parent
		cur.mu.RUnlock()
		if parent == nil {
			return nil, GenericError("scope is not reachable from the global root")
		}
		cur = parent
	}
	path := make([]string, len(reversed))
	for i, n := range reversed {
		path[len(reversed)-1-i] = n
	}
	return path, nil
}

// IsLoop, IsStopped, IsReadonly expose the scope's flags.
func (s *Scope) IsLoop() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isLoop
}

func (s *Scope) IsStopped() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isStopped
}

func (s *Scope) IsReadonly() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isReadonly
}

// setReadonly sets the readonly flag directly, bypassing Redeclare's own
// readonly check. Used by the scope deserializer to apply a readonly
// scope's flag only after its members have been restored.
func (s *Scope) setReadonly(readonly bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isReadonly = readonly
}

// Stop marks this scope as stopped, signaling that a break/return has
// propagated and further statements must be skipped by the executor. The
// transition is monotonic from false to true (spec.md §4.2); calling Stop
// again is a no-op.
func (s *Scope) Stop() {
	s.mu.Lock()
	if s.isStopped {
		s.mu.Unlock()
		return
	}
	s.isStopped = true
	s.mu.Unlock()
	capitan.Info(context.Background(), SignalScopeStopped,
		FieldScopeID.Field(s.id.String()),
		FieldTimestamp.Field(float64(clockz.RealClock.Now().Unix())),
	)
}

// ScopeData is a snapshot of a scope's name, parent, calling, uses, mapping
// and flags (spec.md §4.2 `export`), used by the serializer.
type ScopeData struct {
	Name       *string
	Parent     *Scope
	Calling    *Scope
	Uses       []*Scope
	Mapping    []ScopeMember
	IsLoop     bool
	IsStopped  bool
	IsReadonly bool
}

// ScopeMember is one name→Value pair from a ScopeData snapshot, in
// declaration order.
type ScopeMember struct {
	Name  string
	Value Value
}

// Export takes a point-in-time snapshot of the scope's state.
func (s *Scope) Export() ScopeData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mapping := make([]ScopeMember, 0, len(s.order))
	for _, name := range s.order {
		mapping = append(mapping, ScopeMember{Name: name, Value: s.mapping[name]})
	}
	uses := make([]*Scope, len(s.uses))
	copy(uses, s.uses)
	var name *string
	if s.name != nil {
		n := *s.name
		name = &n
	}
	return ScopeData{
		Name:       name,
		Parent:     s.parent,
		Calling:    s.calling,
		Uses:       uses,
		Mapping:    mapping,
		IsLoop:     s.isLoop,
		IsStopped:  s.isStopped,
		IsReadonly: s.isReadonly,
	}
}

// GlobalValue resolves path from the global namespace, for Env's
// global_value contract and for InternalScope deserialization (spec.md §6,
// §4.7). A Scope implements Env by treating itself as that global root. An
// empty path names the root itself, matching the empty FullPath a global
// root reports.
func (s *Scope) GlobalValue(path []string) (Value, error) {
	if len(path) == 0 {
		return NewScopeValue(s), nil
	}
	v, ok := s.Get(path)
	return Mandate(v, ok, "unknown variable "+strings.Join(path, "."))
}
