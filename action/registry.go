package action

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/actionweave/core"
)

// Registry maps action names to actions, preserving registration order.
// It is safe for concurrent use. The zero value is an empty registry ready
// to use.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]*Action
	order   []string
}

// NewRegistry creates a registry from actions, rejecting duplicate names.
func NewRegistry(actions ...*Action) (*Registry, error) {
	r := &Registry{actions: map[string]*Action{}}
	for _, a := range actions {
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// FromActions creates a registry from actions. A later action replaces an
// earlier one of the same name.
func FromActions(actions ...*Action) *Registry {
	r := &Registry{actions: map[string]*Action{}}
	for _, a := range actions {
		r.Put(a)
	}

	return r
}

// Merge combines registries into a new one. Later registries win on name
// collisions; the first registration position of a name is kept.
func Merge(registries ...*Registry) *Registry {
	merged := &Registry{actions: map[string]*Action{}}
	for _, r := range registries {
		if r == nil {
			continue
		}
		for _, a := range r.Actions() {
			merged.Put(a)
		}
	}

	return merged
}

// Compose builds a registry from a bulk list overlaid with an explicit
// name→action mapping. Mapping entries are registered under their key (in
// key order), so an action can be exposed under an alias. An entry whose key
// differs from the action's own name loses its orchestration expression;
// declare sequencing on the alias itself if it is needed.
func Compose(bulk []*Action, mapping map[string]*Action) *Registry {
	r := FromActions(bulk...)

	keys := make([]string, 0, len(mapping))
	for k := range mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if a := mapping[k]; a != nil {
			r.Put(a.WithName(k))
		}
	}

	return r
}

// Register adds an action. A second action with the same name fails with
// core.ErrDuplicateAction.
func (r *Registry) Register(a *Action) error {
	if a == nil {
		return fmt.Errorf("register: nil action")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.init()

	if _, exists := r.actions[a.name]; exists {
		return fmt.Errorf("%w: %s", core.ErrDuplicateAction, a.name)
	}

	r.actions[a.name] = a
	r.order = append(r.order, a.name)

	return nil
}

// Put adds or replaces an action.
func (r *Registry) Put(a *Action) {
	if a == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.init()

	if _, exists := r.actions[a.name]; !exists {
		r.order = append(r.order, a.name)
	}

	r.actions[a.name] = a
}

// init allocates the map of a zero-value registry. Callers hold mu.
func (r *Registry) init() {
	if r.actions == nil {
		r.actions = map[string]*Action{}
	}
}

// Get returns the named action or core.ErrUnknownAction.
func (r *Registry) Get(name string) (*Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.actions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownAction, name)
	}

	return a, nil
}

// Contains reports whether name is registered.
func (r *Registry) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.actions[name]

	return ok
}

// Len returns the number of actions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

// Names returns action names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}

// Actions returns actions in registration order.
func (r *Registry) Actions() []*Action {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Action, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.actions[n])
	}

	return out
}

// Scope returns the actions of one scope in registration order.
func (r *Registry) Scope(scope string) []*Action {
	var out []*Action
	for _, a := range r.Actions() {
		if a.scope == scope {
			out = append(out, a)
		}
	}

	return out
}

// Scopes returns the distinct scopes in order of first appearance.
func (r *Registry) Scopes() []string {
	seen := map[string]bool{}

	var out []string
	for _, a := range r.Actions() {
		if !seen[a.scope] {
			seen[a.scope] = true
			out = append(out, a.scope)
		}
	}

	return out
}

// Bind returns a snapshot registry with every action bound to receiver.
func (r *Registry) Bind(receiver any) *Registry {
	bound := &Registry{actions: map[string]*Action{}}
	for _, a := range r.Actions() {
		bound.Put(a.Bind(receiver))
	}

	return bound
}
