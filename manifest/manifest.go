// Package manifest loads action declarations from YAML and binds them to Go
// handlers.
//
//	actions:
//	  - name: search
//	    description: Search the catalogue
//	    parameters:
//	      type: object
//	      properties:
//	        query: {type: string}
//	      required: [query]
//	    orchestration:
//	      require_next: [search, summarize]
//	  - name: summarize
//	    description: Summarize the findings
//	    terminal: true
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hupe1980/actionweave/action"
	"github.com/hupe1980/actionweave/core"
	"github.com/hupe1980/actionweave/expr"
	"gopkg.in/yaml.v3"
)

// ErrMissingHandler is returned by Build when an action has no handler.
var ErrMissingHandler = errors.New("missing handler")

// Manifest is a set of action declarations.
type Manifest struct {
	// Instructions is an optional system prompt for the actions.
	Instructions string       `yaml:"instructions,omitempty"`
	Actions      []ActionSpec `yaml:"actions"`
}

// ActionSpec declares one action.
type ActionSpec struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Scope       string         `yaml:"scope,omitempty"`
	Terminal    bool           `yaml:"terminal,omitempty"`
	Parameters  map[string]any `yaml:"parameters,omitempty"`
	// Handler names the Go handler; defaults to Name.
	Handler       string     `yaml:"handler,omitempty"`
	Orchestration *expr.Spec `yaml:"orchestration,omitempty"`
}

// HandlerName returns the key used to look up the handler.
func (s ActionSpec) HandlerName() string {
	if s.Handler != "" {
		return s.Handler
	}

	return s.Name
}

// Parse decodes a manifest from YAML.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Load reads and parses one manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", path, err)
	}

	return m, nil
}

// LoadDir loads every .yaml and .yml file of dir, in file name order, into one
// manifest. Instructions of later files are appended.
func LoadDir(dir string) (*Manifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read manifest dir %q: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		names = append(names, entry.Name())
	}

	sort.Strings(names)

	out := &Manifest{}
	for _, name := range names {
		m, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}

		if m.Instructions != "" {
			if out.Instructions != "" {
				out.Instructions += "\n\n"
			}
			out.Instructions += m.Instructions
		}

		out.Actions = append(out.Actions, m.Actions...)
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}

	return out, nil
}

// Validate checks the declarations without binding handlers: names and
// descriptions are present and names are unique.
func (m *Manifest) Validate() error {
	seen := make(map[string]struct{}, len(m.Actions))

	for i, a := range m.Actions {
		if a.Name == "" {
			return fmt.Errorf("action #%d: name must not be empty", i)
		}

		if a.Description == "" {
			return fmt.Errorf("action %q: description must not be empty", a.Name)
		}

		if _, ok := seen[a.Name]; ok {
			return fmt.Errorf("%w: %s", core.ErrDuplicateAction, a.Name)
		}

		seen[a.Name] = struct{}{}
	}

	return nil
}

// BuildOptions configures Build.
type BuildOptions struct {
	// AllowMissingHandlers builds actions without a handler; calling one fails
	// with an execution error. Useful for validating and rendering manifests.
	AllowMissingHandlers bool
}

// Build creates a registry from the manifest, binding each action to
// handlers[HandlerName()].
func (m *Manifest) Build(handlers map[string]action.Func, optFns ...func(o *BuildOptions)) (*action.Registry, error) {
	opts := BuildOptions{}

	for _, fn := range optFns {
		fn(&opts)
	}

	actions := make([]*action.Action, 0, len(m.Actions))

	for _, spec := range m.Actions {
		fn, ok := handlers[spec.HandlerName()]
		if !ok && !opts.AllowMissingHandlers {
			return nil, fmt.Errorf("%w: action %s (handler %q)", ErrMissingHandler, spec.Name, spec.HandlerName())
		}

		a, err := action.New(spec.Name, spec.Description, spec.Parameters, fn, func(o *action.Options) {
			o.Scope = spec.Scope
			o.Terminal = spec.Terminal

			if spec.Orchestration != nil {
				o.Orchestration = spec.Orchestration.Element
			}
		})
		if err != nil {
			return nil, err
		}

		actions = append(actions, a)
	}

	return action.NewRegistry(actions...)
}
