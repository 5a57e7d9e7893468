// Package scenario runs scripted add/remove/dispatch sequences against the
// signal registries and reports which listeners ran.
//
// A scenario is a YAML document:
//
//	name: save pipeline
//	kind: priority
//	listeners:
//	  - name: audit
//	    priority: 10
//	  - name: autosave
//	    on_call:
//	      - remove: audit
//	steps:
//	  - add: audit
//	  - add: autosave
//	  - dispatch: 1
//	    expect: [audit, autosave]
//	  - dispatch: 2
//	    expect: [autosave]
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/signals/internal/log"
)

// Kind selects the registry a scenario runs against.
type Kind string

const (
	KindRegistry Kind = "registry"
	KindPriority Kind = "priority"
)

// Scenario is a parsed scenario file.
type Scenario struct {
	Name      string         `yaml:"name"`
	Kind      Kind           `yaml:"kind"`
	Listeners []ListenerSpec `yaml:"listeners"`
	Steps     []Step         `yaml:"steps"`
}

// ListenerSpec declares a named listener. Adding it to the registry is a
// separate step; the same listener may be added several times.
type ListenerSpec struct {
	Name     string   `yaml:"name"`
	Priority int      `yaml:"priority"`
	OnCall   []Action `yaml:"on_call"`
}

// Action mutates the registry. Exactly one field is set. Panic is only
// allowed inside on_call.
type Action struct {
	Add       string `yaml:"add,omitempty"`
	Remove    string `yaml:"remove,omitempty"`
	RemoveAll bool   `yaml:"remove_all,omitempty"`
	Panic     string `yaml:"panic,omitempty"`
}

// Step is one top-level scenario operation: an Action or a dispatch.
type Step struct {
	Action      `yaml:",inline"`
	Dispatch    *int     `yaml:"dispatch,omitempty"`
	Expect      []string `yaml:"expect,omitempty"`
	ExpectPanic bool     `yaml:"expect_panic,omitempty"`
}

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid scenario")

// Op returns the step's operation name.
func (s Step) Op() string {
	if s.Dispatch != nil {
		return "dispatch"
	}
	return s.Action.op()
}

func (a Action) op() string {
	switch {
	case a.Add != "":
		return "add"
	case a.Remove != "":
		return "remove"
	case a.RemoveAll:
		return "remove_all"
	case a.Panic != "":
		return "panic"
	default:
		return ""
	}
}

func (a Action) count() int {
	n := 0
	for _, set := range []bool{a.Add != "", a.Remove != "", a.RemoveAll, a.Panic != ""} {
		if set {
			n++
		}
	}
	return n
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the user's scenario file
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Debug(log.CatScenario, "Loaded scenario", "path", path, "name", sc.Name, "steps", len(sc.Steps))
	return sc, nil
}

// Parse decodes and validates a scenario. Unknown fields are rejected.
func Parse(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("decoding scenario: %w", err)
	}
	if sc.Kind == "" {
		sc.Kind = KindRegistry
	}
	if err := Validate(&sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks a scenario for structural errors.
func Validate(sc *Scenario) error {
	switch sc.Kind {
	case KindRegistry, KindPriority:
	default:
		return fmt.Errorf("%w: kind must be %q or %q, got %q", ErrInvalid, KindRegistry, KindPriority, sc.Kind)
	}

	names := make(map[string]bool, len(sc.Listeners))
	for i, l := range sc.Listeners {
		if l.Name == "" {
			return fmt.Errorf("%w: listener %d: name is required", ErrInvalid, i)
		}
		if names[l.Name] {
			return fmt.Errorf("%w: listener %d: duplicate name %q", ErrInvalid, i, l.Name)
		}
		names[l.Name] = true
	}

	checkRef := func(where, name string) error {
		if name != "" && !names[name] {
			return fmt.Errorf("%w: %s: unknown listener %q", ErrInvalid, where, name)
		}
		return nil
	}

	for i, l := range sc.Listeners {
		for j, a := range l.OnCall {
			where := fmt.Sprintf("listener %q on_call %d", l.Name, j)
			if a.count() != 1 {
				return fmt.Errorf("%w: %s: exactly one of add, remove, remove_all, panic is required", ErrInvalid, where)
			}
			if err := checkRef(where, a.Add); err != nil {
				return err
			}
			if err := checkRef(where, a.Remove); err != nil {
				return err
			}
		}
		if sc.Kind == KindRegistry && l.Priority != 0 {
			log.Warn(log.CatScenario, "Priority ignored for unordered registry", "listener", l.Name, "index", i)
		}
	}

	for i, s := range sc.Steps {
		where := fmt.Sprintf("step %d", i)
		n := s.Action.count()
		if s.Dispatch != nil {
			n++
		}
		if n != 1 {
			return fmt.Errorf("%w: %s: exactly one of add, remove, remove_all, dispatch is required", ErrInvalid, where)
		}
		if s.Panic != "" {
			return fmt.Errorf("%w: %s: panic is only allowed in on_call", ErrInvalid, where)
		}
		if s.Dispatch == nil && (s.Expect != nil || s.ExpectPanic) {
			return fmt.Errorf("%w: %s: expect and expect_panic require dispatch", ErrInvalid, where)
		}
		if err := checkRef(where, s.Add); err != nil {
			return err
		}
		if err := checkRef(where, s.Remove); err != nil {
			return err
		}
		for _, name := range s.Expect {
			if err := checkRef(where+" expect", name); err != nil {
				return err
			}
		}
	}
	return nil
}
