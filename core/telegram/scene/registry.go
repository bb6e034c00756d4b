package scene

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

type entry struct {
	scene Scene
	steps []Step
}

// Registry maps scene names to scenes. It is filled at startup and read afterwards.
type Registry struct {
	mu     sync.RWMutex
	scenes map[string]entry
}

func NewRegistry() *Registry {
	return &Registry{scenes: make(map[string]entry)}
}

// Register adds s. Names must be unique and scenes must have at least one step.
func (r *Registry) Register(s Scene) error {
	name := strings.TrimSpace(s.Name())
	if name == "" {
		return fmt.Errorf("scene: empty name")
	}
	steps := s.Steps()
	if len(steps) == 0 {
		return fmt.Errorf("scene: %q has no steps", name)
	}
	for i, st := range steps {
		if st == nil {
			return fmt.Errorf("scene: %q step %d is nil", name, i)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.scenes[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateScene, name)
	}
	r.scenes[name] = entry{scene: s, steps: steps}
	return nil
}

// MustRegister registers every scene and panics on the first error.
func (r *Registry) MustRegister(scenes ...Scene) {
	for _, s := range scenes {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the scene registered under name.
func (r *Registry) Lookup(name string) (Scene, bool) {
	e, ok := r.lookup(name)
	return e.scene, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.lookup(name)
	return ok
}

// Names lists registered scenes alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.scenes))
	for n := range r.scenes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) lookup(name string) (entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.scenes[name]
	return e, ok
}
