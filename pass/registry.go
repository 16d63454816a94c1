package pass

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// Factory creates a configured pass.
type Factory func(opts Options) Pass

// Info describes a registered pass.
type Info struct {
	Name        string
	Description string
	factory     Factory
}

// New creates the pass with opts.
func (i Info) New(opts Options) Pass {
	return i.factory(opts)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Info)
)

// Register makes a pass available by name.
// It panics if the name is empty, taken, or factory is nil.
func Register(name, description string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if name == "" || factory == nil {
		panic("pass: Register with empty name or nil factory")
	}
	if _, dup := registry[name]; dup {
		panic("pass: Register called twice for " + name)
	}
	registry[name] = Info{Name: name, Description: description, factory: factory}
}

// Lookup returns the registered pass named name.
func Lookup(name string) (Info, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	info, ok := registry[name]
	return info, ok
}

// Names returns the registered pass names, sorted.
func Names() []string {
	registryMu.RLock()
	names := lo.Keys(registry)
	registryMu.RUnlock()

	slices.Sort(names)
	return names
}

// Registered returns all registered passes sorted by name.
func Registered() []Info {
	registryMu.RLock()
	infos := lo.Values(registry)
	registryMu.RUnlock()

	slices.SortFunc(infos, func(a, b Info) int { return strings.Compare(a.Name, b.Name) })
	return infos
}

// ParsePipeline builds the passes of a comma-separated pipeline such as
// "a,b". Blank entries are ignored; an empty pipeline is an error.
func ParsePipeline(pipeline string, opts Options) ([]Pass, error) {
	names := lo.Compact(lo.Map(strings.Split(pipeline, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
	if len(names) == 0 {
		return nil, &Error{Kind: ErrInvalidPipeline, Err: fmt.Errorf("empty pipeline %q", pipeline)}
	}

	passes := make([]Pass, 0, len(names))
	for _, name := range names {
		info, ok := Lookup(name)
		if !ok {
			return nil, &Error{
				Pass: name,
				Kind: ErrUnknownPass,
				Err:  fmt.Errorf("registered passes: %s", strings.Join(Names(), ", ")),
			}
		}
		passes = append(passes, info.New(opts))
	}
	return passes, nil
}
