package ir

import (
	"fmt"
	"strconv"
)

// TypeRegistry ensures type deduplication.
// Structurally identical types share one handle so that printed and
// compared modules stay canonical.
type TypeRegistry struct {
	types   []Type
	typeMap map[string]TypeHandle
	keyBuf  []byte // reusable buffer for building type keys
}

// NewTypeRegistry creates a new type registry for deduplication.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		types:   make([]Type, 0, 8),
		typeMap: make(map[string]TypeHandle, 8),
		keyBuf:  make([]byte, 0, 32),
	}
}

// NewTypeRegistryFrom seeds a registry with the types already in module,
// keeping their handles.
func NewTypeRegistryFrom(module *Module) *TypeRegistry {
	r := NewTypeRegistry()
	for _, t := range module.Types {
		key := r.normalizeType(t.Inner)
		if _, exists := r.typeMap[key]; !exists {
			r.typeMap[key] = TypeHandle(len(r.types))
		}
		r.types = append(r.types, t)
	}
	return r
}

// GetOrCreate returns an existing handle for the type if it exists,
// or creates a new one if it's unique.
func (r *TypeRegistry) GetOrCreate(name string, inner TypeInner) TypeHandle {
	key := r.normalizeType(inner)

	if handle, exists := r.typeMap[key]; exists {
		return handle
	}

	handle := TypeHandle(len(r.types))
	r.types = append(r.types, Type{
		Name:  name,
		Inner: inner,
	})
	r.typeMap[key] = handle

	return handle
}

// GetTypes returns all registered types.
func (r *TypeRegistry) GetTypes() []Type {
	return r.types
}

// normalizeType creates a unique key for a type based on its structure.
func (r *TypeRegistry) normalizeType(inner TypeInner) string {
	b := r.keyBuf[:0]

	switch t := inner.(type) {
	case ScalarType:
		b = append(b, "scalar:"...)
		b = strconv.AppendInt(b, int64(t.Kind), 10)
		b = append(b, ':')
		b = strconv.AppendUint(b, uint64(t.Width), 10)
		r.keyBuf = b
		return string(b)

	case PointerType:
		b = append(b, "ptr:"...)
		b = strconv.AppendUint(b, uint64(t.Space), 10)
		r.keyBuf = b
		return string(b)

	default:
		return fmt.Sprintf("unknown:%T", inner)
	}
}

// Lookup finds a type by its handle.
func (r *TypeRegistry) Lookup(handle TypeHandle) (Type, bool) {
	if int(handle) >= len(r.types) {
		return Type{}, false
	}
	return r.types[handle], true
}

// Count returns the number of unique types registered.
func (r *TypeRegistry) Count() int {
	return len(r.types)
}

// SymbolTable indexes the functions of a module by name.
// All insertions must go through the table to keep the index current.
type SymbolTable struct {
	module *Module
	index  map[string]*Function
}

// NewSymbolTable builds a symbol table over module.
// When a name is defined twice the first definition wins; Validate
// reports the duplicate.
func NewSymbolTable(module *Module) *SymbolTable {
	s := &SymbolTable{
		module: module,
		index:  make(map[string]*Function, len(module.Functions)),
	}
	for _, fn := range module.Functions {
		if _, exists := s.index[fn.Name]; !exists {
			s.index[fn.Name] = fn
		}
	}
	return s
}

// Lookup returns the function named name, or nil.
func (s *SymbolTable) Lookup(name string) *Function {
	return s.index[name]
}

// Len returns the number of distinct symbols.
func (s *SymbolTable) Len() int {
	return len(s.index)
}

// InsertAtStart inserts fn as the first function of the module.
func (s *SymbolTable) InsertAtStart(fn *Function) error {
	if fn.Name == "" {
		return fmt.Errorf("cannot insert unnamed function")
	}
	if _, exists := s.index[fn.Name]; exists {
		return fmt.Errorf("symbol %q already defined", fn.Name)
	}
	s.module.Functions = append([]*Function{fn}, s.module.Functions...)
	s.index[fn.Name] = fn
	return nil
}

// GetOrCreate returns the function named name if present. Otherwise it calls
// create, inserts the result at the start of the module and returns it.
// The boolean reports whether a function was created.
func (s *SymbolTable) GetOrCreate(name string, create func() *Function) (*Function, bool, error) {
	if fn := s.index[name]; fn != nil {
		return fn, false, nil
	}
	fn := create()
	if fn.Name != name {
		return nil, false, fmt.Errorf("created function %q does not match symbol %q", fn.Name, name)
	}
	if err := s.InsertAtStart(fn); err != nil {
		return nil, false, err
	}
	return fn, true, nil
}
