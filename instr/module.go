package instr

import "strconv"

// parseIndex interprets numeric-looking location strings as direct indices.
func parseIndex(key string) (int, bool) {
	n, err := strconv.ParseUint(key, 10, 31)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// Func is one function's descriptor as handed over by the front-end
// compiler: its signature, extra locals, and flat instruction body. The
// block tree is derived on first use and cached.
type Func struct {
	Name    string    `json:"name"`
	Params  []Param   `json:"params,omitempty"`
	Results []ValType `json:"results,omitempty"`
	Locals  []Param   `json:"locals,omitempty"`
	Body    Body      `json:"body"`

	tree *Tree
}

// Tree returns the block arena for the function body, building it on the
// first call.
func (f *Func) Tree() (*Tree, error) {
	if f.tree != nil {
		return f.tree, nil
	}
	t, err := BuildTree(f.Body)
	if err != nil {
		return nil, err
	}
	f.tree = t
	return t, nil
}

// Global is a module-level variable declaration with its initializer.
type Global struct {
	Name    string  `json:"name"`
	Type    ValType `json:"type"`
	Mutable bool    `json:"mutable,omitempty"`
	Init    Literal `json:"init"`
}

// MemoryDecl is a named linear memory. The engine allocates the buffer but
// never executes loads or stores against it.
type MemoryDecl struct {
	Name     string `json:"name"`
	MinPages uint32 `json:"min_pages"`
}

// Module is the full compiler payload: every function plus module-level
// state declarations.
type Module struct {
	Funcs    []*Func      `json:"funcs"`
	Globals  []Global     `json:"globals,omitempty"`
	Memories []MemoryDecl `json:"memories,omitempty"`
}

// Func looks a function up by name or decimal index.
func (m *Module) Func(key string) (*Func, bool) {
	if i, ok := parseIndex(key); ok {
		if i < len(m.Funcs) {
			return m.Funcs[i], true
		}
		return nil, false
	}
	for _, f := range m.Funcs {
		if f.Name == key {
			return f, true
		}
	}
	return nil, false
}
