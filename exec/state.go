package exec

import (
	"go.uber.org/zap"

	"github.com/wippyai/wat-tracer/errors"

	"github.com/wippyai/wat-tracer/instr"
)

// PageSize is the linear-memory page granularity in bytes.
const PageSize = 65536

// Options configures machine behavior.
type Options struct {
	// Logger overrides the package logger for this machine.
	Logger *zap.Logger
	// MaxSteps bounds a single run. Zero means unbounded; backward
	// branches can then non-terminate.
	MaxSteps int
}

// DefaultOptions returns default machine configuration.
func DefaultOptions() Options {
	return Options{
		MaxSteps: 1 << 20,
	}
}

// Machine holds the state that outlives a single run: the function list,
// globals and memory buffers. Globals and memories persist across runs and
// reset only when a new machine is built from a recompiled module.
type Machine struct {
	funcs    *Table[*instr.Func]
	globals  *Table[Value]
	memories *Table[[]byte]
	log      *zap.Logger
	options  Options
}

// NewMachine builds a machine from a compiled module, initializing globals
// from their literals and allocating declared memories.
func NewMachine(mod *instr.Module, opts Options) *Machine {
	m := &Machine{
		funcs:    NewTable[*instr.Func](),
		globals:  NewTable[Value](),
		memories: NewTable[[]byte](),
		log:      opts.Logger,
		options:  opts,
	}
	if m.log == nil {
		m.log = Logger()
	}
	for _, f := range mod.Funcs {
		m.funcs.Define(f.Name, f)
	}
	for _, g := range mod.Globals {
		m.globals.Define(g.Name, FromLiteral(g.Type, g.Init))
	}
	for _, mem := range mod.Memories {
		m.memories.Define(mem.Name, make([]byte, int(mem.MinPages)*PageSize))
	}
	m.log.Debug("machine built",
		zap.Int("funcs", m.funcs.Len()),
		zap.Int("globals", m.globals.Len()),
		zap.Int("memories", m.memories.Len()))
	return m
}

// NewMachineWithDefaults builds a machine with default options.
func NewMachineWithDefaults(mod *instr.Module) *Machine {
	return NewMachine(mod, DefaultOptions())
}

// Global resolves a global by name or index.
func (m *Machine) Global(location string) (Value, bool) {
	return m.globals.Get(location)
}

// Memory resolves a memory buffer by name or index.
func (m *Machine) Memory(location string) ([]byte, bool) {
	return m.memories.Get(location)
}

// Stepper starts a run of the named function with the given arguments and
// returns a lazy step sequence. The stack and locals are fresh; locals are
// seeded from the arguments followed by zero-initialized declared locals.
func (m *Machine) Stepper(function string, args []Value) (*Stepper, error) {
	f, ok := m.funcs.Get(function)
	if !ok {
		return nil, errors.NotFound(errors.SpaceFunction, function)
	}
	if len(args) != len(f.Params) {
		return nil, errors.New(errors.StageExecute, errors.KindInvalidInput).
			Where(function).
			Detail("%d argument(s) for %d parameter(s)", len(args), len(f.Params)).
			Build()
	}

	locals := NewTable[Value]()
	for i, p := range f.Params {
		if args[i].Type != p.Type {
			return nil, errors.TypeMismatch(p.Type.String(), args[i].Type.String())
		}
		locals.Define(p.Name, args[i])
	}
	for _, l := range f.Locals {
		locals.Define(l.Name, Zero(l.Type))
	}

	tree, err := f.Tree()
	if err != nil {
		return nil, err
	}

	m.log.Debug("run started",
		zap.String("function", function),
		zap.Int("args", len(args)),
		zap.Int("body", len(tree.Array)))

	return &Stepper{
		frame: &frame{
			stack:   &Stack{},
			locals:  locals,
			globals: m.globals,
		},
		nav:      newNavigator(tree),
		log:      m.log,
		maxSteps: m.options.MaxSteps,
	}, nil
}

// Run executes the named function eagerly, returning the full ordered trace
// or the first error annotated with its step index and instruction text.
func (m *Machine) Run(function string, args []Value) ([]TraceEntry, error) {
	s, err := m.Stepper(function, args)
	if err != nil {
		return nil, err
	}
	trace, err := s.drain()
	if err != nil {
		m.log.Debug("run failed",
			zap.String("function", function),
			zap.Int("steps", s.Steps()),
			zap.Error(err))
		return nil, err
	}
	m.log.Debug("run finished",
		zap.String("function", function),
		zap.Int("steps", s.Steps()))
	return trace, nil
}
