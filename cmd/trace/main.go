package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/wat-tracer/exec"
	"github.com/wippyai/wat-tracer/instr"
)

func main() {
	var (
		inputFile   = flag.String("input", "", "Path to compiled module JSON (omit for the built-in sample)")
		funcName    = flag.String("func", "", "Function to trace (optional)")
		argList     = flag.String("args", "", "Arguments (comma-separated)")
		maxSteps    = flag.Int("steps", 0, "Step budget per run (0 = default)")
		list        = flag.Bool("list", false, "List functions and exit")
		asJSON      = flag.Bool("json", false, "Emit the trace as JSON")
		debug       = flag.Bool("debug", false, "Enable debug logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *debug {
		log, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer log.Sync()
		exec.SetLogger(log)
	}

	mod, source, err := loadModule(*inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(mod, source, *maxSteps); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(mod, source, *funcName, *argList, *maxSteps, *list, *asJSON); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadModule(path string) (*instr.Module, string, error) {
	if path == "" {
		return sampleModule(), "built-in sample", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read file: %w", err)
	}
	var mod instr.Module
	if err := json.Unmarshal(data, &mod); err != nil {
		return nil, "", fmt.Errorf("decode module: %w", err)
	}
	return &mod, path, nil
}

func run(mod *instr.Module, source, funcName, argList string, maxSteps int, listOnly, asJSON bool) error {
	fmt.Printf("Module: %s\n", source)
	fmt.Printf("Functions: %d\n", len(mod.Funcs))

	fmt.Printf("\nFunctions:\n")
	for _, f := range mod.Funcs {
		fmt.Printf("  %s\n", formatSignature(f))
	}
	if listOnly {
		return nil
	}

	if funcName == "" {
		if len(mod.Funcs) != 1 {
			fmt.Printf("\nNo function specified. Use -func to pick one.\n")
			return nil
		}
		funcName = mod.Funcs[0].Name
	}

	f, ok := mod.Func(funcName)
	if !ok {
		return fmt.Errorf("no function named %q", funcName)
	}
	args, err := parseArgs(argList, f.Params)
	if err != nil {
		return err
	}

	opts := exec.DefaultOptions()
	if maxSteps > 0 {
		opts.MaxSteps = maxSteps
	}
	machine := exec.NewMachine(mod, opts)

	fmt.Printf("\nTracing %s...\n\n", funcName)
	trace, err := machine.Run(funcName, args)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(trace)
	}

	for i, e := range trace {
		fmt.Printf("%3d  %-40s stack %s\n", i, e.Result.Action, formatStack(e.After))
	}
	fmt.Printf("\n%d step(s).\n", len(trace))
	return nil
}

// parseArgs reads one literal per parameter, typed by the signature.
func parseArgs(argList string, params []instr.Param) ([]exec.Value, error) {
	var fields []string
	if argList != "" {
		fields = strings.Split(argList, ",")
	}
	if len(fields) != len(params) {
		return nil, fmt.Errorf("%d argument(s) for %d parameter(s)", len(fields), len(params))
	}

	args := make([]exec.Value, len(fields))
	for i, raw := range fields {
		v, err := parseValue(strings.TrimSpace(raw), params[i].Type)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		args[i] = v
	}
	return args, nil
}

func parseValue(raw string, t instr.ValType) (exec.Value, error) {
	switch t {
	case instr.I32:
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return exec.Value{}, err
		}
		return exec.I32Value(int32(n)), nil
	case instr.I64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return exec.Value{}, err
		}
		return exec.I64Value(n), nil
	case instr.F32:
		n, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return exec.Value{}, err
		}
		return exec.F32Value(float32(n)), nil
	case instr.F64:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return exec.Value{}, err
		}
		return exec.F64Value(n), nil
	}
	return exec.Value{}, fmt.Errorf("unsupported parameter type %s", t)
}

func formatSignature(f *instr.Func) string {
	var params []string
	for _, p := range f.Params {
		name := p.Name
		if name == "" {
			name = "_"
		}
		params = append(params, name+": "+p.Type.String())
	}
	s := f.Name + "(" + strings.Join(params, ", ") + ")"
	if len(f.Results) > 0 {
		var results []string
		for _, r := range f.Results {
			results = append(results, r.String())
		}
		s += " -> " + strings.Join(results, ", ")
	}
	return s
}

func formatStack(stack []exec.Value) string {
	parts := make([]string, len(stack))
	for i, v := range stack {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// sampleModule is the demo payload used when no input file is given: a
// square-of-sum function and a loop-based countdown.
func sampleModule() *instr.Module {
	return &instr.Module{
		Funcs: []*instr.Func{
			{
				Name: "sumsq",
				Params: []instr.Param{
					{Name: "a", Type: instr.I32},
					{Name: "b", Type: instr.I32},
				},
				Results: []instr.ValType{instr.I32},
				Locals:  []instr.Param{{Name: "s", Type: instr.I32}},
				Body: instr.Body{
					&instr.Data{Op: instr.LocalGet, Location: "a"},
					&instr.Data{Op: instr.LocalGet, Location: "b"},
					&instr.Arithmetic{Op: instr.Add, Type: instr.I32},
					&instr.Data{Op: instr.LocalTee, Location: "s"},
					&instr.Data{Op: instr.LocalGet, Location: "s"},
					&instr.Arithmetic{Op: instr.Mul, Type: instr.I32},
				},
			},
			{
				Name:    "countdown",
				Params:  []instr.Param{{Name: "n", Type: instr.I32}},
				Results: []instr.ValType{instr.I32},
				Body: instr.Body{
					&instr.BlockStart{Kind: instr.KindLoop, Label: "top"},
					&instr.Data{Op: instr.LocalGet, Location: "n"},
					instr.ConstI32(1),
					&instr.Arithmetic{Op: instr.Sub, Type: instr.I32},
					&instr.Data{Op: instr.LocalTee, Location: "n"},
					&instr.Branch{Default: "top", Conditional: true},
					&instr.BlockStart{Kind: instr.KindEnd},
					&instr.Data{Op: instr.LocalGet, Location: "n"},
				},
			},
		},
	}
}
