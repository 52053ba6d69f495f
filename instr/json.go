package instr

import (
	"encoding/json"
	"fmt"

	"github.com/wippyai/wat-tracer/errors"
)

// Body is a flat instruction sequence. It owns the JSON encoding of the
// tagged instruction union: every instruction serializes as an envelope
// object with a "kind" discriminator, mirroring how the front-end compiler
// emits its payload.
type Body []Instruction

type envelope struct {
	Kind        string     `json:"kind"`
	Op          string     `json:"op,omitempty"`
	Block       string     `json:"block,omitempty"`
	Label       string     `json:"label,omitempty"`
	Sig         *Signature `json:"sig,omitempty"`
	Default     string     `json:"default,omitempty"`
	Table       []string   `json:"table,omitempty"`
	Conditional bool       `json:"conditional,omitempty"`
	Target      string     `json:"target,omitempty"`
	Location    string     `json:"location,omitempty"`
	Type        string     `json:"type,omitempty"`
	Width       int        `json:"width,omitempty"`
	Offset      uint32     `json:"offset,omitempty"`
	Align       int        `json:"align,omitempty"`
	Store       bool       `json:"store,omitempty"`
	Lo          uint32     `json:"lo"`
	Hi          uint32     `json:"hi,omitempty"`
	Wide        bool       `json:"wide,omitempty"`
	Text        string     `json:"text,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (b Body) MarshalJSON() ([]byte, error) {
	envs := make([]envelope, len(b))
	for i, in := range b {
		env, err := encodeInstruction(in)
		if err != nil {
			return nil, err
		}
		envs[i] = env
	}
	return json.Marshal(envs)
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Body) UnmarshalJSON(data []byte) error {
	var envs []envelope
	if err := json.Unmarshal(data, &envs); err != nil {
		return errors.Wrap(errors.StageDecode, errors.KindInvalidInput, err, "instruction list")
	}
	out := make(Body, len(envs))
	for i, env := range envs {
		in, err := decodeInstruction(env)
		if err != nil {
			return errors.Wrap(errors.StageDecode, errors.KindInvalidInput, err,
				fmt.Sprintf("instruction %d", i))
		}
		out[i] = in
	}
	*b = out
	return nil
}

func encodeInstruction(in Instruction) (envelope, error) {
	switch v := in.(type) {
	case *Simple:
		return envelope{Kind: "simple", Op: v.Op.String()}, nil
	case *BlockStart:
		return envelope{Kind: "block", Block: v.Kind.String(), Label: v.Label, Sig: v.Sig}, nil
	case *Branch:
		return envelope{Kind: "branch", Default: v.Default, Table: v.Table, Conditional: v.Conditional}, nil
	case *Call:
		return envelope{Kind: "call", Target: v.Target, Sig: &v.Sig}, nil
	case *Data:
		return envelope{Kind: "data", Op: v.Op.String(), Location: v.Location}, nil
	case *MemoryAccess:
		return envelope{
			Kind: "memory", Location: v.Location, Type: v.Type.String(),
			Width: v.Width.Bits(), Offset: v.Offset, Align: v.Align.Bits(), Store: v.Store,
		}, nil
	case *Const:
		return envelope{Kind: "const", Type: v.Type.String(), Lo: v.Value.Lo, Hi: v.Value.Hi}, nil
	case *Comparison:
		return envelope{Kind: "compare", Op: v.Op.String(), Type: v.Type.String()}, nil
	case *Arithmetic:
		return envelope{Kind: "arithmetic", Op: v.Op.String(), Type: v.Type.String()}, nil
	case *Bitwise:
		return envelope{Kind: "bitwise", Op: v.Op.String(), Wide: v.Wide}, nil
	case *Float:
		return envelope{Kind: "float", Op: v.Op.String(), Wide: v.Wide}, nil
	case *Conversion:
		return envelope{Kind: "convert", Op: v.Op.String()}, nil
	case *Unknown:
		return envelope{Kind: "unknown", Text: v.Text}, nil
	default:
		return envelope{}, fmt.Errorf("unencodable instruction %T", in)
	}
}

func decodeInstruction(env envelope) (Instruction, error) {
	switch env.Kind {
	case "simple":
		op, err := parseEnum(simpleNames, env.Op)
		if err != nil {
			return nil, err
		}
		return &Simple{Op: SimpleOp(op)}, nil
	case "block":
		k, err := parseEnum(blockKindNames, env.Block)
		if err != nil {
			return nil, err
		}
		return &BlockStart{Kind: BlockKind(k), Label: env.Label, Sig: env.Sig}, nil
	case "branch":
		return &Branch{Default: env.Default, Table: env.Table, Conditional: env.Conditional}, nil
	case "call":
		c := &Call{Target: env.Target}
		if env.Sig != nil {
			c.Sig = *env.Sig
		}
		return c, nil
	case "data":
		op, err := parseEnum(dataOpNames, env.Op)
		if err != nil {
			return nil, err
		}
		return &Data{Op: DataOp(op), Location: env.Location}, nil
	case "memory":
		t, err := ParseValType(env.Type)
		if err != nil {
			return nil, err
		}
		return &MemoryAccess{
			Location: env.Location, Type: t,
			Width: WidthFromBits(env.Width), Offset: env.Offset,
			Align: WidthFromBits(env.Align), Store: env.Store,
		}, nil
	case "const":
		t, err := ParseValType(env.Type)
		if err != nil {
			return nil, err
		}
		return &Const{Type: t, Value: Literal{Lo: env.Lo, Hi: env.Hi}}, nil
	case "compare":
		op, err := parseEnum(comparisonNames, env.Op)
		if err != nil {
			return nil, err
		}
		t, err := ParseValType(env.Type)
		if err != nil {
			return nil, err
		}
		return &Comparison{Op: ComparisonOp(op), Type: t}, nil
	case "arithmetic":
		op, err := parseEnum(arithmeticNames, env.Op)
		if err != nil {
			return nil, err
		}
		t, err := ParseValType(env.Type)
		if err != nil {
			return nil, err
		}
		return &Arithmetic{Op: ArithmeticOp(op), Type: t}, nil
	case "bitwise":
		op, err := parseEnum(bitwiseNames, env.Op)
		if err != nil {
			return nil, err
		}
		return &Bitwise{Op: BitwiseOp(op), Wide: env.Wide}, nil
	case "float":
		op, err := parseEnum(floatNames, env.Op)
		if err != nil {
			return nil, err
		}
		return &Float{Op: FloatOp(op), Wide: env.Wide}, nil
	case "convert":
		op, err := parseEnum(conversionNames, env.Op)
		if err != nil {
			return nil, err
		}
		return &Conversion{Op: ConversionOp(op)}, nil
	case "unknown":
		return &Unknown{Text: env.Text}, nil
	default:
		return nil, fmt.Errorf("unknown instruction kind %q", env.Kind)
	}
}

func parseEnum(names []string, s string) (uint8, error) {
	for i, n := range names {
		if n == s {
			return uint8(i), nil
		}
	}
	return 0, fmt.Errorf("unknown operation %q", s)
}

// ParseValType parses a textual type tag.
func ParseValType(s string) (ValType, error) {
	v, err := parseEnum(valTypeNames, s)
	if err != nil {
		return 0, err
	}
	return ValType(v), nil
}

// MarshalJSON implements json.Marshaler.
func (t ValType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *ValType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseValType(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}
