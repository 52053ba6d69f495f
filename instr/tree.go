package instr

import (
	"fmt"

	"github.com/wippyai/wat-tracer/errors"
)

// NodeKind classifies a block node in the arena.
type NodeKind uint8

const (
	NodeTopLevel NodeKind = iota
	NodeBlock
	NodeLoop
	NodeConditional
)

var nodeKindNames = []string{"toplevel", "block", "loop", "conditional"}

func (k NodeKind) String() string { return enumName(nodeKindNames, uint8(k)) }

// BlockNode is one node of the block arena. Nodes reference each other by
// integer index into Tree.Blocks, never by pointer.
//
// Start is the flat-array index of the opening instruction (0 for the top
// level), End the index of the closing end marker (array length for the top
// level). ElseStart is only meaningful on conditionals: the index of the
// first instruction of the else arm, or End when the conditional has no
// else. Children maps the flat-array index at which control enters a child
// onto that child's arena index.
type BlockNode struct {
	Kind      NodeKind
	Label     string
	Depth     int
	Start     int
	End       int
	ElseStart int
	Parent    int
	Children  map[int]int
}

// Tree pairs the flat instruction array with the block arena. Blocks[0] is
// always the top-level node spanning the whole array.
type Tree struct {
	Array  []Instruction
	Blocks []BlockNode
}

// Root returns the top-level block node.
func (t *Tree) Root() *BlockNode { return &t.Blocks[0] }

// BuildTree derives the block arena from a flat instruction slice. Block,
// loop and if markers open nodes; end markers close the innermost open one.
// One trailing top-level end (the function's own) is tolerated and ignored,
// matching what front ends emit when they keep it.
func BuildTree(array []Instruction) (*Tree, error) {
	t := &Tree{
		Array: array,
		Blocks: []BlockNode{{
			Kind:      NodeTopLevel,
			Start:     0,
			End:       len(array),
			ElseStart: -1,
			Parent:    -1,
			Children:  map[int]int{},
		}},
	}

	open := []int{0}
	funcEnded := false

	for i, in := range array {
		bs, ok := in.(*BlockStart)
		if !ok {
			continue
		}
		cur := open[len(open)-1]

		switch bs.Kind {
		case KindBlock, KindLoop, KindIf:
			kind := NodeBlock
			switch bs.Kind {
			case KindLoop:
				kind = NodeLoop
			case KindIf:
				kind = NodeConditional
			}
			idx := len(t.Blocks)
			t.Blocks = append(t.Blocks, BlockNode{
				Kind:      kind,
				Label:     bs.Label,
				Depth:     t.Blocks[cur].Depth + 1,
				Start:     i,
				End:       -1,
				ElseStart: -1,
				Parent:    cur,
				Children:  map[int]int{},
			})
			t.Blocks[cur].Children[i] = idx
			open = append(open, idx)

		case KindElse:
			if t.Blocks[cur].Kind != NodeConditional {
				return nil, errors.InvalidStructure(
					fmt.Sprintf("else at index %d outside a conditional block", i))
			}
			if t.Blocks[cur].ElseStart != -1 {
				return nil, errors.InvalidStructure(
					fmt.Sprintf("duplicate else at index %d", i))
			}
			t.Blocks[cur].ElseStart = i + 1

		case KindEnd:
			if cur == 0 {
				if funcEnded {
					return nil, errors.InvalidStructure(
						fmt.Sprintf("unbalanced end at index %d", i))
				}
				funcEnded = true
				continue
			}
			t.Blocks[cur].End = i
			if t.Blocks[cur].Kind == NodeConditional && t.Blocks[cur].ElseStart == -1 {
				// An if without an else skips straight to its end marker.
				t.Blocks[cur].ElseStart = i
			}
			open = open[:len(open)-1]
		}
	}

	if len(open) > 1 {
		n := &t.Blocks[open[len(open)-1]]
		return nil, errors.InvalidStructure(
			fmt.Sprintf("unclosed %s opened at index %d", n.Kind, n.Start))
	}
	return t, nil
}
