package exec

import (
	"strconv"

	"github.com/wippyai/wat-tracer/errors"

	"github.com/wippyai/wat-tracer/instr"
)

// navigator owns the array cursor and the current block, both plain
// integers so a stepper can be suspended and resumed without touching the
// call stack. Block references are arena indices into tree.Blocks.
type navigator struct {
	tree     *instr.Tree
	cursor   int
	current  int
	returned bool
}

func newNavigator(tree *instr.Tree) *navigator {
	return &navigator{tree: tree}
}

// sync ascends out of every block whose end the cursor has reached, then
// descends into a child the cursor enters, and returns the instruction index
// to execute. A negative index means the run is over.
func (n *navigator) sync() int {
	if n.returned || n.cursor >= len(n.tree.Array) {
		return -1
	}
	for n.current != 0 && n.cursor == n.tree.Blocks[n.current].End {
		n.current = n.tree.Blocks[n.current].Parent
	}
	if child, ok := n.tree.Blocks[n.current].Children[n.cursor]; ok {
		n.current = child
	}
	return n.cursor
}

// apply consumes a continuation directive and moves the cursor.
func (n *navigator) apply(c Continuation) error {
	switch c.Kind {
	case ContNone:
		n.cursor++
		return nil

	case ContReturn:
		n.returned = true
		return nil

	case ContElse:
		cur := &n.tree.Blocks[n.current]
		if cur.Kind != instr.NodeConditional {
			return errors.Unimplemented("else continuation outside a conditional block")
		}
		n.cursor = cur.ElseStart
		return nil

	case ContEnd:
		cur := &n.tree.Blocks[n.current]
		if cur.Kind != instr.NodeConditional {
			return errors.Unimplemented("end continuation outside a conditional block")
		}
		n.cursor = cur.End
		return nil

	case ContBranch:
		target, err := n.resolve(c.Label)
		if err != nil {
			return err
		}
		n.current = target
		if n.tree.Blocks[target].Kind == instr.NodeLoop {
			n.cursor = n.tree.Blocks[target].Start
		} else {
			n.cursor = n.tree.Blocks[target].End
		}
		return nil
	}
	return errors.Unreachable("continuation " + c.Kind.String())
}

// resolve turns a branch label into an arena index. A numeric label ascends
// that many levels from the current block; a symbolic one ascends until an
// enclosing block carries it.
func (n *navigator) resolve(label string) (int, error) {
	if levels, err := strconv.ParseUint(label, 10, 31); err == nil {
		target := n.current
		for i := uint64(0); i < levels; i++ {
			if target == 0 {
				return 0, errors.NameResolution(label)
			}
			target = n.tree.Blocks[target].Parent
		}
		return target, nil
	}

	for target := n.current; target != 0; target = n.tree.Blocks[target].Parent {
		if n.tree.Blocks[target].Label == label {
			return target, nil
		}
	}
	return 0, errors.NameResolution(label)
}
