// Package exec replays one function body at a time against an explicit
// value stack, producing an ordered trace of per-instruction snapshots for
// step-by-step visualization.
//
// The engine is deliberately partial: it executes the numeric, variable and
// structured control-flow subset of the instruction set and reports
// everything else (calls, memory access, branch tables) as explicit
// unimplemented errors. Control flow is replayed by index navigation over
// the flat instruction array using the block arena built by the instr
// package; there is no recursion over block structure.
//
// A Machine holds the state that outlives a run (globals, memories, the
// function list). Each run gets a fresh stack and locals table. Traces can
// be produced eagerly with Machine.Run or pulled one step at a time through
// a Stepper; both yield identical entries in identical order.
package exec
