// Package instr defines the instruction data model consumed by the
// execution engine: the tagged instruction variants produced by the
// front-end compiler, the numeric literal encoding, and the block-node
// arena describing a function body's nested control structure over a flat
// instruction array.
//
// Everything in this package is immutable once produced; the engine in
// package exec only reads it.
package instr
