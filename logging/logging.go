// Package logging defines the optional logger collaborator consumed by the
// core (spec.md §6): "a single log(text) sink plus optional structured
// hooks... Attaching a logger is optional; when absent, no text formatting
// work is performed."
package logging

import "github.com/tunnelvisionlabs/nasmjit-sub000/asm"

// Logger receives callbacks for text, instructions, labels, alignment
// directives, and comments. The Assembler (and the Compiler, through it)
// calls LogLabel, LogAlign and LogComment; it calls neither Log nor
// LogInstruction. It is a
// pure collaborator interface: the core packages only ever hold a Logger
// value, never a concrete logging library type.
type Logger interface {
	// Log is the single generic text sink.
	Log(text string)
	// LogInstruction receives one instruction's disassembly-style textual
	// form, e.g. "movq %rax, %rbx".
	LogInstruction(text string)
	// LogLabel is called when label is bound.
	LogLabel(label *asm.Label)
	// LogAlign is called when padding is emitted to reach an alignment
	// boundary.
	LogAlign(n int)
	// LogComment is called for Comment emittables (spec.md §4.4.7), which
	// carry no byte-stream effect of their own.
	LogComment(text string)
}

// Noop implements Logger by discarding everything; it is the zero-cost
// default when no logger is attached (spec.md §6).
type Noop struct{}

func (Noop) Log(string)            {}
func (Noop) LogInstruction(string) {}
func (Noop) LogLabel(*asm.Label)   {}
func (Noop) LogAlign(int)          {}
func (Noop) LogComment(string)     {}
