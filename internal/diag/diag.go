// Package diag implements the error taxonomy and batching policy of
// spec.md section 7: parse errors are fatal and singular, semantic errors
// are batched and counted, codegen errors are fatal at first occurrence.
//
// The panic/recover style mirrors the teacher's gql/panic.go (Panicf +
// Recover): a phase panics with a *Diagnostic on the first/any error, and
// the phase driver recovers at its boundary, matching spec.md section 5's
// "phases either return a result or throw a phase-specific error carrying
// an accumulated failure count".
package diag

import (
	"fmt"
	"runtime/debug"

	"github.com/grailbio/base/errors"
)

// Category classifies a diagnostic, per spec.md section 7's taxonomy.
type Category int

const (
	Parse Category = iota
	UnresolvedName
	DuplicateDefinition
	TypeMismatch
	OverloadAmbiguity
	ShadowingError
	ImmutabilityViolation
	InvalidTypeExpression
	ReservedName
	Codegen
	Unimplemented
	Internal
)

func (c Category) String() string {
	switch c {
	case Parse:
		return "parse error"
	case UnresolvedName:
		return "unresolved name"
	case DuplicateDefinition:
		return "duplicate definition"
	case TypeMismatch:
		return "type mismatch"
	case OverloadAmbiguity:
		return "overload ambiguity"
	case ShadowingError:
		return "shadowing"
	case ImmutabilityViolation:
		return "immutability violation"
	case InvalidTypeExpression:
		return "invalid type expression"
	case ReservedName:
		return "reserved name"
	case Codegen:
		return "codegen error"
	case Unimplemented:
		return "unimplemented"
	default:
		return "internal error"
	}
}

// Severity distinguishes a fatal diagnostic from a warning (spec.md
// section 4.2's shadowing warning is the only Warning-severity case).
type Severity int

const (
	SevError Severity = iota
	SevWarning
)

// Diagnostic is one user-visible error or warning.
type Diagnostic struct {
	Category Category
	Severity Severity
	Pos      string // rendered token.Position; kept as a string to avoid an import cycle with internal/token
	Message  string
	Excerpt  string // offending source line, for the caret-pointer rendering spec.md section 7 requires
	CaretCol int
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s: %s", d.Pos, d.Category, d.Message)
}

// New builds a Diagnostic.
func New(cat Category, pos string, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Category: cat, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// Warning builds a warning-severity Diagnostic (shadowing, spec.md section
// 4.2: "Shadowing of a local by an inner local emits a warning").
func Warning(cat Category, pos string, format string, args ...interface{}) *Diagnostic {
	d := New(cat, pos, format, args...)
	d.Severity = SevWarning
	return d
}

// SemanticCheckError is thrown by the forward analyzer and the
// semantic/type analyzer when their accumulated failure count is nonzero,
// per spec.md section 4.2/4.3/7: "any non-zero count terminates with a
// semantic error naming the phase".
type SemanticCheckError struct {
	Count int
	Phase string
}

func (e *SemanticCheckError) Error() string {
	return fmt.Sprintf("semantic_check_error{%d, %q}", e.Count, e.Phase)
}

// Bag accumulates diagnostics across one phase's walk, implementing the
// "batched" semantic-error propagation of spec.md section 7: the analyzer
// keeps going after each error and reports all of them together.
type Bag struct {
	Diagnostics []*Diagnostic
	failures    int
}

// Add records a diagnostic. Errors count toward the failure total;
// warnings do not.
func (b *Bag) Add(d *Diagnostic) {
	b.Diagnostics = append(b.Diagnostics, d)
	if d.Severity == SevError {
		b.failures++
	}
}

// Errorf records a new error-severity diagnostic.
func (b *Bag) Errorf(cat Category, pos string, format string, args ...interface{}) {
	b.Add(New(cat, pos, format, args...))
}

// Warnf records a new warning-severity diagnostic.
func (b *Bag) Warnf(cat Category, pos string, format string, args ...interface{}) {
	b.Add(Warning(cat, pos, format, args...))
}

// FailureCount returns the number of error-severity diagnostics recorded.
func (b *Bag) FailureCount() int { return b.failures }

// CheckPhase returns a *SemanticCheckError if any error-severity diagnostic
// was recorded, else nil.
func (b *Bag) CheckPhase(phase string) error {
	if b.failures == 0 {
		return nil
	}
	return &SemanticCheckError{Count: b.failures, Phase: phase}
}

// panicValue wraps a Diagnostic so Recover can distinguish an intentional
// phase abort from a genuine programming-error panic, which is returned
// as a generic "internal error" error instead of being swallowed.
type panicValue struct{ d *Diagnostic }

// Panic aborts the current phase with a fatal diagnostic. Used for
// codegen errors (spec.md section 7: "Codegen errors are fatal at first
// occurrence") and for parse errors, both of which stop the pipeline
// immediately rather than batching.
func Panic(d *Diagnostic) {
	panic(panicValue{d})
}

// Panicf is a convenience wrapper around Panic, mirroring the teacher's
// gql/panic.go Panicf helper.
func Panicf(cat Category, pos string, format string, args ...interface{}) {
	Panic(New(cat, pos, format, args...))
}

// Recover runs cb, catching any Diagnostic raised via Panic/Panicf and
// returning it as an error. A panic that is not a wrapped Diagnostic is
// turned into a plain errors.E error ("internal error: ...") carrying a
// stack trace, not a *Diagnostic, rather than being silently absorbed.
func Recover(cb func()) (err error) {
	defer func() {
		if e := recover(); e != nil {
			if pv, ok := e.(panicValue); ok {
				err = pv.d
				return
			}
			err = errors.E(fmt.Sprintf("internal error: %v\n%s", e, debug.Stack()))
		}
	}()
	cb()
	return nil
}
