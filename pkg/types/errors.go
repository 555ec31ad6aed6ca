package types

import (
	"fmt"
	"strings"
)

// Error tag constants for the engine's error taxonomy.
const (
	TagLexicalError           = "LexicalError"
	TagParseError             = "ParseError"
	TagDefinitionError        = "DefinitionError"
	TagArityError             = "ArityError"
	TagUnknownIdentifierError = "UnknownIdentifierError"
	TagDivisionError          = "DivisionError"
	TagSingularMatrixError    = "SingularMatrixError"
	TagConvergenceError       = "ConvergenceError"
)

// MathError is a tagged engine error. Tags identify the error kind so
// callers can branch without string-matching messages.
type MathError struct {
	Message string
	Tags    []string
}

// Error implements the error interface.
func (e *MathError) Error() string {
	return fmt.Sprintf("%s [%s]", e.Message, strings.Join(e.Tags, ", "))
}

// HasTag returns true if the error carries the specified tag.
func (e *MathError) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Common error constructors.

// NewLexicalError creates a LexicalError for an unrecognized character.
func NewLexicalError(msg string) *MathError {
	return &MathError{Message: msg, Tags: []string{TagLexicalError}}
}

// NewParseError creates a ParseError for malformed grammar.
func NewParseError(msg string) *MathError {
	return &MathError{Message: msg, Tags: []string{TagParseError}}
}

// NewDefinitionError creates a DefinitionError (e.g. duplicate function name).
func NewDefinitionError(msg string) *MathError {
	return &MathError{Message: msg, Tags: []string{TagDefinitionError}}
}

// NewArityError creates an ArityError for a wrong argument count.
func NewArityError(msg string) *MathError {
	return &MathError{Message: msg, Tags: []string{TagArityError}}
}

// NewUnknownIdentifierError creates an UnknownIdentifierError.
func NewUnknownIdentifierError(msg string) *MathError {
	return &MathError{Message: msg, Tags: []string{TagUnknownIdentifierError}}
}

// NewDivisionError creates a DivisionError for an explicit divide-by-zero.
func NewDivisionError(msg string) *MathError {
	return &MathError{Message: msg, Tags: []string{TagDivisionError}}
}

// NewSingularMatrixError creates a SingularMatrixError.
func NewSingularMatrixError(msg string) *MathError {
	return &MathError{Message: msg, Tags: []string{TagSingularMatrixError}}
}

// NewConvergenceError creates a ConvergenceError for an iteration ceiling hit.
func NewConvergenceError(msg string) *MathError {
	return &MathError{Message: msg, Tags: []string{TagConvergenceError}}
}
