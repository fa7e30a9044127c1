package rql

import (
	"errors"
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
)

// SyntaxError reports a malformed query. Position is the 1-based character
// offset into the query string; Expected is a short human hint ("value
// after ':'", "closing ')'", ...) taken from the underlying parser error.
type SyntaxError struct {
	Position int
	Expected string
	Query    string
}

func (e *SyntaxError) Error() string {
	if e.Expected != "" {
		return fmt.Sprintf("syntax error at position %d: expected %s", e.Position, e.Expected)
	}
	return fmt.Sprintf("syntax error at position %d", e.Position)
}

// positioned is satisfied by participle's own parse-error type without this
// package needing to name it explicitly.
type positioned interface {
	error
	Position() lexer.Position
}

func newSyntaxError(query string, err error) *SyntaxError {
	se := &SyntaxError{Query: query, Expected: err.Error()}
	var pe positioned
	if errors.As(err, &pe) {
		se.Position = pe.Position().Offset + 1
		return se
	}
	se.Position = len(query) + 1
	return se
}
