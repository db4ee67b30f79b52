// Copyright 2024 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package lalr

import (
	"fmt"

	"github.com/pingcap/errors"
	"github.com/pingcap/racc/pkg/terror"
)

const (
	codeEngineBug terror.ErrCode = iota + 1
	codeStackInvariant
	codeMissingGoto
	codeUnknownAction
)

const (
	codeMalformedTable terror.ErrCode = iota + 1
)

const (
	codeTokenContract terror.ErrCode = iota + 1
)

const (
	codeSyntax terror.ErrCode = iota + 1
)

// error definitions.
var (
	// ErrEngineBug means the automaton reached a state it can never reach with
	// consistent tables.
	ErrEngineBug = terror.ClassEngine.New(codeEngineBug, "lalr engine bug: %s")
	// ErrStackInvariant is reported when the value stack and state stack
	// lengths disagree.
	ErrStackInvariant = terror.ClassEngine.New(codeStackInvariant, "lalr engine bug: stack invariant violated, %d states and %d values")
	// ErrMissingGoto is reported when neither the goto table nor the goto
	// default has a target.
	ErrMissingGoto = terror.ClassEngine.New(codeMissingGoto, "lalr engine bug: no goto for nonterminal %d from state %d")
	// ErrUnknownAction is reported for an action code outside every valid range.
	ErrUnknownAction = terror.ClassEngine.New(codeUnknownAction, "lalr engine bug: unknown action %d in state %d")
	// ErrMalformedTable is returned when a table set fails shape validation.
	ErrMalformedTable = terror.ClassTable.New(codeMalformedTable, "malformed table set: %s")
	// ErrTokenContract is returned when the token supply breaks its contract.
	ErrTokenContract = terror.ClassToken.New(codeTokenContract, "token source contract violation: %s")
	// ErrSyntax is returned by AbortOnError for the first syntax error.
	ErrSyntax = terror.ClassSyntax.New(codeSyntax, "syntax error on %s in state %d")
)

// ErrRaise can be returned by a semantic action to enter error recovery
// without notifying the error observer.
var ErrRaise = errors.New("lalr: syntax error raised by action")

// ErrAccept can be returned by a semantic action to accept the input
// immediately with the bottom value of the value stack.
var ErrAccept = errors.New("lalr: input accepted by action")

// IsEngineBug reports whether err is a fault caused by inconsistent tables or
// an internal invariant violation, as opposed to a host or input problem.
func IsEngineBug(err error) bool {
	return terror.ClassEngine.EqualClass(err) || terror.ClassTable.EqualClass(err)
}

// SyntaxError describes a lookahead the automaton has no action for.
type SyntaxError struct {
	// Token is the internal id of the offending lookahead.
	Token int
	// Symbol is the display name of Token.
	Symbol string
	// Value is the semantic value of the lookahead.
	Value any
	// State is the state the error was detected in.
	State int
	// Stack is the live value stack. It must not be retained.
	Stack []any
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("syntax error on %s in state %d", e.Symbol, e.State)
	}
	return fmt.Sprintf("syntax error on %s (%v) in state %d", e.Symbol, e.Value, e.State)
}
