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

// Token is one lexical unit handed to the engine.
type Token struct {
	// Symbol is looked up in the token table. It must not be empty.
	Symbol string
	// Value is opaque to the engine and is pushed on the value stack.
	Value any
}

// TokenSource supplies lookahead tokens. It returns io.EOF once the input is
// exhausted; the engine never asks again after that.
type TokenSource interface {
	NextToken() (Token, error)
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func() (Token, error)

// NextToken implements TokenSource.
func (f TokenSourceFunc) NextToken() (Token, error) {
	return f()
}

// Reduction carries the arguments of one semantic action call.
type Reduction struct {
	// Rule is the index of the rule in the reduce table.
	Rule int
	// Action is the action id of the rule.
	Action int
	// LHS is the raw nonterminal id being produced.
	LHS int
	// Values are the popped right-hand side values, leftmost first.
	Values []any
	// Stack is the live value stack after the pop. It must not be retained.
	Stack []any
	// Result is the running result seeded from Values[0]. It is only set
	// when the table set uses the result variable form.
	Result any

	p *parse
}

// Value returns the i-th right-hand side value, or nil when out of range.
func (r *Reduction) Value(i int) any {
	if i < 0 || i >= len(r.Values) {
		return nil
	}
	return r.Values[i]
}

// ErrOK leaves error recovery mode immediately, so the next syntax error is
// reported to the observer even if fewer than three tokens were shifted.
func (r *Reduction) ErrOK() {
	if r.p != nil {
		r.p.errStatus = 0
	}
}

// Recovering reports whether the parse is still in error recovery mode.
func (r *Reduction) Recovering() bool {
	return r.p != nil && r.p.errStatus > 0
}

// ActionDispatcher computes the value of a reduction. Returning ErrRaise
// enters error recovery and returning ErrAccept accepts the input; any other
// error aborts the parse.
type ActionDispatcher interface {
	Reduce(r *Reduction) (any, error)
}

// ActionFunc adapts a function to ActionDispatcher.
type ActionFunc func(r *Reduction) (any, error)

// Reduce implements ActionDispatcher.
func (f ActionFunc) Reduce(r *Reduction) (any, error) {
	return f(r)
}

// PassThrough is an ActionDispatcher that forwards the first value of every
// reduction, or nil for empty rules.
var PassThrough ActionDispatcher = ActionFunc(func(r *Reduction) (any, error) {
	return r.Value(0), nil
})

// ErrorObserver is told about syntax errors. It is called once per error
// episode; errors found while recovering from a previous one are not
// reported. A non-nil return aborts the parse with that error.
type ErrorObserver interface {
	OnSyntaxError(e *SyntaxError) error
}

// ObserverFunc adapts a function to ErrorObserver.
type ObserverFunc func(e *SyntaxError) error

// OnSyntaxError implements ErrorObserver.
func (f ObserverFunc) OnSyntaxError(e *SyntaxError) error {
	return f(e)
}

// AbortOnError is an ErrorObserver that stops the parse at the first syntax
// error instead of recovering.
var AbortOnError ErrorObserver = ObserverFunc(func(e *SyntaxError) error {
	return ErrSyntax.GenWithStackByArgs(e.Symbol, e.State)
})
