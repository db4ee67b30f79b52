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

// Status is the terminal status of a parse that did not fault.
type Status int

// Parse statuses.
const (
	StatusAccepted Status = iota
	StatusFailed
)

// String implements fmt.Stringer.
func (s Status) String() string {
	if s == StatusAccepted {
		return "accepted"
	}
	return "failed"
}

// FailReason says why error recovery gave up.
type FailReason int

// Failure reasons.
const (
	FailNone FailReason = iota
	// FailEndOfInput means a second error was found at the end of input
	// while still recovering from the first.
	FailEndOfInput
	// FailStackExhausted means no state on the stack accepts the error
	// token.
	FailStackExhausted
)

// String implements fmt.Stringer.
func (r FailReason) String() string {
	switch r {
	case FailEndOfInput:
		return "unexpected end of input"
	case FailStackExhausted:
		return "no state can recover from the error"
	}
	return "none"
}

// Result is the outcome of a parse that ran to completion.
type Result struct {
	Status Status
	// Reason is set when Status is StatusFailed.
	Reason FailReason
	// Value is the bottom value of the value stack on accept.
	Value any
	// SyntaxErrors is the number of errors reported to the observer.
	SyntaxErrors int
}

// Accepted reports whether the input was accepted.
func (r *Result) Accepted() bool {
	return r != nil && r.Status == StatusAccepted
}
