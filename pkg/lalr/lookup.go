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

// Lookup answers the automaton's questions about a compiled table set.
// Implementations are pure: the same arguments always give the same answer
// and no call may index outside the underlying arrays.
type Lookup interface {
	// NeedsLookahead reports whether state inspects the lookahead at all.
	// A state that does not acts on its default without reading a token.
	NeedsLookahead(state int) bool
	// Action returns the action for token in state, falling back to the
	// state's default. An unknown state yields the invalid action 0.
	Action(state, token int) int
	// ExplicitAction is like Action but reports false instead of falling
	// back to the default.
	ExplicitAction(state, token int) (int, bool)
	// Goto returns the state to enter after reducing to the nonterminal
	// with offset nt while state is on top of the stack.
	Goto(nt, state int) (int, bool)
}

var _ Lookup = (*TableSet)(nil)

// NeedsLookahead implements Lookup.
func (t *TableSet) NeedsLookahead(state int) bool {
	return state >= 0 && state < len(t.ActionPointer) && t.ActionPointer[state] != NoPointer
}

// Action implements Lookup.
func (t *TableSet) Action(state, token int) int {
	if act, ok := t.ExplicitAction(state, token); ok {
		return act
	}
	if state < 0 || state >= len(t.ActionDefault) {
		return 0
	}
	return t.ActionDefault[state]
}

// ExplicitAction implements Lookup.
func (t *TableSet) ExplicitAction(state, token int) (int, bool) {
	if state < 0 || state >= len(t.ActionPointer) {
		return 0, false
	}
	ptr := t.ActionPointer[state]
	if ptr == NoPointer {
		return 0, false
	}
	idx := ptr + token
	if idx < 0 || idx >= len(t.ActionTable) || idx >= len(t.ActionCheck) {
		return 0, false
	}
	if t.ActionCheck[idx] != state {
		return 0, false
	}
	return t.ActionTable[idx], true
}

// Goto implements Lookup.
func (t *TableSet) Goto(nt, state int) (int, bool) {
	if nt < 0 || nt >= len(t.GotoPointer) || nt >= len(t.GotoDefault) {
		return NoState, false
	}
	if ptr := t.GotoPointer[nt]; ptr != NoPointer {
		idx := ptr + state
		if idx >= 0 && idx < len(t.GotoTable) && idx < len(t.GotoCheck) && t.GotoCheck[idx] == nt {
			return t.GotoTable[idx], true
		}
	}
	if target := t.GotoDefault[nt]; target != NoState {
		return target, true
	}
	return NoState, false
}
