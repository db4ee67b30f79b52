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
	"math"
	"sort"
	"strconv"

	"github.com/pingcap/errors"
	"go.uber.org/multierr"
)

// Reserved token ids.
const (
	// EOFToken is the id of the end-of-input token.
	EOFToken = 0
	// ErrorToken is the id of the error token. External symbols that are
	// not in the token table are mapped to it as well, so an unknown symbol
	// surfaces as a syntax error handled by recovery rather than as a fault.
	// This can hide a lexer that emits symbols the grammar never declared;
	// Parser.Parse logs each such symbol at debug level.
	ErrorToken = 1
)

const (
	// NoPointer marks a state or nonterminal without a row in the packed
	// table. Lookups for it always fall back to the default.
	NoPointer = math.MinInt32
	// NoState marks a hole in a check array and an absent goto default.
	NoState = -1
	// NoAction marks a rule without a semantic action. Reducing by it
	// forwards the first popped value.
	NoAction = -1
)

// Rule is one production of the grammar as the engine sees it.
type Rule struct {
	// Length is the number of right-hand side symbols.
	Length int `toml:"length" json:"length" yaml:"length"`
	// LHS is the raw nonterminal id of the left-hand side.
	LHS int `toml:"lhs" json:"lhs" yaml:"lhs"`
	// Action is the id handed to the ActionDispatcher, or NoAction.
	Action int `toml:"action" json:"action" yaml:"action"`
	// Name is an optional display form such as "expr : expr '+' expr".
	Name string `toml:"name,omitempty" json:"name,omitempty" yaml:"name,omitempty"`
}

// TableSet is a compiled LALR(1) automaton in pointer/check compressed form.
// It is never modified by the engine and may be shared by any number of
// concurrent parses.
type TableSet struct {
	ActionTable   []int `toml:"action-table" json:"action_table" yaml:"action_table"`
	ActionCheck   []int `toml:"action-check" json:"action_check" yaml:"action_check"`
	ActionDefault []int `toml:"action-default" json:"action_default" yaml:"action_default"`
	ActionPointer []int `toml:"action-pointer" json:"action_pointer" yaml:"action_pointer"`

	GotoTable   []int `toml:"goto-table" json:"goto_table" yaml:"goto_table"`
	GotoCheck   []int `toml:"goto-check" json:"goto_check" yaml:"goto_check"`
	GotoDefault []int `toml:"goto-default" json:"goto_default" yaml:"goto_default"`
	GotoPointer []int `toml:"goto-pointer" json:"goto_pointer" yaml:"goto_pointer"`

	// NTBase is the id of the first nonterminal. Ids below it are terminals.
	NTBase int `toml:"nt-base" json:"nt_base" yaml:"nt_base"`
	// ReduceTable holds one entry per rule. Entry 0 is reserved.
	ReduceTable []Rule `toml:"reduce-table" json:"reduce_table" yaml:"reduce_table"`
	// TokenTable maps external token symbols to internal ids.
	TokenTable map[string]int `toml:"token-table" json:"token_table" yaml:"token_table"`
	// ShiftCount is the number of states. It is also the accept action.
	ShiftCount int `toml:"shift-count" json:"shift_count" yaml:"shift_count"`
	// ReduceCount is the number of rules. Its negation is the error action.
	ReduceCount int `toml:"reduce-count" json:"reduce_count" yaml:"reduce_count"`
	// UseResultVar selects the action form that receives a running result.
	UseResultVar bool `toml:"use-result-var" json:"use_result_var" yaml:"use_result_var"`
	// SymbolNames optionally names symbols by id for traces and messages.
	SymbolNames []string `toml:"symbol-names,omitempty" json:"symbol_names,omitempty" yaml:"symbol_names,omitempty"`
}

// NumStates returns the number of automaton states.
func (t *TableSet) NumStates() int {
	return t.ShiftCount
}

// NumNonterminals returns the number of nonterminals with goto entries.
func (t *TableSet) NumNonterminals() int {
	return len(t.GotoPointer)
}

// AcceptAction returns the action code that accepts the input.
func (t *TableSet) AcceptAction() int {
	return t.ShiftCount
}

// ErrorAction returns the action code that signals a syntax error.
func (t *TableSet) ErrorAction() int {
	return -t.ReduceCount
}

// IsShift reports whether act shifts to another state.
func (t *TableSet) IsShift(act int) bool {
	return act > 0 && act < t.ShiftCount
}

// IsReduce reports whether act reduces by a rule.
func (t *TableSet) IsReduce(act int) bool {
	return act < 0 && act > -t.ReduceCount
}

func (t *TableSet) validAction(act int) bool {
	return (act > 0 && act <= t.ShiftCount) || (act < 0 && act >= -t.ReduceCount)
}

// SymbolName returns a display name for a symbol id.
func (t *TableSet) SymbolName(id int) string {
	if id >= 0 && id < len(t.SymbolNames) && t.SymbolNames[id] != "" {
		return t.SymbolNames[id]
	}
	switch id {
	case EOFToken:
		return "$end"
	case ErrorToken:
		return "error"
	}
	if id < t.NTBase {
		for sym, tok := range t.TokenTable {
			if tok == id {
				return strconv.Quote(sym)
			}
		}
	}
	return "#" + strconv.Itoa(id)
}

// SymbolNameTable returns display names for every terminal and nonterminal.
func (t *TableSet) SymbolNameTable() []string {
	names := make([]string, t.NTBase+t.NumNonterminals())
	byID := make(map[int]string, len(t.TokenTable))
	for sym, id := range t.TokenTable {
		if prev, ok := byID[id]; !ok || sym < prev {
			byID[id] = sym
		}
	}
	for id := range names {
		switch {
		case id < len(t.SymbolNames) && t.SymbolNames[id] != "":
			names[id] = t.SymbolNames[id]
		case id == EOFToken:
			names[id] = "$end"
		case id == ErrorToken:
			names[id] = "error"
		case byID[id] != "":
			names[id] = strconv.Quote(byID[id])
		default:
			names[id] = "#" + strconv.Itoa(id)
		}
	}
	return names
}

// Validate checks the shape of the table set so that no lookup made by the
// engine can index outside an array. All problems are reported together.
func (t *TableSet) Validate() error {
	var errs error
	add := func(format string, args ...any) {
		errs = multierr.Append(errs, errors.Errorf(format, args...))
	}

	nstates := t.ShiftCount
	if nstates <= 0 {
		add("shift count %d must be positive", nstates)
	}
	if t.ReduceCount <= 0 {
		add("reduce count %d must be positive", t.ReduceCount)
	}
	if t.NTBase <= ErrorToken {
		add("nonterminal base %d leaves no room for the end and error tokens", t.NTBase)
	}
	if len(t.ActionTable) != len(t.ActionCheck) {
		add("action table has %d entries but action check has %d", len(t.ActionTable), len(t.ActionCheck))
	}
	if len(t.ActionPointer) != nstates || len(t.ActionDefault) != nstates {
		add("expected %d action pointers and defaults, got %d and %d", nstates, len(t.ActionPointer), len(t.ActionDefault))
	}
	if len(t.GotoTable) != len(t.GotoCheck) {
		add("goto table has %d entries but goto check has %d", len(t.GotoTable), len(t.GotoCheck))
	}
	if len(t.GotoPointer) != len(t.GotoDefault) {
		add("goto pointer has %d entries but goto default has %d", len(t.GotoPointer), len(t.GotoDefault))
	}
	if len(t.ReduceTable) != t.ReduceCount {
		add("reduce table has %d rules but reduce count is %d", len(t.ReduceTable), t.ReduceCount)
	}
	if errs != nil {
		return ErrMalformedTable.GenWithStackByArgs(errs.Error())
	}

	for state, ptr := range t.ActionPointer {
		if ptr == NoPointer {
			continue
		}
		if ptr >= len(t.ActionTable) || ptr+t.NTBase-1 < 0 {
			add("action pointer %d of state %d lies outside the action table of length %d", ptr, state, len(t.ActionTable))
		}
	}
	for state, act := range t.ActionDefault {
		if !t.validAction(act) {
			add("default action %d of state %d is not a valid action", act, state)
		}
	}
	for i, state := range t.ActionCheck {
		if state == NoState {
			continue
		}
		if state < 0 || state >= nstates {
			add("action check %d names unknown state %d", i, state)
			continue
		}
		ptr := t.ActionPointer[state]
		if ptr == NoPointer {
			add("action entry %d belongs to state %d which has no pointer", i, state)
			continue
		}
		if tok := i - ptr; tok < 0 || tok >= t.NTBase {
			add("action entry %d maps state %d to non-terminal id %d", i, state, tok)
		}
		if !t.validAction(t.ActionTable[i]) {
			add("action entry %d holds invalid action %d", i, t.ActionTable[i])
		}
	}

	nnt := t.NumNonterminals()
	for nt, ptr := range t.GotoPointer {
		if ptr == NoPointer {
			continue
		}
		if ptr >= len(t.GotoTable) || ptr+nstates-1 < 0 {
			add("goto pointer %d of nonterminal %d lies outside the goto table of length %d", ptr, nt, len(t.GotoTable))
		}
	}
	for nt, target := range t.GotoDefault {
		if target != NoState && (target < 0 || target >= nstates) {
			add("goto default %d of nonterminal %d is not a state", target, nt)
		}
	}
	for i, nt := range t.GotoCheck {
		if nt == NoState {
			continue
		}
		if nt < 0 || nt >= nnt {
			add("goto check %d names unknown nonterminal %d", i, nt)
			continue
		}
		ptr := t.GotoPointer[nt]
		if ptr == NoPointer {
			add("goto entry %d belongs to nonterminal %d which has no pointer", i, nt)
			continue
		}
		if state := i - ptr; state < 0 || state >= nstates {
			add("goto entry %d maps nonterminal %d from unknown state %d", i, nt, state)
		}
		if target := t.GotoTable[i]; target < 0 || target >= nstates {
			add("goto entry %d targets unknown state %d", i, target)
		}
	}

	for i, rule := range t.ReduceTable {
		if i == 0 {
			continue
		}
		if rule.Length < 0 {
			add("rule %d has negative length %d", i, rule.Length)
		}
		if nt := rule.LHS - t.NTBase; nt < 0 || nt >= nnt {
			add("rule %d reduces to %d which is not a nonterminal", i, rule.LHS)
		}
		if rule.Action < NoAction {
			add("rule %d has invalid action id %d", i, rule.Action)
		}
	}

	symbols := make([]string, 0, len(t.TokenTable))
	for sym := range t.TokenTable {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	for _, sym := range symbols {
		if id := t.TokenTable[sym]; id < 0 || id >= t.NTBase {
			add("token %q maps to %d which is not a terminal", sym, id)
		}
	}

	if errs != nil {
		return ErrMalformedTable.GenWithStackByArgs(errs.Error())
	}
	return nil
}
