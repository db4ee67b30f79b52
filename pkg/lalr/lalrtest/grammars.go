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

package lalrtest

import (
	"github.com/pingcap/errors"
	"github.com/pingcap/racc/pkg/lalr"
)

// Single is the grammar
//
//	S : a
//
// State 2 reduces without reading a lookahead and state 1 accepts on $end.
func Single() *Grammar {
	return &Grammar{
		NTBase: 3,
		Tokens: map[string]int{"a": 2},
		Rules: []lalr.Rule{
			{Length: 0, LHS: 0, Action: lalr.NoAction},
			{Length: 1, LHS: 3, Action: lalr.NoAction, Name: "S : a"},
		},
		States: []State{
			{Actions: map[int]int{2: 2}, Default: -2},
			{Actions: map[int]int{lalr.EOFToken: 3}, Default: -2},
			{Default: -1},
		},
		Nonterminals: []Nonterminal{
			{Gotos: map[int]int{0: 1}, Default: lalr.NoState},
		},
		SymbolNames: []string{"$end", "error", "a", "S"},
	}
}

// Action ids of the Calc grammar.
const (
	CalcAdd = iota
	CalcNum
)

// Calc is the left associative grammar
//
//	E : E '+' E
//	  | NUM
func Calc() *Grammar {
	return &Grammar{
		NTBase: 4,
		Tokens: map[string]int{"NUM": 2, "+": 3},
		Rules: []lalr.Rule{
			{Length: 0, LHS: 0, Action: lalr.NoAction},
			{Length: 3, LHS: 4, Action: CalcAdd, Name: "E : E '+' E"},
			{Length: 1, LHS: 4, Action: CalcNum, Name: "E : NUM"},
		},
		States: []State{
			{Actions: map[int]int{2: 2}, Default: -3},
			{Actions: map[int]int{lalr.EOFToken: 5, 3: 3}, Default: -3},
			{Default: -2},
			{Actions: map[int]int{2: 2}, Default: -3},
			{Default: -1},
		},
		Nonterminals: []Nonterminal{
			{Gotos: map[int]int{0: 1, 3: 4}, Default: lalr.NoState},
		},
		SymbolNames: []string{"$end", "error", "NUM", "'+'", "E"},
	}
}

// CalcActions evaluates Calc. Numbers are ints.
var CalcActions = lalr.ActionFunc(func(r *lalr.Reduction) (any, error) {
	switch r.Action {
	case CalcAdd:
		lhs, ok1 := r.Values[0].(int)
		rhs, ok2 := r.Values[2].(int)
		if !ok1 || !ok2 {
			return nil, errors.Errorf("cannot add %v and %v", r.Values[0], r.Values[2])
		}
		return lhs + rhs, nil
	case CalcNum:
		return r.Values[0], nil
	}
	return nil, errors.Errorf("unknown action %d", r.Action)
})

// Action ids of the Statements grammar.
const (
	StmtsAppend = iota
	StmtsFirst
	StmtNum
	StmtError
)

// Statements is the grammar
//
//	stmts : stmts stmt
//	      | stmt
//	stmt  : NUM ';'
//	      | error ';'
//
// Its error rule resynchronizes on ';'.
func Statements() *Grammar {
	return &Grammar{
		NTBase: 4,
		Tokens: map[string]int{"NUM": 2, ";": 3},
		Rules: []lalr.Rule{
			{Length: 0, LHS: 0, Action: lalr.NoAction},
			{Length: 2, LHS: 4, Action: StmtsAppend, Name: "stmts : stmts stmt"},
			{Length: 1, LHS: 4, Action: StmtsFirst, Name: "stmts : stmt"},
			{Length: 2, LHS: 5, Action: StmtNum, Name: "stmt : NUM ';'"},
			{Length: 2, LHS: 5, Action: StmtError, Name: "stmt : error ';'"},
		},
		States: []State{
			{Actions: map[int]int{2: 3, lalr.ErrorToken: 4}, Default: -5},
			{Actions: map[int]int{lalr.EOFToken: 8, 2: 3, lalr.ErrorToken: 4}, Default: -5},
			{Default: -2},
			{Actions: map[int]int{3: 6}, Default: -5},
			{Actions: map[int]int{3: 7}, Default: -5},
			{Default: -1},
			{Default: -3},
			{Default: -4},
		},
		Nonterminals: []Nonterminal{
			{Gotos: map[int]int{0: 1}, Default: lalr.NoState},
			{Gotos: map[int]int{0: 2, 1: 5}, Default: lalr.NoState},
		},
		SymbolNames: []string{"$end", "error", "NUM", "';'", "stmts", "stmt"},
	}
}

// StatementActions collects the values of well formed statements into a
// []any and drops statements that were replaced by the error rule.
var StatementActions = lalr.ActionFunc(func(r *lalr.Reduction) (any, error) {
	switch r.Action {
	case StmtsAppend:
		list, _ := r.Values[0].([]any)
		if r.Values[1] == nil {
			return list, nil
		}
		return append(list, r.Values[1]), nil
	case StmtsFirst:
		if r.Values[0] == nil {
			return []any{}, nil
		}
		return []any{r.Values[0]}, nil
	case StmtNum:
		return r.Values[0], nil
	case StmtError:
		return nil, nil
	}
	return nil, errors.Errorf("unknown action %d", r.Action)
})

// Action ids of the Lists grammar.
const (
	ListEmpty = iota
	ListAppend
)

// Lists is the grammar
//
//	L : /* empty */
//	  | L x
//
// State 0 reduces the empty rule before any token is read.
func Lists() *Grammar {
	return &Grammar{
		NTBase: 3,
		Tokens: map[string]int{"x": 2},
		Rules: []lalr.Rule{
			{Length: 0, LHS: 0, Action: lalr.NoAction},
			{Length: 0, LHS: 3, Action: ListEmpty, Name: "L :"},
			{Length: 2, LHS: 3, Action: ListAppend, Name: "L : L x"},
		},
		States: []State{
			{Default: -1},
			{Actions: map[int]int{lalr.EOFToken: 3, 2: 2}, Default: -3},
			{Default: -2},
		},
		Nonterminals: []Nonterminal{
			{Gotos: map[int]int{0: 1}, Default: lalr.NoState},
		},
		SymbolNames: []string{"$end", "error", "x", "L"},
	}
}

// ListActions builds a []any of the x values.
var ListActions = lalr.ActionFunc(func(r *lalr.Reduction) (any, error) {
	switch r.Action {
	case ListEmpty:
		return []any{}, nil
	case ListAppend:
		list, _ := r.Values[0].([]any)
		return append(list, r.Values[1]), nil
	}
	return nil, errors.Errorf("unknown action %d", r.Action)
})

// Tokens builds a token list from symbol/value pairs.
func Tokens(pairs ...any) []lalr.Token {
	if len(pairs)%2 != 0 {
		panic("lalrtest: odd number of token arguments")
	}
	toks := make([]lalr.Token, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		toks = append(toks, lalr.Token{Symbol: pairs[i].(string), Value: pairs[i+1]})
	}
	return toks
}
