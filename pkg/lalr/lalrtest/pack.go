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

// Package lalrtest builds table sets for tests from readable automata.
package lalrtest

import (
	"maps"
	"slices"
	"sort"

	"github.com/pingcap/racc/pkg/lalr"
)

// State is one automaton state as a dense row.
type State struct {
	// Actions maps token ids to action codes.
	Actions map[int]int
	// Default is taken for every token without an entry.
	Default int
}

// Nonterminal is one goto column.
type Nonterminal struct {
	// Gotos maps the state on top of the stack to the state to enter.
	Gotos map[int]int
	// Default is taken for states without an entry. Use lalr.NoState for
	// none.
	Default int
}

// Grammar is an automaton in dense form.
type Grammar struct {
	NTBase       int
	Tokens       map[string]int
	Rules        []lalr.Rule
	States       []State
	Nonterminals []Nonterminal
	UseResultVar bool
	SymbolNames  []string
}

// Pack overlays the rows of g into pointer/check arrays. Rows are placed
// largest first at the lowest offset where none of their cells collide.
func (g *Grammar) Pack() *lalr.TableSet {
	actionRows := make([]map[int]int, len(g.States))
	defaults := make([]int, len(g.States))
	for i, st := range g.States {
		actionRows[i] = st.Actions
		defaults[i] = st.Default
	}
	gotoRows := make([]map[int]int, len(g.Nonterminals))
	gotoDefaults := make([]int, len(g.Nonterminals))
	for i, nt := range g.Nonterminals {
		gotoRows[i] = nt.Gotos
		gotoDefaults[i] = nt.Default
	}

	ts := &lalr.TableSet{
		ActionDefault: defaults,
		GotoDefault:   gotoDefaults,
		NTBase:        g.NTBase,
		ReduceTable:   slices.Clone(g.Rules),
		TokenTable:    maps.Clone(g.Tokens),
		ShiftCount:    len(g.States),
		ReduceCount:   len(g.Rules),
		UseResultVar:  g.UseResultVar,
		SymbolNames:   slices.Clone(g.SymbolNames),
	}
	ts.ActionTable, ts.ActionCheck, ts.ActionPointer = packRows(actionRows)
	ts.GotoTable, ts.GotoCheck, ts.GotoPointer = packRows(gotoRows)
	return ts
}

// packRows packs rows so that table[ptr[r]+k] == rows[r][k] and
// check[ptr[r]+k] == r.
func packRows(rows []map[int]int) (table, check, ptr []int) {
	ptr = make([]int, len(rows))
	order := make([]int, 0, len(rows))
	for r := range rows {
		ptr[r] = lalr.NoPointer
		if len(rows[r]) > 0 {
			order = append(order, r)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return len(rows[order[i]]) > len(rows[order[j]])
	})

	table, check = []int{}, []int{}
	for _, r := range order {
		keys := slices.Sorted(maps.Keys(rows[r]))
		base := -keys[0]
		for !fits(check, base, keys) {
			base++
		}
		last := base + keys[len(keys)-1]
		for len(check) <= last {
			table = append(table, 0)
			check = append(check, lalr.NoState)
		}
		for _, k := range keys {
			table[base+k] = rows[r][k]
			check[base+k] = r
		}
		ptr[r] = base
	}
	return table, check, ptr
}

func fits(check []int, base int, keys []int) bool {
	for _, k := range keys {
		if idx := base + k; idx < len(check) && check[idx] != lalr.NoState {
			return false
		}
	}
	return true
}
