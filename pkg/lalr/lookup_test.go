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
	"testing"

	"github.com/stretchr/testify/require"
)

// packedTables is S : a with state 0 packed at a negative pointer.
//
//	state 0: a shift 2, b shift 1, default error
//	state 1: $end accept, default error
//	state 2: default reduce 1
func packedTables() *TableSet {
	return &TableSet{
		ActionTable:   []int{2, 1, 3, 0},
		ActionCheck:   []int{0, 0, 1, NoState},
		ActionDefault: []int{-2, -2, -1},
		ActionPointer: []int{-2, 2, NoPointer},
		GotoTable:     []int{1},
		GotoCheck:     []int{0},
		GotoDefault:   []int{NoState},
		GotoPointer:   []int{0},
		NTBase:        4,
		ReduceTable: []Rule{
			{Length: 0, LHS: 0, Action: NoAction},
			{Length: 1, LHS: 4, Action: NoAction, Name: "S : a"},
		},
		TokenTable:  map[string]int{"a": 2, "b": 3},
		ShiftCount:  3,
		ReduceCount: 2,
	}
}

func TestActionLookup(t *testing.T) {
	ts := packedTables()
	require.NoError(t, ts.Validate())

	cases := []struct {
		state, token int
		want         int
		explicit     bool
	}{
		{0, 2, 2, true},
		{0, 3, 1, true},
		{0, EOFToken, -2, false},   // negative index
		{0, ErrorToken, -2, false}, // negative index
		{1, EOFToken, 3, true},
		{1, ErrorToken, -2, false}, // hole
		{1, 2, -2, false},          // past the end
		{1, 3, -2, false},          // past the end
		{2, 2, -1, false},          // no pointer
		{2, EOFToken, -1, false},
	}
	for _, c := range cases {
		require.Equal(t, c.want, ts.Action(c.state, c.token), "state %d token %d", c.state, c.token)
		act, ok := ts.ExplicitAction(c.state, c.token)
		require.Equal(t, c.explicit, ok, "state %d token %d", c.state, c.token)
		if ok {
			require.Equal(t, c.want, act)
		}
	}

	// same arguments, same answer
	for range 3 {
		require.Equal(t, 2, ts.Action(0, 2))
	}

	require.True(t, ts.NeedsLookahead(0))
	require.True(t, ts.NeedsLookahead(1))
	require.False(t, ts.NeedsLookahead(2))
	require.False(t, ts.NeedsLookahead(7))

	// unknown states never index out of bounds
	require.Equal(t, 0, ts.Action(-1, 2))
	require.Equal(t, 0, ts.Action(3, 2))
	_, ok := ts.ExplicitAction(42, 0)
	require.False(t, ok)
}

func TestActionLookupCheckMismatch(t *testing.T) {
	ts := packedTables()
	// state 1 probing token 0 lands on state 0's cell when its pointer is
	// moved, and must fall back to its default.
	ts.ActionPointer[1] = 0
	act, ok := ts.ExplicitAction(1, 0)
	require.False(t, ok)
	require.Zero(t, act)
	require.Equal(t, -2, ts.Action(1, 0))
}

func TestGotoLookup(t *testing.T) {
	ts := packedTables()
	next, ok := ts.Goto(0, 0)
	require.True(t, ok)
	require.Equal(t, 1, next)

	_, ok = ts.Goto(0, 1)
	require.False(t, ok, "no entry and no default")
	_, ok = ts.Goto(1, 0)
	require.False(t, ok, "unknown nonterminal")
	_, ok = ts.Goto(-1, 0)
	require.False(t, ok)

	ts.GotoDefault[0] = 2
	next, ok = ts.Goto(0, 1)
	require.True(t, ok)
	require.Equal(t, 2, next)

	ts.GotoPointer[0] = NoPointer
	next, ok = ts.Goto(0, 0)
	require.True(t, ok)
	require.Equal(t, 2, next, "without a pointer only the default is used")
}

func TestSymbolNames(t *testing.T) {
	ts := packedTables()
	require.Equal(t, "$end", ts.SymbolName(EOFToken))
	require.Equal(t, "error", ts.SymbolName(ErrorToken))
	require.Equal(t, `"a"`, ts.SymbolName(2))
	require.Equal(t, "#4", ts.SymbolName(4))
	require.Equal(t, []string{"$end", "error", `"a"`, `"b"`, "#4"}, ts.SymbolNameTable())

	ts.SymbolNames = []string{"", "", "A", "B", "S"}
	require.Equal(t, "A", ts.SymbolName(2))
	require.Equal(t, "$end", ts.SymbolName(0))
	require.Equal(t, []string{"$end", "error", "A", "B", "S"}, ts.SymbolNameTable())
}
