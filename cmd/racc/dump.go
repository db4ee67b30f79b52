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

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pingcap/racc/pkg/lalr"
	"github.com/spf13/cobra"
)

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the rules, states and gotos of a table file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ts, _, err := loadTables(cmd)
			if err != nil {
				return err
			}
			dumpTables(cmd.OutOrStdout(), ts)
			return nil
		},
	}
	addTablesFlag(cmd)
	return cmd
}

func dumpTables(w io.Writer, ts *lalr.TableSet) {
	rules := table.NewWriter()
	rules.SetTitle("Rules")
	rules.AppendHeader(table.Row{"#", "LHS", "Length", "Action", "Name"})
	for i, r := range ts.ReduceTable {
		if i == 0 {
			continue
		}
		action := "-"
		if r.Action != lalr.NoAction {
			action = fmt.Sprint(r.Action)
		}
		rules.AppendRow(table.Row{i, ts.SymbolName(r.LHS), r.Length, action, r.Name})
	}
	fmt.Fprintln(w, rules.Render())

	states := table.NewWriter()
	states.SetTitle("States")
	states.AppendHeader(table.Row{"State", "Actions", "Default"})
	states.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Actions", WidthMax: 60},
	})
	for s := 0; s < ts.NumStates(); s++ {
		var acts []string
		for tok := 0; tok < ts.NTBase; tok++ {
			if act, ok := ts.ExplicitAction(s, tok); ok {
				acts = append(acts, fmt.Sprintf("%s: %s", ts.SymbolName(tok), describeAction(ts, act)))
			}
		}
		states.AppendRow(table.Row{s, strings.Join(acts, "\n"), describeAction(ts, ts.ActionDefault[s])})
	}
	fmt.Fprintln(w, states.Render())

	gotos := table.NewWriter()
	gotos.SetTitle("Gotos")
	gotos.AppendHeader(table.Row{"Nonterminal", "Gotos", "Default"})
	for nt := 0; nt < ts.NumNonterminals(); nt++ {
		var entries []string
		if ptr := ts.GotoPointer[nt]; ptr != lalr.NoPointer {
			for s := 0; s < ts.NumStates(); s++ {
				idx := ptr + s
				if idx < 0 || idx >= len(ts.GotoCheck) || ts.GotoCheck[idx] != nt {
					continue
				}
				entries = append(entries, fmt.Sprintf("%d -> %d", s, ts.GotoTable[idx]))
			}
		}
		def := "-"
		if d := ts.GotoDefault[nt]; d != lalr.NoState {
			def = fmt.Sprint(d)
		}
		gotos.AppendRow(table.Row{ts.SymbolName(nt + ts.NTBase), strings.Join(entries, "\n"), def})
	}
	fmt.Fprintln(w, gotos.Render())
}

func describeAction(ts *lalr.TableSet, act int) string {
	switch {
	case ts.IsShift(act):
		return fmt.Sprintf("shift %d", act)
	case ts.IsReduce(act):
		return fmt.Sprintf("reduce %d", -act)
	case act == ts.AcceptAction():
		return "accept"
	case act == ts.ErrorAction():
		return "error"
	}
	return fmt.Sprintf("invalid %d", act)
}
