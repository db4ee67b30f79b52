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

package tracing

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/pingcap/racc/pkg/lalr"
)

// Printer writes a human readable trace, one block per event:
//
//	read    NUM(2) 1
//	shift   NUM
//	        [ (NUM 1) ]
//	goto    2
type Printer struct {
	w      io.Writer
	tables *lalr.TableSet
	names  []string

	verb  *color.Color
	arrow *color.Color
	err   *color.Color
}

var _ lalr.Tracer = (*Printer)(nil)

// NewPrinter creates a Printer. Colors are used only when colored is set.
func NewPrinter(w io.Writer, tables *lalr.TableSet, colored bool) *Printer {
	p := &Printer{
		w:      w,
		tables: tables,
		names:  tables.SymbolNameTable(),
		verb:   color.New(color.FgCyan, color.Bold),
		arrow:  color.New(color.FgGreen),
		err:    color.New(color.FgRed),
	}
	for _, c := range []*color.Color{p.verb, p.arrow, p.err} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *Printer) name(id int) string {
	if id >= 0 && id < len(p.names) {
		return p.names[id]
	}
	return p.tables.SymbolName(id)
}

func (p *Printer) line(verb *color.Color, word, rest string) {
	fmt.Fprintf(p.w, "%s %s\n", verb.Sprintf("%-7s", word), rest)
}

func (p *Printer) stack(s lalr.Snapshot) {
	var sb strings.Builder
	sb.WriteString("        [")
	for i, sym := range s.Symbols {
		var val any
		if i < len(s.Values) {
			val = s.Values[i]
		}
		fmt.Fprintf(&sb, " (%s %v)", p.name(sym), formatValue(val))
	}
	sb.WriteString(" ]\n")
	io.WriteString(p.w, sb.String())
}

func (p *Printer) states(s lalr.Snapshot) {
	var sb strings.Builder
	sb.WriteString("        [")
	for _, st := range s.States {
		fmt.Fprintf(&sb, " %d", st)
	}
	sb.WriteString(" ]\n")
	io.WriteString(p.w, sb.String())
}

// OnReadToken implements lalr.Tracer.
func (p *Printer) OnReadToken(tok int, _ string, val any) {
	p.line(p.verb, "read", fmt.Sprintf("%s(%d) %v", p.name(tok), tok, formatValue(val)))
}

// OnShift implements lalr.Tracer.
func (p *Printer) OnShift(tok int, s lalr.Snapshot) {
	p.line(p.verb, "shift", p.name(tok))
	p.stack(s)
}

// OnReduce implements lalr.Tracer.
func (p *Printer) OnReduce(_ int, popped []int, lhs int, s lalr.Snapshot) {
	rhs := "<none>"
	if len(popped) > 0 {
		parts := make([]string, len(popped))
		for i, sym := range popped {
			parts[i] = p.name(sym)
		}
		rhs = strings.Join(parts, " ")
	}
	p.line(p.verb, "reduce", rhs)
	fmt.Fprintf(p.w, "        %s %s\n", p.arrow.Sprint("-->"), p.name(lhs))
	p.stack(s)
}

// OnErrorPop implements lalr.Tracer.
func (p *Printer) OnErrorPop(s lalr.Snapshot) {
	fmt.Fprintln(p.w, p.err.Sprint("error recovering mode: pop token"))
	p.states(s)
	p.stack(s)
}

// OnNextState implements lalr.Tracer.
func (p *Printer) OnNextState(state int, _ lalr.Snapshot) {
	p.line(p.verb, "goto", fmt.Sprint(state))
	fmt.Fprintln(p.w)
}

// OnAccept implements lalr.Tracer.
func (p *Printer) OnAccept(s lalr.Snapshot) {
	p.line(p.verb, "accept", "")
	p.stack(s)
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case string:
		return fmt.Sprintf("%q", x)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprintf("%v", v)
}
