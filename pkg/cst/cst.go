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

// Package cst builds concrete syntax trees with the lalr engine. Its Builder
// is a generic host: it needs no knowledge of the grammar beyond the table
// set, so any compiled grammar can be parsed into a tree of Nodes.
package cst

import (
	"fmt"
	"io"
	"strings"

	"github.com/pingcap/racc/pkg/lalr"
	"github.com/pingcap/racc/pkg/terror"
)

const codeTooManyErrors terror.ErrCode = 1

// ErrTooManyErrors aborts a parse once the syntax error limit is exceeded.
var ErrTooManyErrors = terror.ClassHost.New(codeTooManyErrors, "too many syntax errors, gave up after %d")

// LeafRule is the Rule of a Node built from a token.
const LeafRule = -1

// Node is a node of a concrete syntax tree. Leaves come from tokens and
// inner nodes from reductions.
type Node struct {
	// Symbol is the token symbol of a leaf or the nonterminal name of an
	// inner node.
	Symbol string
	// Rule is the reduced rule, or LeafRule.
	Rule int
	// Value is the token value of a leaf.
	Value    any
	Children []*Node
}

// IsLeaf reports whether n was built from a token.
func (n *Node) IsLeaf() bool {
	return n.Rule == LeafRule
}

// Walk visits n and its descendants in pre-order until fn returns false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Leaves returns the leaves below n from left to right.
func (n *Node) Leaves() []*Node {
	var leaves []*Node
	n.Walk(func(c *Node) bool {
		if c.IsLeaf() {
			leaves = append(leaves, c)
		}
		return true
	})
	return leaves
}

// String formats n as an S-expression, for example
// (E (E (NUM 1)) + (E (NUM 2))).
func (n *Node) String() string {
	var sb strings.Builder
	n.format(&sb)
	return sb.String()
}

func (n *Node) format(sb *strings.Builder) {
	if n.IsLeaf() {
		if n.Value == nil {
			sb.WriteString(n.Symbol)
			return
		}
		fmt.Fprintf(sb, "(%s %s)", n.Symbol, formatValue(n.Value))
		return
	}
	sb.WriteString("(")
	sb.WriteString(n.Symbol)
	for _, c := range n.Children {
		sb.WriteString(" ")
		if c == nil {
			sb.WriteString("nil")
			continue
		}
		c.format(sb)
	}
	sb.WriteString(")")
}

// Dump writes n as an indented outline, one node per line.
func (n *Node) Dump(w io.Writer) error {
	return n.dump(w, 0)
}

func (n *Node) dump(w io.Writer, depth int) error {
	indent := strings.Repeat("  ", depth)
	var err error
	switch {
	case n.IsLeaf() && n.Value != nil:
		_, err = fmt.Fprintf(w, "%s%s %s\n", indent, n.Symbol, formatValue(n.Value))
	case n.IsLeaf():
		_, err = fmt.Fprintf(w, "%s%s\n", indent, n.Symbol)
	default:
		_, err = fmt.Fprintf(w, "%s%s  # %d\n", indent, n.Symbol, n.Rule)
	}
	if err != nil {
		return err
	}
	for _, c := range n.Children {
		if c == nil {
			continue
		}
		if err := c.dump(w, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprint(v)
}

// Builder turns every reduction into a Node. Token values must be wrapped
// into leaves with Leaf or Source before they reach the engine. Rules
// without an action are not seen by the Builder, so they keep the node of
// their first symbol. A Builder serves one parse at a time.
type Builder struct {
	tables *lalr.TableSet
	names  []string

	// MaxErrors aborts the parse with ErrTooManyErrors when more syntax
	// errors are reported. Zero means no limit.
	MaxErrors int
	errs      []lalr.SyntaxError
}

var (
	_ lalr.ActionDispatcher = (*Builder)(nil)
	_ lalr.ErrorObserver    = (*Builder)(nil)
)

// NewBuilder creates a Builder that names nonterminals from tables.
func NewBuilder(tables *lalr.TableSet) *Builder {
	return &Builder{tables: tables, names: tables.SymbolNameTable()}
}

// Leaf wraps the value of tok into a leaf Node.
func (b *Builder) Leaf(tok lalr.Token) lalr.Token {
	tok.Value = &Node{Symbol: tok.Symbol, Rule: LeafRule, Value: tok.Value}
	return tok
}

// Source wraps every token of src with Leaf.
func (b *Builder) Source(src lalr.TokenSource) lalr.TokenSource {
	return lalr.TokenSourceFunc(func() (lalr.Token, error) {
		tok, err := src.NextToken()
		if err != nil {
			return tok, err
		}
		return b.Leaf(tok), nil
	})
}

// Reduce implements lalr.ActionDispatcher.
func (b *Builder) Reduce(r *lalr.Reduction) (any, error) {
	n := &Node{
		Symbol:   b.name(r.LHS),
		Rule:     r.Rule,
		Children: make([]*Node, len(r.Values)),
	}
	for i, v := range r.Values {
		n.Children[i] = b.node(v)
	}
	return n, nil
}

// OnSyntaxError implements lalr.ErrorObserver.
func (b *Builder) OnSyntaxError(e *lalr.SyntaxError) error {
	cp := *e
	cp.Stack = nil
	b.errs = append(b.errs, cp)
	if b.MaxErrors > 0 && len(b.errs) > b.MaxErrors {
		return ErrTooManyErrors.GenWithStackByArgs(b.MaxErrors)
	}
	return nil
}

// Errors returns the syntax errors reported so far.
func (b *Builder) Errors() []lalr.SyntaxError {
	return b.errs
}

// Reset forgets the reported errors so the Builder can serve another parse.
func (b *Builder) Reset() {
	b.errs = nil
}

// Root returns the tree of an accepted result.
func Root(res *lalr.Result) *Node {
	if res == nil {
		return nil
	}
	n, _ := res.Value.(*Node)
	return n
}

func (b *Builder) name(id int) string {
	if id >= 0 && id < len(b.names) {
		return b.names[id]
	}
	return b.tables.SymbolName(id)
}

// node converts a stack value into a Node. A nil value, such as the one the
// error token carries at the end of the input, stays a nil child. Any other
// value that was not produced by Leaf or Reduce becomes an anonymous leaf.
func (b *Builder) node(v any) *Node {
	switch x := v.(type) {
	case *Node:
		return x
	case nil:
		return nil
	}
	return &Node{Symbol: "?", Rule: LeafRule, Value: v}
}
