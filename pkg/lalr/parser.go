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
	"context"
	"fmt"
	"io"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pingcap/errors"
	"github.com/pingcap/failpoint"
	"github.com/pingcap/racc/pkg/metrics"
	"github.com/pingcap/racc/pkg/util/logutil"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// DefaultStackCapacity is the initial capacity of the parse stacks.
const DefaultStackCapacity = 64

// fpForceGotoMiss makes every goto lookup of a parse fail.
const fpForceGotoMiss = "github.com/pingcap/racc/pkg/lalr/forceGotoMiss"

var parseID atomic.Uint64

// Parser runs a compiled automaton against token streams. It holds no
// per-parse state, so one Parser may serve concurrent parses as long as the
// injected callbacks allow it.
type Parser struct {
	tables   *TableSet
	lookup   Lookup
	actions  ActionDispatcher
	observer ErrorObserver
	tracer   Tracer
	stackCap int
	names    []string
}

// Option configures a Parser.
type Option func(*Parser)

// WithErrorObserver sets the observer told about syntax errors.
func WithErrorObserver(o ErrorObserver) Option {
	return func(p *Parser) {
		p.observer = o
	}
}

// WithTracer enables event tracing.
func WithTracer(t Tracer) Option {
	return func(p *Parser) {
		p.tracer = t
	}
}

// WithStackCapacity sets the initial capacity of the parse stacks.
func WithStackCapacity(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.stackCap = n
		}
	}
}

// New validates tables and creates a Parser. A nil actions reduces every
// rule with PassThrough.
func New(tables *TableSet, actions ActionDispatcher, opts ...Option) (*Parser, error) {
	if tables == nil {
		return nil, ErrMalformedTable.GenWithStackByArgs("nil table set")
	}
	if err := tables.Validate(); err != nil {
		return nil, err
	}
	if actions == nil {
		actions = PassThrough
	}
	p := &Parser{
		tables:   tables,
		lookup:   tables,
		actions:  actions,
		stackCap: DefaultStackCapacity,
		names:    tables.SymbolNameTable(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Tables returns the table set the parser runs.
func (p *Parser) Tables() *TableSet {
	return p.tables
}

func (p *Parser) symbolName(id int) string {
	if id >= 0 && id < len(p.names) {
		return p.names[id]
	}
	return p.tables.SymbolName(id)
}

// Parse consumes src until the input is accepted or recovery gives up. An
// unrecoverable syntax error is reported through the result, not as an
// error; errors are reserved for faults of the tables, the token source, or
// the host callbacks.
func (p *Parser) Parse(ctx context.Context, src TokenSource) (*Result, error) {
	if src == nil {
		return nil, ErrTokenContract.GenWithStackByArgs("nil token source")
	}
	ps := p.newParse(ctx)
	needToken, err := ps.run(src)
	if err == nil && needToken {
		err = ErrEngineBug.GenWithStackByArgs("token source was not consulted")
	}
	return ps.finish(err)
}

type stepOutcome int

const (
	outcomeContinue stepOutcome = iota
	outcomeRaise
	outcomeAccept
)

// parse is the state of one invocation of the automaton.
type parse struct {
	p      *Parser
	ctx    context.Context
	span   opentracing.Span
	logger *zap.Logger
	start  time.Time

	stk       *stacks
	tracing   bool
	tok       int
	val       any
	readNext  bool
	eof       bool
	errStatus int
	nerr      int
	result    *Result

	pending    *Token
	pendingEOF bool

	forceGotoMiss bool

	tokens, shifts, reductions, pops int
}

func (p *Parser) newParse(ctx context.Context) *parse {
	id := parseID.Inc()
	ctx = logutil.WithParseID(logutil.WithCategory(ctx, "lalr"), id)
	ps := &parse{
		p:        p,
		start:    time.Now(),
		tracing:  p.tracer != nil,
		tok:      ErrorToken,
		readNext: true,
	}
	if span := opentracing.SpanFromContext(ctx); span != nil && span.Tracer() != nil {
		ps.span = span.Tracer().StartSpan("lalr.Parse", opentracing.ChildOf(span.Context()))
		ctx = opentracing.ContextWithSpan(ctx, ps.span)
	}
	ps.ctx = ctx
	ps.logger = logutil.Logger(ctx)
	ps.stk = newStacks(p.stackCap, ps.tracing)
	if _, err := failpoint.Eval(fpForceGotoMiss); err == nil {
		ps.forceGotoMiss = true
	}
	return ps
}

// run drives the automaton until it terminates or needs a token that
// neither src nor a pushed token can supply.
func (ps *parse) run(src TokenSource) (needToken bool, err error) {
	lookup := ps.p.lookup
	for {
		state := ps.stk.state()
		if ps.readNext && lookup.NeedsLookahead(state) {
			if !ps.eof {
				ok, err := ps.readToken(src)
				if err != nil {
					return false, err
				}
				if !ok {
					return true, nil
				}
			}
			ps.readNext = false
		}

		done, err := ps.step(lookup.Action(state, ps.tok))
		if err != nil || done {
			return false, err
		}
		if err := ps.stk.verify(); err != nil {
			return false, err
		}
		if ps.tracing {
			ps.p.tracer.OnNextState(ps.stk.state(), ps.stk.snapshot())
		}
	}
}

// step performs one action and reports whether the parse has terminated.
func (ps *parse) step(act int) (bool, error) {
	t := ps.p.tables
	switch {
	case t.IsShift(act):
		if ps.errStatus > 0 {
			ps.errStatus--
		}
		ps.shift(act, ps.tok)
		ps.readNext = true
		return false, nil
	case t.IsReduce(act):
		outcome, err := ps.reduce(-act)
		if err != nil {
			return true, err
		}
		return ps.afterReduce(outcome)
	case act == t.ErrorAction():
		if ps.errStatus == 0 {
			if err := ps.notify(); err != nil {
				return true, err
			}
		}
		return ps.recover()
	case act == t.AcceptAction():
		ps.accept()
		return true, nil
	}
	return true, ErrUnknownAction.GenWithStackByArgs(act, ps.stk.state())
}

func (ps *parse) afterReduce(outcome stepOutcome) (bool, error) {
	switch outcome {
	case outcomeRaise:
		return ps.recover()
	case outcomeAccept:
		ps.accept()
		return true, nil
	}
	return false, nil
}

func (ps *parse) shift(state, sym int) {
	ps.stk.shift(state, sym, ps.val)
	ps.shifts++
	if ps.tracing {
		ps.p.tracer.OnShift(sym, ps.stk.snapshot())
	}
}

func (ps *parse) reduce(ruleno int) (stepOutcome, error) {
	t := ps.p.tables
	rule := t.ReduceTable[ruleno]
	if rule.Length >= ps.stk.depth() {
		return outcomeContinue, ErrEngineBug.GenWithStackByArgs(
			fmt.Sprintf("rule %d pops %d symbols from a stack of depth %d", ruleno, rule.Length, ps.stk.depth()))
	}

	withAction := rule.Action != NoAction
	vals, result, popped := ps.stk.cut(rule.Length, withAction)
	if withAction {
		r := &Reduction{
			Rule:   ruleno,
			Action: rule.Action,
			LHS:    rule.LHS,
			Values: vals,
			Stack:  ps.stk.values.view(),
			p:      ps,
		}
		if t.UseResultVar {
			r.Result = result
		}
		v, err := ps.p.actions.Reduce(r)
		if err != nil {
			switch errors.Cause(err) {
			case ErrRaise:
				return outcomeRaise, nil
			case ErrAccept:
				return outcomeAccept, nil
			}
			return outcomeContinue, errors.Annotatef(err, "action %d of rule %d", rule.Action, ruleno)
		}
		result = v
	}

	top := ps.stk.state()
	next, ok := ps.p.lookup.Goto(rule.LHS-t.NTBase, top)
	if !ok || ps.forceGotoMiss {
		return outcomeContinue, ErrMissingGoto.GenWithStackByArgs(rule.LHS, top)
	}
	ps.stk.pushGoto(next, rule.LHS, result)
	ps.reductions++
	if ps.tracing {
		ps.p.tracer.OnReduce(ruleno, popped, rule.LHS, ps.stk.snapshot())
	}
	return outcomeContinue, nil
}

func (ps *parse) accept() {
	ps.result = &Result{
		Status:       StatusAccepted,
		Value:        ps.stk.bottom(),
		SyntaxErrors: ps.nerr,
	}
	if ps.tracing {
		ps.p.tracer.OnAccept(ps.stk.snapshot())
	}
}

func (ps *parse) fail(reason FailReason) {
	ps.result = &Result{
		Status:       StatusFailed,
		Reason:       reason,
		SyntaxErrors: ps.nerr,
	}
}

// readToken fetches the next lookahead. It reports false when the parse has
// to wait for a pushed token.
func (ps *parse) readToken(src TokenSource) (bool, error) {
	var tok Token
	switch {
	case ps.pending != nil:
		tok = *ps.pending
		ps.pending = nil
	case ps.pendingEOF:
		ps.pendingEOF = false
		ps.setEOF()
		return true, nil
	case src != nil:
		var err error
		tok, err = src.NextToken()
		if err != nil {
			if errors.Cause(err) == io.EOF {
				ps.setEOF()
				return true, nil
			}
			return false, errors.Annotate(err, "read token")
		}
	default:
		return false, nil
	}

	if tok.Symbol == "" {
		return false, ErrTokenContract.GenWithStackByArgs("token without a symbol")
	}
	id, ok := ps.p.tables.TokenTable[tok.Symbol]
	if !ok {
		id = ErrorToken
		ps.logger.Debug("unknown token symbol, treated as error token", zap.String("symbol", tok.Symbol))
	}
	ps.tok, ps.val = id, tok.Value
	ps.tokens++
	if ps.tracing {
		ps.p.tracer.OnReadToken(id, tok.Symbol, tok.Value)
	}
	return true, nil
}

func (ps *parse) setEOF() {
	ps.tok, ps.val = EOFToken, nil
	ps.eof = true
	if ps.tracing {
		ps.p.tracer.OnReadToken(EOFToken, ps.p.symbolName(EOFToken), nil)
	}
}

// notify reports a fresh syntax error to the observer.
func (ps *parse) notify() error {
	ps.nerr++
	metrics.SyntaxErrorCounter.Inc()
	e := &SyntaxError{
		Token:  ps.tok,
		Symbol: ps.p.symbolName(ps.tok),
		Value:  ps.val,
		State:  ps.stk.state(),
		Stack:  ps.stk.values.view(),
	}
	ps.logger.Debug("syntax error", zap.String("token", e.Symbol), zap.Int("state", e.State))
	logutil.Event(ps.ctx, "syntax error")
	if ps.p.observer == nil {
		return nil
	}
	return errors.Trace(ps.p.observer.OnSyntaxError(e))
}

func (ps *parse) finish(err error) (*Result, error) {
	cost := time.Since(ps.start)
	metrics.ActionCounter.WithLabelValues(metrics.LblShift).Add(float64(ps.shifts))
	metrics.ActionCounter.WithLabelValues(metrics.LblReduce).Add(float64(ps.reductions))
	metrics.ActionCounter.WithLabelValues(metrics.LblErrorPop).Add(float64(ps.pops))
	if ps.span != nil {
		defer ps.span.Finish()
	}

	if err != nil {
		metrics.ParseCounter.WithLabelValues(metrics.LblFault).Inc()
		metrics.ParseDuration.WithLabelValues(metrics.LblFault).Observe(cost.Seconds())
		logutil.Event(ps.ctx, "parse aborted")
		ps.logger.Warn("parse aborted",
			zap.Int("state", ps.stk.state()),
			zap.Int("tokens", ps.tokens),
			zap.Bool("engine-bug", IsEngineBug(err)),
			zap.Error(err))
		return nil, err
	}

	label := metrics.LblAccepted
	if !ps.result.Accepted() {
		label = metrics.LblFailed
	}
	metrics.ParseCounter.WithLabelValues(label).Inc()
	metrics.ParseDuration.WithLabelValues(label).Observe(cost.Seconds())
	if ps.pops > 0 {
		logutil.Eventf(ps.ctx, "recovery popped %d states", ps.pops)
	}
	logutil.Event(ps.ctx, "parse "+label)
	ps.logger.Debug("parse finished",
		zap.Stringer("status", ps.result.Status),
		zap.Stringer("reason", ps.result.Reason),
		zap.Int("tokens", ps.tokens),
		zap.Int("shifts", ps.shifts),
		zap.Int("reductions", ps.reductions),
		zap.Int("syntax-errors", ps.nerr),
		zap.Duration("cost", cost))
	return ps.result, nil
}
