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

package lalr_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/pingcap/errors"
	"github.com/pingcap/failpoint"
	"github.com/pingcap/racc/pkg/lalr"
	"github.com/pingcap/racc/pkg/lalr/lalrtest"
	"github.com/pingcap/racc/pkg/lalr/tracing"
	"github.com/pingcap/racc/pkg/metrics"
	"github.com/pingcap/racc/pkg/util/logutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"
)

func TestSingleShift(t *testing.T) {
	rec := tracing.NewRecorder()
	p := newParser(t, lalrtest.Single(), nil, lalr.WithTracer(rec))

	res, err := parse(p, lalrtest.Tokens("a", "A"))
	require.NoError(t, err)
	require.True(t, res.Accepted())
	require.Equal(t, "A", res.Value)
	require.Zero(t, res.SyntaxErrors)

	require.Equal(t, []tracing.EventKind{
		tracing.EventShift, tracing.EventReduce, tracing.EventAccept,
	}, rec.Kinds(tracing.EventShift, tracing.EventReduce, tracing.EventAccept))
	requireStackInvariant(t, rec)

	events := rec.Events()
	last := events[len(events)-1]
	require.Equal(t, tracing.EventAccept, last.Kind)
	require.Equal(t, []any{"A"}, last.Values)
}

func TestCalcSum(t *testing.T) {
	rec := tracing.NewRecorder()
	p := newParser(t, lalrtest.Calc(), lalrtest.CalcActions, lalr.WithTracer(rec))

	res, err := parse(p, lalrtest.Tokens("NUM", 1, "+", "+", "NUM", 2))
	require.NoError(t, err)
	require.True(t, res.Accepted())
	require.Equal(t, 3, res.Value)

	require.Equal(t, []tracing.EventKind{
		tracing.EventShift,
		tracing.EventReduce,
		tracing.EventShift,
		tracing.EventShift,
		tracing.EventReduce,
		tracing.EventReduce,
		tracing.EventAccept,
	}, rec.Kinds(tracing.EventShift, tracing.EventReduce, tracing.EventAccept))
	requireStackInvariant(t, rec)

	var reductions []int
	for _, e := range rec.Events() {
		if e.Kind == tracing.EventReduce {
			reductions = append(reductions, e.Rule)
		}
	}
	require.Equal(t, []int{2, 2, 1}, reductions)
}

func TestCalcLeftAssociative(t *testing.T) {
	p := newParser(t, lalrtest.Calc(), lalrtest.CalcActions)
	for n := 1; n <= 20; n++ {
		var toks []lalr.Token
		for i := 1; i <= n; i++ {
			if i > 1 {
				toks = append(toks, lalr.Token{Symbol: "+"})
			}
			toks = append(toks, lalr.Token{Symbol: "NUM", Value: i})
		}
		rec := tracing.NewRecorder()
		p := newParser(t, lalrtest.Calc(), lalrtest.CalcActions, lalr.WithTracer(rec))
		res, err := parse(p, toks)
		require.NoError(t, err)
		require.True(t, res.Accepted())
		require.Equal(t, n*(n+1)/2, res.Value)
		// one shift per consumed terminal
		require.Len(t, rec.Kinds(tracing.EventShift), len(toks))
		requireStackInvariant(t, rec)
	}

	res, err := parse(p, lalrtest.Tokens("NUM", 7))
	require.NoError(t, err)
	require.Equal(t, 7, res.Value)
}

func TestEmptyRule(t *testing.T) {
	rec := tracing.NewRecorder()
	p := newParser(t, lalrtest.Lists(), lalrtest.ListActions, lalr.WithTracer(rec))

	res, err := parse(p, nil)
	require.NoError(t, err)
	require.True(t, res.Accepted())
	require.Equal(t, []any{}, res.Value)
	// the empty rule is reduced before anything is read
	require.Equal(t, tracing.EventReduce, rec.Events()[0].Kind)
	require.Empty(t, rec.Events()[0].Popped)

	res, err = parse(p, lalrtest.Tokens("x", 1, "x", 2, "x", 3))
	require.NoError(t, err)
	require.Equal(t, []any{1, 2, 3}, res.Value)
}

func TestPassThroughForwardsFirstValue(t *testing.T) {
	// without actions every rule forwards its first value
	p := newParser(t, lalrtest.Calc(), nil)
	res, err := parse(p, lalrtest.Tokens("NUM", 4, "+", "+", "NUM", 5))
	require.NoError(t, err)
	require.Equal(t, 4, res.Value)

	p = newParser(t, lalrtest.Lists(), nil)
	res, err = parse(p, nil)
	require.NoError(t, err)
	require.True(t, res.Accepted())
	require.Nil(t, res.Value)
}

func TestResultVar(t *testing.T) {
	for _, useResultVar := range []bool{false, true} {
		g := lalrtest.Calc()
		g.UseResultVar = useResultVar
		var stackDepths []int
		actions := lalr.ActionFunc(func(r *lalr.Reduction) (any, error) {
			if useResultVar {
				require.Equal(t, r.Values[0], r.Result)
			} else {
				require.Nil(t, r.Result)
			}
			stackDepths = append(stackDepths, len(r.Stack))
			return lalrtest.CalcActions(r)
		})
		p := newParser(t, g, actions)
		res, err := parse(p, lalrtest.Tokens("NUM", 1, "+", "+", "NUM", 2))
		require.NoError(t, err)
		require.Equal(t, 3, res.Value)
		// E : NUM at the bottom, E : NUM above "E +", then E : E + E
		require.Equal(t, []int{0, 2, 0}, stackDepths)
	}
}

func TestUnrecoverable(t *testing.T) {
	cases := [][]lalr.Token{
		nil,
		lalrtest.Tokens("NUM", 1, "+", "+"),
		lalrtest.Tokens("NUM", 1, "NUM", 2),
		lalrtest.Tokens("+", "+"),
	}
	for i, toks := range cases {
		errs := &errorCollector{}
		rec := tracing.NewRecorder()
		p := newParser(t, lalrtest.Calc(), lalrtest.CalcActions, lalr.WithErrorObserver(errs), lalr.WithTracer(rec))
		res, err := parse(p, toks)
		require.NoError(t, err, "case %d", i)
		require.False(t, res.Accepted(), "case %d", i)
		require.Equal(t, lalr.StatusFailed, res.Status)
		require.Equal(t, lalr.FailStackExhausted, res.Reason, "case %d", i)
		require.Nil(t, res.Value)
		require.Len(t, errs.errs, 1, "case %d", i)
		require.Equal(t, 1, res.SyntaxErrors)
		requireStackInvariant(t, rec)
	}
}

func TestUnrecoverableReportsOffendingToken(t *testing.T) {
	errs := &errorCollector{}
	p := newParser(t, lalrtest.Calc(), lalrtest.CalcActions, lalr.WithErrorObserver(errs))
	res, err := parse(p, lalrtest.Tokens("NUM", 1, "+", "+"))
	require.NoError(t, err)
	require.False(t, res.Accepted())

	require.Len(t, errs.errs, 1)
	e := errs.errs[0]
	require.Equal(t, lalr.EOFToken, e.Token)
	require.Equal(t, "$end", e.Symbol)
	require.Nil(t, e.Value)
	require.Equal(t, 3, e.State)
	require.Equal(t, []any{1, "+"}, e.Stack)
	require.Contains(t, e.Error(), "syntax error on $end in state 3")
}

func TestUnknownSymbolIsErrorToken(t *testing.T) {
	errs := &errorCollector{}
	p := newParser(t, lalrtest.Calc(), lalrtest.CalcActions, lalr.WithErrorObserver(errs))
	res, err := parse(p, lalrtest.Tokens("NUM", 1, "?", "?", "NUM", 2))
	require.NoError(t, err)
	require.False(t, res.Accepted())
	require.Len(t, errs.errs, 1)
	require.Equal(t, lalr.ErrorToken, errs.errs[0].Token)
	require.Equal(t, "?", errs.errs[0].Value)

	// a grammar with error rules shifts the unknown symbol as the error token
	errs = &errorCollector{}
	p = newParser(t, lalrtest.Statements(), lalrtest.StatementActions, lalr.WithErrorObserver(errs))
	res, err = parse(p, lalrtest.Tokens("NUM", 1, ";", ";", "@", "@", ";", ";", "NUM", 2, ";", ";"))
	require.NoError(t, err)
	require.True(t, res.Accepted())
	require.Equal(t, []any{1, 2}, res.Value)
	require.Empty(t, errs.errs)
}

type countingSource struct {
	src   *lalr.SliceSource
	calls int
	eofs  int
}

func (s *countingSource) NextToken() (lalr.Token, error) {
	s.calls++
	tok, err := s.src.NextToken()
	if err == io.EOF {
		s.eofs++
	}
	return tok, err
}

func TestNoReadAfterEOF(t *testing.T) {
	inputs := []struct {
		g    *lalrtest.Grammar
		a    lalr.ActionDispatcher
		toks []lalr.Token
	}{
		{lalrtest.Calc(), lalrtest.CalcActions, lalrtest.Tokens("NUM", 1)},
		{lalrtest.Calc(), lalrtest.CalcActions, lalrtest.Tokens("NUM", 1, "+", "+")},
		{lalrtest.Statements(), lalrtest.StatementActions, lalrtest.Tokens("NUM", 1, ";", ";", "NUM", 2)},
		{lalrtest.Lists(), lalrtest.ListActions, nil},
	}
	for i, in := range inputs {
		src := &countingSource{src: lalr.NewSliceSource(in.toks...)}
		p := newParser(t, in.g, in.a)
		_, err := p.Parse(context.Background(), src)
		require.NoError(t, err)
		require.Equal(t, 1, src.eofs, "case %d", i)
		require.Equal(t, len(in.toks)+1, src.calls, "case %d", i)
	}
}

func TestActionFaultAborts(t *testing.T) {
	p := newParser(t, lalrtest.Calc(), lalrtest.CalcActions)
	res, err := parse(p, lalrtest.Tokens("NUM", "one", "+", "+", "NUM", 2))
	require.Nil(t, res)
	require.Error(t, err)
	require.Contains(t, err.Error(), "cannot add one and 2")
	require.False(t, lalr.IsEngineBug(err))
}

func TestObserverFaultAborts(t *testing.T) {
	p := newParser(t, lalrtest.Statements(), lalrtest.StatementActions, lalr.WithErrorObserver(lalr.AbortOnError))
	res, err := parse(p, lalrtest.Tokens("NUM", 1, "NUM", 2, ";", ";"))
	require.Nil(t, res)
	require.True(t, lalr.ErrSyntax.Equal(err))
	require.Contains(t, err.Error(), "syntax error on NUM in state 3")
	require.False(t, lalr.IsEngineBug(err))
}

func TestTokenSourceFaults(t *testing.T) {
	p := newParser(t, lalrtest.Calc(), lalrtest.CalcActions)

	_, err := p.Parse(context.Background(), nil)
	require.True(t, lalr.ErrTokenContract.Equal(err))

	_, err = parse(p, []lalr.Token{{Symbol: "", Value: 1}})
	require.True(t, lalr.ErrTokenContract.Equal(err))

	boom := errors.New("lexer exploded")
	calls := 0
	_, err = p.Parse(context.Background(), lalr.TokenSourceFunc(func() (lalr.Token, error) {
		calls++
		if calls > 1 {
			return lalr.Token{}, boom
		}
		return lalr.Token{Symbol: "NUM", Value: 1}, nil
	}))
	require.Error(t, err)
	require.Equal(t, boom, errors.Cause(err))
	require.False(t, lalr.IsEngineBug(err))

	// a wrapped io.EOF still ends the input
	res, err := p.Parse(context.Background(), lalr.TokenSourceFunc(func() (lalr.Token, error) {
		return lalr.Token{}, errors.Trace(io.EOF)
	}))
	require.NoError(t, err)
	require.Equal(t, lalr.FailStackExhausted, res.Reason)
}

func TestMissingGotoIsEngineBug(t *testing.T) {
	g := lalrtest.Calc()
	g.Nonterminals[0].Gotos = map[int]int{0: 1}
	p := newParser(t, g, lalrtest.CalcActions)

	res, err := parse(p, lalrtest.Tokens("NUM", 1))
	require.NoError(t, err)
	require.Equal(t, 1, res.Value)

	res, err = parse(p, lalrtest.Tokens("NUM", 1, "+", "+", "NUM", 2))
	require.Nil(t, res)
	require.True(t, lalr.ErrMissingGoto.Equal(err))
	require.True(t, lalr.IsEngineBug(err))
}

func TestBadActionPointerRejected(t *testing.T) {
	ts := lalrtest.Calc().Pack()
	ts.ActionPointer[1] = len(ts.ActionTable) + 3
	p, err := lalr.New(ts, lalrtest.CalcActions)
	require.Nil(t, p)
	require.True(t, lalr.IsEngineBug(err))
	require.Contains(t, err.Error(), "lies outside the action table")
}

func TestForceGotoMiss(t *testing.T) {
	fp := "github.com/pingcap/racc/pkg/lalr/forceGotoMiss"
	require.NoError(t, failpoint.Enable(fp, "return(true)"))
	p := newParser(t, lalrtest.Calc(), lalrtest.CalcActions)
	_, err := parse(p, lalrtest.Tokens("NUM", 1))
	require.NoError(t, failpoint.Disable(fp))
	require.True(t, lalr.ErrMissingGoto.Equal(err))

	res, err := parse(p, lalrtest.Tokens("NUM", 1))
	require.NoError(t, err)
	require.True(t, res.Accepted())
}

func TestActionAccept(t *testing.T) {
	actions := lalr.ActionFunc(func(r *lalr.Reduction) (any, error) {
		if r.Action == lalrtest.CalcNum && r.Values[0] == 99 {
			return nil, lalr.ErrAccept
		}
		return lalrtest.CalcActions(r)
	})
	p := newParser(t, lalrtest.Calc(), actions)
	src := lalr.NewSliceSource(lalrtest.Tokens("NUM", 1, "+", "+", "NUM", 99, "+", "+", "NUM", 5)...)
	res, err := p.Parse(context.Background(), src)
	require.NoError(t, err)
	require.True(t, res.Accepted())
	require.Equal(t, 1, res.Value)
	require.Equal(t, 3, src.Consumed())
}

func TestContextCancelledChanSource(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := newParser(t, lalrtest.Calc(), lalrtest.CalcActions)
	_, err := p.Parse(ctx, lalr.NewChanSource(ctx, make(chan lalr.Token)))
	require.Error(t, err)
	require.Equal(t, context.Canceled, errors.Cause(err))
}

func TestChanSource(t *testing.T) {
	ch := make(chan lalr.Token)
	go func() {
		defer close(ch)
		for i := 1; i <= 10; i++ {
			if i > 1 {
				ch <- lalr.Token{Symbol: "+"}
			}
			ch <- lalr.Token{Symbol: "NUM", Value: i}
		}
	}()
	p := newParser(t, lalrtest.Calc(), lalrtest.CalcActions)
	res, err := p.Parse(context.Background(), lalr.NewChanSource(context.Background(), ch))
	require.NoError(t, err)
	require.Equal(t, 55, res.Value)
}

func TestConcurrentParsesShareTables(t *testing.T) {
	p := newParser(t, lalrtest.Calc(), lalrtest.CalcActions)
	var eg errgroup.Group
	results := make([]any, 64)
	for n := range results {
		eg.Go(func() error {
			toks := lalrtest.Tokens("NUM", 0)
			for i := 1; i <= n; i++ {
				toks = append(toks, lalrtest.Tokens("+", "+", "NUM", i)...)
			}
			res, err := parse(p, toks)
			if err != nil {
				return err
			}
			if !res.Accepted() {
				return fmt.Errorf("parse %d failed: %s", n, res.Reason)
			}
			results[n] = res.Value
			return nil
		})
	}
	require.NoError(t, eg.Wait())
	for n, v := range results {
		require.Equal(t, n*(n+1)/2, v)
	}
}

func TestParseMetrics(t *testing.T) {
	accepted := metrics.ParseCounter.WithLabelValues(metrics.LblAccepted)
	failed := metrics.ParseCounter.WithLabelValues(metrics.LblFailed)
	fault := metrics.ParseCounter.WithLabelValues(metrics.LblFault)
	shifts := metrics.ActionCounter.WithLabelValues(metrics.LblShift)
	a0, f0, x0, s0 := metrics.ReadCounter(accepted), metrics.ReadCounter(failed), metrics.ReadCounter(fault), metrics.ReadCounter(shifts)
	e0 := metrics.ReadCounter(metrics.SyntaxErrorCounter)

	p := newParser(t, lalrtest.Calc(), lalrtest.CalcActions)
	_, err := parse(p, lalrtest.Tokens("NUM", 1, "+", "+", "NUM", 2))
	require.NoError(t, err)
	_, err = parse(p, lalrtest.Tokens("NUM", 1, "NUM", 2))
	require.NoError(t, err)
	_, err = parse(p, lalrtest.Tokens("NUM", "x", "+", "+", "NUM", 2))
	require.Error(t, err)

	require.Equal(t, a0+1, metrics.ReadCounter(accepted))
	require.Equal(t, f0+1, metrics.ReadCounter(failed))
	require.Equal(t, x0+1, metrics.ReadCounter(fault))
	require.Equal(t, s0+7, metrics.ReadCounter(shifts))
	require.Equal(t, e0+1, metrics.ReadCounter(metrics.SyntaxErrorCounter))
}

func TestParseLogging(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	ctx := logutil.WithLogger(context.Background(), zap.New(core))

	p := newParser(t, lalrtest.Calc(), lalrtest.CalcActions)
	res, err := p.Parse(ctx, lalr.NewSliceSource(lalrtest.Tokens("NUM", 1, "%", "%")...))
	// An unknown symbol is a syntax error, not a fault.
	require.NoError(t, err)
	require.False(t, res.Accepted())
	require.Equal(t, 1, res.SyntaxErrors)

	unknown := recorded.FilterMessage("unknown token symbol, treated as error token").All()
	require.Len(t, unknown, 1)
	require.Equal(t, "%", unknown[0].ContextMap()["symbol"])
	require.Equal(t, "lalr", unknown[0].ContextMap()[logutil.LogFieldCategory])

	finished := recorded.FilterMessage("parse finished").All()
	require.Len(t, finished, 1)
	require.Equal(t, "failed", finished[0].ContextMap()["status"])
	require.EqualValues(t, 1, finished[0].ContextMap()["syntax-errors"])

	_, err = p.Parse(ctx, lalr.NewSliceSource(lalr.Token{}))
	require.Error(t, err)
	require.Equal(t, 1, recorded.FilterMessage("parse aborted").Len())

	core, recorded = observer.New(zapcore.DebugLevel)
	ctx = logutil.WithKeyValue(logutil.WithLogger(context.Background(), zap.New(core)), "file", "a.tok")
	_, err = p.Parse(ctx, lalr.NewSliceSource(lalrtest.Tokens("NUM", 1)...))
	require.NoError(t, err)
	finished = recorded.FilterMessage("parse finished").All()
	require.Len(t, finished, 1)
	require.Equal(t, "a.tok", finished[0].ContextMap()["file"])
}

func TestParseSpan(t *testing.T) {
	tracer := mocktracer.New()
	span := tracer.StartSpan("root")
	ctx := opentracing.ContextWithSpan(context.Background(), span)

	p := newParser(t, lalrtest.Calc(), lalrtest.CalcActions)
	_, err := p.Parse(ctx, lalr.NewSliceSource(lalrtest.Tokens("NUM", 1)...))
	require.NoError(t, err)
	span.Finish()

	finished := tracer.FinishedSpans()
	require.Len(t, finished, 2)
	require.Equal(t, "lalr.Parse", finished[0].OperationName)
	require.NotEmpty(t, finished[0].Logs())
}

func TestParseSpanRecovery(t *testing.T) {
	tracer := mocktracer.New()
	span := tracer.StartSpan("root")
	ctx := opentracing.ContextWithSpan(context.Background(), span)

	p := newParser(t, lalrtest.Statements(), lalrtest.StatementActions)
	res, err := p.Parse(ctx, lalr.NewSliceSource(lalrtest.Tokens("NUM", 1, ";", nil, "NUM", 2, "NUM", 3, ";", nil)...))
	require.NoError(t, err)
	require.True(t, res.Accepted())
	require.Equal(t, 1, res.SyntaxErrors)
	span.Finish()

	finished := tracer.FinishedSpans()
	require.Len(t, finished, 2)
	var events []string
	for _, l := range finished[0].Logs() {
		for _, f := range l.Fields {
			if f.Key == logutil.TraceEventKey {
				events = append(events, f.ValueString)
			}
		}
	}
	require.Contains(t, events, "syntax error")
	require.Contains(t, events, "parse accepted")
	popped := false
	for _, e := range events {
		popped = popped || strings.HasPrefix(e, "recovery popped ")
	}
	require.True(t, popped, "events: %v", events)
}
