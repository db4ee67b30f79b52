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
	"github.com/pingcap/racc/pkg/lalr"
	"go.uber.org/zap"
)

// LogTracer writes one debug record per engine event.
type LogTracer struct {
	logger *zap.Logger
	names  []string
	tables *lalr.TableSet
}

var _ lalr.Tracer = (*LogTracer)(nil)

// NewLogTracer creates a LogTracer that names symbols from tables.
func NewLogTracer(logger *zap.Logger, tables *lalr.TableSet) *LogTracer {
	return &LogTracer{
		logger: logger.With(zap.String("category", "lalr-trace")),
		names:  tables.SymbolNameTable(),
		tables: tables,
	}
}

func (t *LogTracer) name(id int) string {
	if id >= 0 && id < len(t.names) {
		return t.names[id]
	}
	return t.tables.SymbolName(id)
}

func (t *LogTracer) symbolNames(ids []int) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = t.name(id)
	}
	return out
}

// OnReadToken implements lalr.Tracer.
func (t *LogTracer) OnReadToken(tok int, symbol string, val any) {
	t.logger.Debug("read token", zap.Int("id", tok), zap.String("token", t.name(tok)),
		zap.String("symbol", symbol), zap.Any("value", val))
}

// OnShift implements lalr.Tracer.
func (t *LogTracer) OnShift(tok int, s lalr.Snapshot) {
	t.logger.Debug("shift", zap.String("token", t.name(tok)), zap.Ints("states", s.States))
}

// OnReduce implements lalr.Tracer.
func (t *LogTracer) OnReduce(rule int, popped []int, lhs int, s lalr.Snapshot) {
	t.logger.Debug("reduce", zap.Int("rule", rule), zap.Strings("rhs", t.symbolNames(popped)),
		zap.String("lhs", t.name(lhs)), zap.Ints("states", s.States))
}

// OnErrorPop implements lalr.Tracer.
func (t *LogTracer) OnErrorPop(s lalr.Snapshot) {
	t.logger.Debug("error recovering, pop state", zap.Ints("states", s.States))
}

// OnNextState implements lalr.Tracer.
func (t *LogTracer) OnNextState(state int, _ lalr.Snapshot) {
	t.logger.Debug("goto", zap.Int("state", state))
}

// OnAccept implements lalr.Tracer.
func (t *LogTracer) OnAccept(s lalr.Snapshot) {
	t.logger.Debug("accept", zap.Strings("symbols", t.symbolNames(s.Symbols)))
}
