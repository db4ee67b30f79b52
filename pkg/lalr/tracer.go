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

// Snapshot is a read-only view of the live stacks at a trace point. The
// slices are reused by the engine and must be copied to be kept.
type Snapshot struct {
	States  []int
	Symbols []int
	Values  []any
}

// Tracer observes engine events. Configuring one makes the engine keep a
// symbol stack alongside the value stack.
type Tracer interface {
	// OnReadToken is called after a lookahead is mapped to its id.
	OnReadToken(tok int, symbol string, val any)
	// OnShift is called after a token has been shifted.
	OnShift(tok int, s Snapshot)
	// OnReduce is called once the reduction result and the goto target
	// have been pushed. popped holds the symbols of the right-hand side.
	OnReduce(rule int, popped []int, lhs int, s Snapshot)
	// OnErrorPop is called after error recovery discarded one level.
	OnErrorPop(s Snapshot)
	// OnNextState is called after every step that did not end the parse.
	OnNextState(state int, s Snapshot)
	// OnAccept is called when the input is accepted.
	OnAccept(s Snapshot)
}

// NopTracer ignores every event.
type NopTracer struct{}

// OnReadToken implements Tracer.
func (NopTracer) OnReadToken(int, string, any) {}

// OnShift implements Tracer.
func (NopTracer) OnShift(int, Snapshot) {}

// OnReduce implements Tracer.
func (NopTracer) OnReduce(int, []int, int, Snapshot) {}

// OnErrorPop implements Tracer.
func (NopTracer) OnErrorPop(Snapshot) {}

// OnNextState implements Tracer.
func (NopTracer) OnNextState(int, Snapshot) {}

// OnAccept implements Tracer.
func (NopTracer) OnAccept(Snapshot) {}

// MultiTracer fans every event out to all of its tracers in order.
type MultiTracer []Tracer

// OnReadToken implements Tracer.
func (m MultiTracer) OnReadToken(tok int, symbol string, val any) {
	for _, t := range m {
		t.OnReadToken(tok, symbol, val)
	}
}

// OnShift implements Tracer.
func (m MultiTracer) OnShift(tok int, s Snapshot) {
	for _, t := range m {
		t.OnShift(tok, s)
	}
}

// OnReduce implements Tracer.
func (m MultiTracer) OnReduce(rule int, popped []int, lhs int, s Snapshot) {
	for _, t := range m {
		t.OnReduce(rule, popped, lhs, s)
	}
}

// OnErrorPop implements Tracer.
func (m MultiTracer) OnErrorPop(s Snapshot) {
	for _, t := range m {
		t.OnErrorPop(s)
	}
}

// OnNextState implements Tracer.
func (m MultiTracer) OnNextState(state int, s Snapshot) {
	for _, t := range m {
		t.OnNextState(state, s)
	}
}

// OnAccept implements Tracer.
func (m MultiTracer) OnAccept(s Snapshot) {
	for _, t := range m {
		t.OnAccept(s)
	}
}
