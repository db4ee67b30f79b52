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
	"slices"
	"sync"

	"github.com/pingcap/racc/pkg/lalr"
)

// EventKind identifies an engine event.
type EventKind int

// Event kinds.
const (
	EventReadToken EventKind = iota
	EventShift
	EventReduce
	EventErrorPop
	EventNextState
	EventAccept
)

var eventKindNames = [...]string{
	EventReadToken: "read",
	EventShift:     "shift",
	EventReduce:    "reduce",
	EventErrorPop:  "e-pop",
	EventNextState: "goto",
	EventAccept:    "accept",
}

// String implements fmt.Stringer.
func (k EventKind) String() string {
	if int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "unknown"
}

// Event is one recorded engine event with a copy of the stacks.
type Event struct {
	Kind   EventKind
	Token  int
	Symbol string
	Value  any
	Rule   int
	LHS    int
	Popped []int
	State  int

	States  []int
	Symbols []int
	Values  []any
}

// Recorder keeps every event in memory. It is safe for concurrent use, but
// events of concurrent parses interleave.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

var _ lalr.Tracer = (*Recorder)(nil)

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) add(e Event, s lalr.Snapshot) {
	e.States = slices.Clone(s.States)
	e.Symbols = slices.Clone(s.Symbols)
	e.Values = slices.Clone(s.Values)
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// OnReadToken implements lalr.Tracer.
func (r *Recorder) OnReadToken(tok int, symbol string, val any) {
	r.mu.Lock()
	r.events = append(r.events, Event{Kind: EventReadToken, Token: tok, Symbol: symbol, Value: val})
	r.mu.Unlock()
}

// OnShift implements lalr.Tracer.
func (r *Recorder) OnShift(tok int, s lalr.Snapshot) {
	r.add(Event{Kind: EventShift, Token: tok}, s)
}

// OnReduce implements lalr.Tracer.
func (r *Recorder) OnReduce(rule int, popped []int, lhs int, s lalr.Snapshot) {
	r.add(Event{Kind: EventReduce, Rule: rule, Popped: slices.Clone(popped), LHS: lhs}, s)
}

// OnErrorPop implements lalr.Tracer.
func (r *Recorder) OnErrorPop(s lalr.Snapshot) {
	r.add(Event{Kind: EventErrorPop}, s)
}

// OnNextState implements lalr.Tracer.
func (r *Recorder) OnNextState(state int, s lalr.Snapshot) {
	r.add(Event{Kind: EventNextState, State: state}, s)
}

// OnAccept implements lalr.Tracer.
func (r *Recorder) OnAccept(s lalr.Snapshot) {
	r.add(Event{Kind: EventAccept}, s)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Kinds returns the kinds of the recorded events, optionally keeping only
// the listed ones.
func (r *Recorder) Kinds(only ...EventKind) []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]EventKind, 0, len(r.events))
	for _, e := range r.events {
		if len(only) == 0 || slices.Contains(only, e.Kind) {
			kinds = append(kinds, e.Kind)
		}
	}
	return kinds
}

// Reset drops all events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
