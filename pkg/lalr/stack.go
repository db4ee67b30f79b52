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

type stack[T any] struct {
	items []T
}

func newStack[T any](capacity int) stack[T] {
	return stack[T]{items: make([]T, 0, capacity)}
}

func (s *stack[T]) push(v T) {
	s.items = append(s.items, v)
}

func (s *stack[T]) pop() T {
	v := s.items[len(s.items)-1]
	var zero T
	s.items[len(s.items)-1] = zero
	s.items = s.items[:len(s.items)-1]
	return v
}

func (s *stack[T]) top() T {
	return s.items[len(s.items)-1]
}

func (s *stack[T]) at(i int) T {
	return s.items[i]
}

func (s *stack[T]) len() int {
	return len(s.items)
}

// tail returns a copy of the top n entries, bottom first.
func (s *stack[T]) tail(n int) []T {
	out := make([]T, n)
	copy(out, s.items[len(s.items)-n:])
	return out
}

// cut drops the top n entries.
func (s *stack[T]) cut(n int) {
	var zero T
	for i := len(s.items) - n; i < len(s.items); i++ {
		s.items[i] = zero
	}
	s.items = s.items[:len(s.items)-n]
}

// view returns the live backing slice.
func (s *stack[T]) view() []T {
	return s.items
}

// stacks keeps the state, value and (optional) symbol stacks of one parse in
// lock step: values and symbols always hold exactly one entry fewer than
// states.
type stacks struct {
	states  stack[int]
	values  stack[any]
	symbols stack[int]
	tracing bool
}

func newStacks(capacity int, tracing bool) *stacks {
	s := &stacks{
		states:  newStack[int](capacity),
		values:  newStack[any](capacity),
		tracing: tracing,
	}
	if tracing {
		s.symbols = newStack[int](capacity)
	}
	s.states.push(0)
	return s
}

func (s *stacks) state() int {
	return s.states.top()
}

func (s *stacks) depth() int {
	return s.states.len()
}

// shift pushes a symbol with its value and the state entered on it.
func (s *stacks) shift(state, sym int, val any) {
	s.values.push(val)
	if s.tracing {
		s.symbols.push(sym)
	}
	s.states.push(state)
}

// pushGoto pushes the result of a reduction and the goto target.
func (s *stacks) pushGoto(state, lhs int, val any) {
	s.shift(state, lhs, val)
}

// popOne discards the top level of every stack.
func (s *stacks) popOne() {
	s.states.pop()
	s.values.pop()
	if s.tracing {
		s.symbols.pop()
	}
}

// cut pops n levels and returns the popped values and symbols. With
// copyValues unset only the first popped value is kept.
func (s *stacks) cut(n int, copyValues bool) (vals []any, first any, syms []int) {
	if n == 0 {
		if copyValues {
			vals = []any{}
		}
		if s.tracing {
			syms = []int{}
		}
		return vals, nil, syms
	}
	first = s.values.at(s.values.len() - n)
	if copyValues {
		vals = s.values.tail(n)
	}
	s.values.cut(n)
	if s.tracing {
		syms = s.symbols.tail(n)
		s.symbols.cut(n)
	}
	s.states.cut(n)
	return vals, first, syms
}

// verify checks the length invariant.
func (s *stacks) verify() error {
	if s.states.len() == 0 || s.values.len() != s.states.len()-1 ||
		(s.tracing && s.symbols.len() != s.values.len()) {
		return ErrStackInvariant.GenWithStackByArgs(s.states.len(), s.values.len())
	}
	return nil
}

// bottom returns the deepest value, or nil when the value stack is empty.
func (s *stacks) bottom() any {
	if s.values.len() == 0 {
		return nil
	}
	return s.values.at(0)
}

// snapshot exposes the live stacks to a tracer.
func (s *stacks) snapshot() Snapshot {
	return Snapshot{
		States:  s.states.view(),
		Symbols: s.symbols.view(),
		Values:  s.values.view(),
	}
}
