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

// recoverShifts is the number of tokens that must be shifted after an error
// before the next one is reported again.
const recoverShifts = 3

// recover resynchronizes the automaton after a syntax error. It pops states
// until one has an explicit action on the error token and performs that
// action with the pending lookahead value. A second error at the end of input
// while still recovering, or a stack with no such state, fails the parse.
func (ps *parse) recover() (bool, error) {
	t := ps.p.tables
	for {
		if ps.errStatus == recoverShifts {
			if ps.tok == EOFToken {
				ps.fail(FailEndOfInput)
				return true, nil
			}
			// discard the offending lookahead
			ps.readNext = true
		}
		ps.errStatus = recoverShifts

		act, ok := ps.p.lookup.ExplicitAction(ps.stk.state(), ErrorToken)
		for !ok {
			if ps.stk.depth() <= 1 {
				ps.fail(FailStackExhausted)
				return true, nil
			}
			ps.stk.popOne()
			ps.pops++
			if ps.tracing {
				ps.p.tracer.OnErrorPop(ps.stk.snapshot())
			}
			act, ok = ps.p.lookup.ExplicitAction(ps.stk.state(), ErrorToken)
		}

		switch {
		case t.IsShift(act):
			ps.shift(act, ErrorToken)
			return false, nil
		case t.IsReduce(act):
			outcome, err := ps.reduce(-act)
			if err != nil {
				return true, err
			}
			if outcome == outcomeRaise {
				continue
			}
			return ps.afterReduce(outcome)
		case act == t.AcceptAction():
			ps.accept()
			return true, nil
		}
		return true, ErrUnknownAction.GenWithStackByArgs(act, ps.stk.state())
	}
}
