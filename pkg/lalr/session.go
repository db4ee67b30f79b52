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

import "context"

// Session is a parse driven by a lexer that pushes tokens. The automaton
// runs inside Feed and End until it needs the next token.
type Session struct {
	ps     *parse
	done   bool
	result *Result
	err    error
}

// NewSession starts a push-style parse.
func (p *Parser) NewSession(ctx context.Context) *Session {
	return &Session{ps: p.newParse(ctx)}
}

// Feed hands the next token to the parse. It returns a nil result while the
// parse wants more input. A token given after End, or after the parse has
// finished, is a contract violation.
func (s *Session) Feed(tok Token) (*Result, error) {
	if s.ps.eof || s.ps.pendingEOF {
		return nil, ErrTokenContract.GenWithStackByArgs("token given after EOF")
	}
	if s.done {
		return nil, ErrTokenContract.GenWithStackByArgs("token given after the parse finished")
	}
	s.ps.pending = &tok
	return s.resume()
}

// End signals the end of input and returns the outcome of the parse. Calling
// it again returns the same outcome.
func (s *Session) End() (*Result, error) {
	if s.done {
		return s.result, s.err
	}
	s.ps.pendingEOF = true
	return s.resume()
}

// Done reports whether the parse has terminated.
func (s *Session) Done() bool {
	return s.done
}

func (s *Session) resume() (*Result, error) {
	needToken, err := s.ps.run(nil)
	if err == nil && needToken {
		return nil, nil
	}
	s.done = true
	s.result, s.err = s.ps.finish(err)
	return s.result, s.err
}
