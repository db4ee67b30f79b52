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
	"io"
)

// SliceSource yields a fixed list of tokens and then io.EOF.
type SliceSource struct {
	tokens []Token
	pos    int
}

// NewSliceSource creates a SliceSource over tokens.
func NewSliceSource(tokens ...Token) *SliceSource {
	return &SliceSource{tokens: tokens}
}

// NextToken implements TokenSource.
func (s *SliceSource) NextToken() (Token, error) {
	if s.pos >= len(s.tokens) {
		return Token{}, io.EOF
	}
	tok := s.tokens[s.pos]
	s.pos++
	return tok, nil
}

// Consumed returns how many tokens have been handed out.
func (s *SliceSource) Consumed() int {
	return s.pos
}

// ChanSource reads tokens from a channel until it is closed. A cancelled
// context ends the read with the context's error.
type ChanSource struct {
	ctx context.Context
	ch  <-chan Token
}

// NewChanSource creates a ChanSource.
func NewChanSource(ctx context.Context, ch <-chan Token) *ChanSource {
	return &ChanSource{ctx: ctx, ch: ch}
}

// NextToken implements TokenSource.
func (s *ChanSource) NextToken() (Token, error) {
	select {
	case <-s.ctx.Done():
		return Token{}, s.ctx.Err()
	case tok, ok := <-s.ch:
		if !ok {
			return Token{}, io.EOF
		}
		return tok, nil
	}
}
