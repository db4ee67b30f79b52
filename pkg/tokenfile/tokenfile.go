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

// Package tokenfile reads token streams written one token per line:
//
//	# comment
//	NUM 42
//	+
//	STRING "hello\tworld"
//
// The first field is the token symbol and the rest of the line, if any, is
// its value. Quoted values are unquoted with Go syntax, integer and float
// literals become int and float64, true and false become bool and anything
// else is kept as a string. A symbol may itself be quoted to carry spaces or
// a leading '#'.
package tokenfile

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pingcap/errors"
	"github.com/pingcap/racc/pkg/lalr"
	"github.com/pingcap/racc/pkg/terror"
)

const codeBadLine terror.ErrCode = 101

// ErrBadLine is returned for a line that cannot be turned into a token.
var ErrBadLine = terror.ClassToken.New(codeBadLine, "%s:%d: %s")

// Reader is a lalr.TokenSource over a token file.
type Reader struct {
	sc   *bufio.Scanner
	name string
	line int
}

var _ lalr.TokenSource = (*Reader)(nil)

// NewReader reads tokens from r. name is used in error messages.
func NewReader(r io.Reader, name string) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Reader{sc: sc, name: name}
}

// NextToken implements lalr.TokenSource. It returns io.EOF after the last
// token.
func (r *Reader) NextToken() (lalr.Token, error) {
	for r.sc.Scan() {
		r.line++
		tok, ok, err := ParseLine(r.sc.Text())
		if err != nil {
			return lalr.Token{}, ErrBadLine.GenWithStackByArgs(r.name, r.line, err.Error())
		}
		if ok {
			return tok, nil
		}
	}
	if err := r.sc.Err(); err != nil {
		return lalr.Token{}, errors.Annotatef(err, "read %s", r.name)
	}
	return lalr.Token{}, io.EOF
}

// Line returns the number of the last line read.
func (r *Reader) Line() int {
	return r.line
}

// ReadAll reads every token of r.
func ReadAll(r io.Reader, name string) ([]lalr.Token, error) {
	src := NewReader(r, name)
	var toks []lalr.Token
	for {
		tok, err := src.NextToken()
		if err == io.EOF {
			return toks, nil
		}
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
	}
}

// ReadFile reads every token of the file at path.
func ReadFile(path string) ([]lalr.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()
	return ReadAll(f, path)
}

// ParseLine parses one line. It reports false for blank and comment lines.
func ParseLine(line string) (lalr.Token, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" || line[0] == '#' {
		return lalr.Token{}, false, nil
	}

	var sym, rest string
	if line[0] == '"' || line[0] == '`' {
		quoted, err := strconv.QuotedPrefix(line)
		if err != nil {
			return lalr.Token{}, false, errors.Errorf("bad quoted symbol %s", line)
		}
		sym, _ = strconv.Unquote(quoted)
		rest = line[len(quoted):]
		if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
			return lalr.Token{}, false, errors.Errorf("no space after quoted symbol %s", quoted)
		}
	} else if i := strings.IndexAny(line, " \t"); i >= 0 {
		sym, rest = line[:i], line[i:]
	} else {
		sym = line
	}
	if sym == "" {
		return lalr.Token{}, false, errors.New("empty symbol")
	}

	val, err := parseValue(strings.TrimSpace(rest))
	if err != nil {
		return lalr.Token{}, false, err
	}
	return lalr.Token{Symbol: sym, Value: val}, true, nil
}

func parseValue(s string) (any, error) {
	if s == "" {
		return nil, nil
	}
	switch s[0] {
	case '"', '`', '\'':
		if s[0] == '\'' && !isCharLiteral(s) {
			return s, nil
		}
		v, err := strconv.Unquote(s)
		if err != nil {
			return nil, errors.Errorf("bad quoted value %s", s)
		}
		return v, nil
	}
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	if !startsNumber(s) {
		return s, nil
	}
	if i, err := strconv.ParseInt(s, 0, strconv.IntSize); err == nil {
		return int(i), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}
	return s, nil
}

func startsNumber(s string) bool {
	c := s[0]
	if (c == '-' || c == '+') && len(s) > 1 {
		c = s[1]
	}
	return (c >= '0' && c <= '9') || c == '.'
}

// isCharLiteral reports whether s is a single Go character literal such as
// 'a' or '\n'. Other single-quoted text is kept as it is.
func isCharLiteral(s string) bool {
	if len(s) < 3 || s[len(s)-1] != '\'' {
		return false
	}
	_, _, tail, err := strconv.UnquoteChar(s[1:len(s)-1], '\'')
	return err == nil && tail == ""
}
