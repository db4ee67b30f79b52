// Copyright 2015 PingCAP, Inc.
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

package terror

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// ErrClass represents a class of errors.
type ErrClass int

// ErrCode represents a specific error type in a error class.
// Same error code can be used in different error classes.
type ErrCode int

// Error is the normalized error type shared by every class.
type Error = errors.Error

// Error classes
const (
	ClassEngine ErrClass = iota + 1
	ClassTable
	ClassToken
	ClassSyntax
	ClassHost
	ClassConfig
	// Add more as needed.
)

var errClass2Desc = map[ErrClass]string{
	ClassEngine: "engine",
	ClassTable:  "table",
	ClassToken:  "token",
	ClassSyntax: "syntax",
	ClassHost:   "host",
	ClassConfig: "config",
}

// String implements fmt.Stringer interface.
func (ec ErrClass) String() string {
	if s, ok := errClass2Desc[ec]; ok {
		return s
	}
	return strconv.Itoa(int(ec))
}

func (ec ErrClass) rfcPrefix() string {
	return "racc:" + ec.String() + ":"
}

// New defines an *Error with an error code and a message format.
// Arguments are supplied later through GenWithStackByArgs or FastGenByArgs.
func (ec ErrClass) New(code ErrCode, message string) *Error {
	return errors.Normalize(message,
		errors.RFCCodeText(fmt.Sprintf("%s%d", ec.rfcPrefix(), code)),
		errors.MySQLErrorCode(int(code)),
	)
}

// Equal returns true if err is *Error with the same class and code.
func (ec ErrClass) Equal(err error, code ErrCode) bool {
	te, ok := errors.Cause(err).(*Error)
	if !ok {
		return false
	}
	return string(te.RFCCode()) == fmt.Sprintf("%s%d", ec.rfcPrefix(), code)
}

// NotEqual returns true if err is not *Error with the same class
// and the same code.
func (ec ErrClass) NotEqual(err error, code ErrCode) bool {
	return !ec.Equal(err, code)
}

// EqualClass returns true if err is *Error with the same class.
func (ec ErrClass) EqualClass(err error) bool {
	te, ok := errors.Cause(err).(*Error)
	if !ok {
		return false
	}
	return strings.HasPrefix(string(te.RFCCode()), ec.rfcPrefix())
}

// NotEqualClass returns true if err is not *Error with the same class.
func (ec ErrClass) NotEqualClass(err error) bool {
	return !ec.EqualClass(err)
}

// ErrorEqual returns a boolean indicating whether err1 is equal to err2.
func ErrorEqual(err1, err2 error) bool {
	e1 := errors.Cause(err1)
	e2 := errors.Cause(err2)

	if e1 == e2 {
		return true
	}

	if e1 == nil || e2 == nil {
		return e1 == e2
	}

	te1, ok1 := e1.(*Error)
	te2, ok2 := e2.(*Error)
	if ok1 && ok2 {
		return te1.RFCCode() == te2.RFCCode()
	}

	return e1.Error() == e2.Error()
}

// ErrorNotEqual returns a boolean indicating whether err1 isn't equal to err2.
func ErrorNotEqual(err1, err2 error) bool {
	return !ErrorEqual(err1, err2)
}

// Call executes a function and checks the returned err.
func Call(fn func() error) {
	err := fn()
	if err != nil {
		log.Error("function call errored", zap.Error(err), zap.Stack("stack"))
	}
}

// Log logs the error if it is not nil.
func Log(err error) {
	if err != nil {
		log.Error("encountered error", zap.Error(err), zap.Stack("stack"))
	}
}
