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

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"github.com/pingcap/racc/pkg/config"
	"github.com/pingcap/racc/pkg/cst"
	"github.com/pingcap/racc/pkg/lalr"
	"github.com/pingcap/racc/pkg/lalr/tracing"
	"github.com/pingcap/racc/pkg/terror"
	"github.com/pingcap/racc/pkg/tokenfile"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	flagInput        = "input"
	flagTrace        = "trace"
	flagTraceFormat  = "trace-format"
	flagColor        = "color"
	flagOutline      = "outline"
	flagMaxErrors    = "max-errors"
	flagAbortOnError = "abort-on-error"
	flagStackCap     = "stack-capacity"
)

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse a token file and print its syntax tree",
		Long: `Parse a token file and print its syntax tree.

The token file holds one token per line, the symbol followed by an optional
value. The parse exits with an error when the input cannot be recovered.`,
		Args: cobra.NoArgs,
		RunE: runParse,
	}
	addTablesFlag(cmd)
	cmd.Flags().StringP(flagInput, "i", "", "Token file to parse, standard input when empty")
	cmd.Flags().Bool(flagColor, false, "Colorize the text trace")
	cmd.Flags().Bool(flagOutline, false, "Print the tree as an indented outline")
	cmd.Flags().Int(flagMaxErrors, 0, "Give up after this many syntax errors, 0 means no limit")
	defineParserFlags(cmd.Flags())
	return cmd
}

// defineParserFlags defines the flags that override the parser section of
// the config.
func defineParserFlags(flags *pflag.FlagSet) {
	flags.Bool(flagTrace, false, "Report every engine event")
	flags.String(flagTraceFormat, config.TraceFormatText, "Trace format, text or log. Log traces are written at debug level")
	flags.Bool(flagAbortOnError, false, "Stop at the first syntax error instead of recovering")
	flags.Int(flagStackCap, config.DefStackCapacity, "Initial capacity of the parse stacks")
}

type parseOutput struct {
	colored   bool
	outline   bool
	maxErrors int
}

func outputFlags(flags *pflag.FlagSet) (parseOutput, error) {
	var (
		out parseOutput
		err error
	)
	if out.colored, err = flags.GetBool(flagColor); err != nil {
		return out, errors.Trace(err)
	}
	if out.outline, err = flags.GetBool(flagOutline); err != nil {
		return out, errors.Trace(err)
	}
	if out.maxErrors, err = flags.GetInt(flagMaxErrors); err != nil {
		return out, errors.Trace(err)
	}
	return out, nil
}

// parserConfig returns the parser section of the global config with the
// command line overrides applied.
func parserConfig(flags *pflag.FlagSet) (config.Parser, error) {
	conf := config.GetGlobalConfig().Parser
	var err error
	if flags.Changed(flagTrace) {
		if conf.Trace, err = flags.GetBool(flagTrace); err != nil {
			return conf, errors.Trace(err)
		}
	}
	if flags.Changed(flagTraceFormat) {
		if conf.TraceFormat, err = flags.GetString(flagTraceFormat); err != nil {
			return conf, errors.Trace(err)
		}
	}
	if flags.Changed(flagAbortOnError) {
		if conf.AbortOnError, err = flags.GetBool(flagAbortOnError); err != nil {
			return conf, errors.Trace(err)
		}
	}
	if flags.Changed(flagStackCap) {
		if conf.StackCapacity, err = flags.GetInt(flagStackCap); err != nil {
			return conf, errors.Trace(err)
		}
	}
	switch conf.TraceFormat {
	case config.TraceFormatText, config.TraceFormatLog:
	default:
		return conf, config.ErrInvalidConfig.GenWithStackByArgs("trace format must be text or log, got " + conf.TraceFormat)
	}
	return conf, nil
}

// parserOptions turns a parser config into engine options. observer is used
// unless the config asks to abort on the first error.
func parserOptions(conf config.Parser, ts *lalr.TableSet, traceOut io.Writer, colored bool, observer lalr.ErrorObserver) []lalr.Option {
	if conf.AbortOnError {
		observer = lalr.AbortOnError
	}
	opts := []lalr.Option{
		lalr.WithStackCapacity(conf.StackCapacity),
		lalr.WithErrorObserver(observer),
	}
	if conf.Trace {
		if conf.TraceFormat == config.TraceFormatLog {
			opts = append(opts, lalr.WithTracer(tracing.NewLogTracer(log.L(), ts)))
		} else {
			opts = append(opts, lalr.WithTracer(tracing.NewPrinter(traceOut, ts, colored)))
		}
	}
	return opts
}

func openInput(cmd *cobra.Command) (lalr.TokenSource, func(), error) {
	path, err := cmd.Flags().GetString(flagInput)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	if path == "" || path == "-" {
		return tokenfile.NewReader(cmd.InOrStdin(), "<stdin>"), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	return tokenfile.NewReader(f, path), func() { terror.Log(f.Close()) }, nil
}

func runParse(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	conf, err := parserConfig(flags)
	if err != nil {
		return err
	}
	out, err := outputFlags(flags)
	if err != nil {
		return err
	}

	ts, _, err := loadTables(cmd)
	if err != nil {
		return err
	}
	src, closeInput, err := openInput(cmd)
	if err != nil {
		return err
	}
	defer closeInput()

	b := cst.NewBuilder(ts)
	b.MaxErrors = out.maxErrors
	p, err := lalr.New(ts, b, parserOptions(conf, ts, cmd.ErrOrStderr(), out.colored, b)...)
	if err != nil {
		return err
	}
	res, err := p.Parse(cmd.Context(), b.Source(src))

	w := cmd.OutOrStdout()
	for _, e := range b.Errors() {
		fmt.Fprintln(w, formatSyntaxError(e))
	}
	if err != nil {
		return errors.Annotate(err, "parse aborted")
	}
	if !res.Accepted() {
		return errors.Errorf("parse failed after %d syntax errors: %s", res.SyntaxErrors, res.Reason)
	}

	root := cst.Root(res)
	switch {
	case root == nil:
		fmt.Fprintln(w, "()")
	case out.outline:
		return errors.Trace(root.Dump(w))
	default:
		fmt.Fprintln(w, root)
	}
	return nil
}

// formatSyntaxError prints a syntax error with the raw token value instead of
// its leaf node.
func formatSyntaxError(e lalr.SyntaxError) string {
	if leaf, ok := e.Value.(*cst.Node); ok {
		e.Value = leaf.Value
	}
	return e.Error()
}
