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
	"github.com/pingcap/errors"
	"github.com/pingcap/racc/pkg/config"
	"github.com/pingcap/racc/pkg/lalr"
	"github.com/pingcap/racc/pkg/tableio"
	"github.com/pingcap/racc/pkg/util/logutil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	flagConfig    = "config"
	flagLogLevel  = "log-level"
	flagLogFile   = "log-file"
	flagLogFormat = "log-format"
	flagTables    = "tables"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "racc",
		Short:        "racc runs compiled LALR(1) parse tables against token streams.",
		SilenceUsage: true,
		// main reports the error itself.
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initGlobal(cmd)
		},
	}
	defineCommonFlags(rootCmd)
	rootCmd.AddCommand(
		newCheckCmd(),
		newDumpCmd(),
		newParseCmd(),
		newBatchCmd(),
	)
	return rootCmd
}

// defineCommonFlags defines the flags shared by every subcommand.
func defineCommonFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String(flagConfig, "", "Path of the config file")
	cmd.PersistentFlags().StringP(flagLogLevel, "L", logutil.DefaultLogLevel, "Set the log level")
	cmd.PersistentFlags().String(flagLogFile, "", "Set the log file path. Logs go to stdout when empty")
	cmd.PersistentFlags().String(flagLogFormat, logutil.DefaultLogFormat, "Set the log format")
}

func addTablesFlag(cmd *cobra.Command) {
	cmd.Flags().StringP(flagTables, "t", "", "Table file to load, .toml, .json or .yaml")
	_ = cmd.MarkFlagRequired(flagTables)
}

// initGlobal loads the config file, applies the command line overrides and
// sets up logging.
func initGlobal(cmd *cobra.Command) error {
	conf := config.NewConfig()
	flags := cmd.Flags()
	path, err := flags.GetString(flagConfig)
	if err != nil {
		return errors.Trace(err)
	}
	if path != "" {
		if err := conf.Load(path); err != nil {
			return err
		}
	}
	if flags.Changed(flagLogLevel) || path == "" {
		if conf.Log.Level, err = flags.GetString(flagLogLevel); err != nil {
			return errors.Trace(err)
		}
	}
	if flags.Changed(flagLogFormat) || path == "" {
		if conf.Log.Format, err = flags.GetString(flagLogFormat); err != nil {
			return errors.Trace(err)
		}
	}
	if flags.Changed(flagLogFile) {
		if conf.Log.File.Filename, err = flags.GetString(flagLogFile); err != nil {
			return errors.Trace(err)
		}
	}
	if err := conf.Valid(); err != nil {
		return err
	}
	if err := logutil.InitLogger(conf.Log.ToLogConfig()); err != nil {
		return err
	}
	config.StoreGlobalConfig(conf)
	logutil.BgLogger().Debug("racc initialized",
		zap.String("command", cmd.Name()),
		zap.String("config", path))
	return nil
}

func loadTables(cmd *cobra.Command) (*lalr.TableSet, string, error) {
	path, err := cmd.Flags().GetString(flagTables)
	if err != nil {
		return nil, "", errors.Trace(err)
	}
	ts, err := tableio.Load(path)
	return ts, path, err
}
