// Copyright 2017 PingCAP, Inc.
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

package config

import (
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/errors"
	"github.com/pingcap/racc/pkg/terror"
	"github.com/pingcap/racc/pkg/util/logutil"
	"go.uber.org/atomic"
)

// Trace formats accepted by Parser.TraceFormat.
const (
	TraceFormatText = "text"
	TraceFormatLog  = "log"
)

// DefStackCapacity is the initial capacity of the parse stacks.
const DefStackCapacity = 64

var (
	// ErrConfigValidationFailed is returned when a config file has unknown items.
	ErrConfigValidationFailed = terror.ClassConfig.New(1, "config file %s contained invalid configuration options: %s")
	// ErrInvalidConfig is returned when a config item has an unusable value.
	ErrInvalidConfig = terror.ClassConfig.New(2, "invalid config: %s")
)

// Config contains configuration options.
type Config struct {
	Log    Log    `toml:"log" json:"log"`
	Parser Parser `toml:"parser" json:"parser"`
	Batch  Batch  `toml:"batch" json:"batch"`
	Status Status `toml:"status" json:"status"`
}

// Log is the log section of config.
type Log struct {
	// Log level.
	Level string `toml:"level" json:"level"`
	// Log format. one of json, text, or console.
	Format string `toml:"format" json:"format"`
	// Disable automatic timestamps in output.
	DisableTimestamp bool `toml:"disable-timestamp" json:"disable-timestamp"`
	// File log config.
	File logutil.FileLogConfig `toml:"file" json:"file"`
}

// Parser is the parser section of config.
type Parser struct {
	// Trace enables engine event tracing.
	Trace bool `toml:"trace" json:"trace"`
	// TraceFormat is one of text or log.
	TraceFormat string `toml:"trace-format" json:"trace-format"`
	// StackCapacity is the initial capacity of the state and value stacks.
	StackCapacity int `toml:"stack-capacity" json:"stack-capacity"`
	// AbortOnError stops a parse at its first syntax error.
	AbortOnError bool `toml:"abort-on-error" json:"abort-on-error"`
}

// Batch is the batch section of config.
type Batch struct {
	Concurrency int `toml:"concurrency" json:"concurrency"`
}

// Status is the status section of the config.
type Status struct {
	MetricsAddr string `toml:"metrics-addr" json:"metrics-addr"`
}

var defaultConf = Config{
	Log: Log{
		Level:  logutil.DefaultLogLevel,
		Format: logutil.DefaultLogFormat,
		File:   logutil.NewFileLogConfig(logutil.DefaultLogMaxSize),
	},
	Parser: Parser{
		TraceFormat:   TraceFormatText,
		StackCapacity: DefStackCapacity,
	},
	Batch: Batch{
		Concurrency: 4,
	},
}

var globalConf atomic.Pointer[Config]

func init() {
	conf := defaultConf
	StoreGlobalConfig(&conf)
}

// NewConfig creates a new config instance with default value.
func NewConfig() *Config {
	conf := defaultConf
	return &conf
}

// GetGlobalConfig returns the global configuration for this process.
// It should store configuration from command line and configuration file.
// Other parts of the system can read the global configuration use this function.
func GetGlobalConfig() *Config {
	return globalConf.Load()
}

// StoreGlobalConfig stores a new config to the globalConf. It mostly uses in the test to avoid some data races.
func StoreGlobalConfig(config *Config) {
	globalConf.Store(config)
}

// Load loads config options from a toml file.
func (c *Config) Load(confFile string) error {
	metaData, err := toml.DecodeFile(confFile, c)
	if err != nil {
		return errors.Trace(err)
	}
	if undecoded := metaData.Undecoded(); len(undecoded) > 0 {
		items := make([]string, 0, len(undecoded))
		for _, item := range undecoded {
			items = append(items, item.String())
		}
		return ErrConfigValidationFailed.GenWithStackByArgs(confFile, strings.Join(items, ", "))
	}
	return nil
}

// Valid checks if this config is valid.
func (c *Config) Valid() error {
	if c.Parser.StackCapacity < 0 {
		return ErrInvalidConfig.GenWithStackByArgs("parser.stack-capacity must not be negative")
	}
	switch c.Parser.TraceFormat {
	case TraceFormatText, TraceFormatLog:
	default:
		return ErrInvalidConfig.GenWithStackByArgs("parser.trace-format must be text or log, got " + c.Parser.TraceFormat)
	}
	if c.Batch.Concurrency < 1 {
		return ErrInvalidConfig.GenWithStackByArgs("batch.concurrency must be positive")
	}
	if _, err := logutil.ParseLevel(c.Log.Level); err != nil {
		return ErrInvalidConfig.GenWithStackByArgs("log.level " + c.Log.Level)
	}
	return nil
}

// ToLogConfig converts *Log to *logutil.LogConfig.
func (l *Log) ToLogConfig() *logutil.LogConfig {
	return logutil.NewLogConfig(l.Level, l.Format, l.File, l.DisableTimestamp)
}
