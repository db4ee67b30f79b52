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

// Package tableio reads and writes table sets as TOML, JSON or YAML files.
package tableio

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/errors"
	"github.com/pingcap/racc/pkg/lalr"
	"github.com/pingcap/racc/pkg/terror"
	"github.com/pingcap/racc/pkg/util/logutil"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// Format is the encoding of a table file.
type Format string

// Supported formats.
const (
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const (
	codeUnknownFormat terror.ErrCode = iota + 101
	codeUnknownField
)

var (
	// ErrUnknownFormat is returned for a format name or file extension that
	// no codec handles.
	ErrUnknownFormat = terror.ClassTable.New(codeUnknownFormat, "unknown table file format %q")
	// ErrUnknownField is returned when a table file has keys that are not
	// part of a table set.
	ErrUnknownField = terror.ClassTable.New(codeUnknownField, "%s table file contained unknown fields: %s")
)

// ParseFormat parses a format name. "yml" is accepted for YAML.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatTOML, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", ErrUnknownFormat.GenWithStackByArgs(name)
}

// FormatOf picks the format from the extension of path.
func FormatOf(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", ErrUnknownFormat.GenWithStackByArgs(path)
	}
	return ParseFormat(ext)
}

// Decode reads a table set in format f from r. The result is not validated.
func Decode(r io.Reader, f Format) (*lalr.TableSet, error) {
	ts := &lalr.TableSet{}
	switch f {
	case FormatTOML:
		md, err := toml.NewDecoder(r).Decode(ts)
		if err != nil {
			return nil, errors.Annotate(err, "decode toml table file")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			return nil, ErrUnknownField.GenWithStackByArgs(f, strings.Join(keys, ", "))
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(ts); err != nil {
			return nil, errors.Annotate(err, "decode json table file")
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.SetStrict(true)
		if err := dec.Decode(ts); err != nil {
			return nil, errors.Annotate(err, "decode yaml table file")
		}
	default:
		return nil, ErrUnknownFormat.GenWithStackByArgs(string(f))
	}
	return ts, nil
}

// Encode writes ts to w in format f.
func Encode(w io.Writer, f Format, ts *lalr.TableSet) error {
	switch f {
	case FormatTOML:
		return errors.Trace(toml.NewEncoder(w).Encode(ts))
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Trace(enc.Encode(ts))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(ts); err != nil {
			return errors.Trace(err)
		}
		return errors.Trace(enc.Close())
	}
	return ErrUnknownFormat.GenWithStackByArgs(string(f))
}

// Load reads and validates the table file at path.
func Load(path string) (*lalr.TableSet, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	ts, err := Decode(bytes.NewReader(data), f)
	if err != nil {
		return nil, errors.Annotatef(err, "load %s", path)
	}
	if err := ts.Validate(); err != nil {
		return nil, errors.Annotatef(err, "load %s", path)
	}
	logutil.BgLogger().Debug("table file loaded",
		zap.String("path", path),
		zap.String("format", string(f)),
		zap.Int("states", ts.NumStates()),
		zap.Int("rules", len(ts.ReduceTable)))
	return ts, nil
}

// Save writes ts to path in the format its extension names.
func Save(path string, ts *lalr.TableSet) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, f, ts); err != nil {
		return err
	}
	return errors.Trace(os.WriteFile(path, buf.Bytes(), 0o644))
}
