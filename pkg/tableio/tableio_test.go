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

package tableio

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pingcap/racc/pkg/lalr"
	"github.com/pingcap/racc/pkg/lalr/lalrtest"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	for name, want := range map[string]Format{
		"toml": FormatTOML,
		"JSON": FormatJSON,
		"yaml": FormatYAML,
		"yml":  FormatYAML,
	} {
		f, err := ParseFormat(name)
		require.NoError(t, err)
		require.Equal(t, want, f)
	}

	_, err := ParseFormat("xml")
	require.True(t, ErrUnknownFormat.Equal(err))

	f, err := FormatOf("dir/calc.tab.yml")
	require.NoError(t, err)
	require.Equal(t, FormatYAML, f)
	_, err = FormatOf("calc")
	require.True(t, ErrUnknownFormat.Equal(err))
}

func TestLoadTestdata(t *testing.T) {
	want := lalrtest.Calc().Pack()
	for _, name := range []string{"calc.toml", "calc.json", "calc.yaml"} {
		ts, err := Load(filepath.Join("testdata", name))
		require.NoError(t, err, name)
		require.Equal(t, want, ts, name)
	}
}

func TestRoundTrip(t *testing.T) {
	grammars := []*lalrtest.Grammar{lalrtest.Single(), lalrtest.Calc(), lalrtest.Statements(), lalrtest.Lists()}
	for _, f := range []Format{FormatTOML, FormatJSON, FormatYAML} {
		for i, g := range grammars {
			ts := g.Pack()
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, f, ts))
			got, err := Decode(&buf, f)
			require.NoError(t, err, "%s grammar %d", f, i)
			require.Equal(t, ts, got, "%s grammar %d", f, i)
		}
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	ts := lalrtest.Statements().Pack()
	for _, name := range []string{"stmts.toml", "stmts.json", "stmts.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Save(path, ts))
		got, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, ts, got)
	}

	err := Save(filepath.Join(dir, "stmts.txt"), ts)
	require.True(t, ErrUnknownFormat.Equal(err))
}

func TestDecodeRejects(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "unknown.toml"))
	require.True(t, ErrUnknownField.Equal(err))
	require.Contains(t, err.Error(), "start-state")

	_, err = Decode(strings.NewReader(`{"nt_base": 4, "start_state": 0}`), FormatJSON)
	require.ErrorContains(t, err, "start_state")

	_, err = Decode(strings.NewReader("nt_base: 4\nstart_state: 0\n"), FormatYAML)
	require.ErrorContains(t, err, "start_state")

	_, err = Decode(strings.NewReader("nt-base = "), FormatTOML)
	require.Error(t, err)

	_, err = Decode(strings.NewReader("{}"), Format("xml"))
	require.True(t, ErrUnknownFormat.Equal(err))
}

func TestLoadValidates(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "broken.json"))
	require.True(t, lalr.ErrMalformedTable.Equal(err))
	require.True(t, lalr.IsEngineBug(err))
	require.Contains(t, err.Error(), "broken.json")

	_, err = Load(filepath.Join("testdata", "missing.toml"))
	require.Error(t, err)
}
