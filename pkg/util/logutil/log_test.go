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

package logutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitLoggerWithFile(t *testing.T) {
	dir := t.TempDir()
	fileCfg := NewFileLogConfig(DefaultLogMaxSize)
	fileCfg.Filename = filepath.Join(dir, "racc.log")
	conf := NewLogConfig("warn", DefaultLogFormat, fileCfg, false)
	require.NoError(t, InitLogger(conf))

	BgLogger().Info("should not be written")
	BgLogger().Warn("should be written", zap.String("state", "3"))
	require.NoError(t, BgLogger().Sync())

	content, err := os.ReadFile(fileCfg.Filename)
	require.NoError(t, err)
	require.Contains(t, string(content), "should be written")
	require.Contains(t, string(content), "[state=3]")
	require.NotContains(t, string(content), "should not be written")
}

func TestSetLevel(t *testing.T) {
	conf := NewLogConfig("info", DefaultLogFormat, FileLogConfig{}, false)
	require.NoError(t, InitLogger(conf))

	require.NoError(t, SetLevel("debug"))
	require.True(t, BgLogger().Core().Enabled(zapcore.DebugLevel))
	require.NoError(t, SetLevel("error"))
	require.False(t, BgLogger().Core().Enabled(zapcore.WarnLevel))
	require.Error(t, SetLevel("noisy"))
	require.NoError(t, SetLevel(DefaultLogLevel))
}

func TestContextualLogger(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	ctx := WithLogger(context.Background(), zap.New(core))
	ctx = WithCategory(ctx, "lalr")
	ctx = WithParseID(ctx, 42)
	ctx = WithKeyValue(ctx, "source", "tokens.txt")

	Logger(ctx).Info("parse finished")
	entries := recorded.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "lalr", fields[LogFieldCategory])
	require.Equal(t, uint64(42), fields[LogFieldParseID])
	require.Equal(t, "tokens.txt", fields["source"])

	require.Equal(t, BgLogger(), Logger(context.Background()))
}

func TestEvent(t *testing.T) {
	// no span, must not panic
	Event(context.Background(), "ignored")

	tracer := mocktracer.New()
	span := tracer.StartSpan("parse")
	ctx := opentracing.ContextWithSpan(context.Background(), span)
	Event(ctx, "accept")
	Eventf(ctx, "reduce %d", 2)
	SetTag(ctx, "result", "accepted")
	span.Finish()

	finished := tracer.FinishedSpans()
	require.Len(t, finished, 1)
	require.Len(t, finished[0].Logs(), 2)
	require.Equal(t, "accepted", finished[0].Tag("result"))
}
