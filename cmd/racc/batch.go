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
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/pingcap/errors"
	"github.com/pingcap/racc/pkg/config"
	"github.com/pingcap/racc/pkg/lalr"
	"github.com/pingcap/racc/pkg/metrics"
	"github.com/pingcap/racc/pkg/terror"
	"github.com/pingcap/racc/pkg/tokenfile"
	"github.com/pingcap/racc/pkg/util/logutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	flagConcurrency = "concurrency"
	flagStatusAddr  = "status-addr"
)

var registerMetricsOnce sync.Once

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch TOKEN-FILE...",
		Short: "Parse many token files concurrently with one table set",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runBatch,
	}
	addTablesFlag(cmd)
	cmd.Flags().IntP(flagConcurrency, "j", 0, "Number of parses to run at once, the config value when 0")
	cmd.Flags().String(flagStatusAddr, "", "Serve prometheus metrics on this address while the batch runs")
	defineParserFlags(cmd.Flags())
	return cmd
}

type fileOutcome struct {
	status string
	errors int
	detail string
}

type batchStats struct {
	accepted     atomic.Int64
	failed       atomic.Int64
	faults       atomic.Int64
	syntaxErrors atomic.Int64
}

// batchFlags returns the concurrency and status address, preferring the
// command line over the config.
func batchFlags(flags *pflag.FlagSet, global *config.Config) (concurrency int, statusAddr string, err error) {
	concurrency = global.Batch.Concurrency
	j, err := flags.GetInt(flagConcurrency)
	if err != nil {
		return 0, "", errors.Trace(err)
	}
	if j > 0 {
		concurrency = j
	}
	statusAddr = global.Status.MetricsAddr
	if flags.Changed(flagStatusAddr) {
		if statusAddr, err = flags.GetString(flagStatusAddr); err != nil {
			return 0, "", errors.Trace(err)
		}
	}
	return concurrency, statusAddr, nil
}

func runBatch(cmd *cobra.Command, files []string) error {
	flags := cmd.Flags()
	conf, err := parserConfig(flags)
	if err != nil {
		return err
	}
	// A shared parser must not carry a per-parse tracer.
	conf.Trace = false
	concurrency, statusAddr, err := batchFlags(flags, config.GetGlobalConfig())
	if err != nil {
		return err
	}

	ts, _, err := loadTables(cmd)
	if err != nil {
		return err
	}
	p, err := lalr.New(ts, nil, parserOptions(conf, ts, nil, false, nil)...)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if statusAddr != "" {
		_, stop, err := startStatusServer(ctx, statusAddr)
		if err != nil {
			return err
		}
		defer stop()
	}

	logger := logutil.BgLogger().With(zap.String(logutil.LogFieldCategory, "batch"))
	start := time.Now()
	outcomes := make([]fileOutcome, len(files))
	var stats batchStats
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, file := range files {
		g.Go(func() error {
			outcomes[i] = parseFile(gctx, p, file, &stats)
			// Cancellation is the only reason to stop the others.
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Trace(err)
	}

	out := cmd.OutOrStdout()
	for i, file := range files {
		o := outcomes[i]
		fmt.Fprintf(out, "%s\t%s\t%d errors", file, o.status, o.errors)
		if o.detail != "" {
			fmt.Fprintf(out, "\t%s", o.detail)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "files: %d, accepted: %d, failed: %d, faults: %d, syntax errors: %d\n",
		len(files), stats.accepted.Load(), stats.failed.Load(), stats.faults.Load(), stats.syntaxErrors.Load())
	logger.Info("batch finished",
		zap.Int("files", len(files)),
		zap.Int("concurrency", concurrency),
		zap.Int64("accepted", stats.accepted.Load()),
		zap.Duration("cost", time.Since(start)))

	if bad := stats.failed.Load() + stats.faults.Load(); bad > 0 {
		return errors.Errorf("%d of %d files were not accepted", bad, len(files))
	}
	return nil
}

func parseFile(ctx context.Context, p *lalr.Parser, file string, stats *batchStats) fileOutcome {
	toks, err := tokenfile.ReadFile(file)
	if err != nil {
		stats.faults.Inc()
		return fileOutcome{status: "fault", detail: err.Error()}
	}
	res, err := p.Parse(logutil.WithKeyValue(ctx, "file", file), lalr.NewSliceSource(toks...))
	if err != nil {
		stats.faults.Inc()
		return fileOutcome{status: "fault", detail: err.Error()}
	}
	stats.syntaxErrors.Add(int64(res.SyntaxErrors))
	if !res.Accepted() {
		stats.failed.Inc()
		return fileOutcome{status: "failed", errors: res.SyntaxErrors, detail: res.Reason.String()}
	}
	stats.accepted.Inc()
	return fileOutcome{status: "accepted", errors: res.SyntaxErrors}
}

// startStatusServer serves /metrics on addr until the returned stop
// function is called. It returns the address actually listened on.
func startStatusServer(ctx context.Context, addr string) (net.Addr, func(), error) {
	registerMetricsOnce.Do(func() {
		metrics.RegisterMetrics(prometheus.DefaultRegisterer)
	})
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, errors.Annotatef(err, "listen on %s", addr)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(l); err != nil && err != http.ErrServerClosed {
			logutil.BgLogger().Warn("status server stopped", zap.Error(err))
		}
	}()
	logutil.Logger(ctx).Info("serving metrics", zap.Stringer("addr", l.Addr()))
	return l.Addr(), func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		terror.Call(func() error { return srv.Shutdown(shutdownCtx) })
		<-done
	}, nil
}
