package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"distribution-sizer/internal/classify"
	"distribution-sizer/internal/observability"
	"distribution-sizer/internal/storage"
	"distribution-sizer/internal/storage/memory"
)

type runnerFixture struct {
	runner  *Runner
	runs    *memory.RunStore
	archive *memory.RunArchive
	metrics *observability.Metrics
	logs    *observer.ObservedLogs
	dir     string
}

func newRunnerFixture(t *testing.T) *runnerFixture {
	t.Helper()
	ctx := context.Background()

	circuits := memory.NewCircuitStore()
	require.NoError(t, LoadFixtures(ctx, circuits))

	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	engine, err := NewEngine(defaultSet(t), classify.Default(), DefaultOptions(), logger)
	require.NoError(t, err)

	f := &runnerFixture{
		runs:    memory.NewRunStore(),
		archive: memory.NewRunArchive(),
		metrics: observability.NewMetrics("test"),
		logs:    logs,
		dir:     filepath.Join(t.TempDir(), "out"),
	}
	f.runner = NewRunner(engine, circuits, f.dir, logger).
		WithWriter(f.runs).
		WithArchive(f.archive).
		WithMetrics(f.metrics).
		WithClock(func() time.Time { return fixedTime })
	return f
}

func TestRunner_Run(t *testing.T) {
	f := newRunnerFixture(t)
	ctx := context.Background()

	report, err := f.runner.Run(ctx, DemoProjectID)
	require.NoError(t, err)

	stored, err := f.runs.GetRun(ctx, report.RunID)
	require.NoError(t, err)
	assert.Equal(t, report.Summary, stored.Summary)
	assert.Len(t, stored.Results, 11)

	history, err := f.archive.History(ctx, DemoProjectID, "QS1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, report.RunID, history[0].RunID)
	assert.Equal(t, "2x(5x95)", history[0].Result.CableMark)

	for _, name := range []string{ReportFile, ResultsFile, AggregatesFile, DiagnosticsFile} {
		data, err := os.ReadFile(filepath.Join(f.dir, name))
		require.NoError(t, err, name)
		assert.NotEmpty(t, data, name)
	}

	md, err := os.ReadFile(filepath.Join(f.dir, ReportFile))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(md), "# Distribution Sizing Report"))
	assert.Contains(t, string(md), report.RunID)

	results, err := os.ReadFile(filepath.Join(f.dir, ResultsFile))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(results)), "\n"), 12, "header plus one row per circuit")

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RunsTotal.WithLabelValues("succeeded")))
	assert.InDelta(t, report.Summary.DesignKW, testutil.ToFloat64(f.metrics.DesignKW), 1e-9)
	assert.Equal(t, 1, f.logs.FilterMessage("outputs written").Len())
}

func TestRunner_RepeatedRunIsRejected(t *testing.T) {
	f := newRunnerFixture(t)
	ctx := context.Background()

	_, err := f.runner.Run(ctx, DemoProjectID)
	require.NoError(t, err)

	// Same clock and input give the same run id.
	_, err = f.runner.Run(ctx, DemoProjectID)
	assert.True(t, errors.Is(err, storage.ErrDuplicateKey), "got %v", err)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RunsTotal.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.DBQueryErrors.WithLabelValues("results", "write_run")))
	assert.Equal(t, 1, f.logs.FilterMessage("run failed").Len())
}

func TestRunner_UnknownProject(t *testing.T) {
	f := newRunnerFixture(t)

	_, err := f.runner.Run(context.Background(), "missing")
	assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)

	_, statErr := os.Stat(f.dir)
	assert.True(t, os.IsNotExist(statErr), "no output for a failed run")
}

func TestRunner_NoOutputDir(t *testing.T) {
	circuits := memory.NewCircuitStore()
	require.NoError(t, LoadFixtures(context.Background(), circuits))

	engine, err := NewEngine(defaultSet(t), nil, DefaultOptions(), nil)
	require.NoError(t, err)

	report, err := NewRunner(engine, circuits, "", nil).Run(context.Background(), DemoProjectID)
	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)
}
