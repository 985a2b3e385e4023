package dataset

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teranos/hirm/errors"
	"github.com/teranos/hirm/logger"
	"github.com/teranos/hirm/parser"
	"github.com/teranos/hirm/validate"
)

const (
	testSchema = "R1 bernoulli D1 D1\nR2 bernoulli D1\n"
	testObs    = "1 R1 a b\n0 R2 a\n"
	testHIRM   = "1 R1\n0 D1 a\n1 D1 b\n\n2 R2\n0 D1 a b\n"
)

func writeFiles(t *testing.T, schema, obs, clusters string) Files {
	t.Helper()
	dir := t.TempDir()
	files := Files{
		Schema:       filepath.Join(dir, "model.schema"),
		Observations: filepath.Join(dir, "model.obs"),
		Clusters:     filepath.Join(dir, "model.hirm"),
	}
	require.NoError(t, os.WriteFile(files.Schema, []byte(schema), 0o644))
	require.NoError(t, os.WriteFile(files.Observations, []byte(obs), 0o644))
	require.NoError(t, os.WriteFile(files.Clusters, []byte(clusters), 0o644))
	return files
}

func TestLoad(t *testing.T) {
	files := writeFiles(t, testSchema, testObs, testHIRM)

	ds, err := Load(context.Background(), files, WithLogger(zaptest.NewLogger(t).Sugar()))
	require.NoError(t, err)

	assert.NotEmpty(t, ds.ID)
	assert.Equal(t, 2, ds.Schema.Len())
	assert.Len(t, ds.Observations, 2)
	require.Len(t, ds.Clusters, 2)
	assert.Equal(t, []string{"R2"}, ds.Clusters[1].Relations)
	assert.Nil(t, ds.Report, "no report without validation")
	assert.False(t, ds.LoadedAt.IsZero())
}

func TestLoad_FixtureFiles(t *testing.T) {
	files := Files{
		Schema:       "../parser/testdata/animals.schema",
		Observations: "../parser/testdata/animals.obs",
		Clusters:     "../parser/testdata/animals.block.hirm",
	}

	ds, err := Load(context.Background(), files, WithStrictValidation())
	require.NoError(t, err)
	require.NotNil(t, ds.Report)
	assert.True(t, ds.Report.OK())

	enc, err := ds.Encode()
	require.NoError(t, err)
	code, ok := enc.Code("animal", "antelope")
	require.True(t, ok)
	assert.Equal(t, 0, code)
}

func TestLoad_OptionalParts(t *testing.T) {
	files := writeFiles(t, testSchema, testObs, testHIRM)
	files.Observations = ""
	files.Clusters = ""

	ds, err := Load(context.Background(), files)
	require.NoError(t, err)
	assert.Nil(t, ds.Observations)
	assert.Nil(t, ds.Clusters)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		obs    string
		hirm   string
		check  func(error) bool
	}{
		{"malformed schema", "R1 bernoulli\n", testObs, testHIRM, errors.IsMalformedRecord},
		{"duplicate relation", "R1 bernoulli D1\nR1 bernoulli D1\n", testObs, testHIRM, errors.IsDuplicateDefinition},
		{"malformed observation", testSchema, "1 R1\n", testHIRM, errors.IsMalformedRecord},
		{"duplicate cluster", testSchema, testObs, "1 R1\n0 D1 a\n\n1 R2\n0 D1 a\n", errors.IsDuplicateDefinition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := writeFiles(t, tt.schema, tt.obs, tt.hirm)
			ds, err := Load(context.Background(), files)
			require.Error(t, err)
			assert.Nil(t, ds)
			assert.True(t, tt.check(err), "unexpected error class: %v", err)
		})
	}
}

func TestLoad_MissingFileAndSchema(t *testing.T) {
	files := writeFiles(t, testSchema, testObs, testHIRM)
	files.Clusters = filepath.Join(t.TempDir(), "absent.hirm")

	_, err := Load(context.Background(), files)
	require.Error(t, err)
	assert.True(t, errors.IsReadError(err))

	_, err = Load(context.Background(), Files{})
	require.Error(t, err)
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestLoad_Cancelled(t *testing.T) {
	files := writeFiles(t, testSchema, testObs, testHIRM)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ds, err := Load(ctx, files)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, ds)
}

func TestLoad_Validation(t *testing.T) {
	// R2 is never assigned to a cluster.
	files := writeFiles(t, testSchema, testObs, "1 R1\n0 D1 a b\n")

	ds, err := Load(context.Background(), files, WithValidation())
	require.NoError(t, err)
	require.NotNil(t, ds.Report)
	assert.Len(t, ds.Report.ByKind(validate.KindUnassignedRelation), 1)

	ds, err = Load(context.Background(), files, WithStrictValidation())
	require.Error(t, err)
	assert.Nil(t, ds)
	assert.True(t, errors.IsReferenceViolation(err))
}

func TestLoad_CustomParser(t *testing.T) {
	files := writeFiles(t, "// relations\nR1 bernoulli D1\n", "1 R1 a\n", "1 R1\n0 D1 a\n")

	_, err := Load(context.Background(), files)
	require.Error(t, err, "// is not a comment by default")

	ds, err := Load(context.Background(), files, WithParser(parser.New(parser.WithCommentMarker("//"))))
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Schema.Len())
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	files := writeFiles(t, testSchema, testObs, testHIRM)

	w, err := NewWatcher(context.Background(), files,
		WithDebounce(20*time.Millisecond),
		WithLogger(zaptest.NewLogger(t).Sugar()))
	require.NoError(t, err)
	defer w.Stop()

	first := w.Current()
	require.NotNil(t, first)

	var reloads atomic.Int32
	w.OnReload(func(ds *Dataset) error {
		reloads.Add(1)
		return nil
	})
	w.Start()

	require.NoError(t, os.WriteFile(files.Observations, []byte(testObs+"1 R2 b\n"), 0o644))

	assert.Eventually(t, func() bool {
		cur := w.Current()
		return cur.ID != first.ID && len(cur.Observations) == 3
	}, 2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, reloads.Load(), int32(1))
}

func TestWatcher_FailedReloadKeepsCurrent(t *testing.T) {
	files := writeFiles(t, testSchema, testObs, testHIRM)

	w, err := NewWatcher(context.Background(), files)
	require.NoError(t, err)
	defer w.Stop()

	called := false
	w.OnReload(func(*Dataset) error {
		called = true
		return nil
	})

	first := w.Current()
	require.NoError(t, os.WriteFile(files.Schema, []byte("R1 bernoulli\n"), 0o644))

	err = w.Reload(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsMalformedRecord(err))
	assert.Same(t, first, w.Current())
	assert.False(t, called)
}

func TestWatcher_CallbackErrorDoesNotStopOthers(t *testing.T) {
	files := writeFiles(t, testSchema, testObs, testHIRM)

	w, err := NewWatcher(context.Background(), files)
	require.NoError(t, err)
	defer w.Stop()

	var second bool
	w.OnReload(func(*Dataset) error { return errors.New("boom") })
	w.OnReload(func(*Dataset) error {
		second = true
		return nil
	})

	require.NoError(t, w.Reload(context.Background()))
	assert.True(t, second)
}

func TestWatcher_InitialLoadFails(t *testing.T) {
	files := writeFiles(t, "R1\n", testObs, testHIRM)
	w, err := NewWatcher(context.Background(), files)
	assert.Error(t, err)
	assert.Nil(t, w)
}

func TestWatcher_StopTwice(t *testing.T) {
	files := writeFiles(t, testSchema, testObs, testHIRM)
	w, err := NewWatcher(context.Background(), files)
	require.NoError(t, err)
	w.Start()

	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}

func TestLoad_FailureLogsPosition(t *testing.T) {
	files := writeFiles(t, testSchema, "1 R1 a b\n# note\n0 R2\n", testHIRM)
	core, logs := observer.New(zapcore.WarnLevel)

	_, err := Load(context.Background(), files, WithLogger(zap.New(core).Sugar()))
	require.Error(t, err)

	entries := logs.FilterMessage("Dataset load failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, files.Observations, fields[logger.FieldFile])
	assert.EqualValues(t, 3, fields[logger.FieldLine])
	assert.EqualValues(t, 2, fields[logger.FieldRecord])
}

func TestWatcher_ConcurrentReloadsAreSerialized(t *testing.T) {
	files := writeFiles(t, testSchema, testObs, testHIRM)

	w, err := NewWatcher(context.Background(), files)
	require.NoError(t, err)
	defer w.Stop()

	var mu sync.Mutex
	var seen []time.Time
	w.OnReload(func(ds *Dataset) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, ds.LoadedAt)
		return nil
	})

	require.NoError(t, os.WriteFile(files.Observations, []byte(testObs+"1 R2 b\n"), 0o644))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, w.Reload(context.Background()))
		}()
	}
	wg.Wait()

	require.Len(t, seen, 8)
	for i := 1; i < len(seen); i++ {
		assert.False(t, seen[i].Before(seen[i-1]), "reload %d finished before reload %d", i, i-1)
	}
	assert.Len(t, w.Current().Observations, 3)
	assert.Equal(t, seen[len(seen)-1], w.Current().LoadedAt)
}
