package reporting

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/quickfinder/api/schemas"
	"github.com/xkilldash9x/quickfinder/internal/mocks"
)

func report() *schemas.RunReport {
	start := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	return &schemas.RunReport{
		RunID:      "run-1",
		StartedAt:  start,
		FinishedAt: start.Add(time.Minute),
		Items: []schemas.WorkItem{
			{ID: "1001", Price: "12.50", Status: schemas.OK()},
			{ID: "1002", Status: schemas.NoPrice()},
			{ID: "1003", Status: schemas.TypingFailed()},
			{ID: "1004", Status: schemas.Errored("target closed")},
		},
	}
}

var wantRows = [][]string{
	{"ID", "Price", "Status"},
	{"1001", "12.50", "ok"},
	{"1002", "", "no_price"},
	{"1003", "", "typing_failed"},
	{"1004", "", "error: target closed"},
}

func TestNewSink_Format(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    string
		wantErr bool
	}{
		{"default extension", Config{Path: "out/results.xlsx"}, "*reporting.xlsxSink", false},
		{"unknown extension is xlsx", Config{Path: "results"}, "*reporting.xlsxSink", false},
		{"csv extension", Config{Path: "results.CSV"}, "*reporting.csvSink", false},
		{"jsonl extension", Config{Path: "results.jsonl"}, "*reporting.jsonlSink", false},
		{"explicit format wins", Config{Path: "results.xlsx", Format: "jsonl"}, "*reporting.jsonlSink", false},
		{"stdout defaults to csv", Config{Path: "stdout"}, "*reporting.csvSink", false},
		{"stdout cannot be xlsx", Config{Format: "xlsx"}, "", true},
		{"unsupported", Config{Path: "r.txt", Format: "sarif"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSink(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, typeName(s))
		})
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *xlsxSink:
		return "*reporting.xlsxSink"
	case *csvSink:
		return "*reporting.csvSink"
	case *jsonlSink:
		return "*reporting.jsonlSink"
	}
	return "unknown"
}

func TestXLSXSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "results.xlsx")
	s, err := NewSink(Config{Path: path, Sheet: "Prices"})
	require.NoError(t, err)

	require.NoError(t, s.Write(context.Background(), report()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Prices")
	require.NoError(t, err)

	// excelize trims trailing empty cells; compare the populated prefix
	require.Len(t, rows, len(wantRows))
	for i, row := range rows {
		assert.Equal(t, wantRows[i][0], row[0])
		assert.Equal(t, wantRows[i][len(wantRows[i])-1], row[len(row)-1])
	}
}

func TestCSVSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	s, err := NewSink(Config{Path: path})
	require.NoError(t, err)
	require.NoError(t, s.Write(context.Background(), report()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	if diff := cmp.Diff(wantRows, rows); diff != "" {
		t.Errorf("csv rows mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONLSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.jsonl")
	s, err := NewSink(Config{Path: path})
	require.NoError(t, err)
	require.NoError(t, s.Write(context.Background(), report()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var got []itemRecord
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec itemRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		got = append(got, rec)
	}
	require.NoError(t, sc.Err())
	require.Len(t, got, 4)
	assert.Equal(t, itemRecord{RunID: "run-1", Position: 1, ID: "1001", Price: "12.50", Status: "ok"}, got[0])
	assert.Equal(t, itemRecord{RunID: "run-1", Position: 4, ID: "1004", Status: "error", Detail: "target closed"}, got[3])
}

func TestFileSinks_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, name := range []string{"r.xlsx", "r.csv", "r.jsonl"} {
		path := filepath.Join(t.TempDir(), name)
		s, err := NewSink(Config{Path: path})
		require.NoError(t, err)
		assert.ErrorIs(t, s.Write(ctx, report()), context.Canceled)
		assert.NoFileExists(t, path)
	}
}

type fakeStore struct {
	mu    sync.Mutex
	saved []*schemas.RunReport
	err   error
}

func (f *fakeStore) SaveReport(_ context.Context, r *schemas.RunReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, r)
	return f.err
}

func TestPostgresSink(t *testing.T) {
	st := &fakeStore{}
	s := NewPostgresSink(st)
	assert.Equal(t, "postgres", s.Name())
	r := report()
	require.NoError(t, s.Write(context.Background(), r))
	assert.Same(t, r, st.saved[0])
}

func TestMulti(t *testing.T) {
	t.Run("single sink is returned as is", func(t *testing.T) {
		only := &mocks.MockSink{}
		assert.Same(t, only, Multi(only))
	})

	t.Run("every sink runs and errors are joined", func(t *testing.T) {
		r := report()
		ok := &mocks.MockSink{}
		ok.On("Name").Return("xlsx:results.xlsx").Maybe()
		ok.On("Write", mock.Anything, r).Return(nil).Once()

		boom := errors.New("connection refused")
		bad := &fakeStore{err: boom}

		m := Multi(ok, NewPostgresSink(bad))
		assert.Equal(t, "multi(xlsx:results.xlsx,postgres)", m.Name())

		err := m.Write(context.Background(), r)
		assert.ErrorIs(t, err, boom)
		assert.ErrorContains(t, err, "postgres: connection refused")
		ok.AssertExpectations(t)
		assert.Len(t, bad.saved, 1)
	})
}

func TestOpenCommand(t *testing.T) {
	tests := []struct {
		goos     string
		wantName string
		wantArgs []string
	}{
		{"windows", "rundll32", []string{"url.dll,FileProtocolHandler", "r.xlsx"}},
		{"darwin", "open", []string{"r.xlsx"}},
		{"linux", "xdg-open", []string{"r.xlsx"}},
	}
	for _, tt := range tests {
		name, args := openCommand(tt.goos, "r.xlsx")
		assert.Equal(t, tt.wantName, name, tt.goos)
		assert.Equal(t, tt.wantArgs, args, tt.goos)
	}
}

func TestWithAutoOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	inner, err := NewSink(Config{Path: path})
	require.NoError(t, err)

	core, logs := observer.New(zapcore.InfoLevel)
	s := WithAutoOpen(inner, zap.New(core))
	opening, ok := s.(*openingSink)
	require.True(t, ok)

	var opened []string
	opening.open = func(p string) error {
		opened = append(opened, p)
		return errors.New("no display")
	}

	require.NoError(t, s.Write(context.Background(), report()), "open failure never fails the write")
	assert.Equal(t, []string{path}, opened)
	assert.Equal(t, 1, logs.FilterMessage("Could not open results automatically.").Len())

	t.Run("stdout is never opened", func(t *testing.T) {
		std, err := NewSink(Config{Path: "stdout"})
		require.NoError(t, err)
		assert.Same(t, std, WithAutoOpen(std, zap.NewNop()))
	})
}
