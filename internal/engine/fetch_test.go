package engine

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipped(t *testing.T, name string, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestLoad_RemoteZip(t *testing.T) {
	archive := zipped(t, "WarConflicts.csv", sampleCSV)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(archive)
	}))
	defer server.Close()

	store, stats, err := Load(context.Background(), Source{URL: server.URL, File: "WarConflicts.csv", Timeout: 5 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, 4, store.Len())
	assert.Equal(t, 4, stats.Dropped)
}

func TestLoad_LocalFiles(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "events.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(sampleCSV), 0644))
	store, _, err := Load(context.Background(), Source{URL: csvPath, File: "ignored.csv"})
	require.NoError(t, err)
	assert.Equal(t, 4, store.Len())

	zipPath := filepath.Join(dir, "events.zip")
	require.NoError(t, os.WriteFile(zipPath, zipped(t, "data/WarConflicts.csv", sampleCSV), 0644))
	store, _, err = Load(context.Background(), Source{URL: zipPath, File: "WarConflicts.csv"})
	require.NoError(t, err)
	assert.Equal(t, 4, store.Len())
}

func TestLoad_Errors(t *testing.T) {
	notFound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer notFound.Close()

	otherArchive := zipped(t, "other.csv", sampleCSV)
	wrongMember := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(otherArchive)
	}))
	defer wrongMember.Close()

	badTable := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("a,b\n1,2\n"))
	}))
	defer badTable.Close()

	tests := []struct {
		name  string
		src   Source
		stage string
	}{
		{"status", Source{URL: notFound.URL, File: "WarConflicts.csv"}, "fetch"},
		{"missing file", Source{URL: filepath.Join(t.TempDir(), "nope.zip"), File: "WarConflicts.csv"}, "fetch"},
		{"member", Source{URL: wrongMember.URL, File: "WarConflicts.csv"}, "extract"},
		{"schema", Source{URL: badTable.URL, File: "WarConflicts.csv"}, "parse"},
		{"too large", Source{URL: badTable.URL, File: "WarConflicts.csv", MaxBytes: 3}, "fetch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Load(context.Background(), tt.src)
			require.Error(t, err)

			var le *LoadError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, tt.stage, le.Stage)
			assert.NotNil(t, errors.Unwrap(err))
		})
	}
}

func TestFetch_SingleAttempt(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := Fetch(context.Background(), Source{URL: server.URL})
	require.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load())
}
