package factory

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/iulianpascalau/bench-tracker/services/submitter/common"
	"github.com/iulianpascalau/bench-tracker/services/submitter/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createConfig(endpoint string, location string) config.Config {
	return config.Config{
		Group:                   "Track benchmarks",
		Tool:                    "cargo",
		TrackerEndpoint:         endpoint,
		CollectTimeoutInSeconds: 1,
		ReportTimeoutInSeconds:  1,
		Sources: []config.SourceConfig{
			{Name: "track", Location: location, Format: config.FormatCargo},
		},
	}
}

func TestNewComponentsHandler(t *testing.T) {
	t.Parallel()

	t.Run("empty tracker endpoint should error", func(t *testing.T) {
		handler, err := NewComponentsHandler("service-key", createConfig("", "bench.txt"), common.RevisionInfo{})
		assert.Nil(t, handler)
		assert.Contains(t, err.Error(), "empty tracker endpoint")
	})
	t.Run("no sources should error", func(t *testing.T) {
		cfg := createConfig("/api/runs", "bench.txt")
		cfg.Sources = nil

		handler, err := NewComponentsHandler("service-key", cfg, common.RevisionInfo{})
		assert.Nil(t, handler)
		assert.Contains(t, err.Error(), "no benchmark source configured")
	})
	t.Run("should work", func(t *testing.T) {
		handler, err := NewComponentsHandler("service-key", createConfig("/api/runs", "bench.txt"), common.RevisionInfo{})
		assert.NotNil(t, handler)
		assert.Nil(t, err)
	})
}

func TestComponentsHandlerMethods(t *testing.T) {
	t.Parallel()

	handler, _ := NewComponentsHandler("service-key", createConfig("/api/runs", "bench.txt"), common.RevisionInfo{})

	coll := handler.GetCollector()
	assert.Equal(t, "*collector.benchCollector", fmt.Sprintf("%T", coll))

	rep := handler.GetReporter()
	assert.Equal(t, "*reporter.httpReporter", fmt.Sprintf("%T", rep))

	eng := handler.GetEngine()
	assert.Equal(t, "*engine.submitEngine", fmt.Sprintf("%T", eng))
}

func TestComponentsHandler_Run(t *testing.T) {
	t.Parallel()

	numCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		numCalls++
		assert.Equal(t, "service-key", r.Header.Get("X-Api-Key"))

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"outcome":"accepted","position":0}`))
	}))
	defer server.Close()

	benchFile := filepath.Join(t.TempDir(), "bench.txt")
	require.NoError(t, os.WriteFile(benchFile, []byte("test uncontended/load ... bench: 12 ns/iter (+/- 0)\n"), 0644))

	handler, err := NewComponentsHandler("service-key", createConfig(server.URL, benchFile), common.RevisionInfo{ID: "rev1", AuthorName: "vorner"})
	require.Nil(t, err)

	err = handler.Run(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, 1, numCalls)
}
