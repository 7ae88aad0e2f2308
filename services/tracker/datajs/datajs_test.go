package datajs

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/iulianpascalau/bench-tracker/services/tracker/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trackGroup = "Track benchmarks"

func TestParse_RecordedFile(t *testing.T) {
	t.Parallel()

	data, err := os.ReadFile("testdata/data.js")
	require.NoError(t, err)

	h, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, int64(1609691667), h.LastUpdate)
	assert.Equal(t, "https://github.com/vorner/arc-swap", h.RepoURL)

	runs := h.Get(trackGroup)
	require.Len(t, runs, 2)

	first := runs[0]
	assert.Equal(t, "18cacb53939503210e7598993eef6b87fc8834b2", first.Revision.ID)
	assert.Equal(t, model.Identity{Name: "vorner", Handle: "vorner"}, first.Revision.Author)
	assert.Equal(t, "Keep benchmarks in GH pages", first.Revision.Message)
	assert.Equal(t, int64(1609614832), first.Revision.Timestamp)
	assert.Equal(t, int64(1609689524), first.Timestamp)
	assert.Equal(t, "cargo", first.Tool)
	require.Len(t, first.Metrics, 15)
	assert.Equal(t, model.Metric{Name: "uncontended/store", Value: 121, ErrorMargin: 10, Unit: "ns/iter"}, first.Metrics[3])

	second := runs[1]
	assert.Equal(t, "10355d69139fa26193de364012d1e5ca8614012d", second.Revision.ID)
	assert.Equal(t, int64(1609691274), second.Revision.Timestamp)

	for _, run := range runs {
		assert.NoError(t, model.ValidateRun(run))
	}
}

func TestParse_WithoutPrefix(t *testing.T) {
	t.Parallel()

	doc := `{"lastUpdate": 2000, "entries": {"g": [{"commit": {"id": "abc", "timestamp": 1500}, "date": 3000, "tool": "go",
		"benches": [{"name": "BenchmarkLoad", "value": 12.5, "range": "± 5%", "unit": "ns/op"}]}]}};`

	h, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, int64(2), h.LastUpdate)

	runs := h.Get("g")
	require.Len(t, runs, 1)
	assert.Equal(t, int64(1500), runs[0].Revision.Timestamp)
	assert.Equal(t, int64(3), runs[0].Timestamp)
	assert.InDelta(t, 0.625, runs[0].Metrics[0].ErrorMargin, 1e-9)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	t.Run("not json", func(t *testing.T) {
		_, err := Parse([]byte("window.BENCHMARK_DATA = {"))
		assert.True(t, errors.Is(err, ErrInvalidDocument))
	})
	t.Run("entries not an object", func(t *testing.T) {
		_, err := Parse([]byte(`{"entries": []}`))
		assert.True(t, errors.Is(err, ErrInvalidDocument))
	})
	t.Run("bad commit timestamp", func(t *testing.T) {
		_, err := Parse([]byte(`{"entries": {"g": [{"commit": {"id": "a", "timestamp": "yesterday"}}]}}`))
		assert.True(t, errors.Is(err, ErrInvalidDocument))
		assert.Contains(t, err.Error(), "yesterday")
	})
}

func TestParseRange(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 10.0, ParseRange("± 10", 121))
	assert.Equal(t, 0.0, ParseRange("± 0", 0))
	assert.Equal(t, 1.5, ParseRange("+/- 1.5", 3))
	assert.Equal(t, 0.25, ParseRange("stddev: 0.25", 3))
	assert.Equal(t, 2.0, ParseRange("± 10%", 20))
	assert.Equal(t, 3.0, ParseRange("-3", 20))
	assert.Equal(t, 0.0, ParseRange("", 20))
	assert.Equal(t, 0.0, ParseRange("wide", 20))
}

func TestRender_RoundTrip(t *testing.T) {
	t.Parallel()

	data, err := os.ReadFile("testdata/data.js")
	require.NoError(t, err)

	h, err := Parse(data)
	require.NoError(t, err)

	rendered, err := Render(h)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(rendered), "window.BENCHMARK_DATA = {"))
	assert.Contains(t, string(rendered), `"range": "± 10"`)
	assert.Contains(t, string(rendered), `"timestamp": "2021-01-02T19:13:52Z"`)
	assert.Contains(t, string(rendered), `"date": 1609689524000`)

	parsedAgain, err := Parse(rendered)
	require.NoError(t, err)
	assert.Equal(t, h, parsedAgain)
}

func TestFormatRange(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "± 10", FormatRange(10))
	assert.Equal(t, "± 0.5", FormatRange(0.5))
	assert.Equal(t, "± 0", FormatRange(0))
}
