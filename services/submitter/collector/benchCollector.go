package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/iulianpascalau/bench-tracker/services/submitter/common"
	"github.com/iulianpascalau/bench-tracker/services/submitter/config"
	"github.com/iulianpascalau/bench-tracker/services/tracker/model"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("collector")

type benchCollector struct {
	client *http.Client
}

// NewBenchCollector creates a collector able to read benchmark outputs from files or http(s) URLs
func NewBenchCollector(timeout time.Duration) *benchCollector {
	return &benchCollector{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// CollectAll reads and parses all configured sources concurrently. Sources that fail to load or parse
// are logged and omitted from the returned map.
func (c *benchCollector) CollectAll(ctx context.Context, sources []config.SourceConfig) map[string]common.SourceResult {
	results := make(map[string]common.SourceResult)
	var mu sync.Mutex
	var wg sync.WaitGroup

	wg.Add(len(sources))
	for _, src := range sources {
		go func(source config.SourceConfig) {
			defer wg.Done()

			metrics, err := c.collectSource(ctx, source)
			if err != nil {
				log.Warn("benchmark source collection failed", "name", source.Name, "location", source.Location, "error", err)
				return
			}

			mu.Lock()
			results[source.Name] = common.SourceResult{
				Config:  source,
				Metrics: metrics,
			}
			mu.Unlock()
		}(src)
	}

	wg.Wait()
	return results
}

func (c *benchCollector) collectSource(ctx context.Context, source config.SourceConfig) ([]model.Metric, error) {
	body, err := c.read(ctx, source.Location)
	if err != nil {
		return nil, err
	}

	var metrics []model.Metric
	switch strings.ToLower(source.Format) {
	case config.FormatJSON, "":
		metrics, err = ParseJSON(body)
	case config.FormatCargo:
		metrics, err = ParseCargo(body)
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownFormat, source.Format)
	}
	if err != nil {
		return nil, err
	}

	for i := range metrics {
		metrics[i].Name = source.Prefix + metrics[i].Name
	}

	log.Debug("collected benchmark source", "name", source.Name, "num metrics", len(metrics))

	return metrics, nil
}

func (c *benchCollector) read(ctx context.Context, location string) ([]byte, error) {
	if !isURL(location) {
		return os.ReadFile(location)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errStatusNotOK(resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func isURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// IsInterfaceNil returns true if the value under the interface is nil
func (c *benchCollector) IsInterfaceNil() bool {
	return c == nil
}
