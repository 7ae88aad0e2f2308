package factory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/iulianpascalau/bench-tracker/commonGo"
	"github.com/iulianpascalau/bench-tracker/services/tracker/api"
	"github.com/iulianpascalau/bench-tracker/services/tracker/config"
	"github.com/iulianpascalau/bench-tracker/services/tracker/datajs"
	"github.com/iulianpascalau/bench-tracker/services/tracker/history"
	"github.com/iulianpascalau/bench-tracker/services/tracker/ingest"
	"github.com/iulianpascalau/bench-tracker/services/tracker/metrics"
	"github.com/iulianpascalau/bench-tracker/services/tracker/model"
	"github.com/iulianpascalau/bench-tracker/services/tracker/notifier"
	"github.com/iulianpascalau/bench-tracker/services/tracker/query"
	"github.com/iulianpascalau/bench-tracker/services/tracker/regression"
	"github.com/iulianpascalau/bench-tracker/services/tracker/storage"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/redis/go-redis/v9"
)

var log = logger.GetOrCreate("factory")

const (
	storageTypeSQLite = "sqlite"
	storageTypeRedis  = "redis"
	storageTypeNone   = "none"

	defaultFlushInterval  = time.Minute
	defaultAlertTimeout   = 10 * time.Second
	defaultRedisKeyPrefix = "bench"
	persisterTimeout      = 30 * time.Second
)

var errUnknownStorageType = errors.New("unknown storage type")

// ArgsComponentsHandler defines the components handler arguments
type ArgsComponentsHandler struct {
	ServiceKeyApi string
	Config        config.Config
	ImportPath    string
}

type componentsHandler struct {
	store         api.HistoryReader
	processor     Processor
	server        Server
	persister     Persister
	flushInterval time.Duration
	mutFlush      sync.Mutex
	cancel        context.CancelFunc
}

// NewComponentsHandler creates a new components handler
func NewComponentsHandler(args ArgsComponentsHandler) (*componentsHandler, error) {
	persister, err := createPersister(args.Config.Storage)
	if err != nil {
		return nil, err
	}

	ch, err := newComponentsHandlerWithPersister(args, persister)
	if err != nil {
		_ = persister.Close()
		return nil, err
	}

	return ch, nil
}

func newComponentsHandlerWithPersister(args ArgsComponentsHandler, persister Persister) (*componentsHandler, error) {
	if check.IfNil(persister) {
		return nil, errors.New("nil persister")
	}

	ctx, cancel := context.WithTimeout(context.Background(), persisterTimeout)
	loaded, err := persister.Load(ctx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w while loading the persisted history", err)
	}
	if len(loaded.RepoURL) == 0 {
		loaded.RepoURL = args.Config.RepoURL
	}

	store := history.NewStoreFromSnapshot(loaded)
	log.Info("history loaded", "groups", len(loaded.Groups), "runs", countRuns(loaded), "last update", loaded.LastUpdate)

	if len(args.ImportPath) > 0 {
		err = importDataJS(store, args.ImportPath)
		if err != nil {
			return nil, err
		}
	}

	queries, err := query.NewEngine(store)
	if err != nil {
		return nil, err
	}

	detectorConfig, err := createDetectorConfig(args.Config.Regression)
	if err != nil {
		return nil, err
	}
	detector, err := regression.NewDetector(detectorConfig)
	if err != nil {
		return nil, err
	}

	processor, err := ingest.NewProcessor(ingest.ArgsProcessor{
		Store:    store,
		Detector: detector,
		Notifier: createNotifier(args.Config.Alerts),
	})
	if err != nil {
		return nil, err
	}

	server, err := api.NewServer(api.ArgsWebServer{
		ServiceKeyApi:  args.ServiceKeyApi,
		ListenAddress:  args.Config.ListenAddress,
		Ingester:       processor,
		Queries:        queries,
		History:        store,
		GeneralHandler: api.CORSMiddleware,
	})
	if err != nil {
		return nil, err
	}

	flushInterval := time.Duration(args.Config.Storage.FlushIntervalInSeconds) * time.Second
	if flushInterval == 0 {
		flushInterval = defaultFlushInterval
	}

	return &componentsHandler{
		store:         store,
		processor:     processor,
		server:        server,
		persister:     persister,
		flushInterval: flushInterval,
	}, nil
}

func createPersister(cfg config.StorageConfig) (Persister, error) {
	switch strings.ToLower(cfg.Type) {
	case storageTypeSQLite:
		return storage.NewSQLitePersister(cfg.SQLitePath)
	case storageTypeRedis:
		keyPrefix := cfg.RedisKeyPrefix
		if len(keyPrefix) == 0 {
			keyPrefix = defaultRedisKeyPrefix
		}
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddress,
		})

		return storage.NewRedisPersister(rdb, keyPrefix)
	case storageTypeNone, "":
		return storage.NewDisabledPersister(), nil
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownStorageType, cfg.Type)
	}
}

func createDetectorConfig(cfg config.RegressionConfig) (regression.Config, error) {
	detectorConfig := regression.Config{
		WindowSize: cfg.WindowSize,
		Tolerance:  cfg.Tolerance,
		Epsilon:    cfg.Epsilon,
		Metrics:    make(map[string]regression.MetricConfig, len(cfg.Metrics)),
	}

	for _, metricCfg := range cfg.Metrics {
		direction, err := regression.ParseDirection(metricCfg.Direction)
		if err != nil {
			return regression.Config{}, fmt.Errorf("%w for metric %s", err, metricCfg.Name)
		}

		detectorConfig.Metrics[metricCfg.Name] = regression.MetricConfig{
			Direction: direction,
			Tolerance: metricCfg.Tolerance,
		}
	}

	return detectorConfig, nil
}

func createNotifier(cfg config.AlertsConfig) ingest.Notifier {
	if len(cfg.WebhookURL) == 0 {
		return notifier.NewDisabledNotifier()
	}

	timeout := time.Duration(cfg.TimeoutInSeconds) * time.Second
	if timeout == 0 {
		timeout = defaultAlertTimeout
	}

	return notifier.NewWebhookNotifier(cfg.WebhookURL, timeout)
}

type appender interface {
	Append(group string, run model.BenchRun) (history.Outcome, int, error)
}

func importDataJS(store appender, path string) error {
	contents, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w while reading the import file", err)
	}

	imported, err := datajs.Parse(contents)
	if err != nil {
		return err
	}

	numAccepted, numSkipped := 0, 0
	for group, runs := range imported.Groups {
		for _, run := range runs {
			outcome, _, errAppend := store.Append(group, run)
			if outcome == history.Accepted {
				numAccepted++
				continue
			}

			numSkipped++
			log.Debug("skipped imported run", "group", group, "revision", run.Revision.ID, "error", errAppend)
		}
	}

	log.Info("imported data.js", "file", path, "accepted", numAccepted, "skipped", numSkipped)

	return nil
}

func countRuns(h model.History) int {
	numRuns := 0
	for _, runs := range h.Groups {
		numRuns += len(runs)
	}

	return numRuns
}

// GetStore returns the append store component
func (ch *componentsHandler) GetStore() api.HistoryReader {
	return ch.store
}

// GetServer returns the server component
func (ch *componentsHandler) GetServer() Server {
	return ch.server
}

// Start starts the inner components. The flush loop is not started if the server can not listen
func (ch *componentsHandler) Start() error {
	err := ch.server.Start()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch.cancel = cancel
	commonGo.CronJobStarter(ctx, ch.flush, ch.flushInterval)

	return nil
}

// Flush saves the current snapshot through the persister
func (ch *componentsHandler) Flush(ctx context.Context) error {
	ch.mutFlush.Lock()
	defer ch.mutFlush.Unlock()

	snapshot := ch.store.Snapshot()
	err := ch.persister.Save(ctx, snapshot)
	metrics.RecordFlush(err, countRuns(snapshot))

	return err
}

func (ch *componentsHandler) flush(ctx context.Context) {
	err := ch.Flush(ctx)
	if err != nil {
		log.Error("failed to flush the history", "error", err)
	}
}

// Close closes the inner components and flushes the history one last time
func (ch *componentsHandler) Close() {
	if ch.cancel != nil {
		ch.cancel()
	}

	err := ch.server.Close()
	log.LogIfError(err)

	err = ch.processor.Close()
	log.LogIfError(err)

	ctx, cancel := context.WithTimeout(context.Background(), persisterTimeout)
	defer cancel()
	ch.flush(ctx)

	err = ch.persister.Close()
	log.LogIfError(err)
}
