package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iulianpascalau/bench-tracker/services/tracker/common"
	"github.com/iulianpascalau/bench-tracker/services/tracker/datajs"
	"github.com/iulianpascalau/bench-tracker/services/tracker/history"
	"github.com/iulianpascalau/bench-tracker/services/tracker/query"
	"github.com/iulianpascalau/bench-tracker/services/tracker/regression"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var log = logger.GetOrCreate("api")

const metricQueryParam = "metric"
const windowSizeQueryParam = "n"

type server struct {
	router         *gin.Engine
	httpServer     *http.Server
	ingester       Ingester
	queries        QueryEngine
	history        HistoryReader
	serviceKey     string
	listenAddr     string
	generalHandler func(http.Handler) http.Handler
	wg             sync.WaitGroup
}

// ArgsWebServer defines the web server arguments
type ArgsWebServer struct {
	ServiceKeyApi  string
	ListenAddress  string
	Ingester       Ingester
	Queries        QueryEngine
	History        HistoryReader
	GeneralHandler func(http.Handler) http.Handler
}

// NewServer initializes the Gin engine and mounts all routes
func NewServer(args ArgsWebServer) (*server, error) {
	if check.IfNil(args.Ingester) {
		return nil, errors.New("ingester is required")
	}
	if check.IfNil(args.Queries) {
		return nil, errors.New("query engine is required")
	}
	if check.IfNil(args.History) {
		return nil, errors.New("history reader is required")
	}
	if args.GeneralHandler == nil {
		return nil, errors.New("nil http handler")
	}
	if len(args.ServiceKeyApi) == 0 {
		return nil, errors.New("empty service key")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(gin.Recovery())

	s := &server{
		router:         router,
		ingester:       args.Ingester,
		queries:        args.Queries,
		history:        args.History,
		serviceKey:     args.ServiceKeyApi,
		listenAddr:     args.ListenAddress,
		generalHandler: args.GeneralHandler,
	}

	s.setupRoutes()
	return s, nil
}

func (s *server) setupRoutes() {
	api := s.router.Group("/api")

	// Submitter ingestion endpoint
	api.POST("/runs", s.authAPIKey(), s.handleSubmitRun)

	// Read endpoints for the rendering front-end
	api.GET("/groups", s.handleGetGroups)
	api.GET("/groups/:group/runs", s.handleGetRuns)
	api.GET("/groups/:group/series", s.handleGetSeries)
	api.GET("/groups/:group/latest", s.handleGetLatest)
	api.GET("/groups/:group/window", s.handleGetWindow)
	api.GET("/data.js", s.handleGetDataJS)

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Start listens and serves connections
func (s *server) Start() error {
	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("%w while listening on %s", err, s.listenAddr)
	}
	s.listenAddr = ln.Addr().String()

	s.httpServer = &http.Server{
		Addr:    s.listenAddr,
		Handler: s.generalHandler(s.router),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Info("starting HTTP server", "address", s.listenAddr)

		err := s.httpServer.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
		}
	}()

	return nil
}

// Address returns the actual listen address
func (s *server) Address() string {
	return s.listenAddr
}

// Close gracefully stops the server
func (s *server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}
	s.wg.Wait()

	return nil
}

// --- Middlewares ---

func (s *server) authAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Api-Key")
		if key != s.serviceKey {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// --- Handlers ---

func (s *server) handleSubmitRun(c *gin.Context) {
	var payload common.SubmitRunPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, common.SubmitRunResponse{
			Outcome:  history.RejectedInvalidRun.String(),
			Error:    "invalid payload",
			Position: -1,
		})
		return
	}

	log.Debug("received run", "sender", c.Request.RemoteAddr, "group", payload.Group,
		"revision", payload.Run.Revision.ID, "num metrics", len(payload.Run.Metrics))

	result := s.ingester.Submit(payload.Group, payload.Run)
	response := common.SubmitRunResponse{
		Outcome:         result.Outcome.String(),
		Position:        result.Position,
		Classifications: result.Classifications,
	}
	if result.Err != nil {
		response.Error = result.Err.Error()
	}

	switch result.Outcome {
	case history.Accepted:
		c.JSON(http.StatusOK, response)
	case history.RejectedDuplicateRevision:
		c.JSON(http.StatusConflict, response)
	default:
		c.JSON(http.StatusBadRequest, response)
	}
}

func (s *server) handleGetGroups(c *gin.Context) {
	c.JSON(http.StatusOK, common.GroupsResponse{
		LastUpdate: s.history.LastUpdate(),
		Groups:     s.history.Groups(),
	})
}

func (s *server) handleGetRuns(c *gin.Context) {
	group := c.Param("group")

	c.JSON(http.StatusOK, common.RunsResponse{
		Group:   group,
		Metrics: s.queries.Metrics(group),
		Runs:    s.history.Get(group),
	})
}

func (s *server) metricParam(c *gin.Context) (string, bool) {
	metricName := c.Query(metricQueryParam)
	if len(metricName) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing metric query parameter"})
		return "", false
	}

	return metricName, true
}

func (s *server) handleGetSeries(c *gin.Context) {
	metricName, ok := s.metricParam(c)
	if !ok {
		return
	}

	group := c.Param("group")
	points := slices.Collect(s.queries.Series(group, metricName))
	if points == nil {
		points = make([]query.Point, 0)
	}

	c.JSON(http.StatusOK, common.SeriesResponse{
		Group:  group,
		Metric: metricName,
		Points: points,
	})
}

func (s *server) handleGetLatest(c *gin.Context) {
	metricName, ok := s.metricParam(c)
	if !ok {
		return
	}

	group := c.Param("group")
	response := common.LatestResponse{
		Group:  group,
		Metric: metricName,
	}

	point, found := s.queries.Latest(group, metricName)
	if found {
		response.Found = true
		response.Point = &point
	}

	c.JSON(http.StatusOK, response)
}

func (s *server) handleGetWindow(c *gin.Context) {
	metricName, ok := s.metricParam(c)
	if !ok {
		return
	}

	n := regression.DefaultWindowSize
	nString := c.Query(windowSizeQueryParam)
	if len(nString) > 0 {
		var err error
		n, err = strconv.Atoi(nString)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "window size must be a positive integer"})
			return
		}
	}

	group := c.Param("group")
	c.JSON(http.StatusOK, common.SeriesResponse{
		Group:  group,
		Metric: metricName,
		Points: s.queries.Window(group, metricName, n),
	})
}

func (s *server) handleGetDataJS(c *gin.Context) {
	body, err := datajs.Render(s.history.Snapshot())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Data(http.StatusOK, "application/javascript; charset=utf-8", body)
}

// IsInterfaceNil returns true if the value under the interface is nil
func (s *server) IsInterfaceNil() bool {
	return s == nil
}
