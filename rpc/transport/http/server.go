package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ValentinKolb/expmap/rpc/common"
	"github.com/ValentinKolb/expmap/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("transport/http")

func NewHttpServerTransport() transport.IRPCServerTransport {
	return &httpServerTransport{
		metrics: newTransportMetrics(),
	}
}

type httpServerTransport struct {
	handler      transport.ServerHandleFunc
	writeMetrics transport.MetricsWriteFunc
	config       common.ServerConfig
	metrics      *transportMetrics

	mu     sync.Mutex
	server *http.Server
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *httpServerTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *httpServerTransport) RegisterMetrics(writer transport.MetricsWriteFunc) {
	t.writeMetrics = writer
}

func (t *httpServerTransport) Listen(config common.ServerConfig) error {
	t.config = config

	server := &http.Server{
		Addr:              config.Endpoint,
		Handler:           t.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if config.TimeoutSecond > 0 {
		server.ReadTimeout = time.Duration(config.TimeoutSecond) * time.Second
		server.WriteTimeout = time.Duration(config.TimeoutSecond) * time.Second
	}

	t.mu.Lock()
	t.server = server
	t.mu.Unlock()

	Logger.Infof("Starting HTTP server on %s", config.Endpoint)

	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (t *httpServerTransport) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	server := t.server
	t.mu.Unlock()

	if server == nil {
		return nil
	}
	Logger.Infof("Shutting down HTTP server on %s", server.Addr)
	return server.Shutdown(ctx)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// routes builds the request multiplexer of the transport
func (t *httpServerTransport) routes() http.Handler {
	mux := http.NewServeMux()

	var rpc http.Handler = http.HandlerFunc(t.handleRequest)
	if t.config.LogLevel == "debug" {
		rpc = loggerMiddleware(rpc)
	}

	mux.Handle("POST /{shardId}", t.metrics.instrument("rpc", rpc))
	mux.Handle("GET /metrics", t.metrics.instrument("metrics", http.HandlerFunc(t.handleMetrics)))
	mux.Handle("GET /healthz", t.metrics.instrument("healthz", http.HandlerFunc(handleHealth)))
	return mux
}

// handleRequest handles incoming HTTP requests and writes the response to the writer
func (t *httpServerTransport) handleRequest(w http.ResponseWriter, r *http.Request) {
	// Parse shardId from request
	shardId, err := strconv.ParseUint(
		r.PathValue("shardId"),
		10, 64,
	)

	// Check if shardId is valid
	if err != nil {
		http.Error(w, "Invalid shardId", http.StatusBadRequest)
		return
	}

	if t.handler == nil {
		http.Error(w, "No handler registered", http.StatusServiceUnavailable)
		return
	}

	// Read request body
	body, err := io.ReadAll(r.Body)
	defer r.Body.Close()

	// Check if body could be read
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusInternalServerError)
		return
	}

	// Send the handler
	resp := t.handler(shardId, body)

	// Write response, the status line is already sent so a failure can only be logged
	if _, err = w.Write(resp); err != nil {
		Logger.Warningf("Failed to write response for shard %d: %v", shardId, err)
	}
}

// handleMetrics writes the transport metrics followed by the metrics of the maps
func (t *httpServerTransport) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	if err := t.metrics.write(w); err != nil {
		Logger.Warningf("Failed to write transport metrics: %v", err)
	}
	if t.writeMetrics != nil {
		t.writeMetrics(w)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

// --------------------------------------------------------------------------
// Middleware (logging)
// --------------------------------------------------------------------------

// responseWriter is a custom ResponseWriter that captures status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code before writing it
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// loggerMiddleware is a middleware that logs HTTP requests
func loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create custom response writer to capture status code
		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		// Process request
		next.ServeHTTP(rw, r)

		// Log the request
		duration := time.Since(start)
		Logger.Debugf("%s %s => %d took %s", r.Method, r.URL.Path, rw.statusCode, duration)
	})
}
