// Package httpapi serves the engine's HTTP surface: run management,
// suggestion retrieval, catalogs, health, metrics, and the SSE stream.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/optishift/optishift/internal/pipeline"
	"github.com/optishift/optishift/internal/store"
	"github.com/optishift/optishift/internal/store/postgres"
	"github.com/optishift/optishift/pkg/models"
)

// limitBody wraps r.Body with http.MaxBytesReader so handlers cannot read more
// than maxBytes. Call for requests that have a body before decoding JSON.
func limitBody(w http.ResponseWriter, r *http.Request, maxBytes int64) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
}

// bodyLimitMiddleware limits request body size for POST, PUT, PATCH to prevent OOM.
func bodyLimitMiddleware(maxBytes int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			limitBody(w, r, maxBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware sets permissive CORS headers for dev mode.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ServerOptions configures the HTTP server (home dir, listen addr, API key, DB, metrics).
type ServerOptions struct {
	Home           string
	Addr           string
	Dev            bool
	APIKey         string       // if set, require X-API-Key header or query api_key
	DBDriver       string       // "sqlite" (default) or "postgres"
	DBURL          string       // for postgres: connection string (or set DATABASE_URL env)
	MetricsHandler http.Handler // if set, used for /metrics (e.g. OTel Prometheus handler)
	UseOtelHTTP    bool         // if true, wrap handler with otelhttp for request metrics
	Orchestrator   *pipeline.Orchestrator // if nil, one is built over the opened store
}

// App holds the HTTP server, SSE hub, store, and orchestrator.
type App struct {
	Server       *http.Server
	Hub          *SSEHub
	Store        store.Store
	Orchestrator *pipeline.Orchestrator
	Home         string
}

// NewApp creates the HTTP app (server, hub, store, orchestrator) and registers all routes.
func NewApp(opts ServerOptions) (*App, error) {
	hub := NewSSEHub()
	mux := http.NewServeMux()

	var st store.Store
	var err error
	if opts.DBDriver == "postgres" {
		st, err = postgres.Open(opts.DBURL)
	} else {
		st, err = store.Open(opts.Home)
	}
	if err != nil {
		return nil, err
	}

	orch := opts.Orchestrator
	if orch == nil {
		orch = pipeline.NewOrchestrator(st)
	}
	orch.Publish = hub.PublishEvent

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})

	if opts.MetricsHandler != nil {
		mux.Handle("/metrics", opts.MetricsHandler)
	} else {
		mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			runs, _ := st.ListRuns(r.Context(), 0)
			counts := map[string]int{}
			for _, run := range runs {
				counts[run.Status]++
			}
			_, _ = w.Write([]byte("# TYPE optishift_runs_total gauge\n"))
			for _, status := range []string{
				models.RunStatusDraft, models.RunStatusAnalyzing, models.RunStatusGenerating,
				models.RunStatusValidating, models.RunStatusCompleted, models.RunStatusFailed,
				models.RunStatusCancelled,
			} {
				_, _ = w.Write([]byte("optishift_runs_total{status=\"" + status + "\"} " + strconv.Itoa(counts[status]) + "\n"))
			}
		})
	}

	mux.HandleFunc("/stream", hub.Handler())

	// --- Runs ---
	mux.HandleFunc("/runs", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			runs, err := st.ListRuns(r.Context(), models.DefaultRunListLimit)
			if err != nil {
				writeJSONError(w, http.StatusInternalServerError, err.Error())
				return
			}
			out := make([]models.Run, len(runs))
			for i, run := range runs {
				out[i] = runToAPI(run)
			}
			writeJSON(w, out)
		case http.MethodPost:
			var req models.CreateRunRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid json")
				return
			}
			run, err := orch.CreateRun(r.Context(), req)
			if err != nil {
				if errors.Is(err, pipeline.ErrInvalidConfiguration) {
					writeJSONError(w, http.StatusBadRequest, err.Error())
					return
				}
				writeJSONError(w, http.StatusInternalServerError, err.Error())
				return
			}
			w.WriteHeader(http.StatusCreated)
			writeJSON(w, runToAPI(run))
		default:
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})

	// --- Run-scoped endpoints ---
	mux.HandleFunc("/runs/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/runs/")
		parts := strings.Split(rest, "/")
		if len(parts) < 1 || parts[0] == "" {
			writeJSONError(w, http.StatusNotFound, "not found")
			return
		}
		runID := parts[0]

		// /runs/{id}
		if len(parts) == 1 || parts[1] == "" {
			if r.Method != http.MethodGet {
				writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			run, stages, progress, err := orch.Status(r.Context(), runID)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			stageOut := make([]models.StageRun, len(stages))
			for i, sr := range stages {
				stageOut[i] = stageToAPI(sr)
			}
			writeJSON(w, models.RunStatus{Run: runToAPI(run), Stages: stageOut, Progress: progress})
			return
		}

		switch parts[1] {
		case "suggestions":
			if r.Method != http.MethodGet {
				writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			// Compliant, ranked suggestions by default; ?all=1 includes the rest.
			onlyCompliant := r.URL.Query().Get("all") == ""
			suggestions, err := st.ListSuggestions(r.Context(), runID, onlyCompliant)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			out := make([]models.Suggestion, len(suggestions))
			for i, s := range suggestions {
				out[i] = suggestionToAPI(s)
				details, err := st.ListSuggestionDetails(r.Context(), s.SuggestionID)
				if err != nil {
					writeStoreError(w, err)
					return
				}
				for _, d := range details {
					out[i].Details = append(out[i].Details, detailToAPI(d))
				}
			}
			writeJSON(w, out)
		case "intervals":
			if r.Method != http.MethodGet {
				writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			intervals, err := st.ListCoverageIntervals(r.Context(), runID)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			out := make([]models.CoverageInterval, len(intervals))
			for i, iv := range intervals {
				out[i] = intervalToAPI(iv)
			}
			writeJSON(w, out)
		case "patterns":
			if r.Method != http.MethodGet {
				writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			patterns, err := st.ListGapPatterns(r.Context(), runID)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			out := make([]models.GapPattern, len(patterns))
			for i, p := range patterns {
				out[i] = patternToAPI(p)
			}
			writeJSON(w, out)
		case "cancel":
			if r.Method != http.MethodPost {
				writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			if err := orch.Cancel(r.Context(), runID); err != nil {
				if strings.Contains(err.Error(), "not cancellable") {
					writeJSONError(w, http.StatusConflict, err.Error())
					return
				}
				writeStoreError(w, err)
				return
			}
			writeJSON(w, map[string]any{"ok": true})
		default:
			writeJSONError(w, http.StatusNotFound, "not found")
		}
	})

	// --- Constraint catalog ---
	mux.HandleFunc("/constraints", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			at := time.Now().UTC()
			if s := r.URL.Query().Get("active_at"); s != "" {
				t, err := time.Parse(time.RFC3339, s)
				if err != nil {
					writeJSONError(w, http.StatusBadRequest, "invalid active_at")
					return
				}
				at = t
			}
			constraints, err := st.ListConstraints(r.Context(), at)
			if err != nil {
				writeJSONError(w, http.StatusInternalServerError, err.Error())
				return
			}
			out := make([]models.Constraint, len(constraints))
			for i, c := range constraints {
				out[i] = constraintToAPI(c)
			}
			writeJSON(w, out)
		case http.MethodPost:
			var body models.Constraint
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid json")
				return
			}
			if body.Name == "" || body.Type == "" {
				writeJSONError(w, http.StatusBadRequest, "name and type required")
				return
			}
			if err := st.UpsertConstraint(r.Context(), constraintFromAPI(body)); err != nil {
				writeJSONError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeJSON(w, map[string]any{"ok": true})
		default:
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})

	// --- Roster ---
	mux.HandleFunc("/employees", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			employees, err := st.ListEmployees(r.Context())
			if err != nil {
				writeJSONError(w, http.StatusInternalServerError, err.Error())
				return
			}
			out := make([]models.Employee, len(employees))
			for i, e := range employees {
				out[i] = employeeToAPI(e)
			}
			writeJSON(w, out)
		case http.MethodPost:
			var body models.Employee
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid json")
				return
			}
			if body.Name == "" {
				writeJSONError(w, http.StatusBadRequest, "name required")
				return
			}
			id, err := st.UpsertEmployee(r.Context(), employeeFromAPI(body))
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, err.Error())
				return
			}
			body.EmployeeID = id
			writeJSON(w, body)
		default:
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})

	var handler http.Handler = mux
	handler = bodyLimitMiddleware(models.DefaultMaxRequestBodyBytes, handler)
	if opts.Dev {
		handler = corsMiddleware(handler)
	}
	if opts.APIKey != "" {
		handler = apiKeyMiddleware(opts.APIKey, handler)
	}
	handler = requestLogMiddleware(handler)
	if opts.UseOtelHTTP {
		handler = otelhttp.NewHandler(handler, "optishift")
	}
	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	srv.RegisterOnShutdown(func() {
		_ = st.Close()
	})

	return &App{Server: srv, Hub: hub, Store: st, Orchestrator: orch, Home: opts.Home}, nil
}

// responseRecorder captures status code for logging and forwards Flusher if supported.
type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func apiKeyMiddleware(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/health" || path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		key := r.Header.Get("X-API-Key")
		if key == "" {
			key = r.URL.Query().Get("api_key")
		}
		if key != apiKey {
			writeJSONError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)
		slog.Info("request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// writeJSONError sends a JSON body {"error": "message"} with the given status code.
func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": message})
}

// writeStoreError maps store lookup failures to 404 and everything else to 500.
func writeStoreError(w http.ResponseWriter, err error) {
	if strings.Contains(err.Error(), "not found") {
		writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSONError(w, http.StatusInternalServerError, err.Error())
}
