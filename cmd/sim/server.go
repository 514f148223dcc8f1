package main

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/joshbohde/semaphore"
	"github.com/joshbohde/semaphore/httplimit"
)

// resultSet collects results as simulations finish.
type resultSet struct {
	mu      sync.Mutex
	results []Result
	done    bool
}

func (rs *resultSet) add(r Result) {
	rs.mu.Lock()
	rs.results = append(rs.results, r)
	rs.mu.Unlock()
}

func (rs *resultSet) finish() {
	rs.mu.Lock()
	rs.done = true
	rs.mu.Unlock()
}

type resultsResponse struct {
	Done    bool     `json:"done"`
	Results []Result `json:"results"`
}

func (rs *resultSet) snapshot() resultsResponse {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	return resultsResponse{
		Done:    rs.done,
		Results: append([]Result(nil), rs.results...),
	}
}

// NewRouter serves the collected results, admitting at most concurrency
// requests at a time.
func NewRouter(rs *resultSet, concurrency int, logger *log.Logger) (http.Handler, error) {
	sem, err := semaphore.New(concurrency, concurrency)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(httplimit.Middleware(sem, 100*time.Millisecond, logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/results", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(rs.snapshot())
	})

	return r, nil
}
