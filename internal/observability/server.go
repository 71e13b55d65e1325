// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigmatch Contributors

// Package observability provides HTTP endpoints for metrics and health
// checks while sigmatch runs in stream mode.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains the Prometheus metrics of the matching pipeline.
type Metrics struct {
	// EventsTotal counts ingested events.
	EventsTotal prometheus.Counter
	// MatchesTotal counts matches by rule title.
	MatchesTotal *prometheus.CounterVec
	// EvaluateDuration tracks per-event evaluation latency across all
	// loaded rules.
	EvaluateDuration prometheus.Histogram
}

// NewMetrics creates and registers the matching metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigmatch_events_total",
			Help: "Total number of events evaluated",
		}),
		MatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigmatch_matches_total",
				Help: "Total number of rule matches by rule",
			},
			[]string{"rule"},
		),
		EvaluateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sigmatch_evaluate_duration_seconds",
			Help:    "Histogram of per-event evaluation latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(m.EventsTotal)
	reg.MustRegister(m.MatchesTotal)
	reg.MustRegister(m.EvaluateDuration)

	return m
}

// RecordEvaluation records one evaluated event and its matches.
func (m *Metrics) RecordEvaluation(duration time.Duration, matchedRules []string) {
	m.EventsTotal.Inc()
	m.EvaluateDuration.Observe(duration.Seconds())
	for _, rule := range matchedRules {
		m.MatchesTotal.WithLabelValues(rule).Inc()
	}
}

// ReadinessChecker returns whether the pipeline is ready to evaluate.
type ReadinessChecker func() bool

// Server provides HTTP endpoints for observability (metrics and health
// probes).
type Server struct {
	addr       string
	listener   net.Listener
	httpServer *http.Server
	registry   *prometheus.Registry
	metrics    *Metrics
	isReady    ReadinessChecker
	running    atomic.Bool
}

// NewServer creates a new observability server with its own registry so
// the global one stays untouched.
func NewServer(addr string, readinessChecker ReadinessChecker) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Server{
		addr:     addr,
		registry: registry,
		metrics:  NewMetrics(registry),
		isReady:  readinessChecker,
	}
}

// Metrics returns the matching metrics for recording pipeline events.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Addr returns the bound address once the server has started.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Start begins serving observability endpoints.
func (s *Server) Start() error {
	if s.running.Load() {
		return fmt.Errorf("observability server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if s.isReady != nil && !s.isReady() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.running.Store(true)

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			slog.Error("observability server failed", "error", err)
		}
	}()

	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.running.Swap(false) {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down observability server: %w", err)
	}
	return nil
}
