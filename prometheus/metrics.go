// Package prometheus instruments the fetcher, embedder and store with
// Prometheus collectors.
package prometheus

import (
	"context"
	"time"

	"github.com/fwojciec/docindex"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors shared by the instrumented services.
type Metrics struct {
	FetchTotal      *prom.CounterVec
	FetchDuration   prom.Histogram
	FetchAttempts   prom.Histogram
	EmbedTexts      prom.Counter
	EmbedErrors     prom.Counter
	PassagesTotal   *prom.CounterVec
	SearchTotal     *prom.CounterVec
	SearchDuration  prom.Histogram
	SearchResults   prom.Histogram
	StoreOperations *prom.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prom.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FetchTotal: f.NewCounterVec(prom.CounterOpts{
			Name: "docindex_fetch_total",
			Help: "Total number of page fetches, labeled by outcome code.",
		}, []string{"code"}),
		FetchDuration: f.NewHistogram(prom.HistogramOpts{
			Name:    "docindex_fetch_duration_seconds",
			Help:    "Histogram of fetch latencies including retries.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		FetchAttempts: f.NewHistogram(prom.HistogramOpts{
			Name:    "docindex_fetch_attempts",
			Help:    "Histogram of attempts per successful fetch.",
			Buckets: []float64{1, 2, 3, 4, 5},
		}),
		EmbedTexts: f.NewCounter(prom.CounterOpts{
			Name: "docindex_embed_texts_total",
			Help: "Total number of texts sent for embedding.",
		}),
		EmbedErrors: f.NewCounter(prom.CounterOpts{
			Name: "docindex_embed_errors_total",
			Help: "Total number of failed embedding calls.",
		}),
		PassagesTotal: f.NewCounterVec(prom.CounterOpts{
			Name: "docindex_passages_total",
			Help: "Total number of passages handled by ingestion, labeled by result.",
		}, []string{"result"}),
		SearchTotal: f.NewCounterVec(prom.CounterOpts{
			Name: "docindex_search_total",
			Help: "Total number of searches, labeled by outcome code.",
		}, []string{"code"}),
		SearchDuration: f.NewHistogram(prom.HistogramOpts{
			Name:    "docindex_search_duration_seconds",
			Help:    "Histogram of search latencies including embedding.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),
		SearchResults: f.NewHistogram(prom.HistogramOpts{
			Name:    "docindex_search_results",
			Help:    "Histogram of result counts per search.",
			Buckets: []float64{0, 1, 5, 10, 25, 50},
		}),
		StoreOperations: f.NewCounterVec(prom.CounterOpts{
			Name: "docindex_store_operations_total",
			Help: "Total number of store maintenance operations, labeled by operation and outcome code.",
		}, []string{"op", "code"}),
	}
}

// outcome returns the label value for err.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return docindex.ErrorCode(err)
}

// Ensure Fetcher implements docindex.Fetcher.
var _ docindex.Fetcher = (*Fetcher)(nil)

// Fetcher wraps a docindex.Fetcher with metrics.
type Fetcher struct {
	next    docindex.Fetcher
	metrics *Metrics
}

// NewFetcher creates a new instrumented Fetcher.
func NewFetcher(next docindex.Fetcher, metrics *Metrics) *Fetcher {
	return &Fetcher{next: next, metrics: metrics}
}

// Fetch delegates to the wrapped fetcher and records the outcome.
func (f *Fetcher) Fetch(ctx context.Context, url string, policy docindex.CrawlPolicy) (*docindex.FetchResult, error) {
	begin := time.Now()
	result, err := f.next.Fetch(ctx, url, policy)
	f.metrics.FetchDuration.Observe(time.Since(begin).Seconds())
	f.metrics.FetchTotal.WithLabelValues(outcome(err)).Inc()
	if err == nil && result != nil {
		f.metrics.FetchAttempts.Observe(float64(result.Attempts))
	}
	return result, err
}

// Ensure Embedder implements docindex.Embedder.
var _ docindex.Embedder = (*Embedder)(nil)

// Embedder wraps a docindex.Embedder with metrics.
type Embedder struct {
	next    docindex.Embedder
	metrics *Metrics
}

// NewEmbedder creates a new instrumented Embedder.
func NewEmbedder(next docindex.Embedder, metrics *Metrics) *Embedder {
	return &Embedder{next: next, metrics: metrics}
}

// Embed delegates to the wrapped embedder and counts texts and failures.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.metrics.EmbedTexts.Add(float64(len(texts)))
	vectors, err := e.next.Embed(ctx, texts)
	if err != nil {
		e.metrics.EmbedErrors.Inc()
	}
	return vectors, err
}
