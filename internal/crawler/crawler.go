package crawler

import (
	"context"
	"equivcrawl/internal/components/assert"
	"equivcrawl/internal/components/telemetry"
	"equivcrawl/internal/equiv"
	"equivcrawl/internal/registrar"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

const (
	report_crawler_process_key = "crawler.process-key"
	report_crawler_outcome     = "crawler.outcome"
)

const DefaultWorkers = 20

// Outcome classifies what happened to a single key.
type Outcome string

const (
	OutcomeOK             Outcome = "ok"
	OutcomeAbsent         Outcome = "absent"
	OutcomeMalformed      Outcome = "malformed"
	OutcomeTransportError Outcome = "transport_error"
	OutcomeStoreError     Outcome = "store_error"
)

// Outcomes lists every outcome in reporting order.
var Outcomes = []Outcome{
	OutcomeOK,
	OutcomeAbsent,
	OutcomeMalformed,
	OutcomeTransportError,
	OutcomeStoreError,
}

// Source fetches the raw page of an institution, registrar.ErrNoData
// signals a code without an institution.
type Source interface {
	FetchInstitution(ctx context.Context, key string) ([]byte, error)
}

// Sink persists extracted tables.
type Sink interface {
	Write(table equiv.Table) error
}

// Summary counts the outcome of every key of a run.
type Summary struct {
	Counts   map[Outcome]int
	Duration time.Duration
}

func (s Summary) Total() int {
	total := 0
	for _, n := range s.Counts {
		total += n
	}
	return total
}

var meter = otel.Meter("equivcrawl.internal.crawler")
var outcomeCounter, _ = meter.Int64Counter(
	"crawler.outcomes",
	metric.WithDescription("keys processed, by outcome"),
)

type Crawler struct {
	source  Source
	sink    Sink
	workers int

	tel telemetry.API
}

func New(source Source, sink Sink, workers int, tel telemetry.API) Crawler {
	assert.NotNil(source)
	assert.NotNil(sink)
	assert.NotNil(tel)
	assert.Positive(workers)

	return Crawler{
		source:  source,
		sink:    sink,
		workers: workers,
		tel:     telemetry.NewScopedAPI("crawler", tel),
	}
}

// Run processes every key with at most `workers` keys in flight. A failing key never
// stops the others, cancelling ctx stops keys that have not started yet.
func (c Crawler) Run(ctx context.Context, keys []string) Summary {
	start := time.Now()

	counts := map[Outcome]int{}
	countsLock := sync.Mutex{}

	group := errgroup.Group{}
	group.SetLimit(c.workers)

	for _, key := range keys {
		key := key
		if ctx.Err() != nil {
			break
		}
		group.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			outcome := c.processKey(ctx, key)
			outcomeCounter.Add(ctx, 1, metric.WithAttributes(
				attribute.String("outcome", string(outcome)),
			))

			countsLock.Lock()
			defer countsLock.Unlock()
			counts[outcome]++
			return nil
		})
	}
	group.Wait()

	summary := Summary{
		Counts:   counts,
		Duration: time.Since(start),
	}
	for _, outcome := range Outcomes {
		c.tel.ReportCount(report_crawler_outcome+"."+string(outcome), int64(counts[outcome]))
	}
	return summary
}

func (c Crawler) processKey(ctx context.Context, key string) Outcome {
	body, err := c.source.FetchInstitution(ctx, key)
	if errors.Is(err, registrar.ErrNoData) {
		return OutcomeAbsent
	}
	if err != nil {
		c.tel.ReportWarning(report_crawler_process_key, key, OutcomeTransportError, err)
		return OutcomeTransportError
	}

	table, err := equiv.Extract(ctx, body, key)
	if err != nil {
		c.tel.ReportWarning(report_crawler_process_key, key, OutcomeMalformed, err)
		return OutcomeMalformed
	}

	err = c.sink.Write(table)
	if err != nil {
		c.tel.ReportBroken(report_crawler_process_key, key, OutcomeStoreError, err)
		return OutcomeStoreError
	}

	c.tel.ReportDebug("stored equivalency table", key, table.SchoolName, len(table.Rows))
	return OutcomeOK
}
