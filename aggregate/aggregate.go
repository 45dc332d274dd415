// Package aggregate turns per-source fetch results into the single ordered
// collection the pipeline publishes.
package aggregate

import (
	"context"
	"sort"
	"sync"
	"time"

	"cnwire/models"
	"cnwire/normalize"
	"cnwire/sources"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

var (
	fetchRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cnwire_source_records_total",
		Help: "Records fetched per source before merging",
	}, []string{"source"})

	fetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cnwire_source_errors_total",
		Help: "Fetch attempts that degraded to an empty contribution",
	}, []string{"source"})

	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cnwire_source_fetch_duration_seconds",
		Help:    "Wall time of each source fetch",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"source"})

	droppedRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cnwire_records_dropped_total",
		Help: "Records dropped while merging, by reason",
	}, []string{"reason"})
)

// Fetch runs every source concurrently and returns one result per source, in
// the same order as srcs, so downstream ordering never depends on which
// upstream answered first. Each source works against its own deadline and a
// failure only empties that source's slot.
func Fetch(ctx context.Context, srcs []sources.Source, timeout time.Duration) []models.FetchResult {
	results := make([]models.FetchResult, len(srcs))

	var wg sync.WaitGroup
	for i, src := range srcs {
		wg.Add(1)
		go func(i int, src sources.Source) {
			defer wg.Done()
			results[i] = fetchOne(ctx, src, timeout)
		}(i, src)
	}
	wg.Wait()

	return results
}

func fetchOne(ctx context.Context, src sources.Source, timeout time.Duration) models.FetchResult {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	records, err := src.Fetch(ctx)
	elapsed := time.Since(start)

	fetchDuration.WithLabelValues(src.Name()).Observe(elapsed.Seconds())
	if err != nil {
		fetchErrors.WithLabelValues(src.Name()).Inc()
		log.WithFields(log.Fields{
			"source":  src.Name(),
			"elapsed": elapsed.Round(time.Millisecond),
		}).Warn("source degraded: ", err)
		return models.FetchResult{Source: src.Name(), Err: err, Elapsed: elapsed}
	}

	fetchRecords.WithLabelValues(src.Name()).Add(float64(len(records)))
	log.WithFields(log.Fields{
		"source":  src.Name(),
		"records": len(records),
		"elapsed": elapsed.Round(time.Millisecond),
	}).Info("source fetched")
	return models.FetchResult{Source: src.Name(), Records: records, Elapsed: elapsed}
}

// Merge flattens per-source results into the published collection:
// concatenate in source order, drop later copies of a (source, link) pair,
// drop records that fail the link and timestamp rules, then sort newest
// first. The sort is stable, so records with equal timestamps keep their
// concatenation order: source order first, upstream order within a source.
func Merge(results []models.FetchResult) []models.Record {
	var merged []models.Record
	for _, result := range results {
		merged = append(merged, result.Records...)
	}

	deduped := lo.UniqBy(merged, models.Record.Key)
	if dups := len(merged) - len(deduped); dups > 0 {
		droppedRecords.WithLabelValues("duplicate").Add(float64(dups))
		log.WithField("duplicates", dups).Debug("dropped duplicate records")
	}

	kept := lo.Filter(deduped, func(record models.Record, _ int) bool {
		return validate(record)
	})

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].PubDate.After(kept[j].PubDate)
	})
	return kept
}

func validate(record models.Record) bool {
	var reason string
	switch {
	case !normalize.ValidLink(record.Link):
		reason = "invalid_link"
	case record.PubDate.IsZero():
		reason = "missing_time"
	case record.TitleZh == "":
		reason = "empty_title"
	default:
		return true
	}

	droppedRecords.WithLabelValues(reason).Inc()
	log.WithFields(log.Fields{
		"source": record.Source,
		"link":   record.Link,
		"reason": reason,
	}).Debug("dropped invalid record")
	return false
}

// Combine folds a previously published collection in behind the fresh one so
// items that already fell out of an upstream's window survive across runs.
// Fresh records come first and therefore win deduplication. max caps the
// combined size, zero meaning no cap.
func Combine(fresh, previous []models.Record, max int) []models.Record {
	combined := make([]models.Record, 0, len(fresh)+len(previous))
	combined = append(combined, fresh...)
	combined = append(combined, previous...)

	combined = lo.UniqBy(combined, models.Record.Key)
	combined = lo.Filter(combined, func(record models.Record, _ int) bool {
		return validate(record)
	})

	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].PubDate.After(combined[j].PubDate)
	})

	if max > 0 && len(combined) > max {
		combined = combined[:max]
	}
	return combined
}
