package marketdata

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gavincooper/vehicle-valuator/internal/metrics"
	"github.com/gavincooper/vehicle-valuator/pkg/logger"
	score "github.com/gavincooper/vehicle-valuator/pkg/scorer"
	domain "github.com/gavincooper/vehicle-valuator/pkg/types"
)

const defaultSourceTimeout = 5 * time.Second

// Aggregator queries every configured source concurrently and merges the
// partial snapshots into one. A source that errors or exceeds the
// per-source timeout is dropped from the merge; the aggregate fails only
// when every source fails. Merged listings are ranked most comparable
// first.
type Aggregator struct {
	sources       []Source
	sourceTimeout time.Duration
	log           *slog.Logger
	now           func() time.Time
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithSourceTimeout sets the per-source fetch timeout.
func WithSourceTimeout(d time.Duration) AggregatorOption {
	return func(a *Aggregator) { a.sourceTimeout = d }
}

// WithAggregatorLogger sets the logger.
func WithAggregatorLogger(l *slog.Logger) AggregatorOption {
	return func(a *Aggregator) { a.log = l }
}

// WithAggregatorClock overrides the time source used for listing recency.
func WithAggregatorClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) { a.now = now }
}

// NewAggregator creates an Aggregator over the given sources.
func NewAggregator(sources []Source, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		sources:       sources,
		sourceTimeout: defaultSourceTimeout,
		log:           logger.Nop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Fetch fans the query out to all sources and merges the successful
// responses. Returns ErrNoSources when none succeed.
func (a *Aggregator) Fetch(ctx context.Context, q Query) (*domain.MarketSnapshot, error) {
	if len(a.sources) == 0 {
		return nil, ErrNoSources
	}

	var mu sync.Mutex
	snapshots := make([]*domain.MarketSnapshot, 0, len(a.sources))

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range a.sources {
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(gctx, a.sourceTimeout)
			defer cancel()

			start := time.Now()
			snapshot, err := src.Fetch(fetchCtx, q)
			metrics.SourceFetchDuration.WithLabelValues(src.Name()).Observe(time.Since(start).Seconds())

			if err != nil {
				metrics.SourceFetchesTotal.WithLabelValues(src.Name(), "error").Inc()
				a.log.Warn("market data source failed",
					slog.String("source", src.Name()),
					slog.String("error", err.Error()))
				// partial failure is tolerated
				return nil
			}

			metrics.SourceFetchesTotal.WithLabelValues(src.Name(), "ok").Inc()
			mu.Lock()
			snapshots = append(snapshots, snapshot)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching market data: %w", err)
	}

	if len(snapshots) == 0 {
		return nil, ErrNoSources
	}

	merged := merge(snapshots)
	rankListings(merged.LocalListings, q, a.now())
	a.log.Debug("market data aggregated",
		slog.Int("sources_ok", len(snapshots)),
		slog.Int("sources_total", len(a.sources)),
		slog.Int("listings", len(merged.LocalListings)))

	return merged, nil
}

// merge combines partial snapshots: listings, histories and source names
// concatenate; averages combine over sources that reported positive prices;
// trends come from the first source that has any; quality takes the
// pessimistic minimum while availability takes the optimistic maximum.
func merge(snapshots []*domain.MarketSnapshot) *domain.MarketSnapshot {
	out := &domain.MarketSnapshot{
		Quality:      math.Inf(1),
		Availability: math.Inf(-1),
	}

	var priceSum, nationalSum, demandSum, timeSum float64
	var priced int

	for _, s := range snapshots {
		out.LocalListings = append(out.LocalListings, s.LocalListings...)
		out.HistoricalPrices = append(out.HistoricalPrices, s.HistoricalPrices...)
		out.SourcesUsed = append(out.SourcesUsed, s.SourcesUsed...)
		out.TotalListings += s.TotalListings

		if len(out.SeasonalTrends) == 0 && len(s.SeasonalTrends) > 0 {
			out.SeasonalTrends = s.SeasonalTrends
		}

		if s.AveragePrice > 0 {
			priceSum += s.AveragePrice
			nationalSum += s.NationalAverage
			priced++
		}
		demandSum += s.DemandIndex
		timeSum += s.AverageTimeOnMarket

		out.Quality = math.Min(out.Quality, s.Quality)
		out.Availability = math.Max(out.Availability, s.Availability)
	}

	if priced > 0 {
		out.AveragePrice = priceSum / float64(priced)
		out.NationalAverage = nationalSum / float64(priced)
	}
	n := float64(len(snapshots))
	out.DemandIndex = demandSum / n
	out.AverageTimeOnMarket = timeSum / n
	out.PriceVariance = priceVariance(out.LocalListings)

	return out
}

// rankListings sorts listings most comparable first. Ties keep the merge
// order so equally relevant listings stay grouped by source.
func rankListings(listings []domain.MarketListing, q Query, now time.Time) {
	if len(listings) < 2 {
		return
	}

	subject := score.Subject{Year: q.Year, Mileage: q.Mileage}
	weights := score.DefaultWeights()

	type ranked struct {
		listing domain.MarketListing
		total   int
	}
	rows := make([]ranked, len(listings))
	for i := range listings {
		rows[i] = ranked{
			listing: listings[i],
			total:   score.Score(listingData(&listings[i], now), subject, weights).Total,
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].total > rows[j].total
	})
	for i := range rows {
		listings[i] = rows[i].listing
	}
}

func listingData(l *domain.MarketListing, now time.Time) score.ListingData {
	daysListed := -1.0
	if !l.ListedDate.IsZero() {
		daysListed = now.Sub(l.ListedDate).Hours() / 24
	}
	return score.ListingData{
		Year:         l.Year,
		Mileage:      l.Mileage,
		DaysListed:   daysListed,
		Dealer:       l.Dealer,
		Certified:    l.Certified,
		HasTrim:      l.Trim != "",
		HasCondition: l.Condition != "",
		HasURL:       l.URL != "",
		FeatureCount: len(l.Features),
	}
}

// SourceNames returns the configured source identifiers.
func (a *Aggregator) SourceNames() []string {
	names := make([]string, len(a.sources))
	for i, s := range a.sources {
		names[i] = s.Name()
	}
	return names
}
