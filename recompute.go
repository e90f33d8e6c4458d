package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// This file implements the recompute pipeline: centroid -> provider fetch
// -> cache supersede -> temporal aggregation -> rule classification. Each
// region's pipeline is independent; one region's failure never aborts the
// others. Results commit under the store lock only while their generation
// is still current, so a late-arriving stale response cannot clobber a
// fresher one.

// seriesCacheTTL keeps cached series slightly shorter-lived than the
// default scheduler refresh interval, so a scheduled refresh never races a
// just-expired entry.
const seriesCacheTTL = 55 * time.Minute

func seriesCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("timeseries:%s", id.String())
}

// fetchAndClassify runs the full pipeline for one region. On provider
// failure the region degrades to the default color with its value cleared;
// on a successful fetch the cached series for the region is superseded and
// the selection is classified against it.
func (s *RegionStore) fetchAndClassify(ctx context.Context, id uuid.UUID, gen uint64, sel TimelineSelection) {
	s.mu.Lock()
	region, ok := s.regions[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	boundary := append([]Point(nil), region.Boundary...)
	s.mu.Unlock()

	center := polygonCenter(boundary)
	startDate, endDate := selectionDateSpan(sel)

	series, err := s.provider.FetchSeries(ctx, center.Latitude, center.Longitude, startDate, endDate)
	if err != nil {
		providerErrorsTotal.Inc()
		recomputesTotal.WithLabelValues("error").Inc()
		s.logger.Warn("provider fetch failed", "region", id, "error", err)
		s.commitFailure(id, gen)
		return
	}

	if cacheErr := s.cache.Set(ctx, seriesCacheKey(id), series, seriesCacheTTL); cacheErr != nil {
		s.logger.Warn("error caching series", "region", id, "error", cacheErr)
	}

	s.classifySeries(id, gen, series, sel)
}

// classifyFromCache reclassifies a region from its cached series, used by
// rule and data-source edits where the location is unchanged and a refetch
// would be redundant. A cache miss (or an unreadable entry) falls back to
// the full fetch pipeline asynchronously.
func (s *RegionStore) classifyFromCache(ctx context.Context, id uuid.UUID) {
	s.mu.Lock()
	if _, ok := s.regions[id]; !ok {
		s.mu.Unlock()
		return
	}
	gen := s.nextGenerationLocked(id)
	sel := s.selection
	s.mu.Unlock()

	cached, err := s.cache.Get(ctx, seriesCacheKey(id))
	if err == nil {
		var series TimeSeries
		if jsonErr := json.Unmarshal([]byte(cached), &series); jsonErr == nil {
			s.logger.Debug("series cache hit", "region", id)
			s.classifySeries(id, gen, series, sel)
			return
		}
		s.logger.Warn("invalid cached series, refetching", "region", id)
	} else if err != redis.Nil {
		s.logger.Warn("error reading series cache", "region", id, "error", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.fetchAndClassify(ctx, id, gen, sel)
	}()
}

// classifySeries resolves the selection against a series and commits the
// resulting (value, color) pair. An absent value leaves the region's
// display untouched rather than resetting it; an empty rule set skips the
// write entirely.
func (s *RegionStore) classifySeries(id uuid.UUID, gen uint64, series TimeSeries, sel TimelineSelection) {
	value, ok := selectionValue(series, sel)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generations[id] != gen {
		staleResultsTotal.Inc()
		s.logger.Debug("discarding stale recompute result", "region", id, "generation", gen)
		return
	}
	region, exists := s.regions[id]
	if !exists {
		return
	}

	if !ok {
		recomputesTotal.WithLabelValues("nodata").Inc()
		s.logger.Debug("no sample for selection, display unchanged", "region", id)
		return
	}
	if len(region.Rules) == 0 {
		s.logger.Debug("region has no rules, display unchanged", "region", id)
		return
	}

	color := applyColorRules(value, region.Rules)
	region.CurrentValue = &value
	region.CurrentColor = color
	recomputesTotal.WithLabelValues("ok").Inc()
	s.logger.Debug("region classified", "region", id, "value", value, "color", color)

	s.notifier.Publish(ChangeEvent{Type: EventRegionsChanged})
}

// commitFailure applies the degraded display state after a provider
// failure: default color, value cleared. Stale failures are discarded the
// same way as stale successes.
func (s *RegionStore) commitFailure(id uuid.UUID, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generations[id] != gen {
		staleResultsTotal.Inc()
		return
	}
	region, exists := s.regions[id]
	if !exists {
		return
	}

	region.CurrentColor = defaultColor
	region.CurrentValue = nil

	s.notifier.Publish(ChangeEvent{Type: EventRegionsChanged})
}
