package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// This file implements the region store: the authoritative, process-lifetime
// collection of drawn regions and the active timeline selection. All state
// mutations are serialized through the store's mutex; recomputes run
// concurrently but commit their results through the same lock, guarded by
// per-region generation counters (see recompute.go).

// ErrRegionNotFound is returned by mutations addressing an unknown region id.
var ErrRegionNotFound = errors.New("region not found")

// ErrUnknownDataSource is returned when a data-source ref is not in the catalog.
var ErrUnknownDataSource = errors.New("unknown data source")

// dataSourceCatalog lists the data sources a region may reference. More
// providers slot in here as they are implemented.
var dataSourceCatalog = []string{"Open-Meteo"}

type RegionStore struct {
	logger   *slog.Logger
	provider SeriesProvider
	cache    Cache
	notifier *changeNotifier

	mu          sync.Mutex
	regions     map[uuid.UUID]*Region
	order       []uuid.UUID
	selection   TimelineSelection
	generations map[uuid.UUID]uint64
	created     int

	// wg tracks in-flight asynchronous recomputes so shutdown and tests
	// can wait for them to settle.
	wg sync.WaitGroup
}

// NewRegionStore constructs an empty store with the given collaborators.
// The initial selection is single mode at the current hour (UTC).
func NewRegionStore(logger *slog.Logger, provider SeriesProvider, cache Cache, notifier *changeNotifier) *RegionStore {
	return &RegionStore{
		logger:   logger,
		provider: provider,
		cache:    cache,
		notifier: notifier,
		regions:  make(map[uuid.UUID]*Region),
		selection: TimelineSelection{
			Mode:    TimelineModeSingle,
			Instant: time.Now().UTC().Truncate(time.Hour),
		},
		generations: make(map[uuid.UUID]uint64),
	}
}

// CreateRegion adds a completed polygon as a new region and schedules its
// first fetch+classify. The caller may leave name, dataSource and rules
// empty: they default to "Region N", the first catalog entry, and the
// default rule set. The returned region snapshot has no value/color yet.
func (s *RegionStore) CreateRegion(ctx context.Context, boundary []Point, name, dataSource string, rules []ColorRule) (Region, error) {
	if len(boundary) < minPolygonPoints || len(boundary) > maxPolygonPoints {
		return Region{}, fmt.Errorf("boundary must have between %d and %d points, got %d", minPolygonPoints, maxPolygonPoints, len(boundary))
	}
	if dataSource == "" {
		dataSource = dataSourceCatalog[0]
	} else if !knownDataSource(dataSource) {
		return Region{}, ErrUnknownDataSource
	}
	if rules == nil {
		rules = defaultColorRules()
	} else {
		checked, err := validateRules(rules)
		if err != nil {
			return Region{}, err
		}
		rules = checked
	}

	region := &Region{
		ID:         uuid.New(),
		Name:       name,
		Boundary:   append([]Point(nil), boundary...),
		DataSource: dataSource,
		Rules:      rules,
	}

	s.mu.Lock()
	s.created++
	if region.Name == "" {
		region.Name = fmt.Sprintf("Region %d", s.created)
	}
	s.regions[region.ID] = region
	s.order = append(s.order, region.ID)
	gen := s.nextGenerationLocked(region.ID)
	sel := s.selection
	snapshot := copyRegion(region)
	s.mu.Unlock()

	s.logger.Debug("region created", "id", region.ID, "name", snapshot.Name, "points", len(snapshot.Boundary))
	s.notifier.Publish(ChangeEvent{Type: EventRegionsChanged})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.fetchAndClassify(ctx, snapshot.ID, gen, sel)
	}()

	return snapshot, nil
}

// Region returns a snapshot of one region by id.
func (s *RegionStore) Region(id uuid.UUID) (Region, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	region, ok := s.regions[id]
	if !ok {
		return Region{}, false
	}
	return copyRegion(region), true
}

// RegionByName returns a snapshot of the first region whose normalized
// name matches the normalized query.
func (s *RegionStore) RegionByName(name string) (Region, bool) {
	want, err := normalizeRegionName(name)
	if err != nil {
		return Region{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		got, err := normalizeRegionName(s.regions[id].Name)
		if err == nil && got == want {
			return copyRegion(s.regions[id]), true
		}
	}
	return Region{}, false
}

// Regions returns snapshots of all regions in creation order.
func (s *RegionStore) Regions() []Region {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Region, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, copyRegion(s.regions[id]))
	}
	return out
}

// UpdateRules replaces a region's whole rule set and reclassifies from the
// freshest cached series. The location did not change, so no refetch is
// forced; a cache miss falls back to a full fetch.
func (s *RegionStore) UpdateRules(ctx context.Context, id uuid.UUID, rules []ColorRule) error {
	checked, err := validateRules(rules)
	if err != nil {
		return err
	}

	s.mu.Lock()
	region, ok := s.regions[id]
	if !ok {
		s.mu.Unlock()
		return ErrRegionNotFound
	}
	region.Rules = checked
	s.mu.Unlock()

	s.notifier.Publish(ChangeEvent{Type: EventRegionsChanged})
	s.classifyFromCache(ctx, id)
	return nil
}

// SetDataSource changes a region's data-source ref after checking it
// against the catalog, then reclassifies from the cached series.
func (s *RegionStore) SetDataSource(ctx context.Context, id uuid.UUID, ref string) error {
	if !knownDataSource(ref) {
		return ErrUnknownDataSource
	}

	s.mu.Lock()
	region, ok := s.regions[id]
	if !ok {
		s.mu.Unlock()
		return ErrRegionNotFound
	}
	region.DataSource = ref
	s.mu.Unlock()

	s.notifier.Publish(ChangeEvent{Type: EventRegionsChanged})
	s.classifyFromCache(ctx, id)
	return nil
}

// RenameRegion updates a region's display name. No recompute: the name
// does not feed the pipeline.
func (s *RegionStore) RenameRegion(id uuid.UUID, name string) error {
	if name == "" {
		return fmt.Errorf("region name must not be empty")
	}

	s.mu.Lock()
	region, ok := s.regions[id]
	if !ok {
		s.mu.Unlock()
		return ErrRegionNotFound
	}
	region.Name = name
	s.mu.Unlock()

	s.notifier.Publish(ChangeEvent{Type: EventRegionsChanged})
	return nil
}

// DeleteRegion removes a region and discards its cached series. In-flight
// recomputes for the region are discarded on arrival: their generation no
// longer matches and the region lookup fails.
func (s *RegionStore) DeleteRegion(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	if _, ok := s.regions[id]; !ok {
		s.mu.Unlock()
		return ErrRegionNotFound
	}
	delete(s.regions, id)
	delete(s.generations, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	if err := s.cache.Delete(ctx, seriesCacheKey(id)); err != nil {
		s.logger.Warn("error deleting cached series", "region", id, "error", err)
	}
	s.notifier.Publish(ChangeEvent{Type: EventRegionsChanged})
	return nil
}

// Selection returns the active timeline selection.
func (s *RegionStore) Selection() TimelineSelection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// SetTimeline stores the new selection and recomputes every region against
// it. The batch runs one goroutine per region and returns once all have
// settled; failures stay isolated per region. Setting an identical
// selection recomputes again, which is idempotent given a stable provider.
func (s *RegionStore) SetTimeline(ctx context.Context, sel TimelineSelection) error {
	if err := validateSelection(sel); err != nil {
		return err
	}

	s.mu.Lock()
	s.selection = sel
	s.mu.Unlock()

	s.notifier.Publish(ChangeEvent{Type: EventSelectionChanged})
	s.RecomputeAll(ctx)
	return nil
}

// RecomputeAll re-runs the fetch+classify pipeline for every region
// against the current selection. Used by SetTimeline and the scheduler.
func (s *RegionStore) RecomputeAll(ctx context.Context) {
	s.mu.Lock()
	sel := s.selection
	jobs := make(map[uuid.UUID]uint64, len(s.order))
	for _, id := range s.order {
		jobs[id] = s.nextGenerationLocked(id)
	}
	s.mu.Unlock()

	if len(jobs) == 0 {
		return
	}

	var wg sync.WaitGroup
	for id, gen := range jobs {
		wg.Add(1)
		go func(id uuid.UUID, gen uint64) {
			defer wg.Done()
			s.fetchAndClassify(ctx, id, gen, sel)
		}(id, gen)
	}
	wg.Wait()
	s.logger.Debug("recompute batch completed", "regions", len(jobs))
}

// Reset drops all regions and flushes the series cache. Development only.
func (s *RegionStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.regions = make(map[uuid.UUID]*Region)
	s.order = nil
	s.generations = make(map[uuid.UUID]uint64)
	s.created = 0
	s.mu.Unlock()

	if err := s.cache.Flush(ctx); err != nil {
		return err
	}
	s.notifier.Publish(ChangeEvent{Type: EventRegionsChanged})
	return nil
}

// Wait blocks until all asynchronous recomputes scheduled so far have
// finished. Used on shutdown and by tests.
func (s *RegionStore) Wait() {
	s.wg.Wait()
}

// nextGenerationLocked advances and returns the region's generation
// counter. A recompute result may only commit while its generation is
// still the latest; anything older is discarded as stale.
func (s *RegionStore) nextGenerationLocked(id uuid.UUID) uint64 {
	s.generations[id]++
	return s.generations[id]
}

func knownDataSource(ref string) bool {
	for _, ds := range dataSourceCatalog {
		if ds == ref {
			return true
		}
	}
	return false
}

// copyRegion returns a deep snapshot safe to hand outside the lock.
func copyRegion(r *Region) Region {
	out := Region{
		ID:           r.ID,
		Name:         r.Name,
		Boundary:     append([]Point(nil), r.Boundary...),
		DataSource:   r.DataSource,
		Rules:        append([]ColorRule(nil), r.Rules...),
		CurrentColor: r.CurrentColor,
	}
	if r.CurrentValue != nil {
		v := *r.CurrentValue
		out.CurrentValue = &v
	}
	return out
}
