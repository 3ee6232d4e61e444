package resource

import (
	"context"
	"sort"
	"time"

	"github.com/aidoku-host/wasmhost/internal/logging"
)

// SweeperConfig holds the age and population thresholds the Sweeper applies.
// Zero-value fields fall back to the package defaults.
type SweeperConfig struct {
	// DescriptorAge is how long a zero-refcount, non-Request entry may sit
	// before the sweeper reclaims it. Default 5 minutes.
	DescriptorAge time.Duration
	// RequestAge is how long a KindRequest entry may sit regardless of
	// refcount before the sweeper reclaims it. Default 10 minutes.
	RequestAge time.Duration
	// DescriptorCap is the maximum population of non-Request entries before
	// the sweeper evicts the oldest zero-refcount ones to get under it.
	// Default 10000.
	DescriptorCap int
	// RequestCap is the maximum population of Request entries before the
	// sweeper evicts the oldest zero-refcount ones to get under it. Default 1000.
	RequestCap int
	// Interval is how often Run ticks. Default 1 minute.
	Interval time.Duration
}

const (
	defaultDescriptorAge = 5 * time.Minute
	defaultRequestAge    = 10 * time.Minute
	defaultDescriptorCap = 10000
	defaultRequestCap    = 1000
	defaultInterval      = time.Minute
)

func (c SweeperConfig) withDefaults() SweeperConfig {
	if c.DescriptorAge <= 0 {
		c.DescriptorAge = defaultDescriptorAge
	}
	if c.RequestAge <= 0 {
		c.RequestAge = defaultRequestAge
	}
	if c.DescriptorCap <= 0 {
		c.DescriptorCap = defaultDescriptorCap
	}
	if c.RequestCap <= 0 {
		c.RequestCap = defaultRequestCap
	}
	if c.Interval <= 0 {
		c.Interval = defaultInterval
	}
	return c
}

// Sweeper periodically reclaims stale, zero-refcount entries from a Table
// that an honest-but-imperfect plugin failed to std.destroy.
type Sweeper struct {
	table Table
	cfg   SweeperConfig
}

// NewSweeper creates a Sweeper for the given table. A zero-value cfg uses
// the package defaults documented on SweeperConfig.
func NewSweeper(table Table, cfg SweeperConfig) *Sweeper {
	return &Sweeper{table: table, cfg: cfg.withDefaults()}
}

type sweepCandidate struct {
	handle    Handle
	createdAt int64
	refcount  uint32
	removed   bool
}

// Tick performs a single sweep pass: age-based eviction of zero-refcount
// descriptors and of requests regardless of refcount, followed by cap-based
// eviction of the oldest remaining zero-refcount entries of each class.
func (s *Sweeper) Tick() {
	ut, ok := s.table.(*unifiedTable)
	if !ok {
		return
	}

	now := time.Now().UnixNano()
	descriptorAgeNanos := s.cfg.DescriptorAge.Nanoseconds()
	requestAgeNanos := s.cfg.RequestAge.Nanoseconds()

	var descriptors, requests []sweepCandidate

	ut.backend.Each(func(h Handle, kind Kind, createdAt int64, refcount uint32, value any) bool {
		c := sweepCandidate{handle: h, createdAt: createdAt, refcount: refcount}
		if kind == KindRequest {
			requests = append(requests, c)
		} else {
			descriptors = append(descriptors, c)
		}
		return true
	})

	swept := 0

	for i := range descriptors {
		c := &descriptors[i]
		if c.refcount == 0 && now-c.createdAt > descriptorAgeNanos {
			ut.ForceRemove(c.handle)
			c.removed = true
			swept++
		}
	}
	for i := range requests {
		c := &requests[i]
		if now-c.createdAt > requestAgeNanos {
			ut.ForceRemove(c.handle)
			c.removed = true
			swept++
		}
	}

	swept += s.trimCap(ut, descriptors, s.cfg.DescriptorCap)
	swept += s.trimCap(ut, requests, s.cfg.RequestCap)

	if swept > 0 {
		logging.Debugf("resource sweeper: reclaimed %d entries", swept)
	}
}

// trimCap evicts the oldest remaining zero-refcount candidates until the
// surviving population of this class is at or under cap.
func (s *Sweeper) trimCap(ut *unifiedTable, candidates []sweepCandidate, cap int) int {
	remaining := make([]sweepCandidate, 0, len(candidates))
	for _, c := range candidates {
		if !c.removed {
			remaining = append(remaining, c)
		}
	}
	if len(remaining) <= cap {
		return 0
	}

	sort.Slice(remaining, func(i, j int) bool {
		return remaining[i].createdAt < remaining[j].createdAt
	})

	evicted := 0
	for _, c := range remaining {
		if len(remaining)-evicted <= cap {
			break
		}
		if c.refcount != 0 {
			continue
		}
		ut.ForceRemove(c.handle)
		evicted++
	}
	return evicted
}

// Run starts a background goroutine ticking at cfg.Interval until ctx is
// canceled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Tick()
			}
		}
	}()
}
