package detect

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"argus/core"
	"argus/metrics"

	lru "github.com/hashicorp/golang-lru/v2"
)

// verdictCache memoizes the full alert set produced for an event, keyed by
// the event's significant fields. A hit skips rule evaluation entirely.
type verdictCache struct {
	entries *lru.Cache[string, []*core.DetectionAlert]
	hits    int64
	misses  int64
}

// defaultVerdictCacheSize bounds memory to roughly 10k cached verdicts.
const defaultVerdictCacheSize = 10000

func newVerdictCache(size int) (*verdictCache, error) {
	if size <= 0 {
		size = defaultVerdictCacheSize
	}
	entries, err := lru.New[string, []*core.DetectionAlert](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create verdict cache: %w", err)
	}
	return &verdictCache{entries: entries}, nil
}

// key derives the cache key from the event's significant fields. Events that
// agree on these fields are treated as identical for verdict purposes.
func (c *verdictCache) key(event *core.LogEvent) string {
	var b strings.Builder
	b.WriteString(event.ID)
	b.WriteByte('|')
	b.WriteString(event.Provider)
	b.WriteByte('|')
	b.WriteString(event.Level)
	b.WriteByte('|')
	b.WriteString(event.Computer)
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(event.EventID))
	return b.String()
}

func (c *verdictCache) get(key string) ([]*core.DetectionAlert, bool) {
	alerts, ok := c.entries.Get(key)
	if ok {
		atomic.AddInt64(&c.hits, 1)
		metrics.SigmaCacheHits.Inc()
		return alerts, true
	}
	atomic.AddInt64(&c.misses, 1)
	metrics.SigmaCacheMisses.Inc()
	return nil, false
}

func (c *verdictCache) add(key string, alerts []*core.DetectionAlert) {
	c.entries.Add(key, alerts)
}

// purge drops every cached verdict. Called whenever the rule set changes,
// since any cached verdict may be stale.
func (c *verdictCache) purge() {
	c.entries.Purge()
}

func (c *verdictCache) len() int {
	return c.entries.Len()
}

// hitRate returns the observed hit fraction, 0 when nothing was looked up.
func (c *verdictCache) hitRate() float64 {
	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
