package engine

import (
	"sync"
	"time"
)

type hostEntry struct {
	engine    string
	expiresAt time.Time
}

// DomainMemory remembers which engine last succeeded for each host so the
// dispatcher can skip the race next time. Entries expire after ttl.
type DomainMemory struct {
	mu      sync.Mutex
	entries map[string]hostEntry
	ttl     time.Duration
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewDomainMemory creates a DomainMemory and starts a janitor that prunes
// expired entries every ttl (at least once a minute).
func NewDomainMemory(ttl time.Duration) *DomainMemory {
	dm := &DomainMemory{
		entries: make(map[string]hostEntry),
		ttl:     ttl,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go dm.janitor(max(ttl, time.Minute))
	return dm
}

// Get returns the remembered engine for host, or "".
func (dm *DomainMemory) Get(host string) string {
	if dm == nil {
		return ""
	}
	dm.mu.Lock()
	defer dm.mu.Unlock()

	e, ok := dm.entries[host]
	if !ok {
		return ""
	}
	if dm.now().After(e.expiresAt) {
		delete(dm.entries, host)
		return ""
	}
	return e.engine
}

// Set records the engine that succeeded for host.
func (dm *DomainMemory) Set(host, engine string) {
	if dm == nil {
		return
	}
	dm.mu.Lock()
	dm.entries[host] = hostEntry{engine: engine, expiresAt: dm.now().Add(dm.ttl)}
	dm.mu.Unlock()
}

// Delete forgets host.
func (dm *DomainMemory) Delete(host string) {
	if dm == nil {
		return
	}
	dm.mu.Lock()
	delete(dm.entries, host)
	dm.mu.Unlock()
}

// Len returns the number of remembered hosts, expired ones included.
func (dm *DomainMemory) Len() int {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return len(dm.entries)
}

// Stop ends the janitor. It is safe to call more than once.
func (dm *DomainMemory) Stop() {
	dm.stopOnce.Do(func() { close(dm.stop) })
}

func (dm *DomainMemory) janitor(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-dm.stop:
			return
		case <-ticker.C:
			dm.mu.Lock()
			now := dm.now()
			for host, e := range dm.entries {
				if now.After(e.expiresAt) {
					delete(dm.entries, host)
				}
			}
			dm.mu.Unlock()
		}
	}
}
