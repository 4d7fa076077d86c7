package business

import (
	"sync"
	"time"
)

// Directory is the in-memory store domain -> business code table.
// It is swapped wholesale on reload.
type Directory struct {
	mu         sync.RWMutex
	codes      map[string]string
	lastReload time.Time
}

// NewDirectory creates an empty directory
func NewDirectory() *Directory {
	return &Directory{codes: make(map[string]string)}
}

// Replace swaps in a freshly loaded table
func (d *Directory) Replace(codes map[string]string) {
	cp := make(map[string]string, len(codes))
	for k, v := range codes {
		cp[NormalizeDomain(k)] = v
	}

	d.mu.Lock()
	d.codes = cp
	d.lastReload = time.Now()
	d.mu.Unlock()
}

// Lookup returns the business code of a store domain
func (d *Directory) Lookup(storeDomain string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	code, ok := d.codes[NormalizeDomain(storeDomain)]
	return code, ok
}

// Count returns the number of known store domains
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.codes)
}

// LastReload returns when the table was last replaced (zero if never)
func (d *Directory) LastReload() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastReload
}
