package sspec

import (
	"fmt"
	"sort"
	"sync"
)

type recordKey struct {
	register string
	qdf      string
}

// Repository serves fuse strings by (register, QDF). Adding a record for an
// existing key replaces it.
type Repository struct {
	mu      sync.RWMutex
	records map[recordKey]Record
	qdfs    map[string]struct{}
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{
		records: make(map[recordKey]Record),
		qdfs:    make(map[string]struct{}),
	}
}

// Add registers records. Later records win over earlier ones with the same
// register and QDF.
func (r *Repository) Add(records ...Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		r.records[recordKey{rec.Register, rec.QDF}] = rec
		r.qdfs[rec.QDF] = struct{}{}
	}
}

// Lookup returns the record for a register and QDF.
func (r *Repository) Lookup(register, qdf string) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[recordKey{register, qdf}]
	if !ok {
		return Record{}, fmt.Errorf("sspec: no fuse string for %s/%s", register, qdf)
	}
	return rec, nil
}

// Bits returns the fuse string for a register and QDF, or "" when absent.
func (r *Repository) Bits(register, qdf string) string {
	rec, err := r.Lookup(register, qdf)
	if err != nil {
		return ""
	}
	return rec.Bits
}

// Registers returns every register name in sorted order.
func (r *Repository) Registers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	for k := range r.records {
		seen[k.register] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for reg := range seen {
		out = append(out, reg)
	}
	sort.Strings(out)
	return out
}

// QDFs returns every QDF seen in sorted order.
func (r *Repository) QDFs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.qdfs))
	for q := range r.qdfs {
		out = append(out, q)
	}
	sort.Strings(out)
	return out
}

// HasQDF reports whether any record for qdf exists in register.
func (r *Repository) HasQDF(register, qdf string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.records[recordKey{register, qdf}]
	return ok
}

// Len returns the number of stored records.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
