package core

// preview.go keeps validated imports in memory until the user commits or
// discards them.

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ImportPhase mirrors the import dialog state after processing.
type ImportPhase string

const (
	PhasePreview ImportPhase = "preview" // at least one valid item
	PhaseError   ImportPhase = "error"   // nothing usable
)

// ImportPreview is a validated import awaiting a decision.
type ImportPreview struct {
	ID         uuid.UUID         `json:"id"`
	FileName   string            `json:"fileName"`
	Phase      ImportPhase       `json:"phase"`
	TotalRows  int               `json:"totalRows"`
	ValidItems []PurchaseItem    `json:"validItems"`
	Errors     []ValidationError `json:"errors"`
	TotalValue float64           `json:"totalValue"`
	CreatedBy  string            `json:"createdBy,omitempty"`
	ExpiresAt  time.Time         `json:"expiresAt"`
}

func newImportPreview(fileName string, res *ItemImportResult, expires time.Time) *ImportPreview {
	phase := PhaseError
	if len(res.ValidItems) > 0 {
		phase = PhasePreview
	}
	return &ImportPreview{
		ID:         uuid.New(),
		FileName:   fileName,
		Phase:      phase,
		TotalRows:  res.TotalRows,
		ValidItems: res.ValidItems,
		Errors:     res.Errors,
		TotalValue: TotalValue(res.ValidItems),
		ExpiresAt:  expires,
	}
}

type previewStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*ImportPreview
}

func newPreviewStore() *previewStore {
	return &previewStore{items: make(map[uuid.UUID]*ImportPreview)}
}

func (ps *previewStore) put(p *ImportPreview) {
	ps.mu.Lock()
	ps.items[p.ID] = p
	ps.mu.Unlock()
}

// get returns a preview that has not expired at now.
func (ps *previewStore) get(id uuid.UUID, now time.Time) (*ImportPreview, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	p, ok := ps.items[id]
	if !ok || !now.Before(p.ExpiresAt) {
		return nil, false
	}
	return p, true
}

// take removes and returns a live preview. Only one caller can take a
// given preview.
func (ps *previewStore) take(id uuid.UUID, now time.Time) (*ImportPreview, bool) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	p, ok := ps.items[id]
	if !ok || !now.Before(p.ExpiresAt) {
		return nil, false
	}
	delete(ps.items, id)
	return p, true
}

func (ps *previewStore) remove(id uuid.UUID) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	_, ok := ps.items[id]
	delete(ps.items, id)
	return ok
}

// purge drops every preview expired at now and returns how many went.
func (ps *previewStore) purge(now time.Time) int {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	n := 0
	for id, p := range ps.items {
		if !now.Before(p.ExpiresAt) {
			delete(ps.items, id)
			n++
		}
	}
	return n
}

func (ps *previewStore) len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.items)
}
