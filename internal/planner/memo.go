package planner

import (
	"sync"

	"github.com/i474232898/crop-advisory/internal/agronomy"
	"github.com/i474232898/crop-advisory/internal/common"
)

type memoKey struct {
	crop   string
	region agronomy.RegionID
	acres  float64
	stage  string
}

// requirementMemo caches requirement results. RequirementFor is pure, so a
// cached value is always identical to a fresh one. Entries are evicted oldest
// first once the size limit is reached.
type requirementMemo struct {
	mu      sync.RWMutex
	entries map[memoKey]agronomy.NPK
	order   []memoKey
	max     int
}

func newRequirementMemo(max int) *requirementMemo {
	if max <= 0 {
		return nil
	}
	return &requirementMemo{entries: make(map[memoKey]agronomy.NPK), max: max}
}

func keyFor(crop agronomy.CropProfile, region agronomy.Region, acres float64, stage string) memoKey {
	return memoKey{
		crop:   common.NormalizeKey(crop.Name()),
		region: region.ID,
		acres:  acres,
		stage:  common.NormalizeKey(stage),
	}
}

func (m *requirementMemo) get(k memoKey) (agronomy.NPK, bool) {
	if m == nil {
		return agronomy.NPK{}, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[k]
	return v, ok
}

func (m *requirementMemo) put(k memoKey, v agronomy.NPK) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[k]; ok {
		return
	}
	m.entries[k] = v
	m.order = append(m.order, k)

	if over := len(m.order) - m.max; over > 0 {
		for _, old := range m.order[:over] {
			delete(m.entries, old)
		}
		m.order = append(m.order[:0:0], m.order[over:]...)
	}
}

func (m *requirementMemo) len() int {
	if m == nil {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
