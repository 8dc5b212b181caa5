package reference

import (
	"github.com/pkg/errors"
)

// Manager maps reference IDs to References and back to names, and caches
// the longest reference's length so alignment back-ends can size their
// preallocated DP buffers once, up front.
type Manager struct {
	byID    []*Reference
	byName  map[string]int
	longest int
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{byName: make(map[string]int)}
}

// Add registers ref and returns its assigned id.
func (m *Manager) Add(ref *Reference) int {
	id := len(m.byID)
	m.byID = append(m.byID, ref)
	m.byName[ref.Name] = id
	if ref.Len() > m.longest {
		m.longest = ref.Len()
	}
	return id
}

// Get returns the Reference registered under id.
func (m *Manager) Get(id int) (*Reference, error) {
	if id < 0 || id >= len(m.byID) {
		return nil, errors.Errorf("reference: no reference with id %d", id)
	}
	return m.byID[id], nil
}

// GetByName returns the Reference registered under name.
func (m *Manager) GetByName(name string) (*Reference, bool) {
	id, ok := m.byName[name]
	if !ok {
		return nil, false
	}
	return m.byID[id], true
}

// IDByName returns the id assigned to name.
func (m *Manager) IDByName(name string) (int, bool) {
	id, ok := m.byName[name]
	return id, ok
}

// Len returns the number of registered references.
func (m *Manager) Len() int { return len(m.byID) }

// All returns every registered Reference, in registration order.
func (m *Manager) All() []*Reference { return m.byID }

// LongestRefLen returns the length, in bases, of the longest registered
// reference. Alignment back-ends use this to size DP buffers once.
func (m *Manager) LongestRefLen() int { return m.longest }

// Best picks the reference whose k-mer anchors best explain kmers, a
// sliding window of the read's k-mers. When only one reference is
// registered it is returned unconditionally (spec: "or the unique
// reference if only one"). Otherwise the reference with the highest
// anchor-hit count wins; ties are broken by registration order.
func (m *Manager) Best(kmers []string) (*Reference, error) {
	if len(m.byID) == 0 {
		return nil, errors.New("reference: manager has no registered references")
	}
	if len(m.byID) == 1 {
		return m.byID[0], nil
	}
	bestScore := -1
	bestIdx := 0
	for i, ref := range m.byID {
		score := 0
		for _, kmer := range kmers {
			score += len(ref.AnchorPositions(kmer))
		}
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	return m.byID[bestIdx], nil
}
