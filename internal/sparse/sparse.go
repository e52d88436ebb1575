// Package sparse provides a sparse set over small unsigned integers.
//
// The DFA matcher keys one set by bytecode offset for every input step: it
// answers "has any state at this offset been queued already" in O(1), and
// clearing between steps costs nothing regardless of how many offsets the
// pattern has.
package sparse

// SparseSet is a set of uint32 values below a fixed capacity.
// The sparse array maps a value to its index in dense; a value is present
// only when both arrays agree, so stale sparse entries never need zeroing.
type SparseSet struct {
	sparse []uint32
	dense  []uint32
	size   uint32
}

// NewSparseSet creates a set holding values in [0, capacity).
func NewSparseSet(capacity uint32) *SparseSet {
	return &SparseSet{
		sparse: make([]uint32, capacity),
		dense:  make([]uint32, 0, capacity),
	}
}

// Insert adds value and reports whether it was newly added.
// Values outside the capacity are ignored and reported as not added.
func (s *SparseSet) Insert(value uint32) bool {
	if value >= uint32(len(s.sparse)) || s.Contains(value) {
		return false
	}
	s.dense = append(s.dense, value)
	s.sparse[value] = s.size
	s.size++
	return true
}

// Contains reports whether value is in the set.
func (s *SparseSet) Contains(value uint32) bool {
	if value >= uint32(len(s.sparse)) {
		return false
	}
	idx := s.sparse[value]
	return idx < s.size && s.dense[idx] == value
}

// Remove deletes value from the set if present.
func (s *SparseSet) Remove(value uint32) {
	if !s.Contains(value) {
		return
	}
	idx := s.sparse[value]
	last := s.dense[s.size-1]
	s.dense[idx] = last
	s.sparse[last] = idx
	s.size--
	s.dense = s.dense[:s.size]
}

// Clear empties the set in O(1).
func (s *SparseSet) Clear() {
	s.size = 0
	s.dense = s.dense[:0]
}

// Len returns the number of elements.
func (s *SparseSet) Len() int {
	return int(s.size)
}

// IsEmpty reports whether the set has no elements.
func (s *SparseSet) IsEmpty() bool {
	return s.size == 0
}

// Capacity returns the exclusive upper bound on storable values.
func (s *SparseSet) Capacity() int {
	return len(s.sparse)
}

// Values returns the elements in insertion order (modulo removals).
// The slice is valid until the next mutation.
func (s *SparseSet) Values() []uint32 {
	return s.dense[:s.size]
}
