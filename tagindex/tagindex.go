// Package tagindex implements the reverse tag->objects index (subsystem B),
// kept consistent with each GridObject's tag_bits.
//
// Bucket storage is grounded on the retrieval pack's tagger/tagstore style
// reverse index (collector -> entity IDs), adapted here to tag_id ->
// object IDs with swap-to-end removal for O(1) amortised deletes while
// preserving insertion order for everything but the bucket's last element,
// which moves into the removed element's slot; spec explicitly allows this ("stable across ticks" refers to
// the order observed between mutations, not invariance under deletion).
package tagindex

import "github.com/metta-ai/mettagrid/grid"

// Index is the tag_id -> set<object> reverse index plus cardinality
// counters, kept consistent with each object's tag_bits.
type Index struct {
	buckets   map[grid.TagID][]grid.ObjectID
	position  map[grid.TagID]map[grid.ObjectID]int
	counts    map[grid.TagID]*uint32
}

// NewIndex constructs an empty tag index.
func NewIndex() *Index {
	return &Index{
		buckets:  make(map[grid.TagID][]grid.ObjectID),
		position: make(map[grid.TagID]map[grid.ObjectID]int),
		counts:   make(map[grid.TagID]*uint32),
	}
}

func (idx *Index) countPtr(tag grid.TagID) *uint32 {
	if p, ok := idx.counts[tag]; ok {
		return p
	}
	var c uint32
	idx.counts[tag] = &c
	return &c
}

// RegisterObject adds obj to every bucket implied by its current tag_bits.
// Called on object creation.
func (idx *Index) RegisterObject(obj *grid.GridObject) {
	obj.TagBits.ForEach(func(t grid.TagID) {
		idx.insert(t, obj.ID)
	})
}

// UnregisterObject removes obj from every bucket it is a member of. Called
// on object destruction.
func (idx *Index) UnregisterObject(obj *grid.GridObject) {
	obj.TagBits.ForEach(func(t grid.TagID) {
		idx.remove(t, obj.ID)
	})
}

// OnTagAdded updates tag_bits and the reverse index together; callers
// (AddTag mutations) should call this rather than mutating TagBits
// directly, to keep the two consistent (testable property 3).
func (idx *Index) OnTagAdded(obj *grid.GridObject, tag grid.TagID) {
	if obj.TagBits.Has(tag) {
		return
	}
	obj.TagBits.Set(tag)
	idx.insert(tag, obj.ID)
}

// OnTagRemoved is the symmetric removal path.
func (idx *Index) OnTagRemoved(obj *grid.GridObject, tag grid.TagID) {
	if !obj.TagBits.Has(tag) {
		return
	}
	obj.TagBits.Clear(tag)
	idx.remove(tag, obj.ID)
}

func (idx *Index) insert(tag grid.TagID, id grid.ObjectID) {
	bucket := idx.buckets[tag]
	pos := idx.position[tag]
	if pos == nil {
		pos = make(map[grid.ObjectID]int)
		idx.position[tag] = pos
	}
	if _, exists := pos[id]; exists {
		return
	}
	pos[id] = len(bucket)
	idx.buckets[tag] = append(bucket, id)
	*idx.countPtr(tag)++
}

func (idx *Index) remove(tag grid.TagID, id grid.ObjectID) {
	bucket := idx.buckets[tag]
	pos := idx.position[tag]
	if pos == nil {
		return
	}
	i, ok := pos[id]
	if !ok {
		return
	}
	last := len(bucket) - 1
	movedID := bucket[last]
	bucket[i] = movedID
	bucket = bucket[:last]
	idx.buckets[tag] = bucket
	pos[movedID] = i
	delete(pos, id)
	*idx.countPtr(tag)--
}

// GetObjectsWithTag returns the (insertion-order, modulo swap-removal)
// sequence of object ids currently carrying tag.
func (idx *Index) GetObjectsWithTag(tag grid.TagID) []grid.ObjectID {
	return idx.buckets[tag]
}

// GetCountPtr returns a stable pointer to tag's cardinality counter, for
// O(1) GameValue resolution (TagCount).
func (idx *Index) GetCountPtr(tag grid.TagID) *uint32 {
	return idx.countPtr(tag)
}

// Count returns the current cardinality of tag.
func (idx *Index) Count(tag grid.TagID) uint32 {
	return *idx.countPtr(tag)
}
