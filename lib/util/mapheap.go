// Package util
//
// This file provides a keyed priority queue used to order expiration deadlines.
//
// The implementation combines a binary heap with a hash map, so the item with the
// lowest priority is always at the root while every item stays reachable by its key.
// The expiration index of the expmap package uses it with the deadline as both key
// and priority and the set of keys expiring at that deadline as payload.
//
// Time Complexity:
//   - O(1) for Peek, Contains and GetByKey
//   - O(log n) for AddItem, PopMin and RemoveByKey
//
// Concurrency Considerations:
//   - This implementation is not thread-safe
//   - Callers must apply external synchronization (the expiration index holds one mutex)
//
// Example usage:
//
//	h := NewMapHeap[int64, []string]()
//
//	h.AddItem(1500, 1500, []string{"a"})
//	h.AddItem(1200, 1200, []string{"b"})
//
//	// lowest priority first
//	earliest, ok := h.Peek() // earliest.Key == 1200
//
//	// remove a specific item
//	h.RemoveByKey(1500)
package util

import (
	"container/heap"
	"fmt"
)

// item is a single element of a MapHeap
type item[K comparable, V any] struct {
	Key      K     // Unique identifier for the item
	Priority int64 // Lower values are popped first
	Value    V     // Payload carried with the item
	index    int   // Index in the heap, maintained by the heap package
}

func (i *item[K, V]) String() string {
	return fmt.Sprintf("{Key: %v, Priority: %d}", i.Key, i.Priority)
}

// MapHeap is a min-heap ordered by priority with key-based access
type MapHeap[K comparable, V any] struct {
	items    []*item[K, V]     // The actual heap slice
	itemsMap map[K]*item[K, V] // Map for O(1) access by key
}

// NewMapHeap creates a new, empty MapHeap
func NewMapHeap[K comparable, V any]() *MapHeap[K, V] {
	return &MapHeap[K, V]{
		items:    make([]*item[K, V], 0),
		itemsMap: make(map[K]*item[K, V]),
	}
}

// Len returns the number of items in the heap (part of heap.Interface)
func (h *MapHeap[K, V]) Len() int { return len(h.items) }

// Less compares items by priority (part of heap.Interface)
func (h *MapHeap[K, V]) Less(i, j int) bool {
	return h.items[i].Priority < h.items[j].Priority
}

// Swap exchanges items at positions i and j (part of heap.Interface)
func (h *MapHeap[K, V]) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].index = i
	h.items[j].index = j
}

// Push appends an item (part of heap.Interface, use AddItem instead)
func (h *MapHeap[K, V]) Push(x any) {
	it := x.(*item[K, V])
	it.index = len(h.items)
	h.items = append(h.items, it)
	h.itemsMap[it.Key] = it
}

// Pop removes the last item (part of heap.Interface, use PopMin instead)
func (h *MapHeap[K, V]) Pop() any {
	old := h.items
	n := len(old)
	it := old[n-1]
	old[n-1] = nil // Avoid memory leak
	it.index = -1
	h.items = old[:n-1]
	delete(h.itemsMap, it.Key)
	return it
}

// AddItem adds a new item or updates priority and payload of an existing one
func (h *MapHeap[K, V]) AddItem(key K, priority int64, value V) {
	if it, exists := h.itemsMap[key]; exists {
		it.Priority = priority
		it.Value = value
		heap.Fix(h, it.index)
		return
	}

	heap.Push(h, &item[K, V]{
		Key:      key,
		Priority: priority,
		Value:    value,
	})
}

// RemoveByKey removes an item by its key and returns it
func (h *MapHeap[K, V]) RemoveByKey(key K) (*item[K, V], bool) {
	it, exists := h.itemsMap[key]
	if !exists {
		return nil, false
	}
	heap.Remove(h, it.index)
	return it, true
}

// PopMin removes and returns the item with the lowest priority
func (h *MapHeap[K, V]) PopMin() (*item[K, V], bool) {
	if len(h.items) == 0 {
		return nil, false
	}
	return heap.Pop(h).(*item[K, V]), true
}

// Peek returns the item with the lowest priority without removing it
func (h *MapHeap[K, V]) Peek() (*item[K, V], bool) {
	if len(h.items) == 0 {
		return nil, false
	}
	return h.items[0], true
}

// Contains checks if a key exists in the heap
func (h *MapHeap[K, V]) Contains(key K) bool {
	_, exists := h.itemsMap[key]
	return exists
}

// GetByKey retrieves an item by its key without removing it
func (h *MapHeap[K, V]) GetByKey(key K) (*item[K, V], bool) {
	it, exists := h.itemsMap[key]
	return it, exists
}

// Range calls fn for every item in heap order (not sorted order) until fn returns false
func (h *MapHeap[K, V]) Range(fn func(key K, priority int64, value V) bool) {
	for _, it := range h.items {
		if !fn(it.Key, it.Priority, it.Value) {
			return
		}
	}
}
