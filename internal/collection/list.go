// Package collection implements an insertion-ordered list with zero or more
// named secondary unique indexes, generalizing pyxyzzy's SearchableList to
// Go generics.
package collection

import "fmt"

// NullPolicy controls how an index treats a nil/absent key.
type NullPolicy int

const (
	// RejectNull makes a nil key an error.
	RejectNull NullPolicy = iota
	// IgnoreNull silently excludes items with a nil key from the index.
	IgnoreNull
	// AllowNull indexes a nil key like any other value (at most one item
	// may then have a nil key before a collision is reported).
	AllowNull
)

// KeyFunc extracts the key of an item for a given index. The boolean return
// reports whether a key could be extracted at all; false means "nil key".
type KeyFunc[T any] func(item T) (key any, ok bool)

type index[T comparable] struct {
	name   string
	keyFn  KeyFunc[T]
	policy NullPolicy
	data   map[any]T
}

func (ix *index[T]) key(item T) (any, bool) {
	key, ok := ix.keyFn(item)
	if !ok && ix.policy == AllowNull {
		return nil, true
	}
	return key, ok
}

// checkAdd reports whether inserting/replacing item would collide with an
// existing entry other than replacing.
func (ix *index[T]) checkAdd(item T, replacing *T) error {
	key, ok := ix.key(item)
	if !ok {
		if ix.policy == RejectNull {
			return fmt.Errorf("collection: index %q requires a non-nil key", ix.name)
		}
		return nil
	}
	existing, found := ix.data[key]
	if !found {
		return nil
	}
	if replacing != nil && existing == *replacing {
		return nil
	}
	return fmt.Errorf("collection: index %q already has an entry for key %v", ix.name, key)
}

func (ix *index[T]) add(item T) {
	key, ok := ix.key(item)
	if !ok {
		return
	}
	ix.data[key] = item
}

func (ix *index[T]) drop(item T) {
	key, ok := ix.key(item)
	if !ok {
		return
	}
	delete(ix.data, key)
}

// IndexDef describes one named secondary index to build into a List.
type IndexDef[T comparable] struct {
	Name   string
	Key    KeyFunc[T]
	Policy NullPolicy
}

// List is an insertion-ordered sequence of T with zero or more named unique
// indexes. Insertions and replacements fail atomically (nothing is mutated)
// if any index would collide with an existing entry other than the one
// being replaced.
type List[T comparable] struct {
	items   []T
	indexes map[string]*index[T]
}

// New creates an empty List with the given secondary indexes.
func New[T comparable](defs ...IndexDef[T]) *List[T] {
	l := &List[T]{indexes: make(map[string]*index[T], len(defs))}
	for _, def := range defs {
		l.indexes[def.Name] = &index[T]{
			name:   def.Name,
			keyFn:  def.Key,
			policy: def.Policy,
			data:   make(map[any]T),
		}
	}
	return l
}

func (l *List[T]) checkAdd(item T, replacing *T) error {
	for _, ix := range l.indexes {
		if err := ix.checkAdd(item, replacing); err != nil {
			return err
		}
	}
	return nil
}

func (l *List[T]) addToIndexes(item T) {
	for _, ix := range l.indexes {
		ix.add(item)
	}
}

func (l *List[T]) dropFromIndexes(item T) {
	for _, ix := range l.indexes {
		ix.drop(item)
	}
}

// Append adds item at the end of the list.
func (l *List[T]) Append(item T) error {
	if err := l.checkAdd(item, nil); err != nil {
		return err
	}
	l.items = append(l.items, item)
	l.addToIndexes(item)
	return nil
}

// InsertAt inserts item at position pos, shifting later items right.
func (l *List[T]) InsertAt(pos int, item T) error {
	if pos < 0 || pos > len(l.items) {
		return fmt.Errorf("collection: index %d out of range", pos)
	}
	if err := l.checkAdd(item, nil); err != nil {
		return err
	}
	l.items = append(l.items, item)
	copy(l.items[pos+1:], l.items[pos:])
	l.items[pos] = item
	l.addToIndexes(item)
	return nil
}

// ReplaceAt replaces the item at pos with item, validating indexes first.
func (l *List[T]) ReplaceAt(pos int, item T) error {
	if pos < 0 || pos >= len(l.items) {
		return fmt.Errorf("collection: index %d out of range", pos)
	}
	old := l.items[pos]
	if err := l.checkAdd(item, &old); err != nil {
		return err
	}
	l.dropFromIndexes(old)
	l.items[pos] = item
	l.addToIndexes(item)
	return nil
}

// Remove removes the first occurrence of item, dropping it from every index.
// Reports whether the item was found.
func (l *List[T]) Remove(item T) bool {
	for i, existing := range l.items {
		if existing == item {
			l.dropFromIndexes(existing)
			l.items = append(l.items[:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveAt removes the item at pos.
func (l *List[T]) RemoveAt(pos int) {
	item := l.items[pos]
	l.dropFromIndexes(item)
	l.items = append(l.items[:pos], l.items[pos+1:]...)
}

// At returns the item at pos.
func (l *List[T]) At(pos int) T {
	return l.items[pos]
}

// Len returns the number of items in the list.
func (l *List[T]) Len() int {
	return len(l.items)
}

// IndexOf returns the position of item, or -1 if not present.
func (l *List[T]) IndexOf(item T) int {
	for i, existing := range l.items {
		if existing == item {
			return i
		}
	}
	return -1
}

// Contains reports whether item is present.
func (l *List[T]) Contains(item T) bool {
	return l.IndexOf(item) >= 0
}

// All returns a copy of the items, in insertion order.
func (l *List[T]) All() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// FindBy returns the item indexed under name with the given key.
func (l *List[T]) FindBy(name string, key any) (T, bool) {
	var zero T
	ix, ok := l.indexes[name]
	if !ok {
		return zero, false
	}
	item, found := ix.data[key]
	return item, found
}

// Exists reports whether an item indexed under name with the given key
// exists.
func (l *List[T]) Exists(name string, key any) bool {
	_, ok := l.FindBy(name, key)
	return ok
}
