package reftable

import (
	"errors"
	"fmt"
)

// Handle is the small integer the module uses to refer to a host value.
// Even handles index the slab and are reference-counted; odd handles index
// the borrow stack and are scoped to a single call.
type Handle uint32

// Undefined is the host "no value" sentinel occupying seeded slab cell 0.
type Undefined struct{}

// seededValues occupy the first slab cells so the common constants never
// allocate. Cell order is part of the handle protocol.
var seededValues = []any{Undefined{}, nil, true, false}

// Well-known handles for the seeded cells.
const (
	HandleUndefined Handle = 0 << 1
	HandleNull      Handle = 1 << 1
	HandleTrue      Handle = 2 << 1
	HandleFalse     Handle = 3 << 1
)

// Faults raised in debug mode. Release mode skips the checks entirely,
// matching the generated glue's release behavior.
var (
	ErrCorruptSlab     = errors.New("corrupt slab")
	ErrDropStackHandle = errors.New("cannot drop ref of stack objects")
	ErrStackNotEmpty   = errors.New("stack is not currently empty")
	ErrSlabNotEmpty    = errors.New("slab is not currently empty")
)

// cell is one slab slot: either occupied (value+refcount) or free, in
// which case next threads the free list through the vacated slot.
type cell struct {
	value    any
	refcount int
	next     int
	occupied bool
}

// Table models the reference table protocol the generator emits as JS.
// Not safe for concurrent use; the protocol lives on a single host thread.
type Table struct {
	slab     []cell
	slabNext int
	stack    []any
	debug    bool
}

// New creates a table with the four seeded constant cells. debug enables
// the faults that generated glue compiles in only for debug builds.
func New(debug bool) *Table {
	t := &Table{debug: debug}
	for _, v := range seededValues {
		t.slab = append(t.slab, cell{value: v, occupied: true})
	}
	t.slabNext = len(t.slab)
	return t
}

// AddHeapObject allocates or reuses a slab cell with refcount 1 and
// returns the even handle. O(1): the free list threads through vacated
// cells, and when it is empty the slab grows by exactly one slot.
func (t *Table) AddHeapObject(v any) Handle {
	if t.slabNext == len(t.slab) {
		t.slab = append(t.slab, cell{next: len(t.slab) + 1})
		// freshly grown slot threads to the next growth point
	}
	idx := t.slabNext
	t.slabNext = t.slab[idx].next
	t.slab[idx] = cell{value: v, refcount: 1, occupied: true}
	return Handle(idx << 1)
}

// AddBorrowedObject pushes v onto the stack and returns the odd handle.
// The handle must not outlive the call that created it.
func (t *Table) AddBorrowedObject(v any) Handle {
	t.stack = append(t.stack, v)
	return Handle(((len(t.stack) - 1) << 1) | 1)
}

// PopBorrowed releases the most recent borrowed handle. Generated call
// glue pops exactly as many values as it pushed, in a finally block.
func (t *Table) PopBorrowed() {
	t.stack = t.stack[:len(t.stack)-1]
}

// GetObject dereferences a handle without touching its lifetime.
func (t *Table) GetObject(h Handle) (any, error) {
	if h&1 == 1 {
		idx := int(h >> 1)
		if idx >= len(t.stack) {
			return nil, fmt.Errorf("stack handle %d out of range", h)
		}
		return t.stack[idx], nil
	}
	idx := int(h >> 1)
	if idx >= len(t.slab) {
		return nil, fmt.Errorf("slab handle %d out of range", h)
	}
	c := t.slab[idx]
	if t.debug && !c.occupied {
		return nil, ErrCorruptSlab
	}
	return c.value, nil
}

// DropRef decrements a slab handle's refcount, recycling the cell into
// the free list at zero. Seeded cells are never recycled. Dropping a
// stack handle faults in debug mode: stack handles are borrowed, not owned.
func (t *Table) DropRef(h Handle) error {
	if h&1 == 1 {
		if t.debug {
			return ErrDropStackHandle
		}
		return nil
	}
	idx := int(h >> 1)
	if idx < len(seededValues) {
		return nil
	}
	if idx >= len(t.slab) {
		return fmt.Errorf("slab handle %d out of range", h)
	}
	c := &t.slab[idx]
	if t.debug && !c.occupied {
		return ErrCorruptSlab
	}
	c.refcount--
	if c.refcount > 0 {
		return nil
	}
	*c = cell{next: t.slabNext}
	t.slabNext = idx
	return nil
}

// TakeObject is the consume-a-handle idiom: GetObject then DropRef.
func (t *Table) TakeObject(h Handle) (any, error) {
	v, err := t.GetObject(h)
	if err != nil {
		return nil, err
	}
	if err := t.DropRef(h); err != nil {
		return nil, err
	}
	return v, nil
}

// CloneRef returns an owned handle for h. A stack handle is promoted by
// copying the value into the slab; a slab handle just gains a reference.
func (t *Table) CloneRef(h Handle) (Handle, error) {
	if h&1 == 1 {
		v, err := t.GetObject(h)
		if err != nil {
			return 0, err
		}
		return t.AddHeapObject(v), nil
	}
	idx := int(h >> 1)
	if idx >= len(t.slab) {
		return 0, fmt.Errorf("slab handle %d out of range", h)
	}
	c := &t.slab[idx]
	if t.debug && !c.occupied {
		return 0, ErrCorruptSlab
	}
	if idx >= len(seededValues) {
		c.refcount++
	}
	return h, nil
}

// AssertStackEmpty is the debug checkpoint between call sequences.
func (t *Table) AssertStackEmpty() error {
	if len(t.stack) != 0 {
		return ErrStackNotEmpty
	}
	return nil
}

// AssertSlabEmpty reports whether any non-seeded cell is still live.
func (t *Table) AssertSlabEmpty() error {
	for i := len(seededValues); i < len(t.slab); i++ {
		if t.slab[i].occupied {
			return ErrSlabNotEmpty
		}
	}
	return nil
}

// Live returns the number of live non-seeded slab cells.
func (t *Table) Live() int {
	n := 0
	for i := len(seededValues); i < len(t.slab); i++ {
		if t.slab[i].occupied {
			n++
		}
	}
	return n
}
