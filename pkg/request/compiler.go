package request

import (
	"fmt"

	"recsrc/pkg/tuple"
)

// StreamID identifies a base relation's record buffer within a plan.
type StreamID int

// Layout is the frozen result of compiling a plan: how many impure slots
// and which streams a Request must provide.
type Layout struct {
	slots   int
	streams []*tuple.TupleDescription
}

// NumSlots returns the number of impure slots.
func (l *Layout) NumSlots() int { return l.slots }

// NumStreams returns the number of streams.
func (l *Layout) NumStreams() int { return len(l.streams) }

// StreamDesc returns the schema bound to a stream.
func (l *Layout) StreamDesc(id StreamID) *tuple.TupleDescription {
	return l.streams[id]
}

// Compiler assigns impure slots and stream ids while a plan is built.
// It is not safe for concurrent use.
type Compiler struct {
	layout *Layout
	frozen bool
}

func NewCompiler() *Compiler {
	return &Compiler{layout: &Layout{}}
}

// NewStream registers a stream with the given row schema.
func (c *Compiler) NewStream(desc *tuple.TupleDescription) StreamID {
	c.mustBeOpen()
	c.layout.streams = append(c.layout.streams, desc)
	return StreamID(len(c.layout.streams) - 1)
}

// Layout freezes the compiler and returns the layout requests are built from.
func (c *Compiler) Layout() *Layout {
	c.frozen = true
	return c.layout
}

func (c *Compiler) mustBeOpen() {
	if c.frozen {
		panic("request: compiler used after Layout() was taken")
	}
}

// Slot addresses one value of type T in every Request built from the layout.
type Slot[T any] struct {
	offset int
}

// Allocate reserves a new impure slot of type T. The offset is fixed for the
// lifetime of the plan.
func Allocate[T any](c *Compiler) Slot[T] {
	c.mustBeOpen()
	offset := c.layout.slots
	c.layout.slots++
	return Slot[T]{offset: offset}
}

// Offset returns the slot's position in the arena.
func (s Slot[T]) Offset() int { return s.offset }

// Get returns the request's value for this slot, zero-initialised on first use.
func (s Slot[T]) Get(r *Request) *T {
	if s.offset >= len(r.impure) {
		panic(fmt.Sprintf("request: slot %d outside arena of %d (plan and request layouts differ)",
			s.offset, len(r.impure)))
	}

	if v := r.impure[s.offset]; v != nil {
		return v.(*T)
	}

	v := new(T)
	r.impure[s.offset] = v
	return v
}
