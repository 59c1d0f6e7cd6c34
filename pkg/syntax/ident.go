package syntax

import (
	"slices"
	"strconv"
	"sync/atomic"
)

// NodeID is the stable identity of a node. Zero is never allocated.
type NodeID uint64

// String renders the identity as a decimal number.
func (id NodeID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

//nolint:gochecknoglobals // process-wide identity allocator.
var lastID atomic.Uint64

// NewID allocates a fresh process-unique identity.
func NewID() NodeID {
	return NodeID(lastID.Add(1))
}

// Span is a half-open byte range [Lo, Hi) into the source the node was parsed from.
// The zero Span marks a synthesized node.
type Span struct {
	Lo uint32 `json:"lo"`
	Hi uint32 `json:"hi"`
}

// IsDummy reports whether the span carries no source location.
func (s Span) IsDummy() bool {
	return s.Lo == 0 && s.Hi == 0
}

// Contains reports whether other lies entirely within s. Dummy spans are
// never contained.
func (s Span) Contains(other Span) bool {
	if s.IsDummy() || other.IsDummy() {
		return false
	}

	return s.Lo <= other.Lo && other.Hi <= s.Hi
}

// Len returns the byte length of the span.
func (s Span) Len() uint32 {
	return s.Hi - s.Lo
}

// Attribute is an outer attribute directive such as #[inline] or
// #[cfg_attr(unix, derive(Debug))].
//
// Args holds the raw text following the path: "(...)", " = value" or "".
// ArgsSpan locates Args in the source so that directives produced by
// expanding Args can be given spans inside Span.
type Attribute struct {
	Name     string `json:"name"`
	Args     string `json:"args,omitempty"`
	ArgsSpan Span   `json:"args_span"`
	Span     Span   `json:"span"`
}

// ConditionalAttr is the default name of the conditional attribute directive.
const ConditionalAttr = "cfg_attr"

// IsConditional reports whether the attribute's name is one of names.
// With no names, ConditionalAttr is assumed.
func (a Attribute) IsConditional(names ...string) bool {
	if len(names) == 0 {
		return a.Name == ConditionalAttr
	}

	return slices.Contains(names, a.Name)
}

// String renders the attribute in source form.
func (a Attribute) String() string {
	return "#[" + a.Name + a.Args + "]"
}

// Base carries the identity, location and attributes shared by every node.
type Base struct {
	ID    NodeID
	Span  Span
	Attrs []Attribute
}

// NodeID returns the node identity.
func (b *Base) NodeID() NodeID { return b.ID }

// NodeSpan returns the node source span.
func (b *Base) NodeSpan() Span { return b.Span }

// Attributes returns the node attributes in source order.
func (b *Base) Attributes() []Attribute { return b.Attrs }

// SetAttributes replaces the attribute list.
func (b *Base) SetAttributes(attrs []Attribute) { b.Attrs = attrs }

func newBase(span Span) Base {
	return Base{ID: NewID(), Span: span}
}
