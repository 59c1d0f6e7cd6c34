package syntax

import "slices"

// BaseOf returns the shared header of n.
func BaseOf(n Node) *Base {
	if h, ok := n.(interface{ header() *Base }); ok {
		return h.header()
	}

	return nil
}

func (b *Base) header() *Base { return b }

// Clone returns a deep copy of n in which every node has a fresh identity.
func Clone[N Node](n N) N {
	return cloneAs[N](n, true)
}

// Duplicate returns a deep copy of n that keeps every identity. Use it for
// snapshots that are restored in place of the original.
func Duplicate[N Node](n N) N {
	return cloneAs[N](n, false)
}

// DuplicateFile returns a deep copy of f that keeps every identity.
func DuplicateFile(f *File) *File {
	out := &File{Base: f.Base, Inner: slices.Clone(f.Inner)}
	out.Attrs = slices.Clone(f.Attrs)

	copyFields(f.Fields(), out.Fields(), false)

	return out
}

func cloneAs[N Node](n N, fresh bool) N {
	out := cloneNode(n, fresh)
	if out == nil {
		var zero N

		return zero
	}

	return out.(N) //nolint:forcetypeassert // cloneNode preserves the concrete type.
}

func cloneNode(n Node, fresh bool) Node {
	if isNil(n) {
		return nil
	}

	dst, err := NewNode(n.Kind(), n.Tag())
	if err != nil {
		panic(err)
	}

	src := BaseOf(n)
	hdr := BaseOf(dst)

	hdr.Span = src.Span
	hdr.Attrs = slices.Clone(src.Attrs)

	if !fresh {
		hdr.ID = src.ID
	}

	copyFields(n.Fields(), dst.Fields(), fresh)

	return dst
}

func copyFields(src, dst []Field, fresh bool) {
	for i, f := range src {
		out := dst[i]

		var err error

		switch f.Kind() {
		case FieldString:
			err = out.SetString(f.String())
		case FieldBool:
			err = out.SetBool(f.Bool())
		case FieldNode:
			err = out.SetNode(cloneNode(f.Node(), fresh))
		case FieldList:
			elems := f.Nodes()
			for j, e := range elems {
				elems[j] = cloneNode(e, fresh)
			}

			err = out.SetNodes(elems)
		case FieldComposites:
			comps := f.Composites()
			copies := make([]Composite, 0, len(comps))

			for _, c := range comps {
				cp := out.NewComposite()
				copyFields(c.Fields(), cp.Fields(), fresh)
				copies = append(copies, cp)
			}

			err = out.SetComposites(copies)
		}

		if err != nil {
			panic(err)
		}
	}
}

// Equal reports whether a and b are structurally identical. Identities,
// spans and attributes are ignored; placeholders compare by name.
func Equal(a, b Node) bool {
	if isNil(a) || isNil(b) {
		return isNil(a) && isNil(b)
	}

	if a.Kind() != b.Kind() || a.Tag() != b.Tag() {
		return false
	}

	return FieldsEqual(a.Fields(), b.Fields())
}

// FieldsEqual compares two field lists of the same shape.
func FieldsEqual(af, bf []Field) bool {
	if len(af) != len(bf) {
		return false
	}

	for i, f := range af {
		g := bf[i]

		switch f.Kind() {
		case FieldString:
			if f.String() != g.String() {
				return false
			}
		case FieldBool:
			if f.Bool() != g.Bool() {
				return false
			}
		case FieldNode:
			if !Equal(f.Node(), g.Node()) {
				return false
			}
		case FieldList:
			if f.Len() != g.Len() {
				return false
			}

			for j := range f.Len() {
				if !Equal(f.Index(j), g.Index(j)) {
					return false
				}
			}
		case FieldComposites:
			fc, gc := f.Composites(), g.Composites()
			if len(fc) != len(gc) {
				return false
			}

			for j := range fc {
				if !FieldsEqual(fc[j].Fields(), gc[j].Fields()) {
					return false
				}
			}
		}
	}

	return true
}
