package levenshtein

const asciiMax = 256

// distanceMyers64 is Myers' bit-parallel edit distance. s1 must be
// non-empty and at most 64 runes long.
// See Hyyrö, "Explaining and extending the bit-parallel approximate string
// matching algorithm of Myers" (2001).
func (ctx *Context) distanceMyers64(s1, s2 []rune) int {
	ctx.setPeq(s1, true)
	defer ctx.setPeq(s1, false)

	vp := ^uint64(0)
	vn := uint64(0)
	score := len(s1)
	mask := uint64(1) << (len(s1) - 1)

	for _, r := range s2 {
		pm := ctx.match(s1, r)

		x := pm | vn
		d0 := ((vp + (x & vp)) ^ vp) | x
		hn := vp & d0
		hp := vn | ^(d0 | vp)

		x = (hp << 1) | 1
		vn = x & d0
		vp = (hn << 1) | ^(x | d0)

		if hp&mask != 0 {
			score++
		}

		if hn&mask != 0 {
			score--
		}
	}

	return score
}

// setPeq fills or clears the ASCII match vectors for s1. peq is all zero
// between calls.
func (ctx *Context) setPeq(s1 []rune, fill bool) {
	for i, r := range s1 {
		if r >= asciiMax {
			continue
		}

		if fill {
			ctx.peq[r] |= 1 << i
		} else {
			ctx.peq[r] = 0
		}
	}
}

// match returns the positions of s1 equal to r.
func (ctx *Context) match(s1 []rune, r rune) uint64 {
	if r < asciiMax {
		return ctx.peq[r]
	}

	var pm uint64

	for i, c := range s1 {
		if c == r {
			pm |= 1 << i
		}
	}

	return pm
}
