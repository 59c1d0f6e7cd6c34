// Copyright (c) 2015, Arbo von Monkiewitsch All rights reserved.
// Use of this source code is governed by a BSD-style
// license.

// Package levenshtein computes edit distances between names and picks the
// closest candidate for "did you mean" hints.
package levenshtein

import "slices"

// myersMaxRunes is the longest first operand handled by the bit-vector path.
const myersMaxRunes = 64

// Context holds scratch buffers so repeated calls do not allocate.
// A Context is not safe for concurrent use.
type Context struct {
	column []int
	peq    [asciiMax]uint64
}

// Distance returns the number of single-rune insertions, deletions and
// substitutions needed to turn a into b.
func (ctx *Context) Distance(a, b string) int {
	s1 := []rune(a)
	s2 := []rune(b)

	if len(s1) > len(s2) {
		s1, s2 = s2, s1
	}

	if len(s1) == 0 {
		return len(s2)
	}

	if len(s1) <= myersMaxRunes {
		return ctx.distanceMyers64(s1, s2)
	}

	return ctx.distanceDP(s1, s2)
}

// distanceDP is the two-row dynamic program in O(len(s1)) space.
func (ctx *Context) distanceDP(s1, s2 []rune) int {
	if cap(ctx.column) < len(s1)+1 {
		ctx.column = make([]int, len(s1)+1)
	}

	column := ctx.column[:len(s1)+1]
	for i := range column {
		column[i] = i
	}

	for col, r := range s2 {
		column[0] = col + 1
		lastdiag := col

		for row := range s1 {
			olddiag := column[row+1]

			cost := 1
			if s1[row] == r {
				cost = 0
			}

			column[row+1] = min(column[row+1]+1, column[row]+1, lastdiag+cost)
			lastdiag = olddiag
		}
	}

	return column[len(s1)]
}

// Distance is a convenience wrapper using a throwaway Context.
func Distance(a, b string) int {
	var ctx Context

	return ctx.Distance(a, b)
}

// Closest returns the candidate nearest to name within maxDist edits. Ties
// go to the lexically smaller candidate. ok is false when nothing is close
// enough or name is itself a candidate.
func Closest(name string, candidates []string, maxDist int) (best string, ok bool) {
	if slices.Contains(candidates, name) {
		return "", false
	}

	var ctx Context

	bestDist := maxDist + 1

	for _, c := range candidates {
		d := ctx.Distance(name, c)
		if d < bestDist || (d == bestDist && ok && c < best) {
			best, bestDist, ok = c, d, true
		}
	}

	return best, ok
}
