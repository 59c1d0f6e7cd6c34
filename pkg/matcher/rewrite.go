package matcher

import (
	"fmt"

	"github.com/Sumatoshi-tech/refactor/pkg/syntax"
)

// Callback produces the replacement for a matched node. Returning a nil node
// keeps the match unchanged.
type Callback[N syntax.Node] func(matched N, env *Bindings) (N, error)

// FindFirst returns the first node below root, in pre-order, that pattern
// matches, together with its bindings. When root is itself a Node it is the
// first candidate. For statement list patterns the result is a fresh list
// holding the matched window.
func FindFirst[N syntax.Node](pattern N, root syntax.Container) (N, *Bindings, bool, error) {
	var (
		found N
		env   *Bindings
		hit   bool
		err   error
	)

	window, isWindow := any(pattern).(*syntax.Block)

	syntax.Inspect(root, func(n syntax.Node) bool {
		if hit || err != nil {
			return false
		}

		cand, ok := n.(N)
		if !ok {
			return true
		}

		attempt := NewBindings()

		if isWindow {
			block, _ := any(cand).(*syntax.Block)

			var start, end int

			start, end, hit, err = MatchWindow(window, block, attempt)
			if hit {
				found, _ = any(captureBlock(toNodes(block.Stmts[start:end]))).(N)
			}
		} else {
			hit, err = Match(pattern, cand, attempt)
			if hit {
				found = cand
			}
		}

		if hit {
			env = attempt
		}

		return !hit
	})

	return found, env, hit, err
}

// FoldWith rewrites every match of pattern below root. Traversal is
// pre-order; each match gets a fresh environment, is replaced in place by
// the callback's result, and the replacement is not revisited. Statement
// list patterns replace matched windows inside every block, scanning on
// after the inserted statements. A root Block is scanned for windows but a
// root node is never replaced. It returns the number of replacements. A
// callback error stops the fold; earlier replacements stay applied.
func FoldWith[N syntax.Node](pattern N, root syntax.Container, callback Callback[N]) (int, error) {
	f := folder[N]{
		pattern:  pattern,
		callback: callback,
		skip:     make(map[*syntax.Stmt]bool),
	}

	f.window, f.isWindow = any(pattern).(*syntax.Block)

	if rootBlock, ok := root.(*syntax.Block); ok && f.isWindow {
		f.foldWindows(rootBlock)
	}

	syntax.Walk(root, f.visit)

	return f.count, f.err
}

type folder[N syntax.Node] struct {
	pattern  N
	callback Callback[N]
	window   *syntax.Block
	isWindow bool
	skip     map[*syntax.Stmt]bool
	count    int
	err      error
}

func (f *folder[N]) visit(ref syntax.Ref) bool {
	if f.err != nil {
		return false
	}

	n := ref.Get()

	if s, ok := n.(*syntax.Stmt); ok && f.skip[s] {
		return false
	}

	cand, ok := n.(N)
	if !ok {
		return true
	}

	if f.isWindow {
		block, _ := any(cand).(*syntax.Block)
		f.foldWindows(block)

		return f.err == nil
	}

	env := NewBindings()

	hit, err := Match(f.pattern, cand, env)
	if err != nil {
		f.err = err

		return false
	}

	if !hit {
		return true
	}

	repl, err := f.callback(cand, env)
	if err != nil {
		f.err = err

		return false
	}

	if syntax.IsNil(repl) {
		return false
	}

	err = ref.Set(repl)
	if err != nil {
		f.err = fmt.Errorf("fold: %w", err)

		return false
	}

	f.count++

	return false
}

func (f *folder[N]) foldWindows(block *syntax.Block) {
	pos := 0

	for pos <= len(block.Stmts) {
		rest := &syntax.Block{Stmts: block.Stmts[pos:]}
		env := NewBindings()

		start, end, hit, err := MatchWindow(f.window, rest, env)
		if err != nil {
			f.err = err

			return
		}

		if !hit {
			return
		}

		lo, hi := pos+start, pos+end
		matched, _ := any(captureBlock(toNodes(block.Stmts[lo:hi]))).(N)

		repl, err := f.callback(matched, env)
		if err != nil {
			f.err = err

			return
		}

		replBlock, _ := any(repl).(*syntax.Block)
		if replBlock == nil {
			pos = hi
			if hi == lo {
				pos++
			}

			continue
		}

		spliced := make([]*syntax.Stmt, 0, len(block.Stmts)-(hi-lo)+len(replBlock.Stmts))
		spliced = append(spliced, block.Stmts[:lo]...)
		spliced = append(spliced, replBlock.Stmts...)
		spliced = append(spliced, block.Stmts[hi:]...)
		block.Stmts = spliced

		for _, s := range replBlock.Stmts {
			f.skip[s] = true
		}

		f.count++

		pos = lo + len(replBlock.Stmts)
		if hi == lo && len(replBlock.Stmts) == 0 {
			pos++
		}
	}
}
