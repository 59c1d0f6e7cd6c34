package matcher_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/refactor/pkg/matcher"
	"github.com/Sumatoshi-tech/refactor/pkg/syntax"
)

func assignStmt(lhs *syntax.Expr, rhs int64) *syntax.Stmt {
	return syntax.Semi(syntax.Assign(lhs, syntax.IntLit(rhs)))
}

func ids(root syntax.Container) map[syntax.NodeID]bool {
	out := make(map[syntax.NodeID]bool)

	syntax.Inspect(root, func(n syntax.Node) bool {
		out[n.NodeID()] = true

		return true
	})

	return out
}

func TestMatch_PlaceholderFreeIsEquality(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern *syntax.Expr
		target  *syntax.Expr
		want    bool
	}{
		{"identical", syntax.Binary("+", syntax.PathE("a"), syntax.IntLit(1)), syntax.Binary("+", syntax.PathE("a"), syntax.IntLit(1)), true},
		{"different_op", syntax.Binary("+", syntax.PathE("a"), syntax.IntLit(1)), syntax.Binary("-", syntax.PathE("a"), syntax.IntLit(1)), false},
		{"different_leaf", syntax.Call(syntax.PathE("f"), syntax.PathE("a")), syntax.Call(syntax.PathE("f"), syntax.PathE("b")), false},
		{"different_arity", syntax.Call(syntax.PathE("f")), syntax.Call(syntax.PathE("f"), syntax.PathE("b")), false},
		{"different_variant", syntax.PathE("a"), syntax.IntLit(1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := matcher.NewBindings()

			ok, err := matcher.Match(tt.pattern, tt.target, env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, syntax.Equal(tt.pattern, tt.target), ok)
			assert.Zero(t, env.Len())
		})
	}
}

func TestMatch_IgnoresSpansAndAttributes(t *testing.T) {
	t.Parallel()

	target := syntax.WithSpan(syntax.PathE("a"), syntax.Span{Lo: 3, Hi: 4})
	target.Attrs = []syntax.Attribute{{Name: "allow", Args: "(unused)"}}

	ok, err := matcher.Match(syntax.PathE("a"), target, matcher.NewBindings())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatch_RepeatedPlaceholderRequiresEqualCaptures(t *testing.T) {
	t.Parallel()

	pattern := syntax.Binary("+", syntax.ExprHole("x"), syntax.ExprHole("x"))

	env := matcher.NewBindings()
	ok, err := matcher.Match(pattern, syntax.Binary("+", syntax.PathE("a"), syntax.PathE("a")), env)
	require.NoError(t, err)
	assert.True(t, ok)

	captured, found := matcher.Lookup[*syntax.Expr](env, "x")
	require.True(t, found)
	assert.Equal(t, "a", syntax.Print(captured))

	env = matcher.NewBindings()
	ok, err = matcher.Match(pattern, syntax.Binary("+", syntax.PathE("a"), syntax.PathE("b")), env)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, env.Len())
}

func TestMatch_FailureLeavesEnvUntouched(t *testing.T) {
	t.Parallel()

	env := matcher.NewBindings()
	_, err := env.Bind("seed", syntax.KindExpr, syntax.PathE("s"))
	require.NoError(t, err)

	pattern := syntax.Call(syntax.ExprHole("f"), syntax.IntLit(1))

	ok, err := matcher.Match(pattern, syntax.Call(syntax.PathE("g"), syntax.IntLit(2)), env)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"seed"}, env.Names())
}

func TestMatch_KindConflictIsContractViolation(t *testing.T) {
	t.Parallel()

	pattern := syntax.Cast(syntax.ExprHole("x"), syntax.TypeHole("x"))
	target := syntax.Cast(syntax.PathE("a"), syntax.PathT("u8"))

	env := matcher.NewBindings()

	ok, err := matcher.Match(pattern, target, env)
	require.ErrorIs(t, err, matcher.ErrContractViolation)
	assert.False(t, ok)
	assert.Zero(t, env.Len())

	var contractErr *matcher.ContractError
	require.True(t, errors.As(err, &contractErr))
	assert.Equal(t, "x", contractErr.Name)
}

func TestMatchWindow_FirstWindowLeftToRight(t *testing.T) {
	t.Parallel()

	pattern := syntax.NewBlock(assignStmt(syntax.ExprHole("x"), 1))
	target := syntax.NewBlock(
		assignStmt(syntax.PathE("z"), 9),
		assignStmt(syntax.PathE("a"), 1),
		assignStmt(syntax.PathE("b"), 1),
	)

	env := matcher.NewBindings()

	start, end, ok, err := matcher.MatchWindow(pattern, target, env)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, start)
	assert.Equal(t, 2, end)

	x, _ := matcher.Lookup[*syntax.Expr](env, "x")
	assert.Equal(t, "a", syntax.Print(x))
}

func TestMatchWindow_GlobCapturesShortestRun(t *testing.T) {
	t.Parallel()

	pattern := syntax.NewBlock(
		assignStmt(syntax.PathE("a"), 1),
		syntax.StmtHole("mid", true),
		assignStmt(syntax.PathE("b"), 2),
	)
	target := syntax.NewBlock(
		assignStmt(syntax.PathE("a"), 1),
		assignStmt(syntax.PathE("c"), 3),
		assignStmt(syntax.PathE("d"), 4),
		assignStmt(syntax.PathE("b"), 2),
		assignStmt(syntax.PathE("b"), 2),
	)

	env := matcher.NewBindings()

	start, end, ok, err := matcher.MatchWindow(pattern, target, env)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, start)
	assert.Equal(t, 4, end)

	mid, found := matcher.Lookup[*syntax.Block](env, "mid")
	require.True(t, found)
	assert.Len(t, mid.Stmts, 2)

	kind, _ := env.Kind("mid")
	assert.Equal(t, syntax.KindStmtList, kind)
}

func TestMatchWindow_EmptyPatternNeverMatches(t *testing.T) {
	t.Parallel()

	_, _, ok, err := matcher.MatchWindow(syntax.NewBlock(), syntax.NewBlock(assignStmt(syntax.PathE("a"), 1)), matcher.NewBindings())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSubstitute_PlaceholderFreeTemplateIsCopied(t *testing.T) {
	t.Parallel()

	template := syntax.Call(syntax.PathE("f"), syntax.IntLit(1))

	out, err := matcher.Substitute(template, matcher.NewBindings())
	require.NoError(t, err)
	assert.True(t, syntax.Equal(template, out))

	templateIDs := ids(template)
	for id := range ids(out) {
		assert.False(t, templateIDs[id])
	}
}

func TestSubstitute_BarePlaceholderReturnsCapture(t *testing.T) {
	t.Parallel()

	captured := syntax.Binary("*", syntax.PathE("a"), syntax.PathE("b"))

	env := matcher.NewBindings()
	_, err := env.Bind("x", syntax.KindExpr, captured)
	require.NoError(t, err)

	out, err := matcher.Substitute(syntax.ExprHole("x"), env)
	require.NoError(t, err)
	assert.Same(t, captured, out)
}

func TestSubstitute_SecondUseGetsFreshIdentities(t *testing.T) {
	t.Parallel()

	captured := syntax.PathE("a")

	env := matcher.NewBindings()
	_, err := env.Bind("x", syntax.KindExpr, captured)
	require.NoError(t, err)

	out, err := matcher.Substitute(syntax.Binary("+", syntax.ExprHole("x"), syntax.ExprHole("x")), env)
	require.NoError(t, err)

	bin, ok := out.Variant.(*syntax.BinaryExpr)
	require.True(t, ok)
	assert.Same(t, captured, bin.LHS)
	assert.NotEqual(t, captured.NodeID(), bin.RHS.NodeID())
	assert.Equal(t, "a + a", syntax.Print(out))
}

func TestSubstitute_KindMismatchIsContractViolation(t *testing.T) {
	t.Parallel()

	env := matcher.NewBindings()
	_, err := env.Bind("x", syntax.KindType, syntax.PathT("u8"))
	require.NoError(t, err)

	_, err = matcher.Substitute(syntax.ExprHole("x"), env)
	require.ErrorIs(t, err, matcher.ErrContractViolation)
}

func TestSubstitute_SplicesStatementCaptures(t *testing.T) {
	t.Parallel()

	env := matcher.NewBindings()
	_, err := env.Bind("body", syntax.KindStmtList, syntax.NewBlock(
		assignStmt(syntax.PathE("a"), 1),
		assignStmt(syntax.PathE("b"), 2),
	))
	require.NoError(t, err)

	template := syntax.NewBlock(syntax.StmtHole("body", true), assignStmt(syntax.PathE("c"), 3))

	out, err := matcher.Substitute(template, env)
	require.NoError(t, err)
	assert.Equal(t, "{\n    a = 1;\n    b = 2;\n    c = 3;\n}", syntax.Print(out))
}

func TestFoldWith_StatementWindows(t *testing.T) {
	t.Parallel()

	pattern := syntax.NewBlock(assignStmt(syntax.ExprHole("x"), 1))
	template := syntax.NewBlock(assignStmt(syntax.ExprHole("x"), 0))

	body := syntax.NewBlock(assignStmt(syntax.PathE("a"), 1), assignStmt(syntax.PathE("b"), 2))
	file := syntax.NewFile(syntax.NewItem("f", &syntax.FnItem{Body: body}))

	count, err := matcher.FoldWith(pattern, file, func(_ *syntax.Block, env *matcher.Bindings) (*syntax.Block, error) {
		return matcher.Substitute(template, env)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, "{\n    a = 0;\n    b = 2;\n}", syntax.Print(body))
}

func TestFoldWith_ReplacementIsNotRevisited(t *testing.T) {
	t.Parallel()

	pattern := syntax.Binary("+", syntax.ExprHole("x"), syntax.IntLit(1))
	template := syntax.Binary("+", syntax.Binary("+", syntax.ExprHole("x"), syntax.IntLit(1)), syntax.IntLit(1))

	stmt := syntax.Semi(syntax.Binary("+", syntax.PathE("a"), syntax.IntLit(1)))
	block := syntax.NewBlock(stmt)

	count, err := matcher.FoldWith(pattern, block, func(_ *syntax.Expr, env *matcher.Bindings) (*syntax.Expr, error) {
		return matcher.Substitute(template, env)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, "a + 1 + 1;", syntax.Print(stmt))
}

func TestFoldWith_FreshEnvironmentPerMatch(t *testing.T) {
	t.Parallel()

	pattern := syntax.Call(syntax.PathE("f"), syntax.ExprHole("x"))
	block := syntax.NewBlock(
		syntax.Semi(syntax.Call(syntax.PathE("f"), syntax.PathE("a"))),
		syntax.Semi(syntax.Call(syntax.PathE("f"), syntax.PathE("b"))),
	)

	var seen []string

	count, err := matcher.FoldWith(pattern, block, func(m *syntax.Expr, env *matcher.Bindings) (*syntax.Expr, error) {
		x, _ := matcher.Lookup[*syntax.Expr](env, "x")
		seen = append(seen, syntax.Print(x))
		assert.Equal(t, 1, env.Len())

		return syntax.Call(syntax.PathE("g"), x), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Equal(t, "{\n    g(a);\n    g(b);\n}", syntax.Print(block))
}

func TestFoldWith_Deterministic(t *testing.T) {
	t.Parallel()

	build := func() *syntax.Block {
		return syntax.NewBlock(
			syntax.Semi(syntax.Binary("*", syntax.PathE("a"), syntax.Binary("*", syntax.PathE("b"), syntax.PathE("c")))),
			syntax.Semi(syntax.Binary("*", syntax.PathE("d"), syntax.PathE("e"))),
		)
	}

	pattern := syntax.Binary("*", syntax.ExprHole("l"), syntax.ExprHole("r"))
	template := syntax.Binary("*", syntax.ExprHole("r"), syntax.ExprHole("l"))

	rewrite := func(_ *syntax.Expr, env *matcher.Bindings) (*syntax.Expr, error) {
		return matcher.Substitute(template, env)
	}

	first, second := build(), build()

	n1, err := matcher.FoldWith(pattern, first, rewrite)
	require.NoError(t, err)

	n2, err := matcher.FoldWith(pattern, second, rewrite)
	require.NoError(t, err)

	assert.Equal(t, n1, n2)
	assert.True(t, syntax.Equal(first, second))
	assert.Equal(t, "{\n    b * c * a;\n    e * d;\n}", syntax.Print(first))
}

func TestFoldWith_CallbackErrorAborts(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	block := syntax.NewBlock(syntax.Semi(syntax.PathE("a")), syntax.Semi(syntax.PathE("a")))

	calls := 0

	count, err := matcher.FoldWith(syntax.PathE("a"), block, func(_ *syntax.Expr, _ *matcher.Bindings) (*syntax.Expr, error) {
		calls++

		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Zero(t, count)
	assert.Equal(t, 1, calls)
}

func TestFindFirst(t *testing.T) {
	t.Parallel()

	block := syntax.NewBlock(
		syntax.Semi(syntax.Call(syntax.PathE("g"), syntax.PathE("z"))),
		syntax.Semi(syntax.Call(syntax.PathE("f"), syntax.PathE("a"))),
		syntax.Semi(syntax.Call(syntax.PathE("f"), syntax.PathE("b"))),
	)

	found, env, ok, err := matcher.FindFirst(syntax.Call(syntax.PathE("f"), syntax.ExprHole("x")), block)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "f(a)", syntax.Print(found))

	x, _ := matcher.Lookup[*syntax.Expr](env, "x")
	assert.Equal(t, "a", syntax.Print(x))

	_, _, ok, err = matcher.FindFirst(syntax.PathE("missing"), block)
	require.NoError(t, err)
	assert.False(t, ok)
}
