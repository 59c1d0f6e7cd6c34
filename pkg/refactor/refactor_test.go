package refactor_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/refactor/internal/observability"
	"github.com/Sumatoshi-tech/refactor/pkg/refactor"
	"github.com/Sumatoshi-tech/refactor/pkg/rustparse"
	"github.com/Sumatoshi-tech/refactor/pkg/syntax"
)

func newState(t *testing.T, src string, mutate ...func(*refactor.Config)) *refactor.State {
	t.Helper()

	p, err := rustparse.NewParser()
	require.NoError(t, err)

	file, err := p.ParseFile(context.Background(), []byte(src))
	require.NoError(t, err)

	cfg := refactor.Config{Parser: p}
	for _, m := range mutate {
		m(&cfg)
	}

	st, err := refactor.NewState(file, cfg)
	require.NoError(t, err)

	return st
}

func findExpr(t *testing.T, root syntax.Container, text string) *syntax.Expr {
	t.Helper()

	var found *syntax.Expr

	syntax.Inspect(root, func(n syntax.Node) bool {
		if e, ok := n.(*syntax.Expr); ok && found == nil && syntax.Print(e) == text {
			found = e
		}

		return found == nil
	})

	require.NotNil(t, found, "expression %q not found", text)

	return found
}

func TestNewState_RequiresParserAndFile(t *testing.T) {
	t.Parallel()

	_, err := refactor.NewState(syntax.NewFile(), refactor.Config{})
	require.ErrorIs(t, err, refactor.ErrNoParser)

	p, err := rustparse.NewParser()
	require.NoError(t, err)

	_, err = refactor.NewState(nil, refactor.Config{Parser: p})
	require.ErrorIs(t, err, refactor.ErrNoFile)
}

func TestRun_RewriteStmtsWindow(t *testing.T) {
	t.Parallel()

	st := newState(t, "fn f() {\n    a = 1;\n    b = 2;\n}\n")

	n, err := st.Run(context.Background(), "rewrite_stmts", []string{"$x = 1;", "$x = 0;"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	out := syntax.PrintFile(st.File())
	assert.Contains(t, out, "a = 0;")
	assert.Contains(t, out, "b = 2;")
	assert.NotContains(t, out, "a = 1;")
}

func TestRun_RewriteExprSwapsOperands(t *testing.T) {
	t.Parallel()

	st := newState(t, "fn f(x: u32) -> u32 {\n    x * 2 + g(x * 3)\n}\n")

	n, err := st.Run(context.Background(), "rewrite_expr", []string{"$a * $b", "$b * $a"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	out := syntax.PrintFile(st.File())
	assert.Contains(t, out, "2 * x + g(3 * x)")
}

func TestRun_RewriteRestrictedToMarks(t *testing.T) {
	t.Parallel()

	st := newState(t, "fn f(x: u32, y: u32) -> u32 {\n    let a = x + 1;\n    let b = y + 1;\n    a + b\n}\n")
	ctx := context.Background()

	_, err := st.Run(ctx, "mark_exprs", []string{"x + $n", "xs"})
	require.NoError(t, err)
	assert.Equal(t, 1, st.Marks().Len())

	n, err := st.Run(ctx, "rewrite_expr", []string{"$a + $b", "$b + $a", "xs"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	out := syntax.PrintFile(st.File())
	assert.Contains(t, out, "let a = 1 + x;")
	assert.Contains(t, out, "let b = y + 1;")
	assert.Contains(t, out, "a + b")
}

func TestRun_RewriteTypeAndItem(t *testing.T) {
	t.Parallel()

	st := newState(t, "fn f(v: Vec<i32>) -> Vec<i32> {\n    v\n}\nconst N: usize = 4;\n")
	ctx := context.Background()

	n, err := st.Run(ctx, "rewrite_ty", []string{"Vec<$t>", "Box<[$t]>"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = st.Run(ctx, "rewrite_item", []string{"const N: usize = $v;", "const N: usize = $v * 2;"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	out := syntax.PrintFile(st.File())
	assert.Contains(t, out, "fn f(v: Box<[i32]>) -> Box<[i32]>")
	assert.Contains(t, out, "const N: usize = 4 * 2;")
}

func TestRun_EvalCfgKeepsConditionalAttributes(t *testing.T) {
	t.Parallel()

	st := newState(t, "#[cfg_attr(unix, inline)]\nfn f() {}\n\n#[cfg(windows)]\nfn g() {}\n")

	n, err := st.Run(context.Background(), "eval_cfg", []string{"unix"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, st.File().Items, 1)
	assert.Equal(t, "f", st.File().Items[0].Name)
	assert.Contains(t, syntax.PrintFile(st.File()), "#[cfg_attr(unix, inline)]\nfn f()")
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	st := newState(t, "fn f() {}\n")
	ctx := context.Background()

	_, err := st.Run(ctx, "no_such_command", nil)
	require.ErrorIs(t, err, refactor.ErrUnknownCommand)

	_, err = st.Run(ctx, "rewrite_expr", []string{"only-one"})
	require.ErrorIs(t, err, refactor.ErrArgs)

	_, err = st.Run(ctx, "rewrite_expr", []string{"a +", "b"})
	require.ErrorIs(t, err, rustparse.ErrSyntax)
}

func TestRun_ClearMarks(t *testing.T) {
	t.Parallel()

	st := newState(t, "fn f() -> u32 {\n    1 + 2\n}\n")
	ctx := context.Background()

	_, err := st.Run(ctx, "mark_exprs", []string{"1", "one"})
	require.NoError(t, err)

	_, err = st.Run(ctx, "mark_exprs", []string{"$a + $b", "sum"})
	require.NoError(t, err)
	assert.Equal(t, 2, st.Marks().Len())

	_, err = st.Run(ctx, "clear_marks", []string{"one"})
	require.NoError(t, err)
	require.Equal(t, 1, st.Marks().Len())
	assert.Equal(t, "sum", st.Marks().List()[0].Label)

	_, err = st.Run(ctx, "clear_marks", nil)
	require.NoError(t, err)
	assert.Zero(t, st.Marks().Len())
}

func TestSaveLoadCrate(t *testing.T) {
	t.Parallel()

	st := newState(t, "fn f() {\n    a = 1;\n}\n")
	ctx := context.Background()

	require.ErrorIs(t, st.LoadCrate(), refactor.ErrNoSnapshot)

	before := syntax.PrintFile(st.File())
	id := st.File().Items[0].ID

	st.SaveCrate()

	_, err := st.Run(ctx, "rewrite_expr", []string{"1", "2"})
	require.NoError(t, err)
	assert.NotEqual(t, before, syntax.PrintFile(st.File()))

	require.NoError(t, st.LoadCrate())
	assert.Equal(t, before, syntax.PrintFile(st.File()))
	assert.Equal(t, id, st.File().Items[0].ID)

	// The snapshot survives a load.
	_, err = st.Run(ctx, "rewrite_expr", []string{"1", "3"})
	require.NoError(t, err)
	require.NoError(t, st.LoadCrate())
	assert.Equal(t, before, syntax.PrintFile(st.File()))
}

func TestTransform_RecordsMetricsAndLogsFailures(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	om, err := observability.NewOpMetrics(mp.Meter("test"))
	require.NoError(t, err)

	var logs bytes.Buffer

	st := newState(t, "fn f() -> u32 {\n    1 + 1\n}\n", func(c *refactor.Config) {
		c.Metrics = om
		c.Logger = slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	})
	ctx := context.Background()

	_, err = st.Run(ctx, "rewrite_expr", []string{"1", "2"})
	require.NoError(t, err)

	_, err = st.Run(ctx, "rewrite_expr", []string{"(", "2"})
	require.Error(t, err)

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(ctx, &rm))

	names := map[string]bool{}

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}

	assert.True(t, names["refactor.rewrites.total"])
	assert.True(t, names["refactor.errors.total"])
	assert.Contains(t, logs.String(), "operation failed")
	assert.Contains(t, logs.String(), "operation finished")
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := refactor.NewRegistry()

	noop := func(context.Context, *refactor.State, []string) (int, error) { return 0, nil }

	require.NoError(t, r.Register(refactor.Descriptor{Name: "a"}, noop))
	require.NoError(t, r.Register(refactor.Descriptor{Name: "b", MaxArgs: refactor.Unbounded}, noop))
	require.ErrorIs(t, r.Register(refactor.Descriptor{Name: "a"}, noop), refactor.ErrDuplicateCommand)

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Name)

	_, err := r.Lookup("c")
	require.ErrorIs(t, err, refactor.ErrUnknownCommand)

	_, err = refactor.DefaultRegistry().Lookup("rewrite_exp")
	require.ErrorIs(t, err, refactor.ErrUnknownCommand)
	assert.Contains(t, err.Error(), "did you mean rewrite_expr?")

	_, err = refactor.DefaultRegistry().Lookup("zzzzzzzz")
	assert.NotContains(t, err.Error(), "did you mean")

	names := make([]string, 0)
	for _, d := range refactor.DefaultRegistry().All() {
		names = append(names, d.Name)
	}

	assert.Contains(t, names, "rewrite_expr")
	assert.Contains(t, names, "eval_cfg")
}

func TestMarks(t *testing.T) {
	t.Parallel()

	m := refactor.NewMarks()

	assert.True(t, m.Add(2, "b"))
	assert.True(t, m.Add(1, "z"))
	assert.True(t, m.Add(1, "a"))
	assert.False(t, m.Add(1, "a"))
	assert.True(t, m.Has(1, "a"))

	assert.Equal(t, []refactor.Mark{{ID: 1, Label: "a"}, {ID: 1, Label: "z"}, {ID: 2, Label: "b"}}, m.List())
	assert.Equal(t, map[syntax.NodeID][]string{1: {"a", "z"}, 2: {"b"}}, m.ByNode())

	m.Remove(1, "z")
	assert.False(t, m.Has(1, "z"))
	assert.Equal(t, 1, m.Clear("a"))
	assert.Equal(t, 1, m.Len())
}

func TestMarks_PruneDropsRemovedNodes(t *testing.T) {
	t.Parallel()

	st := newState(t, "fn f() {}\nfn g() {}\n")

	st.Marks().Add(st.File().Items[0].ID, "keep")
	st.Marks().Add(st.File().Items[1].ID, "gone")

	st.File().Items = st.File().Items[:1]

	assert.Equal(t, 1, st.Marks().Prune(st.File()))
	assert.True(t, st.Marks().Has(st.File().Items[0].ID, "keep"))
}

func TestInferFacts(t *testing.T) {
	t.Parallel()

	st := newState(t, "fn f(x: u32) {\n    let y: i64 = x as i64;\n    y;\n    7u8;\n}\n")
	res := st.Resolver()

	facts, ok := res.Facts(findExpr(t, st.File(), "x").ID)
	require.True(t, ok)
	assert.Equal(t, "u32", facts[refactor.FactType])
	assert.Equal(t, syntax.TagPath, facts[refactor.FactTag])

	facts, ok = res.Facts(findExpr(t, st.File(), "x as i64").ID)
	require.True(t, ok)
	assert.Equal(t, "i64", facts[refactor.FactType])

	facts, ok = res.Facts(findExpr(t, st.File(), "y").ID)
	require.True(t, ok)
	assert.Equal(t, "i64", facts[refactor.FactType])

	facts, ok = res.Facts(findExpr(t, st.File(), "7u8").ID)
	require.True(t, ok)
	assert.Equal(t, "u8", facts[refactor.FactType])
	assert.Equal(t, "int", facts[refactor.FactLitKind])

	_, ok = res.Facts(syntax.NewID())
	assert.False(t, ok)
}

func TestMapResolver_ReturnsCopies(t *testing.T) {
	t.Parallel()

	r := refactor.MapResolver{1: {"type": "u8"}}

	f, ok := r.Facts(1)
	require.True(t, ok)

	f["type"] = "changed"

	again, _ := r.Facts(1)
	assert.Equal(t, "u8", again["type"])
}
