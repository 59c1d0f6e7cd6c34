package scripting_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"

	"github.com/Sumatoshi-tech/refactor/internal/observability"
	"github.com/Sumatoshi-tech/refactor/pkg/matcher"
	"github.com/Sumatoshi-tech/refactor/pkg/refactor"
	"github.com/Sumatoshi-tech/refactor/pkg/rustparse"
	"github.com/Sumatoshi-tech/refactor/pkg/scripting"
	"github.com/Sumatoshi-tech/refactor/pkg/syntax"
)

type fixture struct {
	st   *refactor.State
	host *scripting.Host
	out  *bytes.Buffer
	logs *bytes.Buffer
}

func newFixture(t *testing.T, src string) *fixture {
	t.Helper()

	p, err := rustparse.NewParser()
	require.NoError(t, err)

	file, err := p.ParseFile(context.Background(), []byte(src))
	require.NoError(t, err)

	f := &fixture{out: &bytes.Buffer{}, logs: &bytes.Buffer{}}

	f.st, err = refactor.NewState(file, refactor.Config{Parser: p})
	require.NoError(t, err)

	f.host = scripting.NewHost(f.st, scripting.Config{
		Logger: slog.New(slog.NewTextHandler(f.logs, nil)),
		Stdout: f.out,
	})
	t.Cleanup(f.host.Close)

	return f
}

func (f *fixture) run(t *testing.T, script string) (int, error) {
	t.Helper()

	return f.host.RunString(context.Background(), t.Name(), script)
}

func (f *fixture) printed() string { return syntax.PrintFile(f.st.File()) }

func TestReplaceStmtsWith_RewritesEveryWindow(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "fn f() {\n    a = 1;\n    b = 2;\n    c = 1;\n}\n")

	n, err := f.run(t, `
refactor:transform(function(t)
  t:replace_stmts_with("$x = 1;", function(stmts, mcx)
    assert(stmts:kind() == "stmts")
    assert(tostring(mcx:get_expr("x")) == "a")
    return mcx:subst(mcx:parse_stmts("$x = 0;"))
  end)
end)
`)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	out := f.printed()
	assert.Contains(t, out, "a = 0;")
	assert.Contains(t, out, "b = 2;")
	assert.Contains(t, out, "c = 0;")
	assert.NotContains(t, out, " = 1;")
}

func TestFoldWith_NilKeepsMatch(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "fn f() -> u32 {\n    g(1) + g(2)\n}\n")

	n, err := f.run(t, `
refactor:transform(function(t)
  t:match(function(mcx)
    local seen = 0
    local n = mcx:fold_with(mcx:parse_expr("g($a)"), function(node, sub)
      seen = seen + 1
      if tostring(sub:get_expr("a")) == "1" then
        return nil
      end
      return sub:subst(mcx:parse_expr("h($a)"))
    end)
    assert(seen == 2, "seen " .. seen)
    assert(n == 1, "rewrites " .. n)
  end)
end)
`)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, f.printed(), "g(1) + h(2)")
}

func TestFoldWith_TableResultIsMergedIntoMatch(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "fn f() -> u32 {\n    x + 1\n}\n")

	_, err := f.run(t, `
refactor:transform(function(t)
  t:replace_expr_with("$a + 1", function(node, mcx)
    local tbl = node:to_table()
    tbl.op = "-"
    return tbl
  end)
end)
`)
	require.NoError(t, err)
	assert.Contains(t, f.printed(), "x - 1")
}

func TestDispatch_ExhaustionIsFatal(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "fn f() {}\n")

	_, err := f.run(t, `
refactor:transform(function(t)
  t:match(function(mcx)
    -- The error is caught here but still fails the run.
    local ok = pcall(function()
      t:get_expr_facts(mcx:parse_ty("u8"))
    end)
    assert(not ok)
  end)
end)
`)
	require.ErrorIs(t, err, scripting.ErrNoMatchingKind)

	var nmk *scripting.NoMatchingKindError
	require.ErrorAs(t, err, &nmk)
	assert.Equal(t, "get_expr_facts", nmk.Op)
	assert.Equal(t, []syntax.Kind{syntax.KindExpr}, nmk.Tried)
	assert.Equal(t, "ty", nmk.Got)

	g := newFixture(t, "fn f() {}\n")

	_, err = g.run(t, `
refactor:transform(function(t)
  t:match(function(mcx)
    mcx:fold_with("not a node", function() end)
  end)
end)
`)
	require.ErrorAs(t, err, &nmk)
	assert.Equal(t, "fold_with", nmk.Op)
	assert.Equal(t, "string", nmk.Got)
}

func TestMatchCtxt_FindTrySubst(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "fn f(y: u32) -> u32 {\n    y + 1\n}\n")

	_, err := f.run(t, `
refactor:transform(function(t)
  t:match(function(mcx)
    local found, node = mcx:find_first(mcx:parse_expr("$x + 1"))
    assert(found)
    assert(tostring(node) == "y + 1")
    assert(tostring(mcx:get_expr("x")) == "y")
    assert(mcx:get_expr("missing") == nil)

    assert(mcx:try_match(mcx:parse_expr("$x + 1"), node))
    assert(not mcx:try_match(mcx:parse_expr("$x * 2"), node))

    local out = mcx:subst(mcx:parse_expr("$x * 2"))
    assert(tostring(out) == "y * 2", tostring(out))

    local names = mcx:bindings()
    assert(names.x ~= nil)
  end)
end)
`)
	require.NoError(t, err)
}

func TestMatchCtxt_TryMatchTargetKindIsDispatched(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "fn f() {}\n")

	_, err := f.run(t, `
refactor:transform(function(t)
  t:match(function(mcx)
    mcx:try_match(mcx:parse_expr("$a + 1"), mcx:parse_ty("u32"))
  end)
end)
`)
	require.ErrorIs(t, err, scripting.ErrNoMatchingKind)

	var nmk *scripting.NoMatchingKindError
	require.ErrorAs(t, err, &nmk)
	assert.Equal(t, "try_match", nmk.Op)
	assert.Equal(t, []syntax.Kind{syntax.KindExpr}, nmk.Tried)
	assert.Equal(t, "ty", nmk.Got)
}

func TestRun_ArgumentErrorsSurvivePcall(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "fn f() {}\n")

	_, err := f.run(t, `
refactor:transform(function(t)
  t:match(function(mcx)
    local ok = pcall(function() return mcx:parse_expr() end)
    assert(not ok)
  end)
end)
`)
	require.ErrorIs(t, err, scripting.ErrScript)

	var apiErr *lua.ApiError
	require.ErrorAs(t, err, &apiErr)

	_, err = f.run(t, `
refactor:transform(function(t)
  t:match(function(mcx)
    local ok = pcall(mcx.try_match, mcx, mcx:parse_expr("1"), 5)
    assert(not ok)
  end)
end)
`)
	require.ErrorIs(t, err, scripting.ErrNoMatchingKind)
}

func TestMatchCtxt_GetterKindMismatchIsContractViolation(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "fn f() -> u32 {\n    y + 1\n}\n")

	_, err := f.run(t, `
refactor:transform(function(t)
  t:match(function(mcx)
    assert(mcx:find_first(mcx:parse_expr("$x + 1")))
    mcx:get_ty("x")
  end)
end)
`)
	require.ErrorIs(t, err, matcher.ErrContractViolation)
}

func TestTransformCtxt_Constructors(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "fn f() {}\n")

	_, err := f.run(t, `
refactor:transform(function(t)
  local sum = t:binary_expr("+", t:ident_path_expr("a"), t:int_lit_expr(1))
  assert(tostring(sum) == "a + 1", tostring(sum))
  assert(sum:kind() == "expr" and sum:tag() == "Binary")

  local call = t:call_expr(t:ident_path_expr("f"), {sum, t:int_lit_expr(2)})
  assert(tostring(call) == "f(a + 1, 2)", tostring(call))

  local cast = t:cast_expr(t:ident_path_expr("n"), t:ident_path_ty("u64"))
  assert(cast:tag() == "Cast")
  assert(tostring(cast) == "n as u64", tostring(cast))

  local set = t:assign_expr(t:ident_path_expr("a"), t:int_lit_expr(0))
  assert(tostring(set) == "a = 0", tostring(set))

  -- Constructors copy their operands.
  assert(call ~= sum)
end)
`)
	require.NoError(t, err)
}

func TestTransformCtxt_ExprFacts(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "fn f(x: u32) -> u32 {\n    x + 1\n}\n")

	_, err := f.run(t, `
refactor:transform(function(t)
  t:match(function(mcx)
    assert(mcx:find_first(mcx:parse_expr("$v + 1")))
    local facts = t:get_expr_facts(mcx:get_expr("v"))
    assert(facts.type == "u32", tostring(facts.type))
    assert(facts.tag == "Path")
  end)
end)
`)
	require.NoError(t, err)
}

func TestVisitCrate_MergesEditsBack(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "fn f() -> u32 {\n    let a = 1;\n    a + 2\n}\n\nfn g() {}\n")

	_, err := f.run(t, `
local Renamer = {visited = 0, finished = false}

function Renamer:visit_item(item)
  if item.name == "g" then
    item.name = "h"
  end
end

function Renamer:visit_expr(e)
  self.visited = self.visited + 1
  if e.tag == "Lit" and e.value == "2" then
    e.value = "3"
  end
end

function Renamer:finish()
  self.finished = true
end

refactor:transform(function(t)
  t:visit_crate(Renamer)
end)

assert(Renamer.finished)
assert(Renamer.visited == 4, "visited " .. Renamer.visited)
`)
	require.NoError(t, err)

	out := f.printed()
	assert.Contains(t, out, "a + 3")
	assert.Contains(t, out, "fn h()")
	assert.Equal(t, "f", f.st.File().Items[0].Name)
}

func TestVisitCrate_FalseSkipsChildren(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "fn f() -> u32 {\n    1 + 2\n}\n")

	_, err := f.run(t, `
local V = {exprs = 0}
function V:visit_item(item) return false end
function V:visit_expr(e) self.exprs = self.exprs + 1 end

refactor:transform(function(t) t:visit_crate(V) end)
assert(V.exprs == 0)
`)
	require.NoError(t, err)
}

func TestVisitFnLike(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "fn a() {}\n\nstruct S {}\n\nimpl S {\n    fn b(&self) {}\n}\n\nconst C: u8 = 1;\n")

	_, err := f.run(t, `
local V = {names = {}}
function V:visit_fn_like(fn)
  table.insert(self.names, fn.name)
  fn.name = fn.name .. "_renamed"
end

refactor:transform(function(t) t:visit_fn_like(V) end)
assert(#V.names == 2, "fns " .. #V.names)
assert(V.names[1] == "a" and V.names[2] == "b")
`)
	require.NoError(t, err)

	out := f.printed()
	assert.Contains(t, out, "fn a_renamed()")
	assert.Contains(t, out, "fn b_renamed(&self)")
	assert.Contains(t, out, "const C: u8 = 1;")
}

func TestRefactorGlobal_CommandsSnapshotsAndMarks(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "fn f() -> u32 {\n    1 + 1\n}\n")

	n, err := f.run(t, `
refactor:save_crate()
local n = refactor:run_command("rewrite_expr", {"1", "2"})
assert(n == 2, "rewrites " .. n)
refactor:load_crate()

refactor:transform(function(t)
  t:match(function(mcx)
    local found, node = mcx:find_first(mcx:parse_expr("$a + $b"))
    assert(found)
    assert(t:mark(node, "sum"))
    assert(not t:mark(node, "sum"))
  end)
end)

local marks = refactor:get_marks()
local count = 0
for id, labels in pairs(marks) do
  count = count + 1
  assert(labels[1] == "sum")
end
assert(count == 1)

refactor:dump_marks()
assert(refactor:clear_marks("other") == 0)
assert(refactor:clear_marks() == 1)
`)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, f.printed(), "1 + 1")
	assert.Contains(t, f.out.String(), " sum\n")
	assert.Zero(t, f.st.Marks().Len())
}

func TestRunCommand_EvalCfgKeepsConditionalAttributes(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "#[cfg_attr(target = \"foo\", attr1)]\nfn f() {}\n\n#[cfg(windows)]\nfn g() {}\n")

	_, err := f.run(t, `refactor:run_command("eval_cfg", {'target="foo"'})`)
	require.NoError(t, err)

	require.Len(t, f.st.File().Items, 1)
	assert.Contains(t, f.printed(), "#[cfg_attr(target = \"foo\", attr1)]\nfn f()")
}

func TestRun_ErrorsAreFatal(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "fn f() -> u32 {\n    1\n}\n")

	_, err := f.run(t, `this is not lua`)
	require.ErrorIs(t, err, scripting.ErrScript)

	var apiErr *lua.ApiError
	require.ErrorAs(t, err, &apiErr)

	_, err = f.run(t, `
log_error("about to fail")
refactor:transform(function(t)
  t:replace_expr_with("1", function() error("boom") end)
end)
`)
	require.ErrorIs(t, err, scripting.ErrScript)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, f.logs.String(), "about to fail")

	_, err = f.run(t, `refactor:load_crate()`)
	require.ErrorIs(t, err, refactor.ErrNoSnapshot)

	// A fresh run starts clean.
	_, err = f.run(t, `assert(true)`)
	require.NoError(t, err)
}

func TestLogError_TaggedWithScript(t *testing.T) {
	t.Parallel()

	p, err := rustparse.NewParser()
	require.NoError(t, err)

	file, err := p.ParseFile(context.Background(), []byte("fn f() {}\n"))
	require.NoError(t, err)

	st, err := refactor.NewState(file, refactor.Config{Parser: p})
	require.NoError(t, err)

	var logs bytes.Buffer

	inner := slog.NewTextHandler(&logs, nil)
	host := scripting.NewHost(st, scripting.Config{
		Logger: slog.New(observability.NewTracingHandler(inner, "refactor", "", observability.ModeScript)),
	})
	t.Cleanup(host.Close)

	_, err = host.RunString(context.Background(), "rename.lua", `log_error("no candidates")`)
	require.NoError(t, err)

	assert.Contains(t, logs.String(), `msg="no candidates"`)
	assert.Contains(t, logs.String(), "script=rename.lua")
}

func TestRunFile_RequiresSiblingModules(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "patterns.lua"), []byte(`return {from = "1", to = "2"}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.lua"), []byte(`
local p = require("patterns")
refactor:run_command("rewrite_expr", {p.from, p.to})
`), 0o600))

	f := newFixture(t, "fn f() -> u32 {\n    1\n}\n")

	n, err := f.host.RunFile(context.Background(), filepath.Join(dir, "main.lua"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, f.printed(), "2")
}

func TestDumpCrate(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "fn f() {}\n")

	_, err := f.run(t, `refactor:transform(function(t) t:dump_crate() end)`)
	require.NoError(t, err)
	assert.Equal(t, f.printed(), f.out.String())
}
