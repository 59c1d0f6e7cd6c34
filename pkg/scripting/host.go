// Package scripting embeds a Lua 5.1 runtime that drives a refactoring
// session.
//
// Nodes cross into Lua as opaque handles, one metatable per node kind.
// Bridge operations list the kinds they accept and dispatch on the handle
// they receive; a handle of any other kind aborts the script with a
// *NoMatchingKindError. Nodes can also be mirrored into plain tables with
// ToTable and written back with MergeTable.
//
// Globals:
//
//	refactor       session object: run_command, save_crate, load_crate,
//	               dump_marks, get_marks, clear_marks, transform
//	log_error(msg) logs msg at error level
//
// Every error raised by the bridge is fatal for the run, even when the
// script catches it with pcall. Edits made before the error stay applied.
package scripting

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/refactor/internal/observability"
	"github.com/Sumatoshi-tech/refactor/pkg/refactor"
)

const (
	// RefactorStateType is the metatable name of the refactor global.
	RefactorStateType = "RefactorState"

	opScript      = "script"
	spanTransform = "refactor.transform"
)

// Config configures a Host.
type Config struct {
	// PackagePaths are directories appended to package.path.
	PackagePaths []string
	// Logger receives log_error output. Defaults to the session logger.
	Logger *slog.Logger
	// Stdout receives dump_crate and dump_marks output. Defaults to os.Stdout.
	Stdout io.Writer
}

// Host runs Lua scripts against one session. It is not safe for
// concurrent use.
type Host struct {
	st  *refactor.State
	cfg Config
	L   *lua.LState

	ctx      context.Context //nolint:containedctx // scoped to the running script.
	fatal    error
	rewrites int
}

// NewHost creates a Lua state bound to st.
func NewHost(st *refactor.State, cfg Config) *Host {
	if cfg.Logger == nil {
		cfg.Logger = st.Logger()
	}

	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}

	h := &Host{st: st, cfg: cfg, L: lua.NewState(), ctx: context.Background()}

	h.registerHandles(h.L)
	h.registerMatchCtxt(h.L)
	h.registerTransformCtxt(h.L)
	h.registerGlobals(h.L)

	for _, dir := range cfg.PackagePaths {
		h.addPackagePath(dir)
	}

	return h
}

// Close releases the Lua state.
func (h *Host) Close() { h.L.Close() }

// RunFile runs the script at path. The script's directory is added to
// package.path so that it can require sibling modules. It returns the
// number of nodes replaced.
func (h *Host) RunFile(ctx context.Context, path string) (int, error) {
	h.addPackagePath(filepath.Dir(path))

	return h.run(ctx, path, func() error { return h.L.DoFile(path) })
}

// RunString runs src as a chunk called name.
func (h *Host) RunString(ctx context.Context, name, src string) (int, error) {
	return h.run(ctx, name, func() error {
		fn, err := h.L.Load(strings.NewReader(src), name)
		if err != nil {
			return err
		}

		h.L.Push(fn)

		return h.L.PCall(0, lua.MultRet, nil)
	})
}

func (h *Host) run(ctx context.Context, name string, do func() error) (int, error) {
	return h.st.Transform(ctx, opScript, func(ctx context.Context) (int, error) {
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("script.name", name))

		h.ctx, h.fatal, h.rewrites = observability.WithScript(ctx, name), nil, 0

		h.L.SetContext(ctx)
		defer h.L.RemoveContext()

		err := do()

		switch {
		case h.fatal != nil:
			return h.rewrites, h.fatal
		case err != nil:
			return h.rewrites, fmt.Errorf("%w: %w", ErrScript, err)
		}

		return h.rewrites, nil
	})
}

func (h *Host) addPackagePath(dir string) {
	pkg, ok := h.L.GetGlobal("package").(*lua.LTable)
	if !ok {
		return
	}

	path := lua.LVAsString(pkg.RawGetString("path"))
	pkg.RawSetString("path", lua.LString(path+";"+filepath.Join(dir, "?.lua")))
}

// call invokes fn with args and returns its first result. A failure is
// reported as the run's fatal error when one was recorded.
func (h *Host) call(L *lua.LState, fn *lua.LFunction, args ...lua.LValue) (lua.LValue, error) {
	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		if h.fatal != nil {
			return nil, h.fatal
		}

		return nil, fmt.Errorf("%w: %w", ErrScript, err)
	}

	ret := L.Get(-1)
	L.Pop(1)

	return ret, nil
}

func (h *Host) registerGlobals(L *lua.LState) {
	mt := L.NewTypeMetatable(RefactorStateType)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), h.guardAll(map[string]lua.LGFunction{
		"run_command": h.runCommand,
		"save_crate":  h.saveCrate,
		"load_crate":  h.loadCrate,
		"dump_marks":  h.dumpMarks,
		"get_marks":   h.getMarks,
		"clear_marks": h.clearMarks,
		"transform":   h.transform,
	})))

	ud := L.NewUserData()
	ud.Value = h.st
	L.SetMetatable(ud, mt)
	L.SetGlobal("refactor", ud)

	L.SetGlobal("log_error", L.NewFunction(h.guard(h.logError)))
}

// runCommand runs a registered command: refactor:run_command(name, {args}).
func (h *Host) runCommand(L *lua.LState) int {
	name := L.CheckString(2)
	list := L.OptTable(3, L.NewTable())

	args := make([]string, 0, list.Len())
	for i := 1; i <= list.Len(); i++ {
		args = append(args, lua.LVAsString(list.RawGetInt(i)))
	}

	n, err := h.st.Run(h.ctx, name, args)
	h.rewrites += n

	if err != nil {
		h.fail(L, err)
	}

	L.Push(lua.LNumber(n))

	return 1
}

func (h *Host) saveCrate(*lua.LState) int {
	h.st.SaveCrate()

	return 0
}

func (h *Host) loadCrate(L *lua.LState) int {
	if err := h.st.LoadCrate(); err != nil {
		h.fail(L, err)
	}

	return 0
}

// transform calls cb with a TransformCtxt. Marks on nodes the callback
// removed are dropped afterwards.
func (h *Host) transform(L *lua.LState) int {
	cb := L.CheckFunction(2)

	ctx, span := h.st.Tracer().Start(h.ctx, spanTransform)
	defer span.End()

	outer := h.ctx
	h.ctx = ctx

	_, err := h.call(L, cb, pushTransformCtxt(L))

	h.ctx = outer

	if err != nil {
		span.RecordError(err)
		h.fail(L, err)
	}

	h.st.Marks().Prune(h.st.File())

	return 0
}

func (h *Host) logError(L *lua.LState) int {
	h.cfg.Logger.ErrorContext(h.ctx, L.CheckString(1))

	return 0
}
