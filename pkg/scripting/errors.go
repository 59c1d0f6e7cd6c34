package scripting

import (
	"errors"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/Sumatoshi-tech/refactor/pkg/syntax"
)

// Sentinel errors.
var (
	// ErrScript wraps errors raised by the Lua runtime.
	ErrScript = errors.New("script failed")
	// ErrNoMatchingKind is returned when a handle holds none of the kinds an
	// operation accepts.
	ErrNoMatchingKind = errors.New("no matching node kind")
	// ErrBadValue is returned when a Lua value cannot be converted to the
	// expected Go shape.
	ErrBadValue = errors.New("bad value")
)

// NoMatchingKindError reports a dispatch that exhausted its kind list.
type NoMatchingKindError struct {
	Op    string
	Tried []syntax.Kind
	Got   string
}

// Error implements error.
func (e *NoMatchingKindError) Error() string {
	names := make([]string, len(e.Tried))
	for i, k := range e.Tried {
		names[i] = k.String()
	}

	return fmt.Sprintf("%s: argument is %s, want one of [%s]", e.Op, e.Got, strings.Join(names, ", "))
}

// Unwrap returns ErrNoMatchingKind.
func (e *NoMatchingKindError) Unwrap() error { return ErrNoMatchingKind }

// fail records err as the fatal error of the current run and raises it in
// Lua. Only the first fatal error is kept; a script that catches it with
// pcall still fails when the run ends.
func (h *Host) fail(L *lua.LState, err error) {
	if h.fatal == nil {
		var apiErr *lua.ApiError
		if errors.As(err, &apiErr) && !errors.Is(err, ErrScript) {
			err = fmt.Errorf("%w: %w", ErrScript, err)
		}

		h.fatal = err
	}

	L.RaiseError("%s", err.Error())
}

// guard wraps a bridge function so that it refuses to run once the script
// has failed. Errors raised inside fn without going through fail, such as
// argument checks, are recorded as fatal on their way out.
func (h *Host) guard(fn lua.LGFunction) lua.LGFunction {
	return func(L *lua.LState) int {
		if h.fatal != nil {
			L.RaiseError("%s", h.fatal.Error())
		}

		defer func() {
			if r := recover(); r != nil {
				if h.fatal == nil {
					if err, ok := r.(error); ok {
						h.fatal = fmt.Errorf("%w: %w", ErrScript, err)
					} else {
						h.fatal = fmt.Errorf("%w: %v", ErrScript, r)
					}
				}

				panic(r)
			}
		}()

		return fn(L)
	}
}

func (h *Host) guardAll(fns map[string]lua.LGFunction) map[string]lua.LGFunction {
	out := make(map[string]lua.LGFunction, len(fns))
	for name, fn := range fns {
		out[name] = h.guard(fn)
	}

	return out
}
