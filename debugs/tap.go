package debugs

import (
	"context"
	"maps"
	"slices"

	"github.com/reusee/hanalyzer/logs"
	"go.starlark.net/repl"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
}

// Tap opens an interactive starlark console on stdin with globals bound.
// Go functions in globals become callable builtins.
type Tap func(ctx context.Context, what string, globals map[string]any)

func (Module) Tap(
	logger logs.Logger,
) Tap {
	return func(ctx context.Context, what string, globals map[string]any) {
		logger.InfoContext(ctx, "tap: "+what,
			"globals", slices.Sorted(maps.Keys(globals)),
		)
		defer logger.InfoContext(ctx, "tap end: "+what)
		thread := &starlark.Thread{
			Name: what,
		}
		repl.REPLOptions(fileOptions, thread, toStringDict(globals))
	}
}

// RunScript executes a starlark script against globals.
type RunScript func(ctx context.Context, name string, src []byte, globals map[string]any) (map[string]starlark.Value, error)

func (Module) RunScript(
	logger logs.Logger,
) RunScript {
	return func(ctx context.Context, name string, src []byte, globals map[string]any) (map[string]starlark.Value, error) {
		thread := &starlark.Thread{
			Name: name,
			Print: func(_ *starlark.Thread, msg string) {
				logger.InfoContext(ctx, "script", "name", name, "print", msg)
			},
		}
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			<-ctx.Done()
			thread.Cancel(context.Cause(ctx).Error())
		}()
		ret, err := starlark.ExecFileOptions(fileOptions, thread, name, src, toStringDict(globals))
		if err != nil {
			return nil, logs.WrapSpan(ctx, err)
		}
		return ret, nil
	}
}

func toStringDict(globals map[string]any) starlark.StringDict {
	ret := make(starlark.StringDict, len(globals))
	for name, value := range globals {
		ret[name] = toStarlarkValue(name, value)
	}
	return ret
}
