// Package sandbox runs generated snippets in a fresh yaegi interpreter and
// checks that they return the kind of value that was asked for.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/soundprediction/go-geoai/pkg/chart"
	"github.com/soundprediction/go-geoai/pkg/frame"
	"github.com/soundprediction/go-geoai/pkg/geo"
	"github.com/soundprediction/go-geoai/pkg/types"
	"github.com/soundprediction/go-geoai/pkg/webmap"
)

// EntryPoint is the function every snippet must define.
const EntryPoint = "execute"

// entryAlias names the exported wrapper appended to the snippet so the entry
// point can be looked up from outside package main.
const entryAlias = "GeoaiEntrypoint"

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// acceptors decide whether a returned value satisfies a kind.
var acceptors = map[types.ResultKind]func(v any) bool{
	types.KindText: func(v any) bool {
		_, ok := v.(string)
		return ok
	},
	types.KindDataFrame: func(v any) bool {
		switch t := v.(type) {
		case *frame.DataFrame:
			return t != nil
		case *geo.GeoDataFrame:
			return t != nil
		}
		return false
	},
	types.KindGeoDataFrame: func(v any) bool {
		g, ok := v.(*geo.GeoDataFrame)
		return ok && g != nil
	},
	types.KindPlot: func(v any) bool {
		f, ok := v.(*chart.Figure)
		return ok && f != nil
	},
	types.KindMap: func(v any) bool {
		m, ok := v.(*webmap.Map)
		return ok && m != nil
	},
}

// Accepts reports whether v is a valid result for kind.
func Accepts(kind types.ResultKind, v any) bool {
	accept, ok := acceptors[kind]
	return ok && accept(v)
}

// Executor loads and calls generated snippets. The zero value is not usable;
// construct one with New.
type Executor struct {
	// TempDir holds the transient snippet files. Empty means os.TempDir.
	TempDir string
	// Wrap converts geodataframe results before they are returned. Nil leaves
	// them untouched.
	Wrap func(*geo.GeoDataFrame) any

	allowed map[string]bool
	symbols interp.Exports
	logger  *slog.Logger
}

// New creates an executor allowing AllowedImports.
func New(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Executor{
		allowed: make(map[string]bool),
		symbols: make(interp.Exports),
		logger:  logger,
	}
	for _, path := range AllowedImports() {
		e.allowed[path] = true
	}
	for key, syms := range stdlib.Symbols {
		if idx := strings.LastIndex(key, "/"); idx >= 0 && e.allowed[key[:idx]] {
			e.symbols[key] = syms
		}
	}
	for key, syms := range Symbols {
		e.symbols[key] = syms
	}
	return e
}

// Run writes source to a temporary file, loads it in a new interpreter, calls
// execute with datasets in order and validates the result against kind.
// Every failure before validation wraps ErrExecution; a wrong result wraps
// ErrTypeMismatch.
//
// When ctx ends first Run returns its error, but the snippet goroutine keeps
// running until execute returns: the interpreter cannot be interrupted. A
// snippet that never returns holds its goroutine for the life of the process.
func (e *Executor) Run(ctx context.Context, source string, kind types.ResultKind, datasets []frame.Dataset) (any, error) {
	source = ensurePackage(source)

	path, cleanup, err := e.write(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrExecution, err)
	}
	defer cleanup()

	fn, err := e.load(path, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrExecution, err)
	}

	result, err := e.call(ctx, fn, datasets)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrExecution, err)
	}

	if !Accepts(kind, result) {
		return nil, fmt.Errorf("%w: expected %s, got %s", types.ErrTypeMismatch, kind.GoType(), describeType(result))
	}

	if g, ok := result.(*geo.GeoDataFrame); ok && e.Wrap != nil {
		return e.Wrap(g), nil
	}
	return result, nil
}

func (e *Executor) write(source string) (string, func(), error) {
	f, err := os.CreateTemp(e.TempDir, "snippet-*.go")
	if err != nil {
		return "", nil, fmt.Errorf("create snippet file: %w", err)
	}
	cleanup := func() {
		if err := os.Remove(f.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
			e.logger.Warn("failed to remove snippet file", "path", f.Name(), "error", err)
		}
	}
	_, werr := f.WriteString(source)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("write snippet file: %w", err)
	}
	return f.Name(), cleanup, nil
}

func (e *Executor) load(path, source string) (reflect.Value, error) {
	wrap, err := inspect(path, source, e.allowed)
	if err != nil {
		return reflect.Value{}, err
	}
	if err := appendFile(path, wrap); err != nil {
		return reflect.Value{}, err
	}

	i := interp.New(interp.Options{})
	if err := i.Use(e.symbols); err != nil {
		return reflect.Value{}, fmt.Errorf("load symbols: %w", err)
	}
	if _, err := evalPath(i, path); err != nil {
		return reflect.Value{}, fmt.Errorf("load snippet: %w", err)
	}

	fn, err := i.Eval("main." + entryAlias)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("function %s not found: %w", EntryPoint, err)
	}
	if fn.Kind() != reflect.Func {
		return reflect.Value{}, fmt.Errorf("%s is a %s, not a function", EntryPoint, fn.Kind())
	}
	return fn, nil
}

func appendFile(path, text string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open snippet file: %w", err)
	}
	_, werr := f.WriteString(text)
	return errors.Join(werr, f.Close())
}

// evalPath turns interpreter panics raised while compiling into errors.
func evalPath(i *interp.Interpreter, path string) (v reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while loading: %v", r)
		}
	}()
	return i.EvalPath(path)
}

type callResult struct {
	value any
	err   error
}

func (e *Executor) call(ctx context.Context, fn reflect.Value, datasets []frame.Dataset) (any, error) {
	args, err := arguments(fn.Type(), datasets)
	if err != nil {
		return nil, err
	}
	if err := checkResults(fn.Type()); err != nil {
		return nil, err
	}

	done := make(chan callResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				if rerr, ok := r.(error); ok {
					done <- callResult{err: fmt.Errorf("%s panicked: %w", EntryPoint, rerr)}
					return
				}
				done <- callResult{err: fmt.Errorf("%s panicked: %v", EntryPoint, r)}
			}
		}()
		out := fn.Call(args)
		res := callResult{value: out[0].Interface()}
		if len(out) == 2 && !out[1].IsNil() {
			res.err = out[1].Interface().(error)
		}
		done <- res
	}()

	select {
	case res := <-done:
		return res.value, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func arguments(ft reflect.Type, datasets []frame.Dataset) ([]reflect.Value, error) {
	if ft.IsVariadic() || ft.NumIn() != len(datasets) {
		return nil, fmt.Errorf("%s takes %d parameters, got %d datasets", EntryPoint, ft.NumIn(), len(datasets))
	}
	args := make([]reflect.Value, len(datasets))
	for i, ds := range datasets {
		if ds == nil {
			return nil, fmt.Errorf("dataset %d is nil", i+1)
		}
		v := reflect.ValueOf(ds)
		if !v.Type().AssignableTo(ft.In(i)) {
			return nil, fmt.Errorf("parameter df_%d has type %s, dataset is %s", i+1, ft.In(i), v.Type())
		}
		args[i] = v
	}
	return args, nil
}

func checkResults(ft reflect.Type) error {
	switch {
	case ft.NumOut() == 1:
		return nil
	case ft.NumOut() == 2 && ft.Out(1).Implements(errorType):
		return nil
	}
	return fmt.Errorf("%s must return a value or a value and an error", EntryPoint)
}

func describeType(v any) string {
	if v == nil {
		return "nil"
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return "nil " + rv.Type().String()
	}
	return rv.Type().String()
}
