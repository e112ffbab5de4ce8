package sandbox

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"regexp"
	"strconv"
	"strings"
)

var packageClauseRe = regexp.MustCompile(`(?m)^\s*package\s+\w+`)

// ensurePackage prefixes source with "package main" when the model left the
// clause out.
func ensurePackage(source string) string {
	if packageClauseRe.MatchString(source) {
		return source
	}
	return "package main\n\n" + source
}

// inspect parses source, rejects imports outside allowed and returns an
// exported wrapper around the entry point so it can be looked up by name.
func inspect(filename, source string, allowed map[string]bool) (string, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, source, parser.SkipObjectResolution)
	if err != nil {
		return "", err
	}
	if f.Name.Name != "main" {
		return "", fmt.Errorf("snippet must be in package main, found package %s", f.Name.Name)
	}
	for _, spec := range f.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			return "", err
		}
		if !allowed[path] {
			return "", fmt.Errorf("import %q is not allowed", path)
		}
	}

	var entry *ast.FuncDecl
	for _, decl := range f.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok && fn.Recv == nil && fn.Name.Name == EntryPoint {
			entry = fn
		}
	}
	if entry == nil {
		return "", fmt.Errorf("function %s not found", EntryPoint)
	}
	return wrapper(fset, source, entry.Type), nil
}

// wrapper renders
//
//	func GeoaiEntrypoint(a0 T0, a1 T1) R { return execute(a0, a1) }
//
// reusing the type expressions exactly as written in source.
func wrapper(fset *token.FileSet, source string, ft *ast.FuncType) string {
	text := func(from, to token.Pos) string {
		return source[fset.Position(from).Offset:fset.Position(to).Offset]
	}

	var params, args []string
	for _, field := range ft.Params.List {
		n := max(len(field.Names), 1)
		typ := text(field.Type.Pos(), field.Type.End())
		for j := 0; j < n; j++ {
			name := fmt.Sprintf("a%d", len(args))
			params = append(params, name+" "+typ)
			if strings.HasPrefix(typ, "...") {
				name += "..."
			}
			args = append(args, name)
		}
	}
	call := EntryPoint + "(" + strings.Join(args, ", ") + ")"

	results := ""
	if ft.Results != nil && len(ft.Results.List) > 0 {
		if ft.Results.Opening.IsValid() {
			results = " " + text(ft.Results.Opening, ft.Results.Closing+1)
		} else {
			results = " " + text(ft.Results.Pos(), ft.Results.End())
		}
		call = "return " + call
	}
	return fmt.Sprintf("\nfunc %s(%s)%s { %s }\n", entryAlias, strings.Join(params, ", "), results, call)
}
