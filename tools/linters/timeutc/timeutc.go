// Package timeutc implements an analyzer that flags time.Now() calls not
// immediately chained with .UTC().
//
// Operational timestamps in this codebase (created_at, updated_at, the
// completed_at instant on run records) are stored in UTC, and civil dates
// such as a task's due date are derived from them. A naked time.Now()
// carries the host timezone and can shift a derived date across midnight.
package timeutc

import (
	"go/ast"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// Analyzer flags time.Now() calls missing the .UTC() chain.
var Analyzer = &analysis.Analyzer{
	Name: "timeutc",
	Doc:  "flags time.Now() calls not chained with .UTC(); stored timestamps assume UTC",
	Run:  run,
}

func run(pass *analysis.Pass) (any, error) {
	// time.Now() calls that appear as the receiver of a .UTC() selector.
	chained := make(map[*ast.CallExpr]bool)

	for _, file := range pass.Files {
		ast.Inspect(file, func(n ast.Node) bool {
			sel, ok := n.(*ast.SelectorExpr)
			if !ok || sel.Sel.Name != "UTC" {
				return true
			}
			if call, ok := sel.X.(*ast.CallExpr); ok && isTimeNow(call) {
				chained[call] = true
			}
			return true
		})
	}

	for _, file := range pass.Files {
		ast.Inspect(file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok || !isTimeNow(call) || chained[call] {
				return true
			}
			if suppressed(pass, file, call) {
				return true
			}
			pass.Reportf(call.Pos(), "time.Now() must be chained with .UTC(); stored timestamps assume UTC")
			return true
		})
	}

	return nil, nil
}

// isTimeNow reports whether the call is time.Now().
func isTimeNow(call *ast.CallExpr) bool {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "Now" {
		return false
	}
	ident, ok := sel.X.(*ast.Ident)
	return ok && ident.Name == "time"
}

// suppressed reports whether a nolint comment on the call's line, or the
// line above it, silences the diagnostic. Both bare //nolint and the
// scoped //nolint:timeutc form count.
func suppressed(pass *analysis.Pass, file *ast.File, call *ast.CallExpr) bool {
	line := pass.Fset.Position(call.Pos()).Line

	for _, group := range file.Comments {
		for _, comment := range group.List {
			commentLine := pass.Fset.Position(comment.Pos()).Line
			if commentLine != line && commentLine != line-1 {
				continue
			}
			if !strings.Contains(comment.Text, "nolint") {
				continue
			}
			if !strings.Contains(comment.Text, ":") || strings.Contains(comment.Text, "timeutc") {
				return true
			}
		}
	}

	return false
}
