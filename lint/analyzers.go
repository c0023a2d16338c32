// Copyright © 2024 The Expreva authors

package lint

import (
	"github.com/expreva/expreva"
)

// DefaultAnalyzers is the built-in analyzer set, in the order they run.
func DefaultAnalyzers() []*Analyzer {
	return []*Analyzer{
		AnalyzerUndefinedNames,
		AnalyzerAssignInCondition,
		AnalyzerUnusedBindings,
	}
}

// AnalyzerUndefinedNames reports symbols that are neither bound anywhere in
// the program nor provided by the standard bindings.  Host-injected bindings
// cannot be seen statically, so the check is a warning rather than an error.
var AnalyzerUndefinedNames = &Analyzer{
	Name: "undefined-names",
	Doc:  "Warn about names with no visible binding.\n\nA name counts as bound when it is a def target, a function parameter, a let binding, or a standard binding. Bindings injected by the host at run time are invisible to this check.",
	Run: func(pass *Pass) error {
		bound := standardNames()
		// def binds globally regardless of position, so collect every def
		// target up front.
		WalkForms(pass.Program, func(form *expreva.Val, _ int) {
			if form.HeadSymbol() == "def" && form.Len() >= 3 && form.Cells[1].Kind == expreva.KSymbol {
				bound[form.Cells[1].Str] = true
			}
		})
		checkNames(pass, pass.Program, bound)
		return nil
	},
}

func standardNames() map[string]bool {
	bound := map[string]bool{
		"this":               true,
		expreva.LocalSymbol:  true,
		expreva.GlobalSymbol: true,
	}
	for name := range expreva.StandardBindings() {
		bound[name] = true
	}
	return bound
}

// checkNames resolves symbol references against bound, extending the scope
// through lambda parameters and let bindings.
func checkNames(pass *Pass, node *expreva.Val, bound map[string]bool) {
	if node == nil {
		return
	}
	switch node.Kind {
	case expreva.KSymbol:
		if !bound[node.Str] {
			pass.Report(node, SeverityWarning, "name %q has no visible binding", node.Str)
		}
		return
	case expreva.KList:
	default:
		return
	}
	if len(node.Cells) == 3 && node.Cells[1].IsSymbol(";") {
		checkNames(pass, node.Cells[0], bound)
		checkNames(pass, node.Cells[2], bound)
		return
	}
	head := node.HeadSymbol()
	switch head {
	case expreva.QuoteSymbol, "expr", "comment":
		return
	case "~", "macro":
		for _, cell := range node.Cells[1:] {
			checkNames(pass, cell, bound)
		}
		return
	case "lambda", "λ":
		if node.Len() != 3 {
			return
		}
		child := extendScope(bound, paramNames(node.Cells[1]))
		checkNames(pass, node.Cells[2], child)
		return
	case "let":
		if node.Len() < 3 {
			return
		}
		names := letNames(node.Cells[1])
		child := extendScope(bound, names)
		checkNames(pass, node.Cells[1], child)
		checkNames(pass, node.Cells[2], child)
		return
	case "try":
		for _, cell := range node.Cells[1:] {
			if cell.HeadSymbol() == "catch" && cell.Len() == 3 && cell.Cells[1].Kind == expreva.KSymbol {
				child := extendScope(bound, []string{cell.Cells[1].Str})
				checkNames(pass, cell.Cells[2], child)
				continue
			}
			checkNames(pass, cell, bound)
		}
		return
	case "def":
		if node.Len() >= 3 {
			// The target is a binding occurrence, not a reference.
			if node.Cells[1].Kind != expreva.KSymbol {
				checkNames(pass, node.Cells[1], bound)
			}
			checkNames(pass, node.Cells[2], bound)
		}
		return
	}
	start := 0
	if head != "" {
		start = 1
		if !syntaxHeads[head] {
			// A head symbol in call position resolves like any reference.
			checkNames(pass, node.Cells[0], bound)
		}
	}
	for _, cell := range node.Cells[start:] {
		checkNames(pass, cell, bound)
	}
}

// syntaxHeads are head symbols the evaluator interprets structurally, so
// they never resolve through the environment.
var syntaxHeads = map[string]bool{
	"list": true,
	"obj":  true,
	"do":   true,
	"if":   true,
	"eva":  true,
	"...":  true,
	";":    true,
}

func extendScope(bound map[string]bool, names []string) map[string]bool {
	child := make(map[string]bool, len(bound)+len(names))
	for k := range bound {
		child[k] = true
	}
	for _, n := range names {
		child[n] = true
	}
	return child
}

// paramNames extracts the names bound by a lambda argument list.
func paramNames(args *expreva.Val) []string {
	if args.Kind == expreva.KSymbol {
		return []string{args.Str}
	}
	if args.Kind != expreva.KList {
		return nil
	}
	var names []string
	cells := args.Cells
	for i := 0; i < len(cells); i++ {
		cell := cells[i]
		switch {
		case cell.IsSymbol(expreva.RestSymbol) && i+1 < len(cells):
			names = append(names, cells[i+1].Str)
			i++
		case cell.Kind == expreva.KSymbol:
			names = append(names, cell.Str)
		case cell.HeadSymbol() == expreva.SpreadSymbol && cell.Len() == 2 && cell.Cells[1].Kind == expreva.KSymbol:
			names = append(names, cell.Cells[1].Str)
		case cell.HeadSymbol() == "def" && cell.Len() == 3 && cell.Cells[1].Kind == expreva.KSymbol:
			names = append(names, cell.Cells[1].Str)
		}
	}
	return names
}

// letNames extracts the names bound by a let binding list.
func letNames(bindings *expreva.Val) []string {
	if bindings.Kind != expreva.KList {
		return nil
	}
	cells := bindings.Cells
	if bindings.HeadSymbol() == "list" {
		cells = cells[1:]
	}
	var names []string
	for i := 0; i+1 < len(cells); i += 2 {
		name := cells[i]
		if name.HeadSymbol() == expreva.QuoteSymbol && name.Len() == 2 {
			name = name.Cells[1]
		}
		if name.Kind == expreva.KSymbol || name.Kind == expreva.KString {
			names = append(names, name.Str)
		}
	}
	return names
}

// AnalyzerAssignInCondition flags assignment directly inside a conditional
// test, which almost always means == was intended.
var AnalyzerAssignInCondition = &Analyzer{
	Name: "assign-in-condition",
	Doc:  "Warn when a condition performs assignment.\n\nAssignment yields the assigned value, so `if (x = 1) ...` is accepted and always truthy for non-empty values. Comparisons use ==.",
	Run: func(pass *Pass) error {
		WalkForms(pass.Program, func(form *expreva.Val, _ int) {
			if form.HeadSymbol() != "if" || form.Len() < 3 {
				return
			}
			cond := form.Cells[1]
			if cond.HeadSymbol() == "def" {
				pass.Report(cond, SeverityWarning, "assignment in condition; use == to compare")
			}
		})
		return nil
	},
}

// AnalyzerUnusedBindings reports top-level definitions that no later code
// references.  The final statement of a program is its result, so a binding
// used only as the trailing expression still counts as used.
var AnalyzerUnusedBindings = &Analyzer{
	Name: "unused-bindings",
	Doc:  "Report top-level bindings that nothing references.",
	Run: func(pass *Pass) error {
		type binding struct {
			node *expreva.Val
			used bool
		}
		defs := map[string]*binding{}
		for _, stmt := range Statements(pass.Program) {
			if stmt != nil && stmt.HeadSymbol() == "def" && stmt.Len() >= 3 && stmt.Cells[1].Kind == expreva.KSymbol {
				defs[stmt.Cells[1].Str] = &binding{node: stmt.Cells[1]}
			}
		}
		if len(defs) == 0 {
			return nil
		}
		Walk(pass.Program, func(node, parent *expreva.Val, _ int) {
			if node.Kind != expreva.KSymbol {
				return
			}
			// Skip the binding occurrence itself.
			if parent != nil && parent.HeadSymbol() == "def" && parent.Len() >= 3 && parent.Cells[1] == node {
				return
			}
			if b, ok := defs[node.Str]; ok {
				b.used = true
			}
		})
		for name, b := range defs {
			if !b.used {
				pass.Report(b.node, SeverityInfo, "binding %q is never used", name)
			}
		}
		return nil
	},
}
