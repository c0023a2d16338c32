// Copyright © 2024 The Expreva authors

package lint

import "github.com/expreva/expreva"

// Walk calls fn for every node in the tree, depth-first.  parent is nil for
// the root.
func Walk(root *expreva.Val, fn func(node, parent *expreva.Val, depth int)) {
	walkNode(root, nil, 0, fn)
}

func walkNode(node, parent *expreva.Val, depth int, fn func(*expreva.Val, *expreva.Val, int)) {
	if node == nil {
		return
	}
	fn(node, parent, depth)
	if node.Kind != expreva.KList {
		return
	}
	if node.HeadSymbol() == expreva.QuoteSymbol {
		// Quoted payloads are data, not program forms.
		return
	}
	for _, child := range node.Cells {
		walkNode(child, node, depth+1, fn)
	}
}

// WalkForms calls fn for every list form with a symbol head, which covers
// special forms and most calls.
func WalkForms(root *expreva.Val, fn func(form *expreva.Val, depth int)) {
	Walk(root, func(node, _ *expreva.Val, depth int) {
		if node.Kind == expreva.KList && node.HeadSymbol() != "" {
			fn(node, depth)
		}
	})
}

// Statements flattens the parser's nested statement sequence into source
// order.
func Statements(root *expreva.Val) []*expreva.Val {
	if root == nil || root.Kind != expreva.KList {
		return []*expreva.Val{root}
	}
	if len(root.Cells) == 3 && root.Cells[1].IsSymbol(";") {
		out := Statements(root.Cells[0])
		return append(out, Statements(root.Cells[2])...)
	}
	return []*expreva.Val{root}
}
