// Copyright © 2024 The Expreva authors

package expreva

import (
	"bytes"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

func (v *Val) String() string {
	return PrintValue(v)
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// binaryOps are the infix operators PrintSyntaxTree renders between their
// operands instead of in call position.
var binaryOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true, "^": true,
	"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
	"&&": true, "||": true,
}

// PrintValue renders a runtime value for display.
func PrintValue(v *Val) string {
	if v == nil {
		return "nil"
	}
	switch v.Kind {
	case KNil:
		return "nil"
	case KBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KNumber:
		return formatNumber(v.Num)
	case KString:
		return quoteString(v.Str)
	case KSymbol:
		return v.Str
	case KError:
		return v.GoError().Error()
	case KFun:
		return printFun(v)
	case KEnv:
		return "#<environment>"
	case KObject:
		var buf bytes.Buffer
		buf.WriteString("{ ")
		for i, k := range v.Obj.Keys() {
			if i > 0 {
				buf.WriteString(", ")
			}
			item, _ := v.Obj.Get(k)
			fmt.Fprintf(&buf, "%s: %s", printKey(k), PrintValue(item))
		}
		buf.WriteString(" }")
		if v.Obj.Len() == 0 {
			return "{}"
		}
		return buf.String()
	case KList:
		elems := make([]string, len(v.Cells))
		for i, cell := range v.Cells {
			elems[i] = PrintValue(cell)
		}
		return "[" + strings.Join(elems, ", ") + "]"
	default:
		return fmt.Sprintf("#<%s>", v.Kind)
	}
}

// PrintSyntaxTree renders an AST as source text.  Parsing the result yields
// a tree that prints identically, so the printer can be used to normalize
// programs.
func PrintSyntaxTree(ast *Val) string {
	if ast == nil {
		return "nil"
	}
	switch ast.Kind {
	case KList:
		return printSyntaxList(ast)
	case KString:
		// A bare string in AST position is unusual (string literals parse
		// as quoted) but prints the same way.
		return quoteString(ast.Str)
	default:
		return PrintValue(ast)
	}
}

func printSyntaxList(ast *Val) string {
	if len(ast.Cells) == 0 {
		return "[]"
	}
	head := ast.HeadSymbol()
	switch {
	case head == QuoteSymbol && len(ast.Cells) == 2:
		return printQuote(ast.Cells[1])
	case head == SpreadSymbol && len(ast.Cells) == 2:
		return "..." + printOperand(ast.Cells[1])
	case binaryOps[head] && len(ast.Cells) == 3:
		return fmt.Sprintf("%s %s %s", printOperand(ast.Cells[1]), head, printOperand(ast.Cells[2]))
	case (head == "-" || head == "+" || head == "!") && len(ast.Cells) == 2:
		return head + printOperand(ast.Cells[1])
	case head == symDef && len(ast.Cells) == 3:
		return fmt.Sprintf("%s = %s", printSyntaxList2(ast.Cells[1]), printOperand(ast.Cells[2]))
	case head == symIf && len(ast.Cells) >= 3:
		s := fmt.Sprintf("if %s then %s", printOperand(ast.Cells[1]), printOperand(ast.Cells[2]))
		if len(ast.Cells) > 3 {
			s += " else " + printOperand(ast.Cells[3])
		}
		return s
	case (head == symLambda || head == symLambdaG) && len(ast.Cells) == 3:
		return printLambda(ast.Cells[1], ast.Cells[2])
	case head == symList:
		elems := make([]string, len(ast.Cells)-1)
		for i, cell := range ast.Cells[1:] {
			elems[i] = PrintSyntaxTree(cell)
		}
		return "[" + strings.Join(elems, ", ") + "]"
	case head == symObj:
		return printObjSyntax(ast)
	case head == symGet && len(ast.Cells) >= 3:
		return printGetSyntax(ast)
	case len(ast.Cells) == 3 && ast.Cells[1].IsSymbol(";"):
		return PrintSyntaxTree(ast.Cells[0]) + "; " + PrintSyntaxTree(ast.Cells[2])
	case head == symDo:
		elems := make([]string, len(ast.Cells)-1)
		for i, cell := range ast.Cells[1:] {
			elems[i] = PrintSyntaxTree(cell)
		}
		return strings.Join(elems, "; ")
	default:
		return printCallSyntax(ast)
	}
}

// printSyntaxList2 renders an assignment target, which is a symbol or a
// member-access list.
func printSyntaxList2(target *Val) string {
	if target.Kind == KList {
		return printSyntaxList(target)
	}
	return PrintSyntaxTree(target)
}

func printQuote(payload *Val) string {
	switch payload.Kind {
	case KString:
		return quoteString(payload.Str)
	case KSymbol:
		// Quoted symbols outside member position read back as strings.
		return quoteString(payload.Str)
	default:
		return PrintSyntaxTree(payload)
	}
}

func printLambda(args, body *Val) string {
	params := make([]string, 0, len(args.Cells))
	cells := args.Cells
	for i := 0; i < len(cells); i++ {
		cell := cells[i]
		switch {
		case cell.IsSymbol(RestSymbol) && i+1 < len(cells):
			params = append(params, "..."+cells[i+1].Str)
			i++
		case cell.HeadSymbol() == SpreadSymbol && cell.Len() == 2:
			params = append(params, "..."+cell.Cells[1].Str)
		case cell.HeadSymbol() == symDef && cell.Len() == 3:
			params = append(params, cell.Cells[1].Str+" = "+printOperand(cell.Cells[2]))
		default:
			params = append(params, PrintSyntaxTree(cell))
		}
	}
	return "(" + strings.Join(params, ", ") + ") => " + printOperand(body)
}

func printObjSyntax(ast *Val) string {
	if len(ast.Cells) == 1 {
		return "{}"
	}
	pairs := make([]string, 0, len(ast.Cells)-1)
	for _, pair := range ast.Cells[1:] {
		if pair.HeadSymbol() == SpreadSymbol && pair.Len() == 2 {
			pairs = append(pairs, "..."+printOperand(pair.Cells[1]))
			continue
		}
		if pair.Kind != KList || len(pair.Cells) != 2 {
			pairs = append(pairs, PrintSyntaxTree(pair))
			continue
		}
		k, v := pair.Cells[0], pair.Cells[1]
		pairs = append(pairs, printObjKey(k)+": "+printOperand(v))
	}
	return "{ " + strings.Join(pairs, ", ") + " }"
}

func printObjKey(k *Val) string {
	if k.HeadSymbol() == QuoteSymbol && k.Len() == 2 {
		payload := k.Cells[1]
		if payload.Kind == KString || payload.Kind == KSymbol {
			return printKey(payload.Str)
		}
	}
	if k.Kind == KNumber {
		return formatNumber(k.Num)
	}
	return "(" + PrintSyntaxTree(k) + ")"
}

func printGetSyntax(ast *Val) string {
	var buf bytes.Buffer
	buf.WriteString(printOperand(ast.Cells[1]))
	for _, member := range ast.Cells[2:] {
		if member.HeadSymbol() == QuoteSymbol && member.Len() == 2 {
			payload := member.Cells[1]
			if (payload.Kind == KSymbol || payload.Kind == KString) && identPattern.MatchString(payload.Str) {
				buf.WriteString("." + payload.Str)
				continue
			}
		}
		buf.WriteString(".(" + PrintSyntaxTree(member) + ")")
	}
	return buf.String()
}

func printCallSyntax(ast *Val) string {
	args := make([]string, len(ast.Cells)-1)
	for i, cell := range ast.Cells[1:] {
		args[i] = PrintSyntaxTree(cell)
	}
	head := ast.Cells[0]
	callee := PrintSyntaxTree(head)
	if head.Kind == KList {
		callee = "(" + callee + ")"
	}
	return callee + "(" + strings.Join(args, ", ") + ")"
}

// printOperand parenthesizes compound subexpressions so the rendered source
// reparses with the same shape regardless of the surrounding precedence.
func printOperand(ast *Val) string {
	s := PrintSyntaxTree(ast)
	if ast == nil || ast.Kind != KList {
		return s
	}
	head := ast.HeadSymbol()
	if head == symList || head == symObj || head == symGet {
		return s
	}
	if head == QuoteSymbol && ast.Len() == 2 {
		return s
	}
	if strings.HasSuffix(s, ")") && !strings.HasPrefix(s, "(") && !strings.ContainsAny(s, " ") {
		// Call syntax binds tightly already.
		return s
	}
	return "(" + s + ")"
}

func printFun(v *Val) string {
	fd := v.Fun
	if fd == nil {
		return "#<function>"
	}
	if fd.Builtin != nil {
		if fd.Name != "" {
			return fmt.Sprintf("#<builtin %s>", fd.Name)
		}
		return "#<builtin>"
	}
	return printLambda(fd.Args, fd.Body)
}

func printKey(k string) string {
	if identPattern.MatchString(k) {
		return k
	}
	return quoteString(k)
}

func formatNumber(f float64) string {
	if math.IsNaN(f) {
		return "nan"
	}
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func quoteString(s string) string {
	var buf bytes.Buffer
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\t':
			buf.WriteString(`\t`)
		case '\r':
			buf.WriteString(`\r`)
		default:
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
	return buf.String()
}
