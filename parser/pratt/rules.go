// Copyright © 2024 The Expreva authors

package pratt

import (
	"github.com/expreva/expreva/parser/token"
)

// Binding powers.  An infix operator binds to the expression on its left
// when its power exceeds the power of the operator competing for it.
const (
	powerNone        = 0
	powerComma       = 5
	powerAssign      = 10
	powerConditional = 20
	powerLogical     = 30
	powerComparison  = 40
	powerSum         = 50
	powerProduct     = 60
	powerExponent    = 65
	powerPrefix      = 70
	powerCall        = 80
)

// infixPowers maps operator spellings to their left binding power.
var infixPowers = map[string]int{
	",": powerComma,

	"=":  powerAssign,
	"+=": powerAssign,
	"-=": powerAssign,
	"*=": powerAssign,
	"/=": powerAssign,

	"?": powerConditional,

	"||":  powerLogical,
	"&&":  powerLogical,
	"or":  powerLogical,
	"and": powerLogical,

	"==": powerComparison,
	"!=": powerComparison,
	"<":  powerComparison,
	"<=": powerComparison,
	">":  powerComparison,
	">=": powerComparison,
	"in": powerComparison,

	"+": powerSum,
	"-": powerSum,

	"*":  powerProduct,
	"/":  powerProduct,
	"%":  powerProduct,
	"->": powerProduct,

	"^": powerExponent,

	"!": powerPrefix,

	".":  powerCall,
	"=>": powerCall,
	"++": powerCall,
	"--": powerCall,
}

// rightAssoc operators parse their right operand one power below their own
// so that chains nest to the right.
var rightAssoc = map[string]bool{
	"=":  true,
	"+=": true,
	"-=": true,
	"*=": true,
	"/=": true,
	"?":  true,
	"=>": true,
	"^":  true,
}

// reservedWords are matched before the generic identifier rule and never
// resolve as plain symbols in prefix position.
var reservedWords = map[string]bool{
	"if":     true,
	"or":     true,
	"and":    true,
	"not":    true,
	"then":   true,
	"else":   true,
	"true":   true,
	"false":  true,
	"nil":    true,
	"return": true,
	"macro":  true,
	"lambda": true,
}

// lbp returns the left binding power of tok.  Tokens with no infix role
// have power zero and terminate the expression to their left.
func lbp(tok *token.Token) int {
	switch tok.Type {
	case token.OP:
		return infixPowers[tok.Text]
	case token.NAME:
		switch tok.Text {
		case "or", "and", "in":
			return infixPowers[tok.Text]
		}
		return powerNone
	case token.PAREN:
		// A glued open paren applies the preceding expression; one after
		// whitespace starts a new grouping instead.
		if tok.Text == "(" && tok.Glued() {
			return powerCall
		}
		return powerNone
	case token.BRACKET:
		if tok.Text == "[" && tok.Glued() {
			return powerCall
		}
		return powerNone
	case token.COMMA:
		return powerComma
	default:
		return powerNone
	}
}

// rbp returns the power a binary operator's right operand parses at.
func rbp(tok *token.Token) int {
	power := lbp(tok)
	if rightAssoc[tok.Text] && power > 0 {
		return power - 1
	}
	return power
}
