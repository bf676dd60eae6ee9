package compiler

import (
	"github.com/mna/dbi/lang/token"
	"github.com/mna/dbi/lang/types"
)

// compileExpr compiles one arithmetic expression using the Shunting-Yard
// algorithm described in spec §4.2, toggling between operand mode (read
// leading '(' then exactly one factor) and operator mode (read trailing ')'
// then zero-or-one binary operator), emitting bytecode directly rather than
// building an intermediate tree.
func (p *parser) compileExpr(stmt *Statement) error {
	var opStack []token.Token // token.LPAREN marks an open group; others are pending binary ops
	sawOperand := false

	for {
		// --- operand mode: leading '(' then exactly one factor ---
		for p.tok == token.LPAREN {
			if len(opStack) >= p.c.Limits.MaxOperatorStack {
				return p.errorf("expression too deeply nested")
			}
			opStack = append(opStack, token.LPAREN)
			p.next()
		}

		switch {
		case p.tok == token.MINUS:
			p.next()
			if p.tok != token.INT {
				return p.errorf("expected integer literal after unary '-'")
			}
			v := -p.val.Int
			p.next()
			if !p.pushConst(stmt, types.Int(v)) {
				return p.errorf("constant pool full")
			}
		case p.tok == token.INT:
			v := p.val.Int
			p.next()
			if !p.pushConst(stmt, types.Int(v)) {
				return p.errorf("constant pool full")
			}
		case p.tok == token.STRING:
			s := p.val.Str
			p.next()
			if !p.pushConst(stmt, types.String(s)) {
				return p.errorf("constant pool full")
			}
		case p.tok == token.IDENT && len(p.val.Name) == 1:
			v := types.VarRefFromLetter(p.val.Name[0])
			p.next()
			if !p.pushConst(stmt, v) {
				return p.errorf("constant pool full")
			}
		default:
			if sawOperand {
				return p.errorf("expected an operand after operator, got %s", p.tok)
			}
			return p.errorf("expected an operand, got %s", p.tok)
		}
		sawOperand = true

		// --- operator mode: trailing ')' then zero-or-one binary operator ---
		for p.tok == token.RPAREN && containsLParen(opStack) {
			for {
				top := opStack[len(opStack)-1]
				opStack = opStack[:len(opStack)-1]
				if top == token.LPAREN {
					break
				}
				if !emitBinaryOp(stmt, top) {
					return p.errorf("bytecode buffer full")
				}
			}
			p.next()
		}

		if !isArithOp(p.tok) {
			break
		}

		newOp := p.tok
		for len(opStack) > 0 {
			top := opStack[len(opStack)-1]
			if top == token.LPAREN || precedence(top) < precedence(newOp) {
				break
			}
			opStack = opStack[:len(opStack)-1]
			if !emitBinaryOp(stmt, top) {
				return p.errorf("bytecode buffer full")
			}
		}
		if len(opStack) >= p.c.Limits.MaxOperatorStack {
			return p.errorf("expression too deeply nested")
		}
		opStack = append(opStack, newOp)
		p.next()
	}

	for len(opStack) > 0 {
		top := opStack[len(opStack)-1]
		opStack = opStack[:len(opStack)-1]
		if top == token.LPAREN {
			return p.errorf("unbalanced parentheses")
		}
		if !emitBinaryOp(stmt, top) {
			return p.errorf("bytecode buffer full")
		}
	}
	return nil
}

func (p *parser) pushConst(stmt *Statement, v types.Value) bool {
	idx, ok := stmt.AddConstant(v)
	if !ok {
		return false
	}
	_, ok = stmt.Emit(PUSH, idx)
	return ok
}

func containsLParen(stack []token.Token) bool {
	for _, t := range stack {
		if t == token.LPAREN {
			return true
		}
	}
	return false
}

func isArithOp(t token.Token) bool {
	switch t {
	case token.PLUS, token.MINUS, token.STAR, token.SLASH:
		return true
	default:
		return false
	}
}

func precedence(t token.Token) int {
	switch t {
	case token.STAR, token.SLASH:
		return 2
	case token.PLUS, token.MINUS:
		return 1
	default:
		return 0
	}
}

func emitBinaryOp(stmt *Statement, t token.Token) bool {
	var op Opcode
	switch t {
	case token.PLUS:
		op = ADD
	case token.MINUS:
		op = SUB
	case token.STAR:
		op = MUL
	case token.SLASH:
		op = DIV
	default:
		panic("compiler: not a binary operator token")
	}
	_, ok := stmt.Emit(op)
	return ok
}
