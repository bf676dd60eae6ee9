package compiler

import (
	"github.com/mna/dbi/lang/token"
	"github.com/mna/dbi/lang/types"
)

// compileStatement compiles exactly one `:`-delimited statement into stmt,
// dispatching on the current token (spec §4.3). It returns terminal = true
// for RUN, INPUT and LOAD (which must be the last statement on their line)
// and for REM (whose comment consumes the remainder of the line).
func (p *parser) compileStatement(stmt *Statement) (terminal bool, err error) {
	switch p.tok {
	case token.LET:
		p.lastCommand = "LET"
		return false, p.compileLet(stmt)

	case token.PRINT:
		p.lastCommand = "PRINT"
		return false, p.compilePrint(stmt)

	case token.IF:
		p.lastCommand = "IF"
		return false, p.compileIf(stmt)

	case token.GOTO:
		p.lastCommand = "GOTO"
		p.next()
		if err := p.compileExpr(stmt); err != nil {
			return false, err
		}
		if _, ok := stmt.Emit(JMP); !ok {
			return false, p.errorf("bytecode buffer full")
		}
		return false, nil

	case token.GOSUB:
		p.lastCommand = "GOSUB"
		return false, p.compileGosub(stmt)

	case token.RETURN:
		p.lastCommand = "RETURN"
		p.next()
		if _, ok := stmt.Emit(RETURN); !ok {
			return false, p.errorf("bytecode buffer full")
		}
		return false, nil

	case token.INPUT:
		p.lastCommand = "INPUT"
		if err := p.compileInput(stmt); err != nil {
			return false, err
		}
		return true, nil

	case token.END:
		p.lastCommand = "END"
		p.next()
		if _, ok := stmt.Emit(END); !ok {
			return false, p.errorf("bytecode buffer full")
		}
		return false, nil

	case token.REM:
		p.lastCommand = "REM"
		if _, ok := stmt.Emit(NO); !ok {
			return false, p.errorf("bytecode buffer full")
		}
		p.tok = token.EOF // rest of line ignored, regardless of content
		return true, nil

	case token.LIST:
		p.lastCommand = "LIST"
		p.next()
		if _, ok := stmt.Emit(LIST); !ok {
			return false, p.errorf("bytecode buffer full")
		}
		return false, nil

	case token.CLEAR:
		p.lastCommand = "CLEAR"
		p.next()
		if _, ok := stmt.Emit(CLEAR); !ok {
			return false, p.errorf("bytecode buffer full")
		}
		return false, nil

	case token.RUN:
		p.lastCommand = "RUN"
		p.next()
		if _, ok := stmt.Emit(RUN); !ok {
			return false, p.errorf("bytecode buffer full")
		}
		return true, nil

	case token.LOAD:
		p.lastCommand = "LOAD"
		p.next()
		if err := p.compileExpr(stmt); err != nil {
			return false, err
		}
		if _, ok := stmt.Emit(LOAD); !ok {
			return false, p.errorf("bytecode buffer full")
		}
		return true, nil

	case token.SAVE:
		p.lastCommand = "SAVE"
		p.next()
		if err := p.compileExpr(stmt); err != nil {
			return false, err
		}
		if _, ok := stmt.Emit(SAVE); !ok {
			return false, p.errorf("bytecode buffer full")
		}
		return false, nil

	case token.IDENT:
		return false, p.compileIdentStatement(stmt)

	default:
		return false, p.errorf("expected a command, got %s", p.tok)
	}
}

func (p *parser) compileLet(stmt *Statement) error {
	p.next() // consume LET
	if p.tok != token.IDENT || len(p.val.Name) != 1 {
		return p.errorf("expected a single-letter variable after LET")
	}
	v := types.VarRefFromLetter(p.val.Name[0])
	p.next()
	if p.tok != token.EQ {
		return p.errorf("expected '=' in LET statement")
	}
	p.next()
	if err := p.compileExpr(stmt); err != nil {
		return err
	}
	if _, ok := stmt.Emit(LET, byte(v)); !ok {
		return p.errorf("bytecode buffer full")
	}
	return nil
}

func (p *parser) compilePrint(stmt *Statement) error {
	p.next() // consume PRINT
	for {
		if err := p.compileExpr(stmt); err != nil {
			return err
		}
		if p.tok != token.COMMA {
			break
		}
		if _, ok := stmt.Emit(PRINT); !ok {
			return p.errorf("bytecode buffer full")
		}
		p.next()
	}
	if _, ok := stmt.Emit(PRINTLN); !ok {
		return p.errorf("bytecode buffer full")
	}
	return nil
}

// cmpOpcode maps a relational token to its comparison opcode.
func cmpOpcode(tok token.Token) (Opcode, bool) {
	switch tok {
	case token.LT:
		return LT, true
	case token.GT:
		return GT, true
	case token.EQ:
		return EQ, true
	case token.NEQ:
		return NEQ, true
	case token.LE:
		return LEQ, true
	case token.GE:
		return GEQ, true
	default:
		return 0, false
	}
}

func (p *parser) compileIf(stmt *Statement) error {
	p.next() // consume IF
	if err := p.compileExpr(stmt); err != nil {
		return err
	}
	op, ok := cmpOpcode(p.tok)
	if !ok {
		return p.errorf("expected a relational operator in IF statement, got %s", p.tok)
	}
	p.next()
	if err := p.compileExpr(stmt); err != nil {
		return err
	}
	if _, ok := stmt.Emit(op); !ok {
		return p.errorf("bytecode buffer full")
	}
	if p.tok != token.THEN {
		return p.errorf("expected THEN in IF statement")
	}
	p.next()

	// Reserve a pool slot for the forward jump target, to be patched once the
	// then-branch has been compiled (spec §9).
	idx, ok := stmt.AddConstant(types.Int(0))
	if !ok {
		return p.errorf("constant pool full")
	}
	if _, ok := stmt.Emit(PUSH, idx); !ok {
		return p.errorf("bytecode buffer full")
	}
	if _, ok := stmt.Emit(JNZ); !ok {
		return p.errorf("bytecode buffer full")
	}

	if _, err := p.compileStatement(stmt); err != nil {
		return err
	}

	target := len(stmt.Code)
	stmt.Pool[idx] = types.Int(int64(target))
	if _, ok := stmt.Emit(NO); !ok {
		return p.errorf("bytecode buffer full")
	}
	return nil
}

func (p *parser) compileGosub(stmt *Statement) error {
	p.next() // consume GOSUB
	returnLine := p.lineNo + 1
	idx, ok := stmt.AddConstant(types.Int(int64(returnLine)))
	if !ok {
		return p.errorf("constant pool full")
	}
	if _, ok := stmt.Emit(PUSH, idx); !ok {
		return p.errorf("bytecode buffer full")
	}
	if _, ok := stmt.Emit(CALL); !ok {
		return p.errorf("bytecode buffer full")
	}
	if err := p.compileExpr(stmt); err != nil {
		return err
	}
	if _, ok := stmt.Emit(JMP); !ok {
		return p.errorf("bytecode buffer full")
	}
	return nil
}

func (p *parser) compileInput(stmt *Statement) error {
	p.next() // consume INPUT
	var vars []types.VarRef
	seen := map[types.VarRef]bool{}
	for {
		if p.tok != token.IDENT || len(p.val.Name) != 1 {
			return p.errorf("expected a single-letter variable in INPUT statement")
		}
		v := types.VarRefFromLetter(p.val.Name[0])
		if seen[v] {
			return p.errorf("duplicate variable %s in INPUT statement", v)
		}
		seen[v] = true
		vars = append(vars, v)
		p.next()
		if p.tok != token.COMMA {
			break
		}
		p.next()
	}
	if len(vars) > 0xff {
		return p.errorf("too many variables in INPUT statement")
	}
	operands := make([]byte, 1+len(vars))
	operands[0] = byte(len(vars))
	for i, v := range vars {
		operands[i+1] = byte(v)
	}
	if _, ok := stmt.Emit(INPUT, operands...); !ok {
		return p.errorf("bytecode buffer full")
	}
	return nil
}

// compileIdentStatement handles a statement whose first token is a
// multi-letter identifier: the name of a host-registered foreign command
// (spec §4.7). A single-letter identifier at statement-start is not a valid
// command in this dialect (there is no implicit LET).
func (p *parser) compileIdentStatement(stmt *Statement) error {
	name := p.val.Name
	if len(name) == 1 {
		return p.errorf("expected a command, got variable %s", name)
	}
	cmd, idx, ok := p.c.Registry.Lookup(name)
	if !ok {
		return p.errorf("unknown command: %s", name)
	}
	p.lastCommand = name
	p.next()

	argc := 0
	if p.tok != token.EOF && p.tok != token.COLON {
		for {
			if err := p.compileExpr(stmt); err != nil {
				return err
			}
			if _, ok := stmt.Emit(FFI_ARG); !ok {
				return p.errorf("bytecode buffer full")
			}
			argc++
			if p.tok != token.COMMA {
				break
			}
			p.next()
		}
	}
	if cmd.Arity >= 0 && argc != cmd.Arity {
		return p.errorf("%s expects %d argument(s), got %d", name, cmd.Arity, argc)
	}
	if cmd.Arity == -1 && argc == 0 {
		return p.errorf("%s expects at least one argument", name)
	}
	if cmd.Arity == 0 && argc != 0 {
		return p.errorf("%s takes no arguments", name)
	}

	tblIdx, ok := stmt.AddConstant(types.Int(int64(idx)))
	if !ok {
		return p.errorf("constant pool full")
	}
	if _, ok := stmt.Emit(PUSH, tblIdx); !ok {
		return p.errorf("bytecode buffer full")
	}
	if _, ok := stmt.Emit(FFI_CALL); !ok {
		return p.errorf("bytecode buffer full")
	}
	return nil
}
