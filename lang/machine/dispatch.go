package machine

import (
	"fmt"

	"github.com/mna/dbi/lang/compiler"
	"github.com/mna/dbi/lang/program"
	"github.com/mna/dbi/lang/types"
)

// dispatch runs the bytecode interpreter starting at (cur, pc), returning
// when execution finishes, yields, or fails. The operand stack and the
// foreign-argument buffer are allocated fresh here and never survive past
// the call that created them (spec §5: "Operand stack contents are not
// preserved").
func (rt *Runtime) dispatch(st *program.Store, callbacks []ForeignFunc, cur *compiler.Statement, pc int) Result {
	stack := make([]types.Value, 0, rt.Limits.MaxOperandStack)
	rt.ffiArgs = rt.ffiArgs[:0]

	push := func(v types.Value) *RuntimeError {
		if len(stack) >= rt.Limits.MaxOperandStack {
			return rt.failAt(cur.Line, "operand stack overflow")
		}
		stack = append(stack, v)
		return nil
	}
	pop := func() (types.Value, *RuntimeError) {
		if len(stack) == 0 {
			return nil, rt.failAt(cur.Line, "operand stack underflow")
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, nil
	}
	popInt := func(what string) (int64, *RuntimeError) {
		v, err := pop()
		if err != nil {
			return 0, err
		}
		iv, ok := rt.resolve(v).(types.Int)
		if !ok {
			return 0, rt.failAt(cur.Line, "%s must be an integer", what)
		}
		return int64(iv), nil
	}

	for {
		if rt.ctx != nil {
			select {
			case <-rt.ctx.Done():
				return Result{Status: Failed, Err: rt.failAt(cur.Line, "execution cancelled")}
			default:
			}
		}

		if pc >= len(cur.Code) {
			if cur.Line == 0 {
				return Result{Status: Finished}
			}
			next, ok := st.FindNext(cur.Line + 1)
			if !ok {
				return Result{Status: Finished}
			}
			cur, pc = next, 0
			continue
		}

		rt.steps++
		if rt.steps > uint64(rt.Limits.MaxSteps) {
			return Result{Status: Failed, Err: rt.failAt(cur.Line, "too many iterations (possible infinite loop)")}
		}

		rt.curLine = cur.Line
		op := compiler.Opcode(cur.Code[pc])
		pc++

		switch op {
		case compiler.NO:
			// no effect

		case compiler.PUSH:
			idx := cur.Code[pc]
			pc++
			if err := push(cur.Pool[idx]); err != nil {
				return Result{Status: Failed, Err: err}
			}

		case compiler.PRINT, compiler.PRINTLN:
			v, err := pop()
			if err != nil {
				return Result{Status: Failed, Err: err}
			}
			fmt.Fprint(rt.stdout(), rt.resolve(v).String())
			if op == compiler.PRINTLN {
				fmt.Fprintln(rt.stdout())
			}

		case compiler.LET:
			vb := cur.Code[pc]
			pc++
			v, err := pop()
			if err != nil {
				return Result{Status: Failed, Err: err}
			}
			rt.vars[vb] = rt.resolve(v)

		case compiler.JMP:
			target, err := popInt("GOTO target")
			if err != nil {
				return Result{Status: Failed, Err: err}
			}
			next, ok := st.Get(int(target))
			if !ok {
				return Result{Status: Failed, Err: rt.failAt(cur.Line, "undefined line %d", target)}
			}
			cur, pc = next, 0

		case compiler.JNZ:
			target, err := popInt("jump offset")
			if err != nil {
				return Result{Status: Failed, Err: err}
			}
			cmp, err := popInt("comparison result")
			if err != nil {
				return Result{Status: Failed, Err: err}
			}
			if cmp == 0 {
				pc = int(target)
			}

		case compiler.CALL:
			retLine, err := popInt("GOSUB return line")
			if err != nil {
				return Result{Status: Failed, Err: err}
			}
			if len(rt.callStack) >= rt.Limits.MaxCallStack {
				return Result{Status: Failed, Err: rt.failAt(cur.Line, "call stack overflow")}
			}
			rt.callStack = append(rt.callStack, int(retLine))

		case compiler.RETURN:
			if len(rt.callStack) == 0 {
				return Result{Status: Finished}
			}
			retLine := rt.callStack[len(rt.callStack)-1]
			rt.callStack = rt.callStack[:len(rt.callStack)-1]
			next, ok := st.FindNext(retLine)
			if !ok {
				return Result{Status: Finished}
			}
			cur, pc = next, 0

		case compiler.INPUT:
			n := int(cur.Code[pc])
			pc++
			vars := make([]types.VarRef, n)
			for i := 0; i < n; i++ {
				vars[i] = types.VarRef(cur.Code[pc])
				pc++
			}
			line, rerr := rt.readLine()
			if rerr != nil {
				return Result{Status: Failed, Err: rt.failAt(cur.Line, "input error: %v", rerr)}
			}
			inputStmt, cerr := rt.comp.CompileInputStatement(cur.Line, vars, line)
			if cerr != nil {
				return Result{Status: Failed, Err: rt.failAt(cur.Line, "input: %v", cerr)}
			}
			if err := rt.execInline(inputStmt); err != nil {
				return Result{Status: Failed, Err: err}
			}

		case compiler.CLEAR:
			wasStored := cur.Line != 0
			st.Clear()
			if wasStored {
				// The statement executing CLEAR has just erased its own storage;
				// the dispatch loop cannot fall through to a "next line" that no
				// longer exists, so execution ends here (spec §9, open question a).
				return Result{Status: Finished}
			}

		case compiler.LIST:
			rt.listProgram(st)

		case compiler.RUN:
			first, ok := st.First()
			if !ok {
				return Result{Status: Finished}
			}
			cur, pc = first, 0

		case compiler.END:
			return Result{Status: Finished}

		case compiler.LOAD:
			v, err := pop()
			if err != nil {
				return Result{Status: Failed, Err: err}
			}
			sv, ok := rt.resolve(v).(types.String)
			if !ok {
				return Result{Status: Failed, Err: rt.failAt(cur.Line, "LOAD expects a string filename")}
			}
			rt.armResume(st, cur.Line)
			return Result{Status: Yielded, Reason: ReasonLoad, Filename: string(sv)}

		case compiler.SAVE:
			v, err := pop()
			if err != nil {
				return Result{Status: Failed, Err: err}
			}
			sv, ok := rt.resolve(v).(types.String)
			if !ok {
				return Result{Status: Failed, Err: rt.failAt(cur.Line, "SAVE expects a string filename")}
			}
			if serr := saveProgram(st, string(sv)); serr != nil {
				return Result{Status: Failed, Err: rt.failAt(cur.Line, "SAVE: %v", serr)}
			}

		case compiler.ADD, compiler.SUB, compiler.MUL, compiler.DIV:
			y, err := popInt("right operand")
			if err != nil {
				return Result{Status: Failed, Err: err}
			}
			x, err := popInt("left operand")
			if err != nil {
				return Result{Status: Failed, Err: err}
			}
			var res int64
			switch op {
			case compiler.ADD:
				res = x + y
			case compiler.SUB:
				res = x - y
			case compiler.MUL:
				res = x * y
			case compiler.DIV:
				if y == 0 {
					return Result{Status: Failed, Err: rt.failAt(cur.Line, "division by zero")}
				}
				res = x / y
			}
			if err := push(types.Int(res)); err != nil {
				return Result{Status: Failed, Err: err}
			}

		case compiler.LT, compiler.GT, compiler.EQ, compiler.NEQ, compiler.LEQ, compiler.GEQ:
			y, err := popInt("right operand")
			if err != nil {
				return Result{Status: Failed, Err: err}
			}
			x, err := popInt("left operand")
			if err != nil {
				return Result{Status: Failed, Err: err}
			}
			var res bool
			switch op {
			case compiler.LT:
				res = x < y
			case compiler.GT:
				res = x > y
			case compiler.EQ:
				res = x == y
			case compiler.NEQ:
				res = x != y
			case compiler.LEQ:
				res = x <= y
			case compiler.GEQ:
				res = x >= y
			}
			if err := push(boolInt(res)); err != nil {
				return Result{Status: Failed, Err: err}
			}

		case compiler.FFI_ARG:
			v, err := pop()
			if err != nil {
				return Result{Status: Failed, Err: err}
			}
			if len(rt.ffiArgs) >= rt.Limits.MaxFFIArgs {
				return Result{Status: Failed, Err: rt.failAt(cur.Line, "too many foreign arguments")}
			}
			rt.ffiArgs = append(rt.ffiArgs, v)

		case compiler.FFI_CALL:
			idx, err := popInt("foreign command index")
			if err != nil {
				return Result{Status: Failed, Err: err}
			}
			if idx < 0 || int(idx) >= len(callbacks) {
				return Result{Status: Failed, Err: rt.failAt(cur.Line, "no such foreign command (index %d)", idx)}
			}
			status := callbacks[idx](rt)
			rt.ffiArgs = rt.ffiArgs[:0]
			switch status {
			case StatusError:
				return Result{Status: Failed, Err: rt.failAt(cur.Line, "foreign command failed")}
			case StatusYield:
				rt.armResume(st, cur.Line)
				return Result{Status: Yielded, Reason: ReasonForeign}
			case StatusGood:
				// continue
			}

		default:
			return Result{Status: Failed, Err: rt.failAt(cur.Line, "illegal opcode %s", op)}
		}
	}
}

// armResume records that execution should continue, on the next call to
// Run, at the stored line immediately after line (spec §5: a yield "advances
// the line cursor past the yielding statement" — resumption always happens
// at the next statement boundary, discarding any remaining `:`-chained
// commands on the yielding line).
func (rt *Runtime) armResume(st *program.Store, line int) {
	if line == 0 {
		// An immediate statement that yields has nothing stored to resume into.
		rt.resumeStmt = nil
		return
	}
	next, ok := st.FindNext(line + 1)
	if !ok {
		// Nothing is stored after the yielding line: resume into an empty
		// transient statement, so the next Run finishes at once.
		rt.resumeStmt = &compiler.Statement{}
		return
	}
	rt.resumeStmt = next
}

// execInline runs a transient statement (spec §4.5, INPUT's on-the-fly
// compile-and-execute) to completion within the current dispatch, rather
// than yielding back through Run. It cannot itself GOTO, GOSUB, LOAD, RUN or
// call a foreign command: CompileInputStatement only ever emits expression
// bytecode followed by LET.
func (rt *Runtime) execInline(stmt *compiler.Statement) *RuntimeError {
	stack := make([]types.Value, 0, rt.Limits.MaxOperandStack)
	pc := 0
	for pc < len(stmt.Code) {
		op := compiler.Opcode(stmt.Code[pc])
		pc++
		switch op {
		case compiler.PUSH:
			idx := stmt.Code[pc]
			pc++
			stack = append(stack, stmt.Pool[idx])
		case compiler.LET:
			vb := stmt.Code[pc]
			pc++
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			rt.vars[vb] = rt.resolve(v)
		case compiler.ADD, compiler.SUB, compiler.MUL, compiler.DIV:
			y, ok1 := rt.resolve(stack[len(stack)-1]).(types.Int)
			x, ok2 := rt.resolve(stack[len(stack)-2]).(types.Int)
			stack = stack[:len(stack)-2]
			if !ok1 || !ok2 {
				return rt.failAt(stmt.Line, "arithmetic on non-integer input")
			}
			var res int64
			switch op {
			case compiler.ADD:
				res = int64(x) + int64(y)
			case compiler.SUB:
				res = int64(x) - int64(y)
			case compiler.MUL:
				res = int64(x) * int64(y)
			case compiler.DIV:
				if y == 0 {
					return rt.failAt(stmt.Line, "division by zero")
				}
				res = int64(x) / int64(y)
			}
			stack = append(stack, types.Int(res))
		default:
			return rt.failAt(stmt.Line, "illegal opcode %s in compiled input", op)
		}
	}
	return nil
}

func boolInt(b bool) types.Int {
	if b {
		return types.Int(1)
	}
	return types.Int(0)
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
