// Package codegen lowers a validated postfix token stream into x86-64
// machine code implementing the generated-function ABI, tracking a
// variable catalog and a logic-only integrity digest as it goes.
package codegen

import (
	"crypto/sha256"

	"rpnjit/asm"
	"rpnjit/token"
)

// Register roles inside generated code. Names are conventions, not ABI
// constraints beyond the callee-saved set the prologue/epilogue save.
const (
	argReg1   = asm.R8
	argReg2   = asm.R9
	varsBase  = asm.R13
	evalStack = asm.R14
	scratch   = asm.R15
)

// systemVArgs lists the System V AMD64 integer argument registers in
// order, used by the native-call sub-protocol.
var systemVArgs = [...]asm.Reg{asm.RDI, asm.RSI, asm.RDX, asm.RCX, asm.R8, asm.R9}

// Result is the output of a successful Generate call: a code blob ready
// to be copied into executable memory, the variable catalog assigning
// each distinct name a dense slot index, and the logic-only integrity
// digest.
type Result struct {
	Code      []byte
	Variables map[string]int
	Integrity [32]byte
}

type excludedRange struct{ start, end int }

// generator carries compile-time state across the lowering loop: the
// instruction writer, the variable catalog being built in first-use
// order, and the spans of emitted bytes to exclude from the integrity
// digest (the 8-byte absolute addresses of native-call targets).
type generator struct {
	w         *asm.Writer
	variables map[string]int
	excluded  []excludedRange
}

func (g *generator) slotFor(name string) int {
	if slot, ok := g.variables[name]; ok {
		return slot
	}
	slot := len(g.variables)
	g.variables[name] = slot
	return slot
}

func (g *generator) pushEvalStack(reg asm.Reg) {
	g.w.MovMemReg(asm.MemDisp{Base: evalStack, Disp: 0}, reg)
	g.w.AddRegImm32(evalStack, 8)
}

func (g *generator) popEvalStack(reg asm.Reg) {
	g.w.SubRegImm32(evalStack, 8)
	g.w.MovRegMem(reg, asm.MemDisp{Base: evalStack, Disp: 0})
}

func (g *generator) compilePrologue() {
	g.w.Push(asm.R12)
	g.w.Push(asm.R13)
	g.w.Push(asm.R14)
	g.w.Push(asm.R15)
	g.w.Push(asm.RBX)
	g.w.Push(asm.RBP)
	g.w.Push(asm.RDI)
	g.w.Push(asm.RSI)
	// At entry RSP % 16 == 8 (the call that reached here pushed one
	// return address onto a 16-aligned caller stack). The eight pushes
	// above subtract a multiple of 16, so RSP is still 8 mod 16 here.
	// compileNativeCall needs RSP 16-aligned at its `call`, per System V;
	// this pad brings the body to the required alignment for its whole
	// duration, since nothing else in generated code touches RSP.
	g.w.SubRegImm32(asm.RSP, 8)
}

func (g *generator) compileEpilogue() {
	g.w.AddRegImm32(asm.RSP, 8)
	g.w.Pop(asm.RSI)
	g.w.Pop(asm.RDI)
	g.w.Pop(asm.RBP)
	g.w.Pop(asm.RBX)
	g.w.Pop(asm.R15)
	g.w.Pop(asm.R14)
	g.w.Pop(asm.R13)
	g.w.Pop(asm.R12)
}

// compileNativeCall moves args into the ABI argument registers in
// order, materializes fn's address into RAX, calls it, and pushes the
// RDX:RAX low half (RAX) result onto the eval stack. The 8-byte address
// immediate is recorded as excluded from the integrity digest so the
// digest doesn't shift with ASLR.
func (g *generator) compileNativeCall(fn uintptr, args ...asm.Reg) {
	for i, arg := range args {
		g.w.MovRegReg(systemVArgs[i], arg)
	}
	offset := g.w.MovRegImm64(asm.RAX, uint64(fn))
	g.excluded = append(g.excluded, excludedRange{offset, offset + 8})
	g.w.Call(asm.RAX)
	g.pushEvalStack(asm.RAX)
}

// Generate lowers a validated postfix token stream (no EOF token) into
// a code blob, variable catalog, and integrity digest.
func Generate(postfix []token.Token) (*Result, error) {
	g := &generator{
		w:         asm.NewWriter(),
		variables: map[string]int{},
	}

	g.compilePrologue()
	g.w.MovRegReg(evalStack, asm.RDI)
	g.w.MovRegReg(varsBase, asm.RSI)

	powAddr := powHelperAddr()
	factorialAddr := factorialHelperAddr()

	for _, tok := range postfix {
		switch tok.Kind {
		case token.Number:
			g.w.MovRegImm64(scratch, uint64(tok.IntValue))
			g.pushEvalStack(scratch)

		case token.Variable:
			slot := g.slotFor(tok.Name)
			g.w.MovRegReg(scratch, varsBase)
			g.w.AddRegImm32(scratch, int32(slot*8))
			g.w.MovRegMem(scratch, asm.MemDisp{Base: scratch, Disp: 0})
			g.pushEvalStack(scratch)

		case token.BinaryOp:
			switch tok.Operator {
			case token.Plus:
				g.popEvalStack(argReg1)
				g.popEvalStack(argReg2)
				g.w.AddRegReg(argReg2, argReg1)
				g.pushEvalStack(argReg2)
			case token.Minus:
				g.popEvalStack(argReg1)
				g.popEvalStack(argReg2)
				g.w.SubRegReg(argReg2, argReg1)
				g.pushEvalStack(argReg2)
			case token.Mult:
				g.popEvalStack(argReg1)
				g.popEvalStack(argReg2)
				g.w.MovRegReg(asm.RAX, argReg2)
				g.w.Imul(argReg1)
				g.pushEvalStack(asm.RAX)
			case token.Div:
				g.popEvalStack(argReg1)
				g.popEvalStack(argReg2)
				g.w.MovRegReg(asm.RAX, argReg2)
				g.w.Cqo()
				g.w.Idiv(argReg1)
				g.pushEvalStack(asm.RAX)
			case token.Pow:
				g.popEvalStack(argReg1)
				g.popEvalStack(argReg2)
				g.compileNativeCall(powAddr, argReg2, argReg1)
			default:
				return nil, Error{Kind: UnknownOp, Op: tok.Operator.String()}
			}

		case token.UnaryOp:
			switch tok.Operator {
			case token.Plus:
				// no-op: the value is already on the stack
			case token.Minus:
				g.popEvalStack(argReg1)
				g.w.Neg(argReg1)
				g.pushEvalStack(argReg1)
			case token.Fact:
				g.popEvalStack(argReg1)
				g.compileNativeCall(factorialAddr, argReg1)
			default:
				return nil, Error{Kind: UnknownOp, Op: tok.Operator.String()}
			}
		}
	}

	g.popEvalStack(asm.RAX)
	g.compileEpilogue()
	g.w.Ret()

	code := g.w.Bytes()
	return &Result{
		Code:      code,
		Variables: g.variables,
		Integrity: integrityDigest(code, g.excluded),
	}, nil
}

// integrityDigest hashes code, skipping the byte ranges in excluded
// (the absolute helper-function address immediates), so the digest is
// a pure function of program logic and stable across ASLR.
func integrityDigest(code []byte, excluded []excludedRange) [32]byte {
	h := sha256.New()
	pos := 0
	for _, r := range excluded {
		h.Write(code[pos:r.start])
		pos = r.end
	}
	h.Write(code[pos:])
	var digest [32]byte
	copy(digest[:], h.Sum(nil))
	return digest
}
