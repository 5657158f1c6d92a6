package asm

// Every instruction this assembler emits operates on full 64-bit
// registers, so REX.W is always set; only the B/R extension bits vary
// with which of r8-r15 participate.

func rexByte(w, r, x, b uint8) byte {
	return 0b0100_0000 | (w << 3) | (r << 2) | (x << 1) | b
}

// emitREXSlash emits a REX prefix for an instruction with a single
// register operand, encoded either in ModRM.rm with an opcode extension
// in the reg field (a "/digit" form, e.g. neg, mul, idiv, call, and the
// add/sub/mov immediate forms) or in the opcode's low three bits (push,
// pop, and mov r64, imm64).
func (w *Writer) emitREXSlash(reg Reg) {
	w.Emit8(rexByte(1, 0, 0, reg.extBit()))
}

// emitREXMR emits a REX prefix for a reg-field-is-source instruction
// (ModRM.reg = src, ModRM.rm = dst), e.g. `add dst, src`.
func (w *Writer) emitREXMR(dst, src Reg) {
	w.Emit8(rexByte(1, src.extBit(), 0, dst.extBit()))
}

// emitREXRM emits a REX prefix for a reg-field-is-destination
// instruction (ModRM.reg = dst, ModRM.rm = src), e.g. `mov dst, [src]`.
func (w *Writer) emitREXRM(dst, src Reg) {
	w.Emit8(rexByte(1, dst.extBit(), 0, src.extBit()))
}

func (w *Writer) emitModRMReg(regField, rm uint8) {
	w.Emit8((modReg << 6) | (regField << 3) | rm)
}

func (w *Writer) emitModRMMemDisp(regField uint8, mem MemDisp) {
	w.Emit8((modMemDisp4 << 6) | (regField << 3) | mem.Base.low3())
	w.Emit32(uint32(mem.Disp))
}

// MovRegReg emits `mov dst, src`.
func (w *Writer) MovRegReg(dst, src Reg) {
	w.emitREXMR(dst, src)
	w.Emit8(0x89)
	w.emitModRMReg(src.low3(), dst.low3())
}

// MovRegImm64 emits `mov dst, imm64` (the 10-byte REX.W + B8+r form).
func (w *Writer) MovRegImm64(dst Reg, imm uint64) int {
	w.emitREXSlash(dst)
	w.Emit8(0xb8 | dst.low3())
	offset := w.Len()
	w.Emit64(imm)
	return offset
}

// MovRegMem emits `mov dst, [src.Base + src.Disp]`.
func (w *Writer) MovRegMem(dst Reg, src MemDisp) {
	w.emitREXRM(dst, src.Base)
	w.Emit8(0x8b)
	w.emitModRMMemDisp(dst.low3(), src)
}

// MovMemReg emits `mov [dst.Base + dst.Disp], src`.
func (w *Writer) MovMemReg(dst MemDisp, src Reg) {
	w.emitREXMR(dst.Base, src)
	w.Emit8(0x89)
	w.emitModRMMemDisp(src.low3(), dst)
}

// MovMemImm32 emits `mov qword [dst.Base + dst.Disp], imm32`
// (sign-extended to 64 bits by the CPU).
func (w *Writer) MovMemImm32(dst MemDisp, imm int32) {
	w.emitREXSlash(dst.Base)
	w.Emit8(0xc7)
	w.emitModRMMemDisp(0, dst)
	w.Emit32(uint32(imm))
}

// AddRegReg emits `add dst, src`.
func (w *Writer) AddRegReg(dst, src Reg) {
	w.emitREXMR(dst, src)
	w.Emit8(0x01)
	w.emitModRMReg(src.low3(), dst.low3())
}

// SubRegReg emits `sub dst, src`.
func (w *Writer) SubRegReg(dst, src Reg) {
	w.emitREXMR(dst, src)
	w.Emit8(0x29)
	w.emitModRMReg(src.low3(), dst.low3())
}

// AddRegImm32 emits `add dst, imm32` (sign-extended to 64 bits).
func (w *Writer) AddRegImm32(dst Reg, imm int32) {
	w.emitREXSlash(dst)
	w.Emit8(0x81)
	w.emitModRMReg(0, dst.low3())
	w.Emit32(uint32(imm))
}

// SubRegImm32 emits `sub dst, imm32` (sign-extended to 64 bits).
func (w *Writer) SubRegImm32(dst Reg, imm int32) {
	w.emitREXSlash(dst)
	w.Emit8(0x81)
	w.emitModRMReg(5, dst.low3())
	w.Emit32(uint32(imm))
}

// Neg emits `neg dst` (two's complement negation, /3 extension).
func (w *Writer) Neg(dst Reg) {
	w.emitREXSlash(dst)
	w.Emit8(0xf7)
	w.emitModRMReg(3, dst.low3())
}

// Mul emits `mul src` (unsigned RDX:RAX <- RAX * src, /4 extension).
func (w *Writer) Mul(src Reg) {
	w.emitREXSlash(src)
	w.Emit8(0xf7)
	w.emitModRMReg(4, src.low3())
}

// Imul emits `imul src` (signed RDX:RAX <- RAX * src, /5 extension).
func (w *Writer) Imul(src Reg) {
	w.emitREXSlash(src)
	w.Emit8(0xf7)
	w.emitModRMReg(5, src.low3())
}

// Div emits `div src` (unsigned RAX,RDX <- RDX:RAX / src, /6 extension).
func (w *Writer) Div(src Reg) {
	w.emitREXSlash(src)
	w.Emit8(0xf7)
	w.emitModRMReg(6, src.low3())
}

// Idiv emits `idiv src` (signed RAX,RDX <- RDX:RAX / src, /7 extension).
// This is always exactly 3 bytes (REX + 0xf7 + ModRM) for a register
// operand, a guarantee the SIGFPE recovery collaborator depends on to
// skip the faulting instruction.
func (w *Writer) Idiv(src Reg) {
	w.emitREXSlash(src)
	w.Emit8(0xf7)
	w.emitModRMReg(7, src.low3())
}

// Cqo emits `cqo` (sign-extend RAX into RDX:RAX, ahead of idiv/div).
func (w *Writer) Cqo() {
	w.Emit8(0x48)
	w.Emit8(0x99)
}

// Call emits `call target` (indirect, through a register, /2 extension).
func (w *Writer) Call(target Reg) {
	w.emitREXSlash(target)
	w.Emit8(0xff)
	w.emitModRMReg(2, target.low3())
}

// Ret emits `ret`.
func (w *Writer) Ret() {
	w.Emit8(0xc3)
}

// Push emits `push src`.
func (w *Writer) Push(src Reg) {
	w.emitREXSlash(src)
	w.Emit8(0x50 | src.low3())
}

// Pop emits `pop dst`.
func (w *Writer) Pop(dst Reg) {
	w.emitREXSlash(dst)
	w.Emit8(0x58 | dst.low3())
}
