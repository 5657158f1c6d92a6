package asm

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Dump renders a rough, non-normative disassembly of generated code for
// diagnostics (the `compile -dump` CLI flag).
// It understands only the instruction shapes this package emits; it is
// a decode loop in the same fetch-decode-advance shape as a bytecode
// interpreter, not a general x86-64 disassembler.
func Dump(code []byte) string {
	var b strings.Builder
	ip := 0
	for ip < len(code) {
		start := ip
		rex := byte(0)
		if code[ip]&0xf0 == 0x40 {
			rex = code[ip]
			ip++
		}
		if ip >= len(code) {
			fmt.Fprintf(&b, "%04x: %x (truncated)\n", start, code[start:])
			break
		}

		extB := rex & 0x01
		extR := (rex >> 2) & 0x01

		op := code[ip]
		ip++

		switch op {
		case 0x89, 0x01, 0x29, 0x8b:
			modrm := code[ip]
			ip++
			mod := modrm >> 6
			regField := (modrm>>3)&0x7 | extR<<3
			rm := modrm&0x7 | extB<<3
			mnemonic := map[byte]string{0x89: "mov", 0x01: "add", 0x29: "sub", 0x8b: "mov"}[op]
			if mod == modReg {
				fmt.Fprintf(&b, "%04x: %s %s, %s\n", start, mnemonic, Reg(rm), Reg(regField))
			} else {
				disp := int32(binary.LittleEndian.Uint32(code[ip : ip+4]))
				ip += 4
				if op == 0x8b {
					fmt.Fprintf(&b, "%04x: %s %s, [%s+%d]\n", start, mnemonic, Reg(regField), Reg(rm), disp)
				} else {
					fmt.Fprintf(&b, "%04x: %s [%s+%d], %s\n", start, mnemonic, Reg(rm), disp, Reg(regField))
				}
			}
		case 0x81:
			modrm := code[ip]
			ip++
			slash := (modrm >> 3) & 0x7
			rm := modrm&0x7 | extB<<3
			imm := int32(binary.LittleEndian.Uint32(code[ip : ip+4]))
			ip += 4
			mnemonic := map[byte]string{0: "add", 5: "sub"}[slash]
			fmt.Fprintf(&b, "%04x: %s %s, %d\n", start, mnemonic, Reg(rm), imm)
		case 0xc7:
			modrm := code[ip]
			ip++
			mod := modrm >> 6
			rm := modrm&0x7 | extB<<3
			var disp int32
			if mod != modReg {
				disp = int32(binary.LittleEndian.Uint32(code[ip : ip+4]))
				ip += 4
			}
			imm := int32(binary.LittleEndian.Uint32(code[ip : ip+4]))
			ip += 4
			fmt.Fprintf(&b, "%04x: mov [%s+%d], %d\n", start, Reg(rm), disp, imm)
		case 0xf7:
			modrm := code[ip]
			ip++
			slash := (modrm >> 3) & 0x7
			rm := modrm&0x7 | extB<<3
			mnemonic := map[byte]string{3: "neg", 4: "mul", 5: "imul", 6: "div", 7: "idiv"}[slash]
			fmt.Fprintf(&b, "%04x: %s %s\n", start, mnemonic, Reg(rm))
		case 0xff:
			modrm := code[ip]
			ip++
			rm := modrm&0x7 | extB<<3
			fmt.Fprintf(&b, "%04x: call %s\n", start, Reg(rm))
		case 0x99:
			fmt.Fprintf(&b, "%04x: cqo\n", start)
		case 0xc3:
			fmt.Fprintf(&b, "%04x: ret\n", start)
		default:
			switch {
			case op >= 0xb8 && op <= 0xbf:
				reg := op&0x7 | extB<<3
				imm := binary.LittleEndian.Uint64(code[ip : ip+8])
				ip += 8
				fmt.Fprintf(&b, "%04x: mov %s, %#x\n", start, Reg(reg), imm)
			case op >= 0x50 && op <= 0x57:
				reg := op&0x7 | extB<<3
				fmt.Fprintf(&b, "%04x: push %s\n", start, Reg(reg))
			case op >= 0x58 && op <= 0x5f:
				reg := op&0x7 | extB<<3
				fmt.Fprintf(&b, "%04x: pop %s\n", start, Reg(reg))
			default:
				fmt.Fprintf(&b, "%04x: .byte %#x\n", start, op)
			}
		}
	}
	return b.String()
}
