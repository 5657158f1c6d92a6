// Package capi implements the compile_expression / evaluate_expression /
// free_executable C-ABI boundary exported by cmd/libjit. It keeps
// compiled programs behind an opaque uintptr handle rather than
// passing a Go pointer across the cgo boundary directly.
package capi

import (
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"

	"rpnjit/jit"
)

var (
	handles   sync.Map // uintptr -> *jit.Program
	nextToken uint64
)

// fillBuffer zero-fills buf and copies as much of s into it as fits,
// matching the C-side contract of a fixed-size output buffer that
// callers must pre-allocate.
func fillBuffer(buf []byte, s string) {
	for i := range buf {
		buf[i] = 0
	}
	copy(buf, s)
}

// CompileExpression compiles source and returns an opaque handle plus
// the hex-encoded integrity digest, or an error describing the failure.
// integrityBuf is zeroed and filled like the C-side buffer it mirrors.
func CompileExpression(source string, integrityBuf []byte) (uintptr, error) {
	prog, err := jit.Compile(source)
	if err != nil {
		return 0, fmt.Errorf("failed to compile the expression: %w", err)
	}

	digest := prog.Integrity()
	fillBuffer(integrityBuf, hex.EncodeToString(digest[:]))

	token := uintptr(atomic.AddUint64(&nextToken, 1))
	handles.Store(token, prog)
	return token, nil
}

// EvaluateExpression runs the program referenced by handle with the
// given variable bindings.
func EvaluateExpression(handle uintptr, variables map[string]int64) (int64, error) {
	v, ok := handles.Load(handle)
	if !ok {
		return 0, fmt.Errorf("invalid executable handle")
	}
	prog := v.(*jit.Program)

	result, err := prog.Run(variables)
	if err != nil {
		return 0, fmt.Errorf("failed to evaluate the expression: %w", err)
	}
	return result, nil
}

// FreeExecutable releases the program referenced by handle and removes
// it from the handle table. A zero or unknown handle is a no-op.
func FreeExecutable(handle uintptr) {
	if handle == 0 {
		return
	}
	v, ok := handles.LoadAndDelete(handle)
	if !ok {
		return
	}
	prog := v.(*jit.Program)
	prog.Close()
}
