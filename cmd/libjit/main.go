// Command libjit builds a c-shared library exposing compile_expression,
// evaluate_expression, and free_executable, mirroring the FFI surface
// of the Rust JIT this project was distilled from.
package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"unsafe"

	"rpnjit/capi"
)

//export compile_expression
func compile_expression(input *C.char, codeIntegrity *C.char, codeIntegrityMaxLen C.size_t, errorMsg *C.char, errorMsgMaxLen C.size_t) unsafe.Pointer {
	if input == nil {
		fillErrorBuffer(errorMsg, errorMsgMaxLen, "Invalid input string pointer!")
		return nil
	}
	source := C.GoString(input)

	integrityBuf := make([]byte, int(codeIntegrityMaxLen))
	handle, err := capi.CompileExpression(source, integrityBuf)
	if err != nil {
		fillErrorBuffer(errorMsg, errorMsgMaxLen, err.Error())
		return nil
	}

	copyToCBuffer(codeIntegrity, codeIntegrityMaxLen, integrityBuf)
	return unsafe.Pointer(handle) // opaque token, never dereferenced on the Go side
}

//export evaluate_expression
func evaluate_expression(exe unsafe.Pointer, keysPtr **C.char, valuesPtr *C.longlong, variablesLen C.size_t, errorMsg *C.char, errorMsgMaxLen C.size_t) C.longlong {
	if exe == nil {
		fillErrorBuffer(errorMsg, errorMsgMaxLen, "Invalid executable pointer!")
		return 0
	}
	if keysPtr == nil {
		fillErrorBuffer(errorMsg, errorMsgMaxLen, "Invalid variables pointer!")
		return 0
	}

	n := int(variablesLen)
	keys := unsafe.Slice(keysPtr, n)
	values := unsafe.Slice(valuesPtr, n)

	variables := make(map[string]int64, n)
	for i := 0; i < n; i++ {
		variables[C.GoString(keys[i])] = int64(values[i])
	}

	result, err := capi.EvaluateExpression(uintptr(exe), variables)
	if err != nil {
		fillErrorBuffer(errorMsg, errorMsgMaxLen, err.Error())
		return 0
	}
	return C.longlong(result)
}

//export free_executable
func free_executable(exe unsafe.Pointer) {
	if exe == nil {
		return
	}
	capi.FreeExecutable(uintptr(exe))
}

func fillErrorBuffer(buf *C.char, bufLen C.size_t, msg string) {
	if buf == nil {
		return
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(buf)), int(bufLen))
	for i := range dst {
		dst[i] = 0
	}
	if len(dst) > 0 {
		copy(dst[:len(dst)-1], msg) // last byte stays the NUL terminator
	}
}

func copyToCBuffer(buf *C.char, bufLen C.size_t, src []byte) {
	dst := unsafe.Slice((*byte)(unsafe.Pointer(buf)), int(bufLen))
	for i := range dst {
		dst[i] = 0
	}
	copy(dst, src)
}

func main() {}
