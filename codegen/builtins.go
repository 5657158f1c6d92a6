package codegen

/*
#include <stdint.h>

static int64_t rpnjit_pow_helper(int64_t base, int64_t exp) {
	uint32_t e = (uint32_t)exp;
	uint64_t b = (uint64_t)base;
	uint64_t result = 1;
	while (e > 0) {
		if (e & 1) {
			result *= b;
		}
		b *= b;
		e >>= 1;
	}
	return (int64_t)result;
}

static int64_t rpnjit_factorial_helper(int64_t n) {
	uint64_t result = 1;
	for (int64_t i = 1; i <= n; i++) {
		result *= (uint64_t)i;
	}
	return (int64_t)result;
}

void *rpnjit_pow_helper_addr = (void *)rpnjit_pow_helper;
void *rpnjit_factorial_helper_addr = (void *)rpnjit_factorial_helper;
*/
import "C"

// Helper functions invoked from generated code via a native call
// sequence. Both wrap on overflow rather than panicking, per the
// uniform wrapping-arithmetic policy (see DESIGN.md open question 1).
//
// These are C functions, not Go functions: generated code calls them
// directly under the System V AMD64 integer calling convention (args
// in RDI/RSI, result in RAX), which plain Go functions on amd64 do not
// implement (Go uses its own ABIInternal register assignment) and
// cannot safely serve anyway, since EVAL_STACK lives in R14, the same
// register the Go runtime reserves for the current goroutine pointer
// g. Compiling the callees with the platform C compiler via cgo gives
// generated code a genuine C-ABI target, matching what the original's
// extern "C" helpers provided.

// powHelperAddr returns the address of the C pow helper.
func powHelperAddr() uintptr {
	return uintptr(C.rpnjit_pow_helper_addr)
}

// factorialHelperAddr returns the address of the C factorial helper.
func factorialHelperAddr() uintptr {
	return uintptr(C.rpnjit_factorial_helper_addr)
}
