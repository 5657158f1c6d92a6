// Package sigfpe is an opt-in collaborator that recovers from the
// SIGFPE a hardware integer division by zero raises inside JIT-compiled
// code, instead of letting it crash the process. It is never imported
// by jit, executable, or the CLI; callers that want the recovery
// behavior must call Install explicitly.
package sigfpe

/*
#define _GNU_SOURCE
#include <signal.h>
#include <ucontext.h>
#include <stdio.h>
#include <string.h>

static void rpnjit_sigfpe_handler(int sig, siginfo_t *info, void *ucontext_raw) {
	ucontext_t *uc = (ucontext_t *)ucontext_raw;

	fprintf(stderr, "rpnjit: caught SIGFPE (division by zero) at %p, code %d\n",
		info->si_addr, info->si_code);

#if defined(__x86_64__) && defined(__linux__)
	// The only divide this handler is ever installed alongside emits a
	// 64-bit-operand idiv, which REX.W F7 /7 always encodes in exactly
	// 3 bytes; skip over it and zero the quotient/remainder registers.
	uc->uc_mcontext.gregs[REG_RIP] += 3;
	uc->uc_mcontext.gregs[REG_RAX] = 0;
	uc->uc_mcontext.gregs[REG_RDX] = 0;
#endif
}

static void rpnjit_install_sigfpe_handler(void) {
	struct sigaction sa;
	memset(&sa, 0, sizeof(sa));
	sa.sa_flags = SA_SIGINFO | SA_NODEFER;
	sa.sa_sigaction = rpnjit_sigfpe_handler;
	sigaction(SIGFPE, &sa, NULL);
}
*/
import "C"

import "sync"

var installOnce sync.Once

// Install registers the SIGFPE recovery handler process-wide. Safe to
// call more than once; only the first call takes effect. Once
// installed, a hardware division-by-zero fault inside JIT-compiled
// code resumes past the faulting idiv with 0 left in RAX/RDX instead
// of terminating the process. The fixed 3-byte skip relies on asm's
// Idiv always encoding a register operand in exactly 3 bytes.
func Install() {
	installOnce.Do(func() {
		C.rpnjit_install_sigfpe_handler()
	})
}
