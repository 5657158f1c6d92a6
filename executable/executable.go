// Package executable owns the machine code and evaluation-stack memory
// produced by a successful compilation, and provides the runtime
// harness that prepares a per-call variables buffer and invokes the
// generated function across the C calling convention.
package executable

import (
	"fmt"
	"os"
	"unsafe"

	"rpnjit/memregion"
)

// evalStackSize is the size, in bytes, of the evaluation stack every
// Executable allocates. At 8 bytes per slot this bounds maximum live
// stack depth to evalStackSize/8; expressions that exceed it are out
// of scope (see spec's non-goals around evaluation-stack sizing).
const evalStackSize = 16 * 1024

// generatedFunc matches the generated-function ABI: two pointer
// arguments (eval-stack base, variables base), returning an int64,
// using the platform C calling convention.
type generatedFunc func(evalStackBase, varsBase *int64) int64

// asGeneratedFunc reinterprets a raw code address as a callable Go
// function value. Go has no public API for this. A func value is
// itself a pointer to a funcval whose first word holds the entry PC:
// calling f dereferences f once to find that word, then jumps to it.
// So the funcval must point AT a word holding the address, not at the
// address itself — pointing a func variable directly at the code skips
// a level of indirection and jumps into the first eight bytes of the
// generated code instead of executing it. entry is heap-allocated and
// must outlive the returned func value; the caller is responsible for
// keeping it reachable (see Executable.entry).
func asGeneratedFunc(entry *uintptr) generatedFunc {
	var f generatedFunc
	fptr := (*uintptr)(unsafe.Pointer(&f))
	*fptr = uintptr(unsafe.Pointer(entry))
	return f
}

// Executable owns the code region, the evaluation-stack region, the
// variable catalog, and the integrity digest produced by codegen.
// Destroying it releases both memory regions.
type Executable struct {
	codeRegion *memregion.Region
	stack      *memregion.Region
	variables  map[string]int
	integrity  [32]byte

	// entry holds the code region's base address. It is the funcval
	// target that fn points at; fn stays valid only as long as this
	// word is reachable, so it lives alongside fn for Executable's
	// whole lifetime rather than being allocated fresh on every Run.
	entry *uintptr
	fn    generatedFunc
}

// New copies code into a fresh executable region split off the tail of
// a combined stack+code mapping, and transitions the code sub-region
// to RX. The stack sub-region remains RW for the lifetime of the
// Executable: generated code writes operand values into it directly.
func New(code []byte, variables map[string]int, integrity [32]byte) (*Executable, error) {
	combined, err := memregion.New(evalStackSize + len(code))
	if err != nil {
		return nil, err
	}

	codeRegion, err := combined.SplitTail(len(code))
	if err != nil {
		combined.Release()
		return nil, err
	}

	copy(codeRegion.Bytes(), code)

	if err := codeRegion.Protect(memregion.RX); err != nil {
		codeRegion.Release()
		combined.Release()
		return nil, err
	}

	entry := new(uintptr)
	*entry = codeRegion.Addr()

	return &Executable{
		codeRegion: codeRegion,
		stack:      combined,
		variables:  variables,
		integrity:  integrity,
		entry:      entry,
		fn:         asGeneratedFunc(entry),
	}, nil
}

// Integrity returns the compiled program's integrity digest.
func (e *Executable) Integrity() [32]byte {
	return e.integrity
}

// Code returns the generated machine code, for diagnostics such as
// disassembly. The backing memory remains RX; the returned slice
// aliases it and must not be written.
func (e *Executable) Code() []byte {
	if e.codeRegion == nil {
		return nil
	}
	return e.codeRegion.Bytes()
}

// Variables returns the variable catalog: name to dense slot index.
func (e *Executable) Variables() map[string]int {
	return e.variables
}

// Run prepares a per-call variables buffer from the given values,
// requiring every variable named in the catalog to be present, then
// invokes the generated function and returns its result.
func (e *Executable) Run(variables map[string]int64) (int64, error) {
	if e.codeRegion == nil {
		return 0, Error{Kind: CodeNotGenerated}
	}
	if !e.codeRegion.IsExecutable() {
		return 0, Error{Kind: CodeMemoryNotExecutable}
	}

	area := make([]int64, len(e.variables))
	initialized := make(map[string]bool, len(e.variables))

	for name, value := range variables {
		offset, ok := e.variables[name]
		if !ok {
			fmt.Fprintf(os.Stderr, "executable: variable %q was never used in the expression, skipping\n", name)
			continue
		}
		area[offset] = value
		initialized[name] = true
	}

	for name := range e.variables {
		if !initialized[name] {
			return 0, Error{Kind: UninitializedVariable, Name: name}
		}
	}

	var varsBasePtr *int64
	if len(area) > 0 {
		varsBasePtr = &area[0]
	}

	evalStackBasePtr := (*int64)(unsafe.Pointer(&e.stack.Bytes()[0]))

	return e.fn(evalStackBasePtr, varsBasePtr), nil
}

// Close releases the code and evaluation-stack regions. Safe to call
// more than once.
func (e *Executable) Close() error {
	if e.codeRegion != nil {
		if err := e.codeRegion.Release(); err != nil {
			return err
		}
		e.codeRegion = nil
	}
	if e.stack != nil {
		if err := e.stack.Release(); err != nil {
			return err
		}
		e.stack = nil
	}
	e.entry = nil
	e.fn = nil
	return nil
}
