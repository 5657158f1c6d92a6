// Package memregion manages page-aligned anonymous memory mappings
// whose protection can be transitioned between RW, RX, RWX, and
// no-access, with support for splitting a mapping into independently
// addressable sub-regions and a guard-page discipline around a live
// region.
package memregion

import (
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Protect is one of the four protection states a Region can hold.
type Protect int

const (
	None Protect = iota
	RW
	RX
	RWX
)

func (p Protect) prot() int {
	switch p {
	case None:
		return unix.PROT_NONE
	case RW:
		return unix.PROT_READ | unix.PROT_WRITE
	case RX:
		return unix.PROT_READ | unix.PROT_EXEC
	case RWX:
		return unix.PROT_READ | unix.PROT_WRITE | unix.PROT_EXEC
	default:
		return unix.PROT_NONE
	}
}

// PageSize returns the system's page size, used to round region sizes
// up to a page multiple.
func PageSize() int {
	return unix.Getpagesize()
}

func pageAlignedSize(size int) int {
	ps := PageSize()
	return (size + ps - 1) &^ (ps - 1)
}

// mapping is the single real OS mapping a family of split Regions
// shares. golang.org/x/sys/unix.Munmap only accepts the exact slice
// unix.Mmap returned: its internal mapper keys mappings by that slice's
// base address and length, and rejects anything else with EINVAL. So a
// Region produced by SplitTail/SplitHead cannot munmap its own narrowed
// view independently — the whole family defers to a single Munmap of
// original, performed once the last referencing Region releases.
type mapping struct {
	original []byte
	refs     int32
}

func (m *mapping) release() error {
	if atomic.AddInt32(&m.refs, -1) > 0 {
		return nil
	}
	return unix.Munmap(m.original)
}

// Region is a handle over a contiguous byte range within a shared
// mapping. Splitting a Region hands out a second handle over a
// disjoint sub-range of the same mapping; the underlying pages are
// only unmapped once every Region referencing that mapping has
// released.
type Region struct {
	data    []byte
	m       *mapping
	protect Protect
}

// New allocates a new RW anonymous mapping of at least size bytes,
// rounded up to a page multiple.
func New(size int) (*Region, error) {
	aligned := pageAlignedSize(size)
	data, err := unix.Mmap(-1, 0, aligned, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, Error{Kind: MmapFailed, Err: err}
	}
	return &Region{data: data, m: &mapping{original: data, refs: 1}, protect: RW}, nil
}

// Bytes returns the region's backing slice.
func (r *Region) Bytes() []byte {
	return r.data
}

// Len returns the region's current size in bytes.
func (r *Region) Len() int {
	return len(r.data)
}

// Addr returns the region's base address as a uintptr, for embedding
// into generated code or diagnostics.
func (r *Region) Addr() uintptr {
	if len(r.data) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&r.data[0]))
}

// Protect transitions the region to the requested protection state.
// Protection applies to whatever pages r.data currently spans; callers
// that split a mapping into RW and RX halves rely on mprotect, unlike
// Munmap, accepting an arbitrary sub-range of a mapping.
func (r *Region) Protect(p Protect) error {
	if err := unix.Mprotect(r.data, p.prot()); err != nil {
		return Error{Kind: MprotectFailed, Err: err}
	}
	r.protect = p
	return nil
}

// IsExecutable reports whether the region's current protection state
// permits execution.
func (r *Region) IsExecutable() bool {
	return r.protect == RX || r.protect == RWX
}

// SplitTail carves a Region out of the last n bytes of r, shrinking r
// by the same amount. n is rounded up to a page multiple. The two
// resulting Regions share the same underlying mapping for the purposes
// of release.
func (r *Region) SplitTail(n int) (*Region, error) {
	aligned := pageAlignedSize(n)
	if len(r.data) < aligned {
		return nil, Error{Kind: SplitNotEnoughSpace}
	}
	boundary := len(r.data) - aligned
	tail := r.data[boundary:]
	r.data = r.data[:boundary]
	atomic.AddInt32(&r.m.refs, 1)
	return &Region{data: tail, m: r.m, protect: r.protect}, nil
}

// SplitHead carves a Region out of the first n bytes of r, shrinking r
// from the front by the same amount. n is rounded up to a page
// multiple. The two resulting Regions share the same underlying
// mapping for the purposes of release.
func (r *Region) SplitHead(n int) (*Region, error) {
	aligned := pageAlignedSize(n)
	if len(r.data) < aligned {
		return nil, Error{Kind: SplitNotEnoughSpace}
	}
	head := r.data[:aligned]
	r.data = r.data[aligned:]
	atomic.AddInt32(&r.m.refs, 1)
	return &Region{data: head, m: r.m, protect: r.protect}, nil
}

// Release drops this handle's reference to its mapping. It is
// idempotent: calling it twice, or calling it on a Region that never
// held a reference, is a no-op. The underlying pages are only actually
// unmapped once every Region sharing the mapping (the original and
// every Region split off it) has released.
func (r *Region) Release() error {
	if r.m == nil || r.data == nil {
		return nil
	}
	m := r.m
	r.data = nil
	r.m = nil
	if err := m.release(); err != nil {
		return Error{Kind: MunmapFailed, Err: err}
	}
	return nil
}

// Guarded is a live region flanked by two no-access guard pages, so
// that an overrun traps deterministically instead of silently
// corrupting adjacent memory.
type Guarded struct {
	before *Region
	live   *Region
	after  *Region
}

// NewGuarded allocates a single mapping of size (rounded up to a page
// multiple) plus two guard pages, and sets the guard pages no-access.
// The returned Guarded's Live region is RW.
func NewGuarded(size int) (*Guarded, error) {
	ps := PageSize()
	whole, err := New(pageAlignedSize(size) + 2*ps)
	if err != nil {
		return nil, err
	}

	before, err := whole.SplitHead(ps)
	if err != nil {
		return nil, err
	}
	after, err := whole.SplitTail(ps)
	if err != nil {
		return nil, err
	}

	if err := before.Protect(None); err != nil {
		return nil, err
	}
	if err := after.Protect(None); err != nil {
		return nil, err
	}

	return &Guarded{before: before, live: whole, after: after}, nil
}

// Live returns the usable region sandwiched between the guard pages.
func (g *Guarded) Live() *Region {
	return g.live
}

// Release releases all three constituent regions. Since they share one
// underlying mapping, the actual munmap happens once, on the last of
// the three calls below.
func (g *Guarded) Release() error {
	if err := g.before.Release(); err != nil {
		return err
	}
	if err := g.live.Release(); err != nil {
		return err
	}
	return g.after.Release()
}
