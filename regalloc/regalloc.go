// Package regalloc maps guest registers onto host registers and hands out
// scoped temporaries.
//
// Guest r0-r14 live in host X0-X14 as zero-extended 32-bit values. Guest
// Q0-Q15 live in host V0-V15; the narrower S and D registers alias lanes of
// the same host register. Temporaries come from two independent pools, one
// for general registers and one for vector registers. X28, the memory
// translation base, is never in a pool.
package regalloc

import (
	"fmt"
	"math/bits"

	"github.com/sarchlab/armxlate/host"
)

// Fixed host registers.
const (
	RegExit    uint8 = 15 // next guest PC on block exit, bit 0 = Thumb
	RegMemBase uint8 = 28 // direct base or page table base
	RegState   uint8 = 29 // guest state block
	RegLink    uint8 = 30 // return to the dispatcher
)

// Guest state block offsets from RegState.
const (
	StateFPSCR   = 0
	StateTrapArg = 4
)

// Guest register numbers with architectural roles.
const (
	GuestSP = 13
	GuestLR = 14
	GuestPC = 15
)

const (
	gprPoolMask uint32 = 1<<16 | 1<<17 | 0xFF<<19 | 1<<27
	vecPoolMask uint32 = 0xFFFF0000
)

// InvariantError reports a broken allocator or handler invariant. It is
// always raised as a panic.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string { return "regalloc: " + e.Msg }

func invariant(format string, args ...any) {
	panic(&InvariantError{Msg: fmt.Sprintf(format, args...)})
}

// Remap returns the host register holding a guest general register. The
// program counter has no host register and must be materialized instead.
func Remap(guest uint8) host.GPR {
	if guest >= GuestPC {
		invariant("guest r%d has no host register", guest)
	}
	return host.W(guest)
}

// FPKind selects a guest floating-point register bank.
type FPKind uint8

// Floating-point banks.
const (
	FPKindS FPKind = iota
	FPKindD
	FPKindQ
)

// Lane locates a guest floating-point register inside the host file.
type Lane struct {
	V     host.VReg
	Index uint8
	Size  host.ElemSize
}

// AtZero reports whether the register sits in lane zero, where scalar host
// instructions can read it directly.
func (l Lane) AtZero() bool { return l.Index == 0 }

// FPSize returns the scalar size for S and D lanes.
func (l Lane) FPSize() host.FPSize { return host.FPSize(l.Size) }

// RemapFP returns the host lane backing guest register n of the bank.
func RemapFP(kind FPKind, n uint8) Lane {
	switch kind {
	case FPKindS:
		if n >= 32 {
			invariant("guest s%d out of range", n)
		}
		return Lane{V: host.VReg(n / 4), Index: n % 4, Size: host.Elem32}
	case FPKindD:
		if n >= 32 {
			invariant("guest d%d out of range", n)
		}
		return Lane{V: host.VReg(n / 2), Index: n % 2, Size: host.Elem64}
	default:
		if n >= 16 {
			invariant("guest q%d out of range", n)
		}
		return Lane{V: host.VReg(n), Size: host.Elem64}
	}
}

// Allocator owns the temporary pools of one translation context.
type Allocator struct {
	gprFree uint32
	vecFree uint32
	live    int
}

// New creates an allocator with both pools full.
func New() *Allocator {
	return &Allocator{gprFree: gprPoolMask, vecFree: vecPoolMask}
}

// Live returns the number of handles not yet released.
func (a *Allocator) Live() int { return a.live }

// FreeGPRs returns how many general temporaries are available.
func (a *Allocator) FreeGPRs() int { return bits.OnesCount32(a.gprFree) }

// FreeVectors returns how many vector temporaries are available.
func (a *Allocator) FreeVectors() int { return bits.OnesCount32(a.vecFree) }

func take(pool *uint32, name string) uint8 {
	if *pool == 0 {
		invariant("%s pool exhausted", name)
	}
	n := uint8(bits.TrailingZeros32(*pool))
	*pool &^= 1 << n
	return n
}

// AcquireGPR reserves a general temporary.
func (a *Allocator) AcquireGPR() *Handle {
	n := take(&a.gprFree, "general")
	a.live++
	return &Handle{alloc: a, kind: kindGPR, reg: n}
}

// AcquireScalar reserves a vector temporary viewed as an S or D scalar.
func (a *Allocator) AcquireScalar(single bool) *Handle {
	n := take(&a.vecFree, "vector")
	a.live++
	size := host.FPDouble
	if single {
		size = host.FPSingle
	}
	return &Handle{alloc: a, kind: kindScalar, reg: n, size: size}
}

// AcquireVector reserves a whole vector temporary.
func (a *Allocator) AcquireVector() *Handle {
	n := take(&a.vecFree, "vector")
	a.live++
	return &Handle{alloc: a, kind: kindVector, reg: n}
}

// Alias wraps an already resolved operand in a handle that owns nothing.
func (a *Allocator) Alias(op host.Operand) *Handle {
	a.live++
	h := &Handle{alloc: a, kind: kindAlias, op: op}
	switch op.Kind {
	case host.OperandGPR:
		h.reg = op.GPR.N
	case host.OperandScalar:
		h.reg, h.size = uint8(op.V), op.Size
	case host.OperandVector:
		h.reg = uint8(op.V)
	}
	return h
}

type handleKind uint8

const (
	kindGPR handleKind = iota
	kindScalar
	kindVector
	kindAlias
)

// Handle is exclusive, scoped ownership of one host register. Release it
// exactly once, normally with defer.
type Handle struct {
	alloc    *Allocator
	kind     handleKind
	reg      uint8
	size     host.FPSize
	op       host.Operand
	released bool
}

func (h *Handle) check() {
	if h.released {
		invariant("handle for register %d used after release", h.reg)
	}
}

// Release returns the register to its pool.
func (h *Handle) Release() {
	h.check()
	h.released = true
	h.alloc.live--
	switch h.kind {
	case kindGPR:
		h.alloc.gprFree |= 1 << h.reg
	case kindScalar, kindVector:
		h.alloc.vecFree |= 1 << h.reg
	}
}

// IsAlias reports whether the handle borrows an existing register.
func (h *Handle) IsAlias() bool { return h.kind == kindAlias }

// W returns the 32-bit view of a general handle.
func (h *Handle) W() host.GPR {
	h.check()
	return host.W(h.reg)
}

// X returns the 64-bit view of a general handle.
func (h *Handle) X() host.GPR {
	h.check()
	return host.X(h.reg)
}

// V returns the vector register of a scalar or vector handle.
func (h *Handle) V() host.VReg {
	h.check()
	return host.VReg(h.reg)
}

// Size returns the scalar size of a scalar handle.
func (h *Handle) Size() host.FPSize {
	h.check()
	return h.size
}

// Operand returns the handle as a host operand.
func (h *Handle) Operand() host.Operand {
	h.check()
	switch h.kind {
	case kindGPR:
		return host.RegOperand(host.W(h.reg))
	case kindScalar:
		return host.ScalarOperand(host.VReg(h.reg), h.size)
	case kindVector:
		return host.VectorOperand(host.VReg(h.reg))
	}
	return h.op
}
