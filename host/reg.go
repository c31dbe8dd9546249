// Package host models the ARM64 host side of the translator: registers,
// structured host instructions, the Assembler façade that appends them, and
// the encoder that lowers them to machine code.
package host

import "fmt"

// RegZR is register number 31, read as the zero register or the stack
// pointer depending on the instruction.
const RegZR = 31

// GPR names a general-purpose register at a given width.
type GPR struct {
	N    uint8 // 0-31
	Is64 bool  // X form when true, W form otherwise
}

// W returns the 32-bit view of general register n.
func W(n uint8) GPR { return GPR{N: n} }

// X returns the 64-bit view of general register n.
func X(n uint8) GPR { return GPR{N: n, Is64: true} }

// Common register names.
var (
	WZR = W(RegZR)
	XZR = X(RegZR)
	XSP = X(RegZR)
)

// W returns the 32-bit view of the same register.
func (r GPR) W() GPR { return GPR{N: r.N} }

// X returns the 64-bit view of the same register.
func (r GPR) X() GPR { return GPR{N: r.N, Is64: true} }

func (r GPR) String() string {
	prefix := "w"
	if r.Is64 {
		prefix = "x"
	}
	if r.N == RegZR {
		return prefix + "zr"
	}
	return fmt.Sprintf("%s%d", prefix, r.N)
}

// VReg names one of the 32 SIMD&FP registers.
type VReg uint8

func (v VReg) String() string { return fmt.Sprintf("v%d", uint8(v)) }

// FPSize is a scalar floating-point width expressed as log2 of its byte size.
type FPSize uint8

// Scalar floating-point sizes.
const (
	FPSingle FPSize = 2
	FPDouble FPSize = 3
)

// Bytes returns the width of the scalar in bytes.
func (s FPSize) Bytes() int { return 1 << s }

func (s FPSize) prefix() string {
	if s == FPDouble {
		return "d"
	}
	return "s"
}

// ElemSize is a vector element width expressed as log2 of its byte size.
type ElemSize uint8

// Vector element sizes.
const (
	Elem8  ElemSize = 0
	Elem16 ElemSize = 1
	Elem32 ElemSize = 2
	Elem64 ElemSize = 3
)

// Lanes returns how many elements of this size fit in a 128-bit register.
func (e ElemSize) Lanes() int { return 16 >> e }

func (e ElemSize) suffix() string {
	return [...]string{"b", "h", "s", "d"}[e&3]
}

// Arrangement is a SIMD vector arrangement specifier.
type Arrangement uint8

// Arrangements, numbered element size times two plus Q.
const (
	Arr8B  Arrangement = 0
	Arr16B Arrangement = 1
	Arr4H  Arrangement = 2
	Arr8H  Arrangement = 3
	Arr2S  Arrangement = 4
	Arr4S  Arrangement = 5
	Arr1D  Arrangement = 6
	Arr2D  Arrangement = 7
)

// Arr builds the arrangement for an element size and register width.
func Arr(e ElemSize, q bool) Arrangement {
	a := Arrangement(e * 2)
	if q {
		a++
	}
	return a
}

// Elem returns the element size of the arrangement.
func (a Arrangement) Elem() ElemSize { return ElemSize(a / 2) }

// Q reports whether the arrangement covers the full 128-bit register.
func (a Arrangement) Q() bool { return a%2 == 1 }

func (a Arrangement) String() string {
	return [...]string{"8b", "16b", "4h", "8h", "2s", "4s", "1d", "2d"}[a&7]
}

// OperandKind classifies an Operand.
type OperandKind uint8

// Operand kinds.
const (
	OperandGPR OperandKind = iota
	OperandScalar
	OperandVector
	OperandImm
)

// Operand is a fully resolved host operand: a register of some width or an
// immediate constant. It carries no ownership.
type Operand struct {
	Kind OperandKind
	GPR  GPR
	V    VReg
	Size FPSize
	Imm  uint64
}

// RegOperand wraps a general register.
func RegOperand(r GPR) Operand { return Operand{Kind: OperandGPR, GPR: r} }

// ScalarOperand wraps the low scalar lane of a vector register.
func ScalarOperand(v VReg, size FPSize) Operand {
	return Operand{Kind: OperandScalar, V: v, Size: size}
}

// VectorOperand wraps a whole vector register.
func VectorOperand(v VReg) Operand { return Operand{Kind: OperandVector, V: v} }

// ImmOperand wraps an immediate.
func ImmOperand(v uint64) Operand { return Operand{Kind: OperandImm, Imm: v} }

func (o Operand) String() string {
	switch o.Kind {
	case OperandGPR:
		return o.GPR.String()
	case OperandScalar:
		return fmt.Sprintf("%s%d", o.Size.prefix(), uint8(o.V))
	case OperandVector:
		return fmt.Sprintf("q%d", uint8(o.V))
	default:
		return fmt.Sprintf("#0x%x", o.Imm)
	}
}
