package emu

import (
	"encoding/binary"
	"math"

	"github.com/sarchlab/armxlate/host"
)

// SIMDRegFile holds the 32 128-bit SIMD&FP registers, little-endian within
// each register.
type SIMDRegFile struct {
	V [32][16]byte
}

// NewSIMDRegFile creates a zeroed SIMD register file.
func NewSIMDRegFile() *SIMDRegFile {
	return &SIMDRegFile{}
}

// ReadLane reads lane idx of element size e (log2 bytes).
func (f *SIMDRegFile) ReadLane(v uint8, e host.ElemSize, idx uint8) uint64 {
	n := 1 << e
	var buf [8]byte
	copy(buf[:], f.V[v][int(idx)*n:int(idx)*n+n])
	return binary.LittleEndian.Uint64(buf[:])
}

// WriteLane writes lane idx of element size e, leaving the other lanes intact.
func (f *SIMDRegFile) WriteLane(v uint8, e host.ElemSize, idx uint8, val uint64) {
	n := 1 << e
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], val)
	copy(f.V[v][int(idx)*n:int(idx)*n+n], buf[:n])
}

// ReadLane8 reads a byte lane.
func (f *SIMDRegFile) ReadLane8(v, idx uint8) uint8 { return uint8(f.ReadLane(v, host.Elem8, idx)) }

// ReadLane16 reads a halfword lane.
func (f *SIMDRegFile) ReadLane16(v, idx uint8) uint16 {
	return uint16(f.ReadLane(v, host.Elem16, idx))
}

// ReadLane32 reads a word lane.
func (f *SIMDRegFile) ReadLane32(v, idx uint8) uint32 {
	return uint32(f.ReadLane(v, host.Elem32, idx))
}

// ReadLane64 reads a doubleword lane.
func (f *SIMDRegFile) ReadLane64(v, idx uint8) uint64 { return f.ReadLane(v, host.Elem64, idx) }

// WriteLane32 writes a word lane.
func (f *SIMDRegFile) WriteLane32(v, idx uint8, val uint32) {
	f.WriteLane(v, host.Elem32, idx, uint64(val))
}

// WriteLane64 writes a doubleword lane.
func (f *SIMDRegFile) WriteLane64(v, idx uint8, val uint64) { f.WriteLane(v, host.Elem64, idx, val) }

// ReadQ returns the low and high doublewords of a register.
func (f *SIMDRegFile) ReadQ(v uint8) (lo, hi uint64) {
	return f.ReadLane64(v, 0), f.ReadLane64(v, 1)
}

// WriteQ sets a whole register.
func (f *SIMDRegFile) WriteQ(v uint8, lo, hi uint64) {
	f.WriteLane64(v, 0, lo)
	f.WriteLane64(v, 1, hi)
}

// ReadFloat32 reads lane idx as a single-precision value.
func (f *SIMDRegFile) ReadFloat32(v, idx uint8) float32 {
	return math.Float32frombits(f.ReadLane32(v, idx))
}

// ReadFloat64 reads lane idx as a double-precision value.
func (f *SIMDRegFile) ReadFloat64(v, idx uint8) float64 {
	return math.Float64frombits(f.ReadLane64(v, idx))
}

// WriteFloat32 writes lane idx as a single-precision value.
func (f *SIMDRegFile) WriteFloat32(v, idx uint8, x float32) {
	f.WriteLane32(v, idx, math.Float32bits(x))
}

// WriteFloat64 writes lane idx as a double-precision value.
func (f *SIMDRegFile) WriteFloat64(v, idx uint8, x float64) {
	f.WriteLane64(v, idx, math.Float64bits(x))
}

// writeScalar replaces a whole register with a scalar in lane zero, the way
// every scalar ARM64 write clears the rest of the register.
func (f *SIMDRegFile) writeScalar(v uint8, e host.ElemSize, val uint64) {
	f.V[v] = [16]byte{}
	f.WriteLane(v, e, 0, val)
}

// SIMD implements the ARM64 floating-point and Advanced SIMD instructions
// the translator emits.
type SIMD struct {
	simdRegFile *SIMDRegFile
	regFile     *RegFile
	memory      *Memory
	lsu         *LoadStoreUnit
}

// NewSIMD creates a new SIMD execution unit.
func NewSIMD(simdRegFile *SIMDRegFile, regFile *RegFile, lsu *LoadStoreUnit) *SIMD {
	return &SIMD{
		simdRegFile: simdRegFile,
		regFile:     regFile,
		memory:      lsu.memory,
		lsu:         lsu,
	}
}

func (s *SIMD) readF(v uint8, size uint8) float64 {
	if host.FPSize(size) == host.FPSingle {
		return float64(s.simdRegFile.ReadFloat32(v, 0))
	}
	return s.simdRegFile.ReadFloat64(v, 0)
}

func (s *SIMD) writeF(v uint8, size uint8, x float64) {
	if host.FPSize(size) == host.FPSingle {
		s.simdRegFile.writeScalar(v, host.Elem32, uint64(math.Float32bits(float32(x))))
		return
	}
	s.simdRegFile.writeScalar(v, host.Elem64, math.Float64bits(x))
}

// FArith executes FADD/FSUB/FMUL/FDIV/FNMUL on scalars. Single-precision
// operations round through float32 so results match the hardware.
func (s *SIMD) FArith(in host.Inst) {
	if host.FPSize(in.Size) == host.FPSingle {
		a := s.simdRegFile.ReadFloat32(in.Rn, 0)
		b := s.simdRegFile.ReadFloat32(in.Rm, 0)
		var r float32
		switch in.Op {
		case host.OpFADD:
			r = a + b
		case host.OpFSUB:
			r = a - b
		case host.OpFMUL:
			r = a * b
		case host.OpFDIV:
			r = a / b
		default:
			r = -(a * b)
		}
		s.simdRegFile.writeScalar(in.Rd, host.Elem32, uint64(math.Float32bits(r)))
		return
	}
	a := s.simdRegFile.ReadFloat64(in.Rn, 0)
	b := s.simdRegFile.ReadFloat64(in.Rm, 0)
	var r float64
	switch in.Op {
	case host.OpFADD:
		r = a + b
	case host.OpFSUB:
		r = a - b
	case host.OpFMUL:
		r = a * b
	case host.OpFDIV:
		r = a / b
	default:
		r = -(a * b)
	}
	s.writeF(in.Rd, in.Size, r)
}

// FUnary executes FMOV/FABS/FNEG/FSQRT on scalars. FABS and FNEG only
// touch the sign bit.
func (s *SIMD) FUnary(in host.Inst) {
	e := host.ElemSize(in.Size)
	bitsV := s.simdRegFile.ReadLane(in.Rn, e, 0)
	sign := uint64(1) << (8<<e - 1)
	switch in.Op {
	case host.OpFMOV:
	case host.OpFABS:
		bitsV &^= sign
	case host.OpFNEG:
		bitsV ^= sign
	default:
		if host.FPSize(in.Size) == host.FPSingle {
			r := float32(math.Sqrt(float64(math.Float32frombits(uint32(bitsV)))))
			bitsV = uint64(math.Float32bits(r))
		} else {
			bitsV = math.Float64bits(math.Sqrt(math.Float64frombits(bitsV)))
		}
	}
	s.simdRegFile.writeScalar(in.Rd, e, bitsV)
}

// FCmp executes FCMP/FCMPE, setting NZCV.
func (s *SIMD) FCmp(in host.Inst) {
	a := s.readF(in.Rn, in.Size)
	b := 0.0
	if in.Imm&host.FCmpZero == 0 {
		b = s.readF(in.Rm, in.Size)
	}
	var p PSTATE
	switch {
	case math.IsNaN(a) || math.IsNaN(b):
		p.C, p.V = true, true
	case a == b:
		p.Z, p.C = true, true
	case a < b:
		p.N = true
	default:
		p.C = true
	}
	s.regFile.PSTATE = p
}

// FCvt executes FCVT between single and double precision.
func (s *SIMD) FCvt(in host.Inst) {
	s.writeF(in.Rd, in.Size, s.readF(in.Rn, uint8(in.Imm)))
}

// FToInt executes FCVTZS/FCVTZU, saturating and mapping NaN to zero.
func (s *SIMD) FToInt(in host.Inst) {
	x := math.Trunc(s.readF(in.Rn, in.Size))
	var v uint64
	w := widthBits(in.Sf)
	switch {
	case math.IsNaN(x):
	case in.Op == host.OpFCVTZU:
		max := math.Ldexp(1, int(w)) - 1
		switch {
		case x <= 0:
		case x >= max:
			v = widthMask(in.Sf)
		default:
			v = uint64(x)
		}
	default:
		lim := math.Ldexp(1, int(w)-1)
		switch {
		case x >= lim:
			v = widthMask(in.Sf) >> 1
		case x < -lim:
			v = 1 << (w - 1)
		default:
			v = uint64(int64(x))
		}
	}
	s.regFile.writeWidth(in.Rd, v, in.Sf)
}

// IntToF executes SCVTF/UCVTF.
func (s *SIMD) IntToF(in host.Inst) {
	v := s.regFile.readWidth(in.Rn, in.Sf)
	var x float64
	switch {
	case in.Op == host.OpUCVTF:
		x = float64(v)
	case in.Sf:
		x = float64(int64(v))
	default:
		x = float64(int32(uint32(v)))
	}
	if host.FPSize(in.Size) == host.FPSingle && in.Op == host.OpUCVTF {
		s.simdRegFile.writeScalar(in.Rd, host.Elem32, uint64(math.Float32bits(float32(v))))
		return
	}
	s.writeF(in.Rd, in.Size, x)
}

// FMov executes FMOV between a general register and a scalar.
func (s *SIMD) FMov(in host.Inst) {
	e := host.ElemSize(in.Size)
	if in.Op == host.OpFMOVToGPR {
		s.regFile.writeWidth(in.Rd, s.simdRegFile.ReadLane(in.Rn, e, 0), in.Sf)
		return
	}
	s.simdRegFile.writeScalar(in.Rd, e, s.regFile.readWidth(in.Rn, in.Sf))
}

// LoadStore executes LDR/STR/LDUR/STUR of S, D and Q registers.
func (s *SIMD) LoadStore(in host.Inst) {
	addr := s.lsu.Address(in)
	n := 1 << in.Size
	if in.Op == host.OpLDRFP || in.Op == host.OpLDURFP {
		var buf [16]byte
		s.memory.ReadBytes(addr, buf[:n])
		s.simdRegFile.V[in.Rd] = buf
		return
	}
	reg := s.simdRegFile.V[in.Rd]
	for i := 0; i < n; i++ {
		s.lsu.store(addr+uint64(i), 1, uint64(reg[i]))
	}
}

// Lane executes DUP (element to scalar), INS, UMOV, LD1 and ST1 (single
// lane).
func (s *SIMD) Lane(in host.Inst) {
	e := host.ElemSize(in.Size)
	f := s.simdRegFile
	switch in.Op {
	case host.OpDUPElem:
		f.writeScalar(in.Rd, e, f.ReadLane(in.Rn, e, in.Index2))
	case host.OpINSElem:
		f.WriteLane(in.Rd, e, in.Index, f.ReadLane(in.Rn, e, in.Index2))
	case host.OpINSGPR:
		f.WriteLane(in.Rd, e, in.Index, s.regFile.ReadReg(in.Rn))
	case host.OpUMOV:
		s.regFile.WriteReg(in.Rd, f.ReadLane(in.Rn, e, in.Index2))
	case host.OpLD1Lane:
		addr := s.regFile.ReadRegOrSP(in.Rn)
		f.WriteLane(in.Rd, e, in.Index, s.memory.Read(addr, 1<<e))
	case host.OpST1Lane:
		addr := s.regFile.ReadRegOrSP(in.Rn)
		s.lsu.store(addr, 1<<e, f.ReadLane(in.Rd, e, in.Index))
	}
}

// Vector executes the three-same integer, bitwise and floating-point
// vector operations. 64-bit arrangements clear the upper half.
func (s *SIMD) Vector(in host.Inst) {
	f := s.simdRegFile
	e := host.ElemSize(in.Size)
	bytes := 8
	if in.Q {
		bytes = 16
	}
	switch in.Op {
	case host.OpVAND, host.OpVORR, host.OpVEOR, host.OpVBIC:
		e = host.Elem8
	}
	lanes := uint8(bytes >> e)

	var out [16]byte
	res := &SIMDRegFile{}
	for i := uint8(0); i < lanes; i++ {
		a := f.ReadLane(in.Rn, e, i)
		b := f.ReadLane(in.Rm, e, i)
		var r uint64
		switch in.Op {
		case host.OpVADD:
			r = a + b
		case host.OpVSUB:
			r = a - b
		case host.OpVMUL:
			r = a * b
		case host.OpVAND:
			r = a & b
		case host.OpVORR:
			r = a | b
		case host.OpVEOR:
			r = a ^ b
		case host.OpVBIC:
			r = a &^ b
		default:
			r = vectorFloat(in.Op, e, a, b)
		}
		res.WriteLane(0, e, i, r)
	}
	copy(out[:bytes], res.V[0][:bytes])
	f.V[in.Rd] = out
}

func vectorFloat(op host.Op, e host.ElemSize, a, b uint64) uint64 {
	if e == host.Elem32 {
		x, y := math.Float32frombits(uint32(a)), math.Float32frombits(uint32(b))
		var r float32
		switch op {
		case host.OpVFADD:
			r = x + y
		case host.OpVFSUB:
			r = x - y
		default:
			r = x * y
		}
		return uint64(math.Float32bits(r))
	}
	x, y := math.Float64frombits(a), math.Float64frombits(b)
	var r float64
	switch op {
	case host.OpVFADD:
		r = x + y
	case host.OpVFSUB:
		r = x - y
	default:
		r = x * y
	}
	return math.Float64bits(r)
}
