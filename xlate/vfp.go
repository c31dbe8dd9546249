package xlate

import (
	"github.com/sarchlab/armxlate/host"
	"github.com/sarchlab/armxlate/insts"
	"github.com/sarchlab/armxlate/regalloc"
)

func fpBank(double bool) (regalloc.FPKind, host.FPSize) {
	if double {
		return regalloc.FPKindD, host.FPDouble
	}
	return regalloc.FPKindS, host.FPSingle
}

// srcLane makes a guest register readable by a scalar host instruction.
// Lane zero is used in place; any other lane is copied down with DUP.
func (c *Context) srcLane(l regalloc.Lane) *regalloc.Handle {
	if l.AtZero() {
		return c.Alloc.Alias(host.ScalarOperand(l.V, l.FPSize()))
	}
	t := c.Alloc.AcquireScalar(l.Size == host.Elem32)
	c.Asm.DupElem(l.Size, t.V(), l.V, l.Index)
	return t
}

// insertLane writes lane zero of t into l. Scalar host writes clear the
// rest of their register, so results never target a guest register
// directly.
func (c *Context) insertLane(l regalloc.Lane, t host.VReg) {
	c.Asm.InsElem(l.Size, l.V, l.Index, t, 0)
}

func translateVFPDataProc(c *Context, raw uint32) error {
	v := insts.VFPData(raw)
	switch v.Opc1() {
	case insts.VFPOpcMisc:
		return c.vfpMisc(v)
	case insts.VFPOpcMLA, insts.VFPOpcNMLA, insts.VFPOpcMUL, insts.VFPOpcADD:
	case insts.VFPOpcDIV:
		if v.Op() {
			return c.unimplemented()
		}
	default:
		return c.unimplemented()
	}

	done := c.guard()
	defer done()
	kind, size := fpBank(v.Double())
	d := regalloc.RemapFP(kind, v.Vd())
	n := c.srcLane(regalloc.RemapFP(kind, v.Vn()))
	m := c.srcLane(regalloc.RemapFP(kind, v.Vm()))
	defer n.Release()
	defer m.Release()
	t := c.Alloc.AcquireScalar(!v.Double())
	defer t.Release()

	switch v.Opc1() {
	case insts.VFPOpcADD:
		op := host.OpFADD
		if v.Op() {
			op = host.OpFSUB
		}
		c.Asm.FArith(op, size, t.V(), n.V(), m.V())
	case insts.VFPOpcMUL:
		op := host.OpFMUL
		if v.Op() {
			op = host.OpFNMUL
		}
		c.Asm.FArith(op, size, t.V(), n.V(), m.V())
	case insts.VFPOpcDIV:
		c.Asm.FArith(host.OpFDIV, size, t.V(), n.V(), m.V())
	default:
		// Multiply-accumulate rounds the product separately.
		c.Asm.FArith(host.OpFMUL, size, t.V(), n.V(), m.V())
		acc := c.srcLane(d)
		defer acc.Release()
		switch {
		case v.Opc1() == insts.VFPOpcMLA && !v.Op():
			c.Asm.FArith(host.OpFADD, size, t.V(), acc.V(), t.V())
		case v.Opc1() == insts.VFPOpcMLA:
			c.Asm.FArith(host.OpFSUB, size, t.V(), acc.V(), t.V())
		case !v.Op():
			c.Asm.FArith(host.OpFSUB, size, t.V(), t.V(), acc.V())
		default:
			c.Asm.FArith(host.OpFADD, size, t.V(), acc.V(), t.V())
			c.Asm.FUnary(host.OpFNEG, size, t.V(), t.V())
		}
	}
	c.insertLane(d, t.V())
	return nil
}

// vfpExpandImm expands the 8-bit VMOV immediate to single or double bits.
func vfpExpandImm(imm8 uint8, double bool) uint64 {
	sign := uint64(imm8 >> 7)
	b6 := uint64(imm8>>6) & 1
	low := uint64(imm8 & 0x3F)
	if double {
		exp := (b6^1)<<10 | b6*0xFF<<2 | low>>4
		return sign<<63 | exp<<52 | (low&0xF)<<48
	}
	exp := (b6^1)<<7 | b6*0x1F<<2 | low>>4
	return sign<<31 | exp<<23 | (low&0xF)<<19
}

// Misc opc2 values with bit 6 set.
const (
	vfpMiscMov    = 0b0000 // VMOV, VABS
	vfpMiscNeg    = 0b0001 // VNEG, VSQRT
	vfpMiscCmp    = 0b0100
	vfpMiscCmpZ   = 0b0101
	vfpMiscCvtFP  = 0b0111
	vfpMiscCvtInt = 0b1000
	vfpMiscToU    = 0b1100
	vfpMiscToS    = 0b1101
)

func (c *Context) vfpMisc(v insts.VFPData) error {
	kind, size := fpBank(v.Double())
	if !v.Op() {
		return c.vfpMovImm(v, kind)
	}

	switch v.Opc2() {
	case vfpMiscMov, vfpMiscNeg:
		done := c.guard()
		defer done()
		var op host.Op
		switch {
		case v.Opc2() == vfpMiscMov && !v.Bit7():
			op = host.OpFMOV
		case v.Opc2() == vfpMiscMov:
			op = host.OpFABS
		case !v.Bit7():
			op = host.OpFNEG
		default:
			op = host.OpFSQRT
		}
		d := regalloc.RemapFP(kind, v.Vd())
		m := c.srcLane(regalloc.RemapFP(kind, v.Vm()))
		defer m.Release()
		t := c.Alloc.AcquireScalar(!v.Double())
		defer t.Release()
		c.Asm.FUnary(op, size, t.V(), m.V())
		c.insertLane(d, t.V())
		return nil

	case vfpMiscCmp, vfpMiscCmpZ:
		return c.vfpCompare(v, kind, size)

	case vfpMiscCvtFP:
		if !v.Bit7() {
			return c.unimplemented()
		}
		done := c.guard()
		defer done()
		dKind, dSize, d := regalloc.FPKindD, host.FPDouble, v.VdDouble()
		src := regalloc.RemapFP(regalloc.FPKindS, v.VmSingle())
		if v.Double() {
			dKind, dSize, d = regalloc.FPKindS, host.FPSingle, v.VdSingle()
			src = regalloc.RemapFP(regalloc.FPKindD, v.VmDouble())
		}
		m := c.srcLane(src)
		defer m.Release()
		t := c.Alloc.AcquireScalar(dSize == host.FPSingle)
		defer t.Release()
		c.Asm.FCvt(dSize, size, t.V(), m.V())
		c.insertLane(regalloc.RemapFP(dKind, d), t.V())
		return nil

	case vfpMiscCvtInt:
		done := c.guard()
		defer done()
		src := regalloc.RemapFP(regalloc.FPKindS, v.VmSingle())
		g := c.Alloc.AcquireGPR()
		defer g.Release()
		c.Asm.Umov(g.W(), host.Elem32, src.V, src.Index)
		op := host.OpUCVTF
		if v.Bit7() {
			op = host.OpSCVTF
		}
		t := c.Alloc.AcquireScalar(!v.Double())
		defer t.Release()
		c.Asm.IntToF(op, size, t.V(), g.W())
		c.insertLane(regalloc.RemapFP(kind, v.Vd()), t.V())
		return nil

	case vfpMiscToU, vfpMiscToS:
		if !v.Bit7() {
			// Rounding by FPSCR mode.
			return c.unimplemented()
		}
		done := c.guard()
		defer done()
		m := c.srcLane(regalloc.RemapFP(kind, v.Vm()))
		defer m.Release()
		op := host.OpFCVTZU
		if v.Opc2() == vfpMiscToS {
			op = host.OpFCVTZS
		}
		g := c.Alloc.AcquireGPR()
		defer g.Release()
		c.Asm.FToInt(op, g.W(), size, m.V())
		d := regalloc.RemapFP(regalloc.FPKindS, v.VdSingle())
		c.Asm.InsGPR(host.Elem32, d.V, d.Index, g.W())
		return nil
	}
	return c.unimplemented()
}

func (c *Context) vfpMovImm(v insts.VFPData, kind regalloc.FPKind) error {
	done := c.guard()
	defer done()
	imm8 := v.Opc2()<<4 | uint8(c.raw&0xF)
	d := regalloc.RemapFP(kind, v.Vd())
	g := c.Alloc.AcquireGPR()
	defer g.Release()
	if v.Double() {
		c.Asm.MovImm(g.X(), vfpExpandImm(imm8, true))
		c.Asm.InsGPR(host.Elem64, d.V, d.Index, g.X())
		return nil
	}
	c.Asm.MovImm(g.W(), vfpExpandImm(imm8, false))
	c.Asm.InsGPR(host.Elem32, d.V, d.Index, g.W())
	return nil
}

// vfpCompare runs FCMP and moves the result into FPSCR.NZCV, leaving the
// guest APSR flags alone.
func (c *Context) vfpCompare(v insts.VFPData, kind regalloc.FPKind, size host.FPSize) error {
	done := c.guard()
	defer done()
	restore := c.saveFlags()
	defer restore()

	n := c.srcLane(regalloc.RemapFP(kind, v.Vd()))
	defer n.Release()
	var flags int64
	if v.Bit7() {
		flags |= host.FCmpSignal
	}
	m := n
	if v.Opc2() == vfpMiscCmpZ {
		flags |= host.FCmpZero
	} else {
		m = c.srcLane(regalloc.RemapFP(kind, v.Vm()))
		defer m.Release()
	}
	c.Asm.FCmp(size, n.V(), m.V(), flags)

	st := host.X(regalloc.RegState)
	nzcv := c.Alloc.AcquireGPR()
	fpscr := c.Alloc.AcquireGPR()
	defer nzcv.Release()
	defer fpscr.Release()
	c.Asm.MrsNZCV(nzcv.X())
	c.Asm.Lsr(nzcv.W(), nzcv.W(), 28)
	c.Asm.Ldr(fpscr.W(), st, regalloc.StateFPSCR, 2, false)
	c.Asm.Bfi(fpscr.W(), nzcv.W(), 28, 4)
	c.Asm.Str(fpscr.W(), st, regalloc.StateFPSCR, 2)
	return nil
}

func translateVFPMovCoreSingle(c *Context, raw uint32) error {
	v := insts.VMovCoreSingle(raw)
	if v.Rt() == regalloc.GuestPC {
		return c.unimplemented()
	}
	done := c.guard()
	defer done()
	s := regalloc.RemapFP(regalloc.FPKindS, v.Sn())
	if v.ToCore() {
		c.Asm.Umov(regalloc.Remap(v.Rt()), host.Elem32, s.V, s.Index)
		return nil
	}
	c.Asm.InsGPR(host.Elem32, s.V, s.Index, regalloc.Remap(v.Rt()))
	return nil
}

func translateVFPMovCorePair(c *Context, raw uint32) error {
	v := insts.VMovCorePair(raw)
	if anyPC(v.Rt(), v.Rt2()) || (v.ToCore() && v.Rt() == v.Rt2()) {
		return c.unimplemented()
	}
	var lo, hi regalloc.Lane
	if v.Double() {
		dl := regalloc.RemapFP(regalloc.FPKindD, v.Vm())
		lo = regalloc.Lane{V: dl.V, Index: dl.Index * 2, Size: host.Elem32}
		hi = regalloc.Lane{V: dl.V, Index: dl.Index*2 + 1, Size: host.Elem32}
	} else {
		if v.Vm() == 31 {
			return c.unimplemented()
		}
		lo = regalloc.RemapFP(regalloc.FPKindS, v.Vm())
		hi = regalloc.RemapFP(regalloc.FPKindS, v.Vm()+1)
	}
	done := c.guard()
	defer done()
	rt, rt2 := regalloc.Remap(v.Rt()), regalloc.Remap(v.Rt2())
	if v.ToCore() {
		c.Asm.Umov(rt, host.Elem32, lo.V, lo.Index)
		c.Asm.Umov(rt2, host.Elem32, hi.V, hi.Index)
		return nil
	}
	c.Asm.InsGPR(host.Elem32, lo.V, lo.Index, rt)
	c.Asm.InsGPR(host.Elem32, hi.V, hi.Index, rt2)
	return nil
}

// fpTransfer moves one guest FP register between memory at guest address
// ea and its lane. Under the table policy a doubleword moves as two words
// since it may cross a page.
func (c *Context) fpTransfer(load bool, l regalloc.Lane, ea host.GPR) {
	if l.Size == host.Elem64 && c.Policy == PolicyTable {
		lo := regalloc.Lane{V: l.V, Index: l.Index * 2, Size: host.Elem32}
		hi := regalloc.Lane{V: l.V, Index: l.Index*2 + 1, Size: host.Elem32}
		c.fpTransfer(load, lo, ea)
		second := c.Alloc.AcquireGPR()
		c.Asm.AddImm(second.W(), ea, 4)
		c.fpTransfer(load, hi, second.W())
		second.Release()
		return
	}
	xa := c.hostAddr(ea)
	defer xa.Release()
	switch {
	case load:
		c.Asm.Ld1Lane(l.Size, l.V, l.Index, xa.X())
	case l.AtZero():
		c.Asm.StrFP(uint8(l.Size), l.V, xa.X(), 0)
	default:
		c.Asm.St1Lane(l.Size, l.V, l.Index, xa.X())
	}
}

func translateVFPLoadStore(c *Context, raw uint32) error {
	v := insts.VLdSt(raw)
	done := c.guard()
	defer done()
	kind, _ := fpBank(v.Double())
	a := c.resolve(offsetMode(v.Rn(), 0), nil)
	defer a.release()
	ea := a.ea
	if off := v.Imm32(); off != 0 {
		sum := a.hold(c.Alloc.AcquireGPR()).W()
		if !v.U() {
			off = -off
		}
		c.addConst(sum, a.ea, off)
		ea = sum
	}
	c.fpTransfer(v.L(), regalloc.RemapFP(kind, v.Vd()), ea)
	return nil
}

// translateVFPLoadStoreMulti covers VLDM, VSTM, VPUSH and VPOP.
func translateVFPLoadStoreMulti(c *Context, raw uint32) error {
	v := insts.VLdStMulti(raw)
	n := uint32(v.Count())
	kind, _ := fpBank(v.Double())
	limit := uint32(32)
	if v.P() == v.U() || n == 0 || uint32(v.Vd())+n > limit ||
		(v.Rn() == regalloc.GuestPC && v.W()) {
		return c.unimplemented()
	}
	done := c.guard()
	defer done()

	a := c.resolve(offsetMode(v.Rn(), 0), nil)
	defer a.release()
	bytes := uint32(v.Imm8()) * 4
	start := a.ea
	if v.P() {
		start = a.hold(c.Alloc.AcquireGPR()).W()
		c.addConst(start, a.ea, -bytes)
	}
	var next host.GPR
	if v.W() {
		delta := bytes
		if !v.U() {
			delta = -bytes
		}
		next = a.hold(c.Alloc.AcquireGPR()).W()
		c.addConst(next, a.ea, delta)
	}

	step := uint32(4)
	if v.Double() {
		step = 8
	}
	addr := a.hold(c.Alloc.AcquireGPR()).W()
	for i := uint32(0); i < n; i++ {
		ea := start
		if i > 0 {
			c.Asm.AddImm(addr, start, i*step)
			ea = addr
		}
		c.fpTransfer(v.L(), regalloc.RemapFP(kind, v.Vd()+uint8(i)), ea)
	}
	if v.W() {
		c.Asm.Mov(regalloc.Remap(v.Rn()), next)
	}
	return nil
}

// translateVFPSysReg handles VMRS and VMSR. Only FPSCR is accessible;
// VMRS APSR_nzcv copies the FP flags into the guest flags.
func translateVFPSysReg(c *Context, raw uint32) error {
	v := insts.VSysReg(raw)
	if v.Reg() != insts.VSysFPSCR {
		c.trap(TrapSystem, raw)
		return nil
	}
	done := c.guard()
	defer done()
	st := host.X(regalloc.RegState)
	switch {
	case v.ToCore() && v.Rt() == regalloc.GuestPC:
		t := c.Alloc.AcquireGPR()
		c.Asm.Ldr(t.W(), st, regalloc.StateFPSCR, 2, false)
		c.Asm.AndImm(t.W(), t.W(), 0xF0000000)
		c.Asm.MsrNZCV(t.X())
		t.Release()
		c.FlagsModified = true
	case v.ToCore():
		c.Asm.Ldr(regalloc.Remap(v.Rt()), st, regalloc.StateFPSCR, 2, false)
	case v.Rt() == regalloc.GuestPC:
		return c.unimplemented()
	default:
		c.Asm.Str(regalloc.Remap(v.Rt()), st, regalloc.StateFPSCR, 2)
	}
	return nil
}

// NEON three-same opcodes.
const (
	neonAddSub  = 0b1000
	neonMul     = 0b1001
	neonLogical = 0b0001
	neonFloat   = 0b1101
)

// neonOp picks the host vector operation and element size.
func neonOp(v insts.NEONThreeSame) (host.Op, host.ElemSize, bool) {
	size := host.ElemSize(v.Size())
	switch v.Opc() {
	case neonAddSub:
		if v.Op() {
			return 0, 0, false
		}
		if v.U() {
			return host.OpVSUB, size, true
		}
		return host.OpVADD, size, true
	case neonMul:
		if !v.Op() || v.U() || size == host.Elem64 {
			return 0, 0, false
		}
		return host.OpVMUL, size, true
	case neonLogical:
		if !v.Op() {
			return 0, 0, false
		}
		switch {
		case !v.U() && v.Size() == 0:
			return host.OpVAND, host.Elem8, true
		case !v.U() && v.Size() == 1:
			return host.OpVBIC, host.Elem8, true
		case !v.U() && v.Size() == 2:
			return host.OpVORR, host.Elem8, true
		case v.U() && v.Size() == 0:
			return host.OpVEOR, host.Elem8, true
		}
	case neonFloat:
		if v.Size()&1 != 0 {
			return 0, 0, false
		}
		switch {
		case !v.Op() && !v.U() && v.Size() == 0:
			return host.OpVFADD, host.Elem32, true
		case !v.Op() && !v.U():
			return host.OpVFSUB, host.Elem32, true
		case v.Op() && v.U() && v.Size() == 0:
			return host.OpVFMUL, host.Elem32, true
		}
	}
	return 0, 0, false
}

// translateNEONThreeSame runs Q forms directly on the host registers. D
// forms compute into a temporary and insert the low doubleword so the
// sibling D register is preserved.
func translateNEONThreeSame(c *Context, raw uint32) error {
	v := insts.NEONThreeSame(raw)
	op, e, ok := neonOp(v)
	if !ok {
		return c.unimplemented()
	}
	done := c.guard()
	defer done()
	if v.Q() {
		if v.Vd()%2 != 0 || v.Vn()%2 != 0 || v.Vm()%2 != 0 {
			return c.unimplemented()
		}
		q := func(n uint8) host.VReg { return regalloc.RemapFP(regalloc.FPKindQ, n/2).V }
		c.Asm.Vec(op, host.Arr(e, true), q(v.Vd()), q(v.Vn()), q(v.Vm()))
		return nil
	}

	n := c.srcLane(regalloc.RemapFP(regalloc.FPKindD, v.Vn()))
	m := c.srcLane(regalloc.RemapFP(regalloc.FPKindD, v.Vm()))
	defer n.Release()
	defer m.Release()
	t := c.Alloc.AcquireVector()
	defer t.Release()
	c.Asm.Vec(op, host.Arr(e, true), t.V(), n.V(), m.V())
	c.insertLane(regalloc.RemapFP(regalloc.FPKindD, v.Vd()), t.V())
	return nil
}
