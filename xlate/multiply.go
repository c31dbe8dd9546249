package xlate

import (
	"github.com/sarchlab/armxlate/host"
	"github.com/sarchlab/armxlate/insts"
	"github.com/sarchlab/armxlate/regalloc"
)

func anyPC(regs ...uint8) bool {
	for _, r := range regs {
		if r == regalloc.GuestPC {
			return true
		}
	}
	return false
}

// mulAcc emits MUL, MLA or MLS. ra is ignored for MUL. The flag-setting
// forms leave C and V unchanged.
func (c *Context) mulAcc(op uint8, s bool, rd, rn, rm, ra uint8) error {
	if anyPC(rd, rn, rm) || (op != insts.MulOpMUL && ra == regalloc.GuestPC) {
		return c.unimplemented()
	}
	n := c.reg(rn)
	m := c.reg(rm)
	defer n.Release()
	defer m.Release()

	emit := func(dst host.GPR) {
		switch op {
		case insts.MulOpMLA:
			c.Asm.Madd(dst, n.W(), m.W(), regalloc.Remap(ra))
		case insts.MulOpMLS:
			c.Asm.Msub(dst, n.W(), m.W(), regalloc.Remap(ra))
		default:
			c.Asm.Mul(dst, n.W(), m.W())
		}
	}

	if s {
		done := c.guard()
		defer done()
		f := c.beginFlags(carryOut{})
		d := regalloc.Remap(rd)
		emit(d)
		f.commit(d)
		return nil
	}
	dst, commit := c.dest(rd)
	emit(dst)
	commit()
	return nil
}

func (c *Context) multiply(s bool, rd, rn, rm uint8) error {
	return c.mulAcc(insts.MulOpMUL, s, rd, rn, rm, 0)
}

// mulLong emits the 32x32->64 multiplies. The accumulator is assembled
// from RdHi:RdLo before the multiply.
func (c *Context) mulLong(signed, accumulate, s bool, rdLo, rdHi, rn, rm uint8) error {
	if anyPC(rdLo, rdHi, rn, rm) || rdLo == rdHi {
		return c.unimplemented()
	}
	done := c.guard()
	defer done()

	n := c.reg(rn)
	m := c.reg(rm)
	defer n.Release()
	defer m.Release()
	lo, hi := regalloc.Remap(rdLo), regalloc.Remap(rdHi)

	acc := host.XZR
	if accumulate {
		a := c.Alloc.AcquireGPR()
		defer a.Release()
		c.Asm.Mov(a.W(), lo)
		c.Asm.Bfi(a.X(), hi.X(), 32, 32)
		acc = a.X()
	}

	var f *flagUpdate
	if s {
		f = c.beginFlags(carryOut{})
	}
	r := c.Alloc.AcquireGPR()
	defer r.Release()
	if signed {
		c.Asm.Smaddl(r.X(), n.W(), m.W(), acc)
	} else {
		c.Asm.Umaddl(r.X(), n.W(), m.W(), acc)
	}
	if f != nil {
		f.commit(r.X())
	}
	c.Asm.Mov(lo, r.W())
	c.Asm.Lsr(hi.X(), r.X(), 32)
	return nil
}

// divide emits SDIV or UDIV. Division by zero yields zero on both sides.
func (c *Context) divide(unsigned bool, rd, rn, rm uint8) error {
	if anyPC(rd, rn, rm) {
		return c.unimplemented()
	}
	n := c.reg(rn)
	m := c.reg(rm)
	defer n.Release()
	defer m.Release()
	dst, commit := c.dest(rd)
	if unsigned {
		c.Asm.Udiv(dst, n.W(), m.W())
	} else {
		c.Asm.Sdiv(dst, n.W(), m.W())
	}
	commit()
	return nil
}

// revKind names the bit and byte reversal operations.
type revKind uint8

const (
	revCLZ revKind = iota
	revREV
	revREV16
	revRBIT
	revREVSH
)

func (c *Context) reverse(k revKind, rd, rm uint8) error {
	if anyPC(rd, rm) {
		return c.unimplemented()
	}
	m := c.reg(rm)
	defer m.Release()
	dst, commit := c.dest(rd)
	switch k {
	case revCLZ:
		c.Asm.Unary(host.OpCLZ, dst, m.W())
	case revREV:
		c.Asm.Unary(host.OpREV, dst, m.W())
	case revREV16:
		c.Asm.Unary(host.OpREV16, dst, m.W())
	case revRBIT:
		c.Asm.Unary(host.OpRBIT, dst, m.W())
	case revREVSH:
		c.Asm.Unary(host.OpREV16, dst, m.W())
		c.Asm.Sbfx(dst, dst, 0, 16)
	}
	commit()
	return nil
}

// extend emits SXTB, SXTH, UXTB, UXTH and their accumulating forms. rn is
// PC for the plain forms; rot is the rotation in bits.
func (c *Context) extend(signed, half bool, rd, rn, rm, rot uint8) error {
	if anyPC(rd, rm) {
		return c.unimplemented()
	}
	width := uint8(8)
	if half {
		width = 16
	}
	m := c.reg(rm)
	defer m.Release()
	dst, commit := c.dest(rd)
	defer commit()

	if rn != regalloc.GuestPC && rot == 0 {
		ext := host.ExtUXTB
		switch {
		case signed && half:
			ext = host.ExtSXTH
		case signed:
			ext = host.ExtSXTB
		case half:
			ext = host.ExtUXTH
		}
		n := c.reg(rn)
		c.Asm.AddExt(dst, n.W(), m.W(), ext, 0)
		n.Release()
		return nil
	}

	src, lsb := m.W(), rot
	if rot+width > 32 {
		t := c.Alloc.AcquireGPR()
		defer t.Release()
		c.Asm.Ror(t.W(), m.W(), rot)
		src, lsb = t.W(), 0
	}

	target := dst
	var t *regalloc.Handle
	if rn != regalloc.GuestPC {
		t = c.Alloc.AcquireGPR()
		defer t.Release()
		target = t.W()
	}
	if signed {
		c.Asm.Sbfx(target, src, lsb, width)
	} else {
		c.Asm.Ubfx(target, src, lsb, width)
	}
	if t != nil {
		n := c.reg(rn)
		c.Asm.AddReg(dst, n.W(), t.W(), host.ShiftLSL, 0)
		n.Release()
	}
	return nil
}

// extract emits UBFX or SBFX.
func (c *Context) extract(signed bool, rd, rn, lsb, widthM1 uint8) error {
	width := widthM1 + 1
	if anyPC(rd, rn) || int(lsb)+int(width) > 32 {
		return c.unimplemented()
	}
	n := c.reg(rn)
	defer n.Release()
	dst, commit := c.dest(rd)
	if signed {
		c.Asm.Sbfx(dst, n.W(), lsb, width)
	} else {
		c.Asm.Ubfx(dst, n.W(), lsb, width)
	}
	commit()
	return nil
}

// insertField emits BFI, or BFC when rn is PC.
func (c *Context) insertField(rd, rn, lsb, msb uint8) error {
	if rd == regalloc.GuestPC || msb < lsb {
		return c.unimplemented()
	}
	src := host.WZR
	if rn != regalloc.GuestPC {
		src = regalloc.Remap(rn)
	}
	dst, commit := c.dest(rd)
	c.Asm.Mov(dst, regalloc.Remap(rd))
	c.Asm.Bfi(dst, src, lsb, msb-lsb+1)
	commit()
	return nil
}

// moveWide emits MOVW, or MOVT when top is set.
func (c *Context) moveWide(rd uint8, imm uint16, top bool) error {
	if rd == regalloc.GuestPC {
		return c.unimplemented()
	}
	dst, commit := c.dest(rd)
	if top {
		c.Asm.Mov(dst, regalloc.Remap(rd))
		c.Asm.MovK(dst, imm, 16)
	} else {
		c.Asm.MovImm(dst, uint64(imm))
	}
	commit()
	return nil
}

// A32 handlers.

func translateARMMovW(c *Context, raw uint32) error {
	v := insts.MovWide(raw)
	return c.moveWide(v.Rd(), v.Imm16(), false)
}

func translateARMMovT(c *Context, raw uint32) error {
	v := insts.MovWide(raw)
	return c.moveWide(v.Rd(), v.Imm16(), true)
}

func translateARMMul(c *Context, raw uint32) error {
	v := insts.Mul(raw)
	switch v.Op() {
	case insts.MulOpMUL, insts.MulOpMLA:
		return c.mulAcc(v.Op(), v.S(), v.Rd(), v.Rn(), v.Rm(), v.Ra())
	case insts.MulOpMLS:
		return c.mulAcc(v.Op(), false, v.Rd(), v.Rn(), v.Rm(), v.Ra())
	}
	return c.unimplemented()
}

func translateARMMulLong(c *Context, raw uint32) error {
	v := insts.MulLong(raw)
	return c.mulLong(v.Signed(), v.Accumulate(), v.S(), v.RdLo(), v.RdHi(), v.Rn(), v.Rm())
}

func translateARMDiv(c *Context, raw uint32) error {
	v := insts.Div(raw)
	return c.divide(v.Unsigned(), v.Rd(), v.Rn(), v.Rm())
}

func translateARMCLZ(c *Context, raw uint32) error {
	v := insts.RdRm(raw)
	return c.reverse(revCLZ, v.Rd(), v.Rm())
}

func translateARMRev(c *Context, raw uint32) error {
	v := insts.RdRm(raw)
	switch v.Op() {
	case insts.RdRmREV:
		return c.reverse(revREV, v.Rd(), v.Rm())
	case insts.RdRmREV16:
		return c.reverse(revREV16, v.Rd(), v.Rm())
	case insts.RdRmRBIT:
		return c.reverse(revRBIT, v.Rd(), v.Rm())
	case insts.RdRmREVSH:
		return c.reverse(revREVSH, v.Rd(), v.Rm())
	}
	return c.unimplemented()
}

func translateARMExtend(c *Context, raw uint32) error {
	v := insts.Extend(raw)
	switch v.Op() {
	case insts.ExtendByte:
		return c.extend(!v.Unsigned(), false, v.Rd(), v.Rn(), v.Rm(), v.Rotation())
	case insts.ExtendHalf:
		return c.extend(!v.Unsigned(), true, v.Rd(), v.Rn(), v.Rm(), v.Rotation())
	}
	// SXTB16 and friends have no single host equivalent.
	return c.unimplemented()
}

func translateARMBitfield(c *Context, raw uint32) error {
	v := insts.Bitfield(raw)
	switch v.Op() {
	case insts.BitfieldSBFX:
		return c.extract(true, v.Rd(), v.Rn(), v.Lsb(), v.WidthM1())
	case insts.BitfieldUBFX:
		return c.extract(false, v.Rd(), v.Rn(), v.Lsb(), v.WidthM1())
	case insts.BitfieldBFI:
		return c.insertField(v.Rd(), v.Rn(), v.Lsb(), v.Msb())
	}
	return c.unimplemented()
}

// Thumb handlers.

func translateT16Extend(c *Context, raw uint32) error {
	v := insts.T16ExtRev(raw)
	switch v.Op() {
	case 0:
		return c.extend(true, true, v.Rd(), regalloc.GuestPC, v.Rm(), 0)
	case 1:
		return c.extend(true, false, v.Rd(), regalloc.GuestPC, v.Rm(), 0)
	case 2:
		return c.extend(false, true, v.Rd(), regalloc.GuestPC, v.Rm(), 0)
	default:
		return c.extend(false, false, v.Rd(), regalloc.GuestPC, v.Rm(), 0)
	}
}

func translateT16Rev(c *Context, raw uint32) error {
	v := insts.T16ExtRev(raw)
	switch v.Op() {
	case 0:
		return c.reverse(revREV, v.Rd(), v.Rm())
	case 1:
		return c.reverse(revREV16, v.Rd(), v.Rm())
	case 3:
		return c.reverse(revREVSH, v.Rd(), v.Rm())
	}
	return c.unimplemented()
}

func translateT32Bitfield(c *Context, raw uint32) error {
	v := insts.T32PlainImm(raw)
	switch v.Op() {
	case insts.T32PlainSBFX:
		return c.extract(true, v.Rd(), v.Rn(), v.Lsb(), v.Msb())
	case insts.T32PlainUBFX:
		return c.extract(false, v.Rd(), v.Rn(), v.Lsb(), v.Msb())
	case insts.T32PlainBFI:
		return c.insertField(v.Rd(), v.Rn(), v.Lsb(), v.Msb())
	}
	return c.unimplemented()
}

func translateT32Extend(c *Context, raw uint32) error {
	v := insts.T32RegOp(raw)
	switch v.Op1() & 7 {
	case 0:
		return c.extend(true, true, v.Rd(), v.Rn(), v.Rm(), v.Rotation())
	case 1:
		return c.extend(false, true, v.Rd(), v.Rn(), v.Rm(), v.Rotation())
	case 4:
		return c.extend(true, false, v.Rd(), v.Rn(), v.Rm(), v.Rotation())
	case 5:
		return c.extend(false, false, v.Rd(), v.Rn(), v.Rm(), v.Rotation())
	}
	return c.unimplemented()
}

func translateT32Misc(c *Context, raw uint32) error {
	v := insts.T32RegOp(raw)
	switch v.Op1() & 7 {
	case 1:
		k := [...]revKind{revREV, revREV16, revRBIT, revREVSH}[v.Op2()&3]
		return c.reverse(k, v.Rd(), v.Rm())
	case 3:
		return c.reverse(revCLZ, v.Rd(), v.Rm())
	}
	return c.unimplemented()
}

func translateT32Mul(c *Context, raw uint32) error {
	v := insts.T32Mul(raw)
	switch {
	case v.Op2() == 0 && v.Ra() == regalloc.GuestPC:
		return c.mulAcc(insts.MulOpMUL, false, v.Rd(), v.Rn(), v.Rm(), 0)
	case v.Op2() == 0:
		return c.mulAcc(insts.MulOpMLA, false, v.Rd(), v.Rn(), v.Rm(), v.Ra())
	case v.Op2() == 1:
		return c.mulAcc(insts.MulOpMLS, false, v.Rd(), v.Rn(), v.Rm(), v.Ra())
	}
	return c.unimplemented()
}

func translateT32MulLong(c *Context, raw uint32) error {
	v := insts.T32MulLong(raw)
	switch v.Op1() {
	case insts.T32LongSMULL:
		return c.mulLong(true, false, false, v.RdLo(), v.RdHi(), v.Rn(), v.Rm())
	case insts.T32LongUMULL:
		return c.mulLong(false, false, false, v.RdLo(), v.RdHi(), v.Rn(), v.Rm())
	case insts.T32LongSMLAL:
		return c.mulLong(true, true, false, v.RdLo(), v.RdHi(), v.Rn(), v.Rm())
	case insts.T32LongUMLAL:
		return c.mulLong(false, true, false, v.RdLo(), v.RdHi(), v.Rn(), v.Rm())
	}
	return c.unimplemented()
}

func translateT32Div(c *Context, raw uint32) error {
	v := insts.T32MulLong(raw)
	return c.divide(v.Op1() == insts.T32LongUDIV, v.RdHi(), v.Rn(), v.Rm())
}
