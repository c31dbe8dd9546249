package xlate

import (
	"github.com/sarchlab/armxlate/host"
	"github.com/sarchlab/armxlate/insts"
	"github.com/sarchlab/armxlate/regalloc"
)

// operand is a resolved flexible second operand: an immediate or a
// register with an optional host-encodable shift, plus the shifter carry.
type operand struct {
	imm   uint32
	isImm bool

	reg    host.GPR
	shift  host.Shift
	amount uint8

	carry carryOut
	temps []*regalloc.Handle
}

func (o *operand) hold(h *regalloc.Handle) *regalloc.Handle {
	o.temps = append(o.temps, h)
	return h
}

func (o *operand) release() {
	for _, h := range o.temps {
		h.Release()
	}
	o.temps = nil
}

// materialize turns an immediate operand into a plain register.
func (o *operand) materialize(c *Context) {
	if !o.isImm {
		return
	}
	o.isImm = false
	o.shift, o.amount = host.ShiftLSL, 0
	if o.imm == 0 {
		o.reg = host.WZR
		return
	}
	o.reg = o.hold(c.constant(o.imm)).W()
}

// plain returns the operand value in a register with no shift applied.
func (o *operand) plain(c *Context) host.GPR {
	o.materialize(c)
	if o.amount == 0 && o.shift == host.ShiftLSL {
		return o.reg
	}
	t := o.hold(c.Alloc.AcquireGPR())
	c.Asm.Logical(host.OpORR, false, t.W(), host.WZR, o.reg, o.shift, o.amount)
	o.reg, o.shift, o.amount = t.W(), host.ShiftLSL, 0
	return o.reg
}

// noRotate replaces a rotated register with its rotated value, since the
// host's arithmetic forms cannot rotate.
func (o *operand) noRotate(c *Context) {
	if o.isImm || o.shift != host.ShiftROR {
		return
	}
	t := o.hold(c.Alloc.AcquireGPR())
	c.Asm.Ror(t.W(), o.reg, o.amount)
	o.reg, o.shift, o.amount = t.W(), host.ShiftLSL, 0
}

// immOperand wraps a constant. carry is the shifter carry of a modified
// immediate.
func immOperand(v uint32, carry, carrySet bool) *operand {
	o := &operand{imm: v, isImm: true}
	if carrySet {
		o.carry = carryOut{kind: carryConst, value: carry}
	}
	return o
}

// armImm expands an A32 modified immediate.
func armImm(rotate, imm8 uint8) *operand {
	return immOperand(insts.ExpandImmARM(rotate, imm8))
}

// thumbImm expands a Thumb-2 modified immediate.
func thumbImm(imm12 uint16) *operand {
	return immOperand(insts.ExpandImmThumb(imm12))
}

// shiftedOperand resolves register rm shifted by a constant. t and amt are
// the effective shift as returned by insts.DecodeImmShift. The carry is
// only computed when needCarry is set.
func (c *Context) shiftedOperand(rm uint8, t insts.ShiftType, amt uint8, needCarry bool) *operand {
	o := &operand{shift: host.ShiftLSL}
	r := o.hold(c.reg(rm)).W()
	if needCarry {
		o.carry = c.immShiftCarry(o, r, t, amt)
	}

	switch {
	case t == insts.ShiftRRX:
		tmp := o.hold(c.Alloc.AcquireGPR())
		c.Asm.Cset(tmp.W(), host.CondCS)
		c.Asm.Extr(tmp.W(), tmp.W(), r, 1)
		o.reg = tmp.W()
	case amt == 0:
		o.reg = r
	case t == insts.ShiftLSR && amt == 32:
		o.reg = host.WZR
	case t == insts.ShiftASR && amt == 32:
		o.reg, o.shift, o.amount = r, host.ShiftASR, 31
	default:
		o.reg, o.shift, o.amount = r, host.Shift(t), amt
	}
	return o
}

func (c *Context) immShiftCarry(o *operand, r host.GPR, t insts.ShiftType, amt uint8) carryOut {
	bit := func(pos uint8) carryOut {
		h := o.hold(c.Alloc.AcquireGPR())
		c.Asm.Ubfx(h.W(), r, pos, 1)
		return carryOut{kind: carryReg, reg: h.W()}
	}
	switch t {
	case insts.ShiftLSL:
		if amt == 0 {
			return carryOut{}
		}
		return bit(32 - amt)
	case insts.ShiftRRX:
		return bit(0)
	}
	return bit(amt - 1)
}

// regShiftOperand resolves rm shifted by the bottom byte of rs. Amounts of
// 32 and above follow the A32 rules; an amount of zero keeps the carry.
func (c *Context) regShiftOperand(rm, rs uint8, t insts.ShiftType, needCarry bool) *operand {
	o := &operand{shift: host.ShiftLSL}
	src := c.reg(rm)
	sh := c.reg(rs)
	defer src.Release()
	defer sh.Release()

	v := o.hold(c.Alloc.AcquireGPR())
	o.reg = v.W()
	a := c.Alloc.AcquireGPR()
	defer a.Release()
	c.Asm.AndImm(a.W(), sh.W(), 0xFF)

	if t == insts.ShiftROR && !needCarry {
		c.Asm.ShiftVar(host.OpRORV, v.W(), src.W(), a.W())
		return o
	}

	saved := c.Alloc.AcquireGPR()
	defer saved.Release()
	c.Asm.MrsNZCV(saved.X())

	if t != insts.ShiftROR {
		limit := uint32(33)
		if t == insts.ShiftASR {
			limit = 32
		}
		k := c.Alloc.AcquireGPR()
		c.Asm.CmpImm(a.W(), limit)
		c.Asm.MovImm(k.W(), uint64(limit))
		c.Asm.Csel(a.W(), a.W(), k.W(), host.CondCC)
		k.Release()
	}

	var signed *regalloc.Handle
	switch t {
	case insts.ShiftLSL:
		c.Asm.ShiftVar(host.OpLSLV, v.X(), src.X(), a.X())
	case insts.ShiftLSR:
		c.Asm.ShiftVar(host.OpLSRV, v.X(), src.X(), a.X())
	case insts.ShiftASR:
		signed = c.Alloc.AcquireGPR()
		defer signed.Release()
		c.Asm.Sbfm(signed.X(), src.X(), 0, 31)
		c.Asm.ShiftVar(host.OpASRV, v.X(), signed.X(), a.X())
	default:
		c.Asm.ShiftVar(host.OpRORV, v.W(), src.W(), a.W())
	}

	if needCarry {
		cw := o.hold(c.Alloc.AcquireGPR())
		switch t {
		case insts.ShiftLSL:
			c.Asm.Ubfx(cw.X(), v.X(), 32, 1)
		case insts.ShiftLSR:
			c.Asm.Lsl(cw.X(), src.X(), 1)
			c.Asm.ShiftVar(host.OpLSRV, cw.X(), cw.X(), a.X())
			c.Asm.AndImm(cw.W(), cw.W(), 1)
		case insts.ShiftASR:
			c.Asm.Lsl(cw.X(), signed.X(), 1)
			c.Asm.ShiftVar(host.OpASRV, cw.X(), cw.X(), a.X())
			c.Asm.AndImm(cw.W(), cw.W(), 1)
		default:
			c.Asm.Lsr(cw.W(), v.W(), 31)
		}
		old := c.Alloc.AcquireGPR()
		c.Asm.Ubfx(old.W(), saved.W(), 29, 1)
		c.Asm.CmpImm(a.W(), 0)
		c.Asm.Csel(cw.W(), old.W(), cw.W(), host.CondEQ)
		old.Release()
		o.carry = carryOut{kind: carryReg, reg: cw.W()}
	}

	c.Asm.MsrNZCV(saved.X())
	return o
}
