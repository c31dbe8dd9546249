package xlate

import (
	"github.com/sarchlab/armxlate/host"
	"github.com/sarchlab/armxlate/insts"
	"github.com/sarchlab/armxlate/regalloc"
)

// Traps.

func translateARMSVC(c *Context, raw uint32) error {
	c.trap(TrapSVC, insts.SVC(raw).Imm24())
	return nil
}

func translateARMBKPT(c *Context, raw uint32) error {
	c.cond = insts.CondAL
	c.trap(TrapBKPT, uint32(insts.Imm16(raw).Imm16()))
	return nil
}

func translateARMUDF(c *Context, raw uint32) error {
	c.cond = insts.CondAL
	c.trap(TrapUDF, uint32(insts.Imm16(raw).Imm16()))
	return nil
}

func translateARMCoproc(c *Context, raw uint32) error {
	c.trap(TrapCoproc, raw)
	return nil
}

func translateSystem(c *Context, raw uint32) error {
	c.trap(TrapSystem, raw)
	return nil
}

func translateT16SVC(c *Context, raw uint32) error {
	c.trap(TrapSVC, uint32(insts.T16CondBranch(raw).Imm8()))
	return nil
}

func translateT16UDF(c *Context, raw uint32) error {
	c.trap(TrapUDF, uint32(insts.T16CondBranch(raw).Imm8()))
	return nil
}

func translateT16BKPT(c *Context, raw uint32) error {
	c.cond = insts.CondAL
	c.trap(TrapBKPT, uint32(insts.T16Misc(raw).Imm8()))
	return nil
}

func translateT32UDF(c *Context, raw uint32) error {
	c.trap(TrapUDF, raw>>4&0xF000|raw&0xFFF)
	return nil
}

// Status registers.

// readFlags implements MRS Rd, APSR. Only NZCV is kept; Q and GE read as
// zero.
func (c *Context) readFlags(rd uint8, spsr bool) error {
	if spsr {
		c.trap(TrapSystem, c.raw)
		return nil
	}
	if rd == regalloc.GuestPC {
		return c.unimplemented()
	}
	done := c.guard()
	defer done()
	c.Asm.MrsNZCV(host.X(regalloc.Remap(rd).N))
	return nil
}

// writeFlags implements MSR APSR_<fields>. The GE bits are not modelled,
// so a write of only g is a no-op.
func (c *Context) writeFlags(nzcvq bool, value *regalloc.Handle) {
	defer value.Release()
	if !nzcvq {
		return
	}
	done := c.guard()
	defer done()
	t := c.Alloc.AcquireGPR()
	defer t.Release()
	c.Asm.AndImm(t.W(), value.W(), 0xF0000000)
	c.Asm.MsrNZCV(t.X())
	c.FlagsModified = true
}

// A32 MSR field mask bits.
const (
	msrFlags   = 0b1000
	msrControl = 0b0011
)

func translateARMMRS(c *Context, raw uint32) error {
	v := insts.StatusReg(raw)
	return c.readFlags(v.Rd(), v.SPSR())
}

func translateARMMSR(c *Context, raw uint32) error {
	v := insts.StatusReg(raw)
	if v.SPSR() || v.Mask()&msrControl != 0 {
		c.trap(TrapSystem, raw)
		return nil
	}
	var value *regalloc.Handle
	if v.Immediate() {
		imm, _, _ := insts.ExpandImmARM(uint8(v.Operand()>>8), uint8(v.Operand()))
		value = c.constant(imm)
	} else {
		if v.Rn() == regalloc.GuestPC {
			return c.unimplemented()
		}
		value = c.reg(v.Rn())
	}
	c.writeFlags(v.Mask()&msrFlags != 0, value)
	return nil
}

func translateT32MRS(c *Context, raw uint32) error {
	v := insts.T32SysReg(raw)
	return c.readFlags(v.Rd(), v.SPSR())
}

func translateT32MSR(c *Context, raw uint32) error {
	v := insts.T32SysReg(raw)
	if v.SPSR() {
		c.trap(TrapSystem, raw)
		return nil
	}
	if v.Rn() == regalloc.GuestPC {
		return c.unimplemented()
	}
	c.writeFlags(v.Mask()&0b10 != 0, c.reg(v.Rn()))
	return nil
}

// Barriers and hints.

func (c *Context) barrier(v insts.Barrier) error {
	switch v.Op() {
	case insts.BarrierCLREX:
		c.Asm.Clrex()
	case insts.BarrierDMB:
		c.Asm.Barrier(host.OpDMB, v.Option())
	case insts.BarrierDSB:
		if v.Option() != host.BarrierSY {
			return c.unimplemented()
		}
		c.Asm.Barrier(host.OpDSB, host.BarrierSY)
	case insts.BarrierISB:
		if v.Option() != host.BarrierSY {
			return c.unimplemented()
		}
		c.Asm.Barrier(host.OpISB, host.BarrierSY)
	default:
		return c.unimplemented()
	}
	return nil
}

func translateARMBarrier(c *Context, raw uint32) error {
	c.cond = insts.CondAL
	return c.barrier(insts.Barrier(raw))
}

func translateT32Barrier(c *Context, raw uint32) error {
	return c.barrier(insts.Barrier(raw))
}

// hint translates NOP, YIELD, WFE, WFI and SEV. The wait and event hints
// trap so the runtime can schedule.
func (c *Context) hint(op uint8) error {
	switch op {
	case insts.HintWFE, insts.HintWFI, insts.HintSEV:
		c.trap(TrapWait, uint32(op))
	}
	// NOP, YIELD and unallocated hints emit nothing.
	return nil
}

func translateARMHint(c *Context, raw uint32) error {
	if insts.Cond(raw>>28) == insts.CondNV {
		// PLD, PLI
		return nil
	}
	return c.hint(insts.Hint(raw).Op())
}

func translateT16Hint(c *Context, raw uint32) error {
	return c.hint(insts.T16Misc(raw).Imm8() >> 4)
}

func translateT32Hint(c *Context, raw uint32) error {
	if raw>>16 != 0xF3AF {
		// PLD, PLI
		return nil
	}
	return c.hint(uint8(raw))
}

// translateT16IT starts an IT block. The translator advances the state
// after each following instruction.
func translateT16IT(c *Context, raw uint32) error {
	if c.IT.Active() {
		return c.unimplemented()
	}
	c.IT = insts.T16IT(raw).State()
	return nil
}
