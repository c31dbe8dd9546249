package xlate

import (
	"github.com/sarchlab/armxlate/host"
	"github.com/sarchlab/armxlate/insts"
	"github.com/sarchlab/armxlate/regalloc"
)

func (c *Context) relative(off int32) uint32 { return c.ReadPC() + uint32(off) }

// returnAddress is the link value of a call from the current instruction.
func (c *Context) returnAddress() uint32 { return c.NextPC() | c.thumbBit() }

// branchReg leaves the block for the address in guest register rm, whose
// bit 0 selects the instruction set.
func (c *Context) branchReg(rm uint8, link bool) error {
	done := c.guard()
	defer done()
	target := c.reg(rm)
	defer target.Release()
	if link {
		c.Asm.Mov(host.W(regalloc.RegExit), target.W())
		c.Asm.MovImm(regalloc.Remap(regalloc.GuestLR), uint64(c.returnAddress()))
		c.exit()
		return nil
	}
	c.exitReg(target.W())
	return nil
}

func translateARMBranch(c *Context, raw uint32) error {
	v := insts.Branch(raw)
	c.branchTo(c.relative(v.Offset()), false, c.returnAddress(), v.L())
	return nil
}

// translateARMBLXImm is BLX to a Thumb target.
func translateARMBLXImm(c *Context, raw uint32) error {
	v := insts.Branch(raw)
	c.branchTo(c.relative(v.Offset()), true, c.returnAddress(), true)
	return nil
}

func translateARMBranchReg(c *Context, raw uint32) error {
	v := insts.BranchReg(raw)
	return c.branchReg(v.Rm(), v.Link())
}

func translateT16BranchReg(c *Context, raw uint32) error {
	v := insts.T16HiReg(raw)
	if v.Link() && v.Rm() == regalloc.GuestPC {
		return c.unimplemented()
	}
	return c.branchReg(v.Rm(), v.Link())
}

func translateT16CondBranch(c *Context, raw uint32) error {
	v := insts.T16CondBranch(raw)
	c.cond = v.Cond()
	c.branchTo(c.relative(v.Offset()), true, 0, false)
	return nil
}

func translateT16Branch(c *Context, raw uint32) error {
	v := insts.T16Branch(raw)
	c.branchTo(c.relative(v.Offset()), true, 0, false)
	return nil
}

// translateT16CBZ ends the block on both outcomes without touching flags.
func translateT16CBZ(c *Context, raw uint32) error {
	v := insts.T16CBZ(raw)
	if c.IT.Active() {
		return c.unimplemented()
	}
	exit := host.W(regalloc.RegExit)
	taken := c.Asm.NewLabel()
	c.Asm.MovImm(exit, uint64(c.ReadPC()+v.Offset()|1))
	if v.NonZero() {
		c.Asm.Cbnz(regalloc.Remap(v.Rn()), taken)
	} else {
		c.Asm.Cbz(regalloc.Remap(v.Rn()), taken)
	}
	c.Asm.MovImm(exit, uint64(c.NextPC()|1))
	c.Asm.Bind(taken)
	c.exit()
	return nil
}

func translateT32BL(c *Context, raw uint32) error {
	v := insts.T32Branch(raw)
	if v.Thumb() {
		c.branchTo(c.relative(v.Offset()), true, c.returnAddress(), true)
		return nil
	}
	target := c.alignedPC() + uint32(v.Offset())
	c.branchTo(target, false, c.returnAddress(), true)
	return nil
}

func translateT32Branch(c *Context, raw uint32) error {
	v := insts.T32Branch(raw)
	c.branchTo(c.relative(v.Offset()), true, 0, false)
	return nil
}

func translateT32CondBranch(c *Context, raw uint32) error {
	v := insts.T32Branch(raw)
	if c.IT.Active() {
		return c.unimplemented()
	}
	c.cond = v.Cond()
	c.branchTo(c.relative(v.CondOffset()), true, 0, false)
	return nil
}
