package xlate

import (
	"github.com/sarchlab/armxlate/host"
	"github.com/sarchlab/armxlate/regalloc"
)

// Host NZCV bit positions, as read and written by MRS/MSR.
const (
	flagN uint64 = 1 << 31
	flagZ uint64 = 1 << 30
	flagC uint64 = 1 << 29
	flagV uint64 = 1 << 28

	flagsNZ = flagN | flagZ
	flagsCV = flagC | flagV
)

// carryKind says how an operation leaves the C flag.
type carryKind uint8

const (
	carryKeep  carryKind = iota // C unchanged
	carryConst                  // C is a translation-time constant
	carryReg                    // C is bit 0 of a register
)

// carryOut describes the shifter carry of one operand.
type carryOut struct {
	kind  carryKind
	value bool     // carryConst
	reg   host.GPR // carryReg, W view holding 0 or 1
}

// flagUpdate rebuilds guest flags around a host operation whose own flag
// results are wrong for the guest: N and Z come from the result, C from
// the shifter and V is preserved.
type flagUpdate struct {
	c    *Context
	snap *regalloc.Handle
}

// beginFlags snapshots NZCV and patches the carry the operation produces.
// It must run before the host operation and after every operand has been
// resolved.
func (c *Context) beginFlags(carry carryOut) *flagUpdate {
	snap := c.Alloc.AcquireGPR()
	c.Asm.MrsNZCV(snap.X())
	switch carry.kind {
	case carryConst:
		if carry.value {
			c.Asm.OrrImm(snap.W(), snap.W(), flagC)
		} else {
			c.Asm.AndImm(snap.W(), snap.W(), ^flagC&0xFFFFFFFF)
		}
	case carryReg:
		c.Asm.Bfi(snap.W(), carry.reg.W(), 29, 1)
	}
	return &flagUpdate{c: c, snap: snap}
}

// commit derives N and Z from result, merges C and V from the snapshot and
// writes NZCV. result may be a W or an X register.
func (f *flagUpdate) commit(result host.GPR) {
	c := f.c
	c.Asm.Tst(result, result)
	t := c.Alloc.AcquireGPR()
	c.Asm.MrsNZCV(t.X())
	c.Asm.AndImm(t.W(), t.W(), flagsNZ)
	c.Asm.AndImm(f.snap.W(), f.snap.W(), flagsCV)
	c.Asm.Orr(t.W(), t.W(), f.snap.W())
	c.Asm.MsrNZCV(t.X())
	t.Release()
	f.snap.Release()
	c.FlagsModified = true
}

// nativeFlags records that a host flag-setting instruction produced the
// guest flags directly.
func (c *Context) nativeFlags() { c.FlagsModified = true }
