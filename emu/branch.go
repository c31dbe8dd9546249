package emu

import "github.com/sarchlab/armxlate/host"

// BranchUnit evaluates conditions and branch outcomes. Targets are
// instruction indices inside the running sequence, so the unit only
// decides whether a branch is taken and leaves the index arithmetic to the
// Machine.
type BranchUnit struct {
	regFile *RegFile
}

// NewBranchUnit creates a new BranchUnit connected to the given register file.
func NewBranchUnit(regFile *RegFile) *BranchUnit {
	return &BranchUnit{regFile: regFile}
}

// Taken reports whether a B, B.cond, CBZ or CBNZ transfers control.
func (b *BranchUnit) Taken(in host.Inst) bool {
	switch in.Op {
	case host.OpBCond:
		return b.CheckCondition(in.Cond)
	case host.OpCBZ:
		return b.regFile.readWidth(in.Rd, in.Sf) == 0
	case host.OpCBNZ:
		return b.regFile.readWidth(in.Rd, in.Sf) != 0
	}
	return true
}

// CheckCondition evaluates a host condition code against PSTATE.
func (b *BranchUnit) CheckCondition(cond host.Cond) bool {
	f := b.regFile.PSTATE
	var ok bool
	switch cond &^ 1 {
	case host.CondEQ:
		ok = f.Z
	case host.CondCS:
		ok = f.C
	case host.CondMI:
		ok = f.N
	case host.CondVS:
		ok = f.V
	case host.CondHI:
		ok = f.C && !f.Z
	case host.CondGE:
		ok = f.N == f.V
	case host.CondGT:
		ok = !f.Z && f.N == f.V
	default:
		// AL and NV
		return true
	}
	if cond&1 != 0 {
		return !ok
	}
	return ok
}
