package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/sarchlab/armxlate/cache"
	"github.com/sarchlab/armxlate/emu"
	"github.com/sarchlab/armxlate/regalloc"
	"github.com/sarchlab/armxlate/xlate"
)

// Host layout of an executed guest.
const (
	memBase   = 0x1_0000_0000
	stateBase = 0x2_0000_0000
	tableBase = 0x3_0000_0000

	stackPages   = 16
	maxHostInsts = 1 << 20
)

// haltAddr is the initial guest link register.
const haltAddr = 0

var errStrayBranch = errors.New("block left through a register branch")

// outcome describes how an executed block exited.
type outcome struct {
	PC      uint32
	Thumb   bool
	Trapped bool
	Trap    uint16
	TrapArg uint32
}

// execute runs one translated block on m and decodes its exit state.
func execute(m *emu.Machine, b *xlate.Block) (outcome, error) {
	res := m.Run(b.Insts)
	if res.Err != nil {
		return outcome{}, fmt.Errorf("block 0x%08x: %w", b.GuestPC, res.Err)
	}
	if res.Reason == emu.ExitBranch {
		return outcome{}, errStrayBranch
	}

	next := uint32(m.RegFile().ReadReg(regalloc.RegExit))
	out := outcome{PC: next &^ 1, Thumb: next&1 != 0}
	if res.Reason == emu.ExitBreak {
		out.Trapped = true
		out.Trap = res.BreakImm
		out.TrapArg = m.Memory().Read32(stateBase + regalloc.StateTrapArg)
	}
	return out, nil
}

// prepare loads the guest into a fresh machine and sets up the entry state
// for the translator's memory policy.
func prepare(src *guestProgram, policy xlate.Policy, pageShift uint8) *emu.Machine {
	m := emu.NewMachine(emu.WithMaxInstructions(maxHostInsts))
	mem := m.Memory()
	rf := m.RegFile()

	var sp uint32
	var ranges [][2]uint32
	if src.elf != nil {
		src.elf.LoadInto(mem, memBase)
		sp = src.elf.InitialSP
		for _, seg := range src.elf.Segments {
			ranges = append(ranges, [2]uint32{seg.VirtAddr, seg.MemSize})
		}
	} else {
		mem.WriteBytes(memBase+uint64(src.base), src.data)
		sp = src.base
		ranges = append(ranges, [2]uint32{src.base, uint32(len(src.data))})
	}
	stack := uint32(stackPages) << pageShift
	if stack > sp {
		stack = sp
	}
	ranges = append(ranges, [2]uint32{sp - stack, stack})

	rf.WriteReg(regalloc.RegState, stateBase)
	rf.WriteReg(regalloc.GuestSP, uint64(sp))
	rf.WriteReg(regalloc.GuestLR, haltAddr)

	if policy == xlate.PolicyDirect {
		rf.WriteReg(regalloc.RegMemBase, memBase)
		return m
	}

	// Identity-map every page a range touches so guest page p lives at
	// memBase + p<<pageShift, the same place LoadInto wrote it.
	rf.WriteReg(regalloc.RegMemBase, tableBase)
	for _, r := range ranges {
		first := uint64(r[0]) >> pageShift
		last := (uint64(r[0]) + uint64(r[1]) + 1<<pageShift - 1) >> pageShift
		for p := first; p < last; p++ {
			mem.Write64(tableBase+8*p, memBase+p<<pageShift)
		}
	}
	return m
}

// runProgram executes the entry block, taken from the block cache, and
// prints where it exited.
func runProgram(
	bc *cache.BlockCache,
	src *guestProgram,
	entry xlate.Start,
	policy xlate.Policy,
	pageShift uint8,
	logger *slog.Logger,
) int {
	b, ok := bc.Lookup(entry.PC, entry.Thumb)
	if !ok {
		fmt.Fprintf(os.Stderr, "Entry block 0x%08x is not cached\n", entry.PC)
		return 1
	}

	m := prepare(src, policy, pageShift)
	out, err := execute(m, b)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Execution error: %v\n", err)
		return 1
	}
	logger.Debug("block executed", "pc", fmt.Sprintf("0x%08x", b.GuestPC),
		"host_insts", m.InstructionCount())

	if out.Trapped {
		fmt.Printf("Trap: kind=%d arg=0x%x pc=0x%08x thumb=%v\n", out.Trap, out.TrapArg, out.PC, out.Thumb)
	} else {
		fmt.Printf("Exit: pc=0x%08x thumb=%v\n", out.PC, out.Thumb)
	}
	rf := m.RegFile()
	for r := uint8(0); r < 15; r++ {
		fmt.Printf("  r%-2d = 0x%08x\n", r, rf.ReadReg32(r))
	}
	return 0
}
