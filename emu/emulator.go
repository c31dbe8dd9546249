package emu

import (
	"errors"
	"fmt"

	"github.com/sarchlab/armxlate/host"
)

// ExitReason says why a Machine stopped.
type ExitReason int

// Exit reasons.
const (
	ExitNone   ExitReason = iota // still running
	ExitReturn                   // RET: the block handed control back
	ExitBreak                    // BRK: a trap placeholder fired
	ExitBranch                   // BR: an indirect exit through a register
)

func (r ExitReason) String() string {
	switch r {
	case ExitReturn:
		return "return"
	case ExitBreak:
		return "break"
	case ExitBranch:
		return "branch"
	}
	return "none"
}

// ErrMaxInstructions is returned when the instruction limit is reached.
var ErrMaxInstructions = errors.New("emu: max instructions reached")

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Reason is ExitNone while the sequence keeps running.
	Reason ExitReason

	// BreakImm is the BRK immediate when Reason is ExitBreak.
	BreakImm uint16

	// Target is the register value of RET or BR.
	Target uint64

	// Err is set if an error occurred during execution.
	Err error
}

// Done reports whether execution stopped.
func (r StepResult) Done() bool { return r.Reason != ExitNone || r.Err != nil }

// Machine executes structured ARM64 host instructions functionally.
type Machine struct {
	regFile     *RegFile
	simdRegFile *SIMDRegFile
	memory      *Memory

	// Execution units
	alu        *ALU
	lsu        *LoadStoreUnit
	branchUnit *BranchUnit
	simdUnit   *SIMD

	program []host.Inst
	pc      int

	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// MachineOption is a functional option for configuring the Machine.
type MachineOption func(*Machine)

// WithMemory makes the machine use an existing memory.
func WithMemory(m *Memory) MachineOption {
	return func(e *Machine) {
		e.memory = m
	}
}

// WithStackPointer sets the initial stack pointer value.
func WithStackPointer(sp uint64) MachineOption {
	return func(e *Machine) {
		e.regFile.SP = sp
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) MachineOption {
	return func(e *Machine) {
		e.maxInstructions = max
	}
}

// NewMachine creates a new host machine.
func NewMachine(opts ...MachineOption) *Machine {
	e := &Machine{
		regFile:     &RegFile{},
		simdRegFile: NewSIMDRegFile(),
		memory:      nil,
	}

	for _, opt := range opts {
		opt(e)
	}
	if e.memory == nil {
		e.memory = NewMemory()
	}

	e.alu = NewALU(e.regFile)
	e.lsu = NewLoadStoreUnit(e.regFile, e.memory)
	e.branchUnit = NewBranchUnit(e.regFile)
	e.simdUnit = NewSIMD(e.simdRegFile, e.regFile, e.lsu)

	return e
}

// RegFile returns the machine's register file.
func (e *Machine) RegFile() *RegFile {
	return e.regFile
}

// SIMDRegFile returns the machine's SIMD register file.
func (e *Machine) SIMDRegFile() *SIMDRegFile {
	return e.simdRegFile
}

// Memory returns the machine's memory.
func (e *Machine) Memory() *Memory {
	return e.memory
}

// InstructionCount returns the number of instructions executed.
func (e *Machine) InstructionCount() uint64 {
	return e.instructionCount
}

// Reserved reports whether an exclusive reservation is held.
func (e *Machine) Reserved() bool {
	return e.lsu.Reserved()
}

// Load installs a host instruction sequence and points execution at its
// first instruction. Registers and memory are kept.
func (e *Machine) Load(program []host.Inst) {
	e.program = program
	e.pc = 0
}

// PC returns the index of the next instruction.
func (e *Machine) PC() int {
	return e.pc
}

// Step executes a single instruction.
func (e *Machine) Step() StepResult {
	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{Err: ErrMaxInstructions}
	}
	if e.pc < 0 || e.pc >= len(e.program) {
		return StepResult{Err: fmt.Errorf("emu: execution left the sequence at index %d", e.pc)}
	}

	in := e.program[e.pc]
	result := e.execute(in)
	e.instructionCount++
	return result
}

// Run executes program from its first instruction until it returns,
// traps, branches out or fails.
func (e *Machine) Run(program []host.Inst) StepResult {
	e.Load(program)
	for {
		result := e.Step()
		if result.Done() {
			return result
		}
	}
}

// execute dispatches one instruction to its execution unit.
func (e *Machine) execute(in host.Inst) StepResult {
	switch in.Op {
	case host.OpB, host.OpBCond, host.OpCBZ, host.OpCBNZ:
		if e.branchUnit.Taken(in) {
			e.pc += int(in.Imm)
		} else {
			e.pc++
		}
		return StepResult{}
	case host.OpRET:
		return StepResult{Reason: ExitReturn, Target: e.regFile.ReadReg(in.Rn)}
	case host.OpBR:
		return StepResult{Reason: ExitBranch, Target: e.regFile.ReadReg(in.Rn)}
	case host.OpBRK:
		return StepResult{Reason: ExitBreak, BreakImm: uint16(in.Imm)}
	}

	switch in.Op {
	case host.OpADDImm, host.OpSUBImm:
		e.alu.AddSubImm(in)
	case host.OpADDReg, host.OpSUBReg:
		e.alu.AddSubReg(in)
	case host.OpADDExt, host.OpSUBExt:
		e.alu.AddSubExt(in)
	case host.OpADC, host.OpSBC:
		e.alu.AddSubCarry(in)
	case host.OpAND, host.OpBIC, host.OpORR, host.OpORN, host.OpEOR, host.OpEON:
		e.alu.Logical(in)
	case host.OpANDImm, host.OpORRImm, host.OpEORImm:
		e.alu.LogicalImm(in)
	case host.OpMOVZ, host.OpMOVN, host.OpMOVK:
		e.alu.MoveWide(in)
	case host.OpLSLV, host.OpLSRV, host.OpASRV, host.OpRORV:
		e.alu.ShiftVar(in)
	case host.OpUBFM, host.OpSBFM, host.OpBFM:
		e.alu.Bitfield(in)
	case host.OpEXTR:
		e.alu.Extract(in)
	case host.OpMADD, host.OpMSUB:
		e.alu.MulAdd(in)
	case host.OpUMADDL, host.OpSMADDL:
		e.alu.MulLong(in)
	case host.OpUDIV, host.OpSDIV:
		e.alu.Divide(in)
	case host.OpCLZ, host.OpRBIT, host.OpREV, host.OpREV16:
		e.alu.Unary(in)
	case host.OpCSEL, host.OpCSINC, host.OpCSINV, host.OpCSNEG:
		e.alu.CondSelect(in, e.branchUnit.CheckCondition(in.Cond))
	case host.OpMRS:
		e.alu.ReadFlags(in)
	case host.OpMSR:
		e.alu.WriteFlags(in)
	case host.OpNOP, host.OpDMB, host.OpDSB, host.OpISB:
	case host.OpLDR, host.OpSTR, host.OpLDUR, host.OpSTUR, host.OpLDRReg, host.OpSTRReg:
		e.lsu.LoadStore(in)
	case host.OpLDP, host.OpSTP:
		e.lsu.Pair(in)
	case host.OpLDXR, host.OpLDAXR, host.OpLDAR, host.OpSTXR, host.OpSTLXR, host.OpSTLR:
		e.lsu.Exclusive(in)
	case host.OpLDXP, host.OpLDAXP, host.OpSTXP, host.OpSTLXP:
		e.lsu.ExclusivePair(in)
	case host.OpCLREX:
		e.lsu.ClearExclusive()
	case host.OpFADD, host.OpFSUB, host.OpFMUL, host.OpFDIV, host.OpFNMUL:
		e.simdUnit.FArith(in)
	case host.OpFMOV, host.OpFABS, host.OpFNEG, host.OpFSQRT:
		e.simdUnit.FUnary(in)
	case host.OpFCMP:
		e.simdUnit.FCmp(in)
	case host.OpFCVT:
		e.simdUnit.FCvt(in)
	case host.OpFCVTZS, host.OpFCVTZU:
		e.simdUnit.FToInt(in)
	case host.OpSCVTF, host.OpUCVTF:
		e.simdUnit.IntToF(in)
	case host.OpFMOVToGPR, host.OpFMOVFromGPR:
		e.simdUnit.FMov(in)
	case host.OpLDRFP, host.OpSTRFP, host.OpLDURFP, host.OpSTURFP:
		e.simdUnit.LoadStore(in)
	case host.OpDUPElem, host.OpINSElem, host.OpINSGPR, host.OpUMOV, host.OpLD1Lane, host.OpST1Lane:
		e.simdUnit.Lane(in)
	case host.OpVADD, host.OpVSUB, host.OpVMUL, host.OpVAND, host.OpVORR, host.OpVEOR,
		host.OpVBIC, host.OpVFADD, host.OpVFSUB, host.OpVFMUL:
		e.simdUnit.Vector(in)
	default:
		return StepResult{Err: fmt.Errorf("emu: unimplemented op %s at index %d", in.Op, e.pc)}
	}

	e.pc++
	return StepResult{}
}
