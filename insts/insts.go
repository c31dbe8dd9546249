// Package insts provides A32 and Thumb instruction definitions and decoding.
//
// This package classifies guest machine code into a closed set of
// instruction kinds and exposes typed, zero-cost field views over the raw
// encodings. It covers:
//   - A32 data processing, multiply, divide, bitfield and media instructions
//   - A32 loads and stores, exclusives, block transfers and branches
//   - VFP data processing, register moves and transfers, NEON three-same
//   - Thumb 16-bit and Thumb-2 32-bit encodings
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	kind := decoder.DecodeARM(0xE2810005) // ADD r0, r1, #5
//	v := insts.DPImm(0xE2810005)
//	fmt.Printf("%v rd=%d rn=%d imm=%d\n", kind, v.Rd(), v.Rn(), v.Imm32())
package insts
