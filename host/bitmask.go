package host

import "math/bits"

// EncodeBitmask reports whether v can be expressed as an ARM64 logical
// immediate and returns the N, immr and imms fields when it can.
//
// A logical immediate is an element of 2, 4, 8, 16, 32 or 64 bits holding a
// rotated run of ones, replicated across the register.
func EncodeBitmask(v uint64, is64 bool) (n, immr, imms uint32, ok bool) {
	if !is64 {
		v = v&0xFFFFFFFF | v<<32
	}
	if v == 0 || v == ^uint64(0) {
		return 0, 0, 0, false
	}

	size := uint32(64)
	for size > 2 {
		half := size / 2
		mask := uint64(1)<<half - 1
		if v&mask != (v>>half)&mask {
			break
		}
		size = half
	}

	mask := ^uint64(0) >> (64 - size)
	elem := v & mask
	ones := uint32(bits.OnesCount64(elem))
	run := uint64(1)<<ones - 1

	for r := uint32(0); r < size; r++ {
		if rotateRight(run, r, size, mask) == elem {
			immr = r
			imms = (^(size-1)<<1)&0x3F | (ones - 1)
			if size == 64 {
				n = 1
			}
			return n, immr, imms, true
		}
	}
	return 0, 0, 0, false
}

// DecodeBitmask expands logical-immediate fields into the register value.
func DecodeBitmask(n, immr, imms uint32, is64 bool) uint64 {
	var size uint32
	if n == 1 {
		size = 64
	} else {
		size = 32
		for size > 2 && imms&size != 0 {
			size >>= 1
		}
	}
	mask := ^uint64(0) >> (64 - size)
	ones := imms&(size-1) + 1
	elem := rotateRight(uint64(1)<<ones-1, immr&(size-1), size, mask)

	v := elem
	for w := size; w < 64; w *= 2 {
		v |= v << w
	}
	if !is64 {
		v &= 0xFFFFFFFF
	}
	return v
}

func rotateRight(x uint64, r, size uint32, mask uint64) uint64 {
	if r == 0 {
		return x & mask
	}
	return (x>>r | x<<(size-r)) & mask
}
