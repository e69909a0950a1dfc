package gtype

// Int128 is a 128-bit signed integer represented as two 64-bit halves.
// It exists because INT128 is a supported physical kind (spec.md §3) and
// the integer-bitpacking codec needs a width-dispatched fast path for it
// (spec.md §4.2).
type Int128 struct {
	Hi int64
	Lo uint64
}

func Int128FromInt64(v int64) Int128 {
	hi := int64(0)
	if v < 0 {
		hi = -1
	}
	return Int128{Hi: hi, Lo: uint64(v)}
}

// Sub returns a-b using 128-bit two's complement arithmetic.
func (a Int128) Sub(b Int128) Int128 {
	lo := a.Lo - b.Lo
	borrow := uint64(0)
	if a.Lo < b.Lo {
		borrow = 1
	}
	return Int128{Hi: a.Hi - b.Hi - int64(borrow), Lo: lo}
}

// Add returns a+b using 128-bit two's complement arithmetic.
func (a Int128) Add(b Int128) Int128 {
	lo := a.Lo + b.Lo
	carry := uint64(0)
	if lo < a.Lo {
		carry = 1
	}
	return Int128{Hi: a.Hi + b.Hi + int64(carry), Lo: lo}
}

func (a Int128) Less(b Int128) bool {
	if a.Hi != b.Hi {
		return a.Hi < b.Hi
	}
	return a.Lo < b.Lo
}

func (a Int128) Equal(b Int128) bool {
	return a.Hi == b.Hi && a.Lo == b.Lo
}

// BitLen returns the number of bits required to represent a non-negative
// Int128 value (caller is responsible for ensuring non-negativity, which
// integer bitpacking guarantees by subtracting the page minimum first).
func (a Int128) BitLen() int {
	if a.Hi != 0 {
		return 64 + bitLen64(uint64(a.Hi))
	}
	return bitLen64(a.Lo)
}

func bitLen64(x uint64) int {
	n := 0
	for x != 0 {
		n++
		x >>= 1
	}
	return n
}
