package gtype

// StorageValue is the 64-bit union used as the min/max carrier inside
// page-level compression metadata (see pkg/storage/codec). An unsupported
// type carries no min/max (HasValue is false), which makes constant
// compression ineligible for it.
type StorageValue struct {
	// Bits holds the value's raw bit pattern reinterpreted as uint64:
	// signed integers are stored after widening-with-sign-extension cast
	// to int64 then bit-reinterpreted, unsigned integers are zero-extended.
	Bits     uint64
	HasValue bool
	Signed   bool
}

func StorageValueFromInt64(v int64) StorageValue {
	return StorageValue{Bits: uint64(v), HasValue: true, Signed: true}
}

func StorageValueFromUint64(v uint64) StorageValue {
	return StorageValue{Bits: v, HasValue: true, Signed: false}
}

func (s StorageValue) Int64() int64 {
	return int64(s.Bits)
}

func (s StorageValue) Uint64() uint64 {
	return s.Bits
}

// Less orders two StorageValues under the ordering implied by Signed.
// Invariant (spec.md §3, Compression metadata): every value a reader
// decompresses from a page with metadata m satisfies m.min <= v <= m.max.
func (s StorageValue) Less(o StorageValue) bool {
	if s.Signed {
		return s.Int64() < o.Int64()
	}
	return s.Uint64() < o.Uint64()
}

func (s StorageValue) Equal(o StorageValue) bool {
	return s.Bits == o.Bits && s.HasValue == o.HasValue
}

// Min returns whichever of a, b sorts first.
func Min(a, b StorageValue) StorageValue {
	if b.Less(a) {
		return b
	}
	return a
}

// Max returns whichever of a, b sorts last.
func Max(a, b StorageValue) StorageValue {
	if a.Less(b) {
		return b
	}
	return a
}
