package vector

import (
	"encoding/binary"
	"math"

	"github.com/latticedb/graphcore/pkg/gtype"
	"github.com/latticedb/graphcore/pkg/storage/overflow"
)

func (v *Vector) width() int {
	w := v.Type.Kind.FixedWidth()
	if w == 0 {
		return 1
	}
	return w
}

// GetStorageValue reads the backing position's raw bits as a
// StorageValue, for integer-family kinds (INT8..UINT64, DATE,
// TIMESTAMP, INTERNAL_ID low word) — the shared comparison/hash
// currency used by pkg/storage/hashindex and pkg/jointable.
func (v *Vector) GetStorageValue(i int) gtype.StorageValue {
	pos := v.PosAt(i)
	off := pos * v.width()
	w := v.width()

	var bits uint64
	switch w {
	case 1:
		bits = uint64(v.fixed[off])
	case 2:
		bits = uint64(binary.LittleEndian.Uint16(v.fixed[off : off+2]))
	case 4:
		bits = uint64(binary.LittleEndian.Uint32(v.fixed[off : off+4]))
	default:
		bits = binary.LittleEndian.Uint64(v.fixed[off : off+8])
	}

	return gtype.StorageValue{Bits: bits, HasValue: !v.IsNull(i), Signed: v.Type.Kind.IsSigned()}
}

func (v *Vector) SetStorageValue(pos int, sv gtype.StorageValue) {
	off := pos * v.width()
	w := v.width()

	switch w {
	case 1:
		v.fixed[off] = byte(sv.Bits)
	case 2:
		binary.LittleEndian.PutUint16(v.fixed[off:off+2], uint16(sv.Bits))
	case 4:
		binary.LittleEndian.PutUint32(v.fixed[off:off+4], uint32(sv.Bits))
	default:
		binary.LittleEndian.PutUint64(v.fixed[off:off+8], sv.Bits)
	}
}

func (v *Vector) GetInt64(i int) int64 {
	return int64(v.GetStorageValue(i).Bits)
}

func (v *Vector) SetInt64(pos int, val int64) {
	v.SetStorageValue(pos, gtype.StorageValueFromInt64(val))
}

func (v *Vector) GetDouble(i int) float64 {
	pos := v.PosAt(i)
	off := pos * 8
	return math.Float64frombits(binary.LittleEndian.Uint64(v.fixed[off : off+8]))
}

func (v *Vector) SetDouble(pos int, val float64) {
	off := pos * 8
	binary.LittleEndian.PutUint64(v.fixed[off:off+8], math.Float64bits(val))
}

func (v *Vector) GetBool(i int) bool {
	pos := v.PosAt(i)
	return v.fixed[pos] != 0
}

func (v *Vector) SetBool(pos int, val bool) {
	if val {
		v.fixed[pos] = 1
	} else {
		v.fixed[pos] = 0
	}
}

// GetFatPointer reads a STRING-kind backing slot's 16-byte fat pointer.
func (v *Vector) GetFatPointer(i int) overflow.FatPointer {
	pos := v.PosAt(i)
	off := pos * overflow.FatPointerSize
	var buf [overflow.FatPointerSize]byte
	copy(buf[:], v.fixed[off:off+overflow.FatPointerSize])
	return overflow.DecodeFatPointer(buf)
}

func (v *Vector) SetFatPointer(pos int, fp overflow.FatPointer) {
	off := pos * overflow.FatPointerSize
	buf := fp.Encode()
	copy(v.fixed[off:off+overflow.FatPointerSize], buf[:])
}
