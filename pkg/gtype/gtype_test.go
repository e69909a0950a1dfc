package gtype_test

import (
	"testing"

	"github.com/latticedb/graphcore/pkg/gtype"
)

func TestInt128AddSubRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a, b int64
	}{
		{"positive", 100, 37},
		{"negative minuend", -5, 10},
		{"both negative", -20, -3},
		{"zero", 0, 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a := gtype.Int128FromInt64(c.a)
			b := gtype.Int128FromInt64(c.b)

			sum := a.Add(b)
			want := gtype.Int128FromInt64(c.a + c.b)
			if !sum.Equal(want) {
				t.Fatalf("%d + %d = %+v, want %+v", c.a, c.b, sum, want)
			}

			diff := a.Sub(b)
			wantDiff := gtype.Int128FromInt64(c.a - c.b)
			if !diff.Equal(wantDiff) {
				t.Fatalf("%d - %d = %+v, want %+v", c.a, c.b, diff, wantDiff)
			}
		})
	}
}

func TestInt128Less(t *testing.T) {
	t.Parallel()

	low := gtype.Int128FromInt64(3)
	high := gtype.Int128FromInt64(11)

	if !low.Less(high) {
		t.Fatalf("3 should be less than 11")
	}
	if high.Less(low) {
		t.Fatalf("11 should not be less than 3")
	}
	if low.Less(low) {
		t.Fatalf("a value should not be less than itself")
	}
}

func TestInt128BitLenMatchesRange(t *testing.T) {
	t.Parallel()

	// Scenario S4: range 11-3=8 needs bit width 4.
	rng := gtype.Int128FromInt64(11).Sub(gtype.Int128FromInt64(3))
	if got := rng.BitLen(); got != 4 {
		t.Fatalf("BitLen(8) = %d, want 4", got)
	}

	if got := gtype.Int128FromInt64(0).BitLen(); got != 0 {
		t.Fatalf("BitLen(0) = %d, want 0", got)
	}
}

func TestStorageValueOrderingSigned(t *testing.T) {
	t.Parallel()

	neg := gtype.StorageValueFromInt64(-5)
	pos := gtype.StorageValueFromInt64(5)

	if !neg.Less(pos) {
		t.Fatalf("-5 should sort before 5 under signed ordering")
	}
	if got := gtype.Min(neg, pos); !got.Equal(neg) {
		t.Fatalf("Min(-5, 5) = %+v, want -5", got)
	}
	if got := gtype.Max(neg, pos); !got.Equal(pos) {
		t.Fatalf("Max(-5, 5) = %+v, want 5", got)
	}
}

func TestStorageValueOrderingUnsigned(t *testing.T) {
	t.Parallel()

	small := gtype.StorageValueFromUint64(1)
	large := gtype.StorageValueFromUint64(1 << 63)

	if !small.Less(large) {
		t.Fatalf("unsigned comparison should treat the high bit as magnitude, not sign")
	}
}
