package common

import (
	"math/bits"
	"testing"
)

func TestPopCountMatchesFileAndRankMasks(t *testing.T) {
	var masks = []uint64{
		FileAMask, FileBMask, FileCMask, FileDMask, FileEMask, FileFMask, FileGMask, FileHMask,
		Rank1Mask, Rank2Mask, Rank3Mask, Rank4Mask, Rank5Mask, Rank6Mask, Rank7Mask, Rank8Mask,
	}
	for _, m := range masks {
		if PopCount(m) != 8 {
			t.Errorf("PopCount(%#x) = %d, want 8", m, PopCount(m))
		}
	}
}

func TestMoreThanOne(t *testing.T) {
	var tests = []struct {
		name  string
		value uint64
		want  bool
	}{
		{"zero", 0, false},
		{"one", 1, false},
		{"far one", 1 << 5, false},
		{"farthest one", 1 << 63, false},
		{"two ones", 3, true},
		{"two ones apart", 1<<6 | 1<<25, true},
		{"three ones apart", 1<<6 | 1<<25 | 1<<36, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MoreThanOne(tt.value); got != tt.want {
				t.Errorf("MoreThanOne(%#x) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestFirstOneMatchesTrailingZeros(t *testing.T) {
	var values = []uint64{
		FileAMask, FileBMask, Rank1Mask, Rank8Mask,
		1, 1 << 1, 1 << 63, 0x0004085000500800,
	}
	for _, v := range values {
		var want = bits.TrailingZeros64(v)
		if got := FirstOne(v); got != want {
			t.Errorf("FirstOne(%#x) = %d, want %d", v, got, want)
		}
	}
}

func BenchmarkFirstOne(b *testing.B) {
	var values = []uint64{1, 1 << 20, 1 << 40, 1 << 63, 0x0004085000500800}
	for n := 0; n < b.N; n++ {
		for _, v := range values {
			_ = FirstOne(v)
		}
	}
}
