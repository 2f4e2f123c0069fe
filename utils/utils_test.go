package utils

import "testing"

func TestMillisRoundTrip(t *testing.T) {
	tests := []int64{0, 1000, 1577840461000, 1577840461500, 999}
	for _, ms := range tests {
		if got := MillisFromTime(TimeFromMillis(ms)); got != ms {
			t.Errorf("MillisFromTime(TimeFromMillis(%d)) = %d", ms, got)
		}
	}
}

func TestFloorToSecond(t *testing.T) {
	tests := []struct {
		name string
		in   int64
		want int64
	}{
		{"already whole", 1577840461000, 1577840461000},
		{"mid second", 1577840461999, 1577840461000},
		{"just after", 1577840461001, 1577840461000},
		{"zero", 0, 0},
	}
	for _, tt := range tests {
		got := MillisFromTime(FloorToSecond(TimeFromMillis(tt.in)))
		if got != tt.want {
			t.Errorf("%s: FloorToSecond(%d) = %d, want %d", tt.name, tt.in, got, tt.want)
		}
	}
}
