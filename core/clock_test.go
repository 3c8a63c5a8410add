package core

import "testing"

func TestDivisorForSpeed(t *testing.T) {
	cases := []struct {
		cpu   uint32
		speed BusSpeed
		want  uint8
	}{
		{16_000_000, BusFast, 12},
		{16_000_000, BusSlow, 72},
		{8_000_000, BusFast, 2},
		{8_000_000, BusSlow, 32},
		{0, BusFast, 12}, // zero falls back to the default clock
		{1_000_000, BusFast, 0},
		{200_000_000, BusSlow, 255}, // clamped
	}
	for _, tc := range cases {
		got := DivisorForSpeed(tc.cpu, tc.speed)
		if got != tc.want {
			t.Errorf("DivisorForSpeed(%d, %v): expected %d, got %d",
				tc.cpu, tc.speed, tc.want, got)
		}
	}
}

func TestBusSpeedFrequency(t *testing.T) {
	if f := BusSlow.Frequency(); f != 100_000 {
		t.Errorf("Expected 100000 for slow mode, got %d", f)
	}
	if f := BusFast.Frequency(); f != 400_000 {
		t.Errorf("Expected 400000 for fast mode, got %d", f)
	}
}
