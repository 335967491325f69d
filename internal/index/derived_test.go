package index

import "testing"

func TestBoundedSharePct(t *testing.T) {
	cases := []struct {
		name string
		num  *float64
		den  *float64
		want *float64
	}{
		{"normal share", ptr(25), ptr(100), ptr(25.0)},
		{"clamped above", ptr(150), ptr(100), ptr(100.0)},
		{"clamped below", ptr(-10), ptr(100), ptr(0.0)},
		{"zero denominator", ptr(50), ptr(0), ptr(0.0)},
		{"negative denominator", ptr(50), ptr(-5), ptr(0.0)},
		{"missing denominator", ptr(50), nil, ptr(0.0)},
		{"missing numerator", nil, ptr(100), nil},
		{"both missing", nil, nil, nil},
	}
	for _, tc := range cases {
		got := BoundedSharePct(tc.num, tc.den)
		if tc.want == nil {
			if got != nil {
				t.Errorf("%s: expected missing, got %f", tc.name, *got)
			}
			continue
		}
		if got == nil || *got != *tc.want {
			t.Errorf("%s: expected %f, got %v", tc.name, *tc.want, got)
		}
	}
}

func TestSpread(t *testing.T) {
	if got := Spread(ptr(5.33), ptr(5.30)); got == nil || *got < 0.0299 || *got > 0.0301 {
		t.Errorf("expected 0.03, got %v", got)
	}
	if got := Spread(nil, ptr(5.30)); got != nil {
		t.Errorf("expected missing spread, got %f", *got)
	}
	if got := Spread(ptr(5.33), nil); got != nil {
		t.Errorf("expected missing spread, got %f", *got)
	}
}

func TestSub3(t *testing.T) {
	if got := Sub3(ptr(7400), ptr(500), ptr(700)); got == nil || *got != 6200 {
		t.Errorf("expected 6200, got %v", got)
	}
	if got := Sub3(ptr(7400), nil, ptr(700)); got != nil {
		t.Errorf("expected missing when any term is missing, got %f", *got)
	}
}
