package geom

import (
	"math"
	"testing"
)

func TestVecOps(t *testing.T) {
	a := Vec{1, 2, 3}
	b := Vec{4, -5, 6}

	if got := a.Add(b); got != (Vec{5, -3, 9}) {
		t.Errorf("Add: got %v", got)
	}
	if got := a.Sub(b); got != (Vec{-3, 7, -3}) {
		t.Errorf("Sub: got %v", got)
	}
	if got := a.Dot(b); got != 12 {
		t.Errorf("Dot: got %v", got)
	}
	if got := a.Norm2(); got != 14 {
		t.Errorf("Norm2: got %v", got)
	}
	if math.Abs(a.Norm()-math.Sqrt(14)) > 1e-15 {
		t.Errorf("Norm: got %v", a.Norm())
	}
}

func TestVecIsValid(t *testing.T) {
	if !(Vec{1, 2, 3}).IsValid() {
		t.Error("finite vector reported invalid")
	}
	if (Vec{math.NaN(), 0, 0}).IsValid() {
		t.Error("NaN vector reported valid")
	}
	if (Vec{0, math.Inf(1), 0}).IsValid() {
		t.Error("Inf vector reported valid")
	}
}

func TestMinImage(t *testing.T) {
	box := &Box{L: Vec{10, 10, 10}, Periodic: true}

	tests := []struct {
		name string
		a, b Vec
		want Vec
	}{
		{"inside", Vec{1, 1, 1}, Vec{2, 2, 2}, Vec{1, 1, 1}},
		{"across +x", Vec{9.5, 0, 0}, Vec{0.5, 0, 0}, Vec{1, 0, 0}},
		{"across -y", Vec{0, 0.5, 0}, Vec{0, 9.5, 0}, Vec{0, -1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := box.MinImage(tt.a, tt.b)
			if got.Sub(tt.want).Norm() > 1e-12 {
				t.Errorf("got %v want %v", got, tt.want)
			}
		})
	}
}

func TestMinImageOpen(t *testing.T) {
	var box *Box
	got := box.MinImage(Vec{9, 0, 0}, Vec{1, 0, 0})
	if got != (Vec{-8, 0, 0}) {
		t.Errorf("nil box should not wrap, got %v", got)
	}
}

func TestWrap(t *testing.T) {
	box := &Box{L: Vec{5, 5, 5}, Periodic: true}
	got := box.Wrap(Vec{6, -1, 2.5})
	want := Vec{1, 4, 2.5}
	if got.Sub(want).Norm() > 1e-12 {
		t.Errorf("got %v want %v", got, want)
	}
}
