package smp

import "testing"

func TestHartSet(t *testing.T) {
	s := AllHarts(5)
	if s.Len() != 5 || s.String() != "{0,1,2,3,4}" {
		t.Errorf("AllHarts(5) is %s", s)
	}
	s.Clear(0)
	s.Clear(3)
	if s.On(0) || s.On(3) || !s.On(4) {
		t.Errorf("clear went wrong: %s", s)
	}
	s.Set(63)
	got := []int{}
	s.Each(func(h int) { got = append(got, h) })
	want := []int{1, 2, 4, 63}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
		}
	}
	if AllHarts(64) != ^HartSet(0) {
		t.Errorf("AllHarts(64) should be every bit")
	}
	var e HartSet
	if !e.Empty() || e.String() != "{}" {
		t.Errorf("zero set not empty")
	}
}
