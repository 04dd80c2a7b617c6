package cpu_test

import (
	"errors"
	"testing"

	"github.com/clktmr/n64loop/rcp/cpu"
)

func TestArenaAlloc(t *testing.T) {
	a := cpu.NewArena(1024)

	tests := map[string]struct {
		n, align int
	}{
		"small":     {3, 0},
		"cacheline": {16, 16},
		"aligned64": {100, 64},
		"odd":       {33, 8},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			p := a.Alloc(tc.n, tc.align)
			if len(p) != tc.n {
				t.Fatalf("len = %d, want %d", len(p), tc.n)
			}
			if !cpu.IsPadded(p) {
				t.Error("allocation not padded")
			}
			addr := a.Addr(p)
			if tc.align > 0 && int(addr)%tc.align != 0 {
				t.Errorf("address %#x not aligned to %d", addr, tc.align)
			}
			q, err := a.Slice(addr, tc.n)
			if err != nil {
				t.Fatal(err)
			}
			q[0] = 0xa5
			if p[0] != 0xa5 {
				t.Error("Slice doesn't alias the allocation")
			}
		})
	}
}

func TestArenaExhausted(t *testing.T) {
	a := cpu.NewArena(64)
	a.Alloc(48, 0)

	defer func() {
		err, _ := recover().(error)
		if !errors.Is(err, cpu.ErrArenaFull) {
			t.Fatalf("recovered %v, want ErrArenaFull", err)
		}
	}()
	a.Alloc(32, 0)
}

func TestArenaSliceOutOfRange(t *testing.T) {
	a := cpu.NewArena(64)
	if _, err := a.Slice(60, 8); err == nil {
		t.Fatal("expected error")
	}
}
