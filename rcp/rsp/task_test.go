package rsp

import (
	"testing"

	"github.com/clktmr/n64loop/rcp/cpu"
	"github.com/clktmr/n64loop/rcp/rdp"
	"github.com/clktmr/n64loop/rcp/rsp/ucode"
)

func TestBuild(t *testing.T) {
	arena := cpu.NewArena(1 << 16)
	dl := rdp.NewDisplayList(arena, 64)
	b := NewBuilder(arena, ucode.RSPBoot, ucode.F3DEX2FIFO)

	dl.Sync(rdp.Pipe)
	dl.Sync(rdp.Full)
	dl.End()

	var task Task
	b.Build(&task, dl)
	if task.DataPtr != dl.Addr() {
		t.Errorf("data ptr %#x, want %#x", task.DataPtr, dl.Addr())
	}
	if task.DataSize != 3*rdp.CommandSize {
		t.Errorf("data size %d, want %d", task.DataSize, 3*rdp.CommandSize)
	}
	if task.Type != GfxTask || task.UCode != ucode.F3DEX2FIFO || task.Boot != ucode.RSPBoot {
		t.Errorf("wrong identity: %+v", task)
	}
	if task.OutputBuffEnd-task.OutputBuff != FIFOSize {
		t.Errorf("fifo size %d", task.OutputBuffEnd-task.OutputBuff)
	}

	// Rebuilding reuses the same regions.
	regions := [3]cpu.Addr{task.DRAMStack, task.OutputBuff, task.YieldData}
	dl.Reset()
	dl.End()
	b.Build(&task, dl)
	if regions != [3]cpu.Addr{task.DRAMStack, task.OutputBuff, task.YieldData} {
		t.Errorf("regions changed")
	}
	if task.DataSize != rdp.CommandSize {
		t.Errorf("data size %d", task.DataSize)
	}
}
