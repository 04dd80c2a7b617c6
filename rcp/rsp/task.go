// Package rsp describes tasks for the signal processor.  A graphics task
// references the microcode to run, the work regions it needs in RDRAM and the
// display list to process.
package rsp

import (
	"github.com/clktmr/n64loop/rcp/cpu"
	"github.com/clktmr/n64loop/rcp/rdp"
	"github.com/clktmr/n64loop/rcp/rsp/ucode"
)

type TaskType uint32

const (
	GfxTask   TaskType = 1
	AudioTask TaskType = 2
)

type TaskFlags uint32

// Sizes of the work regions shared by all graphics tasks.
const (
	DRAMStackSize = 1024
	FIFOSize      = 8192
	YieldDataSize = 0xc00
)

// Task is the descriptor handed to the signal processor.  Sizes are in bytes.
type Task struct {
	Type  TaskType
	Flags TaskFlags

	Boot  *ucode.UCode
	UCode *ucode.UCode

	DRAMStack     cpu.Addr
	DRAMStackSize int

	// In FIFO mode the output buffer size is given by its end address.
	OutputBuff    cpu.Addr
	OutputBuffEnd cpu.Addr

	YieldData     cpu.Addr
	YieldDataSize int

	DataPtr  cpu.Addr
	DataSize int
}

// Builder fills graphics task descriptors.  The work regions are allocated
// once and shared by every task built, which is fine as long as only one task
// is outstanding at any time.
type Builder struct {
	boot, code *ucode.UCode

	dramStack cpu.Addr
	fifo      cpu.Addr
	yield     cpu.Addr
}

// NewBuilder allocates the work regions from the arena.
func NewBuilder(a *cpu.Arena, boot, code *ucode.UCode) *Builder {
	return &Builder{
		boot:      boot,
		code:      code,
		dramStack: a.Addr(a.Alloc(DRAMStackSize, cpu.CacheLineSize)),
		fifo:      a.Addr(a.Alloc(FIFOSize, cpu.CacheLineSize)),
		yield:     a.Addr(a.Alloc(YieldDataSize, cpu.CacheLineSize)),
	}
}

// Build fills t in place to process the commands in dl.
func (b *Builder) Build(t *Task, dl *rdp.DisplayList) {
	*t = Task{
		Type:          GfxTask,
		Boot:          b.boot,
		UCode:         b.code,
		DRAMStack:     b.dramStack,
		DRAMStackSize: DRAMStackSize,
		OutputBuff:    b.fifo,
		OutputBuffEnd: b.fifo + FIFOSize,
		YieldData:     b.yield,
		YieldDataSize: YieldDataSize,
		DataPtr:       dl.Addr(),
		DataSize:      dl.Size(),
	}
}
