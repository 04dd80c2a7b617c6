package cpu

// The CPU's clock speed
const ClockSpeed = 93.75e6

// Addr represents a physical memory address, i.e. an offset into RDRAM.
type Addr uint32
