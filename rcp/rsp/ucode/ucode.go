// Package ucode describes RSP microcode images.  The software display
// processor doesn't execute microcode, but tasks still carry the identity and
// sizes of the code they were built for.
package ucode

type UCode struct {
	Name string

	Entry uint32 // initial value of RSP PC register
	Text  []byte // instructions copied to IMEM
	Data  []byte // data copied to DMEM
}

func NewUCode(name string, entry uint32, text []byte, data []byte) *UCode {
	return &UCode{
		Name:  name,
		Entry: entry,
		Text:  text,
		Data:  data,
	}
}

// Predefined microcode identities.  Text and data are zeroed placeholders
// sized like the libultra objects they stand for.
var (
	RSPBoot    = NewUCode("rspboot", 0x1000, make([]byte, 0xd0), nil)
	F3DEX2FIFO = NewUCode("gspF3DEX2.fifo", 0x1080, make([]byte, 4096), make([]byte, 2048))
)
