package console

// IRQHandler is invoked by the driver once per receive event with the
// status register value and the received data register value.
type IRQHandler func(sr, dr uint32)

// Mode selects the USART operating mode.
type Mode uint8

const (
	ModeUART Mode = iota
	ModeSmartcard
)

// PinMapping is the pin-mapping policy passed to Driver.EarlyInit.
type PinMapping uint8

const (
	// MapAuto lets the driver pick the pins (or device node) bound to the USART id.
	MapAuto PinMapping = iota
	// MapCustom means the caller already mapped the device.
	MapCustom
)

// Register field values written into USARTConfig by EarlyInit.
const (
	SetAll uint32 = 0xffffffff

	WordLength8 uint32 = 0
	WordLength9 uint32 = 1 << 12

	StopBits1 uint32 = 0
	StopBits2 uint32 = 2 << 12

	ParityDisabled uint32 = 0
	ParityEnabled  uint32 = 1 << 10

	FlowControlCTS      uint32 = 1 << 9
	FlowControlRTS      uint32 = 1 << 8
	FlowControlDisabled uint32 = 0

	CR1RxEnable    uint32 = 1 << 2
	CR1TxEnable    uint32 = 1 << 3
	CR1RxIRQEnable uint32 = 1 << 5
	CR1Enable      uint32 = 1 << 13
)

// StatusRXNE is the "receive data register not empty" status bit.
const StatusRXNE uint32 = 0x20

// USARTConfig carries the register configuration handed to the driver and
// the primitives the driver fills in during early initialization.
type USARTConfig struct {
	SetMask            uint32
	USART              uint8
	Mode               Mode
	BaudRate           uint32
	WordLength         uint32
	Parity             uint32
	StopBits           uint32
	HWFlowControl      uint32
	OptionsCR1         uint32
	OptionsCR2         uint32
	GuardTimePrescaler uint32

	// IRQHandler is installed by the console and called by the driver.
	IRQHandler IRQHandler

	// Getc and Putc are filled in by Driver.EarlyInit.
	Getc func() byte
	Putc func(c byte)
}

// Driver is the device driver the console is bound to.
type Driver interface {
	// EarlyInit performs low-level device and pin setup and fills
	// cfg.Getc and cfg.Putc.
	EarlyInit(cfg *USARTConfig, mapping PinMapping) error
	// Init completes device bring-up after EarlyInit.
	Init(cfg *USARTConfig) error
}
