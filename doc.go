// Package console provides a minimal serial-line console for an embedded
// task: formatted diagnostic output and line-oriented command input over a
// single USART.
//
// Output is rendered by a small printf subset (%d, %ld, %lld, %x, %c, %s,
// %%) and either buffered in a 512-slot ring that overwrites its oldest
// bytes, or transmitted synchronously, depending on Config.Output.
//
// Input is assembled by HandleIRQ, which the device driver calls from its
// receive interrupt once per byte. It echoes what it receives, handles
// backspace, truncates lines longer than CommandSize and publishes a
// command on carriage return. ReadLine yields to the scheduler until a
// command is published and then hands it off exactly once.
//
// The device itself is reached through the Driver interface; package
// serialdev implements it for serial ports.
//
// Example usage:
//
//	port := serialdev.New(serialdev.Config{Device: "/dev/ttyUSB0"})
//	defer port.Close()
//
//	c := console.New(port, console.Config{})
//	if err := c.EarlyInit(1, 115200, nil); err != nil {
//	    log.Fatal(err)
//	}
//	if err := c.Init(); err != nil {
//	    log.Fatal(err)
//	}
//
//	c.Log("booted, %d tasks\n", 3)
//	c.Flush()
//
//	buf := make([]byte, console.CommandSize)
//	for {
//	    n, err := c.ReadLine(buf)
//	    if err != nil && !errors.Is(err, console.ErrStorageInsufficient) {
//	        log.Fatal(err)
//	    }
//	    c.Log("got %s\n", buf[:n])
//	    c.Flush()
//	}
package console
