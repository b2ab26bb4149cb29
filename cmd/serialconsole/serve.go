// cmd/serialconsole/serve.go
package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"

	console "github.com/luhtfiimanal/go-serial-console"
)

// serve answers every command line until ctx is done. Each received line is
// reported on status and acknowledged on the console.
func serve(ctx context.Context, c *console.Console, status io.Writer) error {
	buf := make([]byte, console.CommandSize)

	c.Log("console ready on usart %d\n", c.USART())
	c.Flush()

	for {
		// buf matches the editor's line capacity, so a command always fits.
		n, err := c.ReadLineContext(ctx, buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		line := buf[:n]
		fmt.Fprintf(status, "%s %q\n", color.CyanString("rx"), line)

		c.Log("received %d bytes: %s\n", n, line)
		c.Flush()
	}
}
