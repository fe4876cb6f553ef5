// vmrepl hosts an interactive interpreter console behind an event driven
// runtime: keystrokes and redraw ticks are delivered as events, the console
// assembles them into statements and hands them to the interpreter.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
