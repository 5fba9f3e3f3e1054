//go:build windows

package main

import "os"

// shutdownSignals stop a conversion or the serve command.
// syscall.SIGTERM is not delivered on Windows.
var shutdownSignals = []os.Signal{os.Interrupt}
