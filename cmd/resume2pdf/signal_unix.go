//go:build !windows

package main

import (
	"os"
	"syscall"
)

// shutdownSignals stop a conversion or the serve command. SIGHUP is
// included so closing the terminal still releases the server and browser.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}
