//go:build !linux

package main

import (
	"os"
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

// The darwin hotkey backend needs the OS main thread, so run happens on a
// goroutine while mainthread owns the main one.
func main() {
	code := 0
	mainthread.Init(func() { code = run() })
	os.Exit(code)
}
