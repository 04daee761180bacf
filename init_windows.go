//go:build windows

package main

import "syscall"

const codePageUTF8 = 65001

// Markdown exports and product names are written to the console as UTF-8.
func init() {
	proc := syscall.NewLazyDLL("kernel32.dll").NewProc("SetConsoleOutputCP")
	if proc.Find() == nil {
		_, _, _ = proc.Call(uintptr(codePageUTF8))
	}
}
