//go:build darwin

package main

import "golang.org/x/sys/unix"

// getTotalSystemMemory returns total system RAM in KB (macOS)
func getTotalSystemMemory() (uint64, error) {
	memsize, err := unix.SysctlUint64("hw.memsize")
	if err != nil {
		return 0, err
	}
	return memsize / 1024, nil
}
