//go:build linux

package main

import "golang.org/x/sys/unix"

// getTotalSystemMemory returns total system RAM in KB (Linux)
func getTotalSystemMemory() (uint64, error) {
	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err != nil {
		return 0, err
	}

	// Totalram is in units of Unit bytes
	totalBytes := uint64(si.Totalram) * uint64(si.Unit)
	return totalBytes / 1024, nil
}
