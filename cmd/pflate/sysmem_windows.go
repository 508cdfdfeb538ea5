//go:build windows

package main

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// getTotalSystemMemory returns total system RAM in KB (Windows)
func getTotalSystemMemory() (uint64, error) {
	var memStatus windows.MemoryStatusEx
	memStatus.Length = uint32(unsafe.Sizeof(memStatus))

	if err := windows.GlobalMemoryStatusEx(&memStatus); err != nil {
		return 0, err
	}
	return memStatus.TotalPhys / 1024, nil
}
