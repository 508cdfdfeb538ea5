//go:build !linux && !darwin

// pkg/compress/source_other.go
package compress

import (
	"fmt"
	"os"
)

func openSource(path string) (*source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat source file: %w", err)
	}
	return &source{Reader: f, size: info.Size(), close: f.Close}, nil
}
