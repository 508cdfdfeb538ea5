//go:build linux || darwin

// pkg/compress/source_mmap.go
package compress

import (
	"bytes"
	"fmt"
	"os"

	"github.com/tysonmote/gommap"
)

// mmapThreshold is the smallest file read through a memory mapping
const mmapThreshold = 1 << 20

// openSource opens path for reading. Large files are memory-mapped so the
// pipeline copies straight from the page cache into its block buffers.
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

	if info.Size() < mmapThreshold {
		return &source{Reader: f, size: info.Size(), close: f.Close}, nil
	}

	mm, err := gommap.Map(f.Fd(), gommap.PROT_READ, gommap.MAP_PRIVATE)
	if err != nil {
		// some filesystems refuse mappings; read the file instead
		return &source{Reader: f, size: info.Size(), close: f.Close}, nil
	}

	return &source{
		Reader: bytes.NewReader(mm),
		size:   info.Size(),
		mapped: true,
		close: func() error {
			uerr := mm.UnsafeUnmap()
			if cerr := f.Close(); uerr == nil {
				uerr = cerr
			}
			return uerr
		},
	}, nil
}
