// pkg/compress/pools.go
package compress

import "sync"

// copyBufferSize matches the default block size so one read fills one block
const copyBufferSize = DefaultBlockSize

// copyBufferPool provides the buffers CompressFiles reads input files through
var copyBufferPool = sync.Pool{
	New: func() any {
		buf := make([]byte, copyBufferSize)
		return &buf
	},
}

func getCopyBuffer() *[]byte {
	return copyBufferPool.Get().(*[]byte)
}

func putCopyBuffer(buf *[]byte) {
	copyBufferPool.Put(buf)
}
