// pkg/compress/job.go
package compress

import "github.com/creativeyann17/go-pflate/internal/blockbuf"

// eofSeq marks the sentinel job that stops one worker
const eofSeq = -1

// job is one block travelling from the coordinator through a worker to the sink
type job struct {
	seq int64

	// raw input, shared with the next job when it serves as its dictionary
	in *blockbuf.Shared

	// preceding history; read only through dict.Window(dictEnd, ...)
	dict    *blockbuf.Shared
	dictEnd int

	out  *blockbuf.Buffer
	last bool

	// checksum of the raw input and its length
	sum    uint32
	rawLen int
}

func eofJob() *job {
	return &job{seq: eofSeq}
}

func (j *job) isEOF() bool {
	return j.seq == eofSeq
}

// releaseInput drops the job's references to its raw input and dictionary
func (j *job) releaseInput() {
	if j.dict != nil {
		j.dict.Release()
		j.dict = nil
	}
	if j.in != nil {
		j.in.Release()
		j.in = nil
	}
}

// release returns every buffer the job still holds
func (j *job) release() {
	j.releaseInput()
	if j.out != nil {
		j.out.Release()
		j.out = nil
	}
}
