// pkg/compress/pipeline_test.go
package compress

import (
	"bytes"
	"testing"

	"github.com/creativeyann17/go-pflate/internal/blockbuf"
)

func sharedBlock(pool blockbuf.Pool, data []byte) *blockbuf.Shared {
	buf := blockbuf.New(pool, max(len(data), 1))
	buf.Write(data, false)
	return blockbuf.NewShared(buf)
}

// TestDictChainCarriesTrailingWindow feeds blocks of mixed sizes through the
// chain and checks every dictionary is the last window of preceding input
func TestDictChainCarriesTrailingWindow(t *testing.T) {
	pool := blockbuf.NewPool()
	chain := dictChain{pool: pool}
	data := testData(400*1024, 20)
	sizes := []int{1000, 20 * 1024, 5, 64 * 1024, 31 * 1024, 32 * 1024, 7, 100 * 1024}

	off := 0
	var jobs []*job
	for i, n := range sizes {
		j := &job{
			seq:  int64(i),
			in:   sharedBlock(pool, data[off:off+n]),
			last: i == len(sizes)-1,
		}
		chain.attach(j)

		if i == 0 {
			if j.dict != nil {
				t.Fatal("First block must not have a dictionary")
			}
		} else {
			want := data[max(0, off-blockbuf.WindowSize):off]
			got := j.dict.Window(j.dictEnd, blockbuf.WindowSize)
			if !bytes.Equal(got, want) {
				t.Fatalf("Block %d: dictionary of %d bytes does not match the preceding %d bytes", i, len(got), len(want))
			}
		}
		jobs = append(jobs, j)
		off += n
	}

	if chain.next != nil {
		t.Error("The final block must not produce a dictionary")
	}

	// a block at least one window long is shared rather than copied
	if jobs[4].dict != jobs[3].in {
		t.Error("Expected block 4 to reference block 3's input directly")
	}
	if jobs[3].in.Refs() != 2 {
		t.Errorf("Expected 2 references on a shared block, got %d", jobs[3].in.Refs())
	}

	for _, j := range jobs {
		j.release()
	}
	for i, j := range jobs {
		if j.in != nil || j.dict != nil {
			t.Errorf("Block %d still holds buffers after release", i)
		}
	}
}

func TestDictChainReset(t *testing.T) {
	pool := blockbuf.NewPool()
	chain := dictChain{pool: pool}
	j := &job{in: sharedBlock(pool, make([]byte, 40*1024))}
	chain.attach(j)
	if j.in.Refs() != 2 {
		t.Fatalf("Expected the next dictionary to hold a reference, got %d", j.in.Refs())
	}
	chain.reset()
	if j.in.Refs() != 1 {
		t.Errorf("Expected reset to drop its reference, got %d", j.in.Refs())
	}
	j.release()
}

func TestReorderBuffer(t *testing.T) {
	r := newReorderBuffer()
	for _, seq := range []int64{3, 1, 2} {
		r.insert(&job{seq: seq})
	}

	if _, ok := r.take(0); ok {
		t.Fatal("Sequence 0 has not arrived")
	}
	select {
	case <-r.ready:
	default:
		t.Fatal("Expected a ready signal after insert")
	}

	r.insert(&job{seq: 0})
	for seq := int64(0); seq < 4; seq++ {
		j, ok := r.take(seq)
		if !ok || j.seq != seq {
			t.Fatalf("Expected sequence %d, got %v %v", seq, j, ok)
		}
	}
	if r.len() != 0 {
		t.Errorf("Expected empty buffer, %d left", r.len())
	}

	r.insert(&job{seq: 9})
	r.insert(&job{seq: 8})
	if left := r.drain(); len(left) != 2 || r.len() != 0 {
		t.Errorf("Expected drain to return 2 jobs and empty the buffer, got %d", len(left))
	}
}

func TestStateString(t *testing.T) {
	names := map[State]string{
		StateIdle:      "idle",
		StateRunning:   "running",
		StateFinishing: "finishing",
		StateFinished:  "finished",
		StateAborted:   "aborted",
	}
	for state, want := range names {
		if state.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", state, state.String(), want)
		}
	}
}
