// pkg/compress/writer_bench_test.go
package compress

import (
	"bytes"
	"fmt"
	"io"
	"runtime"
	"testing"

	"github.com/creativeyann17/go-pflate/internal/codec"
	"github.com/creativeyann17/go-pflate/internal/format"
	"github.com/klauspost/pgzip"
)

func BenchmarkWriter(b *testing.B) {
	data := testData(8*1024*1024, 30)
	workers := runtime.GOMAXPROCS(0)

	for _, kind := range []codec.Kind{codec.KindFlate, codec.KindBitStream} {
		b.Run(fmt.Sprintf("pflate/%s", kind), func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			b.ReportAllocs()
			var size int
			for i := 0; i < b.N; i++ {
				var out countWriter
				zw, err := NewWriter(&out, testOptions(format.FormatGzip, workers, DefaultBlockSize, kind))
				if err != nil {
					b.Fatal(err)
				}
				if _, err := zw.Write(data); err != nil {
					b.Fatal(err)
				}
				if err := zw.Close(); err != nil {
					b.Fatal(err)
				}
				size = out.n
			}
			b.ReportMetric(float64(size)/float64(len(data))*100, "%ratio")
		})
	}

	b.Run("pgzip", func(b *testing.B) {
		b.SetBytes(int64(len(data)))
		b.ReportAllocs()
		var size int
		for i := 0; i < b.N; i++ {
			var out countWriter
			zw, err := pgzip.NewWriterLevel(&out, DefaultLevel)
			if err != nil {
				b.Fatal(err)
			}
			if err := zw.SetConcurrency(DefaultBlockSize, workers); err != nil {
				b.Fatal(err)
			}
			if _, err := io.Copy(zw, bytes.NewReader(data)); err != nil {
				b.Fatal(err)
			}
			if err := zw.Close(); err != nil {
				b.Fatal(err)
			}
			size = out.n
		}
		b.ReportMetric(float64(size)/float64(len(data))*100, "%ratio")
	})
}

type countWriter struct {
	n int
}

func (c *countWriter) Write(p []byte) (int, error) {
	c.n += len(p)
	return len(p), nil
}
