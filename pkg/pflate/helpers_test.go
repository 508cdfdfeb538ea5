package pflate

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.00 KB"},
		{1536 * 1024, "1.50 MB"},
		{3 * 1024 * 1024 * 1024, "3.00 GB"},
	}
	for _, tt := range tests {
		if got := FormatSize(tt.in); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncateLeft(t *testing.T) {
	if got := TruncateLeft("short.txt", 30); got != "short.txt" {
		t.Errorf("Short path changed: %q", got)
	}

	long := "very/long/directory/name/that/keeps/going/file.txt"
	got := TruncateLeft(long, 20)
	if len(got) != 20 || !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "file.txt") {
		t.Errorf("Unexpected truncation %q", got)
	}
}

func TestCountingWriter(t *testing.T) {
	var buf bytes.Buffer
	cw := &CountingWriter{Writer: &buf}
	for i := 0; i < 3; i++ {
		if _, err := cw.Write([]byte("abcd")); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if cw.Count() != 12 || buf.Len() != 12 {
		t.Errorf("Expected 12 bytes counted, got %d", cw.Count())
	}
}

func TestProgressReader(t *testing.T) {
	var seen int
	pr := &ProgressReader{
		Reader: strings.NewReader(strings.Repeat("x", 10000)),
		OnRead: func(n int) { seen += n },
	}
	if _, err := io.Copy(io.Discard, pr); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	if seen != 10000 {
		t.Errorf("Expected 10000 bytes reported, got %d", seen)
	}
}

func TestFormatSummary(t *testing.T) {
	summary := FormatSummary(fakeResult{total: 2, processed: 2, orig: 2048, comp: 1024}, OperationCompress, true)
	for _, want := range []string{"2 / 2", "2.00 KB", "(estimated)", "50.0%", "Dry run"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary missing %q:\n%s", want, summary)
		}
	}
}

type fakeResult struct {
	total, processed int
	orig, comp       uint64
}

func (r fakeResult) GetFilesTotal() int        { return r.total }
func (r fakeResult) GetFilesProcessed() int    { return r.processed }
func (r fakeResult) GetErrors() []error        { return nil }
func (r fakeResult) GetOriginalSize() uint64   { return r.orig }
func (r fakeResult) GetCompressedSize() uint64 { return r.comp }
func (r fakeResult) Success() bool             { return true }
