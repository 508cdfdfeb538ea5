// pkg/verify/verify.go
package verify

import (
	"bufio"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/creativeyann17/go-pflate/internal/format"
	"github.com/creativeyann17/go-pflate/pkg/decompress"
	"github.com/creativeyann17/go-pflate/pkg/pflate"
	"github.com/klauspost/compress/gzip"
	"github.com/zeebo/blake3"
)

// ProgressCallback is called for progress updates during verification
type ProgressCallback func(event ProgressEvent)

// ProgressEvent contains progress information
type ProgressEvent struct {
	Type         EventType
	FilePath     string
	CurrentBytes uint64
	TotalBytes   uint64
	Message      string
}

// EventType indicates the type of progress event
type EventType int

const (
	EventStart EventType = iota
	EventHeader
	EventDataProgress
	EventCompare
	EventComplete
	EventError
)

const (
	gzipHeaderLen  = 10
	gzipTrailerLen = 8
	zlibHeaderLen  = 2
	zlibTrailerLen = 4

	// smallest DEFLATE body: an empty final fixed-Huffman block
	minDeflateLen = 2
)

// Verify checks a compressed stream and returns comprehensive results.
// Header problems are returned as errors; data problems are collected in
// Result.Errors.
func Verify(opts *Options, progressCb ProgressCallback) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	result := &Result{
		ArchivePath: opts.InputPath,
	}

	file, err := os.Open(opts.InputPath)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	result.ArchiveSize = uint64(stat.Size())

	if progressCb != nil {
		progressCb(ProgressEvent{
			Type:       EventStart,
			FilePath:   opts.InputPath,
			TotalBytes: result.ArchiveSize,
		})
	}

	header := make([]byte, gzipHeaderLen)
	n, err := io.ReadFull(file, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header = header[:n]
	result.Magic = hex.EncodeToString(header[:min(n, 2)])

	result.Format = opts.Format
	if result.Format == format.FormatUnknown {
		result.Format = format.Detect(header)
	}
	if result.Format == format.FormatUnknown && format.FromExtension(opts.InputPath) == format.FormatRaw {
		result.Format = format.FormatRaw
	}

	if err := checkHeader(header, result); err != nil {
		result.Errors = append(result.Errors, err)
		return result, err
	}
	if err := checkTrailer(file, result); err != nil {
		result.Errors = append(result.Errors, err)
		return result, err
	}

	if progressCb != nil {
		progressCb(ProgressEvent{
			Type:     EventHeader,
			FilePath: opts.InputPath,
			Message:  fmt.Sprintf("%s header valid", result.Format),
		})
	}

	if opts.VerifyData {
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("seek to start: %w", err)
		}
		verifyData(file, opts, progressCb, result)
	}

	if opts.OriginalPath != "" && result.DataVerified {
		if progressCb != nil {
			progressCb(ProgressEvent{
				Type:     EventCompare,
				FilePath: opts.OriginalPath,
			})
		}
		compareOriginal(opts.OriginalPath, result)
	}

	if progressCb != nil {
		typ := EventComplete
		if !result.IsValid() {
			typ = EventError
		}
		progressCb(ProgressEvent{
			Type:         typ,
			FilePath:     opts.InputPath,
			CurrentBytes: result.ArchiveSize,
			TotalBytes:   result.ArchiveSize,
		})
	}

	return result, nil
}

// checkHeader validates the envelope header and records the level hint
func checkHeader(header []byte, result *Result) error {
	switch result.Format {
	case format.FormatGzip:
		if len(header) < gzipHeaderLen {
			return ErrTruncated
		}
		if header[2] != 8 {
			return fmt.Errorf("%w: compression method %d", ErrInvalidHeader, header[2])
		}
		if header[3]&0xe0 != 0 {
			return fmt.Errorf("%w: reserved flag bits set", ErrInvalidHeader)
		}
		switch header[8] {
		case 2:
			result.LevelHint = "best"
		case 4:
			result.LevelHint = "fastest"
		default:
			result.LevelHint = "default"
		}
		result.OS = header[9]

	case format.FormatZlib:
		if len(header) < zlibHeaderLen {
			return ErrTruncated
		}
		if header[1]&0x20 != 0 {
			return ErrPresetDictionary
		}
		result.LevelHint = [...]string{"fastest", "fast", "default", "best"}[header[1]>>6]

	case format.FormatRaw:

	default:
		return ErrInvalidMagic
	}

	result.HeaderValid = true
	return nil
}

// checkTrailer makes sure the file can hold a header, a body and a trailer,
// and reads the trailer fields
func checkTrailer(file *os.File, result *Result) error {
	var headerLen, trailerLen int
	switch result.Format {
	case format.FormatGzip:
		headerLen, trailerLen = gzipHeaderLen, gzipTrailerLen
	case format.FormatZlib:
		headerLen, trailerLen = zlibHeaderLen, zlibTrailerLen
	}

	size := int64(result.ArchiveSize)
	if size < int64(headerLen+minDeflateLen+trailerLen) {
		return ErrTruncated
	}

	if trailerLen > 0 {
		trailer := make([]byte, trailerLen)
		if _, err := file.ReadAt(trailer, size-int64(trailerLen)); err != nil {
			return fmt.Errorf("read trailer: %w", err)
		}
		if result.Format == format.FormatGzip {
			result.TrailerSum = binary.LittleEndian.Uint32(trailer[:4])
			result.TrailerSize = binary.LittleEndian.Uint32(trailer[4:])
		} else {
			result.TrailerSum = binary.BigEndian.Uint32(trailer)
		}
	}

	result.TrailerValid = true
	return nil
}

// verifyData decodes the whole stream into a BLAKE3 hasher. Every gzip
// member is decoded separately so members can be counted.
func verifyData(file *os.File, opts *Options, progressCb ProgressCallback, result *Result) {
	var src io.Reader = file
	if progressCb != nil {
		var read uint64
		src = &pflate.ProgressReader{
			Reader: file,
			OnRead: func(n int) {
				read += uint64(n)
				progressCb(ProgressEvent{
					Type:         EventDataProgress,
					FilePath:     opts.InputPath,
					CurrentBytes: read,
					TotalBytes:   result.ArchiveSize,
				})
			},
		}
	}

	hasher := blake3.New()
	counter := &pflate.CountingWriter{Writer: hasher}

	var err error
	if result.Format == format.FormatGzip {
		result.Members, err = decodeMembers(bufio.NewReader(src), counter)
	} else {
		var zr io.ReadCloser
		zr, _, err = decompress.NewReader(src, result.Format)
		if err == nil {
			_, err = io.Copy(counter, zr)
			zr.Close()
		}
	}

	result.OriginalSize = counter.Count()
	result.Digest = hex.EncodeToString(hasher.Sum(nil))
	result.DataVerified = true
	if err != nil {
		result.TrailerValid = false
		result.Errors = append(result.Errors, fmt.Errorf("%w: %v", ErrCorruptData, err))
	}
}

// decodeMembers decodes concatenated gzip members into w
func decodeMembers(br *bufio.Reader, w io.Writer) (int, error) {
	zr, err := gzip.NewReader(br)
	if err != nil {
		return 0, err
	}
	defer zr.Close()

	members := 0
	for {
		zr.Multistream(false)
		if _, err := io.Copy(w, zr); err != nil {
			return members, fmt.Errorf("member %d: %w", members+1, err)
		}
		members++

		err := zr.Reset(br)
		if errors.Is(err, io.EOF) {
			return members, nil
		}
		if err != nil {
			return members, fmt.Errorf("member %d header: %w", members+1, err)
		}
	}
}

// compareOriginal hashes the original file and compares it with the decoded digest
func compareOriginal(path string, result *Result) {
	f, err := os.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("open original: %w", err))
		return
	}
	defer f.Close()

	hasher := blake3.New()
	n, err := io.Copy(hasher, f)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("read original: %w", err))
		return
	}

	result.Compared = true
	result.ContentMatch = uint64(n) == result.OriginalSize &&
		hex.EncodeToString(hasher.Sum(nil)) == result.Digest
	if !result.ContentMatch {
		result.Errors = append(result.Errors, ErrContentMismatch)
	}
}
