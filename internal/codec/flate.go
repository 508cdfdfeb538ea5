package codec

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/flate"
)

// flateSession adapts klauspost's writer-style encoder to the step contract.
// Compressed bytes land in staged and are handed out as dst space allows.
type flateSession struct {
	level    int
	strategy Strategy

	fw      *flate.Writer
	fwLevel int
	staged  bytes.Buffer

	dict     []byte
	started  bool
	dirty    bool
	finished bool
}

func newFlateSession() *flateSession {
	return &flateSession{level: DefaultCompression}
}

func (s *flateSession) effectiveLevel() int {
	if s.strategy == StrategyHuffmanOnly {
		return flate.HuffmanOnly
	}
	return s.level
}

func (s *flateSession) Reset() error {
	s.staged.Reset()
	s.dict = nil
	s.started = false
	s.dirty = false
	s.finished = false
	return nil
}

func (s *flateSession) SetParams(level int, strategy Strategy) error {
	if level < DefaultCompression || level > BestCompression {
		return ErrInvalidLevel
	}
	s.level = level
	s.strategy = strategy
	if s.fw != nil && s.fwLevel != s.effectiveLevel() {
		s.fw = nil
	}
	return nil
}

func (s *flateSession) SetDictionary(dict []byte) error {
	if s.started {
		return fmt.Errorf("%w: dictionary set after input", ErrStream)
	}
	s.dict = dict
	return nil
}

func (s *flateSession) begin() error {
	if s.fw == nil {
		fw, err := flate.NewWriter(&s.staged, s.effectiveLevel())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStream, err)
		}
		s.fw = fw
		s.fwLevel = s.effectiveLevel()
	}
	s.fw.ResetDict(&s.staged, s.dict)
	s.started = true
	return nil
}

func (s *flateSession) Deflate(dst, src []byte, flush Flush) (consumed, produced int, status Status, err error) {
	if s.finished && len(src) > 0 {
		return 0, 0, StatusOK, fmt.Errorf("%w: input after finish", ErrStream)
	}
	if !s.started {
		if err := s.begin(); err != nil {
			return 0, 0, StatusOK, err
		}
	}

	if len(src) > 0 {
		consumed, err = s.fw.Write(src)
		if err != nil {
			return consumed, 0, StatusOK, fmt.Errorf("%w: write: %v", ErrStream, err)
		}
		s.dirty = true
	}

	switch flush {
	case BlockFlush, SyncFlush:
		// klauspost only offers a sync flush, which is byte-aligned already
		if s.dirty {
			if err := s.fw.Flush(); err != nil {
				return consumed, 0, StatusOK, fmt.Errorf("%w: flush: %v", ErrStream, err)
			}
			s.dirty = false
		}
	case FinishFlush:
		if !s.finished {
			if err := s.fw.Close(); err != nil {
				return consumed, 0, StatusOK, fmt.Errorf("%w: close: %v", ErrStream, err)
			}
			s.finished = true
			s.dirty = false
		}
	}

	produced = copy(dst, s.staged.Bytes())
	s.staged.Next(produced)

	switch {
	case s.staged.Len() > 0:
		status = StatusBufferFull
	case flush == FinishFlush:
		status = StatusStreamEnd
	default:
		status = StatusOK
	}
	return consumed, produced, status, nil
}

// Pending is always zero: every flush this encoder offers ends on a byte boundary
func (s *flateSession) Pending() (int, error) {
	return 0, nil
}

func (s *flateSession) Prime(bits int, value uint32) error {
	return fmt.Errorf("%w: prime on flate session", ErrUnsupported)
}

func (s *flateSession) Close() error {
	s.fw = nil
	s.staged = bytes.Buffer{}
	s.dict = nil
	return nil
}
