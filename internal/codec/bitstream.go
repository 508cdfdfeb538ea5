package codec

import (
	"fmt"

	"github.com/andybalholm/brotli/matchfinder"
)

// bitSession is a DEFLATE encoder that owns its bit buffer, so it can report
// and extend an unfinished byte. Matches come from andybalholm's matchfinder;
// every block is coded with the fixed Huffman tables or stored, whichever is
// smaller.
type bitSession struct {
	level    int
	strategy Strategy

	finder      matchfinder.MatchFinder
	finderLevel int

	bw      bitWriter
	input   []byte
	matches []matchfinder.Match

	started  bool
	synced   bool
	finished bool
}

func newBitSession() *bitSession {
	return &bitSession{level: DefaultCompression, finderLevel: -2}
}

// newMatchFinder maps a level to the M4 and Pathfinder finders of
// brotli/matchfinder v1.2.0; chain length grows with the level.
func newMatchFinder(level int) matchfinder.MatchFinder {
	if level >= 8 {
		chainLen := 32
		if level == 8 {
			chainLen = 4
		}
		return &matchfinder.Pathfinder{
			MaxDistance: maxMatchOffset,
			ChainLength: chainLen,
			HashLen:     5,
		}
	}

	chainLen := 32
	switch {
	case level < 2:
		chainLen = 1
	case level == 2:
		chainLen = 2
	case level == 3:
		chainLen = 4
	case level == 4:
		chainLen = 6
	case level == 5:
		chainLen = 8
	case level == 6:
		chainLen = 16
	}
	return &matchfinder.M4{
		MaxDistance:     maxMatchOffset,
		ChainLength:     chainLen,
		HashLen:         5,
		DistanceBitCost: 66,
	}
}

func (s *bitSession) usesFinder() bool {
	return s.level != NoCompression && s.strategy != StrategyHuffmanOnly
}

func (s *bitSession) Reset() error {
	s.bw.reset()
	s.input = s.input[:0]
	s.started = false
	s.synced = false
	s.finished = false
	s.selectFinder()
	return nil
}

func (s *bitSession) SetParams(level int, strategy Strategy) error {
	if level < DefaultCompression || level > BestCompression {
		return ErrInvalidLevel
	}
	s.level = level
	s.strategy = strategy
	if !s.started {
		s.selectFinder()
	}
	return nil
}

// selectFinder picks the match finder for the current level and clears its history
func (s *bitSession) selectFinder() {
	if !s.usesFinder() {
		s.finder = nil
		return
	}
	level := s.level
	if level == DefaultCompression {
		level = 6
	}
	if s.finder == nil || s.finderLevel != level {
		s.finder = newMatchFinder(level)
		s.finderLevel = level
	}
	s.finder.Reset()
}

// SetDictionary feeds dict through the match finder so the first block can
// reference it. The matches found inside dict are discarded.
func (s *bitSession) SetDictionary(dict []byte) error {
	if s.started {
		return fmt.Errorf("%w: dictionary set after input", ErrStream)
	}
	if len(dict) > maxMatchOffset {
		dict = dict[len(dict)-maxMatchOffset:]
	}
	if s.finder != nil && len(dict) > 0 {
		s.matches = s.finder.FindMatches(s.matches[:0], dict)
	}
	return nil
}

func (s *bitSession) Deflate(dst, src []byte, flush Flush) (consumed, produced int, status Status, err error) {
	if s.finished && len(src) > 0 {
		return 0, 0, StatusOK, fmt.Errorf("%w: input after finish", ErrStream)
	}
	s.started = true
	if len(src) > 0 {
		s.input = append(s.input, src...)
		s.synced = false
	}
	consumed = len(src)

	switch flush {
	case NoFlush:
		s.encodeFull()
	case BlockFlush:
		s.encodeAll(false)
	case SyncFlush:
		// a repeated call only drains the marker already written
		if !s.synced {
			s.encodeAll(false)
			s.writeStoredHeader(0, false)
			s.synced = true
		}
	case FinishFlush:
		if !s.finished {
			if len(s.input) == 0 {
				s.writeEmptyFixed(true)
			} else {
				s.encodeAll(true)
			}
			s.bw.align()
			s.finished = true
		}
	}

	produced = s.bw.drain(dst)
	switch {
	case s.bw.buffered() > 0:
		status = StatusBufferFull
	case flush == FinishFlush:
		status = StatusStreamEnd
	default:
		status = StatusOK
	}
	return consumed, produced, status, nil
}

// encodeFull codes every complete chunk and keeps the remainder buffered.
func (s *bitSession) encodeFull() {
	off := 0
	for len(s.input)-off >= maxStoredBlock {
		s.encodeChunk(s.input[off:off+maxStoredBlock], false)
		off += maxStoredBlock
	}
	if off > 0 {
		n := copy(s.input, s.input[off:])
		s.input = s.input[:n]
	}
}

func (s *bitSession) encodeAll(final bool) {
	for off := 0; off < len(s.input); off += maxStoredBlock {
		end := min(off+maxStoredBlock, len(s.input))
		s.encodeChunk(s.input[off:end], final && end == len(s.input))
	}
	s.input = s.input[:0]
}

func (s *bitSession) encodeChunk(chunk []byte, final bool) {
	if s.level == NoCompression {
		s.writeStored(chunk, final)
		return
	}

	if s.finder != nil {
		s.matches = s.finder.FindMatches(s.matches[:0], chunk)
	} else {
		s.matches = append(s.matches[:0], matchfinder.Match{Unmatched: len(chunk)})
	}

	storedBits := 3 + s.padAfterHeader() + 32 + 8*len(chunk)
	if s.fixedBits(chunk) >= storedBits {
		s.writeStored(chunk, final)
		return
	}
	s.writeFixed(chunk, final)
}

// padAfterHeader is the number of fill bits between a 3-bit block header
// and the next byte boundary.
func (s *bitSession) padAfterHeader() int {
	return int(8-(s.bw.nbits+3)%8) % 8
}

// walk visits the token stream of chunk, splitting matches DEFLATE cannot
// express directly.
func (s *bitSession) walk(chunk []byte, literal func(b byte), match func(length, dist int)) {
	pos := 0
	for _, m := range s.matches {
		for _, b := range chunk[pos : pos+m.Unmatched] {
			literal(b)
		}
		pos += m.Unmatched

		length := m.Length
		if length < baseMatchLength || m.Distance < baseMatchOffset || m.Distance > maxMatchOffset {
			for _, b := range chunk[pos : pos+length] {
				literal(b)
			}
			pos += length
			continue
		}
		pos += length
		for length > maxMatchLength {
			take := maxMatchLength
			if length-take < baseMatchLength {
				take = length - baseMatchLength
			}
			match(take, m.Distance)
			length -= take
		}
		match(length, m.Distance)
	}
}

func (s *bitSession) fixedBits(chunk []byte) int {
	bits := 3 + int(fixedLiteral[endBlockMarker].len)
	s.walk(chunk,
		func(b byte) { bits += int(fixedLiteral[b].len) },
		func(length, dist int) {
			lc := lengthCode(length)
			oc := offsetCode(dist)
			bits += int(fixedLiteral[lengthCodesStart+lc].len) + int(lengthExtraBits[lc])
			bits += int(fixedOffset[oc].len) + int(offsetExtraBits[oc])
		})
	return bits
}

func (s *bitSession) writeFixed(chunk []byte, final bool) {
	s.bw.writeBits(finalBit(final)|1<<1, 3)
	s.walk(chunk,
		func(b byte) { s.bw.writeCode(fixedLiteral[b]) },
		func(length, dist int) {
			lc := lengthCode(length)
			s.bw.writeCode(fixedLiteral[lengthCodesStart+lc])
			if n := lengthExtraBits[lc]; n > 0 {
				s.bw.writeBits(uint32(length-baseMatchLength-int(lengthBase[lc])), uint(n))
			}
			oc := offsetCode(dist)
			s.bw.writeCode(fixedOffset[oc])
			if n := offsetExtraBits[oc]; n > 0 {
				s.bw.writeBits(uint32(dist-baseMatchOffset)-offsetBase[oc], uint(n))
			}
		})
	s.bw.writeCode(fixedLiteral[endBlockMarker])
}

func (s *bitSession) writeEmptyFixed(final bool) {
	s.bw.writeBits(finalBit(final)|1<<1, 3)
	s.bw.writeCode(fixedLiteral[endBlockMarker])
}

func (s *bitSession) writeStoredHeader(n int, final bool) {
	s.bw.writeBits(finalBit(final), 3)
	s.bw.align()
	s.bw.writeBytes([]byte{byte(n), byte(n >> 8), ^byte(n), ^byte(n >> 8)})
}

func (s *bitSession) writeStored(chunk []byte, final bool) {
	s.writeStoredHeader(len(chunk), final)
	s.bw.writeBytes(chunk)
}

func finalBit(final bool) uint32 {
	if final {
		return 1
	}
	return 0
}

func (s *bitSession) Pending() (int, error) {
	return int(s.bw.nbits), nil
}

func (s *bitSession) Prime(bits int, value uint32) error {
	if bits < 0 || bits > 16 {
		return fmt.Errorf("%w: prime of %d bits", ErrStream, bits)
	}
	if s.finished {
		return fmt.Errorf("%w: prime after finish", ErrStream)
	}
	s.started = true
	s.synced = false
	s.bw.writeBits(value&(1<<uint(bits)-1), uint(bits))
	return nil
}

func (s *bitSession) Close() error {
	s.finder = nil
	s.input = nil
	s.matches = nil
	s.bw = bitWriter{}
	return nil
}
