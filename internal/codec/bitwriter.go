package codec

// bitWriter packs DEFLATE bits LSB-first. Whole bytes move to out as soon
// as they are complete, so nbits is always below 8.
type bitWriter struct {
	bits  uint64
	nbits uint
	out   []byte
	read  int
}

func (w *bitWriter) reset() {
	w.bits = 0
	w.nbits = 0
	w.out = w.out[:0]
	w.read = 0
}

func (w *bitWriter) writeBits(v uint32, n uint) {
	w.bits |= uint64(v) << w.nbits
	w.nbits += n
	for w.nbits >= 8 {
		w.out = append(w.out, byte(w.bits))
		w.bits >>= 8
		w.nbits -= 8
	}
}

func (w *bitWriter) writeCode(c hcode) {
	w.writeBits(uint32(c.code), uint(c.len))
}

func (w *bitWriter) align() {
	if w.nbits > 0 {
		w.writeBits(0, 8-w.nbits)
	}
}

// writeBytes requires a byte-aligned writer
func (w *bitWriter) writeBytes(p []byte) {
	w.out = append(w.out, p...)
}

func (w *bitWriter) buffered() int {
	return len(w.out) - w.read
}

// drain copies completed bytes into dst
func (w *bitWriter) drain(dst []byte) int {
	n := copy(dst, w.out[w.read:])
	w.read += n
	if w.read == len(w.out) {
		w.out = w.out[:0]
		w.read = 0
	}
	return n
}
