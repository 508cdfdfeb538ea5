package codec

// DEFLATE symbol tables (RFC 1951 3.2.5)

const (
	endBlockMarker   = 256
	lengthCodesStart = 257

	baseMatchLength = 3
	maxMatchLength  = 258
	baseMatchOffset = 1
	maxMatchOffset  = 1 << 15

	maxStoredBlock = 65535
)

// The number of extra bits needed by length code X - lengthCodesStart.
var lengthExtraBits = [29]uint8{
	/* 257 */ 0, 0, 0,
	/* 260 */ 0, 0, 0, 0, 0, 1, 1, 1, 1, 2,
	/* 270 */ 2, 2, 2, 3, 3, 3, 3, 4, 4, 4,
	/* 280 */ 4, 5, 5, 5, 5, 0,
}

// The length indicated by length code X - lengthCodesStart, minus baseMatchLength.
var lengthBase = [29]uint16{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 10,
	12, 14, 16, 20, 24, 28, 32, 40, 48, 56,
	64, 80, 96, 112, 128, 160, 192, 224, 255,
}

var offsetExtraBits = [30]uint8{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3,
	4, 4, 5, 5, 6, 6, 7, 7, 8, 8,
	9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}

// Offset bases, minus baseMatchOffset.
var offsetBase = [30]uint32{
	0x000000, 0x000001, 0x000002, 0x000003, 0x000004,
	0x000006, 0x000008, 0x00000c, 0x000010, 0x000018,
	0x000020, 0x000030, 0x000040, 0x000060, 0x000080,
	0x0000c0, 0x000100, 0x000180, 0x000200, 0x000300,
	0x000400, 0x000600, 0x000800, 0x000c00, 0x001000,
	0x001800, 0x002000, 0x003000, 0x004000, 0x006000,
}

type hcode struct {
	code uint16
	len  uint8
}

var (
	// lengthCodes maps length-3 to its length code
	lengthCodes [256]uint8

	// fixed Huffman codes, bit-reversed for LSB-first output
	fixedLiteral [288]hcode
	fixedOffset  [30]hcode
)

func init() {
	for code := range lengthBase {
		n := 1 << lengthExtraBits[code]
		for i := 0; i < n && int(lengthBase[code])+i < len(lengthCodes); i++ {
			lengthCodes[int(lengthBase[code])+i] = uint8(code)
		}
	}

	for sym := range fixedLiteral {
		var code, n int
		switch {
		case sym < 144:
			code, n = 0x30+sym, 8
		case sym < 256:
			code, n = 0x190+sym-144, 9
		case sym < 280:
			code, n = sym-256, 7
		default:
			code, n = 0xc0+sym-280, 8
		}
		fixedLiteral[sym] = hcode{code: reverseBits(uint16(code), n), len: uint8(n)}
	}

	for sym := range fixedOffset {
		fixedOffset[sym] = hcode{code: reverseBits(uint16(sym), 5), len: 5}
	}
}

func reverseBits(v uint16, n int) uint16 {
	var r uint16
	for i := 0; i < n; i++ {
		r = r<<1 | v&1
		v >>= 1
	}
	return r
}

func lengthCode(length int) int {
	return int(lengthCodes[length-baseMatchLength])
}

func offsetCode(dist int) int {
	d := uint32(dist - baseMatchOffset)
	for code := len(offsetBase) - 1; code > 0; code-- {
		if d >= offsetBase[code] {
			return code
		}
	}
	return 0
}
