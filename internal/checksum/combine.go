package checksum

const adlerBase = 65521

// CombineAdler32 merges two Adler-32 checksums of adjacent regions
func CombineAdler32(adler1, adler2 uint32, len2 int64) uint32 {
	if len2 < 0 {
		return 0xffffffff
	}

	rem := uint32(len2 % adlerBase)
	sum1 := adler1 & 0xffff
	sum2 := (rem * sum1) % adlerBase
	sum1 += (adler2 & 0xffff) + adlerBase - 1
	sum2 += (adler1 >> 16) + (adler2 >> 16) + adlerBase - rem

	if sum1 >= adlerBase {
		sum1 -= adlerBase
	}
	if sum1 >= adlerBase {
		sum1 -= adlerBase
	}
	if sum2 >= adlerBase<<1 {
		sum2 -= adlerBase << 1
	}
	if sum2 >= adlerBase {
		sum2 -= adlerBase
	}
	return sum1 | sum2<<16
}

// gf2 32x32 bit matrix over GF(2); row n is the image of bit n
type gf2Matrix [32]uint32

func (m *gf2Matrix) times(vec uint32) uint32 {
	var sum uint32
	for i := 0; vec != 0; i, vec = i+1, vec>>1 {
		if vec&1 != 0 {
			sum ^= m[i]
		}
	}
	return sum
}

func (m *gf2Matrix) square(of *gf2Matrix) {
	for n := range m {
		m[n] = of.times(of[n])
	}
}

// CombineCRC32 merges two IEEE CRC-32 checksums of adjacent regions by applying
// len2 zero bytes to crc1 through repeated squaring of the shift operator.
func CombineCRC32(crc1, crc2 uint32, len2 int64) uint32 {
	if len2 <= 0 {
		return crc1
	}

	var even, odd gf2Matrix

	// operator for one zero bit
	odd[0] = 0xedb88320
	row := uint32(1)
	for n := 1; n < 32; n++ {
		odd[n] = row
		row <<= 1
	}

	even.square(&odd) // two zero bits
	odd.square(&even) // four zero bits

	for {
		even.square(&odd)
		if len2&1 != 0 {
			crc1 = even.times(crc1)
		}
		len2 >>= 1
		if len2 == 0 {
			break
		}

		odd.square(&even)
		if len2&1 != 0 {
			crc1 = odd.times(crc1)
		}
		len2 >>= 1
		if len2 == 0 {
			break
		}
	}

	return crc1 ^ crc2
}
