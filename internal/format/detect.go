package format

// Detect identifies the envelope from the leading bytes of a stream.
// Raw DEFLATE carries no magic and is never detected; callers fall back to
// the file extension for it.
func Detect(magic []byte) Format {
	if len(magic) < 2 {
		return FormatUnknown
	}

	if magic[0] == gzipID1 && magic[1] == gzipID2 {
		return FormatGzip
	}

	// zlib: CM=8, CINFO<=7, and the 16-bit header is a multiple of 31
	cmf, flg := magic[0], magic[1]
	if cmf&0x0f == 8 && cmf>>4 <= 7 && (uint16(cmf)<<8|uint16(flg))%31 == 0 {
		return FormatZlib
	}

	return FormatUnknown
}

// IsGzip returns true if the magic bytes indicate a gzip member
func IsGzip(magic []byte) bool {
	return len(magic) >= 2 && magic[0] == gzipID1 && magic[1] == gzipID2
}

// FromExtension maps a file name suffix to a format
func FromExtension(name string) Format {
	for _, f := range []Format{FormatGzip, FormatZlib, FormatRaw} {
		ext := f.Extension()
		if len(name) > len(ext) && name[len(name)-len(ext):] == ext {
			return f
		}
	}
	return FormatUnknown
}
