// pkg/compress/source.go
package compress

import "io"

// source is an input file opened by openSource
type source struct {
	io.Reader
	size   int64
	mapped bool
	close  func() error
}

func (s *source) Close() error {
	if s.close == nil {
		return nil
	}
	err := s.close()
	s.close = nil
	return err
}
