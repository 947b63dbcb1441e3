package download

import (
	"errors"
	"io"
)

// progressReader reports the running byte count after every read when fn is set.
type progressReader struct {
	r        io.Reader
	name     string
	received int64
	total    int64
	fn       ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.received += int64(n)
		if p.fn != nil {
			p.fn(p.name, p.received, p.total)
		}
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return n, &readError{err: err}
	}
	return n, err
}

// readError marks failures of the response body so they can be told apart from write errors.
type readError struct {
	err error
}

func (e *readError) Error() string { return e.err.Error() }
func (e *readError) Unwrap() error { return e.err }
