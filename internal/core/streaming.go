package core

// streaming.go prepares uploaded bytes for decoding.
//
// Spreadsheet exports from Windows tools often start with a UTF-8 byte order
// mark and occasionally contain bytes from a legacy code page. Both would
// otherwise leak into the first header cell or break the CSV reader.

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadLimited reads all of r, failing with ErrFileTooLarge once more than
// max bytes arrive. A max of zero or less disables the limit.
func ReadLimited(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		return io.ReadAll(r)
	}

	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, max)
	}
	return data, nil
}

// SkipBOM returns a reader that drops a leading UTF-8 byte order mark.
func SkipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// sanitizeUTF8 replaces every invalid UTF-8 sequence with U+FFFD.
func sanitizeUTF8(data []byte) []byte {
	return bytes.ToValidUTF8(data, []byte("\uFFFD"))
}

// textSource wraps CSV bytes with BOM removal and UTF-8 repair.
func textSource(data []byte) io.Reader {
	return SkipBOM(bytes.NewReader(sanitizeUTF8(data)))
}
