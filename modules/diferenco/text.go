package diferenco

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
	"unsafe"

	"github.com/mergetools/diff3/modules/streamio"
)

const (
	// MAX_DIFF_SIZE bounds ingest to keep the line-index width (an int)
	// from overflowing and to fail fast on hostile input, per the
	// InputTooLarge error kind.
	MAX_DIFF_SIZE = 100 << 20 // 100MiB
	UTF8          = "UTF-8"
	sniffLen      = 8000
)

var (
	// ErrBinaryData is returned when the content contains a NUL byte in
	// its first sniffLen bytes and textconv was not requested.
	ErrBinaryData = errors.New("binary data")
	// ErrInputTooLarge is returned when size exceeds MAX_DIFF_SIZE.
	ErrInputTooLarge = errors.New("diferenco: input too large")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// stripBOM removes a leading UTF-8 byte-order mark, if present, and
// reports whether one was found.
func stripBOM(b []byte) ([]byte, bool) {
	if bytes.HasPrefix(b, utf8BOM) {
		return b[len(utf8BOM):], true
	}
	return b, false
}

// readRawText reads r fully, bounded by size, rejecting content with a
// NUL byte in its first sniffLen bytes (a cheap binary-content signal) and stripping a
// leading UTF-8 BOM. No charset auto-detection beyond the BOM is
// performed: callers are expected to hand already-decoded text.
func readRawText(r io.Reader, size int64) (string, error) {
	if size > MAX_DIFF_SIZE {
		return "", fmt.Errorf("%w: %d bytes exceeds limit %d bytes", ErrInputTooLarge, size, MAX_DIFF_SIZE)
	}
	buf, err := streamio.GrowReadMax(r, size, int(size))
	if err != nil {
		return "", fmt.Errorf("diferenco: read content: %w", err)
	}
	sniff := buf
	if len(sniff) > sniffLen {
		sniff = sniff[:sniffLen]
	}
	if bytes.IndexByte(sniff, 0) != -1 {
		return "", fmt.Errorf("%w: detected NUL byte in content", ErrBinaryData)
	}
	buf, _ = stripBOM(buf)
	if !utf8.Valid(buf) {
		return "", fmt.Errorf("diferenco: content is not valid UTF-8")
	}
	return unsafe.String(unsafe.SliceData(buf), len(buf)), nil
}

// ReadUnifiedText reads size bytes of already-decoded text from r.
// textconv, kept for API compatibility with callers that used to select
// a charset-conversion path, now only controls whether binary-looking
// content (a NUL byte in the first sniffLen bytes) is rejected:
// textconv=true skips that check, matching the historical "always try"
// behavior for files the caller has already classified as text.
func ReadUnifiedText(r io.Reader, size int64, textconv bool) (content string, charset string, err error) {
	if size > MAX_DIFF_SIZE {
		return "", "", fmt.Errorf("%w: %d bytes exceeds limit %d bytes", ErrInputTooLarge, size, MAX_DIFF_SIZE)
	}
	buf, err := streamio.GrowReadMax(r, size, int(size))
	if err != nil {
		return "", "", fmt.Errorf("diferenco: read content: %w", err)
	}
	if !textconv {
		sniff := buf
		if len(sniff) > sniffLen {
			sniff = sniff[:sniffLen]
		}
		if bytes.IndexByte(sniff, 0) != -1 {
			return "", "", fmt.Errorf("%w: detected NUL byte in content", ErrBinaryData)
		}
	}
	buf, hadBOM := stripBOM(buf)
	if hadBOM {
		charset = "UTF-8 BOM"
	} else {
		charset = UTF8
	}
	return unsafe.String(unsafe.SliceData(buf), len(buf)), charset, nil
}

// NewTextReader wraps r so that a binary-looking prefix (a NUL byte
// within the first sniffLen bytes) is rejected before any content is
// consumed by the caller.
func NewTextReader(r io.Reader) (io.Reader, error) {
	sniffBytes, err := streamio.ReadMax(r, sniffLen)
	if err != nil {
		return nil, err
	}
	if bytes.IndexByte(sniffBytes, 0) != -1 {
		return nil, ErrBinaryData
	}
	return io.MultiReader(bytes.NewReader(sniffBytes), r), nil
}
