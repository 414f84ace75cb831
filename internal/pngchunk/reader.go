// Package pngchunk extracts embedded text chunks from PNG containers.
// It tolerates truncated files and skips chunks it cannot decode rather
// than failing the whole read.
package pngchunk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/text/encoding/charmap"
)

// ErrNotPNG is returned when the input does not open with the PNG
// signature. This is the only fatal condition: everything else degrades
// to a partial chunk map.
var ErrNotPNG = errors.New("not a PNG container")

// pngSignature is the fixed 8-byte file header.
var pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

// InflateFunc decompresses a zlib/deflate stream. A nil InflateFunc on a
// Reader means compressed iTXt chunks are skipped with a warning.
type InflateFunc func(data []byte) ([]byte, error)

// Inflate is the default InflateFunc.
func Inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	return io.ReadAll(r)
}

// Reader walks the chunk sequence of a PNG buffer and collects its text
// chunks into a keyword map.
type Reader struct {
	Inflate InflateFunc
	Logger  *slog.Logger
}

func NewReader() *Reader {
	return &Reader{Inflate: Inflate}
}

func (r *Reader) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Read extracts a keyword -> text map from the raw bytes of a PNG file.
// Later chunks with the same keyword overwrite earlier ones. A chunk
// header that declares more payload than remains in the buffer ends the
// walk; whatever was parsed before the cut is returned.
func (r *Reader) Read(data []byte) (map[string]string, error) {
	if len(data) < len(pngSignature) || !bytes.Equal(data[:len(pngSignature)], pngSignature) {
		return nil, ErrNotPNG
	}

	chunks := make(map[string]string)
	off := len(pngSignature)
	for off+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[off : off+4]))
		typ := string(data[off+4 : off+8])
		payloadStart := off + 8
		payloadEnd := payloadStart + length
		if payloadEnd > len(data) {
			// Truncated chunk: keep what we already have.
			break
		}
		payload := data[payloadStart:payloadEnd]
		off = payloadEnd + 4 // trailing CRC, not validated

		switch typ {
		case "IEND":
			return chunks, nil
		case "tEXt":
			if keyword, value, ok := parseTEXt(payload); ok {
				chunks[keyword] = value
			}
		case "iTXt":
			keyword, value, ok, err := r.parseITXt(payload)
			if err != nil {
				r.logger().Warn("skipping iTXt chunk", "keyword", keyword, "err", err)
				continue
			}
			if ok {
				chunks[keyword] = value
			}
		}
	}
	return chunks, nil
}

// parseTEXt splits a tEXt payload at its NUL separator. Both halves are
// Latin-1 per the PNG spec.
func parseTEXt(payload []byte) (keyword, value string, ok bool) {
	i := bytes.IndexByte(payload, 0)
	if i < 0 {
		return "", "", false
	}
	return latin1(payload[:i]), latin1(payload[i+1:]), true
}

// parseITXt decodes an iTXt payload:
// keyword\0 compressionFlag compressionMethod languageTag\0 translatedKeyword\0 text.
// The language tag and translated keyword are skipped. Text is UTF-8,
// optionally deflate-compressed.
func (r *Reader) parseITXt(payload []byte) (keyword, value string, ok bool, err error) {
	i := bytes.IndexByte(payload, 0)
	if i < 0 || i+3 > len(payload) {
		return "", "", false, nil
	}
	keyword = latin1(payload[:i])
	compressed := payload[i+1] == 1
	rest := payload[i+3:]

	j := bytes.IndexByte(rest, 0)
	if j < 0 {
		return keyword, "", false, nil
	}
	rest = rest[j+1:]
	k := bytes.IndexByte(rest, 0)
	if k < 0 {
		return keyword, "", false, nil
	}
	text := rest[k+1:]

	if compressed {
		if r.Inflate == nil {
			return keyword, "", false, errors.New("compressed chunk but no inflate available")
		}
		inflated, ierr := r.Inflate(text)
		if ierr != nil {
			return keyword, "", false, ierr
		}
		text = inflated
	}
	return keyword, string(text), true, nil
}

func latin1(b []byte) string {
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(decoded)
}
