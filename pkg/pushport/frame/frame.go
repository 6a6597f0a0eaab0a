// Package frame decompresses raw Push Port payloads and parses them into an
// attributed tree.
package frame

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/travigo/pushport/pkg/pushport/failure"
	"github.com/travigo/pushport/pkg/pushport/xmltree"
)

// Frame is one message as delivered by a transport.
type Frame struct {
	Payload []byte

	// MessageType is the type tag from the transport's MessageType header.
	MessageType string

	// Timestamp is the transport's own timestamp, used when the envelope
	// carries none.
	Timestamp string

	// Source names where the frame came from, such as a topic or file.
	Source string
}

// Compression is the payload encoding detected by Detect.
type Compression string

const (
	CompressionGzip    Compression = "gzip"
	CompressionZlib    Compression = "zlib"
	CompressionDeflate Compression = "deflate"
	CompressionNone    Compression = "none"
)

// Detect inspects the leading bytes of a payload.
func Detect(payload []byte) Compression {
	if len(payload) >= 2 && payload[0] == 0x1f && payload[1] == 0x8b {
		return CompressionGzip
	}

	if len(payload) >= 2 && payload[0]&0x0f == 8 && payload[0]>>4 <= 7 && (uint16(payload[0])<<8|uint16(payload[1]))%31 == 0 {
		return CompressionZlib
	}

	if looksLikeText(payload) {
		return CompressionNone
	}

	return CompressionDeflate
}

func looksLikeText(payload []byte) bool {
	for _, bom := range [][]byte{{0xef, 0xbb, 0xbf}, {0xff, 0xfe}, {0xfe, 0xff}} {
		if bytes.HasPrefix(payload, bom) {
			return true
		}
	}

	trimmed := bytes.TrimLeft(payload, " \t\r\n")
	if len(trimmed) < 2 || trimmed[0] != '<' {
		return false
	}

	next := trimmed[1]
	return next == '?' || next == '!' || next == '_' || (next >= 'a' && next <= 'z') || (next >= 'A' && next <= 'Z')
}

// Decompress returns the XML bytes of a payload.
func Decompress(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("empty payload: %w", failure.ErrDecodeFailure)
	}

	var reader io.ReadCloser
	var err error

	compression := Detect(payload)
	switch compression {
	case CompressionGzip:
		reader, err = gzip.NewReader(bytes.NewReader(payload))
	case CompressionZlib:
		reader, err = zlib.NewReader(bytes.NewReader(payload))
	case CompressionDeflate:
		reader = flate.NewReader(bytes.NewReader(payload))
	case CompressionNone:
		return payload, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s header: %v: %w", compression, err, failure.ErrDecodeFailure)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%s stream: %v: %w", compression, err, failure.ErrDecodeFailure)
	}

	return data, nil
}

// Decode decompresses a payload and parses it into a tree. Any failure is
// an ErrDecodeFailure.
func Decode(payload []byte) (xmltree.Tree, error) {
	data, err := Decompress(payload)
	if err != nil {
		return nil, err
	}

	tree, err := xmltree.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("xml: %v: %w", err, failure.ErrDecodeFailure)
	}

	return tree, nil
}
