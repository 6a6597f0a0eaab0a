package frame

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/pushport/pkg/pushport/failure"
)

const document = `<?xml version="1.0" encoding="UTF-8"?><Pport ts="2023-03-01T00:05:12"><uR updateOrigin="CIS"/></Pport>`

func compress(t *testing.T, compression Compression, data []byte) []byte {
	t.Helper()

	var buffer bytes.Buffer
	var err error

	switch compression {
	case CompressionGzip:
		w := gzip.NewWriter(&buffer)
		_, err = w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case CompressionZlib:
		w := zlib.NewWriter(&buffer)
		_, err = w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case CompressionDeflate:
		w, err := flate.NewWriter(&buffer, flate.BestCompression)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	default:
		return data
	}

	return buffer.Bytes()
}

func TestDecodeDetectsCompression(t *testing.T) {
	for _, compression := range []Compression{CompressionGzip, CompressionZlib, CompressionNone} {
		t.Run(string(compression), func(t *testing.T) {
			payload := compress(t, compression, []byte(document))
			assert.Equal(t, compression, Detect(payload))

			tree, err := Decode(payload)
			require.NoError(t, err)

			pport, ok, err := tree.Node("Pport")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "2023-03-01T00:05:12", pport.AttrOr("ts", ""))
		})
	}
}

func TestDecodeRawDeflate(t *testing.T) {
	payload := compress(t, CompressionDeflate, []byte(document))

	data, err := Decompress(payload)
	require.NoError(t, err)
	assert.Equal(t, document, string(data))
}

func TestDecodeFailures(t *testing.T) {
	truncated := compress(t, CompressionZlib, []byte(document))
	truncated = truncated[:len(truncated)/2]

	for name, payload := range map[string][]byte{
		"empty":           {},
		"corrupt gzip":    {0x1f, 0x8b, 0x00, 0x01, 0x02},
		"truncated zlib":  truncated,
		"not xml":         compress(t, CompressionZlib, []byte("hello world")),
		"unbalanced tags": []byte("<Pport><uR></Pport>"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(payload)
			assert.ErrorIs(t, err, failure.ErrDecodeFailure)
		})
	}
}
