package fasta

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies a compression container.
type Codec uint8

const (
	Plain Codec = iota
	Gzip
	Zstd
	LZ4
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

func (c Codec) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return "plain"
	}
}

// DetectCodec sniffs the leading bytes of a stream.
func DetectCodec(head []byte) Codec {
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		return Gzip
	case bytes.HasPrefix(head, zstdMagic):
		return Zstd
	case bytes.HasPrefix(head, lz4Magic):
		return LZ4
	}
	return Plain
}

// CodecForPath picks a codec from a file suffix; used for outputs.
func CodecForPath(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	case ".lz4":
		return LZ4
	}
	return Plain
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r readCloser) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}

// decode sniffs r and wraps it in the matching decompressor. closeFn releases
// the underlying resource and is always called by the returned Close.
func decode(r io.Reader, closeFn func() error) (io.ReadCloser, Codec, error) {
	if closeFn == nil {
		closeFn = func() error { return nil }
	}
	br := bufio.NewReaderSize(r, 64<<10)
	head, _ := br.Peek(4)
	codec := DetectCodec(head)
	fail := func(err error) (io.ReadCloser, Codec, error) {
		_ = closeFn()
		return nil, codec, fmt.Errorf("open %s stream: %w", codec, err)
	}
	switch codec {
	case Gzip:
		gz, err := pgzip.NewReader(br)
		if err != nil {
			return fail(err)
		}
		return readCloser{Reader: gz, close: func() error {
			_ = gz.Close()
			return closeFn()
		}}, codec, nil
	case Zstd:
		dec, err := zstd.NewReader(br)
		if err != nil {
			return fail(err)
		}
		return readCloser{Reader: dec, close: func() error {
			dec.Close()
			return closeFn()
		}}, codec, nil
	case LZ4:
		return readCloser{Reader: lz4.NewReader(br), close: closeFn}, codec, nil
	}
	return readCloser{Reader: br, close: closeFn}, codec, nil
}
