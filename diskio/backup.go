package diskio

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

type Compression int

const (
	NoCompression Compression = iota
	Zstd
	LZ4
)

func (c Compression) String() string {
	switch c {
	case NoCompression:
		return "none"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Compression(%d)", int(c))
	}
}

// Ext is the file name suffix of backups compressed with c.
func (c Compression) Ext() string {
	switch c {
	case Zstd:
		return ".zst"
	case LZ4:
		return ".lz4"
	default:
		return ""
	}
}

func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return NoCompression, nil
	case "zstd", "zst":
		return Zstd, nil
	case "lz4":
		return LZ4, nil
	default:
		return NoCompression, fmt.Errorf("unknown compression %q", s)
	}
}

func BackupPath(path string, c Compression) string {
	return path + ".bak" + c.Ext()
}

// Backup copies src to dst, compressing it with c. dst is replaced
// atomically, so an interrupted backup never clobbers the previous one.
func Backup(src, dst string, c Compression) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o666)
	if err != nil {
		return err
	}
	var ok bool
	defer closeAndDeleteUnlessOK(f, &ok)

	w, err := compressor(f, c)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	if err != nil {
		return err
	}
	err = w.Close()
	if err != nil {
		return err
	}
	err = Fdatasync(f)
	if err != nil {
		return err
	}
	err = f.Close()
	if err != nil {
		return err
	}
	err = os.Rename(tmp, dst)
	if err != nil {
		return err
	}
	ok = true
	return nil
}

// Restore writes the uncompressed contents of backup to dst. The compression
// is picked by the backup's file name suffix.
func Restore(backup, dst string) error {
	in, err := os.Open(backup)
	if err != nil {
		return err
	}
	defer in.Close()

	r, err := decompressor(in, compressionOf(backup))
	if err != nil {
		return err
	}
	defer r.Close()

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o666)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(f, r)
	if err != nil {
		return err
	}
	err = Fdatasync(f)
	if err != nil {
		return err
	}
	return f.Close()
}

func compressionOf(path string) Compression {
	switch {
	case strings.HasSuffix(path, Zstd.Ext()):
		return Zstd
	case strings.HasSuffix(path, LZ4.Ext()):
		return LZ4
	default:
		return NoCompression
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func compressor(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case NoCompression:
		return nopWriteCloser{w}, nil
	case Zstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	case LZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported compression %v", c)
	}
}

type zstdReadCloser struct {
	*zstd.Decoder
}

func (r zstdReadCloser) Close() error {
	r.Decoder.Close()
	return nil
}

func decompressor(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zstdReadCloser{dec}, nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return io.NopCloser(r), nil
	}
}

func closeAndDeleteUnlessOK(f *os.File, ok *bool) {
	if *ok {
		return
	}
	f.Close()
	os.Remove(f.Name())
}
