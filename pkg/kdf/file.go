package kdf

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// File is an open KDF container.
type File struct {
	Path   string
	Header *Header
	Size   int64

	f       *os.File
	data    []byte
	mmapped bool
}

// Open parses the header of the file at path and maps it read-only for
// channel access. If mmap is unavailable, channel reads fall back to ReadAt.
// Slices returned by ChannelData are only valid until Close.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	cleanup := func(err error) (*File, error) {
		_ = f.Close()
		return nil, err
	}

	stat, err := f.Stat()
	if err != nil {
		return cleanup(err)
	}
	size := stat.Size()

	hdr, err := ReadHeader(io.NewSectionReader(f, 0, size))
	if err != nil {
		return cleanup(err)
	}

	kf := &File{Path: path, Header: hdr, Size: size, f: f}
	if size > 0 && size <= int64(int(^uint(0)>>1)) {
		data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
		if err == nil {
			kf.data = data
			kf.mmapped = true
		}
	}
	return kf, nil
}

// Mapped reports whether channel reads are served from a memory mapping.
func (f *File) Mapped() bool {
	return f.mmapped
}

// ChannelData returns exactly ch.DataSize bytes starting at the data region
// offset of ch.
func (f *File) ChannelData(ch Channel) ([]byte, error) {
	if f == nil || f.f == nil {
		return nil, os.ErrClosed
	}
	if ch.DataOffset < 0 || ch.DataSize < 0 {
		return nil, fmt.Errorf("channel %s: %w: negative offset %d or size %d",
			ch.Label, ErrMalformedData, ch.DataOffset, ch.DataSize)
	}
	start := f.Header.DataStart() + ch.DataOffset
	end := start + ch.DataSize
	if start < 0 || end < start || end > f.Size {
		return nil, fmt.Errorf("channel %s: %w: range [%d,%d) beyond file size %d",
			ch.Label, ErrMalformedData, start, end, f.Size)
	}

	if f.mmapped {
		return f.data[start:end:end], nil
	}
	buf := make([]byte, ch.DataSize)
	if _, err := f.f.ReadAt(buf, start); err != nil {
		return nil, fmt.Errorf("read channel %s: %w", ch.Label, err)
	}
	return buf, nil
}

func (f *File) Close() error {
	if f == nil || f.f == nil {
		return nil
	}
	var err error
	if f.mmapped {
		err = unix.Munmap(f.data)
	}
	if cerr := f.f.Close(); err == nil {
		err = cerr
	}
	f.data = nil
	f.mmapped = false
	f.f = nil
	return err
}
