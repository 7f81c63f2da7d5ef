// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package oggopus

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// byteReader performs exact-length little-endian reads over any io.Reader.
type byteReader struct {
	in io.Reader
	n  int64
}

func newByteReader(in io.Reader) *byteReader {
	return &byteReader{in: in}
}

// readFull fills buf completely. io.EOF is only returned when nothing at all
// could be read; a partial read is reported as ErrUnexpectedEndOfInput.
func (r *byteReader) readFull(buf []byte) error {
	n, err := io.ReadFull(r.in, buf)
	r.n += int64(n)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("%w: read %d of %d bytes", ErrUnexpectedEndOfInput, n, len(buf))
	default:
		return err
	}
}

// readExact is readFull without the io.EOF special case, for reads that
// happen in the middle of a structure.
func (r *byteReader) readExact(buf []byte) error {
	err := r.readFull(buf)
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: read 0 of %d bytes", ErrUnexpectedEndOfInput, len(buf))
	}

	return err
}

func (r *byteReader) readU8() (uint8, error) {
	var buf [1]byte
	if err := r.readExact(buf[:]); err != nil {
		return 0, err
	}

	return buf[0], nil
}

func (r *byteReader) readU16() (uint16, error) {
	var buf [2]byte
	if err := r.readExact(buf[:]); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint16(buf[:]), nil
}

func (r *byteReader) readI16() (int16, error) {
	v, err := r.readU16()

	return int16(v), err //nolint:gosec // G115, two's complement reinterpretation
}

func (r *byteReader) readU32() (uint32, error) {
	var buf [4]byte
	if err := r.readExact(buf[:]); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(buf[:]), nil
}

func (r *byteReader) readI64() (int64, error) {
	var buf [8]byte
	if err := r.readExact(buf[:]); err != nil {
		return 0, err
	}

	return int64(binary.LittleEndian.Uint64(buf[:])), nil //nolint:gosec // G115
}

// readBytes allocates n bytes before reading, callers bound n first.
func (r *byteReader) readBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := r.readExact(buf); err != nil {
		return nil, err
	}

	return buf, nil
}

// bytesRead is the number of bytes consumed from the source so far.
func (r *byteReader) bytesRead() int64 {
	return r.n
}
