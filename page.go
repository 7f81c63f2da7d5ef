// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package oggopus

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pion/logging"
)

// Page header type flags.
const (
	HeaderTypeContinuation      = 0x01
	HeaderTypeBeginningOfStream = 0x02
	HeaderTypeEndOfStream       = 0x04
)

const (
	pageCapturePattern = "OggS"
	pageHeaderLen      = 27
)

// Page is a single Ogg page. Pages are the fundamental unit of framing in
// an Ogg stream.
//
// https://datatracker.ietf.org/doc/html/rfc3533#section-6
type Page struct {
	Version         uint8
	HeaderType      uint8
	GranulePosition int64
	SerialNumber    uint32
	SequenceNumber  uint32
	Checksum        uint32
	// SegmentTable holds the lacing values, len(Payload) is their sum.
	SegmentTable []byte
	Payload      []byte
}

// IsContinuation reports whether the page continues the previous page's last packet.
func (p *Page) IsContinuation() bool {
	return p.HeaderType&HeaderTypeContinuation != 0
}

// IsBeginningOfStream reports whether the page is the first of its logical stream.
func (p *Page) IsBeginningOfStream() bool {
	return p.HeaderType&HeaderTypeBeginningOfStream != 0
}

// IsEndOfStream reports whether the page is the last of its logical stream.
func (p *Page) IsEndOfStream() bool {
	return p.HeaderType&HeaderTypeEndOfStream != 0
}

// PageReader decodes consecutive Ogg pages from a stream.
type PageReader struct {
	stream        *byteReader
	checksumTable *[256]uint32
	doChecksum    bool
	log           logging.LeveledLogger
}

// NewPageReader returns a PageReader reading from in.
func NewPageReader(in io.Reader, options ...Option) (*PageReader, error) {
	if in == nil {
		return nil, ErrNilStream
	}

	cfg, err := newConfig(options...)
	if err != nil {
		return nil, err
	}

	return newPageReader(in, cfg), nil
}

func newPageReader(in io.Reader, cfg *config) *PageReader {
	return &PageReader{
		stream:        newByteReader(in),
		checksumTable: generateChecksumTable(),
		doChecksum:    cfg.doChecksum,
		log:           cfg.logger(),
	}
}

// ReadPage reads the next page. It returns io.EOF when the stream ends
// cleanly on a page boundary.
func (r *PageReader) ReadPage() (*Page, error) { //nolint:cyclop
	var capture [4]byte
	if err := r.stream.readFull(capture[:]); err != nil {
		return nil, err
	}
	if string(capture[:]) != pageCapturePattern {
		return nil, fmt.Errorf("%w: got %q at offset %d",
			ErrInvalidContainerPage, capture[:], r.stream.bytesRead()-int64(len(capture)))
	}

	var (
		page = &Page{}
		err  error
	)
	if page.Version, err = r.stream.readU8(); err != nil {
		return nil, err
	}
	if page.HeaderType, err = r.stream.readU8(); err != nil {
		return nil, err
	}
	if page.GranulePosition, err = r.stream.readI64(); err != nil {
		return nil, err
	}
	if page.SerialNumber, err = r.stream.readU32(); err != nil {
		return nil, err
	}
	if page.SequenceNumber, err = r.stream.readU32(); err != nil {
		return nil, err
	}
	if page.Checksum, err = r.stream.readU32(); err != nil {
		return nil, err
	}

	segmentsCount, err := r.stream.readU8()
	if err != nil {
		return nil, err
	}
	if page.SegmentTable, err = r.stream.readBytes(int(segmentsCount)); err != nil {
		return nil, err
	}

	// At most 255 * 255 bytes.
	payloadSize := 0
	for _, s := range page.SegmentTable {
		payloadSize += int(s)
	}
	if page.Payload, err = r.stream.readBytes(payloadSize); err != nil {
		return nil, err
	}

	if r.doChecksum {
		if actual := r.checksum(page); actual != page.Checksum {
			return nil, fmt.Errorf("%w: page %d expected %#08x, got %#08x",
				ErrChecksumMismatch, page.SequenceNumber, page.Checksum, actual)
		}
	}

	r.log.Tracef("read page seq=%d serial=%d type=%#02x granule=%d payload=%d",
		page.SequenceNumber, page.SerialNumber, page.HeaderType, page.GranulePosition, len(page.Payload))

	return page, nil
}

// BytesRead returns the number of bytes consumed from the stream.
func (r *PageReader) BytesRead() int64 {
	return r.stream.bytesRead()
}

func (r *PageReader) checksum(page *Page) uint32 {
	var header [pageHeaderLen]byte
	copy(header[0:4], pageCapturePattern)
	header[4] = page.Version
	header[5] = page.HeaderType
	binary.LittleEndian.PutUint64(header[6:14], uint64(page.GranulePosition)) //nolint:gosec // G115
	binary.LittleEndian.PutUint32(header[14:18], page.SerialNumber)
	binary.LittleEndian.PutUint32(header[18:22], page.SequenceNumber)
	// header[22:26] is the checksum itself and is hashed as zero.
	header[26] = uint8(len(page.SegmentTable)) //nolint:gosec // G115, read from a single byte

	return computeChecksum(r.checksumTable, header[:], page.SegmentTable, page.Payload)
}

func computeChecksum(table *[256]uint32, chunks ...[]byte) uint32 {
	var checksum uint32
	for _, chunk := range chunks {
		for _, v := range chunk {
			checksum = (checksum << 8) ^ table[byte(checksum>>24)^v]
		}
	}

	return checksum
}

func generateChecksumTable() *[256]uint32 {
	var table [256]uint32
	const poly = 0x04c11db7

	for i := range table {
		r := uint32(i) << 24 //nolint:gosec // G115
		for j := 0; j < 8; j++ {
			if (r & 0x80000000) != 0 {
				r = (r << 1) ^ poly
			} else {
				r <<= 1
			}
			table[i] = (r & 0xffffffff)
		}
	}

	return &table
}
