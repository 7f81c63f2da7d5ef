// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package oggopus extracts the identification header, the comment header
// and the raw audio packets from an Ogg Opus stream.
//
// https://datatracker.ietf.org/doc/html/rfc7845
package oggopus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pion/logging"
)

// Headers are the two header packets that start every Ogg Opus stream.
type Headers struct {
	ID       IdentificationHeader
	Comments CommentHeader
}

// Reader parses an Ogg Opus stream from its first byte. It is not safe for
// concurrent use.
type Reader struct {
	pages   *PageReader
	unread  *Page
	cfg     *config
	log     logging.LeveledLogger
	headers *Headers
	packets *PacketReader
	err     error
}

// NewReader returns a Reader for the stream in.
func NewReader(in io.Reader, options ...Option) (*Reader, error) {
	if in == nil {
		return nil, ErrNilStream
	}

	cfg, err := newConfig(options...)
	if err != nil {
		return nil, err
	}

	reader := &Reader{
		pages: newPageReader(in, cfg),
		cfg:   cfg,
		log:   cfg.logger(),
	}
	reader.packets = NewPacketReader(reader, reader.log)

	return reader, nil
}

// ReadPage returns the next page, honoring a page pushed back by UnreadPage.
func (r *Reader) ReadPage() (*Page, error) {
	if page := r.unread; page != nil {
		r.unread = nil

		return page, nil
	}

	return r.pages.ReadPage()
}

// UnreadPage pushes page back so the next ReadPage returns it.
func (r *Reader) UnreadPage(page *Page) {
	r.unread = page
}

// ReadHeaders reads the identification and comment headers. It may be
// called more than once and returns the same result each time.
func (r *Reader) ReadHeaders() (*Headers, error) {
	if r.headers != nil || r.err != nil {
		return r.headers, r.err
	}

	r.headers, r.err = r.readHeaders()

	return r.headers, r.err
}

func (r *Reader) readHeaders() (*Headers, error) {
	page, err := r.ReadPage()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: stream is empty", ErrHeadersNotFound)
	} else if err != nil {
		return nil, err
	}

	if !page.IsBeginningOfStream() {
		return nil, fmt.Errorf("%w: first page is not flagged as beginning of stream", ErrHeadersNotFound)
	}

	id, err := DecodeIdentification(page.Payload)
	if err != nil {
		return nil, fmt.Errorf("identification header: %w", err)
	}

	comments, err := assembleComment(r, r.cfg.maxCommentHeaderSize, r.log)
	if err != nil {
		return nil, fmt.Errorf("comment header: %w", err)
	}

	r.log.Debugf("read headers: %d channels, %d Hz input, %d comments",
		id.ChannelCount, id.InputSampleRate, comments.UserComments.Len())

	return &Headers{ID: *id, Comments: *comments}, nil
}

// NextPacket returns the next audio packet, reading the headers first if
// needed. It returns io.EOF after the last packet.
func (r *Reader) NextPacket() ([]byte, error) {
	if _, err := r.ReadHeaders(); err != nil {
		return nil, err
	}

	return r.packets.Next()
}

// ReadPackets returns every remaining audio packet.
func (r *Reader) ReadPackets() ([][]byte, error) {
	if _, err := r.ReadHeaders(); err != nil {
		return nil, err
	}

	return r.packets.ReadAll()
}

// ParseHeaders reads the headers of the stream in.
func ParseHeaders(in io.Reader, options ...Option) (*Headers, error) {
	reader, err := NewReader(in, options...)
	if err != nil {
		return nil, err
	}

	return reader.ReadHeaders()
}

// ParsePackets reads every audio packet of the stream in. The headers are
// parsed and validated but not returned.
func ParsePackets(in io.Reader, options ...Option) ([][]byte, error) {
	reader, err := NewReader(in, options...)
	if err != nil {
		return nil, err
	}

	return reader.ReadPackets()
}

// ParseHeadersFromFile opens path and reads its headers.
func ParseHeadersFromFile(path string, options ...Option) (*Headers, error) {
	var headers *Headers
	err := withFile(path, func(in io.Reader) (err error) {
		headers, err = ParseHeaders(in, options...)

		return err
	})

	return headers, err
}

// ParsePacketsFromFile opens path and reads every audio packet.
func ParsePacketsFromFile(path string, options ...Option) ([][]byte, error) {
	var packets [][]byte
	err := withFile(path, func(in io.Reader) (err error) {
		packets, err = ParsePackets(in, options...)

		return err
	})

	return packets, err
}

func withFile(path string, fn func(io.Reader) error) error {
	file, err := os.Open(path) //nolint:gosec // G304, caller chooses the file
	if err != nil {
		return err
	}

	if err = fn(bufio.NewReader(file)); err != nil {
		_ = file.Close()

		return err
	}

	return file.Close()
}
