// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package oggopus

import (
	"errors"
	"io"

	"github.com/pion/logging"
)

type packetReaderState int

const (
	packetReaderStart packetReaderState = iota
	packetReaderAccumulating
	packetReaderDone
)

// PacketReader rebuilds Opus packets from the audio pages that follow the
// headers. A page without the continuation flag starts a new packet, a page
// with it extends the current one.
type PacketReader struct {
	pages   PageSource
	state   packetReaderState
	pending []byte
	// ready holds finished packets not yet returned. A single page can
	// finish two packets: the one it interrupts and, with the end-of-stream
	// flag, the one it starts.
	ready [][]byte
	err   error
	log   logging.LeveledLogger
}

// NewPacketReader returns a PacketReader consuming pages. A nil log uses the
// default pion logger.
func NewPacketReader(pages PageSource, log logging.LeveledLogger) *PacketReader {
	if log == nil {
		log = logging.NewDefaultLoggerFactory().NewLogger(loggerScope)
	}

	return &PacketReader{
		pages: pages,
		log:   log,
	}
}

// Next returns the next packet. It returns io.EOF after the last packet; a
// stream that ends without an end-of-stream page still yields its pending
// packet first. Any other error is terminal and returned again on later calls.
func (r *PacketReader) Next() ([]byte, error) {
	for {
		if len(r.ready) > 0 {
			packet := r.ready[0]
			r.ready = r.ready[1:]

			return packet, nil
		}

		if r.state == packetReaderDone {
			if r.err != nil {
				return nil, r.err
			}

			return nil, io.EOF
		}

		page, err := r.pages.ReadPage()
		switch {
		case errors.Is(err, io.EOF):
			r.flush()
			r.state = packetReaderDone

			continue
		case err != nil:
			r.state, r.pending, r.err = packetReaderDone, nil, err

			return nil, err
		}

		r.consume(page)
	}
}

func (r *PacketReader) consume(page *Page) {
	switch {
	case !page.IsContinuation():
		r.flush()
	case r.state != packetReaderAccumulating:
		r.log.Warnf("page %d continues a packet that was never started, treating it as a new packet",
			page.SequenceNumber)
	}

	r.pending = append(r.pending, page.Payload...)
	r.state = packetReaderAccumulating

	if page.IsEndOfStream() {
		r.flush()
		r.state = packetReaderDone
	}
}

// flush moves the current accumulator, if any, to the ready queue.
func (r *PacketReader) flush() {
	if r.state != packetReaderAccumulating {
		return
	}
	packet := r.pending
	if packet == nil {
		packet = []byte{}
	}
	r.ready = append(r.ready, packet)
	r.pending = nil
	r.state = packetReaderStart
}

// ReadAll drains the reader and returns every remaining packet.
func (r *PacketReader) ReadAll() ([][]byte, error) {
	var packets [][]byte
	for {
		packet, err := r.Next()
		if errors.Is(err, io.EOF) {
			return packets, nil
		} else if err != nil {
			return nil, err
		}
		packets = append(packets, packet)
	}
}
