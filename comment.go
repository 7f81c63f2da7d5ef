// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package oggopus

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pion/logging"
)

// PageSource supplies pages to the comment assembler and packet reassembler.
// UnreadPage pushes a page back so the next ReadPage returns it again.
type PageSource interface {
	ReadPage() (*Page, error)
	UnreadPage(page *Page)
}

// Comment is a single KEY=VALUE user comment.
type Comment struct {
	Key   string
	Value string
}

// Comments holds user comments in stream order. A key may occur more than once.
type Comments []Comment

// Get returns the first value stored under key. Keys compare case-insensitively.
func (c Comments) Get(key string) (string, bool) {
	for _, comment := range c {
		if strings.EqualFold(comment.Key, key) {
			return comment.Value, true
		}
	}

	return "", false
}

// GetAll returns every value stored under key, in stream order.
func (c Comments) GetAll(key string) []string {
	var values []string
	for _, comment := range c {
		if strings.EqualFold(comment.Key, key) {
			values = append(values, comment.Value)
		}
	}

	return values
}

// Keys returns the distinct keys in order of first appearance.
func (c Comments) Keys() []string {
	var keys []string
	seen := map[string]struct{}{}
	for _, comment := range c {
		folded := strings.ToUpper(comment.Key)
		if _, ok := seen[folded]; ok {
			continue
		}
		seen[folded] = struct{}{}
		keys = append(keys, comment.Key)
	}

	return keys
}

// Len returns the number of stored comments, duplicates included.
func (c Comments) Len() int {
	return len(c)
}

// CommentHeader is the OpusTags packet.
//
// https://datatracker.ietf.org/doc/html/rfc7845#section-5.2
type CommentHeader struct {
	Vendor       string
	UserComments Comments
}

// AssembleComment gathers the comment header from the next page and every
// continuation page after it, then decodes it. The first page that does not
// continue the header is pushed back onto pages.
func AssembleComment(pages PageSource, options ...Option) (*CommentHeader, error) {
	cfg, err := newConfig(options...)
	if err != nil {
		return nil, err
	}

	return assembleComment(pages, cfg.maxCommentHeaderSize, cfg.logger())
}

func assembleComment(pages PageSource, maxSize int, log logging.LeveledLogger) (*CommentHeader, error) {
	data, err := gatherComment(pages, maxSize)
	if err != nil {
		return nil, err
	}

	return decodeComment(data, log)
}

func gatherComment(pages PageSource, maxSize int) ([]byte, error) {
	first, err := pages.ReadPage()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: stream ended before the comment header", ErrHeadersNotFound)
	} else if err != nil {
		return nil, err
	}

	if len(first.Payload) > maxSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrCommentHeaderTooLarge, len(first.Payload), maxSize)
	}
	data := append([]byte{}, first.Payload...)

	for {
		page, err := pages.ReadPage()
		if errors.Is(err, io.EOF) {
			return data, nil
		} else if err != nil {
			return nil, err
		}

		if !page.IsContinuation() {
			pages.UnreadPage(page)

			return data, nil
		}

		if len(data)+len(page.Payload) > maxSize {
			return nil, fmt.Errorf("%w: more than %d bytes", ErrCommentHeaderTooLarge, maxSize)
		}
		data = append(data, page.Payload...)
	}
}

// DecodeComment decodes an assembled OpusTags packet. Comments without a
// '=' separator are dropped.
func DecodeComment(data []byte, options ...Option) (*CommentHeader, error) {
	cfg, err := newConfig(options...)
	if err != nil {
		return nil, err
	}

	return decodeComment(data, cfg.logger())
}

// decodeComment checks every length field against the bytes the header has
// left before allocating for it.
func decodeComment(data []byte, log logging.LeveledLogger) (*CommentHeader, error) {
	reader := newByteReader(bytes.NewReader(data))
	remaining := uint64(len(data))

	if err := checkSignature(reader, commentSignature); err != nil {
		return nil, err
	}
	remaining -= signatureLen

	vendor, remaining, err := readCommentString(reader, remaining, "vendor string")
	if err != nil {
		return nil, err
	}

	count, err := reader.readU32()
	if err != nil {
		return nil, err
	}
	remaining -= 4

	header := &CommentHeader{Vendor: vendor}
	for i := uint32(0); i < count; i++ {
		var entry string
		if entry, remaining, err = readCommentString(reader, remaining, "user comment"); err != nil {
			return nil, fmt.Errorf("comment %d: %w", i, err)
		}

		key, value, found := strings.Cut(entry, "=")
		if !found {
			log.Debugf("dropping comment %d without '=' separator (%d bytes)", i, len(entry))

			continue
		}
		header.UserComments = append(header.UserComments, Comment{Key: key, Value: value})
	}

	return header, nil
}

// readCommentString reads a length-prefixed UTF-8 string and returns the
// updated budget.
func readCommentString(reader *byteReader, remaining uint64, field string) (string, uint64, error) {
	length, err := reader.readU32()
	if err != nil {
		return "", remaining, err
	}
	remaining -= 4

	if uint64(length) > remaining {
		return "", remaining, fmt.Errorf("%w: %s claims %d bytes, %d left",
			ErrFieldLengthExceedsRemaining, field, length, remaining)
	}

	raw, err := reader.readBytes(int(length))
	if err != nil {
		return "", remaining, err
	}
	remaining -= uint64(length)

	if !utf8.Valid(raw) {
		return "", remaining, fmt.Errorf("%w: %s", ErrInvalidEncoding, field)
	}

	return string(raw), remaining, nil
}
