// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package oggopus

import "errors"

// Errors returned while parsing a stream. They are wrapped with additional
// context, use errors.Is to test for them.
var (
	// ErrUnexpectedEndOfInput is returned when the source ends in the middle of a structure.
	ErrUnexpectedEndOfInput = errors.New("unexpected end of input")
	// ErrInvalidContainerPage is returned when a page does not start with the OggS capture pattern.
	ErrInvalidContainerPage = errors.New("invalid ogg page capture pattern")
	// ErrInvalidHeaderSignature is returned when a header payload has the wrong magic.
	ErrInvalidHeaderSignature = errors.New("invalid opus header signature")
	// ErrInvalidEncoding is returned when a vendor string or comment is not valid UTF-8.
	ErrInvalidEncoding = errors.New("invalid utf-8 encoding")
	// ErrCommentHeaderTooLarge is returned when the comment pages exceed the configured ceiling.
	ErrCommentHeaderTooLarge = errors.New("comment header too large")
	// ErrFieldLengthExceedsRemaining is returned when a length prefix claims more
	// bytes than the comment header has left.
	ErrFieldLengthExceedsRemaining = errors.New("field length exceeds remaining header bytes")
	// ErrHeadersNotFound is returned when the stream ends before both headers were read.
	ErrHeadersNotFound = errors.New("opus headers not found")
	// ErrChecksumMismatch is returned when checksum verification is enabled and a page is corrupt.
	ErrChecksumMismatch = errors.New("expected and actual checksum do not match")
	// ErrNilStream is returned when a nil io.Reader is supplied.
	ErrNilStream = errors.New("stream is nil")
	// ErrInvalidOption is returned when an Option is given an unusable value.
	ErrInvalidOption = errors.New("invalid option")
	// ErrInvalidPacket is returned when an Opus packet is too short to carry its TOC.
	ErrInvalidPacket = errors.New("invalid opus packet")
)
