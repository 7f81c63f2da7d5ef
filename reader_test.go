// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package oggopus

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pion/logging"
	"github.com/pion/transport/v4/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildOpusStream returns a stream with a stereo identification page, a
// comment header split over two pages and three audio packets, the second
// of which spans two pages.
func buildOpusStream() []byte {
	comment := buildCommentPayload("pion", "ARTIST=a", "ARTIST=b", "TITLE=t")

	return concat(
		buildPage(HeaderTypeBeginningOfStream, 0, buildIDPayload(2, 48000, 0, 0, 0, nil)),
		buildPage(0, 1, comment[:20]),
		buildPage(HeaderTypeContinuation, 2, comment[20:]),
		buildPage(0, 3, []byte{0xfc, 0x01}),
		buildPage(0, 4, []byte{0xfc, 0x02}),
		buildPage(HeaderTypeContinuation, 5, []byte{0x03}),
		buildPage(HeaderTypeEndOfStream, 6, []byte{0xfc, 0x04}),
	)
}

func TestParseHeaders(t *testing.T) {
	headers, err := ParseHeaders(bytes.NewReader(buildOpusStream()), WithChecksum(true))
	require.NoError(t, err)

	assert.EqualValues(t, 2, headers.ID.ChannelCount)
	assert.EqualValues(t, 48000, headers.ID.InputSampleRate)
	assert.Nil(t, headers.ID.ChannelMappingTable)

	assert.Equal(t, "pion", headers.Comments.Vendor)
	assert.Equal(t, []string{"a", "b"}, headers.Comments.UserComments.GetAll("ARTIST"))
	title, ok := headers.Comments.UserComments.Get("TITLE")
	assert.True(t, ok)
	assert.Equal(t, "t", title)
}

func TestParsePackets(t *testing.T) {
	packets, err := ParsePackets(bytes.NewReader(buildOpusStream()))
	require.NoError(t, err)

	assert.Equal(t, [][]byte{
		{0xfc, 0x01},
		{0xfc, 0x02, 0x03},
		{0xfc, 0x04},
	}, packets)
}

func TestReader_HeadersThenPackets(t *testing.T) {
	reader, err := NewReader(bytes.NewReader(buildOpusStream()))
	require.NoError(t, err)

	first, err := reader.ReadHeaders()
	require.NoError(t, err)
	second, err := reader.ReadHeaders()
	require.NoError(t, err)
	assert.Same(t, first, second)

	count := 0
	for {
		_, err := reader.NextPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 3, count)
}

func TestReader_NoAudioPages(t *testing.T) {
	stream := concat(
		buildPage(HeaderTypeBeginningOfStream, 0, buildIDPayload(1, 16000, 0, 0, 0, nil)),
		buildPage(0, 1, buildCommentPayload("pion")),
	)

	packets, err := ParsePackets(bytes.NewReader(stream))
	require.NoError(t, err)
	assert.Empty(t, packets)
}

func TestReader_Errors(t *testing.T) {
	lim := test.TimeOut(time.Second * 10)
	defer lim.Stop()

	t.Run("Nil stream", func(t *testing.T) {
		_, err := NewReader(nil)
		assert.ErrorIs(t, err, ErrNilStream)
	})

	t.Run("Invalid option", func(t *testing.T) {
		_, err := NewReader(bytes.NewReader(nil), WithLoggerFactory(nil))
		assert.ErrorIs(t, err, ErrInvalidOption)
	})

	t.Run("Empty stream", func(t *testing.T) {
		_, err := ParseHeaders(bytes.NewReader(nil))
		assert.ErrorIs(t, err, ErrHeadersNotFound)
	})

	t.Run("Only identification page", func(t *testing.T) {
		stream := buildPage(HeaderTypeBeginningOfStream, 0, buildIDPayload(2, 48000, 0, 0, 0, nil))

		_, err := ParseHeaders(bytes.NewReader(stream))
		assert.ErrorIs(t, err, ErrHeadersNotFound)
	})

	t.Run("First page without beginning of stream flag", func(t *testing.T) {
		stream := concat(
			buildPage(0, 0, buildIDPayload(2, 48000, 0, 0, 0, nil)),
			buildPage(0, 1, buildCommentPayload("pion")),
		)

		_, err := ParseHeaders(bytes.NewReader(stream))
		assert.ErrorIs(t, err, ErrHeadersNotFound)
	})

	t.Run("Capture pattern", func(t *testing.T) {
		for i := 0; i < 4; i++ {
			stream := buildOpusStream()
			stream[i] = 'x'

			_, err := ParseHeaders(bytes.NewReader(stream))
			assert.ErrorIs(t, err, ErrInvalidContainerPage)
		}
	})

	t.Run("Identification signature", func(t *testing.T) {
		stream := buildOpusStream()
		stream[28] = 'x'

		_, err := ParseHeaders(bytes.NewReader(stream))
		assert.ErrorIs(t, err, ErrInvalidHeaderSignature)
	})

	t.Run("Comment signature", func(t *testing.T) {
		idPage := buildPage(HeaderTypeBeginningOfStream, 0, buildIDPayload(2, 48000, 0, 0, 0, nil))
		stream := buildOpusStream()
		stream[len(idPage)+28] = 'x'

		_, err := ParseHeaders(bytes.NewReader(stream))
		assert.ErrorIs(t, err, ErrInvalidHeaderSignature)

		_, err = ParsePackets(bytes.NewReader(stream))
		assert.ErrorIs(t, err, ErrInvalidHeaderSignature)
	})

	t.Run("Checksum", func(t *testing.T) {
		stream := buildOpusStream()
		stream[len(stream)-1] ^= 0xff

		_, err := ParsePackets(bytes.NewReader(stream), WithChecksum(true))
		assert.ErrorIs(t, err, ErrChecksumMismatch)

		_, err = ParsePackets(bytes.NewReader(stream))
		assert.NoError(t, err)
	})

	t.Run("Truncated audio page", func(t *testing.T) {
		stream := buildOpusStream()

		_, err := ParsePackets(bytes.NewReader(stream[:len(stream)-1]))
		assert.ErrorIs(t, err, ErrUnexpectedEndOfInput)
	})

	t.Run("Comment header too large", func(t *testing.T) {
		_, err := ParseHeaders(bytes.NewReader(buildOpusStream()), WithMaxCommentHeaderSize(30))
		assert.ErrorIs(t, err, ErrCommentHeaderTooLarge)
	})

	t.Run("Errors are sticky", func(t *testing.T) {
		reader, err := NewReader(bytes.NewReader(nil))
		require.NoError(t, err)

		_, err = reader.ReadHeaders()
		assert.ErrorIs(t, err, ErrHeadersNotFound)
		_, err = reader.NextPacket()
		assert.ErrorIs(t, err, ErrHeadersNotFound)
	})
}

func TestReader_LoggerFactory(t *testing.T) {
	var out bytes.Buffer
	factory := logging.NewDefaultLoggerFactory()
	factory.Writer = &out
	factory.DefaultLogLevel = logging.LogLevelDebug

	stream := concat(
		buildPage(HeaderTypeBeginningOfStream, 0, buildIDPayload(2, 48000, 0, 0, 0, nil)),
		buildPage(0, 1, buildCommentPayload("pion", "NOSEPARATOR", "A=B")),
		buildPage(HeaderTypeEndOfStream, 2, []byte{0xfc}),
	)

	reader, err := NewReader(bytes.NewReader(stream), WithLoggerFactory(factory))
	require.NoError(t, err)

	packets, err := reader.ReadPackets()
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{0xfc}}, packets)

	assert.Contains(t, out.String(), "without '=' separator")
	assert.Contains(t, out.String(), "read headers: 2 channels")
}

func TestReader_ContinuationJoinsCommentHeader(t *testing.T) {
	stream := concat(
		buildPage(HeaderTypeBeginningOfStream, 0, buildIDPayload(2, 48000, 0, 0, 0, nil)),
		buildPage(0, 1, buildCommentPayload("pion", "A=B")),
		buildPage(HeaderTypeContinuation|HeaderTypeEndOfStream, 2, []byte{0xfc}),
	)

	reader, err := NewReader(bytes.NewReader(stream))
	require.NoError(t, err)

	headers, err := reader.ReadHeaders()
	require.NoError(t, err)
	assert.Equal(t, "pion", headers.Comments.Vendor)
	value, ok := headers.Comments.UserComments.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "B", value)

	packets, err := reader.ReadPackets()
	require.NoError(t, err)
	assert.Empty(t, packets)
}

func TestParseFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.opus")
	require.NoError(t, os.WriteFile(path, buildOpusStream(), 0o600))

	headers, err := ParseHeadersFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "pion", headers.Comments.Vendor)

	packets, err := ParsePacketsFromFile(path)
	require.NoError(t, err)
	assert.Len(t, packets, 3)

	_, err = ParseHeadersFromFile(filepath.Join(t.TempDir(), "missing.opus"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
