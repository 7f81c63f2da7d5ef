// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package rtpopus packetizes Opus samples read from an Ogg container into
// RTP packets and describes them in SDP.
package rtpopus

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pion/oggopus"
	"github.com/pion/oggopus/pkg/media"
	"github.com/pion/randutil"
	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
	"github.com/pion/sdp/v3"
)

const (
	// DefaultPayloadType is the dynamic payload type used when none is configured.
	DefaultPayloadType = 111
	// DefaultMTU is the default maximum RTP packet size.
	DefaultMTU = 1200

	codecName = "opus"
	// Opus is always signalled as two channels in SDP, RFC 7587 section 7.
	sdpChannels = 2
)

var errNilHeaders = errors.New("headers are nil")

// Packetizer converts media.Samples to RTP packets.
type Packetizer struct {
	payloadType uint8
	ssrc        uint32
	mtu         uint16
	packetizer  rtp.Packetizer
}

// Option configures a Packetizer.
type Option func(*Packetizer)

// WithPayloadType sets the RTP payload type.
func WithPayloadType(payloadType uint8) Option {
	return func(p *Packetizer) {
		p.payloadType = payloadType
	}
}

// WithSSRC sets the RTP synchronization source. A random one is used otherwise.
func WithSSRC(ssrc uint32) Option {
	return func(p *Packetizer) {
		p.ssrc = ssrc
	}
}

// WithMTU sets the maximum RTP packet size.
func WithMTU(mtu uint16) Option {
	return func(p *Packetizer) {
		p.mtu = mtu
	}
}

// NewPacketizer returns a Packetizer.
func NewPacketizer(options ...Option) *Packetizer {
	p := &Packetizer{
		payloadType: DefaultPayloadType,
		ssrc:        randutil.NewMathRandomGenerator().Uint32(),
		mtu:         DefaultMTU,
	}
	for _, option := range options {
		option(p)
	}

	p.packetizer = rtp.NewPacketizer(
		p.mtu,
		p.payloadType,
		p.ssrc,
		&codecs.OpusPayloader{},
		rtp.NewRandomSequencer(),
		oggopus.SampleRate,
	)

	return p
}

// SSRC returns the synchronization source stamped on every packet.
func (p *Packetizer) SSRC() uint32 {
	return p.ssrc
}

// Packetize returns the RTP packets carrying sample. The timestamp of the
// following call advances by the sample's duration.
func (p *Packetizer) Packetize(sample media.Sample) []*rtp.Packet {
	return p.packetizer.Packetize(sample.Data, media.NSamples(sample.Duration, oggopus.SampleRate))
}

// SessionDescription returns an SDP offer with one audio section describing
// a stream with the given headers.
func SessionDescription(headers *oggopus.Headers, payloadType uint8) (*sdp.SessionDescription, error) {
	if headers == nil {
		return nil, errNilHeaders
	}

	description, err := sdp.NewJSEPSessionDescription(false)
	if err != nil {
		return nil, err
	}

	audio := sdp.NewJSEPMediaDescription("audio", []string{}).
		WithCodec(payloadType, codecName, oggopus.SampleRate, sdpChannels, FmtpLine(&headers.ID)).
		WithPropertyAttribute(sdp.AttrKeySendOnly)

	if vendor := headers.Comments.Vendor; vendor != "" {
		description = description.WithValueAttribute("tool", vendor)
	}

	return description.WithMedia(audio), nil
}

// FmtpLine returns the format parameters for a stream with the given
// identification header.
//
// https://datatracker.ietf.org/doc/html/rfc7587#section-6.1
func FmtpLine(id *oggopus.IdentificationHeader) string {
	params := []string{"minptime=10", "useinbandfec=1"}
	if id.ChannelCount > 1 {
		params = append(params, "stereo=1", "sprop-stereo=1")
	}
	if id.InputSampleRate != 0 {
		params = append(params, fmt.Sprintf("sprop-maxcapturerate=%d", id.InputSampleRate))
	}

	return strings.Join(params, ";")
}
