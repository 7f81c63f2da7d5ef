// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package oggopus

import (
	"fmt"
	"time"
)

// SampleRate is the rate Opus timestamps and granule positions are counted in.
const SampleRate = 48000

// Mode is the Opus coding mode selected by a packet's configuration.
type Mode uint8

// Opus coding modes.
const (
	ModeSILK Mode = iota
	ModeHybrid
	ModeCELT
)

func (m Mode) String() string {
	switch m {
	case ModeSILK:
		return "SILK"
	case ModeHybrid:
		return "Hybrid"
	case ModeCELT:
		return "CELT"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Bandwidth is the audio bandwidth selected by a packet's configuration.
type Bandwidth uint8

// Opus audio bandwidths.
const (
	BandwidthNarrowband Bandwidth = iota
	BandwidthMediumband
	BandwidthWideband
	BandwidthSuperwideband
	BandwidthFullband
)

// TOC is the table-of-contents byte that starts every Opus packet.
//
// https://datatracker.ietf.org/doc/html/rfc6716#section-3.1
type TOC struct {
	Config    uint8
	Mode      Mode
	Bandwidth Bandwidth
	// FrameSize is in samples at 48 kHz.
	FrameSize int
	Stereo    bool
	// FrameCode selects the number of frames: 0 one, 1 and 2 two, 3 signalled.
	FrameCode uint8
}

type tocConfig struct {
	mode      Mode
	bandwidth Bandwidth
	frameSize int
}

var tocConfigs = [32]tocConfig{ //nolint:gochecknoglobals
	{ModeSILK, BandwidthNarrowband, 480},
	{ModeSILK, BandwidthNarrowband, 960},
	{ModeSILK, BandwidthNarrowband, 1920},
	{ModeSILK, BandwidthNarrowband, 2880},
	{ModeSILK, BandwidthMediumband, 480},
	{ModeSILK, BandwidthMediumband, 960},
	{ModeSILK, BandwidthMediumband, 1920},
	{ModeSILK, BandwidthMediumband, 2880},
	{ModeSILK, BandwidthWideband, 480},
	{ModeSILK, BandwidthWideband, 960},
	{ModeSILK, BandwidthWideband, 1920},
	{ModeSILK, BandwidthWideband, 2880},
	{ModeHybrid, BandwidthSuperwideband, 480},
	{ModeHybrid, BandwidthSuperwideband, 960},
	{ModeHybrid, BandwidthFullband, 480},
	{ModeHybrid, BandwidthFullband, 960},
	{ModeCELT, BandwidthNarrowband, 120},
	{ModeCELT, BandwidthNarrowband, 240},
	{ModeCELT, BandwidthNarrowband, 480},
	{ModeCELT, BandwidthNarrowband, 960},
	{ModeCELT, BandwidthWideband, 120},
	{ModeCELT, BandwidthWideband, 240},
	{ModeCELT, BandwidthWideband, 480},
	{ModeCELT, BandwidthWideband, 960},
	{ModeCELT, BandwidthSuperwideband, 120},
	{ModeCELT, BandwidthSuperwideband, 240},
	{ModeCELT, BandwidthSuperwideband, 480},
	{ModeCELT, BandwidthSuperwideband, 960},
	{ModeCELT, BandwidthFullband, 120},
	{ModeCELT, BandwidthFullband, 240},
	{ModeCELT, BandwidthFullband, 480},
	{ModeCELT, BandwidthFullband, 960},
}

// ParseTOC decodes a TOC byte.
func ParseTOC(b byte) TOC {
	config := b >> 3
	entry := tocConfigs[config]

	return TOC{
		Config:    config,
		Mode:      entry.mode,
		Bandwidth: entry.bandwidth,
		FrameSize: entry.frameSize,
		Stereo:    b&0x04 != 0,
		FrameCode: b & 0x03,
	}
}

// PacketSamples returns the number of 48 kHz samples per channel the packet decodes to.
func PacketSamples(packet []byte) (int, error) {
	if len(packet) == 0 {
		return 0, fmt.Errorf("%w: empty packet", ErrInvalidPacket)
	}

	toc := ParseTOC(packet[0])

	var frames int
	switch toc.FrameCode {
	case 0:
		frames = 1
	case 1, 2:
		frames = 2
	default:
		if len(packet) < 2 {
			return 0, fmt.Errorf("%w: missing frame count byte", ErrInvalidPacket)
		}
		frames = int(packet[1] & 0x3F)
	}

	return frames * toc.FrameSize, nil
}

// PacketDuration returns the playback duration of the packet.
func PacketDuration(packet []byte) (time.Duration, error) {
	samples, err := PacketSamples(packet)
	if err != nil {
		return 0, err
	}

	return time.Duration(samples) * time.Second / SampleRate, nil
}
