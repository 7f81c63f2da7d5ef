// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package media turns the packets of an Ogg Opus stream into timed samples.
package media

import (
	"time"

	"github.com/pion/oggopus"
)

// Sample is one Opus packet and the time it plays for.
type Sample struct {
	Data     []byte
	Duration time.Duration
}

// PacketSource yields Opus packets and io.EOF after the last one.
// *oggopus.Reader satisfies it.
type PacketSource interface {
	NextPacket() ([]byte, error)
}

// SampleReader reads Samples from a PacketSource.
type SampleReader struct {
	packets PacketSource
	elapsed time.Duration
}

// NewSampleReader returns a SampleReader reading from packets.
func NewSampleReader(packets PacketSource) *SampleReader {
	return &SampleReader{packets: packets}
}

// NextSample returns the next sample. Errors from the source, io.EOF
// included, are returned unchanged. An empty packet carries no audio and is
// returned as a zero-duration sample.
func (s *SampleReader) NextSample() (Sample, error) {
	packet, err := s.packets.NextPacket()
	if err != nil {
		return Sample{}, err
	}
	if len(packet) == 0 {
		return Sample{Data: packet}, nil
	}

	duration, err := oggopus.PacketDuration(packet)
	if err != nil {
		return Sample{}, err
	}
	s.elapsed += duration

	return Sample{Data: packet, Duration: duration}, nil
}

// Elapsed is the summed duration of every sample returned so far.
func (s *SampleReader) Elapsed() time.Duration {
	return s.elapsed
}

// NSamples calculates the number of samples in duration d at rate freq.
func NSamples(d time.Duration, freq int) uint32 {
	return uint32(time.Duration(freq) * d / time.Second) //nolint:gosec // G115
}
