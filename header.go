// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package oggopus

import (
	"bytes"
	"fmt"
)

const (
	identificationSignature = "OpusHead"
	commentSignature        = "OpusTags"
	signatureLen            = 8
)

// IdentificationHeader is the OpusHead packet carried by the first page of
// an Ogg Opus stream.
//
// https://datatracker.ietf.org/doc/html/rfc7845#section-5.1
type IdentificationHeader struct {
	Version         uint8
	ChannelCount    uint8
	PreSkip         uint16
	InputSampleRate uint32
	// OutputGain is a Q7.8 value in dB.
	OutputGain           int16
	ChannelMappingFamily uint8
	// ChannelMappingTable is nil when ChannelMappingFamily is 0.
	ChannelMappingTable *ChannelMappingTable
}

// ChannelMappingTable describes how decoded streams map onto output channels.
type ChannelMappingTable struct {
	StreamCount        uint8
	CoupledStreamCount uint8
	ChannelMapping     []byte
}

// DecodeIdentification decodes an OpusHead payload. Bytes following the
// header are ignored.
func DecodeIdentification(payload []byte) (*IdentificationHeader, error) {
	reader := newByteReader(bytes.NewReader(payload))

	if err := checkSignature(reader, identificationSignature); err != nil {
		return nil, err
	}

	var (
		header = &IdentificationHeader{}
		err    error
	)
	if header.Version, err = reader.readU8(); err != nil {
		return nil, err
	}
	if header.ChannelCount, err = reader.readU8(); err != nil {
		return nil, err
	}
	if header.PreSkip, err = reader.readU16(); err != nil {
		return nil, err
	}
	if header.InputSampleRate, err = reader.readU32(); err != nil {
		return nil, err
	}
	if header.OutputGain, err = reader.readI16(); err != nil {
		return nil, err
	}
	if header.ChannelMappingFamily, err = reader.readU8(); err != nil {
		return nil, err
	}

	if header.ChannelMappingFamily != 0 {
		if header.ChannelMappingTable, err = decodeChannelMappingTable(reader); err != nil {
			return nil, err
		}
	}

	return header, nil
}

func decodeChannelMappingTable(reader *byteReader) (*ChannelMappingTable, error) {
	var (
		table = &ChannelMappingTable{}
		err   error
	)
	if table.StreamCount, err = reader.readU8(); err != nil {
		return nil, err
	}
	if table.CoupledStreamCount, err = reader.readU8(); err != nil {
		return nil, err
	}
	// StreamCount is a single byte, so this is at most 255 bytes.
	if table.ChannelMapping, err = reader.readBytes(int(table.StreamCount)); err != nil {
		return nil, err
	}

	return table, nil
}

func checkSignature(reader *byteReader, signature string) error {
	var sig [signatureLen]byte
	if err := reader.readExact(sig[:]); err != nil {
		return err
	}
	if string(sig[:]) != signature {
		return fmt.Errorf("%w: expected %s, got %q", ErrInvalidHeaderSignature, signature, sig[:])
	}

	return nil
}
