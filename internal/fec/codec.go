// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

// Package fec implements systematic Reed-Solomon forward error correction
// over 255-byte blocks. The redundancy percentage selects how many of the
// 255 bytes in each block carry parity; the codec can then correct up to
// half that many corrupted bytes per block without any retransmission or
// external checksum.
package fec

import (
	"fmt"

	"github.com/vivint/infectious"
)

const (
	// BlockSize is the Reed-Solomon block size in bytes (GF(2^8)).
	BlockSize = 255

	// MinRedundancy and MaxRedundancy bound the accepted redundancy
	// percentage.
	MinRedundancy = 5
	MaxRedundancy = 50
)

// Encoded is the output of [Codec.Encode]: the block-aligned encoded bytes
// together with the metadata required to decode them. OriginalLen bounds the
// decoded output because the last block is zero-padded.
type Encoded struct {
	// Data holds the encoded blocks, len(Data) % BlockSize == 0.
	Data []byte

	// OriginalLen is the exact length of the input that was encoded.
	OriginalLen int

	// Redundancy is the percentage the data was encoded with.
	Redundancy int
}

// Codec encodes and decodes byte sequences at a fixed redundancy percentage.
// A Codec is safe for concurrent use; all state is read-only after New.
type Codec struct {
	redundancy int
	parity     int
	dataSize   int
	fec        *infectious.FEC
}

// New constructs a Codec for the given redundancy percentage.
//
// Each 255-byte block carries round(255*redundancy/100) parity bytes, so the
// codec corrects up to half that many corrupted bytes per block. Returns
// ErrInvalidRedundancy if redundancy is outside [MinRedundancy, MaxRedundancy].
func New(redundancy int) (*Codec, error) {
	if redundancy < MinRedundancy || redundancy > MaxRedundancy {
		return nil, ErrInvalidRedundancy
	}

	parity := (BlockSize*redundancy + 50) / 100
	if parity < 2 {
		parity = 2
	}
	dataSize := BlockSize - parity

	f, err := infectious.NewFEC(dataSize, BlockSize)
	if err != nil {
		return nil, fmt.Errorf("create rs coder: %w", err)
	}

	return &Codec{
		redundancy: redundancy,
		parity:     parity,
		dataSize:   dataSize,
		fec:        f,
	}, nil
}

// Redundancy returns the percentage the codec was constructed with.
func (c *Codec) Redundancy() int {
	return c.redundancy
}

// DataSize returns the number of data bytes per 255-byte block.
func (c *Codec) DataSize() int {
	return c.dataSize
}

// CorrectableBytesPerBlock returns the maximum number of corrupted bytes the
// codec can repair in a single block.
func (c *Codec) CorrectableBytesPerBlock() int {
	return c.parity / 2
}

// EncodedSize returns the encoded length for an input of inputLen bytes.
func (c *Codec) EncodedSize(inputLen int) int {
	numBlocks := (inputLen + c.dataSize - 1) / c.dataSize
	return numBlocks * BlockSize
}

// Encode splits data into blocks of DataSize bytes (zero-padding the last
// one), appends Reed-Solomon parity to each, and returns the concatenated
// 255-byte blocks. The code is systematic: the data bytes appear unmodified
// at the front of each block. Returns ErrInvalidData for empty input.
func (c *Codec) Encode(data []byte) (*Encoded, error) {
	if len(data) == 0 {
		return nil, ErrInvalidData
	}

	numBlocks := (len(data) + c.dataSize - 1) / c.dataSize
	padded := make([]byte, numBlocks*c.dataSize)
	copy(padded, data)

	out := make([]byte, numBlocks*BlockSize)
	for i := 0; i < numBlocks; i++ {
		block := padded[i*c.dataSize : (i+1)*c.dataSize]
		offset := i * BlockSize

		err := c.fec.Encode(block, func(s infectious.Share) {
			out[offset+s.Number] = s.Data[0]
		})
		if err != nil {
			return nil, fmt.Errorf("rs encode block %d: %w", i, err)
		}
	}

	return &Encoded{
		Data:        out,
		OriginalLen: len(data),
		Redundancy:  c.redundancy,
	}, nil
}

// Decode reconstructs the original bytes from enc, correcting up to
// CorrectableBytesPerBlock corrupted bytes in every block.
//
// Returns ErrInvalidData if enc is structurally unusable, or
// ErrDecodingFailed if any block is corrupted beyond correction capacity.
func (c *Codec) Decode(enc *Encoded) ([]byte, error) {
	if enc == nil || len(enc.Data) == 0 || enc.OriginalLen <= 0 {
		return nil, ErrInvalidData
	}
	if len(enc.Data)%BlockSize != 0 {
		return nil, ErrInvalidData
	}

	numBlocks := len(enc.Data) / BlockSize
	if enc.OriginalLen > numBlocks*c.dataSize {
		return nil, ErrInvalidData
	}

	decoded := make([]byte, 0, numBlocks*c.dataSize)
	shares := make([]infectious.Share, BlockSize)
	for i := 0; i < numBlocks; i++ {
		block := enc.Data[i*BlockSize : (i+1)*BlockSize]
		for j := range shares {
			shares[j] = infectious.Share{
				Number: j,
				Data:   []byte{block[j]},
			}
		}

		data, err := c.fec.Decode(nil, shares)
		if err != nil {
			return nil, fmt.Errorf("%w: block %d", ErrDecodingFailed, i)
		}
		decoded = append(decoded, data...)
	}

	return decoded[:enc.OriginalLen], nil
}
