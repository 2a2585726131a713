// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

// Package format serializes and deserializes the versioned vault container.
//
// Current (V2) layout, prefix fields little-endian:
//
//	[magic:4][version:4][pbkdf2_iterations:4][header_length:4][flags:1]
//	then, if FEC is flagged:
//	  [redundancy_pct:1][original_length:4][fec_encoded(header_body)]
//	else:
//	  [header_body]
//	followed by the AEAD ciphertext, nothing after it.
//
// The header body (big-endian fields) holds the security policy, the key
// slot table, and the payload salt and IV. The body is always FEC-protected
// at a 20% redundancy floor regardless of the configured percentage: the
// header is the one region without which nothing else is recoverable.
package format

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/tjdeveng/KeepTower-sub001/internal/fec"
	"github.com/tjdeveng/KeepTower-sub001/models"
)

const (
	// MagicV2 identifies the multi-user container format.
	MagicV2 uint32 = 0x4B505457

	// MagicV1 identifies the legacy single-user format ("KPT\0").
	MagicV1 uint32 = 0x0054504B

	// VersionV1 and VersionV2 are the known format versions.
	VersionV1 uint32 = 1
	VersionV2 uint32 = 2

	// MaxHeaderSize is the hard ceiling of the header-length field.
	MaxHeaderSize = 1 << 20

	// HeaderFECFloor is the minimum redundancy the header body is encoded
	// at, regardless of the configured payload redundancy.
	HeaderFECFloor = 20

	// FlagFECEnabled marks a FEC-protected header. FlagTokenRequired is
	// meaningful only in the legacy V1 format.
	FlagFECEnabled    uint8 = 0x01
	FlagTokenRequired uint8 = 0x02

	prefixSize      = 16
	payloadSaltSize = 32
	payloadIVSize   = 12
)

// Header is the parsed container header of a V2 vault.
type Header struct {
	// Version is the container format version, always VersionV2 for
	// headers produced by this codec.
	Version uint32

	// PBKDF2Iterations mirrors the policy's iteration count in the fixed
	// prefix, readable without decoding the body.
	PBKDF2Iterations uint32

	// FECEnabled reports whether the header body was FEC-protected.
	FECEnabled bool

	// Redundancy is the stored redundancy percentage. Encoding always uses
	// max(HeaderFECFloor, Redundancy).
	Redundancy uint8

	// Policy is the vault-wide security policy.
	Policy models.SecurityPolicy

	// Slots is the ordered key slot table.
	Slots []models.KeySlot

	// PayloadSalt and PayloadIV parameterize the payload encryption.
	PayloadSalt []byte
	PayloadIV   []byte
}

// Container is a fully parsed vault file: header plus the raw ciphertext.
type Container struct {
	Header     Header
	Ciphertext []byte
}

// DetectVersion reads the fixed-offset magic and version fields.
//
// Returns ErrCorruptedFile for too-short input or an unknown magic, and
// ErrUnsupportedVersion for a recognized magic with an unknown version.
func DetectVersion(data []byte) (uint32, error) {
	if len(data) < 8 {
		return 0, fmt.Errorf("%w: %d bytes is too short for a vault file", ErrCorruptedFile, len(data))
	}

	magic := binary.LittleEndian.Uint32(data)
	version := binary.LittleEndian.Uint32(data[4:])

	switch magic {
	case MagicV1:
		if version != VersionV1 {
			return 0, fmt.Errorf("%w: legacy magic with version %d", ErrUnsupportedVersion, version)
		}
		return VersionV1, nil
	case MagicV2:
		if version != VersionV2 {
			return 0, fmt.Errorf("%w: version %d", ErrUnsupportedVersion, version)
		}
		return VersionV2, nil
	default:
		return 0, fmt.Errorf("%w: unknown magic 0x%08x", ErrCorruptedFile, magic)
	}
}

// WriteHeader serializes h into the on-disk V2 header bytes.
//
// When h.FECEnabled is set, the body is encoded at max(HeaderFECFloor,
// h.Redundancy) and the stored redundancy byte is clamped up to the floor
// as well, never down. Returns ErrInvalidParameter for a redundancy above
// fec.MaxRedundancy and ErrCorruptedFile if the result would exceed
// MaxHeaderSize.
func WriteHeader(h *Header) ([]byte, error) {
	body, err := encodeBody(h)
	if err != nil {
		return nil, err
	}

	var section []byte
	var flags uint8
	if h.FECEnabled {
		flags |= FlagFECEnabled

		effective := max(HeaderFECFloor, int(h.Redundancy))
		if effective > fec.MaxRedundancy {
			return nil, fmt.Errorf("%w: redundancy %d%% above maximum %d%%",
				ErrInvalidParameter, h.Redundancy, fec.MaxRedundancy)
		}

		codec, err := fec.New(effective)
		if err != nil {
			return nil, fmt.Errorf("create header fec codec: %w", err)
		}
		encoded, err := codec.Encode(body)
		if err != nil {
			return nil, fmt.Errorf("encode header fec: %w", err)
		}

		fw := &byteWriter{}
		fw.u8(uint8(effective))
		fw.u32(uint32(encoded.OriginalLen))
		fw.bytes(encoded.Data)
		section = fw.buf
	} else {
		section = body
	}

	headerLen := 1 + len(section)
	if headerLen > MaxHeaderSize {
		return nil, fmt.Errorf("%w: header length %d exceeds maximum %d",
			ErrCorruptedFile, headerLen, MaxHeaderSize)
	}

	out := make([]byte, 0, prefixSize+headerLen)
	out = binary.LittleEndian.AppendUint32(out, MagicV2)
	out = binary.LittleEndian.AppendUint32(out, VersionV2)
	out = binary.LittleEndian.AppendUint32(out, h.PBKDF2Iterations)
	out = binary.LittleEndian.AppendUint32(out, uint32(headerLen))
	out = append(out, flags)
	out = append(out, section...)
	return out, nil
}

// WriteContainer serializes the header and appends the payload ciphertext.
func WriteContainer(c *Container) ([]byte, error) {
	header, err := WriteHeader(&c.Header)
	if err != nil {
		return nil, err
	}
	return append(header, c.Ciphertext...), nil
}

// ReadHeader parses a V2 header from data and returns it with the number of
// bytes consumed; everything after that offset is payload ciphertext.
//
// A stored redundancy outside the valid range silently falls back to
// parsing the section bytes uncorrected, preserving compatibility with
// files written before redundancy validation existed.
func ReadHeader(data []byte) (*Header, int, error) {
	version, err := DetectVersion(data)
	if err != nil {
		return nil, 0, err
	}
	if version != VersionV2 {
		return nil, 0, fmt.Errorf("%w: version %d has no structured header", ErrUnsupportedVersion, version)
	}
	if len(data) < prefixSize+1 {
		return nil, 0, fmt.Errorf("%w: truncated header prefix", ErrCorruptedFile)
	}

	h := &Header{Version: version}
	h.PBKDF2Iterations = binary.LittleEndian.Uint32(data[8:])

	headerLen := int(binary.LittleEndian.Uint32(data[12:]))
	if headerLen < 1 || headerLen > MaxHeaderSize {
		return nil, 0, fmt.Errorf("%w: header length %d outside [1, %d]", ErrCorruptedFile, headerLen, MaxHeaderSize)
	}
	if prefixSize+headerLen > len(data) {
		return nil, 0, fmt.Errorf("%w: header length %d exceeds file size", ErrCorruptedFile, headerLen)
	}

	flags := data[prefixSize]
	h.FECEnabled = flags&FlagFECEnabled != 0
	section := data[prefixSize+1 : prefixSize+headerLen]

	body := section
	if h.FECEnabled {
		if len(section) < 5 {
			return nil, 0, fmt.Errorf("%w: fec header section too small", ErrCorruptedFile)
		}

		redundancy := section[0]
		h.Redundancy = redundancy

		if int(redundancy) >= fec.MinRedundancy && int(redundancy) <= fec.MaxRedundancy {
			originalLen := int(binary.BigEndian.Uint32(section[1:5]))

			codec, err := fec.New(max(HeaderFECFloor, int(redundancy)))
			if err != nil {
				return nil, 0, fmt.Errorf("create header fec codec: %w", err)
			}
			body, err = codec.Decode(&fec.Encoded{
				Data:        section[5:],
				OriginalLen: originalLen,
				Redundancy:  codec.Redundancy(),
			})
			if err != nil {
				if errors.Is(err, fec.ErrDecodingFailed) {
					return nil, 0, fmt.Errorf("%w: %v", ErrFECDecodingFailed, err)
				}
				return nil, 0, fmt.Errorf("%w: %v", ErrCorruptedFile, err)
			}
		}
		// Out-of-range stored redundancy: parse the section uncorrected.
	}

	if err := decodeBody(h, body); err != nil {
		return nil, 0, err
	}
	return h, prefixSize + headerLen, nil
}

// ReadContainer parses a complete V2 vault file.
func ReadContainer(data []byte) (*Container, error) {
	header, consumed, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}

	ciphertext := make([]byte, len(data)-consumed)
	copy(ciphertext, data[consumed:])
	return &Container{Header: *header, Ciphertext: ciphertext}, nil
}

// ReadLegacyHeader parses the V1 prefix, which carries only the PBKDF2
// iteration count. V1 vaults are single-user and read-only here.
func ReadLegacyHeader(data []byte) (iterations uint32, err error) {
	version, err := DetectVersion(data)
	if err != nil {
		return 0, err
	}
	if version != VersionV1 {
		return 0, fmt.Errorf("%w: not a legacy container", ErrUnsupportedVersion)
	}
	if len(data) < 12 {
		return 0, fmt.Errorf("%w: truncated legacy header", ErrCorruptedFile)
	}
	return binary.LittleEndian.Uint32(data[8:]), nil
}

// encodeBody serializes the FEC-protected region: policy, slot table, and
// payload salt/IV.
func encodeBody(h *Header) ([]byte, error) {
	if len(h.Slots) > models.MaxKeySlots {
		return nil, fmt.Errorf("%w: %d slots exceeds maximum %d", ErrInvalidParameter, len(h.Slots), models.MaxKeySlots)
	}
	if err := h.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	if len(h.PayloadSalt) != payloadSaltSize {
		return nil, fmt.Errorf("%w: payload salt must be %d bytes", ErrInvalidParameter, payloadSaltSize)
	}
	if len(h.PayloadIV) != payloadIVSize {
		return nil, fmt.Errorf("%w: payload iv must be %d bytes", ErrInvalidParameter, payloadIVSize)
	}

	w := &byteWriter{}
	encodePolicy(w, &h.Policy)
	w.u8(uint8(len(h.Slots)))
	for i := range h.Slots {
		if err := encodeSlot(w, &h.Slots[i]); err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
	}
	w.bytes(h.PayloadSalt)
	w.bytes(h.PayloadIV)
	return w.buf, nil
}

// decodeBody is the structural inverse of encodeBody.
func decodeBody(h *Header, body []byte) error {
	r := newByteReader(body)

	policy, err := decodePolicy(r)
	if err != nil {
		return err
	}
	h.Policy = policy

	slotCount := int(r.u8())
	if slotCount > models.MaxKeySlots {
		return fmt.Errorf("%w: slot count %d exceeds maximum %d", ErrCorruptedFile, slotCount, models.MaxKeySlots)
	}

	h.Slots = make([]models.KeySlot, 0, slotCount)
	for i := 0; i < slotCount; i++ {
		slot, err := decodeSlot(r)
		if err != nil {
			return fmt.Errorf("slot %d: %w", i, err)
		}
		h.Slots = append(h.Slots, slot)
	}

	h.PayloadSalt = r.bytes(payloadSaltSize)
	h.PayloadIV = r.bytes(payloadIVSize)
	if r.failed {
		return fmt.Errorf("%w: truncated header body", ErrCorruptedFile)
	}
	return nil
}
