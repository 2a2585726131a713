package format

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/tjdeveng/KeepTower-sub001/models"
)

func testHeader(slots ...models.KeySlot) *Header {
	return &Header{
		Version:          VersionV2,
		PBKDF2Iterations: 100_000,
		FECEnabled:       true,
		Redundancy:       20,
		Policy:           models.DefaultSecurityPolicy(),
		Slots:            slots,
		PayloadSalt:      bytes.Repeat([]byte{0xAA}, 32),
		PayloadIV:        bytes.Repeat([]byte{0xBB}, 12),
	}
}

func testSlot(hashByte byte) models.KeySlot {
	return models.KeySlot{
		Active:                true,
		KEKAlgorithm:          models.KEKAlgorithmPBKDF2,
		UsernameHashAlgorithm: models.HashSHA3_256,
		UsernameHash:          bytes.Repeat([]byte{hashByte}, 32),
		UsernameHashSize:      32,
		UsernameSalt:          bytes.Repeat([]byte{0x01}, models.UsernameSaltSize),
		KEKSalt:               bytes.Repeat([]byte{0x02}, models.KEKSaltSize),
		WrappedDEK:            bytes.Repeat([]byte{0x03}, models.WrappedDEKSize),
		Role:                  models.RoleAdministrator,
		PasswordChangedAt:     1_700_000_000,
		MigrationStatus:       models.MigrationUnmigrated,
	}
}

func TestDetectVersion(t *testing.T) {
	v2 := make([]byte, 8)
	binary.LittleEndian.PutUint32(v2, MagicV2)
	binary.LittleEndian.PutUint32(v2[4:], VersionV2)
	if v, err := DetectVersion(v2); err != nil || v != VersionV2 {
		t.Fatalf("DetectVersion(v2) = %d, %v", v, err)
	}

	v1 := make([]byte, 8)
	binary.LittleEndian.PutUint32(v1, MagicV1)
	binary.LittleEndian.PutUint32(v1[4:], VersionV1)
	if v, err := DetectVersion(v1); err != nil || v != VersionV1 {
		t.Fatalf("DetectVersion(v1) = %d, %v", v, err)
	}

	if _, err := DetectVersion([]byte{1, 2, 3}); !errors.Is(err, ErrCorruptedFile) {
		t.Fatalf("short input error = %v, want ErrCorruptedFile", err)
	}

	badMagic := make([]byte, 8)
	binary.LittleEndian.PutUint32(badMagic, 0xDEADBEEF)
	if _, err := DetectVersion(badMagic); !errors.Is(err, ErrCorruptedFile) {
		t.Fatalf("bad magic error = %v, want ErrCorruptedFile", err)
	}

	badVersion := make([]byte, 8)
	binary.LittleEndian.PutUint32(badVersion, MagicV2)
	binary.LittleEndian.PutUint32(badVersion[4:], 9)
	if _, err := DetectVersion(badVersion); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("bad version error = %v, want ErrUnsupportedVersion", err)
	}
}

func TestWriteReadHeader_RoundTrip(t *testing.T) {
	slot := testSlot(0x10)
	slot.MustChangePassword = true
	slot.TokenEnrolled = true
	slot.TokenChallenge = bytes.Repeat([]byte{0x07}, 32)
	slot.TokenSerial = "12345678"
	slot.TokenEnrolledAt = 1_690_000_000
	slot.EncryptedPIN = bytes.Repeat([]byte{0x08}, 28)
	slot.CredentialID = []byte("cred-id-0001")
	slot.PasswordHistory = []models.PasswordHistoryEntry{
		{
			Timestamp: 1_680_000_000,
			Salt:      bytes.Repeat([]byte{0x09}, models.PasswordHistorySaltSize),
			Hash:      bytes.Repeat([]byte{0x0A}, models.PasswordHistoryHashSize),
		},
	}

	second := testSlot(0x20)
	second.Role = models.RoleStandardUser
	second.MigrationStatus = models.MigrationMigrated
	second.MigratedAt = 1_710_000_000

	h := testHeader(slot, second)
	h.Policy.PreviousHashAlgorithm = models.HashSHA3_256
	h.Policy.UsernameHashAlgorithm = models.HashPBKDF2SHA256
	h.Policy.MigrationFlags = models.MigrationFlagEnabled
	h.Policy.MigrationStartedAt = 1_705_000_000

	raw, err := WriteHeader(h)
	if err != nil {
		t.Fatalf("WriteHeader error: %v", err)
	}

	parsed, consumed, err := ReadHeader(raw)
	if err != nil {
		t.Fatalf("ReadHeader error: %v", err)
	}
	if consumed != len(raw) {
		t.Fatalf("consumed = %d, want %d", consumed, len(raw))
	}

	if parsed.PBKDF2Iterations != h.PBKDF2Iterations {
		t.Fatalf("iterations = %d, want %d", parsed.PBKDF2Iterations, h.PBKDF2Iterations)
	}
	if !parsed.FECEnabled || parsed.Redundancy != 20 {
		t.Fatalf("fec = %v/%d, want true/20", parsed.FECEnabled, parsed.Redundancy)
	}
	if parsed.Policy.UsernameHashAlgorithm != models.HashPBKDF2SHA256 ||
		parsed.Policy.PreviousHashAlgorithm != models.HashSHA3_256 ||
		!parsed.Policy.MigrationEnabled() ||
		parsed.Policy.MigrationStartedAt != 1_705_000_000 {
		t.Fatalf("policy migration fields mismatch: %+v", parsed.Policy)
	}
	if len(parsed.Slots) != 2 {
		t.Fatalf("slot count = %d, want 2", len(parsed.Slots))
	}

	got := parsed.Slots[0]
	if !got.Active || got.Role != models.RoleAdministrator || !got.MustChangePassword {
		t.Fatalf("slot 0 flags mismatch: %+v", got)
	}
	if !bytes.Equal(got.UsernameHash[:32], slot.UsernameHash) || got.UsernameHashSize != 32 {
		t.Fatalf("slot 0 username hash mismatch")
	}
	if !bytes.Equal(got.WrappedDEK, slot.WrappedDEK) {
		t.Fatalf("slot 0 wrapped dek mismatch")
	}
	if got.TokenSerial != "12345678" || got.TokenEnrolledAt != 1_690_000_000 {
		t.Fatalf("slot 0 token fields mismatch: %+v", got)
	}
	if !bytes.Equal(got.EncryptedPIN, slot.EncryptedPIN) || !bytes.Equal(got.CredentialID, slot.CredentialID) {
		t.Fatalf("slot 0 pin/credential mismatch")
	}
	if len(got.PasswordHistory) != 1 ||
		got.PasswordHistory[0].Timestamp != 1_680_000_000 ||
		!bytes.Equal(got.PasswordHistory[0].Hash, slot.PasswordHistory[0].Hash) {
		t.Fatalf("slot 0 history mismatch")
	}

	if parsed.Slots[1].MigrationStatus != models.MigrationMigrated ||
		parsed.Slots[1].MigratedAt != 1_710_000_000 {
		t.Fatalf("slot 1 migration fields mismatch: %+v", parsed.Slots[1])
	}

	if !bytes.Equal(parsed.PayloadSalt, h.PayloadSalt) || !bytes.Equal(parsed.PayloadIV, h.PayloadIV) {
		t.Fatalf("payload salt/iv mismatch")
	}
}

func TestWriteReadHeader_FullSlotTable(t *testing.T) {
	slots := make([]models.KeySlot, models.MaxKeySlots)
	for i := range slots {
		slots[i] = testSlot(byte(i + 1))
		if i > 0 {
			slots[i].Role = models.RoleStandardUser
		}
	}

	raw, err := WriteHeader(testHeader(slots...))
	if err != nil {
		t.Fatalf("WriteHeader error: %v", err)
	}

	parsed, _, err := ReadHeader(raw)
	if err != nil {
		t.Fatalf("ReadHeader error: %v", err)
	}
	if len(parsed.Slots) != models.MaxKeySlots {
		t.Fatalf("slot count = %d, want %d", len(parsed.Slots), models.MaxKeySlots)
	}
}

func TestWriteHeader_WithoutFEC(t *testing.T) {
	h := testHeader(testSlot(0x10))
	h.FECEnabled = false

	raw, err := WriteHeader(h)
	if err != nil {
		t.Fatalf("WriteHeader error: %v", err)
	}

	parsed, _, err := ReadHeader(raw)
	if err != nil {
		t.Fatalf("ReadHeader error: %v", err)
	}
	if parsed.FECEnabled {
		t.Fatalf("expected FEC disabled")
	}
	if len(parsed.Slots) != 1 {
		t.Fatalf("slot count = %d, want 1", len(parsed.Slots))
	}
}

func TestWriteHeader_RedundancyClampedUpToFloor(t *testing.T) {
	h := testHeader(testSlot(0x10))
	h.Redundancy = 5

	raw, err := WriteHeader(h)
	if err != nil {
		t.Fatalf("WriteHeader error: %v", err)
	}

	parsed, _, err := ReadHeader(raw)
	if err != nil {
		t.Fatalf("ReadHeader error: %v", err)
	}
	if parsed.Redundancy != HeaderFECFloor {
		t.Fatalf("stored redundancy = %d, want floor %d", parsed.Redundancy, HeaderFECFloor)
	}
}

func TestReadHeader_CorrectsCorruptedBytes(t *testing.T) {
	raw, err := WriteHeader(testHeader(testSlot(0x10)))
	if err != nil {
		t.Fatalf("WriteHeader error: %v", err)
	}

	// Flip a few bytes inside the FEC-protected section. 20% redundancy
	// corrects 25 bytes per 255-byte block.
	for i := 0; i < 10; i++ {
		raw[prefixSize+6+i*11] ^= 0xFF
	}

	parsed, _, err := ReadHeader(raw)
	if err != nil {
		t.Fatalf("ReadHeader after corruption error: %v", err)
	}
	if len(parsed.Slots) != 1 || !parsed.Slots[0].Active {
		t.Fatalf("recovered header mismatch")
	}
}

func TestReadHeader_UncorrectableCorruption(t *testing.T) {
	raw, err := WriteHeader(testHeader(testSlot(0x10)))
	if err != nil {
		t.Fatalf("WriteHeader error: %v", err)
	}

	// Wreck most of the encoded section, sparing the redundancy and
	// original-length framing bytes.
	for i := prefixSize + 6; i < len(raw); i += 2 {
		raw[i] ^= 0xA5
	}

	if _, _, err := ReadHeader(raw); !errors.Is(err, ErrFECDecodingFailed) {
		t.Fatalf("error = %v, want ErrFECDecodingFailed", err)
	}
}

func TestReadHeader_TruncationsRejected(t *testing.T) {
	raw, err := WriteHeader(testHeader(testSlot(0x10)))
	if err != nil {
		t.Fatalf("WriteHeader error: %v", err)
	}

	if _, _, err := ReadHeader(raw[:10]); !errors.Is(err, ErrCorruptedFile) {
		t.Fatalf("truncated prefix error = %v, want ErrCorruptedFile", err)
	}
	if _, _, err := ReadHeader(raw[:len(raw)-40]); !errors.Is(err, ErrCorruptedFile) {
		t.Fatalf("truncated section error = %v, want ErrCorruptedFile", err)
	}

	zeroLen := append([]byte(nil), raw...)
	binary.LittleEndian.PutUint32(zeroLen[12:], 0)
	if _, _, err := ReadHeader(zeroLen); !errors.Is(err, ErrCorruptedFile) {
		t.Fatalf("zero header length error = %v, want ErrCorruptedFile", err)
	}

	hugeLen := append([]byte(nil), raw...)
	binary.LittleEndian.PutUint32(hugeLen[12:], MaxHeaderSize+1)
	if _, _, err := ReadHeader(hugeLen); !errors.Is(err, ErrCorruptedFile) {
		t.Fatalf("oversized header length error = %v, want ErrCorruptedFile", err)
	}
}

func TestReadHeader_LegacyFallbackForInvalidRedundancy(t *testing.T) {
	// Build a file whose FEC flag is set but whose section is a plain
	// unencoded body. The first body byte (require-token flag, 0 or 1) is
	// outside the 5-50 redundancy range, which must trigger uncorrected
	// parsing instead of an error.
	h := testHeader(testSlot(0x10))
	h.FECEnabled = false
	plain, err := WriteHeader(h)
	if err != nil {
		t.Fatalf("WriteHeader error: %v", err)
	}

	plain[prefixSize] |= FlagFECEnabled

	parsed, _, err := ReadHeader(plain)
	if err != nil {
		t.Fatalf("ReadHeader fallback error: %v", err)
	}
	if len(parsed.Slots) != 1 {
		t.Fatalf("fallback slot count = %d, want 1", len(parsed.Slots))
	}
}

func TestReadContainer_SplitsCiphertext(t *testing.T) {
	header, err := WriteHeader(testHeader(testSlot(0x10)))
	if err != nil {
		t.Fatalf("WriteHeader error: %v", err)
	}
	ciphertext := bytes.Repeat([]byte{0xEE}, 100)

	c, err := ReadContainer(append(append([]byte(nil), header...), ciphertext...))
	if err != nil {
		t.Fatalf("ReadContainer error: %v", err)
	}
	if !bytes.Equal(c.Ciphertext, ciphertext) {
		t.Fatalf("ciphertext mismatch")
	}
}

func TestReadLegacyHeader(t *testing.T) {
	legacy := make([]byte, 12)
	binary.LittleEndian.PutUint32(legacy, MagicV1)
	binary.LittleEndian.PutUint32(legacy[4:], VersionV1)
	binary.LittleEndian.PutUint32(legacy[8:], 250_000)

	iterations, err := ReadLegacyHeader(legacy)
	if err != nil {
		t.Fatalf("ReadLegacyHeader error: %v", err)
	}
	if iterations != 250_000 {
		t.Fatalf("iterations = %d, want 250000", iterations)
	}

	v2 := make([]byte, 12)
	binary.LittleEndian.PutUint32(v2, MagicV2)
	binary.LittleEndian.PutUint32(v2[4:], VersionV2)
	if _, err := ReadLegacyHeader(v2); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("v2 to legacy reader error = %v, want ErrUnsupportedVersion", err)
	}
}
