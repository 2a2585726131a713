package app

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tjdeveng/KeepTower-sub001/internal/format"
	"github.com/tjdeveng/KeepTower-sub001/internal/service"
	"github.com/tjdeveng/KeepTower-sub001/internal/store"
	"github.com/tjdeveng/KeepTower-sub001/internal/validators"
)

func TestUserMessage_MapsSentinels(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"auth failed", service.ErrAuthenticationFailed, MsgInvalidLoginPassword},
		{"wrapped auth failed", fmt.Errorf("open: %w", service.ErrAuthenticationFailed), MsgInvalidLoginPassword},
		{"permission denied", service.ErrPermissionDenied, MsgPermissionDenied},
		{"password change required", service.ErrPasswordChangeRequired, MsgPasswordChangeRequired},
		{"password reused", service.ErrPasswordReused, MsgPasswordReused},
		{"no token provider", service.ErrNoTokenProvider, MsgTokenRequired},
		{"legacy vault", service.ErrLegacyVault, MsgLegacyVault},
		{"weak password", validators.ErrWeakPassword, MsgWeakPassword},
		{"file not found", store.ErrFileNotFound, MsgVaultNotFound},
		{"file permissions", store.ErrPermissionDenied, MsgVaultPermissions},
		{"corrupted file", format.ErrCorruptedFile, MsgVaultCorrupted},
		{"fec failure", format.ErrFECDecodingFailed, MsgVaultCorrupted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestUserMessage_PassesThroughUnknownErrors(t *testing.T) {
	err := errors.New("something specific went wrong")
	assert.Equal(t, "something specific went wrong", UserMessage(err))
}
