package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quillchat/quill/internal/chat"
)

func TestFailureStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		kind       chat.FailureKind
		wantStatus int
		wantCode   string
	}{
		{"empty history", chat.FailureEmptyHistory, http.StatusBadRequest, "empty_history"},
		{"auth", chat.FailureAuth, http.StatusBadGateway, "model_auth"},
		{"quota", chat.FailureQuota, http.StatusTooManyRequests, "model_quota"},
		{"model unavailable", chat.FailureModelUnavailable, http.StatusServiceUnavailable, "model_unavailable"},
		{"unknown", chat.FailureUnknown, http.StatusInternalServerError, "generation_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			status, code := failureStatus(&chat.Failure{Kind: tt.kind})
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}
