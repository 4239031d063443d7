package signup

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterHandlerBadRequest(t *testing.T) {
	handler := NewHandler(NewSignupService(WithRegistrationEnabled(false)))

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "InvalidJSON",
			body:       "{not-json",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "MissingLogin",
			body:       `{"password":"pass123"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "MissingPassword",
			body:       `{"login":"alice@example.com"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "RegistrationDisabled",
			body:       `{"login":"alice@example.com","password":"pass123"}`,
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			handler.Register(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
