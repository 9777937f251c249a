package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "staylock/pkg/errors"
)

func TestWriteError_UsesAppErrorStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"conflict", apperrors.Conflict("room is locked"), http.StatusConflict, apperrors.CodeConflict},
		{"unavailable", apperrors.Unavailable("payment provider"), http.StatusServiceUnavailable, apperrors.CodeUnavailable},
		{"invalid input", apperrors.InvalidInput("bad dates"), http.StatusBadRequest, apperrors.CodeInvalidInput},
		{"plain error", errors.New("driver exploded"), http.StatusInternalServerError, apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			if err := WriteError(rec, tt.err); err != nil {
				t.Fatalf("WriteError returned %v", err)
			}

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", body.Code, tt.wantCode)
			}
			if strings.Contains(body.Error, "driver exploded") {
				t.Errorf("internal cause leaked into response: %s", body.Error)
			}
		})
	}
}

func TestWriteList_EmptyIsArray(t *testing.T) {
	rec := httptest.NewRecorder()
	var items []string
	if err := WriteList(rec, items); err != nil {
		t.Fatalf("WriteList returned %v", err)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"data":[],"count":0}` {
		t.Errorf("body = %s", got)
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Notes string `json:"notes"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if err := DecodeJSON(req, &dst, true); err != nil {
		t.Errorf("empty body with allowEmpty should pass, got %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"unknown":1}`))
	err := DecodeJSON(req, &dst, false)
	if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("unknown field should be invalid input, got %v", err)
	}
}
