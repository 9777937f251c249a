package middleware

import (
	"bytes"
	"io"
	"net/http"
	"time"

	apperrors "staylock/pkg/errors"
	"staylock/pkg/logger"
	"staylock/pkg/payments"
)

// PaymentSignatureVerification checks the provider signature over the raw
// body before anything decodes it. The timestamp tolerance is measured
// against the wall clock. Rejections are 400 so the provider
// records a failed delivery.
func PaymentSignatureVerification(secret string, tolerance time.Duration, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := readAndRestoreBody(r)
			if err != nil {
				rejectSignature(w, log, r, "failed to read request body", err)
				return
			}

			header := r.Header.Get(payments.SignatureHeader)
			if err := payments.VerifySignature(body, header, secret, tolerance); err != nil {
				rejectSignature(w, log, r, "invalid webhook signature", err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func readAndRestoreBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	return body, nil
}

func rejectSignature(w http.ResponseWriter, log *logger.Logger, r *http.Request, reason string, err error) {
	log.Warn("Payment webhook verification failed",
		"request_id", RequestIDFromContext(r.Context()),
		"reason", reason,
		"error", err,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
	)
	reject(w, log, r, apperrors.InvalidInput("Webhook signature verification failed"))
}
