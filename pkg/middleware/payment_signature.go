package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	apperrors "eatme/pkg/errors"
	"eatme/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

const PaymentSignatureHeader = "X-Payment-Signature"

// PaymentSignature checks the HMAC-SHA512 of the raw body sent by the payment gateway.
func PaymentSignature(secret string, log *logger.Logger, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		signature := strings.TrimPrefix(r.Header.Get(PaymentSignatureHeader), "sha512=")
		if signature == "" {
			rejectWebhook(w, log, r, "Missing signature header")
			return
		}

		body, err := readAndRestoreBody(r)
		if err != nil {
			rejectWebhook(w, log, r, "Failed to read request body")
			return
		}

		if !VerifySignature(body, signature, secret) {
			rejectWebhook(w, log, r, "Invalid webhook signature")
			return
		}

		next(w, r, ps)
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

func VerifySignature(body []byte, receivedSignature string, secret string) bool {
	if secret == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(receivedSignature)))
}

func rejectWebhook(w http.ResponseWriter, log *logger.Logger, r *http.Request, reason string) {
	log.Warn("Payment webhook verification failed",
		"request_id", RequestIDFromContext(r.Context()),
		"reason", reason,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
	)
	reject(w, log, apperrors.Unauthorized("Unauthorized"))
}
