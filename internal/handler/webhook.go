package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/course-marketplace/internal/service"
)

// SignatureHeader carries hex(HMAC-SHA256(secret, timestamp + "." + body)),
// optionally prefixed with "sha256=".
const SignatureHeader = "X-Webhook-Signature"

// TimestampHeader carries the send time in unix seconds. It is part of the
// signed content, so a captured delivery cannot be replayed once it falls
// outside SignatureTolerance.
const TimestampHeader = "X-Webhook-Timestamp"

// SignatureTolerance is how far the timestamp may be from our clock, either way.
const SignatureTolerance = 5 * time.Minute

const maxWebhookBytes = 1 << 20

type UserSync interface {
	HandleEvent(ctx context.Context, ev service.IdentityEvent) error
}

// WebhookHandler receives profile events from the identity provider.
//
// Unlike the educator API this endpoint talks to a machine, so it uses real
// status codes: the sender retries on anything but 2xx.
type WebhookHandler struct {
	sync   UserSync
	secret []byte
	logger *slog.Logger
}

func NewWebhookHandler(sync UserSync, secret string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{sync: sync, secret: []byte(secret), logger: logger}
}

// HTTP: POST /api/webhooks/identity
func (h *WebhookHandler) HandleIdentityEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, Envelope{Message: MsgUploadTooLarge})
		return
	}

	if err := h.verify(r.Header, body, time.Now()); err != nil {
		h.logger.Warn("webhook signature rejected",
			slog.String("remote", r.RemoteAddr),
			slog.String("reason", err.Error()),
		)
		writeJSON(w, http.StatusUnauthorized, Envelope{Message: "invalid signature"})
		return
	}

	var ev service.IdentityEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		writeJSON(w, http.StatusBadRequest, Envelope{Message: "invalid event payload"})
		return
	}

	if err := h.sync.HandleEvent(r.Context(), ev); err != nil {
		h.logger.Error("webhook event failed",
			slog.String("type", ev.Type),
			slog.String("error", err.Error()),
		)
		status := http.StatusInternalServerError
		if isExpected(err) {
			// the payload itself is bad, a retry will not help
			status = http.StatusBadRequest
		}
		writeJSON(w, status, Envelope{Message: "event not processed"})
		return
	}

	writeOK(w, Envelope{})
}

var (
	errMissingTimestamp = errors.New("missing timestamp")
	errStaleTimestamp   = errors.New("timestamp outside tolerance")
	errBadSignature     = errors.New("signature mismatch")
)

func (h *WebhookHandler) verify(header http.Header, body []byte, now time.Time) error {
	ts := strings.TrimSpace(header.Get(TimestampHeader))
	if ts == "" {
		return errMissingTimestamp
	}
	sec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return errMissingTimestamp
	}
	if d := now.Sub(time.Unix(sec, 0)); d > SignatureTolerance || d < -SignatureTolerance {
		return errStaleTimestamp
	}

	got, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(header.Get(SignatureHeader)), "sha256="))
	if err != nil || len(got) == 0 || !hmac.Equal(got, Sign(h.secret, ts, body)) {
		return errBadSignature
	}
	return nil
}

// Sign computes the raw signature of a delivery sent at timestamp (unix
// seconds, as put in TimestampHeader). Senders hex-encode it.
func Sign(secret []byte, timestamp string, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return mac.Sum(nil)
}
