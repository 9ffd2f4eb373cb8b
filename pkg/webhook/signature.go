package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	HeaderSignature = "X-Seokit-Signature"
	HeaderTimestamp = "X-Seokit-Timestamp"
	HeaderID        = "X-Seokit-Delivery"
)

// Signature is the set of headers attached to a signed call.
type Signature struct {
	Value     string
	Timestamp int64
	ID        string
}

// Apply sets the signature headers on h.
func (s Signature) Apply(h http.Header) {
	h.Set(HeaderSignature, s.Value)
	h.Set(HeaderTimestamp, strconv.FormatInt(s.Timestamp, 10))
	h.Set(HeaderID, s.ID)
}

// Sign computes an HMAC-SHA256 over "<unix timestamp>.<payload>".
func Sign(secret string, payload []byte, at time.Time) (Signature, error) {
	if secret == "" {
		return Signature{}, ErrMissingSecret
	}
	if len(payload) == 0 {
		return Signature{}, ErrInvalidPayload
	}
	ts := at.Unix()
	return Signature{
		Value:     mac(secret, ts, payload),
		Timestamp: ts,
		ID:        uuid.NewString(),
	}, nil
}

// Verify checks the signature headers of h against payload.
// A positive maxAge rejects timestamps older than now-maxAge.
func Verify(secret string, payload []byte, h http.Header, maxAge time.Duration, now time.Time) error {
	if secret == "" {
		return ErrMissingSecret
	}
	sig := h.Get(HeaderSignature)
	ts, err := strconv.ParseInt(h.Get(HeaderTimestamp), 10, 64)
	if sig == "" || err != nil {
		return fmt.Errorf("%w: missing signature headers", ErrSignatureMismatch)
	}
	if maxAge > 0 && now.Sub(time.Unix(ts, 0)) > maxAge {
		return fmt.Errorf("%w: timestamp too old", ErrSignatureMismatch)
	}
	if !hmac.Equal([]byte(mac(secret, ts, payload)), []byte(sig)) {
		return ErrSignatureMismatch
	}
	return nil
}

func mac(secret string, ts int64, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(h, "%d.", ts)
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
