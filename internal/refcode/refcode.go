package refcode

import (
	"fmt"
	"time"

	hashids "github.com/speps/go-hashids/v2"
)

// No 0/1/I/O so codes survive being read over the phone.
const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Codec issues the short support reference printed on payment failure
// pages: an encoding of (payment request id, minute of issue) that support
// staff can decode back to the payment attempt.
type Codec struct {
	h *hashids.HashID
}

func New(salt string) (*Codec, error) {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = 8
	data.Alphabet = alphabet

	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("init reference codec: %w", err)
	}
	return &Codec{h: h}, nil
}

func (c *Codec) Encode(paymentRequestID int64) (string, error) {
	minute := time.Now().Unix() / 60
	code, err := c.h.EncodeInt64([]int64{paymentRequestID, minute})
	if err != nil {
		return "", fmt.Errorf("encode support reference: %w", err)
	}
	return code, nil
}

// Decode returns the payment request id and issue time behind a code.
func (c *Codec) Decode(code string) (int64, time.Time, error) {
	parts, err := c.h.DecodeInt64WithError(code)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("decode support reference: %w", err)
	}
	if len(parts) != 2 {
		return 0, time.Time{}, fmt.Errorf("support reference %q has %d parts, want 2", code, len(parts))
	}
	return parts[0], time.Unix(parts[1]*60, 0), nil
}
