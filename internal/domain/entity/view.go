package entity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// maxDisplayDecimals bounds the decimal scale rendered by FormatScaled.
	maxDisplayDecimals = 64
	// maxDisplayTime is 9999-12-31T23:59:59Z, the last instant time.Time
	// can marshal to JSON.
	maxDisplayTime = 253402300799
)

// AnswerView is the consumer-facing rendering of a decoded answer account.
type AnswerView struct {
	Variant      string          `json:"variant"`
	Destination  string          `json:"destination"`
	DisplayPrice string          `json:"displayPrice,omitempty"`
	UpdatedAt    *time.Time      `json:"updatedAt,omitempty"`
	Answer       json.RawMessage `json:"answer"`
}

// NewAnswerView renders answer for the account at destination.
func NewAnswerView(destination string, answer Answer) (*AnswerView, error) {
	raw, err := json.Marshal(answer)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s answer: %w", answer.Variant(), err)
	}

	q := answer.Quote()
	view := &AnswerView{
		Variant:      answer.Variant().String(),
		Destination:  destination,
		DisplayPrice: FormatScaled(q.Price, q.Decimals),
		Answer:       raw,
	}
	// Times outside the JSON-representable range (e.g. milliseconds) are
	// still available in the raw answer.
	if q.Time > 0 && q.Time <= maxDisplayTime {
		t := time.Unix(int64(q.Time), 0).UTC()
		view.UpdatedAt = &t
	}
	return view, nil
}

// FormatScaled renders price / 10^decimals as a decimal string without
// floating point. Returns "" when decimals is out of the renderable range.
func FormatScaled(price, decimals uint64) string {
	if decimals > maxDisplayDecimals {
		return ""
	}
	digits := strconv.FormatUint(price, 10)
	d := int(decimals)
	if d == 0 {
		return digits
	}
	if len(digits) <= d {
		digits = strings.Repeat("0", d-len(digits)+1) + digits
	}
	whole, frac := digits[:len(digits)-d], digits[len(digits)-d:]
	return whole + "." + frac
}
