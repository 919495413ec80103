package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultSender = "unknown origin"
	UnknownID     = "unknown"
)

// Envelope is the unit of transfer between the entry points and the channel.
type Envelope struct {
	ID        string    `json:"id" mapstructure:"id"`
	Content   string    `json:"content" mapstructure:"content"`
	Sender    string    `json:"sender" mapstructure:"sender"`
	Timestamp Timestamp `json:"timestamp" mapstructure:"timestamp"`
}

// NewEnvelope builds an envelope from bare text stamped with the current time.
func NewEnvelope(content string) Envelope {
	return Envelope{
		Content:   content,
		Timestamp: Now(),
	}
}

func NewID() string {
	return uuid.NewString()
}

// WithDefaults returns a copy with a fresh id, the current time and the
// default sender filled in where they are missing. Set fields are kept.
func (e Envelope) WithDefaults() Envelope {
	if e.ID == "" {
		e.ID = NewID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = Now()
	}
	if e.Sender == "" {
		e.Sender = DefaultSender
	}
	return e
}

// Timestamp is a time.Time with a lenient ISO-8601 wire form.
type Timestamp struct {
	time.Time
}

func Now() Timestamp {
	return Timestamp{Time: time.Now()}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseTimestamp accepts RFC 3339 and zone-less local date-times.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, s, time.Local)
		if err == nil {
			return Timestamp{Time: t}, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return Timestamp{}, firstErr
}

func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(time.RFC3339Nano) + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		*t = Timestamp{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return &time.ParseError{Value: s, Message: ": timestamp must be a JSON string"}
	}
	parsed, err := ParseTimestamp(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
