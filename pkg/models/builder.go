package models

type EnvelopeBuilder struct {
	envelope Envelope
}

func NewEnvelopeBuilder() *EnvelopeBuilder {
	return &EnvelopeBuilder{}
}

func (b *EnvelopeBuilder) WithID(id string) *EnvelopeBuilder {
	b.envelope.ID = id
	return b
}

func (b *EnvelopeBuilder) WithContent(content string) *EnvelopeBuilder {
	b.envelope.Content = content
	return b
}

func (b *EnvelopeBuilder) WithSender(sender string) *EnvelopeBuilder {
	b.envelope.Sender = sender
	return b
}

func (b *EnvelopeBuilder) WithTimestamp(timestamp Timestamp) *EnvelopeBuilder {
	b.envelope.Timestamp = timestamp
	return b
}

// Build stamps the current time when no timestamp was given.
func (b *EnvelopeBuilder) Build() Envelope {
	if b.envelope.Timestamp.IsZero() {
		b.envelope.Timestamp = Now()
	}
	return b.envelope
}
