package display

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"msgrelay/internal/constants"
	"msgrelay/pkg/models"
)

const (
	nullValue  = "null"
	labelWidth = 10
	innerWidth = 2 + labelWidth + constants.DisplayFieldWidth + 2

	boxTitle       = "MENSAGEM KAFKA RECEBIDA NA LAMBDA"
	blockHeader    = ">>> MENSAGEM KAFKA RECEBIDA <<<"
	blockFooter    = ">>> ======================= <<<"
	labelID        = "ID:"
	labelContent   = "Conteúdo:"
	labelSender    = "Remetente:"
	labelTimestamp = "Timestamp:"
)

// Sink renders received envelopes for a human watching the process output.
// Writes are serialized so concurrent handlers never interleave blocks.
type Sink struct {
	mu sync.Mutex
	w  io.Writer
}

func New(w io.Writer) *Sink {
	return &Sink{w: w}
}

func Stdout() *Sink {
	return New(os.Stdout)
}

// Box prints the framed block used by the invocation entry. Every value is
// padded or cut to a fixed column so the right border lines up.
func (s *Sink) Box(msg models.Envelope) {
	var b strings.Builder
	border := strings.Repeat("═", innerWidth)

	b.WriteString("\n")
	fmt.Fprintf(&b, "╔%s╗\n", border)
	fmt.Fprintf(&b, "║%s║\n", center(boxTitle, innerWidth))
	fmt.Fprintf(&b, "╠%s╣\n", border)
	writeRow(&b, labelID, msg.ID)
	writeRow(&b, labelContent, msg.Content)
	writeRow(&b, labelSender, msg.Sender)
	writeRow(&b, labelTimestamp, timestampValue(msg.Timestamp))
	fmt.Fprintf(&b, "╚%s╝\n", border)
	b.WriteString("\n")

	s.write(b.String())
}

// Block prints the short unframed block used by the consumer.
func (s *Sink) Block(msg models.Envelope) {
	var b strings.Builder

	fmt.Fprintf(&b, "\n%s\n", blockHeader)
	fmt.Fprintf(&b, "%s %s\n", labelID, valueOrNull(msg.ID))
	fmt.Fprintf(&b, "%s %s\n", labelContent, valueOrNull(msg.Content))
	fmt.Fprintf(&b, "%s %s\n", labelSender, valueOrNull(msg.Sender))
	fmt.Fprintf(&b, "%s %s\n", labelTimestamp, timestampValue(msg.Timestamp))
	fmt.Fprintf(&b, "%s\n\n", blockFooter)

	s.write(b.String())
}

func (s *Sink) write(out string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = io.WriteString(s.w, out)
}

func writeRow(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "║  %s%s  ║\n", padRight(label, labelWidth), padRight(valueOrNull(value), constants.DisplayFieldWidth))
}

func valueOrNull(v string) string {
	if v == "" {
		return nullValue
	}
	return v
}

func timestampValue(ts models.Timestamp) string {
	if ts.IsZero() {
		return nullValue
	}
	return ts.String()
}

// padRight pads text with spaces to exactly width runes, cutting longer text.
// Line breaks are flattened so a value cannot break the frame.
func padRight(text string, width int) string {
	text = strings.NewReplacer("\r", " ", "\n", " ", "\t", " ").Replace(text)
	n := utf8.RuneCountInString(text)
	if n > width {
		return string([]rune(text)[:width])
	}
	return text + strings.Repeat(" ", width-n)
}

func center(text string, width int) string {
	n := utf8.RuneCountInString(text)
	if n >= width {
		return padRight(text, width)
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", width-n-left)
}
