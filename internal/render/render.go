// Package render expands the configured post templates into final
// tweet text and enforces the platform length limit.
package render

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/radar-fun/most-called-bot/internal/model"
)

// Mode controls what happens when rendered text exceeds the maximum
// length.
type Mode string

const (
	// ModeEnforce fails the render with Error{TooLong}.
	ModeEnforce Mode = "enforce"
	// ModeWarn logs the violation but returns the text anyway. A
	// documented deviation from strict enforcement; the platform will
	// reject the post instead.
	ModeWarn Mode = "warn"
)

// ErrorKind enumerates render failures.
type ErrorKind int

// TooLong means the assembled text exceeds the configured maximum.
const TooLong ErrorKind = iota

// Error is a render failure.
type Error struct {
	Kind   ErrorKind
	Length int
	Max    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("rendered post is %d runes, max %d", e.Length, e.Max)
}

// Template is the typed form of one post's template configuration.
// Header and Footer may use {count}, {timeframe} and {timestamp}; Item
// may use {medal}, {symbol}, {name}, {address} and {calls}. Medals are
// assigned by rank position; items beyond the medal list are not
// rendered.
type Template struct {
	Header string
	Medals []string
	Item   string
	Footer string
}

// Context supplies the header/footer placeholder values for one render.
type Context struct {
	Count     int
	Timeframe string
	Timestamp time.Time
}

var placeholderRe = regexp.MustCompile(`\{[a-z_]+\}`)

var (
	headerPlaceholders = map[string]bool{
		"{count}":     true,
		"{timeframe}": true,
		"{timestamp}": true,
	}
	itemPlaceholders = map[string]bool{
		"{medal}":   true,
		"{symbol}":  true,
		"{name}":    true,
		"{address}": true,
		"{calls}":   true,
	}
)

// Validate rejects templates referencing unknown placeholders, so a
// typo fails at config load instead of producing a broken post at run
// time.
func (t Template) Validate() error {
	if err := checkPlaceholders("header", t.Header, headerPlaceholders); err != nil {
		return err
	}
	if err := checkPlaceholders("item", t.Item, itemPlaceholders); err != nil {
		return err
	}
	return checkPlaceholders("footer", t.Footer, headerPlaceholders)
}

func checkPlaceholders(field, s string, allowed map[string]bool) error {
	for _, ph := range placeholderRe.FindAllString(s, -1) {
		if !allowed[ph] {
			return fmt.Errorf("%s template references unknown placeholder %s", field, ph)
		}
	}
	return nil
}

// Renderer renders batches against the platform length limit.
type Renderer struct {
	maxLength int
	mode      Mode
	logger    *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) { r.logger = logger }
}

// New creates a Renderer for the given maximum rune length and
// enforcement mode.
func New(maxLength int, mode Mode, opts ...Option) *Renderer {
	r := &Renderer{
		maxLength: maxLength,
		mode:      mode,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render assembles header + medaled items + footer. Rendering the same
// inputs always yields byte-identical text.
func (r *Renderer) Render(t Template, batch []model.TokenRecord, rc Context) (string, error) {
	head := strings.NewReplacer(
		"{count}", strconv.Itoa(rc.Count),
		"{timeframe}", rc.Timeframe,
		"{timestamp}", rc.Timestamp.UTC().Format("2006-01-02 15:04"),
	)

	var b strings.Builder
	b.WriteString(head.Replace(t.Header))
	for i, rec := range batch {
		if i >= len(t.Medals) {
			break
		}
		item := strings.NewReplacer(
			"{medal}", t.Medals[i],
			"{symbol}", rec.Symbol,
			"{name}", rec.Name,
			"{address}", rec.Address,
			"{calls}", strconv.Itoa(rec.CallCount),
		)
		b.WriteString(item.Replace(t.Item))
	}
	b.WriteString(head.Replace(t.Footer))

	text := b.String()
	if n := utf8.RuneCountInString(text); n > r.maxLength {
		if r.mode == ModeWarn {
			r.logger.Warn("rendered post exceeds max length, posting anyway",
				"length", n,
				"max", r.maxLength,
			)
			return text, nil
		}
		return "", &Error{Kind: TooLong, Length: n, Max: r.maxLength}
	}
	return text, nil
}
