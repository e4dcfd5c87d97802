package config

import (
	"time"

	"github.com/radar-fun/most-called-bot/internal/render"
	"github.com/radar-fun/most-called-bot/internal/retry"
)

// Config is the root configuration for one bot run.
type Config struct {
	Radar      RadarConfig     `yaml:"radar"`
	Selection  SelectionConfig `yaml:"selection"`
	Post       PostConfig      `yaml:"post"`
	Logging    LoggingConfig   `yaml:"logging"`
	RunTimeout time.Duration   `yaml:"run_timeout"`
}

// RadarConfig holds analytics API settings.
type RadarConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeframe string        `yaml:"timeframe"`
	Timeout   time.Duration `yaml:"timeout"`
	VerifyTLS bool          `yaml:"verify_tls"`
	Retry     RetryConfig   `yaml:"retry"`
}

// SelectionConfig holds ranking thresholds and batch sizes.
type SelectionConfig struct {
	MinWinRate        float64 `yaml:"min_win_rate"`
	TopTokens         int     `yaml:"top_tokens"`
	FirstTweetTokens  int     `yaml:"first_tweet_tokens"`
	SecondTweetTokens int     `yaml:"second_tweet_tokens"`
}

// PostConfig holds publishing settings for both posts.
type PostConfig struct {
	ReplyDelay time.Duration     `yaml:"reply_delay"`
	Timeout    time.Duration     `yaml:"timeout"`
	MaxLength  int               `yaml:"max_length"`
	LengthMode string            `yaml:"length_mode"` // "enforce" or "warn"
	Root       PostSectionConfig `yaml:"root"`
	Reply      PostSectionConfig `yaml:"reply"`
	Retry      RetryConfig       `yaml:"retry"`
}

// PostSectionConfig configures one of the two posts.
type PostSectionConfig struct {
	Image    string         `yaml:"image"` // optional static image path
	Template TemplateConfig `yaml:"template"`
}

// TemplateConfig is the declarative post template.
type TemplateConfig struct {
	Header string   `yaml:"header"`
	Medals []string `yaml:"medals"`
	Item   string   `yaml:"item"`
	Footer string   `yaml:"footer"`
}

// Template converts to the renderer's typed template.
func (tc TemplateConfig) Template() render.Template {
	return render.Template{
		Header: tc.Header,
		Medals: tc.Medals,
		Item:   tc.Item,
		Footer: tc.Footer,
	}
}

// RetryConfig is the serialized form of a retry.Policy.
type RetryConfig struct {
	MaxAttempts          int           `yaml:"max_attempts"`
	BaseDelay            time.Duration `yaml:"base_delay"`
	MaxDelay             time.Duration `yaml:"max_delay"`
	BackoffMultiplier    float64       `yaml:"backoff_multiplier"`
	RetryableStatusCodes []int         `yaml:"retryable_status_codes"`
	RetryableErrors      []string      `yaml:"retryable_errors"` // "timeout", "connection"
}

// Policy builds the retry.Policy value for this call site.
func (rc RetryConfig) Policy() retry.Policy {
	statuses := make(map[int]bool, len(rc.RetryableStatusCodes))
	for _, code := range rc.RetryableStatusCodes {
		statuses[code] = true
	}
	kinds := make(map[retry.ErrKind]bool, len(rc.RetryableErrors))
	for _, k := range rc.RetryableErrors {
		kinds[retry.ErrKind(k)] = true
	}
	return retry.Policy{
		MaxAttempts:       rc.MaxAttempts,
		BaseDelay:         rc.BaseDelay,
		MaxDelay:          rc.MaxDelay,
		Multiplier:        rc.BackoffMultiplier,
		RetryableStatuses: statuses,
		RetryableKinds:    kinds,
	}
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}
