package config

import (
	"fmt"

	"github.com/radar-fun/most-called-bot/internal/retry"
)

// Validate checks required fields, value ranges, and the template
// placeholder sets.
func (c *Config) Validate() error {
	if c.Radar.BaseURL == "" {
		return missing("radar.base_url")
	}
	if err := c.Radar.Retry.validate("radar.retry"); err != nil {
		return err
	}

	if c.Selection.MinWinRate < 0 || c.Selection.MinWinRate > 100 {
		return malformed("selection.min_win_rate", fmt.Errorf("must be within 0..100, got %v", c.Selection.MinWinRate))
	}
	if c.Selection.TopTokens < 1 {
		return malformed("selection.top_tokens", fmt.Errorf("must be >= 1, got %d", c.Selection.TopTokens))
	}
	if c.Selection.FirstTweetTokens < 1 {
		return malformed("selection.first_tweet_tokens", fmt.Errorf("must be >= 1, got %d", c.Selection.FirstTweetTokens))
	}
	if c.Selection.SecondTweetTokens < 0 {
		return malformed("selection.second_tweet_tokens", fmt.Errorf("must be >= 0, got %d", c.Selection.SecondTweetTokens))
	}

	if c.Post.MaxLength < 1 {
		return malformed("post.max_length", fmt.Errorf("must be >= 1, got %d", c.Post.MaxLength))
	}
	if c.Post.LengthMode != "enforce" && c.Post.LengthMode != "warn" {
		return malformed("post.length_mode", fmt.Errorf("must be \"enforce\" or \"warn\", got %q", c.Post.LengthMode))
	}
	if err := c.Post.Retry.validate("post.retry"); err != nil {
		return err
	}

	if err := c.Post.Root.Template.Template().Validate(); err != nil {
		return malformed("post.root.template", err)
	}
	if len(c.Post.Root.Template.Medals) == 0 {
		return missing("post.root.template.medals")
	}
	if c.Selection.SecondTweetTokens > 0 {
		if err := c.Post.Reply.Template.Template().Validate(); err != nil {
			return malformed("post.reply.template", err)
		}
		if len(c.Post.Reply.Template.Medals) == 0 {
			return missing("post.reply.template.medals")
		}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return malformed("logging.level", fmt.Errorf("unknown level %q", c.Logging.Level))
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return malformed("logging.format", fmt.Errorf("must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	return nil
}

func (rc RetryConfig) validate(prefix string) error {
	if rc.MaxAttempts < 1 {
		return malformed(prefix+".max_attempts", fmt.Errorf("must be >= 1, got %d", rc.MaxAttempts))
	}
	if rc.BaseDelay < 0 {
		return malformed(prefix+".base_delay", fmt.Errorf("must be >= 0, got %v", rc.BaseDelay))
	}
	if rc.MaxDelay < rc.BaseDelay {
		return malformed(prefix+".max_delay", fmt.Errorf("must be >= base_delay, got %v", rc.MaxDelay))
	}
	if rc.BackoffMultiplier < 1 {
		return malformed(prefix+".backoff_multiplier", fmt.Errorf("must be >= 1, got %v", rc.BackoffMultiplier))
	}
	for _, k := range rc.RetryableErrors {
		kind := retry.ErrKind(k)
		if kind != retry.KindTimeout && kind != retry.KindConnection {
			return malformed(prefix+".retryable_errors", fmt.Errorf("unknown error kind %q", k))
		}
	}
	return nil
}
