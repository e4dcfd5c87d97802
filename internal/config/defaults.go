package config

import "time"

func (c *Config) applyDefaults() {
	if c.Radar.Timeframe == "" {
		c.Radar.Timeframe = "1h"
	}
	if c.Radar.Timeout == 0 {
		c.Radar.Timeout = 15 * time.Second
	}
	c.Radar.Retry.applyDefaults(defaultFetchStatuses)

	if c.Selection.TopTokens == 0 {
		c.Selection.TopTokens = 5
	}
	if c.Selection.FirstTweetTokens == 0 {
		c.Selection.FirstTweetTokens = 3
	}

	if c.Post.ReplyDelay == 0 {
		c.Post.ReplyDelay = 90 * time.Second
	}
	if c.Post.Timeout == 0 {
		c.Post.Timeout = 30 * time.Second
	}
	if c.Post.MaxLength == 0 {
		c.Post.MaxLength = 280
	}
	if c.Post.LengthMode == "" {
		c.Post.LengthMode = "enforce"
	}
	c.Post.Retry.applyDefaults(defaultPublishStatuses)

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	if c.RunTimeout == 0 {
		c.RunTimeout = 10 * time.Minute
	}
}

var (
	defaultFetchStatuses   = []int{429, 500, 502, 503, 504}
	defaultPublishStatuses = []int{429, 500, 502, 503, 504}
)

func (rc *RetryConfig) applyDefaults(statuses []int) {
	if rc.MaxAttempts == 0 {
		rc.MaxAttempts = 3
	}
	if rc.BaseDelay == 0 {
		rc.BaseDelay = 5 * time.Second
	}
	if rc.MaxDelay == 0 {
		rc.MaxDelay = time.Minute
	}
	if rc.BackoffMultiplier == 0 {
		rc.BackoffMultiplier = 2
	}
	if rc.RetryableStatusCodes == nil {
		rc.RetryableStatusCodes = statuses
	}
	if rc.RetryableErrors == nil {
		rc.RetryableErrors = []string{"timeout", "connection"}
	}
}
