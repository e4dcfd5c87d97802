// Package publish delivers the root post and its delayed threaded
// reply to X/Twitter.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dghubble/go-twitter/twitter"
	"github.com/dghubble/oauth1"

	"github.com/radar-fun/most-called-bot/internal/model"
	"github.com/radar-fun/most-called-bot/internal/retry"
)

// Stage names which post a failure belongs to.
type Stage string

const (
	StageRoot  Stage = "root"
	StageReply Stage = "reply"
)

// ErrorKind distinguishes retry exhaustion from outright rejection.
type ErrorKind int

const (
	// Exhausted means every retryable attempt failed.
	Exhausted ErrorKind = iota
	// Rejected means the platform refused the post with a non-retryable
	// error (auth, validation) and no retry was made.
	Rejected
)

func (k ErrorKind) String() string {
	if k == Rejected {
		return "rejected"
	}
	return "exhausted"
}

// Error is the only error type Publish returns.
type Error struct {
	Kind       ErrorKind
	Stage      Stage
	StatusCode int // last HTTP status, 0 for transport failures
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("publish %s post %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// State tracks the publisher's progress through one run.
type State int

const (
	StateIdle State = iota
	StatePostingRoot
	StateAwaitingDelay
	StatePostingReply
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:          "idle",
	StatePostingRoot:   "posting_root",
	StateAwaitingDelay: "awaiting_delay",
	StatePostingReply:  "posting_reply",
	StateDone:          "done",
	StateFailed:        "failed",
}

func (s State) String() string { return stateNames[s] }

// Result carries the created post IDs. RootID is set whenever the root
// post went out, even if the reply later failed — posts cannot be
// un-sent, so partial success is reported rather than rolled back.
type Result struct {
	RootID  int64
	ReplyID int64
}

// Publisher posts a PostPair as a root tweet plus a threaded reply.
type Publisher struct {
	client     *twitter.Client
	httpClient *http.Client // for the media upload endpoint
	policy     retry.Policy
	logger     *slog.Logger
	sleep      func(context.Context, time.Duration) error
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// WithSleep replaces the inter-post wait, for tests.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(p *Publisher) { p.sleep = sleep }
}

// NewOAuth1Client builds the signed HTTP client for the X API from the
// four user-context credentials.
func NewOAuth1Client(ctx context.Context, consumerKey, consumerSecret, accessToken, accessSecret string, timeout time.Duration) *http.Client {
	config := oauth1.NewConfig(consumerKey, consumerSecret)
	token := oauth1.NewToken(accessToken, accessSecret)
	httpClient := config.Client(ctx, token)
	httpClient.Timeout = timeout
	return httpClient
}

// New creates a Publisher on top of an authenticated HTTP client.
func New(httpClient *http.Client, policy retry.Policy, opts ...Option) *Publisher {
	p := &Publisher{
		client:     twitter.NewClient(httpClient),
		httpClient: httpClient,
		policy:     policy,
		logger:     slog.Default(),
		sleep:      sleepCtx,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish walks Idle → PostingRoot → AwaitingDelay → PostingReply →
// Done. A failure in either posting state ends in Failed; if the root
// already went out its ID is still returned alongside the error. When
// pair.ReplyText is empty the delay and reply are skipped entirely.
func (p *Publisher) Publish(ctx context.Context, pair model.PostPair, replyDelay time.Duration) (Result, error) {
	var res Result

	p.setState(StatePostingRoot)
	rootID, err := p.postWithRetry(ctx, StageRoot, pair.RootText, pair.RootImage, 0)
	if err != nil {
		p.setState(StateFailed)
		return res, err
	}
	res.RootID = rootID
	p.logger.Info("root post published", "tweet_id", rootID)

	if pair.ReplyText == "" {
		p.setState(StateDone)
		return res, nil
	}

	p.setState(StateAwaitingDelay)
	if err := p.sleep(ctx, replyDelay); err != nil {
		p.setState(StateFailed)
		return res, &Error{Kind: Exhausted, Stage: StageReply, Err: fmt.Errorf("awaiting reply delay: %w", err)}
	}

	p.setState(StatePostingReply)
	replyID, err := p.postWithRetry(ctx, StageReply, pair.ReplyText, pair.ReplyImage, rootID)
	if err != nil {
		p.setState(StateFailed)
		return res, err
	}
	res.ReplyID = replyID
	p.logger.Info("reply post published", "tweet_id", replyID, "in_reply_to", rootID)

	p.setState(StateDone)
	return res, nil
}

func (p *Publisher) setState(s State) {
	p.logger.Debug("publisher state", "state", s.String())
}

// postWithRetry creates one tweet under the publish retry policy.
// Status codes and transport-error kinds enumerated in the policy are
// retried with backoff; anything else is Rejected immediately.
func (p *Publisher) postWithRetry(ctx context.Context, stage Stage, text, imagePath string, inReplyTo int64) (int64, error) {
	mediaIDs := p.uploadImage(imagePath)

	var id int64
	attempt := 0
	op := func() error {
		attempt++
		params := &twitter.StatusUpdateParams{
			InReplyToStatusID: inReplyTo,
			MediaIds:          mediaIDs,
		}
		tweet, resp, err := p.client.Statuses.Update(text, params)
		// The client returns a nil error on non-2xx responses whose
		// body is not Twitter error JSON; catch those by status.
		if err == nil && resp != nil && resp.StatusCode >= 300 {
			err = fmt.Errorf("twitter api status %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		if err == nil {
			id = tweet.ID
			return nil
		}
		if resp != nil {
			if p.policy.RetryableStatus(resp.StatusCode) {
				return &statusError{code: resp.StatusCode, err: err}
			}
			return retry.Permanent(&Error{Kind: Rejected, Stage: stage, StatusCode: resp.StatusCode, Err: err})
		}
		if p.policy.RetryableError(err) {
			// An ambiguous transport failure (eg a timeout after the
			// server accepted the post) retried here can duplicate the
			// post. The platform offers no idempotency key.
			p.logger.Warn("transport failure during post, retry may duplicate",
				"stage", stage,
				"kind", retry.Classify(err),
				"error", err,
			)
			return &statusError{err: err}
		}
		return retry.Permanent(&Error{Kind: Rejected, Stage: stage, Err: err})
	}
	notify := func(err error, next time.Duration) {
		p.logger.Warn("post attempt failed, will retry",
			"stage", stage,
			"attempt", attempt,
			"backoff", next,
			"error", err,
		)
	}

	if err := backoff.RetryNotify(op, p.policy.NewBackOff(ctx), notify); err != nil {
		var pe *Error
		if errors.As(err, &pe) {
			return 0, pe
		}
		return 0, &Error{Kind: Exhausted, Stage: stage, StatusCode: statusOf(err), Err: err}
	}
	return id, nil
}

// uploadImage uploads the configured image, if any. A missing file or a
// failed upload degrades to a text-only post rather than failing the
// run.
func (p *Publisher) uploadImage(path string) []int64 {
	if path == "" {
		return nil
	}
	if !existsFile(path) {
		p.logger.Warn("configured image missing, posting text only", "path", path)
		return nil
	}
	data, mime, err := readImage(path)
	if err != nil {
		p.logger.Warn("image unreadable, posting text only", "path", path, "error", err)
		return nil
	}
	id, err := p.uploadMedia(data, mime, filepath.Base(path))
	if err != nil {
		p.logger.Warn("media upload failed, posting text only", "path", path, "error", err)
		return nil
	}
	return []int64{id}
}

// mediaUploadURL is the v1.1 simple upload endpoint; tweet creation
// still accepts its media ids.
const mediaUploadURL = "https://upload.twitter.com/1.1/media/upload.json"

func (p *Publisher) uploadMedia(data []byte, mime, filename string) (int64, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="media"; filename=%q`, filename))
	hdr.Set("Content-Type", mime)
	part, err := w.CreatePart(hdr)
	if err != nil {
		return 0, err
	}
	if _, err := part.Write(data); err != nil {
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}

	req, err := http.NewRequest(http.MethodPost, mediaUploadURL, &buf)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("media upload status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var ur model.MediaUploadResp
	if err := json.Unmarshal(body, &ur); err != nil {
		return 0, fmt.Errorf("decode media upload response: %w", err)
	}
	if ur.MediaID != 0 {
		return ur.MediaID, nil
	}
	if ur.MediaIDString != "" {
		return strconv.ParseInt(ur.MediaIDString, 10, 64)
	}
	return 0, errors.New("media upload response missing media_id")
}

func existsFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

func readImage(path string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}
	mime := "image/jpeg"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		mime = "image/png"
	case ".gif":
		mime = "image/gif"
	}
	return b, mime, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// statusError carries the HTTP status of a retryable attempt so the
// exhaustion error can report it.
type statusError struct {
	code int
	err  error
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }

func statusOf(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.code
	}
	return 0
}
