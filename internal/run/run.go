// Package run sequences one bot invocation: fetch, select, render,
// publish. It performs no retries itself; retry policy lives at the two
// I/O boundaries that need it.
package run

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/radar-fun/most-called-bot/internal/config"
	"github.com/radar-fun/most-called-bot/internal/model"
	"github.com/radar-fun/most-called-bot/internal/publish"
	"github.com/radar-fun/most-called-bot/internal/rank"
	"github.com/radar-fun/most-called-bot/internal/render"
)

// Fetcher retrieves the ranked token list.
type Fetcher interface {
	MostCalled(ctx context.Context, timeframe string) ([]model.TokenRecord, error)
}

// Publisher delivers the root post and its delayed reply.
type Publisher interface {
	Publish(ctx context.Context, pair model.PostPair, replyDelay time.Duration) (publish.Result, error)
}

// Outcome classifies how a run ended.
type Outcome int

const (
	// Posted means every planned post went out.
	Posted Outcome = iota
	// Skipped means nothing warranted posting (no qualifying data, or a
	// dry run).
	Skipped
	// Partial means the root post went out but the reply did not. The
	// root cannot be un-sent, so this is reported rather than treated as
	// a full failure.
	Partial
	// Failed means the run produced no posts and ended in error.
	Failed
)

var outcomeNames = map[Outcome]string{
	Posted:  "posted",
	Skipped: "skipped",
	Partial: "partial",
	Failed:  "failed",
}

func (o Outcome) String() string { return outcomeNames[o] }

// Stage names the pipeline stage a failure belongs to.
type Stage string

const (
	StageFetch   Stage = "fetch"
	StageRender  Stage = "render"
	StagePublish Stage = "publish"
)

// Result is the report of one run.
type Result struct {
	Outcome    Outcome
	Stage      Stage  // set when Outcome is Partial or Failed
	SkipReason string // set when Outcome is Skipped
	RootID     int64
	ReplyID    int64
	Err        error
}

// ExitCode maps the run outcome to a process exit code. Partial exits 0:
// the root post is live and the reply failure is already reported.
func (r Result) ExitCode() int {
	if r.Outcome == Failed {
		return 1
	}
	return 0
}

// Runner wires the pipeline components for one invocation.
type Runner struct {
	cfg       *config.Config
	fetcher   Fetcher
	publisher Publisher
	renderer  *render.Renderer
	logger    *slog.Logger
	now       func() time.Time
	dryRun    bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithClock replaces the timestamp source, for deterministic renders in
// tests.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithDryRun renders and logs both posts but never publishes.
func WithDryRun(dry bool) Option {
	return func(r *Runner) { r.dryRun = dry }
}

// New creates a Runner.
func New(cfg *config.Config, fetcher Fetcher, publisher Publisher, opts ...Option) *Runner {
	r := &Runner{
		cfg:       cfg,
		fetcher:   fetcher,
		publisher: publisher,
		logger:    slog.Default(),
		now:       time.Now,
		dryRun:    false,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.renderer = render.New(cfg.Post.MaxLength, render.Mode(cfg.Post.LengthMode), render.WithLogger(r.logger))
	return r
}

// Run executes one fetch → select → render → publish pass. Any fatal
// component failure short-circuits the remaining stages.
func (r *Runner) Run(ctx context.Context) Result {
	logger := r.logger.With("run_id", uuid.NewString())
	logger.Info("run started", "timeframe", r.cfg.Radar.Timeframe)

	records, err := r.fetcher.MostCalled(ctx, r.cfg.Radar.Timeframe)
	if err != nil {
		logger.Error("fetch failed", "stage", StageFetch, "error", err)
		return Result{Outcome: Failed, Stage: StageFetch, Err: err}
	}
	logger.Info("fetched token records", "count", len(records))

	sel := r.cfg.Selection
	first, second := rank.Select(records, sel.MinWinRate, sel.TopTokens, sel.FirstTweetTokens, sel.SecondTweetTokens)
	if len(first) == 0 {
		logger.Info("no qualifying tokens, skipping post", "fetched", len(records))
		return Result{Outcome: Skipped, SkipReason: "no data"}
	}

	ts := r.now()
	pair := model.PostPair{
		RootImage:  r.cfg.Post.Root.Image,
		ReplyImage: r.cfg.Post.Reply.Image,
	}

	pair.RootText, err = r.renderer.Render(
		r.cfg.Post.Root.Template.Template(),
		first,
		render.Context{Count: len(first), Timeframe: r.cfg.Radar.Timeframe, Timestamp: ts},
	)
	if err != nil {
		logger.Error("root render failed", "stage", StageRender, "error", err)
		return Result{Outcome: Failed, Stage: StageRender, Err: fmt.Errorf("root post: %w", err)}
	}

	if len(second) > 0 {
		pair.ReplyText, err = r.renderer.Render(
			r.cfg.Post.Reply.Template.Template(),
			second,
			render.Context{Count: len(second), Timeframe: r.cfg.Radar.Timeframe, Timestamp: ts},
		)
		if err != nil {
			logger.Error("reply render failed", "stage", StageRender, "error", err)
			return Result{Outcome: Failed, Stage: StageRender, Err: fmt.Errorf("reply post: %w", err)}
		}
	} else {
		logger.Info("reply batch empty, publishing root only")
	}

	logger.Info("posts prepared",
		"root_len", utf8.RuneCountInString(pair.RootText),
		"reply_len", utf8.RuneCountInString(pair.ReplyText),
	)

	if r.dryRun {
		logger.Info("dry run, not publishing", "root", pair.RootText, "reply", pair.ReplyText)
		return Result{Outcome: Skipped, SkipReason: "dry run"}
	}

	res, err := r.publisher.Publish(ctx, pair, r.cfg.Post.ReplyDelay)
	if err != nil {
		if res.RootID != 0 {
			logger.Error("reply failed after root was posted",
				"stage", StagePublish,
				"root_id", res.RootID,
				"error", err,
			)
			return Result{Outcome: Partial, Stage: StagePublish, RootID: res.RootID, Err: err}
		}
		logger.Error("publish failed", "stage", StagePublish, "error", err)
		return Result{Outcome: Failed, Stage: StagePublish, Err: err}
	}

	logger.Info("run complete", "root_id", res.RootID, "reply_id", res.ReplyID)
	return Result{Outcome: Posted, RootID: res.RootID, ReplyID: res.ReplyID}
}
