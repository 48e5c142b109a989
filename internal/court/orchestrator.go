package court

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/courtlens/casestatus-api/internal/cache"
	"github.com/courtlens/casestatus-api/internal/models"
)

// Solver turns a captcha image into its numeric answer. It mirrors the
// solver package's interface; it is declared here so court does not import
// solver, which imports court for its error kinds.
type Solver interface {
	// Name identifies the solver backend for logging.
	Name() string

	// Solve returns the captcha answer as decimal text (e.g. "11", "-3").
	Solve(ctx context.Context, image []byte) (string, error)
}

// Result is a completed lookup: the rendered data document plus whether it
// was served from cache.
type Result struct {
	Data   json.RawMessage
	Cached bool
}

// Orchestrator runs the full lookup protocol. A single cycle fails fast at
// the first error; the orchestrator then retries the whole cycle from the
// page fetch with a fresh token, session, and captcha.
type Orchestrator struct {
	fetcher    Fetcher
	solver     Solver
	store      cache.Store
	normalizer *Normalizer

	statusURL   string
	ajaxURL     string
	maxAttempts int
	backoffBase float64
	cacheTTL    time.Duration

	log *slog.Logger

	// Injection points for tests.
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
	now    func() time.Time
}

// OrchestratorOptions collects the orchestrator's collaborators and tuning.
type OrchestratorOptions struct {
	Fetcher     Fetcher
	Solver      Solver
	Store       cache.Store
	Normalizer  *Normalizer
	StatusURL   string
	AjaxURL     string
	MaxAttempts int
	BackoffBase float64
	CacheTTL    time.Duration
	Logger      *slog.Logger
}

func NewOrchestrator(opts OrchestratorOptions) *Orchestrator {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		fetcher:     opts.Fetcher,
		solver:      opts.Solver,
		store:       opts.Store,
		normalizer:  opts.Normalizer,
		statusURL:   opts.StatusURL,
		ajaxURL:     opts.AjaxURL,
		maxAttempts: opts.MaxAttempts,
		backoffBase: opts.BackoffBase,
		cacheTTL:    opts.CacheTTL,
		log:         log,
		sleep:       sleepCtx,
		jitter:      rand.Float64,
		now:         time.Now,
	}
}

// Lookup resolves a diary number. Cached payloads are renormalized on the
// way out so a mode change does not serve stale shapes.
func (o *Orchestrator) Lookup(ctx context.Context, key models.LookupKey) (Result, error) {
	if payload, ok, err := o.store.Get(ctx, key); err != nil {
		o.log.WarnContext(ctx, "cache read failed", "error", err)
	} else if ok {
		data, err := o.normalizer.Normalize(payload)
		if err == nil {
			return Result{Data: data, Cached: true}, nil
		}
		o.log.WarnContext(ctx, "cached payload no longer renders, refetching", "error", err)
	}

	var lastErr error
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		payload, err := o.runCycle(ctx, key)
		if err == nil {
			data, nerr := o.normalizer.Normalize(payload)
			if nerr == nil {
				if serr := o.store.Set(ctx, key, payload, o.cacheTTL); serr != nil {
					o.log.WarnContext(ctx, "cache write failed", "error", serr)
				}
				return Result{Data: data}, nil
			}
			err = nerr
		}

		lastErr = err
		o.log.WarnContext(ctx, "lookup cycle failed",
			"attempt", attempt,
			"max_attempts", o.maxAttempts,
			"kind", string(KindOf(err)),
			"error", err)

		if attempt == o.maxAttempts {
			break
		}
		delay := o.backoff(attempt)
		o.log.DebugContext(ctx, "backing off before retry", "delay", delay)
		if err := o.sleep(ctx, delay); err != nil {
			return Result{}, Wrap(KindTimeout, err, "lookup canceled during backoff")
		}
	}
	return Result{}, lastErr
}

// runCycle performs one complete fetch-solve-search sequence.
func (o *Orchestrator) runCycle(ctx context.Context, key models.LookupKey) ([]byte, error) {
	page, err := o.fetcher.Text(ctx, o.statusURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, Wrap(KindMalformedPayload, err, "status page is not parseable HTML")
	}

	tok, err := ExtractToken(doc)
	if err != nil {
		return nil, err
	}
	scid, err := ExtractCaptchaSession(doc)
	if err != nil {
		return nil, err
	}

	image, err := o.fetcher.Binary(ctx, CaptchaImageURL(o.statusURL, scid, o.now()))
	if err != nil {
		return nil, err
	}

	answer, err := o.solver.Solve(ctx, image)
	if err != nil {
		return nil, err
	}
	o.log.DebugContext(ctx, "captcha solved", "scid", scid, "answer", answer)

	payload, err := o.fetcher.Text(ctx, BuildSearchURL(o.ajaxURL, key, scid, tok, answer))
	if err != nil {
		return nil, err
	}
	return []byte(payload), nil
}

// backoff returns base^attempt seconds plus up to one second of jitter.
func (o *Orchestrator) backoff(attempt int) time.Duration {
	secs := math.Pow(o.backoffBase, float64(attempt)) + o.jitter()
	return time.Duration(secs * float64(time.Second))
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
