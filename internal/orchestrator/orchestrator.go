// File: internal/orchestrator/orchestrator.go
// Description: Sequences one run: launch a profiled browser, authenticate,
// navigate to the lookup screen, process every identifier in order, then hand
// the finished report to the sink.

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/quickfinder/api/schemas"
	"github.com/xkilldash9x/quickfinder/internal/browser/humanoid"
	"github.com/xkilldash9x/quickfinder/internal/browser/interaction"
	"github.com/xkilldash9x/quickfinder/internal/browser/resolver"
	"github.com/xkilldash9x/quickfinder/internal/browser/selector"
	"github.com/xkilldash9x/quickfinder/internal/browser/stealth"
)

// Launcher starts a browser session carrying the given profile.
type Launcher interface {
	Launch(ctx context.Context, profile stealth.Profile) (schemas.Session, error)
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(ctx context.Context, profile stealth.Profile) (schemas.Session, error)

func (f LauncherFunc) Launch(ctx context.Context, p stealth.Profile) (schemas.Session, error) {
	return f(ctx, p)
}

// Sink receives the finished report.
type Sink interface {
	Name() string
	Write(ctx context.Context, report *schemas.RunReport) error
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithSleeper replaces the wall-clock sleeper used for every delay.
func WithSleeper(s schemas.Sleeper) Option { return func(o *Orchestrator) { o.sleeper = s } }

// WithRand seeds all randomized behaviour from rng.
func WithRand(rng *rand.Rand) Option { return func(o *Orchestrator) { o.rng = rng } }

// WithClock replaces time.Now for report timestamps.
func WithClock(now func() time.Time) Option { return func(o *Orchestrator) { o.now = now } }

// Orchestrator runs the workflow. One instance drives one run at a time.
type Orchestrator struct {
	cfg      Config
	logger   *zap.Logger
	launcher Launcher
	sink     Sink
	sleeper  schemas.Sleeper
	rng      *rand.Rand
	now      func() time.Time

	phase atomic.Int32
	loc   locators
}

type locators struct {
	country     schemas.Selector
	username    schemas.Selector
	password    schemas.Selector
	loginButton schemas.Selector
	serviceMenu schemas.Selector
	quickFinder schemas.Selector
	lookup      schemas.Selector
	result      schemas.Selector
}

// interrupted is the error detail of items cut short by cancellation.
const interrupted = "interrupted"

// New validates its dependencies and creates an Orchestrator.
func New(cfg Config, logger *zap.Logger, launcher Launcher, sink Sink, opts ...Option) (*Orchestrator, error) {
	if logger == nil || launcher == nil || sink == nil {
		return nil, fmt.Errorf("cannot initialize orchestrator with nil dependencies")
	}
	l := cfg.Portal.Locators
	o := &Orchestrator{
		cfg:      cfg,
		logger:   logger.Named("orchestrator"),
		launcher: launcher,
		sink:     sink,
		sleeper:  schemas.ContextSleeper,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
		loc: locators{
			country:     selector.Normalize(l.Country),
			username:    selector.Normalize(l.Username),
			password:    selector.Normalize(l.Password),
			loginButton: selector.Normalize(l.LoginButton),
			serviceMenu: selector.Normalize(l.ServiceMenu),
			quickFinder: selector.Normalize(l.QuickFinder),
			lookup:      selector.Normalize(l.LookupInput),
			result:      selector.Normalize(l.Result),
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Phase reports the current phase. It is safe to call from any goroutine.
func (o *Orchestrator) Phase() Phase { return Phase(o.phase.Load()) }

func (o *Orchestrator) enter(p Phase) {
	o.phase.Store(int32(p))
	o.logger.Debug("Entering phase.", zap.Stringer("phase", p))
}

// Run processes ids and returns the report handed to the sink. A setup
// failure returns an error wrapping ErrCriticalSetup and no report. An
// interrupted run still produces a full report, with unprocessed items
// marked, and returns the context error alongside it.
func (o *Orchestrator) Run(ctx context.Context, ids []string) (*schemas.RunReport, error) {
	o.enter(PhaseInit)
	ids = dropEmpty(ids)
	if len(ids) == 0 {
		o.enter(PhaseAborted)
		return nil, ErrNoIdentifiers
	}

	o.enter(PhaseLaunching)
	profile, err := stealth.NewProfile(o.rng, o.cfg.Profiles)
	if err != nil {
		return nil, o.abort("profile", err)
	}
	session, err := o.launcher.Launch(ctx, profile)
	if err != nil {
		return nil, o.abort("launch", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			o.logger.Warn("Session teardown failed.", zap.Error(err))
		}
	}()

	page := session.Page()
	human := humanoid.New(o.cfg.Humanoid, rand.New(rand.NewSource(o.rng.Int63())), o.sleeper, o.logger)
	res := resolver.New(o.sleeper, o.cfg.Interaction.PollInterval, o.logger)
	ix := interaction.New(page, res, human, o.cfg.Interaction, o.sleeper, o.logger)

	o.enter(PhaseAuthenticating)
	if err := o.authenticate(ctx, page, ix); err != nil {
		o.enter(PhaseAborted)
		return nil, err
	}

	o.enter(PhaseNavigating)
	if err := o.navigate(ctx, ix); err != nil {
		o.enter(PhaseAborted)
		return nil, err
	}

	o.enter(PhaseProcessing)
	report := &schemas.RunReport{RunID: uuid.NewString(), StartedAt: o.now()}
	log := o.logger.With(zap.String("run_id", report.RunID))
	log.Info("Processing identifiers.", zap.Int("total", len(ids)))

	var pace *rate.Limiter
	if o.cfg.ItemPace > 0 {
		pace = rate.NewLimiter(rate.Every(o.cfg.ItemPace), 1)
	}
	for i, id := range ids {
		if ctx.Err() == nil && pace != nil {
			_ = pace.Wait(ctx)
		}
		if ctx.Err() != nil {
			report.Append(schemas.WorkItem{ID: id, Status: schemas.Errored(interrupted)})
			continue
		}
		log.Info("Looking up identifier.", zap.Int("index", i+1), zap.Int("total", len(ids)), zap.String("id", id))
		item := o.processItem(ctx, page, ix, id)
		log.Info("Identifier done.", zap.String("id", id), zap.Stringer("status", item.Status))
		report.Append(item)
	}

	o.enter(PhaseFinalizing)
	report.FinishedAt = o.now()
	counts := report.Counts()
	log.Info("Run finished.",
		zap.Int("ok", counts[schemas.StatusOK]),
		zap.Int("no_price", counts[schemas.StatusNoPrice]),
		zap.Int("typing_failed", counts[schemas.StatusTypingFailed]),
		zap.Int("error", counts[schemas.StatusError]),
	)

	// The report is written even when the run was interrupted.
	var sinkErr error
	if err := o.sink.Write(context.WithoutCancel(ctx), report); err != nil {
		log.Error("Failed to write report.", zap.String("sink", o.sink.Name()), zap.Error(err))
		sinkErr = fmt.Errorf("failed to write report to %s: %w", o.sink.Name(), err)
	}
	o.enter(PhaseDone)

	return report, errors.Join(sinkErr, ctx.Err())
}

func (o *Orchestrator) abort(step string, err error) error {
	o.enter(PhaseAborted)
	o.logger.Error("Aborting run.", zap.String("step", step), zap.Error(err))
	return &SetupError{Step: step, Err: err}
}

// authenticate runs the only phase whose failures are fatal: country,
// username and password must all succeed.
func (o *Orchestrator) authenticate(ctx context.Context, page schemas.Page, ix *interaction.Interactor) error {
	p := o.cfg.Pauses
	human := ix.Humanoid()

	if err := page.Navigate(ctx, o.cfg.Portal.URL); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return o.abort("navigate", err)
	}
	if !ix.Click(ctx, o.loc.country) {
		return o.required(ctx, "country")
	}
	if !ix.Type(ctx, o.loc.username, o.cfg.Portal.Username) {
		return o.required(ctx, "username")
	}
	if err := human.Pause(ctx, p.AfterUsername); err != nil {
		return err
	}
	if !ix.Type(ctx, o.loc.password, o.cfg.Portal.Password) {
		return o.required(ctx, "password")
	}
	if err := human.Pause(ctx, p.AfterPassword); err != nil {
		return err
	}
	if !ix.Click(ctx, o.loc.loginButton) {
		o.logger.Warn("Login button click failed, continuing.")
	}
	return human.Pause(ctx, p.AfterLogin)
}

// required reports a failed mandatory step. A cancelled context is an
// interrupt, not a setup failure.
func (o *Orchestrator) required(ctx context.Context, step string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return o.abort(step, nil)
}

// navigate opens the lookup screen. Failures degrade the run but never stop it.
func (o *Orchestrator) navigate(ctx context.Context, ix *interaction.Interactor) error {
	if !ix.Click(ctx, o.loc.serviceMenu) {
		o.logger.Warn("Service menu click failed, continuing.")
	}
	if err := ix.Humanoid().Pause(ctx, o.cfg.Pauses.BetweenMenus); err != nil {
		return err
	}
	if !ix.Click(ctx, o.loc.quickFinder) {
		o.logger.Warn("Quick finder click failed, continuing.")
	}
	return ctx.Err()
}

// processItem looks up one identifier. It never panics and never returns an
// error; every outcome is a Status.
func (o *Orchestrator) processItem(ctx context.Context, page schemas.Page, ix *interaction.Interactor, id string) (item schemas.WorkItem) {
	item.ID = id
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Unexpected failure processing identifier.", zap.String("id", id), zap.Any("panic", r))
			item = schemas.WorkItem{ID: id, Status: schemas.Errored(fmt.Sprint(r))}
		}
	}()

	if !ix.Type(ctx, o.loc.lookup, id) {
		if ctx.Err() != nil {
			item.Status = schemas.Errored(interrupted)
			return item
		}
		o.logger.Warn("Could not type identifier, skipping.", zap.String("id", id))
		item.Status = schemas.TypingFailed()
		return item
	}
	if err := ix.Press(ctx, o.loc.lookup, "Enter"); err != nil {
		item.Status = schemas.Errored(err.Error())
		return item
	}

	item.Price = o.pollResult(ctx, ix)
	switch {
	case item.Price != "":
		item.Status = schemas.OK()
	case ctx.Err() != nil:
		item.Status = schemas.Errored(interrupted)
		return item
	default:
		item.Status = schemas.NoPrice()
	}

	o.settle(ctx, page, ix)
	return item
}

// pollResult reads the result cell until it shows text or the polls run out.
func (o *Orchestrator) pollResult(ctx context.Context, ix *interaction.Interactor) string {
	for n := 0; n < o.cfg.Polling.Attempts; n++ {
		if text := ix.ReadText(ctx, o.loc.result); text != "" {
			return text
		}
		if n == o.cfg.Polling.Attempts-1 {
			break
		}
		if err := o.sleeper.Sleep(ctx, o.cfg.Polling.Delay(n)); err != nil {
			break
		}
	}
	return ""
}

// settle clears the lookup field and scrolls a little before the next item.
// Neither step affects the item's status.
func (o *Orchestrator) settle(ctx context.Context, page schemas.Page, ix *interaction.Interactor) {
	if err := ix.Clear(ctx, o.loc.lookup); err != nil {
		o.logger.Debug("Lookup field not cleared.", zap.Error(err))
	}
	if err := ix.Humanoid().Scroll(ctx, page); err != nil {
		o.logger.Debug("Scroll skipped.", zap.Error(err))
	}
}

func dropEmpty(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}
