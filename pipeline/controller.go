// Package pipeline orchestrates one investigation: gather signals, derive
// insights, narrate, validate. The controller is an explicit state machine
// racing the sequential run against a global deadline; every terminal
// failure degrades to a deterministic fallback report or an actionable
// message, never to an error surfaced at the user.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/theimaginaryfoundation/sleuth-o-bot/detective"
	"github.com/theimaginaryfoundation/sleuth-o-bot/detective/narrator"
	"github.com/theimaginaryfoundation/sleuth-o-bot/logger"
)

// State is the lifecycle of a single run. notReady and downloading belong to
// the model-lifecycle owner, which is outside this core; a constructed
// controller reports ready.
type State string

const (
	StateNotReady    State = "notReady"
	StateDownloading State = "downloading"
	StateReady       State = "ready"
	StateScanning    State = "scanning"
	StateAnalyzing   State = "analyzing"
	StateNarrating   State = "narrating"
	StateComplete    State = "complete"
)

// StepName identifies one of the five tracked steps of a run.
type StepName string

const (
	StepFetchPhoto     StepName = "fetch-photo"
	StepFetchCalendar  StepName = "fetch-calendar"
	StepVerifyPrivacy  StepName = "verify-privacy"
	StepDeriveInsights StepName = "derive-insights"
	StepComposeReport  StepName = "compose-report"
)

// StepState is the progress of one step.
type StepState string

const (
	StepPending    StepState = "pending"
	StepInProgress StepState = "inProgress"
	StepComplete   StepState = "complete"
)

// Step is one entry of a step snapshot.
type Step struct {
	Name  StepName  `json:"name"`
	State StepState `json:"state"`
}

// Update is one streamed snapshot of a run. Steps is an immutable copy;
// a terminal update carries either a Report or a recoverable Message.
type Update struct {
	RunID   string
	State   State
	Steps   []Step
	Report  *detective.DetectiveReport
	Message string
}

// ErrRunInProgress is returned when a run is started or reset while another
// occupies the controller.
var ErrRunInProgress = errors.New("a run is already in progress")

// Options tunes a controller. Zero values take the defaults below.
type Options struct {
	Deadline          time.Duration
	CacheTTL          time.Duration
	PhotoLimitDays    int
	CalendarSinceDays int
	CalendarUntilDays int
}

const (
	defaultRunDeadline       = 45 * time.Second
	defaultPhotoLimitDays    = 365
	defaultCalendarSinceDays = 180
	defaultCalendarUntilDays = 30
)

// Controller owns the run sequence. One run at a time; a second Start while
// a run is active returns ErrRunInProgress.
type Controller struct {
	photos   PhotoSource
	calendar CalendarSource
	prober   PrivacyProber
	gen      narrator.Generator
	log      *logger.Logger
	opts     Options
	cache    *signalCache

	mu     sync.Mutex
	active bool
	state  State
}

// New builds a controller. gen may be nil: narration then always takes the
// deterministic fallback path.
func New(photos PhotoSource, calendar CalendarSource, prober PrivacyProber, gen narrator.Generator, log *logger.Logger, opts Options) *Controller {
	if opts.Deadline <= 0 {
		opts.Deadline = defaultRunDeadline
	}
	if opts.PhotoLimitDays <= 0 {
		opts.PhotoLimitDays = defaultPhotoLimitDays
	}
	if opts.CalendarSinceDays <= 0 {
		opts.CalendarSinceDays = defaultCalendarSinceDays
	}
	if opts.CalendarUntilDays <= 0 {
		opts.CalendarUntilDays = defaultCalendarUntilDays
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Controller{
		photos:   photos,
		calendar: calendar,
		prober:   prober,
		gen:      gen,
		log:      log,
		opts:     opts,
		cache:    newSignalCache(opts.CacheTTL),
		state:    StateReady,
	}
}

// State reports the controller's current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reset clears the signal cache and returns to ready. It refuses to run
// while a run is active.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active {
		return ErrRunInProgress
	}
	c.cache.invalidate()
	c.state = StateReady
	return nil
}

// Start begins one run and returns its update stream. The channel closes
// after the terminal update: either a report (state complete) or a
// recoverable message (state ready). The run races the configured deadline;
// on timeout the report is the deterministic fallback and the user never
// sees a timeout error.
func (c *Controller) Start(ctx context.Context, demoMode bool) (<-chan Update, error) {
	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return nil, ErrRunInProgress
	}
	c.active = true
	c.mu.Unlock()

	updates := make(chan Update, 32)
	go c.run(ctx, demoMode, updates)
	return updates, nil
}

// progress is one message from the worker to the controller loop. Snapshots
// are copies: the worker and the loop never share a mutable step list.
type progress struct {
	state    State
	steps    []Step
	bundle   *detective.SignalBundle
	insights []detective.InsightCandidate
	report   *detective.DetectiveReport
	message  string
	terminal bool
}

func (c *Controller) run(ctx context.Context, demoMode bool, updates chan<- Update) {
	defer close(updates)
	defer func() {
		c.mu.Lock()
		c.active = false
		c.mu.Unlock()
	}()

	runID := uuid.NewString()
	log := c.log.With("run_id", runID, "demo", demoMode)
	started := time.Now()

	runCtx, cancel := context.WithTimeout(ctx, c.opts.Deadline)
	defer cancel()

	progCh := make(chan progress, 32)
	go c.work(runCtx, demoMode, log, progCh)

	lastSteps := newStepSnapshot()
	var lastBundle detective.SignalBundle
	var lastInsights []detective.InsightCandidate

	for {
		select {
		case p := <-progCh:
			if p.bundle != nil {
				lastBundle = *p.bundle
			}
			if p.insights != nil {
				lastInsights = p.insights
			}
			if p.steps != nil {
				lastSteps = p.steps
			}
			c.setState(p.state)
			updates <- Update{RunID: runID, State: p.state, Steps: lastSteps, Report: p.report, Message: p.message}
			if p.terminal {
				log.Info("run finished", "state", p.state, "elapsed", time.Since(started))
				return
			}
		case <-runCtx.Done():
			// Deadline (or caller cancellation). The in-flight generator call
			// is cancelled through runCtx; the worker is abandoned from here
			// on and the fallback report ships from whatever the run had
			// gathered so far.
			cancel()
			insights := lastInsights
			if insights == nil {
				insights = detective.ComputeInsights(lastBundle)
			}
			report := detective.BuildFallbackReport(insights)
			c.setState(StateComplete)
			updates <- Update{RunID: runID, State: StateComplete, Steps: completeAll(lastSteps), Report: &report}
			log.Warn("run hit deadline, shipped fallback report", "elapsed", time.Since(started))
			return
		}
	}
}

// work executes the sequential pipeline: fetch, verify, analyze, narrate.
// Every send checks runCtx so an abandoned worker exits instead of leaking.
func (c *Controller) work(ctx context.Context, demoMode bool, log *logger.Logger, progCh chan<- progress) {
	steps := newStepSnapshot()
	emit := func(p progress) bool {
		p.steps = cloneSteps(steps)
		select {
		case progCh <- p:
			return true
		case <-ctx.Done():
			return false
		}
	}

	// Scanning: gather the signal bundle, from cache when fresh.
	if !emit(progress{state: StateScanning}) {
		return
	}

	bundle, cached := c.cache.get(demoMode)
	if cached {
		log.Debug("signal bundle served from cache")
		setStep(steps, StepFetchPhoto, StepComplete)
		setStep(steps, StepFetchCalendar, StepComplete)
		setStep(steps, StepVerifyPrivacy, StepComplete)
	} else {
		setStep(steps, StepFetchPhoto, StepInProgress)
		if !emit(progress{state: StateScanning}) {
			return
		}
		rawPhoto, photoOK := c.fetchPhoto(ctx, demoMode, log)
		setStep(steps, StepFetchPhoto, StepComplete)

		setStep(steps, StepFetchCalendar, StepInProgress)
		if !emit(progress{state: StateScanning}) {
			return
		}
		rawCalendar, calendarOK := c.fetchCalendar(ctx, demoMode, log)
		setStep(steps, StepFetchCalendar, StepComplete)

		setStep(steps, StepVerifyPrivacy, StepInProgress)
		if !emit(progress{state: StateScanning}) {
			return
		}
		bundle = detective.Normalize(rawPhoto, rawCalendar, photoOK, calendarOK)
		c.cache.put(demoMode, bundle)
	}

	check := c.probePrivacy(ctx, log)
	setStep(steps, StepVerifyPrivacy, StepComplete)

	if bundle.TotalPhotos == 0 && bundle.TotalEvents == 0 && !demoMode {
		// Not a crash: a normal terminal outcome with an actionable message.
		emit(progress{
			state:    StateReady,
			bundle:   &bundle,
			message:  "No photo or calendar activity was found. Try demo mode to see the detective at work on synthetic data.",
			terminal: true,
		})
		return
	}

	// Analyzing: the engine is pure and cannot fail.
	setStep(steps, StepDeriveInsights, StepInProgress)
	if !emit(progress{state: StateAnalyzing, bundle: &bundle}) {
		return
	}
	insights := detective.ComputeInsights(bundle)
	setStep(steps, StepDeriveInsights, StepComplete)

	// Narrating: any generator or validation failure takes the fallback.
	setStep(steps, StepComposeReport, StepInProgress)
	if !emit(progress{state: StateNarrating, insights: insights}) {
		return
	}
	report := c.narrate(ctx, insights, check, log)
	setStep(steps, StepComposeReport, StepComplete)

	emit(progress{state: StateComplete, report: &report, terminal: true})
}

func (c *Controller) fetchPhoto(ctx context.Context, demoMode bool, log *logger.Logger) (map[string]any, bool) {
	if demoMode {
		return detective.DemoPhotoPayload(), true
	}
	if c.photos == nil {
		return nil, false
	}
	raw, err := c.photos.FetchPhotoSignals(ctx, c.opts.PhotoLimitDays)
	if err != nil {
		log.Warn("photo source unavailable, continuing without it", "error", err)
		return nil, false
	}
	return raw, true
}

func (c *Controller) fetchCalendar(ctx context.Context, demoMode bool, log *logger.Logger) (map[string]any, bool) {
	if demoMode {
		return detective.DemoCalendarPayload(), true
	}
	if c.calendar == nil {
		return nil, false
	}
	raw, err := c.calendar.FetchCalendarSignals(ctx, c.opts.CalendarSinceDays, c.opts.CalendarUntilDays)
	if err != nil {
		log.Warn("calendar source unavailable, continuing without it", "error", err)
		return nil, false
	}
	return raw, true
}

func (c *Controller) probePrivacy(ctx context.Context, log *logger.Logger) PrivacyCheck {
	if c.prober == nil {
		return PrivacyCheck{}
	}
	check, err := c.prober.AssertOffline(ctx)
	if err != nil {
		log.Warn("privacy probe failed", "error", err)
		return PrivacyCheck{}
	}
	return check
}

// narrate runs the generator + validator, falling back to the deterministic
// report on any failure along the way.
func (c *Controller) narrate(ctx context.Context, insights []detective.InsightCandidate, check PrivacyCheck, log *logger.Logger) detective.DetectiveReport {
	if c.gen == nil {
		log.Debug("no generator configured, composing fallback report")
		return c.withPrivacyBacking(detective.BuildFallbackReport(insights), check)
	}

	prompt := narrator.BuildPrompt(insights, privacyLine(check))
	raw, err := c.gen.GenerateStructured(ctx, prompt, narrator.DraftSchema(), narrator.Options{})
	if err != nil {
		log.Warn("generation failed, composing fallback report", "error", err)
		return c.withPrivacyBacking(detective.BuildFallbackReport(insights), check)
	}
	draft, err := narrator.DecodeDraft(string(raw))
	if err != nil {
		log.Warn("draft undecodable, composing fallback report", "error", err)
		return c.withPrivacyBacking(detective.BuildFallbackReport(insights), check)
	}
	report, err := detective.Validate(draft, insights)
	if err != nil {
		log.Warn("draft unverifiable, composing fallback report", "error", err)
		return c.withPrivacyBacking(detective.BuildFallbackReport(insights), check)
	}
	return c.withPrivacyBacking(report, check)
}

// withPrivacyBacking upgrades the stock privacy statement with the probe's
// factual backing. A statement the generator authored (and the validator
// passed through) stays untouched.
func (c *Controller) withPrivacyBacking(report detective.DetectiveReport, check PrivacyCheck) detective.DetectiveReport {
	if check.PrivacyVerified && report.PrivacyStatement == detective.DefaultPrivacyStatement {
		report.PrivacyStatement = fmt.Sprintf(
			"Network check: %s. Every clue was examined on this device and nothing left it.", check.NetworkStatus)
	}
	return report
}

func privacyLine(check PrivacyCheck) string {
	if !check.PrivacyVerified {
		return ""
	}
	return fmt.Sprintf("network status %q, verified offline", check.NetworkStatus)
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

var stepOrder = []StepName{StepFetchPhoto, StepFetchCalendar, StepVerifyPrivacy, StepDeriveInsights, StepComposeReport}

func newStepSnapshot() []Step {
	steps := make([]Step, len(stepOrder))
	for i, name := range stepOrder {
		steps[i] = Step{Name: name, State: StepPending}
	}
	return steps
}

func cloneSteps(steps []Step) []Step {
	return append([]Step(nil), steps...)
}

func setStep(steps []Step, name StepName, state StepState) {
	for i := range steps {
		if steps[i].Name == name {
			steps[i].State = state
			return
		}
	}
}

// completeAll marks every lagging step complete: the timeout path ships a
// finished report, so the progress view must not dangle mid-step.
func completeAll(steps []Step) []Step {
	out := cloneSteps(steps)
	for i := range out {
		out[i].State = StepComplete
	}
	return out
}
