package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/hearthwood/storyloom/internal/agent"
	"github.com/hearthwood/storyloom/internal/classify"
	"github.com/hearthwood/storyloom/internal/llm"
)

// ErrNotEligible is returned by Analyze when the trigger gate rejects the
// content before any dispatch happens.
var ErrNotEligible = errors.New("pipeline: content not eligible for analysis")

// DefaultConcurrency bounds in-flight agent calls per coordinator. Sized to
// a conservative share of typical provider rate limits.
const DefaultConcurrency = 4

// Options configures a Coordinator.
type Options struct {
	// Concurrency caps simultaneous external calls across all stages and
	// runs sharing this coordinator. Zero means DefaultConcurrency.
	Concurrency int64

	// AgentTimeout bounds each individual agent invocation. Zero means
	// agent.DefaultTimeout.
	AgentTimeout time.Duration

	Logger *slog.Logger
}

// Coordinator owns the staged execution schedule. The semaphore is the only
// state shared between concurrent runs; each run is otherwise independent.
type Coordinator struct {
	client  llm.Client
	invoker *agent.Invoker
	gw      Gateway
	sem     *semaphore.Weighted
	timeout time.Duration
	log     *slog.Logger
}

// New creates a Coordinator writing through gw. Pass NopGateway to run
// without persistence.
func New(client llm.Client, gw Gateway, opts Options) *Coordinator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.AgentTimeout <= 0 {
		opts.AgentTimeout = agent.DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Coordinator{
		client:  client,
		invoker: agent.NewInvoker(client, opts.AgentTimeout),
		gw:      gw,
		sem:     semaphore.NewWeighted(opts.Concurrency),
		timeout: opts.AgentTimeout,
		log:     opts.Logger,
	}
}

// Analyze checks the trigger gate and, when the content qualifies, starts a
// run in the background and returns its event stream. The caller's own
// response path is never blocked: the channel is buffered beyond the
// maximum event count and closed when the run reaches a terminal state.
func (c *Coordinator) Analyze(ctx context.Context, req Request) (<-chan Event, error) {
	ctype := classify.Resolve(req.ContentType, req.Content)
	if !classify.ShouldAnalyze(req.Enabled, ctype, req.Content) {
		return nil, ErrNotEligible
	}

	run := &Run{
		ID:        uuid.NewString(),
		ContentID: req.ContentID,
		StartedAt: time.Now(),
		Status:    RunRunning,
	}
	if run.ContentID == "" {
		run.ContentID = uuid.NewString()
	}

	events := make(chan Event, eventBuffer)
	go c.execute(ctx, run, req, ctype, events)
	return events, nil
}

// runState accumulates terminal tasks for one run. Tasks are append-only;
// a fatal credential failure is latched once and cancels further dispatch.
type runState struct {
	mu    sync.Mutex
	tasks []agent.Task
	fatal error
}

func (s *runState) record(t agent.Task, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, t)
	if t.Fatal() && s.fatal == nil {
		s.fatal = t.Err
		cancel()
	}
}

func (s *runState) snapshot() ([]agent.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]agent.Task, len(s.tasks))
	copy(out, s.tasks)
	return out, s.fatal
}

// execute drives one run to a terminal state. It always closes the event
// channel, and never lets an agent failure escape as anything but task data.
func (c *Coordinator) execute(ctx context.Context, run *Run, req Request, ctype classify.ContentType, events chan<- Event) {
	defer close(events)

	events <- Event{Type: EventAnalysisStart, RunStatus: run.Status}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	areq := agent.Request{
		Content:     req.Content,
		ContentType: ctype,
		Project:     req.Project,
	}

	state := &runState{}

	// Stages 1 and 2: concurrent within the stage, strict barrier between
	// stages. No task of stage N+1 starts before every stage-N task is
	// terminal.
	for _, stage := range []agent.Stage{agent.StageCore, agent.StageReview} {
		c.runStage(runCtx, cancel, run, req, stage, areq, state, events)

		if _, fatal := state.snapshot(); fatal != nil {
			c.fail(run, events, fatal)
			return
		}
	}

	// Final stage is sequential: the reader pass condenses everything the
	// earlier stages produced, bounding the synthesis request size.
	tasks, _ := state.snapshot()
	readerReq := areq
	readerReq.Prior = agent.Condense(tasks)

	reader, _ := agent.ByID(agent.BetaReader)
	t := c.invoker.Invoke(runCtx, run.ID, reader, readerReq)
	state.record(t, cancel)
	events <- Event{Type: EventAgentResult, Agent: t.Agent, Status: t.Status, Summary: taskSummary(t)}
	c.persistTask(run, req, ctype, t)

	tasks, fatal := state.snapshot()
	if fatal != nil {
		c.fail(run, events, fatal)
		return
	}

	report, synthTask, err := c.synthesize(runCtx, run, ctype, tasks)
	state.record(synthTask, cancel)
	events <- Event{Type: EventAgentResult, Agent: synthTask.Agent, Status: synthTask.Status, Summary: taskSummary(synthTask)}
	if err != nil {
		// Prior per-agent results stay persisted; only the report is
		// absent.
		c.fail(run, events, err)
		return
	}
	c.persistTask(run, req, ctype, synthTask)

	c.persistVersion(run, req, ctype)

	tasks, _ = state.snapshot()
	run.Status = RunCompletedClean
	for _, t := range tasks {
		if t.Status != agent.StatusSucceeded {
			run.Status = RunCompletedWithErrors
			break
		}
	}
	run.CompletedAt = time.Now()

	events <- Event{Type: EventAnalysisComplete, RunStatus: run.Status, Report: report}
}

// runStage dispatches every agent of one stage concurrently, bounded by the
// shared semaphore, and blocks until all of them are terminal. Tasks whose
// dispatch was prevented by run cancellation are skipped, not recorded.
func (c *Coordinator) runStage(ctx context.Context, cancel context.CancelFunc, run *Run, req Request, stage agent.Stage, areq agent.Request, state *runState, events chan<- Event) {
	var (
		wg sync.WaitGroup
		mu sync.Mutex // serializes event emission with persistence order
	)

	for _, sp := range agent.StageAgents(stage) {
		wg.Add(1)
		go func(sp agent.Spec) {
			defer wg.Done()

			if err := c.sem.Acquire(ctx, 1); err != nil {
				return // run canceled before dispatch
			}
			defer c.sem.Release(1)

			if ctx.Err() != nil {
				return
			}

			t := c.invoker.Invoke(ctx, run.ID, sp, areq)
			state.record(t, cancel)

			mu.Lock()
			events <- Event{Type: EventAgentResult, Agent: t.Agent, Status: t.Status, Summary: taskSummary(t)}
			mu.Unlock()

			c.persistTask(run, req, areq.ContentType, t)
		}(sp)
	}

	wg.Wait()
}

// fail drives the run to Failed and emits the structured terminal error.
func (c *Coordinator) fail(run *Run, events chan<- Event, err error) {
	run.Status = RunFailed
	run.CompletedAt = time.Now()
	c.log.Error("analysis run failed", "run_id", run.ID, "error", err)
	events <- Event{Type: EventAnalysisError, RunStatus: run.Status, Err: err}
}

// persistTask writes a terminal task's result through the gateway. Tasks
// without a result (hard failures) have nothing to store. Gateway errors
// are logged and dropped: persistence never blocks analysis.
func (c *Coordinator) persistTask(run *Run, req Request, ctype classify.ContentType, t agent.Task) {
	if t.Result == nil {
		return
	}

	data, err := json.Marshal(t.Result)
	if err != nil {
		c.log.Error("marshal agent result", "run_id", run.ID, "agent", t.Agent, "error", err)
		return
	}

	rec := AgentAnalysis{
		ID:          uuid.NewString(),
		RunID:       run.ID,
		ProjectID:   req.ProjectID,
		ContentID:   run.ContentID,
		ContentType: ctype,
		AgentType:   t.Agent,
		ResultJSON:  data,
		CreatedAt:   time.Now(),
	}

	// Writes survive run cancellation: a result that exists should land.
	if err := c.gw.SaveAgentAnalysis(context.Background(), rec); err != nil {
		c.log.Error("persist agent analysis", "run_id", run.ID, "agent", t.Agent, "error", err)
	}
}

// persistVersion records the analyzed content itself, linked to the run.
func (c *Coordinator) persistVersion(run *Run, req Request, ctype classify.ContentType) {
	rec := ContentVersion{
		ID:              uuid.NewString(),
		ProjectID:       req.ProjectID,
		ContentType:     ctype,
		OriginalContent: req.Content,
		AgentAnalysesID: run.ID,
		CreatedAt:       time.Now(),
	}
	if err := c.gw.SaveContentVersion(context.Background(), rec); err != nil {
		c.log.Error("persist content version", "run_id", run.ID, "error", err)
	}
}
