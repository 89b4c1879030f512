package chat

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"text/template"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/nhh/miniassistant/pkg/interfaces"
	"github.com/nhh/miniassistant/pkg/memory"
	"github.com/nhh/miniassistant/pkg/model"
	"github.com/nhh/miniassistant/pkg/tool"
	"github.com/nhh/miniassistant/pkg/utils/logging"
)

//go:embed prompt/answer.md
var answerPromptRaw string

var answerPromptTmpl = template.Must(template.New("answer").Parse(answerPromptRaw))

// FallbackResponse replaces an empty final answer from the model when no
// tool ran; after a tool round the blank answer is kept so Display falls
// back to the tool transcript
const FallbackResponse = "Sorry, something went wrong while generating the answer."

// Session answers queries of one conversation. At most one Answer runs at a
// time; a call made while another is in flight fails with model.ErrBusy.
type Session struct {
	model   interfaces.Model
	tools   *tool.Registry
	memory  *memory.Store
	timeout time.Duration

	busy  atomic.Bool
	mu    sync.RWMutex
	state State
	// runID identifies the run allowed to move state; an abandoned run keeps
	// its old ID and its transitions are dropped
	runID uint64
}

// NewInput contains parameters for creating a new chat session
type NewInput struct {
	Model  interfaces.Model
	Tools  *tool.Registry // optional; without it every requested tool is unknown
	Memory *memory.Store  // optional; a fresh in-memory store is used when nil

	// Timeout bounds each Answer call. Zero means no limit.
	Timeout time.Duration
}

// Answer is the result of a completed turn
type Answer struct {
	Response       string
	ToolTranscript string
	Results        []model.ToolResult
	Turn           model.Turn
}

// Display returns the text to show to the user: the response, or the tool
// transcript when the response is blank
func (a *Answer) Display() string {
	if strings.TrimSpace(a.Response) == "" {
		return a.ToolTranscript
	}
	return a.Response
}

// New creates a new chat session
func New(input NewInput) (*Session, error) {
	if input.Model == nil {
		return nil, goerr.New("model is required")
	}

	tools := input.Tools
	if tools == nil {
		var err error
		if tools, err = tool.New(); err != nil {
			return nil, goerr.Wrap(err, "failed to create empty tool registry")
		}
	}

	mem := input.Memory
	if mem == nil {
		mem = memory.New()
	}

	return &Session{
		model:   input.Model,
		tools:   tools,
		memory:  mem,
		timeout: input.Timeout,
		state:   StateIdle,
	}, nil
}

// State returns the current protocol state
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Busy reports whether an Answer call, or work abandoned by one that timed
// out, is still running
func (s *Session) Busy() bool {
	return s.busy.Load()
}

func (s *Session) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runID++
	return s.runID
}

func (s *Session) setState(ctx context.Context, id uint64, st State) {
	s.mu.Lock()
	if id != s.runID {
		s.mu.Unlock()
		return
	}
	prev := s.state
	s.state = st
	s.mu.Unlock()

	logging.From(ctx).Debug("state changed", "from", prev, "to", st)
}

// Memory returns the turn window used by the session
func (s *Session) Memory() *memory.Store {
	return s.memory
}

// Reset clears the conversation memory
func (s *Session) Reset(ctx context.Context) error {
	if err := s.memory.Clear(ctx); err != nil {
		return goerr.Wrap(err, "failed to clear memory")
	}
	return nil
}

type outcome struct {
	answer *Answer
	err    error
}

// Answer runs the two-phase protocol for query and commits the completed
// turn to memory. Only model.ErrInvalidInput, model.ErrBusy,
// model.ErrTransport and model.ErrTimeout are returned; tool failures are
// reported inside the transcript. Nothing is written to memory on error.
func (s *Session) Answer(ctx context.Context, query string) (*Answer, error) {
	if strings.TrimSpace(query) == "" {
		return nil, goerr.Wrap(model.ErrInvalidInput, "enter a query to execute")
	}

	if !s.busy.CompareAndSwap(false, true) {
		return nil, goerr.Wrap(model.ErrBusy, "wait for the current answer to finish")
	}

	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if s.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
	}
	defer cancel()

	id := s.begin()

	// the protocol runs apart from the caller so a deadline is honored even
	// when a collaborator ignores cancellation; the session stays busy until
	// that work has really finished
	done := make(chan outcome, 1)
	go func() {
		answer, err := s.run(runCtx, id, query)
		done <- outcome{answer: answer, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
		defer s.busy.Store(false)
	case <-runCtx.Done():
		go func() {
			<-done
			s.busy.Store(false)
		}()
		return nil, s.interrupted(ctx, runCtx.Err())
	}

	if out.err != nil {
		if ctxErr := runCtx.Err(); ctxErr != nil {
			return nil, s.interrupted(ctx, ctxErr)
		}
		s.setState(ctx, id, StateDone)
		return nil, out.err
	}

	turn, err := s.memory.Append(ctx, model.Turn{
		Prompt:         query,
		ToolTranscript: out.answer.ToolTranscript,
		Response:       out.answer.Response,
	})
	if err != nil {
		logging.From(ctx).Warn("failed to persist turn, kept in memory only", "error", err)
	}
	out.answer.Turn = turn
	s.setState(ctx, id, StateDone)

	return out.answer, nil
}

// interrupted abandons the current run and reports why
func (s *Session) interrupted(ctx context.Context, err error) error {
	s.mu.Lock()
	s.runID++
	prev := s.state
	s.state = StateDone
	s.mu.Unlock()
	logging.From(ctx).Debug("state changed", "from", prev, "to", StateDone, "abandoned", true)

	if errors.Is(err, context.DeadlineExceeded) {
		return goerr.Wrap(model.ErrTimeout, "answer was not completed in time", goerr.V("timeout", s.timeout))
	}
	return goerr.Wrap(err, "answer was canceled")
}

func (s *Session) run(ctx context.Context, id uint64, query string) (*Answer, error) {
	logger := logging.From(ctx)
	history := memory.Transcript(s.memory.RecentTurns())

	first, err := buildPrompt(history, query, "")
	if err != nil {
		return nil, err
	}

	s.setState(ctx, id, StateFirstCall)
	logger.Debug("sending first prompt", "prompt", first)
	resp, err := s.model.Invoke(ctx, first)
	if err != nil {
		return nil, goerr.Wrap(err, "first model call failed")
	}
	// the caller may have given up while the model ignored cancellation;
	// requested tools must not run then
	if err := ctx.Err(); err != nil {
		return nil, goerr.Wrap(err, "answer abandoned after first model call")
	}

	if len(resp.ToolCalls) == 0 {
		s.setState(ctx, id, StateDirectAnswer)
		return &Answer{Response: finalText(resp.Text, "")}, nil
	}

	s.setState(ctx, id, StateToolExecution)
	logger.Info("executing tools", "tools", toolNames(resp.ToolCalls))
	dispatch := s.tools.Dispatch(ctx, resp.ToolCalls)

	second, err := buildPrompt(history, query, dispatch.Transcript)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, goerr.Wrap(err, "answer abandoned after tool execution",
			goerr.V("tool_transcript", dispatch.Transcript))
	}

	s.setState(ctx, id, StateSecondCall)
	logger.Debug("sending second prompt", "prompt", second)
	final, err := s.model.Complete(ctx, second)
	if err != nil {
		return nil, goerr.Wrap(err, "second model call failed",
			goerr.V("tool_transcript", dispatch.Transcript))
	}

	return &Answer{
		Response:       finalText(final.Text, dispatch.Transcript),
		ToolTranscript: dispatch.Transcript,
		Results:        dispatch.Results,
	}, nil
}

func buildPrompt(history, query, toolOutput string) (string, error) {
	var buf bytes.Buffer
	if err := answerPromptTmpl.Execute(&buf, map[string]any{
		"History":    history,
		"Query":      query,
		"ToolOutput": toolOutput,
	}); err != nil {
		return "", goerr.Wrap(err, "failed to execute answer prompt template")
	}
	return buf.String(), nil
}

func finalText(text, toolTranscript string) string {
	switch {
	case strings.TrimSpace(text) != "":
		return text
	case toolTranscript != "":
		return ""
	default:
		return FallbackResponse
	}
}

func toolNames(calls []model.ToolCallRequest) []string {
	names := make([]string, len(calls))
	for i, c := range calls {
		names[i] = c.Name
	}
	return names
}
