//go:build !windows

package runner

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asheshgoplani/tfdeck/internal/events"
	"github.com/asheshgoplani/tfdeck/internal/history"
	"github.com/asheshgoplani/tfdeck/internal/process"
)

type fakeHistory struct {
	mu      sync.Mutex
	records []history.Record
}

func (f *fakeHistory) Add(r history.Record) {
	f.mu.Lock()
	f.records = append(f.records, r)
	f.mu.Unlock()
}

func (f *fakeHistory) all() []history.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]history.Record(nil), f.records...)
}

type fakePauser struct {
	mu    sync.Mutex
	depth int
	max   int
}

func (p *fakePauser) Pause() func() {
	p.mu.Lock()
	p.depth++
	if p.depth > p.max {
		p.max = p.depth
	}
	p.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			p.depth--
			p.mu.Unlock()
		})
	}
}

func (p *fakePauser) current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.depth
}

func shell(script string) Invocation {
	return Invocation{Argv: []string{"sh", "-c", script}}
}

func waitDone(t *testing.T, e *Executor) {
	t.Helper()
	select {
	case <-e.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("executor %s did not finish", e.ID())
	}
}

func finished(evs []events.Event) []events.CommandFinished {
	var out []events.CommandFinished
	for _, e := range evs {
		if f, ok := e.(events.CommandFinished); ok {
			out = append(out, f)
		}
	}
	return out
}

func newTestRunner(opts ...Option) (*Runner, *events.Bus, *fakeHistory, *fakePauser) {
	bus := events.NewBus()
	hist := &fakeHistory{}
	pauser := &fakePauser{}
	opts = append([]Option{WithHistory(hist), WithPauser(pauser), WithGracePeriod(200 * time.Millisecond)}, opts...)
	return New(bus, opts...), bus, hist, pauser
}

func TestRunSuccessPublishesInOrder(t *testing.T) {
	r, bus, hist, pauser := newTestRunner()
	inv := shell(`echo one; echo two`)
	inv.RunInModal = true
	e := r.Start(context.Background(), inv)
	waitDone(t, e)

	evs := bus.Drain()
	require.Len(t, evs, 4)
	started, ok := evs[0].(events.CommandStarted)
	require.True(t, ok)
	assert.Equal(t, e.ID(), started.ExecID)
	assert.Equal(t, events.OutputLine{ExecID: e.ID(), Text: "one"}, evs[1])
	assert.Equal(t, events.OutputLine{ExecID: e.ID(), Text: "two"}, evs[2])

	fin := evs[3].(events.CommandFinished)
	assert.Equal(t, string(OutcomeSuccess), fin.Outcome)
	assert.NoError(t, fin.Err)
	assert.Equal(t, []string{"one", "two"}, fin.Output)

	assert.Equal(t, OutcomeSuccess, e.Outcome())
	records := hist.all()
	require.Len(t, records, 1)
	assert.True(t, records[0].RunInModal)
	assert.Empty(t, records[0].ErrorMessage)
	assert.Equal(t, "success", records[0].Outcome)
	assert.Zero(t, pauser.current())
	assert.Equal(t, 1, pauser.max)
	assert.Nil(t, r.Current())
}

func TestRunFailureRecordsStderr(t *testing.T) {
	r, bus, hist, _ := newTestRunner()
	e := r.Start(context.Background(), shell(`echo 'Error: Invalid block' >&2; exit 1`))
	waitDone(t, e)

	assert.Equal(t, OutcomeFailed, e.Outcome())
	var ee *process.ExecutionError
	require.ErrorAs(t, e.Err(), &ee)
	assert.Equal(t, 1, ee.ExitCode)

	fins := finished(bus.Drain())
	require.Len(t, fins, 1)
	assert.Equal(t, "failed", fins[0].Outcome)

	records := hist.all()
	require.Len(t, records, 1)
	assert.Equal(t, "Error: Invalid block", records[0].ErrorMessage)
}

func TestRunTimeout(t *testing.T) {
	r, _, hist, _ := newTestRunner()
	inv := shell(`sleep 5`)
	inv.Timeout = 100 * time.Millisecond
	e := r.Start(context.Background(), inv)
	waitDone(t, e)

	assert.Equal(t, OutcomeTimeout, e.Outcome())
	assert.True(t, process.IsTimeout(e.Err()))
	require.Len(t, hist.all(), 1)
	assert.Contains(t, hist.all()[0].ErrorMessage, "timed out")
}

func TestSpawnFailureIsFailedOutcome(t *testing.T) {
	r, _, hist, _ := newTestRunner()
	e := r.Start(context.Background(), Invocation{Argv: []string{"/nonexistent/terraform", "plan"}})
	waitDone(t, e)

	assert.Equal(t, OutcomeFailed, e.Outcome())
	var se *process.SpawnError
	assert.ErrorAs(t, e.Err(), &se)
	assert.Len(t, hist.all(), 1)
}

func TestCancelStopsBlockedWorker(t *testing.T) {
	r, bus, hist, pauser := newTestRunner()
	e := r.Start(context.Background(), shell(`echo started; sleep 30`))

	require.Eventually(t, func() bool {
		for _, ev := range bus.Drain() {
			if _, ok := ev.(events.OutputLine); ok {
				return true
			}
		}
		return false
	}, 3*time.Second, 10*time.Millisecond)

	e.Cancel()
	e.Cancel()
	waitDone(t, e)
	e.Cancel()

	assert.Equal(t, OutcomeCanceled, e.Outcome())
	assert.ErrorIs(t, e.Err(), process.ErrCanceled)
	assert.ErrorIs(t, r.WriteInput("late"), process.ErrNotRunning)

	records := hist.all()
	require.Len(t, records, 1)
	assert.Equal(t, "canceled", records[0].Outcome)
	assert.Empty(t, records[0].ErrorMessage)
	assert.Zero(t, pauser.current())
}

func TestCancelClearsSessionKeepsArgv(t *testing.T) {
	r, _, hist, _ := newTestRunner()
	inv := shell(`sleep 30`)
	e := r.Start(context.Background(), inv)

	e.Cancel()
	assert.ErrorIs(t, e.writeInput("y"), process.ErrNotRunning)
	waitDone(t, e)

	assert.Equal(t, inv.Argv, e.Argv())
	records := hist.all()
	require.Len(t, records, 1)
	assert.Equal(t, inv.Argv, records[0].Argv)
}

func TestStartWithDoneContextSpawnsNothing(t *testing.T) {
	r, _, hist, _ := newTestRunner()
	marker := filepath.Join(t.TempDir(), "spawned")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := r.Start(ctx, shell("touch "+marker))
	waitDone(t, e)

	assert.Equal(t, OutcomeCanceled, e.Outcome())
	require.Len(t, hist.all(), 1)
	time.Sleep(100 * time.Millisecond)
	assert.NoFileExists(t, marker)
}

func TestRunnerCancelWithoutCurrent(t *testing.T) {
	r, _, _, _ := newTestRunner()
	r.Cancel()
	assert.ErrorIs(t, r.WriteInput("x"), process.ErrNotRunning)
}

func TestStartSupersedesLiveExecutor(t *testing.T) {
	r, bus, hist, _ := newTestRunner()
	first := r.Start(context.Background(), shell(`sleep 30`))
	second := r.Start(context.Background(), shell(`echo replacement`))

	waitDone(t, first)
	waitDone(t, second)
	r.Wait()

	assert.Equal(t, OutcomeCanceled, first.Outcome())
	assert.Equal(t, OutcomeSuccess, second.Outcome())
	assert.Nil(t, r.Current())

	fins := finished(bus.Drain())
	assert.Len(t, fins, 2)
	assert.Len(t, hist.all(), 2)
}

func TestWriteInputAnswersPrompt(t *testing.T) {
	r, bus, _, _ := newTestRunner()
	e := r.Start(context.Background(), shell(`printf 'Enter a value: '; read answer; echo "answer=$answer"`))

	require.Eventually(t, func() bool {
		for _, ev := range bus.Drain() {
			if l, ok := ev.(events.OutputLine); ok && l.Text == "Enter a value:" {
				return true
			}
		}
		return false
	}, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, r.WriteInput("yes"))
	waitDone(t, e)

	fin := finished(bus.Drain())
	require.Len(t, fin, 1)
	assert.Equal(t, []string{"Enter a value:", "answer=yes"}, fin[0].Output)
}

type panickyBus struct{ *events.Bus }

func (p panickyBus) Publish(e events.Event) {
	if _, ok := e.(events.OutputLine); ok {
		panic("render failed")
	}
	p.Bus.Publish(e)
}

func TestWorkerPanicBecomesFailure(t *testing.T) {
	bus := events.NewBus()
	hist := &fakeHistory{}
	r := New(panickyBus{bus}, WithHistory(hist), WithGracePeriod(100*time.Millisecond))

	e := r.Start(context.Background(), shell(`echo boom; sleep 5`))
	waitDone(t, e)

	assert.Equal(t, OutcomeFailed, e.Outcome())
	assert.Contains(t, e.Err().Error(), "render failed")
	require.Len(t, hist.all(), 1)
	assert.Len(t, finished(bus.Drain()), 1)
}

func TestCloseCancelsAndWaits(t *testing.T) {
	r, _, _, _ := newTestRunner()
	e := r.Start(context.Background(), shell(`sleep 30`))
	r.Close()

	select {
	case <-e.Done():
	default:
		t.Fatal("Close returned before the worker finished")
	}
	assert.Equal(t, OutcomeCanceled, e.Outcome())
}

func TestCustomPromptMarkers(t *testing.T) {
	r, bus, _, _ := newTestRunner(WithPromptMarkers("Continue?"))
	e := r.Start(context.Background(), shell(`printf 'Continue? y\n'`))
	waitDone(t, e)

	fin := finished(bus.Drain())
	require.Len(t, fin, 1)
	assert.Equal(t, []string{"Continue?", "y"}, fin[0].Output)
}
