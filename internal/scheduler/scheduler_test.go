package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"tinkoff-invest-bot/internal/types"
)

// never fires during a test run
const farSpec = "0 0 1 1 *"

type blockingEngine struct {
	calls   int32
	started chan struct{}
	release chan struct{}
}

func newBlockingEngine() *blockingEngine {
	return &blockingEngine{started: make(chan struct{}, 10), release: make(chan struct{})}
}

func (e *blockingEngine) Plan(ctx context.Context) (*types.Plan, error) { return &types.Plan{}, nil }

func (e *blockingEngine) Rebalance(ctx context.Context) (*types.RebalanceResult, error) {
	atomic.AddInt32(&e.calls, 1)
	e.started <- struct{}{}
	select {
	case <-e.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &types.RebalanceResult{Spent: decimal.Zero}, nil
}

type fakeEOD struct {
	run     bool
	written int32
}

func (f *fakeEOD) SummarizeDay(t time.Time) (string, error) { return "", nil }

func (f *fakeEOD) SummarizeToday() (string, error) {
	atomic.AddInt32(&f.written, 1)
	return "eod.csv", nil
}

func (f *fakeEOD) ShouldRunNow() (bool, string) { return f.run, "eod.csv" }

func waitStarted(t *testing.T, e *blockingEngine) {
	select {
	case <-e.started:
	case <-time.After(5 * time.Second):
		t.Fatal("rebalance did not start")
	}
}

func TestRunOnStart(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	eng := newBlockingEngine()
	s := New(eng, nil, Options{Spec: farSpec, RunOnStart: true})
	require.NoError(t, s.Start())

	waitStarted(t, eng)
	close(eng.release)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.Equal(t, int32(1), atomic.LoadInt32(&eng.calls))
}

func TestOverlappingRunIsSkipped(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	eng := newBlockingEngine()
	s := New(eng, nil, Options{Spec: farSpec})
	require.NoError(t, s.Start())

	s.RunNow()
	waitStarted(t, eng)
	s.RunNow()
	time.Sleep(50 * time.Millisecond)
	close(eng.release)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.Equal(t, int32(1), atomic.LoadInt32(&eng.calls))
}

func TestStopCancelsRunningJob(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	eng := newBlockingEngine()
	s := New(eng, nil, Options{Spec: farSpec, RunOnStart: true})
	require.NoError(t, s.Start())
	waitStarted(t, eng)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := New(newBlockingEngine(), nil, Options{Spec: "every day"})
	assert.Error(t, s.Start())

	s = New(newBlockingEngine(), &fakeEOD{}, Options{Spec: farSpec, EODTime: "25:99"})
	assert.Error(t, s.Start())
	require.NoError(t, s.Stop(context.Background()))
}

func TestRunEOD(t *testing.T) {
	var compressed int32
	eod := &fakeEOD{run: true}
	s := New(newBlockingEngine(), eod, Options{
		Spec:          farSpec,
		RetentionDays: 7,
		Compress: func(days int) error {
			atomic.StoreInt32(&compressed, int32(days))
			return nil
		},
	})

	s.runEOD()
	assert.Equal(t, int32(1), atomic.LoadInt32(&eod.written))
	assert.Equal(t, int32(7), atomic.LoadInt32(&compressed))

	eod.run = false
	s.runEOD()
	assert.Equal(t, int32(1), atomic.LoadInt32(&eod.written))
}

type panickingEOD struct{ fakeEOD }

func (p *panickingEOD) SummarizeToday() (string, error) { panic("disk on fire") }

func TestEODJobRecoversFromPanic(t *testing.T) {
	s := New(newBlockingEngine(), &panickingEOD{fakeEOD{run: true}}, Options{Spec: farSpec})
	assert.NotPanics(t, s.eodJob.Run)
}

func TestEODSpec(t *testing.T) {
	spec, err := eodSpec("18:50")
	require.NoError(t, err)
	assert.Equal(t, "50 18 * * *", spec)
}
