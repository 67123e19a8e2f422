package worker

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcess struct {
	pid        int
	ignoreTerm bool

	once       sync.Once
	exit       chan int
	terminated atomic.Bool
	killed     atomic.Bool
}

func newFakeProcess(pid int) *fakeProcess {
	return &fakeProcess{pid: pid, exit: make(chan int, 1)}
}

func (p *fakeProcess) Pid() int { return p.pid }

func (p *fakeProcess) stop(code int) {
	p.once.Do(func() { p.exit <- code })
}

func (p *fakeProcess) Terminate() error {
	p.terminated.Store(true)
	if !p.ignoreTerm {
		p.stop(0)
	}
	return nil
}

func (p *fakeProcess) Kill() error {
	p.killed.Store(true)
	p.stop(-1)
	return nil
}

func (p *fakeProcess) Wait() (int, error) {
	return <-p.exit, nil
}

type fakeStarter struct {
	mu         sync.Mutex
	started    []*fakeProcess
	failNext   error
	ignoreTerm bool
	lastPath   string
	lastDir    string
	lastArgs   []string
}

func (f *fakeStarter) Start(path, dir string, args []string) (Process, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return nil, err
	}
	p := newFakeProcess(1000 + len(f.started))
	p.ignoreTerm = f.ignoreTerm
	f.started = append(f.started, p)
	f.lastPath, f.lastDir, f.lastArgs = path, dir, args
	return p, nil
}

func (f *fakeStarter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.started)
}

func (f *fakeStarter) proc(i int) *fakeProcess {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started[i]
}

func newTestSupervisor(starter *fakeStarter, onExit func(pid, code int)) *Supervisor {
	return NewSupervisor(Options{
		Path:        "/opt/deej/deej",
		Dir:         "/opt/deej",
		StopTimeout: 50 * time.Millisecond,
		Starter:     starter,
		OnExit:      onExit,
	}, zerolog.Nop())
}

func TestOnDevicePresentStartsOnce(t *testing.T) {
	starter := &fakeStarter{}
	s := newTestSupervisor(starter, nil)
	defer s.Shutdown()

	require.NoError(t, s.OnDevicePresent())
	require.NoError(t, s.OnDevicePresent())

	assert.Equal(t, 1, starter.count())
	assert.True(t, s.Running())
	assert.Equal(t, 1000, s.PID())
	assert.Equal(t, "/opt/deej/deej", starter.lastPath)
	assert.Equal(t, "/opt/deej", starter.lastDir)
	assert.Empty(t, starter.lastArgs)
}

func TestOnDeviceAbsentTerminates(t *testing.T) {
	starter := &fakeStarter{}
	s := newTestSupervisor(starter, nil)

	require.NoError(t, s.OnDevicePresent())
	s.OnDeviceAbsent()

	assert.False(t, s.Running())
	assert.Equal(t, 0, s.PID())
	assert.True(t, starter.proc(0).terminated.Load())

	s.Shutdown()
	assert.False(t, starter.proc(0).killed.Load())
}

func TestOnDeviceAbsentWithoutWorker(t *testing.T) {
	s := newTestSupervisor(&fakeStarter{}, nil)
	s.OnDeviceAbsent()
	s.OnDeviceAbsent()
	assert.False(t, s.Running())
}

func TestPresentAbsentPresentRelaunches(t *testing.T) {
	starter := &fakeStarter{}
	s := newTestSupervisor(starter, nil)
	defer s.Shutdown()

	require.NoError(t, s.OnDevicePresent())
	s.OnDeviceAbsent()
	require.NoError(t, s.OnDevicePresent())

	assert.Equal(t, 2, starter.count())
	assert.True(t, s.Running())
}

func TestStartFailureAllowsRetry(t *testing.T) {
	starter := &fakeStarter{failNext: errors.New("file not found")}
	s := newTestSupervisor(starter, nil)
	defer s.Shutdown()

	err := s.OnDevicePresent()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
	assert.False(t, s.Running())

	require.NoError(t, s.OnDevicePresent())
	assert.True(t, s.Running())
	assert.Equal(t, 1, starter.count())
}

func TestStubbornWorkerIsKilled(t *testing.T) {
	starter := &fakeStarter{ignoreTerm: true}
	s := newTestSupervisor(starter, nil)

	require.NoError(t, s.OnDevicePresent())
	s.OnDeviceAbsent()
	s.Shutdown()

	p := starter.proc(0)
	assert.True(t, p.terminated.Load())
	assert.True(t, p.killed.Load())
	code, _ := s.LastExit()
	assert.Equal(t, -1, code)
}

func TestSelfExitClearsHandle(t *testing.T) {
	starter := &fakeStarter{}
	exited := make(chan [2]int, 1)
	s := newTestSupervisor(starter, func(pid, code int) {
		exited <- [2]int{pid, code}
	})
	defer s.Shutdown()

	require.NoError(t, s.OnDevicePresent())
	starter.proc(0).stop(3)

	select {
	case got := <-exited:
		assert.Equal(t, [2]int{1000, 3}, got)
	case <-time.After(time.Second):
		t.Fatal("OnExit not called")
	}
	assert.False(t, s.Running())
	code, at := s.LastExit()
	assert.Equal(t, 3, code)
	assert.False(t, at.IsZero())

	require.NoError(t, s.OnDevicePresent())
	assert.Equal(t, 2, starter.count())
}

func TestRequestedStopDoesNotCallOnExit(t *testing.T) {
	var calls atomic.Int32
	s := newTestSupervisor(&fakeStarter{}, func(int, int) { calls.Add(1) })

	require.NoError(t, s.OnDevicePresent())
	s.Shutdown()
	assert.Equal(t, int32(0), calls.Load())
}

func TestNewSupervisorDefaults(t *testing.T) {
	s := NewSupervisor(Options{Path: "deej"}, zerolog.Nop())
	assert.Equal(t, DefaultStopTimeout, s.opts.StopTimeout)
	assert.IsType(t, ExecStarter{}, s.opts.Starter)
}
