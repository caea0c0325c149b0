package collector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hollowpeak/tracker-relay/internal/types"
)

type fakeCollector struct {
	samples []func() (types.Pose, error)
	i       int
	offset  string
}

func (f *fakeCollector) Sample() (types.Pose, error) {
	if f.i >= len(f.samples) {
		return types.Pose{}, types.ErrProcessTerminated
	}
	fn := f.samples[f.i]
	f.i++
	return fn()
}

func (f *fakeCollector) IsAlive() bool                { return true }
func (f *fakeCollector) ActiveOffset() (string, bool) { return f.offset, f.offset != "" }
func (f *fakeCollector) Close()                       {}

func TestRunLoopEmitsDataThenTerminatesOnProcessDeath(t *testing.T) {
	fc := &fakeCollector{
		offset: "v3.0.0",
		samples: []func() (types.Pose, error){
			func() (types.Pose, error) { return types.Pose{X: 1}, nil },
			func() (types.Pose, error) { return types.Pose{}, types.ErrProcessTerminated },
		},
	}
	cell := &Cell{}
	cell.Fill(fc)

	out := make(chan types.CollectorMessage, 8)
	shutdown := make(chan struct{})

	SampleInterval = time.Millisecond
	defer func() { SampleInterval = 500 * time.Millisecond }()

	done := make(chan struct{})
	go func() {
		RunLoop(cell, out, shutdown)
		close(done)
	}()

	var msgs []types.CollectorMessage
	for msg := range drainUntilClosed(out, done, 2*time.Second) {
		msgs = append(msgs, msg)
	}

	require.GreaterOrEqual(t, len(msgs), 3)
	require.Equal(t, types.CollectorOffsetFound, msgs[0].Kind)
	require.Equal(t, types.CollectorData, msgs[1].Kind)
	require.Equal(t, types.CollectorProcessTerminated, msgs[len(msgs)-1].Kind)
}

// drainUntilClosed reads from out until done fires, then closes the
// returned channel so range terminates.
func drainUntilClosed(out chan types.CollectorMessage, done <-chan struct{}, timeout time.Duration) <-chan types.CollectorMessage {
	result := make(chan types.CollectorMessage)
	go func() {
		defer close(result)
		deadline := time.After(timeout)
		for {
			select {
			case msg := <-out:
				result <- msg
			case <-done:
				for {
					select {
					case msg := <-out:
						result <- msg
					default:
						return
					}
				}
			case <-deadline:
				return
			}
		}
	}()
	return result
}

func TestCellFillClearFull(t *testing.T) {
	cell := &Cell{}
	require.False(t, cell.Full())

	cell.Fill(&fakeCollector{})
	require.True(t, cell.Full())

	cell.Clear()
	require.False(t, cell.Full())
}
