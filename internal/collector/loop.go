package collector

import (
	"time"

	"github.com/hollowpeak/tracker-relay/internal/types"
)

// RunLoop samples cell on SampleInterval ticks and emits each sample's
// outcome as a CollectorMessage (a successful sample that reports a newly
// cached offset variant is preceded by an OffsetFound message), until the
// target process terminates (a fatal outcome, after which the loop clears
// the cell and exits on its own), the cell is found empty, or shutdown
// fires. Grounded on native_collector.rs's collection_loop state machine.
func RunLoop(cell *Cell, out chan<- types.CollectorMessage, shutdown <-chan struct{}) {
	ticker := time.NewTicker(SampleInterval)
	defer ticker.Stop()

	var announcedOffset string

	for {
		select {
		case <-shutdown:
			return
		case <-ticker.C:
			terminated := false
			cell.Peek(func(c Collector) {
				pose, err := c.Sample()
				switch {
				case err == nil:
					name, _ := c.ActiveOffset()
					if name != "" && name != announcedOffset {
						out <- types.CollectorMessage{Kind: types.CollectorOffsetFound, OffsetName: name}
						announcedOffset = name
					}
					out <- types.CollectorMessage{
						Kind:       types.CollectorData,
						Pose:       pose,
						OffsetName: name,
					}
				case err == types.ErrProcessTerminated:
					out <- types.CollectorMessage{Kind: types.CollectorProcessTerminated}
					terminated = true
				default:
					out <- types.CollectorMessage{
						Kind:         types.CollectorTemporalError,
						ErrorMessage: err.Error(),
					}
				}
			})
			if terminated {
				cell.Clear()
				return
			}
			if !cell.Full() {
				return
			}
		}
	}
}
