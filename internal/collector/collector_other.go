//go:build !windows

package collector

import (
	"fmt"

	"github.com/hollowpeak/tracker-relay/internal/types"
)

func init() {
	Open = openUnsupported
}

// openUnsupported stands in on non-Windows platforms, where there is no
// foreign-process memory API to read from. The process-memory pointer
// chain this package walks is Windows-specific by nature (§9, Open
// Question c): every offset in types.OffsetVariant locates a structure
// inside a Windows game executable's address space.
func openUnsupported(processName string, variants []types.OffsetVariant) (Collector, error) {
	return nil, fmt.Errorf("%w: native collector not supported on this platform", types.ErrAttachFailed)
}
