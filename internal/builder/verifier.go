package builder

import (
	"fmt"
	"os"

	"github.com/openclaw/standup/internal/items"
)

// Verification is the outcome of checking an execution result.
type Verification struct {
	OK      bool
	Message string
}

// Verify checks whether an execution result is acceptable before the
// item is marked done. No result always fails; a path must point at a
// non-empty regular file; a bare message passes. False completion is
// worse than no completion, so anything ambiguous fails.
func Verify(item items.Item, result *Result) Verification {
	if result == nil {
		return Verification{OK: false, Message: "no result"}
	}

	if result.Path != "" {
		info, err := os.Stat(result.Path)
		if err != nil {
			return Verification{OK: false, Message: fmt.Sprintf("deliverable not readable: %v", err)}
		}
		if !info.Mode().IsRegular() {
			return Verification{OK: false, Message: fmt.Sprintf("deliverable is not a regular file: %s", result.Path)}
		}
		if info.Size() == 0 {
			return Verification{OK: false, Message: fmt.Sprintf("deliverable is empty: %s", result.Path)}
		}
		return Verification{OK: true, Message: fmt.Sprintf("deliverable written: %s", result.Path)}
	}

	if result.Message != "" {
		return Verification{OK: true, Message: result.Message}
	}

	return Verification{OK: false, Message: "no path or message"}
}
