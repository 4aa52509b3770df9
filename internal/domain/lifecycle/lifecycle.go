// Package lifecycle holds shared constants for component start/stop hooks.
package lifecycle

import "time"

// DefaultTimeout bounds every start or stop hook run by the fx lifecycle.
const DefaultTimeout = 10 * time.Second
