// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: debug.go — cold-path error logging helper (zero-alloc)
//
// Purpose:
//   - Logs infrequent error paths without introducing heap pressure.
//   - Used only in cold paths: segment construction, registry sweeps,
//     consumer start/stop transitions.
//
// Notes:
//   - Avoids fmt.Sprintf to minimize footprint and latency.
//   - No interfaces, no reflection; one concatenation and one write.
//
// ⚠️ Never invoke in hot loops — use only in failure diagnostics.
// ─────────────────────────────────────────────────────────────────────────────

package debug

import "shmchan/utils"

// DropError logs an error with a prefix tag. A nil error drops just the
// prefix, which is how cold-path state transitions are traced.
//
//go:nosplit
//go:inline
func DropError(prefix string, err error) {
	if err != nil {
		utils.PrintWarning(prefix + ": " + err.Error() + "\n")
	} else {
		utils.PrintWarning(prefix + "\n")
	}
}

// DropMessage logs a tagged message. Used for segment lifecycle events,
// sweep results and pinned-consumer transitions.
//
//go:nosplit
//go:inline
func DropMessage(prefix, message string) {
	utils.PrintWarning(prefix + ": " + message + "\n")
}
