// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: config.go — JSON channel topology loading
//
// Purpose:
//   - Deserializes a deployment's channel list: names, capacities, snapshot
//     depths, huge-page backing, pinned cores, realtime priorities.
//   - Applies defaults and validates the power-of-two geometry before any
//     endpoint is constructed from an entry.
//
// Notes:
//   - Decoding goes through sonnet; this file is the only JSON touchpoint
//     in the module and runs once at startup.
// ─────────────────────────────────────────────────────────────────────────────

package config

import (
	"fmt"
	"os"

	"github.com/sugawarayuuta/sonnet"

	"shmchan/constants"
)

// Channel kinds.
const (
	KindQueue    = "queue"
	KindSnapshot = "snapshot"
)

// Channel describes one endpoint pair in a deployment.
type Channel struct {
	// Name keys the shared segment for ipc channels; itc channels may leave
	// it empty.
	Name string `json:"name"`

	// Kind is "queue" or "snapshot".
	Kind string `json:"kind"`

	// Capacity is the queue slot count. Zero selects
	// constants.DefaultQueueCapacity. Must be a power of two.
	Capacity uint64 `json:"capacity"`

	// Depth is the snapshot ring depth. Zero selects
	// constants.DefaultSnapshotDepth; one selects the single-slot cell.
	Depth uint64 `json:"depth"`

	// HugePages requests huge-page backing for the segment or the itc
	// region.
	HugePages bool `json:"huge_pages"`

	// Core pins the consuming side; negative leaves placement to the
	// scheduler.
	Core int `json:"core"`

	// RealtimePriority raises the consuming thread to SCHED_FIFO at this
	// priority. Zero keeps the default policy.
	RealtimePriority int `json:"realtime_priority"`
}

// Config is a deployment description.
type Config struct {
	// RegistryPath, when set, opens the segment registry there so owners
	// record their segments for crash sweeps.
	RegistryPath string `json:"registry_path"`

	Channels []Channel `json:"channels"`
}

// Load reads and validates a config file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes raw JSON, fills defaults and validates every entry.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := sonnet.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	for i := range cfg.Channels {
		if err := cfg.Channels[i].normalize(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

func (c *Channel) normalize() error {
	switch c.Kind {
	case KindQueue:
		if c.Capacity == 0 {
			c.Capacity = constants.DefaultQueueCapacity
		}
		if c.Capacity&(c.Capacity-1) != 0 {
			return fmt.Errorf("config: channel %q: capacity %d is not a power of two", c.Name, c.Capacity)
		}
	case KindSnapshot:
		if c.Depth == 0 {
			c.Depth = constants.DefaultSnapshotDepth
		}
		if c.Depth != 1 && c.Depth&(c.Depth-1) != 0 {
			return fmt.Errorf("config: channel %q: depth %d is not a power of two", c.Name, c.Depth)
		}
	default:
		return fmt.Errorf("config: channel %q: unknown kind %q", c.Name, c.Kind)
	}
	if c.RealtimePriority < 0 || c.RealtimePriority > 99 {
		return fmt.Errorf("config: channel %q: realtime priority %d out of range", c.Name, c.RealtimePriority)
	}
	return nil
}
