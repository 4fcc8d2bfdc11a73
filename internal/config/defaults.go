package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"levelup/internal/engine"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	r := engine.DefaultRewards()
	return &Config{
		Version: "1",
		User: UserConfig{
			ID:   "local",
			Plan: string(engine.PlanFree),
		},
		Storage: StorageConfig{
			DBPath: "~/.levelup/levelup.db",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Remote: RemoteConfig{
			TimeoutSeconds: 10,
		},
		Sync: SyncConfig{
			IntervalSeconds:  int(engine.DefaultSyncInterval / time.Second),
			IOTimeoutSeconds: 10,
		},
		Rewards: RewardsConfig{
			TaskCompletion: r.TaskCompletion,
			PriorityBonus:  r.PriorityBonus,
			AllTasksDone:   r.AllTasksDone,
			DailyPenalty:   r.DailyPenalty,
		},
	}
}

const defaultHeader = `# levelup configuration
# Values can be overridden with LEVELUP_* environment variables,
# e.g. LEVELUP_USER_ID or LEVELUP_REMOTE_URL.
`

// WriteDefault writes the default configuration to path, creating parent
// directories. An existing file is left alone.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	body, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	return os.WriteFile(path, append([]byte(defaultHeader), body...), 0o644)
}

// EngineRewards converts the reward section for the engine.
func (c *Config) EngineRewards() engine.Rewards {
	return engine.Rewards{
		TaskCompletion: c.Rewards.TaskCompletion,
		PriorityBonus:  c.Rewards.PriorityBonus,
		AllTasksDone:   c.Rewards.AllTasksDone,
		DailyPenalty:   c.Rewards.DailyPenalty,
	}
}

func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.Sync.IntervalSeconds) * time.Second
}

func (c *Config) IOTimeout() time.Duration {
	return time.Duration(c.Sync.IOTimeoutSeconds) * time.Second
}

func (c *Config) RemoteTimeout() time.Duration {
	return time.Duration(c.Remote.TimeoutSeconds) * time.Second
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.User.ID == "" {
		return fmt.Errorf("user.id is required")
	}
	if _, err := engine.ParsePlan(c.User.Plan); err != nil {
		return fmt.Errorf("user.plan: %w", err)
	}
	r := c.Rewards
	if r.TaskCompletion < 0 || r.PriorityBonus < 0 || r.AllTasksDone < 0 || r.DailyPenalty < 0 {
		return fmt.Errorf("rewards must be non-negative")
	}
	if c.Sync.IntervalSeconds < 1 {
		return fmt.Errorf("sync.interval_seconds must be at least 1")
	}
	return nil
}
