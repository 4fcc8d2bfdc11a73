package config

// Config is the full levelup configuration.
type Config struct {
	Version string `yaml:"version" mapstructure:"version"`

	User    UserConfig    `yaml:"user" mapstructure:"user"`
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Remote  RemoteConfig  `yaml:"remote" mapstructure:"remote"`
	Sync    SyncConfig    `yaml:"sync" mapstructure:"sync"`
	Rewards RewardsConfig `yaml:"rewards" mapstructure:"rewards"`
}

type UserConfig struct {
	ID string `yaml:"id" mapstructure:"id"`
	// Plan applies when no server is configured.
	Plan string `yaml:"plan" mapstructure:"plan"`
}

type StorageConfig struct {
	DBPath string `yaml:"db_path" mapstructure:"db_path"`
}

// ServerConfig configures `lvl serve`.
type ServerConfig struct {
	Addr       string `yaml:"addr" mapstructure:"addr"`
	AdminToken string `yaml:"admin_token" mapstructure:"admin_token"`
}

// RemoteConfig points the CLI at a levelup server. An empty URL keeps
// everything in the local database.
type RemoteConfig struct {
	URL            string `yaml:"url" mapstructure:"url"`
	AdminToken     string `yaml:"admin_token" mapstructure:"admin_token"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

type SyncConfig struct {
	IntervalSeconds  int `yaml:"interval_seconds" mapstructure:"interval_seconds"`
	IOTimeoutSeconds int `yaml:"io_timeout_seconds" mapstructure:"io_timeout_seconds"`
}

type RewardsConfig struct {
	TaskCompletion int `yaml:"task_completion" mapstructure:"task_completion"`
	PriorityBonus  int `yaml:"priority_bonus" mapstructure:"priority_bonus"`
	AllTasksDone   int `yaml:"all_tasks_done" mapstructure:"all_tasks_done"`
	DailyPenalty   int `yaml:"daily_penalty" mapstructure:"daily_penalty"`
}
