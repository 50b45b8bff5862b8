package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LogConfig 日志配置段
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// FillerConfig 填单器配置段（毫秒粒度的时间项）。
// throttle_backoff_ms 用指针区分“缺项”（取缺省窗口）与显式 0（关闭节流）。
type FillerConfig struct {
	PollIntervalMs        int  `yaml:"poll_interval_ms"`
	ThrottleBackoffMs     *int `yaml:"throttle_backoff_ms"`
	MaxBatchBytes         int  `yaml:"max_batch_bytes"`
	SnapshotGateTimeoutMs int  `yaml:"snapshot_gate_timeout_ms"`
	CycleTimeoutMs        int  `yaml:"cycle_timeout_ms"`
	OutcomeFetchAttempts  int  `yaml:"outcome_fetch_attempts"`
	OutcomeFetchDelayMs   int  `yaml:"outcome_fetch_delay_ms"`
	DryRun                bool `yaml:"dry_run"`
}

// Config 应用配置
type Config struct {
	RPCEndpoint    string       `yaml:"rpc_endpoint"`
	EventStreamURL string       `yaml:"event_stream_url"`
	Submitter      string       `yaml:"submitter"`
	ProgramRef     string       `yaml:"program_ref"`
	Markets        []uint16     `yaml:"markets"`
	JournalDir     string       `yaml:"journal_dir"`
	DiagAddr       string       `yaml:"diag_addr"`
	Filler         FillerConfig `yaml:"filler"`
	Log            LogConfig    `yaml:"log"`
}

// Load 读取配置：.env（可选，best effort）+ YAML 文件 + 环境变量覆盖
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse config yaml")
	}

	applyEnvOverrides(&cfg)

	if cfg.RPCEndpoint == "" {
		return nil, errors.New("rpc_endpoint is required")
	}
	if cfg.Submitter == "" {
		return nil, errors.New("submitter is required")
	}
	return &cfg, nil
}

// applyEnvOverrides 环境变量优先于文件（部署时免改文件）
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FILLER_RPC_ENDPOINT"); v != "" {
		cfg.RPCEndpoint = v
	}
	if v := os.Getenv("FILLER_EVENT_STREAM_URL"); v != "" {
		cfg.EventStreamURL = v
	}
	if v := os.Getenv("FILLER_SUBMITTER"); v != "" {
		cfg.Submitter = v
	}
	if v := os.Getenv("FILLER_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("FILLER_DRY_RUN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Filler.DryRun = b
		}
	}
}
