package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	internalcommon "github.com/goran-ethernal/SubgraphWatcher/internal/common"
	"github.com/goran-ethernal/SubgraphWatcher/internal/logger"
	"github.com/robfig/cron/v3"
)

// Config represents the complete configuration for the subgraph watcher.
type Config struct {
	// Server contains the processing pipeline settings
	Server ServerConfig `yaml:"server" json:"server" toml:"server"`

	// Upstream contains the chain data source settings
	Upstream UpstreamConfig `yaml:"upstream" json:"upstream" toml:"upstream"`

	// DB contains the database configuration
	DB DatabaseConfig `yaml:"db" json:"db" toml:"db"`

	// Maintenance contains optional database maintenance settings
	Maintenance *MaintenanceConfig `yaml:"maintenance,omitempty" json:"maintenance,omitempty" toml:"maintenance,omitempty"`

	// Contracts are upserted into the watched contract set on startup
	Contracts []ContractConfig `yaml:"contracts" json:"contracts" toml:"contracts"`

	// Logging contains logging configuration
	Logging *LoggingConfig `yaml:"logging,omitempty" json:"logging,omitempty" toml:"logging,omitempty"`

	// Metrics contains Prometheus metrics configuration
	Metrics *MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty" toml:"metrics,omitempty"`

	// API contains the query API configuration
	API *APIConfig `yaml:"api,omitempty" json:"api,omitempty" toml:"api,omitempty"`
}

// ServerConfig configures block processing, pruning and checkpointing.
type ServerConfig struct {
	// CheckpointInterval is the number of canonical blocks between automatic checkpoints.
	// Zero or a negative value disables automatic checkpointing.
	CheckpointInterval int64 `yaml:"checkpoint_interval" json:"checkpoint_interval" toml:"checkpoint_interval"`

	// MaxEventsBlockRange is the widest block range accepted by events range queries
	MaxEventsBlockRange uint64 `yaml:"max_events_block_range" json:"max_events_block_range" toml:"max_events_block_range"`

	// PruningDepth bounds ancestor walks, latest entity recomputation and the frothy window.
	// Blocks deeper than this behind the processed tip are considered canonical.
	PruningDepth uint64 `yaml:"pruning_depth" json:"pruning_depth" toml:"pruning_depth"`

	// EnableState toggles state (diff and checkpoint) creation
	EnableState *bool `yaml:"enable_state,omitempty" json:"enable_state,omitempty" toml:"enable_state,omitempty"`

	// CheckpointWorkers is the number of workers creating checkpoints in the background
	CheckpointWorkers int `yaml:"checkpoint_workers" json:"checkpoint_workers" toml:"checkpoint_workers"`

	// CheckpointQueueSize bounds the number of queued checkpoint tasks
	CheckpointQueueSize int `yaml:"checkpoint_queue_size" json:"checkpoint_queue_size" toml:"checkpoint_queue_size"`

	// ClearEntitiesCacheInterval is the number of canonical blocks after which the
	// frothy entity cache is cleared
	ClearEntitiesCacheInterval uint64 `yaml:"clear_entities_cache_interval" json:"clear_entities_cache_interval" toml:"clear_entities_cache_interval"` //nolint:lll
}

// ApplyDefaults sets default values for optional server configuration fields.
func (s *ServerConfig) ApplyDefaults() {
	if s.MaxEventsBlockRange == 0 {
		s.MaxEventsBlockRange = 1000
	}
	if s.PruningDepth == 0 {
		s.PruningDepth = 16
	}
	if s.EnableState == nil {
		enabled := true
		s.EnableState = &enabled
	}
	if s.CheckpointWorkers == 0 {
		s.CheckpointWorkers = 4
	}
	if s.CheckpointQueueSize == 0 {
		s.CheckpointQueueSize = 64
	}
	if s.ClearEntitiesCacheInterval == 0 {
		s.ClearEntitiesCacheInterval = 1000
	}
	// CheckpointInterval defaults to 0 (disabled)
}

// StateEnabled reports whether diffs and checkpoints are produced.
func (s *ServerConfig) StateEnabled() bool {
	return s.EnableState == nil || *s.EnableState
}

// Validate checks if the server configuration is valid.
func (s *ServerConfig) Validate() error {
	if s.CheckpointWorkers < 0 {
		return fmt.Errorf("server.checkpoint_workers: must not be negative")
	}
	if s.CheckpointQueueSize < 0 {
		return fmt.Errorf("server.checkpoint_queue_size: must not be negative")
	}
	return nil
}

// UpstreamConfig represents the configuration of the chain data source.
type UpstreamConfig struct {
	// RPCURL is the Ethereum RPC endpoint URL
	RPCURL string `yaml:"rpc_url" json:"rpc_url" toml:"rpc_url"`

	// Finality specifies how canonical blocks are chosen: "finalized", "safe", or "latest".
	// With "latest", blocks pruning_depth behind the processed tip are canonical.
	Finality string `yaml:"finality" json:"finality" toml:"finality"`

	// ChunkSize is the block range per eth_getLogs call
	ChunkSize uint64 `yaml:"chunk_size" json:"chunk_size" toml:"chunk_size"`

	// PollInterval is how long to wait for new blocks once the watcher is caught up
	PollInterval internalcommon.Duration `yaml:"poll_interval" json:"poll_interval" toml:"poll_interval"`

	// StoreUnknownEvents keeps logs of watched contracts that no registered ABI decodes
	StoreUnknownEvents bool `yaml:"store_unknown_events" json:"store_unknown_events" toml:"store_unknown_events"`

	// Retry contains RPC retry configuration with exponential backoff
	Retry *RetryConfig `yaml:"retry,omitempty" json:"retry,omitempty" toml:"retry,omitempty"`
}

// ApplyDefaults sets default values for optional upstream configuration fields.
func (u *UpstreamConfig) ApplyDefaults() {
	if u.Finality == "" {
		u.Finality = "latest"
	}
	if u.ChunkSize == 0 {
		u.ChunkSize = 100
	}
	if u.PollInterval.Duration == 0 {
		u.PollInterval = internalcommon.NewDuration(5 * time.Second) //nolint:mnd
	}
	if u.Retry != nil {
		u.Retry.ApplyDefaults()
	}
}

// RetryConfig represents RPC retry configuration with exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial request)
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts" toml:"max_attempts"`

	// InitialBackoff is the initial backoff duration before first retry
	InitialBackoff internalcommon.Duration `yaml:"initial_backoff" json:"initial_backoff" toml:"initial_backoff"`

	// MaxBackoff is the maximum backoff duration
	MaxBackoff internalcommon.Duration `yaml:"max_backoff" json:"max_backoff" toml:"max_backoff"`

	// BackoffMultiplier is the multiplier for exponential backoff
	BackoffMultiplier float64 `yaml:"backoff_multiplier" json:"backoff_multiplier" toml:"backoff_multiplier"`
}

// ApplyDefaults sets default values for retry configuration.
func (r *RetryConfig) ApplyDefaults() {
	if r.MaxAttempts == 0 {
		r.MaxAttempts = 5
	}
	if r.InitialBackoff.Duration == 0 {
		r.InitialBackoff = internalcommon.NewDuration(1 * time.Second)
	}
	if r.MaxBackoff.Duration == 0 {
		r.MaxBackoff = internalcommon.NewDuration(30 * time.Second) //nolint:mnd
	}
	if r.BackoffMultiplier == 0 {
		r.BackoffMultiplier = 2.0
	}
}

// DatabaseConfig represents database configuration.
type DatabaseConfig struct {
	// Path is the file path to the SQLite database
	Path string `yaml:"path" json:"path" toml:"path"`

	// JournalMode sets the SQLite journal mode (e.g., "WAL", "DELETE")
	JournalMode string `yaml:"journal_mode" json:"journal_mode" toml:"journal_mode"`

	// Synchronous sets the synchronization level ("FULL", "NORMAL", "OFF")
	Synchronous string `yaml:"synchronous" json:"synchronous" toml:"synchronous"`

	// BusyTimeout is the time in milliseconds to wait when the database is locked
	BusyTimeout int `yaml:"busy_timeout" json:"busy_timeout" toml:"busy_timeout"`

	// CacheSize is the size of the page cache (negative = KB, positive = pages)
	CacheSize int `yaml:"cache_size" json:"cache_size" toml:"cache_size"`

	// MaxOpenConnections is the maximum number of open database connections
	MaxOpenConnections int `yaml:"max_open_connections" json:"max_open_connections" toml:"max_open_connections"`

	// MaxIdleConnections is the maximum number of idle connections in the pool
	MaxIdleConnections int `yaml:"max_idle_connections" json:"max_idle_connections" toml:"max_idle_connections"`

	// EnableForeignKeys enables foreign key constraint enforcement
	EnableForeignKeys bool `yaml:"enable_foreign_keys" json:"enable_foreign_keys" toml:"enable_foreign_keys"`
}

// ApplyDefaults sets default values for optional database configuration fields.
func (d *DatabaseConfig) ApplyDefaults() {
	if d.JournalMode == "" {
		d.JournalMode = "WAL"
	}
	if d.Synchronous == "" {
		d.Synchronous = "NORMAL"
	}
	if d.BusyTimeout == 0 {
		d.BusyTimeout = 5000
	}
	if d.CacheSize == 0 {
		d.CacheSize = 10000
	}
	if d.MaxOpenConnections == 0 {
		d.MaxOpenConnections = 25
	}
	if d.MaxIdleConnections == 0 {
		d.MaxIdleConnections = 5
	}
}

// Validate checks if the database configuration is valid.
func (d *DatabaseConfig) Validate() error {
	if d.Path == "" {
		return fmt.Errorf("db.path is required")
	}

	if d.JournalMode != "" &&
		!slices.Contains([]string{"WAL", "DELETE", "TRUNCATE", "PERSIST", "MEMORY"}, d.JournalMode) {
		return fmt.Errorf("db.journal_mode must be one of: WAL, DELETE, TRUNCATE, PERSIST, MEMORY")
	}

	if d.Synchronous != "" && !slices.Contains([]string{"FULL", "NORMAL", "OFF"}, d.Synchronous) {
		return fmt.Errorf("db.synchronous must be one of: FULL, NORMAL, OFF")
	}

	return nil
}

// MaintenanceConfig configures database maintenance behavior.
type MaintenanceConfig struct {
	// Enabled controls whether background maintenance runs
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// CheckInterval is how often to run maintenance (e.g., "30m", "1h").
	// Ignored when Schedule is set.
	CheckInterval internalcommon.Duration `yaml:"check_interval" json:"check_interval" toml:"check_interval"`

	// Schedule is an optional cron expression with seconds, e.g. "0 0 3 * * *"
	Schedule string `yaml:"schedule,omitempty" json:"schedule,omitempty" toml:"schedule,omitempty"`

	// VacuumOnStartup runs maintenance immediately on startup
	VacuumOnStartup bool `yaml:"vacuum_on_startup" json:"vacuum_on_startup" toml:"vacuum_on_startup"`

	// WALCheckpointMode controls the WAL checkpoint aggressiveness
	// Options: PASSIVE, FULL, RESTART, TRUNCATE
	WALCheckpointMode string `yaml:"wal_checkpoint_mode" json:"wal_checkpoint_mode" toml:"wal_checkpoint_mode"`
}

// CronParser parses maintenance schedules. Expressions carry a leading seconds field.
var CronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ApplyDefaults sets default values for optional maintenance configuration fields.
func (m *MaintenanceConfig) ApplyDefaults() {
	if m.CheckInterval.Duration == 0 {
		m.CheckInterval = internalcommon.NewDuration(30 * time.Minute) //nolint:mnd
	}
	if m.WALCheckpointMode == "" {
		m.WALCheckpointMode = "TRUNCATE"
	}
}

// Validate checks if the maintenance configuration is valid.
func (m *MaintenanceConfig) Validate() error {
	if m.WALCheckpointMode != "" {
		validModes := []string{"PASSIVE", "FULL", "RESTART", "TRUNCATE"}
		if !slices.Contains(validModes, m.WALCheckpointMode) {
			return fmt.Errorf("maintenance.wal_checkpoint_mode: must be one of: PASSIVE, FULL, RESTART, TRUNCATE")
		}
	}

	if m.Schedule != "" {
		if _, err := CronParser.Parse(m.Schedule); err != nil {
			return fmt.Errorf("maintenance.schedule: %w", err)
		}
	}

	return nil
}

// ContractConfig describes a contract watched from startup.
type ContractConfig struct {
	// Address is the contract address
	Address string `yaml:"address" json:"address" toml:"address"`

	// Kind selects the ABI and hook set, e.g. "factory", "pool"
	Kind string `yaml:"kind" json:"kind" toml:"kind"`

	// Checkpoint enables state diffs and checkpoints for this contract
	Checkpoint bool `yaml:"checkpoint" json:"checkpoint" toml:"checkpoint"`

	// StartingBlock is the block at which the initial state is created
	StartingBlock uint64 `yaml:"starting_block" json:"starting_block" toml:"starting_block"`

	// Context is opaque per-kind configuration handed to the hooks
	Context map[string]any `yaml:"context,omitempty" json:"context,omitempty" toml:"context,omitempty"`
}

// Validate checks if the contract configuration is valid.
func (c *ContractConfig) Validate() error {
	if !common.IsHexAddress(c.Address) {
		return fmt.Errorf("address %q is not a valid hex address", c.Address)
	}
	if c.Kind == "" {
		return fmt.Errorf("kind is required")
	}
	return nil
}

// LoggingConfig configures logging behavior with per-component log levels.
type LoggingConfig struct {
	// DefaultLevel is the default log level for all components
	// Options: "debug", "info", "warn", "error"
	DefaultLevel string `yaml:"default_level" json:"default_level" toml:"default_level"`

	// Development enables development mode (stack traces, console encoder)
	Development bool `yaml:"development" json:"development" toml:"development"`

	// ComponentLevels sets log levels for specific components
	// Available components:
	//   - watcher: Main job loop
	//   - pipeline: Block and event processing
	//   - frothy: Branch versioning and pruning
	//   - checkpoint: State diffs and checkpoints
	//   - store: Blocks, events and sync status
	//   - registry: Event signature registry
	//   - fetcher: Chain data retrieval
	//   - reorg-detector: Branch ancestry resolution
	//   - maintenance: Database maintenance
	//   - api: Query API
	ComponentLevels map[string]string `yaml:"component_levels,omitempty" json:"component_levels,omitempty" toml:"component_levels,omitempty"` //nolint:lll
}

// ApplyDefaults sets default values for optional logging configuration fields.
func (l *LoggingConfig) ApplyDefaults() {
	if l.DefaultLevel == "" {
		l.DefaultLevel = "info"
	}
	if l.ComponentLevels == nil {
		l.ComponentLevels = make(map[string]string)
	}
}

// Validate checks if the logging configuration is valid.
func (l *LoggingConfig) Validate() error {
	if l.DefaultLevel != "" {
		if _, valid := logger.ValidLogLevels[internalcommon.ToLowerWithTrim(l.DefaultLevel)]; !valid {
			return fmt.Errorf("logging.default_level: must be one of: debug, info, warn, error")
		}
	}

	for component, level := range l.ComponentLevels {
		if _, validComponent := internalcommon.AllComponents[internalcommon.ToLowerWithTrim(component)]; !validComponent {
			return fmt.Errorf("logging.component_levels: unknown component '%s'", component)
		}

		if _, valid := logger.ValidLogLevels[internalcommon.ToLowerWithTrim(level)]; !valid {
			return fmt.Errorf("logging.component_levels[%s]: must be one of: debug, info, warn, error", component)
		}
	}

	return nil
}

// GetComponentLevel returns the log level for a specific component.
// Falls back to DefaultLevel if no component-specific level is set.
func (l *LoggingConfig) GetComponentLevel(component string) string {
	if l == nil {
		return ""
	}
	if level, ok := l.ComponentLevels[component]; ok {
		return internalcommon.ToLowerWithTrim(level)
	}
	return internalcommon.ToLowerWithTrim(l.DefaultLevel)
}

// GetDefaultLevel returns the default log level.
func (l *LoggingConfig) GetDefaultLevel() string {
	if l == nil {
		return ""
	}
	return internalcommon.ToLowerWithTrim(l.DefaultLevel)
}

// IsDevelopment returns whether development mode is enabled.
func (l *LoggingConfig) IsDevelopment() bool {
	return l != nil && l.Development
}

// MetricsConfig configures Prometheus metrics exposition.
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP endpoint are active
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// ListenAddress is the address to bind the metrics HTTP server to
	ListenAddress string `yaml:"listen_address" json:"listen_address" toml:"listen_address"`

	// Path is the HTTP path where metrics are exposed
	Path string `yaml:"path" json:"path" toml:"path"`
}

// ApplyDefaults sets default values for optional metrics configuration fields.
func (m *MetricsConfig) ApplyDefaults() {
	if m.ListenAddress == "" {
		m.ListenAddress = ":9090"
	}
	if m.Path == "" {
		m.Path = "/metrics"
	}
}

// Validate checks if the metrics configuration is valid.
func (m *MetricsConfig) Validate() error {
	if m.Enabled {
		if m.ListenAddress == "" {
			return fmt.Errorf("listen_address is required when metrics are enabled")
		}
		if m.Path == "" {
			return fmt.Errorf("path is required when metrics are enabled")
		}
		if m.Path[0] != '/' {
			return fmt.Errorf("path must start with '/'")
		}
	}
	return nil
}

// APIConfig configures the query API server.
type APIConfig struct {
	// Enabled controls whether the API server is started
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// ListenAddress is the address to bind the API server to
	ListenAddress string `yaml:"listen_address" json:"listen_address" toml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request
	ReadTimeout internalcommon.Duration `yaml:"read_timeout" json:"read_timeout" toml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of a response
	WriteTimeout internalcommon.Duration `yaml:"write_timeout" json:"write_timeout" toml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	IdleTimeout internalcommon.Duration `yaml:"idle_timeout" json:"idle_timeout" toml:"idle_timeout"`

	// MaxPageSize caps the number of entities returned by list queries
	MaxPageSize int `yaml:"max_page_size" json:"max_page_size" toml:"max_page_size"`

	// CORS contains cross-origin settings
	CORS CORSConfig `yaml:"cors" json:"cors" toml:"cors"`
}

// CORSConfig configures cross-origin resource sharing.
type CORSConfig struct {
	Enabled        bool     `yaml:"enabled" json:"enabled" toml:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins" toml:"allowed_origins"`
}

// ApplyDefaults sets default values for optional API configuration fields.
func (a *APIConfig) ApplyDefaults() {
	if a.ListenAddress == "" {
		a.ListenAddress = ":8080"
	}
	if a.ReadTimeout.Duration == 0 {
		a.ReadTimeout = internalcommon.NewDuration(15 * time.Second) //nolint:mnd
	}
	if a.WriteTimeout.Duration == 0 {
		a.WriteTimeout = internalcommon.NewDuration(15 * time.Second) //nolint:mnd
	}
	if a.IdleTimeout.Duration == 0 {
		a.IdleTimeout = internalcommon.NewDuration(60 * time.Second) //nolint:mnd
	}
	if a.MaxPageSize == 0 {
		a.MaxPageSize = 1000
	}
	if a.CORS.Enabled && len(a.CORS.AllowedOrigins) == 0 {
		a.CORS.AllowedOrigins = []string{"*"}
	}
}

// Validate checks if the API configuration is valid.
func (a *APIConfig) Validate() error {
	if a.Enabled && a.ListenAddress == "" {
		return fmt.Errorf("listen_address is required when the API is enabled")
	}
	if a.MaxPageSize < 0 {
		return fmt.Errorf("max_page_size must not be negative")
	}
	return nil
}

// ApplyDefaults sets default values for optional configuration fields.
func (c *Config) ApplyDefaults() {
	c.Server.ApplyDefaults()
	c.Upstream.ApplyDefaults()
	c.DB.ApplyDefaults()

	if c.Maintenance != nil {
		c.Maintenance.ApplyDefaults()
	}

	for i := range c.Contracts {
		c.Contracts[i].Kind = strings.ToLower(strings.TrimSpace(c.Contracts[i].Kind))
	}

	if c.Logging != nil {
		c.Logging.ApplyDefaults()
	}

	if c.Metrics != nil {
		c.Metrics.ApplyDefaults()
	}

	if c.API != nil {
		c.API.ApplyDefaults()
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Upstream.RPCURL == "" {
		return fmt.Errorf("upstream.rpc_url is required")
	}

	if !slices.Contains([]string{"finalized", "safe", "latest"}, c.Upstream.Finality) {
		return fmt.Errorf("upstream.finality must be one of: 'finalized', 'safe', or 'latest'")
	}

	if err := c.Server.Validate(); err != nil {
		return err
	}

	if err := c.DB.Validate(); err != nil {
		return err
	}

	if c.Maintenance != nil {
		if err := c.Maintenance.Validate(); err != nil {
			return err
		}
	}

	seen := make(map[string]struct{}, len(c.Contracts))
	for i, contract := range c.Contracts {
		if err := contract.Validate(); err != nil {
			return fmt.Errorf("contracts[%d]: %w", i, err)
		}

		key := strings.ToLower(contract.Address) + "/" + contract.Kind
		if _, dup := seen[key]; dup {
			return fmt.Errorf("contracts[%d]: duplicate contract %s of kind %s", i, contract.Address, contract.Kind)
		}
		seen[key] = struct{}{}
	}

	if c.Logging != nil {
		if err := c.Logging.Validate(); err != nil {
			return err
		}
	}

	if c.Metrics != nil {
		if err := c.Metrics.Validate(); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	if c.API != nil {
		if err := c.API.Validate(); err != nil {
			return fmt.Errorf("api: %w", err)
		}
	}

	return nil
}
