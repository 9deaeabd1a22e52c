// Package config provides configuration loading and management for the catalog exporter.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stacklok/catalog-exporter/internal/telemetry"
)

const (
	// EnvPrefix is the prefix for environment variables read by the exporter
	EnvPrefix = "EXPORTER"

	// PasswordEnvVar is the environment variable holding the database password
	PasswordEnvVar = "EXPORTER_DATABASE_PASSWORD"
)

const (
	// StorageTypeDatabase stores the export table in PostgreSQL
	StorageTypeDatabase = "database"

	// StorageTypeSQLite stores the export table in a local SQLite file
	StorageTypeSQLite = "sqlite"
)

const (
	// DefaultLimit is the hard cap on rows exported per file and run
	DefaultLimit = 3000000

	// DefaultStep is the page size of every paginated query
	DefaultStep = 10000

	// DefaultDataSaveStep is the number of records appended to a file at once
	DefaultDataSaveStep = 500

	// DefaultRunTimeout is the wall-clock ceiling of a single run
	DefaultRunTimeout = 2 * time.Hour

	// DefaultOutputDir is where run directories are created
	DefaultOutputDir = "./data/exports"

	// DefaultSQLitePath is the export table file used by the sqlite storage type
	DefaultSQLitePath = "./data/exporter.db"

	// DefaultDeltaFrequency is the minimum time between two delta runs of an account
	DefaultDeltaFrequency = 30 * time.Minute

	// DefaultDeltaFullRange is the time a full run must have settled before a delta may run
	DefaultDeltaFullRange = 60 * time.Minute

	// DefaultFullInterval is how often the schedule daemon triggers a full run per account
	DefaultFullInterval = 24 * time.Hour

	// DefaultSplitSeparator joins the values of a multi-valued relation column
	DefaultSplitSeparator = "|"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Database   *DatabaseConfig   `yaml:"database,omitempty"`
	Storage    *StorageConfig    `yaml:"storage,omitempty"`
	Exporter   ExporterConfig    `yaml:"exporter"`
	Delta      DeltaConfig       `yaml:"delta"`
	Accounts   []AccountConfig   `yaml:"accounts"`
	Components []ComponentConfig `yaml:"components"`
	Telemetry  *telemetry.Config `yaml:"telemetry,omitempty"`
}

// StorageConfig selects where the export table lives
type StorageConfig struct {
	// Type is either "database" (default) or "sqlite"
	Type string `yaml:"type,omitempty"`

	// SQLitePath is the database file used when Type is "sqlite"
	SQLitePath string `yaml:"sqlitePath,omitempty"`
}

// ExporterConfig holds the pagination ceilings and output settings
type ExporterConfig struct {
	// Limit is the hard cap on total rows exported per file in one run
	Limit int `yaml:"limit,omitempty"`

	// Step is the page size
	Step int `yaml:"step,omitempty"`

	// DataSaveStep is the number of records appended to a file at once
	DataSaveStep int `yaml:"dataSaveStep,omitempty"`

	// RunTimeout is the wall-clock ceiling of a run (e.g. "2h")
	RunTimeout string `yaml:"runTimeout,omitempty"`

	// OutputDir is the directory under which per-run directories are created
	OutputDir string `yaml:"outputDir,omitempty"`
}

// DeltaConfig holds the time windows of the delta eligibility policy
type DeltaConfig struct {
	// Frequency is the minimum time between two delta runs (e.g. "30m")
	Frequency string `yaml:"frequency,omitempty"`

	// FullRange is how long a full run must have completed before a delta is allowed
	FullRange string `yaml:"fullRange,omitempty"`

	// FullInterval is how often the schedule daemon starts a full run
	FullInterval string `yaml:"fullInterval,omitempty"`
}

// AccountConfig is a tenant whose catalog is exported
type AccountConfig struct {
	Name string `yaml:"name"`

	// Schema holds the account's side tables; defaults to the current schema
	Schema string `yaml:"schema,omitempty"`

	// ExtraTables lists side tables exported next to each entity, keyed by entity name
	ExtraTables map[string][]string `yaml:"extraTables,omitempty"`
}

// ComponentConfig describes one exported entity (products, customers, transactions)
type ComponentConfig struct {
	// Entity is the entity name registered with the indexing service
	Entity string `yaml:"entity"`

	// MainFile is the primary file name, e.g. products.csv
	MainFile string `yaml:"mainFile"`

	// IDField is the id column of the primary file
	IDField string `yaml:"idField"`

	// Query selects the primary rows of an account. It may reference @account.
	// Pages are read with LIMIT/OFFSET, so the query must order its rows totally:
	// by a unique key or by every selected column.
	Query string `yaml:"query"`

	// DeltaQuery selects rows changed since @since. Components without one are
	// skipped on delta runs.
	DeltaQuery string `yaml:"deltaQuery,omitempty"`

	// ScopeRelations restricts relation queries of full runs to the exported ids.
	// Delta runs are always scoped.
	ScopeRelations bool `yaml:"scopeRelations,omitempty"`

	Relations []RelationConfig `yaml:"relations,omitempty"`
}

// RelationConfig describes a relation file linking the primary entity to an attribute
type RelationConfig struct {
	// Name is the property name, e.g. image or category
	Name string `yaml:"name"`

	// File is the relation file name, e.g. product_image.csv
	File string `yaml:"file"`

	// IDField is the column of the relation holding the primary entity id
	IDField string `yaml:"idField"`

	// ValueColumns are the value columns registered for the relation
	ValueColumns []string `yaml:"valueColumns,omitempty"`

	// Params are passed through to the registrar (e.g. splitValues: "|")
	Params map[string]string `yaml:"params,omitempty"`

	// Query selects the relation rows. It may reference @account. Like the
	// component query it must order its rows totally; the join key alone is
	// usually not unique.
	Query string `yaml:"query"`

	// HeaderColumns are written when the relation has no rows and the source
	// reports no column names
	HeaderColumns []string `yaml:"headerColumns,omitempty"`

	Resolve *ResolveConfig `yaml:"resolve,omitempty"`
}

// ResolveConfig maps the values of a relation column through a lookup query
type ResolveConfig struct {
	// Column is the column whose values are resolved
	Column string `yaml:"column"`

	// Separator splits multi-valued cells; defaults to "|"
	Separator string `yaml:"separator,omitempty"`

	// Query takes the raw value as $1 and returns the resolved value
	Query string `yaml:"query"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// MaxIdleConns is the minimum number of idle connections kept in the pool
	MaxIdleConns int32 `yaml:"maxIdleConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from EXPORTER_DATABASE_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		cleanPath := filepath.Clean(d.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}

		return strings.TrimSpace(string(data)), nil
	}

	if envPassword := os.Getenv(PasswordEnvVar); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or %s environment variable", PasswordEnvVar,
	)
}

// GetConnectionString builds a PostgreSQL connection string with proper password handling.
// The password is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User),
		url.QueryEscape(password),
		d.Host,
		d.Port,
		d.Database,
		sslMode,
	), nil
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse parses and validates YAML configuration content
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetStorageType returns the configured storage type, defaulting to database
func (c *Config) GetStorageType() string {
	if c.Storage == nil || c.Storage.Type == "" {
		return StorageTypeDatabase
	}
	return c.Storage.Type
}

// GetSQLitePath returns the SQLite file path, using the default if not specified
func (c *Config) GetSQLitePath() string {
	if c.Storage == nil || c.Storage.SQLitePath == "" {
		return DefaultSQLitePath
	}
	return c.Storage.SQLitePath
}

// NeedsDatabase reports whether a PostgreSQL connection is required.
// Catalog queries always run against PostgreSQL.
func (c *Config) NeedsDatabase() bool {
	return len(c.Components) > 0 || c.GetStorageType() == StorageTypeDatabase
}

// Account returns the named account configuration
func (c *Config) Account(name string) (*AccountConfig, bool) {
	for i := range c.Accounts {
		if c.Accounts[i].Name == name {
			return &c.Accounts[i], true
		}
	}
	return nil, false
}

// AccountSchemas maps account names to their configured side table schema
func (c *Config) AccountSchemas() map[string]string {
	schemas := make(map[string]string, len(c.Accounts))
	for _, acc := range c.Accounts {
		if acc.Schema != "" {
			schemas[acc.Name] = acc.Schema
		}
	}
	return schemas
}

// GetLimit returns the row ceiling, using the default if not specified
func (e *ExporterConfig) GetLimit() int {
	if e.Limit <= 0 {
		return DefaultLimit
	}
	return e.Limit
}

// GetStep returns the page size, using the default if not specified
func (e *ExporterConfig) GetStep() int {
	if e.Step <= 0 {
		return DefaultStep
	}
	return e.Step
}

// GetDataSaveStep returns the append segment size, using the default if not specified
func (e *ExporterConfig) GetDataSaveStep() int {
	if e.DataSaveStep <= 0 {
		return DefaultDataSaveStep
	}
	return e.DataSaveStep
}

// GetRunTimeout returns the run ceiling, using the default if unset or invalid
func (e *ExporterConfig) GetRunTimeout() time.Duration {
	return durationOrDefault(e.RunTimeout, DefaultRunTimeout)
}

// GetOutputDir returns the output directory, using the default if not specified
func (e *ExporterConfig) GetOutputDir() string {
	if e.OutputDir == "" {
		return DefaultOutputDir
	}
	return e.OutputDir
}

// GetFrequency returns the minimum delta interval
func (d *DeltaConfig) GetFrequency() time.Duration {
	return durationOrDefault(d.Frequency, DefaultDeltaFrequency)
}

// GetFullRange returns the settle time required after a full run
func (d *DeltaConfig) GetFullRange() time.Duration {
	return durationOrDefault(d.FullRange, DefaultDeltaFullRange)
}

// GetFullInterval returns how often the schedule daemon starts full runs
func (d *DeltaConfig) GetFullInterval() time.Duration {
	return durationOrDefault(d.FullInterval, DefaultFullInterval)
}

// GetSeparator returns the multi-value separator, defaulting to "|"
func (r *ResolveConfig) GetSeparator() string {
	if r.Separator == "" {
		return DefaultSplitSeparator
	}
	return r.Separator
}

func durationOrDefault(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return def
	}
	return d
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := c.validateStorage(); err != nil {
		return err
	}

	if err := c.validateDurations(); err != nil {
		return err
	}

	if c.Exporter.Limit < 0 || c.Exporter.Step < 0 || c.Exporter.DataSaveStep < 0 {
		return fmt.Errorf("exporter: limit, step and dataSaveStep must not be negative")
	}
	if c.Exporter.GetStep() > c.Exporter.GetLimit() {
		return fmt.Errorf("exporter: step (%d) must not exceed limit (%d)", c.Exporter.GetStep(), c.Exporter.GetLimit())
	}

	if len(c.Accounts) == 0 {
		return fmt.Errorf("at least one account must be configured")
	}
	accountNames := make(map[string]bool)
	for i, acc := range c.Accounts {
		if acc.Name == "" {
			return fmt.Errorf("accounts[%d]: name is required", i)
		}
		if accountNames[acc.Name] {
			return fmt.Errorf("accounts[%d]: duplicate account name '%s'", i, acc.Name)
		}
		accountNames[acc.Name] = true
	}

	entities := make(map[string]bool)
	for i := range c.Components {
		comp := &c.Components[i]
		if err := validateComponent(comp, i); err != nil {
			return err
		}
		if entities[comp.Entity] {
			return fmt.Errorf("components[%d]: duplicate entity '%s'", i, comp.Entity)
		}
		entities[comp.Entity] = true
	}

	if c.NeedsDatabase() && c.Database == nil {
		return fmt.Errorf("database configuration is required")
	}

	return c.Telemetry.Validate()
}

func (c *Config) validateStorage() error {
	switch c.GetStorageType() {
	case StorageTypeDatabase, StorageTypeSQLite:
		return nil
	default:
		return fmt.Errorf("storage.type must be %q or %q, got %q",
			StorageTypeDatabase, StorageTypeSQLite, c.GetStorageType())
	}
}

func (c *Config) validateDurations() error {
	fields := map[string]string{
		"exporter.runTimeout": c.Exporter.RunTimeout,
		"delta.frequency":     c.Delta.Frequency,
		"delta.fullRange":     c.Delta.FullRange,
		"delta.fullInterval":  c.Delta.FullInterval,
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s must be a valid duration (e.g., '30m', '1h'): %w", name, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

func validateComponent(comp *ComponentConfig, index int) error {
	prefix := fmt.Sprintf("components[%d] (%s)", index, comp.Entity)
	switch {
	case comp.Entity == "":
		return fmt.Errorf("components[%d]: entity is required", index)
	case comp.MainFile == "":
		return fmt.Errorf("%s: mainFile is required", prefix)
	case comp.IDField == "":
		return fmt.Errorf("%s: idField is required", prefix)
	case comp.Query == "":
		return fmt.Errorf("%s: query is required", prefix)
	}

	files := map[string]bool{comp.MainFile: true}
	for j, rel := range comp.Relations {
		relPrefix := fmt.Sprintf("%s relations[%d] (%s)", prefix, j, rel.Name)
		switch {
		case rel.Name == "":
			return fmt.Errorf("%s relations[%d]: name is required", prefix, j)
		case rel.File == "":
			return fmt.Errorf("%s: file is required", relPrefix)
		case rel.IDField == "":
			return fmt.Errorf("%s: idField is required", relPrefix)
		case rel.Query == "":
			return fmt.Errorf("%s: query is required", relPrefix)
		}
		if files[rel.File] {
			return fmt.Errorf("%s: file '%s' is already used", relPrefix, rel.File)
		}
		files[rel.File] = true

		if rel.Resolve != nil && (rel.Resolve.Column == "" || rel.Resolve.Query == "") {
			return fmt.Errorf("%s: resolve.column and resolve.query are required", relPrefix)
		}
	}
	return nil
}
