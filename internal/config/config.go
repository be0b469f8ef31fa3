package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Storage  StorageConfig  `yaml:"storage"`
	Campus   CampusConfig   `yaml:"campus"`
	Workers  WorkersConfig  `yaml:"workers"`
	Grading  GradingConfig  `yaml:"grading"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Env     string `yaml:"env"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name"`
	Charset            string        `yaml:"charset"`
	ParseTime          bool          `yaml:"parse_time"`
	Loc                string        `yaml:"loc"`
	MaxConnections     int           `yaml:"max_connections"`
	MaxIdleConnections int           `yaml:"max_idle_connections"`
	ConnectionLifetime time.Duration `yaml:"connection_lifetime"`
}

type RedisConfig struct {
	Host              string `yaml:"host"`
	Port              int    `yaml:"port"`
	Password          string `yaml:"password"`
	DB                int    `yaml:"db"`
	PoolSize          int    `yaml:"pool_size"`
	SweepQueue        string `yaml:"sweep_queue"`
	NotificationQueue string `yaml:"notification_queue"`
	DLQSuffix         string `yaml:"dlq_suffix"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// CampusConfig points at the school-system API that owns rosters, term
// windows, and enrollment data. This service only reads from it.
type CampusConfig struct {
	BaseURL            string        `yaml:"base_url"`
	AuthEndpoint       string        `yaml:"auth_endpoint"`
	RosterEndpoint     string        `yaml:"roster_endpoint"`
	TermWindowEndpoint string        `yaml:"term_window_endpoint"`
	Username           string        `yaml:"username"`
	Password           string        `yaml:"password"`
	Timeout            time.Duration `yaml:"timeout"`
}

type WorkersConfig struct {
	Sweep SweepWorkerConfig `yaml:"sweep"`
}

type SweepWorkerConfig struct {
	Count      int    `yaml:"count"`
	BatchSize  int    `yaml:"batch_size"`
	RunAt      string `yaml:"run_at"` // HH:MM, local time of the nightly run
	RunOnStart bool   `yaml:"run_on_start"`
}

// GradingConfig carries the institutional grading policy. The defaults
// (3.00 passing threshold, 5.00 failing mark, one-term INC deadline)
// follow the registrar's current policy; confirm before changing.
type GradingConfig struct {
	PassingThreshold float64 `yaml:"passing_threshold"`
	FailingGrade     float64 `yaml:"failing_grade"`
	IncDeadlineDays  int     `yaml:"inc_deadline_days"`
	RetakeLockDays   int     `yaml:"retake_lock_days"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Grading.PassingThreshold == 0 {
		c.Grading.PassingThreshold = 3.00
	}
	if c.Grading.FailingGrade == 0 {
		c.Grading.FailingGrade = 5.00
	}
	if c.Grading.IncDeadlineDays == 0 {
		c.Grading.IncDeadlineDays = 180
	}
	if c.Workers.Sweep.Count == 0 {
		c.Workers.Sweep.Count = 4
	}
	if c.Workers.Sweep.BatchSize == 0 {
		c.Workers.Sweep.BatchSize = 200
	}
	if c.Workers.Sweep.RunAt == "" {
		c.Workers.Sweep.RunAt = "23:30"
	}
}

// MySQL DSN format: [username[:password]@][protocol[(address)]]/dbname[?param1=value1&...&paramN=valueN]
//
// clientFoundRows makes UPDATE report matched rows instead of changed
// rows; the compare-and-set updates read RowsAffected and would otherwise
// mistake a no-op rewrite of identical values for a lost race.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=%s&clientFoundRows=true",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port,
		c.Database.Name, c.Database.Charset, c.Database.ParseTime, c.Database.Loc)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
