// Package config loads the TickRunner.json and Logging.json files.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Supported sender types.
const (
	SenderFile  = "file"
	SenderKafka = "kafka"
)

// Config is the root configuration structure (TickRunner.json).
type Config struct {
	Service    string      `json:"Service"` // service started when --service is not given
	SenderType string      `json:"SenderType"`
	Hostname   string      `json:"Hostname"`
	File       FileConfig  `json:"File"`
	Kafka      KafkaConfig `json:"Kafka"`
	Redis      RedisConfig `json:"Redis"`
	SOCKSProxy SOCKSConfig `json:"SocksProxy"`
}

// FileConfig contains settings for the file sender.
type FileConfig struct {
	FilePath   string `json:"FilePath"`
	MaxSizeMB  int    `json:"MaxSizeMB"`
	MaxBackups int    `json:"MaxBackups"`
	Pretty     bool   `json:"Pretty"`
}

// KafkaConfig contains Kafka producer settings.
type KafkaConfig struct {
	Brokers        []string      `json:"Brokers"`
	Topic          string        `json:"Topic"`
	Compression    string        `json:"Compression"`
	RequiredAcks   int           `json:"RequiredAcks"`
	MaxRetries     int           `json:"MaxRetries"`
	RetryBackoff   time.Duration `json:"RetryBackoff"`
	FlushFrequency time.Duration `json:"FlushFrequency"`
	FlushMessages  int           `json:"FlushMessages"`
	Timeout        time.Duration `json:"Timeout"`
	EnableTLS      bool          `json:"EnableTLS"`
	TLSCertFile    string        `json:"TLSCertFile"`
	TLSKeyFile     string        `json:"TLSKeyFile"`
	TLSCAFile      string        `json:"TLSCAFile"`
	SASLEnabled    bool          `json:"SASLEnabled"`
	SASLMechanism  string        `json:"SASLMechanism"`
	SASLUser       string        `json:"SASLUser"`
	SASLPassword   string        `json:"SASLPassword"`
}

// RedisConfig contains Redis connection settings for the heartbeat service.
type RedisConfig struct {
	Address  string `json:"Address"`
	Password string `json:"Password"`
	DB       int    `json:"DB"`
}

// SOCKSConfig contains SOCKS5 proxy settings. An empty Host disables the proxy.
type SOCKSConfig struct {
	Host string `json:"Host"`
	Port int    `json:"Port"`
}

// Enabled reports whether a proxy is configured.
func (s SOCKSConfig) Enabled() bool {
	return s.Host != "" && s.Port > 0
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Service:    "countdown",
		SenderType: SenderFile,
		File: FileConfig{
			FilePath:   "log/TickRunner/samples.jsonl",
			MaxSizeMB:  50,
			MaxBackups: 3,
		},
		Kafka: KafkaConfig{
			Brokers:        []string{"localhost:9092"},
			Topic:          "tickrunner-samples",
			Compression:    "snappy",
			RequiredAcks:   1,
			MaxRetries:     3,
			RetryBackoff:   100 * time.Millisecond,
			FlushFrequency: 500 * time.Millisecond,
			FlushMessages:  100,
			Timeout:        10 * time.Second,
		},
		Redis: RedisConfig{
			Address: "localhost:6379",
		},
	}
}

// Merge applies non-zero values from other to this config.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Service != "" {
		c.Service = other.Service
	}
	if other.SenderType != "" {
		c.SenderType = strings.ToLower(other.SenderType)
	}
	if other.Hostname != "" {
		c.Hostname = other.Hostname
	}

	if other.File.FilePath != "" {
		c.File.FilePath = other.File.FilePath
	}
	if other.File.MaxSizeMB != 0 {
		c.File.MaxSizeMB = other.File.MaxSizeMB
	}
	if other.File.MaxBackups != 0 {
		c.File.MaxBackups = other.File.MaxBackups
	}
	c.File.Pretty = other.File.Pretty

	k, o := &c.Kafka, other.Kafka
	if len(o.Brokers) > 0 {
		k.Brokers = o.Brokers
	}
	if o.Topic != "" {
		k.Topic = o.Topic
	}
	if o.Compression != "" {
		k.Compression = o.Compression
	}
	if o.RequiredAcks != 0 {
		k.RequiredAcks = o.RequiredAcks
	}
	if o.MaxRetries != 0 {
		k.MaxRetries = o.MaxRetries
	}
	if o.RetryBackoff != 0 {
		k.RetryBackoff = o.RetryBackoff
	}
	if o.FlushFrequency != 0 {
		k.FlushFrequency = o.FlushFrequency
	}
	if o.FlushMessages != 0 {
		k.FlushMessages = o.FlushMessages
	}
	if o.Timeout != 0 {
		k.Timeout = o.Timeout
	}
	k.EnableTLS = o.EnableTLS
	if o.TLSCertFile != "" {
		k.TLSCertFile = o.TLSCertFile
	}
	if o.TLSKeyFile != "" {
		k.TLSKeyFile = o.TLSKeyFile
	}
	if o.TLSCAFile != "" {
		k.TLSCAFile = o.TLSCAFile
	}
	k.SASLEnabled = o.SASLEnabled
	if o.SASLMechanism != "" {
		k.SASLMechanism = o.SASLMechanism
	}
	if o.SASLUser != "" {
		k.SASLUser = o.SASLUser
	}
	if o.SASLPassword != "" {
		k.SASLPassword = o.SASLPassword
	}

	if other.Redis.Address != "" {
		c.Redis.Address = other.Redis.Address
	}
	if other.Redis.Password != "" {
		c.Redis.Password = other.Redis.Password
	}
	if other.Redis.DB != 0 {
		c.Redis.DB = other.Redis.DB
	}

	if other.SOCKSProxy.Host != "" {
		c.SOCKSProxy.Host = other.SOCKSProxy.Host
	}
	if other.SOCKSProxy.Port != 0 {
		c.SOCKSProxy.Port = other.SOCKSProxy.Port
	}
}

// Validate checks fields that have a closed set of values.
func (c *Config) Validate() error {
	switch c.SenderType {
	case SenderFile, SenderKafka:
	default:
		return fmt.Errorf("unknown sender type %q (supported: file, kafka)", c.SenderType)
	}
	if c.SenderType == SenderKafka && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("sender type kafka requires at least one broker")
	}
	if c.SOCKSProxy.Host != "" && c.SOCKSProxy.Port <= 0 {
		return fmt.Errorf("SocksProxy.Host set without a valid Port")
	}
	return nil
}

// GetHostname returns the configured hostname or the system hostname.
func GetHostname(cfg *Config) string {
	if cfg.Hostname != "" {
		return cfg.Hostname
	}
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}
