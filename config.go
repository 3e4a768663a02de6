package chendai

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ZeroVelocityPolicy decides what a velocity-0 stroke renders as. The
// source material leaves this open, so it is an explicit configuration
// choice rather than a hardcoded behavior.
type ZeroVelocityPolicy string

const (
	// ZeroVelocityFloor renders a minimal audible stroke (about -48 dB) so
	// downstream stages never special-case silence.
	ZeroVelocityFloor ZeroVelocityPolicy = "floor"
	// ZeroVelocitySilence renders an all-zero buffer.
	ZeroVelocitySilence ZeroVelocityPolicy = "silence"
)

// Config is the engine configuration, fixed per Renderer. All fields have
// working defaults; a zero Config is not valid, use DefaultConfig.
type Config struct {
	// ZeroVelocity picks the zero-velocity rendering policy.
	ZeroVelocity ZeroVelocityPolicy `yaml:"zero_velocity"`

	// StrokePeak is the per-stroke normalization target at full velocity.
	// Kept below 1 so a single stroke leaves headroom for overlap-add.
	StrokePeak float32 `yaml:"stroke_peak"`

	// MasterHeadroom is the peak target the exporter normalizes to.
	MasterHeadroom float32 `yaml:"master_headroom"`

	// Workers bounds the number of channels rendered concurrently;
	// 0 means one per CPU.
	Workers int `yaml:"workers"`

	// Tail is the extra render time in seconds appended after the last
	// event when the caller does not fix the total duration, leaving room
	// for decay tails.
	Tail float64 `yaml:"tail"`
}

func DefaultConfig() Config {
	return Config{
		ZeroVelocity:   ZeroVelocityFloor,
		StrokePeak:     0.9,
		MasterHeadroom: 0.98,
		Tail:           2.0,
	}
}

// LoadConfigFile reads a YAML config, filling unset fields from defaults
// and applying CHENDAI_* environment overrides on top.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %v: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %v: %w", path, err)
	}
	cfg = cfg.withEnv()
	return cfg.normalize()
}

// FromEnv returns the default configuration with CHENDAI_* environment
// overrides applied.
func FromEnv() Config {
	cfg, _ := DefaultConfig().withEnv().normalize()
	return cfg
}

func (c Config) withEnv() Config {
	if v := os.Getenv("CHENDAI_ZERO_VELOCITY"); v != "" {
		c.ZeroVelocity = ZeroVelocityPolicy(v)
	}
	c.StrokePeak = envFloat32("CHENDAI_STROKE_PEAK", c.StrokePeak)
	c.MasterHeadroom = envFloat32("CHENDAI_MASTER_HEADROOM", c.MasterHeadroom)
	if v := os.Getenv("CHENDAI_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	return c
}

func (c Config) normalize() (Config, error) {
	switch c.ZeroVelocity {
	case ZeroVelocityFloor, ZeroVelocitySilence:
	case "":
		c.ZeroVelocity = ZeroVelocityFloor
	default:
		return c, fmt.Errorf("unknown zero velocity policy %q", c.ZeroVelocity)
	}
	if c.StrokePeak <= 0 || c.StrokePeak > 1 {
		return c, fmt.Errorf("stroke peak %v outside (0,1]", c.StrokePeak)
	}
	if c.MasterHeadroom <= 0 || c.MasterHeadroom > 1 {
		return c, fmt.Errorf("master headroom %v outside (0,1]", c.MasterHeadroom)
	}
	if c.Workers < 0 {
		c.Workers = 0
	}
	if c.Tail < 0 {
		c.Tail = 0
	}
	return c, nil
}

func envFloat32(key string, fallback float32) float32 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			return float32(f)
		}
	}
	return fallback
}
