package config

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// SettlementConfig tunes the optional machinery around settlement runs.
// None of these settings change award semantics.
type SettlementConfig struct {
	LockEnabled   bool          `mapstructure:"lockEnabled"`
	LockTTL       time.Duration `mapstructure:"lockTTL"`
	PublishEvents bool          `mapstructure:"publishEvents"`
}

func DefaultSettlementConfig() SettlementConfig {
	return SettlementConfig{
		LockEnabled:   true,
		LockTTL:       30 * time.Second,
		PublishEvents: true,
	}
}

type SettlementConfigHolder struct {
	current atomic.Value // holds SettlementConfig
}

// NewStaticSettlementConfigHolder returns a holder that never reloads.
func NewStaticSettlementConfigHolder(cfg SettlementConfig) *SettlementConfigHolder {
	holder := &SettlementConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewSettlementConfigHolder(log *zap.Logger) (*SettlementConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("settlement")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/lotbid")
	v.AddConfigPath(".")

	v.SetEnvPrefix("LOTBID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultSettlementConfig()
	v.SetDefault("settlement.lockEnabled", defaults.LockEnabled)
	v.SetDefault("settlement.lockTTL", defaults.LockTTL)
	v.SetDefault("settlement.publishEvents", defaults.PublishEvents)

	watch := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		watch = false
	}

	var cfg SettlementConfig
	if err := v.UnmarshalKey("settlement", &cfg); err != nil {
		return nil, err
	}
	if err := validateSettlementConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticSettlementConfigHolder(cfg)
	if !watch {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated SettlementConfig
		if err := v.UnmarshalKey("settlement", &updated); err != nil {
			log.Warn("settlement config reload failed", zap.Error(err))
			return
		}
		if err := validateSettlementConfig(updated); err != nil {
			log.Warn("invalid settlement config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("settlement config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *SettlementConfigHolder) Get() SettlementConfig {
	if h == nil {
		return DefaultSettlementConfig()
	}
	cfg, ok := h.current.Load().(SettlementConfig)
	if !ok {
		return DefaultSettlementConfig()
	}
	return cfg
}

func validateSettlementConfig(cfg SettlementConfig) error {
	if cfg.LockEnabled && cfg.LockTTL <= 0 {
		return errors.New("settlement.lockTTL must be positive when locking is enabled")
	}
	return nil
}
