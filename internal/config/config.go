package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"tariff-compare/internal/logging"
	"tariff-compare/internal/tariff"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Retention RetentionConfig `mapstructure:"retention"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// ServerConfig governs the HTTP API surface.
type ServerConfig struct {
	Listen          string        `mapstructure:"listen"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// EngineConfig holds every comparison threshold so tests and deployments
// can override the defaulting policy without a rebuild.
type EngineConfig struct {
	AssumedAvgPriceElectricity float64 `mapstructure:"assumed_avg_price_electricity"`
	AssumedAvgPriceGas         float64 `mapstructure:"assumed_avg_price_gas"`
	DefaultVolumeElectricity   float64 `mapstructure:"default_volume_electricity"`
	DefaultVolumeGas           float64 `mapstructure:"default_volume_gas"`
	DefaultSharePeak           float64 `mapstructure:"default_share_peak"`
	DefaultShareMid            float64 `mapstructure:"default_share_mid"`
	DefaultShareOff            float64 `mapstructure:"default_share_off"`
	DefaultContractedPowerKW   float64 `mapstructure:"default_contracted_power_kw"`
	MinBandVolumeSum           float64 `mapstructure:"min_band_volume_sum"`
	MinPlausibleAnnualCost     float64 `mapstructure:"min_plausible_annual_cost"`

	PriceFloor           float64 `mapstructure:"price_floor"`
	FloorVolumeThreshold float64 `mapstructure:"floor_volume_threshold"`

	TopN      int `mapstructure:"top_n"`
	SurfacedN int `mapstructure:"surfaced_n"`

	ExclusiveRuns bool          `mapstructure:"exclusive_runs"`
	StoreTimeout  time.Duration `mapstructure:"store_timeout"`

	IncludeRegulatoryCharges      bool    `mapstructure:"include_regulatory_charges"`
	SystemChargePerKWhElectricity float64 `mapstructure:"system_charge_per_kwh_electricity"`
	SystemChargePerUnitGas        float64 `mapstructure:"system_charge_per_unit_gas"`
	VATRateElectricity            float64 `mapstructure:"vat_rate_electricity"`
	VATRateGas                    float64 `mapstructure:"vat_rate_gas"`
}

// RetentionConfig governs the calculation-log sweep.
type RetentionConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Sweep   time.Duration `mapstructure:"sweep"`
	MaxAge  time.Duration `mapstructure:"max_age"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxOffers int `mapstructure:"max_offers"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TARIFFCOMPARE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "tariffcompare")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("engine.assumed_avg_price_electricity", 0.30)
	v.SetDefault("engine.assumed_avg_price_gas", 1.10)
	v.SetDefault("engine.default_volume_electricity", 2700.0)
	v.SetDefault("engine.default_volume_gas", 1200.0)
	v.SetDefault("engine.default_share_peak", 0.35)
	v.SetDefault("engine.default_share_mid", 0.35)
	v.SetDefault("engine.default_share_off", 0.30)
	v.SetDefault("engine.default_contracted_power_kw", 3.0)
	v.SetDefault("engine.min_band_volume_sum", 100.0)
	v.SetDefault("engine.min_plausible_annual_cost", 100.0)
	v.SetDefault("engine.price_floor", 0.05)
	v.SetDefault("engine.floor_volume_threshold", 2000.0)
	v.SetDefault("engine.top_n", 5)
	v.SetDefault("engine.surfaced_n", 3)
	v.SetDefault("engine.exclusive_runs", false)
	v.SetDefault("engine.store_timeout", "5s")
	v.SetDefault("engine.include_regulatory_charges", false)
	v.SetDefault("engine.system_charge_per_kwh_electricity", 0.0)
	v.SetDefault("engine.system_charge_per_unit_gas", 0.0)
	v.SetDefault("engine.vat_rate_electricity", 0.10)
	v.SetDefault("engine.vat_rate_gas", 0.22)

	v.SetDefault("retention.enabled", false)
	v.SetDefault("retention.sweep", "24h")
	v.SetDefault("retention.max_age", "2160h")

	v.SetDefault("export.max_offers", 20)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.migrations_path", "migrations")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Engine.TopN <= 0 {
		return fmt.Errorf("engine.top_n must be greater than zero")
	}
	if c.Engine.SurfacedN <= 0 || c.Engine.SurfacedN > c.Engine.TopN {
		return fmt.Errorf("engine.surfaced_n must be in [1, engine.top_n]")
	}
	if c.Engine.AssumedAvgPriceElectricity <= 0 || c.Engine.AssumedAvgPriceGas <= 0 {
		return fmt.Errorf("engine assumed average prices must be positive")
	}
	if c.Engine.DefaultVolumeElectricity <= 0 || c.Engine.DefaultVolumeGas <= 0 {
		return fmt.Errorf("engine default volumes must be positive")
	}
	shareSum := c.Engine.DefaultSharePeak + c.Engine.DefaultShareMid + c.Engine.DefaultShareOff
	if shareSum < 0.999999 || shareSum > 1.000001 {
		return fmt.Errorf("engine default time-of-use shares must sum to 1, got %f", shareSum)
	}
	if c.Engine.PriceFloor < 0 {
		return fmt.Errorf("engine.price_floor cannot be negative")
	}
	if c.Retention.Enabled && c.Retention.Sweep <= 0 {
		return fmt.Errorf("retention.sweep must be greater than zero when enabled")
	}
	if c.Export.MaxOffers <= 0 {
		return fmt.Errorf("export.max_offers must be greater than zero")
	}
	return nil
}

// BuilderConfig converts the engine section into the profile builder's
// defaulting policy.
func (c *Config) BuilderConfig() tariff.BuilderConfig {
	cfg := tariff.DefaultBuilderConfig()
	cfg.AssumedAvgPriceElectricity = decimal.NewFromFloat(c.Engine.AssumedAvgPriceElectricity)
	cfg.AssumedAvgPriceGas = decimal.NewFromFloat(c.Engine.AssumedAvgPriceGas)
	cfg.DefaultVolumeElectricity = decimal.NewFromFloat(c.Engine.DefaultVolumeElectricity)
	cfg.DefaultVolumeGas = decimal.NewFromFloat(c.Engine.DefaultVolumeGas)
	cfg.DefaultShares = tariff.TimeOfUseShares{
		Peak: decimal.NewFromFloat(c.Engine.DefaultSharePeak),
		Mid:  decimal.NewFromFloat(c.Engine.DefaultShareMid),
		Off:  decimal.NewFromFloat(c.Engine.DefaultShareOff),
	}
	cfg.DefaultContractedPowerKW = decimal.NewFromFloat(c.Engine.DefaultContractedPowerKW)
	cfg.MinBandVolumeSum = decimal.NewFromFloat(c.Engine.MinBandVolumeSum)
	cfg.MinPlausibleAnnualCost = decimal.NewFromFloat(c.Engine.MinPlausibleAnnualCost)
	return cfg
}

// FilterConfig converts the engine section into plausibility thresholds.
func (c *Config) FilterConfig() tariff.FilterConfig {
	return tariff.FilterConfig{
		PriceFloor:           decimal.NewFromFloat(c.Engine.PriceFloor),
		FloorVolumeThreshold: decimal.NewFromFloat(c.Engine.FloorVolumeThreshold),
	}
}

// RegulatoryCharges converts the engine section into the surcharge model.
func (c *Config) RegulatoryCharges() tariff.RegulatoryCharges {
	return tariff.RegulatoryCharges{
		SystemChargePerKWhElectricity: decimal.NewFromFloat(c.Engine.SystemChargePerKWhElectricity),
		SystemChargePerUnitGas:        decimal.NewFromFloat(c.Engine.SystemChargePerUnitGas),
		VATRateElectricity:            decimal.NewFromFloat(c.Engine.VATRateElectricity),
		VATRateGas:                    decimal.NewFromFloat(c.Engine.VATRateGas),
	}
}
