package config

import (
	"errors"
	"fmt"
	"inspection-route-service/internal/adapters/routing"
	"inspection-route-service/internal/domain"
	"inspection-route-service/internal/platform/db"
	"inspection-route-service/internal/services"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "INSPECTOR"

// Cache backends for the persistent travel-estimate tier.
const (
	CacheMemory   = "memory"
	CachePostgres = "postgres"
	CacheRedis    = "redis"
)

// Routing providers.
const (
	ProviderOSRM = "osrm"
	ProviderORS  = "ors"
)

// Catalog sources.
const (
	CatalogPostgres = "postgres"
	CatalogFile     = "file"
)

type Config struct {
	Server   ServerConfig            `mapstructure:"server"`
	Database DatabaseConfig          `mapstructure:"database"`
	Log      LogConfig               `mapstructure:"log"`
	Routing  RoutingConfig           `mapstructure:"routing"`
	Cache    CacheConfig             `mapstructure:"cache"`
	Catalog  CatalogConfig           `mapstructure:"catalog"`
	Planning PlanningConfig          `mapstructure:"planning"`
	Monitor  MonitorConfig           `mapstructure:"monitor"`
	Fix      FixConfig               `mapstructure:"fix"`
	Centers  map[string]CenterConfig `mapstructure:"region_centers"`
}

type ServerConfig struct {
	Port              string        `mapstructure:"port"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RoutingConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Provider         string        `mapstructure:"provider"`
	BaseURL          string        `mapstructure:"base_url"`
	Profile          string        `mapstructure:"profile"`
	ORSBaseURL       string        `mapstructure:"ors_base_url"`
	ORSProfile       string        `mapstructure:"ors_profile"`
	APIKey           string        `mapstructure:"api_key"`
	Timeout          time.Duration `mapstructure:"timeout"`
	RatePerSecond    float64       `mapstructure:"rate_per_second"`
	Burst            int           `mapstructure:"burst"`
	MaxAttempts      int           `mapstructure:"max_attempts"`
	Backoff          time.Duration `mapstructure:"backoff"`
	RateLimitBackoff time.Duration `mapstructure:"rate_limit_backoff"`
}

type CacheConfig struct {
	Backend           string        `mapstructure:"backend"`
	RedisAddr         string        `mapstructure:"redis_addr"`
	RedisPassword     string        `mapstructure:"redis_password"`
	RedisDB           int           `mapstructure:"redis_db"`
	TTL               time.Duration `mapstructure:"ttl"`
	GridDecimals      int           `mapstructure:"grid_decimals"`
	PrecomputeWorkers int           `mapstructure:"precompute_workers"`
	FallbackTTL       time.Duration `mapstructure:"fallback_ttl"`
}

type CatalogConfig struct {
	Source   string `mapstructure:"source"`
	SeedPath string `mapstructure:"seed_path"`
}

type PlanningConfig struct {
	HomeLat               float64 `mapstructure:"home_lat"`
	HomeLon               float64 `mapstructure:"home_lon"`
	DayStart              string  `mapstructure:"day_start"`
	DayEnd                string  `mapstructure:"day_end"`
	LunchStart            string  `mapstructure:"lunch_start"`
	LunchEnd              string  `mapstructure:"lunch_end"`
	LunchMinutes          float64 `mapstructure:"lunch_minutes"`
	InspectionMinutes     float64 `mapstructure:"inspection_minutes"`
	SafetyBufferMinutes   float64 `mapstructure:"safety_buffer_minutes"`
	SpeedKmh              float64 `mapstructure:"speed_kmh"`
	RoadFactor            float64 `mapstructure:"road_factor"`
	SameClusterDistanceKm float64 `mapstructure:"same_cluster_distance_km"`
	SameClusterMinutes    float64 `mapstructure:"same_cluster_minutes"`
	UnlocatableDistanceKm float64 `mapstructure:"unlocatable_distance_km"`
	MaxDays               int     `mapstructure:"max_days"`
	GroupByDistrict       bool    `mapstructure:"group_by_district"`
	WorthMinStations      int     `mapstructure:"worth_min_stations"`
	WorthMinScore         int     `mapstructure:"worth_min_score"`
}

type MonitorConfig struct {
	MaxDailyDistanceKm     float64 `mapstructure:"max_daily_distance_km"`
	MaxDailyTimeMinutes    float64 `mapstructure:"max_daily_time_minutes"`
	OptimalDailyDistanceKm float64 `mapstructure:"optimal_daily_distance_km"`
	OptimalDailyMinutes    float64 `mapstructure:"optimal_daily_minutes"`
	MaxStationsPerDay      int     `mapstructure:"max_stations_per_day"`
	MaxShortTripDistanceKm float64 `mapstructure:"max_short_trip_distance_km"`
	ShortTripDays          int     `mapstructure:"short_trip_days"`
}

type FixConfig struct {
	HighTotalDistanceKm  float64 `mapstructure:"high_total_distance_km"`
	MinReducedStations   int     `mapstructure:"min_reduced_stations"`
	StationsPerDay       int     `mapstructure:"stations_per_day"`
	OptimizeRouteAboveKm float64 `mapstructure:"optimize_route_above_km"`
}

type CenterConfig struct {
	Lat float64 `mapstructure:"lat"`
	Lon float64 `mapstructure:"lon"`
}

// Load reads defaults, an optional config file and INSPECTOR_* environment
// variables, in increasing precedence. path may be empty, in which case
// ./config.yaml is used when present.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("load config: decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_header_timeout", 5*time.Second)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	pool := db.DefaultPoolOptions()
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", pool.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", pool.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", pool.ConnMaxLifetime)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	osrm := routing.DefaultOSRMOptions()
	ors := routing.DefaultORSOptions()
	v.SetDefault("routing.enabled", true)
	v.SetDefault("routing.provider", ProviderOSRM)
	v.SetDefault("routing.base_url", osrm.BaseURL)
	v.SetDefault("routing.profile", osrm.Profile)
	v.SetDefault("routing.ors_base_url", ors.BaseURL)
	v.SetDefault("routing.ors_profile", ors.Profile)
	v.SetDefault("routing.api_key", "")
	v.SetDefault("routing.timeout", osrm.Timeout)
	v.SetDefault("routing.rate_per_second", osrm.RatePerSecond)
	v.SetDefault("routing.burst", osrm.Burst)
	v.SetDefault("routing.max_attempts", osrm.MaxAttempts)
	v.SetDefault("routing.backoff", osrm.Backoff)
	v.SetDefault("routing.rate_limit_backoff", osrm.RateLimitBackoff)

	travel := services.DefaultTravelProviderOptions()
	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl", 30*24*time.Hour)
	v.SetDefault("cache.grid_decimals", travel.GridDecimals)
	v.SetDefault("cache.precompute_workers", travel.PrecomputeWorkers)
	v.SetDefault("cache.fallback_ttl", travel.FallbackTTL)

	v.SetDefault("catalog.source", CatalogPostgres)
	v.SetDefault("catalog.seed_path", "data/seeds/stations.json")

	rules := services.DefaultDayRules()
	v.SetDefault("planning.home_lat", 14.78524443450366)
	v.SetDefault("planning.home_lon", 102.04253370526135)
	v.SetDefault("planning.day_start", rules.DayStart.String())
	v.SetDefault("planning.day_end", rules.DayEnd.String())
	v.SetDefault("planning.lunch_start", rules.LunchStart.String())
	v.SetDefault("planning.lunch_end", rules.LunchEnd.String())
	v.SetDefault("planning.lunch_minutes", rules.LunchMinutes)
	v.SetDefault("planning.inspection_minutes", rules.InspectionMinutes)
	v.SetDefault("planning.safety_buffer_minutes", rules.SafetyBufferMinutes)
	v.SetDefault("planning.speed_kmh", travel.SpeedKmh)
	v.SetDefault("planning.road_factor", travel.RoadFactor)
	v.SetDefault("planning.same_cluster_distance_km", travel.SameClusterDistanceKm)
	v.SetDefault("planning.same_cluster_minutes", travel.SameClusterMinutes)
	v.SetDefault("planning.unlocatable_distance_km", travel.UnlocatableDistanceKm)
	v.SetDefault("planning.max_days", 7)
	v.SetDefault("planning.group_by_district", true)

	worth := services.NewDistrictWorthAnalyzer()
	v.SetDefault("planning.worth_min_stations", worth.MinStations)
	v.SetDefault("planning.worth_min_score", worth.MinScore)

	mt := services.DefaultMonitorThresholds()
	v.SetDefault("monitor.max_daily_distance_km", mt.MaxDailyDistanceKm)
	v.SetDefault("monitor.max_daily_time_minutes", mt.MaxDailyTimeMinutes)
	v.SetDefault("monitor.optimal_daily_distance_km", mt.OptimalDailyDistanceKm)
	v.SetDefault("monitor.optimal_daily_minutes", mt.OptimalDailyMinutes)
	v.SetDefault("monitor.max_stations_per_day", mt.MaxStationsPerDay)
	v.SetDefault("monitor.max_short_trip_distance_km", mt.MaxShortTripDistanceKm)
	v.SetDefault("monitor.short_trip_days", mt.ShortTripDays)

	fp := services.DefaultFixPolicy()
	v.SetDefault("fix.high_total_distance_km", fp.HighTotalDistanceKm)
	v.SetDefault("fix.min_reduced_stations", fp.MinReducedStations)
	v.SetDefault("fix.stations_per_day", fp.StationsPerDay)
	v.SetDefault("fix.optimize_route_above_km", fp.OptimizeRouteAboveKm)

	v.SetDefault("region_centers", map[string]any{
		"ชัยภูมิ":    map[string]any{"lat": 15.8068, "lon": 102.0348},
		"นครราชสีมา": map[string]any{"lat": 14.9799, "lon": 102.0977},
	})
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if strings.TrimSpace(c.Server.Port) == "" {
		add("server.port is required")
	}

	switch c.Cache.Backend {
	case CacheMemory:
	case CachePostgres:
		if c.Database.URL == "" {
			add("database.url is required for cache backend %q", CachePostgres)
		}
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			add("cache.redis_addr is required for cache backend %q", CacheRedis)
		}
	default:
		add("cache.backend must be one of memory, postgres, redis; got %q", c.Cache.Backend)
	}
	if c.Cache.GridDecimals < 0 || c.Cache.GridDecimals > 8 {
		add("cache.grid_decimals must be within 0..8, got %d", c.Cache.GridDecimals)
	}
	if c.Cache.FallbackTTL < 0 {
		add("cache.fallback_ttl must not be negative, got %s", c.Cache.FallbackTTL)
	}

	switch c.Catalog.Source {
	case CatalogPostgres:
		if c.Database.URL == "" {
			add("database.url is required for catalog source %q", CatalogPostgres)
		}
	case CatalogFile:
		if c.Catalog.SeedPath == "" {
			add("catalog.seed_path is required for catalog source %q", CatalogFile)
		}
	default:
		add("catalog.source must be postgres or file; got %q", c.Catalog.Source)
	}

	if c.Routing.Enabled {
		switch c.Routing.Provider {
		case ProviderOSRM:
			if strings.TrimSpace(c.Routing.BaseURL) == "" {
				add("routing.base_url is required for provider %q", ProviderOSRM)
			}
		case ProviderORS:
			if strings.TrimSpace(c.Routing.APIKey) == "" {
				add("routing.api_key is required for provider %q", ProviderORS)
			}
		default:
			add("routing.provider must be osrm or ors; got %q", c.Routing.Provider)
		}
	}

	if !c.Home().Valid() {
		add("planning home coordinates are invalid: %s", c.Home())
	}
	if _, err := c.DayRules(); err != nil {
		errs = append(errs, err)
	}
	if c.Planning.SpeedKmh <= 0 {
		add("planning.speed_kmh must be positive")
	}
	if c.Planning.RoadFactor < 1 {
		add("planning.road_factor must be at least 1")
	}
	if c.Planning.MaxDays < 1 {
		add("planning.max_days must be positive")
	}

	if c.Monitor.MaxDailyDistanceKm <= 0 || c.Monitor.MaxDailyTimeMinutes <= 0 {
		add("monitor daily limits must be positive")
	}
	if c.Fix.StationsPerDay < 1 {
		add("fix.stations_per_day must be positive")
	}

	for name, center := range c.Centers {
		if !(domain.Coordinates{Lat: center.Lat, Lon: center.Lon}).Valid() {
			add("region_centers.%s has invalid coordinates", name)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) Home() domain.Coordinates {
	return domain.Coordinates{Lat: c.Planning.HomeLat, Lon: c.Planning.HomeLon}
}

// DayRules parses the configured clock times.
func (c *Config) DayRules() (services.DayRules, error) {
	var errs []error
	parse := func(key, value string) domain.TimeOfDay {
		t, err := domain.ParseTimeOfDay(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("planning.%s: %w", key, err))
		}
		return t
	}

	rules := services.DayRules{
		DayStart:            parse("day_start", c.Planning.DayStart),
		DayEnd:              parse("day_end", c.Planning.DayEnd),
		LunchStart:          parse("lunch_start", c.Planning.LunchStart),
		LunchEnd:            parse("lunch_end", c.Planning.LunchEnd),
		LunchMinutes:        c.Planning.LunchMinutes,
		InspectionMinutes:   c.Planning.InspectionMinutes,
		SafetyBufferMinutes: c.Planning.SafetyBufferMinutes,
	}
	if len(errs) == 0 {
		if rules.DayEnd <= rules.DayStart {
			errs = append(errs, fmt.Errorf("planning.day_end %s must be after day_start %s", rules.DayEnd, rules.DayStart))
		}
		if rules.LunchEnd < rules.LunchStart {
			errs = append(errs, fmt.Errorf("planning.lunch_end %s must not precede lunch_start %s", rules.LunchEnd, rules.LunchStart))
		}
	}
	if len(errs) > 0 {
		return services.DayRules{}, errors.Join(errs...)
	}
	return rules, nil
}

func (c *Config) TravelOptions() services.TravelProviderOptions {
	opts := services.DefaultTravelProviderOptions()
	opts.SpeedKmh = c.Planning.SpeedKmh
	opts.RoadFactor = c.Planning.RoadFactor
	opts.GridDecimals = c.Cache.GridDecimals
	opts.SameClusterDistanceKm = c.Planning.SameClusterDistanceKm
	opts.SameClusterMinutes = c.Planning.SameClusterMinutes
	opts.UnlocatableDistanceKm = c.Planning.UnlocatableDistanceKm
	opts.SourceTimeout = c.Routing.Timeout
	opts.PrecomputeWorkers = c.Cache.PrecomputeWorkers
	opts.FallbackTTL = c.Cache.FallbackTTL
	return opts
}

func (c *Config) OSRMOptions() routing.OSRMOptions {
	return routing.OSRMOptions{
		BaseURL:          c.Routing.BaseURL,
		Profile:          c.Routing.Profile,
		Timeout:          c.Routing.Timeout,
		RatePerSecond:    c.Routing.RatePerSecond,
		Burst:            c.Routing.Burst,
		MaxAttempts:      c.Routing.MaxAttempts,
		Backoff:          c.Routing.Backoff,
		RateLimitBackoff: c.Routing.RateLimitBackoff,
	}
}

func (c *Config) ORSOptions() routing.ORSOptions {
	return routing.ORSOptions{
		BaseURL:          c.Routing.ORSBaseURL,
		Profile:          c.Routing.ORSProfile,
		APIKey:           c.Routing.APIKey,
		Timeout:          c.Routing.Timeout,
		RatePerSecond:    c.Routing.RatePerSecond,
		Burst:            c.Routing.Burst,
		MaxAttempts:      c.Routing.MaxAttempts,
		Backoff:          c.Routing.Backoff,
		RateLimitBackoff: c.Routing.RateLimitBackoff,
	}
}

func (c *Config) PoolOptions() db.PoolOptions {
	opts := db.DefaultPoolOptions()
	opts.MaxOpenConns = c.Database.MaxOpenConns
	opts.MaxIdleConns = c.Database.MaxIdleConns
	opts.ConnMaxLifetime = c.Database.ConnMaxLifetime
	return opts
}

func (c *Config) MonitorThresholds() services.MonitorThresholds {
	return services.MonitorThresholds{
		MaxDailyDistanceKm:     c.Monitor.MaxDailyDistanceKm,
		MaxDailyTimeMinutes:    c.Monitor.MaxDailyTimeMinutes,
		OptimalDailyDistanceKm: c.Monitor.OptimalDailyDistanceKm,
		OptimalDailyMinutes:    c.Monitor.OptimalDailyMinutes,
		MaxStationsPerDay:      c.Monitor.MaxStationsPerDay,
		MaxShortTripDistanceKm: c.Monitor.MaxShortTripDistanceKm,
		ShortTripDays:          c.Monitor.ShortTripDays,
	}
}

func (c *Config) FixPolicy() services.FixPolicy {
	return services.FixPolicy{
		HighTotalDistanceKm:  c.Fix.HighTotalDistanceKm,
		MinReducedStations:   c.Fix.MinReducedStations,
		StationsPerDay:       c.Fix.StationsPerDay,
		OptimizeRouteAboveKm: c.Fix.OptimizeRouteAboveKm,
	}
}

// RegionCenters returns the configured fallback positions by label.
func (c *Config) RegionCenters() map[string]domain.Coordinates {
	out := make(map[string]domain.Coordinates, len(c.Centers))
	for name, center := range c.Centers {
		out[name] = domain.Coordinates{Lat: center.Lat, Lon: center.Lon}
	}
	return out
}
