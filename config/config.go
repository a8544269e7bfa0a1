package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. RPGCRAFT_SERVER_PORT.
const EnvPrefix = "RPGCRAFT"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Crafting CraftingConfig `mapstructure:"crafting"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Security SecurityConfig `mapstructure:"security"`
	Script   ScriptConfig   `mapstructure:"script"`
	Audit    AuditConfig    `mapstructure:"audit"`
}

type ServerConfig struct {
	Port  int  `mapstructure:"port"`
	Debug bool `mapstructure:"debug"`
	// AdminKeyHash is a bcrypt hash of the X-Admin-Key header value.
	AdminKeyHash string `mapstructure:"admin_key_hash"`
	// AdminIPs restricts /api/admin to these client IPs; empty allows all.
	AdminIPs []string `mapstructure:"admin_ips"`
}

type CraftingConfig struct {
	DataPath        string `mapstructure:"data_path"`
	MaterialsFile   string `mapstructure:"materials_file"`
	BannedNamesFile string `mapstructure:"banned_names_file"`
	ArmorFile       string `mapstructure:"armor_file"`
	WeaponFile      string `mapstructure:"weapon_file"`
	ShieldFile      string `mapstructure:"shield_file"`
	SiegeFile       string `mapstructure:"siege_file"`
	EagerLoad       bool   `mapstructure:"eager_load"`
	// DamageFormula is a JS expression over `head`; empty keeps the built-in modifier.
	DamageFormula string `mapstructure:"damage_formula"`
	// RNGSeed seeds jewelry rolls; 0 seeds from the clock.
	RNGSeed     uint64 `mapstructure:"rng_seed"`
	RecentLimit int    `mapstructure:"recent_limit"`
	// DisabledFamilies rejects crafts of these families (armor, weapon,
	// bow, shield, siege, jewelry) with 403.
	DisabledFamilies []string `mapstructure:"disabled_families"`
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // sqlite | mysql
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
}

type SecurityConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	JWTTTLH        time.Duration `mapstructure:"jwt_ttl_h"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
}

type ScriptConfig struct {
	VMPoolSize int           `mapstructure:"vm_pool_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type AuditConfig struct {
	Retention     time.Duration `mapstructure:"retention"`
	PruneInterval time.Duration `mapstructure:"prune_interval"`
}

// Load reads config from the given YAML file path. A .env file in the
// working directory, if present, is applied to the environment first;
// RPGCRAFT_* variables override file values.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.admin_key_hash", "")
	v.SetDefault("server.admin_ips", []string{})
	v.SetDefault("crafting.data_path", "./data")
	v.SetDefault("crafting.materials_file", "materials.json")
	v.SetDefault("crafting.banned_names_file", "banned_names.txt")
	v.SetDefault("crafting.armor_file", "ArmorVolumes.json")
	v.SetDefault("crafting.weapon_file", "WeaponVolumes.json")
	v.SetDefault("crafting.shield_file", "ShieldVolumes.json")
	v.SetDefault("crafting.siege_file", "SiegeVolumes.json")
	v.SetDefault("crafting.eager_load", false)
	v.SetDefault("crafting.damage_formula", "")
	v.SetDefault("crafting.rng_seed", 0)
	v.SetDefault("crafting.recent_limit", 20)
	v.SetDefault("crafting.disabled_families", []string{})
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./craft.db")
	v.SetDefault("database.mysql_dsn", "")
	v.SetDefault("database.mysql_max_open", 50)
	v.SetDefault("database.mysql_max_idle", 10)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("security.jwt_secret", "")
	v.SetDefault("security.jwt_ttl_h", "72h")
	v.SetDefault("security.rate_limit_rps", 100)
	v.SetDefault("security.rate_limit_burst", 200)
	v.SetDefault("script.vm_pool_size", 4)
	v.SetDefault("script.timeout", "200ms")
	v.SetDefault("audit.retention", "720h")
	v.SetDefault("audit.prune_interval", "1h")
}
