// internal/config/config.go
package config

import (
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Balance  BalanceConfig
	Export   ExportConfig
	Snapshot SnapshotConfig
	Storage  StorageConfig
	Drive    DriveConfig
	Cache    CacheConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type LogConfig struct {
	Level string
}

// BalanceConfig describes the snapshot layout and the analysis defaults.
type BalanceConfig struct {
	File              string
	Encoding          string
	CodeColumn        string
	KeyColumn         string
	DescriptionColumn string
	ClassSuffix       string
	NoMovementMarker  string
	Policy            string
	Threshold         int
	ThresholdMin      int
	ThresholdMax      int
	ViewLimit         int
	DefaultOrigin     string
}

type ExportConfig struct {
	Encoding string
	Dir      string
	Prefix   string
}

// SnapshotConfig selects where the balance file comes from: "local", "s3" or "drive".
type SnapshotConfig struct {
	Source      string
	DownloadDir string
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	ObjectKey string
}

type DriveConfig struct {
	CredentialsFile string
	CredentialsJSON string
	FolderID        string
	FolderPath      string
	FileName        string
}

type CacheConfig struct {
	Enabled       bool
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	TTLSeconds    int
	// KeyPrefix namespaces report keys so several deployments can share a redis.
	KeyPrefix string
	// WarmWorkers > 0 precomputes every origin's reports after a reload.
	WarmWorkers int
}

var (
	once     sync.Once
	instance *Config
)

// Load reads .env and the environment once and returns the shared config.
func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		v := viper.GetViper()
		SetDefaults(v)
		v.AutomaticEnv()

		instance = FromViper(v)
	})

	return instance
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 60)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("BALANCE_FILE", "Balance.csv")
	v.SetDefault("BALANCE_ENCODING", "latin-1")
	v.SetDefault("BALANCE_CODE_COLUMN", "Codigo")
	v.SetDefault("BALANCE_KEY_COLUMN", "Clave")
	v.SetDefault("BALANCE_DESCRIPTION_COLUMN", "Descripcion")
	v.SetDefault("BALANCE_CLASS_SUFFIX", ".1")
	v.SetDefault("BALANCE_NO_MOVEMENT_MARKER", "sin")
	v.SetDefault("BALANCE_POLICY", "uncapped")
	v.SetDefault("BALANCE_THRESHOLD", 10)
	v.SetDefault("BALANCE_THRESHOLD_MIN", 1)
	v.SetDefault("BALANCE_THRESHOLD_MAX", 100)
	v.SetDefault("BALANCE_VIEW_LIMIT", 500)
	v.SetDefault("BALANCE_DEFAULT_ORIGIN", "Matriz")

	v.SetDefault("EXPORT_ENCODING", "utf-8-sig")
	v.SetDefault("EXPORT_DIR", "./data/exports")
	v.SetDefault("EXPORT_PREFIX", "exports/")

	v.SetDefault("SNAPSHOT_SOURCE", "local")
	v.SetDefault("SNAPSHOT_DOWNLOAD_DIR", "./data/snapshots")

	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_ACCESS_KEY", "")
	v.SetDefault("S3_SECRET_KEY", "")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_USE_SSL", true)
	v.SetDefault("S3_OBJECT_KEY", "Balance.csv")

	v.SetDefault("DRIVE_CREDENTIALS_FILE", "")
	v.SetDefault("DRIVE_CREDENTIALS_JSON", "")
	v.SetDefault("DRIVE_FOLDER_ID", "")
	v.SetDefault("DRIVE_FOLDER_PATH", "")
	v.SetDefault("DRIVE_FILE_NAME", "Balance.csv")

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL_SECONDS", 300)
	v.SetDefault("CACHE_KEY_PREFIX", "balance:report")
	v.SetDefault("CACHE_WARM_WORKERS", 0)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Balance: BalanceConfig{
			File:              v.GetString("BALANCE_FILE"),
			Encoding:          v.GetString("BALANCE_ENCODING"),
			CodeColumn:        v.GetString("BALANCE_CODE_COLUMN"),
			KeyColumn:         v.GetString("BALANCE_KEY_COLUMN"),
			DescriptionColumn: v.GetString("BALANCE_DESCRIPTION_COLUMN"),
			ClassSuffix:       v.GetString("BALANCE_CLASS_SUFFIX"),
			NoMovementMarker:  v.GetString("BALANCE_NO_MOVEMENT_MARKER"),
			Policy:            strings.ToLower(v.GetString("BALANCE_POLICY")),
			Threshold:         v.GetInt("BALANCE_THRESHOLD"),
			ThresholdMin:      v.GetInt("BALANCE_THRESHOLD_MIN"),
			ThresholdMax:      v.GetInt("BALANCE_THRESHOLD_MAX"),
			ViewLimit:         v.GetInt("BALANCE_VIEW_LIMIT"),
			DefaultOrigin:     v.GetString("BALANCE_DEFAULT_ORIGIN"),
		},
		Export: ExportConfig{
			Encoding: v.GetString("EXPORT_ENCODING"),
			Dir:      v.GetString("EXPORT_DIR"),
			Prefix:   v.GetString("EXPORT_PREFIX"),
		},
		Snapshot: SnapshotConfig{
			Source:      strings.ToLower(v.GetString("SNAPSHOT_SOURCE")),
			DownloadDir: v.GetString("SNAPSHOT_DOWNLOAD_DIR"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("S3_ENDPOINT"),
			AccessKey: v.GetString("S3_ACCESS_KEY"),
			SecretKey: v.GetString("S3_SECRET_KEY"),
			Bucket:    v.GetString("S3_BUCKET"),
			Region:    v.GetString("S3_REGION"),
			UseSSL:    v.GetBool("S3_USE_SSL"),
			ObjectKey: v.GetString("S3_OBJECT_KEY"),
		},
		Drive: DriveConfig{
			CredentialsFile: v.GetString("DRIVE_CREDENTIALS_FILE"),
			CredentialsJSON: v.GetString("DRIVE_CREDENTIALS_JSON"),
			FolderID:        v.GetString("DRIVE_FOLDER_ID"),
			FolderPath:      v.GetString("DRIVE_FOLDER_PATH"),
			FileName:        v.GetString("DRIVE_FILE_NAME"),
		},
		Cache: CacheConfig{
			Enabled:       v.GetBool("CACHE_ENABLED"),
			RedisURL:      v.GetString("REDIS_URL"),
			RedisHost:     v.GetString("REDIS_HOST"),
			RedisPort:     v.GetString("REDIS_PORT"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			TTLSeconds:    v.GetInt("CACHE_TTL_SECONDS"),
			KeyPrefix:     v.GetString("CACHE_KEY_PREFIX"),
			WarmWorkers:   v.GetInt("CACHE_WARM_WORKERS"),
		},
	}

	if cfg.Balance.ThresholdMin <= 0 {
		cfg.Balance.ThresholdMin = 1
	}
	if cfg.Balance.ThresholdMax < cfg.Balance.ThresholdMin {
		cfg.Balance.ThresholdMax = cfg.Balance.ThresholdMin
	}

	return cfg
}
