package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/blogkeeper/internal/flagx"
	"github.com/dmitrijs2005/blogkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields distinguish "absent" from "zero", so a partial file only overrides
// what it names.
type JsonConfig struct {
	DatabaseDSN                    *string         `json:"database_dsn"`
	MigrateRecordStore             *bool           `json:"migrate_record_store"`
	LocalDBPath                    *string         `json:"local_db_path"`
	SessionBackend                 *string         `json:"session_backend"`
	RedisURL                       *string         `json:"redis_url"`
	SessionTTL                     *timex.Duration `json:"session_ttl"`
	Hasher                         *string         `json:"hasher"`
	HashPepper                     *string         `json:"hash_pepper"`
	DevicePlatform                 *string         `json:"device_platform"`
	RevokeSessionsOnPasswordChange *bool           `json:"revoke_sessions_on_password_change"`
	SummarizerProvider             *string         `json:"summarizer_provider"`
	SummarizerURL                  *string         `json:"summarizer_url"`
	SummarizerTimeout              *timex.Duration `json:"summarizer_timeout"`
	GeminiModel                    *string         `json:"gemini_model"`
	GeminiAPIKey                   *string         `json:"gemini_api_key"`
	S3AccessKey                    *string         `json:"s3_access_key"`
	S3SecretKey                    *string         `json:"s3_secret_key"`
	S3Bucket                       *string         `json:"s3_bucket"`
	S3Region                       *string         `json:"s3_region"`
	S3BaseEndpoint                 *string         `json:"s3_base_endpoint"`
	MetricsAddr                    *string         `json:"metrics_addr"`
	LogLevel                       *string         `json:"log_level"`
	LogFormat                      *string         `json:"log_format"`
}

// parseJson overlays cfg with values from the file named by -c / -config.
// It panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JSONConfigPath(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setBool(&cfg.MigrateRecordStore, jc.MigrateRecordStore)
	setString(&cfg.LocalDBPath, jc.LocalDBPath)
	setString(&cfg.SessionBackend, jc.SessionBackend)
	setString(&cfg.RedisURL, jc.RedisURL)
	if jc.SessionTTL != nil {
		cfg.SessionTTL = jc.SessionTTL.Duration
	}
	setString(&cfg.Hasher, jc.Hasher)
	setString(&cfg.HashPepper, jc.HashPepper)
	setString(&cfg.DevicePlatform, jc.DevicePlatform)
	setBool(&cfg.RevokeSessionsOnPasswordChange, jc.RevokeSessionsOnPasswordChange)
	setString(&cfg.SummarizerProvider, jc.SummarizerProvider)
	setString(&cfg.SummarizerURL, jc.SummarizerURL)
	if jc.SummarizerTimeout != nil {
		cfg.SummarizerTimeout = jc.SummarizerTimeout.Duration
	}
	setString(&cfg.GeminiModel, jc.GeminiModel)
	setString(&cfg.GeminiAPIKey, jc.GeminiAPIKey)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&cfg.MetricsAddr, jc.MetricsAddr)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
