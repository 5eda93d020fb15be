// Package config loads runtime configuration for the blogkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-d string             record store (postgres) DSN
//	-migrate              apply record store migrations on start
//	-l string             local sqlite path
//	-sb string            session backend: postgres | redis
//	-redis string         redis URL
//	-ttl duration         session lifetime (default 24h)
//	-hasher string        argon2id | sha256
//	-pepper string        argon2id pepper
//	-platform string      device platform tag
//	-revoke-on-passwd     log out other sessions after a password change
//	-sum string           summarizer: http | gemini
//	-sum-url string       summarization service base URL
//	-sum-timeout duration summarization timeout (default 10s)
//	-gemini-model string  gemini model name
//	-s3-endpoint, -s3-bucket, -s3-region   image storage
//	-metrics string       /metrics listen address
//	-log-level, -log-format
//
// # JSON schema
//
// Durations use timex.Duration, so they may be strings like "24h" or integer
// nanoseconds. Absent keys keep their defaults:
//
//	{
//	  "database_dsn": "postgres://blogkeeper:blogkeeper@db:5432/blogkeeper",
//	  "session_backend": "redis",
//	  "redis_url": "redis://cache:6379/0",
//	  "session_ttl": "24h",
//	  "s3_access_key": "minioadmin",
//	  "s3_secret_key": "minioadmin"
//	}
//
// Secrets (S3 keys, Gemini API key) are accepted from the JSON file only.
package config
