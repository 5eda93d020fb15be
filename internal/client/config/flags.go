package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/blogkeeper/internal/flagx"
)

var valuedFlags = []string{
	"-d", "-l", "-sb", "-redis", "-ttl", "-hasher", "-pepper", "-platform",
	"-sum", "-sum-url", "-sum-timeout", "-gemini-model",
	"-s3-endpoint", "-s3-bucket", "-s3-region",
	"-metrics", "-log-level", "-log-format",
}

var switchFlags = []string{"-migrate", "-revoke-on-passwd"}

// parseFlags populates Config fields from command-line flags. Only the flags
// listed above are looked at (see flagx.Filter); parse errors panic.
func parseFlags(cfg *Config) {
	args := flagx.Filter(os.Args[1:], valuedFlags, switchFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "record store (postgres) DSN")
	fs.BoolVar(&cfg.MigrateRecordStore, "migrate", cfg.MigrateRecordStore, "apply record store migrations on start")
	fs.StringVar(&cfg.LocalDBPath, "l", cfg.LocalDBPath, "path of the local sqlite database")
	fs.StringVar(&cfg.SessionBackend, "sb", cfg.SessionBackend, "session store backend: postgres or redis")
	fs.StringVar(&cfg.RedisURL, "redis", cfg.RedisURL, "redis URL for the redis session backend")
	fs.DurationVar(&cfg.SessionTTL, "ttl", cfg.SessionTTL, "session lifetime")
	fs.StringVar(&cfg.Hasher, "hasher", cfg.Hasher, "password hasher: argon2id or sha256")
	fs.StringVar(&cfg.HashPepper, "pepper", cfg.HashPepper, "application pepper for the argon2id hasher")
	fs.StringVar(&cfg.DevicePlatform, "platform", cfg.DevicePlatform, "platform tag stored with each session")
	fs.BoolVar(&cfg.RevokeSessionsOnPasswordChange, "revoke-on-passwd", cfg.RevokeSessionsOnPasswordChange, "log out other sessions after a password change")
	fs.StringVar(&cfg.SummarizerProvider, "sum", cfg.SummarizerProvider, "summarizer provider: http or gemini")
	fs.StringVar(&cfg.SummarizerURL, "sum-url", cfg.SummarizerURL, "base URL of the summarization service")
	fs.DurationVar(&cfg.SummarizerTimeout, "sum-timeout", cfg.SummarizerTimeout, "summarization request timeout")
	fs.StringVar(&cfg.GeminiModel, "gemini-model", cfg.GeminiModel, "gemini model name")
	fs.StringVar(&cfg.S3BaseEndpoint, "s3-endpoint", cfg.S3BaseEndpoint, "S3 compatible endpoint for post images")
	fs.StringVar(&cfg.S3Bucket, "s3-bucket", cfg.S3Bucket, "bucket for post images")
	fs.StringVar(&cfg.S3Region, "s3-region", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "address for the /metrics listener (empty to disable)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: text or json")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
