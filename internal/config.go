package internal

import "time"

type Config struct {
	Host              string        `env:"HOST,default=0.0.0.0"`
	Port              int           `env:"PORT,default=8080"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	JWTIssuer         string        `env:"JWT_ISSUER,default=collab-live"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	MaxContentLength  int           `env:"MAX_CONTENT_LENGTH,default=1000"`
	RateLimitMessages int           `env:"RATE_LIMIT_MESSAGES,default=10"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW,default=60s"`
	SendBufferSize    int           `env:"SEND_BUFFER_SIZE,default=256"`
	ReadLimitBytes    int64         `env:"READ_LIMIT_BYTES,default=65536"`
	SinkTimeout       time.Duration `env:"SINK_TIMEOUT,default=2s"`
	LimitMessages     *int          `env:"LIMIT_MESSAGES"`
	CensoredWordsFile string        `env:"CENSORED_WORDS_FILE"`
	CensoredMaskChar  string        `env:"CENSORED_MASK_CHAR,default=*"`
	StatsInterval     time.Duration `env:"STATS_INTERVAL,default=30s"`
	GCInterval        time.Duration `env:"GC_INTERVAL,default=5m"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}
