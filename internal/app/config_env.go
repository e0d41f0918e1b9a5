package app

import (
    "os"
    "strings"
    "time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
    if cfg == nil { return }

    setString := func(dst *string, envKey string) {
        if *dst != "" { return }
        *dst = strings.TrimSpace(os.Getenv(envKey))
    }
    setString(&cfg.Bucket, "CONTENT_BUCKET")
    setString(&cfg.StoreBackend, "STORE_BACKEND")
    setString(&cfg.StoreDir, "STORE_DIR")
    setString(&cfg.MongoURI, "MONGO_URI")
    setString(&cfg.MongoDatabase, "MONGO_DATABASE")
    setString(&cfg.S3Endpoint, "S3_ENDPOINT")
    setString(&cfg.UserAgent, "USER_AGENT")

    // The Lambda runtime exports AWS_REGION; AWS_DEFAULT_REGION is the CLI spelling
    if cfg.AWSRegion == "" {
        v := os.Getenv("AWS_REGION")
        if v == "" { v = os.Getenv("AWS_DEFAULT_REGION") }
        cfg.AWSRegion = strings.TrimSpace(v)
    }

    // Durations accept Go syntax ("45s") or plain seconds ("45")
    if cfg.FetchTimeout == 0 {
        if d, ok := parseSeconds(os.Getenv("FETCH_TIMEOUT")); ok {
            cfg.FetchTimeout = d
        }
    }

    // Booleans
    setBool := func(dst *bool, envKey string) {
        if *dst { return }
        switch strings.ToLower(strings.TrimSpace(os.Getenv(envKey))) {
        case "1", "true", "yes", "on":
            *dst = true
        }
    }
    setBool(&cfg.S3PathStyle, "S3_PATH_STYLE")
    setBool(&cfg.Verbose, "VERBOSE")
}

func parseSeconds(s string) (time.Duration, bool) {
    s = strings.TrimSpace(s)
    if s == "" { return 0, false }
    if d, err := time.ParseDuration(s); err == nil && d > 0 {
        return d, true
    }
    if d, err := time.ParseDuration(s + "s"); err == nil && d > 0 {
        return d, true
    }
    return 0, false
}
