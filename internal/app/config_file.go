package app

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"

    yaml "gopkg.in/yaml.v3"

    "github.com/hyperifyio/pagestash/internal/store"
)

// FileConfig represents the single-file configuration schema.
// Nested sections map naturally to flags/env.
type FileConfig struct {
    Bucket  string `yaml:"bucket" json:"bucket"`
    Verbose bool   `yaml:"verbose" json:"verbose"`

    Store struct {
        Backend string `yaml:"backend" json:"backend"`
        Dir     string `yaml:"dir" json:"dir"`
    } `yaml:"store" json:"store"`

    Mongo struct {
        URI      string `yaml:"uri" json:"uri"`
        Database string `yaml:"database" json:"database"`
    } `yaml:"mongo" json:"mongo"`

    S3 struct {
        Region    string `yaml:"region" json:"region"`
        Endpoint  string `yaml:"endpoint" json:"endpoint"`
        PathStyle bool   `yaml:"pathStyle" json:"pathStyle"`
    } `yaml:"s3" json:"s3"`

    Fetch struct {
        // Timeout is a Go duration string such as "30s".
        Timeout   string `yaml:"timeout" json:"timeout"`
        UserAgent string `yaml:"userAgent" json:"userAgent"`
    } `yaml:"fetch" json:"fetch"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
    var fc FileConfig
    b, err := os.ReadFile(path)
    if err != nil {
        return fc, err
    }
    switch ext := filepath.Ext(path); ext {
    case ".yaml", ".yml":
        if err := yaml.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse yaml: %w", err)
        }
    case ".json":
        if err := json.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse json: %w", err)
        }
    default:
        // Try YAML then JSON
        if err := yaml.Unmarshal(b, &fc); err != nil {
            if jerr := json.Unmarshal(b, &fc); jerr != nil {
                return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
            }
        }
    }
    if fc.Fetch.Timeout != "" {
        if _, ok := parseSeconds(fc.Fetch.Timeout); !ok {
            return fc, fmt.Errorf("parse config: invalid fetch.timeout %q", fc.Fetch.Timeout)
        }
    }
    return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are still unset after flags and environment were applied.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
    if cfg == nil { return }

    if cfg.Bucket == "" && fc.Bucket != "" { cfg.Bucket = fc.Bucket }
    if cfg.StoreBackend == "" && fc.Store.Backend != "" { cfg.StoreBackend = fc.Store.Backend }
    if cfg.StoreDir == "" && fc.Store.Dir != "" { cfg.StoreDir = fc.Store.Dir }
    if cfg.MongoURI == "" && fc.Mongo.URI != "" { cfg.MongoURI = fc.Mongo.URI }
    if cfg.MongoDatabase == "" && fc.Mongo.Database != "" { cfg.MongoDatabase = fc.Mongo.Database }
    if cfg.AWSRegion == "" && fc.S3.Region != "" { cfg.AWSRegion = fc.S3.Region }
    if cfg.S3Endpoint == "" && fc.S3.Endpoint != "" { cfg.S3Endpoint = fc.S3.Endpoint }
    if !cfg.S3PathStyle && fc.S3.PathStyle { cfg.S3PathStyle = true }
    if cfg.FetchTimeout == 0 {
        if d, ok := parseSeconds(fc.Fetch.Timeout); ok { cfg.FetchTimeout = d }
    }
    if cfg.UserAgent == "" && fc.Fetch.UserAgent != "" { cfg.UserAgent = fc.Fetch.UserAgent }
    if !cfg.Verbose && fc.Verbose { cfg.Verbose = true }
}

// ValidateConfig checks backend-specific requirements. A missing bucket is
// reported per request instead; see Config.CheckBucket.
func ValidateConfig(cfg Config) error {
    switch strings.ToLower(strings.TrimSpace(cfg.StoreBackend)) {
    case store.BackendS3:
    case store.BackendFile:
        if strings.TrimSpace(cfg.StoreDir) == "" {
            return errors.New("config: store.dir is required for the file backend (or set STORE_DIR)")
        }
    case store.BackendMongo:
        if strings.TrimSpace(cfg.MongoURI) == "" {
            return errors.New("config: mongo.uri is required for the mongo backend (or set MONGO_URI)")
        }
    default:
        return fmt.Errorf("config: unknown store backend %q (want s3, file or mongo)", cfg.StoreBackend)
    }
    if cfg.FetchTimeout < 0 {
        return fmt.Errorf("config: negative fetch timeout %s", cfg.FetchTimeout)
    }
    return nil
}
