// Package config reads renderer settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is read when no other .env path is given
const DefaultEnvFile = ".env"

// S3Config holds the credentials and target for publishing renders
type S3Config struct {
	AccessKey string
	SecretKey string
	Endpoint  string
	Region    string
	Bucket    string
	CDNURL    string // Public URL prefix for uploaded objects (optional)
}

// Enabled reports whether enough is configured to upload
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// Config holds settings shared by the CLI and the web server.
// Zero values for the render settings mean "use the scene's default".
type Config struct {
	Scene     string
	Width     int
	Samples   int
	MaxDepth  int
	Workers   int // <= 0 uses every CPU
	Seed      int64
	Output    string
	Thumbnail int // Longest thumbnail edge in pixels, 0 disables thumbnails
	Port      int
	S3        S3Config
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		Scene: "default",
		Seed:  42,
		Port:  8080,
		S3: S3Config{
			Region: "us-east-1",
		},
	}
}

// LookupFunc resolves a single setting
type LookupFunc func(key string) (string, bool)

// Load reads envFile (if it exists) and the process environment.
// Process variables win over the file.
func Load(envFile string) (Config, error) {
	fileValues := map[string]string{}
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileValues = values
		case errors.Is(err, fs.ErrNotExist):
			// optional
		default:
			return Config{}, fmt.Errorf("reading %s: %w", envFile, err)
		}
	}

	return FromLookup(func(key string) (string, bool) {
		if value, ok := os.LookupEnv(key); ok {
			return value, true
		}
		value, ok := fileValues[key]
		return value, ok
	})
}

// FromLookup builds a Config from Default overridden by every key lookup finds
func FromLookup(lookup LookupFunc) (Config, error) {
	cfg := Default()
	p := parser{lookup: lookup}

	p.str("RT_SCENE", &cfg.Scene)
	p.integer("RT_WIDTH", &cfg.Width)
	p.integer("RT_SAMPLES", &cfg.Samples)
	p.integer("RT_MAX_DEPTH", &cfg.MaxDepth)
	p.integer("RT_WORKERS", &cfg.Workers)
	p.int64("RT_SEED", &cfg.Seed)
	p.str("RT_OUTPUT", &cfg.Output)
	p.integer("RT_THUMBNAIL", &cfg.Thumbnail)
	p.integer("RT_PORT", &cfg.Port)

	p.str("S3_ACCESS_KEY", &cfg.S3.AccessKey)
	p.str("S3_SECRET_KEY", &cfg.S3.SecretKey)
	p.str("S3_ENDPOINT", &cfg.S3.Endpoint)
	p.str("S3_REGION", &cfg.S3.Region)
	p.str("S3_BUCKET", &cfg.S3.Bucket)
	p.str("CDN_URL", &cfg.S3.CDNURL)

	if p.err != nil {
		return Config{}, p.err
	}
	return cfg, nil
}

// parser keeps the first conversion error so settings can be read in a row
type parser struct {
	lookup LookupFunc
	err    error
}

func (p *parser) str(key string, dst *string) {
	if value, ok := p.lookup(key); ok && value != "" {
		*dst = value
	}
}

func (p *parser) integer(key string, dst *int) {
	value, ok := p.lookup(key)
	if !ok || value == "" || p.err != nil {
		return
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		p.err = fmt.Errorf("invalid %s: %q is not an integer", key, value)
		return
	}
	*dst = parsed
}

func (p *parser) int64(key string, dst *int64) {
	value, ok := p.lookup(key)
	if !ok || value == "" || p.err != nil {
		return
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		p.err = fmt.Errorf("invalid %s: %q is not an integer", key, value)
		return
	}
	*dst = parsed
}
