package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var (
	once     sync.Once
	instance *Config
)

// EnvFile is read once on the first New call. Variables already present in
// the environment take precedence over the file.
var EnvFile = "./configs/.env"

type Config struct {
}

func New() *Config {
	once.Do(func() {
		err := godotenv.Load(EnvFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Fatal("loading envs error: ", err)
		}
		instance = &Config{}
	})
	return instance
}

func (c *Config) GetString(key string) string {
	return os.Getenv(key)
}

func (c *Config) GetStringOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func (c *Config) GetBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("config: invalid bool %s=%q, using %v", key, v, def)
		return def
	}
	return b
}

// GetDuration accepts Go durations ("90s", "1h") or a bare number of seconds.
func (c *Config) GetDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	log.Printf("config: invalid duration %s=%q, using %v", key, v, def)
	return def
}

// GetLocation loads an IANA zone name, UTC when unset or unknown.
func (c *Config) GetLocation(key string) *time.Location {
	v := c.GetString(key)
	if v == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(v)
	if err != nil {
		log.Printf("config: unknown time zone %s=%q, using UTC", key, v)
		return time.UTC
	}
	return loc
}
