package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// Duration is a time.Duration that reads "500ms"-style strings from JSON.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// plain numbers are nanoseconds
		var n int64
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("duration must be a string or integer: %s", b)
		}
		*d = Duration(n)
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config holds the server and host configuration.
type Config struct {
	Addr         string   `json:"addr"`
	AIDelay      Duration `json:"ai_delay"`  // pause before the computer replies
	Heartbeat    Duration `json:"heartbeat"` // SSE keep-alive interval
	ReadTimeout  Duration `json:"read_timeout"`
	WriteTimeout Duration `json:"write_timeout"`
	IdleTimeout  Duration `json:"idle_timeout"`
	// Strategy names the computer's strategy, see ai.NewStrategy.
	Strategy string `json:"strategy"`
}

// Default returns a Config with the values the game ships with.
func Default() Config {
	return Config{
		Addr:        "localhost:8080",
		AIDelay:     Duration(500 * time.Millisecond),
		Heartbeat:   Duration(15 * time.Second),
		ReadTimeout: Duration(30 * time.Second),
		// SSE streams stay open; zero disables the write deadline.
		WriteTimeout: 0,
		IdleTimeout:  Duration(60 * time.Second),
		Strategy:     "heuristic",
	}
}

// Load reads a JSON file over the defaults. Keys missing from the file keep their default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.AIDelay < 0 {
		errs = append(errs, errors.New("ai_delay must not be negative"))
	}
	if c.Heartbeat <= 0 {
		errs = append(errs, errors.New("heartbeat must be positive"))
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.IdleTimeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
