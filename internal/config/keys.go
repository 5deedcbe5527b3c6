package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "OUTREACH_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "ollama.base_url", typ: kString, env: "OUTREACH_OLLAMA_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.BaseURL },
	},
	{
		key: "ollama.model", typ: kString, env: "OUTREACH_OLLAMA_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.Model },
	},
	{
		key: "storage.data_dir", typ: kString, env: "OUTREACH_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "storage.chunk_file", typ: kString, env: "OUTREACH_STORAGE_CHUNK_FILE",
		apply:   func(cfg *Config, v any) { cfg.Storage.ChunkFile = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.ChunkFile },
	},
	{
		key: "compose.programme", typ: kString, env: "OUTREACH_COMPOSE_PROGRAMME",
		apply:   func(cfg *Config, v any) { cfg.Compose.Programme = v.(string) },
		extract: func(cfg Config) any { return cfg.Compose.Programme },
	},
	{
		key: "compose.course_title", typ: kString, env: "OUTREACH_COMPOSE_COURSE_TITLE",
		apply:   func(cfg *Config, v any) { cfg.Compose.CourseTitle = v.(string) },
		extract: func(cfg Config) any { return cfg.Compose.CourseTitle },
	},
	{
		key: "compose.course_url", typ: kString, env: "OUTREACH_COMPOSE_COURSE_URL",
		apply:   func(cfg *Config, v any) { cfg.Compose.CourseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Compose.CourseURL },
	},
	{
		key: "compose.booking_label", typ: kString, env: "OUTREACH_COMPOSE_BOOKING_LABEL",
		apply:   func(cfg *Config, v any) { cfg.Compose.BookingLabel = v.(string) },
		extract: func(cfg Config) any { return cfg.Compose.BookingLabel },
	},
	{
		key: "compose.booking_url", typ: kString, env: "OUTREACH_COMPOSE_BOOKING_URL",
		apply:   func(cfg *Config, v any) { cfg.Compose.BookingURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Compose.BookingURL },
	},
	{
		key: "compose.sign_off", typ: kString, env: "OUTREACH_COMPOSE_SIGN_OFF",
		apply:   func(cfg *Config, v any) { cfg.Compose.SignOff = v.(string) },
		extract: func(cfg Config) any { return cfg.Compose.SignOff },
	},
	{
		key: "log.level", typ: kString, env: "OUTREACH_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b Backend) error {
	for _, s := range specs {
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
