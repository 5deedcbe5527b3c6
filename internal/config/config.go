package config

import "path/filepath"

type Config struct {
	Server  ServerConfig
	Ollama  OllamaConfig
	Storage StorageConfig
	Compose ComposeConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

type StorageConfig struct {
	DataDir   string
	ChunkFile string
}

// ComposeConfig carries the fixed closing block appended to every message
// and the programme name used in generation prompts.
type ComposeConfig struct {
	Programme    string
	CourseTitle  string
	CourseURL    string
	BookingLabel string
	BookingURL   string
	SignOff      string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	dataDir := defaultDataDir()
	return Config{
		Server: ServerConfig{
			Port: 3000,
		},
		Ollama: OllamaConfig{
			BaseURL: "http://127.0.0.1:11434",
			Model:   "llama3",
		},
		Storage: StorageConfig{
			DataDir:   dataDir,
			ChunkFile: filepath.Join(dataDir, "chunks.json"),
		},
		Compose: ComposeConfig{
			Programme:    "the Higher Nitec in AI Applications course",
			CourseTitle:  "Higher Nitec in AI Applications – Course Overview",
			CourseURL:    "https://www.ite.edu.sg/courses/course-finder/course/higher-nitec-in-ai-applications",
			BookingLabel: "Office Hours",
			BookingURL:   "https://outlook.office.com/bookwithme/placement-coordinator",
			SignOff:      "Looking forward to hearing from you 🙂",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON config file at
// $XDG_CONFIG_HOME/outreach/config.json, then applies OUTREACH_* environment
// variable overrides.
func Load() (Config, error) {
	return loadWith(newFileBackend(configFilePath()))
}

func loadWith(b Backend) (Config, error) {
	cfg := defaults()
	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}
