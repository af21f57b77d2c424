package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go-shorthand/debug"
	"go-shorthand/music"

	"github.com/pkg/errors"
)

// EngineKind names an audio engine
type EngineKind string

const (
	EngineLog  EngineKind = "log"
	EngineMIDI EngineKind = "midi"
	EngineOSC  EngineKind = "osc"
)

// PlaybackConfig holds the aural playback defaults
type PlaybackConfig struct {
	Root         string `json:"root"`
	Transpose    string `json:"transpose"`    // semitones, or "random"
	Arpeggio     bool   `json:"arpeggio"`
	Chord        bool   `json:"chord"`
	NoteDuration string `json:"noteDuration"` // seconds, or "auto"
}

// EngineConfig selects and configures the output engine(s)
type EngineConfig struct {
	Kind          string `json:"kind"` // comma separated EngineKinds
	MIDIPort      string `json:"midiPort,omitempty"`
	MIDIChannel   int    `json:"midiChannel"` // 1-16
	OSCAddr       string `json:"oscAddr,omitempty"`
	OSCInstrument int    `json:"oscInstrument"`
	OSCVelocity   bool   `json:"oscVelocity,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Tempo           float64        `json:"tempo"`
	DefaultOctave   string         `json:"defaultOctave"`
	DefaultDuration string         `json:"defaultDuration"`
	Playback        PlaybackConfig `json:"playback"`
	Engine          EngineConfig   `json:"engine"`
	DebugLog        string         `json:"debugLog,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Tempo:           music.DefaultTempo,
		DefaultOctave:   "3",
		DefaultDuration: "4n",
		Playback: PlaybackConfig{
			Root:         "F4",
			Transpose:    "0",
			Arpeggio:     true,
			Chord:        true,
			NoteDuration: "0.6",
		},
		Engine: EngineConfig{
			Kind:          string(EngineLog),
			MIDIChannel:   1,
			OSCAddr:       "127.0.0.1:8765",
			OSCInstrument: 0,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-shorthand"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads path over the defaults; a missing file yields the defaults
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			debug.Log("config", "no config at %s, using defaults", path)
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	cfg.Tempo = music.ClampTempo(cfg.Tempo)

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	debug.Log("config", "loaded %s", path)
	return cfg, nil
}

// Save writes the config to ConfigPath
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Engines splits Engine.Kind into its parts
func (c *Config) Engines() []EngineKind {
	var kinds []EngineKind
	for _, k := range strings.Split(c.Engine.Kind, ",") {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			kinds = append(kinds, EngineKind(k))
		}
	}
	return kinds
}

// Validate checks ranges and names
func (c *Config) Validate() error {
	if c.Tempo < music.MinTempo || c.Tempo > music.MaxTempo {
		return errors.Errorf("tempo %v outside %d..%d", c.Tempo, music.MinTempo, music.MaxTempo)
	}
	if _, err := music.Beats(c.DefaultDuration); err != nil {
		return errors.Wrap(err, "defaultDuration")
	}
	if o, err := strconv.Atoi(c.DefaultOctave); err != nil || o < -4 || o > 11 {
		return errors.Errorf("defaultOctave %q outside -4..11", c.DefaultOctave)
	}
	if _, err := music.ParsePitch(c.Playback.Root); err != nil {
		return errors.Wrap(err, "playback.root")
	}
	if c.Engine.MIDIChannel < 1 || c.Engine.MIDIChannel > 16 {
		return errors.Errorf("engine.midiChannel %d outside 1..16", c.Engine.MIDIChannel)
	}
	if len(c.Engines()) == 0 {
		return errors.New("engine.kind is empty")
	}
	for _, k := range c.Engines() {
		switch k {
		case EngineLog, EngineMIDI, EngineOSC:
		default:
			return errors.Errorf("unknown engine %q", k)
		}
	}
	return nil
}
