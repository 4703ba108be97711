package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Paths    PathsConfig    `mapstructure:"paths"`
	Synth    SynthConfig    `mapstructure:"synth"`
	Audio    AudioConfig    `mapstructure:"audio"`
	Waveform WaveformConfig `mapstructure:"waveform"`
	Playback PlaybackConfig `mapstructure:"playback"`
	Server   ServerConfig   `mapstructure:"server"`
	LogLevel string         `mapstructure:"log_level"`
}

type PathsConfig struct {
	ProfilesPath string `mapstructure:"profiles_path"`
	OutputDir    string `mapstructure:"output_dir"`
}

type SynthConfig struct {
	Endpoint         string `mapstructure:"endpoint"`
	Model            string `mapstructure:"model"`
	APIKey           string `mapstructure:"api_key"`
	MaxAttempts      int    `mapstructure:"max_attempts"`
	InitialBackoffMS int    `mapstructure:"initial_backoff_ms"`
	TimeoutSec       int    `mapstructure:"timeout_sec"`
}

type AudioConfig struct {
	SampleRate int `mapstructure:"sample_rate"`
	Channels   int `mapstructure:"channels"`
}

type WaveformConfig struct {
	Width    int     `mapstructure:"width"`
	Height   int     `mapstructure:"height"`
	BarWidth float64 `mapstructure:"bar_width"`
	BarGap   float64 `mapstructure:"bar_gap"`
	DPR      float64 `mapstructure:"dpr"`
	Theme    string  `mapstructure:"theme"`
}

type PlaybackConfig struct {
	Backend   string `mapstructure:"backend"`
	FrameRate int    `mapstructure:"frame_rate"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	Workers         int    `mapstructure:"workers"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
	MaxTextBytes    int    `mapstructure:"max_text_bytes"`
	RequestTimeout  int    `mapstructure:"request_timeout"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Paths: PathsConfig{
			ProfilesPath: "profiles/manifest.json",
			OutputDir:    ".",
		},
		Synth: SynthConfig{
			Endpoint:         "https://generativelanguage.googleapis.com",
			Model:            "gemini-2.5-flash-preview-tts",
			APIKey:           "",
			MaxAttempts:      3,
			InitialBackoffMS: 1000,
			TimeoutSec:       60,
		},
		Audio: AudioConfig{
			SampleRate: 24000,
			Channels:   1,
		},
		Waveform: WaveformConfig{
			Width:    800,
			Height:   160,
			BarWidth: 4,
			BarGap:   2,
			DPR:      1,
			Theme:    ThemeLight,
		},
		Playback: PlaybackConfig{
			Backend:   PlaybackOto,
			FrameRate: 60,
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			Workers:         2,
			ShutdownTimeout: 30,
			MaxTextBytes:    4096,
			RequestTimeout:  60,
		},
		LogLevel: "info",
	}
}

// binding ties a config key to the command-line flag that overrides it.
type binding struct {
	key  string
	flag string
}

var bindings = []binding{
	{"paths.profiles_path", "profiles"},
	{"paths.output_dir", "output-dir"},
	{"synth.endpoint", "synth-endpoint"},
	{"synth.model", "synth-model"},
	{"synth.api_key", "synth-api-key"},
	{"synth.max_attempts", "synth-max-attempts"},
	{"synth.initial_backoff_ms", "synth-initial-backoff-ms"},
	{"synth.timeout_sec", "synth-timeout-sec"},
	{"audio.sample_rate", "audio-sample-rate"},
	{"audio.channels", "audio-channels"},
	{"waveform.width", "waveform-width"},
	{"waveform.height", "waveform-height"},
	{"waveform.bar_width", "waveform-bar-width"},
	{"waveform.bar_gap", "waveform-bar-gap"},
	{"waveform.dpr", "waveform-dpr"},
	{"waveform.theme", "theme"},
	{"playback.backend", "playback"},
	{"playback.frame_rate", "frame-rate"},
	{"server.listen_addr", "server-listen-addr"},
	{"server.workers", "workers"},
	{"server.shutdown_timeout", "shutdown-timeout"},
	{"server.max_text_bytes", "max-text-bytes"},
	{"server.request_timeout", "request-timeout"},
	{"log_level", "log-level"},
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("profiles", defaults.Paths.ProfilesPath, "Path to the voice profile manifest")
	fs.String("output-dir", defaults.Paths.OutputDir, "Directory exported takes are written to")
	fs.String("synth-endpoint", defaults.Synth.Endpoint, "Speech synthesis API base URL")
	fs.String("synth-model", defaults.Synth.Model, "Speech synthesis model name")
	fs.String("synth-api-key", defaults.Synth.APIKey, "Speech synthesis API key")
	fs.Int("synth-max-attempts", defaults.Synth.MaxAttempts, "Attempts per synthesis request, including the first")
	fs.Int("synth-initial-backoff-ms", defaults.Synth.InitialBackoffMS, "Delay before the first retry in milliseconds (doubles per retry)")
	fs.Int("synth-timeout-sec", defaults.Synth.TimeoutSec, "Per-attempt synthesis timeout in seconds")
	fs.Int("audio-sample-rate", defaults.Audio.SampleRate, "Sample rate of synthesized PCM")
	fs.Int("audio-channels", defaults.Audio.Channels, "Channel count of synthesized PCM")
	fs.Int("waveform-width", defaults.Waveform.Width, "Waveform width in CSS pixels")
	fs.Int("waveform-height", defaults.Waveform.Height, "Waveform height in CSS pixels")
	fs.Float64("waveform-bar-width", defaults.Waveform.BarWidth, "Waveform bar width in pixels")
	fs.Float64("waveform-bar-gap", defaults.Waveform.BarGap, "Gap between waveform bars in pixels")
	fs.Float64("waveform-dpr", defaults.Waveform.DPR, "Device pixel ratio of rendered waveforms")
	fs.String("theme", defaults.Waveform.Theme, "Colour theme (light|dark)")
	fs.String("playback", defaults.Playback.Backend, "Playback backend (oto|null)")
	fs.Int("frame-rate", defaults.Playback.FrameRate, "Playhead polling rate in frames per second")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("workers", defaults.Server.Workers, "Max concurrent synthesis requests served over HTTP")
	fs.Int("shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown timeout in seconds")
	fs.Int("max-text-bytes", defaults.Server.MaxTextBytes, "Max script size accepted over HTTP")
	fs.Int("request-timeout", defaults.Server.RequestTimeout, "HTTP generation timeout in seconds")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("VOICESTUDIO")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	if err := v.BindEnv("synth.api_key", "VOICESTUDIO_SYNTH_API_KEY", "GEMINI_API_KEY", "API_KEY"); err != nil {
		return Config{}, fmt.Errorf("bind api key env vars: %w", err)
	}
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("voicestudio")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, b := range bindings {
		f := fs.Lookup(b.flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(b.key, f); err != nil {
			return fmt.Errorf("bind flag --%s: %w", b.flag, err)
		}
	}

	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("paths.profiles_path", c.Paths.ProfilesPath)
	v.SetDefault("paths.output_dir", c.Paths.OutputDir)
	v.SetDefault("synth.endpoint", c.Synth.Endpoint)
	v.SetDefault("synth.model", c.Synth.Model)
	v.SetDefault("synth.api_key", c.Synth.APIKey)
	v.SetDefault("synth.max_attempts", c.Synth.MaxAttempts)
	v.SetDefault("synth.initial_backoff_ms", c.Synth.InitialBackoffMS)
	v.SetDefault("synth.timeout_sec", c.Synth.TimeoutSec)
	v.SetDefault("audio.sample_rate", c.Audio.SampleRate)
	v.SetDefault("audio.channels", c.Audio.Channels)
	v.SetDefault("waveform.width", c.Waveform.Width)
	v.SetDefault("waveform.height", c.Waveform.Height)
	v.SetDefault("waveform.bar_width", c.Waveform.BarWidth)
	v.SetDefault("waveform.bar_gap", c.Waveform.BarGap)
	v.SetDefault("waveform.dpr", c.Waveform.DPR)
	v.SetDefault("waveform.theme", c.Waveform.Theme)
	v.SetDefault("playback.backend", c.Playback.Backend)
	v.SetDefault("playback.frame_rate", c.Playback.FrameRate)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("server.max_text_bytes", c.Server.MaxTextBytes)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("log_level", c.LogLevel)
}
