package session

import (
	"fmt"
	"os"

	"github.com/jinzhu/copier"
	"gopkg.in/yaml.v3"

	"github.com/voicepipe/voicepipe-core/core/audio"
)

// Config describes one session. It is built once before Open and never
// mutated afterwards; Open stores a deep copy so later caller mutation cannot
// reach a live connection. Changing configuration requires a new session.
type Config struct {
	// Endpoint is the websocket base URL, e.g. wss://agent.deepgram.com.
	Endpoint string `yaml:"endpoint"`
	// APIKey overrides the DEEPGRAM_API_KEY environment variable when set.
	APIKey string `yaml:"api_key,omitempty"`

	Tags []string `yaml:"tags,omitempty"`

	Input  EncodingConfig `yaml:"input"`
	Output EncodingConfig `yaml:"output"`

	Agent AgentConfig `yaml:"agent"`
}

type EncodingConfig struct {
	Encoding   string `yaml:"encoding"`
	SampleRate int    `yaml:"sample_rate"`
	// Container applies to output only; "none" means raw PCM.
	Container string `yaml:"container,omitempty"`
}

type AgentConfig struct {
	Language string         `yaml:"language"`
	Listen   ProviderConfig `yaml:"listen"`
	Think    ThinkConfig    `yaml:"think"`
	Speak    ProviderConfig `yaml:"speak"`
}

type ProviderConfig struct {
	Type        string `yaml:"type"`
	Model       string `yaml:"model"`
	SmartFormat bool   `yaml:"smart_format,omitempty"`
}

type ThinkConfig struct {
	ProviderConfig `yaml:",inline"`
	// Endpoint points the language-model provider at a custom URL with
	// per-session headers.
	Endpoint *ThinkEndpointConfig `yaml:"endpoint,omitempty"`
}

type ThinkEndpointConfig struct {
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers,omitempty"`
}

// ConfigError reports invalid session configuration. It is always raised
// before any connection is opened.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid session config: %s: %s", e.Field, e.Reason)
}

// DefaultConfig returns the defaults the hosted agent expects when nothing
// is overridden.
func DefaultConfig() Config {
	return Config{
		Endpoint: "wss://agent.deepgram.com",
		Tags:     []string{"voicepipe"},
		Input: EncodingConfig{
			Encoding:   audio.DefaultFormat,
			SampleRate: audio.DefaultSampleRate,
		},
		Output: EncodingConfig{
			Encoding:   audio.DefaultFormat,
			SampleRate: 24000,
			Container:  "none",
		},
		Agent: AgentConfig{
			Language: "en",
			Listen:   ProviderConfig{Type: "deepgram", Model: "nova-3"},
			Think:    ThinkConfig{ProviderConfig: ProviderConfig{Type: "open_ai", Model: "gpt-4o-mini"}},
			Speak:    ProviderConfig{Type: "deepgram", Model: "aura-2-thalia-en"},
		},
	}
}

// LoadConfig reads a YAML session configuration, layered over defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c Config) Validate() error {
	if c.Endpoint == "" {
		return &ConfigError{Field: "endpoint", Reason: "must not be empty"}
	}
	if c.Input.SampleRate <= 0 {
		return &ConfigError{Field: "input.sample_rate", Reason: "must be positive"}
	}
	if c.Input.Encoding == "" {
		return &ConfigError{Field: "input.encoding", Reason: "must not be empty"}
	}
	if c.Output.SampleRate <= 0 {
		return &ConfigError{Field: "output.sample_rate", Reason: "must be positive"}
	}
	if c.Output.Encoding == "" {
		return &ConfigError{Field: "output.encoding", Reason: "must not be empty"}
	}
	if c.Agent.Think.Endpoint != nil && c.Agent.Think.Endpoint.URL == "" {
		return &ConfigError{Field: "agent.think.endpoint.url", Reason: "must not be empty when endpoint is set"}
	}

	return nil
}

// clone deep-copies the config so a session cannot observe caller mutation.
func (c Config) clone() (Config, error) {
	copied := Config{}
	if err := copier.CopyWithOption(&copied, &c, copier.Option{DeepCopy: true}); err != nil {
		return Config{}, fmt.Errorf("failed to copy session config: %w", err)
	}
	return copied, nil
}

func (c Config) apiKey() (string, error) {
	if c.APIKey != "" {
		return c.APIKey, nil
	}
	if key := os.Getenv("DEEPGRAM_API_KEY"); key != "" {
		return key, nil
	}
	return "", &ConfigError{Field: "api_key", Reason: "not set and DEEPGRAM_API_KEY not found"}
}

// settingsMessage is the handshake message sent immediately after the
// websocket upgrade. Field layout follows the agent converse protocol.
type settingsMessage struct {
	Type  string        `json:"type"`
	Tags  []string      `json:"tags,omitempty"`
	Audio settingsAudio `json:"audio"`
	Agent settingsAgent `json:"agent"`
}

type settingsAudio struct {
	Input  settingsEncoding `json:"input"`
	Output settingsEncoding `json:"output"`
}

type settingsEncoding struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
	Container  string `json:"container,omitempty"`
}

type settingsAgent struct {
	Language string         `json:"language"`
	Listen   settingsListen `json:"listen"`
	Think    settingsThink  `json:"think"`
	Speak    settingsSpeak  `json:"speak"`
}

type settingsListen struct {
	Provider settingsListenProvider `json:"provider"`
}

type settingsListenProvider struct {
	Type        string `json:"type"`
	Model       string `json:"model"`
	SmartFormat bool   `json:"smart_format"`
}

type settingsThink struct {
	Provider settingsThinkProvider  `json:"provider"`
	Endpoint *settingsThinkEndpoint `json:"endpoint,omitempty"`
}

type settingsThinkProvider struct {
	Type  string  `json:"type"`
	Model *string `json:"model,omitempty"`
}

type settingsThinkEndpoint struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

type settingsSpeak struct {
	Provider settingsSpeakProvider `json:"provider"`
}

type settingsSpeakProvider struct {
	Type  string `json:"type"`
	Model string `json:"model"`
}

func (c Config) settings() settingsMessage {
	var thinkModel *string
	if c.Agent.Think.Model != "" {
		model := c.Agent.Think.Model
		thinkModel = &model
	}

	var thinkEndpoint *settingsThinkEndpoint
	if c.Agent.Think.Endpoint != nil {
		thinkEndpoint = &settingsThinkEndpoint{
			URL:     c.Agent.Think.Endpoint.URL,
			Headers: c.Agent.Think.Endpoint.Headers,
		}
	}

	return settingsMessage{
		Type: "Settings",
		Tags: c.Tags,
		Audio: settingsAudio{
			Input: settingsEncoding{
				Encoding:   c.Input.Encoding,
				SampleRate: c.Input.SampleRate,
			},
			Output: settingsEncoding{
				Encoding:   c.Output.Encoding,
				SampleRate: c.Output.SampleRate,
				Container:  c.Output.Container,
			},
		},
		Agent: settingsAgent{
			Language: c.Agent.Language,
			Listen: settingsListen{
				Provider: settingsListenProvider{
					Type:        c.Agent.Listen.Type,
					Model:       c.Agent.Listen.Model,
					SmartFormat: c.Agent.Listen.SmartFormat,
				},
			},
			Think: settingsThink{
				Provider: settingsThinkProvider{Type: c.Agent.Think.Type, Model: thinkModel},
				Endpoint: thinkEndpoint,
			},
			Speak: settingsSpeak{
				Provider: settingsSpeakProvider{Type: c.Agent.Speak.Type, Model: c.Agent.Speak.Model},
			},
		},
	}
}

// InputEncodingInfo exposes the configured input encoding in the form the
// audio helpers use.
func (c Config) InputEncodingInfo() audio.EncodingInfo {
	format := audio.EncodingLinear16
	switch c.Input.Encoding {
	case "mulaw":
		format = audio.EncodingMulaw
	case "alaw":
		format = audio.EncodingALaw
	}

	return audio.EncodingInfo{SampleRate: c.Input.SampleRate, Format: format}
}
