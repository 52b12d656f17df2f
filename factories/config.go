// Package factories resolves startup configuration and assembles the
// service clients behind a session.
package factories

import (
	"fmt"
	"os"

	"github.com/bytedance/sonic"

	"voicechat/core"
)

// Chat parameter defaults, applied exactly once when the config file is
// loaded. Downstream code never branches on missing fields.
const (
	DefaultMaxResponseLength = 1024
	DefaultTemperature       = 1.0
	DefaultTopProbability    = 1.0
	DefaultFrequencyPenalty  = 0.0
	DefaultPresencePenalty   = 0.0
)

// SpeechConfig selects the recognition language and synthesis voice.
type SpeechConfig struct {
	Voice    string `json:"voice,omitempty"`
	Language string `json:"language,omitempty"`
}

// AppConfig is the materialized application configuration: the system
// prompt, fully-defaulted chat parameters, and the speech options.
// Read-only for the life of the process.
type AppConfig struct {
	SystemPrompt string
	Params       core.ChatParameters
	Speech       SpeechConfig
	SpeakReplies bool
}

// rawAppConfig mirrors the setup file shape. Optional numeric fields are
// pointers so "absent" and "zero" stay distinguishable until defaults are
// applied.
type rawAppConfig struct {
	SystemPrompt   string `json:"systemPrompt"`
	ChatParameters struct {
		DeploymentName   string   `json:"deploymentName"`
		MaxResponseLen   *int     `json:"maxResponseLength,omitempty"`
		Temperature      *float32 `json:"temperature,omitempty"`
		TopProbability   *float32 `json:"topProbablities,omitempty"`
		StopSequences    []string `json:"stopSequences,omitempty"`
		FrequencyPenalty *float32 `json:"frequencyPenalty,omitempty"`
		PresencePenalty  *float32 `json:"presencePenalty,omitempty"`
	} `json:"chatParameters"`
	Speech       SpeechConfig `json:"speech,omitempty"`
	SpeakReplies *bool        `json:"speakReplies,omitempty"`
}

// LoadAppConfig reads and resolves the setup JSON file.
func LoadAppConfig(path string) (AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, &core.ConfigurationError{
			Field:  "config file",
			Reason: fmt.Sprintf("read %s: %v", path, err),
		}
	}
	return AppConfigFromJSON(data)
}

// AppConfigFromJSON parses a setup blob and materializes every default so
// no downstream code ever special-cases a missing field.
func AppConfigFromJSON(data []byte) (AppConfig, error) {
	var raw rawAppConfig
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return AppConfig{}, &core.ConfigurationError{
			Field:  "config file",
			Reason: fmt.Sprintf("parse: %v", err),
		}
	}

	if raw.SystemPrompt == "" {
		return AppConfig{}, &core.ConfigurationError{Field: "systemPrompt", Reason: "must not be empty"}
	}
	if raw.ChatParameters.DeploymentName == "" {
		return AppConfig{}, &core.ConfigurationError{Field: "deploymentName", Reason: "must not be empty"}
	}

	params := core.ChatParameters{
		Deployment:       raw.ChatParameters.DeploymentName,
		MaxResponseLen:   DefaultMaxResponseLength,
		Temperature:      DefaultTemperature,
		TopProbability:   DefaultTopProbability,
		StopSequences:    raw.ChatParameters.StopSequences,
		FrequencyPenalty: DefaultFrequencyPenalty,
		PresencePenalty:  DefaultPresencePenalty,
	}
	if raw.ChatParameters.MaxResponseLen != nil {
		params.MaxResponseLen = *raw.ChatParameters.MaxResponseLen
	}
	if raw.ChatParameters.Temperature != nil {
		params.Temperature = *raw.ChatParameters.Temperature
	}
	if raw.ChatParameters.TopProbability != nil {
		params.TopProbability = *raw.ChatParameters.TopProbability
	}
	if raw.ChatParameters.FrequencyPenalty != nil {
		params.FrequencyPenalty = *raw.ChatParameters.FrequencyPenalty
	}
	if raw.ChatParameters.PresencePenalty != nil {
		params.PresencePenalty = *raw.ChatParameters.PresencePenalty
	}

	if params.MaxResponseLen <= 0 {
		return AppConfig{}, &core.ConfigurationError{Field: "maxResponseLength", Reason: "must be positive"}
	}
	if params.TopProbability < 0 || params.TopProbability > 1 {
		return AppConfig{}, &core.ConfigurationError{Field: "topProbablities", Reason: "must be between 0 and 1"}
	}

	speakReplies := true
	if raw.SpeakReplies != nil {
		speakReplies = *raw.SpeakReplies
	}

	return AppConfig{
		SystemPrompt: raw.SystemPrompt,
		Params:       params,
		Speech:       raw.Speech,
		SpeakReplies: speakReplies,
	}, nil
}

// Credentials are the external-service secrets resolved from the process
// environment at startup. A missing credential is a startup-time
// configuration failure, never a per-call error.
type Credentials struct {
	OpenAIKey      string
	OpenAIEndpoint string
	SpeechKey      string
	SpeechRegion   string
}

// CredentialsFromEnv reads the required secrets from the environment.
func CredentialsFromEnv() (Credentials, error) {
	creds := Credentials{
		OpenAIKey:      os.Getenv("AZURE_OPENAI_KEY"),
		OpenAIEndpoint: os.Getenv("AZURE_OPENAI_ENDPOINT"),
		SpeechKey:      os.Getenv("AZURE_SPEECH_KEY"),
		SpeechRegion:   os.Getenv("AZURE_SPEECH_REGION"),
	}
	if creds.OpenAIKey == "" {
		return Credentials{}, &core.ConfigurationError{Field: "AZURE_OPENAI_KEY", Reason: "not set"}
	}
	if creds.OpenAIEndpoint == "" {
		return Credentials{}, &core.ConfigurationError{Field: "AZURE_OPENAI_ENDPOINT", Reason: "not set"}
	}
	if creds.SpeechKey == "" {
		return Credentials{}, &core.ConfigurationError{Field: "AZURE_SPEECH_KEY", Reason: "not set"}
	}
	if creds.SpeechRegion == "" {
		return Credentials{}, &core.ConfigurationError{Field: "AZURE_SPEECH_REGION", Reason: "not set"}
	}
	return creds, nil
}
