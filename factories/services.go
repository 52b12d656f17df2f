package factories

import (
	"voicechat/core"
	"voicechat/services/azure/llm"
	"voicechat/services/azure/stt"
	"voicechat/services/azure/tts"
	"voicechat/session"
)

// BuildCompletionClient wires the Azure OpenAI completion client.
func BuildCompletionClient(creds Credentials, logger *core.Logger) (core.CompletionClient, error) {
	cfg := llm.DefaultConfig()
	cfg.APIKey = creds.OpenAIKey
	cfg.Endpoint = creds.OpenAIEndpoint
	return llm.NewAzureCompletionClient(cfg, logger)
}

// BuildTranscriber wires the Azure Speech recognizer.
func BuildTranscriber(creds Credentials, speech SpeechConfig, logger *core.Logger) (core.Transcriber, error) {
	cfg := stt.DefaultConfig()
	cfg.APIKey = creds.SpeechKey
	cfg.Region = creds.SpeechRegion
	if speech.Language != "" {
		cfg.Language = speech.Language
	}
	return stt.NewAzureTranscriber(cfg, logger)
}

// BuildSynthesizer wires the Azure Speech synthesizer.
func BuildSynthesizer(creds Credentials, speech SpeechConfig, logger *core.Logger) (core.Synthesizer, error) {
	cfg := tts.DefaultConfig()
	cfg.APIKey = creds.SpeechKey
	cfg.Region = creds.SpeechRegion
	if speech.Voice != "" {
		cfg.Voice = speech.Voice
	}
	if speech.Language != "" {
		cfg.Language = speech.Language
	}
	return tts.NewAzureSynthesizer(cfg, logger)
}

// BuildSessionManager assembles the full pipeline: completion, recognition,
// synthesis, and the session defaults they plug into. All configuration
// problems surface here, at startup.
func BuildSessionManager(appCfg AppConfig, creds Credentials, logger *core.Logger) (*session.Manager, error) {
	if logger == nil {
		logger = core.GetLogger()
	}

	completion, err := BuildCompletionClient(creds, logger)
	if err != nil {
		return nil, err
	}
	transcriber, err := BuildTranscriber(creds, appCfg.Speech, logger)
	if err != nil {
		return nil, err
	}
	synthesizer, err := BuildSynthesizer(creds, appCfg.Speech, logger)
	if err != nil {
		return nil, err
	}

	return session.NewManager(session.Config{
		SystemPrompt:  appCfg.SystemPrompt,
		Params:        appCfg.Params,
		Completion:    completion,
		Transcriber:   transcriber,
		Synthesizer:   synthesizer,
		SpeechEnabled: appCfg.SpeakReplies,
		Logger:        logger,
	}), nil
}
