package config

type TelegramConfig struct {
	ApiToken    string `yaml:"token"`
	DevChatID   int64  `yaml:"developer-chat-id"`
	PollTimeout int    `yaml:"poll-timeout-seconds"`
}

func (t *TelegramConfig) Token() string {
	return t.ApiToken
}

func (t *TelegramConfig) DeveloperChatID() int64 {
	return t.DevChatID
}

func (t *TelegramConfig) PollTimeoutSeconds() int {
	return t.PollTimeout
}
