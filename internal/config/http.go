package config

import "time"

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
    AllowOrigins []string
}

func LoadCORSConfig() CORSConfig {
    return CORSConfig{
        AllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
            "http://localhost:3000",
            "http://localhost:5173",
            "http://127.0.0.1:5173",
        }),
    }
}

// ChatConfig configures the upstream chat completion provider.
type ChatConfig struct {
    APIKey       string
    BaseURL      string
    Model        string
    Referer      string
    Title        string
    Timeout      time.Duration
    HistoryLimit int
}

func LoadChatConfig() ChatConfig {
    return ChatConfig{
        APIKey:       envStr("OPENROUTER_API_KEY", ""),
        BaseURL:      envStr("CHAT_BASE_URL", "https://openrouter.ai/api/v1"),
        Model:        envStr("CHAT_MODEL", "deepseek/deepseek-r1"),
        Referer:      envStr("CHAT_REFERER", "http://localhost:5173"),
        Title:        envStr("CHAT_TITLE", "CODEMENTORX"),
        Timeout:      envDur("CHAT_TIMEOUT", 45*time.Second),
        HistoryLimit: envInt("CHAT_HISTORY_LIMIT", 10),
    }
}
