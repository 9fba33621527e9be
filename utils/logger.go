package utils

import (
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	ColorInfo  = 0x00ff00 // Green
	ColorWarn  = 0xffff00 // Yellow
	ColorError = 0xff0000 // Red
)

// EmbedSender is the part of *discordgo.Session the logger needs.
type EmbedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var (
	mu        sync.RWMutex
	logger    = zap.NewNop()
	session   EmbedSender
	channelID string
)

// InitLogger builds the process-wide zap logger.
func InitLogger(level string, development bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	SetLogger(l)
	return l, nil
}

// SetLogger replaces the process-wide logger. Tests use it with zaptest.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

// L returns the process-wide logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// AttachSession mirrors Info/Warn/Error calls into the admin channel.
func AttachSession(s EmbedSender, adminChannelID string) {
	mu.Lock()
	defer mu.Unlock()
	session = s
	channelID = adminChannelID
	if channelID == "" {
		logger.Warn("bot.adminChannelId is not set; logging to channel is disabled")
	}
}

// Log records the event locally and sends it to the admin channel.
func Log(level, module, operation, details string) {
	mu.RLock()
	l, s, ch := logger, session, channelID
	mu.RUnlock()

	fields := []zap.Field{
		zap.String("module", module),
		zap.String("operation", operation),
	}

	var color int
	switch level {
	case "WARN":
		color = ColorWarn
		l.Warn(details, fields...)
	case "ERROR":
		color = ColorError
		l.Error(details, fields...)
	default:
		color = ColorInfo
		l.Info(details, fields...)
	}

	if s == nil || ch == "" {
		return
	}

	if _, err := s.ChannelMessageSendEmbed(ch, logEmbed(level, color, module, operation, details)); err != nil {
		l.Warn("sending log message to Discord failed", zap.Error(err))
	}
}

// embedFieldLimit is the longest value Discord accepts in an embed field.
const embedFieldLimit = 1024

// truncateField shortens s to at most limit bytes, ending in "...", without
// splitting a multi-byte rune.
func truncateField(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func logEmbed(level string, color int, module, operation, details string) *discordgo.MessageEmbed {
	details = truncateField(details, embedFieldLimit)
	if details == "" {
		details = "-"
	}
	return &discordgo.MessageEmbed{
		Title:     fmt.Sprintf("[%s] %s", level, module),
		Color:     color,
		Timestamp: time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Operation", Value: operation},
			{Name: "Details", Value: details},
		},
	}
}

// Info logs an informational message.
func Info(module, operation, details string) {
	Log("INFO", module, operation, details)
}

// Warn logs a warning message.
func Warn(module, operation, details string) {
	Log("WARN", module, operation, details)
}

// Error logs an error message.
func Error(module, operation, details string) {
	Log("ERROR", module, operation, details)
}
