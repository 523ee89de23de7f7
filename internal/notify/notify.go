// Package notify delivers story summaries to chat channels.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Message is one story ready for delivery. Each notifier renders it in its
// channel's markup.
type Message struct {
	Title     string
	PostURL   string
	SourceURL string
	Author    string
	Summary   string
	Keywords  []string
}

// Notifier delivers a message to a fixed destination.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
	Destination() string
}

// Mrkdwn renders the message with Slack link syntax: a bold title line
// prefixed with a dash, the post and source links with the author, the
// summary, and an italic keywords line when keywords are present.
func (m Message) Mrkdwn() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "- *%s*\n<%s|post>", m.Title, m.PostURL)
	if m.SourceURL != "" {
		fmt.Fprintf(&sb, "(<%s|source>)", m.SourceURL)
	}
	fmt.Fprintf(&sb, " by %s\n%s", m.Author, m.Summary)
	if len(m.Keywords) > 0 {
		fmt.Fprintf(&sb, "\n_keywords: %s_", strings.Join(m.Keywords, ", "))
	}
	return sb.String()
}

// Markdown renders the message with CommonMark links (Discord).
func (m Message) Markdown() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "- **%s**\n[post](<%s>)", m.Title, m.PostURL)
	if m.SourceURL != "" {
		fmt.Fprintf(&sb, " ([source](<%s>))", m.SourceURL)
	}
	fmt.Fprintf(&sb, " by %s\n%s", m.Author, m.Summary)
	if len(m.Keywords) > 0 {
		fmt.Fprintf(&sb, "\n*keywords: %s*", strings.Join(m.Keywords, ", "))
	}
	return sb.String()
}

// PlainText renders the message without markup.
func (m Message) PlainText() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\npost: %s", m.Title, m.PostURL)
	if m.SourceURL != "" {
		fmt.Fprintf(&sb, "\nsource: %s", m.SourceURL)
	}
	fmt.Fprintf(&sb, "\nby %s\n\n%s", m.Author, m.Summary)
	if len(m.Keywords) > 0 {
		fmt.Fprintf(&sb, "\n\nkeywords: %s", strings.Join(m.Keywords, ", "))
	}
	return sb.String()
}

// truncateRunes shortens s to at most max runes, marking the cut with "…".
func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}

// Config selects and configures a notifier.
type Config struct {
	Kind           string
	SlackToken     string
	SlackWorkspace string
	SlackChannel   string
	SlackAPIURL    string
	DiscordToken   string
	DiscordChannel string
	TelegramToken  string
	TelegramChatID string
}

// New builds the notifier named by cfg.Kind.
func New(cfg Config) (Notifier, error) {
	switch strings.ToLower(cfg.Kind) {
	case "", "log":
		return NewLog(cfg.SlackWorkspace, cfg.SlackChannel), nil
	case "slack":
		if cfg.SlackToken == "" || cfg.SlackChannel == "" {
			return nil, fmt.Errorf("notify: slack requires SLACK_TOKEN and SLACK_CHANNEL")
		}
		return NewSlack(cfg.SlackToken, cfg.SlackWorkspace, cfg.SlackChannel, cfg.SlackAPIURL), nil
	case "discord":
		if cfg.DiscordToken == "" || cfg.DiscordChannel == "" {
			return nil, fmt.Errorf("notify: discord requires DISCORD_TOKEN and DISCORD_CHANNEL")
		}
		return NewDiscord(cfg.DiscordToken, cfg.DiscordChannel)
	case "telegram":
		if cfg.TelegramToken == "" || cfg.TelegramChatID == "" {
			return nil, fmt.Errorf("notify: telegram requires TELEGRAM_TOKEN and TELEGRAM_CHAT_ID")
		}
		return NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, "")
	default:
		return nil, fmt.Errorf("notify: unknown notifier %q", cfg.Kind)
	}
}

// Log writes messages to the structured log instead of a channel. Used for
// dry runs.
type Log struct {
	dest string
}

func NewLog(workspace, channel string) *Log {
	return &Log{dest: "log:" + workspace + "/" + channel}
}

func (l *Log) Send(_ context.Context, msg Message) error {
	slog.Info("notify: message", "dest", l.dest, "text", msg.Mrkdwn())
	return nil
}

func (l *Log) Destination() string { return l.dest }
