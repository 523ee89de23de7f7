package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

const discordMaxText = 2000

// Discord posts messages through the REST API; no gateway connection is
// opened.
type Discord struct {
	session *discordgo.Session
	channel string
}

func NewDiscord(token, channel string) (*Discord, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	return &Discord{session: s, channel: channel}, nil
}

func (d *Discord) Send(ctx context.Context, msg Message) error {
	text := truncateRunes(msg.Markdown(), discordMaxText)
	if _, err := d.session.ChannelMessageSend(d.channel, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: send to %s: %w", d.channel, err)
	}
	return nil
}

func (d *Discord) Destination() string { return "discord:" + d.channel }
