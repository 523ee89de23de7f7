package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// slackMaxText stays under Slack's 40k character limit for chat.postMessage.
const slackMaxText = 39000

// Slack posts messages with a bot token scoped to one workspace.
type Slack struct {
	client    *slack.Client
	workspace string
	channel   string
}

// NewSlack creates a Slack notifier. apiURL overrides the Web API base URL
// and must end with a slash; empty uses slack.com.
func NewSlack(token, workspace, channel, apiURL string) *Slack {
	var opts []slack.Option
	if apiURL != "" {
		opts = append(opts, slack.OptionAPIURL(apiURL))
	}
	return &Slack{
		client:    slack.New(token, opts...),
		workspace: workspace,
		channel:   channel,
	}
}

func (s *Slack) Send(ctx context.Context, msg Message) error {
	text := truncateRunes(msg.Mrkdwn(), slackMaxText)
	_, _, err := s.client.PostMessageContext(ctx, s.channel,
		slack.MsgOptionText(text, false),
		slack.MsgOptionDisableLinkUnfurl(),
	)
	if err != nil {
		return fmt.Errorf("slack: post to %s: %w", s.Destination(), err)
	}
	return nil
}

func (s *Slack) Destination() string {
	return "slack:" + s.workspace + "/" + s.channel
}
