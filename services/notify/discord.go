package notify

import (
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

type discordSender struct {
	session *discordgo.Session
	id      string
	token   string
}

var _ Sender = (*discordSender)(nil)

// NewDiscordSender posts through an incoming webhook; no bot token is needed.
func NewDiscordSender(webhookID, webhookToken string) (Sender, error) {
	session, err := discordgo.New("")
	if err != nil {
		return nil, errors.Wrap(err, "creating discord session")
	}
	return &discordSender{session: session, id: webhookID, token: webhookToken}, nil
}

func (s *discordSender) Name() string { return "discord" }

func (s *discordSender) Send(text string) error {
	_, err := s.session.WebhookExecute(s.id, s.token, false, &discordgo.WebhookParams{
		Content:         text,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
	return errors.Wrap(err, "executing discord webhook")
}
