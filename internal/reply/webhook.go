package reply

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// ParseWebhookLink splits a stored webhook URL into its id and token.
func ParseWebhookLink(link string) (id, token string, err error) {
	const marker = "/api/webhooks/"
	idx := strings.Index(link, marker)
	if idx < 0 {
		return "", "", fmt.Errorf("not a webhook link: %s", link)
	}
	rest := strings.Trim(link[idx+len(marker):], "/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed webhook link: %s", link)
	}
	return parts[0], parts[1], nil
}

// SendViaWebhook posts through a webhook so the message carries a custom
// name/avatar identity. Returns the created message for later edits.
func SendViaWebhook(s *discordgo.Session, link, username, avatarURL, content string) (*discordgo.Message, error) {
	id, token, err := ParseWebhookLink(link)
	if err != nil {
		return nil, err
	}
	return s.WebhookExecute(id, token, true, &discordgo.WebhookParams{
		Content:   content,
		Username:  username,
		AvatarURL: avatarURL,
	})
}

// EditWebhookMessage edits an earlier webhook post.
func EditWebhookMessage(s *discordgo.Session, link, messageID, content string) error {
	id, token, err := ParseWebhookLink(link)
	if err != nil {
		return err
	}
	_, err = s.WebhookMessageEdit(id, token, messageID, &discordgo.WebhookEdit{Content: &content})
	return err
}
