package reply

import "github.com/bwmarrin/discordgo"

// SessionEditor adapts a live session to the pager's MessageEditor surface.
type SessionEditor struct {
	Session *discordgo.Session
}

func (e SessionEditor) EditMessage(channelID, messageID, content string, components []discordgo.MessageComponent) error {
	_, err := e.Session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Content:    &content,
		Components: &components,
	})
	return err
}

func (e SessionEditor) DeleteMessage(channelID, messageID string) error {
	return e.Session.ChannelMessageDelete(channelID, messageID)
}
