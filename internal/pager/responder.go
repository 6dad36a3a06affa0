package pager

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Pager operations encoded into component custom ids as
// "<script>_pager_<op>".
const (
	OpPrev   = "prev"
	OpNext   = "next"
	OpRegen  = "regen"
	OpCancel = "cancel"
)

// MessageEditor is the slice of the platform the responder needs. The real
// session implements it; tests substitute a spy.
type MessageEditor interface {
	EditMessage(channelID, messageID, content string, components []discordgo.MessageComponent) error
	DeleteMessage(channelID, messageID string) error
}

// Responder renders pagination records into message edits for one script.
type Responder struct {
	store  *Store
	editor MessageEditor
	prefix string
	extra  func(rec *Record) []discordgo.MessageComponent
}

func NewResponder(store *Store, editor MessageEditor, prefix string) *Responder {
	return &Responder{store: store, editor: editor, prefix: prefix}
}

// WithExtraRows adds script-specific component rows below the navigation
// row. They are rendered only when the message is not loading.
func (r *Responder) WithExtraRows(fn func(rec *Record) []discordgo.MessageComponent) *Responder {
	r.extra = fn
	return r
}

// CustomID builds the component id for one pager operation.
func (r *Responder) CustomID(op string) string {
	return r.prefix + "_pager_" + op
}

// ParseOp extracts the pager operation from a custom id, if it belongs to
// this responder's script.
func (r *Responder) ParseOp(customID string) (string, bool) {
	head := r.prefix + "_pager_"
	if !strings.HasPrefix(customID, head) {
		return "", false
	}
	return strings.TrimPrefix(customID, head), true
}

// navRow builds the navigation buttons sized to the record. While loading,
// everything is disabled.
func (r *Responder) navRow(rec *Record, loading bool) []discordgo.MessageComponent {
	total := len(rec.Answers)
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "◀",
					Style:    discordgo.SecondaryButton,
					CustomID: r.CustomID(OpPrev),
					Disabled: loading || rec.Index <= 0,
				},
				discordgo.Button{
					Label:    fmt.Sprintf("%d/%d", rec.Index+1, total),
					Style:    discordgo.SecondaryButton,
					CustomID: r.CustomID("page"),
					Disabled: true,
				},
				discordgo.Button{
					Label:    "▶",
					Style:    discordgo.SecondaryButton,
					CustomID: r.CustomID(OpNext),
					Disabled: loading || rec.Index >= total-1,
				},
				discordgo.Button{
					Label:    "Regenerate",
					Style:    discordgo.PrimaryButton,
					CustomID: r.CustomID(OpRegen),
					Disabled: loading,
				},
				discordgo.Button{
					Label:    "✖",
					Style:    discordgo.DangerButton,
					CustomID: r.CustomID(OpCancel),
					Disabled: loading,
				},
			},
		},
	}
}

// renderContent flattens the current answer plus its file links.
func renderContent(rec *Record) string {
	ans := rec.Current()
	content := ans.Content
	if len(ans.Files) > 0 {
		var links []string
		for _, f := range ans.Files {
			links = append(links, fmt.Sprintf("[%s](%s)", f.Name, f.URL))
		}
		content += "\n\n" + strings.Join(links, " · ")
	}
	if content == "" {
		content = "*empty answer*"
	}
	return content
}

// ShowLoading swaps the message to a placeholder with navigation disabled.
// A record that was cancelled meanwhile is left alone.
func (r *Responder) ShowLoading(channelID, messageID string) error {
	rec, found, err := r.store.Get(messageID)
	if err != nil || !found {
		return err
	}
	if rec.Deleted {
		return nil
	}
	return r.editor.EditMessage(channelID, messageID, "⏳ Thinking...", r.navRow(rec, true))
}

// Render shows the current answer with active navigation. The record is
// re-fetched here, immediately before the edit, so a cancel that landed
// while a generate call was in flight cannot resurrect the message.
func (r *Responder) Render(channelID, messageID string) error {
	rec, found, err := r.store.Get(messageID)
	if err != nil || !found {
		return err
	}
	if rec.Deleted {
		return nil
	}
	rows := r.navRow(rec, false)
	if r.extra != nil {
		rows = append(rows, r.extra(rec)...)
	}
	return r.editor.EditMessage(channelID, messageID, renderContent(rec), rows)
}

// Discard soft-deletes the record and removes the platform message. The
// record itself is retained so late clicks and in-flight tasks see the flag.
func (r *Responder) Discard(channelID, messageID string) error {
	if _, err := r.store.Cancel(messageID); err != nil {
		return err
	}
	return r.editor.DeleteMessage(channelID, messageID)
}
