// Package ask provides the paginated GPT question command. Every /ask reply
// owns a pagination record keyed by its message id: regenerate appends a new
// answer, the arrows move between answers, the select menu gathers generated
// file links into the current answer, and cancel discards the whole thing.
package ask

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"scriptbot/internal/ai"
	"scriptbot/internal/pager"
	"scriptbot/internal/reply"
	"scriptbot/internal/script"
	"scriptbot/internal/storage"

	"github.com/bwmarrin/discordgo"
)

const (
	table         = "ask"
	editOpenID    = "ask_edit_open"
	modalNewID    = "ask_new"
	modalEditHead = "ask_edit_"
	filesMenuID   = "ask_files"
	promptInputID = "ask_prompt"

	retries = 3
)

// promptState remembers what the user asked, so regenerate and the edit
// modal can work long after the original interaction token expired.
type promptState struct {
	Prompt string `json:"prompt"`
}

var linkPattern = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^)\s]+)\)`)

type askScript struct {
	db     *storage.Storage
	client *ai.Client
	store  *pager.Store
}

func New(db *storage.Storage, client *ai.Client) *script.Script {
	a := &askScript{
		db:     db,
		client: client,
		store:  pager.NewStore(db),
	}

	return script.New("ask", "gpt").
		AddSlashHandler(script.SlashHandler{
			Deploy: &discordgo.ApplicationCommand{
				Name:        "ask",
				Description: "Ask the model a question",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "prompt",
						Description: "What to ask (leave empty to open an editor)",
						Required:    false,
					},
				},
			},
			Run: a.runSlash,
		}).
		AddButtonHandler(script.ButtonHandler{
			Match: a.matchButton,
			Run:   a.runButton,
		}).
		AddSelectMenuHandler(script.SelectMenuHandler{
			Match: func(customID string) bool { return customID == filesMenuID },
			Run:   a.runFilesMenu,
		}).
		AddModalHandler(script.ModalHandler{
			Match: func(modalID string) bool {
				return modalID == modalNewID || strings.HasPrefix(modalID, modalEditHead)
			},
			Run: a.runModal,
		}).
		SetupScope(true, script.GlobalScope(), nil)
}

func (a *askScript) responder(s *discordgo.Session) *pager.Responder {
	return pager.NewResponder(a.store, reply.SessionEditor{Session: s}, "ask").
		WithExtraRows(extraRows)
}

// extraRows adds the prompt editor button, plus the file-link gathering menu
// once any answer actually produced links.
func extraRows(rec *pager.Record) []discordgo.MessageComponent {
	rows := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Edit prompt",
					Style:    discordgo.SecondaryButton,
					CustomID: editOpenID,
				},
			},
		},
	}

	hasFiles := false
	for _, ans := range rec.Answers {
		if len(ans.Files) > 0 {
			hasFiles = true
			break
		}
	}
	if !hasFiles {
		return rows
	}

	return append(rows, discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				CustomID:    filesMenuID,
				Placeholder: "Gather file links from all answers...",
				Options: []discordgo.SelectMenuOption{
					{Label: "Replace current links", Value: "replace"},
					{Label: "Append to current links", Value: "append"},
					{Label: "Combine, newest wins", Value: "combine"},
				},
			},
		},
	})
}

func (a *askScript) generate(prompt string) string {
	history := []ai.Message{{Role: "user", Content: prompt}}
	return a.client.RequestChat(context.Background(), history, retries, func(answer string) bool {
		return strings.TrimSpace(answer) != ""
	})
}

// extractLinks pulls markdown links out of an answer so they can live as
// first-class attachments on the pagination record.
func extractLinks(content string) []pager.Attachment {
	var files []pager.Attachment
	for _, m := range linkPattern.FindAllStringSubmatch(content, -1) {
		files = append(files, pager.Attachment{Name: m[1], URL: m[2]})
	}
	return files
}

func (a *askScript) runSlash(ctx *script.SlashContext) error {
	var prompt string
	if opts := ctx.Event.ApplicationCommandData().Options; len(opts) > 0 {
		prompt = opts[0].StringValue()
	}

	if strings.TrimSpace(prompt) == "" {
		return reply.ShowModal(ctx.Session, ctx.Event, modalNewID, "Ask the model", promptForm(""))
	}

	if err := reply.Defer(ctx.Session, ctx.Event); err != nil {
		return err
	}
	return a.answerDeferred(ctx.Session, ctx.Event, prompt)
}

// answerDeferred generates the first answer, publishes it via the deferred
// response, and claims the resulting message as a pagination record.
func (a *askScript) answerDeferred(s *discordgo.Session, i *discordgo.InteractionCreate, prompt string) error {
	answer := a.generate(prompt)

	msg, err := reply.EditResponse(s, i, answer)
	if err != nil {
		return fmt.Errorf("publish answer: %w", err)
	}

	if _, err := a.store.Create(msg.ID, pager.Answer{Content: answer, Files: extractLinks(answer)}); err != nil {
		return fmt.Errorf("create pagination record: %w", err)
	}
	if err := a.db.SetJSON(table, msg.ID, promptState{Prompt: prompt}); err != nil {
		return fmt.Errorf("save prompt: %w", err)
	}

	return a.responder(s).Render(msg.ChannelID, msg.ID)
}

func (a *askScript) loadPrompt(messageID string) (string, error) {
	var state promptState
	found, err := a.db.GetJSON(table, messageID, &state)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("no prompt stored for message %s", messageID)
	}
	return state.Prompt, nil
}

func (a *askScript) matchButton(customID string) bool {
	if customID == editOpenID {
		return true
	}
	_, ok := a.responder(nil).ParseOp(customID)
	return ok
}

func (a *askScript) runButton(ctx *script.ComponentContext) error {
	msgID := ctx.Event.Message.ID
	channelID := ctx.Event.ChannelID
	resp := a.responder(ctx.Session)

	if ctx.CustomID() == editOpenID {
		prompt, err := a.loadPrompt(msgID)
		if err != nil {
			return err
		}
		return reply.ShowModal(ctx.Session, ctx.Event, modalEditHead+msgID, "Edit prompt", promptForm(prompt))
	}

	op, _ := resp.ParseOp(ctx.CustomID())
	if err := reply.DeferUpdate(ctx.Session, ctx.Event); err != nil {
		return err
	}

	switch op {
	case pager.OpPrev:
		if _, err := a.store.Navigate(msgID, -1); err != nil {
			return err
		}
		return resp.Render(channelID, msgID)

	case pager.OpNext:
		if _, err := a.store.Navigate(msgID, +1); err != nil {
			return err
		}
		return resp.Render(channelID, msgID)

	case pager.OpCancel:
		return resp.Discard(channelID, msgID)

	case pager.OpRegen:
		return a.regenerate(ctx.Session, channelID, msgID, "")

	default:
		return nil
	}
}

// regenerate appends a fresh answer. With a non-empty prompt override the
// stored prompt is replaced first, which is how the edit modal regenerates.
func (a *askScript) regenerate(s *discordgo.Session, channelID, msgID, override string) error {
	resp := a.responder(s)

	prompt := override
	if prompt == "" {
		var err error
		if prompt, err = a.loadPrompt(msgID); err != nil {
			return err
		}
	} else if err := a.db.SetJSON(table, msgID, promptState{Prompt: prompt}); err != nil {
		return fmt.Errorf("save prompt: %w", err)
	}

	if err := resp.ShowLoading(channelID, msgID); err != nil {
		return err
	}

	answer := a.generate(prompt)
	if _, err := a.store.Append(msgID, pager.Answer{Content: answer, Files: extractLinks(answer)}); err != nil {
		return err
	}
	return resp.Render(channelID, msgID)
}

func (a *askScript) runFilesMenu(ctx *script.ComponentContext) error {
	msgID := ctx.Event.Message.ID
	channelID := ctx.Event.ChannelID

	var method pager.AttachMethod
	switch values := ctx.Values(); {
	case len(values) == 0:
		return nil
	case values[0] == "replace":
		method = pager.AttachReplace
	case values[0] == "append":
		method = pager.AttachAppend
	default:
		method = pager.AttachCombine
	}

	if err := reply.DeferUpdate(ctx.Session, ctx.Event); err != nil {
		return err
	}

	rec, found, err := a.store.Get(msgID)
	if err != nil || !found {
		return err
	}
	var files []pager.Attachment
	for _, ans := range rec.Answers {
		files = append(files, ans.Files...)
	}

	if _, err := a.store.Attach(msgID, files, method); err != nil {
		return err
	}
	return a.responder(ctx.Session).Render(channelID, msgID)
}

func (a *askScript) runModal(ctx *script.ModalContext) error {
	modalID := ctx.Event.ModalSubmitData().CustomID
	prompt := strings.TrimSpace(ctx.TextInput(promptInputID))
	if prompt == "" {
		return reply.RespondEphemeral(ctx.Session, ctx.Event, "Nothing to ask.")
	}

	if modalID == modalNewID {
		if err := reply.Defer(ctx.Session, ctx.Event); err != nil {
			return err
		}
		return a.answerDeferred(ctx.Session, ctx.Event, prompt)
	}

	msgID := strings.TrimPrefix(modalID, modalEditHead)
	if err := reply.DeferUpdate(ctx.Session, ctx.Event); err != nil {
		return err
	}
	return a.regenerate(ctx.Session, ctx.Event.ChannelID, msgID, prompt)
}

func promptForm(prefill string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:  promptInputID,
					Label:     "Prompt",
					Style:     discordgo.TextInputParagraph,
					Value:     prefill,
					Required:  true,
					MaxLength: 2000,
				},
			},
		},
	}
}
