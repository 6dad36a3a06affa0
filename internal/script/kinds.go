package script

// HandlerKind is the category of platform event a script can respond to.
// A script carries at most one handler per kind; presence is a map lookup.
type HandlerKind int

const (
	KindSlash HandlerKind = iota
	KindContext
	KindModal
	KindButton
	KindSelectMenu
	KindMessage
	KindReaction
	KindScheduledEvent
	KindStart
	KindUpdate
)

var kindNames = map[HandlerKind]string{
	KindSlash:          "slash",
	KindContext:        "context",
	KindModal:          "modal",
	KindButton:         "button",
	KindSelectMenu:     "select-menu",
	KindMessage:        "message",
	KindReaction:       "reaction",
	KindScheduledEvent: "scheduled-event",
	KindStart:          "start",
	KindUpdate:         "update",
}

func (k HandlerKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}
