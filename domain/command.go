package domain

// Command is the closed set of inbound chat operations. The session
// coordinator decodes transport frames into exactly one of these variants
// and dispatches through a single switch, so event names on the wire can
// never drift from handler implementations.
type Command interface {
	isCommand()
}

// SendMessageCommand asks the router to persist and deliver one message.
type SendMessageCommand struct {
	SenderID   string
	ReceiverID string
	Content    string
}

// TypingCommand relays an ephemeral typing signal to a counterparty.
// Nothing is persisted; a lost stop signal is a documented limitation.
type TypingCommand struct {
	FromUserID string
	ToUserID   string
	IsTyping   bool
}

// MarkReadCommand flips all unread messages from CounterpartyID to
// ReaderID to read.
type MarkReadCommand struct {
	ReaderID       string
	CounterpartyID string
}

func (SendMessageCommand) isCommand() {}
func (TypingCommand) isCommand()      {}
func (MarkReadCommand) isCommand()    {}
