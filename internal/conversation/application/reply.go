package application

// Parse modes understood by the transport.
const (
	ParseModeNone     = ""
	ParseModeHTML     = "HTML"
	ParseModeMarkdown = "Markdown"
)

// Button is an inline keyboard button.
type Button struct {
	Text string
	Data string
}

// Reply is what the bot answers to one step. Edit asks the transport to
// replace the message that carried the pressed button instead of sending a
// new one.
type Reply struct {
	Text      string
	Keyboard  [][]Button
	ParseMode string
	Edit      bool

	// committed marks the confirmation of a saved booking.
	committed bool
}
