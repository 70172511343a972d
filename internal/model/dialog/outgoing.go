package dialog

const keyboardRowSize = 3

// Button is one selectable option on an inline keyboard.
type Button struct {
	Label string
	Value string
}

// Outgoing is a message for the transport to deliver: plain text, plus an
// optional keyboard grouped in rows of 3. Effects are returned as data so
// the machine can be exercised without a live transport.
type Outgoing struct {
	Text     string
	Keyboard [][]Button
}

func textMessage(text string) Outgoing {
	return Outgoing{Text: text}
}

func keyboardMessage(text string, options []string) Outgoing {
	buttons := make([]Button, 0, len(options))
	for _, opt := range options {
		buttons = append(buttons, Button{Label: opt, Value: opt})
	}

	rows := make([][]Button, 0, (len(buttons)+keyboardRowSize-1)/keyboardRowSize)
	for len(buttons) > keyboardRowSize {
		rows = append(rows, buttons[:keyboardRowSize])
		buttons = buttons[keyboardRowSize:]
	}
	if len(buttons) > 0 {
		rows = append(rows, buttons)
	}
	return Outgoing{Text: text, Keyboard: rows}
}
