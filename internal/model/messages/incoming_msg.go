package messages

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"budgetbot/internal/logger"
	"budgetbot/internal/model/dialog"
)

const maxErrorReportLen = 500

type messageSender interface {
	SendMessage(text string, userID int64) error
	SendKeyboard(text string, userID int64, rows [][]dialog.Button) error
}

type eventHandler interface {
	Handle(ctx context.Context, ev dialog.Event) ([]dialog.Outgoing, error)
	Reset(userID int64)
}

type config interface {
	DeveloperChatID() int64
}

// Service turns transport events into dialog events, delivers the dialog's
// replies, and owns the top-level error policy: log, notify the maintainer
// with a truncated error, reset the user's session instead of leaving it
// stuck.
type Service struct {
	tgClient messageSender
	handler  eventHandler
	devChat  int64
}

func NewService(tgClient messageSender, handler eventHandler, cfg config) *Service {
	return &Service{
		tgClient: tgClient,
		handler:  handler,
		devChat:  cfg.DeveloperChatID(),
	}
}

// Message is an inbound text or command from a user.
type Message struct {
	Text   string
	UserID int64
}

// Selection is a pressed keyboard button.
type Selection struct {
	Value  string
	UserID int64
}

func (s *Service) HandleIncomingMessage(ctx context.Context, msg Message) error {
	return s.observe(ctx, msg.UserID, parseEvent(msg))
}

func (s *Service) HandleSelection(ctx context.Context, sel Selection) error {
	return s.observe(ctx, sel.UserID, dialog.Event{
		UserID: sel.UserID,
		Kind:   dialog.EventSelection,
		Value:  sel.Value,
	})
}

func (s *Service) observe(ctx context.Context, userID int64, ev dialog.Event) error {
	start := time.Now()
	err := s.handle(ctx, userID, ev)
	observeResponse(time.Since(start), err != nil)
	return err
}

func (s *Service) handle(ctx context.Context, userID int64, ev dialog.Event) error {
	out, err := s.handler.Handle(ctx, ev)

	for _, o := range out {
		var sendErr error
		if len(o.Keyboard) > 0 {
			sendErr = s.tgClient.SendKeyboard(o.Text, userID, o.Keyboard)
		} else {
			sendErr = s.tgClient.SendMessage(o.Text, userID)
		}
		if sendErr != nil {
			logger.Error("failed to send message", zap.Error(sendErr), zap.Int64("userID", userID))
		}
	}

	if err != nil {
		logger.Error("error processing event", zap.Error(err), zap.Int64("userID", userID))
		s.handler.Reset(userID)
		s.notifyDeveloper(err)
	}
	return err
}

func (s *Service) notifyDeveloper(err error) {
	if s.devChat == 0 {
		return
	}
	text := err.Error()
	if len(text) > maxErrorReportLen {
		text = text[:maxErrorReportLen]
	}
	if sendErr := s.tgClient.SendMessage("An error was raised while handling an update:\n"+text, s.devChat); sendErr != nil {
		logger.Error("failed to notify developer", zap.Error(sendErr))
	}
}

// parseEvent splits "/spend week" into a command with an argument;
// anything that does not start with a slash is free text for the dialog.
func parseEvent(msg Message) dialog.Event {
	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, "/") {
		return dialog.Event{UserID: msg.UserID, Kind: dialog.EventText, Value: text}
	}

	split := strings.SplitN(strings.TrimPrefix(text, "/"), " ", 2)
	ev := dialog.Event{UserID: msg.UserID, Kind: dialog.EventCommand, Value: split[0]}
	if len(split) == 2 {
		ev.Arg = strings.TrimSpace(split[1])
	}
	return ev
}
