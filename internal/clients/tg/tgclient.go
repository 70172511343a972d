package tg

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"budgetbot/internal/logger"
	"budgetbot/internal/model/dialog"
	"budgetbot/internal/model/messages"
)

const (
	defaultUpdateOffset = 0
	handleTimeout       = 15 * time.Second
)

type config interface {
	Token() string
	PollTimeoutSeconds() int
}

type Client struct {
	client      *tgbotapi.BotAPI
	pollTimeout int
}

func New(cfg config) (*Client, error) {
	client, err := tgbotapi.NewBotAPI(cfg.Token())
	if err != nil {
		return nil, errors.Wrap(err, "cannot NewBotApi")
	}
	return &Client{client: client, pollTimeout: cfg.PollTimeoutSeconds()}, nil
}

func (c *Client) SendMessage(text string, userID int64) error {
	_, err := c.client.Send(tgbotapi.NewMessage(userID, text))
	if err != nil {
		return errors.Wrap(err, "client.Send")
	}
	return nil
}

// SendKeyboard sends text with the options as an inline keyboard, already
// grouped into rows by the dialog.
func (c *Client) SendKeyboard(text string, userID int64, rows [][]dialog.Button) error {
	markup := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Value))
		}
		markup = append(markup, buttons)
	}

	msg := tgbotapi.NewMessage(userID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(markup...)
	_, err := c.client.Send(msg)
	if err != nil {
		return errors.Wrap(err, "client.Send")
	}
	return nil
}

func (c *Client) ListenUpdates(ctx context.Context, msgService *messages.Service) {
	u := tgbotapi.NewUpdate(defaultUpdateOffset)
	u.Timeout = c.pollTimeout

	updates := c.client.GetUpdatesChan(u)

	logger.Info("Start listening for updates")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Stop listening for updates")
			return
		case update := <-updates:
			c.listenOnce(ctx, update, msgService)
		}
	}
}

func (c *Client) listenOnce(ctx context.Context, update tgbotapi.Update, msgService *messages.Service) {
	ctx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	switch {
	case update.CallbackQuery != nil:
		// callback queries must be answered even without a notification
		if _, err := c.client.Request(tgbotapi.NewCallback(update.CallbackQuery.ID, "")); err != nil {
			logger.Error("error answering callback:", zap.Error(err))
		}

		logger.Info(update.CallbackQuery.Data, zap.String("user", update.CallbackQuery.From.UserName))
		_ = msgService.HandleSelection(ctx, messages.Selection{
			Value:  update.CallbackQuery.Data,
			UserID: update.CallbackQuery.From.ID,
		})
	case update.Message != nil:
		logger.Info(update.Message.Text, zap.String("user", update.Message.From.UserName))
		_ = msgService.HandleIncomingMessage(ctx, messages.Message{
			Text:   update.Message.Text,
			UserID: update.Message.From.ID,
		})
	}
}
