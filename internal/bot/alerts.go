package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"smart-grocery/internal/reminder"
	"smart-grocery/internal/service"
)

var errNoOwnerChat = errors.New("owner chat unknown")

// ownerChat returns the chat the owner registered from with /start.
func ownerChat(state *service.StateService) (int64, bool) {
	user := state.Snapshot().User
	if user == nil || user.ChatID == 0 {
		return 0, false
	}
	return user.ChatID, true
}

// Notifier delivers the reminder notification as a Telegram message.
type Notifier struct {
	api    telegramAPI
	state  *service.StateService
	logger *zap.SugaredLogger
}

func NewNotifier(api *tgbotapi.BotAPI, state *service.StateService, logger *zap.SugaredLogger) *Notifier {
	return &Notifier{api: api, state: state, logger: logger}
}

// Permitted is true when notifications are enabled and the owner chat is known.
func (n *Notifier) Permitted() bool {
	_, ok := ownerChat(n.state)
	return ok && n.state.Snapshot().NotificationsEnabled
}

func (n *Notifier) Notify(ctx context.Context, title, body string) error {
	chatID, ok := ownerChat(n.state)
	if !ok {
		return errNoOwnerChat
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("<b>%s</b>\n%s", escape(title), escape(body)))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}

type indicatorOp int

const (
	opShow indicatorOp = iota
	opClear
)

const indicatorQueue = 16

// Indicator shows a message with a Dismiss button while the alert sounds
// and deletes it on dismissal. Show and Clear only enqueue; Run performs
// the calls in order.
type Indicator struct {
	api    telegramAPI
	state  *service.StateService
	logger *zap.SugaredLogger
	ops    chan indicatorOp

	// owned by Run
	chatID    int64
	messageID int
}

func NewIndicator(api *tgbotapi.BotAPI, state *service.StateService, logger *zap.SugaredLogger) *Indicator {
	return newIndicator(api, state, logger)
}

func newIndicator(api telegramAPI, state *service.StateService, logger *zap.SugaredLogger) *Indicator {
	return &Indicator{
		api:    api,
		state:  state,
		logger: logger,
		ops:    make(chan indicatorOp, indicatorQueue),
	}
}

func (i *Indicator) Show()  { i.enqueue(opShow) }
func (i *Indicator) Clear() { i.enqueue(opClear) }

func (i *Indicator) enqueue(op indicatorOp) {
	select {
	case i.ops <- op:
	default:
		i.logger.Warnw("alert indicator queue full, dropping update", "op", op)
	}
}

// Run processes indicator updates until ctx is cancelled. A visible
// indicator is removed on exit.
func (i *Indicator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			i.clear()
			return
		case op := <-i.ops:
			if op == opShow {
				i.show()
			} else {
				i.clear()
			}
		}
	}
}

func (i *Indicator) show() {
	if i.messageID != 0 {
		return
	}
	chatID, ok := ownerChat(i.state)
	if !ok {
		return
	}
	msg := tgbotapi.NewMessage(chatID, "🔔 <b>Time to go shopping!</b>\nThe alert repeats until you dismiss it.")
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = dismissKeyboard()
	sent, err := i.api.Send(msg)
	if err != nil {
		i.logger.Warnw("show alert indicator", "error", err)
		return
	}
	i.chatID, i.messageID = chatID, sent.MessageID
}

func (i *Indicator) clear() {
	if i.messageID == 0 {
		return
	}
	if _, err := i.api.Request(tgbotapi.NewDeleteMessage(i.chatID, i.messageID)); err != nil {
		i.logger.Warnw("clear alert indicator", "error", err)
	}
	i.chatID, i.messageID = 0, 0
}

var (
	_ reminder.Notifier  = (*Notifier)(nil)
	_ reminder.Indicator = (*Indicator)(nil)
)
