package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"smart-grocery/internal/reminder"
	"smart-grocery/internal/service"
)

// telegramAPI is the part of *tgbotapi.BotAPI the bot uses.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

type updateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Reminders is the reminder scheduler as seen by the UI.
type Reminders interface {
	SetTarget(at time.Time) error
	ClearTarget() error
	Target() *time.Time
	Refresh() error
}

// Alerts is the alert loop as seen by the UI.
type Alerts interface {
	Dismiss()
	State() reminder.State
}

// SoundPreview renders the reminder melody for /testsound.
type SoundPreview interface {
	WAV() []byte
}

// Deps are the collaborators the bot drives.
type Deps struct {
	State     *service.StateService
	List      *service.ListService
	Budget    *service.BudgetService
	History   *service.HistoryService
	Security  *service.SecurityService
	Settings  *service.SettingsService
	Report    *service.ReportService
	Reminders Reminders
	Alerts    Alerts
	Sound     SoundPreview
}

type conversationStage int

const (
	stageNone conversationStage = iota
	stageItemName
	stageItemPrice
	stageItemCategory
	stageReminderDate
	stageReminderTime
)

type conversationState struct {
	stage  conversationStage
	itemID string // set when editing
	input  service.ItemInput
	date   time.Time
}

type confirmationAction int

const (
	actionDeleteItem confirmationAction = iota
	actionSetReminder
	actionWipe
)

type confirmationRequest struct {
	action confirmationAction
	itemID string
	at     time.Time
}

// Bot is the Telegram front end of the grocery tracker.
type Bot struct {
	api     telegramAPI
	updates updateSource
	deps    Deps
	ownerID int64
	logger  *zap.SugaredLogger
	now     func() time.Time

	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
	mu            sync.Mutex
}

// Connect authorizes against the Bot API.
func Connect(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return api, nil
}

// New wires the bot. ownerID restricts access to one Telegram account; 0
// lets the first account to /start claim the bot.
func New(api *tgbotapi.BotAPI, deps Deps, ownerID int64, logger *zap.SugaredLogger) *Bot {
	b := newBot(api, deps, ownerID, logger)
	b.updates = api
	logger.Infow("bot authorized", "account", api.Self.UserName)
	return b
}

func newBot(api telegramAPI, deps Deps, ownerID int64, logger *zap.SugaredLogger) *Bot {
	return &Bot{
		api:           api,
		deps:          deps,
		ownerID:       ownerID,
		logger:        logger,
		now:           time.Now,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.updates.GetUpdatesChan(updateConfig)

	b.logger.Infow("start polling updates")

	go func() {
		<-ctx.Done()
		b.updates.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}

	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			b.logger.Warnw("handle callback", "error", err)
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.logger.Warnw("handle message", "error", err)
		}
	}
}

// isOwner reports whether the account may use the bot.
func (b *Bot) isOwner(userID int64) bool {
	if b.ownerID != 0 {
		return userID == b.ownerID
	}
	user := b.deps.State.Snapshot().User
	return user == nil || user.TelegramID == 0 || user.TelegramID == userID
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	if !b.isOwner(msg.From.ID) {
		b.logger.Warnw("ignoring message from stranger", "user", msg.From.ID)
		return b.sendPlain(msg.Chat.ID, "⛔ This is a private grocery tracker.")
	}

	if b.deps.Security.IsLocked() {
		return b.handleLocked(ctx, msg)
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled. What next?")
	}

	if len(msg.Photo) > 0 {
		return b.handlePhoto(ctx, msg)
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		b.logger.Infow("command", "user", msg.From.ID, "command", msg.Command())
		return b.handleCommand(ctx, msg)
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "I didn't get that. Use /add to add an item or /help for all commands.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "list":
		return b.sendList(msg.Chat.ID)
	case "add":
		return b.startAddItem(msg)
	case "edit":
		return b.startEditItem(msg)
	case "buy":
		return b.handleBuy(ctx, msg)
	case "delete":
		return b.handleDelete(msg)
	case "save":
		return b.handleSave(ctx, msg)
	case "budget":
		return b.handleBudget(ctx, msg)
	case "history":
		return b.handleHistory(msg)
	case "categories":
		return b.handleCategories(msg)
	case "remind":
		return b.handleRemind(msg)
	case "unremind":
		return b.handleUnremind(msg)
	case "dismiss":
		return b.handleDismiss(msg.Chat.ID)
	case "settings":
		return b.sendSettings(msg.Chat.ID)
	case "currency":
		return b.handleCurrency(ctx, msg)
	case "country":
		return b.handleCountry(ctx, msg)
	case "profile":
		return b.handleProfile(ctx, msg)
	case "pin":
		return b.handlePin(ctx, msg)
	case "nopin":
		return b.handleNoPin(ctx, msg)
	case "lock":
		return b.handleLock(ctx, msg)
	case "unlock":
		return b.sendText(msg.Chat.ID, "🔓 Already unlocked.")
	case "biometrics":
		return b.handleBiometrics(ctx, msg.Chat.ID)
	case "wipe":
		return b.askWipeConfirmation(msg)
	case "logout":
		return b.handleLogout(ctx, msg)
	case "testsound":
		return b.handleTestSound(msg)
	case "report":
		return b.sendText(msg.Chat.ID, b.deps.Report.Digest(b.now()))
	case "cancel":
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.deps.Settings.Register(ctx, msg.From.ID, msg.Chat.ID, msg.From.FirstName)
	if err != nil {
		return err
	}
	b.logger.Infow("owner registered", "user", msg.From.ID)

	name := strings.TrimSpace(user.Name)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep your grocery list and budget in check.</b>\n\n", escape(name)) + helpText
	return b.sendText(msg.Chat.ID, text)
}

const helpText = "🛒 <b>List</b>\n" +
	"• /list — show the shopping list\n" +
	"• /add — add an item step by step\n" +
	"• /edit &lt;n&gt; — edit item n\n" +
	"• /buy &lt;n&gt; — mark item n bought or not\n" +
	"• /delete &lt;n&gt; — remove item n\n" +
	"• /save — save the trip to history\n\n" +
	"💰 <b>Budget</b>\n" +
	"• /budget [amount] — show or set the monthly budget\n" +
	"• /history [date or item] — past trips\n" +
	"• /categories — categories\n" +
	"• /report — budget digest now\n\n" +
	"⏰ <b>Reminder</b>\n" +
	"• /remind [YYYY-MM-DD HH:MM] — set the shopping reminder\n" +
	"• /unremind — cancel it\n" +
	"• /dismiss — stop a sounding alert\n" +
	"• /testsound — hear the reminder tone\n\n" +
	"⚙️ <b>Settings</b>\n" +
	"• /settings, /currency, /country, /profile\n" +
	"• /pin, /nopin, /lock, /unlock, /biometrics\n" +
	"• /wipe, /logout, /cancel"

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, "ℹ️ <b>Commands</b>\n\n"+helpText)
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelList):
		return true, b.sendList(msg.Chat.ID)
	case strings.ToLower(menuLabelAdd):
		return true, b.startAddItem(msg)
	case strings.ToLower(menuLabelBudget):
		return true, b.sendBudget(msg.Chat.ID)
	case strings.ToLower(menuLabelHistory):
		return true, b.handleHistory(msg)
	case strings.ToLower(menuLabelRemind):
		return true, b.handleRemind(msg)
	case strings.ToLower(menuLabelSettings):
		return true, b.sendSettings(msg.Chat.ID)
	default:
		return false, nil
	}
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}
	switch state.stage {
	case stageItemName, stageItemPrice, stageItemCategory:
		return b.continueItemDialog(ctx, msg, state)
	case stageReminderDate, stageReminderTime:
		return b.continueReminderDialog(msg, state)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Dialog reset. Try again.")
	}
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		switch req.action {
		case actionDeleteItem:
			return b.deleteItem(ctx, msg.Chat.ID, req.itemID)
		case actionSetReminder:
			return b.setReminder(msg.Chat.ID, req.at)
		case actionWipe:
			return b.wipe(ctx, msg.Chat.ID, msg.From.ID)
		}
		return nil
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "👌 Nothing changed.")
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Please confirm or cancel.", confirmKeyboard())
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	b.ack(cb.ID, "")
	if !b.isOwner(cb.From.ID) {
		return nil
	}

	data := cb.Data
	chatID := cb.Message.Chat.ID

	// The dismiss button stays usable while the app is locked.
	if data == cbAlertDismiss {
		return b.handleDismiss(chatID)
	}
	if b.deps.Security.IsLocked() {
		return b.sendLockedPrompt(chatID)
	}

	switch {
	case strings.HasPrefix(data, cbBuyPrefix):
		return b.toggleItem(ctx, chatID, cb.Message.MessageID, strings.TrimPrefix(data, cbBuyPrefix))
	case strings.HasPrefix(data, cbDeletePrefix):
		return b.askDeleteConfirmation(chatID, cb.From.ID, strings.TrimPrefix(data, cbDeletePrefix))
	case strings.HasPrefix(data, cbSettingPrefix):
		return b.toggleSetting(ctx, chatID, cb.Message.MessageID, strings.TrimPrefix(data, cbSettingPrefix))
	default:
		return nil
	}
}

func (b *Bot) ack(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.logger.Debugw("callback ack", "error", err)
	}
}

// SendBudgetReports sends the budget digest to the owner.
func (b *Bot) SendBudgetReports(ctx context.Context) error {
	st := b.deps.State.Snapshot()
	if st.User == nil || st.User.ChatID == 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if err := b.sendPlain(st.User.ChatID, b.deps.Report.Digest(b.now())); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}
	return nil
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

// sendPlain sends without touching the reply keyboard.
func (b *Bot) sendPlain(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) editWithMarkup(chatID int64, messageID int, text string, markup tgbotapi.InlineKeyboardMarkup) error {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	edit.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(edit)
	return err
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "skip"
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "confirm" || value == "yes"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "cancel" || value == "no"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "stop"
}
