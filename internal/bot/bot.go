package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"synclife/internal/model"
	"synclife/internal/notify"
	"synclife/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageName
	stageMotivation
	stageWorking
	stageWorkHours
	stageKids
	stageKidsCount
	stageSchoolStart
	stageSchoolEnd
	stageGym
	stageTaskTitle
	stageTaskTime
	stageTaskCategory
	stageMeals
)

const (
	cbDonePrefix   = "done:"
	cbAlarmPrefix  = "alarm:"
	cbDeletePrefix = "delete:"
	cbSharePrefix  = "share:"
	cbDayPrefix    = "day:"
)

const (
	btnSkip         = "⏭️ Skip"
	btnYes          = "Yes"
	btnNo           = "No"
	btnConfirm      = "✅ Confirm"
	btnCancel       = "↩️ Cancel"
	btnCancelDialog = "⏪ Stop input"
	menuLabelToday  = "📅 Today"
	menuLabelWeek   = "🗓 Week"
	menuLabelAdd    = "➕ Add task"
	menuLabelHelp   = "ℹ️ Help"
)

type conversationState struct {
	stage   conversationStage
	day     int
	title   string
	hhmm    string
	profile *model.Profile
}

type confirmationAction int

const (
	actionDelete confirmationAction = iota
	actionReset
)

type confirmationRequest struct {
	day    int
	taskID string
	action confirmationAction
}

// API is the part of the Telegram bot client the front-end needs.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot connects the Telegram chat to the session.
type Bot struct {
	api           API
	session       *service.SessionService
	notifier      *notify.TelegramNotifier
	loc           *time.Location
	log           *zap.Logger
	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
	mu            sync.Mutex
}

func New(api API, session *service.SessionService, notifier *notify.TelegramNotifier, loc *time.Location, log *zap.Logger) *Bot {
	if loc == nil {
		loc = time.Local
	}
	return &Bot{
		api:           api,
		session:       session,
		notifier:      notifier,
		loc:           loc,
		log:           log,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.log.Error("handle callback", zap.Error(err))
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.log.Error("handle message", zap.Error(err))
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		b.log.Info("command received",
			zap.Int64("user_id", msg.From.ID),
			zap.String("command", msg.Command()),
			zap.String("args", msg.CommandArguments()),
		)
		return b.handleCommand(ctx, msg)
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Try /today, /add or /help.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "today":
		return b.sendDay(msg.Chat.ID, 0)
	case "day":
		day, err := parseDayArg(msg.CommandArguments())
		if err != nil {
			return b.sendText(msg.Chat.ID, "Pick a day from 1 to 7, for example /day 3")
		}
		return b.sendDay(msg.Chat.ID, day)
	case "week":
		return b.sendWeek(msg.Chat.ID)
	case "add":
		return b.startAddTask(msg)
	case "meals":
		return b.startMeals(msg)
	case "leadtime":
		return b.handleLeadTime(ctx, msg)
	case "notify":
		return b.handleNotify(ctx, msg)
	case "briefing":
		return b.sendText(msg.Chat.ID, b.briefingText())
	case "reset":
		b.setConfirmation(msg.From.ID, confirmationRequest{action: actionReset})
		return b.sendWithReplyMarkup(msg.Chat.ID, "Delete your profile and schedule? This cannot be undone.", confirmKeyboard())
	case "cancel":
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

// handleStart binds the chat for alerts and starts onboarding when there is no schedule.
func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if b.notifier != nil {
		b.notifier.SetChatID(msg.Chat.ID)
		if _, err := b.notifier.RequestPermission(ctx); err != nil {
			b.log.Warn("request notification permission", zap.Error(err))
		}
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "friend"
	}

	if b.session.Active() {
		text := fmt.Sprintf("👋 Welcome back, %s!\nYour week is ready. Use /today or /week.", escape(name))
		if err := b.sendText(msg.Chat.ID, text); err != nil {
			return err
		}
		return b.sendDay(msg.Chat.ID, 0)
	}

	b.setConversation(msg.From.ID, &conversationState{stage: stageName, profile: &model.Profile{}})
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I am SyncLife, I plan your whole week around work, family and faith.</b>\n\n<b>Step 1:</b> what should I call you?", escape(name))
	return b.sendWithReplyMarkup(msg.Chat.ID, text, cancelKeyboard())
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Commands</b>\n" +
		"• /start — onboarding and alert setup\n" +
		"• /today — today's tasks with buttons\n" +
		"• /day &lt;1-7&gt; — one day of the week\n" +
		"• /week — the whole week at a glance\n" +
		"• /add [day] — add a task step by step\n" +
		"• /meals [day] — change the meals of a day\n" +
		"• /leadtime &lt;0|5|10|15|30&gt; — alarm lead time\n" +
		"• /notify — allow reminder messages\n" +
		"• /briefing — send the daily briefing now\n" +
		"• /reset — delete everything and start over\n" +
		"• /cancel — stop the current input"
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) startAddTask(msg *tgbotapi.Message) error {
	if !b.session.Active() {
		return b.sendText(msg.Chat.ID, "There is no schedule yet. Send /start first.")
	}
	day := 0
	if args := strings.TrimSpace(msg.CommandArguments()); args != "" {
		parsed, err := parseDayArg(args)
		if err != nil {
			return b.sendText(msg.Chat.ID, "Pick a day from 1 to 7, for example /add 2")
		}
		day = parsed
	}
	b.setConversation(msg.From.ID, &conversationState{stage: stageTaskTitle, day: day})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what is it?", cancelKeyboard())
}

func (b *Bot) startMeals(msg *tgbotapi.Message) error {
	if !b.session.Active() {
		return b.sendText(msg.Chat.ID, "There is no schedule yet. Send /start first.")
	}
	day := 0
	if args := strings.TrimSpace(msg.CommandArguments()); args != "" {
		parsed, err := parseDayArg(args)
		if err != nil {
			return b.sendText(msg.Chat.ID, "Pick a day from 1 to 7, for example /meals 4")
		}
		day = parsed
	}
	b.setConversation(msg.From.ID, &conversationState{stage: stageMeals, day: day})
	return b.sendWithReplyMarkup(msg.Chat.ID,
		"🍽 Send four meals separated by <code>;</code>\n<code>breakfast; lunch; dinner; snack</code>", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	if state.stage >= stageName && state.stage <= stageGym {
		return b.handleOnboardingStep(ctx, msg, state, text)
	}

	switch state.stage {
	case stageTaskTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The task needs a title.", cancelKeyboard())
		}
		state.title = text
		state.stage = stageTaskTime
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏰ At what time? Use <code>HH:MM</code>, e.g. <code>07:30</code>.", cancelKeyboard())
	case stageTaskTime:
		if !model.IsClock(text) {
			return b.sendWithReplyMarkup(msg.Chat.ID, "I need the time as <code>HH:MM</code>, e.g. <code>18:00</code>.", cancelKeyboard())
		}
		state.hhmm = text
		state.stage = stageTaskCategory
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 Pick a category.", categoryKeyboard())
	case stageTaskCategory:
		category := model.Category(strings.ToLower(stripIcon(text)))
		if !category.Valid() {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Pick one of the categories below.", categoryKeyboard())
		}
		b.clearConversation(msg.From.ID)
		return b.finishAddTask(ctx, msg.Chat.ID, state.day, state.title, state.hhmm, category)
	case stageMeals:
		meals, ok := parseMeals(text)
		if !ok {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Send exactly four meals: <code>breakfast; lunch; dinner; snack</code>", cancelKeyboard())
		}
		b.clearConversation(msg.From.ID)
		if err := b.session.UpdateMeals(ctx, state.day, meals); err != nil {
			return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not save the meals: %s", escape(err.Error())))
		}
		if err := b.sendTextWithRemove(msg.Chat.ID, "🍽 Meals updated."); err != nil {
			return err
		}
		return b.sendDay(msg.Chat.ID, state.day)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Input reset. Try again.")
	}
}

func (b *Bot) finishAddTask(ctx context.Context, chatID int64, day int, title, hhmm string, category model.Category) error {
	task, err := b.session.AddTask(ctx, day, title, hhmm, category)
	if err != nil {
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Could not save the task: %s", escape(err.Error())))
	}
	if task == nil {
		return b.sendTextWithRemove(chatID, "Nothing to add.")
	}

	b.log.Info("task added", zap.String("task_id", task.ID), zap.Int("day", day), zap.String("time", task.Time))
	text := fmt.Sprintf("✅ <b>%s</b> added at %s.", escape(normalizeTitle(task.Title)), task.Time)
	if err := b.sendTextWithRemove(chatID, text); err != nil {
		return err
	}
	return b.sendDay(chatID, day)
}

func (b *Bot) handleLeadTime(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		profile, _ := b.session.Snapshot()
		if profile == nil {
			return b.sendText(msg.Chat.ID, "There is no profile yet. Send /start first.")
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Alarm lead time: %d min. Change it with /leadtime 10 (0, 5, 10, 15 or 30).", profile.LeadTime()))
	}

	minutes, err := strconv.Atoi(args)
	if err != nil || !model.IsAllowedLeadTime(minutes) {
		return b.sendText(msg.Chat.ID, "Lead time must be one of 0, 5, 10, 15 or 30 minutes.")
	}
	if err := b.session.SetLeadTime(ctx, minutes); err != nil {
		if errors.Is(err, service.ErrNoProfile) {
			return b.sendText(msg.Chat.ID, "There is no profile yet. Send /start first.")
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("⏱ Lead time set to %d min.", minutes))
}

func (b *Bot) handleNotify(ctx context.Context, msg *tgbotapi.Message) error {
	if b.notifier == nil {
		return b.sendText(msg.Chat.ID, "Reminders are not available.")
	}
	b.notifier.SetChatID(msg.Chat.ID)
	granted, err := b.notifier.RequestPermission(ctx)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}
	if !granted {
		return b.sendText(msg.Chat.ID, "🔕 I cannot message this chat, reminders stay in the log.")
	}
	return b.sendText(msg.Chat.ID, "🔔 Reminders are on for this chat.")
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		if req.action == actionReset {
			return b.resetSession(ctx, msg.Chat.ID)
		}
		return b.deleteTaskAndRefresh(ctx, msg.Chat.ID, req.day, req.taskID)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendMenuPlaceholder(msg.Chat.ID)
	default:
		prompt := "Confirm or cancel the deletion."
		if req.action == actionReset {
			prompt = "Confirm or cancel the reset."
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, prompt, confirmKeyboard())
	}
}

func (b *Bot) resetSession(ctx context.Context, chatID int64) error {
	if err := b.session.ClearSession(ctx); err != nil {
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Could not reset: %s", escape(err.Error())))
	}
	b.log.Info("session reset", zap.Int64("chat_id", chatID))
	return b.sendTextWithRemove(chatID, "🧹 Everything is deleted. Send /start to plan a new week.")
}

// SendDailyBriefing sends today's summary to the chat bound for alerts.
func (b *Bot) SendDailyBriefing(ctx context.Context) error {
	if b.notifier == nil || b.notifier.ChatID() == 0 {
		b.log.Debug("daily briefing skipped, no chat bound")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.sendText(b.notifier.ChatID(), b.briefingText())
}

func (b *Bot) briefingText() string {
	_, week := b.session.Snapshot()
	return service.DailySummary(week, time.Now().In(b.loc))
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendTextWithRemove(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	if _, err := b.api.Send(msg); err != nil {
		return err
	}
	return b.sendMenuPlaceholder(chatID)
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendMenuPlaceholder(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "🔹 Main menu")
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
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

// sendDay renders one day with a button row per task.
func (b *Bot) sendDay(chatID int64, day int) error {
	_, week := b.session.Snapshot()
	if week == nil {
		return b.sendText(chatID, "There is no schedule yet. Send /start first.")
	}
	plan := week.Day(day)
	if plan == nil {
		return b.sendText(chatID, "Pick a day from 1 to 7.")
	}

	var builder strings.Builder
	bell := ""
	if plan.HasAlarms() {
		bell = " 🔔"
	}
	builder.WriteString(fmt.Sprintf("📅 <b>%s</b> · %d%% done%s\n", escape(plan.Date), plan.Progress(), bell))
	builder.WriteString(fmt.Sprintf("💬 <i>%s</i>\n", escape(plan.MotivationQuote)))
	builder.WriteString(syncLabel(b.session.SyncStatus()))
	builder.WriteString("\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	if len(plan.Tasks) == 0 {
		builder.WriteString("— nothing planned, add something with /add\n")
	}
	for _, task := range plan.Tasks {
		builder.WriteString(service.FormatTaskLine(task))

		doneIcon := "⬜️"
		if task.Completed {
			doneIcon = "✅"
		}
		alarmIcon := "🔕"
		if task.AlarmEnabled {
			alarmIcon = "🔔"
		}
		ref := taskRef(day, task.ID)
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s %s %s", doneIcon, task.Time, shortTitle(task.Title, 18)), cbDonePrefix+ref),
			tgbotapi.NewInlineKeyboardButtonData(alarmIcon, cbAlarmPrefix+ref),
			tgbotapi.NewInlineKeyboardButtonData("📤", cbSharePrefix+ref),
			tgbotapi.NewInlineKeyboardButtonData("🗑", cbDeletePrefix+ref),
		))
	}

	m := plan.Meals
	builder.WriteString(fmt.Sprintf("\n🍽 %s · %s · %s · %s",
		escape(m.Breakfast), escape(m.Lunch), escape(m.Dinner), escape(m.Snack)))

	var nav []tgbotapi.InlineKeyboardButton
	if day > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("◀️", fmt.Sprintf("%s%d", cbDayPrefix, day-1)))
	}
	if day < len(week.Plans)-1 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("▶️", fmt.Sprintf("%s%d", cbDayPrefix, day+1)))
	}
	if len(nav) > 0 {
		buttons = append(buttons, nav)
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ParseMode = tgbotapi.ModeHTML
	if len(buttons) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	}
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWeek(chatID int64) error {
	_, week := b.session.Snapshot()
	if week == nil {
		return b.sendText(chatID, "There is no schedule yet. Send /start first.")
	}

	var builder strings.Builder
	builder.WriteString("🗓 <b>Your week</b>\n")
	var buttons [][]tgbotapi.InlineKeyboardButton
	for i, plan := range week.Plans {
		builder.WriteString(fmt.Sprintf("%d. %s · %d tasks · %d%% done\n", i+1, escape(plan.Date), len(plan.Tasks), plan.Progress()))
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(plan.Date, fmt.Sprintf("%s%d", cbDayPrefix, i)),
		))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}

	data := cb.Data
	chatID := cb.Message.Chat.ID
	b.log.Debug("callback received", zap.Int64("user_id", cb.From.ID), zap.String("data", data))

	switch {
	case strings.HasPrefix(data, cbDayPrefix):
		b.ack(cb, "")
		day, err := strconv.Atoi(strings.TrimPrefix(data, cbDayPrefix))
		if err != nil {
			return nil
		}
		return b.sendDay(chatID, day)
	case strings.HasPrefix(data, cbDonePrefix):
		b.ack(cb, "")
		day, id, err := parseTaskRef(data, cbDonePrefix)
		if err != nil {
			return nil
		}
		if err := b.session.ToggleTaskCompletion(ctx, day, id); err != nil {
			return b.sendText(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
		}
		return b.sendDay(chatID, day)
	case strings.HasPrefix(data, cbAlarmPrefix):
		b.ack(cb, "")
		day, id, err := parseTaskRef(data, cbAlarmPrefix)
		if err != nil {
			return nil
		}
		if err := b.session.ToggleAlarm(ctx, day, id); err != nil {
			return b.sendText(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
		}
		return b.sendDay(chatID, day)
	case strings.HasPrefix(data, cbSharePrefix):
		day, id, err := parseTaskRef(data, cbSharePrefix)
		if err != nil {
			b.ack(cb, "")
			return nil
		}
		res, err := b.session.ShareTask(ctx, day, id)
		switch {
		case errors.Is(err, notify.ErrShareUnavailable):
			b.ack(cb, "Sharing is not available here")
		case err != nil:
			b.ack(cb, "Task not found")
		case res == notify.ShareCopied:
			b.ack(cb, "Copied to clipboard")
		default:
			b.ack(cb, "Shared")
		}
		return nil
	case strings.HasPrefix(data, cbDeletePrefix):
		b.ack(cb, "")
		day, id, err := parseTaskRef(data, cbDeletePrefix)
		if err != nil {
			return nil
		}
		return b.askDeleteConfirmation(chatID, cb.From.ID, day, id)
	default:
		b.ack(cb, "")
		return nil
	}
}

func (b *Bot) ack(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		b.log.Warn("callback ack", zap.Error(err))
	}
}

func (b *Bot) askDeleteConfirmation(chatID, userID int64, day int, taskID string) error {
	task, ok := b.findTask(day, taskID)
	if !ok {
		return b.sendText(chatID, "Task not found.")
	}
	text := fmt.Sprintf("Delete \"%s\" at %s?", escape(normalizeTitle(task.Title)), task.Time)
	b.setConfirmation(userID, confirmationRequest{day: day, taskID: taskID, action: actionDelete})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) deleteTaskAndRefresh(ctx context.Context, chatID int64, day int, taskID string) error {
	task, ok := b.findTask(day, taskID)
	if !ok {
		return b.sendTextWithRemove(chatID, "Task not found or already deleted.")
	}
	if err := b.session.DeleteTask(ctx, day, taskID); err != nil {
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}

	b.log.Info("task deleted", zap.String("task_id", taskID), zap.Int("day", day))
	if err := b.sendTextWithRemove(chatID, fmt.Sprintf("🗑 \"%s\" deleted.", escape(normalizeTitle(task.Title)))); err != nil {
		return err
	}
	return b.sendDay(chatID, day)
}

func (b *Bot) findTask(day int, taskID string) (model.Task, bool) {
	_, week := b.session.Snapshot()
	plan := week.Day(day)
	if plan == nil {
		return model.Task{}, false
	}
	i := plan.TaskIndex(taskID)
	if i < 0 {
		return model.Task{}, false
	}
	return plan.Tasks[i], true
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelToday):
		return true, b.sendDay(msg.Chat.ID, 0)
	case strings.ToLower(menuLabelWeek):
		return true, b.sendWeek(msg.Chat.ID)
	case strings.ToLower(menuLabelAdd):
		return true, b.startAddTask(msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func taskRef(day int, taskID string) string {
	return fmt.Sprintf("%d:%s", day, taskID)
}

func parseTaskRef(data, prefix string) (int, string, error) {
	raw := strings.TrimPrefix(data, prefix)
	dayPart, id, ok := strings.Cut(raw, ":")
	if !ok || id == "" {
		return 0, "", fmt.Errorf("malformed task ref %q", raw)
	}
	day, err := strconv.Atoi(dayPart)
	if err != nil {
		return 0, "", err
	}
	return day, id, nil
}

// parseDayArg turns a 1-7 day number into a day index.
func parseDayArg(args string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil || n < 1 || n > model.DaysPerWeek {
		return 0, fmt.Errorf("day must be 1-%d", model.DaysPerWeek)
	}
	return n - 1, nil
}

func parseMeals(text string) (model.Meals, bool) {
	parts := strings.Split(text, ";")
	if len(parts) != 4 {
		return model.Meals{}, false
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return model.Meals{}, false
		}
	}
	return model.Meals{Breakfast: parts[0], Lunch: parts[1], Dinner: parts[2], Snack: parts[3]}, true
}

func syncLabel(s service.SyncStatus) string {
	if s == service.StatusSyncing {
		return "🔄 Syncing…"
	}
	return "☁️ Synced"
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	clean = normalizeTitle(clean)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelToday),
			tgbotapi.NewKeyboardButton(menuLabelWeek),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelAdd),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func yesNoKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnYes),
			tgbotapi.NewKeyboardButton(btnNo),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func motivationKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(string(model.MotivationAffirmation)),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(string(model.MotivationAggressive)),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func categoryKeyboard() tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	var row []tgbotapi.KeyboardButton
	for _, c := range model.Categories {
		row = append(row, tgbotapi.NewKeyboardButton(categoryLabel(c)))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)))
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
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

func parseYesNo(text string) (bool, bool) {
	switch strings.TrimSpace(strings.ToLower(text)) {
	case "yes", "y", strings.ToLower(btnYes):
		return true, true
	case "no", "n", "-", strings.ToLower(btnNo):
		return false, true
	default:
		return false, false
	}
}

func escape(s string) string {
	return html.EscapeString(s)
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func categoryLabel(c model.Category) string {
	var icon string
	switch c {
	case model.CategoryWork:
		icon = "💼"
	case model.CategoryGym:
		icon = "🏋️"
	case model.CategoryFamily:
		icon = "👨‍👩‍👧"
	case model.CategoryPersonal:
		icon = "🧩"
	case model.CategoryMedical:
		icon = "🩺"
	case model.CategoryMeal:
		icon = "🍽"
	default:
		icon = "🏷️"
	}
	return fmt.Sprintf("%s %s", icon, c)
}

// stripIcon drops a leading emoji label so "💼 work" reads as "work".
func stripIcon(text string) string {
	if _, rest, ok := strings.Cut(strings.TrimSpace(text), " "); ok {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(text)
}
