package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"synclife/internal/model"
	"synclife/internal/planner"
)

const generationFailedText = "⚠️ I could not build your schedule this time. Send /start to try again."

// handleOnboardingStep walks the short questionnaire. Fields the chat does not ask
// for keep their zero values and the prompt defaults cover them.
func (b *Bot) handleOnboardingStep(ctx context.Context, msg *tgbotapi.Message, state *conversationState, text string) error {
	p := state.profile
	chatID := msg.Chat.ID

	switch state.stage {
	case stageName:
		if text == "" {
			return b.sendWithReplyMarkup(chatID, "I need a name to continue.", cancelKeyboard())
		}
		p.Name = text
		state.stage = stageMotivation
		return b.sendWithReplyMarkup(chatID, "💬 How should I motivate you?", motivationKeyboard())
	case stageMotivation:
		style := model.MotivationStyle(text)
		if style != model.MotivationAffirmation && style != model.MotivationAggressive {
			return b.sendWithReplyMarkup(chatID, "Pick one of the two styles below.", motivationKeyboard())
		}
		p.MotivationStyle = style
		state.stage = stageWorking
		return b.sendWithReplyMarkup(chatID, "💼 Do you work?", yesNoKeyboard())
	case stageWorking:
		yes, ok := parseYesNo(text)
		if !ok {
			return b.sendWithReplyMarkup(chatID, "Answer Yes or No.", yesNoKeyboard())
		}
		p.IsWorking = yes
		if yes {
			state.stage = stageWorkHours
			return b.sendWithReplyMarkup(chatID, "🕘 What are your work hours? For example <code>9 AM - 5 PM</code> (or Skip).", skipKeyboard())
		}
		state.stage = stageKids
		return b.sendWithReplyMarkup(chatID, "👨‍👩‍👧 Do you have kids?", yesNoKeyboard())
	case stageWorkHours:
		if !isSkipInput(text) {
			p.WorkHours = text
		}
		state.stage = stageKids
		return b.sendWithReplyMarkup(chatID, "👨‍👩‍👧 Do you have kids?", yesNoKeyboard())
	case stageKids:
		yes, ok := parseYesNo(text)
		if !ok {
			return b.sendWithReplyMarkup(chatID, "Answer Yes or No.", yesNoKeyboard())
		}
		p.HasKids = yes
		if yes {
			p.KidsDetails = &model.KidsDetails{Count: 1, SchoolStart: "08:00", SchoolEnd: "15:00"}
			state.stage = stageKidsCount
			return b.sendWithReplyMarkup(chatID, "How many children?", tgbotapi.NewRemoveKeyboard(true))
		}
		state.stage = stageGym
		return b.sendWithReplyMarkup(chatID, "🏋️ Do you go to the gym?", yesNoKeyboard())
	case stageKidsCount:
		n, err := strconv.Atoi(text)
		if err != nil || n < 1 || n > 20 {
			return b.sendText(chatID, "Send a number from 1 to 20.")
		}
		p.KidsDetails.SetCount(n)
		state.stage = stageSchoolStart
		return b.sendWithReplyMarkup(chatID, "🏫 When does school start? <code>HH:MM</code>", cancelKeyboard())
	case stageSchoolStart:
		if !model.IsClock(text) {
			return b.sendWithReplyMarkup(chatID, "Use <code>HH:MM</code>, e.g. <code>08:15</code>.", cancelKeyboard())
		}
		p.KidsDetails.SchoolStart = text
		state.stage = stageSchoolEnd
		return b.sendWithReplyMarkup(chatID, "🔔 When does school end? <code>HH:MM</code>", cancelKeyboard())
	case stageSchoolEnd:
		if !model.IsClock(text) {
			return b.sendWithReplyMarkup(chatID, "Use <code>HH:MM</code>, e.g. <code>15:30</code>.", cancelKeyboard())
		}
		p.KidsDetails.SchoolEnd = text
		state.stage = stageGym
		return b.sendWithReplyMarkup(chatID, "🏋️ Do you go to the gym?", yesNoKeyboard())
	case stageGym:
		yes, ok := parseYesNo(text)
		if !ok {
			return b.sendWithReplyMarkup(chatID, "Answer Yes or No.", yesNoKeyboard())
		}
		p.GoesToGym = yes
		b.clearConversation(msg.From.ID)
		return b.finishOnboarding(ctx, chatID, p)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(chatID, "Onboarding reset. Send /start again.")
	}
}

func (b *Bot) finishOnboarding(ctx context.Context, chatID int64, p *model.Profile) error {
	if err := b.sendTextWithRemove(chatID, "⏳ Building your week, this can take a minute..."); err != nil {
		return err
	}

	week, err := b.session.Onboard(ctx, p)
	switch {
	case errors.Is(err, planner.ErrContentGeneration):
		return b.sendText(chatID, generationFailedText)
	case errors.Is(err, model.ErrInvalidProfile):
		return b.sendText(chatID, fmt.Sprintf("Some answers did not fit: %s. Send /start to try again.", escape(err.Error())))
	case err != nil:
		return b.sendText(chatID, fmt.Sprintf("Could not save your plan: %s", escape(err.Error())))
	}

	b.log.Info("onboarding finished", zap.Int64("chat_id", chatID), zap.Int("days", len(week.Plans)))
	return b.sendDay(chatID, 0)
}
