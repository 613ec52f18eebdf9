package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"match-predictor/config"
	"match-predictor/internal/clock"
	"match-predictor/internal/handlers"
	"match-predictor/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Bot serves the chat commands of players and administrators. It keeps no
// conversation state: every command carries all of its arguments.
type Bot struct {
	API      *tgbotapi.BotAPI
	Config   *config.Config
	Handlers *handlers.Set
	Zone     *clock.Zone
	Clock    clock.Clock
	Log      *logrus.Entry

	commands []command
}

// New builds a bot without a Telegram connection. Reply works on it.
func New(cfg *config.Config, set *handlers.Set, base models.Handler) *Bot {
	b := &Bot{
		Config:   cfg,
		Handlers: set,
		Zone:     base.Zone,
		Clock:    base.Clock,
		Log:      base.Log.WithField("component", "bot"),
	}
	b.commands = b.routes()
	return b
}

// NewBot logs in to Telegram with the configured token.
func NewBot(cfg *config.Config, set *handlers.Set, base models.Handler) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TgApiToken)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	b := New(cfg, set, base)
	b.API = api
	return b, nil
}

// Run consumes updates until ctx is done.
func (b *Bot) Run(ctx context.Context) {
	b.Log.WithField("account", b.API.Self.UserName).Info("bot authorized")
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.API.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.API.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				go b.handleMessage(update.Message)
			}
		}
	}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	var username string
	if msg.From != nil {
		username = msg.From.UserName
	}
	b.sendMessage(msg.Chat.ID, b.Reply(msg.Chat.ID, username, msg.Text))
}

// Reply runs one command line sent from chatID and returns the answer.
func (b *Bot) Reply(chatID int64, username, text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "Send /start to see the commands."
	}
	name := strings.ToLower(strings.SplitN(fields[0], "@", 2)[0])

	cmd, ok := b.find(name)
	if !ok {
		return "Unknown command. Send /start to see the commands."
	}
	if cmd.admin && !b.Config.IsAdmin(chatID) {
		return "You don't have permission to run this command."
	}
	c := call{chatID: chatID, username: username, args: fields[1:]}
	if len(c.args) < cmd.minArgs {
		return "Usage: " + cmd.usage
	}

	out, err := cmd.run(b, c)
	if errors.Is(err, errUsage) {
		return "Usage: " + cmd.usage
	}
	if err != nil {
		return b.errorText(err, name, chatID)
	}
	return out
}

func (b *Bot) find(name string) (command, bool) {
	for _, cmd := range b.commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

// errorText turns a failed command into the message the chat sees.
// Integrity violations are logged and never described to the user.
func (b *Bot) errorText(err error, name string, chatID int64) string {
	log := b.Log.WithError(err).WithFields(logrus.Fields{"chat": chatID, "command": name})
	if models.IsIntegrity(err) {
		log.Error("stored data is inconsistent")
		return "⚠️ Something went wrong on our side. Please try again later."
	}
	reason := models.Reason(err)
	if reason == nil {
		log.Error("command failed")
		return "⚠️ Something went wrong on our side. Please try again later."
	}
	log.Warn("command rejected")
	if text, ok := messages[reason]; ok {
		return "❌ " + text
	}
	return "❌ " + sentence(reason.Error())
}

var messages = map[error]string{
	models.ErrPlayerNotFound:  "You are not registered yet. Use /register <username>.",
	models.ErrDeadlinePassed:  "The prediction deadline for this round has passed.",
	models.ErrDeciderRequired: "The result is level. Add the team id of the penalty winner.",
	models.ErrRoundNotFound:   "There is no such round. See /rounds.",
	models.ErrMatchNotFound:   "There is no such match. See /matches.",
	models.ErrTeamNotFound:    "There is no such team. See /teams.",
}

func sentence(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:] + "."
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.API.Send(msg); err != nil {
		b.Log.WithError(err).WithField("chat", chatID).Error("send message")
	}
}
