package bot

import (
	"context"
	"runtime/debug"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// DefaultPollTimeout - таймаут long polling в секундах.
const DefaultPollTimeout = 60

// Poller - источник обновлений, *tgbotapi.BotAPI.
type Poller interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot читает обновления и передаёт их обработчику строго по одному.
type Bot struct {
	poller  Poller
	handler *Handler
	timeout int
	log     logrus.FieldLogger
}

// New создаёт Bot.
func New(poller Poller, handler *Handler, log logrus.FieldLogger) *Bot {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Bot{
		poller:  poller,
		handler: handler,
		timeout: DefaultPollTimeout,
		log:     log,
	}
}

// Run обрабатывает обновления, пока не отменён ctx или не закрыт канал.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.timeout

	updates := b.poller.GetUpdatesChan(u)
	defer b.poller.StopReceivingUpdates()

	b.log.Info("бот запущен, ожидание сообщений")

	for {
		select {
		case <-ctx.Done():
			b.log.Info("бот остановлен")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handle(ctx, update)
		}
	}
}

// handle защищает цикл от паники в обработчике.
func (b *Bot) handle(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.WithFields(logrus.Fields{
				"update_id": update.UpdateID,
				"panic":     r,
				"stack":     string(debug.Stack()),
			}).Error("паника при обработке обновления")
		}
	}()

	b.handler.HandleUpdate(ctx, update)
}
