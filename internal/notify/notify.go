// Package notify отправляет ответы бота на входящее сообщение.
package notify

import (
	"strings"
	"unicode"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"algranobot/internal/i18n"
)

// MaxMessageLength - лимит Telegram на длину текста сообщения в единицах UTF-16.
const MaxMessageLength = 4096

// Sender - часть *tgbotapi.BotAPI, нужная для ответов.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Notifier отвечает в чат на одно входящее сообщение.
type Notifier struct {
	api     Sender
	chatID  int64
	replyTo int
	log     logrus.FieldLogger
}

// New создаёт Notifier для сообщения replyTo в чате chatID.
func New(api Sender, chatID int64, replyTo int, log logrus.FieldLogger) *Notifier {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Notifier{api: api, chatID: chatID, replyTo: replyTo, log: log}
}

// Processing отправляет заглушку "распознаю" и возвращает её ID.
// Ноль означает, что заглушку отправить не удалось.
func (n *Notifier) Processing() int {
	msg, err := n.send(i18n.T("processing"))
	if err != nil {
		return 0
	}
	_, _ = n.api.Request(tgbotapi.NewChatAction(n.chatID, tgbotapi.ChatTyping))
	return msg.MessageID
}

// Success отправляет распознанный текст как есть, разбивая длинный на части.
func (n *Notifier) Success(text string) error {
	parts := SplitText(text, MaxMessageLength)
	if len(parts) == 0 {
		n.Empty()
		return nil
	}
	for _, part := range parts {
		if _, err := n.send(part); err != nil {
			return err
		}
	}
	return nil
}

// Empty сообщает, что речь не найдена.
func (n *Notifier) Empty() {
	n.Info(i18n.T("no_speech"))
}

// Error отправляет сообщение об ошибке.
func (n *Notifier) Error(msg string) {
	n.Info(msg)
}

// Info отправляет служебное сообщение.
func (n *Notifier) Info(msg string) {
	// Ошибка уже залогирована в send
	_, _ = n.send(msg)
}

// Delete удаляет сообщение бота, например заглушку.
func (n *Notifier) Delete(messageID int) {
	if messageID == 0 {
		return
	}
	if _, err := n.api.Request(tgbotapi.NewDeleteMessage(n.chatID, messageID)); err != nil {
		n.log.WithError(err).WithField("message_id", messageID).Warn("не удалось удалить сообщение")
	}
}

func (n *Notifier) send(text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if n.replyTo != 0 {
		msg.ReplyToMessageID = n.replyTo
	}

	sent, err := n.api.Send(msg)
	if err != nil {
		n.log.WithError(err).Error("не удалось отправить сообщение")
	}
	return sent, err
}

// SplitText режет text на части не длиннее limit единиц UTF-16,
// так Telegram считает длину сообщения. Разрез ставится после последнего
// пробела во второй половине окна, иначе ровно по limit. Части из одних
// пробелов пропускаются, остальные склеиваются в исходный текст.
func SplitText(text string, limit int) []string {
	runes := []rune(text)
	if limit <= 0 || utf16Len(runes) <= limit {
		return []string{text}
	}

	var parts []string
	for len(runes) > 0 {
		end, units, space := 0, 0, 0
		for end < len(runes) {
			n := runeUnits(runes[end])
			if units+n > limit {
				break
			}
			units += n
			end++
			if units > limit/2 && unicode.IsSpace(runes[end-1]) {
				space = end
			}
		}

		cut := end
		if end < len(runes) && space > 0 {
			cut = space
		}
		if cut == 0 {
			// Суррогатная пара длиннее limit
			cut = 1
		}

		if part := string(runes[:cut]); strings.TrimSpace(part) != "" {
			parts = append(parts, part)
		}
		runes = runes[cut:]
	}
	return parts
}

func runeUnits(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}

func utf16Len(runes []rune) int {
	total := 0
	for _, r := range runes {
		total += runeUnits(r)
	}
	return total
}
