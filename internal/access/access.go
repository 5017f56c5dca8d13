// Package access проверяет отправителя по списку разрешённых идентификаторов.
package access

import (
	"errors"
	"strconv"
	"strings"
)

// ErrNoValidIDs - список не пуст, но ни один ID не разобран.
// Такой список нельзя превращать в пустой, иначе бот откроется для всех.
var ErrNoValidIDs = errors.New("allow-list has no valid ids")

// Allowlist неизменяемый набор разрешённых user/chat ID.
// Пустой список разрешает всех.
type Allowlist struct {
	ids map[int64]struct{}
}

// New создаёт Allowlist из идентификаторов.
func New(ids ...int64) Allowlist {
	a := Allowlist{ids: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		if id == 0 {
			continue
		}
		a.ids[id] = struct{}{}
	}
	return a
}

// Parse разбирает список ID через запятую.
// Возвращает корректные ID и токены, которые не удалось разобрать.
// Если токены есть, но все отклонены, возвращает ErrNoValidIDs.
func Parse(list string) (ids []int64, rejected []string, err error) {
	for _, tok := range strings.Split(list, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		id, err := strconv.ParseInt(tok, 10, 64)
		if err != nil || id == 0 {
			rejected = append(rejected, tok)
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 && len(rejected) > 0 {
		return nil, rejected, ErrNoValidIDs
	}
	return ids, rejected, nil
}

// Empty возвращает true если ограничений нет.
func (a Allowlist) Empty() bool {
	return len(a.ids) == 0
}

// Len возвращает количество идентификаторов.
func (a Allowlist) Len() int {
	return len(a.ids)
}

// Allowed проверяет пользователя и чат. Нулевой ID означает отсутствие
// отправителя или чата и никогда не совпадает.
func (a Allowlist) Allowed(userID, chatID int64) bool {
	if a.Empty() {
		return true
	}
	if userID != 0 {
		if _, ok := a.ids[userID]; ok {
			return true
		}
	}
	if chatID != 0 {
		if _, ok := a.ids[chatID]; ok {
			return true
		}
	}
	return false
}
