// Algranobot - Telegram бот, который расшифровывает голосовые сообщения
// и аудиофайлы локальной моделью распознавания речи.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
