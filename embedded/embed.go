// Package embedded содержит встроенные ресурсы приложения.
package embedded

import (
	"embed"
)

// Locales - каталоги сообщений бота, по файлу на язык (locales/<lang>.yaml).
//
//go:embed locales/*.yaml
var Locales embed.FS
