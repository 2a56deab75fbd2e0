// redact маскирует чувствительные данные перед записью в лог:
// идентификатор аккаунта, пароль и выданные токены.
package redact

import "strings"

// Email маскирует e-mail для логирования.
//
// Правила:
//   - строка должна содержать ровно один '@', иначе возвращается "***";
//   - от локальной части остаются первые два символа (по рунам) + "***";
//   - если локальная часть короче трёх символов — "***@<domain>";
//   - домен возвращается как есть.
//
// Примеры:
//
//	"foobar@example.com" -> "fo***@example.com"
//	"ab@ex.com"          -> "***@ex.com"
//	"no-at"              -> "***"
func Email(s string) string {
	if strings.Count(s, "@") != 1 {
		return "***"
	}

	i := strings.IndexByte(s, '@')
	local, domain := s[:i], s[i+1:]

	lr := []rune(local)
	if len(lr) > 2 {
		local = string(lr[:2]) + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Token оставляет от токена только последние 4 символа, и то лишь для
// достаточно длинных значений.
func Token(s string) string {
	const tail = 4

	if len(s) < 16 {
		return "[REDACTED_TOKEN]"
	}

	return "[REDACTED_TOKEN …" + s[len(s)-tail:] + "]"
}

// Password возвращает литерал-заглушку для пароля в логах.
func Password() string { return "[REDACTED_PASSWORD]" }
