// identity вычисляет детерминированный идентификатор устройства по
// идентификатору аккаунта.
//
// Идентификатор не хранится: он пересчитывается для каждого запроса,
// и оба шага рукопожатия (запрос ключа и вход) обязаны использовать
// одну и ту же функцию DeviceID.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
)

// DefaultPrefix — литерал, с которого начинается идентификатор устройства.
const DefaultPrefix = "ACCT"

// digestChars — сколько hex-символов дайджеста интерпретируется как число.
const digestChars = 8

// ErrParse — hex-префикс дайджеста не помещается в знаковое 32-битное целое.
// Переполнение — жёсткая ошибка: рукопожатие прерывается, значение не усекается.
var ErrParse = errors.New("device id: digest prefix does not fit int32")

// DeviceID возвращает prefix + десятичное представление первых 8 hex-символов
// SHA-256(account), прочитанных как знаковое int32.
func DeviceID(prefix, account string) (string, error) {
	const op = "identity.DeviceID"

	sum := sha256.Sum256([]byte(account))
	head := hex.EncodeToString(sum[:])[:digestChars]

	v, err := strconv.ParseInt(head, 16, 32)
	if err != nil {
		return "", fmt.Errorf("%s: %q: %w", op, head, errors.Join(ErrParse, err))
	}

	return prefix + strconv.FormatInt(v, 10), nil
}
