package otp

import (
	"errors"
	"strconv"
)

// FailureText maps a Verify failure to the user-facing message. Both the bot
// prompt and the confirmation form surface these verbatim.
func FailureText(err error) string {
	var mm *MismatchError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotRequested):
		return "Код не запрошен."
	case errors.Is(err, ErrExpired):
		return "Код истёк. Запросите новый."
	case errors.Is(err, ErrLocked):
		return "Код заблокирован. Запросите новый."
	case errors.As(err, &mm):
		return "Неверный код. Осталось попыток: " + strconv.Itoa(mm.Remaining)
	default:
		return "Не удалось проверить код. Попробуйте ещё раз."
	}
}
