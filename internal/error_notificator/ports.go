package error_notificator

import "context"

type Notificator interface {
	// Notify — сообщает операторам о сбое (источник, ошибка, детали)
	Notify(ctx context.Context, source string, err error, details string) error
}
