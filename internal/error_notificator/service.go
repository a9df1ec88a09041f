package error_notificator

import (
	"context"
	"fmt"

	"github.com/Vovarama1992/go-utils/logger"
)

const serviceName = "tartarus_chat"

// Service всегда пишет сбой в лог, а если настроен канал — дублирует туда.
type Service struct {
	infra Notificator
	log   *logger.ZapLogger
}

func NewService(infra Notificator, log *logger.ZapLogger) *Service {
	return &Service{infra: infra, log: log}
}

func (s *Service) Notify(ctx context.Context, source string, err error, details string) error {
	s.log.Log(logger.LogEntry{
		Level:   "error",
		Message: fmt.Sprintf("[%s] %s", source, details),
		Error:   err,
		Service: serviceName,
	})

	if s.infra == nil {
		return nil
	}

	if nErr := s.infra.Notify(ctx, source, err, details); nErr != nil {
		s.log.Log(logger.LogEntry{
			Level:   "warn",
			Message: "operator notification failed",
			Error:   nErr,
			Service: serviceName,
		})
		return nErr
	}
	return nil
}
