package internal

import "go.uber.org/zap"

func LogGoroutineClosed(logger *zap.Logger, name string) {
	logger.Debug("goroutine closed", zap.String("goroutine", name))
}
