package adapters

import "github.com/goliatone/go-ticketing/pkg/interfaces/logger"

// BaseAdapter provides shared helpers for simple adapters.
type BaseAdapter struct {
	logger logger.Logger
}

func NewBaseAdapter(l logger.Logger) BaseAdapter {
	if l == nil {
		l = &logger.Nop{}
	}
	return BaseAdapter{logger: l}
}

func (b BaseAdapter) LogSuccess(name string, msg Message) {
	b.logger.Info("adapter delivered message", logger.F("adapter", name), logger.F("to", msg.To), logger.F("subject", msg.Subject))
}

func (b BaseAdapter) LogFailure(name string, msg Message, err error) {
	b.logger.Error("adapter delivery failed", logger.F("adapter", name), logger.F("to", msg.To), logger.F("error", err))
}

// Logger exposes the adapter logger for structured diagnostics.
func (b BaseAdapter) Logger() logger.Logger {
	if b.logger == nil {
		return &logger.Nop{}
	}
	return b.logger
}
