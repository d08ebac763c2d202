package extensions

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pumped-fn/tinystore"
)

// LoggingExtension logs all operations
type LoggingExtension struct {
	tinystore.BaseExtension
	logger *logrus.Entry
}

// NewLoggingExtension creates a new logging extension.
// A nil logger uses the registry logger once registered.
func NewLoggingExtension(logger *logrus.Entry) *LoggingExtension {
	return &LoggingExtension{
		BaseExtension: tinystore.NewBaseExtension("logging"),
		logger:        logger,
	}
}

func (e *LoggingExtension) Init(registry *tinystore.Registry) error {
	if e.logger == nil {
		e.logger = registry.Logger()
	}
	return nil
}

func (e *LoggingExtension) Wrap(ctx context.Context, next func() error, op *tinystore.Operation) error {
	start := time.Now()
	entry := e.logger.WithFields(logrus.Fields{
		"extension": e.Name(),
		"store":     op.StoreID,
		"op":        string(op.Kind),
	})
	if op.Action != "" {
		entry = entry.WithField("action", op.Action)
	}

	entry.Debug("starting")
	err := next()

	entry = entry.WithField("duration", time.Since(start))
	if err != nil {
		entry.WithError(err).Warn("failed")
	} else {
		entry.Debug("completed")
	}

	return err
}

func (e *LoggingExtension) OnError(err error, op *tinystore.Operation, registry *tinystore.Registry) {
	e.logger.WithFields(logrus.Fields{
		"extension": e.Name(),
		"store":     op.StoreID,
		"op":        string(op.Kind),
	}).WithError(err).Error("resolution failed")
}
