package logging

import "go.uber.org/zap"

// WithRequest creates a logger scoped to one plan execution.
//
// Example:
//
//	log := logging.WithRequest(req.ID())
//	log.Debugw("request opened")
func WithRequest(requestID string) *zap.SugaredLogger {
	return GetLogger().With("request", requestID)
}

// WithOperator creates a logger with record-source operator context.
func WithOperator(kind string) *zap.SugaredLogger {
	return GetLogger().With("operator", kind)
}

// WithComponent creates a logger with component/subsystem context.
//
// Example:
//
//	log := logging.WithComponent("executor")
//	log.Infow("plan compiled", "streams", n)
func WithComponent(component string) *zap.SugaredLogger {
	return GetLogger().With("component", component)
}

// WithPlan creates a logger carrying the plan name.
func WithPlan(name string) *zap.SugaredLogger {
	return GetLogger().With("plan", name)
}
