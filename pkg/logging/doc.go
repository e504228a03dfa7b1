// Package logging provides a process-wide structured logger.
//
// The package wraps [go.uber.org/zap] and exposes a single global logger
// instance that is initialized once and then retrieved via GetLogger. All
// subsystems obtain a logger through this package rather than constructing
// their own, so that level, format and output are controlled in one place.
//
// # Initialisation
//
// Call Init (or InitDefault for sensible defaults) once at program startup:
//
//	if err := logging.Init(logging.Config{Level: logging.LevelDebug, Format: "json"}); err != nil {
//	    log.Fatal(err)
//	}
//
// If GetLogger is called before Init, a default stderr logger is created
// lazily so that packages that log during init are safe.
//
// # Context helpers
//
// Helpers return child loggers pre-populated with structured fields:
//
//	log := logging.WithRequest(req.ID())   // adds request field
//	log := logging.WithOperator("filter")  // adds operator field
package logging
