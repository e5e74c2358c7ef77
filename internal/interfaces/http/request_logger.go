package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/customer-registry/pkg/logger"
)

// RequestLogger devuelve un middleware Fiber que registra cada petición con zerolog.
//
// Nivel según el status final:
//   - 5xx → error
//   - 4xx → warn
//   - resto → debug (el registro ya loguea las mutaciones a nivel info)
func RequestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		chainErr := c.Next()

		status := c.Response().StatusCode()
		if chainErr != nil {
			// el ErrorHandler aún no corrió; reportar como lo hará fiber
			if fe, ok := chainErr.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		ev := log.Debug()
		switch {
		case status >= fiber.StatusInternalServerError:
			ev = log.Error().Err(chainErr)
		case status >= fiber.StatusBadRequest:
			ev = log.Warn()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("petición HTTP")
		return chainErr
	}
}
