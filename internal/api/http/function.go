package httpapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/i474232898/weather-records/internal/weather"
)

// NewFunctionApp builds the serverless shape: a single /api/weather endpoint
// dispatching on the method, with the record id taken from ?id= or a
// trailing path segment.
func NewFunctionApp(service *weather.Service, opts Options) *fiber.App {
	app := newFiberApp(opts)
	h := &handler{service: service}

	dispatch := func(c *fiber.Ctx) error {
		id := utils.CopyString(c.Query("id"))
		if id == "" {
			id = utils.CopyString(c.Params("id"))
		}

		switch c.Method() {
		case fiber.MethodGet:
			if id == "" {
				return h.list(c)
			}
			return h.get(c, id)
		case fiber.MethodPost:
			return h.create(c)
		case fiber.MethodPut:
			return h.update(c, id)
		case fiber.MethodDelete:
			return h.delete(c, id)
		default:
			return methodNotAllowed(c)
		}
	}
	app.All(collectionPath, dispatch)
	app.All(recordPath, dispatch)

	return app
}
