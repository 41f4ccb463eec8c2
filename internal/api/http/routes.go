package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/i474232898/weather-records/internal/store"
	"github.com/i474232898/weather-records/internal/weather"
)

const (
	collectionPath = "/api/weather"
	recordPath     = "/api/weather/:id"
	lookupPath     = "/api/weather/lookup"

	allowedMethods = "GET, POST, PUT, DELETE"
	msgNotFound    = "Weather data not found"
	msgDeleted     = "Weather data deleted successfully"
)

var validate = validator.New()

// RegisterRoutes wires the record handlers into the Fiber app.
func RegisterRoutes(app fiber.Router, service *weather.Service) {
	h := &handler{service: service}
	byParam := func(c *fiber.Ctx) string { return utils.CopyString(c.Params("id")) }

	app.Get(collectionPath, h.list)
	app.Post(collectionPath, h.create)
	app.Post(lookupPath, h.lookup)
	app.Get(recordPath, func(c *fiber.Ctx) error { return h.get(c, byParam(c)) })
	app.Put(recordPath, func(c *fiber.Ctx) error { return h.update(c, byParam(c)) })
	app.Delete(recordPath, func(c *fiber.Ctx) error { return h.delete(c, byParam(c)) })

	app.All(collectionPath, methodNotAllowed)
	app.All(recordPath, methodNotAllowed)
}

type handler struct {
	service *weather.Service
}

func (h *handler) list(c *fiber.Ctx) error {
	records, err := h.service.List(c.UserContext())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(records)
}

func (h *handler) get(c *fiber.Ctx, id string) error {
	rec, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return storeError(err, fiber.StatusInternalServerError)
	}
	return c.JSON(rec)
}

func (h *handler) create(c *fiber.Ctx) error {
	patch, err := decodePatch(c.Body())
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	rec, err := h.service.Create(c.UserContext(), patch)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(rec)
}

func (h *handler) update(c *fiber.Ctx, id string) error {
	patch, err := decodePatch(c.Body())
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	rec, err := h.service.Update(c.UserContext(), id, patch)
	if err != nil {
		return storeError(err, fiber.StatusBadRequest)
	}
	return c.JSON(rec)
}

func (h *handler) delete(c *fiber.Ctx, id string) error {
	rec, err := h.service.Delete(c.UserContext(), id)
	if err != nil {
		return storeError(err, fiber.StatusInternalServerError)
	}
	return c.JSON(fiber.Map{
		"message":     msgDeleted,
		"deletedItem": rec,
	})
}

// lookupRequest is the body of POST /api/weather/lookup. The query may also
// be given as ?q=.
type lookupRequest struct {
	Query string `json:"query" validate:"required,max=200"`
}

func (h *handler) lookup(c *fiber.Ctx) error {
	var req lookupRequest
	if body := bytes.TrimSpace(c.Body()); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body: "+err.Error())
		}
	}
	if req.Query == "" {
		req.Query = strings.TrimSpace(c.Query("q"))
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	q, err := weather.ParseQuery(req.Query)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	rec, err := h.service.LookupAndStore(c.UserContext(), q)
	if err != nil {
		var upstream *weather.UpstreamError
		if errors.Is(err, weather.ErrNoProviders) || errors.As(err, &upstream) {
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(rec)
}

func methodNotAllowed(c *fiber.Ctx) error {
	c.Set(fiber.HeaderAllow, allowedMethods)
	return fiber.NewError(fiber.StatusMethodNotAllowed, fmt.Sprintf("Method %s Not Allowed", c.Method()))
}

// storeError maps store.ErrNotFound to 404 and anything else to status.
func storeError(err error, status int) error {
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, msgNotFound)
	}
	return fiber.NewError(status, err.Error())
}

// decodePatch reads a create/update payload. An empty body is an empty
// patch; "_id" and unknown keys are ignored. An explicit null decodes to an
// absent field, so it keeps the stored value.
func decodePatch(body []byte) (weather.Patch, error) {
	var p weather.Patch
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return weather.Patch{}, fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := validate.Struct(p); err != nil {
		return weather.Patch{}, err
	}
	return p, nil
}
