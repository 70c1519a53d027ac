package ingest

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Tah5721312/gps-tracking/internal/vehicle"
)

// RegisterRoutes mounts the device-facing ingestion endpoints. GET exists
// because a lot of tracker firmware can only issue plain query-string GETs
// and expects a bare "OK" back.
func RegisterRoutes(r fiber.Router, proc *Processor) {
	handle := func(c *fiber.Ctx, raw RawSample, plainReply bool) error {
		in, err := raw.Normalize(time.Now())
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		res, err := proc.Process(c.Context(), in)
		if err != nil {
			if errors.Is(err, vehicle.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no vehicle registered for device "+in.DeviceIMEI)
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		if plainReply {
			return c.JSON(fiber.Map{"success": true, "message": "OK"})
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}

	r.Post("/", func(c *fiber.Ctx) error {
		var raw RawSample
		if err := c.BodyParser(&raw); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return handle(c, raw, false)
	})

	r.Post("/update", func(c *fiber.Ctx) error {
		var raw RawSample
		if err := c.BodyParser(&raw); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return handle(c, raw, false)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		var raw RawSample
		if err := c.QueryParser(&raw); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return handle(c, raw, true)
	})
}
