package vehicle

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/", func(c *fiber.Ctx) error {
		vehicles, err := svc.List(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"vehicles": vehicles})
	})

	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req Vehicle
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Name == "" || req.PlateNumber == "" || req.DeviceIMEI == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name, plate_number and device_imei required")
		}
		v, err := svc.Create(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"vehicle": v})
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		v, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"vehicle": v})
	})

	r.Get("/:id/state", func(c *fiber.Ctx) error {
		st, err := svc.DisplayState(c.Context(), c.Params("id"), time.Now())
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(st)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		var req Vehicle
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		v, err := svc.Update(c.Context(), c.Params("id"), req)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"vehicle": v})
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// RegisterTrackingRoutes exposes the raw point queries used by map playback.
func RegisterTrackingRoutes(r fiber.Router, svc *Service) {
	r.Get("/", func(c *fiber.Ctx) error {
		vehicleID := c.Query("vehicleId")
		if vehicleID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "vehicleId is required")
		}

		var from, to time.Time
		if s := c.Query("startDate"); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid startDate")
			}
			from = t
		}
		if s := c.Query("endDate"); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid endDate")
			}
			to = t
		}

		points, err := svc.Samples(c.Context(), vehicleID, from, to, c.QueryInt("limit", 100))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"trackingPoints": points})
	})

	r.Get("/summary", func(c *fiber.Ctx) error {
		vehicleID := c.Query("vehicleId")
		if vehicleID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "vehicleId is required")
		}
		days, err := svc.ActivitySummary(c.Context(), vehicleID, c.QueryInt("days", 14), c.QueryInt("limit", 5000))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"days": days})
	})
}
