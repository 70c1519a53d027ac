package report

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

func parseDay(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/", func(c *fiber.Ctx) error {
		vehicleID := c.Query("vehicleId")
		if vehicleID == "all" {
			vehicleID = ""
		}

		var from, to time.Time
		if s := c.Query("startDate"); s != "" {
			d, err := parseDay(s)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid startDate")
			}
			from = d
		}
		if s := c.Query("endDate"); s != "" {
			d, err := parseDay(s)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid endDate")
			}
			to = d
		}

		reports, err := svc.EnsureRange(c.Context(), vehicleID, from, to)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"reports": reports, "stats": Summarize(reports)})
	})

	r.Post("/regenerate", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			VehicleID string `json:"vehicleId"`
			Date      string `json:"date"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.VehicleID == "" || req.Date == "" {
			return fiber.NewError(fiber.StatusBadRequest, "vehicleId and date required")
		}
		day, err := parseDay(req.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid date")
		}

		rep, err := svc.Regenerate(c.Context(), req.VehicleID, day)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if rep == nil {
			return fiber.NewError(fiber.StatusNotFound, "report unavailable for this day")
		}
		return c.JSON(fiber.Map{"report": rep})
	})
}
