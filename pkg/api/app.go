package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shuttletrack/shuttletrack/pkg/api/routes"
)

func SetupServer(listen string) error {
	webApp := fiber.New()
	webApp.Use(NewLogger())

	group := webApp.Group("/core")

	group.Get("version", routes.APIVersion)

	routes.FleetRouter(group.Group("/fleet"))
	routes.NotificationsRouter(group.Group("/notifications"))

	return webApp.Listen(listen)
}
