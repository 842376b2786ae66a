package routes

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shuttletrack/shuttletrack/pkg/database"
	"github.com/shuttletrack/shuttletrack/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func FleetRouter(router fiber.Router) {
	router.Get("/positions", listFleetPositions)
	router.Get("/positions/:shuttleId", getFleetPosition)
}

func listFleetPositions(c *fiber.Ctx) error {
	liveLocations := []models.LiveLocation{}

	liveLocationsCollection := database.GetCollection("live_locations")

	cursor, err := liveLocationsCollection.Find(context.Background(), bson.M{})
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	for cursor.Next(context.Background()) {
		var liveLocation models.LiveLocation
		if err := cursor.Decode(&liveLocation); err != nil {
			log.Error().Err(err).Msg("Failed to decode Live Location")
			continue
		}

		liveLocations = append(liveLocations, liveLocation)
	}

	return c.JSON(liveLocations)
}

func getFleetPosition(c *fiber.Ctx) error {
	shuttleID := c.Params("shuttleId")

	liveLocationsCollection := database.GetCollection("live_locations")

	var liveLocation *models.LiveLocation
	err := liveLocationsCollection.FindOne(context.Background(), bson.M{"shuttleid": shuttleID}).Decode(&liveLocation)
	if err == mongo.ErrNoDocuments || liveLocation == nil {
		c.SendStatus(fiber.StatusNotFound)
		return c.JSON(fiber.Map{
			"error": "Could not find a live position for this shuttle",
		})
	}

	return c.JSON(liveLocation)
}
