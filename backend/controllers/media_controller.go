package controllers

import (
	"github.com/gofiber/fiber/v2"

	"practicetest/backend/media"
	"practicetest/backend/utils"
)

// MediaController serves assets the preloader has already warmed.
type MediaController struct {
	Cache *media.Cache
}

func NewMediaController(cache *media.Cache) *MediaController {
	return &MediaController{Cache: cache}
}

func (mc *MediaController) GetMedia(c *fiber.Ctx) error {
	src := c.Query("src")
	if src == "" {
		return utils.BadRequest(c, "Missing src")
	}
	entry, ok := mc.Cache.Get(src)
	if !ok {
		return utils.NotFound(c, "Media not preloaded")
	}
	c.Set(fiber.HeaderContentType, entry.ContentType)
	c.Set(fiber.HeaderCacheControl, "private, max-age=3600")
	return c.Status(fiber.StatusOK).Send(entry.Body)
}
