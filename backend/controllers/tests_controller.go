package controllers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"practicetest/backend/engine"
	"practicetest/backend/models"
	"practicetest/backend/utils"
)

// TestCatalog is the read side of the test repository.
type TestCatalog interface {
	engine.DefinitionSource
	ListActive(ctx context.Context) ([]models.TestSummary, error)
}

type TestsController struct {
	Catalog  TestCatalog
	Resolver engine.MediaResolver
}

func NewTestsController(catalog TestCatalog, resolver engine.MediaResolver) *TestsController {
	return &TestsController{Catalog: catalog, Resolver: resolver}
}

func (tc *TestsController) GetAvailableTests(c *fiber.Ctx) error {
	tests, err := tc.Catalog.ListActive(c.UserContext())
	if err != nil {
		return utils.InternalServerError(c, "Failed to load tests")
	}
	return utils.Success(c, fiber.StatusOK, tests)
}

// GetTestDetails returns the outline of a test. Correct answers are not
// serialized.
func (tc *TestsController) GetTestDetails(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return utils.BadRequest(c, "Invalid test ID")
	}

	def, err := tc.Catalog.FetchTest(c.UserContext(), uint(id))
	if err != nil {
		if errors.Is(err, models.ErrTestNotFound) {
			return utils.NotFound(c, "Test not found")
		}
		return utils.InternalServerError(c, "Failed to load test")
	}

	if tc.Resolver != nil {
		for i := range def.Groups {
			g := &def.Groups[i]
			if g.AudioURL != "" {
				g.AudioURL = tc.Resolver.Resolve(g.AudioURL)
			}
			if g.ImageURL != "" {
				g.ImageURL = tc.Resolver.Resolve(g.ImageURL)
			}
		}
	}
	return utils.Success(c, fiber.StatusOK, def)
}
