package controllers

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	status, env := doJSON(t, "POST", "/api/auth/register", "", map[string]interface{}{
		"username": "candidate",
		"email":    "Candidate@Example.com",
		"password": "listening-part-1",
	})
	require.Equal(t, fiber.StatusCreated, status, env.Message)

	var registered struct {
		Token string `json:"token"`
		User  struct {
			ID    uint   `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	decode(t, env, &registered)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "candidate@example.com", registered.User.Email)

	status, _ = doJSON(t, "POST", "/api/auth/register", "", map[string]interface{}{
		"username": "candidate",
		"email":    "other@example.com",
		"password": "listening-part-1",
	})
	assert.Equal(t, fiber.StatusConflict, status)

	status, env = doJSON(t, "POST", "/api/auth/login", "", map[string]interface{}{
		"username": "candidate",
		"password": "listening-part-1",
	})
	require.Equal(t, fiber.StatusOK, status)
	var loggedIn struct {
		Token string `json:"token"`
	}
	decode(t, env, &loggedIn)

	// The issued token opens the catalog.
	status, _ = doJSON(t, "GET", "/api/tests", loggedIn.Token, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = doJSON(t, "POST", "/api/auth/login", "", map[string]interface{}{
		"username": "candidate",
		"password": "wrong-password",
	})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestRegisterValidation(t *testing.T) {
	status, env := doJSON(t, "POST", "/api/auth/register", "", map[string]interface{}{
		"username": "x",
		"email":    "not-an-email",
		"password": "short",
	})
	require.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "min", env.Details["username"])
	assert.Equal(t, "email", env.Details["email"])
	assert.Equal(t, "min", env.Details["password"])
}
