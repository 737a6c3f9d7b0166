package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/limelight-ai/limelight/internal/store"
)

// PromptsHandler serves the archived exchanges for a user, newest first.
type PromptsHandler struct {
	Archive *store.Store
}

func (h *PromptsHandler) Recent(c echo.Context) error {
	limit := 10
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be 1..100")
		}
		limit = n
	}
	if h.Archive == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "prompt archive not configured")
	}
	logs, err := h.Archive.RecentPromptLogs(c.Request().Context(), c.Param("user_id"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, logs)
}
