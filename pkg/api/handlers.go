package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gnana997/intcat/pkg/catalog"
	"github.com/gnana997/intcat/pkg/searchlog"
)

// FilterResponse is the body of GET /api/v1/integrations.
type FilterResponse struct {
	catalog.FilterResult
	Category string `json:"category"`
	Query    string `json:"query"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"integrations": s.store.Current().Len(),
		"generation":   s.store.Generation(),
	})
}

func (s *Server) listCategories(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Current().CategoryCounts())
}

func (s *Server) filterIntegrations(c *gin.Context) {
	state := catalog.DefaultFilterState()
	if category := c.Query("category"); category != "" {
		state = state.WithCategory(category)
	}
	state = state.WithQuery(c.Query("q"))

	res := s.store.Current().Filter(state)

	if s.searches != nil {
		err := s.searches.Record(c.Request.Context(), searchlog.Entry{
			Source:      searchlog.SourceHTTP,
			Category:    state.Category,
			Query:       state.Query,
			ResultCount: res.Count,
		})
		if err != nil {
			s.logger.Warn("failed to record search", "error", err, "request_id", c.GetString(requestIDKey))
		}
	}

	c.JSON(http.StatusOK, FilterResponse{FilterResult: res, Category: state.Category, Query: state.Query})
}

func (s *Server) listPopular(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Current().Popular())
}

func (s *Server) getIntegration(c *gin.Context) {
	id := c.Param("id")
	rec, ok := s.store.Current().GetIntegration(id)
	if !ok {
		notFound(c, fmt.Sprintf("integration %q not found", id))
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) topMissed(c *gin.Context) {
	if s.searches == nil {
		unavailable(c, "search log is disabled")
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	missed, err := s.searches.TopMissed(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("failed to read search log", "error", err, "request_id", c.GetString(requestIDKey))
		internal(c, "failed to read search log")
		return
	}
	c.JSON(http.StatusOK, missed)
}
