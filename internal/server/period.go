package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	perioddomain "github.com/microbooks/microbooks/internal/period/domain"
)

type openPeriodRequest struct {
	CalendarYear int `json:"calendar_year" binding:"required"`
}

func (s *Server) openPeriod(c *gin.Context) {
	var req openPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	period, err := s.periodSvc.Open(c.Request.Context(), req.CalendarYear)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, period)
}

func (s *Server) getPeriod(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, perioddomain.ErrNotFound)
		return
	}

	period, err := s.periodSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, period)
}

type transitionPeriodRequest struct {
	Target string `json:"target" binding:"required"`
}

func (s *Server) transitionPeriod(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, perioddomain.ErrNotFound)
		return
	}

	var req transitionPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	period, err := s.periodSvc.Transition(c.Request.Context(), id, perioddomain.PeriodStatus(req.Target))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, period)
}
