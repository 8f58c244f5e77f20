package server

import (
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	accountdomain "github.com/microbooks/microbooks/internal/account/domain"
)

func (s *Server) accountStatement(c *gin.Context) {
	accountID, err := snowflake.ParseString(c.Query("account_id"))
	if err != nil {
		AbortWithError(c, accountdomain.ErrNotFound)
		return
	}
	from, err := parseDate(c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date"})
		return
	}
	to, err := parseDate(c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date"})
		return
	}

	statement, err := s.reportingSvc.AccountStatement(c.Request.Context(), accountID, from, to)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, statement)
}

func (s *Server) accountSchedule(c *gin.Context) {
	accountID, err := snowflake.ParseString(c.Query("account_id"))
	if err != nil {
		AbortWithError(c, accountdomain.ErrNotFound)
		return
	}
	asOf := time.Now().UTC()
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid as_of date"})
			return
		}
		asOf = parsed
	}

	schedule, err := s.reportingSvc.AccountSchedule(c.Request.Context(), accountID, asOf)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

func (s *Server) trialBalance(c *gin.Context) {
	asOf := time.Now().UTC()
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid as_of date"})
			return
		}
		asOf = parsed
	}

	report, err := s.reportingSvc.TrialBalance(c.Request.Context(), asOf)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) verifyLedger(c *gin.Context) {
	result, err := s.ledgerSvc.VerifyChain(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
