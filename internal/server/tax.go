package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	taxdomain "github.com/microbooks/microbooks/internal/tax/domain"
	"github.com/shopspring/decimal"
)

type createTaxRequest struct {
	Name             string `json:"name" binding:"required"`
	Code             string `json:"code" binding:"required"`
	TaxMode          string `json:"tax_mode" binding:"required"`
	Rate             string `json:"rate" binding:"required"`
	ControlAccountID string `json:"control_account_id" binding:"required"`
}

func (s *Server) createTax(c *gin.Context) {
	var req createTaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rate, err := decimal.NewFromString(req.Rate)
	if err != nil {
		AbortWithError(c, taxdomain.ErrInvalidTaxRate)
		return
	}
	controlAccountID, err := snowflake.ParseString(req.ControlAccountID)
	if err != nil {
		AbortWithError(c, taxdomain.ErrInvalidControlAccount)
		return
	}

	tax, err := s.taxSvc.Create(c.Request.Context(), taxdomain.CreateRequest{
		Name:             req.Name,
		Code:             req.Code,
		TaxMode:          taxdomain.TaxMode(req.TaxMode),
		Rate:             rate,
		ControlAccountID: controlAccountID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tax)
}

func (s *Server) getTax(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, taxdomain.ErrNotFound)
		return
	}

	tax, err := s.taxSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tax)
}
