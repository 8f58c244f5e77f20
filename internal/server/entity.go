package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/microbooks/microbooks/pkg/entityctx"
)

type createEntityRequest struct {
	Name         string `json:"name" binding:"required"`
	CurrencyCode string `json:"currency_code" binding:"required"`
	CurrencyName string `json:"currency_name" binding:"required"`
}

func (s *Server) createEntity(c *gin.Context) {
	var req createEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entity, err := s.entitySvc.Create(c.Request.Context(), req.Name, req.CurrencyCode, req.CurrencyName)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entity)
}

func (s *Server) getEntity(c *gin.Context) {
	ctx := c.Request.Context()
	entityID, err := entityctx.Require(ctx)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	entity, err := s.entitySvc.Get(ctx, entityID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity)
}

type addCurrencyRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
}

func (s *Server) addCurrency(c *gin.Context) {
	ctx := c.Request.Context()
	entityID, err := entityctx.Require(ctx)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req addCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	currency, err := s.entitySvc.AddCurrency(ctx, entityID, req.Code, req.Name)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, currency)
}
