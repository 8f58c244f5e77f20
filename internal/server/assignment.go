package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	assigndomain "github.com/microbooks/microbooks/internal/assignment/domain"
	txndomain "github.com/microbooks/microbooks/internal/transaction/domain"
	"github.com/shopspring/decimal"
)

type createAssignmentRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
	ClearedID     string `json:"cleared_id" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
}

func (s *Server) createAssignment(c *gin.Context) {
	var req createAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	transactionID, err := snowflake.ParseString(req.TransactionID)
	if err != nil {
		AbortWithError(c, txndomain.ErrNotFound)
		return
	}
	clearedID, err := snowflake.ParseString(req.ClearedID)
	if err != nil {
		AbortWithError(c, txndomain.ErrNotFound)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		AbortWithError(c, assigndomain.ErrInvalidAmount)
		return
	}

	assignment, err := s.assignSvc.Assign(c.Request.Context(), assigndomain.AssignRequest{
		TransactionID: transactionID,
		ClearedID:     clearedID,
		Amount:        amount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

func (s *Server) bulkAssign(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, txndomain.ErrNotFound)
		return
	}

	assignments, err := s.assignSvc.BulkAssign(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": assignments})
}

func (s *Server) listAssignments(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, txndomain.ErrNotFound)
		return
	}
	ctx := c.Request.Context()

	assignments, err := s.assignSvc.For(ctx, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	balance, err := s.assignSvc.Balance(ctx, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	outstanding, err := s.assignSvc.Outstanding(ctx, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"assignments": assignments,
		"balance":     balance,
		"outstanding": outstanding,
	})
}
