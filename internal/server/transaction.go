package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	txndomain "github.com/microbooks/microbooks/internal/transaction/domain"
	"github.com/shopspring/decimal"
)

type lineItemRequest struct {
	AccountID string `json:"account_id" binding:"required"`
	Narration string `json:"narration"`
	Amount    string `json:"amount" binding:"required"`
	Quantity  string `json:"quantity"`
	TaxID     string `json:"tax_id"`
}

type createTransactionRequest struct {
	TransactionType string            `json:"transaction_type" binding:"required"`
	AccountID       string            `json:"account_id" binding:"required"`
	TransactionDate string            `json:"transaction_date" binding:"required"`
	Narration       string            `json:"narration" binding:"required"`
	MainAmount      string            `json:"main_amount"`
	Credited        *bool             `json:"credited"`
	LineItems       []lineItemRequest `json:"line_items"`
}

func (r lineItemRequest) toDomain() (txndomain.LineItemRequest, error) {
	accountID, err := snowflake.ParseString(r.AccountID)
	if err != nil {
		return txndomain.LineItemRequest{}, txndomain.ErrInvalidAmount
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return txndomain.LineItemRequest{}, txndomain.ErrInvalidAmount
	}
	item := txndomain.LineItemRequest{
		AccountID: accountID,
		Narration: r.Narration,
		Amount:    amount,
	}
	if r.Quantity != "" {
		qty, err := decimal.NewFromString(r.Quantity)
		if err != nil {
			return txndomain.LineItemRequest{}, txndomain.ErrInvalidAmount
		}
		item.Quantity = qty
	}
	if r.TaxID != "" {
		taxID, err := snowflake.ParseString(r.TaxID)
		if err != nil {
			return txndomain.LineItemRequest{}, txndomain.ErrInvalidAmount
		}
		item.TaxID = &taxID
	}
	return item, nil
}

func (s *Server) createTransaction(c *gin.Context) {
	var req createTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	accountID, err := snowflake.ParseString(req.AccountID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account_id"})
		return
	}
	date, err := parseDate(req.TransactionDate)
	if err != nil {
		AbortWithError(c, txndomain.ErrInvalidDate)
		return
	}

	create := txndomain.CreateRequest{
		TransactionType: txndomain.TransactionType(req.TransactionType),
		AccountID:       accountID,
		TransactionDate: date,
		Narration:       req.Narration,
		Credited:        req.Credited,
	}
	if req.MainAmount != "" {
		mainAmount, err := decimal.NewFromString(req.MainAmount)
		if err != nil {
			AbortWithError(c, txndomain.ErrInvalidAmount)
			return
		}
		create.MainAmount = &mainAmount
	}
	for _, raw := range req.LineItems {
		item, err := raw.toDomain()
		if err != nil {
			AbortWithError(c, err)
			return
		}
		create.LineItems = append(create.LineItems, item)
	}

	txn, err := s.txnSvc.Create(c.Request.Context(), create)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}

func (s *Server) getTransaction(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, txndomain.ErrNotFound)
		return
	}

	txn, err := s.txnSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

func (s *Server) addLineItem(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, txndomain.ErrNotFound)
		return
	}

	var raw lineItemRequest
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := raw.toDomain()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	created, err := s.txnSvc.AddLineItem(c.Request.Context(), id, item)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) removeLineItem(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, txndomain.ErrNotFound)
		return
	}
	itemID, err := snowflake.ParseString(c.Param("itemID"))
	if err != nil {
		AbortWithError(c, txndomain.ErrNotFound)
		return
	}

	if err := s.txnSvc.RemoveLineItem(c.Request.Context(), id, itemID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) postTransaction(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, txndomain.ErrNotFound)
		return
	}

	txn, err := s.txnSvc.Post(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}
