package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	accountdomain "github.com/microbooks/microbooks/internal/account/domain"
	"github.com/shopspring/decimal"
)

type createAccountRequest struct {
	Name        string `json:"name" binding:"required"`
	AccountType string `json:"account_type" binding:"required"`
	CurrencyID  string `json:"currency_id"`
}

func (s *Server) createAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var currencyID snowflake.ID
	if req.CurrencyID != "" {
		parsed, err := snowflake.ParseString(req.CurrencyID)
		if err != nil {
			AbortWithError(c, accountdomain.ErrInvalidCurrency)
			return
		}
		currencyID = parsed
	}

	account, err := s.accountSvc.Create(c.Request.Context(), accountdomain.CreateRequest{
		Name:        req.Name,
		AccountType: accountdomain.AccountType(req.AccountType),
		CurrencyID:  currencyID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

func (s *Server) listAccounts(c *gin.Context) {
	var types []accountdomain.AccountType
	if raw := c.Query("type"); raw != "" {
		types = append(types, accountdomain.AccountType(raw))
	}

	accounts, err := s.accountSvc.List(c.Request.Context(), types...)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

func (s *Server) getAccount(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, accountdomain.ErrNotFound)
		return
	}

	account, err := s.accountSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

type openingBalanceRequest struct {
	Amount          string `json:"amount" binding:"required"`
	BalanceSide     string `json:"balance_side" binding:"required"`
	TransactionDate string `json:"transaction_date" binding:"required"`
}

func (s *Server) setOpeningBalance(c *gin.Context) {
	accountID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, accountdomain.ErrNotFound)
		return
	}

	var req openingBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		AbortWithError(c, accountdomain.ErrInvalidAmount)
		return
	}
	date, err := parseDate(req.TransactionDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction_date"})
		return
	}

	balance, err := s.accountSvc.OpeningBalance(c.Request.Context(), accountdomain.BalanceRequest{
		AccountID:       accountID,
		Amount:          amount,
		BalanceSide:     accountdomain.BalanceSide(req.BalanceSide),
		TransactionDate: date,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, balance)
}
