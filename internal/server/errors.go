package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/microbooks/microbooks/internal/account/domain"
	assigndomain "github.com/microbooks/microbooks/internal/assignment/domain"
	entitydomain "github.com/microbooks/microbooks/internal/entity/domain"
	ledgerdomain "github.com/microbooks/microbooks/internal/ledger/domain"
	perioddomain "github.com/microbooks/microbooks/internal/period/domain"
	reportingdomain "github.com/microbooks/microbooks/internal/reporting/domain"
	taxdomain "github.com/microbooks/microbooks/internal/tax/domain"
	txndomain "github.com/microbooks/microbooks/internal/transaction/domain"
	"github.com/microbooks/microbooks/pkg/db"
	"github.com/microbooks/microbooks/pkg/entityctx"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}
		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	var (
		closedErr       *perioddomain.ClosedPeriodError
		restrictedErr   *perioddomain.RestrictedPeriodError
		invalidTransErr *perioddomain.InvalidTransitionError
		concurrentErr   *perioddomain.ConcurrentTransitionError
		postedErr       *txndomain.PostedTransactionError
		unbalancedErr   *txndomain.UnbalancedTransactionError
		mainAccErr      *txndomain.InvalidMainAccountError
		lineAccErr      *txndomain.InvalidLineItemAccountError
		conflictErr     *ledgerdomain.ChainConflictError
		integrityErr    *ledgerdomain.IntegrityError
		overErr         *assigndomain.OverclearanceError
		notClearErr     *assigndomain.NotClearableError
		notSettleErr    *assigndomain.NotSettlingError
		unpostedErr     *assigndomain.UnpostedTransactionError
	)

	switch {
	case errors.Is(err, entityctx.ErrMissingEntity):
		return http.StatusBadRequest, errorPayload{Type: "missing_entity", Message: err.Error()}

	case errors.Is(err, entitydomain.ErrNotFound),
		errors.Is(err, accountdomain.ErrNotFound),
		errors.Is(err, taxdomain.ErrNotFound),
		errors.Is(err, txndomain.ErrNotFound),
		errors.Is(err, perioddomain.ErrNotFound),
		errors.Is(err, assigndomain.ErrNotFound):
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: err.Error()}

	case errors.As(err, &closedErr),
		errors.As(err, &restrictedErr),
		errors.As(err, &concurrentErr),
		errors.As(err, &postedErr),
		errors.As(err, &conflictErr),
		errors.As(err, &unpostedErr),
		errors.Is(err, accountdomain.ErrBalanceFrozen),
		errors.Is(err, ledgerdomain.ErrImmutableLedger),
		db.IsDuplicateKeyErr(err):
		return http.StatusConflict, errorPayload{Type: "conflict", Message: err.Error()}

	case errors.As(err, &integrityErr):
		return http.StatusConflict, errorPayload{Type: "integrity_failure", Message: err.Error()}

	case errors.Is(err, ledgerdomain.ErrEntityQuarantined):
		return http.StatusLocked, errorPayload{Type: "quarantined", Message: err.Error()}

	case errors.As(err, &invalidTransErr),
		errors.As(err, &unbalancedErr),
		errors.As(err, &mainAccErr),
		errors.As(err, &lineAccErr),
		errors.As(err, &overErr),
		errors.As(err, &notClearErr),
		errors.As(err, &notSettleErr),
		errors.Is(err, assigndomain.ErrMainAccountMismatch),
		errors.Is(err, reportingdomain.ErrNotSchedulable):
		return http.StatusUnprocessableEntity, errorPayload{Type: "unprocessable", Message: err.Error()}

	case errors.Is(err, entitydomain.ErrInvalidName),
		errors.Is(err, entitydomain.ErrInvalidCurrency),
		errors.Is(err, accountdomain.ErrInvalidName),
		errors.Is(err, accountdomain.ErrInvalidAccountType),
		errors.Is(err, accountdomain.ErrInvalidCurrency),
		errors.Is(err, accountdomain.ErrInvalidAmount),
		errors.Is(err, accountdomain.ErrInvalidBalanceSide),
		errors.Is(err, perioddomain.ErrInvalidYear),
		errors.Is(err, taxdomain.ErrInvalidTaxCode),
		errors.Is(err, taxdomain.ErrInvalidTaxRate),
		errors.Is(err, taxdomain.ErrInvalidTaxMode),
		errors.Is(err, taxdomain.ErrInvalidControlAccount),
		errors.Is(err, txndomain.ErrInvalidTransactionType),
		errors.Is(err, txndomain.ErrInvalidNarration),
		errors.Is(err, txndomain.ErrInvalidDate),
		errors.Is(err, txndomain.ErrInvalidAmount),
		errors.Is(err, txndomain.ErrMissingLineItems),
		errors.Is(err, txndomain.ErrTaxNotAllowed),
		errors.Is(err, txndomain.ErrCurrencyMismatch),
		errors.Is(err, assigndomain.ErrInvalidAmount),
		errors.Is(err, assigndomain.ErrSelfAssignment):
		return http.StatusBadRequest, errorPayload{Type: "invalid_request", Message: err.Error()}
	}

	return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal error"}
}
