package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/microbooks/microbooks/internal/account"
	accountdomain "github.com/microbooks/microbooks/internal/account/domain"
	"github.com/microbooks/microbooks/internal/assignment"
	assigndomain "github.com/microbooks/microbooks/internal/assignment/domain"
	"github.com/microbooks/microbooks/internal/audit"
	"github.com/microbooks/microbooks/internal/config"
	"github.com/microbooks/microbooks/internal/entity"
	entitydomain "github.com/microbooks/microbooks/internal/entity/domain"
	"github.com/microbooks/microbooks/internal/ledger"
	ledgerdomain "github.com/microbooks/microbooks/internal/ledger/domain"
	"github.com/microbooks/microbooks/internal/observability"
	"github.com/microbooks/microbooks/internal/period"
	perioddomain "github.com/microbooks/microbooks/internal/period/domain"
	"github.com/microbooks/microbooks/internal/reporting"
	reportingdomain "github.com/microbooks/microbooks/internal/reporting/domain"
	"github.com/microbooks/microbooks/internal/tax"
	taxdomain "github.com/microbooks/microbooks/internal/tax/domain"
	"github.com/microbooks/microbooks/internal/transaction"
	txndomain "github.com/microbooks/microbooks/internal/transaction/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	observability.Module,
	audit.Module,
	entity.Module,
	account.Module,
	period.Module,
	tax.Module,
	transaction.Module,
	ledger.Module,
	assignment.Module,
	reporting.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Log          *zap.Logger
	GenID        *snowflake.Node
	EntitySvc    entitydomain.Service
	AccountSvc   accountdomain.Service
	PeriodSvc    perioddomain.Service
	TaxSvc       taxdomain.Service
	TxnSvc       txndomain.Service
	LedgerSvc    ledgerdomain.Service
	AssignSvc    assigndomain.Service
	ReportingSvc reportingdomain.Service
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	log          *zap.Logger
	genID        *snowflake.Node
	entitySvc    entitydomain.Service
	accountSvc   accountdomain.Service
	periodSvc    perioddomain.Service
	taxSvc       taxdomain.Service
	txnSvc       txndomain.Service
	ledgerSvc    ledgerdomain.Service
	assignSvc    assigndomain.Service
	reportingSvc reportingdomain.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		log:          p.Log.Named("http"),
		genID:        p.GenID,
		entitySvc:    p.EntitySvc,
		accountSvc:   p.AccountSvc,
		periodSvc:    p.PeriodSvc,
		taxSvc:       p.TaxSvc,
		txnSvc:       p.TxnSvc,
		ledgerSvc:    p.LedgerSvc,
		assignSvc:    p.AssignSvc,
		reportingSvc: p.ReportingSvc,
	}
}

// RegisterRoutes wires the API. Everything under /v1 except entity creation
// requires the entity header.
func (s *Server) RegisterRoutes() {
	v1 := s.engine.Group("/v1")
	v1.POST("/entities", s.createEntity)

	scoped := v1.Group("", EntityContext())
	scoped.GET("/entity", s.getEntity)
	scoped.POST("/entity/currencies", s.addCurrency)

	scoped.POST("/accounts", s.createAccount)
	scoped.GET("/accounts", s.listAccounts)
	scoped.GET("/accounts/:id", s.getAccount)
	scoped.POST("/accounts/:id/opening-balance", s.setOpeningBalance)

	scoped.POST("/periods", s.openPeriod)
	scoped.GET("/periods/:id", s.getPeriod)
	scoped.POST("/periods/:id/transition", s.transitionPeriod)

	scoped.POST("/taxes", s.createTax)
	scoped.GET("/taxes/:id", s.getTax)

	scoped.POST("/transactions", s.createTransaction)
	scoped.GET("/transactions/:id", s.getTransaction)
	scoped.POST("/transactions/:id/line-items", s.addLineItem)
	scoped.DELETE("/transactions/:id/line-items/:itemID", s.removeLineItem)
	scoped.POST("/transactions/:id/post", s.postTransaction)
	scoped.GET("/transactions/:id/assignments", s.listAssignments)
	scoped.POST("/transactions/:id/bulk-assign", s.bulkAssign)

	scoped.POST("/assignments", s.createAssignment)

	scoped.GET("/reports/account-statement", s.accountStatement)
	scoped.GET("/reports/account-schedule", s.accountSchedule)
	scoped.GET("/reports/trial-balance", s.trialBalance)

	scoped.POST("/ledger/verify", s.verifyLedger)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
