// Package server is the HTTP ingestion surface. Business flows post domain
// records here; the server normalizes them and hands them to the dispatch
// queue, replying 202 before delivery happens.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"notibot/internal/accounting"
	"notibot/internal/dispatch"
	"notibot/internal/storage"
	"notibot/internal/tgconfig"
	logx "notibot/pkg/logx"
)

type Config struct {
	Addr string
}

type Server struct {
	addr       string
	engine     *gin.Engine
	dispatcher *dispatch.Dispatcher
	acct       *accounting.Service
	channels   *tgconfig.Store
	log        logx.Logger
}

func New(cfg Config, dispatcher *dispatch.Dispatcher, acct *accounting.Service, channels *tgconfig.Store, log logx.Logger) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8090"
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLog(log), cors())

	s := &Server{
		addr:       cfg.Addr,
		engine:     engine,
		dispatcher: dispatcher,
		acct:       acct,
		channels:   channels,
		log:        log,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := s.engine.Group("/v1")
	v1.POST("/notify", s.handleNotify)
	v1.POST("/config/reload", s.handleConfigReload)

	acct := v1.Group("/accounting")
	acct.POST("/notify", s.handleAccountingNotify)
	acct.POST("/invoice", s.handleAccountingInvoice)
}

// Run serves until ctx is canceled, then drains with a short grace period.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleNotify(c *gin.Context) {
	var p notifyPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data, ref, err := normalize(p)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if !s.dispatcher.Notify(data, ref) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queue full"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued", "correlation_id": data.CorrelationID()})
}

func (s *Server) handleConfigReload(c *gin.Context) {
	if err := s.channels.Reload(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reloaded"})
}

type transactionPayload struct {
	ID              string    `json:"id" binding:"required"`
	Type            string    `json:"type" binding:"required,oneof=income expense"`
	Amount          float64   `json:"amount" binding:"required"`
	Description     string    `json:"description"`
	TransactionDate time.Time `json:"transaction_date"`
}

func (s *Server) handleAccountingNotify(c *gin.Context) {
	var p transactionPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if p.TransactionDate.IsZero() {
		p.TransactionDate = time.Now()
	}

	sent, total := s.acct.NotifyTransaction(c.Request.Context(), storage.TransactionRow{
		ID:              p.ID,
		Type:            p.Type,
		Amount:          p.Amount,
		Description:     p.Description,
		TransactionDate: p.TransactionDate,
	})
	c.JSON(http.StatusOK, gin.H{"sent": sent, "recipients": total})
}

type invoicePayload struct {
	Number       string    `json:"number" binding:"required"`
	CustomerName string    `json:"customer_name"`
	Currency     string    `json:"currency"`
	Date         time.Time `json:"date"`
	Items        []struct {
		Description string  `json:"description"`
		Quantity    int     `json:"quantity"`
		UnitPrice   float64 `json:"unit_price"`
	} `json:"items" binding:"required,min=1"`
}

func (s *Server) handleAccountingInvoice(c *gin.Context) {
	var p invoicePayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if p.Date.IsZero() {
		p.Date = time.Now()
	}
	if p.Currency == "" {
		p.Currency = "USD"
	}

	inv := accounting.Invoice{
		Number:       p.Number,
		CustomerName: p.CustomerName,
		Currency:     p.Currency,
		Date:         p.Date,
	}
	for _, it := range p.Items {
		inv.Items = append(inv.Items, accounting.InvoiceItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}

	textOK, pdfOK := s.acct.SendInvoice(c.Request.Context(), inv)
	c.JSON(http.StatusOK, gin.H{"text_sent": textOK, "pdf_sent": pdfOK})
}

// ---- middleware ----

func requestLog(log logx.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("http request",
			logx.String("method", c.Request.Method),
			logx.String("path", c.Request.URL.Path),
			logx.Int("status", c.Writer.Status()),
			logx.Duration("took", time.Since(start)))
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
