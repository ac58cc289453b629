// Package api serves the quotation wizard over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rgehrsitz/quotego/internal/calculation"
	"github.com/rgehrsitz/quotego/internal/catalog"
	"github.com/rgehrsitz/quotego/internal/documents"
	"github.com/rgehrsitz/quotego/internal/domain"
	"github.com/rgehrsitz/quotego/internal/identity"
	"github.com/rgehrsitz/quotego/internal/session"
	"github.com/rgehrsitz/quotego/internal/store"
)

// Dependencies are the collaborators a Server works with. Drafts, Extractor
// and Verifier are optional. Live sessions idle for longer than IdleTTL are
// dropped; zero keeps them until they close.
type Dependencies struct {
	Catalog   *catalog.Catalog
	Store     store.QuoteStore
	Drafts    store.DraftCache
	Extractor documents.Extractor
	Verifier  *identity.Verifier
	Options   session.Options
	IdleTTL   time.Duration
	Logger    calculation.Logger
}

// Server owns the live wizard sessions
type Server struct {
	catalog    *catalog.Catalog
	calculator *calculation.PremiumCalculator
	sessions   *session.Registry
	store      store.QuoteStore
	drafts     store.DraftCache
	extractor  documents.Extractor
	verifier   *identity.Verifier
	opts       session.Options
	logger     calculation.Logger
	now        func() time.Time
}

// NewServer wires the dependencies together
func NewServer(deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = calculation.NopLogger{}
	}
	calc := deps.Catalog.Calculator()
	calc.SetLogger(logger)

	opts := deps.Options
	if opts.Logger == nil {
		opts.Logger = logger
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	return &Server{
		catalog:    deps.Catalog,
		calculator: calc,
		sessions:   session.NewIdleRegistry(deps.IdleTTL, now),
		store:      deps.Store,
		drafts:     deps.Drafts,
		extractor:  deps.Extractor,
		verifier:   deps.Verifier,
		opts:       opts,
		logger:     logger,
		now:        now,
	}
}

// Router builds a gin engine with every route registered
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	s.RegisterRoutes(r)
	return r
}

// RegisterRoutes adds the API routes to router
func (s *Server) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", s.Health)

	v1 := router.Group("/api/v1")
	v1.Use(s.Authenticate())

	v1.GET("/lines", s.ListLines)

	quotes := v1.Group("/quotes")
	quotes.POST("", s.StartQuote)
	quotes.POST("/resume/:id", s.ResumeQuote)
	quotes.GET("/:id", s.GetQuote)
	quotes.DELETE("/:id", s.AbandonQuote)
	quotes.PATCH("/:id/fields", s.UpdateFields)
	quotes.POST("/:id/addons/:addon", s.ToggleAddOn)
	quotes.POST("/:id/documents", s.AttachDocument)
	quotes.POST("/:id/advance", s.Advance)
	quotes.POST("/:id/retreat", s.Retreat)
	quotes.POST("/:id/reset", s.Reset)
	quotes.POST("/:id/jump/:step", s.JumpTo)
	quotes.POST("/:id/calculate", s.Calculate)
	quotes.POST("/:id/submit", s.Submit)

	saved := v1.Group("/saved")
	saved.GET("", s.ListSaved)
	saved.GET("/export", s.ExportSaved)
	saved.GET("/:ref", s.GetSaved)
	saved.PATCH("/:ref/status", s.UpdateSavedStatus)
}

// Shutdown closes every live session
func (s *Server) Shutdown() {
	s.sessions.CloseAll()
}

// SessionCount reports the number of live sessions
func (s *Server) SessionCount() int {
	return s.sessions.Len()
}

func (s *Server) pricing(line domain.InsuranceType) session.Pricing {
	return session.Pricing{
		Calculator: s.calculator,
		Table:      s.catalog.Table(line),
		AddOns:     s.catalog.AddOns(line),
	}
}

// persist caches the draft so the wizard can be resumed later
func (s *Server) persist(ctx context.Context, sess *session.Session) {
	if s.drafts == nil {
		return
	}
	if err := s.drafts.SaveDraft(ctx, sess.Draft()); err != nil {
		s.logger.Warnf("failed to cache draft %s: %v", sess.ID(), err)
	}
}

func (s *Server) forget(ctx context.Context, id string) {
	if s.drafts == nil {
		return
	}
	if err := s.drafts.DeleteDraft(ctx, id); err != nil {
		s.logger.Warnf("failed to drop cached draft %s: %v", id, err)
	}
}

// Health reports liveness
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.sessions.Len()})
}
