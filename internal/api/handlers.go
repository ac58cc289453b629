package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rgehrsitz/quotego/internal/documents"
	"github.com/rgehrsitz/quotego/internal/domain"
	"github.com/rgehrsitz/quotego/internal/session"
	"github.com/rgehrsitz/quotego/internal/store"
	"github.com/rgehrsitz/quotego/internal/wizard"
)

type stepView struct {
	ID                string             `json:"id"`
	Title             string             `json:"title"`
	Fields            []wizard.FieldSpec `json:"fields"`
	RequiredDocuments []string           `json:"requiredDocuments,omitempty"`
}

func newStepView(sd wizard.StepDefinition) stepView {
	return stepView{ID: sd.ID, Title: sd.Title, Fields: sd.Fields, RequiredDocuments: sd.RequiredDocuments}
}

type stateResponse struct {
	session.State
	Step *stepView `json:"step,omitempty"`
}

func newStateResponse(st session.State) stateResponse {
	resp := stateResponse{State: st}
	if st.Step != nil {
		v := newStepView(*st.Step)
		resp.Step = &v
	}
	return resp
}

type lineView struct {
	Line   domain.InsuranceType `json:"line"`
	Name   string               `json:"name"`
	Steps  []stepView           `json:"steps"`
	AddOns []domain.AddOn       `json:"addOns"`
}

type startRequest struct {
	Line string `json:"line" binding:"required"`
}

type fieldsRequest struct {
	Fields map[string]string `json:"fields" binding:"required"`
}

type documentRequest struct {
	Kind    string `json:"kind" binding:"required"`
	Name    string `json:"name"`
	URI     string `json:"uri"`
	Extract bool   `json:"extract"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListLines describes every insurance line with its steps and add-ons
func (s *Server) ListLines(c *gin.Context) {
	var out []lineView
	for _, line := range s.catalog.Lines() {
		graph, err := wizard.FlowFor(line)
		if err != nil {
			s.fail(c, err, nil)
			return
		}
		view := lineView{Line: line, Name: line.DisplayName()}
		for _, sd := range graph.Steps() {
			view.Steps = append(view.Steps, newStepView(sd))
		}
		if addOns := s.catalog.AddOns(line); addOns != nil {
			view.AddOns = addOns.AddOns
		}
		out = append(out, view)
	}
	c.JSON(http.StatusOK, gin.H{"lines": out})
}

// StartQuote opens a wizard session for a line
func (s *Server) StartQuote(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	line, err := domain.ParseInsuranceType(req.Line)
	if err != nil {
		badRequest(c, err)
		return
	}
	if s.catalog.Table(line) == nil {
		abort(c, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("no rate table for %s", line))
		return
	}

	sess, err := session.Start(line, s.pricing(line), s.opts)
	if err != nil {
		s.fail(c, err, nil)
		return
	}
	s.sessions.Prune()
	s.sessions.Add(sess)
	s.persist(c.Request.Context(), sess)
	s.logger.Infof("started %s quote %s", line, sess.ID())
	c.JSON(http.StatusCreated, newStateResponse(sess.State()))
}

// ResumeQuote reopens a cached draft at the step it was left on
func (s *Server) ResumeQuote(c *gin.Context) {
	id := c.Param("id")
	if sess, ok := s.sessions.Get(id); ok && !sess.Closed() {
		c.JSON(http.StatusOK, newStateResponse(sess.State()))
		return
	}
	if s.drafts == nil {
		s.fail(c, errSessionNotFound, nil)
		return
	}
	draft, err := s.drafts.LoadDraft(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err, nil)
		return
	}
	sess, err := session.Resume(draft, s.pricing(draft.InsuranceType), s.opts)
	if err != nil {
		s.fail(c, err, nil)
		return
	}
	s.sessions.Add(sess)
	c.JSON(http.StatusOK, newStateResponse(sess.State()))
}

func (s *Server) lookup(c *gin.Context) (*session.Session, bool) {
	sess, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		s.fail(c, errSessionNotFound, nil)
		return nil, false
	}
	return sess, true
}

// GetQuote returns the current state of a session
func (s *Server) GetQuote(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newStateResponse(sess.State()))
}

// AbandonQuote closes a session and drops its cached draft
func (s *Server) AbandonQuote(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	id := sess.ID()
	s.sessions.Remove(id)
	s.forget(c.Request.Context(), id)
	c.Status(http.StatusNoContent)
}

// UpdateFields merges field values into the draft
func (s *Server) UpdateFields(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	var req fieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	touched, err := sess.Update(req.Fields)
	if err != nil {
		s.fail(c, err, nil)
		return
	}
	s.persist(c.Request.Context(), sess)
	c.JSON(http.StatusOK, gin.H{"touched": touched, "state": newStateResponse(sess.State())})
}

// ToggleAddOn flips an add-on selection
func (s *Server) ToggleAddOn(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	addOn := c.Param("addon")
	if catalog := s.catalog.AddOns(sess.Line()); catalog == nil {
		abort(c, http.StatusNotFound, "NOT_FOUND", "no add-ons for this line")
		return
	} else if _, known := catalog.Find(addOn); !known {
		abort(c, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("unknown add-on %q", addOn))
		return
	}
	selected, err := sess.ToggleAddOn(addOn)
	if err != nil {
		s.fail(c, err, nil)
		return
	}
	s.persist(c.Request.Context(), sess)
	c.JSON(http.StatusOK, gin.H{"selected": selected, "state": newStateResponse(sess.State())})
}

// AttachDocument records a document and optionally extracts fields from it.
// Extracted values that disagree with what was entered are reported.
func (s *Server) AttachDocument(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	var req documentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ref := domain.DocumentRef{Kind: req.Kind, Name: req.Name, URI: req.URI}

	if !req.Extract || s.extractor == nil {
		if err := sess.AttachDocument(ref); err != nil {
			s.fail(c, err, nil)
			return
		}
		s.persist(c.Request.Context(), sess)
		c.JSON(http.StatusOK, gin.H{"state": newStateResponse(sess.State())})
		return
	}

	before := sess.Draft()
	touched, err := sess.ApplyExtraction(c.Request.Context(), s.extractor, ref)
	if err != nil {
		s.fail(c, err, nil)
		return
	}
	after := sess.Draft()
	extracted := make(map[string]string, len(touched))
	for _, key := range touched {
		extracted[key] = after.Field(key)
	}
	s.persist(c.Request.Context(), sess)
	c.JSON(http.StatusOK, gin.H{
		"touched":    touched,
		"mismatches": documents.Compare(extracted, before.Fields),
		"state":      newStateResponse(sess.State()),
	})
}

// Advance validates the current step and moves on
func (s *Server) Advance(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	errs, err := sess.Advance()
	if err != nil {
		s.fail(c, err, errs)
		return
	}
	s.persist(c.Request.Context(), sess)
	c.JSON(http.StatusOK, newStateResponse(sess.State()))
}

// Retreat moves back one step
func (s *Server) Retreat(c *gin.Context) {
	s.navigate(c, (*session.Session).Retreat)
}

// Reset returns to the first step
func (s *Server) Reset(c *gin.Context) {
	s.navigate(c, (*session.Session).Reset)
}

// JumpTo moves to a reached step given by id or index
func (s *Server) JumpTo(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	target := c.Param("step")
	index := -1
	for i, sd := range sess.Steps() {
		if sd.ID == target {
			index = i
			break
		}
	}
	if index < 0 {
		n, err := strconv.Atoi(target)
		if err != nil {
			abort(c, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("unknown step %q", target))
			return
		}
		index = n
	}
	s.navigate(c, func(sess *session.Session) error { return sess.JumpTo(index) })
}

func (s *Server) navigate(c *gin.Context, move func(*session.Session) error) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	if err := move(sess); err != nil {
		s.fail(c, err, nil)
		return
	}
	s.persist(c.Request.Context(), sess)
	c.JSON(http.StatusOK, newStateResponse(sess.State()))
}

// Calculate prices the draft. The calculation is abandoned when the client
// goes away and discarded when the draft changed while it was running.
func (s *Server) Calculate(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	res := <-sess.CalculateAsync(c.Request.Context())
	if res.Err != nil {
		s.fail(c, res.Err, nil)
		return
	}
	s.persist(c.Request.Context(), sess)
	c.JSON(http.StatusOK, gin.H{"premium": res.Premium, "state": newStateResponse(sess.State())})
}

// Submit hands a completed quote to the store
func (s *Server) Submit(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	quote, err := sess.Submit(c.Request.Context(), s.store, agentID(c))
	if err != nil {
		var fields domain.FieldErrors
		errors.As(err, &fields)
		s.fail(c, err, fields)
		return
	}
	s.sessions.Remove(quote.Draft.ID)
	s.forget(c.Request.Context(), quote.Draft.ID)
	c.JSON(http.StatusCreated, quote)
}

func parseFilter(c *gin.Context) (store.Filter, error) {
	filter := store.Filter{Search: c.Query("q")}
	if v := c.Query("line"); v != "" {
		line, err := domain.ParseInsuranceType(v)
		if err != nil {
			return filter, err
		}
		filter.Line = line
	}
	if v := c.Query("status"); v != "" {
		status, err := domain.ParseQuoteStatus(v)
		if err != nil {
			return filter, err
		}
		filter.Status = status
	}
	return filter, nil
}

// ListSaved lists submitted quotes
func (s *Server) ListSaved(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	quotes, err := s.store.List(c.Request.Context(), filter)
	if err != nil {
		s.fail(c, err, nil)
		return
	}
	if quotes == nil {
		quotes = []*domain.SubmittedQuote{}
	}
	c.JSON(http.StatusOK, gin.H{"quotes": quotes, "count": len(quotes)})
}

// ExportSaved renders submitted quotes as table, json or csv
func (s *Server) ExportSaved(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	format := c.DefaultQuery("format", "json")
	quotes, err := s.store.List(c.Request.Context(), filter)
	if err != nil {
		s.fail(c, err, nil)
		return
	}
	out, err := store.Export(format, quotes, s.now())
	if err != nil {
		badRequest(c, err)
		return
	}
	contentType := "text/plain; charset=utf-8"
	switch format {
	case "json":
		contentType = "application/json; charset=utf-8"
	case "csv":
		contentType = "text/csv; charset=utf-8"
	}
	c.Data(http.StatusOK, contentType, []byte(out))
}

// GetSaved returns one submitted quote
func (s *Server) GetSaved(c *gin.Context) {
	quote, err := s.store.Get(c.Request.Context(), c.Param("ref"))
	if err != nil {
		s.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// UpdateSavedStatus moves a submitted quote through its lifecycle
func (s *Server) UpdateSavedStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	status, err := domain.ParseQuoteStatus(req.Status)
	if err != nil {
		badRequest(c, err)
		return
	}
	ref := c.Param("ref")
	if err := s.store.UpdateStatus(c.Request.Context(), ref, status); err != nil {
		s.fail(c, err, nil)
		return
	}
	s.GetSaved(c)
}
