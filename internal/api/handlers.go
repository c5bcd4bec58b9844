package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/merlin-energy/truequote/internal/answers"
	"github.com/merlin-energy/truequote/internal/engine"
	"github.com/merlin-energy/truequote/internal/logging"
	"github.com/merlin-energy/truequote/internal/templates"
)

// quoteRequest is the request body of both quote endpoints.
type quoteRequest struct {
	IndustryID    string            `json:"industryId"    binding:"required"`
	Answers       answers.AnswerSet `json:"answers"`
	LocationZip   string            `json:"locationZip"   binding:"omitempty,numeric,len=5"`
	LocationState string            `json:"locationState" binding:"omitempty,alpha,len=2"`
}

func (q quoteRequest) toEngine() engine.Request {
	return engine.Request{
		IndustryID:    q.IndustryID,
		Answers:       q.Answers,
		LocationZip:   q.LocationZip,
		LocationState: q.LocationState,
	}
}

// templateSummary is one entry of the template listing.
type templateSummary struct {
	IndustryID   string `json:"industryId"`
	DisplayName  string `json:"displayName"`
	CalculatorID string `json:"calculatorId"`
	FieldCount   int    `json:"fieldCount"`
}

// loadProfileResponse is returned by the contract-only endpoint.
type loadProfileResponse struct {
	IndustryID   string             `json:"industryId"`
	CalculatorID string             `json:"calculatorId"`
	LoadProfile  engine.LoadProfile `json:"loadProfile"`
	Trace        engine.Trace       `json:"trace"`
}

func (rt *router) listTemplates(c *gin.Context) {
	reg := rt.engine.Templates()
	out := make([]templateSummary, 0, len(reg.IDs()))
	for _, t := range reg.All() {
		out = append(out, templateSummary{
			IndustryID:   t.IndustryID,
			DisplayName:  t.DisplayName,
			CalculatorID: t.CalculatorID,
			FieldCount:   len(t.ExpectedFields),
		})
	}
	c.JSON(http.StatusOK, gin.H{"templates": out})
}

func (rt *router) getTemplate(c *gin.Context) {
	tpl, err := rt.engine.Templates().GetTemplate(c.Param("id"))
	if err != nil {
		rt.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

func (rt *router) loadProfile(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
		return
	}
	cr, err := rt.engine.RunContractQuote(c.Request.Context(), req.toEngine())
	if err != nil {
		rt.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loadProfileResponse{
		IndustryID:   cr.IndustryID,
		CalculatorID: cr.CalculatorID,
		LoadProfile:  cr.LoadProfile,
		Trace:        cr.Trace,
	})
}

func (rt *router) quote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
		return
	}
	resp, err := rt.engine.Quote(c.Request.Context(), req.toEngine())
	if err != nil {
		rt.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// fail maps engine errors onto HTTP statuses.
func (rt *router) fail(c *gin.Context, err error) {
	var inputErr *answers.InputError
	switch {
	case errors.Is(err, templates.ErrTemplateNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &inputErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  err.Error(),
			"field":  inputErr.Field,
			"reason": inputErr.Reason,
		})
	default:
		logging.FromContext(c.Request.Context()).Error().
			Str("operation", "quote").
			Err(err).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
