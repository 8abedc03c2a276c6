package server

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seo-compare/engine/compare"
	"github.com/seo-compare/engine/pipeline"
	"github.com/seo-compare/engine/stats"
)

func (s *Server) handleHealth(c *gin.Context) {
	_, err := s.store.Get()
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"baseline_loaded": err == nil,
		"uptime":          time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleGetBaseline(c *gin.Context) {
	res, err := s.store.Get()
	if err != nil {
		httpError(c, pipeline.ErrNoBaseline)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleExtractBaseline(c *gin.Context) {
	res, err := s.pipe.ExtractBaseline(c.Request.Context(), nil)
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Baseline extraction completed.",
		"path":    s.store.Path(),
		"result":  res,
	})
}

func (s *Server) handleCompare(c *gin.Context) {
	compURL, ok := requestURL(c, "competitor_url")
	if !ok {
		return
	}
	cmp, err := s.pipe.Compare(c.Request.Context(), compURL, nil)
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, comparePayload(cmp))
}

func (s *Server) handleExtractCompetitor(c *gin.Context) {
	compURL, ok := requestURL(c, "url")
	if !ok {
		return
	}
	res, path, err := s.pipe.ExtractCompetitor(c.Request.Context(), compURL, nil)
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": fmt.Sprintf("Extraction for %s completed.", compURL),
		"path":    path,
		"result":  res,
	})
}

func (s *Server) handleStatistics(c *gin.Context) {
	months := make(map[string]stats.MonthlyStats)
	for _, key := range s.usage.GetAllMonths() {
		if m, ok := s.usage.GetMonthlyStats(key); ok {
			months[key] = m
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"month":   time.Now().Format("2006-01"),
		"current": s.usage.GetCurrentStats(),
		"months":  months,
	})
}

// requestURL pulls a target URL from the query string or, failing that,
// a JSON body, and validates it. On bad input it writes the 400 itself.
func requestURL(c *gin.Context, param string) (string, bool) {
	raw := c.Query(param)
	if raw == "" {
		var body struct {
			URL           string `json:"url"`
			CompetitorURL string `json:"competitor_url"`
		}
		if err := c.ShouldBindJSON(&body); err == nil {
			raw = body.CompetitorURL
			if raw == "" {
				raw = body.URL
			}
		}
	}
	normalized, err := pipeline.ValidateURL(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return normalized, true
}

// comparePayload flattens a comparison into the wire shape the frontend
// consumes: display-ready score strings plus the raw category maps.
func comparePayload(cmp *compare.Result) gin.H {
	return gin.H{
		"overall_score":    scoreString(cmp.Baseline.Overall),
		"competitor_score": scoreString(cmp.Competitor.Overall),
		"gaps":             strconv.Itoa(cmp.Gaps),
		"techDebt":         cmp.Competitor.TechDebt,
		"categories":       cmp.Baseline.Categories,
		"comp_categories":  cmp.Competitor.Categories,
		"details":          cmp.Details,
		"baseline_url":     cmp.Baseline.URL,
		"competitor_url":   cmp.Competitor.URL,
		"ai_analysis":      cmp.AIAnalysis,
		"run_id":           cmp.RunID,
	}
}

func scoreString(score float64) string {
	return fmt.Sprintf("%d/100", int(math.Round(score)))
}

func httpError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pipeline.ErrNoBaseline):
		c.JSON(http.StatusNotFound, gin.H{"error": "Baseline not computed. Run the baseline extraction first."})
	case errors.Is(err, pipeline.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "A baseline extraction is already running."})
	case errors.Is(err, pipeline.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Analysis timed out. Try again or raise PIPELINE_TIMEOUT."})
	case errors.Is(err, pipeline.ErrUnreachable), errors.Is(err, pipeline.ErrCrawlAborted):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Comparison failed: " + err.Error()})
	}
}
