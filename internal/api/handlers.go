package api

import (
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	adapterapi "gogsea/adapters/api"
	"gogsea/app"
	"gogsea/domain/core"
	"gogsea/domain/geneset"
	"gogsea/internal/errors"

	"github.com/gin-gonic/gin"
)

// Response headers that let a client replay an analysis.
const (
	HeaderRunID = "X-Analysis-Run-ID"
	HeaderSeed  = "X-Analysis-Seed"
)

const (
	defaultRunListLimit = 20
	maxRunListLimit     = 200
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleSpecies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"species": s.analyses.Species()})
}

// handleAnalyse runs POST /analyse for a JSON or text/plain ranking
func (s *Server) handleAnalyse(c *gin.Context) {
	req, err := analysisRequestFromQuery(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.settings.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			s.respondError(c, core.NewParseError(0, "request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.respondError(c, core.NewParseError(0, "reading request body: %v", err))
		return
	}

	req.Pairs, err = adapterapi.DecodePayload(c.ContentType(), body)
	if err != nil {
		s.respondError(c, err)
		return
	}

	outcome, err := s.analyses.Analyse(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.Header(HeaderRunID, outcome.RunID.String())
	c.Header(HeaderSeed, strconv.FormatInt(outcome.Seed, 10))
	c.JSON(http.StatusOK, outcome.Results)
}

// analysisRequestFromQuery reads species, nperms, dataSetSizeMin,
// dataSetSizeMax and seed
func analysisRequestFromQuery(c *gin.Context) (app.AnalysisRequest, error) {
	req := app.AnalysisRequest{
		Species: core.ParseSpecies(c.Query("species")),
		Bounds:  geneset.DefaultSizeBounds(),
	}

	var err error
	if v, ok := c.GetQuery("nperms"); ok {
		if req.Permutations, err = strconv.Atoi(v); err != nil {
			return req, core.NewConfigError("nperms", "must be an integer")
		}
		if req.Permutations < 1 {
			return req, core.NewConfigError("nperms", "must be at least 1")
		}
	}
	if v, ok := c.GetQuery("dataSetSizeMin"); ok {
		if req.Bounds.Min, err = strconv.Atoi(v); err != nil {
			return req, core.NewConfigError("dataSetSizeMin", "must be an integer")
		}
	}
	if v, ok := c.GetQuery("dataSetSizeMax"); ok {
		if req.Bounds.Max, err = strconv.Atoi(v); err != nil {
			return req, core.NewConfigError("dataSetSizeMax", "must be an integer")
		}
	}
	if v, ok := c.GetQuery("seed"); ok {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return req, core.NewConfigError("seed", "must be a 64-bit integer")
		}
		req.Seed = &seed
	}
	return req, nil
}

func (s *Server) handleGetRun(c *gin.Context) {
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		s.respondError(c, errors.NotFound("analysis run"))
		return
	}

	run, err := s.analyses.GetRun(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) handleListRuns(c *gin.Context) {
	limit := defaultRunListLimit
	if v, ok := c.GetQuery("limit"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.respondError(c, core.NewConfigError("limit", "must be a positive integer"))
			return
		}
		limit = min(n, maxRunListLimit)
	}

	runs, err := s.analyses.ListRuns(c.Request.Context(), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// respondError maps err to its status and writes {"error", "code"}
func (s *Server) respondError(c *gin.Context, err error) {
	appErr := errors.FromDomain(err)
	status := errors.HTTPStatus(appErr.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("[API] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	} else {
		s.logger.Debug("[API] %s %s rejected (%s): %v", c.Request.Method, c.Request.URL.Path, appErr.Code, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": appErr.Message, "code": appErr.Code})
}
