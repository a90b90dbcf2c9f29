package server

import (
	// Go Internal Packages
	"net/http"
	"strconv"

	// Local Packages
	errors "coinnet/errors"
	models "coinnet/models"

	// External Packages
	"github.com/gin-gonic/gin"
)

type availabilityRequest struct {
	IsAvailable       *bool  `json:"is_available"`
	DeclaredLiquidity *int64 `json:"declared_liquidity"`
}

func (s *Server) handleRegisterProvider(c *gin.Context) {
	var reg models.ProviderRegistration
	if err := c.ShouldBindJSON(&reg); err != nil {
		s.writeError(c, errors.InvalidBodyErr(err))
		return
	}
	p, err := s.directory.Register(c.Request.Context(), actorOf(c), reg)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) handleMyProvider(c *gin.Context) {
	p, err := s.directory.GetByOwner(c.Request.Context(), actorOf(c).ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// handleGetProvider returns the full record to its owner and administrators
// and the public summary to everyone else.
func (s *Server) handleGetProvider(c *gin.Context) {
	p, err := s.directory.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	actor := actorOf(c)
	if actor.IsAdmin() || actor.ID == p.OwnerID {
		c.JSON(http.StatusOK, p)
		return
	}
	c.JSON(http.StatusOK, p.Summary())
}

func (s *Server) handleUpdateProvider(c *gin.Context) {
	var upd models.ProviderUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		s.writeError(c, errors.InvalidBodyErr(err))
		return
	}
	p, err := s.directory.Update(c.Request.Context(), actorOf(c), c.Param("id"), upd)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleSetAvailability(c *gin.Context) {
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, errors.InvalidBodyErr(err))
		return
	}
	if req.IsAvailable == nil {
		s.writeError(c, errors.EmptyParamErr("is_available"))
		return
	}
	p, err := s.directory.SetAvailability(c.Request.Context(), actorOf(c), c.Param("id"), *req.IsAvailable, req.DeclaredLiquidity)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleFindNearby(c *gin.Context) {
	q, err := parseSearchQuery(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	results, err := s.directory.FindNearby(c.Request.Context(), q)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

func parseSearchQuery(c *gin.Context) (models.SearchQuery, error) {
	var q models.SearchQuery
	ve := errors.ValidationErrs()

	parseFloat := func(name string, required bool, dst *float64) {
		raw := c.Query(name)
		if raw == "" {
			if required {
				ve.Add(name, "cannot be empty")
			}
			return
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			ve.Add(name, "must be a number")
			return
		}
		*dst = v
	}
	parseFloat("lat", true, &q.Lat)
	parseFloat("lng", true, &q.Lng)
	parseFloat("radius_km", false, &q.RadiusKm)

	if raw := c.Query("amount"); raw == "" {
		ve.Add("amount", "cannot be empty")
	} else if v, err := strconv.ParseInt(raw, 10, 64); err != nil {
		ve.Add("amount", "must be a whole number")
	} else {
		q.Amount = v
	}

	if err := ve.Err(); err != nil {
		return models.SearchQuery{}, errors.InvalidParamsErr(err)
	}
	return q, nil
}
