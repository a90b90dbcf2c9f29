package server

import (
	// Go Internal Packages
	"net/http"

	// Local Packages
	errors "coinnet/errors"
	models "coinnet/models"

	// External Packages
	"github.com/gin-gonic/gin"
)

type resolveDisputeRequest struct {
	Outcome    models.Status `json:"outcome"`
	Resolution string        `json:"resolution"`
	Notes      string        `json:"notes"`
}

func (s *Server) handleAdminMetrics(c *gin.Context) {
	m, err := s.queries.AdminMetrics(c.Request.Context(), actorOf(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) handleAdminProviders(c *gin.Context) {
	status := models.VerificationStatus(c.Query("status"))
	providers, err := s.queries.Providers(c.Request.Context(), actorOf(c), status)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": providers, "count": len(providers)})
}

func (s *Server) handleVerifyProvider(c *gin.Context) {
	p, err := s.directory.Verify(c.Request.Context(), actorOf(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleSuspendProvider(c *gin.Context) {
	p, err := s.directory.Suspend(c.Request.Context(), actorOf(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleDisputes(c *gin.Context) {
	txs, err := s.queries.Disputes(c.Request.Context(), actorOf(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs, "count": len(txs)})
}

func (s *Server) handleResolveDispute(c *gin.Context) {
	var req resolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, errors.InvalidBodyErr(err))
		return
	}
	tx, err := s.machine.ResolveDispute(c.Request.Context(), c.Param("id"), actorOf(c), req.Outcome, req.Resolution, req.Notes)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}
