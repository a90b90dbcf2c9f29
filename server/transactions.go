package server

import (
	// Go Internal Packages
	"net/http"

	// Local Packages
	errors "coinnet/errors"
	models "coinnet/models"
	lifecycle "coinnet/services/lifecycle"

	// External Packages
	"github.com/gin-gonic/gin"
)

type createTransactionRequest struct {
	ProviderID string `json:"provider_id"`
	Amount     int64  `json:"amount"`
}

// transactionView is a transaction plus the actions the viewer may take next.
type transactionView struct {
	models.Transaction
	AvailableActions []lifecycle.Action `json:"available_actions"`
}

func viewFor(actor models.Actor, tx models.Transaction) transactionView {
	actions := []lifecycle.Action{}
	if !actor.IsAdmin() {
		actions = lifecycle.AvailableActions(tx.Status, actor.Role)
	}
	return transactionView{Transaction: tx, AvailableActions: actions}
}

func viewsFor(actor models.Actor, txs []models.Transaction) []transactionView {
	views := make([]transactionView, len(txs))
	for i, tx := range txs {
		views[i] = viewFor(actor, tx)
	}
	return views
}

func (s *Server) handleCreateTransaction(c *gin.Context) {
	var req createTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, errors.InvalidBodyErr(err))
		return
	}
	actor := actorOf(c)
	tx, err := s.machine.Create(c.Request.Context(), actor, req.ProviderID, req.Amount)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, viewFor(actor, tx))
}

func (s *Server) handleGetTransaction(c *gin.Context) {
	actor := actorOf(c)
	tx, err := s.machine.Get(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewFor(actor, tx))
}

func (s *Server) handleGetTransactionByCode(c *gin.Context) {
	actor := actorOf(c)
	tx, err := s.machine.GetByCode(c.Request.Context(), c.Param("code"), actor)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewFor(actor, tx))
}

func (s *Server) handleTransition(c *gin.Context) {
	action, ok := lifecycle.ParseAction(c.Param("action"))
	if !ok {
		s.writeError(c, errors.NotFoundErr("action", c.Param("action")))
		return
	}
	var payload lifecycle.Payload
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			s.writeError(c, errors.InvalidBodyErr(err))
			return
		}
	}

	actor := actorOf(c)
	tx, err := s.machine.Transition(c.Request.Context(), c.Param("id"), actor, action, payload)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewFor(actor, tx))
}

func (s *Server) handleMyTransactions(c *gin.Context) {
	actor := actorOf(c)
	txs, err := s.queries.MyTransactions(c.Request.Context(), actor.ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": viewsFor(actor, txs), "count": len(txs)})
}

// handleProviderQueue serves the caller's own queue unless an administrator
// names a provider_id.
func (s *Server) handleProviderQueue(c *gin.Context) {
	ctx := c.Request.Context()
	actor := actorOf(c)

	providerID := c.Query("provider_id")
	if providerID == "" {
		p, err := s.directory.GetByOwner(ctx, actor.ID)
		if err != nil {
			s.writeError(c, err)
			return
		}
		providerID = p.ID
	}
	txs, err := s.queries.ProviderQueue(ctx, actor, providerID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": viewsFor(actor, txs), "count": len(txs)})
}
