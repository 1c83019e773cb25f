package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"order-engine/pkg/db"
)

// OrderRequest is the submission payload.
type OrderRequest struct {
	TokenIn  string          `json:"tokenIn" binding:"required"`
	TokenOut string          `json:"tokenOut" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	Slippage decimal.Decimal `json:"slippage"`
}

// OrderResponse mirrors the durable order record for API consumers.
type OrderResponse struct {
	OrderID       string           `json:"orderId"`
	TokenIn       string           `json:"tokenIn"`
	TokenOut      string           `json:"tokenOut"`
	Amount        decimal.Decimal  `json:"amount"`
	Slippage      decimal.Decimal  `json:"slippage"`
	Status        string           `json:"status"`
	SelectedVenue string           `json:"selectedVenue,omitempty"`
	RaydiumQuote  *decimal.Decimal `json:"raydiumQuote,omitempty"`
	MeteoraQuote  *decimal.Decimal `json:"meteoraQuote,omitempty"`
	ExecutedPrice *decimal.Decimal `json:"executedPrice,omitempty"`
	TxHash        string           `json:"txHash,omitempty"`
	ErrorMessage  string           `json:"errorMessage,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	CompletedAt   *time.Time       `json:"completedAt,omitempty"`
	Message       string           `json:"message,omitempty"`
}

func (s *Server) executeOrder(c *gin.Context) {
	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		return
	}
	if req.Slippage.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slippage must not be negative"})
		return
	}

	o, msg, err := s.Service.SubmitOrder(c.Request.Context(), req.TokenIn, req.TokenOut, req.Amount, req.Slippage)
	if err != nil {
		s.Log.Error("order submission failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit order"})
		return
	}

	resp := toOrderResponse(o)
	resp.Message = msg
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getOrder(c *gin.Context) {
	o, err := s.Service.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		s.Log.Error("order lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load order"})
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

func (s *Server) getRecentOrders(c *gin.Context) {
	orders, err := s.Service.ListRecentOrders(c.Request.Context())
	if err != nil {
		s.Log.Error("order listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
		return
	}

	resp := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, toOrderResponse(&orders[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getQueueStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.Service.QueueStats())
}

func toOrderResponse(o *db.Order) OrderResponse {
	resp := OrderResponse{
		OrderID:       o.ID,
		TokenIn:       o.TokenIn,
		TokenOut:      o.TokenOut,
		Amount:        o.Amount,
		Slippage:      o.Slippage,
		Status:        o.Status,
		SelectedVenue: o.SelectedVenue,
		TxHash:        o.TxHash,
		ErrorMessage:  o.ErrorMessage,
		CreatedAt:     o.CreatedAt,
	}
	if o.RaydiumQuote.Valid {
		resp.RaydiumQuote = &o.RaydiumQuote.Decimal
	}
	if o.MeteoraQuote.Valid {
		resp.MeteoraQuote = &o.MeteoraQuote.Decimal
	}
	if o.ExecutedPrice.Valid {
		resp.ExecutedPrice = &o.ExecutedPrice.Decimal
	}
	if o.CompletedAt.Valid {
		resp.CompletedAt = &o.CompletedAt.Time
	}
	return resp
}
