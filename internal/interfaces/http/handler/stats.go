package handler

import (
	"context"

	"github.com/gin-gonic/gin"
)

// StatsReader reads named activity counters from the stats read model
type StatsReader interface {
	GetCounter(ctx context.Context, counter string) (string, error)
}

// StatsHandler exposes the marketplace activity counters. The counters
// are an eventually consistent read model; the ledger remains the
// source of truth for money.
type StatsHandler struct {
	BaseHandler
	stats StatsReader
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(stats StatsReader) *StatsHandler {
	return &StatsHandler{
		stats: stats,
	}
}

// MarketStatsResponse represents the marketplace activity summary
type MarketStatsResponse struct {
	TradesCreated    string `json:"trades_created"`
	TradesCompleted  string `json:"trades_completed"`
	DisputesOpened   string `json:"disputes_opened"`
	DisputesResolved string `json:"disputes_resolved"`
	TradeVolume      string `json:"trade_volume"`
	DepositsTotal    string `json:"deposits_total"`
	WithdrawalsTotal string `json:"withdrawals_total"`
}

// GetMarketStats returns the current activity counters
func (h *StatsHandler) GetMarketStats(c *gin.Context) {
	ctx := c.Request.Context()

	resp := MarketStatsResponse{}
	reads := []struct {
		counter string
		dest    *string
	}{
		{"trades_created", &resp.TradesCreated},
		{"trades_completed", &resp.TradesCompleted},
		{"disputes_opened", &resp.DisputesOpened},
		{"disputes_resolved", &resp.DisputesResolved},
		{"trade_volume", &resp.TradeVolume},
		{"deposits_total", &resp.DepositsTotal},
		{"withdrawals_total", &resp.WithdrawalsTotal},
	}

	for _, r := range reads {
		value, err := h.stats.GetCounter(ctx, r.counter)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		*r.dest = value
	}

	h.Success(c, resp)
}
