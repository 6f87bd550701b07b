package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/btc-dashboard-go/internal/models"
)

// MarketProvider serves price-history backed resources.
type MarketProvider interface {
	Historical(ctx context.Context, rangeCode string) ([][2]float64, error)
	MarketStructure(ctx context.Context) (*models.MarketStructure, error)
}

// NetworkProvider serves chain and node resources.
type NetworkProvider interface {
	Nodes(ctx context.Context) map[string]interface{}
	OnchainSupply(ctx context.Context) (*models.OnchainSupply, error)
	MinerEconomics(ctx context.Context) (*models.MinerEconomics, error)
	AdoptionUsage(ctx context.Context) (*models.AdoptionUsage, error)
}

// MacroProvider serves FX and CPI resources.
type MacroProvider interface {
	FXRate(ctx context.Context) models.FXRate
	MacroContext(ctx context.Context) (*models.MacroContext, error)
}

// DashboardHandler serves the dashboard JSON endpoints.
type DashboardHandler struct {
	market  MarketProvider
	network NetworkProvider
	macro   MacroProvider
	logger  *logrus.Logger
}

func NewDashboardHandler(market MarketProvider, network NetworkProvider, macro MacroProvider, logger *logrus.Logger) *DashboardHandler {
	return &DashboardHandler{
		market:  market,
		network: network,
		macro:   macro,
		logger:  logger,
	}
}

// GetHistorical handles GET /api/bitcoin-historical/:range
func (h *DashboardHandler) GetHistorical(c *gin.Context) {
	prices, err := h.market.Historical(c.Request.Context(), c.Param("range"))
	if err != nil {
		respondError(c, h.logger, "historical", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prices": prices})
}

// GetNodes handles GET /api/nodes-latest. Always 200.
func (h *DashboardHandler) GetNodes(c *gin.Context) {
	c.JSON(http.StatusOK, h.network.Nodes(c.Request.Context()))
}

// GetMarketStructure handles GET /api/market-structure
func (h *DashboardHandler) GetMarketStructure(c *gin.Context) {
	snapshot, err := h.market.MarketStructure(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "market_structure", err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// GetOnchainSupply handles GET /api/onchain-supply
func (h *DashboardHandler) GetOnchainSupply(c *gin.Context) {
	supply, err := h.network.OnchainSupply(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "onchain_supply", err)
		return
	}
	c.JSON(http.StatusOK, supply)
}

// GetMinerEconomics handles GET /api/miner-economics
func (h *DashboardHandler) GetMinerEconomics(c *gin.Context) {
	miners, err := h.network.MinerEconomics(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "miner_economics", err)
		return
	}
	c.JSON(http.StatusOK, miners)
}

// GetAdoptionUsage handles GET /api/adoption-usage
func (h *DashboardHandler) GetAdoptionUsage(c *gin.Context) {
	usage, err := h.network.AdoptionUsage(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "adoption_usage", err)
		return
	}
	c.JSON(http.StatusOK, usage)
}

// GetFXRate handles GET /api/fx-rate. Always 200.
func (h *DashboardHandler) GetFXRate(c *gin.Context) {
	c.JSON(http.StatusOK, h.macro.FXRate(c.Request.Context()))
}

// GetMacroContext handles GET /api/macro-context
func (h *DashboardHandler) GetMacroContext(c *gin.Context) {
	macro, err := h.macro.MacroContext(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "macro_context", err)
		return
	}
	c.JSON(http.StatusOK, macro)
}
