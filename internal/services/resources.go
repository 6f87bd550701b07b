package services

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/irfndi/btc-dashboard-go/internal/cache"
	"github.com/irfndi/btc-dashboard-go/internal/config"
)

var currencyPattern = regexp.MustCompile(`^[a-z]{3,5}$`)

// Resources are the cache entries the dashboard maintains, one per upstream
// value or derived payload.
type Resources struct {
	SpotPrice       cache.Resource
	MarketStructure cache.Resource
	BlockHeight     cache.Resource
	TotalSupply     cache.Resource
	MinerEconomics  cache.Resource
	AdoptionUsage   cache.Resource
	FXRate          cache.Resource
	MacroContext    cache.Resource
	Nodes           cache.Resource
}

// RegisterResources binds every cache key to its TTL. Keys carrying a price
// are suffixed with the quote currency so switching currency never serves a
// cached value in the old one.
func RegisterResources(reg *cache.Registry, ttl config.TTLConfig, vsCurrency string) (Resources, error) {
	vs := strings.ToLower(vsCurrency)
	if !currencyPattern.MatchString(vs) {
		return Resources{}, fmt.Errorf("invalid quote currency %q", vsCurrency)
	}

	var res Resources
	entries := []struct {
		dst   *cache.Resource
		key   string
		ttl   time.Duration
		field string
	}{
		{&res.SpotPrice, "btc_spot_" + vs, ttl.SpotPrice, "price"},
		{&res.MarketStructure, "market_structure_" + vs, ttl.MarketStructure, "metrics"},
		{&res.BlockHeight, "block_height", ttl.Onchain, "height"},
		{&res.TotalSupply, "total_supply", ttl.Onchain, "supply"},
		{&res.MinerEconomics, "miner_economics", ttl.MinerEconomics, "data"},
		{&res.AdoptionUsage, "adoption_usage", ttl.AdoptionUsage, "data"},
		{&res.FXRate, "fx_gbp_per_usd", ttl.FXRate, "rate"},
		{&res.MacroContext, "macro_context", ttl.MacroContext, "data"},
		{&res.Nodes, "bitnodes_latest", ttl.Nodes, "data"},
	}

	for _, e := range entries {
		r, err := reg.Register(e.key, e.ttl, e.field)
		if err != nil {
			return Resources{}, err
		}
		*e.dst = r
	}
	return res, nil
}
