// Package testmocks holds testify mocks for the handler dependencies.
package testmocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/irfndi/btc-dashboard-go/internal/models"
)

// MockMarketProvider implements handlers.MarketProvider for testing
type MockMarketProvider struct {
	mock.Mock
}

func (m *MockMarketProvider) Historical(ctx context.Context, rangeCode string) ([][2]float64, error) {
	args := m.Called(ctx, rangeCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][2]float64), args.Error(1)
}

func (m *MockMarketProvider) MarketStructure(ctx context.Context) (*models.MarketStructure, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MarketStructure), args.Error(1)
}

// MockNetworkProvider implements handlers.NetworkProvider for testing
type MockNetworkProvider struct {
	mock.Mock
}

func (m *MockNetworkProvider) Nodes(ctx context.Context) map[string]interface{} {
	args := m.Called(ctx)
	return args.Get(0).(map[string]interface{})
}

func (m *MockNetworkProvider) OnchainSupply(ctx context.Context) (*models.OnchainSupply, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OnchainSupply), args.Error(1)
}

func (m *MockNetworkProvider) MinerEconomics(ctx context.Context) (*models.MinerEconomics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MinerEconomics), args.Error(1)
}

func (m *MockNetworkProvider) AdoptionUsage(ctx context.Context) (*models.AdoptionUsage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AdoptionUsage), args.Error(1)
}

// MockMacroProvider implements handlers.MacroProvider for testing
type MockMacroProvider struct {
	mock.Mock
}

func (m *MockMacroProvider) FXRate(ctx context.Context) models.FXRate {
	args := m.Called(ctx)
	return args.Get(0).(models.FXRate)
}

func (m *MockMacroProvider) MacroContext(ctx context.Context) (*models.MacroContext, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MacroContext), args.Error(1)
}

// MockHealthChecker implements handlers.HealthChecker for testing
type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
