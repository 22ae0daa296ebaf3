// Package nodes wires the built-in node catalog into a registry.
package nodes

import (
	"github.com/tradeflow/tradeflow/internal/domain"
	"github.com/tradeflow/tradeflow/pkg/nodes/ai"
	"github.com/tradeflow/tradeflow/pkg/nodes/conditions"
	"github.com/tradeflow/tradeflow/pkg/nodes/indicators"
	"github.com/tradeflow/tradeflow/pkg/nodes/marketdata"
	"github.com/tradeflow/tradeflow/pkg/nodes/memory"
	"github.com/tradeflow/tradeflow/pkg/nodes/news"
	"github.com/tradeflow/tradeflow/pkg/nodes/notifications"
	"github.com/tradeflow/tradeflow/pkg/nodes/orders"
	"github.com/tradeflow/tradeflow/pkg/nodes/risk"
	"github.com/tradeflow/tradeflow/pkg/nodes/triggers"

	"github.com/rs/zerolog/log"
)

type registration struct {
	nodeType   string
	newCreator func(deps domain.NodeDeps) domain.NodeCreator
}

var registrations = []registration{
	// Market data
	{marketdata.NodeTypeGetLivePrice, marketdata.NewGetLivePriceCreator},
	{marketdata.NodeTypeGetAccountInfo, marketdata.NewGetAccountInfoCreator},
	{marketdata.NodeTypeGetHistoricalData, marketdata.NewGetHistoricalDataCreator},

	// Orders
	{orders.NodeTypeMarketOrder, orders.NewMarketOrderCreator},
	{orders.NodeTypeClosePosition, orders.NewClosePositionCreator},

	// Conditions
	{conditions.NodeTypeCompare, conditions.NewCompareCreator},
	{conditions.NodeTypeIfElse, conditions.NewIfElseCreator},

	// Indicators
	{indicators.NodeTypeRSI, indicators.NewRSICreator},
	{indicators.NodeTypeMACD, indicators.NewMACDCreator},
	{indicators.NodeTypeMovingAverage, indicators.NewMovingAverageCreator},
	{indicators.NodeTypeBollingerBands, indicators.NewBollingerBandsCreator},
	{indicators.NodeTypeATR, indicators.NewATRCreator},

	// Risk management
	{risk.NodeTypePositionSizer, risk.NewPositionSizerCreator},
	{risk.NodeTypeRiskRewardCalculator, risk.NewRiskRewardCalculatorCreator},
	{risk.NodeTypeMaxPositions, risk.NewMaxPositionsCreator},
	{risk.NodeTypeDailyLossLimit, risk.NewDailyLossLimitCreator},
	{risk.NodeTypeDrawdownMonitor, risk.NewDrawdownMonitorCreator},

	// News and sentiment
	{news.NodeTypeNewsFetch, news.NewNewsFetchCreator},
	{news.NodeTypeSentimentAnalysis, news.NewSentimentAnalysisCreator},

	// State memory
	{memory.NodeTypeSetState, memory.NewSetStateCreator},
	{memory.NodeTypeGetState, memory.NewGetStateCreator},

	// Notifications
	{notifications.NodeTypeDashboardNotification, notifications.NewDashboardNotificationCreator},
	{notifications.NodeTypeSlackNotification, notifications.NewSlackNotificationCreator},

	// AI agents
	{ai.NodeTypeOpenAI, ai.NewOpenAICreator},
	{ai.NodeTypeClaude, ai.NewClaudeCreator},
	{ai.NodeTypeGroq, ai.NewGroqCreator},
	{ai.NodeTypeOpenRouter, ai.NewOpenRouterCreator},
}

var triggerTypes = []string{
	triggers.NodeTypeManualTrigger,
	triggers.NodeTypeScheduleTrigger,
	triggers.NodeTypeTimeTrigger,
	triggers.NodeTypePriceTrigger,
	triggers.NodeTypeIndicatorTrigger,
	triggers.NodeTypeWebhookTrigger,
}

// RegisterAll populates the registry with the full built-in catalog.
func RegisterAll(registry *domain.NodeRegistry, deps domain.NodeDeps) {
	for _, r := range registrations {
		log.Debug().Str("node_type", r.nodeType).Msg("Registering node type")

		registry.Register(r.nodeType, r.newCreator(deps))
	}

	for _, triggerType := range triggerTypes {
		registry.Register(triggerType, triggers.NewCreator(triggerType))
	}
}
