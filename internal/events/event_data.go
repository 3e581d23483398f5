// Package events provides the fund's observable audit records: typed event
// payloads, a manager that journals and fans them out, and a websocket hub
// for live subscribers.
package events

// EventType identifies the kind of audit record.
type EventType string

const (
	DepositMade           EventType = "deposit"
	RedemptionRequested   EventType = "redemption_requested"
	RedemptionProcessed   EventType = "redemption_processed"
	ProtocolFeesCollected EventType = "protocol_fees_collected"
	StrategyAdded         EventType = "strategy_added"
	StrategiesRemoved     EventType = "strategies_removed"
	WeightsUpdated        EventType = "weights_updated"
	CapitalDeployed       EventType = "capital_deployed"
	QueueTrimmed          EventType = "queue_trimmed"
)

// EventData is the interface that all event payload types implement.
// This allows type-safe payloads while keeping the journal generic.
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// DepositData records capital entering the fund.
type DepositData struct {
	Payer        string `json:"payer"`
	Amount       uint64 `json:"amount"`
	Receiver     string `json:"receiver"`
	SharesMinted uint64 `json:"shares_minted"`
}

// EventType returns the event type for DepositData
func (d *DepositData) EventType() EventType { return DepositMade }

// RedemptionRequestedData records a withdrawal request entering the queue.
type RedemptionRequestedData struct {
	Requester string `json:"requester"`
	Shares    uint64 `json:"shares"`
	Index     int    `json:"index"`
}

// EventType returns the event type for RedemptionRequestedData
func (d *RedemptionRequestedData) EventType() EventType { return RedemptionRequested }

// RedemptionProcessedData records a settled batch over [Start, End).
type RedemptionProcessedData struct {
	Start        int      `json:"start"`
	End          int      `json:"end"`
	PaidAccounts []string `json:"paid_accounts"`
}

// EventType returns the event type for RedemptionProcessedData
func (d *RedemptionProcessedData) EventType() EventType { return RedemptionProcessed }

// ProtocolFeesCollectedData records a performance-fee accrual.
type ProtocolFeesCollectedData struct {
	FeeValue     uint64 `json:"fee_value"`
	SharesMinted uint64 `json:"shares_minted"`
	Treasury     string `json:"treasury"`
}

// EventType returns the event type for ProtocolFeesCollectedData
func (d *ProtocolFeesCollectedData) EventType() EventType { return ProtocolFeesCollected }

// StrategyAddedData records a new strategy registration.
type StrategyAddedData struct {
	Name   string `json:"name"`
	Weight uint64 `json:"weight"`
	Index  int    `json:"index"`
}

// EventType returns the event type for StrategyAddedData
func (d *StrategyAddedData) EventType() EventType { return StrategyAdded }

// StrategiesRemovedData records strategies removed from the registry.
type StrategiesRemovedData struct {
	Names []string `json:"names"`
}

// EventType returns the event type for StrategiesRemovedData
func (d *StrategiesRemovedData) EventType() EventType { return StrategiesRemoved }

// WeightsUpdatedData records a full replacement of the target weights.
type WeightsUpdatedData struct {
	Weights []uint64 `json:"weights"`
}

// EventType returns the event type for WeightsUpdatedData
func (d *WeightsUpdatedData) EventType() EventType { return WeightsUpdated }

// CapitalDeployedData records a rebalancing pass toward target weights.
type CapitalDeployedData struct {
	TotalCapital uint64 `json:"total_capital"`
}

// EventType returns the event type for CapitalDeployedData
func (d *CapitalDeployedData) EventType() EventType { return CapitalDeployed }

// QueueTrimmedData records a compaction of the redemption queue.
type QueueTrimmedData struct {
	Removed   int `json:"removed"`
	Remaining int `json:"remaining"`
}

// EventType returns the event type for QueueTrimmedData
func (d *QueueTrimmedData) EventType() EventType { return QueueTrimmed }
