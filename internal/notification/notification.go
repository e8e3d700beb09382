package notification

import "fmt"

type Level string

const (
	LevelUrgent  Level = "urgent"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Priorities, lower is more urgent.
const (
	PriorityOverdueInvestment  = 10
	PriorityPendingInvestment  = 20
	PriorityAssetInMaintenance = 25
	PriorityUnreadMessage      = 30
	PriorityAssetApproved      = 35
	PriorityRequestApproved    = 40
)

const (
	CategoryMessage    = "message"
	CategoryInvestment = "investment"
	CategoryRequest    = "request"
	CategoryAsset      = "asset"
)

// Notification is derived on every poll and never persisted.
type Notification struct {
	Type     Level  `json:"type" yaml:"type"`
	Text     string `json:"text" yaml:"text"`
	Priority int    `json:"priority" yaml:"priority"`
	Category string `json:"category" yaml:"category"`
	RefID    int64  `json:"refId,omitempty" yaml:"refId,omitempty"`
}

func (n Notification) String() string {
	return fmt.Sprintf("[%s] %s", n.Type, n.Text)
}
