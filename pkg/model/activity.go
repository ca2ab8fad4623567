package model

import "time"

// AlertStatus is the lifecycle state of an alert.
type AlertStatus string

const (
	AlertActive     AlertStatus = "active"
	AlertResolved   AlertStatus = "resolved"
	AlertSuppressed AlertStatus = "suppressed"
)

// Alert is a triggered alert. It changes state only through the backend.
type Alert struct {
	ID          ID          `json:"id"`
	RuleID      *ID         `json:"rule_id,omitempty"`
	ClusterID   ID          `json:"cluster_id"`
	Level       string      `json:"alert_level"`
	Title       string      `json:"title"`
	Message     string      `json:"message"`
	Status      AlertStatus `json:"status"`
	TriggeredAt time.Time   `json:"triggered_at"`
	ResolvedAt  *time.Time  `json:"resolved_at,omitempty"`
	Progress    *int        `json:"progress,omitempty"`
}

func (a Alert) Identity() ID { return a.ID }

// Activity is an entry of the system activity feed.
type Activity struct {
	ID        ID        `json:"id"`
	Type      string    `json:"type"`
	ClusterID ID        `json:"cluster_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Source    string    `json:"source"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (a Activity) Identity() ID { return a.ID }
