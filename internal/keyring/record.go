// Package keyring owns the engine's sole persistent state: the mapping of
// discovered credentials to their health, the currently active selection,
// and the rotation audit log. It is the leaf package in the dependency
// order (keyring store -> {source reader, refresh client, health prober} ->
// selector -> quota monitor -> lifecycle glue) and so also hosts the
// compiled-in policy constants every other package shares.
package keyring

import "time"

// Status is the lifecycle state of a KeyRecord.
type Status string

const (
	StatusActive    Status = "active"
	StatusExhausted Status = "exhausted"
	StatusInvalid   Status = "invalid"
	StatusExpired   Status = "expired"
)

// Policy constants, compiled in per spec.md §6 ("Environment & invocation").
const (
	MaxLogEntries       = 200
	HighUsageThreshold  = 90.0
	ExhaustedThreshold  = 100.0
	ProactiveThreshold  = 95.0
	HealthDataMaxAge    = 15 * time.Minute
	UsageHistoryMax     = 5
)

// RotationEventKind enumerates the append-only audit events.
type RotationEventKind string

const (
	EventKeyAdded         RotationEventKind = "key_added"
	EventKeyRemoved       RotationEventKind = "key_removed"
	EventKeyExhausted     RotationEventKind = "key_exhausted"
	EventKeySwitched      RotationEventKind = "key_switched"
	EventAccountAuthFailed RotationEventKind = "account_auth_failed"
)

// Usage holds the three provider-reported utilization percentages, each in
// [0, 100], plus the time the sample was taken.
type Usage struct {
	FiveHour        float64   `json:"five_hour"`
	SevenDay        float64   `json:"seven_day"`
	SevenDaySonnet  float64   `json:"seven_day_sonnet"`
	CheckedAt       int64     `json:"checked_at"`
}

// Max returns the largest of the three utilization metrics.
func (u Usage) Max() float64 {
	m := u.FiveHour
	if u.SevenDay > m {
		m = u.SevenDay
	}
	if u.SevenDaySonnet > m {
		m = u.SevenDaySonnet
	}
	return m
}

// KeyRecord is one managed credential plus its health metadata.
type KeyRecord struct {
	KeyID           string  `json:"-"`
	AccessToken     string  `json:"access_token"`
	RefreshToken    string  `json:"refresh_token"`
	ExpiresAt       *int64  `json:"expires_at"`
	Status          Status  `json:"status"`
	AccountUUID     *string `json:"account_uuid"`
	AccountEmail    *string `json:"account_email"`
	LastHealthCheck *int64  `json:"last_health_check"`
	LastUsage       *Usage  `json:"last_usage"`
	AddedAt         int64   `json:"added_at"`
}

// RotationEvent is one append-only audit record.
type RotationEvent struct {
	Timestamp    int64             `json:"timestamp"`
	Event        RotationEventKind `json:"event"`
	KeyID        *string           `json:"key_id"`
	Reason       string            `json:"reason,omitempty"`
	FromKeyID    *string           `json:"from_key_id,omitempty"`
	ToKeyID      *string           `json:"to_key_id,omitempty"`
	AccountEmail *string           `json:"account_email,omitempty"`
	Predictive   bool              `json:"predictive,omitempty"`
}

// Keyring is the top-level persistent state.
type Keyring struct {
	Version     int                   `json:"version"`
	Keys        map[string]*KeyRecord `json:"keys"`
	ActiveKeyID *string               `json:"active_key_id"`
	RotationLog []RotationEvent       `json:"rotation_log"`
}

// CurrentVersion is the only Keyring schema version this build understands.
const CurrentVersion = 1

// Default returns the zero-value keyring used whenever the backing file is
// absent, malformed, or carries an unknown version.
func Default() *Keyring {
	return &Keyring{
		Version:     CurrentVersion,
		Keys:        make(map[string]*KeyRecord),
		ActiveKeyID: nil,
		RotationLog: []RotationEvent{},
	}
}

// NowMillis returns the current time as epoch milliseconds, the unit every
// timestamp field in this package uses.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
