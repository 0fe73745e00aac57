// Package alerts turns detected business anomalies into alert messages and
// fans them out over a message queue (in-memory, NATS JetStream, Redis
// Streams or Kafka).
package alerts

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/soltixdb/insights/internal/analytics/anomaly"
)

// DefaultTenant is used in subjects when a request carries no tenant
const DefaultTenant = "default"

// Alert is the message published for one business anomaly
type Alert struct {
	ID            string           `json:"id"`
	TenantID      string           `json:"tenant_id"`
	Metric        string           `json:"metric"`
	Month         time.Time        `json:"month"`
	Severity      anomaly.Severity `json:"severity"`
	Type          anomaly.Type     `json:"type"`
	Value         float64          `json:"value"`
	ExpectedValue float64          `json:"expected_value"`
	ZScore        float64          `json:"z_score"`
	Message       string           `json:"message"`
	CreatedAt     time.Time        `json:"created_at"`
}

// FromBusinessAnomaly builds an alert with a fresh ID
func FromBusinessAnomaly(tenantID string, a anomaly.BusinessAnomaly, now time.Time) Alert {
	return Alert{
		ID:            uuid.New().String(),
		TenantID:      tenantID,
		Metric:        a.Metric,
		Month:         a.Month,
		Severity:      a.Severity,
		Type:          a.Type,
		Value:         a.Value,
		ExpectedValue: a.ExpectedValue,
		ZScore:        a.ZScore,
		Message:       describe(a),
		CreatedAt:     now,
	}
}

func describe(a anomaly.BusinessAnomaly) string {
	month := a.Month.Format("Jan 2006")
	switch a.Type {
	case anomaly.TypeThresholdBreach:
		return fmt.Sprintf("%s breached its limit of %.2f in %s (value %.2f)", a.Metric, a.ExpectedValue, month, a.Value)
	case anomaly.TypeDrop:
		return fmt.Sprintf("%s dropped to %.2f in %s, expected around %.2f", a.Metric, a.Value, month, a.ExpectedValue)
	default:
		return fmt.Sprintf("%s spiked to %.2f in %s, expected around %.2f", a.Metric, a.Value, month, a.ExpectedValue)
	}
}

// Subject returns "<base>.<tenant>", with DefaultTenant for an empty tenant.
// Characters that NATS treats as separators or wildcards are replaced.
func Subject(base, tenantID string) string {
	if tenantID == "" {
		tenantID = DefaultTenant
	}
	return base + "." + sanitizeToken(tenantID)
}

func sanitizeToken(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t':
			return '_'
		}
		return r
	}, s)
}
