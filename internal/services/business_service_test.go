package services

import (
	"context"
	"errors"
	"testing"

	"github.com/soltixdb/insights/internal/logging"
	"github.com/soltixdb/insights/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusinessAnomalies_DetectsAndNotifies(t *testing.T) {
	notifier := &recordingNotifier{}
	s := newTestService(notifier)

	ctx := logging.WithTenantID(context.Background(), "acme")
	resp, err := s.BusinessAnomalies(ctx, &models.BusinessAnomalyRequest{
		Metrics: map[string][]models.MonthlyInput{
			"revenue": monthlyInput(10, 10, 10, 10, 1000),
			"orders":  monthlyInput(5, 5, 5, 5, 5),
		},
		Notify: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Metrics)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "revenue", resp.Anomalies[0].Metric)
	assert.Empty(t, resp.Failures)
	assert.Equal(t, 1, resp.AlertsPublished)

	require.Len(t, notifier.tenants, 1)
	assert.Equal(t, "acme", notifier.tenants[0])
	assert.Len(t, notifier.alerts, 1)
}

func TestBusinessAnomalies_NoNotifyFlag(t *testing.T) {
	notifier := &recordingNotifier{}
	s := newTestService(notifier)

	resp, err := s.BusinessAnomalies(context.Background(), &models.BusinessAnomalyRequest{
		Metrics: map[string][]models.MonthlyInput{"revenue": monthlyInput(10, 10, 10, 10, 1000)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, 0, resp.AlertsPublished)
	assert.Empty(t, notifier.alerts)
}

func TestBusinessAnomalies_FailureIsolation(t *testing.T) {
	s := newTestService(nil)

	unsorted := monthlyInput(1, 2, 3)
	unsorted[0], unsorted[2] = unsorted[2], unsorted[0]

	resp, err := s.BusinessAnomalies(context.Background(), &models.BusinessAnomalyRequest{
		Metrics: map[string][]models.MonthlyInput{
			"revenue": monthlyInput(10, 10, 10, 10, 1000),
			"broken":  unsorted,
			"empty":   nil,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Metrics)
	assert.Equal(t, 1, resp.Count)

	require.Len(t, resp.Failures, 2)
	assert.Equal(t, "broken", resp.Failures[0].Metric)
	assert.Equal(t, CodeInvalidParameter, resp.Failures[0].Code)
	assert.Equal(t, "empty", resp.Failures[1].Metric)
	assert.Equal(t, CodeEmptyInput, resp.Failures[1].Code)
}

func TestBusinessAnomalies_Thresholds(t *testing.T) {
	s := newTestService(nil)

	max := 15.0
	resp, err := s.BusinessAnomalies(context.Background(), &models.BusinessAnomalyRequest{
		Metrics: map[string][]models.MonthlyInput{
			"costs": monthlyInput(10, 12, 11, 20),
		},
		Thresholds: map[string]models.ThresholdInput{"costs": {Max: &max}},
	})
	require.NoError(t, err)

	var breaches int
	for _, a := range resp.Anomalies {
		if a.Algorithm == "threshold" {
			breaches++
			assert.Equal(t, 3, a.Index)
		}
	}
	assert.Equal(t, 1, breaches)
}

func TestBusinessAnomalies_PublishErrorDoesNotFail(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("broker down")}
	s := newTestService(notifier)

	resp, err := s.BusinessAnomalies(context.Background(), &models.BusinessAnomalyRequest{
		Metrics: map[string][]models.MonthlyInput{"revenue": monthlyInput(10, 10, 10, 10, 1000)},
		Notify:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, 0, resp.AlertsPublished)
}

func TestBusinessAnomalies_InvalidRequest(t *testing.T) {
	s := newTestService(nil)
	ctx := context.Background()

	_, err := s.BusinessAnomalies(ctx, &models.BusinessAnomalyRequest{})
	requireCode(t, err, CodeInvalidRequest)

	negative := -1.0
	_, err = s.BusinessAnomalies(ctx, &models.BusinessAnomalyRequest{
		Metrics:     map[string][]models.MonthlyInput{"revenue": monthlyInput(1, 2, 3)},
		Sensitivity: &negative,
	})
	requireCode(t, err, CodeInvalidParameter)
}
