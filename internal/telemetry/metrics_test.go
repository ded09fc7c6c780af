package telemetry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokando/tempnet/internal/config"
	"github.com/gokando/tempnet/internal/telemetry"
)

func TestDisabledMetricsAreNoOps(t *testing.T) {
	m := telemetry.NewMetrics(config.MetricsConfig{})
	assert.Nil(t, m.Handler())

	// Recording on a disabled (or nil) instance must be safe.
	m.PropagationCycle()
	m.SearchStep()
	m.DecisionOpened("variable")

	var nilMetrics *telemetry.Metrics
	nilMetrics.PropagationCycle()
	nilMetrics.DecisionRetracted("token")
}

func TestEnabledMetricsRegisterAndRecord(t *testing.T) {
	m := telemetry.NewMetrics(config.MetricsConfig{Enabled: true, Namespace: "tempnet"})
	require.NotNil(t, m.Handler())

	m.PropagationCycle()
	m.PropagatorExecuted("default")
	m.SetAgendaDepth("default", 3)
	m.SearchStep()
	m.SearchFinished(0.25)
	m.DecisionOpened("object")
	m.DecisionRetracted("object")
	m.ShortestPathRun()
}
