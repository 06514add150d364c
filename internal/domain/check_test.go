package domain_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/vitals/internal/domain"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		input   string
		want    domain.Severity
		wantErr bool
	}{
		{input: "info", want: domain.SeverityInfo},
		{input: "LOW", want: domain.SeverityLow},
		{input: " Medium ", want: domain.SeverityMedium},
		{input: "high", want: domain.SeverityHigh},
		{input: "critical", want: domain.SeverityCritical},
		{input: "urgent", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := domain.ParseSeverity(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeverity_Ordering(t *testing.T) {
	assert.True(t, domain.SeverityCritical.AtLeast(domain.SeverityHigh))
	assert.True(t, domain.SeverityHigh.AtLeast(domain.SeverityHigh))
	assert.False(t, domain.SeverityMedium.AtLeast(domain.SeverityHigh))
	assert.False(t, domain.Severity(9).Valid())
}

func TestSeverity_JSONUsesNames(t *testing.T) {
	payload, err := json.Marshal(map[string]domain.Severity{"s": domain.SeverityHigh})
	require.NoError(t, err)
	assert.JSONEq(t, `{"s":"HIGH"}`, string(payload))

	var decoded struct {
		S domain.Severity `json:"s"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"s":"low"}`), &decoded))
	assert.Equal(t, domain.SeverityLow, decoded.S)
}

func TestParseCategory(t *testing.T) {
	c, err := domain.ParseCategory("Repository")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryRepository, c)

	_, err = domain.ParseCategory("network")
	assert.Error(t, err)
}

func TestCheckResult_CloneIsDeep(t *testing.T) {
	original := domain.Fail("missing", "add it", map[string]interface{}{
		"nested": map[string]interface{}{"k": "v"},
		"list":   []interface{}{"a"},
		"names":  []string{"x"},
	})

	clone := original.Clone()
	clone.Details["nested"].(map[string]interface{})["k"] = "changed"
	clone.Details["list"].([]interface{})[0] = "b"
	clone.Details["names"].([]string)[0] = "y"

	assert.Equal(t, "v", original.Details["nested"].(map[string]interface{})["k"])
	assert.Equal(t, "a", original.Details["list"].([]interface{})[0])
	assert.Equal(t, "x", original.Details["names"].([]string)[0])
}

func TestStatus_Negative(t *testing.T) {
	assert.False(t, domain.StatusPass.Negative())
	assert.True(t, domain.StatusWarning.Negative())
	assert.True(t, domain.StatusFail.Negative())
	assert.False(t, domain.StatusError.Negative())
}

func TestHealer_Manual(t *testing.T) {
	var nilHealer *domain.Healer
	assert.True(t, nilHealer.Manual())
	assert.True(t, (&domain.Healer{Action: domain.HealActionManual}).Manual())
	assert.True(t, (&domain.Healer{Action: "create-directories"}).Manual(), "automated action without a fix")
	assert.False(t, (&domain.Healer{Action: "create-directories", Fix: func(_ context.Context, _ domain.CheckContext) domain.FixOutcome {
		return domain.FixNoop("ok")
	}}).Manual())
}

func TestParseRunMode(t *testing.T) {
	mode, err := domain.ParseRunMode("")
	require.NoError(t, err)
	assert.Equal(t, domain.ModeQuick, mode)

	mode, err = domain.ParseRunMode("full")
	require.NoError(t, err)
	assert.Equal(t, domain.ModeFull, mode)

	_, err = domain.ParseRunMode("deep")
	assert.True(t, domain.IsConfigurationError(err))
}

func TestCheckContext_HasTool(t *testing.T) {
	cc := domain.CheckContext{Tools: []string{"docker", "gh", "git"}}
	assert.True(t, cc.HasTool("gh"))
	assert.False(t, cc.HasTool("node"))
}
