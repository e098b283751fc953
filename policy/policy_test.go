package policy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/txshield/model"
)

func TestPolicy_RequiresReview(t *testing.T) {
	type testCase struct {
		level    model.RiskLevel
		expected bool
	}
	tests := []testCase{
		{level: model.RiskLevelLow, expected: false},
		{level: model.RiskLevelMedium, expected: false},
		{level: model.RiskLevelHigh, expected: true},
		{level: model.RiskLevelCritical, expected: true},
	}
	var nilPolicy *Policy
	for _, tc := range tests {
		t.Run(string(tc.level), func(t *testing.T) {
			assert.Equal(t, tc.expected, Default().RequiresReview(tc.level))
			assert.Equal(t, tc.expected, nilPolicy.RequiresReview(tc.level))
		})
	}
}

func TestFromConfig(t *testing.T) {
	type testCase struct {
		name      string
		config    *Config
		expectErr bool
		approver  string
		timeout   time.Duration
	}
	tests := []testCase{
		{name: "nil config", approver: DefaultAutoApprover, timeout: DefaultReviewTimeout},
		{name: "overrides", config: &Config{AutoApprover: "bot", ReviewTimeout: time.Minute}, approver: "bot", timeout: time.Minute},
		{name: "explicit default levels", config: &Config{ReviewLevels: []string{"critical", "HIGH"}}, approver: DefaultAutoApprover, timeout: DefaultReviewTimeout},
		{name: "unknown level", config: &Config{ReviewLevels: []string{"severe"}}, expectErr: true},
		{name: "low cannot require review", config: &Config{ReviewLevels: []string{"low", "high", "critical"}}, expectErr: true},
		{name: "critical cannot be dropped", config: &Config{ReviewLevels: []string{"high"}}, expectErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := FromConfig(tc.config)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.approver, p.Approver())
			assert.Equal(t, tc.timeout, p.Timeout())
			assert.Equal(t, []string{"high", "critical"}, ToConfig(p).ReviewLevels)
		})
	}
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	p := &Policy{AutoApprover: "bot"}
	ctx := WithPolicy(context.Background(), p)
	assert.Same(t, p, FromContext(ctx))
}
