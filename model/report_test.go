package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReportEntry(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("approved", func(t *testing.T) {
		tx := validTransaction()
		require.NoError(t, tx.Assess(&RiskVerdict{Level: RiskLevelHigh}, at))
		require.NoError(t, tx.Finalize(NewApproval("Security Analyst Smith", ReasonReviewerApproved, at)))
		entry := NewReportEntry("s1", tx)
		assert.Equal(t, StatusApproved, entry.Status)
		assert.Equal(t, "Security Analyst Smith", entry.Approver.String)
		assert.True(t, entry.ApprovalTime.Valid)
		assert.Equal(t, "high", entry.RiskLevel.String)
	})

	t.Run("flagged keeps nulls", func(t *testing.T) {
		tx := validTransaction()
		require.NoError(t, tx.Finalize(NewInvestigation("Security Analyst Smith", at)))
		entry := NewReportEntry("s2", tx)
		data, err := json.Marshal(entry)
		require.NoError(t, err)
		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Nil(t, decoded["approver"])
		assert.Nil(t, decoded["approvalTime"])
		assert.Nil(t, decoded["riskLevel"])
		assert.Equal(t, "FlaggedForInvestigation", decoded["finalStatus"])
	})
}

func TestAccount_Validate(t *testing.T) {
	account := &Account{
		ID:           "ACC-12345",
		Currency:     "USD",
		Balance:      decimal.NewFromInt(35000),
		DailyLimit:   decimal.NewFromInt(10000),
		UsualAmounts: []decimal.Decimal{decimal.NewFromInt(100), decimal.NewFromInt(1000)},
	}
	assert.NoError(t, account.Validate())
	assert.Equal(t, "1000", account.MaxUsualAmount().String())

	account.Currency = "dollars"
	assert.Error(t, account.Validate())
}
