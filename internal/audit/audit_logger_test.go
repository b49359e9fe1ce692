package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ruralpay/accountledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	lines []string
}

func (c *captured) sink(format string, v ...any) {
	c.lines = append(c.lines, fmt.Sprintf(format, v...))
}

func (c *captured) event(t *testing.T, i int) map[string]any {
	t.Helper()
	require.Greater(t, len(c.lines), i)
	line := c.lines[i]
	require.True(t, strings.HasPrefix(line, "AUDIT: "))

	var event map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "AUDIT: ")), &event))
	return event
}

func TestLogger(t *testing.T) {
	c := &captured{}
	logger := NewLoggerWithSink(c.sink)

	t.Run("ledger entry", func(t *testing.T) {
		logger.LogEntry(&models.Transaction{
			TransactionID:          "abc",
			Type:                   models.TransactionTypeCancel,
			Result:                 models.TransactionResultSuccess,
			AccountNumber:          "1000000012",
			Amount:                 1000,
			BalanceSnapshot:        11000,
			ReferenceTransactionID: "use-1",
		})

		event := c.event(t, 0)
		assert.Equal(t, "CANCEL", event["event_type"])
		assert.Equal(t, "SUCCESS", event["status"])
		assert.Equal(t, float64(11000), event["balance_snapshot"])
		assert.Equal(t, "use-1", event["details"].(map[string]any)["reference_transaction_id"])
	})

	t.Run("rejection", func(t *testing.T) {
		logger.LogRejection("USE", "1000000012", 1500, models.ErrAmountExceedsBalance)

		event := c.event(t, 1)
		assert.Equal(t, "REJECTED", event["status"])
		assert.Equal(t, "AMOUNT_EXCEEDS_BALANCE", event["details"].(map[string]any)["error_code"])
	})

	t.Run("rejection with internal error", func(t *testing.T) {
		logger.LogRejection("USE", "1000000012", 1500, errors.New("db down"))

		event := c.event(t, 2)
		assert.Equal(t, "INTERNAL_SERVER_ERROR", event["details"].(map[string]any)["error_code"])
	})

	t.Run("lock failure", func(t *testing.T) {
		logger.LogLockFailure("ACLK1000000012", errors.New("lock: not obtained"))

		event := c.event(t, 3)
		assert.Equal(t, "LOCK", event["event_type"])
		assert.Equal(t, "ACLK1000000012", event["details"].(map[string]any)["key"])
	})
}
