package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agencyops/agencyops/internal/proposals"
)

const quarterlyForm = `{
	"client_name": "Acme Coffee",
	"client_email": "ops@acme.test",
	"duration": "quarterly",
	"start_date": "2025-02-01T00:00:00Z",
	"payment_type": "monthly_split",
	"discount_percentage": 10,
	"items": [
		{"name": "Instagram Post", "quantity": 10, "unit_price": 15},
		{"name": "Monthly Report", "quantity": 1, "unit_price": 150}
	]
}`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestQuotePreviewText(t *testing.T) {
	out, err := execute(t, quarterlyForm, "quote", "preview")
	require.NoError(t, err)

	assert.Contains(t, out, "subtotal          900.00")
	assert.Contains(t, out, "90.00 (10.00%)")
	assert.Contains(t, out, "total             810.00")
	assert.Contains(t, out, "installment 1     405.00 due 2025-02-01")
	assert.Contains(t, out, "installment 2     405.00 due 2025-02-16")
}

func TestQuotePreviewJSON(t *testing.T) {
	out, err := execute(t, quarterlyForm, "quote", "preview", "--format", "json")
	require.NoError(t, err)

	var result proposals.PreviewResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.InDelta(t, 810.0, result.TotalValue, 0.0001)
	assert.Equal(t, []float64{150, 150}, result.LineTotals)
	require.Len(t, result.PaymentSchedule, 2)
}

func TestQuotePreviewRejectsInvalidForm(t *testing.T) {
	_, err := execute(t, `{"client_name": "Acme", "duration": "monthly"}`, "quote", "preview")
	assert.ErrorIs(t, err, proposals.ErrValidation)

	_, err = execute(t, `{"unknown": true}`, "quote", "preview")
	assert.ErrorContains(t, err, "decode proposal form")
}

func TestCommandsValidateFlagsBeforeConnecting(t *testing.T) {
	_, err := execute(t, "", "--dsn", "postgres://nowhere:1/none", "migrate", "down", "--steps", "0")
	assert.ErrorContains(t, err, "steps must be positive")

	_, err = execute(t, "", "catalog", "import", "items.csv")
	assert.ErrorContains(t, err, "--company is required")

	_, err = execute(t, "", "--redis", "127.0.0.1:0", "jobs", "trigger", "contract-render")
	assert.ErrorContains(t, err, "--proposal is required")

	_, err = execute(t, "", "--redis", "127.0.0.1:0", "jobs", "trigger", "reindex")
	assert.ErrorContains(t, err, "unsupported job")
}
