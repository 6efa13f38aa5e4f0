package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent() LoanReceiptEvent {
	return LoanReceiptEvent{
		Kind:          ReceiptKindBorrow,
		TransactionID: "TXN-20260801120000-7-abc123",
		MemberID:      7,
		MemberName:    "Dana Reyes",
		Items: []ReceiptItem{
			{Barcode: "LIB-0000000001", Title: "Dune"},
			{Barcode: "LIB-0000000002", Title: "Hyperion"},
		},
		CheckoutDate: "2026-08-01",
		DueDate:      "2026-08-15",
		IssuedAt:     "2026-08-01T12:00:00Z",
	}
}

func TestRenderReceipt(t *testing.T) {
	out := RenderReceipt(sampleEvent())
	assert.Contains(t, out, "BORROW RECEIPT")
	assert.Contains(t, out, "Dana Reyes")
	assert.Contains(t, out, "TXN-20260801120000-7-abc123")
	assert.Contains(t, out, "LIB-0000000001 Dune")
	assert.Contains(t, out, "2 item(s)")

	ret := sampleEvent()
	ret.Kind = ReceiptKindReturn
	ret.ReturnDate = "2026-08-10"
	out = RenderReceipt(ret)
	assert.Contains(t, out, "RETURN RECEIPT")
	assert.Contains(t, out, "Returned:    2026-08-10")
}

func TestWriteReceiptCreatesFile(t *testing.T) {
	dir := t.TempDir()
	body, err := json.Marshal(sampleEvent())
	require.NoError(t, err)

	require.NoError(t, writeReceipt(body, dir))

	data, err := os.ReadFile(filepath.Join(dir, "borrow-TXN-20260801120000-7-abc123.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Dune")
}

func TestWriteReceiptRejectsBadPayload(t *testing.T) {
	require.Error(t, writeReceipt([]byte("{not json"), t.TempDir()))
}
