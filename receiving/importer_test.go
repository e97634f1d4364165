package receiving_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/receiving-engine/engine"
	"github.com/warp/receiving-engine/engine/store"
	"github.com/warp/receiving-engine/receiving"
)

func newImporter(t *testing.T) (*receiving.Importer, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	im, err := receiving.NewImporter(receiving.DefaultConfig(), mem)
	require.NoError(t, err)
	return im, mem
}

func row(receipt, order, system, orderType, qty, putAway string) engine.RawRecord {
	return engine.RawRecord{
		"ReceiptNo":             receipt,
		"Replen/Balance Order#": order,
		"Cust Sys No":           system,
		"EDI Order Type":        orderType,
		"Country":               "KR",
		"Quantity":              qty,
		"PutAwayDate":           putAway,
	}
}

// Two raw rows sharing a natural key after order-ref cleanup fold into
// one persisted record with summed quantity and group counts.
func TestImportFoldsDuplicateKeys(t *testing.T) {
	im, mem := newImporter(t)
	ctx := context.Background()

	summary, err := im.Import(ctx, []engine.RawRecord{
		row("R1", "100.0", "S1", "BALANCE-IN", "5", "2024-02-03"),
		row("R1", "100", "S1", "BALANCE-IN", "3", "2024-02-03"),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 2, summary.Emitted)
	assert.Equal(t, 1, summary.Folded)
	assert.Equal(t, 1, summary.Inserts)
	assert.Equal(t, 0, summary.Updates)
	require.Equal(t, 1, mem.Len())

	records, err := mem.ExistingRecords(ctx)
	require.NoError(t, err)
	rec := records[0]

	assert.Equal(t, engine.NaturalKey{ReceiptID: "R1", OrderRef: "100", SystemRef: "S1"}, rec.Key())
	assert.Equal(t, int64(8), rec.Quantity)
	assert.Equal(t, 2, rec.CountReceipt)
	assert.Equal(t, engine.ClassP3, rec.OrderClass)
	assert.Equal(t, "WK01", rec.FiscalWeek)
	assert.Equal(t, "FY25", rec.FiscalYear)
	assert.Equal(t, "Q1", rec.FiscalQuarter)
}

// Re-importing the same extract must not grow the store and must
// report zero inserts the second time.
func TestImportIsIdempotent(t *testing.T) {
	im, mem := newImporter(t)
	ctx := context.Background()

	batch := []engine.RawRecord{
		row("R1", "100", "S1", "BALANCE-IN", "5", "2024-02-03"),
		row("R2", "200", "S2", "REPLEN-IN", "3", "2024-03-10"),
	}

	first, err := im.Import(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Inserts)

	second, err := im.Import(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserts)
	assert.Equal(t, 2, second.Updates)
	assert.Equal(t, 2, mem.Len())
}

// Overlapping, out-of-order re-imports converge on the later values.
func TestImportOverlappingBatches(t *testing.T) {
	im, mem := newImporter(t)
	ctx := context.Background()

	_, err := im.Import(ctx, []engine.RawRecord{
		row("R1", "100", "S1", "BALANCE-IN", "5", "2024-02-03"),
		row("R2", "200", "S2", "REPLEN-IN", "3", "2024-02-03"),
	})
	require.NoError(t, err)

	_, err = im.Import(ctx, []engine.RawRecord{
		row("R2", "200", "S2", "REPLEN-IN", "7", "2024-02-03"), // corrected quantity
		row("R3", "300", "S3", "PNAE-IN", "1", "2024-02-03"),
	})
	require.NoError(t, err)

	require.Equal(t, 3, mem.Len())
	records, err := mem.ExistingRecords(ctx)
	require.NoError(t, err)
	for _, rec := range records {
		if rec.ReceiptID == "R2" {
			assert.Equal(t, int64(7), rec.Quantity)
		}
	}
}

func TestImportAccountsForEveryRow(t *testing.T) {
	im, _ := newImporter(t)

	foreign := row("RX", "900", "S9", "BALANCE-IN", "2", "2024-02-03")
	foreign["Country"] = "SG"

	broken := row("RY", "901", "S9", "BALANCE-IN", "2", "2024-02-03")
	delete(broken, "Cust Sys No")

	summary, err := im.Import(context.Background(), []engine.RawRecord{
		row("R1", "100", "S1", "BALANCE-IN", "5", "2024-02-03"),
		foreign,
		broken,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 1, summary.Emitted)
	assert.Equal(t, 1, summary.Filtered)
	require.Len(t, summary.Rejected, 1)
	assert.Equal(t, 2, summary.Rejected[0].Row)
	assert.Contains(t, summary.Rejected[0].Reason, "system_ref")
}

func TestImportRejectsBadConfig(t *testing.T) {
	cfg := receiving.DefaultConfig()
	cfg.Taxonomy = nil

	_, err := receiving.NewImporter(cfg, store.NewMemory())
	require.Error(t, err)
	assert.True(t, engine.IsConfigError(err))
}

// Import then reconcile against the same extract: a clean report.
func TestReconcileAfterImport(t *testing.T) {
	im, _ := newImporter(t)
	ctx := context.Background()

	batch := []engine.RawRecord{
		row("R1", "100.0", "S1", "BALANCE-IN", "5", "2024-02-03"),
		row("R1", "100", "S1", "BALANCE-IN", "3", "2024-02-03"),
		row("R2", "200", "S2", "PURGE-IN", "4", "2024-05-10"),
	}
	_, err := im.Import(ctx, batch)
	require.NoError(t, err)

	report, err := im.Reconcile(ctx, batch)
	require.NoError(t, err)
	assert.True(t, report.Clean(), "report: %+v", report)
}

// A record persisted earlier but absent from the extract surfaces as
// extra; a never-imported record in the extract surfaces as missing.
func TestReconcileFindsDrift(t *testing.T) {
	im, _ := newImporter(t)
	ctx := context.Background()

	_, err := im.Import(ctx, []engine.RawRecord{
		row("R1", "100", "S1", "BALANCE-IN", "5", "2024-02-03"),
		row("R2", "200", "S2", "REPLEN-IN", "3", "2024-02-03"),
	})
	require.NoError(t, err)

	report, err := im.Reconcile(ctx, []engine.RawRecord{
		row("R1", "100", "S1", "BALANCE-IN", "9", "2024-02-03"), // drifted quantity
		row("R3", "300", "S3", "PNAC-IN", "1", "2024-02-03"),
	})
	require.NoError(t, err)

	require.Len(t, report.MissingInPersisted, 1)
	assert.Equal(t, "R3", report.MissingInPersisted[0].ReceiptID)
	require.Len(t, report.ExtraInPersisted, 1)
	assert.Equal(t, "R2", report.ExtraInPersisted[0].ReceiptID)
	assert.NotEmpty(t, report.FieldMismatches)
	assert.True(t, report.Drift.Drifted())
}
