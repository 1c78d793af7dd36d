package dedup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pulso-data/pulso-etl/pkg/models"
	"github.com/pulso-data/pulso-etl/pkg/staging"
	"github.com/pulso-data/pulso-etl/pkg/staging/stagingtest"
)

func engineHarness(t *testing.T) (*Engine, *stagingtest.DB, context.Context) {
	db := stagingtest.NewDB()
	client := &staging.Client{Logger: zaptest.NewLogger(t)}
	ctx := client.WithTx(context.Background(), db.Tx())
	return NewEngine(zaptest.NewLogger(t), client), db, ctx
}

func seedPagoStaging(db *stagingtest.DB) {
	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	db.SetRows("stg_pagos", [][]any{
		{"DOC-1", day, 150.0, "CTA-1", "LUNA-1", "CAMP_2025_06", day, 1, day, day},
	})
	db.SetRows("stg_calendario", [][]any{
		{"CAMP_2025_06", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), nil, "TEMPRANA", 2025, "ABIERTO"},
	})
}

func TestRebuildPagos_InsertFailureRollsBack(t *testing.T) {
	e, db, ctx := engineHarness(t)
	seedPagoStaging(db)

	boom := errors.New("constraint violation")
	db.FailBatches(boom)

	err := e.RebuildPagos(ctx, today)
	require.ErrorIs(t, err, boom)

	assert.Equal(t, 1, db.Rollbacks())
	assert.Zero(t, db.Commits())

	// The delete that cleared the table ran inside the same transaction,
	// so the rollback restores the previous records.
	execs := db.Execs()
	require.Len(t, execs, 1)
	assert.Contains(t, execs[0].SQL, "DELETE FROM aux_pagos_dedup")
}

func TestRebuildPagos_CommitsReplacedRecords(t *testing.T) {
	e, db, ctx := engineHarness(t)
	seedPagoStaging(db)

	require.NoError(t, e.RebuildPagos(ctx, today))

	assert.Equal(t, 1, db.Commits())
	assert.Zero(t, db.Rollbacks())

	batches := db.Batches()
	require.Len(t, batches, 1)
	require.Len(t, batches[0].QueuedQueries, 1)
	args := batches[0].QueuedQueries[0].Arguments
	assert.Equal(t, "DOC-1", args[0])
	assert.Equal(t, true, args[10]) // es_pago_unico
	assert.Equal(t, true, args[11]) // es_pago_valido
	assert.Equal(t, true, args[13]) // esta_en_ventana
}

func TestRebuildGestiones_OutOfWindowRowsStayUnattributed(t *testing.T) {
	e, db, ctx := engineHarness(t)

	db.SetRows("stg_calendario", [][]any{
		{"CAMP_2025_06", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), nil, "TEMPRANA", 2025, "ABIERTO"},
	})
	db.SetRows("aux_cuentas_campana", [][]any{
		{"LUNA-1", "CTA-1", "CAMP_2025_06", 900.0},
	})
	db.SetRows("stg_homologacion_mibotair", [][]any{
		{"CONTACTO", "TITULAR", "PDP", models.ContactoEfectivo, true, 5.0},
	})
	db.SetRows("stg_mibotair_gestiones", [][]any{
		{"mb-old", "LUNA-1", time.Date(2025, 1, 15, 11, 0, 0, 0, time.UTC),
			"CONTACTO", "TITULAR", "PDP", "agente1"},
		{"mb-new", "LUNA-1", time.Date(2025, 6, 10, 11, 0, 0, 0, time.UTC),
			"CONTACTO", "TITULAR", "PDP", "agente1"},
	})

	require.NoError(t, e.RebuildGestiones(ctx, today))

	batches := db.Batches()
	require.Len(t, batches, 1)
	require.Len(t, batches[0].QueuedQueries, 2)

	// Columns: uid(0) canal(1) cod_luna(2) cuenta(3) archivo(4) ...
	// es_contacto_efectivo(9) es_compromiso(10) monto_compromiso(11).
	old := batches[0].QueuedQueries[0].Arguments
	assert.Equal(t, "mb-old", old[0])
	assert.Equal(t, "", old[4])
	assert.Equal(t, "", old[3])
	assert.Equal(t, true, old[9])
	assert.Equal(t, float64(0), old[11])

	cur := batches[0].QueuedQueries[1].Arguments
	assert.Equal(t, "mb-new", cur[0])
	assert.Equal(t, "CAMP_2025_06", cur[4])
	assert.Equal(t, "CTA-1", cur[3])
	assert.Equal(t, float64(900), cur[11])
}
