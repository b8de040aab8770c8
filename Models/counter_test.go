package Models_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"Invoicing/Billing"
	"Invoicing/Models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Models.Connect(Models.DBConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, Models.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestGormCounterStoreSequence(t *testing.T) {
	store := Models.NewCounterStore(openTestDB(t))

	for want := int64(1); want <= 3; want++ {
		got, err := store.Increment(Billing.PrefixInvoice)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	got, err := store.Increment(Billing.PrefixContract)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)

	peek, err := store.Peek(Billing.PrefixInvoice)
	require.NoError(t, err)
	assert.Equal(t, int64(3), peek)
}

func TestGormCounterStoreConcurrent(t *testing.T) {
	store := Models.NewCounterStore(openTestDB(t))
	const workers = 25

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers []string
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := Billing.NextDocumentNumber(Billing.PrefixInvoice, store)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			numbers = append(numbers, n)
			mu.Unlock()
		}()
	}
	wg.Wait()

	seen := make(map[string]int)
	for _, n := range numbers {
		seen[n]++
	}
	assert.Len(t, numbers, workers)
	assert.Len(t, seen, workers, "every number must be unique")
	assert.Equal(t, 1, seen["INV-000001"])
}

func TestGormCounterStoreInsideTransaction(t *testing.T) {
	db := openTestDB(t)

	err := db.Transaction(func(tx *gorm.DB) error {
		n, err := Billing.NextDocumentNumber(Billing.PrefixInvoice, Models.NewCounterStore(tx))
		require.NoError(t, err)
		assert.Equal(t, "INV-000001", n)
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	// the rolled back number is issued again
	n, err := Billing.NextDocumentNumber(Billing.PrefixInvoice, Models.NewCounterStore(db))
	require.NoError(t, err)
	assert.Equal(t, "INV-000001", n)
}
