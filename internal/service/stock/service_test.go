package stock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/brownie/internal/apperror"
	"github.com/mamadbah2/brownie/internal/domain/models"
)

// ── In-memory StockRepository stub ───────────────────────────────────────────

type stubStockRepo struct {
	rows     map[string]models.StockRecord
	priceErr error
	findErr  error
	// beforeSwap runs before each compare-and-swap, simulating a concurrent writer.
	beforeSwap func(r *stubStockRepo, category string)
	swaps      int
}

func newStubStockRepo() *stubStockRepo {
	return &stubStockRepo{rows: make(map[string]models.StockRecord)}
}

func (r *stubStockRepo) Find(_ context.Context, category string) (models.StockRecord, error) {
	if r.findErr != nil {
		return models.StockRecord{}, r.findErr
	}
	rec, ok := r.rows[category]
	if !ok {
		return models.StockRecord{}, apperror.NotFound("missing %s", category)
	}
	return rec, nil
}

func (r *stubStockRepo) List(_ context.Context) ([]models.StockLevel, error) {
	levels := []models.StockLevel{}
	for _, rec := range r.rows {
		levels = append(levels, models.StockLevel{Category: rec.Category, Quantity: rec.Quantity})
	}
	return levels, nil
}

func (r *stubStockRepo) Categories(_ context.Context) ([]string, error) {
	names := []string{}
	for name := range r.rows {
		names = append(names, name)
	}
	return names, nil
}

func (r *stubStockRepo) UnitPrice(_ context.Context, category string) (*float64, bool, error) {
	if r.priceErr != nil {
		return nil, false, r.priceErr
	}
	rec, ok := r.rows[category]
	if !ok {
		return nil, false, nil
	}
	return rec.UnitPrice, true, nil
}

func (r *stubStockRepo) apply(write models.StockWrite) models.StockRecord {
	rec := r.rows[write.Category]
	rec.Category = write.Category
	rec.Quantity = write.Quantity
	rec.Note = write.Note
	if write.UnitPrice != nil {
		price := *write.UnitPrice
		rec.UnitPrice = &price
	}
	r.rows[write.Category] = rec
	return rec
}

func (r *stubStockRepo) Upsert(_ context.Context, write models.StockWrite) (models.StockRecord, error) {
	return r.apply(write), nil
}

func (r *stubStockRepo) InsertIfAbsent(_ context.Context, write models.StockWrite) (models.StockRecord, bool, error) {
	if _, ok := r.rows[write.Category]; ok {
		return models.StockRecord{}, false, nil
	}
	return r.apply(write), true, nil
}

func (r *stubStockRepo) CompareAndSwap(_ context.Context, expected int, write models.StockWrite) (models.StockRecord, bool, error) {
	r.swaps++
	if r.beforeSwap != nil {
		r.beforeSwap(r, write.Category)
	}
	rec, ok := r.rows[write.Category]
	if !ok || rec.Quantity != expected {
		return models.StockRecord{}, false, nil
	}
	return r.apply(write), true, nil
}

func (r *stubStockRepo) Update(_ context.Context, write models.StockWrite) (models.StockRecord, error) {
	if _, ok := r.rows[write.Category]; !ok {
		return models.StockRecord{}, apperror.NotFound("missing %s", write.Category)
	}
	return r.apply(write), nil
}

func price(v float64) *float64 { return &v }

// ── Tests ────────────────────────────────────────────────────────────────────

func TestSetThenGet(t *testing.T) {
	for _, n := range []int{0, 1, 42, 10000} {
		svc := NewService(newStubStockRepo(), Options{}, nil)

		written, err := svc.SetQuantity(context.Background(), "Brownie", n)
		require.NoError(t, err)
		assert.Equal(t, n, written)

		got, err := svc.GetQuantity(context.Background(), "Brownie")
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}
}

func TestSetQuantity_CarriesPriceForward(t *testing.T) {
	tests := []struct {
		name      string
		seed      *models.StockRecord
		priceErr  error
		wantPrice *float64
	}{
		{
			name:      "known_price_is_kept",
			seed:      &models.StockRecord{Category: "Brownie", Quantity: 3, UnitPrice: price(8.5)},
			wantPrice: price(8.5),
		},
		{
			name:      "unknown_price_becomes_zero",
			wantPrice: price(0),
		},
		{
			name:      "lookup_failure_leaves_stored_price_untouched",
			seed:      &models.StockRecord{Category: "Brownie", Quantity: 3, UnitPrice: price(8.5)},
			priceErr:  apperror.New(apperror.KindUnavailable, "down"),
			wantPrice: price(8.5),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newStubStockRepo()
			if tt.seed != nil {
				repo.rows[tt.seed.Category] = *tt.seed
			}
			repo.priceErr = tt.priceErr
			svc := NewService(repo, Options{}, nil)

			_, err := svc.SetQuantity(context.Background(), "Brownie", 10)
			require.NoError(t, err)

			rec := repo.rows["Brownie"]
			assert.Equal(t, 10, rec.Quantity)
			assert.Equal(t, "Atualizacao de estoque", rec.Note)
			require.NotNil(t, rec.UnitPrice)
			assert.Equal(t, *tt.wantPrice, *rec.UnitPrice)
		})
	}
}

func TestAddQuantity_Scenario(t *testing.T) {
	svc := NewService(newStubStockRepo(), Options{}, nil)
	ctx := context.Background()

	total, err := svc.AddQuantity(ctx, "Pizza", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	total, err = svc.AddQuantity(ctx, "Pizza", -5)
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	total, err = svc.AddQuantity(ctx, "Pizza", -3)
	require.NoError(t, err)
	assert.Equal(t, -3, total)
}

func TestAddQuantity_IsAdditive(t *testing.T) {
	split := NewService(newStubStockRepo(), Options{}, nil)
	single := NewService(newStubStockRepo(), Options{}, nil)
	ctx := context.Background()

	for _, pair := range [][2]int{{3, 4}, {10, -12}, {-1, -1}, {0, 7}} {
		_, err := split.SetQuantity(ctx, "Bolo", 20)
		require.NoError(t, err)
		_, err = single.SetQuantity(ctx, "Bolo", 20)
		require.NoError(t, err)

		_, err = split.AddQuantity(ctx, "Bolo", pair[0])
		require.NoError(t, err)
		_, err = split.AddQuantity(ctx, "Bolo", pair[1])
		require.NoError(t, err)
		_, err = single.AddQuantity(ctx, "Bolo", pair[0]+pair[1])
		require.NoError(t, err)

		a, _ := split.GetQuantity(ctx, "Bolo")
		b, _ := single.GetQuantity(ctx, "Bolo")
		assert.Equal(t, b, a, "deltas %v", pair)
	}
}

func TestAddQuantity_NoteAndPrice(t *testing.T) {
	repo := newStubStockRepo()
	repo.rows["Brownie"] = models.StockRecord{Category: "Brownie", Quantity: 10, UnitPrice: price(10)}
	svc := NewService(repo, Options{}, nil)

	_, err := svc.AddQuantity(context.Background(), "Brownie", -2)
	require.NoError(t, err)
	assert.Equal(t, "Baixa de 2 unidade(s) do estoque", repo.rows["Brownie"].Note)
	assert.Equal(t, 10.0, *repo.rows["Brownie"].UnitPrice)

	_, err = svc.AddQuantity(context.Background(), "Brownie", 4)
	require.NoError(t, err)
	assert.Equal(t, "Adicao de 4 unidade(s) ao estoque", repo.rows["Brownie"].Note)
	assert.Equal(t, 12, repo.rows["Brownie"].Quantity)
}

func TestAddQuantity_RetriesLostSwap(t *testing.T) {
	repo := newStubStockRepo()
	repo.rows["Brownie"] = models.StockRecord{Category: "Brownie", Quantity: 10}
	interfered := false
	repo.beforeSwap = func(r *stubStockRepo, category string) {
		if interfered {
			return
		}
		interfered = true
		rec := r.rows[category]
		rec.Quantity += 3
		r.rows[category] = rec
	}
	svc := NewService(repo, Options{CASAttempts: 3}, nil)

	total, err := svc.AddQuantity(context.Background(), "Brownie", -2)
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	assert.Equal(t, 2, repo.swaps)
}

func TestAddQuantity_GivesUpWithConflict(t *testing.T) {
	repo := newStubStockRepo()
	repo.rows["Brownie"] = models.StockRecord{Category: "Brownie", Quantity: 10}
	repo.beforeSwap = func(r *stubStockRepo, category string) {
		rec := r.rows[category]
		rec.Quantity++
		r.rows[category] = rec
	}
	svc := NewService(repo, Options{CASAttempts: 2}, nil)

	_, err := svc.AddQuantity(context.Background(), "Brownie", 1)
	require.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Equal(t, 2, repo.swaps)
}

func TestAddQuantity_PropagatesReadFailure(t *testing.T) {
	repo := newStubStockRepo()
	repo.findErr = apperror.New(apperror.KindUnavailable, "down")
	svc := NewService(repo, Options{}, nil)

	_, err := svc.AddQuantity(context.Background(), "Brownie", 1)
	assert.True(t, apperror.IsUnavailable(err))
}

func TestGetQuantity_NotFound(t *testing.T) {
	svc := NewService(newStubStockRepo(), Options{}, nil)

	_, err := svc.GetQuantity(context.Background(), "Nada")
	assert.True(t, apperror.IsNotFound(err))
}

func TestUpdateQuantity(t *testing.T) {
	repo := newStubStockRepo()
	repo.rows["Brownie"] = models.StockRecord{Category: "Brownie", Quantity: 1}
	svc := NewService(repo, Options{}, nil)

	got, err := svc.UpdateQuantity(context.Background(), "Brownie", 30)
	require.NoError(t, err)
	assert.Equal(t, 30, got)

	_, err = svc.UpdateQuantity(context.Background(), "Nada", 1)
	assert.True(t, apperror.IsNotFound(err))
}

func TestLookupUnitPrice(t *testing.T) {
	repo := newStubStockRepo()
	repo.rows["Brownie"] = models.StockRecord{Category: "Brownie", UnitPrice: price(7)}
	repo.rows["Bolo"] = models.StockRecord{Category: "Bolo"}
	svc := NewService(repo, Options{}, nil)
	ctx := context.Background()

	assert.Equal(t, PriceLookup{Outcome: PriceKnown, Price: 7}, svc.LookupUnitPrice(ctx, "Brownie"))
	assert.Equal(t, PriceUnknown, svc.LookupUnitPrice(ctx, "Bolo").Outcome)
	assert.Equal(t, PriceUnknown, svc.LookupUnitPrice(ctx, "Nada").Outcome)

	repo.priceErr = errors.New("dial tcp: refused")
	failed := svc.LookupUnitPrice(ctx, "Brownie")
	assert.Equal(t, PriceLookupFailed, failed.Outcome)
	assert.Error(t, failed.Err)
}
