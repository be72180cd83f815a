package service_test

import (
	"context"
	"testing"

	"pastel24h/internal/apierror"
	"pastel24h/internal/dto"
	"pastel24h/internal/model"
	"pastel24h/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProduct(t *testing.T) {
	f := newFixture()
	svc := service.NewProductService(f.products, nil)

	p, err := svc.Create(context.Background(), dto.CreateProductRequest{
		Name: "  Pastel de carne ", Category: model.CategoryPastel, Price: dec("8.499"), MinStock: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "Pastel de carne", p.Name)
	assert.True(t, p.Price.Equal(dec("8.50")), p.Price.String())

	_, err = svc.Create(context.Background(), dto.CreateProductRequest{Name: "Coxinha", Category: "frito", Price: dec("5")})
	e := domainError(t, err)
	assert.Equal(t, "category", e.Field)

	_, err = svc.Create(context.Background(), dto.CreateProductRequest{Name: "Coxinha", Category: model.CategorySalgado, Price: dec("-5")})
	e = domainError(t, err)
	assert.Equal(t, "price", e.Field)
}

func TestUpdateProduct_PriceChangeAppendsHistory(t *testing.T) {
	f := newFixture()
	p := f.products.add("Pastel de carne", "8.00")
	admin := uuid.New()
	svc := service.NewProductService(f.products, nil)
	ctx := context.Background()

	newPrice := dec("9.00")
	updated, err := svc.Update(ctx, p.ID, admin, dto.UpdateProductRequest{Price: &newPrice})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(dec("9")))

	// Same price again and a name-only change: no new history rows.
	_, err = svc.Update(ctx, p.ID, admin, dto.UpdateProductRequest{Price: &newPrice})
	require.NoError(t, err)
	_, err = svc.Update(ctx, p.ID, admin, dto.UpdateProductRequest{Name: strPtr("Pastel de carne especial")})
	require.NoError(t, err)

	hist, err := svc.PriceHistory(ctx, p.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, hist.Data, 1)
	assert.True(t, hist.Data[0].PriceBefore.Equal(dec("8")))
	assert.True(t, hist.Data[0].PriceAfter.Equal(dec("9")))
	require.NotNil(t, hist.Data[0].ChangedBy)
	assert.Equal(t, admin.String(), *hist.Data[0].ChangedBy)
	assert.Equal(t, 1, hist.Page)
	assert.Equal(t, 50, hist.Limit)

	negative := decimal.NewFromInt(-1)
	_, err = svc.Update(ctx, p.ID, admin, dto.UpdateProductRequest{Price: &negative})
	assert.True(t, apierror.Is(err, apierror.KindValidation))

	_, err = svc.Update(ctx, uuid.New(), admin, dto.UpdateProductRequest{Price: &newPrice})
	assert.True(t, apierror.Is(err, apierror.KindNotFound))
}

func TestDeleteProduct_ReferencedByRecords(t *testing.T) {
	f := newFixture()
	used := f.products.add("Pastel de carne", "8.00")
	unused := f.products.add("Pastel de vento", "5.00")
	f.products.refs[used.ID] = 3
	svc := service.NewProductService(f.products, nil)

	assert.True(t, apierror.Is(svc.Delete(context.Background(), used.ID), apierror.KindConflict))
	require.NoError(t, svc.Delete(context.Background(), unused.ID))
	assert.True(t, apierror.Is(svc.Delete(context.Background(), unused.ID), apierror.KindNotFound))

	_, err := svc.Get(context.Background(), used.ID)
	require.NoError(t, err)
}

func TestMenu_WithoutCache(t *testing.T) {
	f := newFixture()
	f.products.add("Pastel de carne", "8.00")
	f.products.add("Caldo de cana", "6.00")
	svc := service.NewProductService(f.products, nil)

	items, err := svc.Menu(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Caldo de cana", items[0].Name)
}
