package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	nextID   int64
	products map[int64]Product
	refs     map[int64]int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextID: 1, products: map[int64]Product{}, refs: map[int64]int{}}
}

func (f *fakeRepo) Create(ctx context.Context, input CreateInput) (Product, error) {
	for _, p := range f.products {
		if p.Name == input.Name {
			return Product{}, ErrDuplicateName
		}
	}
	p := Product{
		ID:           f.nextID,
		Name:         input.Name,
		Category:     input.Category,
		IsReturnable: input.IsReturnable,
		DepositValue: input.DepositValue,
		PriceUnit:    input.PriceUnit,
		Description:  input.Description,
		Status:       StatusActive,
	}
	f.products[p.ID] = p
	f.nextID++
	return p, nil
}

func (f *fakeRepo) Get(ctx context.Context, id int64) (Product, error) {
	p, ok := f.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (f *fakeRepo) List(ctx context.Context, status, category string) ([]Product, error) {
	var out []Product
	for _, p := range f.products {
		if status != "" && p.Status != status {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeRepo) Update(ctx context.Context, id int64, input UpdateInput) (Product, error) {
	p, ok := f.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	p.Name = input.Name
	p.Category = input.Category
	p.IsReturnable = input.IsReturnable
	p.DepositValue = input.DepositValue
	p.PriceUnit = input.PriceUnit
	p.Description = input.Description
	p.Status = input.Status
	f.products[id] = p
	return p, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.products[id]; !ok {
		return ErrNotFound
	}
	if f.refs[id] > 0 {
		return ErrHasDependencies
	}
	delete(f.products, id)
	return nil
}

func TestCreateValidatesInput(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	_, err := svc.Create(context.Background(), 0, CreateInput{Category: "drinks"})
	require.ErrorIs(t, err, ErrValidation)

	neg := -1.0
	_, err = svc.Create(context.Background(), 0, CreateInput{Name: "Kombucha", Category: "drinks", DepositValue: &neg})
	require.ErrorIs(t, err, ErrValidation)

	p, err := svc.Create(context.Background(), 0, CreateInput{Name: "Kombucha", Category: "drinks", PriceUnit: 12.5})
	require.NoError(t, err)
	require.Equal(t, StatusActive, p.Status)
	require.Zero(t, p.CostUnit)
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	_, err := svc.Create(context.Background(), 0, CreateInput{Name: "Kefir", Category: "drinks"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), 0, CreateInput{Name: "Kefir", Category: "drinks"})
	require.ErrorIs(t, err, ErrDuplicateName)
}

func TestUpdateRequiresKnownStatus(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	p, err := svc.Create(context.Background(), 0, CreateInput{Name: "Kefir", Category: "drinks"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), 0, p.ID, UpdateInput{Name: "Kefir", Category: "drinks", Status: "ARCHIVED"})
	require.ErrorIs(t, err, ErrValidation)

	updated, err := svc.Update(context.Background(), 0, p.ID, UpdateInput{Name: "Kefir 500ml", Category: "drinks", Status: StatusInactive})
	require.NoError(t, err)
	require.Equal(t, StatusInactive, updated.Status)
}

func TestDeleteBlockedByOrderReferences(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	p, err := svc.Create(context.Background(), 0, CreateInput{Name: "Kefir", Category: "drinks"})
	require.NoError(t, err)

	repo.refs[p.ID] = 2
	require.ErrorIs(t, svc.Delete(context.Background(), 0, p.ID), ErrHasDependencies)

	repo.refs[p.ID] = 0
	require.NoError(t, svc.Delete(context.Background(), 0, p.ID))
	_, err = svc.Get(context.Background(), p.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
