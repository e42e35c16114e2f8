package customers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	nextID    int64
	customers map[int64]Customer
	sales     map[int64]int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextID: 1, customers: map[int64]Customer{}, sales: map[int64]int{}}
}

func (f *fakeRepo) Create(ctx context.Context, input Input) (Customer, error) {
	c := Customer{
		ID:           f.nextID,
		Name:         input.Name,
		Type:         input.Type,
		Phone:        input.Phone,
		Address:      input.Address,
		Neighborhood: input.Neighborhood,
		Status:       input.Status,
	}
	f.customers[c.ID] = c
	f.nextID++
	return c, nil
}

func (f *fakeRepo) Get(ctx context.Context, id int64) (Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return Customer{}, ErrNotFound
	}
	return c, nil
}

func (f *fakeRepo) List(ctx context.Context, status string) ([]Customer, error) {
	var out []Customer
	for _, c := range f.customers {
		if status != "" && c.Status != status {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeRepo) Update(ctx context.Context, id int64, input Input) (Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return Customer{}, ErrNotFound
	}
	c.Name = input.Name
	c.Type = input.Type
	c.Phone = input.Phone
	c.Address = input.Address
	c.Neighborhood = input.Neighborhood
	c.Status = input.Status
	f.customers[id] = c
	return c, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.customers[id]; !ok {
		return ErrNotFound
	}
	if f.sales[id] > 0 {
		return ErrHasSales
	}
	delete(f.customers, id)
	return nil
}

func TestCreateDefaultsAndValidates(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	_, err := svc.Create(context.Background(), 0, Input{Type: TypeIndividual})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(context.Background(), 0, Input{Name: "Dona Maria", Type: "COMPANY"})
	require.ErrorIs(t, err, ErrValidation)

	c, err := svc.Create(context.Background(), 0, Input{Name: "Dona Maria", Type: TypeIndividual})
	require.NoError(t, err)
	require.Equal(t, StatusActive, c.Status)
	require.Zero(t, c.OutstandingReturnableDepo)
}

func TestDeleteBlockedBySaleHistory(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	c, err := svc.Create(context.Background(), 0, Input{Name: "Bar do Zé", Type: TypeReseller})
	require.NoError(t, err)

	repo.sales[c.ID] = 3
	require.ErrorIs(t, svc.Delete(context.Background(), 0, c.ID), ErrHasSales)

	repo.sales[c.ID] = 0
	require.NoError(t, svc.Delete(context.Background(), 0, c.ID))
}
