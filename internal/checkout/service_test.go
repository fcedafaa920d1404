package checkout_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gostorefront/storefront/internal/cart"
	"github.com/gostorefront/storefront/internal/checkout"
	"github.com/gostorefront/storefront/internal/order"
)

type mockTxManager struct {
	begun     int
	committed int
}

func (m *mockTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.begun++
	if err := fn(ctx); err != nil {
		return err
	}
	m.committed++
	return nil
}

type mockCartStore struct {
	lockLinesFunc   func(ctx context.Context, customerID uuid.UUID) ([]cart.Line, error)
	removeLinesFunc func(ctx context.Context, customerID uuid.UUID, lines []cart.Line) error
	removedLines    []cart.Line
}

func (m *mockCartStore) LockLines(ctx context.Context, customerID uuid.UUID) ([]cart.Line, error) {
	return m.lockLinesFunc(ctx, customerID)
}

func (m *mockCartStore) RemoveLines(ctx context.Context, customerID uuid.UUID, lines []cart.Line) error {
	m.removedLines = lines
	return m.removeLinesFunc(ctx, customerID, lines)
}

type mockOrderStore struct {
	createFunc func(ctx context.Context, o *order.Order) error
	created    *order.Order
}

func (m *mockOrderStore) Create(ctx context.Context, o *order.Order) error {
	m.created = o
	return m.createFunc(ctx, o)
}

type mockCustomerDirectory struct {
	existsFunc        func(ctx context.Context, customerID uuid.UUID) (bool, error)
	addressExistsFunc func(ctx context.Context, customerID, addressID uuid.UUID) (bool, error)
	cardExistsFunc    func(ctx context.Context, customerID, cardID uuid.UUID) (bool, error)
	calls             int
}

func (m *mockCustomerDirectory) Exists(ctx context.Context, customerID uuid.UUID) (bool, error) {
	m.calls++
	return m.existsFunc(ctx, customerID)
}

func (m *mockCustomerDirectory) AddressExists(ctx context.Context, customerID, addressID uuid.UUID) (bool, error) {
	m.calls++
	return m.addressExistsFunc(ctx, customerID, addressID)
}

func (m *mockCustomerDirectory) CardExists(ctx context.Context, customerID, cardID uuid.UUID) (bool, error) {
	m.calls++
	return m.cardExistsFunc(ctx, customerID, cardID)
}

func allExist() *mockCustomerDirectory {
	return &mockCustomerDirectory{
		existsFunc: func(ctx context.Context, customerID uuid.UUID) (bool, error) {
			return true, nil
		},
		addressExistsFunc: func(ctx context.Context, customerID, addressID uuid.UUID) (bool, error) {
			return true, nil
		},
		cardExistsFunc: func(ctx context.Context, customerID, cardID uuid.UUID) (bool, error) {
			return true, nil
		},
	}
}

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.FromString(s)
	require.NoError(t, err)
	return id
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// conversionsCount reads the conversions counter for one outcome label from
// the default registry.
func conversionsCount(t *testing.T, outcome string) float64 {
	t.Helper()
	mfs, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "storefront_cart_conversions_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "outcome" && l.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestService_Convert(t *testing.T) {
	customerID := "550e8400-e29b-41d4-a716-446655440000"
	addressID := "550e8400-e29b-41d4-a716-446655440001"
	cardID := "550e8400-e29b-41d4-a716-446655440002"
	productA := "550e8400-e29b-41d4-a716-4466554400aa"
	productB := "550e8400-e29b-41d4-a716-4466554400bb"

	twoLines := func(t *testing.T) []cart.Line {
		return []cart.Line{
			{ID: mustUUID(t, "550e8400-e29b-41d4-a716-446655440010"), ProductID: mustUUID(t, productA), Quantity: 2, UnitPrice: price("10.00")},
			{ID: mustUUID(t, "550e8400-e29b-41d4-a716-446655440011"), ProductID: mustUUID(t, productB), Quantity: 1, UnitPrice: price("5.00")},
		}
	}

	t.Run("converts two lines into an order with exact total", func(t *testing.T) {
		lines := twoLines(t)
		tx := &mockTxManager{}
		carts := &mockCartStore{
			lockLinesFunc: func(ctx context.Context, id uuid.UUID) ([]cart.Line, error) {
				return lines, nil
			},
			removeLinesFunc: func(ctx context.Context, id uuid.UUID, ls []cart.Line) error {
				return nil
			},
		}
		orders := &mockOrderStore{
			createFunc: func(ctx context.Context, o *order.Order) error { return nil },
		}

		svc := checkout.NewService(tx, carts, orders, allExist())

		o, err := svc.Convert(context.Background(),
			mustUUID(t, customerID), mustUUID(t, addressID), mustUUID(t, cardID))
		require.NoError(t, err)
		require.NotNil(t, o)

		assert.True(t, o.Total.Equal(price("25.00")), "total should be exactly 25.00, got %s", o.Total)
		assert.Equal(t, order.StatusCreated, o.Status)
		assert.Equal(t, mustUUID(t, customerID), o.CustomerID)
		assert.Equal(t, mustUUID(t, addressID), o.AddressID)
		assert.Equal(t, mustUUID(t, cardID), o.CardID)
		assert.False(t, o.OrderDate.IsZero())
		assert.Equal(t, time.UTC, o.OrderDate.Location())

		// Conservation: order lines mirror the cart lines verbatim.
		require.Len(t, o.Lines, 2)
		for i, l := range lines {
			assert.Equal(t, l.ProductID, o.Lines[i].ProductID)
			assert.Equal(t, l.Quantity, o.Lines[i].Quantity)
			assert.True(t, l.UnitPrice.Equal(o.Lines[i].UnitPrice))
		}

		// Exactly the observed lines were removed, in one committed tx.
		assert.Equal(t, lines, carts.removedLines)
		assert.Equal(t, 1, tx.begun)
		assert.Equal(t, 1, tx.committed)
	})

	t.Run("empty cart fails without creating an order", func(t *testing.T) {
		tx := &mockTxManager{}
		carts := &mockCartStore{
			lockLinesFunc: func(ctx context.Context, id uuid.UUID) ([]cart.Line, error) {
				return []cart.Line{}, nil
			},
			removeLinesFunc: func(ctx context.Context, id uuid.UUID, ls []cart.Line) error {
				t.Fatal("RemoveLines must not be called for an empty cart")
				return nil
			},
		}
		orders := &mockOrderStore{
			createFunc: func(ctx context.Context, o *order.Order) error {
				t.Fatal("Create must not be called for an empty cart")
				return nil
			},
		}

		svc := checkout.NewService(tx, carts, orders, allExist())

		o, err := svc.Convert(context.Background(),
			mustUUID(t, customerID), mustUUID(t, addressID), mustUUID(t, cardID))
		assert.ErrorIs(t, err, checkout.ErrEmptyCart)
		assert.Nil(t, o)
		assert.Equal(t, 0, tx.committed)
	})

	t.Run("nil identifiers fail before any store call", func(t *testing.T) {
		rejected := conversionsCount(t, "invalid_argument")

		tests := []struct {
			name                    string
			customer, address, card string
		}{
			{"missing_customer", "", addressID, cardID},
			{"missing_address", customerID, "", cardID},
			{"missing_card", customerID, addressID, ""},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				tx := &mockTxManager{}
				customers := allExist()
				svc := checkout.NewService(tx, &mockCartStore{}, &mockOrderStore{}, customers)

				parse := func(s string) uuid.UUID {
					if s == "" {
						return uuid.Nil
					}
					return mustUUID(t, s)
				}

				o, err := svc.Convert(context.Background(),
					parse(tt.customer), parse(tt.address), parse(tt.card))
				assert.ErrorIs(t, err, checkout.ErrInvalidArgument)
				assert.Nil(t, o)
				assert.Equal(t, 0, tx.begun, "no transaction may be opened")
				assert.Equal(t, 0, customers.calls, "no store may be touched")
			})
		}

		assert.Equal(t, rejected+float64(len(tests)), conversionsCount(t, "invalid_argument"),
			"rejected conversions must show up in the conversions counter")
	})

	t.Run("missing referenced entities abort the conversion", func(t *testing.T) {
		tests := []struct {
			name    string
			setup   func(m *mockCustomerDirectory)
			wantErr error
		}{
			{
				"customer_missing",
				func(m *mockCustomerDirectory) {
					m.existsFunc = func(ctx context.Context, id uuid.UUID) (bool, error) { return false, nil }
				},
				checkout.ErrCustomerNotFound,
			},
			{
				"address_missing",
				func(m *mockCustomerDirectory) {
					m.addressExistsFunc = func(ctx context.Context, cid, aid uuid.UUID) (bool, error) { return false, nil }
				},
				checkout.ErrAddressNotFound,
			},
			{
				"card_missing",
				func(m *mockCustomerDirectory) {
					m.cardExistsFunc = func(ctx context.Context, cid, cdid uuid.UUID) (bool, error) { return false, nil }
				},
				checkout.ErrCardNotFound,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				tx := &mockTxManager{}
				customers := allExist()
				tt.setup(customers)
				orders := &mockOrderStore{
					createFunc: func(ctx context.Context, o *order.Order) error {
						t.Fatal("Create must not be called")
						return nil
					},
				}
				carts := &mockCartStore{
					lockLinesFunc: func(ctx context.Context, id uuid.UUID) ([]cart.Line, error) {
						return twoLines(t), nil
					},
					removeLinesFunc: func(ctx context.Context, id uuid.UUID, ls []cart.Line) error {
						t.Fatal("RemoveLines must not be called")
						return nil
					},
				}

				svc := checkout.NewService(tx, carts, orders, customers)

				o, err := svc.Convert(context.Background(),
					mustUUID(t, customerID), mustUUID(t, addressID), mustUUID(t, cardID))
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, o)
				assert.Equal(t, 0, tx.committed)
			})
		}
	})

	t.Run("storage failure during line insert rolls everything back", func(t *testing.T) {
		boom := errors.New("connection reset")
		tx := &mockTxManager{}
		carts := &mockCartStore{
			lockLinesFunc: func(ctx context.Context, id uuid.UUID) ([]cart.Line, error) {
				return twoLines(t), nil
			},
			removeLinesFunc: func(ctx context.Context, id uuid.UUID, ls []cart.Line) error {
				t.Fatal("RemoveLines must not be called after insert failure")
				return nil
			},
		}
		orders := &mockOrderStore{
			createFunc: func(ctx context.Context, o *order.Order) error { return boom },
		}

		svc := checkout.NewService(tx, carts, orders, allExist())

		o, err := svc.Convert(context.Background(),
			mustUUID(t, customerID), mustUUID(t, addressID), mustUUID(t, cardID))
		assert.ErrorIs(t, err, checkout.ErrPersistence)
		assert.Nil(t, o)
		assert.Equal(t, 0, tx.committed, "transaction must not commit")
	})

	t.Run("cart clearing failure voids the inserted order", func(t *testing.T) {
		tx := &mockTxManager{}
		carts := &mockCartStore{
			lockLinesFunc: func(ctx context.Context, id uuid.UUID) ([]cart.Line, error) {
				return twoLines(t), nil
			},
			removeLinesFunc: func(ctx context.Context, id uuid.UUID, ls []cart.Line) error {
				return errors.New("deadlock detected")
			},
		}
		orders := &mockOrderStore{
			createFunc: func(ctx context.Context, o *order.Order) error { return nil },
		}

		svc := checkout.NewService(tx, carts, orders, allExist())

		o, err := svc.Convert(context.Background(),
			mustUUID(t, customerID), mustUUID(t, addressID), mustUUID(t, cardID))
		assert.ErrorIs(t, err, checkout.ErrPersistence)
		assert.Nil(t, o)
		assert.Equal(t, 0, tx.committed, "order insert must roll back with the failed clear")
	})

	t.Run("second conversion of a drained cart fails with empty cart", func(t *testing.T) {
		lines := twoLines(t)
		drained := false
		tx := &mockTxManager{}
		carts := &mockCartStore{
			lockLinesFunc: func(ctx context.Context, id uuid.UUID) ([]cart.Line, error) {
				if drained {
					return []cart.Line{}, nil
				}
				return lines, nil
			},
			removeLinesFunc: func(ctx context.Context, id uuid.UUID, ls []cart.Line) error {
				drained = true
				return nil
			},
		}
		orderCount := 0
		orders := &mockOrderStore{
			createFunc: func(ctx context.Context, o *order.Order) error {
				orderCount++
				return nil
			},
		}

		svc := checkout.NewService(tx, carts, orders, allExist())

		cid := mustUUID(t, customerID)
		aid := mustUUID(t, addressID)
		cdid := mustUUID(t, cardID)

		first, err := svc.Convert(context.Background(), cid, aid, cdid)
		require.NoError(t, err)
		require.NotNil(t, first)

		second, err := svc.Convert(context.Background(), cid, aid, cdid)
		assert.ErrorIs(t, err, checkout.ErrEmptyCart)
		assert.Nil(t, second)
		assert.Equal(t, 1, orderCount, "the drained snapshot must be billed exactly once")
	})

	t.Run("zero total from free items is not an error", func(t *testing.T) {
		tx := &mockTxManager{}
		carts := &mockCartStore{
			lockLinesFunc: func(ctx context.Context, id uuid.UUID) ([]cart.Line, error) {
				return []cart.Line{
					{ID: mustUUID(t, "550e8400-e29b-41d4-a716-446655440012"), ProductID: mustUUID(t, productA), Quantity: 3, UnitPrice: price("0.00")},
				}, nil
			},
			removeLinesFunc: func(ctx context.Context, id uuid.UUID, ls []cart.Line) error { return nil },
		}
		orders := &mockOrderStore{
			createFunc: func(ctx context.Context, o *order.Order) error { return nil },
		}

		svc := checkout.NewService(tx, carts, orders, allExist())

		o, err := svc.Convert(context.Background(),
			mustUUID(t, customerID), mustUUID(t, addressID), mustUUID(t, cardID))
		require.NoError(t, err)
		assert.True(t, o.Total.IsZero())
	})
}

func TestService_Convert_ExactDecimalTotals(t *testing.T) {
	// 0.1 + 0.2 style sums that drift under float64.
	lines := []cart.Line{
		{ProductID: uuid.Must(uuid.NewV4()), Quantity: 3, UnitPrice: price("0.10")},
		{ProductID: uuid.Must(uuid.NewV4()), Quantity: 1, UnitPrice: price("0.20")},
		{ProductID: uuid.Must(uuid.NewV4()), Quantity: 7, UnitPrice: price("19.99")},
	}

	tx := &mockTxManager{}
	carts := &mockCartStore{
		lockLinesFunc: func(ctx context.Context, id uuid.UUID) ([]cart.Line, error) {
			return lines, nil
		},
		removeLinesFunc: func(ctx context.Context, id uuid.UUID, ls []cart.Line) error { return nil },
	}
	orders := &mockOrderStore{
		createFunc: func(ctx context.Context, o *order.Order) error { return nil },
	}

	svc := checkout.NewService(tx, carts, orders, allExist())

	o, err := svc.Convert(context.Background(),
		uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4()))
	require.NoError(t, err)

	// 0.30 + 0.20 + 139.93
	assert.True(t, o.Total.Equal(price("140.43")), "got %s", o.Total)

	sum := decimal.Zero
	for _, l := range o.Lines {
		sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	assert.True(t, o.Total.Equal(sum), "total must equal the sum over order lines")
}
