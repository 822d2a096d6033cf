package pricing

import (
	"fmt"

	"tourbook/internal/models"
	"tourbook/internal/tours"
)

type Request struct {
	TourID           string
	Type             models.OrderType
	Travelers        int
	ExtensionDays    int
	Insurance        bool
	SingleSupplement bool
}

type Quote struct {
	TourID                  string
	Currency                string
	PerTravelerCents        int64
	TotalCents              int64
	DepositPerTravelerCents int64
	DepositTotalCents       int64
}

// Mismatch reports whether a client-computed total differs from the quote.
// A nil total means the client did not send one.
func (q Quote) Mismatch(clientTotalCents *int64) bool {
	return clientTotalCents != nil && *clientTotalCents != q.TotalCents
}

func (q Quote) Pricing() *models.Pricing {
	return &models.Pricing{
		Currency:                q.Currency,
		PerTravelerCents:        q.PerTravelerCents,
		TotalCents:              q.TotalCents,
		DepositPerTravelerCents: q.DepositPerTravelerCents,
		DepositTotalCents:       q.DepositTotalCents,
	}
}

// Authority computes charge amounts from canonical tour data only.
type Authority struct {
	catalog *tours.Catalog
}

func NewAuthority(catalog *tours.Catalog) *Authority {
	return &Authority{catalog: catalog}
}

func (a *Authority) Quote(req Request) (Quote, error) {
	tour, ok := a.catalog.Get(req.TourID)
	if !ok {
		return Quote{}, fmt.Errorf("%w: unknown tour %q", models.ErrInvalidInput, req.TourID)
	}
	if !req.Type.Valid() {
		return Quote{}, fmt.Errorf("%w: order type %q", models.ErrInvalidInput, req.Type)
	}
	if req.Travelers < 1 || req.Travelers > tour.MaxTravelers {
		return Quote{}, fmt.Errorf("%w: travelers must be between 1 and %d", models.ErrInvalidInput, tour.MaxTravelers)
	}
	if req.ExtensionDays < 0 {
		return Quote{}, fmt.Errorf("%w: extension days cannot be negative", models.ErrInvalidInput)
	}

	base := tour.BasePriceCents
	if req.Type == models.OrderTypePrivate {
		base += percentOf(tour.BasePriceCents, tour.PrivateSurchargePercent)
	}

	perTraveler := base + int64(req.ExtensionDays)*tour.ExtensionPerDayCents
	if req.Insurance {
		perTraveler += tour.InsuranceCents
	}
	if req.SingleSupplement {
		perTraveler += tour.SingleSupplementCents
	}

	var deposit int64
	switch tour.Deposit.Kind {
	case tours.DepositFixed:
		deposit = tour.Deposit.Value
	case tours.DepositPercent:
		deposit = percentOf(perTraveler, tour.Deposit.Value)
	}
	if deposit > perTraveler {
		deposit = perTraveler
	}

	n := int64(req.Travelers)
	return Quote{
		TourID:                  tour.ID,
		Currency:                a.catalog.Currency,
		PerTravelerCents:        perTraveler,
		TotalCents:              perTraveler * n,
		DepositPerTravelerCents: deposit,
		DepositTotalCents:       deposit * n,
	}, nil
}

// percentOf rounds half up to the nearest cent.
func percentOf(amount, percent int64) int64 {
	return (amount*percent + 50) / 100
}
