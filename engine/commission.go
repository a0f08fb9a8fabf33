/*
commission.go - Sale recording and cascading commission calculation

PURPOSE:
  RecordSale is the write path for a new sale. In one transaction it:
    1. validates the seller and the policy number's uniqueness
    2. persists the Sale
    3. freezes the recipient chain as HierarchySnapshot rows
       (seller at upline level 0, then each ancestor in upline order)
    4. writes the seller's FYC commission (50% of policy value)
    5. writes one Override commission per upline agent whose level has a
       configured rate (2% Team Lead, 1.5% Manager, 1% Director)

  Either everything above is persisted or nothing is, including the sale
  row itself.
*/
package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// NewSale is the input for recording a sale. A zero SaleDate defaults to
// the current time.
type NewSale struct {
	PolicyNumber string
	PolicyValue  decimal.Decimal
	AgentID      AgentID
	SaleDate     time.Time
}

// RecordSale validates, persists, and pays out a new sale atomically.
func (e *Engine) RecordSale(ctx context.Context, in NewSale) (*Sale, error) {
	if in.PolicyNumber == "" {
		return nil, ErrInvalidPolicyNumber
	}
	if !in.PolicyValue.IsPositive() {
		return nil, ErrInvalidPolicyValue
	}

	saleDate := in.SaleDate
	if saleDate.IsZero() {
		saleDate = e.now()
	}
	saleDate = saleDate.UTC()

	var sale Sale
	err := e.store.WithTx(ctx, func(s Store) error {
		seller, err := s.GetAgent(ctx, in.AgentID)
		if err != nil {
			return err
		}
		if seller == nil {
			return ErrAgentNotFound
		}

		existing, err := s.SaleByPolicyNumber(ctx, in.PolicyNumber)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicatePolicyNumber
		}

		now := e.now()
		sale = Sale{
			ID:           SaleID(newID()),
			PolicyNumber: in.PolicyNumber,
			PolicyValue:  in.PolicyValue,
			SaleDate:     saleDate,
			AgentID:      seller.ID,
			CreatedAt:    now,
		}
		if err := s.CreateSale(ctx, sale); err != nil {
			return err
		}

		upline, err := hierarchy{s}.Upline(ctx, seller.ID)
		if err != nil {
			return err
		}

		// Recipient chain: seller first, then ancestors in upline order.
		recipients := append([]Agent{*seller}, upline...)
		for i, r := range recipients {
			snap := HierarchySnapshot{
				ID:            SnapshotID(newID()),
				SaleID:        sale.ID,
				AgentID:       r.ID,
				UplineLevel:   i,
				UplineAgentID: r.ID,
				CreatedAt:     now,
			}
			if err := s.CreateSnapshot(ctx, snap); err != nil {
				return err
			}
		}

		fyc := Commission{
			ID:         CommissionID(newID()),
			Amount:     sale.PolicyValue.Mul(FYCRate()),
			Type:       CommissionFYC,
			SaleID:     sale.ID,
			AgentID:    seller.ID,
			PayoutDate: now,
		}
		if err := s.CreateCommission(ctx, fyc); err != nil {
			return err
		}

		for _, manager := range upline {
			rate, ok := OverrideRate(manager.Level)
			if !ok {
				continue
			}
			override := Commission{
				ID:         CommissionID(newID()),
				Amount:     sale.PolicyValue.Mul(rate),
				Type:       CommissionOverride,
				SaleID:     sale.ID,
				AgentID:    manager.ID,
				PayoutDate: now,
			}
			if err := s.CreateCommission(ctx, override); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// GetSale returns a sale or ErrSaleNotFound.
func (e *Engine) GetSale(ctx context.Context, id SaleID) (*Sale, error) {
	sale, err := e.store.GetSale(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, ErrSaleNotFound
	}
	return sale, nil
}

// ListSales returns every sale.
func (e *Engine) ListSales(ctx context.Context) ([]Sale, error) {
	return e.store.ListSales(ctx)
}

// ListCommissions returns the full commission ledger.
func (e *Engine) ListCommissions(ctx context.Context) ([]Commission, error) {
	return e.store.ListCommissions(ctx)
}
