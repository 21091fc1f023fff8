// Package finance computes loan and investment projections for a single property.
package finance

import (
	"errors"
	"fmt"
	"math"

	"github.com/stwalsh4118/estimo/api/internal/models"
)

// ErrInvalidParameters is returned when a projection's preconditions are violated.
var ErrInvalidParameters = errors.New("invalid investment parameters")

// Option adjusts how a projection is computed.
type Option func(*options)

type options struct {
	// principalBaselinePercent is the share of the price treated as borrowed
	// principal when computing total investment. Negative means the actual
	// financed share.
	principalBaselinePercent float64
}

// WithPrincipalBaseline fixes the share of the price, in percent, that is
// subtracted from total payments as borrowed principal, independent of the
// down payment.
func WithPrincipalBaseline(percent float64) Option {
	return func(o *options) {
		o.principalBaselinePercent = percent
	}
}

// EMI returns the equated monthly installment for a loan repaid over years
// at annualRatePercent. A zero rate spreads the loan evenly.
func EMI(loan, annualRatePercent float64, years int) float64 {
	n := float64(years * 12)
	if n <= 0 {
		return 0
	}

	monthlyRate := annualRatePercent / 12 / 100
	if monthlyRate == 0 {
		return loan / n
	}

	growth := math.Pow(1+monthlyRate, n)
	return loan * monthlyRate * growth / (growth - 1)
}

// Validate checks the preconditions of a projection on a property of the given price.
func Validate(price int64, params models.InvestmentParameters) error {
	switch {
	case price <= 0:
		return fmt.Errorf("%w: price must be positive", ErrInvalidParameters)
	case params.LoanTermYears <= 0:
		return fmt.Errorf("%w: loan term must be positive", ErrInvalidParameters)
	case params.DownPaymentPercent < 0 || params.DownPaymentPercent > 100:
		return fmt.Errorf("%w: down payment must be between 0 and 100 percent", ErrInvalidParameters)
	case params.AnnualInterestRatePercent < 0:
		return fmt.Errorf("%w: interest rate must not be negative", ErrInvalidParameters)
	case params.ExpectedMonthlyRental < 0:
		return fmt.Errorf("%w: monthly rental must not be negative", ErrInvalidParameters)
	case params.AnnualAppreciationPercent < 0:
		return fmt.Errorf("%w: appreciation must not be negative", ErrInvalidParameters)
	}
	return nil
}

// Project computes the investment outlook of buying at price with params.
//
// Cash-on-cash return is zero when nothing is paid down. The absolute return
// relates total appreciation plus accumulated net cash flow to the money the
// investor puts in (down payment plus installments, less borrowed principal);
// it is an illustrative aggregate, not an IRR, and is zero when that
// investment is not positive.
func Project(price int64, params models.InvestmentParameters, opts ...Option) (models.InvestmentProjection, error) {
	if err := Validate(price, params); err != nil {
		return models.InvestmentProjection{}, err
	}

	o := options{principalBaselinePercent: -1}
	for _, opt := range opts {
		opt(&o)
	}

	p := float64(price)
	years := float64(params.LoanTermYears)
	payments := years * 12

	down := p * params.DownPaymentPercent / 100
	loan := p - down
	monthly := EMI(loan, params.AnnualInterestRatePercent, params.LoanTermYears)
	totalPayment := monthly * payments

	annualRental := params.ExpectedMonthlyRental * 12
	netAnnual := annualRental - monthly*12

	projected := p * math.Pow(1+params.AnnualAppreciationPercent/100, years)
	appreciation := projected - p

	baseline := loan
	if o.principalBaselinePercent >= 0 {
		baseline = p * o.principalBaselinePercent / 100
	}
	totalInvestment := down + totalPayment - baseline

	proj := models.InvestmentProjection{
		LoanAmount:              loan,
		DownPaymentAmount:       down,
		MonthlyInstallment:      monthly,
		AnnualInstallment:       monthly * 12,
		TotalPayment:            totalPayment,
		TotalInterest:           totalPayment - loan,
		AnnualRentalIncome:      annualRental,
		NetAnnualCashFlow:       netAnnual,
		ProjectedValueAtTermEnd: projected,
		TotalAppreciation:       appreciation,
		TotalInvestment:         totalInvestment,
	}
	if down > 0 {
		proj.AnnualCashOnCashReturnPercent = netAnnual / down * 100
	}
	if totalInvestment > 0 {
		proj.AbsoluteReturnPercent = (appreciation + netAnnual*years) / totalInvestment * 100
	}

	return proj, nil
}

// Mortgage is the repayment summary of a loan.
type Mortgage struct {
	LoanAmount         float64 `json:"loan_amount"`
	DownPaymentAmount  float64 `json:"down_payment_amount"`
	MonthlyInstallment float64 `json:"monthly_installment"`
	TotalPayment       float64 `json:"total_payment"`
	TotalInterest      float64 `json:"total_interest"`
}

// Amortize summarizes the loan taken to buy at price with the given down
// payment, term and rate. Rental and appreciation in params are ignored.
func Amortize(price int64, params models.InvestmentParameters) (Mortgage, error) {
	params.ExpectedMonthlyRental = 0
	params.AnnualAppreciationPercent = 0

	proj, err := Project(price, params)
	if err != nil {
		return Mortgage{}, err
	}

	return Mortgage{
		LoanAmount:         proj.LoanAmount,
		DownPaymentAmount:  proj.DownPaymentAmount,
		MonthlyInstallment: proj.MonthlyInstallment,
		TotalPayment:       proj.TotalPayment,
		TotalInterest:      proj.TotalInterest,
	}, nil
}
