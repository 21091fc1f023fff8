package models

// SearchCriteria is the structured form of a search request.
// MaxBudget of zero means the range is unbounded above; when it is set,
// MinBudget <= MaxBudget. Bedrooms of zero and an empty Locations set
// place no restriction on those fields.
type SearchCriteria struct {
	Locations []string `json:"locations"`
	MinBudget int64    `json:"min_budget"`
	MaxBudget int64    `json:"max_budget"`
	Bedrooms  int      `json:"bedrooms,omitempty"`
}

// HasMaxBudget reports whether the budget range is bounded above.
func (c SearchCriteria) HasMaxBudget() bool {
	return c.MaxBudget > 0
}

// IsEmpty reports whether the criteria restrict nothing.
func (c SearchCriteria) IsEmpty() bool {
	return c.MinBudget == 0 && c.MaxBudget == 0 && c.Bedrooms == 0 && len(c.Locations) == 0
}

// Winners flags the categories a property leads within a compared set.
type Winners struct {
	BestValue     bool `json:"best_value"`
	BestPrice     bool `json:"best_price"`
	MostAmenities bool `json:"most_amenities"`
	BestLocation  bool `json:"best_location"`
}

// ScoreBreakdown explains the composite score of one property.
// Every component lies in [0,1].
type ScoreBreakdown struct {
	PropertyID  string  `json:"property_id"`
	Value       float64 `json:"value"`
	Price       float64 `json:"price"`
	Size        float64 `json:"size"`
	Amenities   float64 `json:"amenities"`
	Location    float64 `json:"location"`
	Composite   float64 `json:"composite"`
	Winners     Winners `json:"winners"`
	Recommended bool    `json:"recommended"`
}

// InvestmentParameters are the investor inputs for a projection.
type InvestmentParameters struct {
	DownPaymentPercent        float64 `json:"down_payment_percent"`
	LoanTermYears             int     `json:"loan_term_years"`
	AnnualInterestRatePercent float64 `json:"annual_interest_rate_percent"`
	ExpectedMonthlyRental     float64 `json:"expected_monthly_rental"`
	AnnualAppreciationPercent float64 `json:"annual_appreciation_percent"`
}

// DefaultInvestmentParameters mirrors the defaults offered to investors.
func DefaultInvestmentParameters() InvestmentParameters {
	return InvestmentParameters{
		DownPaymentPercent:        20,
		LoanTermYears:             20,
		AnnualInterestRatePercent: 7.5,
		ExpectedMonthlyRental:     30000,
		AnnualAppreciationPercent: 5,
	}
}

// InvestmentProjection is the financial outlook for one property.
// AbsoluteReturnPercent is an illustrative aggregate, not an IRR.
type InvestmentProjection struct {
	LoanAmount                    float64 `json:"loan_amount"`
	DownPaymentAmount             float64 `json:"down_payment_amount"`
	MonthlyInstallment            float64 `json:"monthly_installment"`
	AnnualInstallment             float64 `json:"annual_installment"`
	TotalPayment                  float64 `json:"total_payment"`
	TotalInterest                 float64 `json:"total_interest"`
	AnnualRentalIncome            float64 `json:"annual_rental_income"`
	NetAnnualCashFlow             float64 `json:"net_annual_cash_flow"`
	AnnualCashOnCashReturnPercent float64 `json:"annual_cash_on_cash_return_percent"`
	ProjectedValueAtTermEnd       float64 `json:"projected_value_at_term_end"`
	TotalAppreciation             float64 `json:"total_appreciation"`
	TotalInvestment               float64 `json:"total_investment"`
	AbsoluteReturnPercent         float64 `json:"absolute_return_percent"`
}
