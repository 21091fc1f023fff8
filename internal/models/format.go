package models

import "fmt"

const (
	// Lakh is 100,000 currency units.
	Lakh = 100_000
	// Crore is 10,000,000 currency units.
	Crore = 10_000_000
)

// FormatPrice renders an amount in lakh or crore notation, e.g. "₹95.00 L" or "₹1.05 Cr".
// Amounts below one lakh are printed in plain rupees.
func FormatPrice(amount int64) string {
	switch {
	case amount >= Crore:
		return fmt.Sprintf("₹%.2f Cr", float64(amount)/Crore)
	case amount >= Lakh:
		return fmt.Sprintf("₹%.2f L", float64(amount)/Lakh)
	default:
		return fmt.Sprintf("₹%d", amount)
	}
}

// ValueLabel describes a 0-100 value score in words.
func ValueLabel(score float64) string {
	switch {
	case score >= 90:
		return "Excellent value"
	case score >= 80:
		return "Very good value"
	case score >= 70:
		return "Good value"
	default:
		return "Fair value"
	}
}
