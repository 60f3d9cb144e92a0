package domain

import (
	"github.com/mtrack/mortgage-engine/pkg/decimal"
)

// CashFlow is a household's monthly budget
type CashFlow struct {
	UserID        string        `yaml:"user_id" json:"user_id"`
	MonthlyIncome decimal.Money `yaml:"monthly_income" json:"monthly_income"`

	PropertyTax    decimal.Money `yaml:"property_tax,omitempty" json:"property_tax"`
	HomeInsurance  decimal.Money `yaml:"home_insurance,omitempty" json:"home_insurance"`
	CondoFees      decimal.Money `yaml:"condo_fees,omitempty" json:"condo_fees"`
	Utilities      decimal.Money `yaml:"utilities,omitempty" json:"utilities"`
	Groceries      decimal.Money `yaml:"groceries,omitempty" json:"groceries"`
	Dining         decimal.Money `yaml:"dining,omitempty" json:"dining"`
	Transportation decimal.Money `yaml:"transportation,omitempty" json:"transportation"`
	Entertainment  decimal.Money `yaml:"entertainment,omitempty" json:"entertainment"`

	CarLoan     decimal.Money `yaml:"car_loan,omitempty" json:"car_loan"`
	StudentLoan decimal.Money `yaml:"student_loan,omitempty" json:"student_loan"`
	CreditCard  decimal.Money `yaml:"credit_card,omitempty" json:"credit_card"`
}

// Expenses sums the housing and living expense lines
func (c *CashFlow) Expenses() decimal.Money {
	return decimal.Sum(c.PropertyTax, c.HomeInsurance, c.CondoFees, c.Utilities,
		c.Groceries, c.Dining, c.Transportation, c.Entertainment)
}

// Debt sums the non-mortgage debt payments
func (c *CashFlow) Debt() decimal.Money {
	return decimal.Sum(c.CarLoan, c.StudentLoan, c.CreditCard)
}

// Surplus is income less expenses and debt, never negative
func (c *CashFlow) Surplus() decimal.Money {
	return c.MonthlyIncome.Sub(c.Expenses()).Sub(c.Debt()).NonNegative()
}
