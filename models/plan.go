package models

import (
	"strconv"
	"strings"
)

// DefaultCurrency is the currency credit plans are priced in.
const DefaultCurrency = "INR"

// CreditPlan is a purchasable bundle of upload credits.
type CreditPlan struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Credits       int      `json:"credits"`
	Price         int      `json:"price"`
	OriginalPrice int      `json:"originalPrice"`
	Popular       bool     `json:"popular"`
	Features      []string `json:"features"`
}

// CreditPlans lists the plans offered on the purchase page.
var CreditPlans = []CreditPlan{
	{
		ID:            "basic",
		Name:          "Basic Pack",
		Credits:       10,
		Price:         99,
		OriginalPrice: 120,
		Features:      []string{"10 File Uploads", "Email Support", "30 Days Validity"},
	},
	{
		ID:            "pro",
		Name:          "Pro Pack",
		Credits:       50,
		Price:         399,
		OriginalPrice: 500,
		Popular:       true,
		Features:      []string{"50 File Uploads", "Priority Support", "90 Days Validity", "Best Value"},
	},
	{
		ID:            "premium",
		Name:          "Premium Pack",
		Credits:       100,
		Price:         699,
		OriginalPrice: 900,
		Features:      []string{"100 File Uploads", "24/7 Support", "180 Days Validity", "Maximum Storage"},
	},
}

// FindPlan looks up a plan by ID, case-insensitively.
func FindPlan(id string) (CreditPlan, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, plan := range CreditPlans {
		if plan.ID == id {
			return plan, true
		}
	}
	return CreditPlan{}, false
}

// Order builds the create-order request for the plan.
func (p CreditPlan) Order() PaymentOrder {
	return PaymentOrder{
		PlanID:   p.ID,
		Amount:   strconv.Itoa(p.Price),
		Currency: DefaultCurrency,
		Credits:  p.Credits,
	}
}
