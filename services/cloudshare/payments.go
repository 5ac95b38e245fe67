package cloudshare

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"cloudshare/models"
)

// CreateOrder opens a checkout order for plan.
func (c *Client) CreateOrder(ctx context.Context, plan models.CreditPlan) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	if err := c.doJSON(ctx, http.MethodPost, c.apiEndpoint("payments", "create-order"), plan.Order(), &order); err != nil {
		return nil, err
	}
	if !order.Success && order.OrderID == "" {
		return nil, fmt.Errorf("create order: %s", orderMessage(order, "order was not created"))
	}
	log.Printf("[cloudshare] created order %s for plan %s", order.OrderID, plan.ID)
	return &order, nil
}

// VerifyPayment submits the checkout provider's callback values; on success
// the backend credits the account.
func (c *Client) VerifyPayment(ctx context.Context, v models.PaymentVerification) (*models.PaymentOrder, error) {
	var result models.PaymentOrder
	if err := c.doJSON(ctx, http.MethodPost, c.apiEndpoint("payments", "verify"), v, &result); err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, fmt.Errorf("verify payment: %s", orderMessage(result, "payment verification failed"))
	}
	log.Printf("[cloudshare] verified payment for order %s", v.OrderID)
	return &result, nil
}

func orderMessage(o models.PaymentOrder, fallback string) string {
	if o.Message != "" {
		return o.Message
	}
	return fallback
}
