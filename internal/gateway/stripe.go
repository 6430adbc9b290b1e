// Package gateway реализует клиент платёжного шлюза Stripe.
// Наружу отдаются четыре операции: создание продукта, создание цены,
// создание сессии оплаты и получение статуса сессии. Формат обмена
// принадлежит Stripe и здесь не переопределяется.
package gateway

import (
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	session "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/price"
	"github.com/stripe/stripe-go/v82/product"
)

// CheckoutSession результат создания сессии оплаты.
type CheckoutSession struct {
	SessionID  string
	PaymentURL string
}

// StripeClient клиент платёжного шлюза Stripe.
type StripeClient struct{}

// NewStripeClient создаёт клиент Stripe и устанавливает секретный ключ.
func NewStripeClient(secretKey string) *StripeClient {
	stripe.Key = secretKey
	return &StripeClient{}
}

// CreateProduct создаёт продукт в Stripe и возвращает его идентификатор.
func (c *StripeClient) CreateProduct(name, description string) (string, error) {
	const op = "gateway.CreateProduct"
	params := &stripe.ProductParams{
		Name: stripe.String(name),
	}
	if description != "" {
		params.Description = stripe.String(description)
	}
	p, err := product.New(params)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return p.ID, nil
}

// CreatePrice создаёт цену продукта в Stripe и возвращает её идентификатор.
// Сумма передаётся в минорных единицах валюты (копейках).
func (c *StripeClient) CreatePrice(productID string, minorAmount int64, currency string) (string, error) {
	const op = "gateway.CreatePrice"
	params := &stripe.PriceParams{
		Product:    stripe.String(productID),
		UnitAmount: stripe.Int64(minorAmount),
		Currency:   stripe.String(currency),
	}
	p, err := price.New(params)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return p.ID, nil
}

// CreateCheckoutSession создаёт сессию оплаты и возвращает её идентификатор
// и ссылку для перехода к оплате.
func (c *StripeClient) CreateCheckoutSession(priceID, successURL, cancelURL string) (*CheckoutSession, error) {
	const op = "gateway.CreateCheckoutSession"
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}
	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &CheckoutSession{SessionID: s.ID, PaymentURL: s.URL}, nil
}

// GetSessionStatus возвращает текущий статус сессии оплаты.
func (c *StripeClient) GetSessionStatus(sessionID string) (string, error) {
	const op = "gateway.GetSessionStatus"
	s, err := session.Get(sessionID, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(s.Status), nil
}
