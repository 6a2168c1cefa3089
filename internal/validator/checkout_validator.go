package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"app/internal/usecase"
)

// 1商品あたりの注文上限
const maxQuantityPerItem = 100

// 1注文あたりの明細上限
const maxItemsPerOrder = 50

type checkoutValidator struct{}

// Usecaseは interface を依存注入
func NewCheckoutValidator() usecase.CheckoutValidator {
	return &checkoutValidator{}
}

// チェックアウト入力を検証。ここを通らないリクエストはロックもDBも触らない
func (v *checkoutValidator) ValidateCheckout(in usecase.PlaceOrderInput) error {
	if err := validateCustomer(in.Customer); err != nil {
		return err
	}
	if err := validateItems(in.Items); err != nil {
		return err
	}
	if err := validateShippingAddress(in.ShippingAddress); err != nil {
		return err
	}
	return nil
}

func validateCustomer(c usecase.CustomerInput) error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return errors.New("customer name required")
	}
	if len(name) > 255 {
		return errors.New("customer name too long")
	}

	email := strings.TrimSpace(c.Email)
	if email == "" {
		return errors.New("customer email required")
	}
	if len(email) > 255 || !isEmailLike(email) {
		return errors.New("invalid customer email")
	}

	if len(c.Phone) > 30 {
		return errors.New("customer phone too long")
	}
	return nil
}

func validateItems(items []usecase.CheckoutItemInput) error {
	if len(items) == 0 {
		return errors.New("items required")
	}
	if len(items) > maxItemsPerOrder {
		return fmt.Errorf("too many items (max %d)", maxItemsPerOrder)
	}

	for _, it := range items {
		if it.ProductID <= 0 {
			return errors.New("invalid product id")
		}
		if it.Quantity <= 0 || it.Quantity > maxQuantityPerItem {
			return fmt.Errorf("invalid quantity for product %d", it.ProductID)
		}
	}
	return nil
}

func validateShippingAddress(a usecase.ShippingAddressInput) error {
	if strings.TrimSpace(a.PostalCode) == "" || len(a.PostalCode) > 20 {
		return errors.New("invalid postal code")
	}
	if strings.TrimSpace(a.Prefecture) == "" || len(a.Prefecture) > 100 {
		return errors.New("invalid prefecture")
	}
	if strings.TrimSpace(a.City) == "" || len(a.City) > 255 {
		return errors.New("invalid city")
	}
	if strings.TrimSpace(a.Line1) == "" || len(a.Line1) > 255 {
		return errors.New("invalid address line1")
	}
	if len(a.Line2) > 255 {
		return errors.New("address line2 too long")
	}
	if strings.TrimSpace(a.Name) == "" || len(a.Name) > 255 {
		return errors.New("recipient name required")
	}
	if len(a.Phone) > 30 {
		return errors.New("recipient phone too long")
	}
	return nil
}

// ざっくりしたemail形式チェック（厳密なRFC準拠はしない）
var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func isEmailLike(s string) bool {
	return emailRe.MatchString(s)
}
