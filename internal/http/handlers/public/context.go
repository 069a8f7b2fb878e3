package public

import (
	"strings"

	"github.com/studiocard/internal/models"

	"github.com/shopspring/decimal"
)

func parseMoney(raw string) (models.Money, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return models.Money{}, err
	}
	return models.NewMoneyFromDecimal(amount), nil
}
