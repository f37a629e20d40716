package models

import "time"

// Settlement результат расчёта одной ставки, поступающий от внешнего сервиса расчётов.
// BetID служит ключом идемпотентности: повторная доставка не меняет счётчики.
type Settlement struct {
	BetID     string    `json:"bet_id" validate:"required"`
	UserID    string    `json:"user_id" validate:"required,uuid"`
	Won       bool      `json:"won"`
	Stake     float64   `json:"stake" validate:"gte=0"`
	Payout    float64   `json:"payout" validate:"gte=0"`
	SettledAt time.Time `json:"settled_at"`
}

// AccountEvent сообщение из очереди учётных записей.
type AccountEvent struct {
	Type       string      `json:"type" validate:"required,oneof=settlement disable"`
	UserID     string      `json:"user_id,omitempty"`
	Settlement *Settlement `json:"settlement,omitempty"`
}

const (
	// AccountEventSettlement рассчитанная ставка.
	AccountEventSettlement = "settlement"
	// AccountEventDisable мягкое отключение учётной записи.
	AccountEventDisable = "disable"
)
