package models

// CountryStat агрегированные показатели игроков одной страны.
// Сущность не хранится, а строится из среза пользователей на каждый запрос.
type CountryStat struct {
	Country       string  `json:"_id"`
	TotalUsers    int64   `json:"total_users"`
	TotalBets     int64   `json:"total_bets"`
	TotalAmount   float64 `json:"total_amount"`
	TotalWinnings float64 `json:"total_winnings"`
}
