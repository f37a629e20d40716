// Package models содержит доменные структуры сервиса рейтинга ставок:
// пользователя, соревнование, агрегаты по странам и расчёт ставки.
package models

import "time"

// User представляет зарегистрированного игрока.
//
// Score и Rank здесь не хранятся: они вычисляются движком рейтинга
// на каждое чтение из WonBets/LostBets/TotalBets.
type User struct {
	ID            string    // UUID пользователя
	Seq           int64     // Порядковый номер регистрации, используется при равенстве очков
	Username      string    // Уникальное имя пользователя
	Email         string    // Электронная почта (уникальная)
	PasswordHash  string    // bcrypt-хэш пароля
	Country       string    // Код страны ISO 3166-1 alpha-2
	FullName      string    // Полное имя
	TotalBets     int64     // Всего рассчитанных ставок
	WonBets       int64     // Выигранные ставки
	LostBets      int64     // Проигранные ставки
	TotalAmount   float64   // Сумма поставленных средств
	TotalWinnings float64   // Сумма выплат
	Disabled      bool      // Мягкое отключение учётной записи
	CreatedAt     time.Time // Дата регистрации
}

// RankingEntry строка таблицы лидеров.
type RankingEntry struct {
	Rank      int     `json:"rank"`
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	FullName  string  `json:"full_name"`
	Country   string  `json:"country"`
	WonBets   int64   `json:"won_bets"`
	LostBets  int64   `json:"lost_bets"`
	TotalBets int64   `json:"total_bets"`
	Score     float64 `json:"score"`
}

// Version версия учётных записей. Epoch уникален для экземпляра хранилища
// (новая база или новое хранилище в памяти), Seq растёт при каждом изменении.
type Version struct {
	Epoch string
	Seq   int64
}

// Snapshot согласованный срез всех пользователей на один момент времени.
// Version используется как ключ кэша.
type Snapshot struct {
	Version Version
	Users   []User
}

// Profile публичное представление пользователя в ответах API.
// Rank равен 0, если место не вычислялось.
type Profile struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Country       string    `json:"country"`
	FullName      string    `json:"full_name"`
	TotalBets     int64     `json:"total_bets"`
	WonBets       int64     `json:"won_bets"`
	LostBets      int64     `json:"lost_bets"`
	TotalAmount   float64   `json:"total_amount"`
	TotalWinnings float64   `json:"total_winnings"`
	Score         float64   `json:"score"`
	Rank          int       `json:"rank,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewProfile строит Profile из пользователя и вычисленных очков и места.
func NewProfile(u *User, score float64, rank int) Profile {
	return Profile{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		Country:       u.Country,
		FullName:      u.FullName,
		TotalBets:     u.TotalBets,
		WonBets:       u.WonBets,
		LostBets:      u.LostBets,
		TotalAmount:   u.TotalAmount,
		TotalWinnings: u.TotalWinnings,
		Score:         score,
		Rank:          rank,
		CreatedAt:     u.CreatedAt,
	}
}
