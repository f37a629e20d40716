package models

import "time"

// Competition описывает соревнование, к которому могут присоединяться игроки.
type Competition struct {
	ID           string     `json:"id" yaml:"id"`
	Name         string     `json:"name" yaml:"name"`
	Description  string     `json:"description" yaml:"description"`
	Region       string     `json:"region" yaml:"region"`
	PrizePool    float64    `json:"prize_pool" yaml:"prize_pool"`
	EndsAt       *time.Time `json:"ends_at,omitempty" yaml:"ends_at"` // nil для бессрочного соревнования
	MembersCount int64      `json:"members_count" yaml:"-"`
	Closed       bool       `json:"closed" yaml:"-"` // вычисляется на момент чтения
	CreatedAt    time.Time  `json:"-" yaml:"-"`
}

// ClosedAt сообщает, закрыто ли соревнование на момент now.
func (c *Competition) ClosedAt(now time.Time) bool {
	return c.EndsAt != nil && !now.Before(*c.EndsAt)
}

// CompetitionClosed событие о завершении соревнования.
type CompetitionClosed struct {
	CompetitionID string    `json:"competition_id"`
	Name          string    `json:"name"`
	MembersCount  int64     `json:"members_count"`
	PrizePool     float64   `json:"prize_pool"`
	ClosedAt      time.Time `json:"closed_at"`
}

// CompetitionJoined событие о вступлении игрока в соревнование.
type CompetitionJoined struct {
	CompetitionID string    `json:"competition_id"`
	UserID        string    `json:"user_id"`
	JoinedAt      time.Time `json:"joined_at"`
}
