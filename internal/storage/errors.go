// Package storage объединяет ошибки, общие для всех реализаций хранилища
// (PostgreSQL и in-memory). Сервисы сравнивают их через errors.Is.
package storage

import "errors"

var (
	// ErrUserExists имя пользователя или email уже заняты.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrCompetitionNotFound соревнование не найдено.
	ErrCompetitionNotFound = errors.New("competition not found")
	// ErrAlreadyMember пользователь уже состоит в соревновании.
	ErrAlreadyMember = errors.New("user is already a member")
	// ErrCompetitionClosed соревнование больше не принимает участников.
	ErrCompetitionClosed = errors.New("competition is closed")
	// ErrUnavailable хранилище временно недоступно.
	ErrUnavailable = errors.New("storage unavailable")
)
