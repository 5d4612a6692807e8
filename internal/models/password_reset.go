package models

import "time"

// ResetTicket — ожидающий сброс пароля пользователя.
// Token заполнен только в момент выдачи: в хранилище лежит лишь его хеш.
type ResetTicket struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"-"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}
