package domain

import "errors"

var (
	ErrPlayerNotFound  = errors.New("player not found")
	ErrPlayerExists    = errors.New("player already tracked")
	ErrInvalidPlayerID = errors.New("invalid player id")
)
