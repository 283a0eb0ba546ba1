package service

import (
	"basegraph.app/standup/internal/store"
)

type Services struct {
	stores *store.Stores
}

func NewServices(stores *store.Stores) *Services {
	return &Services{stores: stores}
}

func (s *Services) Auth() AuthService {
	return NewAuthService(s.stores.Auth())
}
