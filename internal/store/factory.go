package store

import (
	"basegraph.app/standup/core/db"
)

type Stores struct {
	q db.Querier
}

func NewStores(q db.Querier) *Stores {
	return &Stores{q: q}
}

func (s *Stores) Users() UserStore {
	return newUserStore(s.q)
}

func (s *Stores) Organizations() OrganizationStore {
	return newOrganizationStore(s.q)
}

func (s *Stores) Memberships() MembershipStore {
	return newMembershipStore(s.q)
}

func (s *Stores) ActivityLogs() ActivityLogStore {
	return newActivityLogStore(s.q)
}

func (s *Stores) Auth() AuthRepository {
	return NewAuthRepository(s.Users(), s.Organizations(), s.Memberships())
}
