package store

import (
	"taskdeck.app/botlink/core/db"
)

type Stores struct {
	q db.Querier
}

func NewStores(q db.Querier) *Stores {
	return &Stores{q: q}
}

func (s *Stores) Integrations() IntegrationStore {
	return newIntegrationStore(s.q)
}
