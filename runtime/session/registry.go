package session

import (
	"github.com/viant/txshield/service/dao"
	"github.com/viant/txshield/service/dao/criteria"
	"github.com/viant/txshield/service/dao/store"
)

// Registry holds live sessions by ID. List accepts State parameters, e.g.
// dao.NewParameter(criteria.ParamState, string(StatePendingReview)).
type Registry = dao.Service[string, Session]

// NewRegistry returns an in-memory session registry.
func NewRegistry() Registry {
	return store.NewMemoryStore[string, Session](
		func(s *Session) string { return s.ID },
		store.WithFilter[string, Session](func(s *Session, parameters []*dao.Parameter) bool {
			return criteria.FilterByState(string(s.State()), parameters)
		}),
	)
}
