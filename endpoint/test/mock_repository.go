package test

import (
	"context"
	"errors"
	"sync"

	"inviqa/push-relay/endpoint"
)

type MockRepository struct {
	sync.RWMutex
	endpoints   map[string]*endpoint.Endpoint
	groups      map[string]*endpoint.Group
	members     map[string][]*endpoint.Endpoint
	returnError bool
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		endpoints: map[string]*endpoint.Endpoint{},
		groups:    map[string]*endpoint.Group{},
		members:   map[string][]*endpoint.Endpoint{},
	}
}

func (mr *MockRepository) AddEndpoint(ep *endpoint.Endpoint) {
	mr.Lock()
	defer mr.Unlock()
	mr.endpoints[ep.Id] = ep
}

// AddGroup registers a group and its members. Members are also added as
// standalone endpoints.
func (mr *MockRepository) AddGroup(g *endpoint.Group, members ...*endpoint.Endpoint) {
	mr.Lock()
	defer mr.Unlock()
	mr.groups[g.Id] = g
	mr.members[g.Id] = members
	for _, ep := range members {
		mr.endpoints[ep.Id] = ep
	}
}

func (mr *MockRepository) ReturnErrors() {
	mr.Lock()
	defer mr.Unlock()
	mr.returnError = true
}

func (mr *MockRepository) GetEndpoint(_ context.Context, id string) (*endpoint.Endpoint, error) {
	mr.RLock()
	defer mr.RUnlock()

	if mr.returnError {
		return nil, errors.New("oops")
	}

	ep, ok := mr.endpoints[id]
	if !ok || ep.Channel == nil {
		return nil, endpoint.ErrNotFound
	}

	return ep, nil
}

func (mr *MockRepository) GetGroup(_ context.Context, id string) (*endpoint.Group, error) {
	mr.RLock()
	defer mr.RUnlock()

	if mr.returnError {
		return nil, errors.New("oops")
	}

	g, ok := mr.groups[id]
	if !ok {
		return nil, endpoint.ErrNotFound
	}

	return g, nil
}

func (mr *MockRepository) GetGroupEndpoints(_ context.Context, groupId string) ([]*endpoint.Endpoint, error) {
	mr.RLock()
	defer mr.RUnlock()

	if mr.returnError {
		return nil, errors.New("oops")
	}

	return mr.members[groupId], nil
}

func (mr *MockRepository) CountEndpoints() (uint, error) {
	mr.RLock()
	defer mr.RUnlock()

	return uint(len(mr.endpoints)), nil
}

func (mr *MockRepository) CountActiveEndpoints() (uint, error) {
	mr.RLock()
	defer mr.RUnlock()

	var n uint
	for _, ep := range mr.endpoints {
		if ep.Status.Active() {
			n++
		}
	}

	return n, nil
}
