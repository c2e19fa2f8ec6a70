package policy

import (
	"context"
	"sync"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/models"
)

type fakeStore struct {
	mu       sync.Mutex
	profiles map[string]*models.Profile
	links    map[string]map[string]bool

	loginLookups int
	loginErr     error
	parentErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles: make(map[string]*models.Profile),
		links:    make(map[string]map[string]bool),
	}
}

func (s *fakeStore) addAdult(id, login string) {
	s.profiles[id] = &models.Profile{ID: id, LoginID: login, DisplayName: id}
}

func (s *fakeStore) addChild(id string, consent bool) {
	s.profiles[id] = &models.Profile{ID: id, DisplayName: id, IsChild: true, ConsentGiven: consent}
}

func (s *fakeStore) link(parentID, childID string, active bool) {
	if s.links[parentID] == nil {
		s.links[parentID] = make(map[string]bool)
	}
	s.links[parentID][childID] = active
}

func (s *fakeStore) ProfileByLogin(_ context.Context, loginID string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginLookups++
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	for _, p := range s.profiles {
		if p.LoginID == loginID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) ProfileByID(_ context.Context, id string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) IsActiveParentOf(_ context.Context, parentID, childID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.parentErr != nil {
		return false, s.parentErr
	}
	return s.links[parentID][childID], nil
}

func (s *fakeStore) ActiveChildIDs(_ context.Context, parentID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for child, active := range s.links[parentID] {
		if active {
			ids = append(ids, child)
		}
	}
	return ids, nil
}
