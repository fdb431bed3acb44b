// Package memory is the in-process registry store used in development and tests.
//
// Records are held by value and copied on every read and write, so callers
// can mutate what they get without touching the store. Tx serializes all
// transactions behind one lock and stages their writes on a snapshot that is
// swapped in only when the transaction function succeeds.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"trialreg/internal/registry/models"
	"trialreg/internal/registry/service"
	"trialreg/internal/registry/store"
	id "trialreg/pkg/domain"
)

type state struct {
	volunteers     map[id.VolunteerID]models.Volunteer
	studies        map[id.StudyID]models.Study
	participations map[id.ParticipationID]models.Participation
	sequences      map[int]int64
}

func newState() *state {
	return &state{
		volunteers:     make(map[id.VolunteerID]models.Volunteer),
		studies:        make(map[id.StudyID]models.Study),
		participations: make(map[id.ParticipationID]models.Participation),
		sequences:      make(map[int]int64),
	}
}

func (s *state) clone() *state {
	c := &state{
		volunteers:     make(map[id.VolunteerID]models.Volunteer, len(s.volunteers)),
		studies:        make(map[id.StudyID]models.Study, len(s.studies)),
		participations: make(map[id.ParticipationID]models.Participation, len(s.participations)),
		sequences:      make(map[int]int64, len(s.sequences)),
	}
	for k, v := range s.volunteers {
		c.volunteers[k] = v
	}
	for k, v := range s.studies {
		c.studies[k] = v
	}
	for k, v := range s.participations {
		c.participations[k] = v
	}
	for k, v := range s.sequences {
		c.sequences[k] = v
	}
	return c
}

// Store is a goroutine-safe registry store.
type Store struct {
	mu sync.RWMutex
	st *state
}

var _ service.Store = (*Store)(nil)

func New() *Store {
	return &Store{st: newState()}
}

// -----------------------------------------------------------------------------
// Volunteers
// -----------------------------------------------------------------------------

func (s *Store) CreateVolunteer(_ context.Context, v *models.Volunteer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.st.volunteers {
		if existing.Code == v.Code {
			return store.ErrDuplicateCode
		}
		if v.CURP != "" && existing.CURP == v.CURP {
			return store.ErrDuplicateCURP
		}
	}
	s.st.volunteers[v.ID] = *v
	return nil
}

func (s *Store) UpdateVolunteer(_ context.Context, v *models.Volunteer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.volunteers[v.ID]; !ok {
		return store.ErrNotFound
	}
	for otherID, existing := range s.st.volunteers {
		if otherID != v.ID && v.CURP != "" && existing.CURP == v.CURP {
			return store.ErrDuplicateCURP
		}
	}
	s.st.volunteers[v.ID] = *v
	return nil
}

func (s *Store) FindVolunteer(_ context.Context, volunteerID id.VolunteerID) (*models.Volunteer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.st.volunteers[volunteerID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &v, nil
}

// LockVolunteer is FindVolunteer; isolation comes from Tx.
func (s *Store) LockVolunteer(ctx context.Context, volunteerID id.VolunteerID) (*models.Volunteer, error) {
	return s.FindVolunteer(ctx, volunteerID)
}

// ListVolunteers returns matches newest first.
func (s *Store) ListVolunteers(_ context.Context, filter models.VolunteerFilter) ([]*models.Volunteer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Volunteer, 0, len(s.st.volunteers))
	for _, v := range s.st.volunteers {
		if filter.Matches(&v) {
			cp := v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Code > out[j].Code
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) NextCodeSequence(_ context.Context, year int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.sequences[year]++
	return s.st.sequences[year], nil
}

// -----------------------------------------------------------------------------
// Studies
// -----------------------------------------------------------------------------

func (s *Store) CreateStudy(_ context.Context, study *models.Study) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTaken(study.ID, study.Name) {
		return store.ErrDuplicateStudyName
	}
	s.st.studies[study.ID] = *study
	return nil
}

func (s *Store) UpdateStudy(_ context.Context, study *models.Study) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.studies[study.ID]; !ok {
		return store.ErrNotFound
	}
	if s.nameTaken(study.ID, study.Name) {
		return store.ErrDuplicateStudyName
	}
	s.st.studies[study.ID] = *study
	return nil
}

func (s *Store) nameTaken(self id.StudyID, name string) bool {
	for otherID, existing := range s.st.studies {
		if otherID != self && strings.EqualFold(existing.Name, name) {
			return true
		}
	}
	return false
}

func (s *Store) FindStudy(_ context.Context, studyID id.StudyID) (*models.Study, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	study, ok := s.st.studies[studyID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &study, nil
}

func (s *Store) LockStudy(ctx context.Context, studyID id.StudyID) (*models.Study, error) {
	return s.FindStudy(ctx, studyID)
}

// ListStudies returns studies ordered by name.
func (s *Store) ListStudies(_ context.Context, activeOnly bool) ([]*models.Study, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Study, 0, len(s.st.studies))
	for _, study := range s.st.studies {
		if activeOnly && !study.IsActive {
			continue
		}
		cp := study
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

// -----------------------------------------------------------------------------
// Participations
// -----------------------------------------------------------------------------

// CreateParticipation enforces the same constraints as the postgres indexes.
func (s *Store) CreateParticipation(_ context.Context, p *models.Participation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.st.participations {
		if existing.VolunteerID != p.VolunteerID {
			continue
		}
		if existing.StudyID == p.StudyID {
			return store.ErrDuplicateEnrollment
		}
		if existing.IsActive() && p.IsActive() {
			return store.ErrActiveParticipation
		}
	}
	s.st.participations[p.ID] = *p
	return nil
}

func (s *Store) UpdateParticipation(_ context.Context, p *models.Participation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.participations[p.ID]; !ok {
		return store.ErrNotFound
	}
	s.st.participations[p.ID] = *p
	return nil
}

func (s *Store) FindParticipation(_ context.Context, participationID id.ParticipationID) (*models.Participation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.st.participations[participationID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

// ListParticipations returns a volunteer's participations, oldest admission first.
func (s *Store) ListParticipations(_ context.Context, volunteerID id.VolunteerID) ([]*models.Participation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.participationsWhere(func(p *models.Participation) bool { return p.VolunteerID == volunteerID }), nil
}

func (s *Store) ListParticipationsFor(_ context.Context, volunteerIDs []id.VolunteerID) (map[id.VolunteerID][]*models.Participation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := make(map[id.VolunteerID]struct{}, len(volunteerIDs))
	for _, v := range volunteerIDs {
		want[v] = struct{}{}
	}
	out := make(map[id.VolunteerID][]*models.Participation, len(volunteerIDs))
	for _, p := range s.participationsWhere(func(p *models.Participation) bool {
		_, ok := want[p.VolunteerID]
		return ok
	}) {
		out[p.VolunteerID] = append(out[p.VolunteerID], p)
	}
	return out, nil
}

func (s *Store) ListActiveParticipationsByStudy(_ context.Context, studyID id.StudyID) ([]*models.Participation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.participationsWhere(func(p *models.Participation) bool {
		return p.StudyID == studyID && p.IsActive()
	}), nil
}

func (s *Store) participationsWhere(keep func(*models.Participation) bool) []*models.Participation {
	out := make([]*models.Participation, 0)
	for _, p := range s.st.participations {
		if keep(&p) {
			cp := p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AdmissionDate.Equal(out[j].AdmissionDate) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].AdmissionDate.Before(out[j].AdmissionDate)
	})
	return out
}
