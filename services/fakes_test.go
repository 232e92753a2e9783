package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"coursegen/db"
	"coursegen/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeLLM struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
	prompts  []string
	entered  chan struct{}
	release  chan struct{}
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.response, f.err
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeResolver struct {
	mu        sync.Mutex
	images    map[string]string
	videos    map[string]string
	calls     int
	gotImages map[string]string
	gotVideos map[string]string
}

func (f *fakeResolver) Resolve(ctx context.Context, imageQueries, videoQueries map[string]string) (map[string]string, map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.gotImages, f.gotVideos = imageQueries, videoQueries

	images := map[string]string{}
	for k := range imageQueries {
		if url, ok := f.images[k]; ok {
			images[k] = url
		}
	}
	videos := map[string]string{}
	for k := range videoQueries {
		if url, ok := f.videos[k]; ok {
			videos[k] = url
		}
	}
	return images, videos
}

func (f *fakeResolver) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type memCourseStore struct {
	mu        sync.Mutex
	courses   map[primitive.ObjectID]models.Course
	insertErr error
}

func newMemCourseStore() *memCourseStore {
	return &memCourseStore{courses: map[primitive.ObjectID]models.Course{}}
}

func (m *memCourseStore) InsertCourse(ctx context.Context, course *models.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.courses[course.ID] = *course
	return nil
}

func (m *memCourseStore) FindCourse(ctx context.Context, id primitive.ObjectID) (*models.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	course, ok := m.courses[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &course, nil
}

func (m *memCourseStore) ListCourses(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Course{}
	for _, c := range m.courses {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memCourseStore) DeleteCourse(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.courses[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.courses, id)
	return nil
}

func (m *memCourseStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.courses)
}

type memSectionStore struct {
	mu         sync.Mutex
	sections   map[primitive.ObjectID]models.Section
	lostClaims int
}

func newMemSectionStore() *memSectionStore {
	return &memSectionStore{sections: map[primitive.ObjectID]models.Section{}}
}

func (m *memSectionStore) InsertSections(ctx context.Context, sections []models.Section) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range sections {
		m.sections[s.ID] = s
	}
	return nil
}

func (m *memSectionStore) FindSection(ctx context.Context, id primitive.ObjectID) (*models.Section, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sections[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &s, nil
}

func (m *memSectionStore) ClaimSection(ctx context.Context, id primitive.ObjectID, token string, now time.Time, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sections[id]
	if !ok || s.Finalized() {
		return false, nil
	}
	if s.Claim != nil && s.Claim.ExpiresAt.After(now) {
		m.lostClaims++
		return false, nil
	}
	s.Claim = &models.GenerationClaim{Token: token, ExpiresAt: now.Add(ttl)}
	m.sections[id] = s
	return true, nil
}

func (m *memSectionStore) ReleaseSection(ctx context.Context, id primitive.ObjectID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sections[id]
	if ok && s.Claim != nil && s.Claim.Token == token {
		s.Claim = nil
		m.sections[id] = s
	}
	return nil
}

func (m *memSectionStore) FinalizeSection(ctx context.Context, id primitive.ObjectID, token string, courseID primitive.ObjectID, content models.SectionContent) (*models.Section, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sections[id]
	if !ok || s.Finalized() || s.Claim == nil || s.Claim.Token != token {
		return nil, db.ErrNotClaimed
	}
	s.CourseID = &courseID
	s.Content = content
	s.Claim = nil
	m.sections[id] = s
	return &s, nil
}

func (m *memSectionStore) DeleteSections(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := m.sections[id]; ok {
			delete(m.sections, id)
			n++
		}
	}
	return n, nil
}

func (m *memSectionStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sections)
}

func (m *memSectionStore) lost() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lostClaims
}
