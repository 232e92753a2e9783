package services

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"coursegen/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const sectionResponse = `{
  "text": "__h1_1__ Raft keeps replicas in sync __image2__ __image10__ __image1__ __ytvid1__ __mcq1__",
  "image_queries": {"1": "raft log", "2": "leader election", "10": "replication"},
  "ytvid_queries": {"1": "raft visualization"},
  "headings": {"h1": {"1": "Consensus"}, "h2": {"1": "Leader election"}},
  "mcqs": [
    {"question": "Who accepts client writes?", "options": ["Leader", "Follower"], "answer": "Leader"},
    {"question": "  ", "options": ["x"], "answer": "x"}
  ]
}`

type sectionFixture struct {
	svc      *SectionService
	llm      *fakeLLM
	resolver *fakeResolver
	courses  *memCourseStore
	sections *memSectionStore
	course   models.Course
	stub     models.Section
}

func newSectionFixture(t *testing.T, llm *fakeLLM) *sectionFixture {
	t.Helper()
	f := &sectionFixture{
		llm: llm,
		resolver: &fakeResolver{
			images: map[string]string{"1": "https://img/1.png", "2": "https://img/2.png", "10": "https://img/10.png"},
			videos: map[string]string{"1": "https://www.youtube.com/watch?v=xyz"},
		},
		courses:  newMemCourseStore(),
		sections: newMemSectionStore(),
	}
	f.stub = models.Section{ID: primitive.NewObjectID(), Title: "Consensus", Content: models.EmptySectionContent()}
	f.course = models.Course{ID: primitive.NewObjectID(), Title: "Distributed Systems", Sections: []primitive.ObjectID{f.stub.ID}}

	ctx := context.Background()
	if err := f.sections.InsertSections(ctx, []models.Section{f.stub}); err != nil {
		t.Fatal(err)
	}
	if err := f.courses.InsertCourse(ctx, &f.course); err != nil {
		t.Fatal(err)
	}
	f.svc = NewSectionService(llm, f.resolver, f.courses, f.sections, SectionServiceConfig{
		LLMTimeout:   time.Second,
		ClaimTTL:     time.Minute,
		PollInterval: 5 * time.Millisecond,
	}, nil)
	return f
}

func TestGenerateSection(t *testing.T) {
	f := newSectionFixture(t, &fakeLLM{response: sectionResponse})

	section, err := f.svc.GenerateSection(context.Background(), f.stub.ID, f.course.ID)
	if err != nil {
		t.Fatalf("GenerateSection: %v", err)
	}

	if section.CourseID == nil || *section.CourseID != f.course.ID {
		t.Fatalf("course id = %v", section.CourseID)
	}
	if section.Claim != nil {
		t.Errorf("claim should be cleared on finalize")
	}
	if section.Content.Text != "__h1_1__ Raft keeps replicas in sync __image2__ __image10__ __image1__ __ytvid1__ __mcq1__" {
		t.Errorf("placeholders must be kept verbatim, got %q", section.Content.Text)
	}
	wantImages := []string{"https://img/1.png", "https://img/2.png", "https://img/10.png"}
	if !reflect.DeepEqual(section.Content.ImageLinks, wantImages) {
		t.Errorf("image links = %v", section.Content.ImageLinks)
	}
	if !reflect.DeepEqual(section.Content.YoutubeLinks, []string{"https://www.youtube.com/watch?v=xyz"}) {
		t.Errorf("youtube links = %v", section.Content.YoutubeLinks)
	}
	if len(section.Content.MCQs) != 1 || section.Content.MCQs[0].Answer != "Leader" {
		t.Errorf("mcqs = %+v", section.Content.MCQs)
	}
	if section.Content.Headers.H1["1"] != "Consensus" || section.Content.Headers.H2["1"] != "Leader election" {
		t.Errorf("headers = %+v", section.Content.Headers)
	}
}

func TestGenerateSectionAlreadyFinalizedIsARead(t *testing.T) {
	f := newSectionFixture(t, &fakeLLM{response: sectionResponse})
	ctx := context.Background()

	first, err := f.svc.GenerateSection(ctx, f.stub.ID, f.course.ID)
	if err != nil {
		t.Fatalf("first GenerateSection: %v", err)
	}
	second, err := f.svc.GenerateSection(ctx, f.stub.ID, f.course.ID)
	if err != nil {
		t.Fatalf("second GenerateSection: %v", err)
	}

	if f.llm.callCount() != 1 || f.resolver.callCount() != 1 {
		t.Errorf("llm calls = %d, resolver calls = %d; want 1 each", f.llm.callCount(), f.resolver.callCount())
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("re-invocation changed the record\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestGenerateSectionNotFound(t *testing.T) {
	f := newSectionFixture(t, &fakeLLM{response: sectionResponse})
	ctx := context.Background()

	other := models.Section{ID: primitive.NewObjectID(), Title: "Elsewhere", Content: models.EmptySectionContent()}
	foreignCourse := primitive.NewObjectID()
	foreign := models.Section{
		ID:       primitive.NewObjectID(),
		Title:    "Someone else's",
		CourseID: &foreignCourse,
		Content:  models.SectionContent{Text: "private"},
	}
	if err := f.sections.InsertSections(ctx, []models.Section{other, foreign}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		sectionID primitive.ObjectID
		courseID  primitive.ObjectID
	}{
		{"missing section", primitive.NewObjectID(), f.course.ID},
		{"missing course", f.stub.ID, primitive.NewObjectID()},
		{"section from another course", other.ID, f.course.ID},
		{"generated section from another course", foreign.ID, f.course.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.GenerateSection(ctx, tt.sectionID, tt.courseID)
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("err = %v, want ErrNotFound", err)
			}
		})
	}
	if f.llm.callCount() != 0 {
		t.Errorf("llm called %d times on not-found paths", f.llm.callCount())
	}
}

func TestGenerateSectionFailureLeavesStubRetryable(t *testing.T) {
	llm := &fakeLLM{response: "I'd rather not."}
	f := newSectionFixture(t, llm)
	ctx := context.Background()

	if _, err := f.svc.GenerateSection(ctx, f.stub.ID, f.course.ID); !errors.Is(err, ErrUnparseableResponse) {
		t.Fatalf("err = %v, want ErrUnparseableResponse", err)
	}
	stored, _ := f.sections.FindSection(ctx, f.stub.ID)
	if stored.Finalized() || stored.Claim != nil {
		t.Fatalf("stub not left retryable: %+v", stored)
	}

	llm.mu.Lock()
	llm.response = sectionResponse
	llm.mu.Unlock()
	section, err := f.svc.GenerateSection(ctx, f.stub.ID, f.course.ID)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !section.Finalized() {
		t.Errorf("retry did not finalize the section")
	}
}

func TestGenerateSectionConcurrentCallersShareOneGeneration(t *testing.T) {
	llm := &fakeLLM{
		response: sectionResponse,
		entered:  make(chan struct{}, 2),
		release:  make(chan struct{}),
	}
	f := newSectionFixture(t, llm)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]*models.Section, 2)
	errs := make([]error, 2)
	run := func(i int) {
		defer wg.Done()
		results[i], errs[i] = f.svc.GenerateSection(ctx, f.stub.ID, f.course.ID)
	}

	wg.Add(1)
	go run(0)
	<-llm.entered

	wg.Add(1)
	go run(1)
	waitFor(t, func() bool { return f.sections.lost() == 1 })
	close(llm.release)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d: %v", i, err)
		}
	}
	if llm.callCount() != 1 || f.resolver.callCount() != 1 {
		t.Errorf("llm calls = %d, resolver calls = %d; want 1 each", llm.callCount(), f.resolver.callCount())
	}
	if !reflect.DeepEqual(results[0].Content, results[1].Content) {
		t.Errorf("callers observed different content")
	}
}

func TestGenerateSectionWaiterSeesAbandonedClaim(t *testing.T) {
	llm := &fakeLLM{
		err:     errors.New("upstream 503"),
		entered: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	f := newSectionFixture(t, llm)
	ctx := context.Background()

	errs := make(chan error, 2)
	go func() {
		_, err := f.svc.GenerateSection(ctx, f.stub.ID, f.course.ID)
		errs <- err
	}()
	<-llm.entered
	go func() {
		_, err := f.svc.GenerateSection(ctx, f.stub.ID, f.course.ID)
		errs <- err
	}()
	waitFor(t, func() bool { return f.sections.lost() == 1 })
	close(llm.release)

	var gotUpstream, gotFailed bool
	for i := 0; i < 2; i++ {
		err := <-errs
		switch {
		case errors.Is(err, ErrUpstreamUnavailable):
			gotUpstream = true
		case errors.Is(err, ErrGenerationFailed):
			gotFailed = true
		default:
			t.Errorf("unexpected error %v", err)
		}
	}
	if !gotUpstream || !gotFailed {
		t.Errorf("upstream=%v failed=%v, want both", gotUpstream, gotFailed)
	}
}

func TestDecodeSectionDraftAcceptsHeadersKey(t *testing.T) {
	draft := DecodeSectionDraft(map[string]any{
		"text":    "body",
		"headers": map[string]any{"h1": []any{"Intro"}},
	})
	if draft.Headings.H1["1"] != "Intro" {
		t.Errorf("h1 = %v", draft.Headings.H1)
	}
	if draft.Headings.H2 == nil || draft.MCQs == nil {
		t.Errorf("empty collections should be non-nil")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}
