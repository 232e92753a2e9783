package services

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"coursegen/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const courseResponse = "Here is your course:\n```json\n" + `{
  "title": "Distributed Systems",
  "description": "Start with the big picture __image1__, then the details __image2__ and a walkthrough __ytvid1__.",
  "image_queries": {"1": "distributed system diagram", "2": "consensus diagram"},
  "ytvid_queries": {"1": "raft explained"},
  "sections": ["Foundations", {"title": "Consensus"}, "  "],
}` + "\n```\nLet me know if you need changes."

func newCourseFixture(llm *fakeLLM, resolver *fakeResolver) (*CourseService, *memCourseStore, *memSectionStore) {
	courses := newMemCourseStore()
	sections := newMemSectionStore()
	return NewCourseService(llm, resolver, courses, sections, time.Second, nil), courses, sections
}

func TestGenerateCourse(t *testing.T) {
	llm := &fakeLLM{response: courseResponse}
	resolver := &fakeResolver{
		images: map[string]string{"1": "https://img/1.png"},
		videos: map[string]string{"1": "https://www.youtube.com/watch?v=abc"},
	}
	svc, courses, sections := newCourseFixture(llm, resolver)
	userID := primitive.NewObjectID()

	course, err := svc.GenerateCourse(context.Background(), userID, "distributed systems")
	if err != nil {
		t.Fatalf("GenerateCourse: %v", err)
	}

	if course.Title != "Distributed Systems" {
		t.Errorf("title = %q", course.Title)
	}
	if course.UserID != userID {
		t.Errorf("user id not set")
	}
	if !reflect.DeepEqual(course.SectionTitles, []string{"Foundations", "Consensus"}) {
		t.Errorf("section titles = %v", course.SectionTitles)
	}
	if len(course.Sections) != len(course.SectionTitles) {
		t.Fatalf("sections/titles misaligned: %d vs %d", len(course.Sections), len(course.SectionTitles))
	}
	if !reflect.DeepEqual(resolver.gotImages, map[string]string{"1": "distributed system diagram", "2": "consensus diagram"}) {
		t.Errorf("image queries = %v", resolver.gotImages)
	}

	for i, id := range course.Sections {
		stub, err := sections.FindSection(context.Background(), id)
		if err != nil {
			t.Fatalf("stub %d missing: %v", i, err)
		}
		if stub.Finalized() {
			t.Errorf("stub %d should not be finalized", i)
		}
		if stub.Order != i || stub.Title != course.SectionTitles[i] {
			t.Errorf("stub %d = order %d title %q", i, stub.Order, stub.Title)
		}
	}

	var desc models.CourseDescription
	if err := json.Unmarshal([]byte(course.Description), &desc); err != nil {
		t.Fatalf("description is not JSON: %v", err)
	}
	wantText := "Start with the big picture https://img/1.png then the details and a walkthrough https://www.youtube.com/watch?v=abc"
	if desc.Text != wantText {
		t.Errorf("description text\n got: %q\nwant: %q", desc.Text, wantText)
	}
	if !reflect.DeepEqual(desc.ImageLinks, map[string]string{"1": "https://img/1.png"}) {
		t.Errorf("image links = %v", desc.ImageLinks)
	}

	if courses.count() != 1 {
		t.Errorf("expected 1 stored course, got %d", courses.count())
	}
	if !strings.Contains(llm.prompts[0], "distributed systems") {
		t.Errorf("prompt does not carry the topic")
	}
}

func TestGenerateCourseFailuresPersistNothing(t *testing.T) {
	tests := []struct {
		name    string
		llm     *fakeLLM
		wantErr error
	}{
		{"upstream error", &fakeLLM{err: errors.New("connection refused")}, ErrUpstreamUnavailable},
		{"unparseable output", &fakeLLM{response: "Sorry, I cannot help with that."}, ErrUnparseableResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := &fakeResolver{}
			svc, courses, sections := newCourseFixture(tt.llm, resolver)

			_, err := svc.GenerateCourse(context.Background(), primitive.NewObjectID(), "topic")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if courses.count() != 0 || sections.count() != 0 {
				t.Errorf("persisted %d courses and %d sections on failure", courses.count(), sections.count())
			}
			if resolver.callCount() != 0 {
				t.Errorf("media resolved on a failed generation")
			}
		})
	}
}

func TestGenerateCourseUnparseableKeepsRaw(t *testing.T) {
	raw := "not json at all"
	svc, _, _ := newCourseFixture(&fakeLLM{response: raw}, &fakeResolver{})

	_, err := svc.GenerateCourse(context.Background(), primitive.NewObjectID(), "topic")
	var perr *UnparseableResponseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *UnparseableResponseError, got %v", err)
	}
	if perr.Raw != raw {
		t.Errorf("raw = %q", perr.Raw)
	}
}

func TestGenerateCourseRollsBackStubsWhenCourseInsertFails(t *testing.T) {
	svc, courses, sections := newCourseFixture(&fakeLLM{response: courseResponse}, &fakeResolver{})
	courses.insertErr = errors.New("write concern failed")

	if _, err := svc.GenerateCourse(context.Background(), primitive.NewObjectID(), "topic"); err == nil {
		t.Fatal("expected error")
	}
	if sections.count() != 0 {
		t.Errorf("%d orphaned stubs left behind", sections.count())
	}
}

func TestCourseOwnership(t *testing.T) {
	svc, courses, sections := newCourseFixture(&fakeLLM{response: courseResponse}, &fakeResolver{})
	owner := primitive.NewObjectID()
	ctx := context.Background()

	course, err := svc.GenerateCourse(ctx, owner, "topic")
	if err != nil {
		t.Fatalf("GenerateCourse: %v", err)
	}

	if _, err := svc.GetCourse(ctx, primitive.NewObjectID(), course.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("foreign GetCourse err = %v", err)
	}
	if _, err := svc.GetCourse(ctx, owner, primitive.NewObjectID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing GetCourse err = %v", err)
	}
	if _, err := svc.DeleteCourse(ctx, primitive.NewObjectID(), course.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("foreign DeleteCourse err = %v", err)
	}

	deleted, err := svc.DeleteCourse(ctx, owner, course.ID)
	if err != nil {
		t.Fatalf("DeleteCourse: %v", err)
	}
	if deleted != 2 {
		t.Errorf("sections deleted = %d, want 2", deleted)
	}
	if courses.count() != 0 || sections.count() != 0 {
		t.Errorf("leftovers: %d courses, %d sections", courses.count(), sections.count())
	}
}

func TestListCoursesNewestFirst(t *testing.T) {
	svc, _, _ := newCourseFixture(&fakeLLM{response: courseResponse}, &fakeResolver{})
	owner := primitive.NewObjectID()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	var ids []primitive.ObjectID
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		svc.now = func() time.Time { return at }
		course, err := svc.GenerateCourse(context.Background(), owner, "topic")
		if err != nil {
			t.Fatalf("GenerateCourse: %v", err)
		}
		ids = append(ids, course.ID)
	}
	if _, err := svc.GenerateCourse(context.Background(), primitive.NewObjectID(), "someone else"); err != nil {
		t.Fatalf("GenerateCourse: %v", err)
	}

	list, err := svc.ListCourses(context.Background(), owner)
	if err != nil {
		t.Fatalf("ListCourses: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d courses, want 3", len(list))
	}
	for i, want := range []primitive.ObjectID{ids[2], ids[1], ids[0]} {
		if list[i].ID != want {
			t.Errorf("position %d: got %s want %s", i, list[i].ID.Hex(), want.Hex())
		}
	}
}

func TestDecodeCourseStructureLenient(t *testing.T) {
	got := DecodeCourseStructure(map[string]any{
		"title":         "  T  ",
		"sections":      []any{"A", map[string]any{"title": "B"}, 3.0},
		"image_queries": []any{"first", "", "third"},
		"ytvid_queries": map[string]any{"a": "clip", "b": "   "},
	})
	if got.Title != "T" {
		t.Errorf("title = %q", got.Title)
	}
	if !reflect.DeepEqual(got.Sections, []string{"A", "B", "3"}) {
		t.Errorf("sections = %v", got.Sections)
	}
	if !reflect.DeepEqual(got.ImageQueries, map[string]string{"1": "first", "3": "third"}) {
		t.Errorf("image queries = %v", got.ImageQueries)
	}
	if !reflect.DeepEqual(got.VideoQueries, map[string]string{"a": "clip"}) {
		t.Errorf("video queries = %v", got.VideoQueries)
	}
}
