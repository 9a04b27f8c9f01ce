package enrich

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/coursegen-backend/internal/domain"
)

type fakeEnhancer struct {
	initErr  error
	fail     string
	block    bool
	disposed atomic.Bool
}

func (f *fakeEnhancer) Init(ctx context.Context) error { return f.initErr }

func (f *fakeEnhancer) EnhanceSection(ctx context.Context, s domain.CourseSection) (EnhanceResult, error) {
	if f.block {
		<-ctx.Done()
		return EnhanceResult{}, ctx.Err()
	}
	if s.Title == f.fail {
		return EnhanceResult{}, errors.New("boom")
	}
	return EnhanceResult{Enhanced: true, EnhancedContent: strings.ToUpper(s.Explanation)}, nil
}

func (f *fakeEnhancer) Dispose() { f.disposed.Store(true) }

func course() domain.Course {
	return domain.Course{
		Title: "T",
		Content: domain.CourseContent{
			Sections: []domain.CourseSection{
				{ID: "a", Title: "A", Explanation: "alpha", Examples: []string{"ex"}, Warnings: []string{}},
				{ID: "b", Title: "B", Explanation: "beta", Examples: []string{}, Warnings: []string{"w"}},
			},
		},
	}
}

func TestEnrichRewritesOnlyExplanations(t *testing.T) {
	in := course()
	f := &fakeEnhancer{}
	out := Enrich(context.Background(), f, in, DefaultOptions())
	if out.Err != nil || out.EnhancedSections != 2 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if out.Course.Content.Sections[0].Explanation != "ALPHA" {
		t.Fatalf("expected rewritten explanation, got %q", out.Course.Content.Sections[0].Explanation)
	}
	if !reflect.DeepEqual(out.Course.Content.Sections[0].Examples, in.Content.Sections[0].Examples) {
		t.Fatalf("examples must not change")
	}
	if in.Content.Sections[0].Explanation != "alpha" {
		t.Fatalf("input course was mutated")
	}
	if !f.disposed.Load() {
		t.Fatalf("expected Dispose after a pass")
	}
}

func TestEnrichPartialFailureKeepsOthers(t *testing.T) {
	out := Enrich(context.Background(), &fakeEnhancer{fail: "B"}, course(), DefaultOptions())
	if out.EnhancedSections != 1 || out.Err == nil {
		t.Fatalf("expected one section and an error, got %+v", out)
	}
	if out.Course.Content.Sections[1].Explanation != "beta" {
		t.Fatalf("failed section must keep its text")
	}
}

func TestEnrichCancellationLeavesCourseUnchanged(t *testing.T) {
	in := course()
	opts := DefaultOptions()
	opts.Timeout = 20 * time.Millisecond
	out := Enrich(context.Background(), &fakeEnhancer{block: true}, in, opts)
	if !errors.Is(out.Err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", out.Err)
	}
	if out.EnhancedSections != 0 || !reflect.DeepEqual(out.Course, in) {
		t.Fatalf("expected untouched course, got %+v", out.Course)
	}
}

func TestEnrichInitFailure(t *testing.T) {
	in := course()
	out := Enrich(context.Background(), &fakeEnhancer{initErr: errors.New("down")}, in, DefaultOptions())
	if out.Err == nil || !reflect.DeepEqual(out.Course, in) {
		t.Fatalf("expected init error and untouched course")
	}
}
