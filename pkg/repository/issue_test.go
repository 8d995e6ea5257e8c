package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/pmotracker/pkg/domain/interfaces"
	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
)

func newTestIssue(projectID types.ProjectID, title string) *model.Issue {
	return &model.Issue{
		ID:        types.NewIssueID(),
		Code:      "ISS-001",
		ProjectID: projectID,
		Title:     title,
		Category:  types.IssueCategoryQuality,
		Severity:  types.IssueSeverityHigh,
		Priority:  types.IssuePriorityUrgent,
		Status:    types.IssueStatusOpen,
	}
}

func runIssueRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Create and Get round trip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		issue := newTestIssue(types.NewProjectID(), "Login broken")
		created, err := repo.Issue().Create(ctx, issue)
		gt.NoError(t, err).Required()
		gt.Bool(t, created.CreatedAt.IsZero()).False()

		got, err := repo.Issue().Get(ctx, issue.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Title).Equal("Login broken")
		gt.Value(t, got.Severity).Equal(types.IssueSeverityHigh)
		gt.Value(t, got.Priority).Equal(types.IssuePriorityUrgent)
		gt.Value(t, got.Status).Equal(types.IssueStatusOpen)
		gt.Value(t, got.ResolvedAt).Nil()
	})

	t.Run("Get returns ErrNotFound for unknown issue", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Issue().Get(context.Background(), types.NewIssueID())
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("ListByProject and CountByProject filter by owning project", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		p1 := types.NewProjectID()
		p2 := types.NewProjectID()
		for _, i := range []*model.Issue{
			newTestIssue(p1, "a"),
			newTestIssue(p2, "b"),
			newTestIssue(p2, "c"),
		} {
			_, err := repo.Issue().Create(ctx, i)
			gt.NoError(t, err).Required()
		}

		issues, err := repo.Issue().ListByProject(ctx, p2)
		gt.NoError(t, err).Required()
		gt.Array(t, issues).Length(2)

		count, err := repo.Issue().CountByProject(ctx, p1)
		gt.NoError(t, err).Required()
		gt.Value(t, count).Equal(int64(1))

		all, err := repo.Issue().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, all).Length(3)
	})

	t.Run("Update stores resolution", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Issue().Create(ctx, newTestIssue(types.NewProjectID(), "Slow report"))
		gt.NoError(t, err).Required()

		resolvedAt := time.Now().UTC().Truncate(time.Millisecond)
		created.Status = types.IssueStatusResolved
		created.Resolution = "added index"
		created.ResolvedAt = &resolvedAt
		_, err = repo.Issue().Update(ctx, created)
		gt.NoError(t, err).Required()

		got, err := repo.Issue().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Status).Equal(types.IssueStatusResolved)
		gt.Value(t, got.Resolution).Equal("added index")
		gt.Value(t, got.ResolvedAt).NotNil()
		gt.Bool(t, got.ResolvedAt.Equal(resolvedAt)).True()
	})

	t.Run("Update clears a reset resolution date", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		resolvedAt := time.Now().UTC().Truncate(time.Millisecond)
		issue := newTestIssue(types.NewProjectID(), "Flaky job")
		issue.Status = types.IssueStatusResolved
		issue.ResolvedAt = &resolvedAt
		created, err := repo.Issue().Create(ctx, issue)
		gt.NoError(t, err).Required()

		created.Status = types.IssueStatusOpen
		created.ResolvedAt = nil
		_, err = repo.Issue().Update(ctx, created)
		gt.NoError(t, err).Required()

		got, err := repo.Issue().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Status).Equal(types.IssueStatusOpen)
		gt.Value(t, got.ResolvedAt).Nil()
	})

	t.Run("AddComment appends in order", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Issue().Create(ctx, newTestIssue(types.NewProjectID(), "Timeouts"))
		gt.NoError(t, err).Required()

		at := time.Now().UTC().Truncate(time.Millisecond)
		_, err = repo.Issue().AddComment(ctx, created.ID, model.IssueComment{
			UserID: "alice", Comment: "seen on staging", CreatedAt: at,
		})
		gt.NoError(t, err).Required()
		updated, err := repo.Issue().AddComment(ctx, created.ID, model.IssueComment{
			UserID: "bob", Comment: "fixed by retry", CreatedAt: at.Add(time.Minute),
		})
		gt.NoError(t, err).Required()
		gt.Array(t, updated.Comments).Length(2)

		got, err := repo.Issue().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, got.Comments).Length(2).Required()
		gt.Value(t, got.Comments[0].UserID).Equal(types.UserID("alice"))
		gt.Value(t, got.Comments[0].Comment).Equal("seen on staging")
		gt.Value(t, got.Comments[1].Comment).Equal("fixed by retry")
		gt.Bool(t, got.Comments[0].CreatedAt.Equal(at)).True()
	})

	t.Run("Update keeps stored comments", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Issue().Create(ctx, newTestIssue(types.NewProjectID(), "Memory leak"))
		gt.NoError(t, err).Required()
		_, err = repo.Issue().AddComment(ctx, created.ID, model.IssueComment{
			UserID: "alice", Comment: "heap grows", CreatedAt: time.Now().UTC(),
		})
		gt.NoError(t, err).Required()

		// created carries no comments; the update must not drop the stored one
		created.Title = "Memory leak in worker"
		_, err = repo.Issue().Update(ctx, created)
		gt.NoError(t, err).Required()

		got, err := repo.Issue().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Title).Equal("Memory leak in worker")
		gt.Array(t, got.Comments).Length(1)
	})

	t.Run("AddComment on missing issue returns ErrNotFound", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Issue().AddComment(context.Background(), types.NewIssueID(), model.IssueComment{
			UserID: "alice", Comment: "hello", CreatedAt: time.Now().UTC(),
		})
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("Update of missing issue returns ErrNotFound", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Issue().Update(context.Background(), newTestIssue(types.NewProjectID(), "ghost"))
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("Delete removes issue", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Issue().Create(ctx, newTestIssue(types.NewProjectID(), "temp"))
		gt.NoError(t, err).Required()

		gt.NoError(t, repo.Issue().Delete(ctx, created.ID)).Required()
		gt.Error(t, repo.Issue().Delete(ctx, created.ID)).Is(interfaces.ErrNotFound)
	})
}

func TestIssueRepository(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			runIssueRepositoryTest(t, b.newRepo)
		})
	}
}
