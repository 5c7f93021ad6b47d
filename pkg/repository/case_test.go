package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/caseflow/pkg/domain/interfaces"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/types"
)

func runCaseRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Create creates case with auto-increment ID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created1, err := repo.Case().Create(ctx, &model.Case{
			Name:        uniq("phishing"),
			Description: "Credential phishing campaign",
			UserID:      1,
		})
		gt.NoError(t, err).Required()
		gt.Value(t, created1.ID).NotEqual(int64(0))
		gt.Value(t, created1.Description).Equal("Credential phishing campaign")
		gt.Value(t, created1.UserID).Equal(int64(1))
		gt.Bool(t, created1.CreatedAt.IsZero()).False()

		created2, err := repo.Case().Create(ctx, &model.Case{Name: uniq("ransomware")})
		gt.NoError(t, err).Required()
		gt.Number(t, created2.ID).Greater(created1.ID)
	})

	t.Run("Get retrieves existing case", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Case().Create(ctx, &model.Case{Name: uniq("lateral movement")})
		gt.NoError(t, err).Required()

		retrieved, err := repo.Case().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, retrieved.Name).Equal(created.Name)
		gt.Bool(t, retrieved.CreatedAt.Equal(created.CreatedAt)).True()
	})

	t.Run("Get returns ErrNotFound for non-existent case", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Case().Get(context.Background(), time.Now().UnixNano())
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("List returns cases ordered by ID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		c1, err := repo.Case().Create(ctx, &model.Case{Name: uniq("a")})
		gt.NoError(t, err).Required()
		c2, err := repo.Case().Create(ctx, &model.Case{Name: uniq("b")})
		gt.NoError(t, err).Required()

		cases, err := repo.Case().List(ctx)
		gt.NoError(t, err).Required()

		pos := map[int64]int{}
		for i, c := range cases {
			pos[c.ID] = i
			if i > 0 {
				gt.Number(t, c.ID).Greater(cases[i-1].ID)
			}
		}
		gt.Number(t, pos[c2.ID]).Greater(pos[c1.ID])
	})

	t.Run("Delete removes case and its links", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		c, err := repo.Case().Create(ctx, &model.Case{Name: uniq("delete me")})
		gt.NoError(t, err).Required()
		ioc, err := repo.IOC().Create(ctx, &model.IOC{Value: uniq("1.2.3.4"), TypeID: 76, TLPID: 2})
		gt.NoError(t, err).Required()
		_, err = repo.IOC().Link(ctx, ioc.ID, c.ID)
		gt.NoError(t, err).Required()
		_, err = repo.Case().BumpState(ctx, c.ID, types.ObjectIOC)
		gt.NoError(t, err).Required()

		gt.NoError(t, repo.Case().Delete(ctx, c.ID)).Required()

		_, err = repo.Case().Get(ctx, c.ID)
		gt.Error(t, err).Is(interfaces.ErrNotFound)

		linked, err := repo.IOC().IsLinked(ctx, ioc.ID, c.ID)
		gt.NoError(t, err)
		gt.Bool(t, linked).False()

		_, err = repo.Case().GetState(ctx, c.ID, types.ObjectIOC)
		gt.Error(t, err).Is(interfaces.ErrNotFound)

		// the IOC itself is global and survives
		_, err = repo.IOC().Get(ctx, ioc.ID)
		gt.NoError(t, err)
	})

	t.Run("Delete returns ErrNotFound for non-existent case", func(t *testing.T) {
		repo := newRepo(t)

		err := repo.Case().Delete(context.Background(), time.Now().UnixNano())
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("BumpState increments revision per object type", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		c, err := repo.Case().Create(ctx, &model.Case{Name: uniq("state")})
		gt.NoError(t, err).Required()

		_, err = repo.Case().GetState(ctx, c.ID, types.ObjectIOC)
		gt.Error(t, err).Is(interfaces.ErrNotFound)

		s1, err := repo.Case().BumpState(ctx, c.ID, types.ObjectIOC)
		gt.NoError(t, err).Required()
		gt.Value(t, s1.Revision).Equal(int64(1))

		s2, err := repo.Case().BumpState(ctx, c.ID, types.ObjectIOC)
		gt.NoError(t, err).Required()
		gt.Value(t, s2.Revision).Equal(int64(2))

		other, err := repo.Case().BumpState(ctx, c.ID, types.ObjectAlert)
		gt.NoError(t, err).Required()
		gt.Value(t, other.Revision).Equal(int64(1))

		got, err := repo.Case().GetState(ctx, c.ID, types.ObjectIOC)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Revision).Equal(int64(2))
		gt.Value(t, got.Object).Equal(types.ObjectIOC)
		gt.Value(t, got.CaseID).Equal(c.ID)
	})
}

func TestCaseRepository_Memory(t *testing.T) {
	runCaseRepositoryTest(t, newMemory)
}

func TestCaseRepository_SQLite(t *testing.T) {
	runCaseRepositoryTest(t, newSQLite)
}

func TestCaseRepository_Postgres(t *testing.T) {
	runCaseRepositoryTest(t, postgresFactory(t))
}

func TestCaseRepository_Firestore(t *testing.T) {
	runCaseRepositoryTest(t, firestoreFactory(t))
}
