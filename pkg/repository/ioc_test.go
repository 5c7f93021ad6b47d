package repository_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/caseflow/pkg/domain/interfaces"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/query"
	"github.com/secmon-lab/caseflow/pkg/domain/types"
)

func runIOCRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	newCase := func(t *testing.T, repo interfaces.Repository) *model.Case {
		c, err := repo.Case().Create(context.Background(), &model.Case{Name: uniq("case")})
		gt.NoError(t, err).Required()
		return c
	}

	t.Run("Create and Get round trip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		ioc := &model.IOC{
			Value:            uniq("evil.example.com"),
			TypeID:           20,
			TLPID:            2,
			Description:      "C2 domain",
			Tags:             "c2,apt",
			CustomAttributes: map[string]any{"Details": map[string]any{"source": "sandbox"}},
			UserID:           1,
		}
		created, err := repo.IOC().Create(ctx, ioc)
		gt.NoError(t, err).Required()
		gt.Value(t, created.ID).NotEqual(int64(0))
		gt.Bool(t, created.CreatedAt.IsZero()).False()

		got, err := repo.IOC().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Value).Equal(ioc.Value)
		gt.Value(t, got.TypeID).Equal(int64(20))
		gt.Value(t, got.TLPID).Equal(int64(2))
		gt.Value(t, got.Description).Equal("C2 domain")
		gt.Value(t, got.Tags).Equal("c2,apt")
		gt.Value(t, got.UserID).Equal(int64(1))
		gt.Value(t, got.CustomAttributes["Details"]).NotNil()
		gt.Bool(t, got.CreatedAt.Equal(created.CreatedAt)).True()
	})

	t.Run("Create rejects duplicated value and type", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		value := uniq("10.0.0.1")
		_, err := repo.IOC().Create(ctx, &model.IOC{Value: value, TypeID: 76, TLPID: 2})
		gt.NoError(t, err).Required()

		_, err = repo.IOC().Create(ctx, &model.IOC{Value: value, TypeID: 76, TLPID: 1})
		gt.Error(t, err).Is(interfaces.ErrAlreadyExists)

		// same value with another type is a distinct IOC
		_, err = repo.IOC().Create(ctx, &model.IOC{Value: value, TypeID: 79, TLPID: 2})
		gt.NoError(t, err)
	})

	t.Run("FindByValue", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		value := uniq("hash")
		created, err := repo.IOC().Create(ctx, &model.IOC{Value: value, TypeID: 90, TLPID: 2})
		gt.NoError(t, err).Required()

		found, err := repo.IOC().FindByValue(ctx, value, 90)
		gt.NoError(t, err).Required()
		gt.Value(t, found).NotNil()
		gt.Value(t, found.ID).Equal(created.ID)

		missing, err := repo.IOC().FindByValue(ctx, value, 91)
		gt.NoError(t, err)
		gt.Value(t, missing).Nil()
	})

	t.Run("Get returns ErrNotFound for non-existent IOC", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.IOC().Get(context.Background(), time.Now().UnixNano())
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("Update keeps creation fields", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.IOC().Create(ctx, &model.IOC{Value: uniq("v"), TypeID: 20, TLPID: 2, UserID: 7})
		gt.NoError(t, err).Required()

		changed := created.Copy()
		changed.Description = "updated"
		changed.TLPID = 1
		changed.UserID = 99
		changed.CreatedAt = time.Time{}

		updated, err := repo.IOC().Update(ctx, changed)
		gt.NoError(t, err).Required()
		gt.Value(t, updated.Description).Equal("updated")
		gt.Value(t, updated.UserID).Equal(int64(7))
		gt.Bool(t, updated.CreatedAt.Equal(created.CreatedAt)).True()

		got, err := repo.IOC().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.TLPID).Equal(int64(1))
		gt.Value(t, got.Description).Equal("updated")

		_, err = repo.IOC().Update(ctx, &model.IOC{ID: time.Now().UnixNano(), Value: "x"})
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("Link is idempotent", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		c := newCase(t, repo)

		ioc, err := repo.IOC().Create(ctx, &model.IOC{Value: uniq("v"), TypeID: 20, TLPID: 2})
		gt.NoError(t, err).Required()

		created, err := repo.IOC().Link(ctx, ioc.ID, c.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, created).True()

		created, err = repo.IOC().Link(ctx, ioc.ID, c.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, created).False()

		linked, err := repo.IOC().IsLinked(ctx, ioc.ID, c.ID)
		gt.NoError(t, err)
		gt.Bool(t, linked).True()

		_, err = repo.IOC().Link(ctx, time.Now().UnixNano(), c.ID)
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("LinkedCases and Unlink", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		c1 := newCase(t, repo)
		c2 := newCase(t, repo)

		ioc, err := repo.IOC().Create(ctx, &model.IOC{Value: uniq("v"), TypeID: 20, TLPID: 2})
		gt.NoError(t, err).Required()
		_, err = repo.IOC().Link(ctx, ioc.ID, c2.ID)
		gt.NoError(t, err).Required()
		_, err = repo.IOC().Link(ctx, ioc.ID, c1.ID)
		gt.NoError(t, err).Required()

		cases, err := repo.IOC().LinkedCases(ctx, ioc.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, cases).Length(2)
		gt.Value(t, cases[0]).Equal(c1.ID)
		gt.Value(t, cases[1]).Equal(c2.ID)

		gt.NoError(t, repo.IOC().Unlink(ctx, ioc.ID, c1.ID)).Required()
		gt.Error(t, repo.IOC().Unlink(ctx, ioc.ID, c1.ID)).Is(interfaces.ErrNotFound)

		cases, err = repo.IOC().LinkedCases(ctx, ioc.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, cases).Length(1)
		gt.Value(t, cases[0]).Equal(c2.ID)
	})

	t.Run("Delete removes IOC and its links", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		c := newCase(t, repo)

		ioc, err := repo.IOC().Create(ctx, &model.IOC{Value: uniq("v"), TypeID: 20, TLPID: 2})
		gt.NoError(t, err).Required()
		_, err = repo.IOC().Link(ctx, ioc.ID, c.ID)
		gt.NoError(t, err).Required()

		gt.NoError(t, repo.IOC().Delete(ctx, ioc.ID)).Required()

		_, err = repo.IOC().Get(ctx, ioc.ID)
		gt.Error(t, err).Is(interfaces.ErrNotFound)

		page, err := repo.IOC().ListByCase(ctx, c.ID, query.Query{Where: query.All(), Pagination: query.DefaultPagination()})
		gt.NoError(t, err).Required()
		gt.Number(t, page.Total).Equal(0)

		gt.Error(t, repo.IOC().Delete(ctx, ioc.ID)).Is(interfaces.ErrNotFound)
	})

	t.Run("ListByCase filters sorts and paginates", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		c := newCase(t, repo)
		other := newCase(t, repo)

		marker := uniq("marker")
		var ids []int64
		for i, v := range []struct {
			value  string
			typeID int64
			desc   string
		}{
			{"alpha.example.com", 20, "first " + marker},
			{"beta.example.com", 20, "second " + marker},
			{"10.1.1.1", 76, "third " + marker},
		} {
			ioc, err := repo.IOC().Create(ctx, &model.IOC{
				Value:       uniq(v.value),
				TypeID:      v.typeID,
				TLPID:       int64(i + 1),
				Description: v.desc,
			})
			gt.NoError(t, err).Required()
			_, err = repo.IOC().Link(ctx, ioc.ID, c.ID)
			gt.NoError(t, err).Required()
			ids = append(ids, ioc.ID)
		}

		unrelated, err := repo.IOC().Create(ctx, &model.IOC{Value: uniq("unrelated"), TypeID: 20, TLPID: 2})
		gt.NoError(t, err).Required()
		_, err = repo.IOC().Link(ctx, unrelated.ID, other.ID)
		gt.NoError(t, err).Required()

		all, err := repo.IOC().ListByCase(ctx, c.ID, query.Query{Where: query.All(), Pagination: query.DefaultPagination()})
		gt.NoError(t, err).Required()
		gt.Number(t, all.Total).Equal(3)
		gt.Array(t, all.Items).Length(3)
		gt.Value(t, all.Items[0].ID).Equal(ids[0])

		byType, err := repo.IOC().ListByCase(ctx, c.ID, query.Query{
			Where:      query.Eq(model.IOCFieldTypeID, int64(20)),
			Pagination: query.DefaultPagination(),
		})
		gt.NoError(t, err).Required()
		gt.Number(t, byType.Total).Equal(2)

		// substring match is case insensitive
		bySubstring, err := repo.IOC().ListByCase(ctx, c.ID, query.Query{
			Where:      query.Contains(model.IOCFieldDescription, "SECOND"),
			Pagination: query.DefaultPagination(),
		})
		gt.NoError(t, err).Required()
		gt.Number(t, bySubstring.Total).Equal(1)
		gt.Value(t, bySubstring.Items[0].ID).Equal(ids[1])

		desc, err := repo.IOC().ListByCase(ctx, c.ID, query.Query{
			Where:      query.All(),
			Sort:       query.Sort{Field: model.IOCFieldTLPID, Direction: types.SortDesc},
			Pagination: query.Pagination{Page: 1, PerPage: 2},
		})
		gt.NoError(t, err).Required()
		gt.Number(t, desc.Total).Equal(3)
		gt.Array(t, desc.Items).Length(2)
		gt.Value(t, desc.Items[0].ID).Equal(ids[2])
		gt.Value(t, desc.Items[1].ID).Equal(ids[1])
		gt.Number(t, desc.LastPage).Equal(2)
		gt.Value(t, desc.NextPage).NotNil()
		gt.Number(t, *desc.NextPage).Equal(2)

		last, err := repo.IOC().ListByCase(ctx, c.ID, query.Query{
			Where:      query.All(),
			Sort:       query.Sort{Field: model.IOCFieldTLPID, Direction: types.SortDesc},
			Pagination: query.Pagination{Page: 2, PerPage: 2},
		})
		gt.NoError(t, err).Required()
		gt.Array(t, last.Items).Length(1)
		gt.Value(t, last.Items[0].ID).Equal(ids[0])
		gt.Value(t, last.NextPage).Nil()

		past, err := repo.IOC().ListByCase(ctx, c.ID, query.Query{
			Where:      query.All(),
			Pagination: query.Pagination{Page: math.MaxInt / 5, PerPage: 10},
		})
		gt.NoError(t, err).Required()
		gt.Number(t, past.Total).Equal(3)
		gt.Array(t, past.Items).Length(0)
		gt.Number(t, past.LastPage).Equal(1)

		wide, err := repo.IOC().ListByCase(ctx, c.ID, query.Query{
			Where:      query.All(),
			Pagination: query.Pagination{Page: 1, PerPage: math.MaxInt},
		})
		gt.NoError(t, err).Required()
		gt.Array(t, wide.Items).Length(3)
		gt.Number(t, wide.LastPage).Equal(1)

		none, err := repo.IOC().ListByCase(ctx, c.ID, query.Query{Where: query.Nothing(), Pagination: query.DefaultPagination()})
		gt.NoError(t, err).Required()
		gt.Number(t, none.Total).Equal(0)
		gt.Array(t, none.Items).Length(0)
	})
}

func TestIOCRepository_Memory(t *testing.T) {
	runIOCRepositoryTest(t, newMemory)
}

func TestIOCRepository_SQLite(t *testing.T) {
	runIOCRepositoryTest(t, newSQLite)
}

func TestIOCRepository_Postgres(t *testing.T) {
	runIOCRepositoryTest(t, postgresFactory(t))
}

func TestIOCRepository_Firestore(t *testing.T) {
	runIOCRepositoryTest(t, firestoreFactory(t))
}
