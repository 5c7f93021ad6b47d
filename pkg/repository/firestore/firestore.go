package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/interfaces"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrNotFound      = interfaces.ErrNotFound
	ErrAlreadyExists = interfaces.ErrAlreadyExists
)

// Collection names before prefixing
const (
	CollectionCases        = "cases"
	CollectionObjectStates = "object_states"
	CollectionIOCs         = "iocs"
	CollectionIOCLinks     = "ioc_links"
	CollectionAlerts       = "alerts"
	CollectionComments     = "comments"
	CollectionCounters     = "counters"
)

type base struct {
	client           *firestore.Client
	collectionPrefix string
}

func (b *base) collection(name string) *firestore.CollectionRef {
	if b.collectionPrefix != "" {
		name = b.collectionPrefix + "_" + name
	}
	return b.client.Collection(name)
}

// getNextID increments the named counter in a transaction and returns the new value
func (b *base) getNextID(ctx context.Context, counter string) (int64, error) {
	counterRef := b.collection(CollectionCounters).Doc(counter)

	var nextID int64
	err := b.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(counterRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				nextID = 1
				return tx.Set(counterRef, map[string]any{
					"value": nextID,
				})
			}
			return goerr.Wrap(err, "failed to get counter")
		}

		currentValue, err := doc.DataAt("value")
		if err != nil {
			return goerr.Wrap(err, "failed to get counter value")
		}

		val, ok := currentValue.(int64)
		if !ok {
			return goerr.New("counter value is not of type int64", goerr.V("value", currentValue))
		}
		nextID = val + 1
		return tx.Update(counterRef, []firestore.Update{
			{Path: "value", Value: nextID},
		})
	})

	if err != nil {
		return 0, goerr.Wrap(err, "failed to get next ID", goerr.V("counter", counter))
	}

	return nextID, nil
}

func docID(id int64) string {
	return fmt.Sprintf("%d", id)
}

type Firestore struct {
	base     *base
	caseRepo *caseRepository
	ioc      *iocRepository
	alert    *alertRepository
	comment  *commentRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.base.collectionPrefix = prefix
	}
}

// New connects to Firestore. An empty databaseID selects the default database.
func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	b := &base{client: client}
	f := &Firestore{
		base:     b,
		caseRepo: &caseRepository{base: b},
		ioc:      &iocRepository{base: b},
		alert:    &alertRepository{base: b},
		comment:  &commentRepository{base: b},
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Case() interfaces.CaseRepository {
	return f.caseRepo
}

func (f *Firestore) IOC() interfaces.IOCRepository {
	return f.ioc
}

func (f *Firestore) Alert() interfaces.AlertRepository {
	return f.alert
}

func (f *Firestore) Comment() interfaces.CommentRepository {
	return f.comment
}

func (f *Firestore) Close() error {
	if f.base.client != nil {
		return f.base.client.Close()
	}
	return nil
}
