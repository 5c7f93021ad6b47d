package async_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/caseflow/pkg/utils/async"
)

func TestDispatch(t *testing.T) {
	var called atomic.Int32

	async.Dispatch(context.Background(), func(ctx context.Context) error {
		called.Add(1)
		return nil
	})
	async.Dispatch(context.Background(), func(ctx context.Context) error {
		called.Add(1)
		return goerr.New("ignored")
	})
	async.Dispatch(context.Background(), func(ctx context.Context) error {
		called.Add(1)
		panic("recovered")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	gt.NoError(t, async.Wait(ctx)).Required()
	gt.Number(t, called.Load()).Equal(3)
}
