package interfaces

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors wrapped by every repository backend
var (
	ErrNotFound      = goerr.New("not found")
	ErrAlreadyExists = goerr.New("already exists")
)

// Repository defines the interface for data persistence
type Repository interface {
	Case() CaseRepository
	IOC() IOCRepository
	Alert() AlertRepository
	Comment() CommentRepository

	Close() error
}
