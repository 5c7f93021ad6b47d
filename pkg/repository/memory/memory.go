package memory

import (
	"github.com/secmon-lab/caseflow/pkg/domain/interfaces"
)

var (
	ErrNotFound      = interfaces.ErrNotFound
	ErrAlreadyExists = interfaces.ErrAlreadyExists
)

// Memory is a process local repository for development and tests
type Memory struct {
	caseRepo *caseRepository
	ioc      *iocRepository
	alert    *alertRepository
	comment  *commentRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	iocRepo := newIOCRepository()
	return &Memory{
		caseRepo: newCaseRepository(iocRepo),
		ioc:      iocRepo,
		alert:    newAlertRepository(),
		comment:  newCommentRepository(),
	}
}

func (m *Memory) Case() interfaces.CaseRepository {
	return m.caseRepo
}

func (m *Memory) IOC() interfaces.IOCRepository {
	return m.ioc
}

func (m *Memory) Alert() interfaces.AlertRepository {
	return m.alert
}

func (m *Memory) Comment() interfaces.CommentRepository {
	return m.comment
}

func (m *Memory) Close() error {
	return nil
}
