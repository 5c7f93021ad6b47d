package usecase

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/interfaces"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/model/auth"
	"github.com/secmon-lab/caseflow/pkg/domain/types"
	"github.com/secmon-lab/caseflow/pkg/utils/async"
	"github.com/secmon-lab/caseflow/pkg/utils/logging"
)

// ImportColumns is the fixed header of an IOC upload
var ImportColumns = []string{"ioc_value", "ioc_type", "ioc_description", "ioc_tags", "ioc_tlp"}

// Outcomes reported to the ImportObserver
const (
	ImportOutcomeCreated       = "created"
	ImportOutcomeMissingColumn = "missing_column"
	ImportOutcomeEmptyValue    = "empty_value"
	ImportOutcomeInvalidType   = "invalid_type"
	ImportOutcomeInvalidData   = "invalid_data"
	ImportOutcomeLinked        = "already_linked"
	ImportOutcomeInternal      = "internal"
)

type ImportUseCase struct {
	ioc      *IOCUseCase
	archive  interfaces.ImportArchive
	observer ImportObserver
}

func NewImportUseCase(ioc *IOCUseCase, archive interfaces.ImportArchive, observer ImportObserver) *ImportUseCase {
	return &ImportUseCase{ioc: ioc, archive: archive, observer: observer}
}

// Upload imports IOCs from CSV text into the case. Rows are processed independently: a failing
// row adds an error to the report and never aborts the upload. Only an unreadable payload fails
// the whole call.
func (uc *ImportUseCase) Upload(ctx context.Context, caseID int64, csvData string) (*model.ImportReport, error) {
	records, err := readImportCSV(csvData)
	if err != nil {
		return nil, model.ValidationError(MsgDataError, model.FieldErrors{
			{Field: "CSVData", Message: err.Error()},
		})
	}

	uc.archiveUpload(ctx, caseID, csvData)

	report := &model.ImportReport{}
	for index, row := range records {
		outcome := uc.importRow(ctx, caseID, index, row, report)
		if uc.observer != nil {
			uc.observer.ObserveImportRow(outcome)
		}
	}

	logging.From(ctx).Info("IOC upload processed",
		"case_id", caseID,
		"rows", len(records),
		"errors", len(report.Errors()),
	)
	return report, nil
}

func (uc *ImportUseCase) importRow(ctx context.Context, caseID int64, index int, row map[string]string, report *model.ImportReport) string {
	logger := logging.From(ctx)

	var missing bool
	for _, col := range ImportColumns {
		if _, ok := row[col]; !ok {
			report.AddError(index, fmt.Sprintf("%s is missing for row %d", col, index))
			missing = true
		}
	}
	if missing {
		return ImportOutcomeMissingColumn
	}

	value := row["ioc_value"]
	if value == "" {
		report.AddError(index, fmt.Sprintf("Empty IOC value for row %d", index))
		uc.ioc.activity.track(ctx, caseID, auth.UserFromContext(ctx).ID, "Attempted to upload an empty IOC value")
		return ImportOutcomeEmptyValue
	}

	data := map[string]any{
		"ioc_value":       value,
		"ioc_description": row["ioc_description"],
		"ioc_tags":        model.NormalizeTags(row["ioc_tags"]),
	}

	// an unknown TLP is not an error: the schema default applies
	if tlp, ok := uc.ioc.catalog.TLPByName(row["ioc_tlp"]); ok {
		data["ioc_tlp_id"] = tlp.ID
	}

	iocType, ok := uc.ioc.catalog.IOCTypeByName(row["ioc_type"])
	if !ok {
		report.AddError(index, fmt.Sprintf("%s (invalid ioc type: %s) for row %d", value, row["ioc_type"], index))
		logger.Error("Unrecognised IOC type", "ioc_type", row["ioc_type"], "row", index)
		return ImportOutcomeInvalidType
	}
	data["ioc_type_id"] = iocType.ID

	data = Call(ctx, uc.ioc.hooks, types.HookPreloadIOCCreate, data, caseID)

	ioc, err := uc.ioc.createFromPayload(ctx, caseID, data)
	if err != nil {
		be, _ := model.AsBusinessError(err)
		switch {
		case be != nil && be.Kind() == model.ErrKindConflict:
			report.AddError(index, fmt.Sprintf("%s (already exists and linked to this case)", value))
			logger.Error("IOC already exists and linked to this case", "value", value, "case_id", caseID)
			return ImportOutcomeLinked

		case be != nil && (be.Kind() == model.ErrKindValidation || be.Kind() == model.ErrKindLookup):
			report.AddError(index, fmt.Sprintf("%s (invalid data: %s) for row %d", value, describeInvalid(be), index))
			logger.Error("Invalid IOC row", "value", value, "row", index, "error", err)
			return ImportOutcomeInvalidData

		default:
			report.AddError(index, fmt.Sprintf("%s (internal reasons)", value))
			logger.Error("Unable to create IOC for internal reasons", "value", value, "error", err)
			return ImportOutcomeInternal
		}
	}

	report.AddCreated(index, data)
	logger.Debug("IOC row imported", "ioc_id", ioc.ID, "row", index)
	return ImportOutcomeCreated
}

func describeInvalid(be *model.BusinessError) string {
	var ferrs model.FieldErrors
	if errors.As(be, &ferrs) && len(ferrs) > 0 {
		parts := make([]string, 0, len(ferrs))
		for _, fe := range ferrs {
			parts = append(parts, fe.Field+": "+fe.Message)
		}
		return strings.Join(parts, "; ")
	}
	return be.Message()
}

// readImportCSV parses the upload into one map per data row. A first line that is not the
// expected header (case-insensitive) is treated as data. Columns absent from a short row are
// absent from its map.
func readImportCSV(csvData string) ([]map[string]string, error) {
	if strings.TrimSpace(csvData) == "" {
		return nil, nil
	}

	header := strings.Join(ImportColumns, ",")
	firstLine, _, _ := strings.Cut(csvData, "\n")
	if strings.ToLower(strings.TrimRight(firstLine, "\r")) != header {
		csvData = header + "\n" + csvData
	}

	r := csv.NewReader(strings.NewReader(csvData))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	if _, err := r.Read(); err != nil {
		return nil, goerr.Wrap(err, "failed to read CSV header")
	}

	var rows []map[string]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read CSV row")
		}

		row := make(map[string]string, len(ImportColumns))
		for i, col := range ImportColumns {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ArchiveKey is the object key the raw upload of a case is archived under
func ArchiveKey(caseID int64, at time.Time) string {
	return fmt.Sprintf("imports/%d/%s-%s.csv", caseID, at.UTC().Format("20060102T150405Z"), uuid.NewString())
}

func (uc *ImportUseCase) archiveUpload(ctx context.Context, caseID int64, csvData string) {
	if uc.archive == nil {
		return
	}

	key := ArchiveKey(caseID, time.Now())
	payload := []byte(csvData)
	async.Dispatch(ctx, func(ctx context.Context) error {
		if err := uc.archive.Put(ctx, key, payload); err != nil {
			return goerr.Wrap(err, "failed to archive IOC upload", goerr.V("key", key), goerr.V(CaseIDKey, caseID))
		}
		logging.From(ctx).Info("archived IOC upload", "key", key, "case_id", caseID)
		return nil
	})
}
