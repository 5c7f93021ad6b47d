package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/model/auth"
	"github.com/secmon-lab/caseflow/pkg/usecase"
	"github.com/urfave/cli/v3"
)

var ErrImportRowsFailed = goerr.New("some rows failed to import")

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	failureColor = color.New(color.FgRed)
)

func cmdImport() *cli.Command {
	var caseID int
	var file string
	var appCfg appConfig

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "case",
			Usage:       "Case ID the IOCs are added to",
			Value:       1,
			Sources:     cli.EnvVars("CASEFLOW_IMPORT_CASE"),
			Destination: &caseID,
		},
		&cli.StringFlag{
			Name:        "file",
			Aliases:     []string{"f"},
			Usage:       "CSV file with ioc_value,ioc_type,ioc_description,ioc_tags,ioc_tlp columns",
			Required:    true,
			Destination: &file,
		},
	}
	flags = append(flags, appCfg.Flags()...)

	return &cli.Command{
		Name:    "import",
		Aliases: []string{"i"},
		Usage:   "Bulk import IOCs from a CSV file into a case",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			raw, err := os.ReadFile(filepath.Clean(file))
			if err != nil {
				return goerr.Wrap(err, "failed to read CSV file", goerr.V("file", file))
			}

			uc, closer, err := appCfg.Configure(ctx)
			defer closer()
			if err != nil {
				return err
			}

			ctx = auth.ContextWithUser(ctx, auth.NewAnonymousUser())
			if _, err := uc.Case.EnsureDefault(ctx); err != nil {
				return goerr.Wrap(err, "failed to ensure default case")
			}

			report, err := importFile(ctx, uc, int64(caseID), string(raw))
			if err != nil {
				return err
			}

			printImportReport(os.Stdout, file, report)
			if len(report.Errors()) > 0 {
				return goerr.Wrap(ErrImportRowsFailed, "import finished with errors",
					goerr.V("file", file),
					goerr.V("failed", len(report.Errors())))
			}
			return nil
		},
	}
}

func importFile(ctx context.Context, uc *usecase.UseCases, caseID int64, csvData string) (*model.ImportReport, error) {
	if _, err := uc.Case.Get(ctx, caseID); err != nil {
		return nil, goerr.Wrap(err, "failed to find case", goerr.V("case_id", caseID))
	}

	report, err := uc.Import.Upload(ctx, caseID, csvData)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to import CSV", goerr.V("case_id", caseID))
	}
	return report, nil
}

func printImportReport(w io.Writer, file string, report *model.ImportReport) {
	_, _ = headerColor.Fprintf(w, "Import of %s\n", file)

	for _, row := range report.Rows {
		if row.Failed() {
			_, _ = failureColor.Fprintf(w, "  row %d: %s\n", row.Index, row.Error)
			continue
		}
		_, _ = successColor.Fprintf(w, "  row %d: added %v (type %v)\n", row.Index, row.Data["ioc_value"], row.Data["ioc_type_id"])
	}

	created := len(report.Created())
	failed := len(report.Errors())
	_, _ = fmt.Fprintf(w, "%s, %s\n",
		successColor.Sprintf("%d created", created),
		failureColor.Sprintf("%d failed", failed))
}
