package api

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/WispAyr/overwatch-sub002/internal/pkg/application/alarms"
	"github.com/WispAyr/overwatch-sub002/internal/pkg/infrastructure/storage"
	"github.com/WispAyr/overwatch-sub002/internal/pkg/presentation/api/auth"
	"github.com/WispAyr/overwatch-sub002/pkg/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/xuri/excelize/v2"
)

var exportColumns = []string{"ID", "State", "Severity", "Site", "Assignee", "Created", "Updated"}

func exportRow(a types.Alarm) []string {
	return []string{
		a.ID,
		string(a.State),
		string(a.Severity),
		a.Site,
		a.Assignee,
		a.CreatedAt.Format(time.RFC3339),
		a.UpdatedAt.Format(time.RFC3339),
	}
}

func exportAlarmsHandler(log *slog.Logger, svc alarms.AlarmService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		allowedTenants := auth.GetAllowedTenantsFromContext(r.Context())

		ctx, span := tracer.Start(r.Context(), "export-alarms")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		conditions := storage.ParseConditions(ctx, r.URL.Query())
		conditions = append(conditions, storage.WithLimit(10000))

		collection, err := svc.Query(ctx, allowedTenants, conditions...)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		format := strings.ToLower(r.URL.Query().Get("format"))

		switch format {
		case "", "json":
			writeJson(w, http.StatusOK, collection.Data)
		case "csv":
			err = writeCsv(w, collection.Data)
		case "xlsx":
			err = writeXlsx(w, collection.Data)
		default:
			writeJson(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("unsupported export format %q", format)})
			return
		}

		if err != nil {
			requestLogger.Error("export failed", "format", format, "err", err.Error())
		}
	}
}

func writeCsv(w http.ResponseWriter, data []types.Alarm) error {
	w.Header().Add("Content-Type", "text/csv")
	w.Header().Add("Content-Disposition", `attachment; filename="alarms.csv"`)

	writer := csv.NewWriter(w)

	err := writer.Write(exportColumns)
	if err != nil {
		return err
	}

	for _, a := range data {
		err = writer.Write(exportRow(a))
		if err != nil {
			return err
		}
	}

	writer.Flush()

	return writer.Error()
}

func writeXlsx(w http.ResponseWriter, data []types.Alarm) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Alarms"

	index, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}

	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for col, name := range exportColumns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		f.SetCellValue(sheet, cell, name)
	}

	for row, a := range data {
		for col, value := range exportRow(a) {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			f.SetCellValue(sheet, cell, value)
		}
	}

	w.Header().Add("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Add("Content-Disposition", `attachment; filename="alarms.xlsx"`)

	return f.Write(w)
}
