package httpserver

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/kirthika/stocklens/internal/domain"
	"github.com/kirthika/stocklens/internal/usecase"
)

type Server struct {
	mux     *http.ServeMux
	reports *usecase.ReportUC
}

func New(reports *usecase.ReportUC) http.Handler {
	s := &Server{mux: http.NewServeMux(), reports: reports}
	s.mux.HandleFunc("/products", s.handleReport)
	s.mux.HandleFunc("/products/export/csv", s.handleExportCSV)
	s.mux.HandleFunc("/products/export/xlsx", s.handleExportXLSX)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	return withRequestLog(s.mux)
}

type ctxKey int

const traceKey ctxKey = 0

func traceFrom(ctx context.Context) string {
	if v, ok := ctx.Value(traceKey).(string); ok {
		return v
	}
	return ""
}

// withRequestLog tags every request with an id that also shows up in any
// failure envelope, so a client-reported trace maps straight to a log line.
func withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		start := time.Now()
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), traceKey, reqID)))
		log.Info().
			Str("req_id", reqID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("http")
	})
}

type reportQuery struct {
	tenant      string
	window      domain.LaunchWindow
	granularity domain.Granularity
}

func parseReportQuery(r *http.Request) (reportQuery, error) {
	var rq reportQuery
	qs := r.URL.Query()
	rq.tenant = qs.Get("db_name")
	if rq.tenant == "" {
		return rq, errors.New("db_name is required")
	}
	start, err := strconv.Atoi(qs.Get("launch_start_days"))
	if err != nil {
		return rq, errors.New("launch_start_days must be an integer")
	}
	end, err := strconv.Atoi(qs.Get("launch_end_days"))
	if err != nil {
		return rq, errors.New("launch_end_days must be an integer")
	}
	rq.window = domain.LaunchWindow{StartDays: start, EndDays: end}
	switch g := qs.Get("granularity"); g {
	case "", string(domain.GranularityGroup):
		rq.granularity = domain.GranularityGroup
	case string(domain.GranularityItem):
		rq.granularity = domain.GranularityItem
	default:
		return rq, fmt.Errorf("granularity %q is not supported", g)
	}
	return rq, nil
}

// runReport parses the query and runs the use case; on any failure it writes
// the envelope itself and the caller stops. All-or-nothing per request.
func (s *Server) runReport(w http.ResponseWriter, r *http.Request) (*domain.Report, bool) {
	if r.Method != http.MethodGet {
		http.Error(w, "method", http.StatusMethodNotAllowed)
		return nil, false
	}
	rq, err := parseReportQuery(r)
	if err != nil {
		s.writeFailure(w, r, rq.tenant, http.StatusBadRequest, err)
		return nil, false
	}
	rep, err := s.reports.Report(r.Context(), rq.tenant, rq.window, rq.granularity)
	if err != nil {
		s.writeFailure(w, r, rq.tenant, statusFor(err), err)
		return nil, false
	}
	return rep, true
}

func statusFor(err error) int {
	var dse *domain.DataSourceError
	switch {
	case errors.Is(err, domain.ErrUnknownTenant):
		return http.StatusNotFound
	case errors.As(err, &dse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, tenant string, code int, err error) {
	trace := traceFrom(r.Context())
	log.Error().Err(err).Str("req_id", trace).Str("database", tenant).Msg("report failed")
	writeJSON(w, code, map[string]any{
		"status":   "Failed",
		"database": tenant,
		"error":    err.Error(),
		"trace":    trace,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.runReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.runReport(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=products_%s.csv", rep.Today))
	cw := csv.NewWriter(w)
	for _, rec := range flatRecords(rep) {
		if err := cw.Write(rec); err != nil {
			log.Error().Err(err).Msg("csv write")
			return
		}
	}
	cw.Flush()
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.runReport(w, r)
	if !ok {
		return
	}
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, rec := range flatRecords(rep) {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		row := make([]any, len(rec))
		for j, v := range rec {
			row[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			s.writeFailure(w, r, rep.Database, http.StatusInternalServerError, err)
			return
		}
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=products_%s.xlsx", rep.Today))
	if err := f.Write(w); err != nil {
		log.Error().Err(err).Msg("xlsx write")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
