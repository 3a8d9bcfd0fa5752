package server

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/analyzer"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/batch"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/credentials"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/report"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/roster"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	reply := errorReply(err)
	if reply.HTTPStatusCode >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	_ = render.Render(w, r, reply)
}

func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	_ = render.Render(w, r, &ErrorReply{HTTPStatusCode: http.StatusBadRequest, Error: err.Error(), Message: err.Error()})
}

func (s *Server) listCredentials(w http.ResponseWriter, r *http.Request) {
	keys := s.session.Credentials()
	reply := CredentialsReply{Credentials: make([]CredentialReply, len(keys)), Index: s.session.CredentialIndex()}
	for i, k := range keys {
		cr := CredentialReply{Index: i, Masked: credentials.Mask(k), Active: i == reply.Index}
		if s.limiter != nil {
			state, err := s.limiter.GetState(r.Context(), k)
			if err != nil {
				s.logger.Warn().Err(err).Str("credential", credentials.Mask(k)).Msg("Cooldown lookup failed")
			} else if state.Active() {
				cr.CooldownSeconds = state.Remaining().Seconds()
				cr.RateLimitHits = state.Hits
			}
		}
		reply.Credentials[i] = cr
	}
	_ = render.Render(w, r, reply)
}

func (s *Server) replaceCredentials(w http.ResponseWriter, r *http.Request) {
	req := &CredentialsRequest{}
	if err := render.Bind(r, req); err != nil {
		s.badRequest(w, r, err)
		return
	}
	if err := s.session.SetCredentials(r.Context(), req.Credentials); err != nil {
		s.fail(w, r, err)
		return
	}
	s.listCredentials(w, r)
}

func (s *Server) addCredential(w http.ResponseWriter, r *http.Request) {
	req := &CredentialRequest{}
	if err := render.Bind(r, req); err != nil {
		s.badRequest(w, r, err)
		return
	}
	keys := credentials.Add(s.session.Credentials(), req.Credential)
	if err := s.session.SetCredentials(r.Context(), keys); err != nil {
		s.fail(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	s.listCredentials(w, r)
}

func (s *Server) removeCredential(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	current := s.session.Credentials()
	if err != nil || index < 0 || index >= len(current) {
		s.badRequest(w, r, fmt.Errorf("invalid credential index %q", chi.URLParam(r, "index")))
		return
	}
	if err := s.session.SetCredentials(r.Context(), credentials.Remove(current, index)); err != nil {
		s.fail(w, r, err)
		return
	}
	s.listCredentials(w, r)
}

// readRoster accepts a multipart upload in the "file" field or a raw body.
// Raw bodies are parsed as XLSX when the content type or ?format= says so.
func readRoster(r *http.Request) (*roster.Roster, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, fmt.Errorf("%w: %v", roster.ErrInputInvalid, err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", roster.ErrInputInvalid, err)
		}
		defer file.Close()
		return roster.Read(file, roster.FormatFromName(header.Filename))
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", roster.ErrInputInvalid, err)
	}
	format := roster.FormatCSV
	if mediaType == xlsxContentType || strings.EqualFold(r.URL.Query().Get("format"), string(roster.FormatXLSX)) {
		format = roster.FormatXLSX
	}
	return roster.Read(bytes.NewReader(data), format)
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	parsed, err := readRoster(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.session.Start(s.baseCtx, parsed, s.runFinished("analysis")); err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info().
		Int("records", parsed.Len()).
		Int("skipped", parsed.Skipped).
		Msg("Analysis started")
	_ = render.Render(w, r, RunReply{Status: "started", Total: parsed.Len()})
}

func (s *Server) resume(w http.ResponseWriter, r *http.Request) {
	if err := s.session.StartResume(s.baseCtx, s.runFinished("resume")); err != nil {
		s.fail(w, r, err)
		return
	}
	p := s.session.Progress()
	_ = render.Render(w, r, RunReply{Status: "resumed", Total: p.Total, Done: p.Completed})
}

func (s *Server) runFinished(kind string) func(batch.Summary, error) {
	return func(summary batch.Summary, err error) {
		if err != nil {
			s.logger.Warn().Err(err).Str("run_id", summary.RunID).Msgf("Background %s stopped", kind)
			return
		}
		s.logger.Info().Str("run_id", summary.RunID).Int("records", summary.Committed).Msgf("Background %s finished", kind)
	}
}

func (s *Server) progress(w http.ResponseWriter, r *http.Request) {
	p := s.session.Progress()
	reply := ProgressReply{
		Completed:       p.Completed,
		Total:           p.Total,
		Percent:         p.Percent(),
		Running:         s.session.Running(),
		Done:            p.Done(),
		CredentialIndex: s.session.CredentialIndex(),
	}
	if err := s.session.LastError(); err != nil {
		reply.Error = err.Error()
		reply.Message = analyzer.FriendlyMessage(err)
	}
	_ = render.Render(w, r, reply)
}

func (s *Server) results(w http.ResponseWriter, r *http.Request) {
	all := s.session.Results()
	_ = render.Render(w, r, ResultsReply{Count: len(all), Results: all})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	st, err := s.session.Stats()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	_ = render.Render(w, r, StatsReply{st})
}

func (s *Server) generateReport(w http.ResponseWriter, r *http.Request) {
	md, err := s.session.GenerateReport(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	_ = render.Render(w, r, ReportReply{Markdown: md})
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	md := s.session.Report()
	if md == "" {
		s.fail(w, r, analyzer.ErrNoResults)
		return
	}
	_ = render.Render(w, r, ReportReply{Markdown: md})
}

func (s *Server) getReportHTML(w http.ResponseWriter, r *http.Request) {
	md := s.session.Report()
	if md == "" {
		s.fail(w, r, analyzer.ErrNoResults)
		return
	}
	html, err := report.RenderHTML(md)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.HTML(w, r, html)
}

func attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

func (s *Server) exportResultsCSV(w http.ResponseWriter, r *http.Request) {
	all := s.session.Results()
	if len(all) == 0 {
		s.fail(w, r, analyzer.ErrNoResults)
		return
	}
	var buf bytes.Buffer
	if err := roster.WriteProcessedCSV(&buf, all, s.session.ExtraColumns()); err != nil {
		s.fail(w, r, err)
		return
	}
	attachment(w, "text/csv; charset=utf-8", "processed_student_data.csv")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) exportStatsCSV(w http.ResponseWriter, r *http.Request) {
	st, err := s.session.Stats()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := report.WriteStatsCSV(&buf, st); err != nil {
		s.fail(w, r, err)
		return
	}
	attachment(w, "text/csv; charset=utf-8", "college_placement_report_data.csv")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) exportStatsXLSX(w http.ResponseWriter, r *http.Request) {
	st, err := s.session.Stats()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := report.WriteStatsXLSX(&buf, st); err != nil {
		s.fail(w, r, err)
		return
	}
	attachment(w, xlsxContentType, "college_placement_report_data.xlsx")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) candidatesDisabled(w http.ResponseWriter, r *http.Request) bool {
	if s.candidates != nil {
		return false
	}
	_ = render.Render(w, r, &ErrorReply{
		HTTPStatusCode: http.StatusServiceUnavailable,
		Error:          "candidate service not configured",
		Message:        "Candidate search is not configured on this server.",
	})
	return true
}

func (s *Server) candidateLists(w http.ResponseWriter, r *http.Request) {
	if s.candidatesDisabled(w, r) {
		return
	}
	lists, err := s.candidates.ListCandidateLists(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	_ = render.Render(w, r, CandidateListsReply{Lists: lists})
}

func (s *Server) candidateList(w http.ResponseWriter, r *http.Request) {
	if s.candidatesDisabled(w, r) {
		return
	}
	found, err := s.candidates.FetchCandidates(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	reply := CandidatesReply{Candidates: make([]CandidateReply, len(found))}
	for i, c := range found {
		reply.Candidates[i] = CandidateReply{Candidate: c, Name: c.Name(), Avatar: c.AvatarURL()}
	}
	_ = render.Render(w, r, reply)
}
