package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gramline/internal/logging"
	"gramline/internal/services"
	"gramline/internal/workflow"
)

// uploadExtensions is deliberately broader than the posting allow-list so
// content can be staged before the workflow configuration catches up.
var uploadExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

const maxUploadBytes = 32 << 20

type postRequest struct {
	Month int  `json:"month"`
	Force bool `json:"force"`
}

type postResponse struct {
	RunID     string               `json:"run_id"`
	Published int                  `json:"published"`
	Skipped   int                  `json:"skipped"`
	Failed    int                  `json:"failed"`
	Results   []postResultResponse `json:"results"`
}

type postResultResponse struct {
	Month   int    `json:"month"`
	Outcome string `json:"outcome"`
	Image   string `json:"image,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.trigger == nil {
		s.writeError(w, http.StatusServiceUnavailable, "posting is not enabled on this server")
		return
	}

	var req postRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if req.Month < 0 || req.Month > 12 {
		s.writeError(w, http.StatusBadRequest, "month must be between 1 and 12")
		return
	}

	report, err := s.trigger.Run(r.Context(), workflow.RunOptions{Month: req.Month, Force: req.Force})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, services.ErrAuth) {
			status = http.StatusBadGateway
		}
		s.writeError(w, status, err.Error())
		return
	}

	resp := postResponse{
		RunID:     report.RunID,
		Published: report.Published(),
		Skipped:   report.Skipped(),
		Failed:    report.Failed(),
	}
	for _, result := range report.Results {
		item := postResultResponse{
			Month:   result.Month,
			Outcome: string(result.Outcome),
			Image:   result.Image,
		}
		if result.Err != nil {
			item.Error = result.Err.Error()
		}
		resp.Results = append(resp.Results, item)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleMonth routes /api/months/{month}/images and
// /api/months/{month}/captions uploads.
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/months/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	monthNum, err := strconv.Atoi(parts[0])
	if err != nil || monthNum < 1 || monthNum > 12 {
		s.writeError(w, http.StatusBadRequest, "month must be between 1 and 12")
		return
	}

	switch parts[1] {
	case "images":
		s.handleUpload(w, r, monthNum, validateImageName)
	case "captions":
		s.handleUpload(w, r, monthNum, validateCaptionName)
	default:
		s.writeError(w, http.StatusNotFound, "not found")
	}
}

func validateImageName(name string) error {
	if !uploadExtensions[strings.ToLower(filepath.Ext(name))] {
		return fmt.Errorf("unsupported image type %q", filepath.Ext(name))
	}
	return nil
}

func validateCaptionName(name string) error {
	if filepath.Ext(name) != ".txt" {
		return fmt.Errorf("captions must be .txt files, got %q", name)
	}
	return nil
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, monthNum int, validate func(string) error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}
	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		s.writeError(w, http.StatusBadRequest, "no file supplied")
		return
	}

	monthDir := filepath.Join(s.lib.BaseDir(), strconv.Itoa(monthNum))
	if err := os.MkdirAll(monthDir, 0o755); err != nil {
		s.writeError(w, http.StatusInternalServerError, "could not create month directory")
		return
	}

	saved := make([]string, 0, len(files))
	for _, header := range files {
		name := filepath.Base(header.Filename)
		if name == "" || name == "." || strings.HasPrefix(name, ".") {
			s.writeError(w, http.StatusBadRequest, "invalid file name")
			return
		}
		if err := validate(name); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		src, err := header.Open()
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "could not read upload")
			return
		}
		target := filepath.Join(monthDir, name)
		dst, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			src.Close()
			s.writeError(w, http.StatusInternalServerError, "could not write file")
			return
		}
		if _, err := io.Copy(dst, src); err != nil {
			src.Close()
			dst.Close()
			s.writeError(w, http.StatusInternalServerError, "could not write file")
			return
		}
		src.Close()
		if err := dst.Close(); err != nil {
			s.writeError(w, http.StatusInternalServerError, "could not write file")
			return
		}
		saved = append(saved, name)
		s.logger.Info("content uploaded",
			logging.Month(monthNum),
			logging.String("file", name),
		)
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{"month": monthNum, "saved": saved})
}
