package invoice

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/zombor/invoice-extractor/internal/scanning"
)

// maxUploadSize bounds a whole batch upload; phone photos are large
const maxUploadSize = int64(50 << 20) // 50MB

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// jsonError writes a JSON {"error": message} response
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleCreateBatch extracts every uploaded file into a new batch
func (s *Server) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			errorMsg = "Upload is too large. Maximum size is 50MB."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		jsonError(w, "No files were selected. Please choose at least one invoice to upload.", http.StatusBadRequest)
		return
	}

	docs := make([]scanning.Document, 0, len(headers))
	for _, header := range headers {
		data, err := readUpload(header)
		if err != nil {
			slog.Error("Error reading file data", "error", err, "filename", header.Filename)
			jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
			return
		}
		docs = append(docs, scanning.Document{Name: header.Filename, Data: data})
	}

	batch, err := s.service.ProcessBatch(r.Context(), docs)
	if err != nil {
		slog.Error("Error processing batch", "documents", len(docs), "error", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(batch); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// readUpload reads one multipart file; the handle is closed before returning
func readUpload(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

// handleListBatches returns a summary of every batch
func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.service.ListBatches()
	if err != nil {
		slog.Error("Error listing batches", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(summaries); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetBatch returns a single batch with its table
func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	batch, err := s.service.GetBatch(id)
	if err != nil {
		batchError(w, "getting", id, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(batch); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleExportBatch downloads a batch as CSV or Excel
func (s *Server) handleExportBatch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(FormatCSV)
	}
	format, err := ParseFormat(name)
	if err != nil {
		corsError(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := s.service.ExportBatch(id, format, s.export)
	if err != nil {
		batchError(w, "exporting", id, err)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename()))
	w.Write(data)
}

// handleDeleteBatch deletes a batch
func (s *Server) handleDeleteBatch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.service.DeleteBatch(id); err != nil {
		batchError(w, "deleting", id, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// batchError answers 404 for a missing batch and 500 for anything else
func batchError(w http.ResponseWriter, action, id string, err error) {
	if errors.Is(err, ErrBatchNotFound) {
		corsError(w, "Batch not found", http.StatusNotFound)
		return
	}
	slog.Error("Error "+action+" batch", "id", id, "error", err)
	corsError(w, "Internal server error", http.StatusInternalServerError)
}

// handleStaticCSS serves the CSS file
func (s *Server) handleStaticCSS(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/css")
	w.Write(appCSS)
}

// handleStaticJS serves the JavaScript file
func (s *Server) handleStaticJS(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write(appJS)
}
