package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/flipbookapp/flipbook-server/internal/http/response"
	"github.com/flipbookapp/flipbook-server/internal/service"
)

// SavePageRequest is one page in a SaveRequest body.
type SavePageRequest struct {
	PageName string `json:"pageName" validate:"required"`
	Content  string `json:"content"`
	VID      string `json:"v_id"`
}

// SaveRequest is the body of POST /save.
type SaveRequest struct {
	EmailID      string            `json:"emailId" validate:"required,email"`
	FlipbookName string            `json:"flipbookName" validate:"required"`
	FolderName   string            `json:"folderName"`
	Pages        []SavePageRequest `json:"pages" validate:"required,min=1,dive"`
	Overwrite    bool              `json:"overwrite"`
	VID          string            `json:"v_id"`
}

// SaveResponse is the body of a successful save.
type SaveResponse struct {
	VID             string `json:"v_id"`
	FlipbookName    string `json:"flipbookName"`
	SavedPagesCount int    `json:"savedPagesCount"`
	Location        string `json:"location"`
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	pages := make([]service.PageInput, len(req.Pages))
	for i, p := range req.Pages {
		pages[i] = service.PageInput{Name: p.PageName, Content: p.Content, VID: p.VID}
	}

	res, err := s.flipbooks.Save(r.Context(), service.SaveRequest{
		EmailID:      req.EmailID,
		FlipbookName: req.FlipbookName,
		FolderName:   req.FolderName,
		Pages:        pages,
		Overwrite:    req.Overwrite,
		VID:          req.VID,
	})
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, SaveResponse{
		VID:             res.VID,
		FlipbookName:    res.FlipbookName,
		SavedPagesCount: res.SavedPages,
		Location:        res.Location,
	}, s.logger)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	email := q.Get("emailId")
	vid := q.Get("v_id")
	folder := q.Get("folderName")
	book := q.Get("bookName")

	if email == "" {
		response.BadRequest(w, "emailId is required", s.logger)
		return
	}
	if vid == "" && book == "" {
		response.BadRequest(w, "either v_id or folderName and bookName are required", s.logger)
		return
	}

	res, err := s.flipbooks.Get(r.Context(), email, vid, folder, book)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, res, s.logger)
}

// ListResponse is the body of GET /list.
type ListResponse struct {
	Books []service.BookSummary `json:"books"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("emailId")
	if email == "" {
		response.BadRequest(w, "emailId is required", s.logger)
		return
	}

	books, err := s.flipbooks.List(r.Context(), email)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	if books == nil {
		books = []service.BookSummary{}
	}
	response.Success(w, ListResponse{Books: books}, s.logger)
}

// RenameBookRequest is the body of POST /rename.
type RenameBookRequest struct {
	EmailID    string `json:"emailId" validate:"required,email"`
	FolderName string `json:"folderName" validate:"required"`
	OldName    string `json:"oldName" validate:"required"`
	NewName    string `json:"newName" validate:"required"`
}

func (s *Server) handleRenameBook(w http.ResponseWriter, r *http.Request) {
	var req RenameBookRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if err := s.flipbooks.RenameBook(r.Context(), req.EmailID, req.FolderName, req.OldName, req.NewName); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, nil, s.logger)
}

// MoveBookRequest is the body of POST /move.
type MoveBookRequest struct {
	EmailID       string `json:"emailId" validate:"required,email"`
	BookName      string `json:"bookName" validate:"required"`
	CurrentFolder string `json:"currentFolder" validate:"required"`
	TargetFolder  string `json:"targetFolder" validate:"required"`
}

func (s *Server) handleMoveBook(w http.ResponseWriter, r *http.Request) {
	var req MoveBookRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if err := s.flipbooks.MoveBook(r.Context(), req.EmailID, req.BookName, req.CurrentFolder, req.TargetFolder); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, nil, s.logger)
}

// DuplicateBookRequest is the body of POST /duplicate.
type DuplicateBookRequest struct {
	EmailID    string `json:"emailId" validate:"required,email"`
	FolderName string `json:"folderName" validate:"required"`
	BookName   string `json:"bookName" validate:"required"`
}

// DuplicateBookResponse carries the generated name of the copy.
type DuplicateBookResponse struct {
	NewBookName string `json:"newBookName"`
}

func (s *Server) handleDuplicateBook(w http.ResponseWriter, r *http.Request) {
	var req DuplicateBookRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	newName, err := s.flipbooks.DuplicateBook(r.Context(), req.EmailID, req.FolderName, req.BookName)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, DuplicateBookResponse{NewBookName: newName}, s.logger)
}

// DeleteBookRequest is the body of DELETE /delete.
type DeleteBookRequest struct {
	EmailID    string `json:"emailId" validate:"required,email"`
	FolderName string `json:"folderName" validate:"required"`
	BookName   string `json:"bookName" validate:"required"`
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	var req DeleteBookRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if err := s.flipbooks.DeleteBook(r.Context(), req.EmailID, req.FolderName, req.BookName); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, nil, s.logger)
}

// RemoveRecentRequest is the body of POST /remove-recent.
type RemoveRecentRequest struct {
	EmailID  string `json:"emailId" validate:"required,email"`
	BookName string `json:"bookName" validate:"required"`
}

func (s *Server) handleRemoveRecent(w http.ResponseWriter, r *http.Request) {
	var req RemoveRecentRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if err := s.flipbooks.RemoveRecent(r.Context(), req.EmailID, req.BookName); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, nil, s.logger)
}
