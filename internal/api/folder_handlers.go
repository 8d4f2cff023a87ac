package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/flipbookapp/flipbook-server/internal/http/response"
)

// FoldersResponse is the body of GET /folders.
type FoldersResponse struct {
	Folders []string `json:"folders"`
}

func (s *Server) handleListFolders(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("emailId")
	if email == "" {
		response.BadRequest(w, "emailId is required", s.logger)
		return
	}

	folders, err := s.flipbooks.ListFolders(r.Context(), email)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, FoldersResponse{Folders: folders}, s.logger)
}

// CreateFolderRequest is the body of POST /folder/create.
type CreateFolderRequest struct {
	EmailID    string `json:"emailId" validate:"required,email"`
	FolderName string `json:"folderName" validate:"required"`
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req CreateFolderRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if err := s.flipbooks.CreateFolder(r.Context(), req.EmailID, req.FolderName); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Created(w, nil, s.logger)
}

// RenameFolderRequest is the body of POST /folder/rename.
type RenameFolderRequest struct {
	EmailID string `json:"emailId" validate:"required,email"`
	OldName string `json:"oldName" validate:"required"`
	NewName string `json:"newName" validate:"required"`
}

func (s *Server) handleRenameFolder(w http.ResponseWriter, r *http.Request) {
	var req RenameFolderRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if err := s.flipbooks.RenameFolder(r.Context(), req.EmailID, req.OldName, req.NewName); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, nil, s.logger)
}

// DuplicateFolderRequest is the body of POST /folder/duplicate.
type DuplicateFolderRequest struct {
	EmailID    string `json:"emailId" validate:"required,email"`
	FolderName string `json:"folderName" validate:"required"`
}

// DuplicateFolderResponse carries the generated name of the copy.
type DuplicateFolderResponse struct {
	NewFolderName string `json:"newFolderName"`
}

func (s *Server) handleDuplicateFolder(w http.ResponseWriter, r *http.Request) {
	var req DuplicateFolderRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	newName, err := s.flipbooks.DuplicateFolder(r.Context(), req.EmailID, req.FolderName)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, DuplicateFolderResponse{NewFolderName: newName}, s.logger)
}

// DeleteFolderRequest is the body of DELETE /folder.
type DeleteFolderRequest struct {
	EmailID    string `json:"emailId" validate:"required,email"`
	FolderName string `json:"folderName" validate:"required"`
}

func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	var req DeleteFolderRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if err := s.flipbooks.DeleteFolder(r.Context(), req.EmailID, req.FolderName); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, nil, s.logger)
}
