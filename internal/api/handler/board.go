package handler

import (
	"net/http"

	"github.com/Rrens/taskboard/internal/api/response"
	"github.com/Rrens/taskboard/internal/domain"
	"github.com/Rrens/taskboard/internal/service"
)

// BoardHandler handles board endpoints
type BoardHandler struct {
	boardService *service.BoardService
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(boardService *service.BoardService) *BoardHandler {
	return &BoardHandler{boardService: boardService}
}

// Create handles board creation
func (h *BoardHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	var input domain.BoardCreate
	if !decode(w, r, &input) {
		return
	}

	board, err := h.boardService.Create(r.Context(), a, input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Created(w, board)
}

// List handles listing the boards the caller belongs to
func (h *BoardHandler) List(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	boards, err := h.boardService.List(r.Context(), a)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.OK(w, boards)
}

// Get handles getting a board by ID
func (h *BoardHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "boardID")
	if !ok {
		return
	}

	board, err := h.boardService.Get(r.Context(), a, id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.OK(w, board)
}

// Update handles updating a board
func (h *BoardHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "boardID")
	if !ok {
		return
	}

	var input domain.BoardUpdate
	if !decode(w, r, &input) {
		return
	}

	board, err := h.boardService.Update(r.Context(), a, id, input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.OK(w, board)
}

// Delete handles deleting a board
func (h *BoardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "boardID")
	if !ok {
		return
	}

	if err := h.boardService.Delete(r.Context(), a, id); err != nil {
		response.FromError(w, r, err)
		return
	}

	response.NoContent(w)
}

// InviteMember handles adding a member to a board
func (h *BoardHandler) InviteMember(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "boardID")
	if !ok {
		return
	}

	var input domain.MemberInvite
	if !decode(w, r, &input) {
		return
	}

	board, err := h.boardService.InviteMember(r.Context(), a, id, input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.OK(w, board)
}

// RemoveMember handles removing a member from a board
func (h *BoardHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "boardID")
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	board, err := h.boardService.RemoveMember(r.Context(), a, id, userID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.OK(w, board)
}

// Activities handles listing a board's activity log
func (h *BoardHandler) Activities(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "boardID")
	if !ok {
		return
	}

	activities, err := h.boardService.Activities(r.Context(), a, id, queryLimit(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.OK(w, activities)
}
