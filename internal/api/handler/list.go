package handler

import (
	"net/http"

	"github.com/Rrens/taskboard/internal/api/response"
	"github.com/Rrens/taskboard/internal/domain"
	"github.com/Rrens/taskboard/internal/service"
)

// ListHandler handles list endpoints and the ordering of lists and cards
type ListHandler struct {
	listService *service.ListService
}

// NewListHandler creates a new list handler
func NewListHandler(listService *service.ListService) *ListHandler {
	return &ListHandler{listService: listService}
}

// Create handles list creation
func (h *ListHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	var input domain.ListCreate
	if !decode(w, r, &input) {
		return
	}

	list, err := h.listService.Create(r.Context(), a, input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Created(w, list)
}

// BoardLists handles listing a board's lists with their cards, in order
func (h *ListHandler) BoardLists(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	boardID, ok := pathID(w, r, "boardID")
	if !ok {
		return
	}

	lists, err := h.listService.BoardLists(r.Context(), a, boardID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.OK(w, lists)
}

// Get handles getting a list by ID
func (h *ListHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "listID")
	if !ok {
		return
	}

	list, err := h.listService.Get(r.Context(), a, id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.OK(w, list)
}

// Update handles updating a list
func (h *ListHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "listID")
	if !ok {
		return
	}

	var input domain.ListUpdate
	if !decode(w, r, &input) {
		return
	}

	list, err := h.listService.Update(r.Context(), a, id, input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.OK(w, list)
}

// Delete handles deleting a list and its cards
func (h *ListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "listID")
	if !ok {
		return
	}

	if err := h.listService.Delete(r.Context(), a, id); err != nil {
		response.FromError(w, r, err)
		return
	}

	response.NoContent(w)
}

// UpdateListOrder handles replacing a board's list order
func (h *ListHandler) UpdateListOrder(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	boardID, ok := pathID(w, r, "boardID")
	if !ok {
		return
	}

	var input domain.OrderUpdate
	if !decode(w, r, &input) {
		return
	}
	order, err := domain.ParseIDs("order", input.Order)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	saved, err := h.listService.UpdateListOrder(r.Context(), a, boardID, order)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.OK(w, map[string]any{"listOrderIds": saved})
}

// UpdateCardOrder handles replacing a list's card order
func (h *ListHandler) UpdateCardOrder(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	listID, ok := pathID(w, r, "listID")
	if !ok {
		return
	}

	var input domain.OrderUpdate
	if !decode(w, r, &input) {
		return
	}
	order, err := domain.ParseIDs("order", input.Order)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	saved, err := h.listService.UpdateCardOrder(r.Context(), a, listID, order)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.OK(w, map[string]any{"cardOrderIds": saved})
}
