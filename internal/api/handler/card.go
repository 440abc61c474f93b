package handler

import (
	"net/http"

	"github.com/Rrens/taskboard/internal/api/response"
	"github.com/Rrens/taskboard/internal/domain"
	"github.com/Rrens/taskboard/internal/service"
)

// CardHandler handles card endpoints
type CardHandler struct {
	cardService *service.CardService
}

// NewCardHandler creates a new card handler
func NewCardHandler(cardService *service.CardService) *CardHandler {
	return &CardHandler{cardService: cardService}
}

// Create handles card creation
func (h *CardHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	var input domain.CardCreate
	if !decode(w, r, &input) {
		return
	}

	card, err := h.cardService.Create(r.Context(), a, input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Created(w, card)
}

// ListCards handles listing a list's cards in order
func (h *CardHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	listID, ok := pathID(w, r, "listID")
	if !ok {
		return
	}

	cards, err := h.cardService.ListCards(r.Context(), a, listID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.OK(w, cards)
}

// Get handles getting a card by ID
func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}

	card, err := h.cardService.Get(r.Context(), a, id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.OK(w, card)
}

// Update handles updating a card
func (h *CardHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}

	var input domain.CardUpdate
	if !decode(w, r, &input) {
		return
	}

	card, err := h.cardService.Update(r.Context(), a, id, input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.OK(w, card)
}

// Move handles moving a card to another list or board
func (h *CardHandler) Move(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}

	var input domain.CardMove
	if !decode(w, r, &input) {
		return
	}

	card, err := h.cardService.Move(r.Context(), a, id, input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.OK(w, card)
}

// Delete handles deleting a card
func (h *CardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}

	if err := h.cardService.Delete(r.Context(), a, id); err != nil {
		response.FromError(w, r, err)
		return
	}

	response.NoContent(w)
}

// AddMember handles assigning a board member to a card
func (h *CardHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}

	var input domain.CardMemberAdd
	if !decode(w, r, &input) {
		return
	}

	card, err := h.cardService.AddMember(r.Context(), a, id, input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.OK(w, card)
}

// RemoveMember handles unassigning a user from a card
func (h *CardHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	card, err := h.cardService.RemoveMember(r.Context(), a, id, userID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.OK(w, card)
}

// Activities handles listing a card's activity log
func (h *CardHandler) Activities(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}

	activities, err := h.cardService.Activities(r.Context(), a, id, queryLimit(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.OK(w, activities)
}
