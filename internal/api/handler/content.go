package handler

import (
	"net/http"

	"github.com/Rrens/taskboard/internal/api/response"
	"github.com/Rrens/taskboard/internal/domain"
	"github.com/Rrens/taskboard/internal/service"
)

// ContentHandler handles comments, notes and checklists embedded in cards
type ContentHandler struct {
	contentService   *service.ContentService
	checklistService *service.ChecklistService
}

// NewContentHandler creates a new card content handler
func NewContentHandler(contentService *service.ContentService, checklistService *service.ChecklistService) *ContentHandler {
	return &ContentHandler{contentService: contentService, checklistService: checklistService}
}

// AddComment handles adding a comment to a card
func (h *ContentHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	cardID, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}

	var input domain.CommentCreate
	if !decode(w, r, &input) {
		return
	}

	comment, err := h.contentService.AddComment(r.Context(), a, cardID, input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Created(w, comment)
}

// HideComment handles hiding the caller's own comment
func (h *ContentHandler) HideComment(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	cardID, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "commentID")
	if !ok {
		return
	}

	if err := h.contentService.HideComment(r.Context(), a, cardID, commentID); err != nil {
		response.FromError(w, r, err)
		return
	}

	response.NoContent(w)
}

// AddNote handles adding a note to a card
func (h *ContentHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	cardID, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}

	var input domain.NoteCreate
	if !decode(w, r, &input) {
		return
	}

	note, err := h.contentService.AddNote(r.Context(), a, cardID, input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Created(w, note)
}

// HideNote handles hiding the caller's own note
func (h *ContentHandler) HideNote(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	cardID, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}
	noteID, ok := pathID(w, r, "noteID")
	if !ok {
		return
	}

	if err := h.contentService.HideNote(r.Context(), a, cardID, noteID); err != nil {
		response.FromError(w, r, err)
		return
	}

	response.NoContent(w)
}

// AddChecklist handles adding a checklist to a card
func (h *ContentHandler) AddChecklist(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	cardID, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}

	var input domain.ChecklistCreate
	if !decode(w, r, &input) {
		return
	}

	checklist, err := h.checklistService.AddChecklist(r.Context(), a, cardID, input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Created(w, checklist)
}

// EditChecklist handles renaming a checklist
func (h *ContentHandler) EditChecklist(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	cardID, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}
	checklistID, ok := pathID(w, r, "checklistID")
	if !ok {
		return
	}

	var input domain.ChecklistCreate
	if !decode(w, r, &input) {
		return
	}

	checklist, err := h.checklistService.EditChecklist(r.Context(), a, cardID, checklistID, input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.OK(w, checklist)
}

// DeleteChecklist handles deleting a checklist
func (h *ContentHandler) DeleteChecklist(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	cardID, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}
	checklistID, ok := pathID(w, r, "checklistID")
	if !ok {
		return
	}

	if err := h.checklistService.DeleteChecklist(r.Context(), a, cardID, checklistID); err != nil {
		response.FromError(w, r, err)
		return
	}

	response.NoContent(w)
}

// AddChecklistItem handles adding an item to a checklist
func (h *ContentHandler) AddChecklistItem(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	cardID, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}
	checklistID, ok := pathID(w, r, "checklistID")
	if !ok {
		return
	}

	var input domain.ChecklistItemCreate
	if !decode(w, r, &input) {
		return
	}

	result, err := h.checklistService.AddChecklistItem(r.Context(), a, cardID, checklistID, input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Created(w, result)
}

// EditChecklistItem handles editing the text of an item
func (h *ContentHandler) EditChecklistItem(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	cardID, checklistID, itemID, ok := itemPath(w, r)
	if !ok {
		return
	}

	var input domain.ChecklistItemUpdate
	if !decode(w, r, &input) {
		return
	}

	result, err := h.checklistService.EditChecklistItem(r.Context(), a, cardID, checklistID, itemID, input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.OK(w, result)
}

// ToggleChecklistItem handles flipping the completed flag of an item
func (h *ContentHandler) ToggleChecklistItem(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	cardID, checklistID, itemID, ok := itemPath(w, r)
	if !ok {
		return
	}

	var input domain.VersionGuard
	if !decodeOptional(w, r, &input) {
		return
	}

	result, err := h.checklistService.ToggleChecklistItem(r.Context(), a, cardID, checklistID, itemID, input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.OK(w, result)
}

// DeleteChecklistItem handles deleting an item
func (h *ContentHandler) DeleteChecklistItem(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	cardID, checklistID, itemID, ok := itemPath(w, r)
	if !ok {
		return
	}

	var input domain.VersionGuard
	if !decodeOptional(w, r, &input) {
		return
	}

	result, err := h.checklistService.DeleteChecklistItem(r.Context(), a, cardID, checklistID, itemID, input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.OK(w, result)
}
