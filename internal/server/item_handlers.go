package server

import (
	"net/http"

	"github.com/Tomlord1122/todo-items/internal/service"
)

func (s *Server) listItemsHandler(w http.ResponseWriter, r *http.Request) {
	todoID, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	f, ok := parseFilter(w, r)
	if !ok {
		return
	}

	items, err := s.itemService.ListItems(r.Context(), todoID, f)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithProjection(w, r, http.StatusOK, items, f)
}

func (s *Server) createItemHandler(w http.ResponseWriter, r *http.Request) {
	todoID, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	// id and todoId are not part of the request type, so the decoder
	// rejects them as unknown fields.
	var req service.CreateItemRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	item, err := s.itemService.CreateItem(r.Context(), todoID, req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, item)
}

func (s *Server) getItemHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	f, ok := parseFilter(w, r)
	if !ok {
		return
	}

	item, err := s.itemService.GetItem(r.Context(), id, f)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithProjection(w, r, http.StatusOK, item, f)
}

func (s *Server) updateItemHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var req service.UpdateItemRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if err := s.itemService.UpdateItem(r.Context(), id, req); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteItemHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	if err := s.itemService.DeleteItem(r.Context(), id); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
