package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type createCardRequest struct {
	Name string `json:"name"`
}

type updateCardRequest struct {
	Name       *string `json:"name,omitempty"`
	IsArchived *bool   `json:"isArchived,omitempty"`
}

type shareCardRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	card, err := s.cards.CreateCard(r.Context(), userIDFrom(r.Context()), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCardView(card))
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.cards.ListCards(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]cardView, len(cards))
	for i := range cards {
		views[i] = toCardView(&cards[i])
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.cards.GetCard(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "cardID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCardView(card))
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	var req updateCardRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	userID := userIDFrom(r.Context())
	cardID := chi.URLParam(r, "cardID")

	card, err := s.cards.GetCard(r.Context(), userID, cardID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if req.Name != nil {
		card, err = s.cards.RenameCard(r.Context(), userID, cardID, *req.Name)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}
	if req.IsArchived != nil {
		card, err = s.cards.SetArchived(r.Context(), userID, cardID, *req.IsArchived)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, toCardView(card))
}

func (s *Server) handleShareCard(w http.ResponseWriter, r *http.Request) {
	var req shareCardRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	grant, err := s.cards.ShareCard(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "cardID"), req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccessView(grant))
}

func (s *Server) handleListShares(w http.ResponseWriter, r *http.Request) {
	grants, err := s.cards.ListShares(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "cardID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]accessView, len(grants))
	for i := range grants {
		views[i] = toAccessView(&grants[i])
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleRevokeShare(w http.ResponseWriter, r *http.Request) {
	err := s.cards.RevokeShare(r.Context(), userIDFrom(r.Context()),
		chi.URLParam(r, "cardID"), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
