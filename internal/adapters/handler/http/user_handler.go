package http

import (
	"net/http"

	"github.com/vncsmyrnk/pollstr/internal/core/domain"
	"github.com/vncsmyrnk/pollstr/internal/core/ports"
	"github.com/vncsmyrnk/pollstr/internal/core/session"
)

type UserHandler struct {
	service ports.UserService
	polls   ports.PollService
}

func NewUserHandler(service ports.UserService, polls ports.PollService) *UserHandler {
	return &UserHandler{
		service: service,
		polls:   polls,
	}
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetByID(r.Context(), session.UserFrom(r.Context()).ID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if user == nil {
		WriteError(w, r, domain.ErrUnauthenticated)
		return
	}

	JSONResponse(w, http.StatusOK, user)
}

func (h *UserHandler) MyPolls(w http.ResponseWriter, r *http.Request) {
	polls, err := h.polls.ListOwned(r.Context(), session.UserFrom(r.Context()).ID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, pollListResponse{Polls: emptyIfNil(polls), Limit: len(polls)})
}

func (h *UserHandler) MyVotes(w http.ResponseWriter, r *http.Request) {
	polls, err := h.polls.ListVotedBy(r.Context(), session.UserFrom(r.Context()).ID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, pollListResponse{Polls: emptyIfNil(polls), Limit: len(polls)})
}

func emptyIfNil(polls []*domain.Poll) []*domain.Poll {
	if polls == nil {
		return []*domain.Poll{}
	}
	return polls
}
