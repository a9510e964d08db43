package http

import (
	"net/http"

	"github.com/vncsmyrnk/pollstr/internal/core/domain"
	"github.com/vncsmyrnk/pollstr/internal/core/ports"
	"github.com/vncsmyrnk/pollstr/internal/core/session"
)

type PollHandler struct {
	service ports.PollService
}

func NewPollHandler(service ports.PollService) *PollHandler {
	return &PollHandler{
		service: service,
	}
}

type createPollRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Options     []string `json:"options"`
}

type updatePollRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type pollListResponse struct {
	Polls  []*domain.Poll `json:"polls"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// CreatePoll godoc
// @Summary      Creates a poll
// @Description  Creates a poll owned by the authenticated user. Blank options are discarded; 2 to 20 must remain.
// @Tags         polls
// @Accept       json
// @Produce      json
// @Success      201
// @Failure      400
// @Failure      401
// @Router       /api/polls [post]
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req createPollRequest
	if err := parseJSONBody(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	user := session.UserFrom(r.Context())
	poll, err := h.service.Create(r.Context(), ports.CreatePollInput{
		Title:       req.Title,
		Description: req.Description,
		Options:     req.Options,
		OwnerID:     user.ID,
		OwnerName:   user.Name,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}

	JSONResponse(w, http.StatusCreated, poll)
}

// ListPolls godoc
// @Summary      Lists polls, newest first
// @Description  Either `page` (1-based, 20 per page) or `limit`/`offset`.
// @Tags         polls
// @Produce      json
// @Success      200
// @Failure      400
// @Router       /api/polls [get]
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	input, err := listInput(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	polls, err := h.service.ListPolls(r.Context(), input)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	if input.Limit <= 0 {
		input.Limit = ports.DefaultPageSize
	}
	JSONResponse(w, http.StatusOK, pollListResponse{Polls: emptyIfNil(polls), Limit: input.Limit, Offset: input.Offset})
}

func listInput(r *http.Request) (ports.ListPollsInput, error) {
	page, hasPage, err := queryInt(r, "page")
	if err != nil {
		return ports.ListPollsInput{}, err
	}
	if hasPage {
		if page < 1 {
			return ports.ListPollsInput{}, domain.NewValidationError("page", "page must be at least 1")
		}
		return ports.ListPollsInput{Limit: ports.DefaultPageSize, Offset: (page - 1) * ports.DefaultPageSize}, nil
	}

	limit, _, err := queryInt(r, "limit")
	if err != nil {
		return ports.ListPollsInput{}, err
	}
	offset, _, err := queryInt(r, "offset")
	if err != nil {
		return ports.ListPollsInput{}, err
	}
	if limit > ports.MaxPageSize {
		limit = ports.MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return ports.ListPollsInput{Limit: limit, Offset: offset}, nil
}

func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	id, err := pollIDParam(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	poll, err := h.service.GetPoll(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if poll == nil {
		WriteError(w, r, domain.ErrPollNotFound)
		return
	}

	JSONResponse(w, http.StatusOK, poll)
}

func (h *PollHandler) UpdatePoll(w http.ResponseWriter, r *http.Request) {
	id, err := pollIDParam(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var req updatePollRequest
	if err := parseJSONBody(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	poll, err := h.service.Update(r.Context(), ports.UpdatePollInput{
		ID:          id,
		Actor:       session.UserFrom(r.Context()).ID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}

	JSONResponse(w, http.StatusOK, poll)
}

func (h *PollHandler) DeletePoll(w http.ResponseWriter, r *http.Request) {
	id, err := pollIDParam(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), id, session.UserFrom(r.Context()).ID); err != nil {
		WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
