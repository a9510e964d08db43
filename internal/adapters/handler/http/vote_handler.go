package http

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/pollstr/internal/core/domain"
	"github.com/vncsmyrnk/pollstr/internal/core/ports"
	"github.com/vncsmyrnk/pollstr/internal/core/session"
)

type VoteHandler struct {
	service ports.VoteService
	tally   ports.TallyService
}

func NewVoteHandler(service ports.VoteService, tally ports.TallyService) *VoteHandler {
	return &VoteHandler{
		service: service,
		tally:   tally,
	}
}

type voteRequest struct {
	OptionID int64 `json:"option_id"`
}

type voteStatusResponse struct {
	PollID   int64 `json:"poll_id"`
	HasVoted bool  `json:"has_voted"`
}

// VoteOnPoll godoc
// @Summary      Casts the authenticated user's vote
// @Description  Returns the ballot in the voted state with fresh results. A second vote on the same poll is refused with 409.
// @Tags         votes
// @Accept       json
// @Produce      json
// @Success      201
// @Failure      400
// @Failure      401
// @Failure      404
// @Failure      409
// @Router       /api/polls/{id}/votes [post]
func (h *VoteHandler) VoteOnPoll(w http.ResponseWriter, r *http.Request) {
	pollID, err := pollIDParam(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var req voteRequest
	if err := parseJSONBody(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	if req.OptionID <= 0 {
		WriteError(w, r, domain.NewValidationError("option_id", "option_id is required"))
		return
	}

	ballot, err := h.service.Vote(r.Context(), ports.VoteInput{
		PollID:   pollID,
		OptionID: req.OptionID,
		UserID:   session.UserFrom(r.Context()).ID,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}

	JSONResponse(w, http.StatusCreated, ballot)
}

func (h *VoteHandler) VoteStatus(w http.ResponseWriter, r *http.Request) {
	pollID, err := pollIDParam(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	voted, err := h.service.HasVoted(r.Context(), pollID, session.UserFrom(r.Context()).ID)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	JSONResponse(w, http.StatusOK, voteStatusResponse{PollID: pollID, HasVoted: voted})
}

// Ballot serves the options to anonymous viewers and to signed in users who
// have not voted; everyone else gets the results.
func (h *VoteHandler) Ballot(w http.ResponseWriter, r *http.Request) {
	pollID, err := pollIDParam(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var viewer *uuid.UUID
	if user := session.UserFrom(r.Context()); user != nil {
		viewer = &user.ID
	}

	ballot, err := h.service.Ballot(r.Context(), pollID, viewer)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	JSONResponse(w, http.StatusOK, ballot)
}

func (h *VoteHandler) Results(w http.ResponseWriter, r *http.Request) {
	pollID, err := pollIDParam(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	results, err := h.tally.Results(r.Context(), pollID)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	JSONResponse(w, http.StatusOK, results)
}
