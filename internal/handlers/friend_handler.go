package handlers

import (
	"net/http"

	"github.com/mroshb/friends_api/internal/models"
)

// HandleSendRequest handles POST /friends/request
func (h *HandlerManager) HandleSendRequest(w http.ResponseWriter, r *http.Request) {
	var req models.FriendUsernameRequest
	if err := decodeInput(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	request, err := h.FriendSvc.SendRequest(r.Context(), currentUserID(r), req.UsernameTo)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, request)
}

// HandleAcceptRequest handles POST /friends/accept?request_id=
func (h *HandlerManager) HandleAcceptRequest(w http.ResponseWriter, r *http.Request) {
	id, err := requestID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.FriendSvc.AcceptRequest(r.Context(), id, currentUserID(r)); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "friend request accepted"})
}

// HandleDeclineRequest handles DELETE /friends/decline?request_id=
func (h *HandlerManager) HandleDeclineRequest(w http.ResponseWriter, r *http.Request) {
	id, err := requestID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	removed, err := h.FriendSvc.DeclineRequest(r.Context(), id, currentUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.RemovalResponse{Message: "friend request declined", Removed: removed})
}

// HandleCancelRequest handles DELETE /friends/dell
func (h *HandlerManager) HandleCancelRequest(w http.ResponseWriter, r *http.Request) {
	var req models.FriendUsernameRequest
	if err := decodeInput(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	removed, err := h.FriendSvc.CancelRequest(r.Context(), currentUserID(r), req.UsernameTo)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.RemovalResponse{Message: "friend request cancelled", Removed: removed})
}

// HandleRemoveFriend handles DELETE /friends/del_friend
func (h *HandlerManager) HandleRemoveFriend(w http.ResponseWriter, r *http.Request) {
	var req models.FriendUsernameRequest
	if err := decodeInput(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.FriendSvc.RemoveFriend(r.Context(), currentUserID(r), req.UsernameTo); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "friend removed"})
}

// HandleListFriends handles GET /friends/all_friends
func (h *HandlerManager) HandleListFriends(w http.ResponseWriter, r *http.Request) {
	friends, err := h.FriendSvc.ListFriends(r.Context(), currentUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]models.UserResponse, 0, len(friends))
	for i := range friends {
		out = append(out, friends[i].ToPublicResponse())
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleListSentRequests handles GET /friends/sent_requests
func (h *HandlerManager) HandleListSentRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.FriendSvc.ListSentRequests(r.Context(), currentUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

// HandleListIncomingRequests handles GET /friends/incoming_requests
func (h *HandlerManager) HandleListIncomingRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.FriendSvc.ListIncomingRequests(r.Context(), currentUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}
