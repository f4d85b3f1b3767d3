package inbound

import (
	"github.com/shandysiswandi/levelup/internal/notification/usecase"
	"github.com/shandysiswandi/levelup/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc uc
}

// ListInbox returns the inbox of the authenticated learner.
// @Summary List inbox
// @Description Returns inbox notifications for the authenticated learner, newest first. Notifications missed while offline are read from here.
// @Tags Inbox
// @Security BearerAuth
// @Produce json
// @Param status query string false "Filter by status (all|read|unread)"
// @Param limit query int false "Pagination limit"
// @Param offset query int false "Pagination offset"
// @Success 200 {object} router.successResponse{data=NotificationsResponse} "Notification list"
// @Failure 400 {object} router.errorResponse "Invalid query parameters"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/inbox [get]
func (h *HTTPEndpoint) ListInbox(r *router.Request) (any, error) {
	limit, err := r.GetQueryInt32("limit")
	if err != nil {
		return nil, err
	}
	offset, err := r.GetQueryInt32("offset")
	if err != nil {
		return nil, err
	}

	out, err := h.uc.ListInbox(r.Context(), usecase.ListInboxInput{
		Status: r.GetQuery("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, err
	}

	resp := make([]NotificationResponse, 0, len(out.Items))
	for _, item := range out.Items {
		resp = append(resp, toNotificationResponse(item))
	}

	return NotificationsResponse{Notifications: resp, Unread: out.Unread}, nil
}

// MarkInboxRead marks a notification as read.
// @Summary Mark inbox read
// @Description Marks an inbox notification as read. Marking twice keeps the first read time.
// @Tags Inbox
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 204 "No Content"
// @Failure 400 {object} router.errorResponse "Invalid notification id"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 404 {object} router.errorResponse "Notification not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/inbox/{id}/read [patch]
func (h *HTTPEndpoint) MarkInboxRead(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	return nil, h.uc.MarkInboxRead(r.Context(), usecase.MarkInboxReadInput{ID: id})
}

// MarkAllInboxRead marks all notifications as read.
// @Summary Mark all inbox read
// @Tags Inbox
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=MarkAllReadResponse} "Updated count"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/inbox/read-all [put]
func (h *HTTPEndpoint) MarkAllInboxRead(r *router.Request) (any, error) {
	updated, err := h.uc.MarkAllInboxRead(r.Context())
	if err != nil {
		return nil, err
	}

	return MarkAllReadResponse{Updated: updated}, nil
}

// Announce sends a system notification to a list of learners.
// @Summary Announce
// @Description Creates a system notification for every recipient and pushes it to those connected.
// @Tags Notification
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body AnnounceRequest true "Announcement payload"
// @Success 201 {object} router.successResponse{data=AnnounceResponse} "Announcement created"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/announce [post]
func (h *HTTPEndpoint) Announce(r *router.Request) (any, error) {
	var req AnnounceRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.Announce(r.Context(), usecase.AnnounceInput{
		RecipientIDs: req.RecipientIDs,
		Title:        req.Title,
		Message:      req.Message,
		Payload:      req.Payload,
	})
	if err != nil {
		return nil, err
	}

	return AnnounceResponse{Created: out.Created, Delivered: out.Delivered}, nil
}
