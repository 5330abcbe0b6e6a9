package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/a-h/templ"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/NaimTheDev/devvit-trip-spin/internal/app"
	"github.com/NaimTheDev/devvit-trip-spin/internal/domain"
	"github.com/NaimTheDev/devvit-trip-spin/internal/game"
	"github.com/NaimTheDev/devvit-trip-spin/internal/viewmodel"
	"github.com/NaimTheDev/devvit-trip-spin/internal/views"
)

const (
	maxMessageLen   = 500
	defaultTripsMax = 20
)

// Handler serves the HTTP API. locations is the dataset picker behind
// /api/random-location and may be nil when no dataset is configured.
type Handler struct {
	svc       *app.TravelService
	locations game.DestinationPicker
	sessions  *game.Store
	logger    *slog.Logger
	upgrader  websocket.Upgrader
	now       func() time.Time
}

func NewHandler(svc *app.TravelService, locations game.DestinationPicker, sessions *game.Store, logger *slog.Logger) *Handler {
	return &Handler{
		svc:       svc,
		locations: locations,
		sessions:  sessions,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		now: time.Now,
	}
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)

	api := e.Group("/api")
	api.GET("/random-country", h.RandomCountry)
	api.GET("/random-location", h.RandomLocation)
	api.POST("/itinerary", h.Itinerary)
	api.POST("/share-trip", h.ShareTrip)
	api.GET("/shared-trips", h.SharedTrips)

	api.POST("/sessions", h.CreateSession)
	api.GET("/sessions/:id", h.GetSession)
	api.DELETE("/sessions/:id", h.DeleteSession)
	api.GET("/sessions/:id/view", h.ViewSession)
	api.GET("/sessions/:id/stream", h.Stream)
	api.POST("/sessions/:id/spin", h.Spin)
	api.POST("/sessions/:id/reset", h.Reset)
	api.POST("/sessions/:id/itinerary", h.SessionItinerary)
	api.POST("/sessions/:id/share", h.SessionShare)
}

func (h *Handler) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) RandomCountry(c echo.Context) error {
	return c.JSON(http.StatusOK, RandomCountryResponse{
		Type:    "random-country",
		Country: h.svc.RandomCountry(c.Request().Context()),
	})
}

func (h *Handler) RandomLocation(c echo.Context) error {
	if h.locations == nil {
		return mapError(c, domain.ErrNoDataset)
	}
	return c.JSON(http.StatusOK, h.locations.Pick(c.Request().Context()))
}

func (h *Handler) Itinerary(c echo.Context) error {
	var req ItineraryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	plan, err := h.svc.PlanTrip(c.Request().Context(), req.Country)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, ItineraryResponse{
		Type:               "itinerary",
		Country:            plan.Country,
		SubredditUsed:      plan.SubredditUsed,
		Posts:              plan.Posts,
		Comments:           plan.Comments,
		GeneratedItinerary: plan.Itinerary,
	})
}

func (h *Handler) ShareTrip(c echo.Context) error {
	failed := ShareTripResponse{Type: "share-trip"}

	var req ShareTripRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, failed)
	}
	if messageTooLong(req.PersonalMessage) {
		return c.JSON(http.StatusBadRequest, failed)
	}

	res, err := h.svc.ShareTrip(c.Request().Context(), domain.ShareRequest{
		Country:         req.Country,
		Itinerary:       req.Itinerary,
		PersonalMessage: req.PersonalMessage,
	})
	switch {
	case errors.Is(err, domain.ErrSharingDisabled):
		return c.JSON(http.StatusBadRequest, failed)
	case err != nil:
		h.logError(c, "share trip failed", err)
		return c.JSON(http.StatusInternalServerError, failed)
	}
	return c.JSON(http.StatusOK, ShareTripResponse{
		Type:    "share-trip",
		Success: res.Success,
		PostID:  res.PostID,
		PostURL: res.PostURL,
	})
}

func (h *Handler) SharedTrips(c echo.Context) error {
	limit := defaultTripsMax
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be an integer between 1 and 100"})
		}
		limit = n
	}
	trips, err := h.svc.RecentTrips(c.Request().Context(), limit)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, SharedTripsResponse{Trips: trips})
}

func (h *Handler) CreateSession(c echo.Context) error {
	sess := h.sessions.Create()
	return c.JSON(http.StatusCreated, SessionResponse{ID: sess.ID, State: sess.Coordinator.Snapshot().State})
}

func (h *Handler) GetSession(c echo.Context) error {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, h.page(sess))
}

func (h *Handler) DeleteSession(c echo.Context) error {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		return mapError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ViewSession(c echo.Context) error {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return mapError(c, err)
	}
	return render(c, http.StatusOK, views.Page(h.page(sess)))
}

func (h *Handler) Spin(c echo.Context) error {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return mapError(c, err)
	}
	accepted := sess.Coordinator.StartSpin(c.Request().Context())
	return h.respond(c, sess, ActionResponse{Accepted: accepted})
}

func (h *Handler) Reset(c echo.Context) error {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return mapError(c, err)
	}
	sess.Coordinator.ResetToIdle()
	return h.respond(c, sess, ActionResponse{Accepted: true})
}

func (h *Handler) SessionItinerary(c echo.Context) error {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return mapError(c, err)
	}
	it, err := sess.Coordinator.GetItinerary(c.Request().Context())
	if err != nil {
		return mapError(c, err)
	}
	return h.respond(c, sess, ActionResponse{Accepted: true, Itinerary: &it})
}

func (h *Handler) SessionShare(c echo.Context) error {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return mapError(c, err)
	}
	var req SessionShareRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if messageTooLong(req.PersonalMessage) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "personalMessage must be at most 500 characters"})
	}

	res, err := sess.Coordinator.ShareTrip(c.Request().Context(), req.PersonalMessage)
	if err != nil {
		return mapError(c, err)
	}
	return h.respond(c, sess, ActionResponse{Accepted: true, Share: &res})
}

func (h *Handler) page(sess *game.Session) viewmodel.Page {
	now := h.now()
	sess.Director.Sync(now)
	return viewmodel.Build(sess.Coordinator.Snapshot(), sess.Director.Frame(), viewmodel.Options{
		SessionID: sess.ID,
		CanShare:  h.svc.CanShare(),
		Now:       now,
	})
}

// respond answers form posts from the HTML view with a redirect back to it
// and everything else with JSON.
func (h *Handler) respond(c echo.Context, sess *game.Session, resp ActionResponse) error {
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationForm) {
		return c.Redirect(http.StatusSeeOther, "/api/sessions/"+sess.ID+"/view")
	}
	resp.Page = h.page(sess)
	return c.JSON(http.StatusOK, resp)
}

// messageTooLong counts characters, not bytes.
func messageTooLong(msg string) bool {
	return utf8.RuneCountInString(msg) > maxMessageLen
}

func (h *Handler) logError(c echo.Context, msg string, err error) {
	requestID, _ := c.Get("request_id").(string)
	h.logger.ErrorContext(c.Request().Context(), msg, "request_id", requestID, "error", err)
}

func render(c echo.Context, status int, component templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(status)
	return component.Render(c.Request().Context(), c.Response())
}

func mapError(c echo.Context, err error) error {
	status, msg := classifyError(err)
	if status >= http.StatusInternalServerError {
		requestID, _ := c.Get("request_id").(string)
		slog.Error(msg, "request_id", requestID, "error", err)
	}
	return c.JSON(status, ErrorResponse{Error: msg})
}

// classifyError maps an error to a status code and a message safe to show
// to clients.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrMissingCountry), errors.Is(err, domain.ErrSharingDisabled):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrNoDataset):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrNoItinerary), errors.Is(err, domain.ErrSuperseded):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrUpstreamCommunity), errors.Is(err, domain.ErrSubredditNotFound):
		return http.StatusBadGateway, "upstream community failure"
	case errors.Is(err, domain.ErrUpstreamLLM), errors.Is(err, domain.ErrInvalidLLMJSON):
		return http.StatusBadGateway, "upstream LLM failure"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
