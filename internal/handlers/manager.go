package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mroshb/friends_api/internal/metrics"
	"github.com/mroshb/friends_api/internal/middleware"
	"github.com/mroshb/friends_api/internal/services"
)

type HandlerManager struct {
	AuthSvc      *services.AuthService
	FriendSvc    *services.FriendService
	Tokens       middleware.TokenDecoder
	RateLimiter  *middleware.RateLimiter
	CookieSecure bool
}

func NewHandlerManager(
	authSvc *services.AuthService,
	friendSvc *services.FriendService,
	tokens middleware.TokenDecoder,
	rateLimiter *middleware.RateLimiter,
	cookieSecure bool,
) *HandlerManager {
	return &HandlerManager{
		AuthSvc:      authSvc,
		FriendSvc:    friendSvc,
		Tokens:       tokens,
		RateLimiter:  rateLimiter,
		CookieSecure: cookieSecure,
	}
}

// Router builds the full HTTP surface
func (h *HandlerManager) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.StripSlashes)
	r.Use(metrics.Instrument)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	authn := middleware.Authenticate(h.Tokens)

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.RateLimiter.LimitIP)
			r.Post("/register", h.HandleRegister)
			r.Post("/login", h.HandleLogin)
			r.Get("/verify-email", h.HandleVerifyEmail)
			r.Post("/verify-email", h.HandleVerifyEmail)
			r.Post("/resend-verification", h.HandleResendVerification)
		})

		r.Get("/logout", h.HandleLogout)
		r.Post("/logout", h.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(authn, h.RateLimiter.LimitUser)
			r.Get("/me", h.HandleMe)
			r.Post("/del", h.HandleDeleteAccount)
			r.Delete("/del", h.HandleDeleteAccount)
		})
	})

	r.Route("/friends", func(r chi.Router) {
		r.Use(authn, h.RateLimiter.LimitUser)
		r.Post("/request", h.HandleSendRequest)
		r.Post("/accept", h.HandleAcceptRequest)
		r.Get("/all_friends", h.HandleListFriends)
		r.Get("/sent_requests", h.HandleListSentRequests)
		r.Get("/incoming_requests", h.HandleListIncomingRequests)
		r.Delete("/dell", h.HandleCancelRequest)
		r.Delete("/decline", h.HandleDeclineRequest)
		r.Delete("/del_friend", h.HandleRemoveFriend)
	})

	return r
}
