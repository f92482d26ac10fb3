package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/advancedlearning/oauthd/internal/oauth/service"
	"github.com/advancedlearning/oauthd/internal/oauth/store"
	"github.com/advancedlearning/oauthd/pkg/httpx"
	"github.com/advancedlearning/oauthd/pkg/jwtx"
	"github.com/advancedlearning/oauthd/pkg/slogx"
)

// Scopes gating the administration endpoints.
const (
	ScopeAdminRead  = "admin:read"
	ScopeAdminWrite = "admin:write"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     *jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	cors         CORSConfig

	store            store.Store
	Validator        *service.TokenValidator
	TokenService     *service.TokenService
	ClientService    *service.ClientService
	ScopeService     *service.ScopeService
	UserService      *service.UserService
	BootstrapService *service.BootstrapService
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier *jwtx.Verifier,
	buildVersion string,
	cors CORSConfig,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		cors:         cors,
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) ApplyRoutes() {
	r.registerOAuth2()
	r.registerClients()
	r.registerScopes()
	r.registerUsers()
	r.registerBootstrap()
	r.registerSystem()
}

func (r *Router) registerOAuth2() {
	// The token handler owns its method dispatch: a disallowed verb must
	// produce this API's 405 shape, not the mux default.
	tokenHandler := &TokenHandler{TokenService: r.TokenService, CORS: r.cors}
	r.Mux.Handle("/v1/oauth2/token",
		httpx.Chain(tokenHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	revokeHandler := &RevokeHandler{
		TokenService: r.TokenService,
		Clients:      r.TokenService.Clients,
		Verifier:     r.verifier,
	}
	r.Mux.Handle("/v1/oauth2/revoke",
		httpx.Chain(revokeHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerClients() {
	h := &ClientsHandler{ClientService: r.ClientService}

	r.Mux.Handle("POST /v1/clients",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			AuthnMiddleware(r.Validator),
			RequireScope(ScopeAdminWrite),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /v1/clients",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			AuthnMiddleware(r.Validator),
			RequireScope(ScopeAdminRead),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/clients/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			AuthnMiddleware(r.Validator),
			RequireScope(ScopeAdminWrite),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("PUT /v1/clients/{id}/scopes",
		httpx.Chain(http.HandlerFunc(h.HandleSetScopes),
			AuthnMiddleware(r.Validator),
			RequireScope(ScopeAdminWrite),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerScopes() {
	h := &ScopesHandler{ScopeService: r.ScopeService}

	r.Mux.Handle("POST /v1/scopes",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			AuthnMiddleware(r.Validator),
			RequireScope(ScopeAdminWrite),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /v1/scopes",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			AuthnMiddleware(r.Validator),
			RequireScope(ScopeAdminRead),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/scopes/{name}",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			AuthnMiddleware(r.Validator),
			RequireScope(ScopeAdminWrite),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{UserService: r.UserService}

	r.Mux.Handle("POST /v1/users",
		httpx.Chain(http.HandlerFunc(h.HandleCreateUser),
			AuthnMiddleware(r.Validator),
			RequireScope(ScopeAdminWrite),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/groups",
		httpx.Chain(http.HandlerFunc(h.HandleCreateGroup),
			AuthnMiddleware(r.Validator),
			RequireScope(ScopeAdminWrite),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/groups/{id}/members",
		httpx.Chain(http.HandlerFunc(h.HandleAddMember),
			AuthnMiddleware(r.Validator),
			RequireScope(ScopeAdminWrite),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("PUT /v1/groups/{id}/scopes",
		httpx.Chain(http.HandlerFunc(h.HandleSetGroupScopes),
			AuthnMiddleware(r.Validator),
			RequireScope(ScopeAdminWrite),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerBootstrap() {
	h := &BootstrapHandler{BootstrapService: r.BootstrapService}
	r.Mux.Handle("POST /v1/bootstrap",
		httpx.Chain(h,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.store, r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
