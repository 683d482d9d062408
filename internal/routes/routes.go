package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/poofware/locshare-service/internal/controllers"
	"github.com/poofware/locshare-service/internal/middleware"
)

const (
	// Health
	Health = "/health"

	// Public: registration and the challenge-response login
	Identities   = "/api/v1/identities"
	Challenges   = "/api/v1/challenges"
	Attestations = "/api/v1/attestations"

	// Bearer-authenticated
	Identity  = "/api/v1/identities/{fingerprint}"
	Groups    = "/api/v1/groups"
	Locations = "/api/v1/locations"
)

// Controllers bundles every handler the router mounts.
type Controllers struct {
	Health      *controllers.HealthController
	Identity    *controllers.IdentityController
	Attestation *controllers.AttestationController
	Group       *controllers.GroupController
	Location    *controllers.LocationController
}

// NewRouter mounts the public routes first, then everything that needs a
// bearer secret resolved by sessions.
func NewRouter(c Controllers, sessions middleware.SessionResolver) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc(Health, c.Health.HealthCheckHandler).Methods(http.MethodGet)

	router.HandleFunc(Identities, c.Identity.Register).Methods(http.MethodPost)
	router.HandleFunc(Challenges, c.Attestation.IssueChallenge).Methods(http.MethodPost)
	router.HandleFunc(Attestations, c.Attestation.SubmitAttestation).Methods(http.MethodPost)

	protected := router.NewRoute().Subrouter()
	protected.Use(middleware.AuthMiddleware(sessions))

	protected.HandleFunc(Identity, c.Identity.GetPublicKey).Methods(http.MethodGet)

	protected.HandleFunc(Groups, c.Group.CreateGroup).Methods(http.MethodPost)
	protected.HandleFunc(Groups, c.Group.ListGroups).Methods(http.MethodGet)
	protected.HandleFunc(Groups, c.Group.AddMembers).Methods(http.MethodPatch)

	protected.HandleFunc(Locations, c.Location.PublishUpdate).Methods(http.MethodPost)
	protected.HandleFunc(Locations, c.Location.FetchUpdates).Methods(http.MethodGet)

	return router
}
