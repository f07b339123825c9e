package main

import (
	"log/slog"
	"net/http"

	"github.com/launchpath/backend/internal/auth"
	"github.com/launchpath/backend/internal/handlers"
	"github.com/launchpath/backend/internal/middleware"
	"github.com/launchpath/backend/internal/notify"
	"github.com/launchpath/backend/internal/repository"
	"github.com/launchpath/backend/internal/services"
)

type v1Deps struct {
	AuthSvc       auth.Service
	Accounts      *repository.AccountRepo
	Profiles      *repository.ProfileRepo
	Opportunities *repository.OpportunityRepo
	Credits       *repository.CreditRepo
	Unlocks       *repository.UnlockRepo
	Applications  *repository.ApplicationRepo
	Tier          *services.TierPolicy
	Gate          *services.AccessGate
	Selector      *services.PicksSelector
	Notifier      *notify.Notifier
	Logger        *slog.Logger
}

// RegisterV1Routes adds the /v1/ engine endpoints to the given mux.
// Middleware chain: BearerAuth -> handler.
func RegisterV1Routes(mux *http.ServeMux, deps v1Deps) {
	feed := &handlers.FeedHandler{
		Profiles:      deps.Profiles,
		Opportunities: deps.Opportunities,
		Applications:  deps.Applications,
		Unlocks:       deps.Unlocks,
		Selector:      deps.Selector,
		Logger:        deps.Logger,
	}
	unlock := &handlers.UnlockHandler{
		Gate:     deps.Gate,
		Notifier: deps.Notifier,
		Logger:   deps.Logger,
	}
	apply := &handlers.ApplyHandler{
		Quota:         deps.Tier,
		Opportunities: deps.Opportunities,
		Applications:  deps.Applications,
		Unlocks:       deps.Unlocks,
		Notifier:      deps.Notifier,
		Logger:        deps.Logger,
	}
	quota := &handlers.QuotaHandler{Quota: deps.Tier, Logger: deps.Logger}
	account := &handlers.AccountHandler{Transactions: deps.Credits, Logger: deps.Logger}

	withAuth := middleware.BearerAuth(deps.AuthSvc, deps.Accounts)

	mux.Handle("GET /v1/feed", withAuth(http.HandlerFunc(feed.Feed)))
	mux.Handle("POST /v1/opportunities/{id}/unlock", withAuth(http.HandlerFunc(unlock.Unlock)))
	mux.Handle("POST /v1/opportunities/{id}/apply", withAuth(http.HandlerFunc(apply.Apply)))
	mux.Handle("GET /v1/quota", withAuth(http.HandlerFunc(quota.Check)))
	mux.Handle("GET /v1/account/me", withAuth(http.HandlerFunc(account.Me)))
	mux.Handle("GET /v1/credit-ledger", withAuth(http.HandlerFunc(account.ListTransactions)))
}
