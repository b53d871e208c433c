package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/valuesdao/internal/app/clients/llm"
	"github.com/dalemusser/valuesdao/internal/app/clients/neynar"
	"github.com/dalemusser/valuesdao/internal/app/clients/pinata"
	"github.com/dalemusser/valuesdao/internal/app/clients/twitter"
	alignmentfeature "github.com/dalemusser/valuesdao/internal/app/features/alignment"
	healthfeature "github.com/dalemusser/valuesdao/internal/app/features/health"
	mintframefeature "github.com/dalemusser/valuesdao/internal/app/features/mintframe"
	rosterfeature "github.com/dalemusser/valuesdao/internal/app/features/roster"
	usersfeature "github.com/dalemusser/valuesdao/internal/app/features/users"
	valuegenfeature "github.com/dalemusser/valuesdao/internal/app/features/valuegen"
	alignsvc "github.com/dalemusser/valuesdao/internal/app/services/alignment"
	"github.com/dalemusser/valuesdao/internal/app/services/mint"
	valuegensvc "github.com/dalemusser/valuesdao/internal/app/services/valuegen"
	apikeystore "github.com/dalemusser/valuesdao/internal/app/store/apikeys"
	metricsstore "github.com/dalemusser/valuesdao/internal/app/store/metrics"
	"github.com/dalemusser/valuesdao/internal/app/store/mintlocks"
	rosterstore "github.com/dalemusser/valuesdao/internal/app/store/roster"
	userstore "github.com/dalemusser/valuesdao/internal/app/store/users"
	"github.com/dalemusser/valuesdao/internal/app/system/auth"
	"github.com/dalemusser/valuesdao/internal/app/system/metrics"
	"github.com/dalemusser/valuesdao/internal/app/system/ratelimit"
	"github.com/dalemusser/valuesdao/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the clients, services and feature routers and
// mounts them on one chi router.
//
//	/health                         Mongo ping
//	/metrics                        Prometheus exposition
//	/api/alignment                  alignment ranking
//	/api/farcon, /api/farcon/aligned roster listing and merged view
//	/api/user, /api/value           user lookup and minted-value append (API key)
//	/api/v2/generate-user-value     value generation (API key)
//	/frames/ai/mint-values/{fid}    mint frame (only when a chain is configured)
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	if deps.Limiters == nil {
		return nil, errors.New("bootstrap: DBDeps.Limiters is nil")
	}
	db := deps.MongoDatabase
	m := metrics.New()
	m.Registry().MustRegister(metricsstore.NewCollector(db, timeouts.Short()))

	users := userstore.New(db)
	rosters := rosterstore.NewCatalog(db)
	keys := auth.NewValidator(apikeystore.New(db), logger)

	casts := neynar.New(appCfg.NeynarAPIKey, appCfg.NeynarBaseURL, appCfg.ExternalTimeout)
	tweets := twitter.New(context.Background(), twitter.Config{
		ClientID:     appCfg.TwitterClientID,
		ClientSecret: appCfg.TwitterClientSecret,
		BaseURL:      appCfg.TwitterBaseURL,
		MaxTweets:    appCfg.TwitterMaxTweets,
		Timeout:      appCfg.ExternalTimeout,
	})
	gen, err := llm.NewOpenAI(appCfg.OpenAIAPIKey, appCfg.OpenAIModel, appCfg.OpenAIBaseURL)
	if err != nil {
		logger.Error("language model init failed", zap.Error(err))
		return nil, err
	}

	scorer := alignsvc.NewScorer(users, rosters, m, logger)
	pipeline := valuegensvc.New(users, casts, tweets, gen, m, logger, valuegensvc.Options{
		MinItems:   appCfg.MinItems,
		CastLimit:  appCfg.CastLimit,
		MaxDiscard: appCfg.MaxDiscard,
	})

	r := chi.NewRouter()

	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.MongoClient, logger)))
	r.Handle("/metrics", m.Handler())

	alignmentHandler := alignmentfeature.NewHandler(scorer, logger)
	r.Mount("/api/alignment", alignmentfeature.Routes(alignmentHandler))

	rosterHandler := rosterfeature.NewHandler(rosters, scorer, logger)
	r.Mount("/api/farcon", rosterfeature.Routes(rosterHandler))

	usersHandler := usersfeature.NewHandler(users, logger)
	r.Mount("/api/user", usersfeature.Routes(usersHandler, keys.RequireScope))
	r.Mount("/api/value", usersfeature.ValueRoutes(usersHandler, keys.RequireScope))

	genLimit := deps.Limiters.New(appCfg.GenerateRatePerMinute, time.Minute)
	generateHandler := valuegenfeature.NewHandler(pipeline, logger)
	r.Mount("/api/v2/generate-user-value",
		valuegenfeature.Routes(generateHandler, keys.RequireScope, genLimit.Middleware(perAPIKey)))

	if deps.Chain == nil {
		logger.Warn("mint frame not mounted: no chain client")
		return r, nil
	}

	orchestrator := mint.New(mint.Deps{
		Users:   users,
		Locks:   mintlocks.New(db),
		Pinner:  pinata.New(appCfg.PinataJWT, appCfg.PinataBaseURL, appCfg.ExternalTimeout),
		Wallets: casts,
		Minter:  deps.Chain,
		Metrics: m,
		Log:     logger,
	}, mint.Links{
		PublicURL:     appCfg.PublicURL,
		TxExplorerURL: appCfg.TxExplorerURL,
		AppURL:        appCfg.AppURL,
	}, appCfg.MintLockTTL)

	mintLimit := deps.Limiters.New(appCfg.MintRatePerMinute, time.Minute)
	frameHandler := mintframefeature.NewHandler(orchestrator, logger)
	r.Mount("/frames/ai/mint-values", mintframefeature.Routes(frameHandler, mintLimit.Middleware(perFID)))

	return r, nil
}

// perAPIKey counts generation requests against the authenticated key.
func perAPIKey(r *http.Request) string {
	if k, ok := auth.CurrentKey(r); ok {
		return "key:" + k.Prefix
	}
	return "ip:" + ratelimit.ClientIP(r)
}

// perFID counts mint submissions against the fid being minted.
func perFID(r *http.Request) string {
	return "fid:" + chi.URLParam(r, "fid")
}
