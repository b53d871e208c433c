// Package valuegen derives candidate values for a user from their recent
// posts and stores them under the source they came from.
package valuegen

import (
	"context"
	"errors"
	"fmt"

	userstore "github.com/dalemusser/valuesdao/internal/app/store/users"
	"github.com/dalemusser/valuesdao/internal/app/system/apperr"
	"github.com/dalemusser/valuesdao/internal/app/system/htmlsanitize"
	"github.com/dalemusser/valuesdao/internal/app/system/metrics"
	"github.com/dalemusser/valuesdao/internal/domain/identity"
	"github.com/dalemusser/valuesdao/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Defaults.
const (
	DefaultMinItems  = 100
	DefaultCastLimit = 200
	// Generated lists of this length or shorter are discarded.
	DefaultMaxDiscard = 2
)

// Reason codes for InsufficientContent errors.
const (
	ReasonInsufficientCasts  = "insufficient_casts"
	ReasonInsufficientTweets = "insufficient_tweets"
)

// UserStore is the part of the user store the pipeline writes through.
type UserStore interface {
	ResolveOrCreate(ctx context.Context, key identity.Key, email string) (*models.User, bool, error)
	SetGeneratedValues(ctx context.Context, id primitive.ObjectID, source string, values []string) (*models.User, error)
}

// CastFetcher returns up to limit of a Farcaster user's most recent casts.
type CastFetcher interface {
	FetchCasts(ctx context.Context, fid int64, limit int) ([]string, error)
}

// TweetFetcher returns the available tweets for a Twitter user id.
type TweetFetcher interface {
	FetchTweets(ctx context.Context, userID string) ([]string, error)
}

// Generator maps post texts to short value labels.
type Generator interface {
	GenerateValues(ctx context.Context, items []string) ([]string, error)
}

// Options tunes the pipeline thresholds. Zero fields take the defaults.
type Options struct {
	MinItems   int
	CastLimit  int
	MaxDiscard int
}

// Pipeline runs one generation per call. It holds no per-request state.
type Pipeline struct {
	users     UserStore
	casts     CastFetcher
	tweets    TweetFetcher
	generator Generator
	metrics   *metrics.Metrics
	log       *zap.Logger

	minItems   int
	castLimit  int
	maxDiscard int
}

func New(users UserStore, casts CastFetcher, tweets TweetFetcher, gen Generator, m *metrics.Metrics, logger *zap.Logger, opts Options) *Pipeline {
	p := &Pipeline{
		users:      users,
		casts:      casts,
		tweets:     tweets,
		generator:  gen,
		metrics:    m,
		log:        logger,
		minItems:   opts.MinItems,
		castLimit:  opts.CastLimit,
		maxDiscard: opts.MaxDiscard,
	}
	if p.minItems <= 0 {
		p.minItems = DefaultMinItems
	}
	if p.castLimit <= 0 {
		p.castLimit = DefaultCastLimit
	}
	if p.maxDiscard <= 0 {
		p.maxDiscard = DefaultMaxDiscard
	}
	return p
}

// Result is the outcome of a successful run.
type Result struct {
	User *models.User
	// Created reports that the user record was created by this run.
	Created bool
	// Persisted reports that generated values replaced the stored ones.
	Persisted bool
	// Generated is the generator output, whether or not it was persisted.
	Generated []string
}

// Generate resolves or creates the user for sel, fetches their posts from
// sel.Source and stores freshly generated values for that source.
//
// The user record exists after any call that gets past resolution, even when
// the corpus is too small. Values are written only when the corpus holds at
// least MinItems posts and the generator returns more than MaxDiscard values;
// a write replaces the previous values for that source.
func (p *Pipeline) Generate(ctx context.Context, sel identity.Selection) (*Result, error) {
	res, err := p.generate(ctx, sel)
	p.metrics.Generation(sel.Source, outcome(err, res))
	return res, err
}

func (p *Pipeline) generate(ctx context.Context, sel identity.Selection) (*Result, error) {
	if sel.Key == nil {
		return nil, apperr.BadRequestf("farcaster fid or Twitter handle is required")
	}

	user, created, err := p.users.ResolveOrCreate(ctx, sel.Key, sel.Email)
	if errors.Is(err, userstore.ErrIdentityConflict) {
		return nil, apperr.Wrap(apperr.Conflict, "email already belongs to another user", err)
	}
	if err != nil {
		p.log.Error("valuegen: resolve user", zap.String("identity", sel.Key.String()), zap.Error(err))
		return nil, apperr.InternalWrap("resolve user", err)
	}
	if created {
		p.log.Info("valuegen: created user", zap.String("identity", sel.Key.String()))
	}

	items, err := p.fetch(ctx, sel)
	if err != nil {
		return nil, err
	}

	generated, err := p.generator.GenerateValues(ctx, htmlsanitize.PlainTexts(items))
	if err != nil {
		p.log.Error("valuegen: generate", zap.String("identity", sel.Key.String()), zap.Error(err))
		return nil, apperr.InternalWrap("generate values", err)
	}

	res := &Result{User: user, Created: created, Generated: generated}
	if len(generated) <= p.maxDiscard {
		p.log.Info("valuegen: too few values, not saved",
			zap.String("identity", sel.Key.String()),
			zap.String("source", sel.Source),
			zap.Int("count", len(generated)))
		return res, nil
	}

	updated, err := p.users.SetGeneratedValues(ctx, user.ID, sel.Source, generated)
	if err != nil {
		p.log.Error("valuegen: save values", zap.String("identity", sel.Key.String()), zap.Error(err))
		return nil, apperr.InternalWrap("save values", err)
	}
	res.User = updated
	res.Persisted = true
	return res, nil
}

// fetch loads the corpus for the selected source and enforces the minimum size.
func (p *Pipeline) fetch(ctx context.Context, sel identity.Selection) ([]string, error) {
	var (
		items  []string
		err    error
		reason string
		noun   string
	)
	switch k := sel.Key.(type) {
	case identity.FID:
		items, err = p.casts.FetchCasts(ctx, k.ID, p.castLimit)
		reason, noun = ReasonInsufficientCasts, "casts"
	case identity.Twitter:
		items, err = p.tweets.FetchTweets(ctx, k.UserID)
		reason, noun = ReasonInsufficientTweets, "tweets"
	default:
		return nil, apperr.BadRequestf("farcaster fid or Twitter handle is required")
	}
	if err != nil {
		p.log.Error("valuegen: fetch content",
			zap.String("identity", sel.Key.String()),
			zap.String("source", sel.Source),
			zap.Error(err))
		return nil, apperr.InternalWrap("fetch "+noun, err)
	}
	if len(items) < p.minItems {
		return nil, apperr.Insufficient(reason, fmt.Sprintf("User has less than %d %s", p.minItems, noun))
	}
	return items, nil
}

func outcome(err error, res *Result) string {
	switch {
	case err == nil && res.Persisted:
		return metrics.OutcomeOK
	case err == nil:
		return metrics.OutcomeSkipped
	case apperr.Is(err, apperr.InsufficientContent):
		return metrics.OutcomeInsufficient
	case apperr.Is(err, apperr.BadRequest):
		return metrics.OutcomeBadRequest
	case apperr.Is(err, apperr.Conflict):
		return metrics.OutcomeConflict
	default:
		return metrics.OutcomeError
	}
}
