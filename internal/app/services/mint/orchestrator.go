// Package mint turns a user's generated values into pinned metadata and a
// single on-chain batch mint.
//
// A mint attempt moves Preview -> Minting -> Minted. Preview is read-only.
// Minting is guarded by a per-fid lock so two attempts for the same user
// cannot both reach the chain. Minted is terminal; minting again starts a
// new attempt.
package mint

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	userstore "github.com/dalemusser/valuesdao/internal/app/store/users"
	"github.com/dalemusser/valuesdao/internal/app/system/apperr"
	"github.com/dalemusser/valuesdao/internal/app/system/metrics"
	"github.com/dalemusser/valuesdao/internal/domain/identity"
	"github.com/dalemusser/valuesdao/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultLockTTL bounds how long a crashed attempt can block the next one.
// It is longer than the default mint request timeout so a healthy attempt
// finishes before its lock can be taken over.
const DefaultLockTTL = 4 * time.Minute

// UserReader loads a user by identity.
type UserReader interface {
	Get(ctx context.Context, key identity.Key) (*models.User, error)
}

// Locker serializes mint attempts per fid.
type Locker interface {
	Acquire(ctx context.Context, fid int64, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, fid int64, token string) error
}

// Pinner uploads a value batch and returns the content id addressing it.
type Pinner interface {
	PinValues(ctx context.Context, fid int64, values []string) (cid string, err error)
}

// AddressResolver returns the wallet that receives a fid's tokens.
type AddressResolver interface {
	AddressForFID(ctx context.Context, fid int64) (string, error)
}

// Minter submits the batch mint transaction and returns its hash.
type Minter interface {
	BatchMint(ctx context.Context, to string, cid string) (txHash string, err error)
}

// Links configures the URLs embedded in frame views.
type Links struct {
	// PublicURL is this service's external base URL, used for frame images
	// and post targets.
	PublicURL string
	// TxExplorerURL is prefixed to a transaction hash.
	TxExplorerURL string
	// AppURL is the application the minted view links back to.
	AppURL string
}

// Preview is the render descriptor of the entry state.
type Preview struct {
	FID      int64
	Values   []string
	ImageURL string
	PostURL  string
}

// Minted is the render descriptor of the terminal state.
type Minted struct {
	AttemptID string
	FID       int64
	Values    []string
	CID       string
	Wallet    string
	TxHash    string
	TxURL     string
	AppURL    string
	ImageURL  string
}

// Orchestrator runs mint attempts. It is safe for concurrent use; all state
// lives in the collaborators.
type Orchestrator struct {
	users   UserReader
	locks   Locker
	pinner  Pinner
	wallets AddressResolver
	minter  Minter
	links   Links
	lockTTL time.Duration
	metrics *metrics.Metrics
	log     *zap.Logger
}

// Deps groups the orchestrator's collaborators.
type Deps struct {
	Users   UserReader
	Locks   Locker
	Pinner  Pinner
	Wallets AddressResolver
	Minter  Minter
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

func New(d Deps, links Links, lockTTL time.Duration) *Orchestrator {
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	links.PublicURL = strings.TrimRight(links.PublicURL, "/")
	return &Orchestrator{
		users:   d.Users,
		locks:   d.Locks,
		pinner:  d.Pinner,
		wallets: d.Wallets,
		minter:  d.Minter,
		links:   links,
		lockTTL: lockTTL,
		metrics: d.Metrics,
		log:     d.Log,
	}
}

// Preview builds the preview view from the user's stored warpcast values.
// It never fails: a missing user or missing values yield an empty preview.
func (o *Orchestrator) Preview(ctx context.Context, fid int64) Preview {
	p := Preview{FID: fid, PostURL: o.postURL(fid)}
	values, err := o.values(ctx, fid)
	if err != nil {
		if !apperr.Is(err, apperr.NotFound) {
			o.log.Warn("mint preview: values unavailable", zap.Int64("fid", fid), zap.Error(err))
		}
		return p
	}
	p.Values = values
	if len(values) > 0 {
		p.ImageURL = o.imageURL("3", values)
	}
	return p
}

// Mint runs a full attempt for fid: re-read values, pin them, resolve the
// wallet and submit exactly one batch mint. Any failure before submission
// aborts the attempt without touching the chain. A pinned batch left behind
// by a later failure is not cleaned up.
//
// A concurrent attempt for the same fid fails with Conflict. The attempt
// never runs past its lock's lifetime, whatever deadline ctx carries.
func (o *Orchestrator) Mint(ctx context.Context, fid int64) (*Minted, error) {
	m, err := o.mint(ctx, fid)
	o.metrics.Mint(mintOutcome(err))
	return m, err
}

func (o *Orchestrator) mint(ctx context.Context, fid int64) (*Minted, error) {
	if fid <= 0 {
		return nil, apperr.BadRequestf("fid must be a positive integer")
	}
	attempt := uuid.NewString()
	log := o.log.With(zap.Int64("fid", fid), zap.String("attempt", attempt))

	// Taken before Acquire so the work deadline never falls after the
	// lock's expiry.
	deadline := time.Now().Add(o.lockTTL)
	token, ok, err := o.locks.Acquire(ctx, fid, o.lockTTL)
	if err != nil {
		log.Error("mint: acquire lock", zap.Error(err))
		return nil, apperr.InternalWrap("acquire mint lock", err)
	}
	if !ok {
		log.Info("mint: attempt already in progress")
		return nil, apperr.New(apperr.Conflict, "a mint for this fid is already in progress")
	}
	defer func() {
		// Release on a fresh context so a canceled request still frees the lock.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := o.locks.Release(rctx, fid, token); err != nil {
			log.Warn("mint: release lock", zap.Error(err))
		}
	}()

	// An expired lock is treated as stale by the next attempt, so this one
	// must stop by then.
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	values, err := o.values(ctx, fid)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, apperr.BadRequestf("no generated values to mint for fid %d", fid)
	}

	cid, err := o.pinner.PinValues(ctx, fid, values)
	if err != nil {
		log.Error("mint: pin values", zap.Error(err))
		o.metrics.Upload(metrics.OutcomeError)
		return nil, apperr.InternalWrap("upload metadata", err)
	}
	o.metrics.Upload(metrics.OutcomeOK)

	wallet, err := o.wallets.AddressForFID(ctx, fid)
	if err != nil {
		log.Error("mint: resolve wallet", zap.String("cid", cid), zap.Error(err))
		return nil, apperr.InternalWrap("resolve wallet", err)
	}
	if wallet == "" {
		log.Error("mint: no wallet for fid", zap.String("cid", cid))
		return nil, apperr.New(apperr.Internal, "no wallet address for fid")
	}

	hash, err := o.minter.BatchMint(ctx, wallet, cid)
	if err != nil {
		log.Error("mint: submit transaction", zap.String("cid", cid), zap.String("wallet", wallet), zap.Error(err))
		return nil, apperr.InternalWrap("submit mint transaction", err)
	}
	log.Info("mint: submitted", zap.String("cid", cid), zap.String("wallet", wallet), zap.String("tx_hash", hash))

	return &Minted{
		AttemptID: attempt,
		FID:       fid,
		Values:    values,
		CID:       cid,
		Wallet:    wallet,
		TxHash:    hash,
		TxURL:     o.links.TxExplorerURL + hash,
		AppURL:    o.links.AppURL,
		ImageURL:  o.imageURL("4", nil),
	}, nil
}

// values always reads the store; previews are never reused for minting.
func (o *Orchestrator) values(ctx context.Context, fid int64) ([]string, error) {
	u, err := o.users.Get(ctx, identity.FID{ID: fid})
	if errors.Is(err, userstore.ErrNotFound) {
		return nil, apperr.NotFoundf("User not found")
	}
	if err != nil {
		return nil, apperr.InternalWrap("load user", err)
	}
	return u.AIGeneratedValues.ForSource(models.SourceWarpcast), nil
}

func (o *Orchestrator) imageURL(section string, values []string) string {
	q := url.Values{}
	q.Set("section", section)
	if len(values) > 0 {
		q.Set("values", strings.Join(values, ","))
	}
	return o.links.PublicURL + "/frames/ai/image?" + q.Encode()
}

func (o *Orchestrator) postURL(fid int64) string {
	return o.links.PublicURL + "/frames/ai/mint-values/" + strconv.FormatInt(fid, 10)
}

func mintOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case apperr.Is(err, apperr.Conflict):
		return metrics.OutcomeConflict
	case apperr.Is(err, apperr.NotFound):
		return metrics.OutcomeNotFound
	case apperr.Is(err, apperr.BadRequest):
		return metrics.OutcomeBadRequest
	default:
		return metrics.OutcomeError
	}
}
