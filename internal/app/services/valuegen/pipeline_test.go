package valuegen_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dalemusser/valuesdao/internal/app/services/valuegen"
	userstore "github.com/dalemusser/valuesdao/internal/app/store/users"
	"github.com/dalemusser/valuesdao/internal/app/system/apperr"
	"github.com/dalemusser/valuesdao/internal/domain/identity"
	"github.com/dalemusser/valuesdao/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// memUsers is an in-memory user store keyed by identity string.
type memUsers struct {
	byKey      map[string]*models.User
	resolveErr error
	setErr     error
	setCalls   int
}

func newMemUsers() *memUsers { return &memUsers{byKey: map[string]*models.User{}} }

func (m *memUsers) ResolveOrCreate(_ context.Context, key identity.Key, email string) (*models.User, bool, error) {
	if m.resolveErr != nil {
		return nil, false, m.resolveErr
	}
	if u, ok := m.byKey[key.String()]; ok {
		return u, false, nil
	}
	u := &models.User{ID: primitive.NewObjectID()}
	if email != "" {
		u.Email = &email
	}
	m.byKey[key.String()] = u
	return u, true, nil
}

func (m *memUsers) SetGeneratedValues(_ context.Context, id primitive.ObjectID, source string, values []string) (*models.User, error) {
	m.setCalls++
	if m.setErr != nil {
		return nil, m.setErr
	}
	for _, u := range m.byKey {
		if u.ID != id {
			continue
		}
		switch source {
		case models.SourceWarpcast:
			u.AIGeneratedValues.Warpcast = values
		case models.SourceTwitter:
			u.AIGeneratedValues.Twitter = values
		}
		return u, nil
	}
	return nil, userstore.ErrNotFound
}

type fakeCasts struct {
	n         int
	err       error
	lastLimit int
}

func (f *fakeCasts) FetchCasts(_ context.Context, _ int64, limit int) ([]string, error) {
	f.lastLimit = limit
	return posts(f.n), f.err
}

type fakeTweets struct {
	n          int
	lastUserID string
}

func (f *fakeTweets) FetchTweets(_ context.Context, userID string) ([]string, error) {
	f.lastUserID = userID
	return posts(f.n), nil
}

type fakeGenerator struct {
	out   [][]string
	calls int
	err   error
	seen  []string
}

func (f *fakeGenerator) GenerateValues(_ context.Context, items []string) ([]string, error) {
	f.seen = items
	if f.err != nil {
		return nil, f.err
	}
	out := f.out[f.calls%len(f.out)]
	f.calls++
	return out, nil
}

func posts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("<p>post %d</p>", i)
	}
	return out
}

func fidSelection(t *testing.T, fid string) identity.Selection {
	t.Helper()
	sel, err := identity.ForGeneration("", fid, "", "")
	require.NoError(t, err)
	return sel
}

func TestGenerate_PersistsWarpcastValues(t *testing.T) {
	users := newMemUsers()
	casts := &fakeCasts{n: 150}
	gen := &fakeGenerator{out: [][]string{{"honesty", "courage", "curiosity"}}}
	p := valuegen.New(users, casts, &fakeTweets{}, gen, nil, zap.NewNop(), valuegen.Options{})

	res, err := p.Generate(context.Background(), fidSelection(t, "3"))
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.True(t, res.Persisted)
	assert.Equal(t, []string{"honesty", "courage", "curiosity"}, res.User.AIGeneratedValues.Warpcast)
	assert.Equal(t, valuegen.DefaultCastLimit, casts.lastLimit)
	assert.Equal(t, "post 0", gen.seen[0], "markup is stripped before generation")
}

func TestGenerate_InsufficientCasts(t *testing.T) {
	users := newMemUsers()
	gen := &fakeGenerator{out: [][]string{{"a", "b", "c"}}}
	p := valuegen.New(users, &fakeCasts{n: 99}, &fakeTweets{}, gen, nil, zap.NewNop(), valuegen.Options{})

	_, err := p.Generate(context.Background(), fidSelection(t, "3"))
	require.Error(t, err)
	assert.Equal(t, apperr.InsufficientContent, apperr.KindOf(err))
	assert.Equal(t, 400, apperr.KindOf(err).Status())

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, valuegen.ReasonInsufficientCasts, ae.Reason)
	assert.Equal(t, "User has less than 100 casts", ae.Msg)

	assert.Zero(t, gen.calls)
	assert.Zero(t, users.setCalls)
	assert.Len(t, users.byKey, 1, "user record is still created")
}

func TestGenerate_InsufficientTweets(t *testing.T) {
	tweets := &fakeTweets{n: 10}
	p := valuegen.New(newMemUsers(), &fakeCasts{}, tweets, &fakeGenerator{out: [][]string{{"a"}}}, nil, zap.NewNop(), valuegen.Options{})

	sel, err := identity.ForGeneration("", "", "@someone", "12345")
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), sel)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, valuegen.ReasonInsufficientTweets, ae.Reason)
	assert.Equal(t, "User has less than 100 tweets", ae.Msg)
	assert.Equal(t, "12345", tweets.lastUserID)
}

func TestGenerate_TwoValuesNotPersisted(t *testing.T) {
	users := newMemUsers()
	gen := &fakeGenerator{out: [][]string{{"a", "b"}}}
	p := valuegen.New(users, &fakeCasts{n: 100}, &fakeTweets{}, gen, nil, zap.NewNop(), valuegen.Options{})

	res, err := p.Generate(context.Background(), fidSelection(t, "3"))
	require.NoError(t, err)
	assert.False(t, res.Persisted)
	assert.Equal(t, []string{"a", "b"}, res.Generated)
	assert.Empty(t, res.User.AIGeneratedValues.Warpcast)
	assert.Zero(t, users.setCalls)
}

func TestGenerate_EmptyGenerationKeepsStoredValues(t *testing.T) {
	users := newMemUsers()
	gen := &fakeGenerator{out: [][]string{{"a", "b", "c"}, {}}}
	p := valuegen.New(users, &fakeCasts{n: 100}, &fakeTweets{}, gen, nil, zap.NewNop(), valuegen.Options{})

	_, err := p.Generate(context.Background(), fidSelection(t, "3"))
	require.NoError(t, err)
	res, err := p.Generate(context.Background(), fidSelection(t, "3"))
	require.NoError(t, err)

	assert.False(t, res.Persisted)
	assert.Empty(t, res.Generated)
	assert.Equal(t, []string{"a", "b", "c"}, res.User.AIGeneratedValues.Warpcast)
	assert.Equal(t, 1, users.setCalls)
}

func TestGenerate_ThreeValuesPersisted(t *testing.T) {
	users := newMemUsers()
	gen := &fakeGenerator{out: [][]string{{"a", "b", "c"}}}
	p := valuegen.New(users, &fakeCasts{n: 100}, &fakeTweets{}, gen, nil, zap.NewNop(), valuegen.Options{})

	res, err := p.Generate(context.Background(), fidSelection(t, "3"))
	require.NoError(t, err)
	assert.True(t, res.Persisted)
	assert.Equal(t, 1, users.setCalls)
}

func TestGenerate_SecondRunOverwrites(t *testing.T) {
	users := newMemUsers()
	gen := &fakeGenerator{out: [][]string{{"a", "b", "c"}, {"x", "y", "z", "w"}}}
	p := valuegen.New(users, &fakeCasts{n: 120}, &fakeTweets{}, gen, nil, zap.NewNop(), valuegen.Options{})

	_, err := p.Generate(context.Background(), fidSelection(t, "3"))
	require.NoError(t, err)
	res, err := p.Generate(context.Background(), fidSelection(t, "3"))
	require.NoError(t, err)

	assert.False(t, res.Created)
	assert.Equal(t, []string{"x", "y", "z", "w"}, res.User.AIGeneratedValues.Warpcast)
	assert.Len(t, users.byKey, 1)
}

func TestGenerate_FIDWinsOverTwitter(t *testing.T) {
	casts := &fakeCasts{n: 100}
	tweets := &fakeTweets{n: 100}
	p := valuegen.New(newMemUsers(), casts, tweets, &fakeGenerator{out: [][]string{{"a", "b", "c"}}}, nil, zap.NewNop(), valuegen.Options{})

	sel, err := identity.ForGeneration("", "3", "someone", "999")
	require.NoError(t, err)
	res, err := p.Generate(context.Background(), sel)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, res.User.AIGeneratedValues.Warpcast)
	assert.Empty(t, res.User.AIGeneratedValues.Twitter)
	assert.Empty(t, tweets.lastUserID)
}

func TestGenerate_CustomThresholds(t *testing.T) {
	casts := &fakeCasts{n: 10}
	p := valuegen.New(newMemUsers(), casts, &fakeTweets{}, &fakeGenerator{out: [][]string{{"a", "b", "c"}}}, nil, zap.NewNop(),
		valuegen.Options{MinItems: 5, CastLimit: 20})

	res, err := p.Generate(context.Background(), fidSelection(t, "3"))
	require.NoError(t, err)
	assert.True(t, res.Persisted)
	assert.Equal(t, 20, casts.lastLimit)
}

func TestGenerate_MissingSelector(t *testing.T) {
	p := valuegen.New(newMemUsers(), &fakeCasts{}, &fakeTweets{}, &fakeGenerator{}, nil, zap.NewNop(), valuegen.Options{})
	_, err := p.Generate(context.Background(), identity.Selection{})
	assert.Equal(t, apperr.BadRequest, apperr.KindOf(err))
}

func TestGenerate_CollaboratorFailures(t *testing.T) {
	boom := errors.New("boom")

	t.Run("store", func(t *testing.T) {
		users := newMemUsers()
		users.resolveErr = boom
		p := valuegen.New(users, &fakeCasts{n: 100}, &fakeTweets{}, &fakeGenerator{out: [][]string{{"a", "b", "c"}}}, nil, zap.NewNop(), valuegen.Options{})
		_, err := p.Generate(context.Background(), fidSelection(t, "3"))
		assert.Equal(t, apperr.Internal, apperr.KindOf(err))
	})

	t.Run("identity conflict", func(t *testing.T) {
		users := newMemUsers()
		users.resolveErr = userstore.ErrIdentityConflict
		p := valuegen.New(users, &fakeCasts{n: 100}, &fakeTweets{}, &fakeGenerator{out: [][]string{{"a", "b", "c"}}}, nil, zap.NewNop(), valuegen.Options{})
		_, err := p.Generate(context.Background(), fidSelection(t, "3"))
		assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
	})

	t.Run("fetch", func(t *testing.T) {
		p := valuegen.New(newMemUsers(), &fakeCasts{err: boom}, &fakeTweets{}, &fakeGenerator{out: [][]string{{"a", "b", "c"}}}, nil, zap.NewNop(), valuegen.Options{})
		_, err := p.Generate(context.Background(), fidSelection(t, "3"))
		assert.Equal(t, apperr.Internal, apperr.KindOf(err))
		assert.ErrorIs(t, err, boom)
	})

	t.Run("generator", func(t *testing.T) {
		users := newMemUsers()
		p := valuegen.New(users, &fakeCasts{n: 100}, &fakeTweets{}, &fakeGenerator{err: boom}, nil, zap.NewNop(), valuegen.Options{})
		_, err := p.Generate(context.Background(), fidSelection(t, "3"))
		assert.Equal(t, apperr.Internal, apperr.KindOf(err))
		assert.Zero(t, users.setCalls)
	})

	t.Run("save", func(t *testing.T) {
		users := newMemUsers()
		users.setErr = boom
		p := valuegen.New(users, &fakeCasts{n: 100}, &fakeTweets{}, &fakeGenerator{out: [][]string{{"a", "b", "c"}}}, nil, zap.NewNop(), valuegen.Options{})
		_, err := p.Generate(context.Background(), fidSelection(t, "3"))
		assert.Equal(t, apperr.Internal, apperr.KindOf(err))
	})
}
