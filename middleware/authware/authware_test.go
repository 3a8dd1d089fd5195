package authware_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tasktrack/tasktrack"
	"github.com/tasktrack/tasktrack/middleware/authware"
)

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) FindIdentityByIdentifier(ctx context.Context, identifier string) (tasktrack.Identity, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(tasktrack.Identity), args.Error(1)
}

type stubIdentity struct {
	id    string
	email string
	role  string
}

func (s stubIdentity) ID() string    { return s.id }
func (s stubIdentity) Email() string { return s.email }
func (s stubIdentity) Name() string  { return "Stub" }
func (s stubIdentity) Role() string  { return s.role }

func noopHandler(c router.Context) error { return nil }

func newValidator(t *testing.T) tasktrack.TokenService {
	t.Helper()
	return tasktrack.NewTokenService([]byte("test-secret"), 60_000, "", nil)
}

func TestAuthware_ValidToken(t *testing.T) {
	validator := newValidator(t)
	token, err := validator.Generate("alice@example.com")
	require.NoError(t, err)

	identity := stubIdentity{id: "u1", email: "alice@example.com", role: tasktrack.RoleUser}

	resolver := &mockResolver{}
	resolver.On("FindIdentityByIdentifier", mock.Anything, "alice@example.com").Return(identity, nil)

	mw := authware.New(authware.Config{
		Validator: validator,
		Resolver:  resolver,
	})

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("Bearer " + token)
	ctx.On("Context").Return(context.Background())
	ctx.On("Locals", "identity", identity).Return(nil)
	ctx.On("SetContext", mock.Anything).Return()

	err = mw(noopHandler)(ctx)
	require.NoError(t, err)
	assert.True(t, ctx.NextCalled)

	resolver.AssertExpectations(t)
	ctx.AssertExpectations(t)
}

func TestAuthware_MissingHeaderStaysAnonymous(t *testing.T) {
	resolver := &mockResolver{}

	mw := authware.New(authware.Config{
		Validator: newValidator(t),
		Resolver:  resolver,
	})

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("")
	ctx.On("Context").Return(context.Background())
	ctx.On("Locals", "identity", nil).Return(nil)

	err := mw(noopHandler)(ctx)
	require.NoError(t, err)
	assert.True(t, ctx.NextCalled)

	// no token means no store traffic at all
	resolver.AssertNotCalled(t, "FindIdentityByIdentifier", mock.Anything, mock.Anything)
}

func TestAuthware_SchemeIsCaseSensitive(t *testing.T) {
	validator := newValidator(t)
	token, err := validator.Generate("alice@example.com")
	require.NoError(t, err)

	resolver := &mockResolver{}

	mw := authware.New(authware.Config{
		Validator: validator,
		Resolver:  resolver,
	})

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("bearer " + token)
	ctx.On("Context").Return(context.Background())
	ctx.On("Locals", "identity", nil).Return(nil)

	err = mw(noopHandler)(ctx)
	require.NoError(t, err)
	assert.True(t, ctx.NextCalled)

	resolver.AssertNotCalled(t, "FindIdentityByIdentifier", mock.Anything, mock.Anything)
}

func TestAuthware_InvalidTokenStaysAnonymous(t *testing.T) {
	// token signed with a different key than the validator's
	foreign := tasktrack.NewTokenService([]byte("other-secret"), 60_000, "", nil)
	token, err := foreign.Generate("alice@example.com")
	require.NoError(t, err)

	resolver := &mockResolver{}

	mw := authware.New(authware.Config{
		Validator: newValidator(t),
		Resolver:  resolver,
	})

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("Bearer " + token)
	ctx.On("Context").Return(context.Background())
	ctx.On("Locals", "identity", nil).Return(nil)

	err = mw(noopHandler)(ctx)
	require.NoError(t, err)
	assert.True(t, ctx.NextCalled)

	resolver.AssertNotCalled(t, "FindIdentityByIdentifier", mock.Anything, mock.Anything)
}

func TestAuthware_ResolutionFailureStaysAnonymous(t *testing.T) {
	validator := newValidator(t)
	token, err := validator.Generate("ghost@example.com")
	require.NoError(t, err)

	resolver := &mockResolver{}
	resolver.On("FindIdentityByIdentifier", mock.Anything, "ghost@example.com").
		Return(nil, tasktrack.ErrIdentityNotFound)

	mw := authware.New(authware.Config{
		Validator: validator,
		Resolver:  resolver,
	})

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("Bearer " + token)
	ctx.On("Context").Return(context.Background())
	ctx.On("Locals", "identity", nil).Return(nil)

	err = mw(noopHandler)(ctx)
	require.NoError(t, err)
	assert.True(t, ctx.NextCalled)

	resolver.AssertExpectations(t)
}

func TestAuthware_ScrubsStaleStandardContextIdentity(t *testing.T) {
	// an identity left behind in the std context must not survive a
	// request that carries no usable token, or it would leak through the
	// std context fallback of IdentityFromRouterContext
	stale := stubIdentity{id: "u9", email: "stale@example.com", role: tasktrack.RoleAdmin}
	staleCtx := tasktrack.WithIdentityContext(context.Background(), stale)

	resolver := &mockResolver{}

	mw := authware.New(authware.Config{
		Validator: newValidator(t),
		Resolver:  resolver,
	})

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("")
	ctx.On("Context").Return(staleCtx)
	ctx.On("Locals", "identity", nil).Return(nil)

	var scrubbed context.Context
	ctx.On("SetContext", mock.Anything).
		Run(func(args mock.Arguments) { scrubbed = args.Get(0).(context.Context) }).
		Return()

	err := mw(noopHandler)(ctx)
	require.NoError(t, err)
	assert.True(t, ctx.NextCalled)

	require.NotNil(t, scrubbed)
	_, ok := tasktrack.IdentityFromContext(scrubbed)
	assert.False(t, ok)

	resolver.AssertNotCalled(t, "FindIdentityByIdentifier", mock.Anything, mock.Anything)
	ctx.AssertExpectations(t)
}

func TestAuthware_CustomContextKeyAndLookup(t *testing.T) {
	validator := newValidator(t)
	token, err := validator.Generate("alice@example.com")
	require.NoError(t, err)

	identity := stubIdentity{id: "u1", email: "alice@example.com", role: tasktrack.RoleUser}

	resolver := &mockResolver{}
	resolver.On("FindIdentityByIdentifier", mock.Anything, "alice@example.com").Return(identity, nil)

	mw := authware.New(authware.Config{
		Validator:   validator,
		Resolver:    resolver,
		ContextKey:  "current_user",
		TokenLookup: "header:X-Api-Token",
		AuthScheme:  "Token",
	})

	ctx := router.NewMockContext()
	ctx.On("GetString", "X-Api-Token", "").Return("Token " + token)
	ctx.On("Context").Return(context.Background())
	ctx.On("Locals", "current_user", identity).Return(nil)
	ctx.On("SetContext", mock.Anything).Return()

	err = mw(noopHandler)(ctx)
	require.NoError(t, err)
	assert.True(t, ctx.NextCalled)
}

func TestGetExtractors(t *testing.T) {
	t.Run("parses multiple sources", func(t *testing.T) {
		extractors := authware.GetExtractors("header:Authorization,query:auth_token,cookie:jwt", "Bearer")
		assert.Len(t, extractors, 3)
	})

	t.Run("skips malformed entries", func(t *testing.T) {
		extractors := authware.GetExtractors("header:Authorization,bogus", "Bearer")
		assert.Len(t, extractors, 1)
	})
}
