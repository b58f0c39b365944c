package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexchoi0/driftwatch/apikeys"
	fakeapikeyrepo "github.com/alexchoi0/driftwatch/apikeys/repofake"
	"github.com/alexchoi0/driftwatch/auth"
	"github.com/alexchoi0/driftwatch/sessions"
	fakesessionrepo "github.com/alexchoi0/driftwatch/sessions/repofakes"
	"github.com/alexchoi0/driftwatch/users"
	fakeuserrepo "github.com/alexchoi0/driftwatch/users/repofake"
)

// testFixture holds all test dependencies
type testFixture struct {
	user      *users.User
	sessions  *sessions.Manager
	keys      *apikeys.Manager
	validator *auth.Validator
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()

	ur := fakeuserrepo.NewFakeUserRepo()
	user := &users.User{Email: "john.doe@example.com", Name: "John Doe"}
	require.NoError(t, ur.Upsert(context.Background(), user))

	sm := sessions.NewManager(fakesessionrepo.NewFakeSessionRepo(), ur, []byte("1234"), time.Hour)
	km := apikeys.NewManager(fakeapikeyrepo.NewFakeAPIKeyRepo(), ur)

	return &testFixture{
		user:      user,
		sessions:  sm,
		keys:      km,
		validator: auth.NewValidator(sm, km),
	}
}
