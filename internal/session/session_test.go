package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo/internal/credential"
	"todo/internal/service"
	"todo/internal/testutil"
)

func TestResolveWithoutCredentialIsAnonymous(t *testing.T) {
	fs := testutil.NewFakeService()
	s := New(fs, credential.NewMemory(""))

	assert.Equal(t, Pending, s.State())
	assert.Equal(t, Anonymous, s.Resolve(context.Background()))
	assert.Equal(t, 0, fs.CurrentUserCalls)
	assert.Nil(t, s.User())
}

func TestResolveAuthenticated(t *testing.T) {
	fs := testutil.NewFakeService()
	s := New(fs, credential.NewMemory(testutil.Token))

	assert.Equal(t, Authenticated, s.Resolve(context.Background()))
	require.NotNil(t, s.User())
	assert.Equal(t, testutil.UserID, s.User().ID)
	assert.Equal(t, testutil.UserName, s.User().Name)
}

func TestResolveFailureIsAnonymous(t *testing.T) {
	fs := testutil.NewFakeService()
	fs.CurrentUserErr = errors.New("connection refused")
	s := New(fs, credential.NewMemory(testutil.Token))

	assert.Equal(t, Anonymous, s.Resolve(context.Background()))
	assert.EqualError(t, s.Err(), "connection refused")
	assert.Nil(t, s.User())

	// no retry
	fs.CurrentUserErr = nil
	assert.Equal(t, Anonymous, s.Resolve(context.Background()))
	assert.Equal(t, 1, fs.CurrentUserCalls)
}

func TestResolveFetchesOnce(t *testing.T) {
	fs := testutil.NewFakeService()
	s := New(fs, credential.NewMemory(testutil.Token))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, Authenticated, s.Resolve(context.Background()))
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, fs.CurrentUserCalls)
}

func TestResetRefetches(t *testing.T) {
	fs := testutil.NewFakeService()
	s := New(fs, credential.NewMemory(testutil.Token))

	s.Resolve(context.Background())
	s.Reset()
	assert.Equal(t, Pending, s.State())
	s.Resolve(context.Background())
	assert.Equal(t, 2, fs.CurrentUserCalls)
}

func TestSignInAdoptsUser(t *testing.T) {
	fs := testutil.NewFakeService()
	creds := credential.NewMemory("")
	fs.Creds = creds
	s := New(fs, creds)

	_, err := s.SignIn(context.Background(), service.SignInInput{Email: testutil.UserEmail, Password: testutil.Password})
	require.NoError(t, err)
	assert.Equal(t, Authenticated, s.State())
	assert.Equal(t, testutil.UserEmail, s.User().Email)
	assert.Equal(t, 0, fs.CurrentUserCalls)
}

func TestSignInFailureLeavesState(t *testing.T) {
	fs := testutil.NewFakeService()
	s := New(fs, credential.NewMemory(""))

	_, err := s.SignIn(context.Background(), service.SignInInput{Email: testutil.UserEmail, Password: "wrong"})
	require.Error(t, err)
	assert.True(t, service.IsUnauthorized(err))
	assert.Equal(t, Pending, s.State())
}

func TestSignUpAdoptsUser(t *testing.T) {
	fs := testutil.NewFakeService()
	s := New(fs, credential.NewMemory(""))

	_, err := s.SignUp(context.Background(), service.SignUpInput{Name: "Bo", Email: "bo@example.com", Password: "Passw0rd!"})
	require.NoError(t, err)
	assert.Equal(t, Authenticated, s.State())
	assert.Equal(t, "Bo", s.User().Name)
}

func TestSignOutAlwaysAnonymous(t *testing.T) {
	fs := testutil.NewFakeService()
	creds := credential.NewMemory(testutil.Token)
	fs.Creds = creds
	fs.SignOutErr = errors.New("backend down")
	s := New(fs, creds)
	s.Resolve(context.Background())

	err := s.SignOut(context.Background())
	assert.EqualError(t, err, "backend down")
	assert.Equal(t, Anonymous, s.State())
	assert.Nil(t, s.User())
	_, ok := creds.Retrieve()
	assert.False(t, ok)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "authenticated", Authenticated.String())
	assert.Equal(t, "anonymous", Anonymous.String())
}
