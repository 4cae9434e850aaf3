package test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	accounthandler "nameplate/internal/account/handler"
	accountservice "nameplate/internal/account/service"
	accountstore "nameplate/internal/account/store"
	delegatehandler "nameplate/internal/delegate/handler"
	delegateservice "nameplate/internal/delegate/service"
	delegatestore "nameplate/internal/delegate/store"
	"nameplate/internal/event"
	eventhandler "nameplate/internal/event/handler"
	"nameplate/internal/platform/token"
	"nameplate/internal/sequence"
	httptransport "nameplate/internal/transport/http"
	usernamehandler "nameplate/internal/username/handler"
	usernameservice "nameplate/internal/username/service"
	usernamestore "nameplate/internal/username/store"
	"nameplate/pkg/domain"
	"nameplate/pkg/platform/tx"
	"nameplate/pkg/testutil"
)

type env struct {
	router http.Handler
	tokens *token.Manager
}

func newEnv(t *testing.T, admin domain.Address) *env {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	runner := tx.NewMemoryRunner()
	seq := sequence.NewMemory()
	events := event.NewInMemoryLog()
	accounts := accountstore.NewInMemory()
	delegates := delegatestore.NewInMemory()

	usernameSvc := usernameservice.New(usernamestore.NewInMemory(), seq, events, runner, admin)
	accountSvc := accountservice.New(accounts, usernameSvc, delegates, seq, events, runner, admin)
	delegateSvc := delegateservice.New(accounts, delegates, seq, events, runner)

	tokens := token.NewManager("e2e-test-key")
	router := httptransport.NewRouter(logger, nil,
		usernamehandler.New(usernameSvc, logger, tokens),
		accounthandler.New(accountSvc, logger, tokens),
		delegatehandler.New(delegateSvc, logger, tokens),
		eventhandler.New(events, logger),
	)
	return &env{router: router, tokens: tokens}
}

func (e *env) do(t *testing.T, method, path string, body any, caller domain.Address) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if !caller.IsZero() {
		bearer, err := e.tokens.Issue(caller, false)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// TestDirectoryLifecycle walks the full onboarding path over HTTP: claim a
// username, create the account, hand a delegate key through the two-phase
// handshake, then unlink it again.
func TestDirectoryLifecycle(t *testing.T) {
	alice := testutil.TestAddress("alice")
	device := testutil.TestAddress("device-1")
	e := newEnv(t, testutil.TestAddress("admin"))

	testutil.Given(t, "a fresh directory", func(t *testing.T) {
		testutil.When(t, "alice claims the username", func(t *testing.T) {
			w := e.do(t, http.MethodPost, "/usernames", map[string]string{"name": "alice"}, alice)
			require.Equal(t, http.StatusCreated, w.Code)

			testutil.Then(t, "the lookup reports it claimed", func(t *testing.T) {
				w := e.do(t, http.MethodGet, "/usernames/alice", nil, "")
				require.Equal(t, http.StatusOK, w.Code)
				resp := decode(t, w)
				require.Equal(t, true, resp["claimed"])
			})
		})

		testutil.When(t, "alice creates her account", func(t *testing.T) {
			w := e.do(t, http.MethodPost, "/accounts", map[string]string{"username": "alice"}, alice)
			require.Equal(t, http.StatusCreated, w.Code)

			testutil.Then(t, "the first account gets the first unreserved id", func(t *testing.T) {
				resp := decode(t, w)
				require.Equal(t, float64(100), resp["kid"])
			})
		})

		testutil.When(t, "a stranger's account is looked up", func(t *testing.T) {
			w := e.do(t, http.MethodGet, "/accounts/"+testutil.TestAddress("stranger").String(), nil, "")
			require.Equal(t, http.StatusOK, w.Code)

			testutil.Then(t, "the summary is empty with no derived address", func(t *testing.T) {
				resp := decode(t, w)
				require.Equal(t, float64(0), resp["kid"])
				require.Empty(t, resp["address"])
			})
		})

		testutil.When(t, "alice proposes her device as a delegate", func(t *testing.T) {
			w := e.do(t, http.MethodPost, "/delegates/intents",
				map[string]string{"delegate_address": device.String()}, alice)
			require.Equal(t, http.StatusAccepted, w.Code)

			testutil.Then(t, "only the device itself can confirm", func(t *testing.T) {
				w := e.do(t, http.MethodPost, "/delegates/confirm",
					map[string]string{"owner_address": alice.String()}, testutil.TestAddress("intruder"))
				require.Equal(t, http.StatusForbidden, w.Code)

				w = e.do(t, http.MethodPost, "/delegates/confirm",
					map[string]string{"owner_address": alice.String()}, device)
				require.Equal(t, http.StatusCreated, w.Code)
				resp := decode(t, w)
				require.Equal(t, float64(100), resp["kid"])
			})
		})

		testutil.When(t, "the device acts on alice's behalf", func(t *testing.T) {
			w := e.do(t, http.MethodGet, "/delegates/"+device.String()+"/owner", nil, "")
			require.Equal(t, http.StatusOK, w.Code)
			resp := decode(t, w)
			require.Equal(t, float64(100), resp["kid"])
			require.Equal(t, alice.String(), resp["principal"])

			testutil.Then(t, "it can emit a profile update", func(t *testing.T) {
				w := e.do(t, http.MethodPost, "/profile",
					map[string]string{"bio": "hello", "display_name": "Alice"}, device)
				require.Equal(t, http.StatusNoContent, w.Code)
			})
		})

		testutil.When(t, "alice links a second device directly", func(t *testing.T) {
			device2 := testutil.TestAddress("device-2")

			testutil.Then(t, "her token alone is not enough", func(t *testing.T) {
				w := e.do(t, http.MethodPost, "/delegates",
					map[string]string{"delegate_address": device2.String()}, alice)
				require.Equal(t, http.StatusForbidden, w.Code)

				w = e.do(t, http.MethodGet, "/delegates/"+device2.String()+"/owner", nil, "")
				require.Equal(t, http.StatusNotFound, w.Code)
			})

			testutil.Then(t, "the device's own assertion completes the link", func(t *testing.T) {
				assertion, err := e.tokens.Issue(device2, false)
				require.NoError(t, err)

				w := e.do(t, http.MethodPost, "/delegates", map[string]string{
					"delegate_address":   device2.String(),
					"delegate_assertion": assertion,
				}, alice)
				require.Equal(t, http.StatusCreated, w.Code)

				w = e.do(t, http.MethodDelete, "/delegates/"+device2.String(), nil, alice)
				require.Equal(t, http.StatusNoContent, w.Code)
			})
		})

		testutil.When(t, "alice removes the delegate", func(t *testing.T) {
			w := e.do(t, http.MethodDelete, "/delegates/"+device.String(), nil, alice)
			require.Equal(t, http.StatusNoContent, w.Code)

			testutil.Then(t, "the device no longer resolves", func(t *testing.T) {
				w := e.do(t, http.MethodGet, "/delegates/"+device.String()+"/owner", nil, "")
				require.Equal(t, http.StatusNotFound, w.Code)
			})
		})

		testutil.When(t, "the event log is replayed", func(t *testing.T) {
			w := e.do(t, http.MethodGet, "/events", nil, "")
			require.Equal(t, http.StatusOK, w.Code)

			testutil.Then(t, "it holds the full history in order", func(t *testing.T) {
				var resp struct {
					Events []struct {
						Seq  uint64 `json:"seq"`
						Type string `json:"type"`
					} `json:"events"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

				var types []string
				for i, ev := range resp.Events {
					require.Equal(t, uint64(i+1), ev.Seq)
					types = append(types, ev.Type)
				}
				require.Equal(t, []string{
					"UsernameRegistered",
					"AccountCreated",
					"DelegateCreated",
					"ProfileUpdated",
					"DelegateCreated",
					"DelegateRemoved",
					"DelegateRemoved",
				}, types)
			})
		})
	})
}

// TestAuthBoundary pins the transport-level rule that every mutating route
// needs a valid bearer token.
func TestAuthBoundary(t *testing.T) {
	e := newEnv(t, testutil.TestAddress("admin"))

	testutil.Given(t, "a request without credentials", func(t *testing.T) {
		testutil.When(t, "it tries to claim a username", func(t *testing.T) {
			w := e.do(t, http.MethodPost, "/usernames", map[string]string{"name": "alice"}, "")

			testutil.Then(t, "it is rejected", func(t *testing.T) {
				require.Equal(t, http.StatusUnauthorized, w.Code)
			})
		})

		testutil.When(t, "it reads public state", func(t *testing.T) {
			w := e.do(t, http.MethodGet, "/usernames/alice", nil, "")

			testutil.Then(t, "the lookup succeeds", func(t *testing.T) {
				require.Equal(t, http.StatusOK, w.Code)
			})
		})
	})
}
