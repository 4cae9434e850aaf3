package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"nameplate/internal/delegate/handler/mocks"
	"nameplate/internal/delegate/models"
	"nameplate/internal/platform/token"
	"nameplate/pkg/domain"
	"nameplate/pkg/requestcontext"
	"nameplate/pkg/testutil"
)

type DelegateHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	tokens  *token.Manager
	router  chi.Router

	owner  domain.Address
	device domain.Address
}

func TestDelegateHandlerSuite(t *testing.T) {
	suite.Run(t, new(DelegateHandlerSuite))
}

func (s *DelegateHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)
	s.service = mocks.NewMockService(ctrl)
	s.tokens = token.NewManager("handler-test-key")

	s.owner = testutil.TestAddress("owner")
	s.device = testutil.TestAddress("device")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(s.service, logger, s.tokens)

	// Bypass RequireAuth: register the protected handlers directly and
	// inject the principal per request.
	s.router = chi.NewRouter()
	s.router.Post("/delegates/intents", h.handlePropose)
	s.router.Post("/delegates/confirm", h.handleConfirm)
	s.router.Post("/delegates", h.handleAddDirect)
	s.router.Delete("/delegates/{address}", h.handleRemove)
}

func (s *DelegateHandlerSuite) do(method, path string, body any, caller domain.Address) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if !caller.IsZero() {
		req = req.WithContext(requestcontext.WithPrincipal(req.Context(), caller))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// assertion mints the delegate's half of the direct-add consent.
func (s *DelegateHandlerSuite) assertion(addr domain.Address) string {
	signed, err := s.tokens.Issue(addr, false)
	s.Require().NoError(err)
	return signed
}

func (s *DelegateHandlerSuite) TestDirectAdd() {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.Run("created with both signatures", func() {
		s.service.EXPECT().
			AddDelegateDirect(gomock.Any(), s.owner, s.device).
			Return(models.New(s.device, testutil.TestAddress("account"), s.owner, 100, now), nil)

		w := s.do(http.MethodPost, "/delegates", map[string]string{
			"delegate_address":   s.device.String(),
			"delegate_assertion": s.assertion(s.device),
		}, s.owner)
		s.Equal(http.StatusCreated, w.Code)

		var resp map[string]any
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal(s.device.String(), resp["address"])
		s.Equal(float64(100), resp["kid"])
	})

	s.Run("forbidden without the delegate assertion", func() {
		w := s.do(http.MethodPost, "/delegates", map[string]string{
			"delegate_address": s.device.String(),
		}, s.owner)
		s.Equal(http.StatusForbidden, w.Code)
	})

	s.Run("forbidden when the assertion names another address", func() {
		w := s.do(http.MethodPost, "/delegates", map[string]string{
			"delegate_address":   s.device.String(),
			"delegate_assertion": s.assertion(testutil.TestAddress("other-device")),
		}, s.owner)
		s.Equal(http.StatusForbidden, w.Code)
	})

	s.Run("forbidden on a garbage assertion", func() {
		w := s.do(http.MethodPost, "/delegates", map[string]string{
			"delegate_address":   s.device.String(),
			"delegate_assertion": "not-a-token",
		}, s.owner)
		s.Equal(http.StatusForbidden, w.Code)
	})

	s.Run("rejects a malformed delegate address", func() {
		w := s.do(http.MethodPost, "/delegates", map[string]string{
			"delegate_address":   "nope",
			"delegate_assertion": s.assertion(s.device),
		}, s.owner)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *DelegateHandlerSuite) TestPropose() {
	s.Run("accepted", func() {
		s.service.EXPECT().
			ProposeIntent(gomock.Any(), s.owner, s.device).
			Return(nil)

		w := s.do(http.MethodPost, "/delegates/intents", map[string]string{
			"delegate_address": s.device.String(),
		}, s.owner)
		s.Equal(http.StatusAccepted, w.Code)
	})

	s.Run("rejects a malformed delegate address", func() {
		w := s.do(http.MethodPost, "/delegates/intents", map[string]string{
			"delegate_address": "nope",
		}, s.owner)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *DelegateHandlerSuite) TestConfirm() {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.Run("created for the intended delegate", func() {
		s.service.EXPECT().
			ConfirmIntent(gomock.Any(), s.device, s.owner).
			Return(models.New(s.device, testutil.TestAddress("account"), s.owner, 100, now), nil)

		w := s.do(http.MethodPost, "/delegates/confirm", map[string]string{
			"owner_address": s.owner.String(),
		}, s.device)
		s.Equal(http.StatusCreated, w.Code)
	})

	s.Run("mismatched callers map to 403", func() {
		intruder := testutil.TestAddress("intruder")
		s.service.EXPECT().
			ConfirmIntent(gomock.Any(), intruder, s.owner).
			Return(nil, models.ErrNotPermitted)

		w := s.do(http.MethodPost, "/delegates/confirm", map[string]string{
			"owner_address": s.owner.String(),
		}, intruder)
		s.Equal(http.StatusForbidden, w.Code)
	})
}

func (s *DelegateHandlerSuite) TestRemove() {
	s.Run("no content on success", func() {
		s.service.EXPECT().
			RemoveDelegate(gomock.Any(), s.owner, s.device).
			Return(nil)

		w := s.do(http.MethodDelete, "/delegates/"+s.device.String(), nil, s.owner)
		s.Equal(http.StatusNoContent, w.Code)
	})

	s.Run("unknown delegates map to 404", func() {
		s.service.EXPECT().
			RemoveDelegate(gomock.Any(), s.owner, s.device).
			Return(models.ErrDelegateDoesNotExist)

		w := s.do(http.MethodDelete, "/delegates/"+s.device.String(), nil, s.owner)
		s.Equal(http.StatusNotFound, w.Code)
	})
}
