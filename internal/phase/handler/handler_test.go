package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"mintgate/internal/events"
	"mintgate/internal/phase"
	"mintgate/internal/platform/middleware"
	"mintgate/internal/roles"
)

const owner = "acct-owner"

type HandlerSuite struct {
	suite.Suite
	router  http.Handler
	service *phase.Service
	caller  string
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.DiscardHandler)
	roleSvc := roles.NewService(roles.NewInMemoryStore(), owner)
	pub := events.NewSyncPublisher(events.NewMemorySink(), logger)
	s.service = phase.NewService(phase.NewInMemoryStore(), roleSvc, pub, logger, nil)
	s.caller = owner

	h := New(s.service, logger)
	r := chi.NewRouter()
	h.Register(r)
	r.Group(func(pr chi.Router) {
		pr.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(middleware.WithAccount(req.Context(), s.caller)))
			})
		})
		h.RegisterProtected(pr)
	})
	s.router = r
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestAddAndList() {
	rec := s.do(http.MethodPost, "/sale/phases", addPhaseRequest{
		StartDate: 1520000000, EndDate: 1520001000, PriceUSDc: 9999, Cap: 1000,
	})
	s.Require().Equal(http.StatusCreated, rec.Code)

	var created phaseResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&created))
	s.Equal(uint64(9999), created.PriceUSDc)
	s.Equal(uint64(0), created.Issued)

	rec = s.do(http.MethodGet, "/sale/phases", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var list []phaseResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&list))
	s.Require().Len(list, 1)
	s.Equal(created, list[0])
}

func (s *HandlerSuite) TestAddRejectsOverlap() {
	rec := s.do(http.MethodPost, "/sale/phases", addPhaseRequest{
		StartDate: 100, EndDate: 200, PriceUSDc: 1000, Cap: 50,
	})
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec = s.do(http.MethodPost, "/sale/phases", addPhaseRequest{
		StartDate: 150, EndDate: 250, PriceUSDc: 1000, Cap: 50,
	})
	s.Equal(http.StatusBadRequest, rec.Code)

	var body map[string]string
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&body))
	s.Equal("INVALID_PHASE_RANGE", body["error"])
}

func (s *HandlerSuite) TestAddRejectsUnprivilegedCaller() {
	s.caller = "acct-nobody"
	rec := s.do(http.MethodPost, "/sale/phases", addPhaseRequest{
		StartDate: 100, EndDate: 200, PriceUSDc: 1000, Cap: 50,
	})
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *HandlerSuite) TestAddRejectsMalformedBody() {
	req := httptest.NewRequest(http.MethodPost, "/sale/phases", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestGetAndDeleteByIndex() {
	for i := 0; i < 3; i++ {
		rec := s.do(http.MethodPost, "/sale/phases", addPhaseRequest{
			StartDate: uint64(100 + i*100), EndDate: uint64(200 + i*100), PriceUSDc: 1000, Cap: 50,
		})
		s.Require().Equal(http.StatusCreated, rec.Code)
	}

	rec := s.do(http.MethodGet, "/sale/phases/1", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var got phaseResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&got))
	s.Equal(uint64(200), got.StartDate)

	rec = s.do(http.MethodDelete, "/sale/phases/1", nil)
	s.Equal(http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/sale/phases/2", nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestIndexMustBeNumeric() {
	for _, path := range []string{"/sale/phases/abc", "/sale/phases/-1"} {
		rec := s.do(http.MethodGet, path, nil)
		s.Equal(http.StatusBadRequest, rec.Code, fmt.Sprintf("path %s", path))
	}
}

func (s *HandlerSuite) TestActiveWithNoPhases() {
	rec := s.do(http.MethodGet, "/sale/phases/active", nil)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)

	var body map[string]string
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&body))
	s.Equal("NO_ACTIVE_PHASE", body["error"])
}
