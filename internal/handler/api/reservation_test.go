//go:build unit

package api_test

import (
	"net/http"
	"testing"

	"slot-reservation-engine/internal/handler/api"
	resdto "slot-reservation-engine/internal/handler/dto/response"
	"slot-reservation-engine/internal/pkg/errs"
	"slot-reservation-engine/internal/usecase/commands"
	"slot-reservation-engine/internal/usecase/queries"
	"slot-reservation-engine/tests/common/builder"
	"slot-reservation-engine/tests/common/httptest"
	"slot-reservation-engine/tests/common/testutil"
	commandsmock "slot-reservation-engine/tests/mock/commands"
	queriesmock "slot-reservation-engine/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ReservationHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockAdmissionCommands
	mockQueries  *queriesmock.MockAvailabilityQueries
	handler      *api.ReservationHandler
}

func (s *ReservationHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockAdmissionCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockAvailabilityQueries(s.mockCtrl)
	s.handler = api.NewReservationHandler(s.mockCommands, s.mockQueries)

	s.router.POST("/reservations", s.handler.Reserve)
	s.router.GET("/subjects/:subjectId/reservations", s.handler.ListBySubject)
	s.router.PUT("/subjects/:subjectId/reservations", s.handler.ReplaceAll)
	s.router.DELETE("/subjects/:subjectId/reservations/:activityKey", s.handler.Cancel)
}

func (s *ReservationHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestReservationHandlerSuite(t *testing.T) {
	suite.Run(t, new(ReservationHandlerTestSuite))
}

// ================================================================================
// TestReserve
// ================================================================================

func (s *ReservationHandlerTestSuite) TestReserve() {
	url := "/reservations"
	b := builder.NewReservationBuilder().WithSubject("alice").WithSlot("yoga", 2).WithAttachment("file-1")
	reqBody := b.BuildReserveRequestDTO()
	result := b.BuildResult()

	s.Run("success: returns 201 with the admitted record", func() {
		s.mockCommands.EXPECT().Reserve(gomock.Any(), commands.ReserveParams{
			SubjectID: "alice",
			SlotRequest: commands.SlotRequest{
				ActivityRef: "yoga",
				TimeSlotID:  "yoga-2",
				Attachment:  reqBody.Attachment,
			},
		}).Return(result, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody)

		var body resdto.ReserveResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &body)
		s.Equal(resdto.StatusSuccess, body.Status)
		s.Require().Len(body.Reservations, 1)
		s.Equal("yoga-2", body.Reservations[0].TimeSlotID)
		s.Equal("file-1", *body.Reservations[0].AttachmentRef)
	})

	s.Run("success: replaceAll flag is forwarded", func() {
		replace := builder.NewReservationBuilder().WithReplaceAll().BuildReserveRequestDTO()
		s.mockCommands.EXPECT().Reserve(gomock.Any(), gomock.Cond(func(p commands.ReserveParams) bool {
			return p.ReplaceAll
		})).Return(result, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, replace)
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, nil)
	})

	missing := []struct {
		name   string
		mutate func(m map[string]any)
	}{
		{name: "missing field: subjectId (required)", mutate: testutil.Field("subjectId", nil)},
		{name: "missing field: timeSlotId (required)", mutate: testutil.Field("timeSlotId", nil)},
		{name: "wrong type: activityRow", mutate: testutil.Field("activityRow", "abc")},
	}
	for _, tc := range missing {
		s.Run("error: 400 "+tc.name, func() {
			rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, testutil.BodyMap(s.T(), reqBody, tc.mutate))
			httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, errs.CodeInvalidRequest)
		})
	}

	domainErrors := []struct {
		name       string
		err        error
		expectCode int
		wireCode   string
	}{
		{name: "invalid slot identifier", err: errs.Wrap(errs.ErrInvalidSlotIdentifier, "bad"), expectCode: http.StatusBadRequest, wireCode: errs.CodeInvalidSlotIdentifier},
		{name: "slot not found", err: errs.Wrap(errs.ErrSlotNotFound, "gone"), expectCode: http.StatusNotFound, wireCode: errs.CodeSlotNotFound},
		{name: "no spots", err: errs.Wrap(errs.ErrNoSpotsAvailable, "full"), expectCode: http.StatusConflict, wireCode: errs.CodeNoSpotsAvailable},
		{name: "already reserved", err: errs.Wrap(errs.ErrAlreadyReserved, "dup"), expectCode: http.StatusConflict, wireCode: errs.CodeAlreadyReserved},
		{name: "transaction aborted", err: errs.Mark(errs.New("lock timeout"), errs.ErrTransactionAborted), expectCode: http.StatusServiceUnavailable, wireCode: errs.CodeTransactionAborted},
		{name: "unexpected failure", err: errs.New("boom"), expectCode: http.StatusInternalServerError, wireCode: errs.CodeInternal},
	}
	for _, tc := range domainErrors {
		s.Run("error: "+tc.name, func() {
			s.mockCommands.EXPECT().Reserve(gomock.Any(), gomock.Any()).Return(nil, tc.err).Times(1)

			rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody)
			httptest.AssertErrorResponse(s.T(), rec, tc.expectCode, tc.wireCode)
		})
	}
}

// ================================================================================
// TestReplaceAll
// ================================================================================

func (s *ReservationHandlerTestSuite) TestReplaceAll() {
	url := "/subjects/alice/reservations"
	first := builder.NewReservationBuilder().WithSubject("alice").WithSlot("yoga", 1)
	second := builder.NewReservationBuilder().WithSubject("alice").WithSlot("spin", 3)

	s.Run("success: forwards every slot in order", func() {
		s.mockCommands.EXPECT().ReplaceAllForSubject(gomock.Any(), "alice", []commands.SlotRequest{
			{ActivityRef: "yoga", TimeSlotID: "yoga-1"},
			{ActivityRef: "spin", TimeSlotID: "spin-3"},
		}).Return(&commands.ReserveResult{}, nil).Times(1)

		body := map[string]any{"slots": []any{first.BuildSlotRequestDTO(), second.BuildSlotRequestDTO()}}
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPut, url, body)

		var resp resdto.ReserveResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
		s.Empty(resp.Reservations)
	})

	s.Run("error: 409 when one activity is full", func() {
		s.mockCommands.EXPECT().ReplaceAllForSubject(gomock.Any(), "alice", gomock.Any()).
			Return(nil, errs.Wrap(errs.ErrNoSpotsAvailable, "full")).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPut, url, map[string]any{"slots": []any{first.BuildSlotRequestDTO()}})
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, errs.CodeNoSpotsAvailable)
	})

	badBodies := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{name: "slots is not an array", mutate: testutil.Field("slots", "yoga-1")},
		{name: "second slot without timeSlotId", mutate: testutil.SlotField(1, "timeSlotId", nil)},
		{name: "wrong type: activityRow", mutate: testutil.SlotField(0, "activityRow", "abc")},
	}
	for _, tc := range badBodies {
		s.Run("error: 400 on "+tc.name, func() {
			body := testutil.ReplaceAllBody(s.T(), []any{first.BuildSlotRequestDTO(), second.BuildSlotRequestDTO()}, tc.mutate)
			rec := httptest.PerformRequest(s.T(), s.router, http.MethodPut, url, body)
			httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, errs.CodeInvalidRequest)
		})
	}
}

// ================================================================================
// TestCancel
// ================================================================================

func (s *ReservationHandlerTestSuite) TestCancel() {
	testCases := []struct {
		name    string
		removed bool
	}{
		{name: "existing reservation", removed: true},
		{name: "nothing to cancel", removed: false},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.mockCommands.EXPECT().Cancel(gomock.Any(), "alice", "yoga").Return(tc.removed, nil).Times(1)

			rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, "/subjects/alice/reservations/yoga", nil)

			var body resdto.CancelResponse
			httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
			s.Equal(tc.removed, body.Removed)
		})
	}

	s.Run("error: 503 when the lock cannot be taken", func() {
		s.mockCommands.EXPECT().Cancel(gomock.Any(), "alice", "42").
			Return(false, errs.Mark(errs.New("lock timeout"), errs.ErrTransactionAborted)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, "/subjects/alice/reservations/42", nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusServiceUnavailable, errs.CodeTransactionAborted)
	})
}

// ================================================================================
// TestListBySubject
// ================================================================================

func (s *ReservationHandlerTestSuite) TestListBySubject() {
	view := builder.NewReservationBuilder().WithSubject("alice").WithSlot("yoga", 3).BuildView()

	s.Run("success", func() {
		s.mockQueries.EXPECT().ListSubjectReservations(gomock.Any(), "alice").
			Return([]queries.SubjectReservationView{view}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/subjects/alice/reservations", nil)

		var body struct {
			Reservations []resdto.ReservationResponse `json:"reservations"`
		}
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Require().Len(body.Reservations, 1)
		s.Equal(view.ID, body.Reservations[0].ID)
		s.Equal("yoga-3", body.Reservations[0].TimeSlotID)
		s.Equal(3, body.Reservations[0].SlotIndex)
	})

	s.Run("error: 400 on invalid subject", func() {
		s.mockQueries.EXPECT().ListSubjectReservations(gomock.Any(), gomock.Any()).
			Return(nil, errs.Wrap(errs.ErrInvalidSubject, "too long")).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/subjects/x/reservations", nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, errs.CodeInvalidSubject)
	})
}
