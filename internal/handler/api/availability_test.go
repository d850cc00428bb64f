//go:build unit

package api_test

import (
	"net/http"
	"testing"

	"slot-reservation-engine/internal/domain/slot"
	"slot-reservation-engine/internal/handler/api"
	resdto "slot-reservation-engine/internal/handler/dto/response"
	"slot-reservation-engine/internal/pkg/errs"
	"slot-reservation-engine/internal/usecase/queries"
	"slot-reservation-engine/tests/common/httptest"
	queriesmock "slot-reservation-engine/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type AvailabilityHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockCtrl    *gomock.Controller
	mockQueries *queriesmock.MockAvailabilityQueries
	handler     *api.AvailabilityHandler
}

func (s *AvailabilityHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockQueries = queriesmock.NewMockAvailabilityQueries(s.mockCtrl)
	s.handler = api.NewAvailabilityHandler(s.mockQueries)

	s.router.GET("/activities/:activityKey/availability", s.handler.Get)
	s.router.GET("/availability", s.handler.GetAll)
	s.router.GET("/slots", s.handler.ListSlots)
}

func (s *AvailabilityHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestAvailabilityHandlerSuite(t *testing.T) {
	suite.Run(t, new(AvailabilityHandlerTestSuite))
}

func (s *AvailabilityHandlerTestSuite) TestGet() {
	view := &queries.AvailabilityView{
		ActivityRowID: 7,
		ActivityID:    "yoga",
		Title:         "Morning Yoga",
		Capacity:      5,
		Reserved:      2,
		Available:     3,
	}

	for _, key := range []string{"yoga", "7"} {
		s.Run("success: lookup by "+key, func() {
			s.mockQueries.EXPECT().GetAvailability(gomock.Any(), key).Return(view, nil).Times(1)

			rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/activities/"+key+"/availability", nil)

			var body resdto.AvailabilityResponse
			httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
			s.Equal(resdto.AvailabilityResponse{
				ActivityRowID: 7,
				ActivityID:    "yoga",
				Title:         "Morning Yoga",
				Capacity:      5,
				Reserved:      2,
				Available:     3,
			}, body)
		})
	}

	testCases := []struct {
		name       string
		err        error
		expectCode int
		wireCode   string
	}{
		{name: "unknown activity", err: errs.Mark(errs.New("activity not found: nope"), errs.ErrSlotNotFound), expectCode: http.StatusNotFound, wireCode: errs.CodeSlotNotFound},
		{name: "malformed key", err: errs.Wrap(errs.ErrInvalidSlotIdentifier, "empty activity key"), expectCode: http.StatusBadRequest, wireCode: errs.CodeInvalidSlotIdentifier},
	}
	for _, tc := range testCases {
		s.Run("error: "+tc.name, func() {
			s.mockQueries.EXPECT().GetAvailability(gomock.Any(), "nope").Return(nil, tc.err).Times(1)

			rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/activities/nope/availability", nil)
			httptest.AssertErrorResponse(s.T(), rec, tc.expectCode, tc.wireCode)
		})
	}
}

func (s *AvailabilityHandlerTestSuite) TestGetAll() {
	s.Run("success: keys are flattened", func() {
		s.mockQueries.EXPECT().GetAllAvailability(gomock.Any()).Return(map[slot.Key]int{
			slot.ComposeKey("yoga", 1): 3,
			slot.ComposeKey("yoga", 2): 3,
			slot.ComposeKey("spin", 1): 0,
		}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/availability", nil)

		var body struct {
			Availability map[string]int `json:"availability"`
		}
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		want := map[string]int{"yoga#1": 3, "yoga#2": 3, "spin#1": 0}
		if diff := cmp.Diff(want, body.Availability); diff != "" {
			s.Failf("availability mismatch", "(-want +got):\n%s", diff)
		}
	})

	s.Run("error: store failure is a 500", func() {
		s.mockQueries.EXPECT().GetAllAvailability(gomock.Any()).Return(nil, errs.New("connection reset")).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/availability", nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusInternalServerError, errs.CodeInternal)
	})
}

func (s *AvailabilityHandlerTestSuite) TestListSlots() {
	s.mockQueries.EXPECT().ListAvailability(gomock.Any()).Return([]queries.SlotAvailabilityView{
		{ActivityID: "yoga", SlotIndex: 1, TimeSlotID: "yoga-1", Label: "Mon 09:00", Title: "Morning Yoga", Capacity: 5, Reserved: 5, Available: 0},
		{ActivityID: "yoga", SlotIndex: 2, TimeSlotID: "yoga-2", Title: "Morning Yoga", Capacity: 5, Reserved: 5, Available: 0},
	}, nil).Times(1)

	rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/slots", nil)

	var body struct {
		Slots []resdto.SlotAvailabilityResponse `json:"slots"`
	}
	httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
	s.Require().Len(body.Slots, 2)
	s.Equal("yoga#1", body.Slots[0].Key)
	s.Equal("Mon 09:00", body.Slots[0].Label)
	s.Equal("yoga#2", body.Slots[1].Key)
	s.Zero(body.Slots[1].Available)
}
