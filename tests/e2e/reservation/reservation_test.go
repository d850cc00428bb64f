//go:build e2e

package reservation_test

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"slot-reservation-engine/internal/handler/dto/response"
	"slot-reservation-engine/internal/pkg/errs"
	"slot-reservation-engine/internal/usecase/commands"
	"slot-reservation-engine/tests/common/builder"
	"slot-reservation-engine/tests/common/dbtest"
	"slot-reservation-engine/tests/common/httptest"
	"slot-reservation-engine/tests/e2e"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	reservationsURL        = "/api/reservations"
	subjectReservationsURL = "/api/subjects/%s/reservations"
	cancelURL              = "/api/subjects/%s/reservations/%s"
	activityAvailURL       = "/api/activities/%s/availability"
	availabilityURL        = "/api/availability"
	reconcileURL           = "/api/admin/reconcile"
)

type ReservationSuite struct {
	e2e.SharedSuite
}

func (s *ReservationSuite) SetupSubTest() {
	s.SharedSuite.SetupSubTest()
}

func TestReservationSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(ReservationSuite))
}

func (s *ReservationSuite) reserve(subject, activityID string, slotIndex int) (int, string) {
	body := builder.NewReservationBuilder().WithSubject(subject).WithSlot(activityID, slotIndex).BuildReserveRequestDTO()
	w := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, reservationsURL, body)
	return w.Code, w.Body.String()
}

// =============================================================================
// TestReserve
// =============================================================================

func (s *ReservationSuite) TestReserve() {
	s.Run("Normal case: admitted booking updates ledger, counter and availability", func() {
		t := s.T()
		dbtest.CreateTestActivity(t, s.DB, "yoga", 2, 3)

		body := builder.NewReservationBuilder().WithSubject("alice").WithSlot("yoga", 2).WithAttachment("upload-1").BuildReserveRequestDTO()
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL, body)

		var resp response.ReserveResponse
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, &resp)
		require.Len(t, resp.Reservations, 1)
		s.Equal("yoga-2", resp.Reservations[0].TimeSlotID)
		s.Equal("upload-1", *resp.Reservations[0].AttachmentRef)

		s.Equal(1, dbtest.Counter(t, s.DB, "yoga"))
		s.Equal(1, dbtest.LedgerCount(t, s.DB, "yoga"))

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, fmt.Sprintf(activityAvailURL, "yoga"), nil)
		var avail response.AvailabilityResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &avail)
		s.Equal(1, avail.Available)
	})

	s.Run("Normal case: row id lookup shares the text id's pool", func() {
		t := s.T()
		rowID := dbtest.CreateTestActivity(t, s.DB, "spin", 1, 1)

		body := builder.NewReservationBuilder().WithSubject("alice").WithSlot("spin", 1).WithActivityRow(rowID).BuildReserveRequestDTO()
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL, body)
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, nil)

		code, _ := s.reserve("bob", "spin", 1)
		s.Equal(http.StatusConflict, code)

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, fmt.Sprintf(activityAvailURL, strconv.FormatInt(rowID, 10)), nil)
		var avail response.AvailabilityResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &avail)
		s.Equal("spin", avail.ActivityID)
		s.Zero(avail.Available)
	})

	s.Run("Error case: second booking on the same activity", func() {
		t := s.T()
		dbtest.CreateTestActivity(t, s.DB, "yoga", 5, 3)

		code, body := s.reserve("alice", "yoga", 1)
		require.Equal(t, http.StatusCreated, code, body)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL,
			builder.NewReservationBuilder().WithSubject("alice").WithSlot("yoga", 3).BuildReserveRequestDTO())
		httptest.AssertErrorResponse(t, w, http.StatusConflict, errs.CodeAlreadyReserved)
		s.Equal(1, dbtest.Counter(t, s.DB, "yoga"))
	})

	s.Run("Error case: unknown slot is 404", func() {
		t := s.T()
		dbtest.CreateTestActivity(t, s.DB, "yoga", 5, 2)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL,
			builder.NewReservationBuilder().WithSubject("alice").WithSlot("yoga", 4).BuildReserveRequestDTO())
		httptest.AssertErrorResponse(t, w, http.StatusNotFound, errs.CodeSlotNotFound)

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL,
			builder.NewReservationBuilder().WithSubject("alice").WithSlot("pilates", 1).BuildReserveRequestDTO())
		httptest.AssertErrorResponse(t, w, http.StatusNotFound, errs.CodeSlotNotFound)
		s.Zero(dbtest.LedgerCount(t, s.DB, "yoga"))
	})

	s.Run("Error case: malformed time slot id is 400", func() {
		t := s.T()
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL,
			map[string]any{"subjectId": "alice", "timeSlotId": "yoga"})
		httptest.AssertErrorResponse(t, w, http.StatusBadRequest, errs.CodeInvalidSlotIdentifier)
	})
}

// =============================================================================
// TestConcurrentAdmission - capacity holds under contention
// =============================================================================

func (s *ReservationSuite) TestConcurrentAdmission() {
	s.Run("Exactly capacity bookings succeed", func() {
		t := s.T()
		const capacity, callers = 5, 25
		dbtest.CreateTestActivity(t, s.DB, "yoga", capacity, 2)

		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			codes = map[int]int{}
		)
		start := make(chan struct{})
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				code, _ := s.reserve("subject-"+strconv.Itoa(i), "yoga", 1+i%2)
				mu.Lock()
				codes[code]++
				mu.Unlock()
			}(i)
		}
		close(start)
		wg.Wait()

		want := map[int]int{http.StatusCreated: capacity, http.StatusConflict: callers - capacity}
		if diff := cmp.Diff(want, codes); diff != "" {
			t.Fatalf("status codes mismatch (-want +got):\n%s", diff)
		}
		s.Equal(capacity, dbtest.Counter(t, s.DB, "yoga"))
		s.Equal(capacity, dbtest.LedgerCount(t, s.DB, "yoga"))
	})

	s.Run("Concurrent swaps between two activities keep both counters exact", func() {
		t := s.T()
		dbtest.CreateTestActivity(t, s.DB, "yoga", 10, 1)
		dbtest.CreateTestActivity(t, s.DB, "spin", 10, 1)

		const subjects = 6
		for i := 0; i < subjects; i++ {
			code, body := s.reserve("subject-"+strconv.Itoa(i), "yoga", 1)
			require.Equal(t, http.StatusCreated, code, body)
		}

		var wg sync.WaitGroup
		for i := 0; i < subjects; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				target := builder.NewReservationBuilder().WithSlot("spin", 1)
				if i%2 == 0 {
					target = builder.NewReservationBuilder().WithSlot("yoga", 1)
				}
				httptest.PerformRequest(t, s.Router, http.MethodPut,
					fmt.Sprintf(subjectReservationsURL, "subject-"+strconv.Itoa(i)),
					map[string]any{"slots": []any{target.BuildSlotRequestDTO()}})
			}(i)
		}
		wg.Wait()

		s.Equal(dbtest.LedgerCount(t, s.DB, "yoga"), dbtest.Counter(t, s.DB, "yoga"))
		s.Equal(dbtest.LedgerCount(t, s.DB, "spin"), dbtest.Counter(t, s.DB, "spin"))
		s.Equal(subjects, dbtest.Counter(t, s.DB, "yoga")+dbtest.Counter(t, s.DB, "spin"))
	})
}

// =============================================================================
// TestReplaceAll
// =============================================================================

func (s *ReservationSuite) TestReplaceAll() {
	s.Run("Normal case: booking moves between activities", func() {
		t := s.T()
		dbtest.CreateTestActivity(t, s.DB, "yoga", 3, 2)
		dbtest.CreateTestActivity(t, s.DB, "spin", 3, 2)
		code, body := s.reserve("alice", "yoga", 1)
		require.Equal(t, http.StatusCreated, code, body)

		w := httptest.PerformRequest(t, s.Router, http.MethodPut, fmt.Sprintf(subjectReservationsURL, "alice"),
			map[string]any{"slots": []any{builder.NewReservationBuilder().WithSlot("spin", 2).BuildSlotRequestDTO()}})

		var resp response.ReserveResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &resp)
		require.Len(t, resp.Replaced, 1)
		s.Equal("yoga", resp.Replaced[0].ActivityID)

		s.Zero(dbtest.Counter(t, s.DB, "yoga"))
		s.Equal(1, dbtest.Counter(t, s.DB, "spin"))

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, fmt.Sprintf(subjectReservationsURL, "alice"), nil)
		var list struct {
			Reservations []response.ReservationResponse `json:"reservations"`
		}
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &list)
		require.Len(t, list.Reservations, 1)
		s.Equal("spin-2", list.Reservations[0].TimeSlotID)
	})

	s.Run("Error case: full target keeps the old booking", func() {
		t := s.T()
		dbtest.CreateTestActivity(t, s.DB, "yoga", 3, 1)
		dbtest.CreateTestActivity(t, s.DB, "spin", 1, 1)
		code, body := s.reserve("alice", "yoga", 1)
		require.Equal(t, http.StatusCreated, code, body)
		code, body = s.reserve("bob", "spin", 1)
		require.Equal(t, http.StatusCreated, code, body)

		w := httptest.PerformRequest(t, s.Router, http.MethodPut, fmt.Sprintf(subjectReservationsURL, "alice"),
			map[string]any{"slots": []any{builder.NewReservationBuilder().WithSlot("spin", 1).BuildSlotRequestDTO()}})
		httptest.AssertErrorResponse(t, w, http.StatusConflict, errs.CodeNoSpotsAvailable)

		s.Equal(1, dbtest.Counter(t, s.DB, "yoga"))
		s.Equal(1, dbtest.LedgerCount(t, s.DB, "yoga"))
		s.Equal(1, dbtest.Counter(t, s.DB, "spin"))
	})

	s.Run("Normal case: replaceAll flag on POST", func() {
		t := s.T()
		dbtest.CreateTestActivity(t, s.DB, "yoga", 1, 2)
		code, body := s.reserve("alice", "yoga", 1)
		require.Equal(t, http.StatusCreated, code, body)

		// the subject's own seat is released first, so a full activity can be re-booked
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL,
			builder.NewReservationBuilder().WithSubject("alice").WithSlot("yoga", 2).WithReplaceAll().BuildReserveRequestDTO())
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, nil)
		s.Equal(1, dbtest.Counter(t, s.DB, "yoga"))
	})
}

// =============================================================================
// TestCancel
// =============================================================================

func (s *ReservationSuite) TestCancel() {
	s.Run("Normal case: cancel is idempotent", func() {
		t := s.T()
		dbtest.CreateTestActivity(t, s.DB, "yoga", 2, 1)
		code, body := s.reserve("alice", "yoga", 1)
		require.Equal(t, http.StatusCreated, code, body)

		for _, want := range []bool{true, false} {
			w := httptest.PerformRequest(t, s.Router, http.MethodDelete, fmt.Sprintf(cancelURL, "alice", "yoga"), nil)
			var resp response.CancelResponse
			httptest.AssertSuccessResponse(t, w, http.StatusOK, &resp)
			s.Equal(want, resp.Removed)
		}
		s.Zero(dbtest.Counter(t, s.DB, "yoga"))
		s.Zero(dbtest.LedgerCount(t, s.DB, "yoga"))
	})

	s.Run("Normal case: cancelled seat is visible in availability", func() {
		t := s.T()
		dbtest.CreateTestActivity(t, s.DB, "yoga", 1, 1)
		code, body := s.reserve("alice", "yoga", 1)
		require.Equal(t, http.StatusCreated, code, body)

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, availabilityURL, nil)
		var before struct {
			Availability map[string]int `json:"availability"`
		}
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &before)
		s.Equal(0, before.Availability["yoga#1"])

		httptest.PerformRequest(t, s.Router, http.MethodDelete, fmt.Sprintf(cancelURL, "alice", "yoga"), nil)

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, availabilityURL, nil)
		var after struct {
			Availability map[string]int `json:"availability"`
		}
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &after)
		s.Equal(1, after.Availability["yoga#1"])
	})
}

// =============================================================================
// TestLockTimeout
// =============================================================================

func (s *ReservationSuite) TestLockTimeout() {
	s.Run("Error case: held activity lock aborts the booking", func() {
		t := s.T()
		dbtest.CreateTestActivity(t, s.DB, "yoga", 5, 1)

		release := dbtest.HoldActivityLock(t, s.DB, "yoga")

		started := time.Now()
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL,
			builder.NewReservationBuilder().WithSubject("alice").WithSlot("yoga", 1).BuildReserveRequestDTO())
		httptest.AssertErrorResponse(t, w, http.StatusServiceUnavailable, errs.CodeTransactionAborted)
		s.GreaterOrEqual(time.Since(started), s.Config.Admission.LockTimeout)

		release()
		s.Zero(dbtest.LedgerCount(t, s.DB, "yoga"))
		s.Zero(dbtest.Counter(t, s.DB, "yoga"))
	})
}

// =============================================================================
// TestReconcile
// =============================================================================

func (s *ReservationSuite) TestReconcile() {
	s.Run("Normal case: drifted counter is rewritten from the ledger", func() {
		t := s.T()
		dbtest.CreateTestActivity(t, s.DB, "yoga", 5, 2)
		dbtest.InsertRawReservation(t, s.DB, "alice", "yoga", 1)
		dbtest.InsertRawReservation(t, s.DB, "bob", "yoga", 2)
		dbtest.SetCounter(t, s.DB, "yoga", 4)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, reconcileURL, map[string]any{"dryRun": true})
		var dry commands.ReconcileReport
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &dry)
		require.Len(t, dry.Drifts, 1)
		s.Equal(4, dbtest.Counter(t, s.DB, "yoga"), "dry run writes nothing")

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, reconcileURL, nil)
		var report commands.ReconcileReport
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &report)
		s.Equal(1, report.Corrected)
		s.Equal(commands.ActivityDrift{ActivityID: "yoga", Before: 4, After: 2, Capacity: 5}, report.Drifts[0])
		s.Equal(2, dbtest.Counter(t, s.DB, "yoga"))

		// freshly corrected counter is what availability serves
		w = httptest.PerformRequest(t, s.Router, http.MethodGet, fmt.Sprintf(activityAvailURL, "yoga"), nil)
		var avail response.AvailabilityResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &avail)
		s.Equal(3, avail.Available)
	})

	s.Run("Error case: over-capacity ledger raises an alarm", func() {
		t := s.T()
		dbtest.CreateTestActivity(t, s.DB, "spin", 1, 1)
		dbtest.InsertRawReservation(t, s.DB, "alice", "spin", 1)
		dbtest.InsertRawReservation(t, s.DB, "bob", "spin", 1)

		report, err := s.Reconcile.Run(context.Background(), commands.ReconcileOptions{})
		require.NoError(t, err)
		require.True(t, report.HasAlarms())
		s.Equal(commands.ConsistencyAlarm{ActivityID: "spin", Counter: 2, Capacity: 1}, report.Alarms[0])

		code, _ := s.reserve("carol", "spin", 1)
		s.Equal(http.StatusConflict, code)
	})
}
