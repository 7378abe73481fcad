package integrationtests

import (
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"deskbook/pkg/model"
	"deskbook/test/integration/testutil"
)

// The booking flow spans all three services, so these tests need live
// accounts, offices and bookings instances:
//
//	TEST_ACCOUNTS_URL=http://localhost:8080 \
//	TEST_OFFICES_URL=http://localhost:8081 \
//	TEST_BOOKINGS_URL=http://localhost:8082 \
//	go test ./test/integration/...
type env struct {
	accounts *testutil.Client
	offices  *testutil.Client
	bookings *testutil.Client
}

func setup(t *testing.T) *env {
	t.Helper()

	accountsURL := os.Getenv("TEST_ACCOUNTS_URL")
	officesURL := os.Getenv("TEST_OFFICES_URL")
	bookingsURL := os.Getenv("TEST_BOOKINGS_URL")
	if accountsURL == "" || officesURL == "" || bookingsURL == "" {
		t.Skip("TEST_ACCOUNTS_URL, TEST_OFFICES_URL and TEST_BOOKINGS_URL not all set, skipping integration test")
	}

	e := &env{
		accounts: testutil.NewClient(accountsURL),
		offices:  testutil.NewClient(officesURL),
		bookings: testutil.NewClient(bookingsURL),
	}
	e.accounts.WaitForHealthy(t, 30*time.Second)
	e.offices.WaitForHealthy(t, 30*time.Second)
	e.bookings.WaitForHealthy(t, 30*time.Second)
	return e
}

type authEnvelope struct {
	Data model.AuthResponse `json:"data"`
}

type officeEnvelope struct {
	Data model.Office `json:"data"`
}

type bookingEnvelope struct {
	Data model.Booking `json:"data"`
}

type bookingListEnvelope struct {
	Data  []model.Booking `json:"data"`
	Count int             `json:"count"`
}

func (e *env) register(t *testing.T, role string) model.AuthResponse {
	t.Helper()

	resp := e.accounts.POST(t, "/api/v1/auth/register", model.RegisterRequest{
		Email:    fmt.Sprintf("%s-%d@deskbook.test", role, time.Now().UnixNano()),
		Password: "s3cret-pass",
		Role:     role,
	})
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	var env authEnvelope
	if err := resp.DecodeJSON(&env); err != nil {
		t.Fatalf("failed to decode register response: %v", err)
	}
	return env.Data
}

func (e *env) createOffice(t *testing.T, token, title string) model.Office {
	t.Helper()

	resp := e.offices.WithToken(token).POST(t, "/api/v1/offices", map[string]any{
		"title":          title,
		"description":    "A quiet corner desk with a window seat",
		"location":       "Haifa, Downtown",
		"price_per_hour": 12.5,
		"price_per_day":  80.0,
		"amenities":      []string{"wifi", "coffee"},
	})
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	var env officeEnvelope
	if err := resp.DecodeJSON(&env); err != nil {
		t.Fatalf("failed to decode office response: %v", err)
	}
	return env.Data
}

func (e *env) createBooking(t *testing.T, token, officeID string) model.Booking {
	t.Helper()

	resp := e.bookings.WithToken(token).POST(t, "/api/v1/bookings", model.BookingRequest{
		OfficeID:    officeID,
		BookingDate: time.Now().AddDate(0, 0, 7).Format("2006-01-02"),
		StartTime:   "09:00",
		EndTime:     "12:00",
	})
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	var env bookingEnvelope
	if err := resp.DecodeJSON(&env); err != nil {
		t.Fatalf("failed to decode booking response: %v", err)
	}
	return env.Data
}

func TestBookingLifecycle(t *testing.T) {
	e := setup(t)

	owner := e.register(t, "owner")
	seeker := e.register(t, "seeker")
	office := e.createOffice(t, owner.Token, "Lifecycle Desk")

	booking := e.createBooking(t, seeker.Token, office.ID)
	if booking.Status != model.StatusPending {
		t.Fatalf("new booking must be pending, got %q", booking.Status)
	}

	// The requester list embeds the office the booking points at.
	list := e.bookings.WithToken(seeker.Token).GET(t, "/api/v1/bookings")
	testutil.AssertStatusCode(t, list, http.StatusOK)

	var mine bookingListEnvelope
	if err := list.DecodeJSON(&mine); err != nil {
		t.Fatalf("failed to decode booking list: %v", err)
	}
	found := false
	for _, b := range mine.Data {
		if b.ID == booking.ID {
			found = true
			if b.Office == nil || b.Office.Title != "Lifecycle Desk" {
				t.Fatalf("expected embedded office on booking, got %+v", b.Office)
			}
		}
	}
	if !found {
		t.Fatalf("booking %s missing from requester list", booking.ID)
	}

	// The owner sees the same booking through the owner view and can
	// move it to any status.
	owned := e.bookings.WithToken(owner.Token).GET(t, "/api/v1/bookings/owned")
	testutil.AssertStatusCode(t, owned, http.StatusOK)
	testutil.AssertContains(t, owned, booking.ID)

	confirm := e.bookings.WithToken(owner.Token).PATCH(t,
		"/api/v1/bookings/id/"+booking.ID+"/status",
		map[string]string{"status": model.StatusConfirmed})
	testutil.AssertStatusCode(t, confirm, http.StatusNoContent)

	// Cancelling is unconditional and idempotent for the requester.
	cancel := e.bookings.WithToken(seeker.Token).POST(t,
		"/api/v1/bookings/id/"+booking.ID+"/cancel", nil)
	testutil.AssertStatusCode(t, cancel, http.StatusNoContent)

	again := e.bookings.WithToken(seeker.Token).POST(t,
		"/api/v1/bookings/id/"+booking.ID+"/cancel", nil)
	testutil.AssertStatusCode(t, again, http.StatusNoContent)
}

func TestBookingAuthorization(t *testing.T) {
	e := setup(t)

	owner := e.register(t, "owner")
	seeker := e.register(t, "seeker")
	intruder := e.register(t, "seeker")
	office := e.createOffice(t, owner.Token, "Guarded Desk")
	booking := e.createBooking(t, seeker.Token, office.ID)

	// Only the requester may cancel their booking.
	cancel := e.bookings.WithToken(intruder.Token).POST(t,
		"/api/v1/bookings/id/"+booking.ID+"/cancel", nil)
	testutil.AssertStatusCode(t, cancel, http.StatusForbidden)

	// Only the office owner may change its status.
	status := e.bookings.WithToken(intruder.Token).PATCH(t,
		"/api/v1/bookings/id/"+booking.ID+"/status",
		map[string]string{"status": model.StatusConfirmed})
	testutil.AssertStatusCode(t, status, http.StatusForbidden)

	// Unknown statuses are rejected outright.
	bogus := e.bookings.WithToken(owner.Token).PATCH(t,
		"/api/v1/bookings/id/"+booking.ID+"/status",
		map[string]string{"status": "archived"})
	testutil.AssertStatusCode(t, bogus, http.StatusBadRequest)

	// No token at all is rejected before any lookup.
	anon := e.bookings.GET(t, "/api/v1/bookings")
	testutil.AssertStatusCode(t, anon, http.StatusUnauthorized)
}

func TestOfficeBookingCounter(t *testing.T) {
	e := setup(t)

	owner := e.register(t, "owner")
	seeker := e.register(t, "seeker")
	office := e.createOffice(t, owner.Token, "Counted Desk")

	e.createBooking(t, seeker.Token, office.ID)
	e.createBooking(t, seeker.Token, office.ID)

	resp := e.offices.GET(t, "/api/v1/offices/id/"+office.ID)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var env officeEnvelope
	if err := resp.DecodeJSON(&env); err != nil {
		t.Fatalf("failed to decode office response: %v", err)
	}
	if env.Data.BookingCount != 2 {
		t.Fatalf("expected booking_count 2, got %d", env.Data.BookingCount)
	}
}
