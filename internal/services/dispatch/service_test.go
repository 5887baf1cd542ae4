package dispatch

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/common"
	"github.com/ternarybob/serendib/internal/interfaces"
	"github.com/ternarybob/serendib/internal/models"
	"github.com/ternarybob/serendib/internal/planner"
	"github.com/ternarybob/serendib/internal/services/mailer"
	"github.com/ternarybob/serendib/internal/services/workers"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg mailer.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return "<msg-" + msg.To[0] + ">", nil
}

func (f *fakeMailer) messages() []mailer.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mailer.Message(nil), f.sent...)
}

type memoryInquiries struct {
	mu    sync.Mutex
	items map[string]*models.Inquiry
}

func newMemoryInquiries() *memoryInquiries {
	return &memoryInquiries{items: make(map[string]*models.Inquiry)}
}

func (m *memoryInquiries) SaveInquiry(_ context.Context, inquiry *models.Inquiry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *inquiry
	m.items[inquiry.ID] = &copied
	return nil
}

func (m *memoryInquiries) GetInquiry(_ context.Context, id string) (*models.Inquiry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inquiry, ok := m.items[id]; ok {
		return inquiry, nil
	}
	return nil, interfaces.ErrNotFound
}

func (m *memoryInquiries) ListInquiries(_ context.Context, limit int) ([]*models.Inquiry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*models.Inquiry, 0, len(m.items))
	for _, inquiry := range m.items {
		result = append(result, inquiry)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *memoryInquiries) CountInquiries(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items), nil
}

type stubRenderer struct {
	err error
}

func (r stubRenderer) RenderItinerary(string, models.TripPlanRequest, planner.Stats, time.Time) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-1.3 stub"), nil
}

func testMailConfig() common.MailConfig {
	return common.MailConfig{
		OperatorInbox:   "trips@serendib.test",
		SubjectPrefix:   "[Serendib]",
		AttachItinerary: true,
	}
}

func testSite() common.SiteConfig {
	return common.SiteConfig{Name: "Serendib Journeys", Email: "hello@serendib.test", Phone: "+94 11 234 5678"}
}

func tripPlan() models.TripPlanRequest {
	return models.TripPlanRequest{
		Name:  "Nimal Perera",
		Email: "nimal@example.com",
		Phone: "+94 77 123 4567",
		Notes: "Two kids travelling",
		Places: []models.Place{
			{ID: "kandy", Name: "Kandy", Province: "Central", Lat: 7.2906, Lng: 80.6337},
			{ID: "ella", Name: "Ella", Province: "Uva", Lat: 6.8667, Lng: 81.0466},
		},
	}
}

func newTestService(m Mailer, mail common.MailConfig) (*Service, *memoryInquiries) {
	store := newMemoryInquiries()
	svc := NewService(m, stubRenderer{}, store, nil, testSite(), mail, arbor.NewLogger())
	return svc, store
}

func TestDispatch_SendsToOperator(t *testing.T) {
	m := &fakeMailer{}
	svc, store := newTestService(m, testMailConfig())

	ctx := WithClientIP(context.Background(), "203.0.113.9")
	result, err := svc.Dispatch(ctx, tripPlan())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "<msg-trips@serendib.test>", result.EmailID)

	sent := m.messages()
	require.Len(t, sent, 1)
	msg := sent[0]
	assert.Equal(t, []string{"trips@serendib.test"}, msg.To)
	assert.Equal(t, "nimal@example.com", msg.ReplyTo)
	assert.Equal(t, "[Serendib] Trip plan from Nimal Perera (2 destinations)", msg.Subject)
	assert.Contains(t, msg.TextBody, "| 1 | Kandy | Central |")
	assert.Contains(t, msg.HTMLBody, "<table>")
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "trip-plan-nimal-perera.pdf", msg.Attachments[0].Filename)
	assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)

	inquiries, err := store.ListInquiries(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, inquiries, 1)
	assert.Equal(t, models.InquiryKindTripPlan, inquiries[0].Kind)
	assert.Equal(t, models.InquiryStatusSent, inquiries[0].Status)
	assert.Equal(t, "203.0.113.9", inquiries[0].ClientIP)
	assert.Equal(t, result.EmailID, inquiries[0].EmailID)
	assert.Len(t, inquiries[0].Places, 2)
}

func TestDispatch_InvalidRequest(t *testing.T) {
	m := &fakeMailer{}
	svc, store := newTestService(m, testMailConfig())

	req := tripPlan()
	req.Name = "N"
	req.Places = nil

	result, err := svc.Dispatch(context.Background(), req)
	require.Error(t, err)
	assert.False(t, result.Success)

	fieldErrors, ok := IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "Name must be at least 2 characters", fieldErrors["name"])
	assert.Contains(t, fieldErrors, "places")

	assert.Empty(t, m.messages())
	count, _ := store.CountInquiries(context.Background())
	assert.Zero(t, count)
}

func TestDispatch_MailerFailureRecorded(t *testing.T) {
	m := &fakeMailer{err: errors.New("connection refused")}
	svc, store := newTestService(m, testMailConfig())

	result, err := svc.Dispatch(context.Background(), tripPlan())
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.NotContains(t, result.Error, "connection refused")

	inquiries, _ := store.ListInquiries(context.Background(), 0)
	require.Len(t, inquiries, 1)
	assert.Equal(t, models.InquiryStatusFailed, inquiries[0].Status)
	assert.Equal(t, "connection refused", inquiries[0].Error)
}

func TestDispatch_PDFFailureStillSends(t *testing.T) {
	m := &fakeMailer{}
	store := newMemoryInquiries()
	svc := NewService(m, stubRenderer{err: errors.New("font missing")}, store, nil, testSite(), testMailConfig(), arbor.NewLogger())

	result, err := svc.Dispatch(context.Background(), tripPlan())
	require.NoError(t, err)
	assert.True(t, result.Success)
	require.Len(t, m.messages(), 1)
	assert.Empty(t, m.messages()[0].Attachments)
}

func TestDispatch_FallsBackToSiteEmail(t *testing.T) {
	m := &fakeMailer{}
	mail := testMailConfig()
	mail.OperatorInbox = ""
	svc, _ := newTestService(m, mail)

	result, err := svc.Dispatch(context.Background(), tripPlan())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{"hello@serendib.test"}, m.messages()[0].To)
}

func TestDispatch_NoInbox(t *testing.T) {
	m := &fakeMailer{}
	mail := testMailConfig()
	mail.OperatorInbox = ""
	store := newMemoryInquiries()
	svc := NewService(m, nil, store, nil, common.SiteConfig{Name: "Serendib"}, mail, arbor.NewLogger())

	result, err := svc.Dispatch(context.Background(), tripPlan())
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Empty(t, m.messages())
}

func TestDispatch_SendsConfirmation(t *testing.T) {
	m := &fakeMailer{}
	mail := testMailConfig()
	mail.SendConfirmation = true
	svc, _ := newTestService(m, mail)

	result, err := svc.Dispatch(context.Background(), tripPlan())
	require.NoError(t, err)
	require.True(t, result.Success)

	assert.Eventually(t, func() bool { return len(m.messages()) == 2 }, time.Second, 10*time.Millisecond)
	var confirmation mailer.Message
	for _, msg := range m.messages() {
		if msg.To[0] == "nimal@example.com" {
			confirmation = msg
		}
	}
	assert.Equal(t, "trips@serendib.test", confirmation.ReplyTo)
	assert.Contains(t, confirmation.TextBody, "Hello Nimal Perera")
	assert.Empty(t, confirmation.Attachments)
}

func TestDispatch_ConfirmationThroughPool(t *testing.T) {
	m := &fakeMailer{}
	mail := testMailConfig()
	mail.SendConfirmation = true
	svc, _ := newTestService(m, mail)

	pool := workers.NewPool(1, 4, time.Second, arbor.NewLogger())
	pool.Start()
	svc.UseBackgroundPool(pool)

	result, err := svc.Dispatch(context.Background(), tripPlan())
	require.NoError(t, err)
	require.True(t, result.Success)

	require.NoError(t, pool.Shutdown(context.Background()))
	assert.Len(t, m.messages(), 2)
}

func TestDispatch_RateLimited(t *testing.T) {
	m := &fakeMailer{}
	mail := testMailConfig()
	mail.RatePerMinute = 1
	mail.RateBurst = 2
	svc, _ := newTestService(m, mail)

	ctx := WithClientIP(context.Background(), "198.51.100.7")
	for i := 0; i < 2; i++ {
		result, err := svc.Dispatch(ctx, tripPlan())
		require.NoError(t, err)
		require.True(t, result.Success)
	}

	result, err := svc.Dispatch(ctx, tripPlan())
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.False(t, result.Success)
	assert.Len(t, m.messages(), 2)

	other := WithClientIP(context.Background(), "198.51.100.8")
	result, err = svc.Dispatch(other, tripPlan())
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestContact(t *testing.T) {
	m := &fakeMailer{}
	svc, store := newTestService(m, testMailConfig())

	result, err := svc.Contact(context.Background(), models.ContactRequest{
		Name:    "Ayesha",
		Email:   "ayesha@example.com",
		Subject: "Airport transfer",
		Message: "Do you offer pickups from Bandaranaike airport at night?",
		TourID:  "tour_cultural",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)

	sent := m.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "[Serendib] Airport transfer", sent[0].Subject)
	assert.Contains(t, sent[0].TextBody, "Bandaranaike airport")
	assert.Contains(t, sent[0].TextBody, `tour\_cultural`)
	assert.Empty(t, sent[0].Attachments)

	inquiries, _ := store.ListInquiries(context.Background(), 0)
	require.Len(t, inquiries, 1)
	assert.Equal(t, models.InquiryKindContact, inquiries[0].Kind)
	assert.Equal(t, "tour_cultural", inquiries[0].TourID)
}

func TestContact_DefaultSubject(t *testing.T) {
	m := &fakeMailer{}
	svc, _ := newTestService(m, testMailConfig())

	_, err := svc.Contact(context.Background(), models.ContactRequest{
		Name:    "Ayesha",
		Email:   "ayesha@example.com",
		Message: "Please call me about a family tour.",
	})
	require.NoError(t, err)
	assert.Equal(t, "[Serendib] Website inquiry from Ayesha", m.messages()[0].Subject)
}

func TestSlugName(t *testing.T) {
	assert.Equal(t, "nimal-perera", slugName("  Nimal  Perera "))
	assert.Equal(t, "o-brien", slugName("O'Brien"))
	assert.Equal(t, "traveller", slugName("!!"))
}
