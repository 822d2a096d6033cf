package ticket_api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"tourbook/internal/auth"
	"tourbook/internal/logger"
	"tourbook/internal/models"
	"tourbook/internal/support"
	"tourbook/internal/support/ticket_api"
)

// memoryTickets is a TicketDBLayer kept in memory for handler tests.
type memoryTickets struct {
	tickets map[string]*models.SupportTicket
}

func (m *memoryTickets) CreateTicket(_ context.Context, t *models.SupportTicket) error {
	m.tickets[t.ID] = t
	return nil
}

func (m *memoryTickets) GetTicket(_ context.Context, id string) (*models.SupportTicket, error) {
	if t, ok := m.tickets[id]; ok {
		return t, nil
	}
	return nil, models.ErrNotFound
}

func (m *memoryTickets) ListByUser(_ context.Context, userID string) ([]*models.SupportTicket, error) {
	var out []*models.SupportTicket
	for _, t := range m.tickets {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memoryTickets) AddReply(_ context.Context, r *models.TicketReply) error {
	t := m.tickets[r.TicketID]
	t.Replies = append(t.Replies, r)
	return nil
}

func (m *memoryTickets) SetStatus(_ context.Context, id string, s models.TicketStatus) error {
	m.tickets[id].Status = s
	return nil
}

func newRouter(store *memoryTickets, userID string) http.Handler {
	h := ticket_api.NewHandler(support.NewTicketService(store, logger.Discard()), logger.Discard())
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithIdentity(req.Context(), &models.Identity{ID: userID})))
		})
	})
	r.Route("/api/support/tickets", h.Routes)
	return r
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestTicketLifecycle(t *testing.T) {
	store := &memoryTickets{tickets: map[string]*models.SupportTicket{
		"t1": {ID: "t1", UserID: "owner", Subject: "Visa", Status: models.TicketOpen},
	}}
	owner := newRouter(store, "owner")

	rec := serve(owner, http.MethodPost, "/api/support/tickets", `{"subject":"Refund","message":"Please","priority":"HIGH"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"priority":"high"`)

	rec = serve(owner, http.MethodPost, "/api/support/tickets/t1/replies", `{"message":"any news?"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(owner, http.MethodGet, "/api/support/tickets/t1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "any news?")

	rec = serve(owner, http.MethodPost, "/api/support/tickets/t1/close", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(owner, http.MethodPost, "/api/support/tickets/t1/replies", `{"message":"hello?"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTicketAccessControl(t *testing.T) {
	store := &memoryTickets{tickets: map[string]*models.SupportTicket{
		"t1": {ID: "t1", UserID: "owner", Status: models.TicketOpen},
	}}
	other := newRouter(store, "intruder")

	assert.Equal(t, http.StatusForbidden, serve(other, http.MethodGet, "/api/support/tickets/t1", "").Code)
	assert.Equal(t, http.StatusForbidden, serve(other, http.MethodPost, "/api/support/tickets/t1/close", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(other, http.MethodGet, "/api/support/tickets/nope", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(other, http.MethodPost, "/api/support/tickets", `{"subject":""}`).Code)
}
