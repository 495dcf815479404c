package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/thegera4/cool-morning-tables-sub000/internal/auth"
	"github.com/thegera4/cool-morning-tables-sub000/internal/export"
	"github.com/thegera4/cool-morning-tables-sub000/internal/models"
	"github.com/thegera4/cool-morning-tables-sub000/internal/service"
)

func (s *HTTPServer) handleLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := s.svc.Catalog.ListLocations(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"locations": locations})
}

func (s *HTTPServer) handleExtras(w http.ResponseWriter, r *http.Request) {
	extras, err := s.svc.Catalog.ListExtras(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"extras": extras})
}

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	locationID, err := strconv.ParseInt(r.PathValue("locationID"), 10, 64)
	if err != nil || locationID <= 0 {
		writeError(w, http.StatusBadRequest, "location id must be a positive integer")
		return
	}

	q := r.URL.Query()
	days := 0
	if raw := strings.TrimSpace(q.Get("days")); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil || days < 1 {
			writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
	}

	out, err := s.svc.Catalog.Availability(r.Context(), locationID, strings.TrimSpace(q.Get("from")), days)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"location_id": locationID, "days": out})
}

func (s *HTTPServer) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req service.ReservationRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	quote, err := s.svc.Checkout.Quote(r.Context(), &req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *HTTPServer) handleSyncCustomer(w http.ResponseWriter, r *http.Request) {
	id := mustIdentity(r)
	customer, err := s.svc.Customers.EnsureCustomer(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (s *HTTPServer) handleCreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req service.ReservationRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	res, err := s.svc.Checkout.CreatePaymentIntent(r.Context(), mustIdentity(r), &req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *HTTPServer) handleUpdatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	intentID := strings.TrimSpace(r.PathValue("id"))
	if intentID == "" {
		writeError(w, http.StatusBadRequest, "payment intent id is required")
		return
	}
	var req service.ReservationRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	res, err := s.svc.Checkout.UpdatePaymentIntent(r.Context(), mustIdentity(r), intentID, &req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.svc.Orders.ListCustomerOrders(r.Context(), mustIdentity(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (s *HTTPServer) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.svc.Orders.GetCustomerOrder(r.Context(), mustIdentity(r), r.PathValue("number"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *HTTPServer) handleReminders(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Reminders.SendDueReminders(r.Context(), s.now())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) handleExportOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to"))

	// render fully before writing so failures still get a JSON error
	var buf bytes.Buffer
	if err := s.svc.Orders.ExportOrders(r.Context(), &buf, from, to); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(from, to)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// mustIdentity returns the identity stored by the session middleware. Routes
// using it are always wrapped by that middleware.
func mustIdentity(r *http.Request) *models.Identity {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		panic("api: session identity missing from request context")
	}
	return id
}
