package leads

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/buyer-leads/internal/identity"
	"github.com/wolfman30/buyer-leads/pkg/logging"
)

// ListPath is where callers land after a successful submission.
const ListPath = "/buyers"

const maxBodyBytes = 1 << 20

// Handler handles HTTP requests for buyer leads
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new leads handler
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string      `json:"message"`
	Errors  FieldErrors `json:"errors,omitempty"`
}

// CreateLeadResponse is returned to JSON callers on success.
type CreateLeadResponse struct {
	Lead     LeadView `json:"lead"`
	Redirect string   `json:"redirect"`
}

// ListLeadsResponse is the response for listing leads
type ListLeadsResponse struct {
	Leads []LeadView `json:"leads"`
	Count int        `json:"count"`
}

// HistoryResponse lists the audit trail of one lead.
type HistoryResponse struct {
	History []*HistoryEntry `json:"history"`
	Count   int             `json:"count"`
}

// CreateLead handles POST /buyers. Form posts are redirected to the list on
// success; JSON callers get the lead and the redirect target.
func (h *Handler) CreateLead(w http.ResponseWriter, r *http.Request) {
	sub, isForm, err := decodeSubmission(w, r)
	if err != nil {
		h.logger.Warn("failed to decode lead submission", "error", err)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid request body"})
		return
	}

	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Message: "missing actor"})
		return
	}

	lead, err := h.service.CreateLead(r.Context(), actor, sub)
	if err != nil {
		h.writeCreateError(w, err)
		return
	}

	if isForm {
		http.Redirect(w, r, ListPath, http.StatusSeeOther)
		return
	}
	w.Header().Set("Location", ListPath)
	writeJSON(w, http.StatusCreated, CreateLeadResponse{
		Lead:     NewLeadView(lead),
		Redirect: ListPath,
	})
}

func (h *Handler) writeCreateError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		status := http.StatusUnprocessableEntity
		if verr.IsDuplicatePhone() {
			status = http.StatusConflict
		}
		writeJSON(w, status, ErrorResponse{Message: verr.Message, Errors: verr.Fields})
		return
	}

	message := msgCreateFailed
	var serr *ServiceError
	if errors.As(err, &serr) {
		message = serr.Message
	}
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Message: message})
}

// ListLeads handles GET /buyers
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := h.service.ListRecent(r.Context())
	if err != nil {
		h.logger.Error("failed to list leads", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "failed to list leads"})
		return
	}

	writeJSON(w, http.StatusOK, ListLeadsResponse{
		Leads: NewLeadViews(leads),
		Count: len(leads),
	})
}

// GetLead handles GET /buyers/{id}
func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	lead, err := h.service.GetLead(r.Context(), id)
	if err != nil {
		h.writeReadError(w, err, id)
		return
	}
	writeJSON(w, http.StatusOK, NewLeadView(lead))
}

// GetHistory handles GET /buyers/{id}/history
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entries, err := h.service.History(r.Context(), id)
	if err != nil {
		h.writeReadError(w, err, id)
		return
	}
	if entries == nil {
		entries = []*HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{History: entries, Count: len(entries)})
}

func (h *Handler) writeReadError(w http.ResponseWriter, err error, id string) {
	if errors.Is(err, ErrLeadNotFound) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Message: "Lead not found"})
		return
	}
	h.logger.Error("failed to read lead", "error", err, "lead_id", id)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "failed to load lead"})
}

// decodeSubmission reads a JSON object or a url-encoded/multipart form into a Submission.
func decodeSubmission(w http.ResponseWriter, r *http.Request) (Submission, bool, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if mediaType == "multipart/form-data" {
			if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
				return nil, true, err
			}
		} else if err := r.ParseForm(); err != nil {
			return nil, true, err
		}
		sub := make(Submission, len(r.PostForm))
		for key, values := range r.PostForm {
			if len(values) == 0 {
				continue
			}
			if key == "tags" {
				sub[key] = append([]string(nil), values...)
				continue
			}
			sub[key] = values[0]
		}
		return sub, true, nil
	default:
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		var sub Submission
		if err := dec.Decode(&sub); err != nil {
			return nil, false, err
		}
		if sub == nil {
			return nil, false, errors.New("leads: empty submission")
		}
		return sub, false, nil
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
