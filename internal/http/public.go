package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"indorunners-backend-go/internal/apperr"
	"indorunners-backend-go/internal/models"
	"indorunners-backend-go/internal/services"
	"indorunners-backend-go/internal/validate"

	"github.com/go-chi/chi/v5"
)

const proofField = "paymentProof"

func (s *Server) PublicEvents(w http.ResponseWriter, r *http.Request) {
	caller := CurrentCaller(r)
	query := services.EventQuery{
		Status:   r.URL.Query().Get("status"),
		Upcoming: parseBool(r.URL.Query().Get("upcoming")),
		Limit:    parseInt(r.URL.Query().Get("limit"), 0),
	}
	items, err := s.Events.List(r.Context(), caller, query)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	now := s.now()
	out := make([]EventDTO, 0, len(items))
	for _, item := range items {
		out = append(out, toEventSummaryDTO(item, now, caller.IsAdmin()))
	}
	WriteJSON(w, http.StatusOK, ListResponse[EventDTO]{Items: out})
}

func (s *Server) PublicEventDetail(w http.ResponseWriter, r *http.Request) {
	caller := CurrentCaller(r)
	event, err := s.Events.Get(r.Context(), caller, chi.URLParam(r, "eventId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toEventSummaryDTO(event, s.now(), caller.IsAdmin()))
}

// PublicRegister accepts either a JSON body referencing an uploaded proof
// or a multipart form carrying the proof file itself.
func (s *Server) PublicRegister(w http.ResponseWriter, r *http.Request) {
	caller := CurrentCaller(r)
	eventID := chi.URLParam(r, "eventId")

	var req RegistrationRequest
	var uploaded string
	if isMultipart(r) {
		var err error
		req, uploaded, err = s.readRegistrationForm(w, r)
		if err != nil {
			s.fail(w, r, err)
			return
		}
	} else if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := req.requirePublicFields(); err != nil {
		s.discardProof(r, uploaded)
		s.fail(w, r, err)
		return
	}

	proofID := req.PaymentProofID
	if uploaded != "" {
		proofID = uploaded
	}
	reg, err := s.Registrations.Submit(r.Context(), caller, services.SubmitRegistration{
		EventID:        eventID,
		Registrant:     req.registrant(models.ContactIdentity{Email: req.Email}),
		PaymentProofID: proofID,
	})
	if err != nil {
		s.discardProof(r, uploaded)
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toRegistrationDTO(reg))
}

func (s *Server) MemberRegister(w http.ResponseWriter, r *http.Request) {
	caller := CurrentCaller(r)
	var req RegistrationRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	reg, err := s.Registrations.Submit(r.Context(), caller, services.SubmitRegistration{
		EventID:        chi.URLParam(r, "eventId"),
		Registrant:     req.registrant(models.MemberIdentity{UserID: caller.UserID}),
		PaymentProofID: req.PaymentProofID,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toRegistrationDTO(reg))
}

func (s *Server) UploadPaymentProof(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.uploadLimit())
	if err := r.ParseMultipartForm(s.uploadLimit()); err != nil {
		s.fail(w, r, apperr.Validation("Invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()
	asset, err := s.saveProof(r, "file")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, AssetDTO{
		AssetID:     asset.ID,
		URL:         assetURL(asset.ID),
		ContentType: asset.ContentType,
		SizeBytes:   asset.SizeBytes,
	})
}

func (s *Server) uploadLimit() int64 {
	return s.Media.MaxProofBytes + 1<<20
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data")
}

func (s *Server) readRegistrationForm(w http.ResponseWriter, r *http.Request) (RegistrationRequest, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.uploadLimit())
	if err := r.ParseMultipartForm(s.uploadLimit()); err != nil {
		return RegistrationRequest{}, "", apperr.Validation("Invalid multipart form")
	}
	defer r.MultipartForm.RemoveAll()

	form := r.MultipartForm.Value
	req := RegistrationRequest{
		FullName:              formValue(form, "fullName"),
		Email:                 formValue(form, "email"),
		Phone:                 formPtr(form, "phone"),
		BirthDate:             formPtr(form, "birthDate"),
		Gender:                formPtr(form, "gender"),
		EmergencyContactName:  formPtr(form, "emergencyContactName"),
		EmergencyContactPhone: formPtr(form, "emergencyContactPhone"),
		SpecialNeeds:          formPtr(form, "specialNeeds"),
		ShirtSize:             formPtr(form, "shirtSize"),
		PaymentProofID:        formValue(form, "paymentProofId"),
	}
	if err := validate.Struct(r.Context(), &req); err != nil {
		return RegistrationRequest{}, "", err
	}
	if len(r.MultipartForm.File[proofField]) == 0 {
		return req, "", nil
	}
	asset, err := s.saveProof(r, proofField)
	if err != nil {
		return RegistrationRequest{}, "", err
	}
	return req, asset.ID, nil
}

func (s *Server) saveProof(r *http.Request, field string) (models.MediaAsset, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return models.MediaAsset{}, apperr.Validation("File is empty")
	}
	if err != nil {
		return models.MediaAsset{}, apperr.Validation("Invalid upload")
	}
	defer file.Close()
	return s.Media.SavePaymentProof(r.Context(), CurrentCaller(r), header.Filename, header.Header.Get("Content-Type"), file)
}

// discardProof removes a proof uploaded with a registration that was then
// rejected.
func (s *Server) discardProof(r *http.Request, assetID string) {
	if assetID == "" {
		return
	}
	if err := s.Media.Delete(r.Context(), assetID); err != nil {
		s.Log.Warn().Err(err).Str("asset_id", assetID).Msg("orphan payment proof not removed")
	}
}

func formValue(form map[string][]string, key string) string {
	if values := form[key]; len(values) > 0 {
		return strings.TrimSpace(values[0])
	}
	return ""
}

func formPtr(form map[string][]string, key string) *string {
	value := formValue(form, key)
	if value == "" {
		return nil
	}
	return &value
}
