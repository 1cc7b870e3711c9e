package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"indorunners-backend-go/internal/config"
	"indorunners-backend-go/internal/models"
	"indorunners-backend-go/internal/services"
	"indorunners-backend-go/internal/store"
	"indorunners-backend-go/internal/testkit"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

type testEnv struct {
	srv     *Server
	handler http.Handler
	admin   models.User
	adminTk string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	st := testkit.OpenStore(t)
	cfg := config.Config{
		JWTSecret:           "http-test-secret",
		JWTIssuer:           "indorunners",
		AccessTTLSeconds:    3600,
		RefreshTTLSeconds:   7200,
		MediaStoragePath:    t.TempDir(),
		MaxProofBytes:       1 << 20,
		AdminOwnershipScope: true,
		AdminSetupKey:       "setup-key",
	}
	log := zerolog.Nop()
	srv := NewServer(cfg, st, services.NewMetricsHub(log), nil, log)
	srv.Users.Tokens.Argon2 = &services.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

	admin := testkit.CreateUser(t, st, models.RoleAdmin, "admin@indorunners.id")
	return testEnv{srv: srv, handler: srv.Router(), admin: admin, adminTk: accessToken(t, srv, admin)}
}

func accessToken(t *testing.T, srv *Server, u models.User) string {
	t.Helper()
	token, _, err := srv.Tokens.CreateAccessToken(u)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return token
}

func (e testEnv) member(t *testing.T, email string) (models.User, string) {
	t.Helper()
	u := testkit.CreateUser(t, e.srv.Store, models.RoleMember, email)
	return u, accessToken(t, e.srv, u)
}

func (e testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d: %s", rec.Code, status, rec.Body.String())
	}
	if code == "" {
		return
	}
	if got := decode[ErrorResponse](t, rec).Code; got != code {
		t.Fatalf("code = %q, want %q", got, code)
	}
}

func (e testEnv) createEvent(t *testing.T, fee int64, max int) EventDTO {
	t.Helper()
	now := time.Now().UTC()
	body := map[string]any{
		"title":                "Jakarta Night Run",
		"eventDate":            now.Add(30 * 24 * time.Hour).Format(time.RFC3339),
		"registrationDeadline": now.Add(7 * 24 * time.Hour).Format(time.RFC3339),
		"location":             "Monas",
		"registrationFee":      fee,
	}
	if max > 0 {
		body["maxParticipants"] = max
	}
	rec := e.do(t, http.MethodPost, "/api/admin/events", e.adminTk, body)
	expectStatus(t, rec, http.StatusCreated, "")
	return decode[EventDTO](t, rec)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	expectStatus(t, env.do(t, http.MethodGet, "/healthz", "", nil), http.StatusOK, "")
}

func TestAuthTiers(t *testing.T) {
	env := newTestEnv(t)
	_, memberTk := env.member(t, "budi@example.com")

	expectStatus(t, env.do(t, http.MethodGet, "/api/me", "", nil), http.StatusUnauthorized, "UNAUTHORIZED")
	expectStatus(t, env.do(t, http.MethodGet, "/api/me", "garbage", nil), http.StatusUnauthorized, "UNAUTHORIZED")
	expectStatus(t, env.do(t, http.MethodGet, "/api/public/events", "garbage", nil), http.StatusUnauthorized, "UNAUTHORIZED")
	expectStatus(t, env.do(t, http.MethodGet, "/api/admin/events", memberTk, nil), http.StatusForbidden, "FORBIDDEN")
	expectStatus(t, env.do(t, http.MethodGet, "/api/admin/events", env.adminTk, nil), http.StatusOK, "")

	me := env.do(t, http.MethodGet, "/api/me", memberTk, nil)
	expectStatus(t, me, http.StatusOK, "")
	if got := decode[map[string]UserDTO](t, me)["user"].Email; got != "budi@example.com" {
		t.Fatalf("me email = %q", got)
	}
}

func TestSignupLoginRefresh(t *testing.T) {
	env := newTestEnv(t)
	signup := map[string]any{"email": "Sari@Example.com", "password": "longenough", "name": "Sari"}
	expectStatus(t, env.do(t, http.MethodPost, "/api/auth/signup", "", signup), http.StatusCreated, "")
	expectStatus(t, env.do(t, http.MethodPost, "/api/auth/signup", "", signup), http.StatusConflict, "DUPLICATE_USER")

	short := map[string]any{"email": "x@example.com", "password": "short", "name": "X"}
	expectStatus(t, env.do(t, http.MethodPost, "/api/auth/signup", "", short), http.StatusBadRequest, "VALIDATION_FAILED")

	login := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "sari@example.com", "password": "longenough"})
	expectStatus(t, login, http.StatusOK, "")
	tokens := decode[TokenResponse](t, login)
	if tokens.User.Role != string(models.RoleMember) || tokens.AccessToken == "" {
		t.Fatalf("unexpected login response %+v", tokens)
	}

	bad := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "sari@example.com", "password": "wrong-password"})
	expectStatus(t, bad, http.StatusUnauthorized, "UNAUTHORIZED")

	refreshed := env.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": tokens.RefreshToken})
	expectStatus(t, refreshed, http.StatusOK, "")
	wrongType := env.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": tokens.AccessToken})
	expectStatus(t, wrongType, http.StatusUnauthorized, "")
}

func TestDecodeRejectsBadPayloads(t *testing.T) {
	env := newTestEnv(t)
	expectStatus(t, env.do(t, http.MethodPost, "/api/admin/events", env.adminTk, `{"title":`), http.StatusBadRequest, "VALIDATION_FAILED")
	expectStatus(t, env.do(t, http.MethodPost, "/api/admin/events", env.adminTk, `{"unknown":1}`), http.StatusBadRequest, "VALIDATION_FAILED")
	expectStatus(t, env.do(t, http.MethodPost, "/api/admin/events", env.adminTk, map[string]any{"title": "No date"}), http.StatusBadRequest, "VALIDATION_FAILED")
}

func TestPublicRegistrationCapacityAndDuplicates(t *testing.T) {
	env := newTestEnv(t)
	event := env.createEvent(t, 0, 1)
	path := "/api/public/events/" + event.ID + "/registrations"

	list := env.do(t, http.MethodGet, "/api/public/events", "", nil)
	expectStatus(t, list, http.StatusOK, "")
	items := decode[ListResponse[EventDTO]](t, list).Items
	if len(items) != 1 || !items[0].RegistrationOpen || items[0].CreatedBy != "" {
		t.Fatalf("unexpected public list %+v", items)
	}

	a := map[string]any{"fullName": "Ayu", "email": "ayu@example.com", "phone": "+6281234567890"}
	rec := env.do(t, http.MethodPost, path, "", a)
	expectStatus(t, rec, http.StatusCreated, "")
	if got := decode[RegistrationDTO](t, rec); got.Status != string(models.RegistrationConfirmed) || got.RegistrationCode == "" {
		t.Fatalf("unexpected registration %+v", got)
	}

	expectStatus(t, env.do(t, http.MethodPost, path, "", map[string]any{"fullName": "Ayu", "email": "AYU@example.com", "phone": "+6281234567890"}),
		http.StatusConflict, "DUPLICATE_REGISTRATION")
	expectStatus(t, env.do(t, http.MethodPost, path, "", map[string]any{"fullName": "Bima", "email": "bima@example.com", "phone": "081298765432"}),
		http.StatusConflict, "EVENT_FULL")
	expectStatus(t, env.do(t, http.MethodPost, path, "", map[string]any{"fullName": "Citra"}),
		http.StatusBadRequest, "VALIDATION_FAILED")
	expectStatus(t, env.do(t, http.MethodPost, "/api/public/events/missing/registrations", "", a),
		http.StatusNotFound, "EVENT_NOT_FOUND")
}

func multipartRegistration(t *testing.T, fields map[string]string, proof []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if proof != nil {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="paymentProof"; filename="transfer.png"`)
		header.Set("Content-Type", "image/png")
		part, err := mw.CreatePart(header)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(proof); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return body, mw.FormDataContentType()
}

func TestPaidRegistrationAndReview(t *testing.T) {
	env := newTestEnv(t)
	event := env.createEvent(t, 150000, 0)
	path := "/api/public/events/" + event.ID + "/registrations"
	fields := map[string]string{"fullName": "Dewi", "email": "dewi@example.com", "phone": "+6281311112222", "shirtSize": "M"}

	body, contentType := multipartRegistration(t, fields, nil)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusBadRequest, "MISSING_PAYMENT_PROOF")

	body, contentType = multipartRegistration(t, fields, pngBytes)
	req = httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusCreated, "")
	reg := decode[RegistrationDTO](t, rec)
	if reg.Status != string(models.RegistrationPendingPayment) || reg.PaymentProofURL == nil || reg.ShirtSize == nil {
		t.Fatalf("unexpected registration %+v", reg)
	}

	content := env.do(t, http.MethodGet, *reg.PaymentProofURL, env.adminTk, nil)
	expectStatus(t, content, http.StatusOK, "")
	if ct := content.Header().Get("Content-Type"); ct != "image/png" || !bytes.Equal(content.Body.Bytes(), pngBytes) {
		t.Fatalf("unexpected proof content %q", ct)
	}
	_, strangerTk := env.member(t, "stranger@example.com")
	expectStatus(t, env.do(t, http.MethodGet, *reg.PaymentProofURL, strangerTk, nil), http.StatusForbidden, "")

	statusPath := "/api/admin/registrations/" + reg.ID + "/status"
	for _, step := range []struct {
		status string
		want   int
	}{
		{"confirmed", http.StatusConflict},
		{"payment_verified", http.StatusOK},
		{"confirmed", http.StatusOK},
		{"cancelled", http.StatusOK},
		{"confirmed", http.StatusConflict},
	} {
		rec := env.do(t, http.MethodPatch, statusPath, env.adminTk, map[string]string{"status": step.status})
		if rec.Code != step.want {
			t.Fatalf("%s: status %d, want %d: %s", step.status, rec.Code, step.want, rec.Body.String())
		}
	}
	expectStatus(t, env.do(t, http.MethodPatch, statusPath, env.adminTk, map[string]string{"status": "paid"}),
		http.StatusBadRequest, "VALIDATION_FAILED")

	detail := env.do(t, http.MethodGet, "/api/admin/registrations/"+reg.ID, env.adminTk, nil)
	expectStatus(t, detail, http.StatusOK, "")
	if got := decode[RegistrationDTO](t, detail); got.Status != string(models.RegistrationCancelled) || got.EventTitle != event.Title {
		t.Fatalf("unexpected detail %+v", got)
	}
}

func TestUploadPaymentProofThenRegisterWithJSON(t *testing.T) {
	env := newTestEnv(t)
	event := env.createEvent(t, 50000, 0)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="proof.png"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write(pngBytes)
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/public/uploads/payment-proof", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusCreated, "")
	asset := decode[AssetDTO](t, rec)
	if asset.SizeBytes != int64(len(pngBytes)) || !strings.HasSuffix(asset.URL, "/content") {
		t.Fatalf("unexpected asset %+v", asset)
	}

	reg := env.do(t, http.MethodPost, "/api/public/events/"+event.ID+"/registrations", "",
		map[string]any{"fullName": "Eka", "email": "eka@example.com", "phone": "+6281355556666", "paymentProofId": asset.AssetID})
	expectStatus(t, reg, http.StatusCreated, "")

	reused := env.do(t, http.MethodPost, "/api/public/events/"+event.ID+"/registrations", "",
		map[string]any{"fullName": "Fani", "email": "fani@example.com", "phone": "+6281377778888", "paymentProofId": asset.AssetID})
	expectStatus(t, reused, http.StatusConflict, "PAYMENT_PROOF_IN_USE")
}

func TestPublicRegistrationRequiresPhone(t *testing.T) {
	env := newTestEnv(t)
	event := env.createEvent(t, 0, 0)
	path := "/api/public/events/" + event.ID + "/registrations"

	for name, body := range map[string]map[string]any{
		"missing": {"fullName": "Gilang", "email": "gilang@example.com"},
		"blank":   {"fullName": "Gilang", "email": "gilang@example.com", "phone": "   "},
	} {
		rec := env.do(t, http.MethodPost, path, "", body)
		if rec.Code != http.StatusBadRequest || decode[ErrorResponse](t, rec).Code != "VALIDATION_FAILED" {
			t.Fatalf("%s phone: status %d: %s", name, rec.Code, rec.Body.String())
		}
	}

	body, contentType := multipartRegistration(t, map[string]string{"fullName": "Gilang", "email": "gilang@example.com"}, nil)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusBadRequest, "VALIDATION_FAILED")

	mine := env.do(t, http.MethodGet, "/api/admin/registrations?eventId="+event.ID, env.adminTk, nil)
	expectStatus(t, mine, http.StatusOK, "")
	if items := decode[ListResponse[RegistrationDTO]](t, mine).Items; len(items) != 0 {
		t.Fatalf("registrations stored without phone: %+v", items)
	}
}

func TestMemberRegistrationAndDashboard(t *testing.T) {
	env := newTestEnv(t)
	event := env.createEvent(t, 0, 0)
	_, memberTk := env.member(t, "fajar@example.com")

	path := "/api/events/" + event.ID + "/registrations"
	expectStatus(t, env.do(t, http.MethodPost, path, "", nil), http.StatusUnauthorized, "")
	chunked := httptest.NewRequest(http.MethodPost, path, strings.NewReader(""))
	chunked.ContentLength = -1
	chunked.Header.Set("Authorization", "Bearer "+memberTk)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, chunked)
	expectStatus(t, rec, http.StatusCreated, "")
	expectStatus(t, env.do(t, http.MethodPost, path, memberTk, nil), http.StatusConflict, "DUPLICATE_REGISTRATION")

	mine := env.do(t, http.MethodGet, "/api/me/registrations", memberTk, nil)
	expectStatus(t, mine, http.StatusOK, "")
	if items := decode[ListResponse[RegistrationDTO]](t, mine).Items; len(items) != 1 || items[0].EventTitle != event.Title {
		t.Fatalf("unexpected own registrations %+v", items)
	}

	stats := env.do(t, http.MethodGet, "/api/statistics", memberTk, nil)
	expectStatus(t, stats, http.StatusOK, "")
	if got := decode[MemberDashboardDTO](t, stats); got.Registrations != 1 {
		t.Fatalf("member dashboard %+v", got)
	}
	adminStats := env.do(t, http.MethodGet, "/api/statistics", env.adminTk, nil)
	expectStatus(t, adminStats, http.StatusOK, "")
	if got := decode[AdminDashboardDTO](t, adminStats); got.Members != 1 || got.ActiveEvents != 1 {
		t.Fatalf("admin dashboard %+v", got)
	}
}

func TestAttendanceRecordingAndScoping(t *testing.T) {
	env := newTestEnv(t)
	activity := env.do(t, http.MethodPost, "/api/admin/activities", env.adminTk, map[string]any{
		"title":        "Tuesday intervals",
		"activityDate": time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339),
		"activityType": "routine",
	})
	expectStatus(t, activity, http.StatusCreated, "")
	activityID := decode[ActivityDTO](t, activity).ID

	first, firstTk := env.member(t, "gita@example.com")
	second, secondTk := env.member(t, "hadi@example.com")

	expectStatus(t, env.do(t, http.MethodPost, "/api/attendance", firstTk, map[string]any{"activityId": activityID}), http.StatusCreated, "")
	expectStatus(t, env.do(t, http.MethodPost, "/api/attendance", firstTk, map[string]any{"activityId": activityID}),
		http.StatusConflict, "DUPLICATE_ATTENDANCE")
	expectStatus(t, env.do(t, http.MethodPost, "/api/attendance", secondTk, map[string]any{"activityId": activityID}), http.StatusCreated, "")
	expectStatus(t, env.do(t, http.MethodPost, "/api/attendance", firstTk, map[string]any{"activityId": activityID, "eventId": activityID}),
		http.StatusBadRequest, "INVALID_OCCASION_REFERENCE")

	scoped := env.do(t, http.MethodGet, "/api/attendance?userId="+second.ID, firstTk, nil)
	expectStatus(t, scoped, http.StatusOK, "")
	items := decode[ListResponse[AttendanceDTO]](t, scoped).Items
	if len(items) != 1 || items[0].UserID != first.ID || items[0].OccasionType != "routine" {
		t.Fatalf("member saw %+v", items)
	}

	all := env.do(t, http.MethodGet, "/api/attendance?activityId="+activityID, env.adminTk, nil)
	expectStatus(t, all, http.StatusOK, "")
	if items := decode[ListResponse[AttendanceDTO]](t, all).Items; len(items) != 2 {
		t.Fatalf("admin saw %d rows", len(items))
	}

	empty := env.do(t, http.MethodGet, "/api/attendance?status=absent", env.adminTk, nil)
	expectStatus(t, empty, http.StatusOK, "")
	if items := decode[ListResponse[AttendanceDTO]](t, empty).Items; items == nil || len(items) != 0 {
		t.Fatalf("expected empty list, got %+v", items)
	}

	detail := env.do(t, http.MethodGet, "/api/activities/"+activityID, firstTk, nil)
	expectStatus(t, detail, http.StatusOK, "")
	if got := decode[ActivityDTO](t, detail); got.AttendanceCount == nil || *got.AttendanceCount != 2 {
		t.Fatalf("unexpected activity %+v", got)
	}
}

// slowWriter stalls on every write like a client reading over a poor link.
type slowWriter struct {
	*httptest.ResponseRecorder
	delay time.Duration
}

func (w slowWriter) Write(p []byte) (int, error) {
	time.Sleep(w.delay)
	return w.ResponseRecorder.Write(p)
}

func TestListAttendanceOutlastsQueryTimeout(t *testing.T) {
	env := newTestEnv(t)
	st := store.New(env.srv.Store.DB(), 300*time.Millisecond)
	log := zerolog.Nop()
	srv := NewServer(env.srv.Config, st, services.NewMetricsHub(log), nil, log)

	activity := testkit.CreateActivity(t, st, env.admin, nil)
	for i := 0; i < 60; i++ {
		u := testkit.CreateUser(t, st, models.RoleMember, fmt.Sprintf("runner%02d@example.com", i))
		err := st.InsertAttendance(context.Background(), models.Attendance{
			ID:             uuid.NewString(),
			ActivityID:     &activity.ID,
			UserID:         u.ID,
			Status:         models.AttendancePresent,
			RecordedBy:     env.admin.ID,
			AttendanceDate: testkit.Now,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/attendance?activityId="+activity.ID, nil)
	req.Header.Set("Authorization", "Bearer "+accessToken(t, srv, env.admin))
	rec := slowWriter{ResponseRecorder: httptest.NewRecorder(), delay: 20 * time.Millisecond}
	srv.Router().ServeHTTP(rec, req)

	expectStatus(t, rec.ResponseRecorder, http.StatusOK, "")
	if items := decode[ListResponse[AttendanceDTO]](t, rec.ResponseRecorder).Items; len(items) != 60 {
		t.Fatalf("got %d rows, want 60", len(items))
	}
}

func TestAdminOwnershipAndDelete(t *testing.T) {
	env := newTestEnv(t)
	event := env.createEvent(t, 0, 0)
	other := testkit.CreateUser(t, env.srv.Store, models.RoleAdmin, "other-admin@indorunners.id")
	otherTk := accessToken(t, env.srv, other)

	expectStatus(t, env.do(t, http.MethodDelete, "/api/admin/events/"+event.ID, otherTk, nil), http.StatusNotFound, "")
	rec := env.do(t, http.MethodDelete, "/api/admin/events/"+event.ID, env.adminTk, nil)
	expectStatus(t, rec, http.StatusNoContent, "")
	expectStatus(t, env.do(t, http.MethodGet, "/api/public/events/"+event.ID, "", nil), http.StatusNotFound, "EVENT_NOT_FOUND")
}

func TestAdminUserDirectory(t *testing.T) {
	env := newTestEnv(t)
	env.member(t, "indah@example.com")
	env.member(t, "joko@example.com")

	rec := env.do(t, http.MethodGet, "/api/admin/users?role=member&search=jok", env.adminTk, nil)
	expectStatus(t, rec, http.StatusOK, "")
	page := decode[PagedResponse](t, rec)
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].Email != "joko@example.com" {
		t.Fatalf("unexpected page %+v", page)
	}
	expectStatus(t, env.do(t, http.MethodGet, "/api/admin/users?role=coach", env.adminTk, nil), http.StatusBadRequest, "")
}

func TestMetricsSocketRejectsNonAdmins(t *testing.T) {
	env := newTestEnv(t)
	_, memberTk := env.member(t, "kiki@example.com")
	expectStatus(t, env.do(t, http.MethodGet, "/ws/metrics", "", nil), http.StatusUnauthorized, "")
	expectStatus(t, env.do(t, http.MethodGet, "/ws/metrics?token="+memberTk, "", nil), http.StatusForbidden, "")

	history := env.do(t, http.MethodGet, "/api/admin/metrics/history?limit=9999", env.adminTk, nil)
	expectStatus(t, history, http.StatusOK, "")
	if got := decode[MetricsHistoryResponse](t, history); got.Items == nil {
		t.Fatalf("expected empty history list")
	}
}
