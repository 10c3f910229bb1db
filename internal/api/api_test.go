package api_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/classifieds-import-api/internal/api"
	"github.com/classifieds-import-api/internal/config"
	"github.com/classifieds-import-api/internal/mocks"
	"github.com/classifieds-import-api/internal/repository"
	"github.com/classifieds-import-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const basePath = "/v1/admin/users/bulk"

type testServer struct {
	router   *gin.Engine
	users    *mocks.MockUserDirectory
	notifier *mocks.MockNotifier
}

func setupTestRouter() *testServer {
	gin.SetMode(gin.TestMode)

	repos := &repository.Repositories{
		Session: mocks.NewMockSessionRepository(),
		Job:     mocks.NewMockJobRepository(),
		Report:  mocks.NewMockReportRepository(),
	}
	users := mocks.NewMockUserDirectory()
	notifier := mocks.NewMockNotifier()

	cfg := &config.Config{
		Server: config.ServerConfig{Port: "8080"},
		Import: config.ImportConfig{
			MaxRows:        1000,
			MaxUploadSize:  5 * 1024 * 1024,
			PreviewRows:    10,
			SessionTTL:     30 * time.Minute,
			PasswordLength: 16,
		},
	}

	log := zerolog.Nop()
	// Synchronous executor: jobs finish before the import call returns,
	// so a single poll observes the terminal state
	services := service.NewServices(repos, users, notifier, cfg, func(run func()) { run() }, log)
	router := api.NewRouter(services, cfg, log)

	return &testServer{router: router, users: users, notifier: notifier}
}

func multipartCSV(t *testing.T, adminID, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	writer.WriteField("admin_id", adminID)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	part.Write([]byte(content))
	writer.Close()
	return body, writer.FormDataContentType()
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewBuffer(payload)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var parsed map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &parsed)
	return w, parsed
}

func uploadCSV(t *testing.T, router *gin.Engine, adminID, content string) (int, map[string]interface{}) {
	t.Helper()
	body, contentType := multipartCSV(t, adminID, "users.csv", content)
	req := httptest.NewRequest("POST", basePath+"/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var parsed map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &parsed)
	return w.Code, parsed
}

func TestHealthEndpoint(t *testing.T) {
	ts := setupTestRouter()

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
}

func TestGetFields(t *testing.T) {
	ts := setupTestRouter()

	w, response := doJSON(t, ts.router, "GET", basePath+"/fields", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	required, ok := response["required_fields"].([]interface{})
	if !ok || len(required) != 3 {
		t.Errorf("Expected 3 required fields, got %v", response["required_fields"])
	}
	roles, ok := response["allowed_roles"].([]interface{})
	if !ok || len(roles) != 3 {
		t.Errorf("Expected 3 allowed roles, got %v", response["allowed_roles"])
	}
	if response["max_rows"].(float64) != 1000 {
		t.Errorf("Expected max_rows 1000, got %v", response["max_rows"])
	}
}

func TestDownloadTemplate(t *testing.T) {
	ts := setupTestRouter()

	req := httptest.NewRequest("GET", basePath+"/template", nil)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/csv") {
		t.Errorf("Expected text/csv content type, got %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("Expected attachment disposition, got %q", cd)
	}

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected header + sample row, got %d lines", len(lines))
	}
	if lines[0] != "email,first_name,last_name,role" {
		t.Errorf("Unexpected template header: %q", lines[0])
	}
}

func TestUpload_Success(t *testing.T) {
	ts := setupTestRouter()

	code, response := uploadCSV(t, ts.router, "admin_1",
		"email,first_name,last_name\nalice@example.com,Alice,Smith\nbob@example.com,Bob,Jones\n")

	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %v", code, response)
	}
	if response["success"] != true {
		t.Error("Expected success true")
	}
	if response["validation_id"] == nil || response["validation_id"] == "" {
		t.Error("Expected a validation_id")
	}
	if response["total_rows"].(float64) != 2 {
		t.Errorf("Expected total_rows 2, got %v", response["total_rows"])
	}
	preview, ok := response["preview"].([]interface{})
	if !ok || len(preview) != 2 {
		t.Errorf("Expected preview of 2 rows, got %v", response["preview"])
	}
}

func TestUpload_MissingAdminID(t *testing.T) {
	ts := setupTestRouter()

	code, response := uploadCSV(t, ts.router, "",
		"email,first_name,last_name\nalice@example.com,Alice,Smith\n")

	if code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d: %v", code, response)
	}
}

func TestUpload_RejectsNonCSV(t *testing.T) {
	ts := setupTestRouter()

	body, contentType := multipartCSV(t, "admin_1", "users.txt", "not a csv")
	req := httptest.NewRequest("POST", basePath+"/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	if msg, _ := response["error"].(string); !strings.Contains(msg, "CSV") {
		t.Errorf("Expected error naming CSV, got %q", msg)
	}
}

func TestUpload_MissingColumn(t *testing.T) {
	ts := setupTestRouter()

	code, response := uploadCSV(t, ts.router, "admin_1",
		"email,first_name\nalice@example.com,Alice\n")

	if code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", code)
	}
	if msg, _ := response["error"].(string); !strings.Contains(msg, "last_name") {
		t.Errorf("Expected error naming the missing column, got %q", msg)
	}
}

func TestValidate_UnknownSession(t *testing.T) {
	ts := setupTestRouter()

	w, _ := doJSON(t, ts.router, "POST", basePath+"/validate/no-such-id", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestImport_UnknownSession(t *testing.T) {
	ts := setupTestRouter()

	w, _ := doJSON(t, ts.router, "POST", basePath+"/import/no-such-id", map[string]string{"admin_id": "admin_1"})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestGetJob_UnknownJob(t *testing.T) {
	ts := setupTestRouter()

	w, _ := doJSON(t, ts.router, "GET", basePath+"/job/no-such-id", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestEndToEnd_ImportFlow(t *testing.T) {
	ts := setupTestRouter()

	// Upload a 3-row valid CSV as admin_42
	code, upload := uploadCSV(t, ts.router, "admin_42",
		"email,first_name,last_name,role\n"+
			"alice@example.com,Alice,Smith,seller\n"+
			"bob@example.com,Bob,Jones,user\n"+
			"carol@example.com,Carol,White,admin\n")
	if code != http.StatusOK {
		t.Fatalf("Upload failed with status %d: %v", code, upload)
	}
	validationID := upload["validation_id"].(string)

	// Validate: clean result
	w, validate := doJSON(t, ts.router, "POST", basePath+"/validate/"+validationID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Validate failed with status %d", w.Code)
	}
	if validate["valid"] != true || validate["error_count"].(float64) != 0 {
		t.Fatalf("Expected clean validation, got %v", validate)
	}

	// Import: accepted with a job id
	w, imported := doJSON(t, ts.router, "POST", basePath+"/import/"+validationID, map[string]string{"admin_id": "admin_42"})
	if w.Code != http.StatusAccepted {
		t.Fatalf("Import failed with status %d: %v", w.Code, imported)
	}
	jobID := imported["job_id"].(string)

	// Poll: the synchronous executor means one read sees the end state
	w, job := doJSON(t, ts.router, "GET", basePath+"/job/"+jobID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Job status failed with status %d", w.Code)
	}
	if job["status"] != "completed" {
		t.Fatalf("Expected completed job, got %v", job)
	}
	result := job["result"].(map[string]interface{})
	if result["imported"].(float64) != 3 {
		t.Errorf("Expected 3 imported, got %v", result["imported"])
	}
	reportID := result["password_report_id"].(string)

	// Download the report as the owner
	req := httptest.NewRequest("GET", basePath+"/password-report/"+reportID+"/download?admin_id=admin_42", nil)
	reportW := httptest.NewRecorder()
	ts.router.ServeHTTP(reportW, req)

	if reportW.Code != http.StatusOK {
		t.Fatalf("Report download failed with status %d", reportW.Code)
	}
	if ct := reportW.Header().Get("Content-Type"); !strings.Contains(ct, "text/csv") {
		t.Errorf("Expected text/csv content type, got %q", ct)
	}

	lines := strings.Split(strings.TrimSpace(reportW.Body.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected header + 3 rows, got %d lines", len(lines))
	}
	if lines[0] != "email,password" {
		t.Errorf("Unexpected report header: %q", lines[0])
	}
	body := reportW.Body.String()
	for _, email := range []string{"alice@example.com", "bob@example.com", "carol@example.com"} {
		if !strings.Contains(body, email) {
			t.Errorf("Report missing email %s", email)
		}
	}
	for _, line := range lines[1:] {
		fields := strings.Split(line, ",")
		if len(fields) != 2 || len(fields[1]) < 12 {
			t.Errorf("Report row has short or malformed password: %q", line)
		}
	}

	// A different admin gets 404, not 403
	req = httptest.NewRequest("GET", basePath+"/password-report/"+reportID+"/download?admin_id=admin_99", nil)
	foreignW := httptest.NewRecorder()
	ts.router.ServeHTTP(foreignW, req)
	if foreignW.Code != http.StatusNotFound {
		t.Errorf("Foreign admin expected 404, got %d", foreignW.Code)
	}
}

func TestEndToEnd_InvalidEmailBlocksImport(t *testing.T) {
	ts := setupTestRouter()

	code, upload := uploadCSV(t, ts.router, "admin_1",
		"email,first_name,last_name\nbad-email,John,Doe\n")
	if code != http.StatusOK {
		t.Fatalf("Upload failed with status %d", code)
	}
	validationID := upload["validation_id"].(string)

	w, validate := doJSON(t, ts.router, "POST", basePath+"/validate/"+validationID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Validate failed with status %d", w.Code)
	}
	if validate["valid"] != false {
		t.Fatal("Expected invalid validation result")
	}
	errorsList := validate["errors"].([]interface{})
	first := errorsList[0].(map[string]interface{})
	if first["field"] != "email" {
		t.Errorf("Expected email-field error, got %v", first)
	}

	// Import on the unvalidated session is rejected and creates nothing
	w, _ = doJSON(t, ts.router, "POST", basePath+"/import/"+validationID, map[string]string{"admin_id": "admin_1"})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unvalidated session, got %d", w.Code)
	}
	if len(ts.users.Users) != 0 {
		t.Error("No user must be created")
	}
}

func TestHistory_Envelope(t *testing.T) {
	ts := setupTestRouter()

	// One completed import for admin_5
	_, upload := uploadCSV(t, ts.router, "admin_5",
		"email,first_name,last_name\nalice@example.com,Alice,Smith\n")
	validationID := upload["validation_id"].(string)
	doJSON(t, ts.router, "POST", basePath+"/validate/"+validationID, nil)
	doJSON(t, ts.router, "POST", basePath+"/import/"+validationID, map[string]string{"admin_id": "admin_5"})

	w, history := doJSON(t, ts.router, "GET", basePath+"/history?admin_id=admin_5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("History failed with status %d", w.Code)
	}
	if history["total"].(float64) != 1 {
		t.Errorf("Expected total 1, got %v", history["total"])
	}
	if history["page"].(float64) != 1 || history["limit"].(float64) != 20 {
		t.Errorf("Expected default page/limit, got %v/%v", history["page"], history["limit"])
	}
	jobs := history["jobs"].([]interface{})
	if len(jobs) != 1 {
		t.Fatalf("Expected 1 job, got %d", len(jobs))
	}

	// Filtered out for another admin
	_, other := doJSON(t, ts.router, "GET", basePath+"/history?admin_id=admin_6", nil)
	if other["total"].(float64) != 0 {
		t.Errorf("Expected no jobs for admin_6, got %v", other["total"])
	}
}
