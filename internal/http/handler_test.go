package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"chesscore/internal/core"
	"chesscore/internal/processor"
	"chesscore/internal/service"
)

func newTestApp() *fiber.App {
	svc := service.New(nil, []byte("test-secret-minimum-32-characters"))
	return NewFiberApp(processor.New(svc), svc, true)
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func createTestGame(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp, err := app.Test(jsonRequest(t, "POST", "/api/v1/games", core.CreateGameRequest{}), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create game status = %d", resp.StatusCode)
	}
	return decode[core.GameResponse](t, resp).GameID
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApp()
	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["status"] != "healthy" {
		t.Errorf("status field = %v", body["status"])
	}
	if body["storage"] != "disabled" {
		t.Errorf("storage field = %v, want disabled without a store", body["storage"])
	}
}

func TestGameLifecycleOverHTTP(t *testing.T) {
	app := newTestApp()
	gameID := createTestGame(t, app)

	// Select the e2 pawn
	resp, err := app.Test(jsonRequest(t, "POST", "/api/v1/games/"+gameID+"/select",
		core.SelectRequest{Row: 6, Col: 4}), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("select status = %d", resp.StatusCode)
	}
	sel := decode[core.SelectResponse](t, resp)
	if len(sel.Moves) != 2 {
		t.Errorf("e2 destinations = %d, want 2", len(sel.Moves))
	}

	// Commit the move to e4
	resp, err = app.Test(jsonRequest(t, "POST", "/api/v1/games/"+gameID+"/moves",
		core.MoveRequest{Row: 4, Col: 4}), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("move status = %d", resp.StatusCode)
	}
	game := decode[core.GameResponse](t, resp)
	if game.Turn != "b" || len(game.Moves) != 1 {
		t.Errorf("after move: turn=%s moves=%v", game.Turn, game.Moves)
	}

	// Read it back
	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/games/"+gameID, nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}

	// ASCII board view
	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/games/"+gameID+"/board", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("board status = %d", resp.StatusCode)
	}

	// Delete
	resp, err = app.Test(httptest.NewRequest("DELETE", "/api/v1/games/"+gameID, nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/games/"+gameID, nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("deleted game status = %d, want 404", resp.StatusCode)
	}
}

func TestCancelSelectionOverHTTP(t *testing.T) {
	app := newTestApp()
	gameID := createTestGame(t, app)

	resp, err := app.Test(jsonRequest(t, "POST", "/api/v1/games/"+gameID+"/select",
		core.SelectRequest{Row: 6, Col: 4}), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("select status = %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest("DELETE", "/api/v1/games/"+gameID+"/select", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("cancel status = %d", resp.StatusCode)
	}
}

func TestRuleErrorsMapToBadRequest(t *testing.T) {
	app := newTestApp()
	gameID := createTestGame(t, app)

	// Moving before selecting is a protocol violation
	resp, err := app.Test(jsonRequest(t, "POST", "/api/v1/games/"+gameID+"/moves",
		core.MoveRequest{Row: 4, Col: 4}), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	errResp := decode[core.ErrorResponse](t, resp)
	if errResp.Code != core.CodeProtocolViolation {
		t.Errorf("code = %q, want %q", errResp.Code, core.CodeProtocolViolation)
	}
}

func TestUnknownGameIs404(t *testing.T) {
	app := newTestApp()
	resp, err := app.Test(jsonRequest(t, "POST",
		"/api/v1/games/00000000-0000-0000-0000-000000000000/select",
		core.SelectRequest{Row: 6, Col: 4}), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestMalformedGameIDRejected(t *testing.T) {
	app := newTestApp()
	resp, err := app.Test(jsonRequest(t, "POST", "/api/v1/games/not-a-uuid/select",
		core.SelectRequest{Row: 6, Col: 4}), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestValidationRejectsOutOfRangeCoordinates(t *testing.T) {
	app := newTestApp()
	gameID := createTestGame(t, app)

	resp, err := app.Test(jsonRequest(t, "POST", "/api/v1/games/"+gameID+"/select",
		core.SelectRequest{Row: 9, Col: 4}), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	errResp := decode[core.ErrorResponse](t, resp)
	if errResp.Code != core.CodeInvalidRequest {
		t.Errorf("code = %q, want %q", errResp.Code, core.CodeInvalidRequest)
	}
}

func TestValidationRejectsBadPromotion(t *testing.T) {
	app := newTestApp()
	gameID := createTestGame(t, app)

	resp, err := app.Test(jsonRequest(t, "POST", "/api/v1/games/"+gameID+"/moves",
		core.MoveRequest{Row: 4, Col: 4, Promotion: "king"}), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestContentTypeEnforced(t *testing.T) {
	app := newTestApp()
	req := httptest.NewRequest("POST", "/api/v1/games", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "text/plain")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", resp.StatusCode)
	}
}

func TestAuthEndpointsRequireStorage(t *testing.T) {
	app := newTestApp()
	body := map[string]string{"username": "alice", "password": "password1"}
	resp, err := app.Test(jsonRequest(t, "POST", "/api/v1/auth/register", body), -1)
	if err != nil {
		t.Fatal(err)
	}
	// Without a store the service cannot create users
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Errorf("register without storage status = %d, want 500", resp.StatusCode)
	}
}

func TestAuthRequiredRejectsMissingToken(t *testing.T) {
	app := newTestApp()
	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/auth/me", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}
