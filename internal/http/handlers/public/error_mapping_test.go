package public

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/studiocard/internal/http/response"
	"github.com/studiocard/internal/service"

	"github.com/gin-gonic/gin"
)

func recordMappedError(t *testing.T, respond func(*gin.Context, error), err error) response.Response {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	respond(c, err)

	var body response.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	return body
}

func TestRespondRedeemErrorKeepsAttemptsLeft(t *testing.T) {
	err := fmt.Errorf("%w: %d attempts left", service.ErrPinIncorrect, 2)
	body := recordMappedError(t, respondRedeemError, err)
	if body.StatusCode != response.CodeBadRequest {
		t.Errorf("status_code = %d, want %d", body.StatusCode, response.CodeBadRequest)
	}
	if body.Msg != "incorrect pin: 2 attempts left" {
		t.Errorf("msg = %q, want the attempts-left count preserved", body.Msg)
	}
}

func TestRespondBalanceErrorKeepsAttemptsLeft(t *testing.T) {
	err := fmt.Errorf("%w: %d attempts left", service.ErrPinIncorrect, 4)
	body := recordMappedError(t, respondBalanceError, err)
	if !strings.Contains(body.Msg, "4 attempts left") {
		t.Errorf("msg = %q, want it to contain the attempts-left count", body.Msg)
	}
}

func TestRespondRedeemErrorStaticMessages(t *testing.T) {
	body := recordMappedError(t, respondRedeemError, service.ErrGiftCardExpired)
	if body.StatusCode != response.CodeBadRequest || body.Msg != "gift card has expired" {
		t.Errorf("got %d %q, want %d %q", body.StatusCode, body.Msg, response.CodeBadRequest, "gift card has expired")
	}

	body = recordMappedError(t, respondRedeemError, service.ErrGiftCardTempBlocked)
	if body.StatusCode != response.CodeTooManyRequests {
		t.Errorf("status_code = %d, want %d", body.StatusCode, response.CodeTooManyRequests)
	}
}
