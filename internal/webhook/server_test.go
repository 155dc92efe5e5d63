package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "s3cret_token"

func signed(req *http.Request) *http.Request {
	req.Header.Set(secretHeader, testSecret)
	return req
}

type recorder struct{ updates []tgbotapi.Update }

func (r *recorder) Dispatch(_ context.Context, u tgbotapi.Update) {
	r.updates = append(r.updates, u)
}

func TestHealth(t *testing.T) {
	router := NewRouter(context.Background(), "telegram", testSecret, &recorder{})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK\n", w.Body.String())
}

func TestUpdateDispatched(t *testing.T) {
	rec := &recorder{}
	router := NewRouter(context.Background(), "/hook/", testSecret, rec)

	body := `{"update_id":7,"message":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"},"from":{"id":5,"is_bot":false,"first_name":"Ali"},"text":"salom"}}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, signed(httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader(body))))

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, rec.updates, 1)
	assert.Equal(t, 7, rec.updates[0].UpdateID)
	assert.Equal(t, int64(42), rec.updates[0].Message.Chat.ID)
	assert.Equal(t, "salom", rec.updates[0].Message.Text)
}

func TestBadPayload(t *testing.T) {
	rec := &recorder{}
	router := NewRouter(context.Background(), "telegram", testSecret, rec)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, signed(httptest.NewRequest(http.MethodPost, "/telegram", strings.NewReader("{"))))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, rec.updates)
}

func TestWrongMethod(t *testing.T) {
	router := NewRouter(context.Background(), "telegram", testSecret, &recorder{})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/telegram", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestUpdateWithoutSecretRejected(t *testing.T) {
	body := `{"update_id":8,"message":{"message_id":1,"date":0,"chat":{"id":666,"type":"private"},"from":{"id":1,"is_bot":false,"first_name":"Admin"},"text":"/recall 1 x","entities":[{"type":"bot_command","offset":0,"length":7}]}}`

	for name, header := range map[string]string{"missing": "", "wrong": "guess"} {
		rec := &recorder{}
		router := NewRouter(context.Background(), "telegram", testSecret, rec)
		req := httptest.NewRequest(http.MethodPost, "/telegram", strings.NewReader(body))
		if header != "" {
			req.Header.Set(secretHeader, header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, name)
		assert.Empty(t, rec.updates, name)
	}
}

func TestEmptySecretRejectsEverything(t *testing.T) {
	rec := &recorder{}
	router := NewRouter(context.Background(), "telegram", "", rec)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/telegram", strings.NewReader(`{"update_id":1}`)))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, rec.updates)
}
