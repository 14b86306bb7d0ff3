package server

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/wachat-insights/internal/index"
	"github.com/Zuo-Peng/wachat-insights/internal/parse"
	"github.com/Zuo-Peng/wachat-insights/internal/report"
)

const chat = `12/5/2023, 9:05 pm - Alice: Hello there
12/5/2023, 9:06 pm - Bob: hi alice, pizza tonight?
13/5/2023, 8:00 am - Alice: pizza sounds great
13/5/2023, 8:01 am - Bob: <Media omitted>
`

func init() {
	log.Logger = zerolog.New(io.Discard)
}

func zipOf(t *testing.T, name string, body []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write(body)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func upload(t *testing.T, file []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if file != nil {
		fw, err := mw.CreateFormFile("file", "chat.zip")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func newTestServer(t *testing.T, opts Options) (*Server, *index.DB) {
	t.Helper()
	db, err := index.OpenDB(filepath.Join(t.TempDir(), "wci.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, opts), db
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "req-123")

	rec := serve(s, req)
	require.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
}

func TestAnalyze(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	rec := serve(s, upload(t, zipOf(t, "WhatsApp Chat with Bob.txt", []byte(chat)), map[string]string{"sender": "Bob"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var rep report.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	require.Equal(t, 3, rep.Summary.Messages)
	require.Equal(t, []string{"Alice", "Bob"}, rep.Senders)
	require.Equal(t, "Bob", rep.Sender)
	require.Equal(t, 2, rep.ByHour[21])
	require.Equal(t, []int{11, 24, 18}, rep.Lengths)
}

func TestAnalyze_Errors(t *testing.T) {
	valid := zipOf(t, "chat.txt", []byte(chat))

	tests := []struct {
		name   string
		req    func(t *testing.T) *http.Request
		status int
		code   ErrorCode
	}{
		{
			name:   "missing file",
			req:    func(t *testing.T) *http.Request { return upload(t, nil, map[string]string{"sender": "Bob"}) },
			status: http.StatusBadRequest,
			code:   ErrorInvalidInput,
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader(valid))
			},
			status: http.StatusBadRequest,
			code:   ErrorInvalidInput,
		},
		{
			name:   "bad top",
			req:    func(t *testing.T) *http.Request { return upload(t, valid, map[string]string{"top": "zero"}) },
			status: http.StatusBadRequest,
			code:   ErrorInvalidInput,
		},
		{
			name:   "not a zip",
			req:    func(t *testing.T) *http.Request { return upload(t, []byte("hello"), nil) },
			status: http.StatusUnprocessableEntity,
			code:   ErrorInvalidArchive,
		},
		{
			name: "invalid utf-8",
			req: func(t *testing.T) *http.Request {
				return upload(t, zipOf(t, "chat.txt", []byte{'o', 'k', 0xff}), nil)
			},
			status: http.StatusUnprocessableEntity,
			code:   ErrorInvalidEncoding,
		},
		{
			name: "bad date",
			req: func(t *testing.T) *http.Request {
				return upload(t, zipOf(t, "chat.txt", []byte("32/13/2023, 9:05 pm - Alice: hi\n")), nil)
			},
			status: http.StatusUnprocessableEntity,
			code:   ErrorInvalidDate,
		},
		{
			name:   "unknown sender",
			req:    func(t *testing.T) *http.Request { return upload(t, valid, map[string]string{"sender": "Carol"}) },
			status: http.StatusNotFound,
			code:   ErrorUnknownSender,
		},
	}

	s, _ := newTestServer(t, Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, tt.req(t))
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			body := decodeError(t, rec)
			require.Equal(t, tt.code, body.Error)
			require.NotEmpty(t, body.Message)
		})
	}
}

func TestAnalyze_NoTranscript(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	rec := serve(s, upload(t, zipOf(t, "photo.jpg", []byte{1, 2}), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var rep report.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	require.Zero(t, rep.Summary.Messages)
	require.Empty(t, rep.Sender)
}

func TestAnalyze_TooLarge(t *testing.T) {
	s, _ := newTestServer(t, Options{MaxUploadBytes: 100})
	rec := serve(s, upload(t, zipOf(t, "chat.txt", []byte(chat)), nil))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Equal(t, ErrorTooLarge, decodeError(t, rec).Error)
}

func TestChatsAndChatReport(t *testing.T) {
	s, db := newTestServer(t, Options{})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/chats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"chats":[]}`, rec.Body.String())

	msgs, err := parse.Parse(chat)
	require.NoError(t, err)
	require.NoError(t, index.WriteChat(db, &index.Chat{Key: "wa:Bob", Name: "Bob", SourcePath: "/b.zip", Messages: msgs}))

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/chats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Chats []index.ChatRow `json:"chats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Chats, 1)
	require.Equal(t, 3, list.Chats[0].MessageCount)

	path := "/api/chats/" + url.PathEscape("wa:Bob") + "/report?sender=Bob&top=1"
	rec = serve(s, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got struct {
		Chat   index.ChatRow `json:"chat"`
		Report report.Report `json:"report"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "Bob", got.Chat.Name)
	require.Equal(t, "Bob", got.Report.Sender)
	require.Len(t, got.Report.SenderWords, 1)
	require.Len(t, got.Report.TopDates, 1)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/chats/"+url.PathEscape("wa:nobody")+"/report", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, ErrorNotFound, decodeError(t, rec).Error)

	rec = serve(s, httptest.NewRequest(http.MethodGet, path+"&bins=-2", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, ErrorNotFound, decodeError(t, rec).Error)
}

func TestErrorCodeStatus(t *testing.T) {
	require.Equal(t, http.StatusInternalServerError, ErrorInternal.Status())
	require.Equal(t, http.StatusNotFound, ErrorUnknownSender.Status())

	e := newError(ErrorInvalidInput, "bad", io.EOF)
	require.ErrorIs(t, e, io.EOF)
	require.Equal(t, "server: INVALID_INPUT (bad): EOF", e.Error())
}
