package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-parser-go/internal/api/handler"
	"resume-parser-go/internal/api/router"
	"resume-parser-go/internal/constants"
	"resume-parser-go/internal/extractor"
	"resume-parser-go/internal/processor"
	"resume-parser-go/internal/ratelimit"
	"resume-parser-go/internal/storage"
	"resume-parser-go/internal/types"
)

// fakeService 记录调用参数并返回预设结果
type fakeService struct {
	calls    int
	userID   string
	data     []byte
	filename string
	err      error
}

func (f *fakeService) Process(ctx context.Context, userID string, data []byte, filename string) (*processor.UploadResult, error) {
	f.calls++
	f.userID, f.data, f.filename = userID, data, filename
	if f.err != nil {
		return nil, f.err
	}
	return &processor.UploadResult{
		Message: constants.UploadSuccessMessage,
		Record: &types.ResumeRecord{
			FirstName:       "John",
			LastName:        "Doe",
			ExperienceLevel: types.ExperienceEntryLevel,
			Education:       []string{},
			Skills:          []string{"Go"},
		},
		ParseID: "parse-1",
	}, nil
}

func newTestEngine(svc handler.ResumeService, maxBytes int64, options ...router.RouteOption) *server.Hertz {
	h := server.New(server.WithHostPorts("127.0.0.1:0"))
	router.RegisterRoutes(h, handler.NewResumeHandler(svc, maxBytes), options...)
	return h
}

// multipartBody 构造上传表单，filename 为空时不附带文件
func multipartBody(t *testing.T, userID, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if filename != "" {
		part, err := writer.CreateFormFile(constants.FormFieldFile, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	if userID != "" {
		require.NoError(t, writer.WriteField(constants.FormFieldUserID, userID))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func upload(h *server.Hertz, path string, body *bytes.Buffer, contentType string, headers ...ut.Header) *ut.ResponseRecorder {
	headers = append(headers, ut.Header{Key: "Content-Type", Value: contentType})
	return ut.PerformRequest(h.Engine, http.MethodPost, path, &ut.Body{Body: body, Len: body.Len()}, headers...)
}

func TestUpload_Success(t *testing.T) {
	svc := &fakeService{}
	h := newTestEngine(svc, 1<<20)

	for _, path := range []string{"/upload_resume", "/api/v1/resume/upload"} {
		t.Run(path, func(t *testing.T) {
			body, ct := multipartBody(t, "u123", "cv.pdf", []byte("%PDF-1.4 data"))
			resp := upload(h, path, body, ct)
			require.Equal(t, http.StatusOK, resp.Code)

			var got map[string]interface{}
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
			assert.Equal(t, "Resume uploaded successfully", got["message"])
			assert.Equal(t, "parse-1", got["parse_id"])
			data := got["data"].(map[string]interface{})
			assert.Equal(t, "John", data["First Name"])
			assert.Equal(t, []interface{}{"Go"}, data["Skills"])
			assert.Equal(t, []interface{}{}, data["Education"])

			assert.Equal(t, "u123", svc.userID)
			assert.Equal(t, "cv.pdf", svc.filename)
			assert.Equal(t, []byte("%PDF-1.4 data"), svc.data)
		})
	}
}

func TestUpload_MissingFields(t *testing.T) {
	svc := &fakeService{}
	h := newTestEngine(svc, 1<<20)

	body, ct := multipartBody(t, "", "cv.pdf", []byte("%PDF"))
	resp := upload(h, "/upload_resume", body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	body, ct = multipartBody(t, "u1", "", nil)
	resp = upload(h, "/upload_resume", body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	assert.Zero(t, svc.calls)
}

func TestUpload_UserIDPassedAsIs(t *testing.T) {
	svc := &fakeService{}
	h := newTestEngine(svc, 1<<20)

	body, ct := multipartBody(t, " u1 ", "cv.pdf", []byte("%PDF"))
	resp := upload(h, "/upload_resume", body, ct)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, " u1 ", svc.userID)
}

func TestUpload_TooLarge(t *testing.T) {
	svc := &fakeService{}
	h := newTestEngine(svc, 16)

	body, ct := multipartBody(t, "u1", "cv.pdf", bytes.Repeat([]byte("x"), 64))
	resp := upload(h, "/api/v1/resume/upload", body, ct)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
	assert.Zero(t, svc.calls)
}

func TestUpload_PipelineErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"非法用户ID", processor.NewInvalidInputError("a/b", "user_id 不能包含 /"), http.StatusBadRequest},
		{"存储失败", processor.NewPersistError("u1", "users/u1/ResumeDetails/resume", errors.New("secret dsn")), http.StatusInternalServerError},
		{"未知错误", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestEngine(&fakeService{err: tt.err}, 1<<20)
			body, ct := multipartBody(t, "u1", "cv.pdf", []byte("%PDF"))
			resp := upload(h, "/upload_resume", body, ct)
			assert.Equal(t, tt.code, resp.Code)
			if tt.code == http.StatusInternalServerError {
				assert.NotContains(t, resp.Body.String(), "secret")
			}
		})
	}
}

func TestUpload_APIKey(t *testing.T) {
	svc := &fakeService{}
	h := newTestEngine(svc, 1<<20, router.WithAPIKeys("k1", "k2"))

	body, ct := multipartBody(t, "u1", "cv.pdf", []byte("%PDF"))
	resp := upload(h, "/api/v1/resume/upload", body, ct)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	body, ct = multipartBody(t, "u1", "cv.pdf", []byte("%PDF"))
	resp = upload(h, "/api/v1/resume/upload", body, ct, ut.Header{Key: router.APIKeyHeader, Value: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	body, ct = multipartBody(t, "u1", "cv.pdf", []byte("%PDF"))
	resp = upload(h, "/api/v1/resume/upload", body, ct, ut.Header{Key: router.APIKeyHeader, Value: "k2"})
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 1, svc.calls)

	// 健康检查不需要 key
	resp = ut.PerformRequest(h.Engine, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"ok"}`, resp.Body.String())
}

func TestUpload_RateLimited(t *testing.T) {
	svc := &fakeService{}
	h := newTestEngine(svc, 1<<20, router.WithRateLimiter(ratelimit.NewTokenBucket(1, 1)))

	body, ct := multipartBody(t, "u1", "cv.pdf", []byte("%PDF"))
	resp := upload(h, "/upload_resume", body, ct)
	assert.Equal(t, http.StatusOK, resp.Code)

	body, ct = multipartBody(t, "u1", "cv.pdf", []byte("%PDF"))
	resp = upload(h, "/upload_resume", body, ct)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.NotEmpty(t, resp.Header().Get("Retry-After"))
	assert.Equal(t, 1, svc.calls)

	// 健康检查不受限流影响
	resp = ut.PerformRequest(h.Engine, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

// stubText 直接返回上传内容作为文本
type stubText struct{}

func (stubText) ExtractText(ctx context.Context, data []byte, filename string) (string, map[string]interface{}, error) {
	return string(data), nil, nil
}

// stubAnnotator 按空白切分，每个词都标为名词
type stubAnnotator struct{}

func (stubAnnotator) Annotate(ctx context.Context, text string) (*types.AnnotatedDocument, error) {
	doc := &types.AnnotatedDocument{Text: text}
	for _, w := range bytes.Fields([]byte(text)) {
		doc.Tokens = append(doc.Tokens, types.Token{Text: string(w), Lemma: string(w), POS: types.POSNoun})
	}
	return doc, nil
}

func TestUpload_WithPipeline(t *testing.T) {
	sink := storage.NewMemorySink()
	pipeline := processor.NewResumePipeline(stubText{}, stubAnnotator{},
		extractor.NewStaticKeywords(extractor.NewKeywordSet("python", "sql")), sink)
	h := newTestEngine(pipeline, 1<<20)

	body, ct := multipartBody(t, "u7", "cv.txt", []byte("Python and SQL, reach me at jane@example.com or +1 555-123-4567"))
	resp := upload(h, "/upload_resume", body, ct)
	require.Equal(t, http.StatusOK, resp.Code)

	stored, err := sink.Get(context.Background(), storage.ResumeDocumentPath("u7"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Python"}, stored["Skills"])
	assert.Equal(t, "jane@example.com", stored["Email"])
	assert.Equal(t, "Entry Level", stored["Experience Level"])
	assert.NotEmpty(t, stored["Phone Number"])
}

func TestUpload_WithPipelineRejectsInvalidUserID(t *testing.T) {
	sink := storage.NewMemorySink()
	pipeline := processor.NewResumePipeline(stubText{}, stubAnnotator{},
		extractor.NewStaticKeywords(extractor.NewKeywordSet("python")), sink)
	h := newTestEngine(pipeline, 1<<20)

	for _, userID := range []string{"   ", ".", "..", "a/b"} {
		body, ct := multipartBody(t, userID, "cv.txt", []byte("Python"))
		resp := upload(h, "/upload_resume", body, ct)
		assert.Equal(t, http.StatusBadRequest, resp.Code, "user_id %q", userID)
	}
}
