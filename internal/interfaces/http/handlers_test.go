package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/pharmacy-audit/internal/aig"
	"github.com/garyjia/pharmacy-audit/internal/application/service"
	"github.com/garyjia/pharmacy-audit/internal/models"
	"github.com/garyjia/pharmacy-audit/internal/report"
	"github.com/garyjia/pharmacy-audit/internal/repository"
	"github.com/garyjia/pharmacy-audit/internal/storage"
	"github.com/garyjia/pharmacy-audit/internal/testutil"
	"github.com/garyjia/pharmacy-audit/migrations"
	"github.com/garyjia/pharmacy-audit/pkg/database"
	"github.com/garyjia/pharmacy-audit/pkg/utils"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func setupServer(t *testing.T) *Server {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.New(database.Config{Path: database.MemoryPath}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.NewMigrator(db, logger).Run(context.Background(), migrations.FS))

	svc := service.NewGenerationService(
		repository.NewRunRepository(db.DB, logger),
		repository.NewRuleRepository(db.DB, logger),
		repository.NewPractitionerRepository(db.DB, logger),
		storage.NewTemplateStore(t.TempDir(), logger),
		report.DefaultConfig(),
		nil,
		logger,
	)
	return NewServer(DefaultServerConfig(), svc, utils.NewKVLogger(logger))
}

func do(t *testing.T, s *Server, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func generateRequest(t *testing.T, query string, skip string) *http.Request {
	t.Helper()
	docs, err := testutil.BuildDocuments()
	require.NoError(t, err)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	files := []struct {
		field, name string
		data        []byte
	}{
		{FieldReport, "report.xlsx", docs.Report},
		{FieldCurrent, "current.docx", docs.Current},
		{FieldPrior, "prior.html", docs.Prior},
		{FieldPractitioners, "practitioners.xlsx", docs.Practitioners},
	}
	for _, f := range files {
		if f.field == skip {
			continue
		}
		part, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/generate"+query, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealthCheck(t *testing.T) {
	s := setupServer(t)
	w, env := do(t, s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
}

func TestGenerate(t *testing.T) {
	s := setupServer(t)

	t.Run("missing prescribers need confirmation", func(t *testing.T) {
		w, env := do(t, s, generateRequest(t, "", ""))
		require.Equal(t, http.StatusConflict, w.Code)
		assert.False(t, env.Success)

		var data GenerateResponse
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Nil(t, data.Run)
		assert.Equal(t, []string{testutil.DEAGamma}, data.MissingDEA)
	})

	var run models.GenerationRun
	t.Run("confirmed run is saved", func(t *testing.T) {
		w, env := do(t, s, generateRequest(t, "?confirm=true", ""))
		require.Equal(t, http.StatusCreated, w.Code)

		var data GenerateResponse
		require.NoError(t, json.Unmarshal(env.Data, &data))
		require.NotNil(t, data.Run)
		run = *data.Run
		assert.Equal(t, "ACME PHARMACY", run.Pharmacy)
		assert.Equal(t, 10, run.SheetCount)
		assert.Equal(t, []string{testutil.DEAGamma}, run.MissingDEA)
	})

	t.Run("runs are listed", func(t *testing.T) {
		w, env := do(t, s, httptest.NewRequest(http.MethodGet, "/api/runs?limit=5", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var runs []models.GenerationRun
		require.NoError(t, json.Unmarshal(env.Data, &runs))
		require.Len(t, runs, 1)
		assert.Equal(t, run.ID, runs[0].ID)
	})

	t.Run("saved workbook downloads", func(t *testing.T) {
		w, _ := do(t, s, httptest.NewRequest(http.MethodGet, "/api/runs/"+run.ID+"/download", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

		f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "common", f.GetSheetList()[0])
	})

	t.Run("unknown run", func(t *testing.T) {
		w, _ := do(t, s, httptest.NewRequest(http.MethodGet, "/api/runs/nope/download", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing upload", func(t *testing.T) {
		w, env := do(t, s, generateRequest(t, "", FieldPrior))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, env.Error, FieldPrior)
	})
}

func TestAddPractitioner(t *testing.T) {
	s := setupServer(t)

	post := func(body string) (*httptest.ResponseRecorder, envelope) {
		req := httptest.NewRequest(http.MethodPost, "/api/practitioners", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		return do(t, s, req)
	}

	t.Run("invalid DEA", func(t *testing.T) {
		w, _ := post(`{"dea":"CC3333330","name":"Dr. Gamma"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing name", func(t *testing.T) {
		w, _ := post(`{"dea":"` + testutil.DEAGamma + `"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("added practitioner resolves on the next run", func(t *testing.T) {
		w, _ := post(`{"dea":"` + testutil.DEAGamma + `","name":"Dr. Gamma","specialty":"Anesthesiology","state":"IL"}`)
		require.Equal(t, http.StatusCreated, w.Code)

		w, env := do(t, s, generateRequest(t, "", ""))
		require.Equal(t, http.StatusCreated, w.Code)

		var data GenerateResponse
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Empty(t, data.MissingDEA)
	})
}

func TestRules(t *testing.T) {
	s := setupServer(t)

	source := func() string {
		t.Helper()
		w, env := do(t, s, httptest.NewRequest(http.MethodGet, "/api/rules", nil))
		require.Equal(t, http.StatusOK, w.Code)
		var data RulesResponse
		require.NoError(t, json.Unmarshal(env.Data, &data))
		return data.Source
	}

	assert.Equal(t, service.RuleSourceDefault, source())

	t.Run("yaml export round-trips", func(t *testing.T) {
		w, _ := do(t, s, httptest.NewRequest(http.MethodGet, "/api/rules?format=yaml", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, yamlContentType, w.Header().Get("Content-Type"))

		table, err := aig.Parse(w.Body.Bytes())
		require.NoError(t, err)
		assert.Equal(t, aig.DefaultTable().Rules(), table.Rules())
	})

	t.Run("override is stored", func(t *testing.T) {
		doc, err := aig.Marshal(aig.DefaultTable())
		require.NoError(t, err)

		w, _ := do(t, s, httptest.NewRequest(http.MethodPut, "/api/rules", bytes.NewReader(doc)))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, service.RuleSourceStored, source())
	})

	t.Run("invalid document", func(t *testing.T) {
		body := bytes.NewBufferString("rules:\n  - label: x\n    operator: \"~\"\n    sheet: 1\n")
		w, env := do(t, s, httptest.NewRequest(http.MethodPut, "/api/rules", body))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NotEmpty(t, env.Error)
	})

	t.Run("reset falls back to the default table", func(t *testing.T) {
		w, _ := do(t, s, httptest.NewRequest(http.MethodDelete, "/api/rules", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, service.RuleSourceDefault, source())
	})
}
