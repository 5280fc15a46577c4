package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	callservices "transcriptai/server/modules/calls/application/services"
	callinfra "transcriptai/server/modules/calls/infrastructure/repositories"
	"transcriptai/server/modules/calls/interfaces/http/dtos"
	"transcriptai/server/seedwork/infrastructure/database"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

// CallHandlersTestSuite exercises the call-status endpoint against a real
// sqlite database, following the same suite-per-handler-group shape used
// throughout this service's interfaces/http layer.
type CallHandlersTestSuite struct {
	suite.Suite
	router   *gin.Engine
	handlers *CallHandlers
	calls    *callservices.CallService
}

func (suite *CallHandlersTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)

	dbPath := filepath.Join(suite.T().TempDir(), "db.sqlite")
	suite.Require().NoError(database.Initialize(dbPath))
	suite.Require().NoError(database.RunMigrations(migrationsDir()))

	repo := callinfra.NewGormCallRepository()
	suite.calls = callservices.NewCallService(repo)
	suite.handlers = NewCallHandlers(suite.calls)

	suite.router = gin.New()
	suite.router.GET("/calls/:call_id/status", suite.handlers.GetStatus)
}

func migrationsDir() string {
	dir, _ := filepath.Abs("../../../../../migrations")
	return dir
}

func (suite *CallHandlersTestSuite) TestGetStatus_ReturnsCallFields() {
	call, err := suite.calls.CreateCall(context.Background(), "/tmp/audio.wav", "audio.wav", 1024)
	suite.Require().NoError(err)

	req, _ := http.NewRequest(http.MethodGet, "/calls/"+call.GetID()+"/status", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)

	var resp dtos.CallStatusResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(call.GetID(), resp.ID)
	suite.Equal("audio.wav", resp.OriginalFilename)
	suite.Equal(int64(1024), resp.FileSizeBytes)
}

func (suite *CallHandlersTestSuite) TestGetStatus_UnknownIDReturnsNotFound() {
	req, _ := http.NewRequest(http.MethodGet, "/calls/does-not-exist/status", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusNotFound, w.Code)
}

func TestMain(m *testing.M) {
	os.Exit(m.Run())
}

func TestCallHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(CallHandlersTestSuite))
}
