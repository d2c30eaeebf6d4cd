// Package e2e runs the bulk loader and the HTTP service against a real PostgreSQL
// instance started with testcontainers-go.
//
// Each test starts from an empty barcodes table. The loader imports an xlsx workbook
// and the checks go through the full router, middleware included.
package e2e

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abgdnv/barcodecheck/internal/barcode/app"
	berrors "github.com/abgdnv/barcodecheck/internal/barcode/errors"
	"github.com/abgdnv/barcodecheck/internal/barcode/service"
	"github.com/abgdnv/barcodecheck/internal/barcode/store"
	"github.com/abgdnv/barcodecheck/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/xuri/excelize/v2"
)

// skipE2ETests is the environment variable that can be set to skip E2E tests.
const skipE2ETests = "BARCODE_SKIP_E2E_TESTS"

const checkURL = "/check_barcode_api"

// BarcodeServiceE2ESuite is a test suite for end-to-end tests of the barcode service and loader.
type BarcodeServiceE2ESuite struct {
	suite.Suite
	pgContainer *postgres.PostgresContainer // PostgreSQL container for E2E tests
	dbPool      *pgxpool.Pool               // direct pool used to truncate and count
	connector   *store.PgConnector          // connector shared by the loader and the service
	loader      *service.Loader
	server      *httptest.Server
	httpClient  *http.Client
	logger      *slog.Logger
	ctx         context.Context
}

// SetupSuite starts PostgreSQL, creates the schema and starts the HTTP handler.
func (s *BarcodeServiceE2ESuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	dbName := "barcodes"
	dbUser := "user"
	dbPassword := "password"

	// 1. Start a PostgreSQL container and wait until it accepts connections.
	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	host, err := s.pgContainer.Host(s.ctx)
	require.NoError(s.T(), err)
	port, err := s.pgContainer.MappedPort(s.ctx, "5432/tcp")
	require.NoError(s.T(), err)

	// 2. Build the connector through the same config path the binaries use.
	dbCfg := config.DatabaseConfig{
		Driver:   config.DriverPostgres,
		Host:     host,
		User:     dbUser,
		Password: dbPassword,
		Name:     dbName,
		Port:     port.Port(),
	}
	dbCfg.Timeout.Connect = 5 * time.Second
	dbCfg.Timeout.Query = 5 * time.Second
	connector, err := app.NewConnector(dbCfg)
	require.NoError(s.T(), err, "Failed to create connector")
	s.connector = connector.(*store.PgConnector)

	for i := range 10 {
		s.logger.Info("Pinging E2E PostgreSQL database", "attempt", i+1)
		err = s.connector.Ping(s.ctx)
		if err == nil {
			break
		}
		time.Sleep(time.Second * 2)
	}
	require.NoError(s.T(), err, "Failed to connect to PostgreSQL after retries")

	// 3. Create the schema the way the loader does.
	s.loader = service.NewLoader(s.connector, s.logger)
	require.NoError(s.T(), s.loader.EnsureSchema(s.ctx), "Failed to ensure schema")

	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err)
	s.dbPool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err)

	// 4. Start the application handler.
	deps := app.SetupDependencies(s.connector, config.BreakerConfig{Failures: 5, Timeout: time.Minute}, s.logger)
	s.server = httptest.NewServer(app.SetupHttpHandler(deps))
	s.httpClient = s.server.Client()
	s.logger.Info("E2E test server started", "url", s.server.URL)
}

// TearDownSuite cleans up resources after all tests in the suite have run.
func (s *BarcodeServiceE2ESuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
	if s.connector != nil {
		s.connector.Close()
	}
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Warn("Failed to terminate E2E PostgreSQL container", "error", err)
		}
	}
}

// SetupTest empties the barcodes table before each test.
func (s *BarcodeServiceE2ESuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE barcodes RESTART IDENTITY")
	require.NoError(s.T(), err, "Failed to truncate barcodes table")
}

func TestBarcodeServiceE2E(t *testing.T) {
	if os.Getenv(skipE2ETests) == "1" {
		t.Skip("Skipping E2E tests based on " + skipE2ETests + " env var")
	}
	suite.Run(t, new(BarcodeServiceE2ESuite))
}

func (s *BarcodeServiceE2ESuite) TestLoadThenCheck() {
	path := s.writeWorkbook("Database", []any{"Barcode", "Name"}, [][]any{
		{"4006381333931", "pen"},
		{" 4006381333931 ", "pen again"},
		{nil, "no barcode"},
		{"", "blank"},
		{"5901234123457", "pad"},
	})

	require.Equal(s.T(), "invalid", s.checkAPI("4006381333931"))

	report, err := s.loader.Run(s.ctx, service.RunParams{Path: path, Section: "Database", Column: "Barcode"})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, report.Attempted)
	assert.Equal(s.T(), 2, report.Inserted)

	assert.Equal(s.T(), "valid", s.checkAPI("4006381333931"))
	assert.Equal(s.T(), "valid", s.checkAPI(" 5901234123457 "))
	assert.Equal(s.T(), "invalid", s.checkAPI("0000000000000"))
	assert.Contains(s.T(), s.checkForm("5901234123457"), `data-result="Valid"`)

	again, err := s.loader.Run(s.ctx, service.RunParams{Path: path, Section: "Database", Column: "Barcode"})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 0, again.Inserted)
	assert.Equal(s.T(), 2, again.Skipped)
	assert.Equal(s.T(), int64(2), s.rowCount())
}

func (s *BarcodeServiceE2ESuite) TestLoadRollsBackOnOversizedValue() {
	path := s.writeWorkbook("Database", []any{"Barcode"}, [][]any{
		{"GOOD-1"},
		{strings.Repeat("X", store.MaxBarcodeLength+1)},
		{"GOOD-2"},
	})

	_, err := s.loader.Run(s.ctx, service.RunParams{Path: path, Section: "Database", Column: "Barcode"})

	require.Error(s.T(), err)
	assert.ErrorIs(s.T(), err, berrors.ErrMergeFailed)
	assert.Equal(s.T(), int64(0), s.rowCount())
	assert.Equal(s.T(), "invalid", s.checkAPI("GOOD-1"))
}

func (s *BarcodeServiceE2ESuite) TestLoadMissingSheet() {
	path := s.writeWorkbook("Other", []any{"Barcode"}, [][]any{{"A1"}})

	_, err := s.loader.Run(s.ctx, service.RunParams{Path: path, Section: "Database", Column: "Barcode"})

	assert.ErrorIs(s.T(), err, berrors.ErrSchemaMismatch)
	assert.Equal(s.T(), int64(0), s.rowCount())
}

// --------------------------------------------------------------------------
// ---------------------- Helper methods for E2E tests ----------------------
// --------------------------------------------------------------------------

// writeWorkbook writes a single-sheet workbook and returns its path.
func (s *BarcodeServiceE2ESuite) writeWorkbook(sheet string, header []any, rows [][]any) string {
	s.T().Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	_, err := f.NewSheet(sheet)
	require.NoError(s.T(), err)
	require.NoError(s.T(), f.SetSheetRow(sheet, "A1", &header))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(s.T(), err)
		require.NoError(s.T(), f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(s.T().TempDir(), "barcodes.xlsx")
	require.NoError(s.T(), f.SaveAs(path))
	return path
}

// checkAPI posts to the JSON API and returns the status field.
func (s *BarcodeServiceE2ESuite) checkAPI(barcode string) string {
	s.T().Helper()
	body, err := json.Marshal(map[string]string{"barcode": barcode})
	require.NoError(s.T(), err)
	resp, err := s.httpClient.Post(s.server.URL+checkURL, "application/json", strings.NewReader(string(body)))
	require.NoError(s.T(), err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)

	var out struct {
		Status string `json:"status"`
	}
	require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(&out))
	return out.Status
}

// checkForm submits the HTML form and returns the rendered page.
func (s *BarcodeServiceE2ESuite) checkForm(barcode string) string {
	s.T().Helper()
	resp, err := s.httpClient.PostForm(s.server.URL+"/", url.Values{"barcode": {barcode}})
	require.NoError(s.T(), err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	page, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)
	return string(page)
}

func (s *BarcodeServiceE2ESuite) rowCount() int64 {
	s.T().Helper()
	var n int64
	require.NoError(s.T(), s.dbPool.QueryRow(s.ctx, "SELECT count(*) FROM barcodes").Scan(&n))
	return n
}
