// Package erp provides read-only connectivity to the MS SQL Server ERP
// warehouse that holds the authoritative project budget BOQ. The
// connection is optional: when disabled or unreachable, callers fall
// back to the locally replicated budget table.
package erp

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb" // MS SQL Server driver
	"go.uber.org/zap"

	"github.com/buildflow/subcontractor-api/internal/config"
	"github.com/buildflow/subcontractor-api/internal/domain"
)

const (
	// Retry configuration for connection attempts
	defaultMaxRetries     = 3
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 10 * time.Second
	defaultBackoffFactor  = 2.0

	defaultHealthCheckTimeout = 5 * time.Second

	// budgetBOQTable is the warehouse view exposing budget BOQ lines
	budgetBOQTable = "dbo.vw_budget_boq_line"
)

// Client provides read-only access to the ERP warehouse.
type Client struct {
	db           *sql.DB
	config       *config.ERPConfig
	logger       *zap.Logger
	queryTimeout time.Duration
}

// HealthStatus represents the health check result for the ERP connection
type HealthStatus struct {
	Status     string        `json:"status"`
	Latency    time.Duration `json:"latency_ms"`
	Error      string        `json:"error,omitempty"`
	MaxOpen    int           `json:"max_open_connections"`
	Open       int           `json:"open_connections"`
	InUse      int           `json:"in_use"`
	Idle       int           `json:"idle"`
	WaitCount  int64         `json:"wait_count"`
	WaitTimeMs int64         `json:"wait_time_ms"`
}

// NewClient creates a new ERP client with the given configuration.
// Returns nil if the ERP connection is not enabled or not configured.
// Connection establishment retries transient failures with backoff.
func NewClient(cfg *config.ERPConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		logger.Info("ERP connection disabled")
		return nil, nil
	}

	if cfg.URL == "" || cfg.User == "" || cfg.Password == "" {
		logger.Warn("ERP enabled but missing credentials, skipping connection",
			zap.Bool("url_present", cfg.URL != ""),
			zap.Bool("user_present", cfg.User != ""),
			zap.Bool("password_present", cfg.Password != ""),
		)
		return nil, nil
	}

	connStr, err := buildConnectionString(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build connection string: %w", err)
	}

	var db *sql.DB
	backoff := defaultInitialBackoff

	for attempt := 1; attempt <= defaultMaxRetries; attempt++ {
		logger.Info("Attempting ERP connection",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", defaultMaxRetries),
		)

		db, err = sql.Open("sqlserver", connStr)
		if err != nil {
			logger.Warn("Failed to open ERP connection",
				zap.Error(err),
				zap.Int("attempt", attempt),
			)
			if attempt < defaultMaxRetries {
				time.Sleep(backoff)
				backoff = min(time.Duration(float64(backoff)*defaultBackoffFactor), defaultMaxBackoff)
			}
			continue
		}

		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

		ctx, cancel := context.WithTimeout(context.Background(), defaultHealthCheckTimeout)
		err = db.PingContext(ctx)
		cancel()

		if err != nil {
			logger.Warn("ERP ping failed",
				zap.Error(err),
				zap.Int("attempt", attempt),
			)
			_ = db.Close()
			if attempt < defaultMaxRetries {
				time.Sleep(backoff)
				backoff = min(time.Duration(float64(backoff)*defaultBackoffFactor), defaultMaxBackoff)
			}
			continue
		}

		logger.Info("ERP connection established successfully",
			zap.Int("attempts_taken", attempt),
		)

		return &Client{
			db:           db,
			config:       cfg,
			logger:       logger,
			queryTimeout: cfg.QueryTimeoutDuration(),
		}, nil
	}

	return nil, fmt.Errorf("failed to connect to ERP after %d attempts: %w", defaultMaxRetries, err)
}

// buildConnectionString constructs a SQL Server connection string.
// URL format expected: host:port/database or host:port.
func buildConnectionString(cfg *config.ERPConfig) (string, error) {
	urlParts := strings.SplitN(cfg.URL, "/", 2)
	hostPort := urlParts[0]
	database := ""
	if len(urlParts) > 1 {
		database = urlParts[1]
	}

	hostParts := strings.SplitN(hostPort, ":", 2)
	host := hostParts[0]
	port := "1433"
	if len(hostParts) > 1 {
		port = hostParts[1]
	}

	query := url.Values{}
	query.Add("encrypt", "true")
	query.Add("TrustServerCertificate", "false")
	query.Add("connection timeout", "30")
	if database != "" {
		query.Add("database", database)
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%s", host, port),
		RawQuery: query.Encode(),
	}

	return u.String(), nil
}

// Close gracefully closes the ERP connection during shutdown.
func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}

	c.logger.Info("Closing ERP connection")

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close ERP connection: %w", err)
	}
	return nil
}

// IsEnabled returns true if the client is initialized and ready for queries.
func (c *Client) IsEnabled() bool {
	return c != nil && c.db != nil
}

// HealthCheck pings the ERP connection and reports pool statistics.
func (c *Client) HealthCheck(ctx context.Context) *HealthStatus {
	if c == nil || c.db == nil {
		return &HealthStatus{Status: "disabled"}
	}

	start := time.Now()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultHealthCheckTimeout)
		defer cancel()
	}

	err := c.db.PingContext(ctx)
	latency := time.Since(start)

	stats := c.db.Stats()
	status := &HealthStatus{
		Latency:    latency,
		MaxOpen:    stats.MaxOpenConnections,
		Open:       stats.OpenConnections,
		InUse:      stats.InUse,
		Idle:       stats.Idle,
		WaitCount:  stats.WaitCount,
		WaitTimeMs: stats.WaitDuration.Milliseconds(),
	}

	if err != nil {
		c.logger.Warn("ERP health check failed",
			zap.Error(err),
			zap.Duration("latency", latency),
		)
		status.Status = "unhealthy"
		status.Error = err.Error()
	} else {
		status.Status = "healthy"
	}

	return status
}

// FetchBudgetBOQ reads budget BOQ lines for one project/sheet scoped to
// the given buildings. Malformed rows are skipped with a warning so a
// partially bad warehouse extract degrades to fewer rows, never an error.
func (c *Client) FetchBudgetBOQ(ctx context.Context, projectID int64, sheetName string, buildingIDs []int64) ([]domain.BudgetBOQLine, error) {
	if c == nil || c.db == nil {
		return nil, fmt.Errorf("erp client not initialized")
	}
	if len(buildingIDs) == 0 {
		return nil, nil
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.queryTimeout)
		defer cancel()
	}

	placeholders := make([]string, len(buildingIDs))
	args := []interface{}{projectID, sheetName}
	for i, id := range buildingIDs {
		placeholders[i] = fmt.Sprintf("@p%d", i+3)
		args = append(args, id)
	}

	query := fmt.Sprintf(`SELECT building_id, position, no, item_key, cost_code, cost_code_id, unite, qte, pu
		FROM %s
		WHERE project_id = @p1 AND sheet_name = @p2 AND building_id IN (%s)
		ORDER BY building_id, position`,
		budgetBOQTable, strings.Join(placeholders, ", "))

	start := time.Now()

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("budget boq query failed: %w", err)
	}
	defer rows.Close()

	var lines []domain.BudgetBOQLine
	skipped := 0
	for rows.Next() {
		var (
			line       domain.BudgetBOQLine
			no         sql.NullString
			key        sql.NullString
			costCode   sql.NullString
			costCodeID sql.NullInt64
			unite      sql.NullString
			qte        sql.NullFloat64
			pu         sql.NullFloat64
		)
		if err := rows.Scan(&line.BuildingID, &line.Position, &no, &key, &costCode, &costCodeID, &unite, &qte, &pu); err != nil {
			skipped++
			c.logger.Warn("Skipping malformed budget boq row", zap.Error(err))
			continue
		}
		line.ProjectID = projectID
		line.SheetName = sheetName
		line.No = no.String
		line.Key = key.String
		line.CostCode = costCode.String
		if costCodeID.Valid {
			id := costCodeID.Int64
			line.CostCodeID = &id
		}
		line.Unite = unite.String
		line.Qte = qte.Float64
		line.Pu = pu.Float64
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budget boq rows: %w", err)
	}

	c.logger.Debug("Budget BOQ fetched from ERP",
		zap.Int64("project_id", projectID),
		zap.String("sheet_name", sheetName),
		zap.Int("rows", len(lines)),
		zap.Int("skipped", skipped),
		zap.Duration("duration", time.Since(start)),
	)

	return lines, nil
}
