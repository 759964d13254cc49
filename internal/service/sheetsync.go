package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"tenant-deployment-system/internal/model"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const sheetQueueSize = 256

// SheetSyncService mirrors the deployment ledger into a Google Sheet, one row
// per deployment keyed by its id in column A. Rows written through Observe are
// synced by a single background worker in the order they were observed.
type SheetSyncService struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	queue         chan model.DeploymentRecord
	done          chan struct{}
}

// NewSheetSyncService returns nil when sync is disabled. A nil service accepts
// every call and does nothing.
func NewSheetSyncService(ctx context.Context, enableSync bool, credentialPath, spreadsheetID, sheetName string, opts ...option.ClientOption) (*SheetSyncService, error) {
	if !enableSync {
		return nil, nil
	}

	if credentialPath != "" {
		b, err := os.ReadFile(credentialPath)
		if err != nil {
			return nil, err
		}
		creds, err := google.CredentialsFromJSON(ctx, b, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("load sheets credentials: %w", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}

	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &SheetSyncService{
		service:       srv,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		queue:         make(chan model.DeploymentRecord, sheetQueueSize),
		done:          make(chan struct{}),
	}, nil
}

// Verify checks that the configured worksheet exists.
func (s *SheetSyncService) Verify(ctx context.Context) error {
	if s == nil {
		return nil
	}
	spreadsheet, err := s.service.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == s.sheetName {
			return nil
		}
	}
	return fmt.Errorf("worksheet '%s' does not exist", s.sheetName)
}

// Run drains the observe queue until ctx is cancelled.
func (s *SheetSyncService) Run(ctx context.Context) {
	if s == nil {
		return
	}
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case record := <-s.queue:
			if err := s.SyncDeployment(ctx, record); err != nil {
				zap.L().Warn("sheet sync failed", zap.Uint("deployment_id", record.ID), zap.Error(err))
			}
		}
	}
}

// Start runs the worker on a context of its own and returns the function that
// stops it and waits for it to exit. The parent being cancelled also stops it.
func (s *SheetSyncService) Start(parent context.Context) (stop func()) {
	if s == nil {
		return func() {}
	}
	ctx, cancel := context.WithCancel(parent)
	go s.Run(ctx)
	return func() {
		cancel()
		s.Wait()
	}
}

// Wait blocks until Run has returned.
func (s *SheetSyncService) Wait() {
	if s == nil {
		return
	}
	<-s.done
}

func (s *SheetSyncService) Observe(record model.DeploymentRecord) {
	if s == nil {
		return
	}
	select {
	case s.queue <- record:
	default:
		zap.L().Warn("sheet sync queue full, dropping update", zap.Uint("deployment_id", record.ID))
	}
}

func deploymentRow(r model.DeploymentRecord) []interface{} {
	return []interface{}{
		strconv.FormatUint(uint64(r.ID), 10),
		r.TenantExternalID,
		r.WorkflowName,
		r.SubscriptionID,
		r.ResourceGroup,
		r.TemplateName,
		string(r.Status),
		r.Message,
		r.DeployedAt.UTC().Format(time.RFC3339),
	}
}

// SyncDeployment updates the row of the deployment, appending it when absent.
func (s *SheetSyncService) SyncDeployment(ctx context.Context, record model.DeploymentRecord) error {
	if s == nil {
		return nil
	}

	keyResp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, fmt.Sprintf("%s!A2:A", s.sheetName)).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read sheet keys: %w", err)
	}

	id := strconv.FormatUint(uint64(record.ID), 10)
	rowIndex := 0
	for i, row := range keyResp.Values {
		if len(row) > 0 && fmt.Sprint(row[0]) == id {
			rowIndex = i + 2
			break
		}
	}

	values := &sheets.ValueRange{Values: [][]interface{}{deploymentRow(record)}}
	if rowIndex > 0 {
		_, err = s.service.Spreadsheets.Values.Update(
			s.spreadsheetID,
			fmt.Sprintf("%s!A%d:I%d", s.sheetName, rowIndex, rowIndex),
			values,
		).ValueInputOption("RAW").Context(ctx).Do()
	} else {
		_, err = s.service.Spreadsheets.Values.Append(
			s.spreadsheetID,
			s.sheetName+"!A2:I",
			values,
		).ValueInputOption("RAW").Context(ctx).Do()
	}
	if err != nil {
		return fmt.Errorf("write sheet row: %w", err)
	}

	zap.L().Debug("deployment synced to sheet", zap.Uint("deployment_id", record.ID), zap.String("status", string(record.Status)))
	return nil
}

// ExportDeployments overwrites the worksheet body with the given ledger rows.
func (s *SheetSyncService) ExportDeployments(ctx context.Context, records []model.DeploymentRecord) error {
	if s == nil {
		return nil
	}

	if _, err := s.service.Spreadsheets.Values.Clear(s.spreadsheetID, s.sheetName+"!A2:I", &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	values := make([][]interface{}, 0, len(records))
	for _, r := range records {
		values = append(values, deploymentRow(r))
	}

	_, err := s.service.Spreadsheets.Values.Update(
		s.spreadsheetID,
		fmt.Sprintf("%s!A2:I%d", s.sheetName, len(records)+1),
		&sheets.ValueRange{Values: values},
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("export deployments: %w", err)
	}
	return nil
}
