package service

import (
	"context"
	"errors"
	"testing"

	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/dmm-case-workflow/internal/domain/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockHistoryExporter struct {
	exportHistoryFunc func(c *entity.Case, entries []*entity.CaseHistory) ([]byte, error)
}

func (m *mockHistoryExporter) ExportHistory(c *entity.Case, entries []*entity.CaseHistory) ([]byte, error) {
	if m.exportHistoryFunc != nil {
		return m.exportHistoryFunc(c, entries)
	}
	return []byte("xlsx"), nil
}

func TestExportService_ExportHistory(t *testing.T) {
	_, svc := newCaseService(t)
	view, err := svc.CreateCase(context.Background(), adminActor, validInput())
	require.NoError(t, err)

	var gotEntries int
	exporter := &mockHistoryExporter{
		exportHistoryFunc: func(c *entity.Case, entries []*entity.CaseHistory) ([]byte, error) {
			gotEntries = len(entries)
			return []byte("PK"), nil
		},
	}
	export := NewExportService(svc, exporter, &mockLogger{})

	file, err := export.ExportHistory(context.Background(), adminActor, view.Case.ID)
	require.NoError(t, err)
	assert.Equal(t, view.Case.CaseNumber+"-history.xlsx", file.FileName)
	assert.Equal(t, []byte("PK"), file.Content)
	assert.Equal(t, 1, gotEntries)
}

func TestExportService_Errors(t *testing.T) {
	_, svc := newCaseService(t)
	view, err := svc.CreateCase(context.Background(), adminActor, validInput())
	require.NoError(t, err)

	t.Run("invisible case", func(t *testing.T) {
		export := NewExportService(svc, &mockHistoryExporter{}, &mockLogger{})
		_, err := export.ExportHistory(context.Background(), legalActor, view.Case.ID)
		assert.ErrorIs(t, err, domainwf.ErrNotFound)
	})

	t.Run("renderer failure", func(t *testing.T) {
		exporter := &mockHistoryExporter{
			exportHistoryFunc: func(c *entity.Case, entries []*entity.CaseHistory) ([]byte, error) {
				return nil, errors.New("boom")
			},
		}
		export := NewExportService(svc, exporter, &mockLogger{})
		_, err := export.ExportHistory(context.Background(), adminActor, view.Case.ID)
		require.Error(t, err)
		assert.Empty(t, domainwf.CodeOf(err))
	})
}
