package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userflow/internal/domain"
	"userflow/internal/repository"
	"userflow/internal/testutil"
	"userflow/pkg/fallback"
)

func newAuditService(t *testing.T) domain.AuditLogService {
	t.Helper()

	db := testutil.NewTestDB(t)
	log := testutil.NewLogger()

	fm := fallback.NewFallbackManager(log)
	t.Cleanup(fm.Close)

	svc := NewAuditLogService(repository.NewAuditLogRepository(db, log), fm, log)
	t.Cleanup(svc.Shutdown)

	return svc
}

func TestAuditLogServiceLogAction(t *testing.T) {
	svc := newAuditService(t)

	err := svc.LogAction(domain.EntityTypeUser, 7, domain.ActionTypeCreate, "Kullanıcı oluşturuldu: a@x.com")
	require.NoError(t, err)

	logs, err := svc.GetEntityLogs(domain.EntityTypeUser, 7)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.ActionTypeCreate, logs[0].Action)
	assert.Contains(t, logs[0].Details, "a@x.com")
}

func TestAuditLogServiceLogActionAsync(t *testing.T) {
	svc := newAuditService(t)

	for i := 0; i < 10; i++ {
		svc.LogActionAsync(domain.EntityTypeUser, 7, domain.ActionTypeUpdate, fmt.Sprintf("güncelleme %d", i))
	}

	// Shutdown waits for the pool, so every queued entry is on disk afterwards.
	svc.Shutdown()

	logs, err := svc.GetEntityLogs(domain.EntityTypeUser, 7)
	require.NoError(t, err)
	assert.Len(t, logs, 10)
}

func TestAuditLogServiceAsyncAfterShutdown(t *testing.T) {
	svc := newAuditService(t)
	svc.Shutdown()

	// With the pool stopped the write falls back to the synchronous path.
	svc.LogActionAsync(domain.EntityTypeUser, 9, domain.ActionTypeDelete, "Kullanıcı silindi")

	logs, err := svc.GetEntityLogs(domain.EntityTypeUser, 9)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.ActionTypeDelete, logs[0].Action)
}

func TestAuditLogServiceGetAllLogsPaging(t *testing.T) {
	svc := newAuditService(t)

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, svc.LogAction(domain.EntityTypeUser, i, domain.ActionTypeCreate, ""))
		time.Sleep(2 * time.Millisecond)
	}

	// Out of range paging values fall back to the first page of ten.
	logs, err := svc.GetAllLogs(0, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 3)

	logs, err = svc.GetAllLogs(2, 2)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, int64(1), logs[0].EntityID)
}
