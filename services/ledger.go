// services/ledger.go
package services

import (
	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/wiz-rewards/wiz_api/model"
)

// LedgerService is the authoritative record of whether a (user, video) pair
// has already yielded a completion reward. The completion row is the source
// of truth; the completed_videos set on the progress record is a read model
// maintained alongside it.
type LedgerService struct {
	context.DefaultService

	sqlSvc *PostgresService
}

const LEDGER_SVC = "ledger_svc"

func (svc LedgerService) Id() string {
	return LEDGER_SVC
}

func (svc *LedgerService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *LedgerService) Start() error {
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	return nil
}

// SetStore injects the storage service directly. Test hook.
func (svc *LedgerService) SetStore(sqlSvc *PostgresService) {
	svc.sqlSvc = sqlSvc
}

// IsCompleted reports whether the pair already has a completion record.
// Read errors are logged and reported as "not completed" — a permissive
// failure mode; the conditional insert in MarkCompleted still blocks a
// duplicate reward from actually landing.
func (svc *LedgerService) IsCompleted(userID, videoID string) bool {
	_, err := svc.sqlSvc.GetCompletion(userID, videoID)
	if err == nil {
		return true
	}
	if err != gorm.ErrRecordNotFound {
		log.Printf("Completion lookup failed for user %s video %s: %v", userID, videoID, err)
	}
	return false
}

// MarkCompleted records the completion exactly once. Returns false without
// writing when the pair is already in the ledger, including when a
// concurrent call won the insert.
func (svc *LedgerService) MarkCompleted(userID, videoID string, xpEarned, watchTime int) (bool, error) {
	completion := &model.VideoCompletion{
		UserID:    userID,
		VideoID:   videoID,
		XPEarned:  xpEarned,
		WatchTime: watchTime,
	}

	inserted, err := svc.sqlSvc.InsertCompletionIfAbsent(completion)
	if err != nil {
		return false, err
	}
	if !inserted {
		log.Printf("Duplicate completion attempt for user %s video %s", userID, videoID)
		RecordDuplicateCompletion()
		return false, nil
	}

	RecordVideoCompletion()
	return true, nil
}
