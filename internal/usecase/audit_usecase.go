package usecase

import (
	"context"
	"net/http"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// 監査ログ閲覧（管理者用）
type AuditUsecase struct {
	auditRepo repo.AuditLogRepository
}

// DI
func NewAuditUsecase(auditRepo repo.AuditLogRepository) *AuditUsecase {
	return &AuditUsecase{auditRepo: auditRepo}
}

type ListAuditLogsInput struct {
	ActorUserID *int64
	Action      string
	ResourceID  *int64
	Limit       int
	Offset      int
}

func (u *AuditUsecase) ListAuditLogs(ctx context.Context, in ListAuditLogsInput) ([]model.AuditLog, error) {
	if in.Limit < 0 || in.Limit > 200 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if in.Offset < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}

	filter := repo.AuditLogFilter{
		ActorUserID: in.ActorUserID,
		ResourceID:  in.ResourceID,
		Limit:       in.Limit,
		Offset:      in.Offset,
	}

	if in.Action != "" {
		switch a := model.AuditAction(in.Action); a {
		case model.AuditActionCreateProduct,
			model.AuditActionUpdateProduct,
			model.AuditActionDeleteProduct,
			model.AuditActionUpdateStock:
			filter.Action = &a
		default:
			return nil, NewHTTPError(http.StatusBadRequest, "invalid action")
		}
	}

	logs, err := u.auditRepo.List(ctx, filter)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return logs, nil
}
