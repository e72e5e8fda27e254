package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	api "github.com/neocertify/neocertify/internal/api/v1"
	"github.com/neocertify/neocertify/internal/ncerrors"
	"github.com/neocertify/neocertify/internal/store/model"
	"github.com/neocertify/neocertify/internal/util"
)

const DefaultHistoryPageSize = 50

type History interface {
	// List returns the organization's audit rows newest first, strictly
	// ordered by (created_at, id) descending. The cursor, when present,
	// resumes strictly after the row it names; hasMore reports whether
	// rows beyond the returned page exist.
	List(ctx context.Context, orgID uuid.UUID, query api.HistoryQuery) ([]model.History, bool, error)
	// ListForCode returns every audit row of one unit, oldest first.
	ListForCode(ctx context.Context, codeID uuid.UUID) ([]model.History, error)
}

type HistoryStore struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewHistory(db *gorm.DB, log logrus.FieldLogger) History {
	return &HistoryStore{db: db, log: log}
}

func (s *HistoryStore) List(ctx context.Context, orgID uuid.UUID, query api.HistoryQuery) ([]model.History, bool, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultHistoryPageSize
	}

	q := s.db.WithContext(ctx).Model(&model.History{}).
		Preload("VirtualCode.Lot.Product").
		Where("from_org_id = ? OR to_org_id = ?", orgID, orgID)

	if len(query.ActionTypes) > 0 {
		actions := lo.Map(query.ActionTypes, func(a api.ActionType, _ int) string { return string(a) })
		q = q.Where("action_type IN ?", actions)
	}
	if query.IsRecall != nil {
		q = q.Where("is_recall = ?", *query.IsRecall)
	}
	if query.StartDate != "" {
		start, err := util.StartOfDay(query.StartDate)
		if err != nil {
			return nil, false, ncerrors.ErrValidation
		}
		q = q.Where("created_at >= ?", start)
	}
	if query.EndDate != "" {
		end, err := util.EndOfDay(query.EndDate)
		if err != nil {
			return nil, false, ncerrors.ErrValidation
		}
		q = q.Where("created_at <= ?", end)
	}
	if query.CursorTime != nil && query.CursorKey != nil {
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)",
			*query.CursorTime, *query.CursorTime, *query.CursorKey)
	}

	var rows []model.History
	result := q.Order("created_at DESC, id DESC").Limit(limit + 1).Find(&rows)
	if result.Error != nil {
		return nil, false, ncerrors.ErrorFromGormError(result.Error)
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	return rows, hasMore, nil
}

func (s *HistoryStore) ListForCode(ctx context.Context, codeID uuid.UUID) ([]model.History, error) {
	var rows []model.History
	result := s.db.WithContext(ctx).
		Where("virtual_code_id = ?", codeID).
		Order("created_at ASC, id ASC").
		Find(&rows)
	if result.Error != nil {
		return nil, ncerrors.ErrorFromGormError(result.Error)
	}
	return rows, nil
}
