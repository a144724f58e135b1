package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/neurogarden-backend/internal/domain/content"
)

func SeedItem(tb testing.TB, ctx context.Context, tx *gorm.DB, kind content.Kind, title string) *content.Item {
	tb.Helper()
	it := &content.Item{
		ID:    uuid.New(),
		Kind:  kind,
		Title: title,
		Body:  "# " + title + "\n\nBody of " + title + ".",
	}
	if err := tx.WithContext(ctx).Create(it).Error; err != nil {
		tb.Fatalf("seed content item: %v", err)
	}
	return it
}

func PtrTime(v time.Time) *time.Time { return &v }

func PtrString(v string) *string { return &v }
