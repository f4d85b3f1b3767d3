package inbound

import (
	"context"

	"github.com/shandysiswandi/levelup/internal/notification/usecase"
	"github.com/shandysiswandi/levelup/internal/pkg/realtime"
)

type ucConsumer interface {
	ConsumeProgress(ctx context.Context, in usecase.ConsumeProgressInput) error
	ConsumeAchievement(ctx context.Context, in usecase.ConsumeAchievementInput) error
	ConsumeCompletion(ctx context.Context, in usecase.ConsumeCompletionInput) error
	ConsumeUserRegistered(ctx context.Context, in usecase.ConsumeUserRegisteredInput) error
}

type ucStream interface {
	StreamNotifications(ctx context.Context) (*realtime.Stream, func(), error)
}

type uc interface {
	ucConsumer
	ucStream

	ListInbox(ctx context.Context, in usecase.ListInboxInput) (*usecase.ListInboxOutput, error)
	MarkInboxRead(ctx context.Context, in usecase.MarkInboxReadInput) error
	MarkAllInboxRead(ctx context.Context) (int64, error)
	Announce(ctx context.Context, in usecase.AnnounceInput) (*usecase.AnnounceOutput, error)
}
