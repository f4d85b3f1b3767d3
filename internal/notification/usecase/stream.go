package usecase

import (
	"context"

	"github.com/shandysiswandi/levelup/internal/pkg/jwt"
	"github.com/shandysiswandi/levelup/internal/pkg/realtime"
)

const streamBuffer = 16

// StreamNotifications subscribes the caller to its recipient channel until ctx is done.
func (s *Usecase) StreamNotifications(ctx context.Context) (*realtime.Stream, func(), error) {
	clm, err := jwt.RequireAuth(ctx)
	if err != nil {
		return nil, nil, err
	}

	stream, cancel := s.repoPush.Subscribe(ctx, clm.UserID, streamBuffer)
	return stream, cancel, nil
}
