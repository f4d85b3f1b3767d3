package main

import (
	"context"

	"github.com/shandysiswandi/levelup/internal/app"
)

// @title           LevelUp Realtime API
// @version         1.0
// @description     LevelUp realtime pushes live progress, leaderboard and notification updates to learners.
// @contact.name    LevelUp Platform Team
// @license.name    MIT
// @license.url     https://mit-license.org/
// @server          http://localhost:8080
// @securityDefinitions.apikey  BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT. Socket clients may pass access_token instead.
func main() {
	a := app.New()
	<-a.Start()

	ctx, cancel := context.WithTimeout(context.Background(), a.ShutdownTimeout())
	defer cancel()
	a.Stop(ctx)
}
