package stacktrace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternalPaths(t *testing.T) {
	stack := []byte(`goroutine 1 [running]:
github.com/shandysiswandi/levelup/internal/pkg/realtime.(*Hub).Send(...)
	/src/levelup/internal/pkg/realtime/hub.go:42 +0x1d
github.com/shandysiswandi/levelup/internal/notification/usecase.(*Usecase).Create(...)
	/src/levelup/internal/notification/usecase/create.go:39
net/http.HandlerFunc.ServeHTTP(...)
	/usr/local/go/src/net/http/server.go:2220 +0x29
`)

	assert.Equal(t, []string{
		"internal/pkg/realtime/hub.go:42",
		"internal/notification/usecase/create.go:39",
	}, InternalPaths(stack))
	assert.Empty(t, InternalPaths(nil))
}
