package middleware

import (
	"os"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tradenote/tradenote/config"
	"github.com/tradenote/tradenote/utils"
)

func TestMain(m *testing.M) {
	os.Setenv("SESSION_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)
	cfg := config.Load()
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}
