package api

import (
	"github.com/gin-gonic/gin"
)

// NewRouter wires the feed server's API under /api.
func NewRouter(auth *AuthAPI, playables *PlayableAPI) *gin.Engine {
	router := gin.Default()

	api := router.Group("/api")
	{
		api.POST("/auth/dev-login", auth.DevLogin)
		api.POST("/auth/session", auth.ExchangeSession)
		api.POST("/seed", playables.Seed)

		authed := api.Group("", auth.RequireAuth)
		{
			authed.GET("/auth/me", auth.Me)
			authed.POST("/auth/logout", auth.Logout)

			authed.GET("/playables/feed", playables.Feed)
			authed.POST("/playables/:playable_id/answer", playables.Answer)
			authed.POST("/playables/:playable_id/guess", playables.Guess)
			authed.POST("/playables/:playable_id/chess-result", playables.ChessResult)
			authed.POST("/playables/:playable_id/skip", playables.Skip)

			authed.GET("/user/stats", playables.Stats)
		}
	}
	return router
}
