package main

import (
	"github.com/invin-app/invin-core/internal/config"
	"github.com/invin-app/invin-core/internal/db"
	"github.com/invin-app/invin-core/internal/server/api"
	"github.com/invin-app/invin-core/internal/server/dao"
	"github.com/invin-app/invin-core/internal/ws"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.InitServerConfig()
	if err != nil {
		panic(err)
	}

	dbClient, err := db.New(cfg.Database.Address, cfg.Database.DatabaseName)
	if err != nil {
		panic(err)
	}
	defer dbClient.Close()

	users := dao.NewUserRepository(dbClient)
	sessions := dao.NewSessionRepository(dbClient)
	playables := dao.NewPlayableRepository(dbClient)
	progress := dao.NewProgressRepository(dbClient)

	authAPI := api.NewAuthAPI(users, sessions, cfg.Auth.UpstreamURL, cfg.Auth.SessionTTL)
	playableAPI := api.NewPlayableAPI(playables, progress, users)
	router := api.NewRouter(authAPI, playableAPI)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	// the gateway dials the feed API on this same process; an empty
	// listen host must not leak into the dial address
	feedHost := cfg.Server.Host
	if feedHost == "" {
		feedHost = "localhost"
	}
	gateway := ws.NewGateway("http://"+feedHost+":"+cfg.Server.Port, 10)
	router.GET("/ws/play", gin.WrapH(gateway))

	if err := router.Run(addr); err != nil {
		panic(err)
	}
}
